package menu

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/benaskins/roost/internal/bridge"
	"github.com/benaskins/roost/internal/keychain"
	"github.com/benaskins/roost/internal/registry"
	"github.com/benaskins/roost/internal/vault"
)

func testMenu(t *testing.T) (*vault.Vault, *bridge.Bridge) {
	t.Helper()
	reg, err := registry.Open(t.TempDir())
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	v := vault.New(keychain.NewMemoryStore(), reg)
	b := bridge.New(v)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go b.Run(ctx)
	return v, b
}

func save(t *testing.T, b *bridge.Bridge, identity, token string) string {
	t.Helper()
	ch := make(chan bridge.Result, 1)
	b.NotifyLogin(bridge.LoginSignal{Identity: identity, Token: token}, func(r bridge.Result) { ch <- r })
	select {
	case r := <-ch:
		if r.Err != nil {
			t.Fatalf("save %s: %v", identity, r.Err)
		}
		return r.AccountID
	case <-time.After(10 * time.Second):
		t.Fatal("timed out saving")
		return ""
	}
}

func TestItemMarksActiveAccount(t *testing.T) {
	active := item{info: vault.AccountInfo{Username: "alice", Active: true}}
	inactive := item{info: vault.AccountInfo{Username: "bob"}}

	if !strings.Contains(active.Title(), "alice") {
		t.Errorf("title lost the username: %q", active.Title())
	}
	if !strings.Contains(active.Title(), "●") {
		t.Errorf("active account missing marker: %q", active.Title())
	}
	if strings.Contains(inactive.Title(), "●") {
		t.Errorf("inactive account carries marker: %q", inactive.Title())
	}
}

func TestModelRefreshesAfterResult(t *testing.T) {
	v, b := testMenu(t)
	save(t, b, "alice", "T1")

	m := NewModel(v, b)
	if len(m.list.Items()) != 1 {
		t.Fatalf("expected 1 item, got %d", len(m.list.Items()))
	}

	// A second login arrives while the menu is open; the completion
	// message must resync the items.
	save(t, b, "bob", "T2")
	updated, _ := m.Update(resultMsg(bridge.Result{}))
	m = updated.(Model)

	if len(m.list.Items()) != 2 {
		t.Errorf("expected 2 items after refresh, got %d", len(m.list.Items()))
	}
}

func TestModelSwitchCommand(t *testing.T) {
	v, b := testMenu(t)
	aliceID := save(t, b, "alice", "T1")
	save(t, b, "bob", "T2")

	m := NewModel(v, b)
	msg := m.switchCmd(aliceID)()

	res, ok := msg.(resultMsg)
	if !ok {
		t.Fatalf("expected resultMsg, got %T", msg)
	}
	if res.Err != nil {
		t.Fatalf("switch: %v", res.Err)
	}
	if active, _ := v.ActiveAccount(); active.ID != aliceID {
		t.Error("switch command did not change the active account")
	}
}

func TestModelResultCarriesError(t *testing.T) {
	v, b := testMenu(t)
	m := NewModel(v, b)

	msg := m.removeCmd()() // no accounts: must surface the error
	res := msg.(resultMsg)
	if res.Err == nil {
		t.Fatal("expected an error removing with no accounts")
	}

	updated, _ := m.Update(msg)
	m = updated.(Model)
	if !strings.Contains(m.View(), "no active account") {
		t.Error("error not surfaced in the view")
	}
}

func TestModelQuitKeys(t *testing.T) {
	v, b := testMenu(t)
	m := NewModel(v, b)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("expected tea.Quit, got %v", msg)
	}
}

func TestFprintListsAccounts(t *testing.T) {
	v, b := testMenu(t)
	save(t, b, "alice", "T1")
	bobID := save(t, b, "bob", "T2")

	var buf bytes.Buffer
	Fprint(&buf, v)
	out := buf.String()

	if !strings.Contains(out, "alice") || !strings.Contains(out, "bob") {
		t.Errorf("listing missing accounts:\n%s", out)
	}
	if !strings.Contains(out, bobID) {
		t.Errorf("listing missing account id:\n%s", out)
	}
	// bob is active; his row carries the marker.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "bob") && !strings.HasPrefix(line, "*") {
			t.Errorf("active row missing marker: %q", line)
		}
		if strings.Contains(line, "alice") && strings.HasPrefix(line, "*") {
			t.Errorf("inactive row carries marker: %q", line)
		}
	}
}

func TestFprintEmptyRegistry(t *testing.T) {
	v, _ := testMenu(t)

	var buf bytes.Buffer
	Fprint(&buf, v)
	if !strings.Contains(buf.String(), "No accounts") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
