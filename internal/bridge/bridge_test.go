package bridge

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benaskins/roost/internal/keychain"
	"github.com/benaskins/roost/internal/registry"
	"github.com/benaskins/roost/internal/vault"
)

// countingStore counts writes so tests can tell a real save from a
// suppressed duplicate.
type countingStore struct {
	keychain.Store
	puts atomic.Int64
}

func (s *countingStore) Put(accountKey string, blob []byte) error {
	s.puts.Add(1)
	return s.Store.Put(accountKey, blob)
}

type countingSurface struct {
	reloads atomic.Int64
}

func (s *countingSurface) Reload(context.Context) error {
	s.reloads.Add(1)
	return nil
}

func testBridge(t *testing.T) (*Bridge, *countingStore, *countingSurface) {
	t.Helper()
	store := &countingStore{Store: keychain.NewMemoryStore()}
	reg, err := registry.Open(t.TempDir())
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	surface := &countingSurface{}
	b := New(vault.New(store, reg), WithSurface(surface))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go b.Run(ctx)

	return b, store, surface
}

func await(t *testing.T, b *Bridge, enqueue func(done func(Result))) Result {
	t.Helper()
	ch := make(chan Result, 1)
	enqueue(func(r Result) { ch <- r })
	select {
	case r := <-ch:
		return r
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for bridge result")
		return Result{}
	}
}

func TestLoginSignalSavesAndReloads(t *testing.T) {
	b, store, surface := testBridge(t)

	res := await(t, b, func(done func(Result)) {
		b.NotifyLogin(LoginSignal{Identity: "alice", Token: "T1"}, done)
	})

	if res.Err != nil {
		t.Fatalf("save: %v", res.Err)
	}
	if res.AccountID == "" {
		t.Error("expected an account id")
	}
	if store.puts.Load() != 1 {
		t.Errorf("expected 1 store write, got %d", store.puts.Load())
	}
	if surface.reloads.Load() != 1 {
		t.Errorf("expected 1 surface reload, got %d", surface.reloads.Load())
	}
}

func TestDuplicateLoginSignalIsNoOp(t *testing.T) {
	b, store, surface := testBridge(t)
	sig := LoginSignal{Identity: "alice", Token: "T1", SessionState: "s"}

	first := await(t, b, func(done func(Result)) { b.NotifyLogin(sig, done) })
	second := await(t, b, func(done func(Result)) { b.NotifyLogin(sig, done) })

	if second.Err != nil {
		t.Fatalf("duplicate signal errored: %v", second.Err)
	}
	if second.AccountID != first.AccountID {
		t.Errorf("duplicate should resolve to the same account")
	}
	if store.puts.Load() != 1 {
		t.Errorf("duplicate signal hit the store: %d writes", store.puts.Load())
	}
	if surface.reloads.Load() != 1 {
		t.Errorf("duplicate signal reloaded the surface: %d", surface.reloads.Load())
	}
}

func TestChangedTokenReSaves(t *testing.T) {
	b, store, _ := testBridge(t)

	first := await(t, b, func(done func(Result)) {
		b.NotifyLogin(LoginSignal{Identity: "alice", Token: "T1"}, done)
	})
	second := await(t, b, func(done func(Result)) {
		b.NotifyLogin(LoginSignal{Identity: "alice", Token: "T2"}, done)
	})

	if second.Err != nil {
		t.Fatalf("re-save: %v", second.Err)
	}
	if second.AccountID != first.AccountID {
		t.Error("re-login must keep the account id")
	}
	if store.puts.Load() != 2 {
		t.Errorf("expected 2 store writes, got %d", store.puts.Load())
	}
}

func TestSwitchAndRemoveThroughBridge(t *testing.T) {
	b, _, surface := testBridge(t)

	alice := await(t, b, func(done func(Result)) {
		b.NotifyLogin(LoginSignal{Identity: "alice", Token: "T1"}, done)
	})
	await(t, b, func(done func(Result)) {
		b.NotifyLogin(LoginSignal{Identity: "bob", Token: "T2"}, done)
	})

	sw := await(t, b, func(done func(Result)) { b.RequestSwitch(alice.AccountID, done) })
	if sw.Err != nil {
		t.Fatalf("switch: %v", sw.Err)
	}

	rm := await(t, b, func(done func(Result)) { b.RequestRemove(done) })
	if rm.Err != nil {
		t.Fatalf("remove: %v", rm.Err)
	}
	if rm.AccountID != alice.AccountID {
		t.Errorf("expected alice removed, got %s", rm.AccountID)
	}

	// save x2 + switch + remove
	if surface.reloads.Load() != 4 {
		t.Errorf("expected 4 surface reloads, got %d", surface.reloads.Load())
	}
}

func TestSwitchUnknownReportsError(t *testing.T) {
	b, _, surface := testBridge(t)

	res := await(t, b, func(done func(Result)) { b.RequestSwitch("ghost", done) })
	if res.Err == nil {
		t.Fatal("expected an error for unknown account")
	}
	if surface.reloads.Load() != 0 {
		t.Error("failed switch must not reload the surface")
	}
}
