// Package bridge hands vault work off the UI path.
//
// UI surfaces (the embedded shell's login detector, menu clicks, API
// handlers) produce command messages; a single background worker consumes
// them and runs the vault operation. Key derivation is deliberately slow
// and keychain access can block on a host authorization prompt, so neither
// ever runs on a thread that must stay responsive.
package bridge

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"sync"

	"github.com/benaskins/roost/internal/vault"
)

// LoginSignal is what the host's login detector hands over after observing
// a successful authentication in the content surface.
type LoginSignal struct {
	Identity     string `json:"username"`
	Token        string `json:"token,omitempty"`
	SessionState string `json:"session_state,omitempty"`
}

// Result is delivered to the command's callback when the operation
// completes.
type Result struct {
	AccountID string
	Err       error
}

type commandKind int

const (
	cmdSave commandKind = iota
	cmdSwitch
	cmdRemove
)

type command struct {
	kind      commandKind
	signal    LoginSignal
	accountID string
	done      func(Result)
}

// Bridge queues vault commands for the background worker.
type Bridge struct {
	vault   *vault.Vault
	surface ContentSurface
	cmds    chan command
	logger  *slog.Logger

	mu       sync.Mutex
	lastSave struct {
		identity    string
		fingerprint [sha256.Size]byte
	}
}

// Option configures the bridge.
type Option func(*Bridge)

// WithSurface sets the content surface reloaded after a successful save,
// switch, or remove.
func WithSurface(s ContentSurface) Option {
	return func(b *Bridge) {
		b.surface = s
	}
}

// New creates a bridge over the given vault.
func New(v *vault.Vault, opts ...Option) *Bridge {
	b := &Bridge{
		vault:   v,
		surface: NopSurface{},
		cmds:    make(chan command, 16),
		logger:  slog.With("component", "bridge"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run consumes commands until the context is cancelled. It blocks; start
// it on its own goroutine.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-b.cmds:
			b.handle(ctx, cmd)
		}
	}
}

// NotifyLogin enqueues a save for a detected login. A signal identical to
// the last accepted one for the already-active identity is an idempotent
// no-op: the callback fires immediately with the current account id.
func (b *Bridge) NotifyLogin(sig LoginSignal, done func(Result)) {
	if active, ok := b.vault.ActiveAccount(); ok && active.Username == sig.Identity {
		fp := fingerprint(sig)
		b.mu.Lock()
		dup := b.lastSave.identity == sig.Identity && b.lastSave.fingerprint == fp
		b.mu.Unlock()
		if dup {
			b.logger.Debug("duplicate login signal dropped", "identity", sig.Identity)
			if done != nil {
				done(Result{AccountID: active.ID})
			}
			return
		}
	}
	b.cmds <- command{kind: cmdSave, signal: sig, done: done}
}

// RequestSwitch enqueues an active-account switch.
func (b *Bridge) RequestSwitch(accountID string, done func(Result)) {
	b.cmds <- command{kind: cmdSwitch, accountID: accountID, done: done}
}

// RequestRemove enqueues removal of the active account.
func (b *Bridge) RequestRemove(done func(Result)) {
	b.cmds <- command{kind: cmdRemove, done: done}
}

func (b *Bridge) handle(ctx context.Context, cmd command) {
	var res Result

	switch cmd.kind {
	case cmdSave:
		res.AccountID, res.Err = b.vault.SaveCredentials(
			cmd.signal.Identity, cmd.signal.Token, cmd.signal.SessionState)
		if res.Err == nil {
			b.mu.Lock()
			b.lastSave.identity = cmd.signal.Identity
			b.lastSave.fingerprint = fingerprint(cmd.signal)
			b.mu.Unlock()
			b.reload(ctx)
		}
	case cmdSwitch:
		res.AccountID = cmd.accountID
		res.Err = b.vault.SwitchActive(cmd.accountID)
		if res.Err == nil {
			b.reload(ctx)
		}
	case cmdRemove:
		res.AccountID, res.Err = b.vault.RemoveActive()
		if res.Err == nil {
			b.reload(ctx)
		}
	}

	if res.Err != nil {
		b.logger.Error("vault command failed", "error", res.Err)
	}
	if cmd.done != nil {
		cmd.done(res)
	}
}

// reload is best-effort: the vault state is already consistent, the
// content view just lags until the next reload succeeds.
func (b *Bridge) reload(ctx context.Context) {
	if err := b.surface.Reload(ctx); err != nil {
		b.logger.Warn("content surface reload failed", "error", err)
	}
}

func fingerprint(sig LoginSignal) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(sig.Identity))
	h.Write([]byte{0})
	h.Write([]byte(sig.Token))
	h.Write([]byte{0})
	h.Write([]byte(sig.SessionState))
	var fp [sha256.Size]byte
	copy(fp[:], h.Sum(nil))
	return fp
}
