// Package vault owns credential encryption, storage, and account lifecycle.
//
// A per-account 256-bit key is derived with Argon2id from the account
// identity and a stored random salt. The session payload is sealed with
// AES-256-GCM and persisted in the platform keychain, keyed by account id.
// Account metadata lives in the registry's plaintext index so menus can
// list accounts without touching the keychain.
//
// Mutating operations (save, switch, remove) are serialized: the registry
// and the secret store must change as a unit. Loads run concurrently and
// use snapshot-then-revalidate instead of holding the mutation lock across
// the deliberately slow key derivation.
package vault

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benaskins/roost/internal/audit"
	"github.com/benaskins/roost/internal/keychain"
	"github.com/benaskins/roost/internal/registry"
)

// AccountInfo is the read-only listing row handed to menus and the API.
type AccountInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Active   bool   `json:"active"`
}

// Vault orchestrates key derivation, the authenticated cipher, the secret
// store, and the account registry.
type Vault struct {
	mu     sync.Mutex // serializes mutations across registry + store
	store  keychain.Store
	reg    *registry.Registry
	audit  *audit.Logger
	actor  string
	logger *slog.Logger
}

// Option configures the vault.
type Option func(*Vault)

// WithAudit attaches an audit logger. Entries record the acting surface
// ("cli", "api", "bridge") alongside each operation.
func WithAudit(l *audit.Logger, actor string) Option {
	return func(v *Vault) {
		v.audit = l
		v.actor = actor
	}
}

// New creates a vault over the given store and registry.
func New(store keychain.Store, reg *registry.Registry, opts ...Option) *Vault {
	v := &Vault{
		store:  store,
		reg:    reg,
		logger: slog.With("component", "vault"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SaveCredentials seals and persists the session payload for an identity,
// then records the account. A new identity gets a fresh account (with a
// fresh salt) and becomes active; a known identity is updated in place and
// keeps its account id. The registry is never mutated if the store write
// fails, so the index cannot reference a secret the store does not hold.
func (v *Vault) SaveCredentials(identity, token, sessionState string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now().UTC()

	if acct, ok := v.reg.FindByUsername(identity); ok {
		// Re-login: same account id, stored salt, fresh payload.
		blob, err := v.seal(identity, acct.Salt, Credentials{
			Username:     identity,
			Token:        token,
			SessionState: sessionState,
			CreatedAt:    acct.CreatedAt,
			LastUsedAt:   now,
		})
		if err != nil {
			return "", err
		}
		if err := v.store.Put(acct.ID, blob); err != nil {
			return "", fmt.Errorf("%w: %v", ErrStore, err)
		}
		if err := v.reg.Touch(acct.ID); err != nil {
			return "", fmt.Errorf("%w: %v", ErrStore, err)
		}
		v.auditLog(audit.ActionCredentialWrite, acct.ID, identity, nil)
		v.logger.Info("credentials updated", "account", acct.ID)
		return acct.ID, nil
	}

	salt, err := NewSalt()
	if err != nil {
		return "", err
	}
	acct := registry.NewAccount(identity, salt)

	blob, err := v.seal(identity, salt, Credentials{
		Username:     identity,
		Token:        token,
		SessionState: sessionState,
		CreatedAt:    acct.CreatedAt,
		LastUsedAt:   acct.LastUsedAt,
	})
	if err != nil {
		return "", err
	}
	if err := v.store.Put(acct.ID, blob); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStore, err)
	}
	if err := v.reg.Insert(acct); err != nil {
		// Claw back the secret so the store never holds a record no
		// index entry can reach.
		_ = v.store.Delete(acct.ID)
		return "", fmt.Errorf("%w: %v", ErrStore, err)
	}
	v.auditLog(audit.ActionCredentialWrite, acct.ID, identity, nil)
	v.logger.Info("account created", "account", acct.ID)
	return acct.ID, nil
}

// LoadActiveCredentials reads, authenticates, and decrypts the active
// account's payload. Tag verification failure yields ErrAuth and no
// plaintext.
func (v *Vault) LoadActiveCredentials() (Credentials, error) {
	// Snapshot the active account; derivation and the store read run
	// without the mutation lock.
	acct, ok := v.reg.Active()
	if !ok {
		return Credentials{}, ErrNoActiveAccount
	}

	blob, err := v.store.Get(acct.ID)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrStore, err)
	}
	key, err := DeriveKey(acct.Username, acct.Salt)
	if err != nil {
		return Credentials{}, err
	}
	plaintext, err := Open(key, blob)
	if err != nil {
		v.auditLog(audit.ActionCredentialRead, acct.ID, acct.Username, err)
		return Credentials{}, err
	}
	creds, err := decodeCredentials(plaintext)
	if err != nil {
		return Credentials{}, err
	}

	// Revalidate: the account may have been removed while we were
	// deriving. Never hand out credentials for an account that is gone.
	if _, ok := v.reg.Get(acct.ID); !ok {
		return Credentials{}, ErrNoActiveAccount
	}

	v.auditLog(audit.ActionCredentialRead, acct.ID, acct.Username, nil)
	return creds, nil
}

// SwitchActive makes the given account active. The content surface reload
// is the caller's responsibility on success.
func (v *Vault) SwitchActive(accountID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.reg.SetActive(accountID); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownAccount, accountID)
		}
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	v.auditLog(audit.ActionAccountSwitch, accountID, "", nil)
	v.logger.Info("active account switched", "account", accountID)
	return nil
}

// RemoveActive deletes the active account's secret and its registry entry,
// in that order. If the store delete fails the registry is left unchanged:
// metadata must never be dropped for a secret that still exists, or the
// secret becomes unreachable and undeletable.
func (v *Vault) RemoveActive() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	acct, ok := v.reg.Active()
	if !ok {
		return "", ErrNoActiveAccount
	}

	if err := v.store.Delete(acct.ID); err != nil && !errors.Is(err, keychain.ErrNotFound) {
		return "", fmt.Errorf("%w: %v", ErrStore, err)
	}
	if err := v.reg.Remove(acct.ID); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStore, err)
	}
	v.auditLog(audit.ActionCredentialDelete, acct.ID, acct.Username, nil)
	v.logger.Info("account removed", "account", acct.ID)
	return acct.ID, nil
}

// Accounts returns the ordered listing snapshot: creation order, with the
// active account marked.
func (v *Vault) Accounts() []AccountInfo {
	active, _ := v.reg.Active()
	accounts := v.reg.Accounts()
	out := make([]AccountInfo, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountInfo{
			ID:       a.ID,
			Username: a.Username,
			Active:   a.ID == active.ID && active.ID != "",
		})
	}
	return out
}

// ActiveAccount returns the active account's listing row, if any.
func (v *Vault) ActiveAccount() (AccountInfo, bool) {
	acct, ok := v.reg.Active()
	if !ok {
		return AccountInfo{}, false
	}
	return AccountInfo{ID: acct.ID, Username: acct.Username, Active: true}, true
}

// Orphans reports secret-store entries no registered account references.
// A blob can be stranded when a registry flush fails after a store write,
// or when the index file is edited by hand; serve sweeps at startup so
// stranded entries are at least visible.
func (v *Vault) Orphans() ([]string, error) {
	keys, err := v.store.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	var orphans []string
	for _, key := range keys {
		if _, ok := v.reg.Get(key); !ok {
			orphans = append(orphans, key)
		}
	}
	return orphans, nil
}

func (v *Vault) seal(identity string, salt []byte, creds Credentials) ([]byte, error) {
	key, err := DeriveKey(identity, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := encodeCredentials(creds)
	if err != nil {
		return nil, err
	}
	return Seal(key, plaintext)
}

// auditLog is best-effort — a failure to log never fails the operation.
func (v *Vault) auditLog(action audit.Action, accountID, username string, opErr error) {
	if v.audit == nil {
		return
	}
	entry := audit.Entry{
		Action:    action,
		AccountID: accountID,
		Username:  username,
		Actor:     v.actor,
	}
	if opErr != nil {
		entry.Error = opErr.Error()
	}
	if err := v.audit.Log(entry); err != nil {
		v.logger.Warn("audit log write failed", "error", err)
	}
}
