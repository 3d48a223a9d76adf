// Package registry is the durable catalogue of known accounts and the
// active-account state machine.
//
// The registry owns an index file (accounts.json, mode 0600) holding account
// metadata in creation order plus the active account id. Nothing in the
// index is secret: usernames, timestamps and per-account salts only. Sealed
// credentials live in the platform keychain, keyed by account id.
//
// Every mutation follows clone → apply → persist → swap: the in-memory
// state changes only after the new index has been written to disk, so a
// failed flush leaves both views unchanged.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an account id does not exist in the registry.
var ErrNotFound = errors.New("account not found")

// Account is the public metadata for one managed login. ID is assigned at
// creation and never changes; Username may change across re-logins and is
// not a key.
type Account struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	Salt       []byte    `json:"salt"`
}

// indexState is the persisted form of the registry. Accounts are kept in
// creation order, which is the documented menu order.
type indexState struct {
	Accounts []Account `json:"accounts"`
	ActiveID string    `json:"active_account_id,omitempty"`
}

// Registry holds the account index for the process lifetime.
type Registry struct {
	mu    sync.RWMutex
	path  string
	state indexState
}

// Open loads the registry index from dir/accounts.json, creating an empty
// registry if the file does not exist.
func Open(dir string) (*Registry, error) {
	r := &Registry{path: filepath.Join(dir, "accounts.json")}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("reading account index: %w", err)
	}
	if err := json.Unmarshal(data, &r.state); err != nil {
		return nil, fmt.Errorf("parsing account index: %w", err)
	}

	// A dangling active id would violate the registry invariant; repair
	// rather than refuse to start.
	if r.state.ActiveID != "" {
		if _, ok := r.state.find(r.state.ActiveID); !ok {
			r.state.ActiveID = ""
		}
	}
	return r, nil
}

func (st *indexState) find(id string) (int, bool) {
	for i := range st.Accounts {
		if st.Accounts[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (st *indexState) findUsername(username string) (int, bool) {
	for i := range st.Accounts {
		if st.Accounts[i].Username == username {
			return i, true
		}
	}
	return 0, false
}

func (st *indexState) clone() indexState {
	cp := indexState{ActiveID: st.ActiveID}
	cp.Accounts = make([]Account, len(st.Accounts))
	copy(cp.Accounts, st.Accounts)
	return cp
}

// NewAccount builds an Account value for a username without inserting it.
// Callers persist the sealed credential first, then Insert — that ordering
// guarantees the index never references a secret the store does not hold.
func NewAccount(username string, salt []byte) Account {
	now := time.Now().UTC()
	return Account{
		ID:         uuid.NewString(),
		Username:   username,
		CreatedAt:  now,
		LastUsedAt: now,
		Salt:       salt,
	}
}

// Insert adds a new account and makes it active.
func (r *Registry) Insert(acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.state.find(acct.ID); ok {
		return fmt.Errorf("account %s already present", acct.ID)
	}

	next := r.state.clone()
	next.Accounts = append(next.Accounts, acct)
	next.ActiveID = acct.ID
	return r.commit(next)
}

// Touch updates LastUsedAt for an existing account (re-login in place).
func (r *Registry) Touch(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.state.clone()
	i, ok := next.find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next.Accounts[i].LastUsedAt = time.Now().UTC()
	return r.commit(next)
}

// SetActive makes the given account active and updates its LastUsedAt.
func (r *Registry) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.state.clone()
	i, ok := next.find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next.Accounts[i].LastUsedAt = time.Now().UTC()
	next.ActiveID = id
	return r.commit(next)
}

// Remove deletes an account. If it was active, the most-recently-used
// remaining account becomes active (ties broken by creation order); an
// emptied registry has no active account.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.state.clone()
	i, ok := next.find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next.Accounts = append(next.Accounts[:i], next.Accounts[i+1:]...)

	if next.ActiveID == id {
		next.ActiveID = ""
		var best *Account
		for j := range next.Accounts {
			a := &next.Accounts[j]
			if best == nil || a.LastUsedAt.After(best.LastUsedAt) {
				best = a
			}
		}
		if best != nil {
			next.ActiveID = best.ID
		}
	}
	return r.commit(next)
}

// Get returns a copy of the account with the given id.
func (r *Registry) Get(id string) (Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.state.find(id)
	if !ok {
		return Account{}, false
	}
	return r.state.Accounts[i], true
}

// FindByUsername returns the account currently mapped to a username.
func (r *Registry) FindByUsername(username string) (Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.state.findUsername(username)
	if !ok {
		return Account{}, false
	}
	return r.state.Accounts[i], true
}

// Active returns the active account, if any.
func (r *Registry) Active() (Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state.ActiveID == "" {
		return Account{}, false
	}
	i, ok := r.state.find(r.state.ActiveID)
	if !ok {
		return Account{}, false
	}
	return r.state.Accounts[i], true
}

// Accounts returns copies of all accounts in creation order.
func (r *Registry) Accounts() []Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Account, len(r.state.Accounts))
	copy(out, r.state.Accounts)
	return out
}

// Len returns the number of known accounts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.state.Accounts)
}

// commit persists next and swaps it in. Caller must hold r.mu.
func (r *Registry) commit(next indexState) error {
	if err := r.save(next); err != nil {
		return fmt.Errorf("persisting account index: %w", err)
	}
	r.state = next
	return nil
}

func (r *Registry) save(st indexState) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, r.path)
}
