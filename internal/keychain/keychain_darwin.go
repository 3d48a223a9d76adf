//go:build darwin

package keychain

import (
	"errors"
	"fmt"

	gokeychain "github.com/keybase/go-keychain"
)

const (
	// ServiceName is the Keychain service attribute for all roost records.
	ServiceName = "com.roost.vault"
)

// SystemStore provides CRUD operations for sealed blobs in macOS Keychain.
//
// The first access in a process may trigger a Keychain authorization
// prompt; callers should treat that as a latency source, not an error.
type SystemStore struct {
	service string
}

// NewSystemStore creates a new Keychain-backed store.
func NewSystemStore() *SystemStore {
	return &SystemStore{service: ServiceName}
}

// Put stores a sealed blob in the Keychain. Overwrites if it already exists.
func (s *SystemStore) Put(accountKey string, blob []byte) error {
	// Try to delete existing item first (update = delete + add)
	_ = s.Delete(accountKey)

	item := gokeychain.NewGenericPassword(
		s.service,
		accountKey,
		fmt.Sprintf("roost: %s", accountKey),
		blob,
		"",
	)
	item.SetSynchronizable(gokeychain.SynchronizableNo)
	item.SetAccessible(gokeychain.AccessibleWhenUnlockedThisDeviceOnly)

	if err := gokeychain.AddItem(item); err != nil {
		return fmt.Errorf("keychain add %q: %w", accountKey, err)
	}
	return nil
}

// Get retrieves a sealed blob from the Keychain.
func (s *SystemStore) Get(accountKey string) ([]byte, error) {
	data, err := gokeychain.GetGenericPassword(s.service, accountKey, "", "")
	if err != nil {
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, accountKey)
		}
		return nil, fmt.Errorf("keychain get %q: %w", accountKey, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, accountKey)
	}
	return data, nil
}

// List returns the account keys of all records stored by roost.
func (s *SystemStore) List() ([]string, error) {
	accounts, err := gokeychain.GetGenericPasswordAccounts(s.service)
	if err != nil {
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("keychain list: %w", err)
	}
	return accounts, nil
}

// Delete removes a record from the Keychain.
func (s *SystemStore) Delete(accountKey string) error {
	err := gokeychain.DeleteGenericPasswordItem(s.service, accountKey)
	if err != nil {
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, accountKey)
		}
		return fmt.Errorf("keychain delete %q: %w", accountKey, err)
	}
	return nil
}
