// Package keychain provides sealed-credential storage backed by macOS Keychain.
//
// Records are stored as generic passwords with:
//   - Service: "com.roost.vault" (all roost records share this service)
//   - Account: the account id of the owning vault account
//   - Label: "roost: <account id>" (for Keychain Access.app visibility)
//
// Values are opaque sealed blobs; the vault package owns their layout.
// Records are scoped with kSecAttrAccessibleWhenUnlockedThisDeviceOnly:
// never synced to iCloud, never available when the machine is locked.
package keychain

import "errors"

// ErrNotFound is returned when a record does not exist in the store.
var ErrNotFound = errors.New("record not found")

// Store is the interface for sealed-credential storage operations.
//
// Implementations must not cache: the platform store is the source of
// truth and every Get re-reads it.
type Store interface {
	Put(accountKey string, blob []byte) error
	Get(accountKey string) ([]byte, error)
	List() ([]string, error)
	Delete(accountKey string) error
}
