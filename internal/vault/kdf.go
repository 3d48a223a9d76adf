package vault

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. Derivation lands in the hundreds of
// milliseconds on commodity hardware while staying expensive for offline
// search. Changing them changes every derived key, so they are fixed for
// the life of the stored record format.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	keyLen       = 32 // AES-256
	saltLen      = 16
)

// NewSalt returns a fresh 128-bit salt from the system CSPRNG. A salt is
// generated once per account at creation and persisted; every later
// derivation for that account reuses it so the key stays stable.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: generating salt: %v", ErrCrypto, err)
	}
	return salt, nil
}

// DeriveKey derives the 256-bit account key from an identity and its
// stored salt using Argon2id. The same (identity, salt) pair always yields
// the same key.
func DeriveKey(identity string, salt []byte) ([]byte, error) {
	if len(salt) < saltLen {
		return nil, fmt.Errorf("%w: salt must be at least %d bytes, got %d", ErrCrypto, saltLen, len(salt))
	}
	return argon2.IDKey([]byte(identity), salt, argonTime, argonMemory, argonThreads, keyLen), nil
}
