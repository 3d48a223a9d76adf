package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// Sealed blob wire format: nonce (12 bytes) || ciphertext || tag (16 bytes).
// This exact layout is what already lives in users' keychains, so it is
// load-bearing for records persisted by earlier releases.
const (
	nonceSize = 12
	tagSize   = 16
)

// Seal encrypts plaintext under a 256-bit key with AES-GCM. A fresh random
// nonce is drawn per call; a nonce must never repeat under the same key.
func Seal(key, plaintext []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: generating nonce: %v", ErrCrypto, err)
	}

	// Seal appends ciphertext||tag after the nonce prefix.
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a sealed blob. Verification is fail-closed: a blob that is
// too short, or whose tag does not verify, yields ErrAuth and no plaintext.
func Open(key, blob []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	if len(blob) < nonceSize+tagSize {
		return nil, fmt.Errorf("%w: sealed blob too short", ErrAuth)
	}

	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: tag verification failed", ErrAuth)
	}
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: bad key: %v", ErrCrypto, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return aead, nil
}
