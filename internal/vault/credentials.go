package vault

import (
	"encoding/json"
	"fmt"
	"time"
)

// Credentials is the plaintext form of the sealed payload: the session
// token plus an optional serialized session-state snapshot handed over by
// the host's login detector. The username is embedded so a decrypted blob
// is self-describing even without the account index.
type Credentials struct {
	Username     string    `json:"username"`
	Token        string    `json:"token,omitempty"`
	SessionState string    `json:"session_state,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsedAt   time.Time `json:"last_used_at"`
}

func encodeCredentials(c Credentials) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding credentials: %v", ErrCrypto, err)
	}
	return data, nil
}

func decodeCredentials(data []byte) (Credentials, error) {
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		// The payload authenticated but does not parse — corruption
		// predating the seal, indistinguishable from tampering.
		return Credentials{}, fmt.Errorf("%w: decoding credentials", ErrAuth)
	}
	return c, nil
}
