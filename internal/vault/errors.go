package vault

import "errors"

// The vault error taxonomy. Every operation failure wraps exactly one of
// these sentinels; callers branch with errors.Is and surface one
// human-readable message per kind. Error strings never carry key material,
// nonces, or plaintext.
var (
	// ErrCrypto means key derivation or encryption failed for a reason
	// other than tag mismatch — malformed parameters, programmer error.
	ErrCrypto = errors.New("cryptographic operation failed")

	// ErrAuth means the authentication tag did not verify. Treat as
	// tampering or corruption; no plaintext is ever released.
	ErrAuth = errors.New("credential authentication failed")

	// ErrStore means the platform secret store was unreachable, denied
	// access, or was missing a record expected to be present.
	ErrStore = errors.New("secret store operation failed")

	// ErrUnknownAccount means the referenced account id is not in the
	// registry.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrNoActiveAccount means the operation requires an active account
	// and none is set.
	ErrNoActiveAccount = errors.New("no active account")
)
