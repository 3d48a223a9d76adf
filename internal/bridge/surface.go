package bridge

import "context"

// ContentSurface is the capability the embedded browser shell exposes to
// the vault side: reload the content view so it picks up the session of
// the (new) active account.
type ContentSurface interface {
	Reload(ctx context.Context) error
}

// NopSurface is a ContentSurface that does nothing, for tests and
// headless runs.
type NopSurface struct{}

func (NopSurface) Reload(context.Context) error { return nil }
