package cart

import "context"

// DraftStore persists the in-progress PDV cart keyed by session identifier so
// an interrupted sale (reload, crash) can be recovered. Any durable key-value
// store satisfies it; the production implementation lives in
// internal/repository and is backed by Redis.
type DraftStore interface {
	Save(ctx context.Context, sessionID string, c *Cart) error
	// Load returns the draft and whether it was restored from a prior
	// interrupted session. The restored flag is surfaced exactly once —
	// loading acknowledges it.
	Load(ctx context.Context, sessionID string) (*Cart, bool, error)
	Clear(ctx context.Context, sessionID string) error
}
