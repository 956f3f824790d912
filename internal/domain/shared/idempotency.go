package shared

import (
	"context"
	"time"
)

// DefaultIdempotencyTTL is how long an applied request key is remembered.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers request keys that have already been applied.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It reports false when the key is
	// already held by an earlier request.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Forget drops a claim so the request can be retried after a failure.
	Forget(ctx context.Context, key string) error
	Close() error
}
