// Package dedup tracks which (device, sequence) pairs the edge has already
// accepted within a TTL window. The TTL is an approximation of "processed",
// not a permanent record: once an entry expires the same key may be
// accepted again.
package dedup

import (
	"context"
	"time"
)

// DefaultTTL is how long an accepted key counts as already processed.
const DefaultTTL = 5 * time.Minute

// Cache answers and records dedup membership. Implementations must make
// CheckAndMark atomic per key: two concurrent calls for the same key must
// yield exactly one "not seen" answer, or two near-simultaneous deliveries
// of the same message would both be accepted.
type Cache interface {
	// Seen reports whether an unexpired entry exists for the key.
	Seen(ctx context.Context, deviceID string, seq int64) (bool, error)

	// Mark records the key with a fresh TTL. Idempotent: marking an
	// already-seen key refreshes its expiry.
	Mark(ctx context.Context, deviceID string, seq int64) error

	// CheckAndMark atomically checks the key and, when unseen, marks it.
	// Returns true if the key was already present (nothing recorded).
	CheckAndMark(ctx context.Context, deviceID string, seq int64) (bool, error)

	// Forget removes the key, if present. Used to roll back a mark when
	// the accept path fails after the critical section.
	Forget(ctx context.Context, deviceID string, seq int64) error

	Close() error
}
