package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/telhawk-systems/telhawk-edge/edge/internal/metrics"
)

// MemoryCache is the in-process dedup backend: a mutex-guarded map from
// "device:seq" to expiry instant. Expired entries are swept lazily at the
// start of each locked operation; there is no background timer.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration

	// now is stubbed in tests to drive expiry deterministically.
	now func() time.Time
}

// NewMemoryCache creates a memory-backed cache. ttl <= 0 falls back to
// DefaultTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

func key(deviceID string, seq int64) string {
	return fmt.Sprintf("%s:%d", deviceID, seq)
}

// sweep removes every expired entry. Caller must hold mu.
func (c *MemoryCache) sweep() {
	now := c.now()
	for k, expiry := range c.entries {
		if expiry.Before(now) {
			delete(c.entries, k)
		}
	}
	metrics.DedupEntries.Set(float64(len(c.entries)))
}

func (c *MemoryCache) Seen(_ context.Context, deviceID string, seq int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep()

	_, ok := c.entries[key(deviceID, seq)]
	return ok, nil
}

func (c *MemoryCache) Mark(_ context.Context, deviceID string, seq int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep()

	c.entries[key(deviceID, seq)] = c.now().Add(c.ttl)
	metrics.DedupEntries.Set(float64(len(c.entries)))
	return nil
}

// CheckAndMark holds the lock across the check and the insert, which is
// what makes the accept path's check-then-act atomic per key.
func (c *MemoryCache) CheckAndMark(_ context.Context, deviceID string, seq int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep()

	k := key(deviceID, seq)
	if _, ok := c.entries[k]; ok {
		return true, nil
	}
	c.entries[k] = c.now().Add(c.ttl)
	metrics.DedupEntries.Set(float64(len(c.entries)))
	return false, nil
}

func (c *MemoryCache) Forget(_ context.Context, deviceID string, seq int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key(deviceID, seq))
	metrics.DedupEntries.Set(float64(len(c.entries)))
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}
