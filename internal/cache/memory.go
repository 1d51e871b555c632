// Package cache memoizes quote results. The in-memory implementation is the
// reference: process-lifetime, lazy expiry on read, optional sweep. A redis
// implementation with the same contract lets multiple instances share warm
// quotes.
package cache

import (
	"context"
	"sync"
	"time"

	"quote-engine/internal/domain"
)

// QuoteCache stores priced results under resolution keys with a per-entry
// TTL. An expired entry is never returned.
type QuoteCache interface {
	Get(ctx context.Context, key string) (domain.QuoteResult, bool)
	Put(ctx context.Context, key string, result domain.QuoteResult, ttl time.Duration)
	CleanExpired(ctx context.Context) int
}

type memoryEntry struct {
	result   domain.QuoteResult
	storedAt time.Time
	ttl      time.Duration
}

func (e memoryEntry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// MemoryCache is a mutex-guarded TTL map.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithClock(time.Now)
}

// NewMemoryCacheWithClock injects the clock, for tests.
func NewMemoryCacheWithClock(now func() time.Time) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (domain.QuoteResult, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return domain.QuoteResult{}, false
	}
	if e.expired(c.now()) {
		c.mu.Lock()
		// re-check under the write lock; another goroutine may have refreshed it
		if cur, ok := c.entries[key]; ok && cur.expired(c.now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return domain.QuoteResult{}, false
	}
	return e.result, true
}

func (c *MemoryCache) Put(_ context.Context, key string, result domain.QuoteResult, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{result: result, storedAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

// CleanExpired sweeps every entry whose TTL has elapsed and returns the
// count. Correctness never depends on this running; Get re-checks expiry.
func (c *MemoryCache) CleanExpired(_ context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of live plus expired-but-unswept entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
