// Package backoff tracks per-provider-domain cool-downs so a failing
// provider is skipped instead of hammered. Expiry is lazy: entries are
// checked against the clock on every read, and Sweep exists only for
// memory hygiene.
package backoff

import (
	"log"
	"sync"
	"time"
)

// Kind is the class of failure that blocked a domain. Each class has its
// own cool-down window.
type Kind int

const (
	KindSSL Kind = iota
	KindRateLimit
	KindGeneral
)

func (k Kind) String() string {
	switch k {
	case KindSSL:
		return "ssl"
	case KindRateLimit:
		return "rate-limit"
	default:
		return "general"
	}
}

// Cooldown returns how long a domain stays blocked after a failure of this
// kind.
func (k Kind) Cooldown() time.Duration {
	switch k {
	case KindSSL:
		return 5 * time.Minute
	case KindRateLimit:
		return 10 * time.Minute
	default:
		return 2 * time.Minute
	}
}

// Tracker holds the blocked-until instant per domain and failure kind.
// Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	blocked map[Kind]map[string]time.Time
	now     func() time.Time
}

func NewTracker() *Tracker {
	return NewTrackerWithClock(time.Now)
}

// NewTrackerWithClock injects the clock, for tests.
func NewTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{
		blocked: map[Kind]map[string]time.Time{
			KindSSL:       {},
			KindRateLimit: {},
			KindGeneral:   {},
		},
		now: now,
	}
}

// IsBlocked reports whether any unexpired failure record exists for domain.
// Expired records are dropped on the way.
func (t *Tracker) IsBlocked(domain string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	blocked := false
	for _, entries := range t.blocked {
		until, ok := entries[domain]
		if !ok {
			continue
		}
		if now.After(until) {
			delete(entries, domain)
			continue
		}
		blocked = true
	}
	return blocked
}

// RecordFailure blocks domain for the kind's cool-down. A domain already
// blocked for the same kind keeps its original window, and the block is
// logged only when first recorded so a flapping provider cannot flood the
// logs.
func (t *Tracker) RecordFailure(domain string, kind Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	entries := t.blocked[kind]
	if until, ok := entries[domain]; ok && now.Before(until) {
		return
	}
	cooldown := kind.Cooldown()
	entries[domain] = now.Add(cooldown)
	log.Printf("provider %s blocked for %v after %s failure", domain, cooldown, kind)
}

// Sweep drops every expired record and returns how many were removed.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	for _, entries := range t.blocked {
		for domain, until := range entries {
			if now.After(until) {
				delete(entries, domain)
				removed++
			}
		}
	}
	return removed
}
