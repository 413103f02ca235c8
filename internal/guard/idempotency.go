package guard

import (
	"context"
	"sync"
)

// IdempotencyGuard deduplicates requests by idempotency key. It fronts the
// progress and signal write endpoints so same-process replays never reach a
// transaction; the ledger's database-level key check remains the backstop.
type IdempotencyGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewIdempotencyGuard creates a new in-memory idempotency guard.
func NewIdempotencyGuard() *IdempotencyGuard {
	return &IdempotencyGuard{
		seen: make(map[string]bool),
	}
}

// Check returns whether the given key has already been processed. An empty
// key always passes.
func (ig *IdempotencyGuard) Check(_ context.Context, key string) GuardResult {
	if key == "" {
		return Allow()
	}

	ig.mu.Lock()
	defer ig.mu.Unlock()

	if ig.seen[key] {
		return GuardResult{
			Allowed: false,
			Reason:  "duplicate request: idempotency key already processed",
			Guard:   "idempotency",
		}
	}

	ig.seen[key] = true
	return Allow()
}

// Remove deletes a key from the seen set so a failed request can be retried.
func (ig *IdempotencyGuard) Remove(key string) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	delete(ig.seen, key)
}
