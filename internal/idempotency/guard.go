package idempotency

import (
	"context"
	"sync"
	"time"
)

// Guard admits a key at most once within its TTL. Acquire returns true when
// the caller won the key and may proceed, false when the key was already
// taken.
type Guard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryGuard is an in-process Guard for single-instance deployments and
// tests. Expired keys are pruned lazily on access.
type MemoryGuard struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

// NewMemoryGuard creates an empty in-memory guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{
		keys: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Acquire implements Guard.
func (g *MemoryGuard) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expiry, ok := g.keys[key]; ok && now.Before(expiry) {
		return false, nil
	}

	// Prune expired entries while we hold the lock.
	for k, expiry := range g.keys {
		if !now.Before(expiry) {
			delete(g.keys, k)
		}
	}

	g.keys[key] = now.Add(ttl)
	return true, nil
}
