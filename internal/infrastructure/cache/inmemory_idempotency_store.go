// Package cache provides idempotency key stores: an in-process map for
// single-instance deployments and a Redis store for distributed ones.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/finadmin/backend/internal/domain/shared"
)

const cleanupInterval = 5 * time.Minute

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

// InMemoryIdempotencyStore keeps processed request keys in a map with
// per-key expiry. A background goroutine evicts expired keys.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	expiries  map[string]time.Time
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts its eviction
// goroutine. Call Close to stop it.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		expiries: make(map[string]time.Time),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.evictLoop()

	return store
}

// MarkProcessed records requestKey with the given TTL. It returns true when
// the key is new and false when a live entry already exists.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, requestKey string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiresAt, exists := s.expiries[requestKey]; exists && s.now().Before(expiresAt) {
		return false, nil
	}

	s.expiries[requestKey] = s.now().Add(ttl)
	return true, nil
}

// IsProcessed reports whether requestKey has a live entry.
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, requestKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, exists := s.expiries[requestKey]
	return exists && s.now().Before(expiresAt), nil
}

// Release drops requestKey so a later submission with the same key is
// treated as new.
func (s *InMemoryIdempotencyStore) Release(ctx context.Context, requestKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.expiries, requestKey)
	return nil
}

// Close stops the eviction goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) evictLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *InMemoryIdempotencyStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for requestKey, expiresAt := range s.expiries {
		if now.After(expiresAt) {
			delete(s.expiries, requestKey)
		}
	}
}

// Size returns the number of stored keys, live or expired.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expiries)
}
