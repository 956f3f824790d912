package cache

import (
	"context"
	"sync"
	"time"

	"github.com/retailpos/backend/internal/domain/shared"
)

const sweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore holds claimed request keys in process memory.
// Claims are not shared between replicas; use RedisIdempotencyStore there.
type InMemoryIdempotencyStore struct {
	mu      sync.RWMutex
	claims  map[string]time.Time // key -> expiry
	now     func() time.Time
	done    chan struct{}
	stopped sync.WaitGroup
	once    sync.Once
}

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return newInMemoryIdempotencyStore(sweepInterval, time.Now)
}

func newInMemoryIdempotencyStore(every time.Duration, now func() time.Time) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		claims: map[string]time.Time{},
		now:    now,
		done:   make(chan struct{}),
	}
	s.stopped.Add(1)
	go s.janitor(every)
	return s
}

func (s *InMemoryIdempotencyStore) live(key string, at time.Time) bool {
	exp, ok := s.claims[key]
	return ok && at.Before(exp)
}

func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.now()
	if s.live(key, at) {
		return false, nil
	}
	s.claims[key] = at.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.claims, key)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor. Calling it again is a no-op.
func (s *InMemoryIdempotencyStore) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.stopped.Wait()
	})
	return nil
}

// Size reports how many claims are held, expired ones included until the
// next sweep.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.claims)
}

func (s *InMemoryIdempotencyStore) janitor(every time.Duration) {
	defer s.stopped.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.now()
	for key := range s.claims {
		if !s.live(key, at) {
			delete(s.claims, key)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
