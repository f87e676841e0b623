package attempt

import (
	"context"
	"sync"
	"time"

	"qr-gateway/internal/login/models"
	"qr-gateway/pkg/platform/sentinel"
)

type entry struct {
	attempt   models.LoginAttempt
	expiresAt time.Time // zero means no expiration
}

// MemoryStore is an in-memory AttemptStore for tests and single-process
// development. Expiration is evaluated lazily on read, which matches the
// Redis behavior closely enough for the orchestrator: a lapsed entry is
// indistinguishable from a deleted one.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory constructs an empty in-memory attempt store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock overrides the store clock. Test hook.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Put(_ context.Context, attempt *models.LoginAttempt, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{attempt: *attempt}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[attempt.LoginID] = e
	return nil
}

func (s *MemoryStore) Get(_ context.Context, loginID string) (*models.LoginAttempt, error) {
	s.mu.RLock()
	e, ok := s.entries[loginID]
	s.mu.RUnlock()

	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		// Lapsed; drop it so Delete stays a no-op afterwards.
		s.mu.Lock()
		delete(s.entries, loginID)
		s.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	att := e.attempt
	return &att, nil
}

func (s *MemoryStore) Delete(_ context.Context, loginID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, loginID)
	return nil
}
