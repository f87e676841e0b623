package usersession

import (
	"context"
	"sync"

	"qr-gateway/internal/login/models"
	"qr-gateway/pkg/platform/sentinel"
)

// MemoryStore is an in-memory UserSessionStore for tests and single-process
// development.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.UserSession
}

// NewMemory constructs an empty in-memory user session store.
func NewMemory() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]models.UserSession)}
}

// Save upserts the session keyed by user id. Later logins for the same
// identity replace the record.
func (s *MemoryStore) Save(_ context.Context, session *models.UserSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = *session
	return nil
}

func (s *MemoryStore) FindByUserID(_ context.Context, userID string) (*models.UserSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &sess, nil
}
