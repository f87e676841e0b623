package usersession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"qr-gateway/internal/login/models"
	"qr-gateway/pkg/platform/sentinel"
)

// Redis key prefix for durable user sessions. Entries carry no TTL; their
// lifecycle is owned by account management, not this service.
const sessionKeyPrefix = "tg:session:"

// RedisStore is a Redis-backed UserSessionStore.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed user session store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, session *models.UserSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal user session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("save user session: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByUserID(ctx context.Context, userID string) (*models.UserSession, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user session: %w", err)
	}
	var session models.UserSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal user session: %w", err)
	}
	return &session, nil
}

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}
