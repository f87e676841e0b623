package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"qr-gateway/internal/login/models"
	"qr-gateway/pkg/platform/sentinel"
)

// Redis key prefix for in-flight login attempts. Expiration is delegated to
// Redis TTLs; entry absence is the single source of truth for attempt
// liveness.
const attemptKeyPrefix = "tg:login:"

// RedisStore is the production AttemptStore.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed attempt store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, attempt *models.LoginAttempt, ttl time.Duration) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal login attempt: %w", err)
	}
	if err := s.client.Set(ctx, attemptKey(attempt.LoginID), data, ttl).Err(); err != nil {
		return fmt.Errorf("put login attempt: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, loginID string) (*models.LoginAttempt, error) {
	data, err := s.client.Get(ctx, attemptKey(loginID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get login attempt: %w", err)
	}
	var attempt models.LoginAttempt
	if err := json.Unmarshal(data, &attempt); err != nil {
		return nil, fmt.Errorf("unmarshal login attempt: %w", err)
	}
	return &attempt, nil
}

// Delete removes the attempt entry. Deleting an absent key is a no-op so
// cleanup stays idempotent.
func (s *RedisStore) Delete(ctx context.Context, loginID string) error {
	if err := s.client.Del(ctx, attemptKey(loginID)).Err(); err != nil {
		return fmt.Errorf("delete login attempt: %w", err)
	}
	return nil
}

func attemptKey(loginID string) string {
	return attemptKeyPrefix + loginID
}
