//go:build integration

package attempt_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"qr-gateway/internal/login/models"
	"qr-gateway/internal/login/store/attempt"
	"qr-gateway/pkg/platform/sentinel"
	"qr-gateway/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *attempt.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = attempt.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func makeAttempt() *models.LoginAttempt {
	return &models.LoginAttempt{
		LoginID:  uuid.NewString(),
		CallerID: "caller-" + uuid.NewString(),
		Status:   models.StatusPending,
		Device:   "Firefox on Linux",
	}
}

func (s *RedisStoreSuite) TestPutGetRoundTrip() {
	ctx := context.Background()
	att := makeAttempt()

	s.Require().NoError(s.store.Put(ctx, att, time.Minute))

	got, err := s.store.Get(ctx, att.LoginID)
	s.Require().NoError(err)
	s.Equal(att.CallerID, got.CallerID)
	s.Equal(models.StatusPending, got.Status)
	s.Equal(att.Device, got.Device)
}

func (s *RedisStoreSuite) TestGetMissingReturnsNotFound() {
	_, err := s.store.Get(context.Background(), uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestTTLExpiry() {
	ctx := context.Background()
	att := makeAttempt()

	s.Require().NoError(s.store.Put(ctx, att, time.Second))

	_, err := s.store.Get(ctx, att.LoginID)
	s.Require().NoError(err)

	time.Sleep(1500 * time.Millisecond)

	_, err = s.store.Get(ctx, att.LoginID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestPutRefreshesTTL() {
	ctx := context.Background()
	att := makeAttempt()

	s.Require().NoError(s.store.Put(ctx, att, 2*time.Second))

	time.Sleep(time.Second)
	att.Status = models.StatusScanned
	s.Require().NoError(s.store.Put(ctx, att, 2*time.Second))

	time.Sleep(1500 * time.Millisecond)
	got, err := s.store.Get(ctx, att.LoginID)
	s.Require().NoError(err)
	s.Equal(models.StatusScanned, got.Status)
}

func (s *RedisStoreSuite) TestDeleteIdempotent() {
	ctx := context.Background()
	att := makeAttempt()

	s.Require().NoError(s.store.Put(ctx, att, time.Minute))
	s.Require().NoError(s.store.Delete(ctx, att.LoginID))
	s.Require().NoError(s.store.Delete(ctx, att.LoginID))

	_, err := s.store.Get(ctx, att.LoginID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
