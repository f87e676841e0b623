//go:build integration

package usersession_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"qr-gateway/internal/login/models"
	"qr-gateway/internal/login/store/usersession"
	"qr-gateway/pkg/platform/sentinel"
	"qr-gateway/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *usersession.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	_, err := s.pg.DB.ExecContext(context.Background(), usersession.Schema)
	s.Require().NoError(err)
	s.store = usersession.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(context.Background(), "TRUNCATE user_sessions")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestSaveFindRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	sess := &models.UserSession{
		UserID:        "1001",
		SessionString: "serialized",
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Username:      "ada",
		Phone:         "+440000000000",
		Device:        "Firefox on Linux",
		CreatedAt:     now,
		LastUsedAt:    now,
	}
	s.Require().NoError(s.store.Save(ctx, sess))

	got, err := s.store.FindByUserID(ctx, "1001")
	s.Require().NoError(err)
	s.Equal("serialized", got.SessionString)
	s.Equal("Ada", got.FirstName)
	s.Equal("ada", got.Username)
	s.WithinDuration(now, got.CreatedAt, time.Second)
}

func (s *PostgresStoreSuite) TestFindMissingReturnsNotFound() {
	_, err := s.store.FindByUserID(context.Background(), "404")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSaveUpsertsByUserID() {
	ctx := context.Background()
	now := time.Now().UTC()
	s.Require().NoError(s.store.Save(ctx, &models.UserSession{UserID: "1001", SessionString: "first", FirstName: "Ada", CreatedAt: now, LastUsedAt: now}))
	s.Require().NoError(s.store.Save(ctx, &models.UserSession{UserID: "1001", SessionString: "second", FirstName: "Ada", CreatedAt: now, LastUsedAt: now.Add(time.Hour)}))

	got, err := s.store.FindByUserID(ctx, "1001")
	s.Require().NoError(err)
	s.Equal("second", got.SessionString)

	var count int
	s.Require().NoError(s.pg.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_sessions").Scan(&count))
	s.Equal(1, count)
}
