package usersession

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"qr-gateway/internal/login/models"
	"qr-gateway/pkg/platform/sentinel"
)

// PostgresStore persists user sessions in PostgreSQL. Used when the
// deployment wants a relational system of record instead of the Redis
// namespace. This store is pure I/O; idempotent-overwrite semantics come
// from the upsert.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user session store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema for the user_sessions table. Applied by deployment tooling; kept
// here so the store and its migration stay in one place.
const Schema = `
CREATE TABLE IF NOT EXISTS user_sessions (
	user_id        TEXT PRIMARY KEY,
	session_string TEXT NOT NULL,
	first_name     TEXT NOT NULL,
	last_name      TEXT NOT NULL DEFAULT '',
	username       TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	device         TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL,
	last_used_at   TIMESTAMPTZ NOT NULL
)`

func (s *PostgresStore) Save(ctx context.Context, session *models.UserSession) error {
	query := `
		INSERT INTO user_sessions (user_id, session_string, first_name, last_name, username, phone, device, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			session_string = EXCLUDED.session_string,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			username = EXCLUDED.username,
			phone = EXCLUDED.phone,
			device = EXCLUDED.device,
			last_used_at = EXCLUDED.last_used_at
	`
	_, err := s.db.ExecContext(ctx, query,
		session.UserID,
		session.SessionString,
		session.FirstName,
		session.LastName,
		session.Username,
		session.Phone,
		session.Device,
		session.CreatedAt,
		session.LastUsedAt,
	)
	if err != nil {
		return fmt.Errorf("save user session: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUserID(ctx context.Context, userID string) (*models.UserSession, error) {
	query := `
		SELECT user_id, session_string, first_name, last_name, username, phone, device, created_at, last_used_at
		FROM user_sessions
		WHERE user_id = $1
	`
	var session models.UserSession
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&session.UserID,
		&session.SessionString,
		&session.FirstName,
		&session.LastName,
		&session.Username,
		&session.Phone,
		&session.Device,
		&session.CreatedAt,
		&session.LastUsedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user session: %w", err)
	}
	return &session, nil
}
