// Package store defines the persistence contracts the login orchestrator
// consumes. Implementations return pkg/platform/sentinel errors for
// infrastructure facts; services translate those into domain errors.
package store

import (
	"context"
	"time"

	"qr-gateway/internal/login/models"
)

// AttemptStore holds in-flight login attempts with per-entry expiration.
// A ttl of 0 means no expiration. Get on a missing or lapsed key returns
// sentinel.ErrNotFound; the caller treats that as attempt abandonment, not
// corruption.
type AttemptStore interface {
	Put(ctx context.Context, attempt *models.LoginAttempt, ttl time.Duration) error
	Get(ctx context.Context, loginID string) (*models.LoginAttempt, error)
	Delete(ctx context.Context, loginID string) error
}

// UserSessionStore holds completed user sessions with no expiration. Save is
// an idempotent upsert keyed by user id.
type UserSessionStore interface {
	Save(ctx context.Context, session *models.UserSession) error
	FindByUserID(ctx context.Context, userID string) (*models.UserSession, error)
}
