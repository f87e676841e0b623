package models

import "time"

// Status tracks a login attempt through its lifecycle. Transitions are
// monotonic: pending → scanned → success/expired/failed; an attempt never
// returns to pending.
type Status string

const (
	StatusPending Status = "pending"
	StatusScanned Status = "scanned"
	StatusSuccess Status = "success"
	StatusExpired Status = "expired"
	StatusFailed  Status = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusExpired || s == StatusFailed
}

// LoginAttempt is the ephemeral per-attempt record. It lives in the TTL
// store under the attempt's loginID; its absence means the attempt was
// abandoned or expired. Session and UserID are either both empty or both set
// (only once Status is success).
type LoginAttempt struct {
	LoginID  string `json:"login_id"`
	CallerID string `json:"caller_id"`
	Status   Status `json:"status"`
	Device   string `json:"device,omitempty"`
	Session  string `json:"session,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

// UserSession is the durable record of a completed login, keyed by the
// protocol user id. Later logins for the same identity overwrite it.
type UserSession struct {
	UserID        string    `json:"user_id"`
	SessionString string    `json:"session_string"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name,omitempty"`
	Username      string    `json:"username,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Device        string    `json:"device,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastUsedAt    time.Time `json:"last_used_at"`
}

// CreateResult is returned to the caller that started an attempt.
type CreateResult struct {
	LoginID   string    `json:"login_id"`
	LoginURL  string    `json:"login_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AttemptStatus is the read-only view served to the status notifier.
type AttemptStatus struct {
	Status Status `json:"status"`
	UserID string `json:"user_id,omitempty"`
}
