// Package audit captures login lifecycle events for observability and
// compliance. Domain code emits through a buffered publisher so the hot path
// never blocks on the audit backend; a worker drains the buffer into a Store.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Action names a login lifecycle event.
type Action string

const (
	ActionAttemptCreated Action = "login_attempt_created"
	ActionTokenScanned   Action = "login_token_scanned"
	ActionLoginMigrated  Action = "login_migrated"
	ActionLoginSucceeded Action = "login_succeeded"
	ActionLoginFailed    Action = "login_failed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	LoginID   string    `json:"login_id,omitempty"`
	CallerID  string    `json:"caller_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher is the non-blocking front of the audit pipeline. Emit never
// blocks the login flow; when the buffer is full the event is dropped and
// counted in the log.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewPublisher constructs a publisher with the given buffer size.
func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Emit enqueues an event for the worker. Drops on a full buffer.
func (p *Publisher) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit buffer full, dropping event", "action", string(event.Action), "login_id", event.LoginID)
	}
}

// Inbox exposes the event channel for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
