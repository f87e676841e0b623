package audit

import (
	"context"
	"log/slog"
)

// LogStore writes audit events to the structured log. Fallback backend when
// no Kafka brokers are configured.
type LogStore struct {
	logger *slog.Logger
}

// NewLogStore constructs a log-backed audit store.
func NewLogStore(logger *slog.Logger) *LogStore {
	return &LogStore{logger: logger}
}

func (s *LogStore) Append(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit",
		"action", string(event.Action),
		"login_id", event.LoginID,
		"caller_id", event.CallerID,
		"user_id", event.UserID,
		"reason", event.Reason,
	)
	return nil
}
