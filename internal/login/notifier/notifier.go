// Package notifier turns the pull-style attempt status into a push stream.
// A Watcher polls the login service at a fixed interval and delivers status
// transitions to a channel until the attempt reaches a terminal state or
// disappears.
package notifier

import (
	"context"
	"log/slog"
	"time"

	"qr-gateway/internal/login/models"
	dErrors "qr-gateway/pkg/domain-errors"
)

// StatusSource is the slice of the login service the watcher needs.
type StatusSource interface {
	GetAttemptStatus(ctx context.Context, loginID string) (*models.AttemptStatus, error)
}

// Update is one observed status transition.
type Update struct {
	Status models.Status `json:"status"`
	UserID string        `json:"userId,omitempty"`
}

type Watcher struct {
	source   StatusSource
	interval time.Duration
	logger   *slog.Logger
}

type Option func(*Watcher)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger.With("component", "login-notifier")
	}
}

func New(source StatusSource, interval time.Duration, opts ...Option) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	w := &Watcher{
		source:   source,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch polls the attempt until it reaches a terminal status, vanishes, or
// ctx is cancelled. Each status change is sent on the returned channel; the
// channel is closed when watching stops. An attempt that vanishes without a
// terminal status is reported as expired, which is what its absence means to
// a caller.
func (w *Watcher) Watch(ctx context.Context, loginID string) <-chan Update {
	updates := make(chan Update, 1)

	go func() {
		defer close(updates)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		var last models.Status
		for {
			status, err := w.source.GetAttemptStatus(ctx, loginID)
			switch {
			case dErrors.HasCode(err, dErrors.CodeNotFound):
				send(ctx, updates, Update{Status: models.StatusExpired})
				return
			case err != nil:
				w.logger.Error("status poll failed", "error", err, "login_id", loginID)
				return
			}

			if status.Status != last {
				last = status.Status
				if !send(ctx, updates, Update{Status: status.Status, UserID: status.UserID}) {
					return
				}
			}
			if last.Terminal() {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return updates
}

func send(ctx context.Context, ch chan<- Update, u Update) bool {
	select {
	case ch <- u:
		return true
	case <-ctx.Done():
		return false
	}
}
