package worker

import (
	"context"
	"log/slog"

	"qr-gateway/internal/platform/audit"
)

// Worker consumes audit events from the publisher's channel and persists
// them. Append failures are logged and skipped; audit loss is preferable to
// stalling the pipeline or tearing down the server.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("failed to append audit event", "error", err, "action", string(event.Action))
			}
		}
	}
}
