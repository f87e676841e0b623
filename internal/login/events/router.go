// Package events routes inbound protocol events to the login orchestrator.
// One subscription per client handle; dispatch is guarded by a liveness set
// so events arriving after teardown become safe no-ops.
package events

import (
	"log/slog"
	"sync"

	"qr-gateway/internal/tgproto"
)

// Router subscribes protocol clients to the one event type the login flow
// cares about and dispatches it to a per-attempt callback.
type Router struct {
	logger *slog.Logger

	mu   sync.RWMutex
	live map[string]struct{}
}

// NewRouter constructs an empty router.
func NewRouter(logger *slog.Logger) *Router {
	return &Router{
		logger: logger,
		live:   make(map[string]struct{}),
	}
}

// Bind subscribes client for the attempt and arranges for onRenewed to run
// every time the server signals that the login token was consumed. The
// subscription itself dies with the client connection; Release only stops
// dispatch for callbacks still in flight.
func (r *Router) Bind(loginID string, client tgproto.Client, onRenewed func()) {
	r.mu.Lock()
	r.live[loginID] = struct{}{}
	r.mu.Unlock()

	client.AddEventHandler(func(ev tgproto.Event) {
		if _, ok := ev.(tgproto.UpdateLoginToken); !ok {
			return
		}
		if !r.alive(loginID) {
			r.logger.Debug("dropping token renewed event for released attempt", "login_id", loginID)
			return
		}
		onRenewed()
	})
}

// Release marks the attempt as torn down. Idempotent.
func (r *Router) Release(loginID string) {
	r.mu.Lock()
	delete(r.live, loginID)
	r.mu.Unlock()
}

func (r *Router) alive(loginID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.live[loginID]
	return ok
}
