// Package service implements the QR login orchestrator: the state machine
// that drives one login attempt from token export to a terminal outcome.
//
// One protocol client is created per attempt and owned exclusively by this
// service; every terminal branch, success or failure, releases it exactly
// once. The ephemeral attempt entry's presence in the store is the single
// source of truth for attempt liveness — there is no separate flag to drift
// out of sync with the TTL.
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"qr-gateway/internal/login/events"
	"qr-gateway/internal/login/metrics"
	"qr-gateway/internal/login/models"
	"qr-gateway/internal/login/store"
	"qr-gateway/internal/platform/audit"
	"qr-gateway/internal/tgproto"
	dErrors "qr-gateway/pkg/domain-errors"
	"qr-gateway/pkg/platform/sentinel"
)

var tracer = otel.Tracer("qr-gateway/internal/login/service")

// renewTimeout bounds the event-driven exchange; nothing is waiting on it
// synchronously, so a generous bound is fine.
const renewTimeout = 30 * time.Second

// Config bounds the login attempt lifecycle.
type Config struct {
	APIID   int
	APIHash string
	// PendingTTL covers the pending and scanned phases.
	PendingTTL time.Duration
	// SuccessTTL is the caller's grace window to read the final state.
	SuccessTTL time.Duration
	// URLScheme prefixes the generated login URL.
	URLScheme string
}

// Service is the login orchestrator.
type Service struct {
	cfg      Config
	attempts store.AttemptStore
	sessions store.UserSessionStore
	dialer   tgproto.Dialer
	router   *events.Router
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    *audit.Publisher

	mu      sync.Mutex
	clients map[string]tgproto.Client
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// New constructs the orchestrator.
func New(cfg Config, attempts store.AttemptStore, sessions store.UserSessionStore, dialer tgproto.Dialer, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		attempts: attempts,
		sessions: sessions,
		dialer:   dialer,
		logger:   slog.Default(),
		clients:  make(map[string]tgproto.Client),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = events.NewRouter(s.logger)
	return s
}

// CreateLoginAttempt starts a new QR login attempt for callerID: dials a
// fresh protocol client, exports a login token, persists the pending attempt,
// and subscribes to the renewed-token event. This is the only synchronous
// step of the flow; errors here propagate to the caller and leave nothing
// behind (the attempt entry is written last, after the exchange succeeded).
func (s *Service) CreateLoginAttempt(ctx context.Context, callerID, device string) (*models.CreateResult, error) {
	ctx, span := tracer.Start(ctx, "login.CreateLoginAttempt")
	defer span.End()

	loginID := uuid.NewString()
	span.SetAttributes(attribute.String("login_id", loginID))

	client, err := s.dialer.Dial(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConnection, "failed to create protocol client")
	}
	if err := client.Connect(ctx); err != nil {
		s.disconnect(client, loginID)
		return nil, dErrors.Wrap(err, dErrors.CodeConnection, "failed to connect protocol client")
	}

	res, err := client.Invoke(ctx, tgproto.ExportLoginToken{APIID: s.cfg.APIID, APIHash: s.cfg.APIHash})
	if err != nil {
		s.disconnect(client, loginID)
		return nil, dErrors.Wrap(err, dErrors.CodeConnection, "export login token failed")
	}
	token, ok := res.(tgproto.LoginToken)
	if !ok {
		s.disconnect(client, loginID)
		return nil, dErrors.New(dErrors.CodeProtocol, fmt.Sprintf("unexpected export login token result %T", res))
	}

	attempt := &models.LoginAttempt{
		LoginID:  loginID,
		CallerID: callerID,
		Status:   models.StatusPending,
		Device:   device,
	}
	if err := s.attempts.Put(ctx, attempt, s.cfg.PendingTTL); err != nil {
		s.disconnect(client, loginID)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to persist login attempt")
	}

	s.mu.Lock()
	s.clients[loginID] = client
	s.mu.Unlock()

	s.router.Bind(loginID, client, func() {
		ctx, cancel := context.WithTimeout(context.Background(), renewTimeout)
		defer cancel()
		if err := s.HandleTokenRenewed(ctx, loginID); err != nil {
			s.logger.Error("token renewed handling failed", "error", err, "login_id", loginID)
		}
	})

	if s.metrics != nil {
		s.metrics.AttemptsStarted.Inc()
	}
	s.emitAudit(audit.Event{Action: audit.ActionAttemptCreated, LoginID: loginID, CallerID: callerID})
	s.logger.Info("login attempt created", "login_id", loginID, "caller_id", callerID)

	return &models.CreateResult{
		LoginID:   loginID,
		LoginURL:  fmt.Sprintf("%s://login?token=%s", s.cfg.URLScheme, base64.RawURLEncoding.EncodeToString(token.Token)),
		ExpiresAt: token.Expires,
	}, nil
}

// GetAttemptStatus is the read-only surface consumed by the status notifier.
func (s *Service) GetAttemptStatus(ctx context.Context, loginID string) (*models.AttemptStatus, error) {
	attempt, err := s.attempts.Get(ctx, loginID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "login attempt not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read login attempt")
	}
	return &models.AttemptStatus{Status: attempt.Status, UserID: attempt.UserID}, nil
}

// Close releases every in-flight protocol client. Called on server shutdown;
// the ephemeral entries are left to their TTLs.
func (s *Service) Close() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.clients))
	for id := range s.clients {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.releaseClient(id)
	}
}

// client returns the handle for loginID, or nil if it was already released.
func (s *Service) client(loginID string) tgproto.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clients[loginID]
}

// releaseClient disconnects and drops the attempt's handle and stops event
// dispatch for it. Idempotent: releasing an already-released attempt is a
// no-op.
func (s *Service) releaseClient(loginID string) {
	s.router.Release(loginID)

	s.mu.Lock()
	client, ok := s.clients[loginID]
	delete(s.clients, loginID)
	s.mu.Unlock()

	if ok {
		s.disconnect(client, loginID)
	}
}

// cleanup is the unconditional failure teardown: disconnect the handle and
// delete the ephemeral entry. Both halves tolerate the resource already
// being gone, so concurrent failure and expiry cannot double-fault.
func (s *Service) cleanup(ctx context.Context, loginID string) {
	s.releaseClient(loginID)
	if err := s.attempts.Delete(ctx, loginID); err != nil {
		s.logger.Error("failed to delete login attempt", "error", err, "login_id", loginID)
	}
}

// fail records a terminal failure and runs the cleanup contract. Errors on
// the event-driven path have no caller to surface to; they end here.
func (s *Service) fail(ctx context.Context, loginID, reason string, err error) {
	s.logger.Error("login attempt failed", "error", err, "login_id", loginID, "reason", reason)
	s.cleanup(ctx, loginID)
	if s.metrics != nil {
		s.metrics.LoginsFailed.WithLabelValues(reason).Inc()
	}
	s.emitAudit(audit.Event{Action: audit.ActionLoginFailed, LoginID: loginID, Reason: reason})
}

func (s *Service) disconnect(client tgproto.Client, loginID string) {
	if err := client.Disconnect(); err != nil {
		s.logger.Warn("failed to disconnect protocol client", "error", err, "login_id", loginID)
	}
}

func (s *Service) emitAudit(event audit.Event) {
	if s.audit != nil {
		s.audit.Emit(event)
	}
}
