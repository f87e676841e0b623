package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"qr-gateway/internal/login/models"
	"qr-gateway/internal/platform/audit"
	"qr-gateway/internal/tgproto"
	dErrors "qr-gateway/pkg/domain-errors"
	"qr-gateway/pkg/platform/sentinel"
)

// HandleTokenRenewed resumes an attempt after the server signaled that its
// token was consumed (the QR code was scanned). It re-runs the export
// exchange, follows a data-center migration if the server indicates one, and
// finalizes the session on success. There is no synchronous caller on this
// path: every failure is logged, counted, and answered with the cleanup
// contract, never re-raised.
//
// The attempt entry's presence gates everything — if the TTL lapsed, the
// event is dropped and the handle proactively disconnected so an abandoned
// scan cannot leak a connection.
func (s *Service) HandleTokenRenewed(ctx context.Context, loginID string) error {
	ctx, span := tracer.Start(ctx, "login.HandleTokenRenewed")
	defer span.End()
	span.SetAttributes(attribute.String("login_id", loginID))

	start := time.Now()

	attempt, err := s.attempts.Get(ctx, loginID)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.logger.Debug("token renewed for absent attempt, dropping", "login_id", loginID)
		s.releaseClient(loginID)
		return nil
	}
	if err != nil {
		wrapped := dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read login attempt")
		s.fail(ctx, loginID, "store_read", wrapped)
		return wrapped
	}
	if attempt.Status != models.StatusPending {
		// Single-flight: duplicate renewals for an attempt already being
		// exchanged (or already terminal) are ignored.
		s.logger.Debug("ignoring duplicate token renewed event", "login_id", loginID, "status", string(attempt.Status))
		return nil
	}

	attempt.Status = models.StatusScanned
	if err := s.attempts.Put(ctx, attempt, s.cfg.PendingTTL); err != nil {
		wrapped := dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to mark attempt scanned")
		s.fail(ctx, loginID, "store_write", wrapped)
		return wrapped
	}
	s.emitAudit(audit.Event{Action: audit.ActionTokenScanned, LoginID: loginID, CallerID: attempt.CallerID})
	s.logger.Info("login token scanned", "login_id", loginID)

	client := s.client(loginID)
	if client == nil {
		wrapped := dErrors.New(dErrors.CodeInternal, "no protocol client for attempt")
		s.fail(ctx, loginID, "missing_client", wrapped)
		return wrapped
	}

	success, err := s.exchange(ctx, loginID, client)
	if err != nil {
		s.fail(ctx, loginID, "exchange_failed", err)
		return err
	}

	if err := s.finalize(ctx, loginID, client, success); err != nil {
		s.fail(ctx, loginID, "finalize_failed", err)
		return err
	}

	if s.metrics != nil {
		s.metrics.LoginsSucceeded.Inc()
		s.metrics.ObserveExchange(time.Since(start))
	}
	return nil
}

// exchange re-invokes the export exchange on the attempt's client and
// classifies the result. A migrate result transparently re-runs the exchange
// against the indicated data center; anything that is not ultimately a
// success result is a hard failure.
func (s *Service) exchange(ctx context.Context, loginID string, client tgproto.Client) (tgproto.LoginTokenSuccess, error) {
	res, err := client.Invoke(ctx, tgproto.ExportLoginToken{APIID: s.cfg.APIID, APIHash: s.cfg.APIHash})
	if err != nil {
		return tgproto.LoginTokenSuccess{}, dErrors.Wrap(err, dErrors.CodeConnection, "re-export login token failed")
	}

	switch r := res.(type) {
	case tgproto.LoginTokenSuccess:
		return r, nil
	case tgproto.LoginTokenMigrateTo:
		return s.migrate(ctx, loginID, client, r)
	default:
		return tgproto.LoginTokenSuccess{}, dErrors.New(dErrors.CodeProtocol, fmt.Sprintf("unexpected login token result %T", res))
	}
}

// migrate switches the client to the indicated data center and imports the
// provided token there. The import must itself produce a success result.
func (s *Service) migrate(ctx context.Context, loginID string, client tgproto.Client, m tgproto.LoginTokenMigrateTo) (tgproto.LoginTokenSuccess, error) {
	s.logger.Info("login token exchange migrating", "login_id", loginID, "dc_id", m.DCID)
	if s.metrics != nil {
		s.metrics.Migrations.Inc()
	}
	s.emitAudit(audit.Event{Action: audit.ActionLoginMigrated, LoginID: loginID, Reason: fmt.Sprintf("dc=%d", m.DCID)})

	if err := client.SwitchDC(ctx, m.DCID); err != nil {
		return tgproto.LoginTokenSuccess{}, dErrors.Wrap(err, dErrors.CodeConnection, "failed to switch data center")
	}

	res, err := client.Invoke(ctx, tgproto.ImportLoginToken{Token: m.Token})
	if err != nil {
		return tgproto.LoginTokenSuccess{}, dErrors.Wrap(err, dErrors.CodeConnection, "import login token failed")
	}
	success, ok := res.(tgproto.LoginTokenSuccess)
	if !ok {
		return tgproto.LoginTokenSuccess{}, dErrors.New(dErrors.CodeProtocol, fmt.Sprintf("unexpected import login token result %T", res))
	}
	return success, nil
}

// finalize turns a successful exchange into durable state: validates the
// authorization payload, captures identity and session from the handle,
// marks the ephemeral entry success with the extended TTL, and upserts the
// durable user session. The durable write happens even when the ephemeral
// entry lapsed mid-exchange — it is the system of record for future logins.
// On success the handle is released but the ephemeral entry is kept for the
// caller's grace window.
func (s *Service) finalize(ctx context.Context, loginID string, client tgproto.Client, success tgproto.LoginTokenSuccess) error {
	if success.Authorization == nil || success.Authorization.User == nil || success.Authorization.User.ID == 0 {
		return dErrors.New(dErrors.CodeValidation, "authorization payload missing user")
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeConnection, "failed to fetch current identity")
	}
	sessionString, err := client.SerializeSession()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to serialize session")
	}
	userID := strconv.FormatInt(user.ID, 10)

	var device string
	attempt, err := s.attempts.Get(ctx, loginID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		// TTL lapsed mid-exchange. The caller can no longer observe the
		// outcome; skip the ephemeral rewrite silently.
		s.logger.Warn("login attempt expired during finalize", "login_id", loginID)
	case err != nil:
		s.logger.Error("failed to re-read login attempt during finalize", "error", err, "login_id", loginID)
	default:
		device = attempt.Device
		attempt.Status = models.StatusSuccess
		attempt.Session = sessionString
		attempt.UserID = userID
		if err := s.attempts.Put(ctx, attempt, s.cfg.SuccessTTL); err != nil {
			s.logger.Error("failed to mark login attempt success", "error", err, "login_id", loginID)
		}
	}

	now := time.Now()
	if err := s.sessions.Save(ctx, &models.UserSession{
		UserID:        userID,
		SessionString: sessionString,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Username:      user.Username,
		Phone:         user.Phone,
		Device:        device,
		CreatedAt:     now,
		LastUsedAt:    now,
	}); err != nil {
		// Best effort in this flow; no automatic retry.
		s.logger.Error("failed to save durable user session", "error", err, "user_id", userID)
	}

	s.releaseClient(loginID)
	s.emitAudit(audit.Event{Action: audit.ActionLoginSucceeded, LoginID: loginID, UserID: userID})
	s.logger.Info("login attempt succeeded", "login_id", loginID, "user_id", userID)
	return nil
}
