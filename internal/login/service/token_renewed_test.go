package service

import (
	"context"
	"errors"

	"go.uber.org/mock/gomock"

	"qr-gateway/internal/login/models"
	"qr-gateway/internal/tgproto"
	"qr-gateway/internal/tgproto/mocks"
	dErrors "qr-gateway/pkg/domain-errors"
	"qr-gateway/pkg/platform/sentinel"
)

var testUser = &tgproto.User{
	ID:        4242,
	FirstName: "Ada",
	LastName:  "Lovelace",
	Username:  "ada",
	Phone:     "+440000000000",
}

// createPending runs CreateLoginAttempt against a fully mocked client and
// returns the attempt id, the client for further expectations, and a trigger
// that simulates the server's renewed-token event.
func (s *ServiceSuite) createPending() (string, *mocks.MockClient, func()) {
	client, handler := s.expectCreate([]byte("qr-token"))

	res, err := s.svc.CreateLoginAttempt(context.Background(), "caller-1", "Firefox on Linux")
	s.Require().NoError(err)

	return res.LoginID, client, func() {
		s.Require().NotNil(*handler)
		(*handler)(tgproto.UpdateLoginToken{})
	}
}

// expectFinalize arranges the identity/session capture for a successful
// finalize.
func expectFinalize(client *mocks.MockClient) {
	client.EXPECT().CurrentUser(gomock.Any()).Return(testUser, nil)
	client.EXPECT().SerializeSession().Return("serialized-session", nil)
	client.EXPECT().Disconnect().Return(nil)
}

func successResult() tgproto.LoginTokenSuccess {
	return tgproto.LoginTokenSuccess{Authorization: &tgproto.Authorization{User: testUser}}
}

func (s *ServiceSuite) TestTokenRenewed_DirectSuccess() {
	ctx := context.Background()
	loginID, client, fire := s.createPending()

	client.EXPECT().
		Invoke(gomock.Any(), tgproto.ExportLoginToken{APIID: testConfig.APIID, APIHash: testConfig.APIHash}).
		Return(successResult(), nil)
	expectFinalize(client)

	fire()

	att, err := s.attempts.Get(ctx, loginID)
	s.Require().NoError(err)
	s.Equal(models.StatusSuccess, att.Status)
	s.Equal("serialized-session", att.Session)
	s.Equal("4242", att.UserID)

	sess, err := s.sessions.FindByUserID(ctx, "4242")
	s.Require().NoError(err)
	s.Equal("serialized-session", sess.SessionString)
	s.Equal("Ada", sess.FirstName)
	s.Equal("Lovelace", sess.LastName)
	s.Equal("ada", sess.Username)
	s.Equal("Firefox on Linux", sess.Device)
	s.False(sess.CreatedAt.IsZero())
}

func (s *ServiceSuite) TestTokenRenewed_DuplicateEventIgnored() {
	ctx := context.Background()
	loginID, client, fire := s.createPending()

	client.EXPECT().Invoke(gomock.Any(), gomock.Any()).Return(successResult(), nil)
	expectFinalize(client)

	fire()

	// A second renewal after success: the status gate drops it before any
	// protocol call, and dispatch itself is already released.
	fire()
	s.Require().NoError(s.svc.HandleTokenRenewed(ctx, loginID))

	att, err := s.attempts.Get(ctx, loginID)
	s.Require().NoError(err)
	s.Equal(models.StatusSuccess, att.Status)
}

func (s *ServiceSuite) TestTokenRenewed_AbsentAttemptIsNoOp() {
	ctx := context.Background()
	loginID, client, fire := s.createPending()

	// Attempt abandoned: the entry expired before the scan arrived.
	s.Require().NoError(s.attempts.Delete(ctx, loginID))

	// The stale handle is proactively disconnected, nothing else happens.
	client.EXPECT().Disconnect().Return(nil)

	fire()

	_, err := s.sessions.FindByUserID(ctx, "4242")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestTokenRenewed_MigrateThenSuccess() {
	ctx := context.Background()
	loginID, client, fire := s.createPending()

	migrateToken := []byte("migrate-token")
	gomock.InOrder(
		client.EXPECT().
			Invoke(gomock.Any(), tgproto.ExportLoginToken{APIID: testConfig.APIID, APIHash: testConfig.APIHash}).
			Return(tgproto.LoginTokenMigrateTo{DCID: 7, Token: migrateToken}, nil),
		client.EXPECT().SwitchDC(gomock.Any(), 7).Return(nil),
		client.EXPECT().
			Invoke(gomock.Any(), tgproto.ImportLoginToken{Token: migrateToken}).
			Return(successResult(), nil),
	)
	expectFinalize(client)

	fire()

	// Migration is observably equivalent to a direct success.
	att, err := s.attempts.Get(ctx, loginID)
	s.Require().NoError(err)
	s.Equal(models.StatusSuccess, att.Status)

	sess, err := s.sessions.FindByUserID(ctx, "4242")
	s.Require().NoError(err)
	s.Equal("serialized-session", sess.SessionString)
	s.Equal("Ada", sess.FirstName)
}

func (s *ServiceSuite) TestTokenRenewed_MigrateImportNotSuccessIsHardFailure() {
	ctx := context.Background()
	loginID, client, _ := s.createPending()

	gomock.InOrder(
		client.EXPECT().
			Invoke(gomock.Any(), gomock.AssignableToTypeOf(tgproto.ExportLoginToken{})).
			Return(tgproto.LoginTokenMigrateTo{DCID: 7, Token: []byte("t")}, nil),
		client.EXPECT().SwitchDC(gomock.Any(), 7).Return(nil),
		client.EXPECT().
			Invoke(gomock.Any(), gomock.AssignableToTypeOf(tgproto.ImportLoginToken{})).
			Return(tgproto.LoginToken{Token: []byte("again")}, nil),
	)
	client.EXPECT().Disconnect().Return(nil)

	err := s.svc.HandleTokenRenewed(ctx, loginID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeProtocol))

	_, err = s.attempts.Get(ctx, loginID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.sessions.FindByUserID(ctx, "4242")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestTokenRenewed_UnexpectedResultIsHardFailure() {
	ctx := context.Background()
	loginID, client, _ := s.createPending()

	// A plain token result on the re-export is not a valid continuation.
	client.EXPECT().
		Invoke(gomock.Any(), gomock.Any()).
		Return(tgproto.LoginToken{Token: []byte("again")}, nil)
	client.EXPECT().Disconnect().Return(nil)

	err := s.svc.HandleTokenRenewed(ctx, loginID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeProtocol))

	_, err = s.attempts.Get(ctx, loginID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestTokenRenewed_InvokeErrorCleansUpOnce() {
	ctx := context.Background()
	loginID, client, _ := s.createPending()

	client.EXPECT().
		Invoke(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset"))
	client.EXPECT().Disconnect().Return(nil)

	err := s.svc.HandleTokenRenewed(ctx, loginID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConnection))

	_, err = s.attempts.Get(ctx, loginID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// Re-running the cleanup path is a no-op: the handle and entry are
	// already gone.
	s.Require().NoError(s.svc.HandleTokenRenewed(ctx, loginID))
}

func (s *ServiceSuite) TestTokenRenewed_ValidationFailure() {
	ctx := context.Background()
	loginID, client, _ := s.createPending()

	client.EXPECT().
		Invoke(gomock.Any(), gomock.Any()).
		Return(tgproto.LoginTokenSuccess{Authorization: nil}, nil)
	client.EXPECT().Disconnect().Return(nil)

	err := s.svc.HandleTokenRenewed(ctx, loginID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.attempts.Get(ctx, loginID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.sessions.FindByUserID(ctx, "4242")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestTokenRenewed_EntryExpiresMidExchange() {
	ctx := context.Background()
	loginID, client, _ := s.createPending()

	// The TTL lapses while the exchange is in flight: the success-result
	// export deletes the entry before finalize re-reads it.
	client.EXPECT().
		Invoke(gomock.Any(), gomock.AssignableToTypeOf(tgproto.ExportLoginToken{})).
		DoAndReturn(func(ctx context.Context, _ tgproto.Request) (tgproto.Result, error) {
			s.Require().NoError(s.attempts.Delete(ctx, loginID))
			return successResult(), nil
		})
	expectFinalize(client)

	s.Require().NoError(s.svc.HandleTokenRenewed(ctx, loginID))

	// Ephemeral rewrite was skipped, but the durable record still exists —
	// it is the system of record for future logins.
	_, err := s.attempts.Get(ctx, loginID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	sess, err := s.sessions.FindByUserID(ctx, "4242")
	s.Require().NoError(err)
	s.Equal("serialized-session", sess.SessionString)
	// Device came from the lapsed entry, so it is absent here.
	s.Empty(sess.Device)
}

func (s *ServiceSuite) TestTokenRenewed_MonotonicStatus() {
	ctx := context.Background()
	loginID, client, fire := s.createPending()

	var seen []models.Status
	client.EXPECT().
		Invoke(gomock.Any(), gomock.AssignableToTypeOf(tgproto.ExportLoginToken{})).
		DoAndReturn(func(ctx context.Context, _ tgproto.Request) (tgproto.Result, error) {
			att, err := s.attempts.Get(ctx, loginID)
			s.Require().NoError(err)
			seen = append(seen, att.Status)
			return successResult(), nil
		})
	expectFinalize(client)

	fire()

	att, err := s.attempts.Get(ctx, loginID)
	s.Require().NoError(err)
	seen = append(seen, att.Status)

	// pending was observed at creation; the exchange sees scanned, then the
	// terminal state. No path leads back to pending.
	s.Equal([]models.Status{models.StatusScanned, models.StatusSuccess}, seen)
}
