package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"qr-gateway/internal/platform/logger"
	"qr-gateway/internal/tgproto"
	"qr-gateway/internal/tgproto/mocks"
)

// captureHandler binds a mock client and returns the event callback the
// router registered on it.
func captureHandler(t *testing.T, r *Router, loginID string, onRenewed func()) func(tgproto.Event) {
	t.Helper()

	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	var handler func(tgproto.Event)
	client.EXPECT().AddEventHandler(gomock.Any()).Do(func(fn func(tgproto.Event)) {
		handler = fn
	})

	r.Bind(loginID, client, onRenewed)
	require.NotNil(t, handler)
	return handler
}

func TestRouter_DispatchesTokenRenewed(t *testing.T) {
	r := NewRouter(logger.New())

	calls := 0
	handler := captureHandler(t, r, "login-1", func() { calls++ })

	handler(tgproto.UpdateLoginToken{})
	assert.Equal(t, 1, calls)

	handler(tgproto.UpdateLoginToken{})
	assert.Equal(t, 2, calls)
}

func TestRouter_IgnoresOtherEvents(t *testing.T) {
	r := NewRouter(logger.New())

	calls := 0
	handler := captureHandler(t, r, "login-1", func() { calls++ })

	handler(tgproto.UpdateRaw{Type: "updateNewMessage"})
	assert.Equal(t, 0, calls)
}

func TestRouter_NoDispatchAfterRelease(t *testing.T) {
	r := NewRouter(logger.New())

	calls := 0
	handler := captureHandler(t, r, "login-1", func() { calls++ })

	r.Release("login-1")

	handler(tgproto.UpdateLoginToken{})
	assert.Equal(t, 0, calls)
}

func TestRouter_ReleaseIdempotent(t *testing.T) {
	r := NewRouter(logger.New())
	captured := captureHandler(t, r, "login-1", func() {})

	r.Release("login-1")
	r.Release("login-1")

	assert.NotPanics(t, func() { captured(tgproto.UpdateLoginToken{}) })
}

func TestRouter_IndependentAttempts(t *testing.T) {
	r := NewRouter(logger.New())

	var first, second int
	h1 := captureHandler(t, r, "login-1", func() { first++ })
	h2 := captureHandler(t, r, "login-2", func() { second++ })

	r.Release("login-1")

	h1(tgproto.UpdateLoginToken{})
	h2(tgproto.UpdateLoginToken{})

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}
