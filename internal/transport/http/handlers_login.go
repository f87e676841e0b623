package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"

	"qr-gateway/internal/login/models"
	"qr-gateway/internal/login/notifier"
	dErrors "qr-gateway/pkg/domain-errors"
)

//go:generate mockgen -source=handlers_login.go -destination=mocks/login-mocks.go -package=mocks LoginService,StatusWatcher

// LoginService is the slice of the login orchestrator the transport needs.
type LoginService interface {
	CreateLoginAttempt(ctx context.Context, callerID, device string) (*models.CreateResult, error)
	GetAttemptStatus(ctx context.Context, loginID string) (*models.AttemptStatus, error)
}

// StatusWatcher streams status transitions for one attempt.
type StatusWatcher interface {
	Watch(ctx context.Context, loginID string) <-chan notifier.Update
}

type LoginHandler struct {
	login   LoginService
	watcher StatusWatcher
	tokens  *WatchTokenIssuer
	logger  *slog.Logger
}

func NewLoginHandler(login LoginService, watcher StatusWatcher, tokens *WatchTokenIssuer, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{login: login, watcher: watcher, tokens: tokens, logger: logger}
}

func (h *LoginHandler) Register(r chi.Router) {
	r.Post("/qr/login", h.handleCreate)
	r.Get("/qr/login/{loginID}", h.handleStatus)
	r.Get("/qr/login/{loginID}/events", h.handleEvents)
}

type createLoginResponse struct {
	LoginID    string    `json:"loginId"`
	LoginURL   string    `json:"loginUrl"`
	ExpiresAt  time.Time `json:"expiresAt"`
	WatchToken string    `json:"watchToken"`
}

func (h *LoginHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetReqID(r.Context())

	res, err := h.login.CreateLoginAttempt(r.Context(), callerID, deviceName(r.UserAgent()))
	if err != nil {
		h.logger.Error("failed to create login attempt", "error", err, "caller_id", callerID)
		writeError(w, err)
		return
	}

	watchToken, err := h.tokens.Issue(res.LoginID, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createLoginResponse{
		LoginID:    res.LoginID,
		LoginURL:   res.LoginURL,
		ExpiresAt:  res.ExpiresAt,
		WatchToken: watchToken,
	})
}

type statusResponse struct {
	Status models.Status `json:"status"`
	UserID string        `json:"userId,omitempty"`
}

func (h *LoginHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	loginID := chi.URLParam(r, "loginID")

	if err := h.tokens.Verify(r.URL.Query().Get("watch_token"), loginID); err != nil {
		writeError(w, err)
		return
	}

	status, err := h.login.GetAttemptStatus(r.Context(), loginID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: status.Status, UserID: status.UserID})
}

// handleEvents streams attempt status transitions as server-sent events. The
// stream ends when the attempt reaches a terminal state, vanishes, or the
// client disconnects.
func (h *LoginHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	loginID := chi.URLParam(r, "loginID")

	if err := h.tokens.Verify(r.URL.Query().Get("watch_token"), loginID); err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for update := range h.watcher.Watch(r.Context(), loginID) {
		payload, err := json.Marshal(update)
		if err != nil {
			h.logger.Error("failed to encode status event", "error", err, "login_id", loginID)
			return
		}
		fmt.Fprintf(w, "event: status\ndata: %s\n\n", payload)
		flusher.Flush()
	}
}

// deviceName condenses a User-Agent header into a human-readable device
// label, the kind shown in an active sessions list.
func deviceName(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return "Unknown device"
	}
	parsed := useragent.New(ua)
	name, _ := parsed.Browser()
	os := parsed.OSInfo().Name
	switch {
	case name != "" && os != "":
		return fmt.Sprintf("%s on %s", name, os)
	case name != "":
		return name
	case os != "":
		return os
	default:
		return "Unknown device"
	}
}
