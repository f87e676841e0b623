package tgproto

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"

	dErrors "qr-gateway/pkg/domain-errors"
)

// GotdDialer produces Clients backed by the gotd MTProto implementation.
// Every Dial yields an isolated client with its own in-memory session, which
// matches the one-client-per-login-attempt ownership model.
type GotdDialer struct {
	apiID   int
	apiHash string
}

func NewGotdDialer(apiID int, apiHash string) *GotdDialer {
	return &GotdDialer{apiID: apiID, apiHash: apiHash}
}

func (d *GotdDialer) Dial(_ context.Context) (Client, error) {
	c := &gotdClient{
		storage: &session.StorageMemory{},
	}

	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnLoginToken(func(_ context.Context, _ tg.Entities, _ *tg.UpdateLoginToken) error {
		c.dispatch(UpdateLoginToken{})
		return nil
	})

	c.inner = telegram.NewClient(d.apiID, d.apiHash, telegram.Options{
		SessionStorage: c.storage,
		UpdateHandler:  dispatcher,
	})
	return c, nil
}

type gotdClient struct {
	inner   *telegram.Client
	storage *session.StorageMemory

	mu       sync.Mutex
	handlers []func(Event)

	cancel context.CancelFunc
	done   chan error
}

// Connect starts the gotd run loop in the background and waits until the
// transport session is established. gotd exposes a callback-scoped lifecycle;
// holding the callback open until Disconnect turns it into the open/close
// model the login flow expects.
func (c *gotdClient) Connect(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- c.inner.Run(runCtx, func(ctx context.Context) error {
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case <-ready:
		c.mu.Lock()
		c.cancel = cancel
		c.done = done
		c.mu.Unlock()
		return nil
	case err := <-done:
		cancel()
		return dErrors.Wrap(err, dErrors.CodeConnection, "failed to establish protocol session")
	case <-ctx.Done():
		cancel()
		<-done
		return dErrors.Wrap(ctx.Err(), dErrors.CodeConnection, "protocol session setup cancelled")
	}
}

func (c *gotdClient) Invoke(ctx context.Context, req Request) (Result, error) {
	api := c.inner.API()
	switch r := req.(type) {
	case ExportLoginToken:
		res, err := api.AuthExportLoginToken(ctx, &tg.AuthExportLoginTokenRequest{
			APIID:     r.APIID,
			APIHash:   r.APIHash,
			ExceptIDs: r.ExceptIDs,
		})
		if err != nil {
			return nil, err
		}
		return fromLoginTokenClass(res)
	case ImportLoginToken:
		res, err := api.AuthImportLoginToken(ctx, r.Token)
		if err != nil {
			return nil, err
		}
		return fromLoginTokenClass(res)
	default:
		return nil, dErrors.New(dErrors.CodeInternal, "unsupported protocol request")
	}
}

func (c *gotdClient) AddEventHandler(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, fn)
}

func (c *gotdClient) dispatch(ev Event) {
	c.mu.Lock()
	handlers := make([]func(Event), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

func (c *gotdClient) SwitchDC(ctx context.Context, dcID int) error {
	return c.inner.MigrateTo(ctx, dcID)
}

func (c *gotdClient) CurrentUser(ctx context.Context) (*User, error) {
	self, err := c.inner.Self(ctx)
	if err != nil {
		return nil, err
	}
	return convertUser(self), nil
}

func (c *gotdClient) SerializeSession() (string, error) {
	data, err := c.storage.LoadSession(context.Background())
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to export session")
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (c *gotdClient) Disconnect() error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func fromLoginTokenClass(res tg.AuthLoginTokenClass) (Result, error) {
	switch v := res.(type) {
	case *tg.AuthLoginToken:
		return LoginToken{Token: v.Token, Expires: time.Unix(int64(v.Expires), 0)}, nil
	case *tg.AuthLoginTokenMigrateTo:
		return LoginTokenMigrateTo{DCID: v.DCID, Token: v.Token}, nil
	case *tg.AuthLoginTokenSuccess:
		auth, ok := v.Authorization.(*tg.AuthAuthorization)
		if !ok {
			return nil, dErrors.New(dErrors.CodeProtocol, "unexpected authorization payload")
		}
		user, ok := auth.User.(*tg.User)
		if !ok {
			return nil, dErrors.New(dErrors.CodeProtocol, "authorization carries no user")
		}
		return LoginTokenSuccess{Authorization: &Authorization{User: convertUser(user)}}, nil
	default:
		return nil, dErrors.New(dErrors.CodeProtocol, "unknown login token result")
	}
}

func convertUser(u *tg.User) *User {
	return &User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Phone:     u.Phone,
	}
}
