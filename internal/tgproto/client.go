// Package tgproto defines the boundary to the external messaging-protocol
// client used for QR logins. Only the capability set the login flow consumes
// is modeled here; wire encoding, encryption, and connection management stay
// behind the Client interface.
package tgproto

import "context"

//go:generate mockgen -source=client.go -destination=mocks/client-mocks.go -package=mocks Client,Dialer

// Client is one live protocol connection. The login orchestrator owns
// exactly one Client per in-flight attempt and is the only component allowed
// to drive its lifecycle.
type Client interface {
	// Connect establishes the underlying transport session.
	Connect(ctx context.Context) error
	// Invoke performs one request/response exchange.
	Invoke(ctx context.Context, req Request) (Result, error)
	// AddEventHandler subscribes fn to inbound protocol events. Handlers are
	// invoked on the client's own goroutine.
	AddEventHandler(fn func(Event))
	// SwitchDC reconnects the client against a different data center and
	// keeps the session state.
	SwitchDC(ctx context.Context, dcID int) error
	// CurrentUser fetches the identity the session is authorized as.
	CurrentUser(ctx context.Context) (*User, error)
	// SerializeSession exports the session as an opaque string for storage.
	SerializeSession() (string, error)
	// Disconnect tears the connection down. Safe to call more than once.
	Disconnect() error
}

// Dialer creates protocol clients with fresh, empty sessions.
type Dialer interface {
	Dial(ctx context.Context) (Client, error)
}

// User is the protocol-side identity attached to an authorized session.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	Phone     string
}

// Authorization is the payload carried by a successful login token exchange.
type Authorization struct {
	User *User
}
