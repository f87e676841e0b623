package tgproto

import "time"

// Request is the sum of invocable protocol requests.
type Request interface{ isRequest() }

// ExportLoginToken asks the server for a fresh QR login token. The same
// request re-run after the token was scanned completes the exchange.
type ExportLoginToken struct {
	APIID     int
	APIHash   string
	ExceptIDs []int64
}

// ImportLoginToken completes a migrated exchange on the target data center.
type ImportLoginToken struct {
	Token []byte
}

func (ExportLoginToken) isRequest() {}
func (ImportLoginToken) isRequest() {}

// Result is the sum of login token exchange outcomes.
type Result interface{ isResult() }

// LoginToken carries a scannable token and its expiry.
type LoginToken struct {
	Token   []byte
	Expires time.Time
}

// LoginTokenMigrateTo redirects the exchange to another data center.
type LoginTokenMigrateTo struct {
	DCID  int
	Token []byte
}

// LoginTokenSuccess means the token was accepted and the session is
// authorized.
type LoginTokenSuccess struct {
	Authorization *Authorization
}

func (LoginToken) isResult()          {}
func (LoginTokenMigrateTo) isResult() {}
func (LoginTokenSuccess) isResult()   {}

// Event is the sum of inbound protocol events delivered to subscribers.
type Event interface{ isEvent() }

// UpdateLoginToken signals that the exported token was consumed (the QR code
// was scanned) and the exchange must be re-run.
type UpdateLoginToken struct{}

// UpdateRaw is any other inbound update. The login flow ignores these; the
// type exists so subscribers see the full stream.
type UpdateRaw struct {
	Type string
}

func (UpdateLoginToken) isEvent() {}
func (UpdateRaw) isEvent()        {}
