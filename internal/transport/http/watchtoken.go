package httptransport

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "qr-gateway/pkg/domain-errors"
)

// WatchTokenIssuer mints and checks the short-lived tokens that authorize a
// browser to stream status events for one specific login attempt. The token
// is bound to the attempt id through the subject claim, so a token issued for
// one attempt cannot watch another.
type WatchTokenIssuer struct {
	key []byte
	ttl time.Duration
}

func NewWatchTokenIssuer(key []byte, ttl time.Duration) *WatchTokenIssuer {
	return &WatchTokenIssuer{key: key, ttl: ttl}
}

func (i *WatchTokenIssuer) Issue(loginID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   loginID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign watch token")
	}
	return signed, nil
}

func (i *WatchTokenIssuer) Verify(token, loginID string) error {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) { return i.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid watch token")
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject != loginID {
		return dErrors.New(dErrors.CodeUnauthorized, "watch token does not match login attempt")
	}
	return nil
}
