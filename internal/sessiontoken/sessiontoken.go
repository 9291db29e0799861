// Package sessiontoken issues and verifies the signed bearer credential that
// carries an owner identity between the CLI and the server. Credentials are
// stateless: validity is established purely by signature and expiry, and the
// server keeps no record of what it issued.
package sessiontoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTTL is the credential lifetime. There is no revocation, so a
	// credential stays valid until this elapses or the signing key rotates.
	DefaultTTL = 7 * 24 * time.Hour

	// Leeway is the clock skew tolerated when validating expiry.
	Leeway = 30 * time.Second
)

var (
	// ErrInvalidToken indicates a malformed token or bad signature.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrExpiredToken indicates the token's expiry has passed.
	ErrExpiredToken = errors.New("session token expired")
)

// Issuer signs and verifies session credentials with a process-wide HS256
// key loaded once at startup.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithTTL sets the credential lifetime.
func WithTTL(d time.Duration) Option {
	return func(i *Issuer) {
		i.ttl = d
	}
}

// WithIssuerName sets the iss claim.
func WithIssuerName(name string) Option {
	return func(i *Issuer) {
		i.issuer = name
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// New creates an issuer from the signing secret.
func New(secret []byte, opts ...Option) *Issuer {
	i := &Issuer{
		secret: secret,
		issuer: "jotd",
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TTL returns the configured credential lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a credential asserting ownerID until the TTL elapses.
func (i *Issuer) Issue(ownerID string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   ownerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, structure and expiry, and returns the owner
// identity the token asserts. Only HS256 is accepted.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(Leeway),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
