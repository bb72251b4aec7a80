// Package jwtx signs and verifies the session tokens. Tokens carry only the
// user id as subject; all authorization state is re-read from the store on
// every request so role changes and suspensions take effect immediately.
package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenUse distinguishes access tokens from refresh tokens so one can never
// be presented where the other is expected.
type TokenUse string

const (
	UseAccess  TokenUse = "access"
	UseRefresh TokenUse = "refresh"
)

var (
	// ErrExpired reports a structurally valid token past its expiry. Kept
	// distinct from ErrInvalid because clients use it to trigger a silent
	// refresh instead of a re-login.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrInvalid reports a malformed token, a bad signature, a wrong issuer
	// or a token minted for a different use.
	ErrInvalid = errors.New("jwtx: invalid token")
)

// Claims are the JWT claims embedded in both token kinds.
type Claims struct {
	jwt.RegisteredClaims

	Use TokenUse `json:"use,omitempty"`
}

// Signer mints and verifies HS256 tokens for a single use with a single
// secret. The application holds two: one for access, one for refresh tokens.
type Signer struct {
	secret []byte
	issuer string
	use    TokenUse
	ttl    time.Duration
}

func NewSigner(secret []byte, issuer string, use TokenUse, ttl time.Duration) *Signer {
	return &Signer{secret: secret, issuer: issuer, use: use, ttl: ttl}
}

// TTL returns the configured token lifetime.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Sign mints a token for the given subject, valid from now for the signer TTL.
func (s *Signer) Sign(subject string, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Use: s.use,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses and validates a token, returning its claims. Expiry failures
// map to ErrExpired; every other failure maps to ErrInvalid.
func (s *Signer) Verify(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrInvalid
	}

	if claims.Use != s.use || claims.Subject == "" {
		return Claims{}, ErrInvalid
	}
	return claims, nil
}
