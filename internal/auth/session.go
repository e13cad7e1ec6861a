// Package auth holds the curator session token presented to the GraphQL
// collaborator. The collaborator is the verifier; the client only decodes
// claims to know expiry ahead of time, so an obviously stale session is
// surfaced before a commit round-trip is wasted.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is a curator bearer token with locally decoded claims.
type Session struct {
	token     string
	expiresAt *time.Time
}

// NewSession wraps a bearer token. The token is parsed without signature
// verification; a malformed token is rejected, a token without an exp
// claim is carried as non-expiring.
func NewSession(token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("session token is empty")
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}

	s := &Session{token: token}
	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		s.expiresAt = &t
	}
	return s, nil
}

// Token returns the raw bearer token.
func (s *Session) Token() string { return s.token }

// ExpiresAt returns the exp claim, if the token carries one.
func (s *Session) ExpiresAt() (time.Time, bool) {
	if s.expiresAt == nil {
		return time.Time{}, false
	}
	return *s.expiresAt, true
}

// Expired reports whether the token is past its exp claim at now.
func (s *Session) Expired(now time.Time) bool {
	return s.expiresAt != nil && now.After(*s.expiresAt)
}
