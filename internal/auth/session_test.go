package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp *time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "curator-1"}
	if exp != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*exp)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestNewSession_RejectsEmptyAndMalformed(t *testing.T) {
	t.Parallel()

	if _, err := NewSession(""); err == nil {
		t.Error("empty token accepted")
	}
	if _, err := NewSession("not-a-jwt"); err == nil {
		t.Error("malformed token accepted")
	}
}

func TestSession_Expiry(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s, err := NewSession(signedToken(t, &exp))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := s.ExpiresAt()
	if !ok || !got.Equal(exp) {
		t.Fatalf("expiresAt: got %v ok=%v, want %v", got, ok, exp)
	}
	if s.Expired(exp.Add(-time.Minute)) {
		t.Error("not yet expired token reported expired")
	}
	if !s.Expired(exp.Add(time.Minute)) {
		t.Error("expired token reported valid")
	}
}

func TestSession_NoExpClaim(t *testing.T) {
	t.Parallel()

	s, err := NewSession(signedToken(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.ExpiresAt(); ok {
		t.Error("exp reported for token without one")
	}
	if s.Expired(time.Now().Add(100 * 365 * 24 * time.Hour)) {
		t.Error("non-expiring token reported expired")
	}
}
