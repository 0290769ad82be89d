package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestSigner(t *testing.T, secret string) *Signer {
	t.Helper()
	s, err := NewSigner([]byte(secret), "HS256", "linkyoself", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func TestSigner_IssueAndVerify(t *testing.T) {
	s := newTestSigner(t, "secret")

	tok, err := s.Issue(Identity{UserID: 7, Username: "alice", Role: "user"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !tok.ExpiresAt.After(time.Now()) {
		t.Fatal("expected expiry in the future")
	}

	claims, err := s.Verify(tok.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "alice" || claims.UserID != 7 || claims.Role != "user" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatal("expected iat and exp claims")
	}
}

func TestSigner_RejectsWrongSecret(t *testing.T) {
	tok, err := newTestSigner(t, "one").Issue(Identity{UserID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := newTestSigner(t, "two").Verify(tok.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSigner_RejectsExpired(t *testing.T) {
	s := newTestSigner(t, "secret")
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, err := s.Issue(Identity{UserID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	s.now = time.Now
	if _, err := s.Verify(tok.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSigner_RejectsOtherAlgorithm(t *testing.T) {
	s := newTestSigner(t, "secret")
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		Issuer:    "linkyoself",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for HS512 token, got %v", err)
	}
}

func TestSigner_RejectsGarbage(t *testing.T) {
	s := newTestSigner(t, "secret")
	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := s.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

func TestSigner_RequiresSubject(t *testing.T) {
	if _, err := newTestSigner(t, "secret").Issue(Identity{UserID: 1}); !errors.Is(err, ErrMissingClaims) {
		t.Fatalf("expected ErrMissingClaims, got %v", err)
	}
}

func TestNewSigner_Validation(t *testing.T) {
	if _, err := NewSigner(nil, "HS256", "", time.Minute); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
	if _, err := NewSigner([]byte("x"), "RS256", "", time.Minute); err == nil {
		t.Fatal("expected error for non-HMAC algorithm")
	}
}

func TestNewRefreshToken(t *testing.T) {
	a, hashA, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	b, _, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct tokens")
	}
	if strings.ContainsAny(a, "+/=") {
		t.Fatalf("expected URL-safe token, got %q", a)
	}
	if hashA != HashRefreshToken(a) || len(hashA) != 64 {
		t.Fatalf("unexpected hash %q", hashA)
	}
}
