package httpapi

import (
	"errors"
	"testing"
	"time"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/service"
)

func TestTokenRoundTrip(t *testing.T) {
	auth := NewAuthManager(testSecret, time.Hour)
	user := domain.User{ID: 42, Username: "kim", Role: domain.RoleCashier}

	token, expiresAt, err := auth.IssueToken(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expiry in the past: %v", expiresAt)
	}

	actor, err := auth.parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if actor.UserID != 42 || actor.Username != "kim" || actor.Role != domain.RoleCashier {
		t.Fatalf("actor: %+v", actor)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	auth := NewAuthManager(testSecret, time.Hour)
	auth.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }

	token, _, err := auth.IssueToken(domain.User{ID: 1, Username: "root", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	auth.now = func() time.Time { return time.Now().UTC() }
	if _, err := auth.parse(token); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("expired token: got %v", err)
	}
}

func TestForeignSignatureRejected(t *testing.T) {
	auth := NewAuthManager(testSecret, time.Hour)
	other := NewAuthManager("ffffffffffffffffffffffffffffffff", time.Hour)

	token, _, err := other.IssueToken(domain.User{ID: 1, Username: "root", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := auth.parse(token); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("foreign signature: got %v", err)
	}
	if _, err := auth.parse("garbage"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("garbage token: got %v", err)
	}
}
