package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vitalmed/staff-registry/internal/core/domain"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	user := &domain.User{ID: "u1", Role: domain.RoleDoctor}

	token, session, err := tm.Issue(user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected session id")
	}
	if session.UserID != "u1" || session.Role != domain.RoleDoctor {
		t.Fatalf("unexpected session: %+v", session)
	}
	if got := session.ExpiresAt.Sub(session.IssuedAt); got != time.Hour {
		t.Fatalf("expected 1h lifetime, got %v", got)
	}

	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != domain.RoleDoctor {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID != session.ID {
		t.Fatalf("jti %q does not match session id %q", claims.ID, session.ID)
	}
}

func TestTokenManager_Parse_WrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("right", time.Hour).Issue(&domain.User{ID: "u1", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := NewTokenManager("wrong", time.Hour).Parse(token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestTokenManager_Parse_Expired(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	claims := &Claims{
		UserID: "u1",
		Role:   domain.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "sess-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := tm.Parse(token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenManager_Parse_RejectsUnsignedAlg(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := tm.Parse(unsigned); err == nil {
		t.Fatal("expected error for alg=none token")
	}
}

func TestTokenManager_DefaultTTL(t *testing.T) {
	tm := NewTokenManager("secret", 0)
	if tm.TTL() != 30*time.Minute {
		t.Fatalf("expected 30m default, got %v", tm.TTL())
	}
}
