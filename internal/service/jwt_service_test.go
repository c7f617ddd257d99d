package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskchat/internal/fault"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	token, err := svc.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tenant, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tenant != "u1" {
		t.Fatalf("expected tenant u1, got %s", tenant)
	}
}

func TestJWTService_RejectsEmptyAndGarbage(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	for _, token := range []string{"", "  ", "not-a-jwt", "a.b.c"} {
		if _, err := svc.Verify(token); fault.KindOf(err) != fault.Auth {
			t.Errorf("token %q: expected auth failure, got %v", token, err)
		}
	}
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", time.Hour).Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewJWTService("secret-b", time.Hour).Verify(token); fault.KindOf(err) != fault.Auth {
		t.Fatalf("expected auth failure for wrong secret, got %v", err)
	}
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	now := time.Now().UTC().Add(-2 * time.Hour)
	claims := Claims{
		TenantID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "taskchat",
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = svc.Verify(token)
	if fault.KindOf(err) != fault.Auth {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected expired cause, got %v", err)
	}
}

func TestJWTService_RejectsMismatchedSubject(t *testing.T) {
	now := time.Now().UTC()
	claims := Claims{
		TenantID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "taskchat",
			Subject:   "u2",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewJWTService("secret", time.Hour).Verify(token); fault.KindOf(err) != fault.Auth {
		t.Fatalf("expected auth failure for sub/uid mismatch, got %v", err)
	}
}
