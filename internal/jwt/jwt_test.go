package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	secret := "test-secret"
	v := NewVerifier(secret)
	claims := &Claims{
		UserID: "user-123",
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := signToken(t, secret, claims)

	got, err := v.Verify(token)
	if err != nil {
		t.Fatalf("expected valid token to verify, got error: %v", err)
	}
	if got.UserID != "user-123" {
		t.Fatalf("expected user id to round-trip, got %q", got.UserID)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := NewVerifier("correct-secret")
	token := signToken(t, "wrong-secret", &Claims{UserID: "user-1"})

	if _, err := v.Verify(token); err == nil {
		t.Fatal("expected verification to fail with mismatched secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	secret := "test-secret"
	v := NewVerifier(secret)
	claims := &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token := signToken(t, secret, claims)

	if _, err := v.Verify(token); err == nil {
		t.Fatal("expected verification to fail for an expired token")
	}
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	v := NewVerifier("secret")
	if _, err := v.Verify("not-a-jwt"); err == nil {
		t.Fatal("expected verification to fail for malformed input")
	}
}
