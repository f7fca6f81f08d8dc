package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret!" {
		t.Fatalf("hash must not equal the password")
	}
	if err := CheckPassword(hash, "s3cret!"); err != nil {
		t.Fatalf("CheckPassword valid: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("CheckPassword wrong = %v, want ErrInvalidCredentials", err)
	}
	if err := CheckPassword("not-a-hash", "s3cret!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("CheckPassword garbage hash = %v", err)
	}
}

func TestNewTokenServiceValidation(t *testing.T) {
	if _, err := NewTokenService("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := NewTokenService("secret", 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestIssueAndParse(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	token, expires, err := svc.Issue("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expires) <= 59*time.Minute {
		t.Fatalf("unexpected expiry %v", expires)
	}

	claims, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@example.com" || claims.Subject != "user-1" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	svc, _ := NewTokenService("test-secret", time.Hour)
	other, _ := NewTokenService("other-secret", time.Hour)
	foreign, _, err := other.Issue("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	expiredSvc, _ := NewTokenService("test-secret", time.Hour)
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredSvc.Issue("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("Issue expired: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]string{
		"garbage":      "not.a.token",
		"empty":        "",
		"wrong secret": foreign,
		"expired":      expired,
		"none alg":     none,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Parse(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("Parse(%s) = %v, want ErrInvalidToken", name, err)
			}
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if UserID(ctx) != "" {
		t.Fatalf("expected empty user id")
	}
	if _, ok := FromContext(ctx); ok {
		t.Fatalf("expected no claims")
	}
	ctx = WithUser(ctx, &Claims{UserID: "u-42"})
	if UserID(ctx) != "u-42" {
		t.Fatalf("UserID = %q", UserID(ctx))
	}
}

func BenchmarkParse(b *testing.B) {
	svc, _ := NewTokenService("bench-secret", time.Hour)
	token, _, _ := svc.Issue("user-1", "a@example.com")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Parse(token); err != nil {
			b.Fatal(err)
		}
	}
}
