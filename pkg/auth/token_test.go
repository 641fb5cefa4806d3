package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/threepillars/storefront-backend/pkg/config"
)

func mintTestToken(t *testing.T, secret string, claims AccessTokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return signed
}

func TestParseAccessTokenRoundTrip(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "identity"}
	userID := uuid.New()

	signed := mintTestToken(t, cfg.Secret, AccessTokenClaims{
		UserID:      userID,
		IsSuperuser: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("unexpected user id %s", claims.UserID)
	}
	if !claims.IsSuperuser {
		t.Fatalf("expected superuser claim to survive")
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	signed := mintTestToken(t, "other-secret", AccessTokenClaims{
		UserID:           uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})

	if _, err := ParseAccessToken(config.JWTConfig{Secret: "test-secret"}, signed); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret"}
	signed := mintTestToken(t, cfg.Secret, AccessTokenClaims{
		UserID:           uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})

	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestParseAccessTokenRequiresUserID(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret"}
	signed := mintTestToken(t, cfg.Secret, AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})

	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatalf("expected missing user_id error")
	}
}
