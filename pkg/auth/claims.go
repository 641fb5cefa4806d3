package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the typed JWT issued by the identity platform. This
// service only verifies; it never mints tokens.
type AccessTokenClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	IsSuperuser bool      `json:"is_superuser,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller carried through request context.
type Principal struct {
	UserID      uuid.UUID
	IsSuperuser bool
}
