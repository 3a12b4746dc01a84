package auth

import (
	"github.com/castellan-io/backoffice/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTokenPayload captures the data available when minting a session JWT.
type SessionTokenPayload struct {
	UserID uuid.UUID
	Email  string
	Role   enums.UserRole
}

// SessionTokenClaims represents the typed JWT issued to clients.
// The claim is never persisted; it is reconstructed by decoding on each request.
type SessionTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Email  string         `json:"email"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
