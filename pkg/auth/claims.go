package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	Email   string
	IsStaff bool
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients. The token ID
// (jti) doubles as the session token tracked server side.
type AccessTokenClaims struct {
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
	IsStaff bool      `json:"is_staff"`
	jwt.RegisteredClaims
}
