package auth

import (
	"time"

	"github.com/google/uuid"
)

// LoginRequest carries the credentials for a login attempt.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a fresh token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is the credential set handed to clients.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// LoginResponse bundles the tokens with the authenticated user's profile.
type LoginResponse struct {
	TokenPair
	User LoginUser `json:"user"`
}

// LoginUser is the trimmed profile returned on login.
type LoginUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsStaff   bool      `json:"is_staff"`
}
