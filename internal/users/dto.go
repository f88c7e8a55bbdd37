package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// DocumentPayload carries the identity document fields of a user request.
type DocumentPayload struct {
	Type      enums.DocumentType `json:"type" validate:"required"`
	Number    string             `json:"number" validate:"required"`
	Extension *string            `json:"extension,omitempty"`
}

// CreateUserRequest is the payload for registering a back-office account.
type CreateUserRequest struct {
	Email     string           `json:"email" validate:"required,email"`
	Password  string           `json:"password" validate:"required,min=8"`
	FirstName string           `json:"first_name" validate:"required"`
	LastName  string           `json:"last_name" validate:"required"`
	IsStaff   bool             `json:"is_staff"`
	Document  *DocumentPayload `json:"document,omitempty"`
}

// UpdateUserRequest is the payload for editing an account. Nil fields are
// left untouched.
type UpdateUserRequest struct {
	Email     *string          `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string          `json:"first_name,omitempty"`
	LastName  *string          `json:"last_name,omitempty"`
	IsActive  *bool            `json:"is_active,omitempty"`
	IsStaff   *bool            `json:"is_staff,omitempty"`
	Document  *DocumentPayload `json:"document,omitempty"`
}

// DocumentResponse mirrors the persisted document in API responses.
type DocumentResponse struct {
	ID        uuid.UUID          `json:"id"`
	Type      enums.DocumentType `json:"type"`
	Number    string             `json:"number"`
	Extension *string            `json:"extension,omitempty"`
	IsActive  bool               `json:"is_active"`
}

// UserResponse is the public shape of an account.
type UserResponse struct {
	ID        uuid.UUID         `json:"id"`
	Email     string            `json:"email"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	IsActive  bool              `json:"is_active"`
	IsStaff   bool              `json:"is_staff"`
	Document  *DocumentResponse `json:"document,omitempty"`
	LastLogin *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ToResponse converts a user model (and optional document) to API shape.
func ToResponse(user *models.User, doc *models.IdentityDocument) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsActive:  user.IsActive,
		IsStaff:   user.IsStaff,
		LastLogin: user.LastLoginAt,
		CreatedAt: user.CreatedAt,
	}
	if doc != nil {
		resp.Document = &DocumentResponse{
			ID:        doc.ID,
			Type:      doc.DocumentType,
			Number:    doc.DocumentNumber,
			Extension: doc.Extension,
			IsActive:  doc.IsActive,
		}
	}
	return resp
}
