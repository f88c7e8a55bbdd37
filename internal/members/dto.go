package members

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// CreateMemberRequest registers a socio for an existing user account.
type CreateMemberRequest struct {
	UserID     uuid.UUID        `json:"user_id" validate:"required"`
	MemberType enums.MemberType `json:"member_type" validate:"required"`
	Address    string           `json:"address"`
	Phone      string           `json:"phone" validate:"required"`
	JoinedAt   time.Time        `json:"joined_at" validate:"required"`
	Notes      *string          `json:"notes,omitempty"`
}

// UpdateMemberRequest edits a socio. The join date is immutable and absent
// here on purpose.
type UpdateMemberRequest struct {
	MemberType *enums.MemberType `json:"member_type,omitempty"`
	Address    *string           `json:"address,omitempty"`
	Phone      *string           `json:"phone,omitempty"`
	IsActive   *bool             `json:"is_active,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
}

// MemberResponse is the public shape of a socio. DocumentNumber reads through
// to the owning user's identity document, falling back to the legacy raw
// field when absent.
type MemberResponse struct {
	ID             uuid.UUID        `json:"id"`
	UserID         uuid.UUID        `json:"user_id"`
	FullName       string           `json:"full_name"`
	Email          string           `json:"email"`
	MemberType     enums.MemberType `json:"member_type"`
	DocumentNumber string           `json:"document_number,omitempty"`
	Address        string           `json:"address"`
	Phone          string           `json:"phone"`
	JoinedAt       time.Time        `json:"joined_at"`
	IsActive       bool             `json:"is_active"`
	Notes          *string          `json:"notes,omitempty"`
}

// Stats summarizes the member directory.
type Stats struct {
	Total  int64                      `json:"total"`
	Active int64                      `json:"active"`
	ByType map[enums.MemberType]int64 `json:"by_type"`
}

func toResponse(member *models.Member, user *models.User, documentNumber string) *MemberResponse {
	resp := &MemberResponse{
		ID:             member.ID,
		UserID:         member.UserID,
		MemberType:     member.MemberType,
		DocumentNumber: documentNumber,
		Address:        member.Address,
		Phone:          member.Phone,
		JoinedAt:       member.JoinedAt,
		IsActive:       member.IsActive,
		Notes:          member.Notes,
	}
	if user != nil {
		resp.FullName = user.FirstName + " " + user.LastName
		resp.Email = user.Email
	}
	return resp
}
