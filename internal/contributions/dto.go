package contributions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// CreateContributionRequest registers an aporte for a socio.
type CreateContributionRequest struct {
	MemberID    uuid.UUID              `json:"member_id" validate:"required"`
	Type        enums.ContributionType `json:"type" validate:"required"`
	Amount      *decimal.Decimal       `json:"amount,omitempty"`
	Description string                 `json:"description"`
	Date        time.Time              `json:"date" validate:"required"`
}

// UpdateContributionRequest edits an aporte.
type UpdateContributionRequest struct {
	Type        *enums.ContributionType `json:"type,omitempty"`
	Amount      *decimal.Decimal        `json:"amount,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Date        *time.Time              `json:"date,omitempty"`
}

// ContributionResponse is the public shape of an aporte.
type ContributionResponse struct {
	ID          uuid.UUID              `json:"id"`
	MemberID    uuid.UUID              `json:"member_id"`
	Type        enums.ContributionType `json:"type"`
	Amount      *decimal.Decimal       `json:"amount,omitempty"`
	Description string                 `json:"description"`
	Date        time.Time              `json:"date"`
	CreatedAt   time.Time              `json:"created_at"`
}

// TypeStats aggregates contributions of one type.
type TypeStats struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Stats summarizes contributions per type. Total only accumulates monetary
// amounts.
type Stats struct {
	ByType map[enums.ContributionType]TypeStats `json:"by_type"`
}

func toResponse(c *models.Contribution) *ContributionResponse {
	return &ContributionResponse{
		ID:          c.ID,
		MemberID:    c.MemberID,
		Type:        c.Type,
		Amount:      c.Amount,
		Description: c.Description,
		Date:        c.Date,
		CreatedAt:   c.CreatedAt,
	}
}
