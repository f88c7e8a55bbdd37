package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// CreateMovementRequest records a stock entry or withdrawal.
type CreateMovementRequest struct {
	ProductID   uuid.UUID          `json:"product_id" validate:"required"`
	Type        enums.MovementType `json:"type" validate:"required"`
	Quantity    int64              `json:"quantity" validate:"required,gt=0"`
	Description string             `json:"description"`
}

// MovementResponse is the public shape of an inventory movement.
type MovementResponse struct {
	ID          uuid.UUID          `json:"id"`
	ProductID   uuid.UUID          `json:"product_id"`
	Type        enums.MovementType `json:"type"`
	Quantity    int64              `json:"quantity"`
	Description string             `json:"description"`
	RecordedBy  *uuid.UUID         `json:"recorded_by,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	// Stock after applying the movement.
	ResultingStock int64 `json:"resulting_stock"`
}

func toResponse(m *models.InventoryMovement, resultingStock int64) *MovementResponse {
	return &MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Type:           m.Type,
		Quantity:       m.Quantity,
		Description:    m.Description,
		RecordedBy:     m.RecordedBy,
		CreatedAt:      m.CreatedAt,
		ResultingStock: resultingStock,
	}
}
