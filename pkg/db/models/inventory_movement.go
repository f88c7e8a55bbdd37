package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// InventoryMovement records a stock entry or withdrawal for a product.
type InventoryMovement struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID          `gorm:"column:product_id;type:uuid;not null"`
	Product     *Product           `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Type        enums.MovementType `gorm:"column:movement_type;not null"`
	Quantity    int64              `gorm:"column:quantity;not null"`
	Description string             `gorm:"column:description"`
	RecordedBy  *uuid.UUID         `gorm:"column:recorded_by;type:uuid"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (m *InventoryMovement) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
