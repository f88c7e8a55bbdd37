package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// Product is a cooperative catalog item with tracked stock.
type Product struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string            `gorm:"column:name;not null"`
	Description string            `gorm:"column:description"`
	Price       decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	Unit        enums.MeasureUnit `gorm:"column:unit;not null"`
	Stock       int64             `gorm:"column:stock;not null;default:0"`
	IsActive    bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
