package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// CreateProductRequest adds a catalog item.
type CreateProductRequest struct {
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description"`
	Price       decimal.Decimal   `json:"price" validate:"required"`
	Unit        enums.MeasureUnit `json:"unit" validate:"required"`
	Stock       int64             `json:"stock"`
}

// UpdateProductRequest edits a catalog item. Stock is deliberately absent:
// it only moves through inventory movements.
type UpdateProductRequest struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Price       *decimal.Decimal   `json:"price,omitempty"`
	Unit        *enums.MeasureUnit `json:"unit,omitempty"`
	IsActive    *bool              `json:"is_active,omitempty"`
}

// ProductResponse is the public shape of a catalog item.
type ProductResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       decimal.Decimal   `json:"price"`
	Unit        enums.MeasureUnit `json:"unit"`
	Stock       int64             `json:"stock"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
}

func toResponse(p *models.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Unit:        p.Unit,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}
