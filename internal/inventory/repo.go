package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
)

// Repository exposes inventory movement persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an inventory repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithDB returns a repo bound to a different connection, typically an open
// transaction.
func (r *Repository) WithDB(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new movement row.
func (r *Repository) Create(ctx context.Context, m *models.InventoryMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// FindByID loads a movement by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryMovement, error) {
	var m models.InventoryMovement
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByProduct returns a product's movements, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryMovement, error) {
	var records []models.InventoryMovement
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// IsNotFound reports whether the error is the repo's missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
