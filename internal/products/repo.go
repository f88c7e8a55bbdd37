package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
)

// Repository exposes product persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a products repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithDB returns a repo bound to a different connection, typically an open
// transaction.
func (r *Repository) WithDB(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByID loads a product by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ErrInsufficientStock is returned when a withdrawal would drive stock
// negative.
var ErrInsufficientStock = errors.New("insufficient stock")

// AdjustStock applies a signed delta to a product's stock in a single
// statement, so concurrent movements never interleave a stale read. A
// negative delta that would underflow leaves the row untouched.
func (r *Repository) AdjustStock(ctx context.Context, id uuid.UUID, delta int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

// List returns products, optionally only active ones, ordered by name.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var records []models.Product
	if err := query.Order("name").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save persists the full product row.
func (r *Repository) Save(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Delete removes a product row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether the error is the repo's missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
