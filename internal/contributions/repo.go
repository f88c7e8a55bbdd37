package contributions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// Repository exposes contribution persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a contributions repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new contribution row.
func (r *Repository) Create(ctx context.Context, c *models.Contribution) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// FindByID loads a contribution by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Contribution, error) {
	var c models.Contribution
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListFilter narrows contribution listings.
type ListFilter struct {
	MemberID *uuid.UUID
	Type     *enums.ContributionType
	From     *time.Time
	To       *time.Time
}

// List returns contributions matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Contribution, error) {
	query := r.db.WithContext(ctx).Model(&models.Contribution{})
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if filter.Type != nil {
		query = query.Where("contribution_type = ?", *filter.Type)
	}
	if filter.From != nil {
		query = query.Where("contribution_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("contribution_date <= ?", *filter.To)
	}

	var records []models.Contribution
	if err := query.Order("contribution_date DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save persists the full contribution row.
func (r *Repository) Save(ctx context.Context, c *models.Contribution) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Delete removes a contribution row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Contribution{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Aggregate sums counts and monetary totals per contribution type, optionally
// scoped to one member.
func (r *Repository) Aggregate(ctx context.Context, memberID *uuid.UUID) (*Stats, error) {
	type row struct {
		ContributionType enums.ContributionType
		Count            int64
		Total            *decimal.Decimal
	}

	query := r.db.WithContext(ctx).
		Model(&models.Contribution{}).
		Select("contribution_type, COUNT(*) AS count, SUM(amount) AS total").
		Group("contribution_type")
	if memberID != nil {
		query = query.Where("member_id = ?", *memberID)
	}

	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &Stats{ByType: map[enums.ContributionType]TypeStats{}}
	for _, entry := range rows {
		total := decimal.Zero
		if entry.Total != nil {
			total = *entry.Total
		}
		stats.ByType[entry.ContributionType] = TypeStats{Count: entry.Count, Total: total}
	}
	return stats, nil
}

// IsNotFound reports whether the error is the repo's missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
