package members

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// Repository exposes member persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a members repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new member row.
func (r *Repository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// FindByID loads a member by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByUserID loads the member owned by the given user, if any.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// List returns members, optionally only active ones, ordered by join date.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Member, error) {
	query := r.db.WithContext(ctx).Model(&models.Member{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var records []models.Member
	if err := query.Order("joined_at").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Search matches members whose owning user's name or email contains the term.
func (r *Repository) Search(ctx context.Context, term string) ([]models.Member, error) {
	like := "%" + term + "%"
	var records []models.Member
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = members.user_id").
		Where("users.first_name LIKE ? OR users.last_name LIKE ? OR users.email LIKE ?", like, like, like).
		Order("members.joined_at").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Save persists the full member row.
func (r *Repository) Save(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

// ActiveMemberExistsForDocument reports whether another active member's user
// resolves to the given identity document.
func (r *Repository) ActiveMemberExistsForDocument(ctx context.Context, documentID uuid.UUID, excludeMemberID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Joins("JOIN users ON users.id = members.user_id").
		Where("members.is_active = ? AND users.document_id = ?", true, documentID)
	if excludeMemberID != nil {
		query = query.Where("members.id <> ?", *excludeMemberID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByType groups members by type, separating active totals.
func (r *Repository) CountByType(ctx context.Context) (*Stats, error) {
	type row struct {
		MemberType enums.MemberType
		Count      int64
	}

	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Select("member_type, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("member_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &Stats{ByType: map[enums.MemberType]int64{}}
	for _, entry := range rows {
		stats.ByType[entry.MemberType] = entry.Count
		stats.Active += entry.Count
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// IsNotFound reports whether the error is the repo's missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
