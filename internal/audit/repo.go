package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	"github.com/jmamani/cooperativa-backend/pkg/pagination"
)

// Repository exposes audit record persistence operations. Records are
// append-only: there is no update path.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an audit repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends one audit record.
func (r *Repository) Insert(ctx context.Context, record *models.AuditRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListFilter narrows audit record queries.
type ListFilter struct {
	UserID  *uuid.UUID
	Action  *enums.AuditAction
	Success *bool
	From    *time.Time
	To      *time.Time
}

// List returns records newest-first with cursor pagination. The second return
// value is the encoded cursor of the next page, empty when exhausted.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.AuditRecord, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.AuditRecord{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var records []models.AuditRecord
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&records).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(records) > limit {
		records = records[:limit]
		last := records[len(records)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return records, next, nil
}

// UserActivity counts records attributed to one actor.
type UserActivity struct {
	UserID     uuid.UUID `json:"user_id"`
	ActorLabel string    `json:"actor_label"`
	Count      int64     `json:"count"`
}

// IPFailures counts failed logins originating from one address.
type IPFailures struct {
	IPAddress string `json:"ip_address"`
	Count     int64  `json:"count"`
}

// Stats summarizes audit activity since the provided instant. Failed logins
// are always reported over the trailing 24 hours regardless of the window.
type Stats struct {
	Total            int64                       `json:"total"`
	ByAction         map[enums.AuditAction]int64 `json:"by_action"`
	TopUsers         []UserActivity              `json:"top_users"`
	FailedLoginsByIP []IPFailures                `json:"failed_logins_by_ip"`
}

const statsTopUserLimit = 5

// Stats counts records grouped by action since the given time, plus the most
// active identified actors and the sources of recent failed logins.
func (r *Repository) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	type row struct {
		Action enums.AuditAction
		Count  int64
	}

	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.AuditRecord{}).
		Select("action, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("action").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &Stats{ByAction: map[enums.AuditAction]int64{}}
	for _, entry := range rows {
		stats.ByAction[entry.Action] = entry.Count
		stats.Total += entry.Count
	}

	if err := r.db.WithContext(ctx).
		Model(&models.AuditRecord{}).
		Select("user_id, actor_label, COUNT(*) AS count").
		Where("created_at >= ? AND user_id IS NOT NULL", since).
		Group("user_id, actor_label").
		Order("count DESC").
		Limit(statsTopUserLimit).
		Scan(&stats.TopUsers).Error; err != nil {
		return nil, err
	}

	dayAgo := time.Now().Add(-24 * time.Hour)
	if err := r.db.WithContext(ctx).
		Model(&models.AuditRecord{}).
		Select("ip_address, COUNT(*) AS count").
		Where("action = ? AND created_at >= ?", enums.AuditActionLoginFailed, dayAgo).
		Group("ip_address").
		Order("count DESC").
		Scan(&stats.FailedLoginsByIP).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// DeleteOlderThan removes records created strictly before the cutoff and
// reports how many rows were removed.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuditRecord{})
	return result.RowsAffected, result.Error
}
