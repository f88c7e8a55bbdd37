package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
)

// SessionRepository tracks UserSession rows alongside the audit trail.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository constructs a session repo bound to the provided GORM DB.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert creates a session row for the token, or reactivates an existing row
// when a token is reused.
func (r *SessionRepository) Upsert(ctx context.Context, userID uuid.UUID, token, ip, userAgent string, now time.Time) (*models.UserSession, error) {
	var existing models.UserSession
	err := r.db.WithContext(ctx).
		Where("session_token = ?", token).
		First(&existing).Error

	switch {
	case err == nil:
		existing.UserID = userID
		existing.IPAddress = ip
		existing.UserAgent = userAgent
		existing.LastSeenAt = now
		existing.ClosedAt = nil
		existing.IsActive = true
		if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		created := models.UserSession{
			UserID:       userID,
			SessionToken: token,
			IPAddress:    ip,
			UserAgent:    userAgent,
			LastSeenAt:   now,
			IsActive:     true,
		}
		if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
			return nil, err
		}
		return &created, nil

	default:
		return nil, err
	}
}

// Close marks the active session for (token, user) as finished. A missing
// session is tolerated silently.
func (r *SessionRepository) Close(ctx context.Context, userID uuid.UUID, token string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("session_token = ? AND user_id = ? AND is_active = ?", token, userID, true).
		Updates(map[string]any{
			"is_active": false,
			"closed_at": now,
		}).Error
}

// Touch refreshes the last-activity timestamp of an active session. A missing
// session is tolerated silently.
func (r *SessionRepository) Touch(ctx context.Context, token string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("session_token = ? AND is_active = ?", token, true).
		UpdateColumn("last_seen_at", at).Error
}

// FindByToken loads a session row by its token.
func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*models.UserSession, error) {
	var session models.UserSession
	if err := r.db.WithContext(ctx).
		Where("session_token = ?", token).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// ListActive returns every open session, most recently seen first.
func (r *SessionRepository) ListActive(ctx context.Context) ([]models.UserSession, error) {
	var sessions []models.UserSession
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("last_seen_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListByUser returns the user's sessions, open ones first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.UserSession, error) {
	var sessions []models.UserSession
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_active DESC, last_seen_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteInactiveBefore removes closed sessions whose last activity predates
// the cutoff, reporting how many rows were removed.
func (r *SessionRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_active = ? AND last_seen_at < ?", false, cutoff).
		Delete(&models.UserSession{})
	return result.RowsAffected, result.Error
}
