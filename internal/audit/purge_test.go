package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

func seedRecord(t *testing.T, db *gorm.DB, createdAt time.Time) {
	t.Helper()
	record := models.AuditRecord{
		ID:         uuid.New(),
		ActorLabel: "Sistema",
		Action:     enums.AuditActionView,
		IPAddress:  "127.0.0.1",
		Success:    true,
	}
	require.NoError(t, db.Create(&record).Error)
	require.NoError(t, db.Model(&models.AuditRecord{}).
		Where("id = ?", record.ID).
		UpdateColumn("created_at", createdAt).Error)
}

func seedSession(t *testing.T, db *gorm.DB, active bool, lastSeen time.Time) {
	t.Helper()
	session := models.UserSession{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		SessionToken: uuid.NewString(),
		IPAddress:    "127.0.0.1",
		LastSeenAt:   lastSeen,
		IsActive:     active,
	}
	require.NoError(t, db.Create(&session).Error)
}

func TestPurgeRecordsRemovesOnlyExpired(t *testing.T) {
	db := setupAuditTestDB(t)
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	purger, err := NewPurger(PurgerParams{
		Records:  NewRepository(db),
		Sessions: NewSessionRepository(db),
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)

	seedRecord(t, db, now.AddDate(0, 0, -45))
	seedRecord(t, db, now.AddDate(0, 0, -31))
	seedRecord(t, db, now.AddDate(0, 0, -29))
	seedRecord(t, db, now.AddDate(0, 0, -1))

	removed, err := purger.PurgeRecords(context.Background(), 30)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	var remaining int64
	require.NoError(t, db.Model(&models.AuditRecord{}).Count(&remaining).Error)
	assert.EqualValues(t, 2, remaining)

	// Immediate repeat removes nothing.
	removed, err = purger.PurgeRecords(context.Background(), 30)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestPurgeInactiveSessionsSparesActiveOnes(t *testing.T) {
	db := setupAuditTestDB(t)
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	purger, err := NewPurger(PurgerParams{
		Records:  NewRepository(db),
		Sessions: NewSessionRepository(db),
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)

	seedSession(t, db, false, now.AddDate(0, 0, -60))
	seedSession(t, db, true, now.AddDate(0, 0, -60))
	seedSession(t, db, false, now.AddDate(0, 0, -5))

	removed, err := purger.PurgeInactiveSessions(context.Background(), 30)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed, "active and recent sessions must survive")

	var remaining int64
	require.NoError(t, db.Model(&models.UserSession{}).Count(&remaining).Error)
	assert.EqualValues(t, 2, remaining)
}

func TestPurgeRejectsNonPositiveThreshold(t *testing.T) {
	db := setupAuditTestDB(t)
	purger, err := NewPurger(PurgerParams{
		Records:  NewRepository(db),
		Sessions: NewSessionRepository(db),
	})
	require.NoError(t, err)

	_, err = purger.PurgeRecords(context.Background(), 0)
	require.Error(t, err)

	_, err = purger.PurgeInactiveSessions(context.Background(), -3)
	require.Error(t, err)
}
