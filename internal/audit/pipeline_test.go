package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/internal/requestctx"
	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

func newTestPipeline(t *testing.T, db *gorm.DB, now time.Time) (*Pipeline, *Repository, *SessionRepository) {
	t.Helper()
	recorder, repo := newTestRecorder(t, db)
	sessions := NewSessionRepository(db)
	pipeline, err := NewPipeline(PipelineParams{
		Recorder: recorder,
		Sessions: sessions,
		Logger:   testLogger(),
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)
	return pipeline, repo, sessions
}

func scopedCtx(ip, agent string, actorID *uuid.UUID, label string) context.Context {
	return requestctx.WithScope(context.Background(), requestctx.Scope{
		ActorID:    actorID,
		ActorLabel: label,
		IP:         ip,
		UserAgent:  agent,
	})
}

func allRecords(t *testing.T, db *gorm.DB) []models.AuditRecord {
	t.Helper()
	var records []models.AuditRecord
	require.NoError(t, db.Order("created_at").Find(&records).Error)
	return records
}

func TestLoginFailureEmitsSingleRecordWithoutSession(t *testing.T) {
	db := setupAuditTestDB(t)
	pipeline, _, _ := newTestPipeline(t, db, time.Now())

	ctx := scopedCtx("203.0.113.7", "cli-agent", nil, "")
	pipeline.LoginFailed(ctx, "intruso@x.com")

	records := allRecords(t, db)
	require.Len(t, records, 1)
	record := records[0]

	assert.Equal(t, enums.AuditActionLoginFailed, record.Action)
	assert.Nil(t, record.UserID)
	assert.False(t, record.Success)
	assert.Equal(t, "203.0.113.7", record.IPAddress)
	assert.Equal(t, "intruso@x.com", record.NewState["attempted_email"])

	var sessionCount int64
	require.NoError(t, db.Model(&models.UserSession{}).Count(&sessionCount).Error)
	assert.Zero(t, sessionCount, "failed login must not touch sessions")
}

func TestLoginThenLogoutClosesSession(t *testing.T) {
	db := setupAuditTestDB(t)
	now := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	pipeline, _, sessions := newTestPipeline(t, db, now)

	user := &models.User{ID: uuid.New(), Email: "socio@coop.example"}
	token := "jti-abc"
	ctx := scopedCtx("10.0.0.5", "browser", &user.ID, user.Email)

	pipeline.LoginSucceeded(ctx, user, token)
	pipeline.LoggedOut(ctx, user, token)

	records := allRecords(t, db)
	require.Len(t, records, 2)
	assert.Equal(t, enums.AuditActionLogin, records[0].Action)
	assert.Equal(t, enums.AuditActionLogout, records[1].Action)
	for _, record := range records {
		require.NotNil(t, record.UserID)
		assert.Equal(t, user.ID, *record.UserID)
		assert.True(t, record.Success)
	}

	session, err := sessions.FindByToken(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, session.IsActive)
	require.NotNil(t, session.ClosedAt)
}

func TestLoginReusedTokenReactivatesSession(t *testing.T) {
	db := setupAuditTestDB(t)
	now := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	pipeline, _, sessions := newTestPipeline(t, db, now)

	user := &models.User{ID: uuid.New(), Email: "socio@coop.example"}
	token := "jti-reused"
	ctx := scopedCtx("10.0.0.5", "browser", &user.ID, user.Email)

	pipeline.LoginSucceeded(ctx, user, token)
	pipeline.LoggedOut(ctx, user, token)
	pipeline.LoginSucceeded(ctx, user, token)

	session, err := sessions.FindByToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, session.IsActive)
	assert.Nil(t, session.ClosedAt)

	var count int64
	require.NoError(t, db.Model(&models.UserSession{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "token reuse must not duplicate session rows")
}

func TestLogoutWithoutSessionIsSilent(t *testing.T) {
	db := setupAuditTestDB(t)
	pipeline, _, _ := newTestPipeline(t, db, time.Now())

	user := &models.User{ID: uuid.New(), Email: "socio@coop.example"}
	ctx := scopedCtx("10.0.0.5", "browser", &user.ID, user.Email)

	pipeline.LoggedOut(ctx, user, "never-seen-token")

	records := allRecords(t, db)
	require.Len(t, records, 1)
	assert.Equal(t, enums.AuditActionLogout, records[0].Action)
}

func TestPipelineFallbacksWithoutScope(t *testing.T) {
	db := setupAuditTestDB(t)
	pipeline, _, _ := newTestPipeline(t, db, time.Now())

	pipeline.LoginFailed(context.Background(), "x@y.z")

	records := allRecords(t, db)
	require.Len(t, records, 1)
	assert.Equal(t, requestctx.FallbackIP, records[0].IPAddress)
	assert.Equal(t, requestctx.FallbackUserAgent, records[0].UserAgent)
	assert.Equal(t, requestctx.FallbackActorLabel, records[0].ActorLabel)
}
