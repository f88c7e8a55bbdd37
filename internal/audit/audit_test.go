package audit

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/logger"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	records := `
CREATE TABLE audit_records (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  actor_label TEXT NOT NULL,
  action TEXT NOT NULL,
  entity_kind TEXT,
  entity_id TEXT,
  description TEXT NOT NULL DEFAULT '',
  ip_address TEXT NOT NULL,
  user_agent TEXT NOT NULL DEFAULT '',
  prior_state TEXT,
  new_state TEXT,
  success INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`
	sessions := `
CREATE TABLE user_sessions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  session_token TEXT NOT NULL UNIQUE,
  ip_address TEXT NOT NULL,
  user_agent TEXT NOT NULL DEFAULT '',
  started_at DATETIME,
  last_seen_at DATETIME NOT NULL,
  closed_at DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1
);`
	require.NoError(t, db.Exec(records).Error)
	require.NoError(t, db.Exec(sessions).Error)
	return db
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "audit-test", Output: io.Discard})
}

func newTestRecorder(t *testing.T, db *gorm.DB) (Recorder, *Repository) {
	t.Helper()
	repo := NewRepository(db)
	rec, err := NewRecorder(RecorderParams{Repo: repo, Logger: testLogger()})
	require.NoError(t, err)
	return rec, repo
}
