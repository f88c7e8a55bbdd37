package members

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/internal/audit"
	"github.com/jmamani/cooperativa-backend/internal/identity"
	"github.com/jmamani/cooperativa-backend/internal/users"
	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
)

func setupMembersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE identity_documents (
  id TEXT PRIMARY KEY,
  document_type TEXT NOT NULL,
  document_number TEXT NOT NULL,
  extension TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  document_id TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_staff INTEGER NOT NULL DEFAULT 0,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE members (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  member_type TEXT NOT NULL,
  legacy_dni TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  joined_at DATETIME NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
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
);`}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func newMembersService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	log := logger.New(logger.Options{ServiceName: "members-test", Output: io.Discard})

	recorder, err := audit.NewRecorder(audit.RecorderParams{
		Repo:   audit.NewRepository(conn),
		Logger: log,
	})
	require.NoError(t, err)

	interceptor, err := audit.NewInterceptor(audit.InterceptorParams{
		Recorder:     recorder,
		WatchedKinds: []enums.EntityKind{enums.EntityKindMember},
		Logger:       log,
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(conn),
		Users:       users.NewRepository(conn),
		Documents:   identity.NewRegistry(conn),
		Interceptor: interceptor,
	})
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, conn *gorm.DB, email string, documentID *uuid.UUID) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Nombre",
		LastName:     "Apellido",
		DocumentID:   documentID,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func seedDocument(t *testing.T, conn *gorm.DB, number string, ext *string) *models.IdentityDocument {
	t.Helper()
	doc := &models.IdentityDocument{
		DocumentType:   enums.DocumentTypeCI,
		DocumentNumber: number,
		Extension:      ext,
		IsActive:       true,
	}
	require.NoError(t, conn.Create(doc).Error)
	return doc
}

func TestCreateMemberReadsThroughDocument(t *testing.T) {
	conn := setupMembersTestDB(t)
	svc := newMembersService(t, conn)
	ctx := context.Background()

	ext := "1A"
	doc := seedDocument(t, conn, "12345678", &ext)
	user := seedUser(t, conn, "socia@coop.example", &doc.ID)

	resp, err := svc.Create(ctx, CreateMemberRequest{
		UserID:     user.ID,
		MemberType: enums.MemberTypeProducer,
		Phone:      "71234567",
		JoinedAt:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "12345678 1A", resp.DocumentNumber)
	assert.Equal(t, "socia@coop.example", resp.Email)

	var records []models.AuditRecord
	require.NoError(t, conn.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, enums.AuditActionCreate, records[0].Action)
}

func TestCreateMemberRejectsMalformedPhones(t *testing.T) {
	conn := setupMembersTestDB(t)
	svc := newMembersService(t, conn)
	ctx := context.Background()

	for _, phone := range []string{"+59171234567", "123456", "1234567890123456", "712-34567", ""} {
		user := seedUser(t, conn, uuid.NewString()+"@coop.example", nil)
		_, err := svc.Create(ctx, CreateMemberRequest{
			UserID:     user.ID,
			MemberType: enums.MemberTypeConsumer,
			Phone:      phone,
			JoinedAt:   time.Now().UTC(),
		})
		require.Error(t, err, "phone %q must be rejected", phone)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	}
}

func TestCreateMemberRejectsSecondMembershipForUser(t *testing.T) {
	conn := setupMembersTestDB(t)
	svc := newMembersService(t, conn)
	ctx := context.Background()

	user := seedUser(t, conn, "uno@coop.example", nil)

	req := CreateMemberRequest{
		UserID:     user.ID,
		MemberType: enums.MemberTypeConsumer,
		Phone:      "71234567",
		JoinedAt:   time.Now().UTC(),
	}
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, req)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestCreateMemberRejectsSharedActiveDocument(t *testing.T) {
	conn := setupMembersTestDB(t)
	svc := newMembersService(t, conn)
	ctx := context.Background()

	doc := seedDocument(t, conn, "5554443", nil)
	first := seedUser(t, conn, "primera@coop.example", &doc.ID)
	second := seedUser(t, conn, "segunda@coop.example", &doc.ID)

	_, err := svc.Create(ctx, CreateMemberRequest{
		UserID:     first.ID,
		MemberType: enums.MemberTypeProducer,
		Phone:      "71234567",
		JoinedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateMemberRequest{
		UserID:     second.ID,
		MemberType: enums.MemberTypeProducer,
		Phone:      "76543210",
		JoinedAt:   time.Now().UTC(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestMemberFallsBackToLegacyDocument(t *testing.T) {
	conn := setupMembersTestDB(t)
	svc := newMembersService(t, conn)
	ctx := context.Background()

	user := seedUser(t, conn, "legado@coop.example", nil)
	member := &models.Member{
		UserID:     user.ID,
		MemberType: enums.MemberTypeWorker,
		LegacyDNI:  "9876543 LP",
		Phone:      "71112223",
		JoinedAt:   time.Date(2010, 6, 15, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	}
	require.NoError(t, conn.Create(member).Error)

	resp, err := svc.Get(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "9876543 LP", resp.DocumentNumber)
}

func TestReactivateMemberRechecksDocumentInvariant(t *testing.T) {
	conn := setupMembersTestDB(t)
	svc := newMembersService(t, conn)
	ctx := context.Background()

	doc := seedDocument(t, conn, "1231231", nil)
	first := seedUser(t, conn, "a@coop.example", &doc.ID)
	second := seedUser(t, conn, "b@coop.example", &doc.ID)

	created, err := svc.Create(ctx, CreateMemberRequest{
		UserID:     first.ID,
		MemberType: enums.MemberTypeProducer,
		Phone:      "71234567",
		JoinedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, created.ID))

	// With the first membership retired the document frees up.
	_, err = svc.Create(ctx, CreateMemberRequest{
		UserID:     second.ID,
		MemberType: enums.MemberTypeProducer,
		Phone:      "76543210",
		JoinedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	active := true
	_, err = svc.Update(ctx, created.ID, UpdateMemberRequest{IsActive: &active})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestMemberStatsCountsActiveByType(t *testing.T) {
	conn := setupMembersTestDB(t)
	svc := newMembersService(t, conn)
	ctx := context.Background()

	for i, mt := range []enums.MemberType{enums.MemberTypeProducer, enums.MemberTypeProducer, enums.MemberTypeWorker} {
		user := seedUser(t, conn, string(rune('a'+i))+"@coop.example", nil)
		_, err := svc.Create(ctx, CreateMemberRequest{
			UserID:     user.ID,
			MemberType: mt,
			Phone:      "71234567",
			JoinedAt:   time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	retired := seedUser(t, conn, "retirada@coop.example", nil)
	created, err := svc.Create(ctx, CreateMemberRequest{
		UserID:     retired.ID,
		MemberType: enums.MemberTypeConsumer,
		Phone:      "71234567",
		JoinedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, created.ID))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.Total)
	assert.EqualValues(t, 3, stats.Active)
	assert.EqualValues(t, 2, stats.ByType[enums.MemberTypeProducer])
	assert.EqualValues(t, 1, stats.ByType[enums.MemberTypeWorker])
}
