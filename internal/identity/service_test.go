package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/enums"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
)

func setupIdentityTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE identity_documents (
  id TEXT PRIMARY KEY,
  document_type TEXT NOT NULL,
  document_number TEXT NOT NULL,
  extension TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newTestService(t *testing.T) (Service, *Registry) {
	t.Helper()
	registry := NewRegistry(setupIdentityTestDB(t))
	svc, err := NewService(ServiceParams{Registry: registry})
	require.NoError(t, err)
	return svc, registry
}

func strPtr(s string) *string { return &s }

func TestValidateAndNormalizeByType(t *testing.T) {
	svc, _ := newTestService(t)

	number, ext, err := svc.ValidateAndNormalize(enums.DocumentTypeCI, "1234-5678", nil)
	require.NoError(t, err)
	assert.Equal(t, "12345678", number)
	assert.Nil(t, ext)

	_, _, err = svc.ValidateAndNormalize(enums.DocumentTypeCI, "123", nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, _, err = svc.ValidateAndNormalize(enums.DocumentTypeNIT, "123456789", nil)
	require.Error(t, err, "NIT below 10 digits must fail")

	number, _, err = svc.ValidateAndNormalize(enums.DocumentTypeNIT, "1023456789", nil)
	require.NoError(t, err)
	assert.Equal(t, "1023456789", number)

	number, _, err = svc.ValidateAndNormalize(enums.DocumentTypePassport, "ab-123456", nil)
	require.NoError(t, err)
	assert.Equal(t, "AB123456", number)

	_, _, err = svc.ValidateAndNormalize(enums.DocumentTypePassport, "ab1", nil)
	require.Error(t, err)

	// Foreign resident cards only require presence.
	number, _, err = svc.ValidateAndNormalize(enums.DocumentTypeForeignID, "x-9", nil)
	require.NoError(t, err)
	assert.Equal(t, "X9", number)

	_, _, err = svc.ValidateAndNormalize(enums.DocumentTypeForeignID, "--", nil)
	require.Error(t, err, "empty after normalization must fail")
}

func TestValidateExtensionRules(t *testing.T) {
	svc, _ := newTestService(t)

	_, ext, err := svc.ValidateAndNormalize(enums.DocumentTypeCI, "12345678", strPtr("1a"))
	require.NoError(t, err)
	require.NotNil(t, ext)
	assert.Equal(t, "1A", *ext)

	_, _, err = svc.ValidateAndNormalize(enums.DocumentTypeCI, "12345678", strPtr("0A"))
	require.Error(t, err, "extension must start with 1-9")

	_, _, err = svc.ValidateAndNormalize(enums.DocumentTypeCI, "12345678", strPtr("12"))
	require.Error(t, err)

	_, _, err = svc.ValidateAndNormalize(enums.DocumentTypePassport, "AB123456", strPtr("1A"))
	require.Error(t, err, "extension only applies to CI")
}

func TestCreateThenExistsThenDeactivate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, enums.DocumentTypeCI, "1234-5678", nil)
	require.NoError(t, err)
	assert.Equal(t, "12345678", doc.DocumentNumber)
	assert.True(t, doc.IsActive)

	exists, err := svc.Exists(ctx, enums.DocumentTypeCI, "12345678", nil, nil)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, svc.Deactivate(ctx, doc.ID))

	exists, err = svc.Exists(ctx, enums.DocumentTypeCI, "12345678", nil, nil)
	require.NoError(t, err)
	assert.False(t, exists, "deactivated documents must not count")
}

func TestCreateDuplicateDistinguishedByExtension(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, enums.DocumentTypeCI, "12345678", strPtr("1A"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, enums.DocumentTypeCI, "12345678", strPtr("1A"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	// Same number, different extension is allowed.
	_, err = svc.Create(ctx, enums.DocumentTypeCI, "12345678", strPtr("2B"))
	require.NoError(t, err)

	// Same number without extension is its own value.
	_, err = svc.Create(ctx, enums.DocumentTypeCI, "12345678", nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, enums.DocumentTypeCI, "12345678", nil)
	require.Error(t, err)
}

func TestUpdateExcludesSelfFromUniqueness(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, enums.DocumentTypeCI, "12345678", nil)
	require.NoError(t, err)

	other, err := svc.Create(ctx, enums.DocumentTypeCI, "87654321", nil)
	require.NoError(t, err)

	// Re-saving the same values must not collide with itself.
	updated, err := svc.Update(ctx, doc.ID, enums.DocumentTypeCI, "1234-5678", nil)
	require.NoError(t, err)
	assert.Equal(t, "12345678", updated.DocumentNumber)

	// Moving onto another active document's triple must fail.
	_, err = svc.Update(ctx, other.ID, enums.DocumentTypeCI, "12345678", nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}
