package identity

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// Registry exposes identity document persistence operations.
type Registry struct {
	db *gorm.DB
}

// NewRegistry constructs a registry bound to the provided GORM DB.
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// WithDB returns a registry bound to a different connection, typically an
// open transaction.
func (r *Registry) WithDB(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// Exists reports whether an active document matches type + normalized number +
// exact extension. The "no extension" case is its own value: a row with NULL
// extension only matches a nil extension argument. excludeID skips one row so
// updates do not collide with themselves.
func (r *Registry) Exists(ctx context.Context, docType enums.DocumentType, number string, extension *string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.IdentityDocument{}).
		Where("document_type = ? AND document_number = ? AND is_active = ?", docType, number, true)

	if extension == nil {
		query = query.Where("extension IS NULL")
	} else {
		query = query.Where("extension = ?", *extension)
	}
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert persists a new document row.
func (r *Registry) Insert(ctx context.Context, doc *models.IdentityDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// Update overwrites the stored type, number, and extension of a document.
func (r *Registry) Update(ctx context.Context, doc *models.IdentityDocument) error {
	return r.db.WithContext(ctx).
		Model(&models.IdentityDocument{}).
		Where("id = ?", doc.ID).
		Updates(map[string]any{
			"document_type":   doc.DocumentType,
			"document_number": doc.DocumentNumber,
			"extension":       doc.Extension,
		}).Error
}

// FindByID loads a document by its UUID.
func (r *Registry) FindByID(ctx context.Context, id uuid.UUID) (*models.IdentityDocument, error) {
	var doc models.IdentityDocument
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// Deactivate logically retires a document by clearing its active flag.
func (r *Registry) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.IdentityDocument{}).
		Where("id = ?", id).
		UpdateColumn("is_active", false).Error
}
