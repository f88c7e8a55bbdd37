package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// IdentityDocument stores a normalized legal identity document.
//
// Active documents are protected by partial unique indexes over
// (document_type, document_number, extension) and, for rows without
// extension, over (document_type, document_number).
type IdentityDocument struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DocumentType   enums.DocumentType `gorm:"column:document_type;not null"`
	DocumentNumber string             `gorm:"column:document_number;not null"`
	Extension      *string            `gorm:"column:extension"`
	IsActive       bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *IdentityDocument) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
