package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// Member represents a cooperative socio linked to a user account.
type Member struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	User       *User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	MemberType enums.MemberType `gorm:"column:member_type;not null"`
	// LegacyDNI keeps the raw document string carried over from records
	// created before documents were normalized into identity_documents.
	LegacyDNI string     `gorm:"column:legacy_dni"`
	Address   string     `gorm:"column:address"`
	Phone     string     `gorm:"column:phone"`
	JoinedAt  time.Time  `gorm:"column:joined_at;not null"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	Notes     *string    `gorm:"column:notes"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Member) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
