package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSession tracks one authenticated session keyed by its token identifier.
type UserSession struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	User         *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	SessionToken string     `gorm:"column:session_token;not null;uniqueIndex"`
	IPAddress    string     `gorm:"column:ip_address;not null"`
	UserAgent    string     `gorm:"column:user_agent"`
	StartedAt    time.Time  `gorm:"column:started_at;autoCreateTime"`
	LastSeenAt   time.Time  `gorm:"column:last_seen_at;not null"`
	ClosedAt     *time.Time `gorm:"column:closed_at"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true;index"`
}

func (s *UserSession) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
