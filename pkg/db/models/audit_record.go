package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/jmamani/cooperativa-backend/pkg/db/types"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// AuditRecord is one immutable audit trail entry. UserID stays nullable so
// records survive account deletion and system-originated events.
type AuditRecord struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	ActorLabel  string            `gorm:"column:actor_label;not null"`
	Action      enums.AuditAction `gorm:"column:action;not null;index"`
	EntityKind  *enums.EntityKind `gorm:"column:entity_kind"`
	EntityID    *uuid.UUID        `gorm:"column:entity_id;type:uuid"`
	Description string            `gorm:"column:description"`
	IPAddress   string            `gorm:"column:ip_address;not null"`
	UserAgent   string            `gorm:"column:user_agent"`
	PriorState  dbtypes.JSONMap   `gorm:"column:prior_state;type:jsonb"`
	NewState    dbtypes.JSONMap   `gorm:"column:new_state;type:jsonb"`
	Success     bool              `gorm:"column:success;not null;default:true"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime;index"`
}

func (r *AuditRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
