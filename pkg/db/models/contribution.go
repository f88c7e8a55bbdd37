package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// Contribution is an aporte registered by a member. Amount is only set for
// monetary contributions.
type Contribution struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID    uuid.UUID              `gorm:"column:member_id;type:uuid;not null"`
	Member      *Member                `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE"`
	Type        enums.ContributionType `gorm:"column:contribution_type;not null"`
	Amount      *decimal.Decimal       `gorm:"column:amount;type:numeric(12,2)"`
	Description string                 `gorm:"column:description"`
	Date        time.Time              `gorm:"column:contribution_date;not null"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Contribution) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
