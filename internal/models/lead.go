package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/permitleads/leadstack/internal/utils"
)

// Lead is one ledger row: the decision that a permit goes to a client via an
// automation class, at most once ever per (automation_class_id, permit_id).
type Lead struct {
	ID                string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	AutomationClassID string `gorm:"column:automation_class_id;type:varchar(50);not null;uniqueIndex:idx_leads_class_permit,priority:1" json:"automationClassId"`
	PermitID          string `gorm:"column:permit_id;type:varchar(50);not null;uniqueIndex:idx_leads_class_permit,priority:2" json:"permitId"`
	ClientID          string `gorm:"column:client_id;type:varchar(50);index;not null" json:"clientId"`

	SentAt time.Time `gorm:"column:sent_at;type:timestamp;index;not null" json:"sentAt"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (Lead) TableName() string {
	return "leads"
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = utils.GenerateNanoIdWithPrefix("lead", 16)
	}
	return nil
}
