package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/utils"
)

// Alert is the durable side channel for noteworthy orchestration events:
// capacity exhaustion, unknown-sender replies, opt-outs.
type Alert struct {
	ID       string             `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	LeadID   *string            `gorm:"column:lead_id;type:varchar(50);index" json:"leadId"`
	Severity enum.AlertSeverity `gorm:"column:severity;type:varchar(20);index;default:'info'" json:"severity"`
	Message  string             `gorm:"column:message;type:varchar(500);not null" json:"message"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;index;default:current_timestamp" json:"createdAt"`
}

func (Alert) TableName() string {
	return "alerts"
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.GenerateNanoIDWithPrefix("alrt", 16)
	}
	return nil
}
