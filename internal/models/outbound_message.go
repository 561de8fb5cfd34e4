package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/utils"
)

// OutboundMessage is the append-only record of a sent email. TemplateID is
// nil for ad-hoc reply sends.
type OutboundMessage struct {
	ID         string         `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	LeadID     string         `gorm:"column:lead_id;type:varchar(50);index;not null" json:"leadId"`
	TemplateID *string        `gorm:"column:template_id;type:varchar(50);index" json:"templateId"`
	EmailType  enum.EmailType `gorm:"column:email_type;type:varchar(50);index;not null" json:"emailType"`

	Subject string `gorm:"column:subject;type:varchar(255);not null" json:"subject"`
	Body    string `gorm:"column:body;type:text;not null" json:"body"`

	// Opaque id returned by the email gateway
	ExternalMessageID string `gorm:"column:external_message_id;type:varchar(255)" json:"externalMessageId"`

	SentAt    time.Time `gorm:"column:sent_at;type:timestamp;index;default:current_timestamp" json:"sentAt"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (OutboundMessage) TableName() string {
	return "outbound_messages"
}

func (m *OutboundMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("msg", 16)
	}
	if m.SentAt.IsZero() {
		m.SentAt = utils.Now()
	}
	return nil
}
