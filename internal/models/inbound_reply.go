package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/utils"
)

// InboundReply is created once per inbound event. SuggestedReplySent moves
// false to true exactly once, through the approval path.
type InboundReply struct {
	ID      string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	LeadID  string `gorm:"column:lead_id;type:varchar(50);index;not null" json:"leadId"`
	RawBody string `gorm:"column:raw_body;type:text;not null" json:"rawBody"`

	Sentiment enum.Sentiment `gorm:"column:sentiment;type:varchar(50);index;default:'neutral'" json:"sentiment"`

	SuggestedReplySubject string `gorm:"column:suggested_reply_subject;type:varchar(255)" json:"suggestedReplySubject"`
	SuggestedReplyBody    string `gorm:"column:suggested_reply_body;type:text" json:"suggestedReplyBody"`
	SuggestedReplySent    bool   `gorm:"column:suggested_reply_sent;not null;default:false" json:"suggestedReplySent"`

	ReceivedAt time.Time `gorm:"column:received_at;type:timestamp;index;default:current_timestamp" json:"receivedAt"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (InboundReply) TableName() string {
	return "inbound_replies"
}

func (r *InboundReply) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = utils.GenerateNanoIDWithPrefix("rply", 16)
	}
	if r.ReceivedAt.IsZero() {
		r.ReceivedAt = utils.Now()
	}
	return nil
}
