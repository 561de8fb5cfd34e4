package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/outflow/internal/utils"
)

// MailboxUsage counts confirmed sends per (mailbox, calendar day). Created
// lazily on the first send of the day, incremented atomically, never
// decremented.
type MailboxUsage struct {
	ID        string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Mailbox   string `gorm:"column:mailbox;type:varchar(255);uniqueIndex:idx_mailbox_day;not null" json:"mailbox"`
	Day       string `gorm:"column:day;type:varchar(20);uniqueIndex:idx_mailbox_day;not null" json:"day"`
	CountSent int    `gorm:"column:count_sent;not null;default:0" json:"countSent"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (MailboxUsage) TableName() string {
	return "mailbox_usage"
}

func (u *MailboxUsage) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = utils.GenerateNanoIDWithPrefix("mbu", 16)
	}
	return nil
}
