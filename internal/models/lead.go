package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/utils"
)

// Lead is owned by the lead lifecycle service; status and opted_out are
// mutated only through its transitions.
type Lead struct {
	ID       string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Name     string `gorm:"column:name;type:varchar(150);not null" json:"name"`
	Email    string `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	Company  string `gorm:"column:company;type:varchar(150)" json:"company"`
	Position string `gorm:"column:position;type:varchar(150)" json:"position"`
	Niche    string `gorm:"column:niche;type:varchar(150)" json:"niche"`

	Status   enum.LeadStatus `gorm:"column:status;type:varchar(50);index;default:'new'" json:"status"`
	OptedOut bool            `gorm:"column:opted_out;not null;default:false" json:"optedOut"`

	LastContactedAt *time.Time `gorm:"column:last_contacted_at;type:timestamp" json:"lastContactedAt"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Lead) TableName() string {
	return "leads"
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = utils.GenerateNanoIDWithPrefix("lead", 16)
	}
	return nil
}
