package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/utils"
)

// EmailTemplate is never deleted, only deactivated. UsageCount only increases.
type EmailTemplate struct {
	ID        string         `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Name      string         `gorm:"column:name;type:varchar(150);not null" json:"name"`
	EmailType enum.EmailType `gorm:"column:email_type;type:varchar(50);index;not null" json:"emailType"`
	Objective string         `gorm:"column:objective;type:varchar(200)" json:"objective"`

	SubjectTemplate string `gorm:"column:subject_template;type:varchar(255);not null" json:"subjectTemplate"`
	BodyTemplate    string `gorm:"column:body_template;type:text;not null" json:"bodyTemplate"`

	// Placeholder keys detected in subject and body at creation time
	Placeholders pq.StringArray `gorm:"column:placeholders;type:text[]" json:"placeholders"`

	QualityScore float64 `gorm:"column:quality_score;default:0" json:"qualityScore"`
	UsageCount   int     `gorm:"column:usage_count;not null;default:0" json:"usageCount"`
	IsActive     bool    `gorm:"column:is_active;not null;default:true" json:"isActive"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (EmailTemplate) TableName() string {
	return "email_templates"
}

func (t *EmailTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = utils.GenerateNanoIDWithPrefix("tmpl", 16)
	}
	return nil
}
