package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/outflow/internal/utils"
)

// ModelUsage aggregates generation requests per (provider, model, day).
// Targets themselves are static configuration; only these counters persist.
type ModelUsage struct {
	ID       string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Provider string `gorm:"column:provider;type:varchar(100);uniqueIndex:idx_target_day;not null" json:"provider"`
	Model    string `gorm:"column:model;type:varchar(100);uniqueIndex:idx_target_day;not null" json:"model"`
	Day      string `gorm:"column:day;type:varchar(20);uniqueIndex:idx_target_day;not null" json:"day"`

	RequestsMade   int `gorm:"column:requests_made;not null;default:0" json:"requestsMade"`
	TokensEstimate int `gorm:"column:tokens_estimate;not null;default:0" json:"tokensEstimate"`

	LastUsedAt *time.Time `gorm:"column:last_used_at;type:timestamp" json:"lastUsedAt"`
	CreatedAt  time.Time  `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (ModelUsage) TableName() string {
	return "model_usage"
}

func (u *ModelUsage) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = utils.GenerateNanoIDWithPrefix("mdu", 16)
	}
	return nil
}
