package interfaces

import (
	"context"

	"github.com/customeros/outflow/internal/models"
)

type MailboxUsageRepository interface {
	// GetCountSent treats a missing counter row as zero
	GetCountSent(ctx context.Context, mailbox, day string) (int, error)
	// IncrementSent upserts the (mailbox, day) row and bumps count_sent atomically
	IncrementSent(ctx context.Context, mailbox, day string) error
}

type ModelUsageRepository interface {
	// GetUsageForDay returns counters keyed by "provider:model"
	GetUsageForDay(ctx context.Context, day string) (map[string]*models.ModelUsage, error)
	// RecordRequest bumps requests_made and tokens_estimate for the target
	RecordRequest(ctx context.Context, provider, model, day string, tokensEstimate int) error
}

type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	List(ctx context.Context, limit int) ([]*models.Alert, error)
}
