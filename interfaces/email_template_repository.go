package interfaces

import (
	"context"

	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/models"
)

type EmailTemplateRepository interface {
	Create(ctx context.Context, template *models.EmailTemplate) error
	GetByID(ctx context.Context, id string) (*models.EmailTemplate, error)
	// GetActiveByType returns active templates of the given type, unordered;
	// batch ordering is the selector's concern
	GetActiveByType(ctx context.Context, emailType enum.EmailType) ([]*models.EmailTemplate, error)
	// IncrementUsage bumps usage_count atomically
	IncrementUsage(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.EmailTemplate, error)
	CountAll(ctx context.Context) (int64, error)
}
