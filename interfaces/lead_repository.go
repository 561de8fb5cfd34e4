package interfaces

import (
	"context"
	"time"

	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/models"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	Save(ctx context.Context, lead *models.Lead) error
	// GetByID returns nil, nil when the lead does not exist
	GetByID(ctx context.Context, id string) (*models.Lead, error)
	// GetByEmail expects a normalized (lowercased) address and returns nil, nil when missing
	GetByEmail(ctx context.Context, email string) (*models.Lead, error)
	// GetEligible returns leads in one of the given statuses that are not
	// opted out, optionally filtered to those last contacted before the cutoff
	GetEligible(ctx context.Context, statuses []enum.LeadStatus, lastContactBefore *time.Time, limit int) ([]*models.Lead, error)
	List(ctx context.Context, limit, offset int) ([]*models.Lead, error)
	CountAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status enum.LeadStatus) (int64, error)
}
