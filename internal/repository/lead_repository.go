package repository

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/tracing"
)

type leadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) interfaces.LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Create(lead).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *leadRepository) Save(ctx context.Context, lead *models.Lead) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagLead(span, lead.ID)

	err := r.db.WithContext(ctx).Save(lead).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagLead(span, id)

	var lead models.Lead
	err := r.db.WithContext(ctx).First(&lead, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) GetByEmail(ctx context.Context, email string) (*models.Lead, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadRepository.GetByEmail")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var lead models.Lead
	err := r.db.WithContext(ctx).First(&lead, "email = ?", email).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) GetEligible(ctx context.Context, statuses []enum.LeadStatus, lastContactBefore *time.Time, limit int) ([]*models.Lead, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadRepository.GetEligible")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Where("opted_out = ?", false).
		Order("created_at asc")
	if lastContactBefore != nil {
		query = query.Where("last_contacted_at IS NOT NULL AND last_contacted_at < ?", *lastContactBefore)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var leads []*models.Lead
	if err := query.Find(&leads).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return leads, nil
}

func (r *leadRepository) List(ctx context.Context, limit, offset int) ([]*models.Lead, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var leads []*models.Lead
	query := r.db.WithContext(ctx).Order("created_at desc").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&leads).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return leads, nil
}

func (r *leadRepository) CountAll(ctx context.Context) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadRepository.CountAll")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Lead{}).Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	return count, nil
}

func (r *leadRepository) CountByStatus(ctx context.Context, status enum.LeadStatus) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadRepository.CountByStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Lead{}).Where("status = ?", status).Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	return count, nil
}
