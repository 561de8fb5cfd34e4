package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/tracing"
)

type emailTemplateRepository struct {
	db *gorm.DB
}

func NewEmailTemplateRepository(db *gorm.DB) interfaces.EmailTemplateRepository {
	return &emailTemplateRepository{db: db}
}

func (r *emailTemplateRepository) Create(ctx context.Context, template *models.EmailTemplate) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailTemplateRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Create(template).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *emailTemplateRepository) GetByID(ctx context.Context, id string) (*models.EmailTemplate, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailTemplateRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var template models.EmailTemplate
	err := r.db.WithContext(ctx).First(&template, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &template, nil
}

func (r *emailTemplateRepository) GetActiveByType(ctx context.Context, emailType enum.EmailType) ([]*models.EmailTemplate, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailTemplateRepository.GetActiveByType")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var templates []*models.EmailTemplate
	err := r.db.WithContext(ctx).
		Where("email_type = ?", emailType).
		Where("is_active = ?", true).
		Find(&templates).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return templates, nil
}

func (r *emailTemplateRepository) IncrementUsage(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailTemplateRepository.IncrementUsage")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).
		Model(&models.EmailTemplate{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *emailTemplateRepository) Deactivate(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailTemplateRepository.Deactivate")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).
		Model(&models.EmailTemplate{}).
		Where("id = ?", id).
		UpdateColumn("is_active", false).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *emailTemplateRepository) List(ctx context.Context) ([]*models.EmailTemplate, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailTemplateRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var templates []*models.EmailTemplate
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&templates).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return templates, nil
}

func (r *emailTemplateRepository) CountAll(ctx context.Context) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailTemplateRepository.CountAll")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.EmailTemplate{}).Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	return count, nil
}
