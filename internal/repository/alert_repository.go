package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/tracing"
)

type alertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) interfaces.AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *models.Alert) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "alertRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Create(alert).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *alertRepository) List(ctx context.Context, limit int) ([]*models.Alert, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "alertRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var alerts []*models.Alert
	query := r.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&alerts).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return alerts, nil
}
