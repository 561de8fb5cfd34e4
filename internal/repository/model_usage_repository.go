package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/tracing"
	"github.com/customeros/outflow/internal/utils"
)

type modelUsageRepository struct {
	db *gorm.DB
}

func NewModelUsageRepository(db *gorm.DB) interfaces.ModelUsageRepository {
	return &modelUsageRepository{db: db}
}

func (r *modelUsageRepository) GetUsageForDay(ctx context.Context, day string) (map[string]*models.ModelUsage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "modelUsageRepository.GetUsageForDay")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var rows []*models.ModelUsage
	if err := r.db.WithContext(ctx).Where("day = ?", day).Find(&rows).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	usage := make(map[string]*models.ModelUsage, len(rows))
	for _, row := range rows {
		usage[row.Provider+":"+row.Model] = row
	}
	return usage, nil
}

func (r *modelUsageRepository) RecordRequest(ctx context.Context, provider, model, day string, tokensEstimate int) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "modelUsageRepository.RecordRequest")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	usage := models.ModelUsage{
		Provider:       provider,
		Model:          model,
		Day:            day,
		RequestsMade:   1,
		TokensEstimate: tokensEstimate,
		LastUsedAt:     utils.NowPtr(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider"}, {Name: "model"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"requests_made":   gorm.Expr("model_usage.requests_made + 1"),
				"tokens_estimate": gorm.Expr("model_usage.tokens_estimate + ?", tokensEstimate),
				"last_used_at":    utils.Now(),
				"updated_at":      gorm.Expr("current_timestamp"),
			}),
		}).
		Create(&usage).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
