package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/tracing"
)

type outboundMessageRepository struct {
	db *gorm.DB
}

func NewOutboundMessageRepository(db *gorm.DB) interfaces.OutboundMessageRepository {
	return &outboundMessageRepository{db: db}
}

func (r *outboundMessageRepository) Create(ctx context.Context, message *models.OutboundMessage) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "outboundMessageRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagLead(span, message.LeadID)

	err := r.db.WithContext(ctx).Create(message).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *outboundMessageRepository) GetLatestByLeadID(ctx context.Context, leadID string) (*models.OutboundMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "outboundMessageRepository.GetLatestByLeadID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagLead(span, leadID)

	var message models.OutboundMessage
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("sent_at desc").
		First(&message).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &message, nil
}

func (r *outboundMessageRepository) ListByLeadID(ctx context.Context, leadID string) ([]*models.OutboundMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "outboundMessageRepository.ListByLeadID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagLead(span, leadID)

	var messages []*models.OutboundMessage
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("sent_at desc").
		Find(&messages).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return messages, nil
}
