package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/tracing"
)

type inboundReplyRepository struct {
	db *gorm.DB
}

func NewInboundReplyRepository(db *gorm.DB) interfaces.InboundReplyRepository {
	return &inboundReplyRepository{db: db}
}

func (r *inboundReplyRepository) Create(ctx context.Context, reply *models.InboundReply) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboundReplyRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagLead(span, reply.LeadID)

	err := r.db.WithContext(ctx).Create(reply).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *inboundReplyRepository) GetLatestPendingByLeadID(ctx context.Context, leadID string) (*models.InboundReply, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboundReplyRepository.GetLatestPendingByLeadID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagLead(span, leadID)

	var reply models.InboundReply
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Where("suggested_reply_sent = ?", false).
		Order("received_at desc").
		First(&reply).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &reply, nil
}

func (r *inboundReplyRepository) MarkSuggestionSent(ctx context.Context, id string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboundReplyRepository.MarkSuggestionSent")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	// The sent-flag guard in the WHERE clause makes the false->true flip
	// observable exactly once.
	result := r.db.WithContext(ctx).
		Model(&models.InboundReply{}).
		Where("id = ?", id).
		Where("suggested_reply_sent = ?", false).
		UpdateColumn("suggested_reply_sent", true)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *inboundReplyRepository) ListByLeadID(ctx context.Context, leadID string) ([]*models.InboundReply, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboundReplyRepository.ListByLeadID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagLead(span, leadID)

	var replies []*models.InboundReply
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("received_at desc").
		Find(&replies).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return replies, nil
}
