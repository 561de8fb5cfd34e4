package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/tracing"
)

type mailboxUsageRepository struct {
	db *gorm.DB
}

func NewMailboxUsageRepository(db *gorm.DB) interfaces.MailboxUsageRepository {
	return &mailboxUsageRepository{db: db}
}

func (r *mailboxUsageRepository) GetCountSent(ctx context.Context, mailbox, day string) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxUsageRepository.GetCountSent")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagMailbox(span, mailbox)

	var usage models.MailboxUsage
	err := r.db.WithContext(ctx).
		Where("mailbox = ? AND day = ?", mailbox, day).
		First(&usage).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		tracing.TraceErr(span, err)
		return 0, err
	}
	return usage.CountSent, nil
}

func (r *mailboxUsageRepository) IncrementSent(ctx context.Context, mailbox, day string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxUsageRepository.IncrementSent")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagMailbox(span, mailbox)

	usage := models.MailboxUsage{
		Mailbox:   mailbox,
		Day:       day,
		CountSent: 1,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "mailbox"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count_sent": gorm.Expr("mailbox_usage.count_sent + 1"),
				"updated_at": gorm.Expr("current_timestamp"),
			}),
		}).
		Create(&usage).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
