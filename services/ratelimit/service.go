package ratelimit

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/customeros/outflow/interfaces"
	outflowErrors "github.com/customeros/outflow/internal/errors"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/tracing"
	"github.com/customeros/outflow/internal/utils"
)

// rateLimiterService enforces the per-mailbox daily send budget. Days roll
// over on UTC date boundaries.
type rateLimiterService struct {
	dailyLimit int
	usageRepo  interfaces.MailboxUsageRepository
	log        logger.Logger
}

func NewRateLimiterService(dailyLimit int, usageRepo interfaces.MailboxUsageRepository, log logger.Logger) interfaces.RateLimiterService {
	return &rateLimiterService{
		dailyLimit: dailyLimit,
		usageRepo:  usageRepo,
		log:        log,
	}
}

func (s *rateLimiterService) CapacityRemaining(ctx context.Context, mailbox, day string) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "rateLimiterService.CapacityRemaining")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMailbox(span, mailbox)

	sent, err := s.usageRepo.GetCountSent(ctx, mailbox, day)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	remaining := s.dailyLimit - sent
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *rateLimiterService) CheckCapacity(ctx context.Context, mailbox string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "rateLimiterService.CheckCapacity")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMailbox(span, mailbox)

	remaining, err := s.CapacityRemaining(ctx, mailbox, utils.DayKey(utils.Now()))
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return outflowErrors.ErrCapacityExceeded
	}
	return nil
}

func (s *rateLimiterService) RegisterSend(ctx context.Context, mailbox string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "rateLimiterService.RegisterSend")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMailbox(span, mailbox)

	if err := s.usageRepo.IncrementSent(ctx, mailbox, utils.DayKey(utils.Now())); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
