package leads

import (
	"context"
	"strings"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/enum"
	outflowErrors "github.com/customeros/outflow/internal/errors"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/tracing"
	"github.com/customeros/outflow/internal/utils"
)

// leadService owns lead status and opted_out. Every mutation goes through a
// transition method here; the orchestrator never writes leads directly.
type leadService struct {
	leadRepo  interfaces.LeadRepository
	alertRepo interfaces.AlertRepository
	publisher interfaces.EventPublisher
	log       logger.Logger
}

func NewLeadService(
	leadRepo interfaces.LeadRepository,
	alertRepo interfaces.AlertRepository,
	publisher interfaces.EventPublisher,
	log logger.Logger,
) interfaces.LeadService {
	return &leadService{
		leadRepo:  leadRepo,
		alertRepo: alertRepo,
		publisher: publisher,
		log:       log,
	}
}

func (s *leadService) Admit(ctx context.Context, candidate dto.LeadCandidate) (enum.AdmissionResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadService.Admit")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	name := strings.TrimSpace(candidate.Name)
	email := utils.NormalizeEmailAddress(candidate.Email)
	if name == "" || email == "" {
		return enum.AdmissionInvalid, nil
	}
	if validation := mailvalidate.ValidateEmailSyntax(email); !validation.IsValid {
		return enum.AdmissionInvalid, nil
	}

	existing, err := s.leadRepo.GetByEmail(ctx, email)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	if existing != nil {
		if existing.OptedOut {
			return enum.AdmissionSkippedOptedOut, nil
		}
		return enum.AdmissionSkippedExisting, nil
	}

	lead := &models.Lead{
		Name:     name,
		Email:    email,
		Company:  strings.TrimSpace(candidate.Company),
		Position: strings.TrimSpace(candidate.Position),
		Niche:    strings.TrimSpace(candidate.Niche),
		Status:   enum.LeadStatusNew,
	}
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	tracing.TagLead(span, lead.ID)
	return enum.AdmissionInserted, nil
}

func (s *leadService) MarkOutreached(ctx context.Context, lead *models.Lead) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadService.MarkOutreached")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagLead(span, lead.ID)

	if lead.Status != enum.LeadStatusNew {
		err := errors.Wrapf(outflowErrors.ErrInvalidTransition, "cannot mark outreached from %s", lead.Status)
		tracing.TraceErr(span, err)
		return err
	}

	lead.Status = enum.LeadStatusOutreached
	lead.LastContactedAt = utils.NowPtr()
	return s.save(ctx, span, lead)
}

func (s *leadService) MarkFollowUpSent(ctx context.Context, lead *models.Lead) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadService.MarkFollowUpSent")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagLead(span, lead.ID)

	// FollowUpDue is allowed again for repeat touches
	if lead.Status != enum.LeadStatusOutreached && lead.Status != enum.LeadStatusFollowUpDue {
		err := errors.Wrapf(outflowErrors.ErrInvalidTransition, "cannot mark follow-up from %s", lead.Status)
		tracing.TraceErr(span, err)
		return err
	}

	lead.Status = enum.LeadStatusFollowUpDue
	lead.LastContactedAt = utils.NowPtr()
	return s.save(ctx, span, lead)
}

func (s *leadService) RecordReply(ctx context.Context, lead *models.Lead, sentiment enum.Sentiment) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadService.RecordReply")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagLead(span, lead.ID)
	span.SetTag("sentiment", sentiment.String())

	if lead.Status.IsTerminal() {
		err := errors.Wrapf(outflowErrors.ErrInvalidTransition, "cannot record reply from %s", lead.Status)
		tracing.TraceErr(span, err)
		return err
	}

	lead.Status = enum.LeadStatusReplied
	if sentiment == enum.SentimentNegative {
		// a negative reply supersedes outreach state entirely
		lead.Status = enum.LeadStatusOptedOut
		lead.OptedOut = true
	}
	if err := s.save(ctx, span, lead); err != nil {
		return err
	}

	s.publish(ctx, "reply.received", dto.ReplyReceivedEvent{
		LeadID:     lead.ID,
		Sentiment:  sentiment.String(),
		ReceivedAt: utils.Now(),
	})
	return nil
}

func (s *leadService) Unsubscribe(ctx context.Context, email, reason string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadService.Unsubscribe")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	lead, err := s.leadRepo.GetByEmail(ctx, utils.NormalizeEmailAddress(email))
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	if lead == nil {
		return false, outflowErrors.ErrLeadNotFound
	}
	tracing.TagLead(span, lead.ID)
	if lead.OptedOut {
		return false, nil
	}

	lead.OptedOut = true
	lead.Status = enum.LeadStatusOptedOut
	if err := s.save(ctx, span, lead); err != nil {
		return false, err
	}

	alert := &models.Alert{
		LeadID:   &lead.ID,
		Severity: enum.AlertSeverityInfo,
		Message:  "Lead " + lead.Email + " opted out: " + reason,
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("Failed to record opt-out alert for lead %s: %v", lead.ID, err)
	}

	s.publish(ctx, "lead.opted_out", dto.LeadOptedOutEvent{
		LeadID:   lead.ID,
		Email:    lead.Email,
		Reason:   reason,
		OptedOut: utils.Now(),
	})
	return true, nil
}

func (s *leadService) MarkConverted(ctx context.Context, leadID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadService.MarkConverted")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagLead(span, leadID)

	lead, err := s.getLead(ctx, span, leadID)
	if err != nil {
		return err
	}
	if lead.Status.IsTerminal() {
		err := errors.Wrapf(outflowErrors.ErrInvalidTransition, "cannot convert from %s", lead.Status)
		tracing.TraceErr(span, err)
		return err
	}

	lead.Status = enum.LeadStatusConverted
	return s.save(ctx, span, lead)
}

func (s *leadService) Close(ctx context.Context, leadID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadService.Close")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagLead(span, leadID)

	lead, err := s.getLead(ctx, span, leadID)
	if err != nil {
		return err
	}
	if lead.Status.IsTerminal() {
		err := errors.Wrapf(outflowErrors.ErrInvalidTransition, "cannot close from %s", lead.Status)
		tracing.TraceErr(span, err)
		return err
	}

	lead.Status = enum.LeadStatusClosed
	return s.save(ctx, span, lead)
}

func (s *leadService) getLead(ctx context.Context, span opentracing.Span, leadID string) (*models.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if lead == nil {
		return nil, outflowErrors.ErrLeadNotFound
	}
	return lead, nil
}

func (s *leadService) save(ctx context.Context, span opentracing.Span, lead *models.Lead) error {
	if err := s.leadRepo.Save(ctx, lead); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

// publish is fire-and-forget; downstream consumers are advisory.
func (s *leadService) publish(ctx context.Context, routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		s.log.Errorf("Failed to publish %s event: %v", routingKey, err)
	}
}
