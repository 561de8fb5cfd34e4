package campaign

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/customeros/outflow/config"
	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/enum"
	outflowErrors "github.com/customeros/outflow/internal/errors"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/tracing"
	"github.com/customeros/outflow/internal/utils"
	"github.com/customeros/outflow/services/template"
)

// orchestrator composes leads, templates, the rate limiter, the generation
// router and the email gateway into batch operations. Batches run from a
// single scheduled trigger per mailbox; leads within a batch are processed
// strictly sequentially so the capacity check for lead N+1 observes the
// registered send of lead N.
type orchestrator struct {
	cfg *config.CampaignConfig

	leadRepo     interfaces.LeadRepository
	templateRepo interfaces.EmailTemplateRepository
	messageRepo  interfaces.OutboundMessageRepository
	replyRepo    interfaces.InboundReplyRepository
	alertRepo    interfaces.AlertRepository

	leadService interfaces.LeadService
	rateLimiter interfaces.RateLimiterService
	generation  interfaces.GenerationService
	responder   interfaces.ReplyResponder
	gateway     interfaces.EmailGateway
	seeder      *template.Seeder
	publisher   interfaces.EventPublisher

	log logger.Logger
}

func NewCampaignService(
	cfg *config.CampaignConfig,
	leadRepo interfaces.LeadRepository,
	templateRepo interfaces.EmailTemplateRepository,
	messageRepo interfaces.OutboundMessageRepository,
	replyRepo interfaces.InboundReplyRepository,
	alertRepo interfaces.AlertRepository,
	leadService interfaces.LeadService,
	rateLimiter interfaces.RateLimiterService,
	generation interfaces.GenerationService,
	responder interfaces.ReplyResponder,
	gateway interfaces.EmailGateway,
	seeder *template.Seeder,
	publisher interfaces.EventPublisher,
	log logger.Logger,
) interfaces.CampaignService {
	return &orchestrator{
		cfg:          cfg,
		leadRepo:     leadRepo,
		templateRepo: templateRepo,
		messageRepo:  messageRepo,
		replyRepo:    replyRepo,
		alertRepo:    alertRepo,
		leadService:  leadService,
		rateLimiter:  rateLimiter,
		generation:   generation,
		responder:    responder,
		gateway:      gateway,
		seeder:       seeder,
		publisher:    publisher,
		log:          log,
	}
}

func (o *orchestrator) SeedTemplates(ctx context.Context, objective, niche string) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "orchestrator.SeedTemplates")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if objective == "" {
		objective = o.cfg.Objective
	}
	created, err := o.seeder.Seed(ctx, objective, niche)
	if err != nil {
		tracing.TraceErr(span, err)
		if outflowErrors.IsProvidersExhausted(err) {
			o.recordAlert(ctx, nil, enum.AlertSeverityError,
				"All generation providers failed while seeding outreach templates")
		}
	}
	return created, err
}

func (o *orchestrator) RunOutreachBatch(ctx context.Context, limit int) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "orchestrator.RunOutreachBatch")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if limit <= 0 {
		limit = o.cfg.OutreachBatchLimit
	}
	span.SetTag("limit", limit)

	pool, err := o.templateRepo.GetActiveByType(ctx, enum.EmailTypeOutreach)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	if len(pool) == 0 {
		// seeding is an explicit operation, never auto-triggered here
		return 0, outflowErrors.ErrNoActiveTemplates
	}
	ordered := template.OrderForBatch(pool)

	leads, err := o.leadRepo.GetEligible(ctx, []enum.LeadStatus{enum.LeadStatusNew}, nil, limit)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	sent := 0
	for _, lead := range leads {
		if err := o.checkCapacityOrHalt(ctx, span); err != nil {
			if errors.Is(err, outflowErrors.ErrCapacityExceeded) {
				break
			}
			return sent, err
		}

		tmpl := ordered[sent%len(ordered)]
		renderCtx := o.leadContext(lead)
		subject := template.Render(tmpl.SubjectTemplate, renderCtx)
		body := template.Render(tmpl.BodyTemplate, renderCtx)

		externalID, err := o.gateway.Send(ctx, lead.Email, subject, body, o.cfg.SenderEmail)
		if err != nil {
			// the lead is not transitioned; it stays eligible for the next run
			tracing.TraceErr(span, err)
			o.log.Errorf("Outreach send to %s failed: %v", lead.Email, err)
			continue
		}

		if err := o.recordSend(ctx, span, lead, &tmpl.ID, enum.EmailTypeOutreach, subject, body, externalID); err != nil {
			return sent, err
		}
		if err := o.templateRepo.IncrementUsage(ctx, tmpl.ID); err != nil {
			tracing.TraceErr(span, err)
			return sent, err
		}
		if err := o.leadService.MarkOutreached(ctx, lead); err != nil {
			tracing.TraceErr(span, err)
			return sent, err
		}
		if err := o.rateLimiter.RegisterSend(ctx, o.cfg.SenderEmail); err != nil {
			tracing.TraceErr(span, err)
			return sent, err
		}
		sent++
	}

	span.SetTag("sent", sent)
	return sent, nil
}

func (o *orchestrator) RunFollowUpCycle(ctx context.Context, olderThan time.Duration) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "orchestrator.RunFollowUpCycle")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if olderThan <= 0 {
		olderThan = time.Duration(o.cfg.FollowUpAgeHours) * time.Hour
	}
	cutoff := utils.Now().Add(-olderThan)

	leads, err := o.leadRepo.GetEligible(ctx,
		[]enum.LeadStatus{enum.LeadStatusOutreached, enum.LeadStatusFollowUpDue},
		&cutoff, o.cfg.FollowUpBatchLimit)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	sent := 0
	for _, lead := range leads {
		if err := o.checkCapacityOrHalt(ctx, span); err != nil {
			if errors.Is(err, outflowErrors.ErrCapacityExceeded) {
				break
			}
			return sent, err
		}

		prior, err := o.messageRepo.GetLatestByLeadID(ctx, lead.ID)
		if err != nil {
			tracing.TraceErr(span, err)
			return sent, err
		}
		if prior == nil {
			continue
		}

		subject, body, err := o.draftFollowUp(ctx, lead, prior)
		if err != nil {
			if outflowErrors.IsProvidersExhausted(err) {
				o.recordAlert(ctx, &lead.ID, enum.AlertSeverityError,
					"All generation providers failed while drafting a follow-up")
				continue
			}
			tracing.TraceErr(span, err)
			return sent, err
		}

		renderCtx := o.leadContext(lead)
		subject = template.Render(subject, renderCtx)
		body = template.Render(body, renderCtx)

		externalID, err := o.gateway.Send(ctx, lead.Email, subject, body, o.cfg.SenderEmail)
		if err != nil {
			tracing.TraceErr(span, err)
			o.log.Errorf("Follow-up send to %s failed: %v", lead.Email, err)
			continue
		}

		if err := o.recordSend(ctx, span, lead, nil, enum.EmailTypeFollowUp, subject, body, externalID); err != nil {
			return sent, err
		}
		if err := o.leadService.MarkFollowUpSent(ctx, lead); err != nil {
			tracing.TraceErr(span, err)
			return sent, err
		}
		if err := o.rateLimiter.RegisterSend(ctx, o.cfg.SenderEmail); err != nil {
			tracing.TraceErr(span, err)
			return sent, err
		}
		sent++
	}

	span.SetTag("sent", sent)
	return sent, nil
}

// draftFollowUp asks the router for copy referencing the prior touch; only
// provider exhaustion is surfaced as such, any generated text is used as-is.
func (o *orchestrator) draftFollowUp(ctx context.Context, lead *models.Lead, prior *models.OutboundMessage) (string, string, error) {
	subject := "Following up on " + strings.ToLower(o.cfg.Objective)

	body, err := o.generation.Generate(ctx, dto.GenerationRequest{
		Instruction: "Write a short, non-pushy follow-up email referencing the original outreach. " +
			"Use {{name}} and {{sender_name}} placeholders and end with an unsubscribe footer containing {{unsubscribe_link}}.",
		Prompt: fmt.Sprintf("Lead=%s, objective=%s, original subject=%s, original body:\n%s",
			lead.Name, o.cfg.Objective, prior.Subject, prior.Body),
		Temperature: 0.5,
	})
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func (o *orchestrator) IngestReply(ctx context.Context, fromEmail, rawBody string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "orchestrator.IngestReply")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	lead, err := o.leadRepo.GetByEmail(ctx, utils.NormalizeEmailAddress(fromEmail))
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if lead == nil {
		// an unknown sender does not fail the ingestion pipeline
		o.recordAlert(ctx, nil, enum.AlertSeverityWarning,
			"Reply received from unknown sender "+fromEmail)
		return nil
	}
	tracing.TagLead(span, lead.ID)

	priorText := ""
	if prior, err := o.messageRepo.GetLatestByLeadID(ctx, lead.ID); err == nil && prior != nil {
		priorText = prior.Body
	}

	suggestion, err := o.responder.Respond(ctx, lead, rawBody, priorText)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	reply := &models.InboundReply{
		LeadID:                lead.ID,
		RawBody:               rawBody,
		Sentiment:             suggestion.Sentiment,
		SuggestedReplySubject: suggestion.Subject,
		SuggestedReplyBody:    suggestion.Body,
	}
	if err := o.replyRepo.Create(ctx, reply); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	if err := o.leadService.RecordReply(ctx, lead, suggestion.Sentiment); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	o.recordAlert(ctx, &lead.ID, enum.AlertSeverityInfo,
		fmt.Sprintf("Reply received from %s (%s), suggested draft ready for approval", lead.Email, suggestion.Sentiment))

	if o.cfg.AutoSendAllowed(suggestion.Sentiment) {
		if _, err := o.ApproveAndSendSuggestedReply(ctx, lead.ID); err != nil {
			// the suggestion stays queued for manual approval
			o.log.Errorf("Auto-send of suggested reply for lead %s failed: %v", lead.ID, err)
		}
	}
	return nil
}

func (o *orchestrator) ApproveAndSendSuggestedReply(ctx context.Context, leadID string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "orchestrator.ApproveAndSendSuggestedReply")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagLead(span, leadID)

	lead, err := o.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	if lead == nil {
		return false, outflowErrors.ErrLeadNotFound
	}

	reply, err := o.replyRepo.GetLatestPendingByLeadID(ctx, leadID)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	if reply == nil {
		return false, nil
	}

	if err := o.rateLimiter.CheckCapacity(ctx, o.cfg.SenderEmail); err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}

	externalID, err := o.gateway.Send(ctx, lead.Email, reply.SuggestedReplySubject, reply.SuggestedReplyBody, o.cfg.SenderEmail)
	if err != nil {
		// the suggestion stays pending so the approval can be retried
		tracing.TraceErr(span, err)
		return false, err
	}

	// approvals run from the single scheduled writer, so the suggestion is
	// marked sent only after the gateway confirmed; the guarded update keeps
	// a repeated approval from dispatching twice
	claimed, err := o.replyRepo.MarkSuggestionSent(ctx, reply.ID)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	if !claimed {
		o.log.Warnf("Suggested reply %s was already marked sent after dispatch to %s", reply.ID, lead.Email)
		return false, nil
	}

	if err := o.recordSend(ctx, span, lead, nil, enum.EmailTypeReply, reply.SuggestedReplySubject, reply.SuggestedReplyBody, externalID); err != nil {
		return false, err
	}
	if err := o.rateLimiter.RegisterSend(ctx, o.cfg.SenderEmail); err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	return true, nil
}

func (o *orchestrator) Metrics(ctx context.Context) (*dto.DashboardMetrics, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "orchestrator.Metrics")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	total, err := o.leadRepo.CountAll(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	counts := make(map[enum.LeadStatus]int64)
	for _, status := range []enum.LeadStatus{
		enum.LeadStatusOutreached, enum.LeadStatusReplied,
		enum.LeadStatusFollowUpDue, enum.LeadStatusOptedOut,
	} {
		n, err := o.leadRepo.CountByStatus(ctx, status)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		counts[status] = n
	}
	templatesTotal, err := o.templateRepo.CountAll(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	conversionRate := 0.0
	if counts[enum.LeadStatusOutreached] > 0 {
		conversionRate = math.Round(float64(counts[enum.LeadStatusReplied])/float64(counts[enum.LeadStatusOutreached])*10000) / 100
	}

	return &dto.DashboardMetrics{
		TotalLeads:     total,
		Outreached:     counts[enum.LeadStatusOutreached],
		Replied:        counts[enum.LeadStatusReplied],
		FollowUpDue:    counts[enum.LeadStatusFollowUpDue],
		OptedOut:       counts[enum.LeadStatusOptedOut],
		ConversionRate: conversionRate,
		TemplatesTotal: templatesTotal,
	}, nil
}

// checkCapacityOrHalt emits the warning alert on exhaustion; the caller stops
// the batch, it never skips one lead and continues.
func (o *orchestrator) checkCapacityOrHalt(ctx context.Context, span opentracing.Span) error {
	err := o.rateLimiter.CheckCapacity(ctx, o.cfg.SenderEmail)
	if err == nil {
		return nil
	}
	if errors.Is(err, outflowErrors.ErrCapacityExceeded) {
		o.log.Warnf("Mailbox %s reached its daily send limit, halting batch", o.cfg.SenderEmail)
		o.recordAlert(ctx, nil, enum.AlertSeverityWarning,
			"Daily send limit reached for mailbox "+o.cfg.SenderEmail)
		return err
	}
	tracing.TraceErr(span, err)
	return err
}

func (o *orchestrator) recordSend(ctx context.Context, span opentracing.Span, lead *models.Lead, templateID *string, emailType enum.EmailType, subject, body, externalID string) error {
	message := &models.OutboundMessage{
		LeadID:            lead.ID,
		TemplateID:        templateID,
		EmailType:         emailType,
		Subject:           subject,
		Body:              body,
		ExternalMessageID: externalID,
	}
	if err := o.messageRepo.Create(ctx, message); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	o.publishEvent(ctx, "email.sent", dto.EmailSentEvent{
		LeadID:            lead.ID,
		EmailType:         emailType.String(),
		Mailbox:           o.cfg.SenderEmail,
		ExternalMessageID: externalID,
		SentAt:            message.SentAt,
	})
	return nil
}

func (o *orchestrator) leadContext(lead *models.Lead) map[string]string {
	return map[string]string{
		"name":             lead.Name,
		"company":          lead.Company,
		"position":         lead.Position,
		"niche":            lead.Niche,
		"objective":        o.cfg.Objective,
		"sender_name":      o.cfg.SenderName,
		"unsubscribe_link": o.cfg.UnsubscribeBaseURL + "/" + lead.Email,
	}
}

func (o *orchestrator) recordAlert(ctx context.Context, leadID *string, severity enum.AlertSeverity, message string) {
	alert := &models.Alert{
		LeadID:   leadID,
		Severity: severity,
		Message:  message,
	}
	if err := o.alertRepo.Create(ctx, alert); err != nil {
		o.log.Errorf("Failed to record alert: %v", err)
	}
}

func (o *orchestrator) publishEvent(ctx context.Context, routingKey string, payload any) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, routingKey, payload); err != nil {
		o.log.Errorf("Failed to publish %s event: %v", routingKey, err)
	}
}
