package replies

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"

	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/enum"
	outflowErrors "github.com/customeros/outflow/internal/errors"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/tracing"
)

type responderService struct {
	generation interfaces.GenerationService
	alertRepo  interfaces.AlertRepository
	objective  string
	log        logger.Logger
}

func NewResponder(
	generation interfaces.GenerationService,
	alertRepo interfaces.AlertRepository,
	objective string,
	log logger.Logger,
) interfaces.ReplyResponder {
	return &responderService{
		generation: generation,
		alertRepo:  alertRepo,
		objective:  objective,
		log:        log,
	}
}

func (s *responderService) Respond(ctx context.Context, lead *models.Lead, replyText, priorOutreachText string) (*dto.ReplySuggestion, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "responderService.Respond")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagLead(span, lead.ID)

	sentiment := Classify(replyText)
	span.SetTag("sentiment", sentiment.String())

	suggestion := &dto.ReplySuggestion{
		LeadID:    lead.ID,
		Sentiment: sentiment,
		Subject:   cannedSubject(sentiment),
	}

	// replies ride on the premium reserve
	body, err := s.generation.Generate(ctx, dto.GenerationRequest{
		Instruction: "Draft a concise, professional sales reply based on lead sentiment and prior context. Plain text, no markdown, no placeholders.",
		Prompt:      s.draftPrompt(lead, sentiment, replyText, priorOutreachText),
		Temperature: 0.4,
		Critical:    true,
	})
	if err != nil {
		tracing.TraceErr(span, err)
		if outflowErrors.IsProvidersExhausted(err) {
			// exhaustion is fatal to the draft; the alert is the durable
			// record, the typed error aborts the ingestion
			s.log.Warnf("All generation targets failed drafting reply for lead %s", lead.ID)
			s.recordExhaustionAlert(ctx, lead.ID)
		}
		return nil, err
	}

	suggestion.Body = body
	return suggestion, nil
}

func (s *responderService) draftPrompt(lead *models.Lead, sentiment enum.Sentiment, replyText, priorOutreachText string) string {
	return fmt.Sprintf(
		"Lead: %s (%s at %s). Sentiment: %s. Objective: %s.\nTheir reply:\n%s\n\nOur original email:\n%s",
		lead.Name, lead.Position, lead.Company, sentiment, s.objective,
		truncate(replyText, 1500), truncate(priorOutreachText, 1200),
	)
}

func (s *responderService) recordExhaustionAlert(ctx context.Context, leadID string) {
	alert := &models.Alert{
		LeadID:   &leadID,
		Severity: enum.AlertSeverityError,
		Message:  "All generation providers failed while drafting a reply suggestion",
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		s.log.Errorf("Failed to record provider exhaustion alert: %v", err)
	}
}

func cannedSubject(sentiment enum.Sentiment) string {
	switch sentiment {
	case enum.SentimentPositive:
		return "Great to connect - quick scheduling options"
	case enum.SentimentNegative:
		return "Acknowledged - we'll close this loop"
	default:
		return "Re: quick follow-up"
	}
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
