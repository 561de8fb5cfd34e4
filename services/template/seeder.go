package template

import (
	"context"
	"fmt"
	"strings"

	"github.com/opentracing/opentracing-go"

	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/tracing"
)

const seedVariantCount = 3

var seedSubjects = []string{
	"Quick idea for {{company}}'s {{niche}} growth",
	"{{name}}, a low-lift way to improve {{objective}}",
	"Could this unlock 15% more pipeline at {{company}}?",
}

const unsubscribeFooter = "\n\n---\nIf you'd prefer not to receive future emails, unsubscribe: {{unsubscribe_link}}"

// Seeder creates a pool of active outreach template variants. Seeding is an
// explicit operation, never triggered implicitly by a batch run.
type Seeder struct {
	generation   interfaces.GenerationService
	templateRepo interfaces.EmailTemplateRepository
	log          logger.Logger
}

func NewSeeder(
	generation interfaces.GenerationService,
	templateRepo interfaces.EmailTemplateRepository,
	log logger.Logger,
) *Seeder {
	return &Seeder{
		generation:   generation,
		templateRepo: templateRepo,
		log:          log,
	}
}

// Seed persists one template per variant and returns how many were created.
func (s *Seeder) Seed(ctx context.Context, objective, niche string) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "templateSeeder.Seed")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	created := 0
	for idx := 0; idx < seedVariantCount; idx++ {
		subject := seedSubjects[idx%len(seedSubjects)]
		body, err := s.draftBody(ctx, objective, niche, idx)
		if err != nil {
			tracing.TraceErr(span, err)
			return created, err
		}
		body = ensureUnsubscribeFooter(body)

		tmpl := &models.EmailTemplate{
			Name:            fmt.Sprintf("Outreach Variant %d", idx+1),
			EmailType:       enum.EmailTypeOutreach,
			Objective:       objective,
			SubjectTemplate: subject,
			BodyTemplate:    body,
			Placeholders:    ExtractPlaceholders(subject + "\n" + body),
			QualityScore:    ScoreQuality(body),
			IsActive:        true,
		}
		if err := s.templateRepo.Create(ctx, tmpl); err != nil {
			tracing.TraceErr(span, err)
			return created, err
		}
		created++
	}
	return created, nil
}

// draftBody asks the router for template copy. Provider exhaustion aborts the
// variant; already-created variants stay committed.
func (s *Seeder) draftBody(ctx context.Context, objective, niche string, idx int) (string, error) {
	if niche == "" {
		niche = "general"
	}
	body, err := s.generation.Generate(ctx, dto.GenerationRequest{
		Instruction: "You generate compliant cold outreach email bodies with a concise value proposition, " +
			"personalization placeholders in {{name}}/{{company}}/{{niche}}/{{objective}}/{{sender_name}} form, a clear CTA and an opt-out footer.",
		Prompt:      fmt.Sprintf("Generate high-converting outreach email template #%d for objective=%s, niche=%s.", idx+1, objective, niche),
		Temperature: 0.8,
	})
	if err != nil {
		s.log.Warnf("Template generation failed for variant %d: %v", idx+1, err)
		return "", err
	}
	return body, nil
}

func ensureUnsubscribeFooter(body string) string {
	lowered := strings.ToLower(body)
	if strings.Contains(lowered, "unsubscribe") || strings.Contains(lowered, "opt-out") {
		return body
	}
	return body + unsubscribeFooter
}

// ScoreQuality is the heuristic conversion/compliance score assigned at
// creation time.
func ScoreQuality(body string) float64 {
	score := 72.0
	if strings.Contains(body, "15-minute") {
		score += 8
	}
	if strings.Contains(strings.ToLower(body), "unsubscribe") {
		score += 8
	}
	if strings.Contains(body, "{{name}}") {
		score += 4
	}
	if score > 99.0 {
		score = 99.0
	}
	return score
}
