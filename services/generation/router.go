package generation

import (
	"context"

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
)

// generationService rotates configured targets with automatic failover while
// protecting a reserve of premium-tier capacity for critical (reply) traffic.
type generationService struct {
	targets   []config.ModelTarget
	reserve   int
	provider  interfaces.GenerationProvider
	usageRepo interfaces.ModelUsageRepository
	log       logger.Logger
}

func NewGenerationService(
	cfg *config.ModelsConfig,
	provider interfaces.GenerationProvider,
	usageRepo interfaces.ModelUsageRepository,
	log logger.Logger,
) interfaces.GenerationService {
	return &generationService{
		targets:   cfg.Targets,
		reserve:   cfg.PremiumReserve,
		provider:  provider,
		usageRepo: usageRepo,
		log:       log,
	}
}

func (s *generationService) OrderedTargets(ctx context.Context, critical bool) ([]config.ModelTarget, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "generationService.OrderedTargets")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	usage, err := s.usageRepo.GetUsageForDay(ctx, utils.DayKey(utils.Now()))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return orderTargets(s.targets, usage, s.reserve, critical), nil
}

// orderTargets is pure: candidate order depends only on configuration, the
// usage snapshot and the critical flag. Targets arrive sorted by priority.
func orderTargets(targets []config.ModelTarget, usage map[string]*models.ModelUsage, reserve int, critical bool) []config.ModelTarget {
	standard := make([]config.ModelTarget, 0, len(targets))
	premium := make([]config.ModelTarget, 0, len(targets))

	for _, target := range targets {
		if target.Tier != enum.ModelTierPremium {
			standard = append(standard, target)
			continue
		}
		if !critical && remainingQuota(target, usage) <= reserve {
			// remaining premium capacity is reserved for reply traffic
			continue
		}
		premium = append(premium, target)
	}

	if critical {
		return append(premium, standard...)
	}
	return append(standard, premium...)
}

func remainingQuota(target config.ModelTarget, usage map[string]*models.ModelUsage) int {
	if row, ok := usage[target.Key()]; ok {
		return target.DailyQuota - row.RequestsMade
	}
	return target.DailyQuota
}

func (s *generationService) Generate(ctx context.Context, request dto.GenerationRequest) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "generationService.Generate")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("critical", request.Critical)

	candidates, err := s.OrderedTargets(ctx, request.Critical)
	if err != nil {
		return "", err
	}

	var lastErr error
	for _, target := range candidates {
		output, err := s.provider.Call(ctx, target, request)
		if err != nil {
			lastErr = err
			s.log.Warnf("Generation target %s failed: %v", target.Key(), err)
			continue
		}

		day := utils.DayKey(utils.Now())
		if err := s.usageRepo.RecordRequest(ctx, target.Provider, target.Model, day, estimateTokens(request, output)); err != nil {
			// the generated text is already in hand; a counter failure is
			// logged, not propagated
			tracing.TraceErr(span, err)
			s.log.Errorf("Failed to record usage for %s: %v", target.Key(), err)
		}
		// the payload is opaque to the router; no parsing, no validation
		return output, nil
	}

	exhausted := &outflowErrors.ProvidersExhaustedError{LastErr: lastErr}
	tracing.TraceErr(span, exhausted)
	return "", exhausted
}

// estimateTokens is the rough 4-chars-per-token heuristic used for quota
// accounting only.
func estimateTokens(request dto.GenerationRequest, output string) int {
	return (len(request.Instruction) + len(request.Prompt) + len(output)) / 4
}
