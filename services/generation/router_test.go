package generation

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/outflow/config"
	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/internal/enum"
	outflowErrors "github.com/customeros/outflow/internal/errors"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/models"
)

type usageRepoStub struct {
	usage    map[string]*models.ModelUsage
	recorded []string
	tokens   []int
}

func (s *usageRepoStub) GetUsageForDay(ctx context.Context, day string) (map[string]*models.ModelUsage, error) {
	return s.usage, nil
}

func (s *usageRepoStub) RecordRequest(ctx context.Context, provider, model, day string, tokensEstimate int) error {
	s.recorded = append(s.recorded, provider+":"+model)
	s.tokens = append(s.tokens, tokensEstimate)
	return nil
}

type providerStub struct {
	failing map[string]bool
	calls   []string
	output  string
}

func (p *providerStub) Call(ctx context.Context, target config.ModelTarget, request dto.GenerationRequest) (string, error) {
	p.calls = append(p.calls, target.Key())
	if p.failing[target.Key()] {
		return "", errors.New("upstream unavailable")
	}
	return p.output, nil
}

func target(model string, tier enum.ModelTier, priority, quota int) config.ModelTarget {
	return config.ModelTarget{
		Provider:   "gemini",
		Model:      model,
		Priority:   priority,
		Tier:       tier,
		DailyQuota: quota,
	}
}

func newTestLogger() logger.Logger {
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()
	return log
}

func newRouter(targets []config.ModelTarget, reserve int, provider *providerStub, usage *usageRepoStub) *generationService {
	return NewGenerationService(
		&config.ModelsConfig{Targets: targets, PremiumReserve: reserve},
		provider,
		usage,
		newTestLogger(),
	).(*generationService)
}

func TestOrderTargets_NonCriticalPutsStandardFirst(t *testing.T) {
	targets := []config.ModelTarget{
		target("pro", enum.ModelTierPremium, 1, 500),
		target("flash", enum.ModelTierStandard, 2, 400),
	}

	ordered := orderTargets(targets, map[string]*models.ModelUsage{}, 60, false)

	require.Len(t, ordered, 2)
	assert.Equal(t, "flash", ordered[0].Model)
	assert.Equal(t, "pro", ordered[1].Model)
}

func TestOrderTargets_CriticalPutsPremiumFirst(t *testing.T) {
	targets := []config.ModelTarget{
		target("flash", enum.ModelTierStandard, 1, 400),
		target("pro", enum.ModelTierPremium, 2, 500),
	}

	ordered := orderTargets(targets, map[string]*models.ModelUsage{}, 60, true)

	require.Len(t, ordered, 2)
	assert.Equal(t, "pro", ordered[0].Model)
}

func TestOrderTargets_NonCriticalSkipsPremiumInsideReserve(t *testing.T) {
	targets := []config.ModelTarget{
		target("pro", enum.ModelTierPremium, 1, 100),
		target("flash", enum.ModelTierStandard, 2, 400),
	}
	usage := map[string]*models.ModelUsage{
		"gemini:pro": {RequestsMade: 45},
	}

	// remaining 55 <= reserve 60, standard work must not touch it
	ordered := orderTargets(targets, usage, 60, false)

	require.Len(t, ordered, 1)
	assert.Equal(t, "flash", ordered[0].Model)
}

func TestOrderTargets_CriticalIgnoresReserve(t *testing.T) {
	targets := []config.ModelTarget{
		target("pro", enum.ModelTierPremium, 1, 100),
	}
	usage := map[string]*models.ModelUsage{
		"gemini:pro": {RequestsMade: 99},
	}

	ordered := orderTargets(targets, usage, 60, true)

	require.Len(t, ordered, 1)
	assert.Equal(t, "pro", ordered[0].Model)
}

func TestGenerate_FailsOverToNextTarget(t *testing.T) {
	targets := []config.ModelTarget{
		target("flash", enum.ModelTierStandard, 1, 400),
		target("flash-lite", enum.ModelTierStandard, 2, 400),
	}
	provider := &providerStub{
		failing: map[string]bool{"gemini:flash": true},
		output:  "Hi there, quick question about your team.",
	}
	usage := &usageRepoStub{usage: map[string]*models.ModelUsage{}}

	svc := newRouter(targets, 60, provider, usage)

	out, err := svc.Generate(context.Background(), dto.GenerationRequest{Prompt: "write an opener"})

	require.NoError(t, err)
	assert.Equal(t, provider.output, out)
	assert.Equal(t, []string{"gemini:flash", "gemini:flash-lite"}, provider.calls)
	// usage is recorded only for the target that answered
	assert.Equal(t, []string{"gemini:flash-lite"}, usage.recorded)
}

func TestGenerate_AllTargetsFailing(t *testing.T) {
	targets := []config.ModelTarget{
		target("flash", enum.ModelTierStandard, 1, 400),
	}
	provider := &providerStub{failing: map[string]bool{"gemini:flash": true}}
	usage := &usageRepoStub{usage: map[string]*models.ModelUsage{}}

	svc := newRouter(targets, 60, provider, usage)

	_, err := svc.Generate(context.Background(), dto.GenerationRequest{Prompt: "write an opener"})

	require.Error(t, err)
	assert.True(t, outflowErrors.IsProvidersExhausted(err))
	assert.Empty(t, usage.recorded)
}

func TestGenerate_RecordsTokenEstimate(t *testing.T) {
	targets := []config.ModelTarget{
		target("flash", enum.ModelTierStandard, 1, 400),
	}
	provider := &providerStub{output: "0123456789abcdef"}
	usage := &usageRepoStub{usage: map[string]*models.ModelUsage{}}

	svc := newRouter(targets, 60, provider, usage)

	_, err := svc.Generate(context.Background(), dto.GenerationRequest{Instruction: "be brief", Prompt: "hello"})

	require.NoError(t, err)
	require.Len(t, usage.tokens, 1)
	assert.Equal(t, (len("be brief")+len("hello")+len(provider.output))/4, usage.tokens[0])
}
