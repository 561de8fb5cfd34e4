package template

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/outflow/config"
	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/internal/enum"
	outflowErrors "github.com/customeros/outflow/internal/errors"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/utils"
)

func TestOrderForBatch_LeastUsedFirst(t *testing.T) {
	pool := []*models.EmailTemplate{
		{ID: "tmpl_a", UsageCount: 5, QualityScore: 90},
		{ID: "tmpl_b", UsageCount: 1, QualityScore: 70},
		{ID: "tmpl_c", UsageCount: 3, QualityScore: 80},
	}

	ordered := OrderForBatch(pool)

	require.Len(t, ordered, 3)
	assert.Equal(t, "tmpl_b", ordered[0].ID)
	assert.Equal(t, "tmpl_c", ordered[1].ID)
	assert.Equal(t, "tmpl_a", ordered[2].ID)
}

func TestOrderForBatch_QualityBreaksTies(t *testing.T) {
	pool := []*models.EmailTemplate{
		{ID: "tmpl_a", UsageCount: 2, QualityScore: 72},
		{ID: "tmpl_b", UsageCount: 2, QualityScore: 88},
	}

	ordered := OrderForBatch(pool)

	assert.Equal(t, "tmpl_b", ordered[0].ID)
}

func TestOrderForBatch_DoesNotMutateInput(t *testing.T) {
	pool := []*models.EmailTemplate{
		{ID: "tmpl_a", UsageCount: 5},
		{ID: "tmpl_b", UsageCount: 1},
	}

	_ = OrderForBatch(pool)

	assert.Equal(t, "tmpl_a", pool[0].ID)
}

type templateRepoFake struct {
	templates []*models.EmailTemplate
}

func (f *templateRepoFake) Create(ctx context.Context, tmpl *models.EmailTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = utils.GenerateNanoIDWithPrefix("tmpl", 16)
	}
	f.templates = append(f.templates, tmpl)
	return nil
}

func (f *templateRepoFake) GetByID(ctx context.Context, id string) (*models.EmailTemplate, error) {
	for _, tmpl := range f.templates {
		if tmpl.ID == id {
			return tmpl, nil
		}
	}
	return nil, nil
}

func (f *templateRepoFake) GetActiveByType(ctx context.Context, emailType enum.EmailType) ([]*models.EmailTemplate, error) {
	var out []*models.EmailTemplate
	for _, tmpl := range f.templates {
		if tmpl.IsActive && tmpl.EmailType == emailType {
			out = append(out, tmpl)
		}
	}
	return out, nil
}

func (f *templateRepoFake) IncrementUsage(ctx context.Context, id string) error {
	for _, tmpl := range f.templates {
		if tmpl.ID == id {
			tmpl.UsageCount++
		}
	}
	return nil
}

func (f *templateRepoFake) Deactivate(ctx context.Context, id string) error {
	for _, tmpl := range f.templates {
		if tmpl.ID == id {
			tmpl.IsActive = false
		}
	}
	return nil
}

func (f *templateRepoFake) List(ctx context.Context) ([]*models.EmailTemplate, error) {
	return f.templates, nil
}

func (f *templateRepoFake) CountAll(ctx context.Context) (int64, error) {
	return int64(len(f.templates)), nil
}

type seedGenerationStub struct {
	output string
	err    error
	calls  int
}

func (s *seedGenerationStub) OrderedTargets(ctx context.Context, critical bool) ([]config.ModelTarget, error) {
	return nil, nil
}

func (s *seedGenerationStub) Generate(ctx context.Context, request dto.GenerationRequest) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

func TestSeed_CreatesActiveVariants(t *testing.T) {
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()
	repo := &templateRepoFake{}
	gen := &seedGenerationStub{output: "Hi {{name}}, worth a 15-minute chat?\n\nUnsubscribe: {{unsubscribe_link}}"}

	seeder := NewSeeder(gen, repo, log)
	created, err := seeder.Seed(context.Background(), "pipeline growth", "fintech")

	require.NoError(t, err)
	assert.Equal(t, 3, created)
	require.Len(t, repo.templates, 3)
	for _, tmpl := range repo.templates {
		assert.True(t, tmpl.IsActive)
		assert.Equal(t, enum.EmailTypeOutreach, tmpl.EmailType)
		assert.Contains(t, tmpl.Placeholders, "name")
		assert.Greater(t, tmpl.QualityScore, 0.0)
	}
}

func TestSeed_AbortsWhenProvidersExhausted(t *testing.T) {
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()
	repo := &templateRepoFake{}
	gen := &seedGenerationStub{err: &outflowErrors.ProvidersExhaustedError{}}

	seeder := NewSeeder(gen, repo, log)
	created, err := seeder.Seed(context.Background(), "pipeline growth", "")

	require.Error(t, err)
	assert.True(t, outflowErrors.IsProvidersExhausted(err))
	assert.Equal(t, 0, created)
	assert.Empty(t, repo.templates)
}

func TestScoreQuality(t *testing.T) {
	assert.Equal(t, 72.0, ScoreQuality("plain body"))
	assert.Equal(t, 92.0, ScoreQuality("Hi {{name}}, quick 15-minute call? unsubscribe below"))
}

func TestEnsureUnsubscribeFooter(t *testing.T) {
	withFooter := ensureUnsubscribeFooter("body")
	assert.Contains(t, withFooter, "{{unsubscribe_link}}")

	already := "body with unsubscribe: {{unsubscribe_link}}"
	assert.Equal(t, already, ensureUnsubscribeFooter(already))
}
