package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/outflow/internal/enum"
)

func validConfig() *Config {
	return &Config{
		CampaignConfig: &CampaignConfig{DailySendLimit: 80},
		ModelsConfig: &ModelsConfig{
			PremiumReserve: 60,
			Targets: []ModelTarget{
				{Provider: "gemini", Model: "gemini-2.5-flash", Priority: 1, Tier: enum.ModelTierPremium, DailyQuota: 250},
				{Provider: "gemini", Model: "gemini-2.5-flash-lite", Priority: 2, Tier: enum.ModelTierStandard, DailyQuota: 400},
			},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_RejectsZeroSendLimit(t *testing.T) {
	cfg := validConfig()
	cfg.CampaignConfig.DailySendLimit = 0

	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsReserveSwallowingPremiumQuota(t *testing.T) {
	cfg := validConfig()
	cfg.ModelsConfig.PremiumReserve = 250

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "premium reserve")
}

func TestValidate_RejectsEmptyTargets(t *testing.T) {
	cfg := validConfig()
	cfg.ModelsConfig.Targets = nil

	assert.Error(t, cfg.Validate())
}

func TestParseTargets_SortsByPriority(t *testing.T) {
	mc := &ModelsConfig{
		TargetsRaw: `[{"provider":"gemini","model":"b","priority":2,"tier":"standard","daily_quota":400},` +
			`{"provider":"gemini","model":"a","priority":1,"tier":"premium","daily_quota":250}]`,
	}

	require.NoError(t, mc.parseTargets())
	require.Len(t, mc.Targets, 2)
	assert.Equal(t, "a", mc.Targets[0].Model)
	assert.Equal(t, "b", mc.Targets[1].Model)
}

func TestParseTargets_RejectsMalformedJSON(t *testing.T) {
	mc := &ModelsConfig{TargetsRaw: "not-json"}

	assert.Error(t, mc.parseTargets())
}
