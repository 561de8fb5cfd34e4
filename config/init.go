package config

import (
	"encoding/json"
	"log"
	"sort"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/tracing"
)

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
		DatabaseConfig: &DatabaseConfig{},
		CampaignConfig: &CampaignConfig{},
		ModelsConfig:   &ModelsConfig{},
		SMTPConfig:     &SMTPConfig{},
		IMAPConfig:     &IMAPConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading outflow config: %v", err)
	}

	if err := config.ModelsConfig.parseTargets(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *ModelsConfig) parseTargets() error {
	var targets []ModelTarget
	if err := json.Unmarshal([]byte(c.TargetsRaw), &targets); err != nil {
		return errors.Wrap(err, "failed to parse MODEL_TARGETS")
	}
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].Priority < targets[j].Priority
	})
	c.Targets = targets
	return nil
}

// Validate enforces the consistency rules the environment alone cannot:
// the mailbox limit must be positive and the premium reserve must be
// satisfiable by every premium target's daily quota.
func (c *Config) Validate() error {
	if c.CampaignConfig.DailySendLimit < 1 {
		return errors.New("DAILY_SEND_LIMIT_PER_MAILBOX must be at least 1")
	}
	if c.ModelsConfig.PremiumReserve < 0 {
		return errors.New("PREMIUM_RESERVE_REQUESTS must not be negative")
	}
	if len(c.ModelsConfig.Targets) == 0 {
		return errors.New("MODEL_TARGETS must define at least one target")
	}
	for _, target := range c.ModelsConfig.Targets {
		if target.Provider == "" || target.Model == "" {
			return errors.Errorf("model target %q is missing provider or model", target.Key())
		}
		if target.DailyQuota < 1 {
			return errors.Errorf("model target %s must have a positive daily quota", target.Key())
		}
		if target.Tier == enum.ModelTierPremium && target.DailyQuota <= c.ModelsConfig.PremiumReserve {
			return errors.Errorf(
				"premium target %s daily quota %d does not exceed the premium reserve %d",
				target.Key(), target.DailyQuota, c.ModelsConfig.PremiumReserve,
			)
		}
	}
	return nil
}
