package application

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	settlement "rentroll-cloud/internal/settlement/domain"
)

// Config defines the settlement engine policy knobs.
type Config struct {
	CleanupAmount      float64 `yaml:"cleanup_amount"`
	DefaultUtilityCost float64 `yaml:"default_utility_cost"`
	WebhookURL         string  `yaml:"webhook_url"`
}

// LoadConfig loads policy from yaml or env. Env values seed the defaults and
// the yaml file, when present, overrides them.
func LoadConfig() (Config, error) {
	cfg := Config{
		CleanupAmount:      getenvFloatDefault("SETTLEMENT_CLEANUP_AMOUNT", 100000),
		DefaultUtilityCost: getenvFloatDefault("SETTLEMENT_DEFAULT_UTILITY_COST", 0),
		WebhookURL:         os.Getenv("SETTLEMENT_WEBHOOK_URL"),
	}

	if path := os.Getenv("SETTLEMENT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.CleanupAmount < 0 {
		cfg.CleanupAmount = 0
	}
	return cfg, nil
}

// Policy converts the config into the fee policy consumed by the calculators.
func (c Config) Policy() settlement.FeePolicy {
	return settlement.FeePolicy{CleanupAmount: c.CleanupAmount}
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
