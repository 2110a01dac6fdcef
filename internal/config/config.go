// Package config loads bootstrap settings from the environment. Everything
// here only seeds first-run state; credential profiles managed in the store
// take over afterwards.
package config

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v9"

	"ember/internal/models"
)

type Config struct {
	BaseURL         string `env:"EMBER_BASE_URL" envDefault:"https://api.openai.com/v1"`
	APIKey          string `env:"EMBER_API_KEY"`
	Model           string `env:"EMBER_MODEL" envDefault:"gpt-5"`
	ReasoningEffort string `env:"EMBER_REASONING_EFFORT" envDefault:"high"`
	WebSearch       bool   `env:"EMBER_WEB_SEARCH" envDefault:"true"`
	DataDir         string `env:"EMBER_DATA_DIR"`
	Debug           bool   `env:"EMBER_DEBUG"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	return cfg, nil
}

// DefaultProfile derives the seed credential profile from the environment.
func (c Config) DefaultProfile() models.Profile {
	return models.Profile{
		ID:      "default",
		Name:    "Default",
		BaseURL: c.BaseURL,
		APIKey:  c.APIKey,
		Default: true,
	}
}

func defaultDataDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			return "ember-data"
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "ember")
}
