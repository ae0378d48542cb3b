// Package config loads agent settings from defaults, an optional YAML file,
// and environment variables, in that order of increasing precedence. A .env
// file in the working directory is loaded into the environment first.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/SamanBarahoie/AutoDocGPT/llmclient"
)

// Config holds everything the CLI needs to build a client and an agent.
type Config struct {
	APIKey  string `yaml:"api_key" env:"OPENROUTER_API_KEY"`
	APIBase string `yaml:"api_base" env:"OPENROUTER_API_BASE"`

	Provider      string  `yaml:"provider" env:"AUTODOC_PROVIDER"`
	Model         string  `yaml:"model" env:"AUTODOC_MODEL"`
	MaxIterations int     `yaml:"max_iterations" env:"AUTODOC_MAX_ITERATIONS"`
	MaxRetries    int     `yaml:"max_retries" env:"AUTODOC_MAX_RETRIES"`
	MaxTokens     int     `yaml:"max_tokens" env:"AUTODOC_MAX_TOKENS"`
	Temperature   float64 `yaml:"temperature" env:"AUTODOC_TEMPERATURE"`
	LogLevel      string  `yaml:"log_level" env:"AUTODOC_LOG_LEVEL"`
}

// defaults returns the baseline configuration before any file or env overlay.
func defaults() Config {
	return Config{
		APIBase:       llmclient.DefaultBaseURL,
		Provider:      "openrouter",
		Model:         "openai/gpt-4o-mini",
		MaxIterations: 20,
		MaxRetries:    3,
		Temperature:   0.7,
		LogLevel:      "info",
	}
}

// Load builds the configuration. settingsPath names an optional YAML file;
// empty means no file. Environment variables win over the file, which wins
// over defaults. A missing API key is a hard error.
func Load(settingsPath string) (*Config, error) {
	// Populate the environment from a local .env, if one exists.
	_ = godotenv.Load()

	cfg := defaults()

	if settingsPath != "" {
		data, err := os.ReadFile(settingsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", settingsPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse settings file %s: %w", settingsPath, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for startup-time errors.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return &llmclient.ConfigurationError{ClientError: llmclient.ClientError{
			Message: "OPENROUTER_API_KEY is not set; export it or add api_key to the settings file",
		}}
	}
	if c.MaxIterations <= 0 {
		return &llmclient.ConfigurationError{ClientError: llmclient.ClientError{
			Message: fmt.Sprintf("max_iterations must be positive, got %d", c.MaxIterations),
		}}
	}
	if c.MaxRetries < 0 {
		return &llmclient.ConfigurationError{ClientError: llmclient.ClientError{
			Message: fmt.Sprintf("max_retries must not be negative, got %d", c.MaxRetries),
		}}
	}
	return nil
}
