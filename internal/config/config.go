// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/manash/retouch/pkg/models"
)

var (
	ErrInvalidProvider = errors.New("invalid provider")
	ErrInvalidTimeout  = errors.New("timeout must be positive")
)

// Config holds every environment-driven setting. Command-line flags
// override individual fields after Load.
type Config struct {
	Provider      string        `env:"RETOUCH_PROVIDER"        envDefault:"gemini"`
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	GeminiBaseURL string        `env:"RETOUCH_GEMINI_BASE_URL"`
	OpenAIBaseURL string        `env:"RETOUCH_OPENAI_BASE_URL"`
	DataDir       string        `env:"RETOUCH_DATA_DIR"`
	OutputDir     string        `env:"RETOUCH_OUTPUT_DIR"      envDefault:"."`
	CatalogFile   string        `env:"RETOUCH_CATALOG"`
	LogLevel      string        `env:"RETOUCH_LOG_LEVEL"       envDefault:"warn"`
	LogFile       string        `env:"RETOUCH_LOG_FILE"`
	Timeout       time.Duration `env:"RETOUCH_TIMEOUT"         envDefault:"120s"`
	OTelEndpoint  string        `env:"RETOUCH_OTEL_ENDPOINT"`
	NoJournal     bool          `env:"RETOUCH_NO_JOURNAL"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment, fills derived defaults and validates.
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".retouch"), nil
}

func (c *Config) Validate() error {
	if !c.ProviderType().IsValid() {
		return fmt.Errorf("%w: %q (valid: %v)", ErrInvalidProvider, c.Provider, models.ValidProviders())
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

func (c *Config) ProviderType() models.ProviderType {
	return models.ProviderType(strings.ToLower(strings.TrimSpace(c.Provider)))
}

// APIKeys returns the environment keys by provider, for keys.NewResolver.
func (c *Config) APIKeys() map[models.ProviderType]string {
	return map[models.ProviderType]string{
		models.ProviderGemini: c.GeminiAPIKey,
		models.ProviderOpenAI: c.OpenAIAPIKey,
	}
}

func (c *Config) BaseURL(p models.ProviderType) string {
	switch p {
	case models.ProviderGemini:
		return c.GeminiBaseURL
	case models.ProviderOpenAI:
		return c.OpenAIBaseURL
	default:
		return ""
	}
}
