// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - Failures wrap this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Model providers.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// StoreDriver selects the assessment log backend: sqlite, memory or postgres.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// PostgresDSN is the connection string used by the postgres driver.
	PostgresDSN string `koanf:"postgres_dsn"`

	// ModelProvider selects the coaching language model: ollama, gemini or none.
	ModelProvider string `koanf:"model_provider"`

	// OllamaURL and OllamaModel address a local Ollama server.
	OllamaURL   string `koanf:"ollama_url"`
	OllamaModel string `koanf:"ollama_model"`

	// GeminiAPIKey and GeminiModel configure the Gemini API.
	GeminiAPIKey string `koanf:"gemini_api_key"`
	GeminiModel  string `koanf:"gemini_model"`

	// CoachTimeoutMS bounds a single language-model attempt.
	CoachTimeoutMS int `koanf:"coach_timeout_ms"`

	// MaxLimit caps the dashboard limit parameters.
	MaxLimit int `koanf:"max_limit"`

	// MaxWindowDays caps the dashboard days parameters.
	MaxWindowDays int `koanf:"max_window_days"`

	// CORSOrigins is a comma-separated list of browser origins allowed to call the API.
	CORSOrigins string `koanf:"cors_origins"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":8000",
		StoreDriver:    StoreSQLite,
		SQLitePath:     "assessments.db",
		ModelProvider:  ProviderOllama,
		OllamaURL:      "http://localhost:11434",
		OllamaModel:    "llama3.1",
		GeminiModel:    "gemini-2.0-flash",
		CoachTimeoutMS: 15_000,
		MaxLimit:       100,
		MaxWindowDays:  365,
		CORSOrigins:    "http://localhost:5173,http://127.0.0.1:5173",
	}
}

// CoachTimeout returns CoachTimeoutMS as a duration.
func (c *Config) CoachTimeout() time.Duration {
	return time.Duration(c.CoachTimeoutMS) * time.Millisecond
}

// Origins splits CORSOrigins, dropping blanks.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate(_ context.Context) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.CoachTimeoutMS <= 0:
		return invalid("coach_timeout_ms must be positive, got %d", c.CoachTimeoutMS)
	case c.MaxLimit <= 0:
		return invalid("max_limit must be positive, got %d", c.MaxLimit)
	case c.MaxWindowDays <= 0:
		return invalid("max_window_days must be positive, got %d", c.MaxWindowDays)
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return invalid("sqlite_path must not be empty")
		}
	case StorePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return invalid("postgres_dsn is required for the postgres driver")
		}
	default:
		return invalid("unknown store_driver %q", c.StoreDriver)
	}

	switch c.ModelProvider {
	case ProviderNone:
	case ProviderOllama:
		if strings.TrimSpace(c.OllamaURL) == "" {
			return invalid("ollama_url must not be empty")
		}
	case ProviderGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return invalid("gemini_api_key is required for the gemini provider")
		}
	default:
		return invalid("unknown model_provider %q", c.ModelProvider)
	}
	return nil
}
