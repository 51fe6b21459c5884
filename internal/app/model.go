package service

import (
	"context"
	"fmt"

	"github.com/okian/liftguard/internal/adapters/llm"
	"github.com/okian/liftguard/internal/domain/coaching"
)

// Model providers understood by NewModel.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// ModelConfig selects and addresses the coaching language model.
type ModelConfig struct {
	Provider     string
	OllamaURL    string
	OllamaModel  string
	GeminiAPIKey string
	GeminiModel  string
}

// NewModel builds the configured language model. Provider "none" (or empty)
// returns a nil model, which makes every coaching plan a fallback.
func NewModel(ctx context.Context, cfg ModelConfig) (coaching.Model, error) {
	switch cfg.Provider {
	case ProviderNone, "":
		return nil, nil
	case ProviderOllama:
		return llm.NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel), nil
	case ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("gemini model: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
