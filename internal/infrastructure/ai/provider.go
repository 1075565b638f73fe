// Package ai adapts generative model providers to the small surface the
// application needs: text generation, embeddings and product classification.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oksasatya/greenloop/config"
)

// ErrNoProvider is returned when no API key is configured for the selected provider.
var ErrNoProvider = errors.New("ai provider not configured")

// Prompt is a single-turn request.
type Prompt struct {
	System string
	User   string
	JSON   bool // ask for a bare JSON object
}

// Generator produces one text reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Provider is a model backend offering both capabilities.
type Provider interface {
	Generator
	Embedder
}

// NewProvider builds the provider selected by AI_PROVIDER.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch strings.ToLower(cfg.AIProvider) {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is empty", ErrNoProvider)
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIChatModel, cfg.OpenAIEmbedModel), nil
	case "gemini", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is empty", ErrNoProvider)
		}
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiChatModel, cfg.GeminiEmbedModel)
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AIProvider)
	}
}
