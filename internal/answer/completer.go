package answer

import (
	"context"
	"fmt"
	"strings"
)

// Prompt is one single-turn completion request.
type Prompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Completer is the common interface for all language-model providers.
type Completer interface {
	// Complete returns the model's reply, possibly empty.
	Complete(ctx context.Context, p Prompt) (string, error)
	// Name returns the provider name
	Name() string
}

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ProviderConfig selects and configures a completion provider.
type ProviderConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// NewCompleter builds the completer for cfg.Provider.
func NewCompleter(ctx context.Context, cfg ProviderConfig) (Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGroq:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = GroqBaseURL
		}
		model := cfg.Model
		if model == "" {
			model = DefaultGroqModel
		}
		return NewOpenAICompleter(ProviderGroq, cfg.APIKey, baseURL, model), nil
	case ProviderOpenAI:
		return NewOpenAICompleter(ProviderOpenAI, cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case ProviderGemini:
		return NewGeminiCompleter(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model)
	}
	return nil, fmt.Errorf("unknown completion provider: %s", cfg.Provider)
}
