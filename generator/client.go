package generator

import (
	"context"
	"fmt"
	"strings"
)

// LLMSettings selects and configures the completion backend.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewClientFromConfig builds the configured client. A missing API key is not an
// error: it returns a nil client and generation serves demo itineraries.
func NewClientFromConfig(ctx context.Context, cfg LLMSettings) (CompletionClient, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewOpenAILLM(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "gemini":
		return NewGeminiLLM(ctx, cfg.APIKey, cfg.Model)
	case "mock":
		return MockLLM{}, nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}
