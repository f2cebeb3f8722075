package ai

import (
	"context"
	"time"
)

// Runtime is a minimal interface implemented by chat backends such as the
// OpenAI-compatible client and a local Ollama runtime.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// Config selects and tunes the summarization backend. It is built once at
// startup and passed explicitly.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float64
	BaseURL     string
	OllamaHost  string
	// HTTPTimeout of zero keeps the transport default.
	HTTPTimeout time.Duration
}

// NewRuntime builds the Runtime for cfg.Provider. A missing API key is not an
// error here; it surfaces on the first Generate call.
func NewRuntime(cfg Config) (Runtime, error) {
	p, err := ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	rt, _ := GetRuntime(p, RuntimeConfig{
		HTTPTimeout: cfg.HTTPTimeout,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Host:        cfg.OllamaHost,
	})
	return rt, nil
}
