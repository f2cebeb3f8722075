package ai

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(RuntimeConfig) Runtime

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	// HTTPTimeout of zero keeps the transport default.
	HTTPTimeout time.Duration
	// Hosted providers
	APIKey  string
	BaseURL string
	// Ollama
	Host string
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[name] = f }

// GetRuntime creates a Runtime for the given provider if registered.
func GetRuntime(name string, cfg RuntimeConfig) (Runtime, bool) {
	if f, ok := registry[NormalizeProvider(name)]; ok {
		return f(cfg), true
	}
	return nil, false
}

// Providers lists registered provider names.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NormalizeProvider folds accepted spellings onto a provider identifier.
func NormalizeProvider(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "openai":
		return ProviderOpenAI
	case "openrouter":
		return ProviderOpenRouter
	case "ollama", "local":
		return ProviderOllama
	default:
		return strings.ToLower(strings.TrimSpace(name))
	}
}

// ParseProvider validates a provider name.
func ParseProvider(name string) (string, error) {
	p := NormalizeProvider(name)
	if _, ok := registry[p]; !ok {
		return "", fmt.Errorf("invalid provider: %s (use %s)", name, strings.Join(Providers(), ", "))
	}
	return p, nil
}

// init registers built-in runtimes.
func init() {
	RegisterRuntime(ProviderOpenAI, func(c RuntimeConfig) Runtime {
		base := c.BaseURL
		if base == "" {
			base = OpenAIBaseURL
		}
		return NewClientWithBaseURL(c.APIKey, c.HTTPTimeout, base)
	})
	RegisterRuntime(ProviderOpenRouter, func(c RuntimeConfig) Runtime {
		base := c.BaseURL
		if base == "" {
			base = OpenRouterBaseURL
		}
		return NewClientWithBaseURL(c.APIKey, c.HTTPTimeout, base)
	})
	RegisterRuntime(ProviderOllama, func(c RuntimeConfig) Runtime {
		return NewOllamaClient(c.Host, c.HTTPTimeout)
	})
}
