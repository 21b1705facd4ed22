// Package llm provides clients for the text generation backends that drive
// discussion turns. The orchestrator only depends on the Client interface;
// retry and backoff policy lives inside each client, and a returned error is
// final for that call.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Options bounds a single generation call.
type Options struct {
	// MaxTokens limits the response length. Zero means the client default.
	MaxTokens int
	// Temperature controls sampling randomness.
	Temperature float64
	// Stop lists sequences that terminate generation early.
	Stop []string
}

// Client generates text for discussion turns. Implementations handle their
// own retries; callers treat any returned error as final.
type Client interface {
	// Generate produces a completion for the prompt. The context bounds the
	// whole call including internal retries.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)

	// Name identifies the backend for logging.
	Name() string
}

// Backend names accepted by New.
const (
	BackendMock       = "mock"
	BackendOllama     = "ollama"
	BackendOpenRouter = "openrouter"
)

// Config selects and tunes a generation backend.
type Config struct {
	Backend     string
	Model       string
	APIURL      string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

// New builds a Client from configuration.
func New(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendMock, "":
		return NewMockClient(), nil
	case BackendOllama:
		return NewOllamaClient(cfg), nil
	case BackendOpenRouter:
		return NewOpenRouterClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm backend: %s", cfg.Backend)
	}
}
