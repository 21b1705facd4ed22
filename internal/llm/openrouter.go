package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/roundtable-dev/roundtable/internal/errors"
)

const (
	defaultOpenRouterURL   = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel = "meta-llama/llama-3.1-8b-instruct"
)

// OpenRouterClient calls an OpenAI-compatible chat completions endpoint.
// It shares the retry policy of the Ollama client.
type OpenRouterClient struct {
	model      string
	apiURL     string
	apiKey     string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
}

// NewOpenRouterClient creates an OpenRouter client from config, filling in
// defaults for unset fields.
func NewOpenRouterClient(cfg Config) *OpenRouterClient {
	model := cfg.Model
	if model == "" {
		model = defaultOpenRouterModel
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultOpenRouterURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	return &OpenRouterClient{
		model:      model,
		apiURL:     apiURL,
		apiKey:     cfg.APIKey,
		maxRetries: maxRetries,
		retryDelay: defaultRetryDelay,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the backend for logging.
func (c *OpenRouterClient) Name() string { return BackendOpenRouter }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate produces a completion, retrying transient failures with
// exponential backoff.
func (c *OpenRouterClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if c.apiKey == "" {
		return "", errors.NewGenerationError("missing API key", errors.ErrInvalidInput)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.retryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", errors.NewGenerationError("canceled during backoff", errors.ErrCanceled)
			}
		}

		text, err := c.generateOnce(ctx, prompt, opts)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !errors.IsRetryable(err) {
			break
		}
	}
	return "", lastErr
}

func (c *OpenRouterClient) generateOnce(ctx context.Context, prompt string, opts Options) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.Stop,
	})
	if err != nil {
		return "", errors.NewGenerationError("failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.NewGenerationError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", errors.NewGenerationError(
			fmt.Sprintf("server returned status %d", resp.StatusCode), errors.ErrConnection)
	default:
		return "", errors.NewGenerationError(
			fmt.Sprintf("server returned status %d", resp.StatusCode), errors.ErrMalformedResponse)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewGenerationError("failed to read response body", errors.ErrConnection)
	}

	var decoded chatResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", errors.NewGenerationError("failed to decode response", errors.ErrMalformedResponse)
	}
	if decoded.Error != nil {
		return "", errors.NewGenerationError(decoded.Error.Message, errors.ErrMalformedResponse)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.NewGenerationError("no choices in response", errors.ErrMalformedResponse)
	}

	text := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if text == "" {
		return "", errors.NewGenerationError("empty completion", errors.ErrMalformedResponse)
	}
	return text, nil
}
