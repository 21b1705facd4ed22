package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/roundtable-dev/roundtable/internal/errors"
)

// Defaults for the Ollama backend.
const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.1:8b"
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 3
	defaultRetryDelay  = time.Second
)

// OllamaClient calls a local Ollama server's generate endpoint. Transient
// failures (timeouts, connection errors, 429s, 5xx) are retried with
// exponential backoff up to the configured attempt budget.
type OllamaClient struct {
	model      string
	apiURL     string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
}

// NewOllamaClient creates an Ollama client from config, filling in defaults
// for unset fields.
func NewOllamaClient(cfg Config) *OllamaClient {
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultOllamaURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	return &OllamaClient{
		model:      model,
		apiURL:     apiURL,
		maxRetries: maxRetries,
		retryDelay: defaultRetryDelay,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the backend for logging.
func (c *OllamaClient) Name() string { return BackendOllama }

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	Stop        []string `json:"stop,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate produces a completion, retrying transient failures with
// exponential backoff. The context bounds all attempts.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
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

func (c *OllamaClient) generateOnce(ctx context.Context, prompt string, opts Options) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
			TopP:        0.9,
			Stop:        opts.Stop,
		},
	})
	if err != nil {
		return "", errors.NewGenerationError("failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", errors.NewGenerationError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
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

	var decoded ollamaResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", errors.NewGenerationError("failed to decode response", errors.ErrMalformedResponse)
	}
	if decoded.Response == "" {
		return "", errors.NewGenerationError("empty completion", errors.ErrMalformedResponse)
	}

	return decoded.Response, nil
}

// classifyTransportError maps HTTP transport failures onto the package's
// sentinel taxonomy so callers can distinguish timeouts from dead backends.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewGenerationError("request timed out", errors.ErrTimeout)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.NewGenerationError("request timed out", errors.ErrTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return errors.NewGenerationError("request canceled", errors.ErrCanceled)
	}
	return errors.NewGenerationError("request failed", errors.ErrConnection)
}
