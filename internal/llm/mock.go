package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockClient is an in-memory Client for tests and offline dry runs. Responses
// can be scripted globally or keyed by a substring of the prompt; unscripted
// prompts get a deterministic generated reply.
type MockClient struct {
	mu        sync.Mutex
	scripted  []string
	keyed     map[string]string
	err       error
	callCount int
}

// NewMockClient creates a MockClient with no scripted responses.
func NewMockClient() *MockClient {
	return &MockClient{keyed: make(map[string]string)}
}

// Name identifies the backend for logging.
func (c *MockClient) Name() string { return BackendMock }

// Script queues responses to return in order. Once the queue drains, keyed
// and generated responses take over.
func (c *MockClient) Script(responses ...string) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripted = append(c.scripted, responses...)
	return c
}

// RespondTo returns the given response whenever the prompt contains key.
func (c *MockClient) RespondTo(key, response string) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keyed[key] = response
	return c
}

// FailWith makes Generate return err once the scripted queue is drained.
func (c *MockClient) FailWith(err error) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	return c
}

// CallCount reports how many times Generate has been invoked.
func (c *MockClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callCount
}

// Generate returns the next scripted response, a keyed response matching the
// prompt, or a deterministic placeholder.
func (c *MockClient) Generate(ctx context.Context, prompt string, _ Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.callCount++

	if len(c.scripted) > 0 {
		resp := c.scripted[0]
		c.scripted = c.scripted[1:]
		return resp, nil
	}
	if c.err != nil {
		return "", c.err
	}
	for key, resp := range c.keyed {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return fmt.Sprintf("I think we should consider this carefully. (mock reply %d)", c.callCount), nil
}
