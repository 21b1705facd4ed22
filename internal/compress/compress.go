// Package compress folds older discussion history into a running summary so
// prompt context stays bounded as a discussion grows.
//
// Compression is incremental: each fold seeds the summarization call with the
// previous summary, so earlier context survives repeated folds. When the
// delegated summarization call fails, a deterministic fallback keeps the
// folded messages' content in the summary instead of dropping them.
package compress

import (
	"context"
	"fmt"
	"strings"

	"github.com/roundtable-dev/roundtable/internal/discussion"
	"github.com/roundtable-dev/roundtable/internal/llm"
	"github.com/roundtable-dev/roundtable/internal/logging"
)

const (
	defaultSummaryMaxTokens   = 256
	defaultFallbackCharBudget = 2000
)

// Compressor folds history into summaries using a delegated summarization
// client.
type Compressor struct {
	summarizer         llm.Client
	summaryMaxTokens   int
	fallbackCharBudget int
	logger             *logging.Logger
}

// Option configures a Compressor.
type Option func(*Compressor)

// WithSummaryMaxTokens bounds the summarization call's output.
func WithSummaryMaxTokens(n int) Option {
	return func(c *Compressor) {
		if n > 0 {
			c.summaryMaxTokens = n
		}
	}
}

// WithFallbackCharBudget caps summary length on the fallback path.
func WithFallbackCharBudget(n int) Option {
	return func(c *Compressor) {
		if n > 0 {
			c.fallbackCharBudget = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Compressor) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Compressor backed by the given summarization client.
func New(summarizer llm.Client, opts ...Option) *Compressor {
	c := &Compressor{
		summarizer:         summarizer,
		summaryMaxTokens:   defaultSummaryMaxTokens,
		fallbackCharBudget: defaultFallbackCharBudget,
		logger:             logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compress folds all but the most recent windowSize messages into the
// state's summary. It is a no-op when history already fits the window.
// Compression never fails: if the summarization call errors, the folded
// messages are preserved verbatim in the summary instead.
func (c *Compressor) Compress(ctx context.Context, state *discussion.State, windowSize int) {
	if windowSize < 1 || len(state.History) <= windowSize {
		return
	}

	cut := len(state.History) - windowSize
	folded := state.History[:cut]

	summary, err := c.summarize(ctx, state.Topic, state.Summary, folded)
	if err != nil {
		c.logger.Warn("summarization failed, using verbatim fallback", "error", err,
			"folded_messages", len(folded))
		summary = c.fallbackSummary(state.Summary, folded)
	}

	state.Summary = summary
	state.History = append([]discussion.Message(nil), state.History[cut:]...)
	state.FoldedCount += cut
}

// summarize asks the client to fold messages into the previous summary.
func (c *Compressor) summarize(ctx context.Context, topic, previous string, folded []discussion.Message) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the following discussion about %q into a compact summary.\n", topic)
	b.WriteString("Preserve every distinct position, proposal, and point of agreement or disagreement.\n\n")
	if previous != "" {
		fmt.Fprintf(&b, "Summary of the discussion so far:\n%s\n\n", previous)
	}
	b.WriteString("New messages to incorporate:\n")
	for _, msg := range folded {
		fmt.Fprintf(&b, "[%s]: %s\n\n", msg.RoleID, msg.Content)
	}
	b.WriteString("Respond with the updated summary only.")

	summary, err := c.summarizer.Generate(ctx, b.String(), llm.Options{
		MaxTokens:   c.summaryMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("summarizer returned empty summary")
	}
	return summary, nil
}

// fallbackSummary appends the folded messages verbatim to the previous
// summary, truncated to the character budget. Most recent content is kept
// when truncation is needed so the freshest folded context survives.
func (c *Compressor) fallbackSummary(previous string, folded []discussion.Message) string {
	var b strings.Builder
	if previous != "" {
		b.WriteString(previous)
		b.WriteString("\n")
	}
	for _, msg := range folded {
		fmt.Fprintf(&b, "%s: %s\n", msg.RoleID, msg.Content)
	}

	summary := strings.TrimSpace(b.String())
	if len(summary) > c.fallbackCharBudget {
		summary = "..." + summary[len(summary)-c.fallbackCharBudget:]
	}
	return summary
}
