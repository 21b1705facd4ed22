package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "discussion.max_turns")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidBackends returns the list of valid generation backends
func ValidBackends() []string {
	return []string{"mock", "ollama", "openrouter"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateDiscussion()...)
	errors = append(errors, c.validateConsensus()...)
	errors = append(errors, c.validateCompress()...)
	errors = append(errors, c.validateLLM()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateDiscussion() []ValidationError {
	var errors []ValidationError

	if c.Discussion.MaxTurns < 1 {
		errors = append(errors, ValidationError{
			Field:   "discussion.max_turns",
			Value:   c.Discussion.MaxTurns,
			Message: "must be at least 1",
		})
	}
	if c.Discussion.WindowSize < 2 {
		errors = append(errors, ValidationError{
			Field:   "discussion.window_size",
			Value:   c.Discussion.WindowSize,
			Message: "must be at least 2",
		})
	}

	return errors
}

func (c *Config) validateConsensus() []ValidationError {
	var errors []ValidationError

	if c.Consensus.Threshold <= 0 || c.Consensus.Threshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "consensus.threshold",
			Value:   c.Consensus.Threshold,
			Message: "must be in (0, 1]",
		})
	}
	if c.Consensus.MaxPointsPerMessage < 1 {
		errors = append(errors, ValidationError{
			Field:   "consensus.max_points_per_message",
			Value:   c.Consensus.MaxPointsPerMessage,
			Message: "must be at least 1",
		})
	}
	if c.Consensus.TieBand < 0 || c.Consensus.TieBand > 0.5 {
		errors = append(errors, ValidationError{
			Field:   "consensus.tie_band",
			Value:   c.Consensus.TieBand,
			Message: "must be in [0, 0.5]",
		})
	}

	return errors
}

func (c *Config) validateCompress() []ValidationError {
	var errors []ValidationError

	if c.Compress.SummaryMaxTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "compress.summary_max_tokens",
			Value:   c.Compress.SummaryMaxTokens,
			Message: "must be at least 1",
		})
	}
	if c.Compress.FallbackCharBudget < 100 {
		errors = append(errors, ValidationError{
			Field:   "compress.fallback_char_budget",
			Value:   c.Compress.FallbackCharBudget,
			Message: "must be at least 100",
		})
	}

	return errors
}

func (c *Config) validateLLM() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidBackends(), c.LLM.Backend) {
		errors = append(errors, ValidationError{
			Field:   "llm.backend",
			Value:   c.LLM.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidBackends(), ", ")),
		})
	}
	if c.LLM.TimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.timeout_seconds",
			Value:   c.LLM.TimeoutSeconds,
			Message: "must be at least 1",
		})
	}
	if c.LLM.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_retries",
			Value:   c.LLM.MaxRetries,
			Message: "cannot be negative",
		})
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Value:   c.LLM.Temperature,
			Message: "must be in [0, 2]",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
