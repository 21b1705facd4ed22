// Package errors provides centralized error definitions and error handling
// utilities for the roundtable codebase. It defines domain-specific errors,
// sentinel errors, and classification helpers.
//
// # Error Types
//
// Domain-specific errors represent failures from specific subsystems:
//   - DiscussionError: errors related to discussion orchestration
//   - GenerationError: errors from the text generation backend
//   - CheckpointError: errors related to persisted discussion state
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewGenerationError("turn generation failed", errors.ErrTimeout).
//		WithRole("security-engineer").WithTurn(5)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrCheckpointCorrupted) { ... }
//
//	var genErr *errors.GenerationError
//	if errors.As(err, &genErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Discussion-related sentinel errors
var (
	// ErrInsufficientRoles indicates fewer than two roles were supplied.
	ErrInsufficientRoles = New("at least two roles are required")
	// ErrDiscussionFinished indicates the discussion already reached a terminal state.
	ErrDiscussionFinished = New("discussion already finished")
	// ErrTurnLimitReached indicates the configured turn budget is exhausted.
	ErrTurnLimitReached = New("turn limit reached")
)

// Checkpoint-related sentinel errors
var (
	// ErrCheckpointNotFound indicates no checkpoint exists for a session.
	ErrCheckpointNotFound = New("checkpoint not found")
	// ErrCheckpointCorrupted indicates persisted state could not be decoded.
	ErrCheckpointCorrupted = New("checkpoint corrupted")
)

// Generation-related sentinel errors
var (
	// ErrTimeout indicates a generation call timed out.
	ErrTimeout = New("generation timed out")
	// ErrConnection indicates the generation backend was unreachable.
	ErrConnection = New("generation backend unreachable")
	// ErrMalformedResponse indicates the backend returned an undecodable response.
	ErrMalformedResponse = New("malformed generation response")
	// ErrGenerationFailed indicates the backend failed after its own retries.
	ErrGenerationFailed = New("generation failed")
	// ErrSummarizationFailed indicates a delegated summarization call failed.
	ErrSummarizationFailed = New("summarization failed")
)

// General sentinel errors
var (
	// ErrCanceled indicates an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// retryableError is implemented by errors that know whether a retry may help.
type retryableError interface {
	error
	IsRetryable() bool
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// DiscussionError represents errors related to discussion orchestration.
//
// Example:
//
//	err := errors.NewDiscussionError("cannot append after consensus", errors.ErrDiscussionFinished).
//		WithSessionID("abc123")
type DiscussionError struct {
	baseError
	SessionID string
	Turn      int
}

// NewDiscussionError creates a new DiscussionError.
func NewDiscussionError(message string, cause error) *DiscussionError {
	return &DiscussionError{
		baseError: baseError{
			message: message,
			cause:   cause,
		},
		Turn: -1, // -1 indicates not set
	}
}

// WithSessionID adds a session ID to the error context.
func (e *DiscussionError) WithSessionID(id string) *DiscussionError {
	e.SessionID = id
	return e
}

// WithTurn adds a turn number to the error context.
func (e *DiscussionError) WithTurn(turn int) *DiscussionError {
	e.Turn = turn
	return e
}

// Error returns the formatted error message.
func (e *DiscussionError) Error() string {
	var parts []string
	if e.SessionID != "" {
		parts = append(parts, fmt.Sprintf("session=%s", e.SessionID))
	}
	if e.Turn >= 0 {
		parts = append(parts, fmt.Sprintf("turn=%d", e.Turn))
	}

	prefix := "discussion error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("discussion error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *DiscussionError) Is(target error) bool {
	if _, ok := target.(*DiscussionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// GenerationError represents errors from the text generation backend.
//
// Example:
//
//	err := errors.NewGenerationError("ollama request failed", errors.ErrConnection).
//		WithRole("security-engineer").WithTurn(5)
type GenerationError struct {
	baseError
	RoleID string
	Turn   int
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(message string, cause error) *GenerationError {
	return &GenerationError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			retryable: errors.Is(cause, ErrTimeout) || errors.Is(cause, ErrConnection),
		},
		Turn: -1,
	}
}

// WithRole adds a role ID to the error context.
func (e *GenerationError) WithRole(roleID string) *GenerationError {
	e.RoleID = roleID
	return e
}

// WithTurn adds a turn number to the error context.
func (e *GenerationError) WithTurn(turn int) *GenerationError {
	e.Turn = turn
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *GenerationError) WithRetryable(r bool) *GenerationError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *GenerationError) Error() string {
	var parts []string
	if e.RoleID != "" {
		parts = append(parts, fmt.Sprintf("role=%s", e.RoleID))
	}
	if e.Turn >= 0 {
		parts = append(parts, fmt.Sprintf("turn=%d", e.Turn))
	}

	prefix := "generation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("generation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *GenerationError) Is(target error) bool {
	if _, ok := target.(*GenerationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// CheckpointError represents errors related to persisted discussion state.
type CheckpointError struct {
	baseError
	SessionID string
	Path      string
}

// NewCheckpointError creates a new CheckpointError.
func NewCheckpointError(message string, cause error) *CheckpointError {
	return &CheckpointError{
		baseError: baseError{
			message: message,
			cause:   cause,
		},
	}
}

// WithSessionID adds a session ID to the error context.
func (e *CheckpointError) WithSessionID(id string) *CheckpointError {
	e.SessionID = id
	return e
}

// WithPath adds a checkpoint file path to the error context.
func (e *CheckpointError) WithPath(path string) *CheckpointError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *CheckpointError) Error() string {
	var parts []string
	if e.SessionID != "" {
		parts = append(parts, fmt.Sprintf("session=%s", e.SessionID))
	}
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}

	prefix := "checkpoint error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("checkpoint error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *CheckpointError) Is(target error) bool {
	if _, ok := target.(*CheckpointError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:   operation,
			retryable: true, // Timeouts are generally retryable
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. This checks for:
//   - Errors implementing IsRetryable() returning true
//   - Errors wrapping ErrTimeout or ErrConnection
//
// Example:
//
//	if errors.IsRetryable(err) {
//	    time.Sleep(backoff)
//	    return retry(operation)
//	}
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var re retryableError
	if As(err, &re) {
		return re.IsRetryable()
	}

	return Is(err, ErrTimeout) || Is(err, ErrConnection)
}

// IsFatal returns true if the error should halt the discussion loop
// rather than degrade to a fallback. Only primary generation failures
// and invalid initial input are fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrGenerationFailed) || Is(err, ErrInsufficientRoles)
}

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to persist state")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to load session %s", sessionID)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
