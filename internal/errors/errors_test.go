package errors

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestDiscussionError_Format(t *testing.T) {
	err := NewDiscussionError("cannot append", ErrDiscussionFinished).
		WithSessionID("abc123").
		WithTurn(7)

	msg := err.Error()
	if !strings.Contains(msg, "session=abc123") {
		t.Errorf("Error() = %q, want to contain session=abc123", msg)
	}
	if !strings.Contains(msg, "turn=7") {
		t.Errorf("Error() = %q, want to contain turn=7", msg)
	}
	if !Is(err, ErrDiscussionFinished) {
		t.Error("expected Is(err, ErrDiscussionFinished) to be true")
	}
}

func TestDiscussionError_NoContext(t *testing.T) {
	err := NewDiscussionError("plain failure", nil)
	if got := err.Error(); got != "discussion error: plain failure" {
		t.Errorf("Error() = %q, want %q", got, "discussion error: plain failure")
	}
}

func TestGenerationError_Retryable(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		want  bool
	}{
		{"timeout cause", ErrTimeout, true},
		{"connection cause", ErrConnection, true},
		{"malformed cause", ErrMalformedResponse, false},
		{"nil cause", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewGenerationError("call failed", tt.cause)
			if got := IsRetryable(err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerationError_WithRetryableOverride(t *testing.T) {
	err := NewGenerationError("call failed", ErrMalformedResponse).WithRetryable(true)
	if !IsRetryable(err) {
		t.Error("expected explicit WithRetryable(true) to win")
	}
}

func TestGenerationError_Format(t *testing.T) {
	err := NewGenerationError("request failed", ErrConnection).
		WithRole("security-engineer").
		WithTurn(5)

	msg := err.Error()
	if !strings.Contains(msg, "role=security-engineer") {
		t.Errorf("Error() = %q, want to contain role=security-engineer", msg)
	}
	if !strings.Contains(msg, "turn=5") {
		t.Errorf("Error() = %q, want to contain turn=5", msg)
	}
}

func TestCheckpointError_Matching(t *testing.T) {
	err := NewCheckpointError("decode failed", ErrCheckpointCorrupted).
		WithSessionID("s1").
		WithPath("/tmp/s1/state.json")

	if !Is(err, ErrCheckpointCorrupted) {
		t.Error("expected Is(err, ErrCheckpointCorrupted) to be true")
	}

	var cpErr *CheckpointError
	if !As(err, &cpErr) {
		t.Fatal("expected As to match *CheckpointError")
	}
	if cpErr.SessionID != "s1" {
		t.Errorf("SessionID = %q, want %q", cpErr.SessionID, "s1")
	}
}

func TestCheckpointError_WrappedMatching(t *testing.T) {
	inner := NewCheckpointError("decode failed", ErrCheckpointCorrupted)
	wrapped := fmt.Errorf("load: %w", inner)

	if !Is(wrapped, ErrCheckpointCorrupted) {
		t.Error("expected sentinel to survive wrapping")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("waiting for generation", 30*time.Second)

	if !Is(err, ErrTimeout) {
		t.Error("expected Is(err, ErrTimeout) to be true")
	}
	if !IsRetryable(err) {
		t.Error("expected timeout to be retryable")
	}
	if !strings.Contains(err.Error(), "30s") {
		t.Errorf("Error() = %q, want to contain duration", err.Error())
	}
}

func TestIsRetryable_NilAndPlain(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) = true, want false")
	}
	if IsRetryable(New("plain")) {
		t.Error("IsRetryable(plain error) = true, want false")
	}
	if !IsRetryable(fmt.Errorf("wrapped: %w", ErrTimeout)) {
		t.Error("expected wrapped ErrTimeout to be retryable")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"generation failed", fmt.Errorf("x: %w", ErrGenerationFailed), true},
		{"insufficient roles", ErrInsufficientRoles, true},
		{"summarization failure", ErrSummarizationFailed, false},
		{"corrupt checkpoint", ErrCheckpointCorrupted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	err := Wrap(ErrCheckpointNotFound, "loading session")
	if !Is(err, ErrCheckpointNotFound) {
		t.Error("expected wrapped sentinel to match")
	}
	if !strings.Contains(err.Error(), "loading session") {
		t.Errorf("Error() = %q, want to contain context", err.Error())
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "session %s", "s1") != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	err := Wrapf(ErrCheckpointNotFound, "loading session %s", "s1")
	if !strings.Contains(err.Error(), "loading session s1") {
		t.Errorf("Error() = %q, want formatted context", err.Error())
	}
}
