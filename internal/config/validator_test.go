package config

import (
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "discussion.max_turns",
		Value:   0,
		Message: "must be at least 1",
	}
	got := err.Error()
	if !strings.Contains(got, "discussion.max_turns") || !strings.Contains(got, "got: 0") {
		t.Errorf("Error() = %q, want field and value in message", got)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := (ValidationErrors{}).Error(); got != "" {
			t.Errorf("Error() = %q, want empty", got)
		}
	})

	t.Run("single", func(t *testing.T) {
		errs := ValidationErrors{{Field: "a", Value: 1, Message: "bad"}}
		if got := errs.Error(); strings.Contains(got, "validation errors") {
			t.Errorf("single error should not use the multi-error header, got %q", got)
		}
	})

	t.Run("multiple", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "a", Value: 1, Message: "bad"},
			{Field: "b", Value: 2, Message: "worse"},
		}
		got := errs.Error()
		if !strings.Contains(got, "2 validation errors") {
			t.Errorf("Error() = %q, want count header", got)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("default config should validate cleanly, got %v", errs)
	}
}

func TestConfig_Validate_Discussion(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "zero max_turns",
			mutate:    func(c *Config) { c.Discussion.MaxTurns = 0 },
			wantField: "discussion.max_turns",
		},
		{
			name:      "window too small",
			mutate:    func(c *Config) { c.Discussion.WindowSize = 1 },
			wantField: "discussion.window_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assertSingleError(t, cfg.Validate(), tt.wantField)
		})
	}
}

func TestConfig_Validate_Consensus(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "zero threshold",
			mutate:    func(c *Config) { c.Consensus.Threshold = 0 },
			wantField: "consensus.threshold",
		},
		{
			name:      "threshold above one",
			mutate:    func(c *Config) { c.Consensus.Threshold = 1.01 },
			wantField: "consensus.threshold",
		},
		{
			name:      "zero points per message",
			mutate:    func(c *Config) { c.Consensus.MaxPointsPerMessage = 0 },
			wantField: "consensus.max_points_per_message",
		},
		{
			name:      "negative tie band",
			mutate:    func(c *Config) { c.Consensus.TieBand = -0.1 },
			wantField: "consensus.tie_band",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assertSingleError(t, cfg.Validate(), tt.wantField)
		})
	}
}

func TestConfig_Validate_LLM(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "unknown backend",
			mutate:    func(c *Config) { c.LLM.Backend = "quantum" },
			wantField: "llm.backend",
		},
		{
			name:      "zero timeout",
			mutate:    func(c *Config) { c.LLM.TimeoutSeconds = 0 },
			wantField: "llm.timeout_seconds",
		},
		{
			name:      "negative retries",
			mutate:    func(c *Config) { c.LLM.MaxRetries = -1 },
			wantField: "llm.max_retries",
		},
		{
			name:      "temperature out of range",
			mutate:    func(c *Config) { c.LLM.Temperature = 3 },
			wantField: "llm.temperature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assertSingleError(t, cfg.Validate(), tt.wantField)
		})
	}
}

func TestConfig_Validate_Logging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "loud"
	assertSingleError(t, cfg.Validate(), "logging.level")
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Discussion.MaxTurns = 0
	cfg.Consensus.Threshold = 2
	cfg.LLM.Backend = "quantum"

	if errs := cfg.Validate(); len(errs) != 3 {
		t.Errorf("Validate() returned %d errors, want 3: %v", len(errs), errs)
	}
}

func assertSingleError(t *testing.T, errs []ValidationError, wantField string) {
	t.Helper()
	if len(errs) != 1 {
		t.Fatalf("Validate() returned %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Field != wantField {
		t.Errorf("Field = %q, want %q", errs[0].Field, wantField)
	}
}
