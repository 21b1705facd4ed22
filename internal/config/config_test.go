package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Verify default discussion config
	if cfg.Discussion.MaxTurns != 30 {
		t.Errorf("Discussion.MaxTurns = %d, want 30", cfg.Discussion.MaxTurns)
	}
	if cfg.Discussion.WindowSize != 6 {
		t.Errorf("Discussion.WindowSize = %d, want 6", cfg.Discussion.WindowSize)
	}
	if cfg.Discussion.CheckEveryTurn {
		t.Error("Discussion.CheckEveryTurn should be false by default")
	}

	// Verify default consensus config
	if cfg.Consensus.Threshold != 0.7 {
		t.Errorf("Consensus.Threshold = %f, want 0.7", cfg.Consensus.Threshold)
	}
	if cfg.Consensus.MaxPointsPerMessage != 3 {
		t.Errorf("Consensus.MaxPointsPerMessage = %d, want 3", cfg.Consensus.MaxPointsPerMessage)
	}
	if cfg.Consensus.UseLLMCheck {
		t.Error("Consensus.UseLLMCheck should be false by default")
	}

	// Verify default LLM config
	if cfg.LLM.Backend != "ollama" {
		t.Errorf("LLM.Backend = %q, want %q", cfg.LLM.Backend, "ollama")
	}
	if cfg.LLM.TimeoutSeconds != 30 {
		t.Errorf("LLM.TimeoutSeconds = %d, want 30", cfg.LLM.TimeoutSeconds)
	}

	// Verify default logging config
	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLLMConfig_Timeout(t *testing.T) {
	cfg := LLMConfig{TimeoutSeconds: 45}
	if got := cfg.Timeout(); got != 45*time.Second {
		t.Errorf("Timeout() = %v, want 45s", got)
	}
}

func TestSetDefaultsAndLoad(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	SetDefaults()
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Discussion.MaxTurns != 30 {
		t.Errorf("Discussion.MaxTurns = %d, want 30", cfg.Discussion.MaxTurns)
	}
	if cfg.Consensus.Threshold != 0.7 {
		t.Errorf("Consensus.Threshold = %f, want 0.7", cfg.Consensus.Threshold)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `discussion:
  max_turns: 12
  window_size: 4
llm:
  backend: mock
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	SetDefaults()
	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Discussion.MaxTurns != 12 {
		t.Errorf("Discussion.MaxTurns = %d, want 12 (file override)", cfg.Discussion.MaxTurns)
	}
	if cfg.Discussion.WindowSize != 4 {
		t.Errorf("Discussion.WindowSize = %d, want 4 (file override)", cfg.Discussion.WindowSize)
	}
	if cfg.LLM.Backend != "mock" {
		t.Errorf("LLM.Backend = %q, want %q", cfg.LLM.Backend, "mock")
	}
	// Untouched keys keep defaults
	if cfg.Consensus.Threshold != 0.7 {
		t.Errorf("Consensus.Threshold = %f, want default 0.7", cfg.Consensus.Threshold)
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	SetDefaults()
	viper.Set("consensus.threshold", 1.5)

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected validation error for threshold > 1")
	}
}

func TestStateDir(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		cfg := &Config{Paths: PathsConfig{StateDir: "/var/lib/roundtable"}}
		if got := cfg.StateDir(); got != "/var/lib/roundtable" {
			t.Errorf("StateDir() = %q, want explicit path", got)
		}
	})

	t.Run("tilde expansion", func(t *testing.T) {
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}
		cfg := &Config{Paths: PathsConfig{StateDir: "~/rt-sessions"}}
		want := filepath.Join(home, "rt-sessions")
		if got := cfg.StateDir(); got != want {
			t.Errorf("StateDir() = %q, want %q", got, want)
		}
	})

	t.Run("default", func(t *testing.T) {
		cfg := &Config{}
		got := cfg.StateDir()
		if got == "" {
			t.Error("StateDir() should never be empty")
		}
	})
}
