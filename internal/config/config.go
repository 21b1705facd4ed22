// Package config defines the roundtable configuration, its defaults, and
// validation. Configuration is read through viper from a YAML file with
// environment variable overrides.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete roundtable configuration
type Config struct {
	Discussion DiscussionConfig `mapstructure:"discussion"`
	Consensus  ConsensusConfig  `mapstructure:"consensus"`
	Compress   CompressConfig   `mapstructure:"compress"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Paths      PathsConfig      `mapstructure:"paths"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// DiscussionConfig controls the turn-taking loop
type DiscussionConfig struct {
	// MaxTurns is the total turn budget for a discussion (default: 30)
	MaxTurns int `mapstructure:"max_turns"`
	// WindowSize is the number of recent messages kept verbatim; older
	// messages are folded into the running summary (default: 6)
	WindowSize int `mapstructure:"window_size"`
	// CheckEveryTurn runs the consensus check after every turn instead of
	// once per completed rotation (default: false)
	CheckEveryTurn bool `mapstructure:"check_every_turn"`
}

// ConsensusConfig controls consensus detection
type ConsensusConfig struct {
	// Threshold is the agreement ratio required to declare consensus,
	// in (0, 1] (default: 0.7)
	Threshold float64 `mapstructure:"threshold"`
	// MaxPointsPerMessage caps key points extracted per message (default: 3)
	MaxPointsPerMessage int `mapstructure:"max_points_per_message"`
	// TieBand is the ratio distance from the threshold within which the
	// advisory LLM check may break a tie (default: 0.1)
	TieBand float64 `mapstructure:"tie_band"`
	// UseLLMCheck enables the advisory LLM consensus check (default: false)
	UseLLMCheck bool `mapstructure:"use_llm_check"`
}

// CompressConfig controls context compression
type CompressConfig struct {
	// SummaryMaxTokens bounds the summarization call's output (default: 256)
	SummaryMaxTokens int `mapstructure:"summary_max_tokens"`
	// FallbackCharBudget caps the summary length when the deterministic
	// fallback is used (default: 2000)
	FallbackCharBudget int `mapstructure:"fallback_char_budget"`
}

// LLMConfig selects and tunes the generation backend
type LLMConfig struct {
	// Backend is the generation backend: "mock", "ollama", "openrouter"
	Backend string `mapstructure:"backend"`
	// Model is the backend-specific model name
	Model string `mapstructure:"model"`
	// APIURL overrides the backend's default base URL
	APIURL string `mapstructure:"api_url"`
	// TimeoutSeconds bounds a single generation request (default: 30)
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// MaxRetries is the retry budget for transient failures (default: 3)
	MaxRetries int `mapstructure:"max_retries"`
	// MaxTokens limits response length per turn (default: 512)
	MaxTokens int `mapstructure:"max_tokens"`
	// Temperature controls sampling randomness (default: 0.7)
	Temperature float64 `mapstructure:"temperature"`
}

// Timeout returns the request timeout as a time.Duration
func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PathsConfig controls where roundtable stores and finds data
type PathsConfig struct {
	// StateDir is where session checkpoints are written.
	// If empty, defaults to ~/.local/share/roundtable/sessions.
	// Supports ~ for home directory expansion.
	StateDir string `mapstructure:"state_dir"`
	// RolesDir is the directory containing role YAML files (default: "roles")
	RolesDir string `mapstructure:"roles_dir"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Discussion: DiscussionConfig{
			MaxTurns:       30,
			WindowSize:     6,
			CheckEveryTurn: false,
		},
		Consensus: ConsensusConfig{
			Threshold:           0.7,
			MaxPointsPerMessage: 3,
			TieBand:             0.1,
			UseLLMCheck:         false,
		},
		Compress: CompressConfig{
			SummaryMaxTokens:   256,
			FallbackCharBudget: 2000,
		},
		LLM: LLMConfig{
			Backend:        "ollama",
			Model:          "llama3.1:8b",
			APIURL:         "",
			TimeoutSeconds: 30,
			MaxRetries:     3,
			MaxTokens:      512,
			Temperature:    0.7,
		},
		Paths: PathsConfig{
			StateDir: "", // Empty means use default: ~/.local/share/roundtable/sessions
			RolesDir: "roles",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Discussion defaults
	viper.SetDefault("discussion.max_turns", defaults.Discussion.MaxTurns)
	viper.SetDefault("discussion.window_size", defaults.Discussion.WindowSize)
	viper.SetDefault("discussion.check_every_turn", defaults.Discussion.CheckEveryTurn)

	// Consensus defaults
	viper.SetDefault("consensus.threshold", defaults.Consensus.Threshold)
	viper.SetDefault("consensus.max_points_per_message", defaults.Consensus.MaxPointsPerMessage)
	viper.SetDefault("consensus.tie_band", defaults.Consensus.TieBand)
	viper.SetDefault("consensus.use_llm_check", defaults.Consensus.UseLLMCheck)

	// Compress defaults
	viper.SetDefault("compress.summary_max_tokens", defaults.Compress.SummaryMaxTokens)
	viper.SetDefault("compress.fallback_char_budget", defaults.Compress.FallbackCharBudget)

	// LLM defaults
	viper.SetDefault("llm.backend", defaults.LLM.Backend)
	viper.SetDefault("llm.model", defaults.LLM.Model)
	viper.SetDefault("llm.api_url", defaults.LLM.APIURL)
	viper.SetDefault("llm.timeout_seconds", defaults.LLM.TimeoutSeconds)
	viper.SetDefault("llm.max_retries", defaults.LLM.MaxRetries)
	viper.SetDefault("llm.max_tokens", defaults.LLM.MaxTokens)
	viper.SetDefault("llm.temperature", defaults.LLM.Temperature)

	// Paths defaults
	viper.SetDefault("paths.state_dir", defaults.Paths.StateDir)
	viper.SetDefault("paths.roles_dir", defaults.Paths.RolesDir)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "roundtable")
	}
	// Fall back to ~/.config/roundtable
	home, err := os.UserHomeDir()
	if err != nil {
		return ".roundtable"
	}
	return filepath.Join(home, ".config", "roundtable")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// StateDir resolves the checkpoint directory, expanding ~ and applying the
// default when unset.
func (c *Config) StateDir() string {
	dir := c.Paths.StateDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".roundtable", "sessions")
		}
		return filepath.Join(home, ".local", "share", "roundtable", "sessions")
	}
	if len(dir) > 0 && dir[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, dir[1:])
		}
	}
	return dir
}
