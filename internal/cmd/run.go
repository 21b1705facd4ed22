package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/roundtable-dev/roundtable/internal/checkpoint"
	"github.com/roundtable-dev/roundtable/internal/compress"
	"github.com/roundtable-dev/roundtable/internal/config"
	"github.com/roundtable-dev/roundtable/internal/consensus"
	"github.com/roundtable-dev/roundtable/internal/discussion"
	"github.com/roundtable-dev/roundtable/internal/llm"
	"github.com/roundtable-dev/roundtable/internal/logging"
	"github.com/roundtable-dev/roundtable/internal/orchestrator"
	"github.com/roundtable-dev/roundtable/internal/role"
)

var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Run a discussion on a topic",
	Long: `Run a multi-role discussion on the given topic until consensus is
reached or the turn budget is exhausted.

State is checkpointed after every turn. Pass --session with a previous
session ID to resume an interrupted discussion; a session that already
reached consensus or exhausted its budget returns immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscussion,
}

var (
	runRoleNames  []string
	runNumRoles   int
	runMaxTurns   int
	runWindow     int
	runThreshold  float64
	runSessionID  string
	runOutputFile string
	runBackend    string
	runModel      string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&runRoleNames, "roles", nil, "role names or IDs to include (default: first N loaded roles)")
	runCmd.Flags().IntVar(&runNumRoles, "num-roles", 3, "number of roles when --roles is not given")
	runCmd.Flags().IntVar(&runMaxTurns, "max-turns", 0, "turn budget (default from config)")
	runCmd.Flags().IntVar(&runWindow, "window", 0, "recent messages kept verbatim (default from config)")
	runCmd.Flags().Float64Var(&runThreshold, "threshold", 0, "consensus agreement ratio (default from config)")
	runCmd.Flags().StringVar(&runSessionID, "session", "", "session ID to resume")
	runCmd.Flags().StringVarP(&runOutputFile, "output", "o", "", "write the result as JSON to this file")
	runCmd.Flags().StringVar(&runBackend, "backend", "", "generation backend: mock, ollama, openrouter")
	runCmd.Flags().StringVar(&runModel, "model", "", "model name for the backend")
}

func runDiscussion(cmd *cobra.Command, args []string) error {
	topic := args[0]

	// API keys may live in a local .env file.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	applyRunFlags(cmd, cfg)

	sessionID := runSessionID
	if sessionID == "" {
		sessionID = discussion.NewSessionID()
	}

	logger, err := buildLogger(cfg, sessionID)
	if err != nil {
		return err
	}
	defer logger.Close()

	store, err := checkpoint.NewStore(cfg.StateDir(), logger)
	if err != nil {
		return err
	}

	client, err := llm.New(llm.Config{
		Backend:     cfg.LLM.Backend,
		Model:       cfg.LLM.Model,
		APIURL:      cfg.LLM.APIURL,
		APIKey:      os.Getenv("OPENROUTER_API_KEY"),
		Timeout:     cfg.LLM.Timeout(),
		MaxRetries:  cfg.LLM.MaxRetries,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return err
	}

	roles, err := loadRoles(cfg, logger)
	if err != nil {
		return err
	}

	detectorOpts := []consensus.Option{
		consensus.WithThreshold(cfg.Consensus.Threshold),
		consensus.WithMaxPointsPerMessage(cfg.Consensus.MaxPointsPerMessage),
		consensus.WithLogger(logger),
	}
	if cfg.Consensus.UseLLMCheck {
		detectorOpts = append(detectorOpts, consensus.WithAdvisor(client, cfg.Consensus.TieBand))
	}

	o, err := orchestrator.New(orchestrator.Config{
		Topic:     topic,
		SessionID: sessionID,
		Roles:     roles,
		Client:    client,
		Store:     store,
		Compressor: compress.New(client,
			compress.WithSummaryMaxTokens(cfg.Compress.SummaryMaxTokens),
			compress.WithFallbackCharBudget(cfg.Compress.FallbackCharBudget),
			compress.WithLogger(logger)),
		Detector:       consensus.New(detectorOpts...),
		Logger:         logger,
		MaxTurns:       cfg.Discussion.MaxTurns,
		WindowSize:     cfg.Discussion.WindowSize,
		CheckEveryTurn: cfg.Discussion.CheckEveryTurn,
		MaxTokens:      cfg.LLM.MaxTokens,
		Temperature:    cfg.LLM.Temperature,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s %s\n", dimStyle.Render("session:"), sessionID)

	result, err := o.Run(ctx)
	if err != nil {
		return err
	}

	renderResult(result)

	if runOutputFile != "" {
		if err := exportResult(result, runOutputFile); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", dimStyle.Render("result written to:"), runOutputFile)
	}
	return nil
}

// applyRunFlags overlays explicitly-set flags onto the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("max-turns") {
		cfg.Discussion.MaxTurns = runMaxTurns
	}
	if cmd.Flags().Changed("window") {
		cfg.Discussion.WindowSize = runWindow
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Consensus.Threshold = runThreshold
	}
	if cmd.Flags().Changed("backend") {
		cfg.LLM.Backend = runBackend
	}
	if cmd.Flags().Changed("model") {
		cfg.LLM.Model = runModel
	}
}

func buildLogger(cfg *config.Config, sessionID string) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	level := logging.ParseLevel(cfg.Logging.Level)
	sessionDir := ""
	if cfg.StateDir() != "" {
		sessionDir = cfg.StateDir() + string(os.PathSeparator) + sessionID
		if err := os.MkdirAll(sessionDir, 0755); err != nil {
			sessionDir = "" // fall back to stderr
		}
	}
	return logging.NewLogger(sessionDir, level)
}

func loadRoles(cfg *config.Config, logger *logging.Logger) ([]role.Role, error) {
	all, err := role.LoadDir(cfg.Paths.RolesDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles from %s: %w", cfg.Paths.RolesDir, err)
	}
	return role.Select(all, runRoleNames, runNumRoles)
}

func renderResult(result *orchestrator.Result) {
	fmt.Println()
	fmt.Println(headerStyle.Render("Discussion: " + result.Topic))
	fmt.Println()

	if result.Summary != "" {
		fmt.Println(summaryStyle.Render("Earlier discussion (summarized): " + result.Summary))
		fmt.Println()
	}

	for _, msg := range result.History {
		fmt.Printf("%s %s\n%s\n\n",
			turnNumStyle.Render(fmt.Sprintf("[%d]", msg.TurnIndex)),
			roleNameStyle.Render(msg.RoleID),
			msg.Content)
	}

	switch {
	case result.ConsensusReached:
		banner := fmt.Sprintf("Consensus reached after %d turns (confidence %.2f)\n%s",
			result.TurnsUsed, result.ConsensusDetail.Confidence, result.ConsensusDetail.AgreedPoint)
		fmt.Println(consensusStyle.Render(banner))
	case result.Aborted:
		fmt.Println(abortedStyle.Render(fmt.Sprintf(
			"Run aborted after %d turns; resume with --session %s", result.TurnsUsed, result.SessionID)))
	case result.Status == orchestrator.StatusCanceled:
		fmt.Println(dimStyle.Render(fmt.Sprintf(
			"Canceled after %d turns; resume with --session %s", result.TurnsUsed, result.SessionID)))
	default:
		fmt.Println(dimStyle.Render(fmt.Sprintf(
			"No consensus within %d turns", result.TurnsUsed)))
	}
}

func exportResult(result *orchestrator.Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}
