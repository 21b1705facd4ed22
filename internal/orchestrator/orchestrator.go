// Package orchestrator runs the discussion turn loop: round-robin role
// selection, per-turn generation, context compression, per-round consensus
// checks, and crash-safe persistence after every turn.
//
// The loop is strictly sequential. Exactly one generation call is outstanding
// at a time, and cancellation is honored only at the top of the loop so the
// checkpoint written at the last completed turn always stays valid.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/roundtable-dev/roundtable/internal/checkpoint"
	"github.com/roundtable-dev/roundtable/internal/compress"
	"github.com/roundtable-dev/roundtable/internal/consensus"
	"github.com/roundtable-dev/roundtable/internal/discussion"
	"github.com/roundtable-dev/roundtable/internal/errors"
	"github.com/roundtable-dev/roundtable/internal/llm"
	"github.com/roundtable-dev/roundtable/internal/logging"
	"github.com/roundtable-dev/roundtable/internal/role"
)

// Status is the terminal state of a run.
type Status string

const (
	// StatusConsensus means the detector declared agreement.
	StatusConsensus Status = "consensus"
	// StatusExhausted means the turn budget ran out first.
	StatusExhausted Status = "exhausted"
	// StatusAborted means the generation collaborator failed; the last
	// persisted checkpoint remains resumable.
	StatusAborted Status = "aborted"
	// StatusCanceled means cancellation was requested between turns.
	StatusCanceled Status = "canceled"
)

// Config assembles an orchestrator.
type Config struct {
	Topic     string
	SessionID string
	Roles     []role.Role

	Client     llm.Client
	Store      *checkpoint.Store
	Compressor *compress.Compressor
	Detector   *consensus.Detector
	Logger     *logging.Logger

	MaxTurns       int
	WindowSize     int
	CheckEveryTurn bool

	// Generation tuning for per-turn calls.
	MaxTokens   int
	Temperature float64
}

// Result is what a completed run returns. An aborted or canceled run still
// carries the partial history rather than surfacing an error.
type Result struct {
	SessionID        string                      `json:"session_id"`
	Topic            string                      `json:"topic"`
	Status           Status                      `json:"status"`
	History          []discussion.Message        `json:"history"`
	Summary          string                      `json:"summary"`
	ConsensusReached bool                        `json:"consensus_reached"`
	ConsensusDetail  *discussion.ConsensusDetail `json:"consensus_detail,omitempty"`
	TurnsUsed        int                         `json:"turns_used"`
	Aborted          bool                        `json:"aborted"`
}

// Orchestrator drives one discussion session.
type Orchestrator struct {
	cfg     Config
	weights map[string]float64
	logger  *logging.Logger
}

// New validates the configuration and builds an Orchestrator. Fewer than two
// roles is fatal here, before any turn runs.
func New(cfg Config) (*Orchestrator, error) {
	if len(cfg.Roles) < 2 {
		return nil, errors.NewDiscussionError(
			fmt.Sprintf("got %d roles", len(cfg.Roles)), errors.ErrInsufficientRoles)
	}
	if cfg.Topic == "" {
		return nil, errors.NewDiscussionError("topic is required", errors.ErrInvalidInput)
	}
	if cfg.Client == nil || cfg.Store == nil || cfg.Compressor == nil || cfg.Detector == nil {
		return nil, errors.NewDiscussionError("missing collaborator", errors.ErrInvalidInput)
	}
	if cfg.SessionID == "" {
		cfg.SessionID = discussion.NewSessionID()
	}
	if cfg.MaxTurns < 1 {
		cfg.MaxTurns = 30
	}
	if cfg.WindowSize < 2 {
		cfg.WindowSize = 6
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	return &Orchestrator{
		cfg:     cfg,
		weights: role.Weights(cfg.Roles),
		logger:  logger.WithSession(cfg.SessionID),
	}, nil
}

// SessionID returns the session this orchestrator owns.
func (o *Orchestrator) SessionID() string { return o.cfg.SessionID }

// Run executes the discussion loop until consensus, turn exhaustion, abort,
// or cancellation. Resuming a session that already reached a terminal state
// returns immediately without any generation call.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	state := o.cfg.Store.Load(o.cfg.SessionID, o.cfg.Topic)

	// Idempotent resume: a restored terminal state short-circuits the loop.
	if state.ConsensusReached {
		o.logger.Info("session already reached consensus, nothing to do", "turn", state.Turn)
		return o.result(state, StatusConsensus), nil
	}
	if state.Turn >= o.cfg.MaxTurns {
		o.logger.Info("session already exhausted its turn budget", "turn", state.Turn)
		return o.result(state, StatusExhausted), nil
	}

	o.logger.Info("starting discussion loop",
		"topic", o.cfg.Topic,
		"turn", state.Turn,
		"max_turns", o.cfg.MaxTurns,
		"roles", len(o.cfg.Roles))

	for state.Turn < o.cfg.MaxTurns {
		// Cancellation is honored only here, between turns.
		select {
		case <-ctx.Done():
			o.logger.Info("cancellation requested, stopping between turns", "turn", state.Turn)
			return o.result(state, StatusCanceled), nil
		default:
		}

		current := o.cfg.Roles[state.Turn%len(o.cfg.Roles)]
		turnLogger := o.logger.WithRole(current.ID).WithTurn(state.Turn)

		response, err := o.cfg.Client.Generate(ctx, o.buildPrompt(&current, state), llm.Options{
			MaxTokens:   o.cfg.MaxTokens,
			Temperature: o.cfg.Temperature,
		})
		if err != nil {
			// The collaborator's own retries are exhausted; the last
			// persisted checkpoint stays resumable.
			turnLogger.Error("generation failed, aborting run", "error", err)
			return o.result(state, StatusAborted), nil
		}

		if _, err := state.Append(current.ID, response); err != nil {
			turnLogger.Error("append rejected", "error", err)
			return o.result(state, StatusAborted), nil
		}

		o.cfg.Compressor.Compress(ctx, state, o.cfg.WindowSize)

		if o.shouldCheckConsensus(state) {
			decision := o.cfg.Detector.Detect(ctx, state.History, state.Topic, o.weights)
			turnLogger.Debug("consensus check",
				"reached", decision.Reached,
				"ratio", decision.Ratio,
				"confidence", decision.Confidence)
			if decision.Reached {
				state.MarkConsensus(discussion.ConsensusDetail{
					AgreedPoint: decision.AgreedPoint,
					Confidence:  decision.Confidence,
				})
			}
		}

		if err := o.cfg.Store.Save(o.cfg.SessionID, state); err != nil {
			turnLogger.Error("checkpoint save failed, aborting run", "error", err)
			return o.result(state, StatusAborted), nil
		}

		if state.ConsensusReached {
			o.logger.Info("consensus reached",
				"turn", state.Turn,
				"agreed_point", state.ConsensusDetail.AgreedPoint)
			return o.result(state, StatusConsensus), nil
		}
	}

	o.logger.Info("turn budget exhausted without consensus", "turn", state.Turn)
	return o.result(state, StatusExhausted), nil
}

// shouldCheckConsensus applies the per-rotation trigger: check once every
// full rotation through the role list, or every turn when configured. A
// partial final round counts toward the turn budget but never triggers a
// check on its own.
func (o *Orchestrator) shouldCheckConsensus(state *discussion.State) bool {
	if o.cfg.CheckEveryTurn {
		return true
	}
	return state.Turn%len(o.cfg.Roles) == 0
}

// buildPrompt assembles the generation request for a role's turn from the
// role header, the running summary, and the retained recent messages.
func (o *Orchestrator) buildPrompt(r *role.Role, state *discussion.State) string {
	var b strings.Builder
	b.WriteString(r.PromptDescription())
	fmt.Fprintf(&b, "Topic for discussion: %s\n\n", state.Topic)
	if state.Summary != "" {
		fmt.Fprintf(&b, "Summary of the discussion so far:\n%s\n\n", state.Summary)
	}
	if len(state.History) > 0 {
		b.WriteString("Recent messages:\n")
		for _, msg := range state.History {
			fmt.Fprintf(&b, "[%s]: %s\n\n", msg.RoleID, msg.Content)
		}
	}
	b.WriteString("Based on your role and the discussion so far, provide your perspective on the topic.\n")
	b.WriteString("Keep your response concise and focused on the most important points.")
	return b.String()
}

// result snapshots the state into a Result.
func (o *Orchestrator) result(state *discussion.State, status Status) *Result {
	snapshot := state.Clone()
	return &Result{
		SessionID:        o.cfg.SessionID,
		Topic:            snapshot.Topic,
		Status:           status,
		History:          snapshot.History,
		Summary:          snapshot.Summary,
		ConsensusReached: snapshot.ConsensusReached,
		ConsensusDetail:  snapshot.ConsensusDetail,
		TurnsUsed:        snapshot.Turn,
		Aborted:          status == StatusAborted,
	}
}
