// Package discussion defines the data model for a multi-role discussion:
// the immutable message record, the persisted discussion state, and the
// consensus detail attached when a discussion converges.
package discussion

import (
	"time"

	"github.com/google/uuid"

	"github.com/roundtable-dev/roundtable/internal/errors"
)

// Message is a single contribution to a discussion. Messages are immutable
// once appended; history ordering is the single source of truth for turn
// order.
type Message struct {
	RoleID    string    `json:"role_id"`
	Content   string    `json:"content"`
	TurnIndex int       `json:"turn_index"`
	Timestamp time.Time `json:"timestamp"`
}

// ConsensusDetail explains a consensus decision: the point the roles agreed
// on and the detector's confidence in [0,1].
type ConsensusDetail struct {
	AgreedPoint string  `json:"agreed_point"`
	Confidence  float64 `json:"confidence"`
}

// State is the unit of persistence for a discussion session.
//
// Invariants:
//   - Turn == len(History) + FoldedCount after every successful append
//   - History is append-only; older entries leave only by migration into
//     Summary via the compressor
//   - ConsensusReached is set exactly once and never reset
type State struct {
	Topic            string           `json:"topic"`
	History          []Message        `json:"history"`
	Summary          string           `json:"summary"`
	Turn             int              `json:"turn"`
	ConsensusReached bool             `json:"consensus_reached"`
	ConsensusDetail  *ConsensusDetail `json:"consensus_detail,omitempty"`

	// FoldedCount is the number of messages migrated into Summary by the
	// compressor. It keeps the Turn invariant checkable after compression.
	FoldedCount int `json:"folded_count"`
}

// NewState creates a fresh discussion state for a topic.
func NewState(topic string) *State {
	return &State{
		Topic:   topic,
		History: []Message{},
	}
}

// NewSessionID returns a new unique session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Append adds a message produced for the current turn and advances the turn
// counter. It fails if the discussion already reached consensus.
func (s *State) Append(roleID, content string) (Message, error) {
	if s.ConsensusReached {
		return Message{}, errors.NewDiscussionError(
			"cannot append after consensus", errors.ErrDiscussionFinished).WithTurn(s.Turn)
	}

	msg := Message{
		RoleID:    roleID,
		Content:   content,
		TurnIndex: s.Turn,
		Timestamp: time.Now().UTC(),
	}
	s.History = append(s.History, msg)
	s.Turn++
	return msg, nil
}

// MarkConsensus records a consensus decision. It is a no-op if consensus was
// already recorded; the first decision wins.
func (s *State) MarkConsensus(detail ConsensusDetail) {
	if s.ConsensusReached {
		return
	}
	s.ConsensusReached = true
	d := detail
	s.ConsensusDetail = &d
}

// DistinctRoles returns the set of role IDs present in the retained history,
// in first-spoken order.
func (s *State) DistinctRoles() []string {
	seen := make(map[string]bool, len(s.History))
	var roles []string
	for _, msg := range s.History {
		if !seen[msg.RoleID] {
			seen[msg.RoleID] = true
			roles = append(roles, msg.RoleID)
		}
	}
	return roles
}

// Clone returns a deep copy of the state. Callers receive snapshots so the
// orchestrator's working copy is never aliased.
func (s *State) Clone() *State {
	clone := *s
	clone.History = make([]Message, len(s.History))
	copy(clone.History, s.History)
	if s.ConsensusDetail != nil {
		d := *s.ConsensusDetail
		clone.ConsensusDetail = &d
	}
	return &clone
}

// Validate checks the state's internal invariants. It is used when loading
// checkpoints to distinguish structurally valid documents from corrupt ones.
func (s *State) Validate() error {
	if s.Topic == "" {
		return errors.Wrap(errors.ErrInvalidInput, "state has empty topic")
	}
	if s.Turn != len(s.History)+s.FoldedCount {
		return errors.Wrapf(errors.ErrInvalidInput,
			"turn counter %d does not match %d retained + %d folded messages",
			s.Turn, len(s.History), s.FoldedCount)
	}
	for i := 1; i < len(s.History); i++ {
		if s.History[i].TurnIndex <= s.History[i-1].TurnIndex {
			return errors.Wrapf(errors.ErrInvalidInput,
				"history out of order at position %d", i)
		}
	}
	return nil
}
