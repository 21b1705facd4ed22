// Package checkpoint persists discussion state to disk so a run can be
// resumed after any interruption. Each session owns one directory holding a
// single JSON checkpoint document, written atomically on every turn.
//
// The store assumes a single writer per session: exactly one orchestrator
// owns a session at a time. This is a stated constraint, not something the
// store enforces.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/roundtable-dev/roundtable/internal/discussion"
	"github.com/roundtable-dev/roundtable/internal/errors"
	"github.com/roundtable-dev/roundtable/internal/logging"
)

// StateFileName is the checkpoint document name within a session directory.
const StateFileName = "state.json"

// Store is a file-based checkpoint store rooted at a base directory.
type Store struct {
	baseDir string
	logger  *logging.Logger
}

// NewStore creates a Store rooted at the given directory.
// The directory will be created if it doesn't exist.
func NewStore(baseDir string, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Store{baseDir: baseDir, logger: logger}, nil
}

// SessionDir returns the storage path for a session.
func (s *Store) SessionDir(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID)
}

// statePath returns the checkpoint document path for a session.
func (s *Store) statePath(sessionID string) string {
	return filepath.Join(s.SessionDir(sessionID), StateFileName)
}

// Load returns the persisted state for a session, or a fresh state for the
// given topic when no checkpoint exists. A checkpoint that cannot be read or
// decoded degrades to a fresh state with a logged warning; corruption never
// propagates past this boundary.
func (s *Store) Load(sessionID, topic string) *discussion.State {
	state, err := s.read(sessionID)
	if err != nil {
		if !errors.Is(err, errors.ErrCheckpointNotFound) {
			s.logger.WithSession(sessionID).Warn("discarding unreadable checkpoint, starting fresh",
				"error", err)
		}
		return discussion.NewState(topic)
	}
	return state
}

// read decodes and validates the checkpoint document for a session.
// Unknown fields are ignored so newer checkpoints stay forward-readable.
func (s *Store) read(sessionID string) (*discussion.State, error) {
	path := s.statePath(sessionID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewCheckpointError("no checkpoint on disk", errors.ErrCheckpointNotFound).
				WithSessionID(sessionID).WithPath(path)
		}
		return nil, errors.NewCheckpointError("failed to read checkpoint", err).
			WithSessionID(sessionID).WithPath(path)
	}

	var state discussion.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.NewCheckpointError("failed to decode checkpoint", errors.ErrCheckpointCorrupted).
			WithSessionID(sessionID).WithPath(path)
	}
	if err := state.Validate(); err != nil {
		return nil, errors.NewCheckpointError("checkpoint failed validation", errors.ErrCheckpointCorrupted).
			WithSessionID(sessionID).WithPath(path)
	}
	if state.History == nil {
		state.History = []discussion.Message{}
	}

	return &state, nil
}

// Save persists a session's state using an atomic write so a crash mid-save
// never leaves a half-written checkpoint.
func (s *Store) Save(sessionID string, state *discussion.State) error {
	if sessionID == "" {
		return errors.NewCheckpointError("session ID cannot be empty", errors.ErrInvalidInput)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.NewCheckpointError("failed to marshal state", err).WithSessionID(sessionID)
	}

	dir := s.SessionDir(sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewCheckpointError("failed to create session directory", err).WithSessionID(sessionID)
	}

	return atomicWriteFile(s.statePath(sessionID), data, 0644)
}

// Exists checks whether a checkpoint document exists for a session.
func (s *Store) Exists(sessionID string) bool {
	_, err := os.Stat(s.statePath(sessionID))
	return err == nil
}

// Delete removes a session and all associated data.
func (s *Store) Delete(sessionID string) error {
	dir := s.SessionDir(sessionID)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return errors.NewCheckpointError("nothing to delete", errors.ErrCheckpointNotFound).
				WithSessionID(sessionID)
		}
		return errors.NewCheckpointError("failed to check session directory", err).WithSessionID(sessionID)
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.NewCheckpointError("failed to delete session directory", err).WithSessionID(sessionID)
	}
	return nil
}

// Info summarizes a persisted session for listings.
type Info struct {
	SessionID        string
	Topic            string
	Turn             int
	ConsensusReached bool
	UpdatedAt        time.Time
}

// List returns summary information for all sessions with a readable
// checkpoint, most recently updated first. Unreadable checkpoints are
// skipped with a logged warning.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint directory: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sessionID := entry.Name()

		stat, err := os.Stat(s.statePath(sessionID))
		if err != nil {
			continue // no checkpoint document yet
		}

		state, err := s.read(sessionID)
		if err != nil {
			s.logger.WithSession(sessionID).Warn("skipping unreadable checkpoint in listing", "error", err)
			continue
		}

		infos = append(infos, Info{
			SessionID:        sessionID,
			Topic:            state.Topic,
			Turn:             state.Turn,
			ConsensusReached: state.ConsensusReached,
			UpdatedAt:        stat.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// atomicWriteFile writes data to a file atomically by writing to a temporary
// file first, then renaming. This ensures the target file is never in a
// partially-written state.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	// Create temp file in same directory to ensure atomic rename
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on any error
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
