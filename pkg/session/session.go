// Package session implements a single running or completed campaign: the
// scheduler's findings/output sink plus the lifecycle state machine described
// for a session (Running -> Stopping -> Completed).
package session

import (
	"context"
	"sync"
	"time"

	"github.com/wardenlabs/bruteloom/pkg/plugin"
)

// State is a session's lifecycle state.
type State string

// Session lifecycle states.
const (
	StateRunning   State = "running"
	StateStopping  State = "stopping"
	StateCompleted State = "completed"
)

// Session is one running or completed campaign.
type Session struct {
	ID              string
	Client          string
	Argv            []string
	StartedAt       time.Time
	Plugin          string
	TargetSpec      string
	SearchSpaceSize uint64

	mu           sync.RWMutex
	attemptsDone uint64
	findings     []plugin.Loot
	output       []string
	state        State
	exitCode     int
	errMsg       string

	cancel context.CancelFunc
}

// New builds a Session in state Running.
func New(id, client string, argv []string, pluginID, targetSpec string, searchSpaceSize uint64) *Session {
	return &Session{
		ID:              id,
		Client:          client,
		Argv:            argv,
		StartedAt:       time.Now(),
		Plugin:          pluginID,
		TargetSpec:      targetSpec,
		SearchSpaceSize: searchSpaceSize,
		state:           StateRunning,
	}
}

// SetCancelFunc stores the cancellation function used by Stop.
func (s *Session) SetCancelFunc(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
}

// Loot appends a finding. Implements scheduler.Sink. A no-op once the
// session has completed.
func (s *Session) Loot(l *plugin.Loot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted {
		return
	}
	l.SessionID = s.ID
	s.findings = append(s.findings, *l)
}

// Output appends one diagnostic log line. Implements scheduler.Sink. A no-op
// once the session has completed.
func (s *Session) Output(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted {
		return
	}
	s.output = append(s.output, line)
}

// AttemptDone advances the monotonic attempt counter. Implements
// scheduler.Sink.
func (s *Session) AttemptDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attemptsDone++
}

// AttemptsDone returns the number of completed attempts observed so far.
func (s *Session) AttemptsDone() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attemptsDone
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Stop requests cooperative cancellation. Idempotent: stopping a session
// that is already Stopping or Completed returns true without side effects.
func (s *Session) Stop() bool {
	s.mu.Lock()
	cancel := s.cancel
	alreadyDone := s.state == StateCompleted
	if s.state == StateRunning {
		s.state = StateStopping
	}
	s.mu.Unlock()

	if alreadyDone {
		return true
	}
	if cancel != nil {
		cancel()
	}
	return true
}

// MarkStopping transitions Running -> Stopping, e.g. on single-match
// early-stop. A no-op outside of Running.
func (s *Session) MarkStopping() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.state = StateStopping
	}
}

// Complete transitions the session to Completed with the given exit code and
// optional error. Once Completed, Loot and Output become no-ops.
func (s *Session) Complete(exitCode int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateCompleted
	s.exitCode = exitCode
	if err != nil {
		s.errMsg = err.Error()
	}
}

// Snapshot is a point-in-time, JSON-serializable copy of a session, safe to
// read without holding the session's lock.
type Snapshot struct {
	ID              string        `json:"id"`
	Client          string        `json:"client"`
	Argv            []string      `json:"argv"`
	StartedAt       time.Time     `json:"started_at"`
	Plugin          string        `json:"plugin"`
	TargetSpec      string        `json:"target_spec"`
	SearchSpaceSize uint64        `json:"search_space_size"`
	AttemptsDone    uint64        `json:"attempts_done"`
	Findings        []plugin.Loot `json:"findings"`
	Output          []string      `json:"output"`
	State           State         `json:"state"`
	ExitCode        *int          `json:"exit_code,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// Snapshot takes a consistent, deep-copied view of the session for readers.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	findings := make([]plugin.Loot, len(s.findings))
	copy(findings, s.findings)
	output := make([]string, len(s.output))
	copy(output, s.output)
	argv := make([]string, len(s.Argv))
	copy(argv, s.Argv)

	snap := Snapshot{
		ID:              s.ID,
		Client:          s.Client,
		Argv:            argv,
		StartedAt:       s.StartedAt,
		Plugin:          s.Plugin,
		TargetSpec:      s.TargetSpec,
		SearchSpaceSize: s.SearchSpaceSize,
		AttemptsDone:    s.attemptsDone,
		Findings:        findings,
		Output:          output,
		State:           s.state,
		Error:           s.errMsg,
	}
	if s.state == StateCompleted {
		ec := s.exitCode
		snap.ExitCode = &ec
	}
	return snap
}

// Completed reports whether the session has reached a terminal state.
func (s *Session) Completed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateCompleted
}
