// Package session implements the interactive selection workflow over a set
// of upgrade candidates as an explicit state machine, decoupled from any
// rendering surface. The render model is a pure projection of session state.
package session

import (
	"errors"
	"fmt"
	"sort"

	"github.com/qxxt/pkgup/internal/upgrade"
)

var (
	// ErrSessionClosed is returned for any operation after the session
	// reached Confirmed or Cancelled. This is a usage error, not a user
	// outcome.
	ErrSessionClosed = errors.New("selection session is closed")

	// ErrNothingSelected is returned by Confirm when no candidate is
	// selected; the session stays Open.
	ErrNothingSelected = errors.New("nothing to do: no packages selected")
)

// Status is the session lifecycle state.
type Status int

const (
	Open Status = iota
	Confirmed
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	default:
		return "open"
	}
}

// Session is a single-shot selection over an immutable candidate snapshot.
// It is mutated only through the operations below while Open; Confirm and
// Cancel are terminal.
type Session struct {
	candidates upgrade.CandidateSet
	selected   map[int]bool
	status     Status
}

// New creates an Open session over a private copy of candidates.
func New(candidates upgrade.CandidateSet) *Session {
	snapshot := make(upgrade.CandidateSet, len(candidates))
	copy(snapshot, candidates)
	return &Session{
		candidates: snapshot,
		selected:   make(map[int]bool),
		status:     Open,
	}
}

// Len returns the number of candidates in the snapshot.
func (s *Session) Len() int {
	return len(s.candidates)
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	return s.status
}

// Candidates returns the immutable candidate snapshot.
func (s *Session) Candidates() upgrade.CandidateSet {
	return s.candidates
}

// Selected reports whether the candidate at index is currently selected.
func (s *Session) Selected(index int) bool {
	return s.selected[index]
}

// SelectedCount returns how many candidates are selected.
func (s *Session) SelectedCount() int {
	return len(s.selected)
}

func (s *Session) checkOpen() error {
	if s.status != Open {
		return fmt.Errorf("%w (%s)", ErrSessionClosed, s.status)
	}
	return nil
}

func (s *Session) checkIndex(index int) error {
	if index < 0 || index >= len(s.candidates) {
		return fmt.Errorf("candidate index %d out of range [0, %d)", index, len(s.candidates))
	}
	return nil
}

// Select marks the candidate at index for upgrade. Idempotent.
func (s *Session) Select(index int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.selected[index] = true
	return nil
}

// Unselect removes the candidate at index from the selection. Idempotent.
func (s *Session) Unselect(index int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.checkIndex(index); err != nil {
		return err
	}
	delete(s.selected, index)
	return nil
}

// SelectAll selects every candidate in one step.
func (s *Session) SelectAll() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	for i := range s.candidates {
		s.selected[i] = true
	}
	return nil
}

// UnselectAll clears the selection in one step.
func (s *Session) UnselectAll() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.selected = make(map[int]bool)
	return nil
}

// Confirm closes the session and returns the final selection in candidate
// order, exactly once. With an empty selection the transition is refused
// and the session stays Open, reported as ErrNothingSelected.
func (s *Session) Confirm() ([]int, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if len(s.selected) == 0 {
		return nil, ErrNothingSelected
	}

	final := make([]int, 0, len(s.selected))
	for i := range s.selected {
		final = append(final, i)
	}
	sort.Ints(final)

	s.status = Confirmed
	s.selected = nil
	return final, nil
}

// Cancel closes the session unconditionally, discarding the selection.
func (s *Session) Cancel() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.status = Cancelled
	s.selected = nil
	return nil
}
