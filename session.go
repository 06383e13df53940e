package main

import (
	"errors"
	"fmt"
)

// ErrBadTransition is returned when a phase change would skip or reverse
var ErrBadTransition = errors.New("illegal phase transition")

// Session is the round state owned by the game goroutine: the current phase,
// the designated killer and the single live phase timer.
type Session struct {
	Phase    Phase
	KillerID string
	timer    *Timer
}

// NewSession creates a session idling in the lobby
func NewSession(timer *Timer) *Session {
	return &Session{Phase: PhaseLobby, timer: timer}
}

// InRound reports whether roles are assigned and kills can matter
func (s *Session) InRound() bool {
	return s.Phase == PhaseHide || s.Phase == PhaseHunt
}

// Remaining returns the seconds left on the phase timer
func (s *Session) Remaining() int {
	return s.timer.Remaining()
}

// advance moves to the next phase. Hide may end straight in Result when the
// round is decided before the hunt starts.
func (s *Session) advance(to Phase) error {
	if to != s.Phase.next() && !(s.Phase == PhaseHide && to == PhaseResult) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, s.Phase, to)
	}
	s.Phase = to
	return nil
}
