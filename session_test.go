package main

import (
	"errors"
	"testing"
)

func TestSessionAdvanceOrder(t *testing.T) {
	s := NewSession(NewTimer(&fakeClock{}, immediate))
	for _, to := range []Phase{PhaseHide, PhaseHunt, PhaseResult, PhaseLobby} {
		if err := s.advance(to); err != nil {
			t.Fatalf("advance to %s: %v", to, err)
		}
	}
	if s.Phase != PhaseLobby {
		t.Errorf("expected lobby after full cycle, got %s", s.Phase)
	}
}

func TestSessionRejectsSkips(t *testing.T) {
	cases := []struct {
		from, to Phase
	}{
		{PhaseLobby, PhaseHunt},
		{PhaseLobby, PhaseResult},
		{PhaseHunt, PhaseHide},
		{PhaseResult, PhaseHide},
		{PhaseHunt, PhaseLobby},
	}
	for _, tc := range cases {
		s := &Session{Phase: tc.from}
		if err := s.advance(tc.to); !errors.Is(err, ErrBadTransition) {
			t.Errorf("%s -> %s: expected ErrBadTransition, got %v", tc.from, tc.to, err)
		}
		if s.Phase != tc.from {
			t.Errorf("%s -> %s: phase changed to %s", tc.from, tc.to, s.Phase)
		}
	}
}

func TestSessionHideCanEndRound(t *testing.T) {
	s := &Session{Phase: PhaseHide}
	if err := s.advance(PhaseResult); err != nil {
		t.Errorf("expected hide -> result to be allowed, got %v", err)
	}
}
