package main

import (
	"errors"
	"fmt"
	"math"
)

// Kill attempt rejections. None of these are ever reported to clients; they
// exist for logs and metrics.
var (
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrWrongPhase      = errors.New("wrong phase")
	ErrNotKiller       = errors.New("actor is not the killer")
	ErrInvalidTarget   = errors.New("target is not a living hider")
	ErrInvalidGeometry = errors.New("invalid geometry")

	ErrOutOfRange    = fmt.Errorf("%w: out of range", ErrInvalidGeometry)
	ErrOutsideCone   = fmt.Errorf("%w: outside detection cone", ErrInvalidGeometry)
	ErrNoLineOfSight = fmt.Errorf("%w: line of sight blocked", ErrInvalidGeometry)
)

// SightChecker answers line-of-sight queries
type SightChecker interface {
	CanSee(x1, y1, x2, y2 float64) bool
}

// CheckKill decides whether killer may eliminate target right now. The
// checks run in a fixed order and the first failure is returned.
func CheckKill(phase Phase, killer, target *Player, rules Rules, sight SightChecker) error {
	if phase != PhaseHunt {
		return ErrWrongPhase
	}
	if killer == nil || target == nil {
		return ErrUnknownPlayer
	}
	if killer.Role != RoleKiller || !killer.Alive {
		return ErrNotKiller
	}
	if !target.Alive || target.Role != RoleHider {
		return ErrInvalidTarget
	}

	if Distance(killer.X, killer.Y, target.X, target.Y) > rules.KillRange {
		return ErrOutOfRange
	}
	if !InCone(killer.Angle, target.X-killer.X, target.Y-killer.Y, rules.KillCone()) {
		return ErrOutsideCone
	}
	if !sight.CanSee(killer.X, killer.Y, target.X, target.Y) {
		return ErrNoLineOfSight
	}
	return nil
}

// InCone reports whether the vector (dx,dy) lies strictly within halfWidth
// of the facing angle
func InCone(facing, dx, dy, halfWidth float64) bool {
	diff := NormalizeAngle(math.Atan2(dy, dx) - facing)
	return math.Abs(diff) < halfWidth
}
