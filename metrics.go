package main

import "sync/atomic"

// GameMetrics counts session activity for the /metrics endpoint
type GameMetrics struct {
	Joins          int64
	Leaves         int64
	MovesAccepted  int64
	MovesRejected  int64
	KillsConfirmed int64
	KillsRejected  int64
	RoundsStarted  int64
	RoundsFinished int64
	StaleTicks     int64
	Malformed      int64
	RateLimited    int64
}

func (m *GameMetrics) IncJoin()          { atomic.AddInt64(&m.Joins, 1) }
func (m *GameMetrics) IncLeave()         { atomic.AddInt64(&m.Leaves, 1) }
func (m *GameMetrics) IncMoveAccepted()  { atomic.AddInt64(&m.MovesAccepted, 1) }
func (m *GameMetrics) IncMoveRejected()  { atomic.AddInt64(&m.MovesRejected, 1) }
func (m *GameMetrics) IncKillConfirmed() { atomic.AddInt64(&m.KillsConfirmed, 1) }
func (m *GameMetrics) IncKillRejected()  { atomic.AddInt64(&m.KillsRejected, 1) }
func (m *GameMetrics) IncRoundStarted()  { atomic.AddInt64(&m.RoundsStarted, 1) }
func (m *GameMetrics) IncRoundFinished() { atomic.AddInt64(&m.RoundsFinished, 1) }
func (m *GameMetrics) IncStaleTick()     { atomic.AddInt64(&m.StaleTicks, 1) }
func (m *GameMetrics) IncMalformed()     { atomic.AddInt64(&m.Malformed, 1) }
func (m *GameMetrics) IncRateLimited()   { atomic.AddInt64(&m.RateLimited, 1) }

// Snapshot returns a read-only copy for HTTP output
func (m *GameMetrics) Snapshot() map[string]any {
	return map[string]any{
		"joins":           atomic.LoadInt64(&m.Joins),
		"leaves":          atomic.LoadInt64(&m.Leaves),
		"moves_accepted":  atomic.LoadInt64(&m.MovesAccepted),
		"moves_rejected":  atomic.LoadInt64(&m.MovesRejected),
		"kills_confirmed": atomic.LoadInt64(&m.KillsConfirmed),
		"kills_rejected":  atomic.LoadInt64(&m.KillsRejected),
		"rounds_started":  atomic.LoadInt64(&m.RoundsStarted),
		"rounds_finished": atomic.LoadInt64(&m.RoundsFinished),
		"stale_ticks":     atomic.LoadInt64(&m.StaleTicks),
		"malformed":       atomic.LoadInt64(&m.Malformed),
		"rate_limited":    atomic.LoadInt64(&m.RateLimited),
	}
}
