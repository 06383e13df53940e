package main

import "testing"

func TestMetricsSnapshot(t *testing.T) {
	var m GameMetrics
	m.IncJoin()
	m.IncJoin()
	m.IncKillRejected()
	m.IncStaleTick()

	snap := m.Snapshot()
	if snap["joins"] != int64(2) {
		t.Errorf("expected 2 joins, got %v", snap["joins"])
	}
	if snap["kills_rejected"] != int64(1) || snap["stale_ticks"] != int64(1) {
		t.Errorf("unexpected snapshot %v", snap)
	}
	if snap["kills_confirmed"] != int64(0) {
		t.Errorf("expected no confirmed kills, got %v", snap["kills_confirmed"])
	}
}
