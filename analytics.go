package main

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"
)

// Event types for analytics tracking
const (
	EvtRoundStart = "round_start"
	EvtRoundEnd   = "round_end"
	EvtKill       = "kill"
	EvtJoin       = "join"
	EvtLeave      = "leave"
)

// Recorder receives game events for persistence. Implementations must not block.
type Recorder interface {
	Track(evtType, playerID, roundID string, data map[string]any)
	TrackRound(row RoundRow)
}

type nopRecorder struct{}

func (nopRecorder) Track(string, string, string, map[string]any) {}
func (nopRecorder) TrackRound(RoundRow)                          {}

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	PlayerID  string
	RoundID   string
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// Analytics handles event tracking with batched background writes
type Analytics struct {
	db     *DB
	events chan AnalyticsEvent
	rounds chan RoundRow
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	flushEvery time.Duration
	batchSize  int
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:         db,
		events:     make(chan AnalyticsEvent, 1024),
		rounds:     make(chan RoundRow, 64),
		stop:       make(chan struct{}),
		flushEvery: 5 * time.Second,
		batchSize:  50,
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType, playerID, roundID string, data map[string]any) {
	var encoded string
	if len(data) > 0 {
		if b, err := json.Marshal(data); err == nil {
			encoded = string(b)
		}
	}
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		PlayerID:  playerID,
		RoundID:   roundID,
		Data:      encoded,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// channel full, drop
		Log.Warnw("analytics event dropped", "type", evtType)
	}
}

// TrackRound enqueues a finished round (non-blocking)
func (a *Analytics) TrackRound(row RoundRow) {
	select {
	case a.rounds <- row:
	default:
		Log.Warnw("round record dropped", "round", row.ID)
	}
}

// Stop flushes pending writes and shuts down the writer
func (a *Analytics) Stop() {
	a.once.Do(func() { close(a.stop) })
	a.wg.Wait()
}

func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, a.batchSize)
	ticker := time.NewTicker(a.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= a.batchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case row := <-a.rounds:
			a.saveRound(row)
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				case row := <-a.rounds:
					a.saveRound(row)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

func (a *Analytics) saveRound(row RoundRow) {
	if a.db == nil {
		return
	}
	if err := a.db.RecordRound(row); err != nil {
		Log.Errorw("analytics: record round", "round", row.ID, "err", err)
	}
}

// flush writes a batch of events in one transaction
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		Log.Errorw("analytics: begin tx", "err", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, player_id, round_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		Log.Errorw("analytics: prepare", "err", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		pid := sql.NullString{String: evt.PlayerID, Valid: evt.PlayerID != ""}
		rid := sql.NullString{String: evt.RoundID, Valid: evt.RoundID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, pid, rid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			Log.Errorw("analytics: insert", "type", evt.Type, "err", err)
		}
	}
	if err := tx.Commit(); err != nil {
		Log.Errorw("analytics: commit", "err", err)
	}
}
