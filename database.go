package main

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// RoundRow is one finished round
type RoundRow struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Winner    string    `json:"winner"`
	Reason    string    `json:"reason"`
	KillerID  string    `json:"killer_id"`
	Players   int       `json:"players"`
	Kills     int       `json:"kills"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rounds (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		ended_at TEXT NOT NULL,
		winner TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		killer_id TEXT NOT NULL DEFAULT '',
		players INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		player_id TEXT,
		round_id TEXT,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rounds_ended ON rounds(ended_at);
	CREATE INDEX IF NOT EXISTS idx_events_type ON analytics_events(event_type, created_at);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// RecordRound stores a finished round
func (db *DB) RecordRound(r RoundRow) error {
	_, err := db.conn.Exec(
		`INSERT INTO rounds (id, started_at, ended_at, winner, reason, killer_id, players, kills)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.EndedAt.UTC().Format(time.RFC3339),
		r.Winner, r.Reason, r.KillerID, r.Players, r.Kills,
	)
	return err
}

// RecentRounds returns the latest rounds, newest first
func (db *DB) RecentRounds(limit int) ([]RoundRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, started_at, ended_at, winner, reason, killer_id, players, kills
		FROM rounds
		ORDER BY ended_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RoundRow
	for rows.Next() {
		var r RoundRow
		var started, ended string
		if err := rows.Scan(&r.ID, &started, &ended, &r.Winner, &r.Reason, &r.KillerID, &r.Players, &r.Kills); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.EndedAt, _ = time.Parse(time.RFC3339, ended)
		result = append(result, r)
	}
	return result, rows.Err()
}

// WinCounts returns how many rounds each side has won
func (db *DB) WinCounts() (map[string]int, error) {
	rows, err := db.conn.Query(`SELECT winner, COUNT(*) FROM rounds GROUP BY winner`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var winner string
		var count int
		if err := rows.Scan(&winner, &count); err != nil {
			return nil, err
		}
		result[winner] = count
	}
	return result, rows.Err()
}

// EventCounts returns counts of each event type for the last N days
func (db *DB) EventCounts(days int) (map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= strftime('%Y-%m-%dT%H:%M:%SZ', 'now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}
