package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/awylder/deskwatch/pkg/models"
)

// DefaultPath returns the per-user event history location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "deskwatch-events.db"
	}
	return filepath.Join(home, ".local", "share", "deskwatch", "events.db")
}

// Store persists the event history in SQLite
type Store struct {
	db *sql.DB
}

// Open creates or opens the SQLite database
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			severity INTEGER NOT NULL,
			hostname TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			message TEXT NOT NULL,
			details TEXT,
			source TEXT,
			payload TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
		CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
	`)
	return err
}

// SaveEvent persists an event to the database
func (s *Store) SaveEvent(event models.Event) error {
	payload, _ := json.Marshal(event)
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO events (id, type, severity, hostname, timestamp, message, details, source, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Type, event.Severity, event.Hostname, event.Timestamp,
		event.Message, event.Details, event.Source, string(payload),
	)
	return err
}

// GetRecentEvents returns events from the last N hours
func (s *Store) GetRecentEvents(hours int) ([]models.Event, error) {
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	rows, err := s.db.Query(`
		SELECT payload FROM events
		WHERE timestamp > ?
		ORDER BY timestamp DESC
		LIMIT 100`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			continue
		}
		var event models.Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// GetEventCount returns the number of events in the last N hours
func (s *Store) GetEventCount(hours int) (int, error) {
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE timestamp > ?`, since).Scan(&count)
	return count, err
}

// GetLastEventTime returns a human-readable age of the newest event
func (s *Store) GetLastEventTime() (string, error) {
	var timestamp time.Time
	err := s.db.QueryRow(`
		SELECT timestamp FROM events
		ORDER BY timestamp DESC
		LIMIT 1`).Scan(&timestamp)
	if err != nil {
		return "never", nil
	}

	diff := time.Since(timestamp)
	if diff < time.Hour {
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes())), nil
	}
	if diff < 24*time.Hour {
		return fmt.Sprintf("%d hours ago", int(diff.Hours())), nil
	}
	return fmt.Sprintf("%d days ago", int(diff.Hours()/24)), nil
}

// Prune removes events older than N days
func (s *Store) Prune(days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	result, err := s.db.Exec(`DELETE FROM events WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
