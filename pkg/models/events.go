package models

import "time"

// Severity levels for events
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	}
	return "unknown"
}

func (s Severity) Emoji() string {
	if s == SeverityWarning {
		return "🟡"
	}
	return "ℹ️"
}

// EventType categorises what happened
type EventType string

const (
	EventFocusChanged    EventType = "focus.changed"
	EventAppLaunched     EventType = "app.launched"
	EventAppQuit         EventType = "app.quit"
	EventNetworkChanged  EventType = "network.ssid_changed"
	EventStorageActivity EventType = "storage.io_event"
	EventFileUpdated     EventType = "download.updated"
)

// Event is the core event structure that flows through the system
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`
	Hostname  string    `json:"hostname"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Details   string    `json:"details"` // Extended info
	Source    string    `json:"source"`  // Which watcher generated this
}
