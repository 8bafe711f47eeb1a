package notifiers

import "github.com/awylder/deskwatch/pkg/models"

// Notifier sends notifications to the configured chat recipient.
// Delivery is best-effort: callers log and swallow returned errors.
type Notifier interface {
	// Name returns the notifier identifier
	Name() string
	// Send delivers an event notification
	Send(event models.Event) error
	// SendRaw sends a pre-formatted message (startup/shutdown banners)
	SendRaw(message string) error
	// Test sends a test notification to verify configuration
	Test() error
}
