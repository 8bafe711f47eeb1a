package watchers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/awylder/deskwatch/internal/config"
	"github.com/awylder/deskwatch/internal/eventbus"
	"github.com/awylder/deskwatch/internal/throttle"
	"github.com/awylder/deskwatch/pkg/models"
)

// Watcher is the interface all signal watchers implement
type Watcher interface {
	// Name returns the watcher identifier
	Name() string
	// Start begins watching. Blocks until context is cancelled.
	// A non-nil error means the watcher died unexpectedly.
	Start(ctx context.Context) error
	// Stop gracefully stops the watcher
	Stop() error
}

// Base provides common fields for all watchers. The throttle gate is the
// only state shared between watchers; everything else is loop-local.
type Base struct {
	Cfg  *config.Config
	Bus  *eventbus.Bus
	Gate *throttle.Gate
}

func (b *Base) publish(evType models.EventType, source, msg, details string) {
	hostname, _ := os.Hostname()
	b.Bus.Publish(models.Event{
		ID:        fmt.Sprintf("%s-%d", string(evType), time.Now().UnixNano()),
		Type:      evType,
		Severity:  models.SeverityInfo,
		Hostname:  hostname,
		Timestamp: time.Now(),
		Message:   msg,
		Details:   details,
		Source:    source,
	})
}
