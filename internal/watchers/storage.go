package watchers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/awylder/deskwatch/internal/config"
	"github.com/awylder/deskwatch/internal/eventbus"
	"github.com/awylder/deskwatch/internal/throttle"
	"github.com/awylder/deskwatch/pkg/models"
)

const ioCooldown = 2 * time.Second

// ioKeywords select removable-storage activity from the udev event stream.
// Matching is case-insensitive.
var ioKeywords = []string{"usb", "attached", "detached", "mount", "unmount", "volume"}

// StorageWatcher subscribes to the udev event stream for the usb and block
// subsystems. One physical plug/unplug produces a burst of related lines, so
// all matches share a single throttle key.
type StorageWatcher struct {
	Base
	openStream func(ctx context.Context) (io.ReadCloser, func() error, error) // injectable for tests
}

func NewStorageWatcher(cfg *config.Config, bus *eventbus.Bus, gate *throttle.Gate) *StorageWatcher {
	w := &StorageWatcher{
		Base: Base{Cfg: cfg, Bus: bus, Gate: gate},
	}
	w.openStream = openUdevStream
	return w
}

func (w *StorageWatcher) Name() string { return "storage" }
func (w *StorageWatcher) Stop() error  { return nil }

// Start blocks reading the event stream until the context is cancelled.
// An unexpected end of stream is returned as an error: a dead storage
// watcher would otherwise go unnoticed for the rest of the session.
func (w *StorageWatcher) Start(ctx context.Context) error {
	slog.Info("starting storage watcher")

	stream, wait, err := w.openStream(ctx)
	if err != nil {
		return fmt.Errorf("opening udev event stream: %w", err)
	}
	defer stream.Close()

	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		w.handleLine(scanner.Text())
	}

	werr := wait()
	if ctx.Err() != nil {
		return nil
	}
	if werr == nil {
		werr = scanner.Err()
	}
	return fmt.Errorf("udev event stream ended: %w", werr)
}

func (w *StorageWatcher) handleLine(line string) {
	if !matchIOLine(line) {
		return
	}
	if !w.Gate.Allow("io_event", ioCooldown) {
		return
	}
	w.publish(models.EventStorageActivity, "storage", "IO/Disks: "+trimIOLine(line), "")
}

// openUdevStream starts `udevadm monitor` limited to the usb and block
// subsystems. The context kills the subprocess on shutdown; the stream has
// no poll boundary of its own to observe cancellation.
func openUdevStream(ctx context.Context) (io.ReadCloser, func() error, error) {
	cmd := exec.CommandContext(ctx, "udevadm", "monitor", "--udev",
		"--subsystem-match=usb", "--subsystem-match=block")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	return stdout, cmd.Wait, nil
}

func matchIOLine(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range ioKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// trimIOLine strips the log-level/timestamp prefix up to the first colon.
// Lines without a colon pass through whole.
func trimIOLine(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return strings.TrimSpace(line)
}
