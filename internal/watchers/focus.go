package watchers

import (
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/awylder/deskwatch/internal/config"
	"github.com/awylder/deskwatch/internal/eventbus"
	"github.com/awylder/deskwatch/internal/throttle"
	"github.com/awylder/deskwatch/pkg/models"
)

const focusCooldown = 10 * time.Second

// FocusWatcher polls for the foreground application and reports changes.
// Rapid alt-tabbing between the same pair of apps is capped by a per-app
// throttle key.
type FocusWatcher struct {
	Base
	interval  time.Duration
	last      string                 // last frontmost app name
	sampleApp func() (string, error) // injectable for tests
}

func NewFocusWatcher(cfg *config.Config, bus *eventbus.Bus, gate *throttle.Gate) *FocusWatcher {
	w := &FocusWatcher{
		Base:     Base{Cfg: cfg, Bus: bus, Gate: gate},
		interval: cfg.Interval(),
	}
	w.sampleApp = frontmostApp
	return w
}

func (w *FocusWatcher) Name() string { return "focus" }
func (w *FocusWatcher) Stop() error  { return nil }

func (w *FocusWatcher) Start(ctx context.Context) error {
	slog.Info("starting focus watcher", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *FocusWatcher) check() {
	name, err := w.sampleApp()
	if err != nil || name == "" {
		// A transient failed read never overwrites the last valid value,
		// otherwise the next good read would report a bogus change.
		slog.Debug("focus sample unavailable", "error", err)
		return
	}
	if name == w.last {
		return
	}
	if w.Gate.Allow("focus_"+name, focusCooldown) {
		w.publish(models.EventFocusChanged, "focus", "Focus → "+name, "")
	}
	// Record the new value even when throttled so a flapping app does not
	// re-report on every tick once its cooldown expires.
	w.last = name
}

// frontmostApp resolves the active window to its owning process name.
// Returns an empty string when there is no active window or no X session.
func frontmostApp() (string, error) {
	out, err := exec.Command("xdotool", "getactivewindow", "getwindowpid").Output()
	if err != nil {
		return "", err
	}
	pid, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 32)
	if err != nil {
		return "", err
	}
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", err
	}
	return proc.Name()
}
