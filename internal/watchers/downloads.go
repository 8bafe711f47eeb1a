package watchers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/awylder/deskwatch/internal/config"
	"github.com/awylder/deskwatch/internal/eventbus"
	"github.com/awylder/deskwatch/internal/throttle"
	"github.com/awylder/deskwatch/pkg/models"
)

const (
	downloadCooldown = 30 * time.Second
	// recentWindow bounds the per-file scan after a directory-level change.
	// The directory mtime moves on any entry add/remove/rename rather than
	// per file content change, so a coarse recent-files window substitutes
	// for precise change detection. Files can be re-reported or missed at
	// the window edges; the per-file throttle caps the noise.
	recentWindow = 2 * time.Minute
)

// DownloadsWatcher polls the watched directory's modification time and, when
// it advances, reports regular files modified within the recent window.
type DownloadsWatcher struct {
	Base
	interval  time.Duration
	dir       string
	lastMtime int64 // unix seconds of the last observed directory mtime
}

func NewDownloadsWatcher(cfg *config.Config, bus *eventbus.Bus, gate *throttle.Gate) *DownloadsWatcher {
	return &DownloadsWatcher{
		Base:     Base{Cfg: cfg, Bus: bus, Gate: gate},
		interval: cfg.Interval(),
		dir:      cfg.Watchers.DownloadsDir,
	}
}

func (w *DownloadsWatcher) Name() string { return "downloads" }
func (w *DownloadsWatcher) Stop() error  { return nil }

func (w *DownloadsWatcher) Start(ctx context.Context) error {
	slog.Info("starting downloads watcher", "dir", w.dir, "interval", w.interval)

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

func (w *DownloadsWatcher) check() {
	info, err := os.Stat(w.dir)
	if err != nil {
		slog.Debug("downloads dir unavailable", "dir", w.dir, "error", err)
		return
	}

	mtime := info.ModTime().Unix()
	if mtime > w.lastMtime {
		w.scan()
	}
	w.lastMtime = mtime
}

func (w *DownloadsWatcher) scan() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		slog.Debug("downloads scan failed", "dir", w.dir, "error", err)
		return
	}

	cutoff := time.Now().Add(-recentWindow)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if fi.ModTime().Before(cutoff) {
			continue
		}
		if w.Gate.Allow("dl_"+entry.Name(), downloadCooldown) {
			w.publish(models.EventFileUpdated, "downloads", entry.Name()+" updated", "")
		}
	}
}
