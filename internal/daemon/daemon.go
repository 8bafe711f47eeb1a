package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/awylder/deskwatch/internal/config"
	"github.com/awylder/deskwatch/internal/eventbus"
	"github.com/awylder/deskwatch/internal/notifiers"
	"github.com/awylder/deskwatch/internal/store"
	"github.com/awylder/deskwatch/internal/throttle"
	"github.com/awylder/deskwatch/internal/watchers"
	"github.com/awylder/deskwatch/pkg/models"
)

// Version is set at build time via ldflags: -X github.com/awylder/deskwatch/internal/daemon.Version=<tag>
var Version = "dev"

// shutdownGrace bounds how long shutdown waits for watcher goroutines.
const shutdownGrace = 5 * time.Second

// Daemon is the main deskwatch process
type Daemon struct {
	cfg      *config.Config
	bus      *eventbus.Bus
	gate     *throttle.Gate
	store    *store.Store // nil when history is disabled
	watchers []watchers.Watcher
	notifier notifiers.Notifier
}

// New creates a new daemon instance
func New(cfg *config.Config) (*Daemon, error) {
	d := &Daemon{
		cfg:      cfg,
		bus:      eventbus.New(),
		gate:     throttle.NewGate(),
		notifier: notifiers.NewTelegram(cfg.Telegram),
	}

	if cfg.History.Enabled {
		path := cfg.History.Path
		if path == "" {
			path = store.DefaultPath()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
		db, err := store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		d.store = db
	}

	// Register enabled watchers
	if cfg.Watchers.Focus {
		d.watchers = append(d.watchers, watchers.NewFocusWatcher(cfg, d.bus, d.gate))
	}
	if cfg.Watchers.Apps {
		d.watchers = append(d.watchers, watchers.NewAppsWatcher(cfg, d.bus, d.gate))
	}
	if cfg.Watchers.Network {
		d.watchers = append(d.watchers, watchers.NewNetworkWatcher(cfg, d.bus, d.gate))
	}
	if cfg.Watchers.Storage {
		d.watchers = append(d.watchers, watchers.NewStorageWatcher(cfg, d.bus, d.gate))
	}
	if cfg.Watchers.Downloads {
		d.watchers = append(d.watchers, watchers.NewDownloadsWatcher(cfg, d.bus, d.gate))
	}

	return d, nil
}

// Run starts the daemon and blocks until interrupted
func (d *Daemon) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return d.run(ctx)
}

func (d *Daemon) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.bus.Subscribe(d.handleEvent)

	hostname, _ := os.Hostname()
	slog.Info("deskwatch started",
		"version", Version,
		"hostname", hostname,
		"watchers", len(d.watchers),
	)

	// Startup notification goes out before any watcher runs, so it always
	// precedes the first watcher notification.
	if err := d.notifier.SendRaw(fmt.Sprintf("🖥️ <b>deskwatch started</b> on %s\nVersion %s | %d watchers",
		hostname, Version, len(d.watchers))); err != nil {
		slog.Warn("startup notification failed", "error", err)
	}

	// Any watcher that dies takes the whole process down: a silently dead
	// watcher would give false security for the rest of the session.
	failed := make(chan error, len(d.watchers))

	var wg sync.WaitGroup
	for _, w := range d.watchers {
		wg.Add(1)
		go func(w watchers.Watcher) {
			defer wg.Done()
			slog.Info("starting watcher", "name", w.Name())
			if err := w.Start(ctx); err != nil {
				slog.Error("watcher failed", "name", w.Name(), "error", err)
				select {
				case failed <- fmt.Errorf("%s watcher: %w", w.Name(), err):
				default:
				}
			}
		}(w)
	}

	if d.store != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.runPrune(ctx)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
	case runErr = <-failed:
		slog.Error("watcher exited unexpectedly, shutting down", "error", runErr)
	}
	cancel()

	// Bounded grace period for watcher goroutines to unwind.
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		slog.Warn("watchers did not stop within grace period")
	}

	for _, w := range d.watchers {
		_ = w.Stop()
	}

	_ = d.notifier.SendRaw(fmt.Sprintf("🖥️ <b>deskwatch stopped</b> on %s", hostname))

	if d.store != nil {
		_ = d.store.Close()
	}

	slog.Info("deskwatch stopped")
	return runErr
}

func (d *Daemon) handleEvent(event models.Event) {
	// Watchers throttle before publishing; everything arriving here is sent.
	if d.store != nil {
		if err := d.store.SaveEvent(event); err != nil {
			slog.Error("failed to save event", "error", err)
		}
	}

	if err := d.notifier.Send(event); err != nil {
		// Best effort: a lost notification is just lost.
		slog.Warn("notification failed", "notifier", d.notifier.Name(), "error", err)
	}
}

func (d *Daemon) runPrune(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, _ := d.store.Prune(d.cfg.History.RetentionDays)
			if pruned > 0 {
				slog.Info("pruned old events", "count", pruned)
			}
		}
	}
}

// TestNotifier sends a test message to the configured channel
func (d *Daemon) TestNotifier() error {
	slog.Info("testing notifier", "name", d.notifier.Name())
	if err := d.notifier.Test(); err != nil {
		return fmt.Errorf("%s: %w", d.notifier.Name(), err)
	}
	slog.Info("notifier OK", "name", d.notifier.Name())
	return nil
}
