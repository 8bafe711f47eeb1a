package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/awylder/deskwatch/internal/config"
	"github.com/awylder/deskwatch/internal/daemon"
	"github.com/awylder/deskwatch/internal/setup"
	"github.com/awylder/deskwatch/internal/store"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:   "deskwatch",
		Short: "🖥️ deskwatch — Personal desktop activity notifier",
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file path")

	root.AddCommand(
		runCmd(),
		statusCmd(),
		testCmd(),
		setupCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var (
		interval string
		dir      string
		focus    bool
		apps     bool
		network  bool
		storage  bool
		dls      bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the deskwatch daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("loading config (run `deskwatch setup` first?): %w", err)
			}

			// CLI flags override the file only when explicitly set.
			flags := cmd.Flags()
			if flags.Changed("interval") {
				cfg.Watchers.PollInterval = interval
			}
			if flags.Changed("dir") {
				cfg.Watchers.DownloadsDir = dir
			}
			if flags.Changed("focus") {
				cfg.Watchers.Focus = focus
			}
			if flags.Changed("apps") {
				cfg.Watchers.Apps = apps
			}
			if flags.Changed("network") {
				cfg.Watchers.Network = network
			}
			if flags.Changed("storage") {
				cfg.Watchers.Storage = storage
			}
			if flags.Changed("downloads") {
				cfg.Watchers.Downloads = dls
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			})))

			d, err := daemon.New(cfg)
			if err != nil {
				return fmt.Errorf("initializing daemon: %w", err)
			}

			return d.Run()
		},
	}

	cmd.Flags().StringVar(&interval, "interval", "5s", "polling interval")
	cmd.Flags().StringVar(&dir, "dir", "", "watched directory")
	cmd.Flags().BoolVar(&focus, "focus", true, "watch foreground application")
	cmd.Flags().BoolVar(&apps, "apps", true, "watch visible applications")
	cmd.Flags().BoolVar(&network, "network", true, "watch wireless association")
	cmd.Flags().BoolVar(&storage, "storage", true, "watch removable storage events")
	cmd.Flags().BoolVar(&dls, "downloads", true, "watch the downloads directory")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			path, enabled := historyStorePath(cfg)
			if !enabled {
				fmt.Println("🖥️  deskwatch status")
				fmt.Println("─────────────────────────")
				fmt.Println("  History is disabled; no events are recorded.")
				fmt.Println("  Enable it with history.enabled: true in the config.")
				return nil
			}

			db, err := store.Open(path)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer db.Close()

			events, err := db.GetRecentEvents(24)
			if err != nil {
				return err
			}

			lastEvent, _ := db.GetLastEventTime()
			count24h, _ := db.GetEventCount(24)

			fmt.Println("🖥️  deskwatch status")
			fmt.Println("─────────────────────────")
			fmt.Printf("  Events (24h):  %d\n", count24h)
			fmt.Printf("  Last event:    %s\n", lastEvent)
			fmt.Println()

			if len(events) > 0 {
				fmt.Println("  Recent events:")
				limit := 10
				if len(events) < limit {
					limit = len(events)
				}
				for _, e := range events[:limit] {
					fmt.Printf("    %s %s %s\n",
						e.Timestamp.Format("15:04"),
						e.Severity.Emoji(),
						e.Message,
					)
				}
			} else {
				fmt.Println("  No events in last 24 hours")
			}
			return nil
		},
	}
}

// historyStorePath resolves where status reads events from. The second
// return is false when history is disabled.
func historyStorePath(cfg *config.Config) (string, bool) {
	if !cfg.History.Enabled {
		return "", false
	}
	if cfg.History.Path != "" {
		return cfg.History.Path, true
	}
	return store.DefaultPath(), true
}

func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			d, err := daemon.New(cfg)
			if err != nil {
				return err
			}

			fmt.Println("🖥️  Sending test notification...")
			if err := d.TestNotifier(); err != nil {
				return err
			}
			fmt.Println("✅ Test notification sent!")
			return nil
		},
	}
}

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return setup.Run(cfgPath, filepath.Join(filepath.Dir(cfgPath), "env"))
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("deskwatch v%s\n", daemon.Version)
		},
	}
}
