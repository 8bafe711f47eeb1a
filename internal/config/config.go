package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Watchers WatcherConfig  `yaml:"watchers"`
	History  HistoryConfig  `yaml:"history"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// WatcherConfig selects which signal sources run and how often they poll.
// It is resolved once at startup and never mutated afterwards.
type WatcherConfig struct {
	PollInterval string `yaml:"poll_interval"` // default: "5s"
	Focus        bool   `yaml:"focus"`
	Apps         bool   `yaml:"apps"`
	Network      bool   `yaml:"network"`
	Storage      bool   `yaml:"storage"`
	Downloads    bool   `yaml:"downloads"`
	DownloadsDir string `yaml:"downloads_dir"`
}

type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`           // empty: platform default
	RetentionDays int    `yaml:"retention_days"` // default: 30
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "deskwatch.yaml"
	}
	return filepath.Join(dir, "deskwatch", "config.yaml")
}

// Load reads and parses the config file, expanding env vars
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Credentials written by the setup wizard live in an env file next to
	// the config. Variables already set in the environment win.
	loadEnvFile(filepath.Join(filepath.Dir(path), "env"))

	// Expand environment variables in config
	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadEnvFile sets KEY=VALUE pairs from path into the process environment,
// skipping keys that are already set. A missing file is not an error.
func loadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}

// DefaultConfig returns sane defaults
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Watchers: WatcherConfig{
			PollInterval: "5s",
			Focus:        true,
			Apps:         true,
			Network:      true,
			Storage:      true,
			Downloads:    true,
			DownloadsDir: filepath.Join(home, "Downloads"),
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
	}
}

// Validate checks the config for errors
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram chat_id is required")
	}

	interval, err := time.ParseDuration(c.Watchers.PollInterval)
	if err != nil {
		return fmt.Errorf("invalid poll_interval %q: %w", c.Watchers.PollInterval, err)
	}
	if interval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %q", c.Watchers.PollInterval)
	}

	if c.Watchers.Downloads && strings.TrimSpace(c.Watchers.DownloadsDir) == "" {
		return fmt.Errorf("downloads_dir is required when the downloads watcher is enabled")
	}

	return nil
}

// Interval returns the parsed polling interval. Validate has already
// established that the value parses.
func (c *Config) Interval() time.Duration {
	interval, err := time.ParseDuration(c.Watchers.PollInterval)
	if err != nil || interval <= 0 {
		return 5 * time.Second
	}
	return interval
}
