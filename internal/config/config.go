// Package config loads blockshell settings from BLOCKSHELL_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	BundlePath string `env:"BLOCKSHELL_BUNDLE_PATH"`
	RemoteURL  string `env:"BLOCKSHELL_REMOTE_URL"`
	Mode       string `env:"BLOCKSHELL_MODE" envDefault:"local"`
	EntrySlug  string `env:"BLOCKSHELL_ENTRY_SLUG"`
	TabID      string `env:"BLOCKSHELL_TAB_ID"`

	StoreDriver string `env:"BLOCKSHELL_STORE_DRIVER" envDefault:"sqlite"`
	StoreDSN    string `env:"BLOCKSHELL_STORE_DSN"`

	PruneSchedule string        `env:"BLOCKSHELL_PRUNE_SCHEDULE" envDefault:"@hourly"`
	PruneMaxAge   time.Duration `env:"BLOCKSHELL_PRUNE_MAX_AGE" envDefault:"720h"`
	WatchBundle   bool          `env:"BLOCKSHELL_WATCH_BUNDLE" envDefault:"true"`

	LogLevel    string   `env:"BLOCKSHELL_LOG_LEVEL" envDefault:"info"`
	Permissions []string `env:"BLOCKSHELL_PERMISSIONS" envSeparator:","`
	Roles       []string `env:"BLOCKSHELL_ROLES" envSeparator:","`

	OTelEndpoint string `env:"BLOCKSHELL_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment, fills derived defaults and validates.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.StoreDSN == "" {
		cfg.StoreDSN = defaultDSN(cfg.StoreDriver)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DataDir is where file-backed stores live by default.
func DataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "blockshell")
}

func defaultDSN(driver string) string {
	switch driver {
	case "sqlite":
		return filepath.Join(DataDir(), "workspace.db")
	case "bolt":
		return filepath.Join(DataDir(), "workspace.bolt")
	}
	return ""
}

func (c Config) Validate() error {
	switch c.Mode {
	case "local":
		if c.BundlePath == "" && c.RemoteURL == "" {
			return fmt.Errorf("config: BLOCKSHELL_BUNDLE_PATH or BLOCKSHELL_REMOTE_URL is required")
		}
	case "remote":
		if c.RemoteURL == "" {
			return fmt.Errorf("config: remote mode requires BLOCKSHELL_REMOTE_URL")
		}
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	if c.PruneMaxAge <= 0 {
		return fmt.Errorf("config: BLOCKSHELL_PRUNE_MAX_AGE must be positive")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level maps LogLevel to a slog level.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
