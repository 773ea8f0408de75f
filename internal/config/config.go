// Package config supplies runtime settings to the application core.
// The core packages receive plain values; only this package and the CLI
// talk to viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mmex-tools/mmexplore/internal/common"
)

// Config holds everything the browsing core needs at startup.
type Config struct {
	// DatabasePath is the MoneyManagerEx SQLite file to browse.
	DatabasePath string

	// PageSize is the number of transactions per page.
	PageSize int

	// MaxConnections bounds the database handle pool.
	MaxConnections int

	// Workers bounds concurrent async query workers.
	Workers int

	// CacheSize is the maximum number of cached report payloads.
	CacheSize int

	// CacheTTL is how long a cached report payload stays valid.
	CacheTTL time.Duration

	// DefaultRangeDays is the date window applied when no range is given.
	DefaultRangeDays int

	// ExportFormat is the default export encoding (csv or json).
	ExportFormat string
}

// Default returns a Config with the standard defaults.
func Default() Config {
	return Config{
		PageSize:         50,
		MaxConnections:   5,
		Workers:          4,
		CacheSize:        10,
		CacheTTL:         5 * time.Minute,
		DefaultRangeDays: 30,
		ExportFormat:     "csv",
	}
}

// Load builds a Config from viper-bound flags and environment variables,
// falling back to defaults for anything unset.
func Load() (Config, error) {
	cfg := Default()

	if v := viper.GetString("database"); v != "" {
		cfg.DatabasePath = ExpandPath(v)
	}
	if v := viper.GetInt("page_size"); v > 0 {
		cfg.PageSize = v
	}
	if v := viper.GetInt("max_connections"); v > 0 {
		cfg.MaxConnections = v
	}
	if v := viper.GetInt("workers"); v > 0 {
		cfg.Workers = v
	}
	if v := viper.GetInt("cache_size"); v > 0 {
		cfg.CacheSize = v
	}
	if v := viper.GetDuration("cache_ttl"); v > 0 {
		cfg.CacheTTL = v
	}
	if v := viper.GetInt("range_days"); v > 0 {
		cfg.DefaultRangeDays = v
	}
	if v := viper.GetString("export_format"); v != "" {
		cfg.ExportFormat = v
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database path is required (--database or MMEXPLORE_DATABASE)", common.ErrMissingConfig)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page size must be positive", common.ErrInvalidConfig)
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("%w: max connections must be positive", common.ErrInvalidConfig)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", common.ErrInvalidConfig)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("%w: cache size must be positive", common.ErrInvalidConfig)
	}
	switch c.ExportFormat {
	case "csv", "json":
	default:
		return fmt.Errorf("%w: export format must be csv or json, got %q", common.ErrInvalidConfig, c.ExportFormat)
	}
	return nil
}

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	// First expand tilde if present
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	// Then expand environment variables
	return os.ExpandEnv(path)
}
