// Package config loads agent-modules settings from a YAML file, the
// environment and defaults, in that order of precedence after flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rcliao/agent-modules/internal/lifecycle"
	"github.com/rcliao/agent-modules/internal/modules"
	"github.com/rcliao/agent-modules/internal/umid"
)

// Names used for the config directory and environment variables.
const (
	AppName   = "agent-modules"
	EnvPrefix = "AGENT_MODULES"
)

// Config is the resolved configuration for the CLI and the module service.
type Config struct {
	Service   string          `mapstructure:"service"`
	DBPath    string          `mapstructure:"db_path"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	Log       LogConfig       `mapstructure:"log"`
}

// LifecycleConfig holds the archive and remove thresholds.
type LifecycleConfig struct {
	ArchiveAfter time.Duration `mapstructure:"archive_after"`
	RemoveAfter  time.Duration `mapstructure:"remove_after"`
}

// SummaryConfig bounds the summary output.
type SummaryConfig struct {
	TopActive    int           `mapstructure:"top_active"`
	RecentWindow time.Duration `mapstructure:"recent_window"`
	RecentLimit  int           `mapstructure:"recent_limit"`
}

// LogConfig selects the log level and output format (text, json or logfmt).
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the built-in defaults: 30/90 day aging, a summary of
// ten top modules and five recent ones, and info-level text logs.
func DefaultConfig() *Config {
	policy := lifecycle.DefaultPolicy()
	sum := modules.DefaultSummaryOptions()
	return &Config{
		Service: AppName,
		DBPath:  defaultDBPath(),
		Lifecycle: LifecycleConfig{
			ArchiveAfter: policy.ArchiveAfter,
			RemoveAfter:  policy.RemoveAfter,
		},
		Summary: SummaryConfig{
			TopActive:    sum.TopActive,
			RecentWindow: sum.RecentWindow,
			RecentLimit:  sum.RecentLimit,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

func defaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".agent-modules", "modules.db")
}

// Dir returns the directory searched for config.yaml besides the working
// directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", AppName)
}

// Load reads configuration. An explicit path must exist; without one,
// config.yaml is looked up in the working directory and Dir, and a missing
// file just means defaults.
func Load(path string) (*Config, error) {
	def := DefaultConfig()
	v := viper.New()

	v.SetDefault("service", def.Service)
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("lifecycle.archive_after", def.Lifecycle.ArchiveAfter)
	v.SetDefault("lifecycle.remove_after", def.Lifecycle.RemoveAfter)
	v.SetDefault("summary.top_active", def.Summary.TopActive)
	v.SetDefault("summary.recent_window", def.Summary.RecentWindow)
	v.SetDefault("summary.recent_limit", def.Summary.RecentLimit)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AGENT_MODULES_DB is the short form kept for scripts.
	if err := v.BindEnv("db_path", EnvPrefix+"_DB_PATH", EnvPrefix+"_DB"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DBPath = expandHome(cfg.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if !umid.ValidService(c.Service) {
		return fmt.Errorf("config: %w %q", umid.ErrInvalidService, c.Service)
	}
	if c.DBPath == "" {
		return errors.New("config: db_path is empty")
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Summary.TopActive < 0 || c.Summary.RecentLimit < 0 || c.Summary.RecentWindow < 0 {
		return errors.New("config: summary limits must not be negative")
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("config: unknown log format %q (text, json, logfmt)", c.Log.Format)
	}
	return nil
}

// Policy returns the lifecycle thresholds.
func (c *Config) Policy() lifecycle.Policy {
	return lifecycle.Policy{ArchiveAfter: c.Lifecycle.ArchiveAfter, RemoveAfter: c.Lifecycle.RemoveAfter}
}

// SummaryOptions returns the summary limits.
func (c *Config) SummaryOptions() modules.SummaryOptions {
	return modules.SummaryOptions{
		TopActive:    c.Summary.TopActive,
		RecentWindow: c.Summary.RecentWindow,
		RecentLimit:  c.Summary.RecentLimit,
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
