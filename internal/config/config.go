// Package config loads the surrounding library's non-protocol settings —
// logging, metrics, and an informational default zombie FIFO cap — the way
// the teacher repo's own configuration package does: spf13/viper layering
// environment over a config file over defaults. No command-line flags are
// bound into these layers. The wire-mandated env-var latch itself
// stays in internal/objtable, untouched by viper, because its semantics
// (read once, process-global) are pinned by spec.md §6.3/§9.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is wlinspect's own configuration: everything about how the CLI
// observes and drives the object table, never anything about the protocol
// objects themselves.
type Config struct {
	// Logging controls the structured logger.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics controls the Prometheus HTTP endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// DefaultZombieCap is a zombie FIFO cap carried in configuration only.
	// Nothing applies it: internal/objtable reads
	// WAYLAND_MAX_ZOMBIE_LIST_COUNT directly from the environment and
	// otherwise uses its own built-in default of 64.
	DefaultZombieCap int `mapstructure:"default_zombie_cap" yaml:"default_zombie_cap"`
}

// LoggingConfig controls the internal/logger package.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the configuration used when no file, flags, or
// environment variables override it.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		DefaultZombieCap: 64,
	}
}

// Load reads configuration from a file (if configPath names one or the
// default location has one), with environment variables (WLGO_* prefix)
// taking precedence over the file and defaults underneath both.
// configPath == "" uses the default search path.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	cfg := Default()
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)
	v.SetDefault("default_zombie_cap", cfg.DefaultZombieCap)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("WLGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wlinspect")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "wlinspect")
}
