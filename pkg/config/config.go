// Package config holds the settings of a test run: default time
// limit, concurrency, logging, and the live monitor. Settings come
// from defaults, an optional YAML file and EXPECT_* environment
// variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"digital.vasic.expectations/pkg/env"
	"digital.vasic.expectations/pkg/logging"
)

// Environment variables read by ApplyEnv.
const (
	EnvTimeLimit      = "EXPECT_TIME_LIMIT"
	EnvMaxConcurrency = "EXPECT_MAX_CONCURRENCY"
	EnvLogLevel       = "EXPECT_LOG_LEVEL"
	EnvLogFormat      = "EXPECT_LOG_FORMAT"
	EnvLogFile        = "EXPECT_LOG_FILE"
	EnvVerbose        = "EXPECT_VERBOSE"
	EnvMonitorAddr    = "EXPECT_MONITOR_ADDR"
	EnvRunID          = "EXPECT_RUN_ID"
)

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config is the run configuration.
type Config struct {
	// DefaultTimeLimit applies to tests without their own limit.
	// Zero means no limit.
	DefaultTimeLimit time.Duration `yaml:"default_time_limit"`

	// MaxConcurrency bounds parallel runs. Zero means unbounded.
	MaxConcurrency int `yaml:"max_concurrency"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	// LogFile additionally writes JSON lines to this path.
	LogFile string `yaml:"log_file"`
	Verbose bool   `yaml:"verbose"`

	// MonitorAddr enables the live monitor server when set.
	MonitorAddr string `yaml:"monitor_addr"`

	// RunID names the run. Empty means a random one is assigned.
	RunID string `yaml:"run_id"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DefaultTimeLimit: 0,
		MaxConcurrency:   0,
		LogLevel:         "info",
		LogFormat:        FormatConsole,
	}
}

// Load reads a YAML file over the defaults. Durations are written
// as strings such as "30s".
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays the EXPECT_* variables found through l. A nil
// loader reads the process environment only.
func (c *Config) ApplyEnv(l env.Loader) error {
	if l == nil {
		l = env.NewLoader()
	}

	var errs []error
	if d, ok, err := env.Duration(l, EnvTimeLimit); err != nil {
		errs = append(errs, err)
	} else if ok {
		c.DefaultTimeLimit = d
	}
	if n, ok, err := env.Int(l, EnvMaxConcurrency); err != nil {
		errs = append(errs, err)
	} else if ok {
		c.MaxConcurrency = n
	}
	if b, ok, err := env.Bool(l, EnvVerbose); err != nil {
		errs = append(errs, err)
	} else if ok {
		c.Verbose = b
	}

	for key, dst := range map[string]*string{
		EnvLogLevel:    &c.LogLevel,
		EnvLogFormat:   &c.LogFormat,
		EnvLogFile:     &c.LogFile,
		EnvMonitorAddr: &c.MonitorAddr,
		EnvRunID:       &c.RunID,
	} {
		if v, ok := l.Lookup(key); ok {
			*dst = v
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}
	return nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.DefaultTimeLimit < 0 {
		errs = append(errs, fmt.Errorf(
			"default_time_limit must not be negative, got %s",
			c.DefaultTimeLimit))
	}
	if c.MaxConcurrency < 0 {
		errs = append(errs, fmt.Errorf(
			"max_concurrency must not be negative, got %d",
			c.MaxConcurrency))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "", FormatConsole, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format: %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// NewLogger builds the logger described by the configuration.
func (c Config) NewLogger() (logging.Logger, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	verbose := c.Verbose || level == logging.LevelDebug

	var primary logging.Logger
	switch c.LogFormat {
	case FormatJSON:
		// JSON goes to the file when one is set and to stdout
		// otherwise.
		jl, err := logging.NewJSONLogger(logging.LoggerConfig{
			OutputPath: c.LogFile,
			Level:      level,
			Verbose:    verbose,
		})
		if err != nil {
			return nil, err
		}
		return jl, nil
	case "", FormatConsole:
		primary = logging.NewConsoleLogger(verbose).WithLevel(level)
	default:
		return nil, fmt.Errorf("unknown log format: %q", c.LogFormat)
	}

	if c.LogFile == "" {
		return primary, nil
	}
	file, err := logging.NewJSONLogger(logging.LoggerConfig{
		OutputPath: c.LogFile,
		Level:      level,
		Verbose:    verbose,
	})
	if err != nil {
		return nil, err
	}
	return logging.NewMultiLogger(primary, file), nil
}
