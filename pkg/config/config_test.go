package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"digital.vasic.expectations/pkg/env"
	"digital.vasic.expectations/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, time.Duration(0), cfg.DefaultTimeLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, FormatConsole, cfg.LogFormat)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expect.yaml")
	content := `default_time_limit: 30s
max_concurrency: 4
log_level: debug
verbose: true
monitor_addr: 127.0.0.1:7070
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.DefaultTimeLimit)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "127.0.0.1:7070", cfg.MonitorAddr)
	assert.Equal(t, FormatConsole, cfg.LogFormat, "unset keys keep defaults")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_time_limit: [1, 2"), 0644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestApplyEnv(t *testing.T) {
	l := env.NewLoaderFrom(map[string]string{
		EnvTimeLimit:      "2m",
		EnvMaxConcurrency: "16",
		EnvLogLevel:       "warn",
		EnvLogFormat:      "json",
		EnvVerbose:        "1",
		EnvMonitorAddr:    ":9090",
		EnvRunID:          "nightly",
	})

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(l))
	assert.Equal(t, 2*time.Minute, cfg.DefaultTimeLimit)
	assert.Equal(t, 16, cfg.MaxConcurrency)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, FormatJSON, cfg.LogFormat)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, ":9090", cfg.MonitorAddr)
	assert.Equal(t, "nightly", cfg.RunID)
}

func TestApplyEnv_ProcessEnvironment(t *testing.T) {
	t.Setenv(EnvTimeLimit, "5s")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(nil))
	assert.Equal(t, 5*time.Second, cfg.DefaultTimeLimit)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	l := env.NewLoaderFrom(map[string]string{
		EnvTimeLimit:      "soon",
		EnvMaxConcurrency: "lots",
		EnvLogLevel:       "trace",
	})

	cfg := Default()
	err := cfg.ApplyEnv(l)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvTimeLimit)
	assert.Contains(t, err.Error(), EnvMaxConcurrency)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.Error(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative time limit", func(c *Config) { c.DefaultTimeLimit = -time.Second }, "default_time_limit"},
		{"negative concurrency", func(c *Config) { c.MaxConcurrency = -1 }, "max_concurrency"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "unknown log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	l, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.IsType(t, &logging.ConsoleLogger{}, l)

	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "run.jsonl")
	l, err = cfg.NewLogger()
	require.NoError(t, err)
	assert.IsType(t, &logging.MultiLogger{}, l)
	l.Info("run_started")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_started")

	cfg.LogFormat = FormatJSON
	l, err = cfg.NewLogger()
	require.NoError(t, err)
	assert.IsType(t, &logging.JSONLogger{}, l)
	require.NoError(t, l.Close())

	cfg.LogLevel = "nope"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}

func TestNewLogger_ConsoleHonoursLevel(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = stdout })

	cfg := Default()
	cfg.LogLevel = "warn"
	l, err := cfg.NewLogger()
	os.Stdout = stdout
	require.NoError(t, err)

	l.Info("info line")
	l.Warn("warn line")
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "info line")
	assert.Contains(t, string(out), "warn line")
}
