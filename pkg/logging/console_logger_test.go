package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)

	logger.Info("hello world")
	logger.Warn("warning message")
	logger.Error("error message", ErrorField(errors.New("bad")))
	logger.Debug("hidden")

	output := buf.String()
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "hello world")
	assert.Contains(t, output, "WARN")
	assert.Contains(t, output, "ERROR")
	assert.Contains(t, output, "error=bad")
	assert.NotContains(t, output, "hidden")
}

func TestConsoleLogger_DebugVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, true)

	logger.Debug("shown")
	assert.Contains(t, buf.String(), "DEBUG")
}

func TestConsoleLogger_WithFieldsPrintsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false).
		WithFields(TestField("suite/a"))

	logger.Info("test_started", IntField("attempt", 1))

	output := buf.String()
	assert.Contains(t, output, "attempt=1, test_id=suite/a")
	assert.NoError(t, logger.Close())
}

func TestConsoleLogger_WithLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, true).WithLevel(LevelWarn)

	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.WithFields(TestField("a")).Info("child info")
	logger.WithFields(TestField("a")).Error("child error")

	output := buf.String()
	assert.NotContains(t, output, "debug line")
	assert.NotContains(t, output, "info line")
	assert.NotContains(t, output, "child info")
	assert.Contains(t, output, "warn line")
	assert.Contains(t, output, "child error")
}
