package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// jsonMarshal is a variable for dependency injection in tests.
var jsonMarshal = json.Marshal

// LogEntry represents a single JSON log entry.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LoggerConfig configures the JSONLogger.
type LoggerConfig struct {
	// OutputPath is a file to append to. Ignored when Output is
	// set; stdout is used when both are empty.
	OutputPath string
	// Output is an explicit destination writer.
	Output  io.Writer
	Level   LogLevel
	Verbose bool
	Fields  map[string]any
}

// jsonSink is the destination shared by a JSONLogger and every
// logger derived from it through WithFields.
type jsonSink struct {
	mu     sync.Mutex
	output io.Writer
	owned  bool
	closed bool
}

// JSONLogger implements Logger with JSON Lines output.
type JSONLogger struct {
	sink    *jsonSink
	level   LogLevel
	fields  map[string]any
	verbose bool
}

// NewJSONLogger creates a new JSON logger.
func NewJSONLogger(config LoggerConfig) (*JSONLogger, error) {
	sink := &jsonSink{output: config.Output}

	if sink.output == nil && config.OutputPath != "" {
		dir := filepath.Dir(config.OutputPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf(
				"failed to create log directory: %w", err,
			)
		}
		file, err := os.OpenFile(
			config.OutputPath,
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0644,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to open log file: %w", err,
			)
		}
		sink.output = file
		sink.owned = true
	}
	if sink.output == nil {
		sink.output = os.Stdout
	}

	fields := config.Fields
	if fields == nil {
		fields = make(map[string]any)
	}

	return &JSONLogger{
		sink:    sink,
		level:   config.Level,
		verbose: config.Verbose,
		fields:  fields,
	}, nil
}

func (l *JSONLogger) log(
	level LogLevel, msg string, fields ...Field,
) {
	if level < l.level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Fields:    mergeFields(l.fields, fields),
	}

	data, err := jsonMarshal(entry)
	if err != nil {
		return
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.closed {
		return
	}
	fmt.Fprintln(l.sink.output, string(data))
}

// Info logs an informational message.
func (l *JSONLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *JSONLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *JSONLogger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

// Debug logs a debug message only if verbose is enabled.
func (l *JSONLogger) Debug(msg string, fields ...Field) {
	if l.verbose {
		l.log(LevelDebug, msg, fields...)
	}
}

// WithFields returns a new Logger with additional default
// fields. The derived logger writes to the same destination.
func (l *JSONLogger) WithFields(fields ...Field) Logger {
	return &JSONLogger{
		sink:    l.sink,
		level:   l.level,
		verbose: l.verbose,
		fields:  mergeFields(l.fields, fields),
	}
}

// Close closes the destination if the logger opened it. Later
// log calls are dropped.
func (l *JSONLogger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.closed {
		return nil
	}
	l.sink.closed = true

	if closer, ok := l.sink.output.(io.Closer); ok && l.sink.owned {
		return closer.Close()
	}
	return nil
}
