// Package metrics records run-level counters for tests and the
// issues they produce.
package metrics

import (
	"time"

	"digital.vasic.expectations/pkg/issue"
)

// Recorder defines the interface for recording run metrics.
type Recorder interface {
	// RecordTest records a finished or skipped test.
	RecordTest(testID, status string, duration time.Duration)
	// RecordIssue records one recorded issue.
	RecordIssue(kind issue.Kind, known bool)
	// IncrementRunTotal increments the total run counter.
	IncrementRunTotal()
	// SetActiveTests sets the gauge of tests currently running.
	SetActiveTests(count int)
}

// NoopMetrics is a no-op implementation of Recorder useful for
// testing or when metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordTest(_, _ string, _ time.Duration) {}
func (NoopMetrics) RecordIssue(_ issue.Kind, _ bool)        {}
func (NoopMetrics) IncrementRunTotal()                      {}
func (NoopMetrics) SetActiveTests(_ int)                    {}
