package metrics

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"digital.vasic.expectations/pkg/issue"
)

// OTelMetrics implements Recorder on top of an OpenTelemetry
// meter. Instruments are created once by NewOTelMetrics.
type OTelMetrics struct {
	tests    metric.Int64Counter
	issues   metric.Int64Counter
	runs     metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64ObservableGauge

	activeTests atomic.Int64
}

// NewOTelMetrics creates the instruments on meter.
func NewOTelMetrics(meter metric.Meter) (*OTelMetrics, error) {
	if meter == nil {
		return nil, fmt.Errorf("meter is nil")
	}

	m := &OTelMetrics{}
	var err error

	m.tests, err = meter.Int64Counter(
		"expect.tests",
		metric.WithDescription("Number of tests finished, by status"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create tests counter: %w", err)
	}

	m.issues, err = meter.Int64Counter(
		"expect.issues",
		metric.WithDescription("Number of issues recorded, by kind"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create issues counter: %w", err)
	}

	m.runs, err = meter.Int64Counter(
		"expect.runs",
		metric.WithDescription("Number of runs started"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs counter: %w", err)
	}

	m.duration, err = meter.Float64Histogram(
		"expect.test.duration",
		metric.WithDescription("Test duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	m.active, err = meter.Int64ObservableGauge(
		"expect.tests.active",
		metric.WithDescription("Tests currently running"),
		metric.WithUnit("1"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.activeTests.Load())
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create active gauge: %w", err)
	}

	return m, nil
}

// RecordTest counts a finished test and records its duration.
func (m *OTelMetrics) RecordTest(testID, status string, duration time.Duration) {
	ctx := context.Background()
	opts := metric.WithAttributes(
		attribute.String("test.id", testID),
		attribute.String("test.status", status),
	)
	m.tests.Add(ctx, 1, opts)
	m.duration.Record(ctx, float64(duration.Milliseconds()), opts)
}

// RecordIssue counts a recorded issue by kind and known flag.
func (m *OTelMetrics) RecordIssue(kind issue.Kind, known bool) {
	m.issues.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("issue.kind", string(kind)),
		attribute.Bool("issue.known", known),
	))
}

// IncrementRunTotal counts a started run.
func (m *OTelMetrics) IncrementRunTotal() {
	m.runs.Add(context.Background(), 1)
}

// SetActiveTests sets the value reported by the active gauge.
func (m *OTelMetrics) SetActiveTests(count int) {
	m.activeTests.Store(int64(count))
}

// ActiveTests returns the value the active gauge reports.
func (m *OTelMetrics) ActiveTests() int { return int(m.activeTests.Load()) }
