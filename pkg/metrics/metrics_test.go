package metrics

import (
	"sync"
	"testing"
	"time"

	"digital.vasic.expectations/pkg/issue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestInterfaces(t *testing.T) {
	var _ Recorder = NoopMetrics{}
	var _ Recorder = &MemoryMetrics{}
	var _ Recorder = &OTelMetrics{}
}

func TestMemoryMetrics_RecordTest(t *testing.T) {
	m := NewMemoryMetrics()
	m.RecordTest("t-1", "passed", 2*time.Second)
	m.RecordTest("t-1", "passed", 3*time.Second)
	m.RecordTest("t-2", "failed", time.Second)

	assert.Equal(t, 2, m.TestCount("t-1", "passed"))
	assert.Equal(t, 1, m.TestCount("t-2", "failed"))
	assert.Equal(t, 0, m.TestCount("t-3", "passed"))
	assert.Len(t, m.Durations("t-1"), 2)
}

func TestMemoryMetrics_RecordIssue(t *testing.T) {
	m := NewMemoryMetrics()
	m.RecordIssue(issue.KindExpectationFailed, false)
	m.RecordIssue(issue.KindExpectationFailed, true)
	m.RecordIssue(issue.KindExpectationFailed, true)

	assert.Equal(t, 1, m.IssueCount(issue.KindExpectationFailed, false))
	assert.Equal(t, 2, m.IssueCount(issue.KindExpectationFailed, true))
	assert.Equal(t, 0, m.IssueCount(issue.KindErrorCaught, false))
}

func TestMemoryMetrics_RunTotalAndActive(t *testing.T) {
	m := NewMemoryMetrics()
	m.IncrementRunTotal()
	m.IncrementRunTotal()
	m.SetActiveTests(5)

	assert.Equal(t, 2, m.RunTotal())
	assert.Equal(t, 5, m.ActiveTests())
}

func TestMemoryMetrics_Concurrent(t *testing.T) {
	m := NewMemoryMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordTest("t", "passed", time.Millisecond)
			m.RecordIssue(issue.KindErrorCaught, false)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, m.TestCount("t", "passed"))
	assert.Equal(t, 20, m.IssueCount(issue.KindErrorCaught, false))
}

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}
	// Should not panic
	m.RecordTest("t", "passed", time.Second)
	m.RecordIssue(issue.KindErrorCaught, true)
	m.IncrementRunTotal()
	m.SetActiveTests(0)
}

func TestOTelMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	m, err := NewOTelMetrics(meter)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.NotNil(t, m.tests)
	assert.NotNil(t, m.issues)
	assert.NotNil(t, m.duration)

	m.RecordTest("t", "failed", 15*time.Millisecond)
	m.RecordIssue(issue.KindTimeLimitExceeded, false)
	m.IncrementRunTotal()
	m.SetActiveTests(3)
	assert.Equal(t, 3, m.ActiveTests())
}

func TestOTelMetrics_NilMeter(t *testing.T) {
	m, err := NewOTelMetrics(nil)
	assert.Error(t, err)
	assert.Nil(t, m)
}
