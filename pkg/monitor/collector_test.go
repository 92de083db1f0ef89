package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"digital.vasic.expectations/pkg/issue"
	"digital.vasic.expectations/pkg/testctx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCollector_Stats(t *testing.T) {
	c := NewEventCollector()
	c.EmitStarted("run", "a", "A")
	c.EmitFinished("run", "a", "A", StatusPassed, "", time.Millisecond)
	c.EmitStarted("run", "b", "B")
	c.EmitFinished("run", "b", "B", StatusFailed, "", time.Millisecond)
	c.EmitFinished("run", "c", "C", StatusSkipped, "needs db", 0)

	known := issue.New(issue.KindExpectationFailed, issue.SourceLocation{}, "")
	known.IsKnown = true
	c.EmitIssue("run", known)
	c.EmitIssue("run", issue.New(issue.KindErrorCaught, issue.SourceLocation{}, ""))

	s := c.Stats()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Issues)
	assert.Equal(t, 1, s.KnownIssues)
	assert.Len(t, c.Events(), 7)
}

func TestEventCollector_HandlersAndTimestamps(t *testing.T) {
	c := NewEventCollector()
	var got []Event
	c.OnEvent(func(e Event) { got = append(got, e) })

	c.EmitStarted("run", "a", "A")

	require.Len(t, got, 1)
	assert.Equal(t, EventTestStarted, got[0].Type)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestEventCollector_AttachStream(t *testing.T) {
	stream := issue.NewStream("run-7")
	c := NewEventCollector()
	c.AttachStream(stream)

	tc := testctx.New(context.Background(), testctx.Info{ID: "t1"},
		issue.NewSink("t1", stream))
	tc.Record(issue.New(issue.KindUnconditionalFailure, issue.SourceLocation{}, "x"))
	tc.Record(issue.New(issue.KindUnconditionalFailure, issue.SourceLocation{}, "y"))

	events := c.Events()
	require.Len(t, events, 2)
	for n, e := range events {
		assert.Equal(t, EventIssueRecorded, e.Type)
		assert.Equal(t, "run-7", e.RunID)
		assert.Equal(t, "t1", e.TestID)
		assert.Equal(t, uint64(n+1), e.Seq)
		require.NotNil(t, e.Issue)
	}
	assert.Equal(t, "y", events[1].Issue.Comment)
}

func TestEventCollector_Concurrent(t *testing.T) {
	c := NewEventCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.EmitFinished("run", "t", "T", StatusPassed, "", 0)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Stats().Passed)
}

func TestEventCollector_Reset(t *testing.T) {
	c := NewEventCollector()
	c.EmitFinished("run", "a", "A", StatusPassed, "", 0)
	c.Reset()
	assert.Empty(t, c.Events())
	assert.Equal(t, 0, c.Stats().Total)
}

func TestDashboard_UpdateFromEvent(t *testing.T) {
	c := NewEventCollector()
	c.EmitStarted("run", "a", "A")
	c.EmitIssue("run", issue.Issue{TestID: "a", Kind: issue.KindErrorCaught,
		Severity: issue.SeverityFailure})
	c.EmitFinished("run", "a", "A", StatusFailed, "", 10*time.Millisecond)
	c.EmitStarted("run", "b", "B")
	c.EmitFinished("run", "b", "B", StatusPassed, "", time.Millisecond)
	c.EmitFinished("run", "s", "S", StatusSkipped, "off", 0)
	c.EmitStarted("run", "r", "R")

	snap := BuildDashboard("run", c).Snapshot()

	assert.Equal(t, "run", snap.RunID)
	require.Contains(t, snap.Tests, "a")
	assert.Equal(t, StatusFailed, snap.Tests["a"].Status)
	assert.Equal(t, 1, snap.Tests["a"].Issues)
	assert.Equal(t, "A", snap.Tests["a"].Name)
	assert.Equal(t, "off", snap.Tests["s"].Reason)
	assert.Equal(t, 4, snap.Summary.Total)
	assert.Equal(t, 1, snap.Summary.Passed)
	assert.Equal(t, 1, snap.Summary.Failed)
	assert.Equal(t, 1, snap.Summary.Skipped)
	assert.Equal(t, 1, snap.Summary.Running)
	assert.InDelta(t, 50.0, snap.Summary.PassRate, 0.001)
}

func TestDashboard_SnapshotIsACopy(t *testing.T) {
	d := NewDashboard("run")
	d.UpdateFromEvent(Event{Type: EventTestStarted, TestID: "a"})
	snap := d.Snapshot()
	snap.Tests["b"] = TestState{}
	d.SetStatus("completed")

	again := d.Snapshot()
	assert.Len(t, again.Tests, 1)
	assert.Equal(t, "completed", again.Status)
	assert.Equal(t, "running", snap.Status)
}
