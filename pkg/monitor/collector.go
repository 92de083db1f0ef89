package monitor

import (
	"sync"
	"time"

	"digital.vasic.expectations/pkg/issue"
)

// EventCollector captures run events and aggregate statistics.
type EventCollector struct {
	mu       sync.RWMutex
	events   []Event
	handlers []func(Event)
	stats    CollectorStats
}

// CollectorStats holds aggregate statistics.
type CollectorStats struct {
	Total       int           `json:"total"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	Issues      int           `json:"issues"`
	KnownIssues int           `json:"known_issues"`
	StartTime   time.Time     `json:"start_time"`
	Duration    time.Duration `json:"duration"`
}

// NewEventCollector creates a new event collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{
		events: make([]Event, 0, 64),
		stats:  CollectorStats{StartTime: time.Now()},
	}
}

// OnEvent registers a handler to be called for each event.
func (c *EventCollector) OnEvent(handler func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Emit records an event and notifies all handlers.
func (c *EventCollector) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	switch event.Type {
	case EventTestFinished:
		c.stats.Total++
		switch event.Status {
		case StatusPassed:
			c.stats.Passed++
		case StatusFailed:
			c.stats.Failed++
		case StatusSkipped:
			c.stats.Skipped++
		}
	case EventIssueRecorded:
		if event.Issue != nil && event.Issue.IsKnown {
			c.stats.KnownIssues++
		} else {
			c.stats.Issues++
		}
	}
	c.stats.Duration = time.Since(c.stats.StartTime)
	handlers := make([]func(Event), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// EmitStarted emits a test started event.
func (c *EventCollector) EmitStarted(runID, testID, name string) {
	c.Emit(Event{
		Type:   EventTestStarted,
		RunID:  runID,
		TestID: testID,
		Name:   name,
	})
}

// EmitFinished emits a test finished event. reason is the skip
// reason for skipped tests.
func (c *EventCollector) EmitFinished(
	runID, testID, name, status, reason string,
	duration time.Duration,
) {
	c.Emit(Event{
		Type:     EventTestFinished,
		RunID:    runID,
		TestID:   testID,
		Name:     name,
		Status:   status,
		Reason:   reason,
		Duration: duration,
	})
}

// EmitIssue emits an issue recorded event.
func (c *EventCollector) EmitIssue(runID string, i issue.Issue) {
	c.Emit(Event{
		Type:      EventIssueRecorded,
		RunID:     runID,
		TestID:    i.TestID,
		Seq:       i.Seq,
		Issue:     &i,
		Timestamp: i.RecordedAt,
	})
}

// AttachStream emits an issue recorded event for every issue
// published on stream.
func (c *EventCollector) AttachStream(stream *issue.Stream) {
	runID := stream.RunID()
	stream.Subscribe(func(i issue.Issue) {
		c.EmitIssue(runID, i)
	})
}

// Events returns a copy of all collected events.
func (c *EventCollector) Events() []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Event, len(c.events))
	copy(result, c.events)
	return result
}

// Stats returns the current aggregate statistics.
func (c *EventCollector) Stats() CollectorStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Duration = time.Since(s.StartTime)
	return s
}

// Reset clears all collected events and statistics.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.stats = CollectorStats{StartTime: time.Now()}
}
