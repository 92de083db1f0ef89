// Package monitor turns a run's lifecycle into a stream of events
// for live consumers. An EventCollector aggregates events and
// statistics; Server pushes them to websocket clients.
package monitor

import (
	"time"

	"digital.vasic.expectations/pkg/issue"
)

// EventType represents the type of run event.
type EventType string

const (
	EventTestStarted   EventType = "test_started"
	EventIssueRecorded EventType = "issue_recorded"
	EventTestFinished  EventType = "test_finished"
)

// Status values carried by EventTestFinished.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Event represents one lifecycle event during a run.
type Event struct {
	Type      EventType     `json:"type"`
	RunID     string        `json:"run_id,omitempty"`
	TestID    string        `json:"test_id"`
	Name      string        `json:"name,omitempty"`
	Seq       uint64        `json:"seq,omitempty"`
	Status    string        `json:"status,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Issue     *issue.Issue  `json:"issue,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
