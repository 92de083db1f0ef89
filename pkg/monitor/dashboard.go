package monitor

import (
	"sync"
	"time"
)

// Dashboard keeps a live per-test view of a run.
type Dashboard struct {
	mu    sync.RWMutex
	state DashboardSnapshot
}

// DashboardSnapshot is a point-in-time copy of a Dashboard.
type DashboardSnapshot struct {
	RunID     string               `json:"run_id"`
	StartTime time.Time            `json:"start_time"`
	Status    string               `json:"status"` // running, completed
	Tests     map[string]TestState `json:"tests"`
	Summary   DashboardSummary     `json:"summary"`
}

// TestState represents the current state of a test in the
// dashboard.
type TestState struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Status      string        `json:"status"`
	StartTime   *time.Time    `json:"start_time,omitempty"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Issues      int           `json:"issues"`
	KnownIssues int           `json:"known_issues"`
}

// DashboardSummary holds aggregate stats for the dashboard.
type DashboardSummary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Skipped  int     `json:"skipped"`
	Running  int     `json:"running"`
	PassRate float64 `json:"pass_rate"`
	Elapsed  string  `json:"elapsed"`
}

// NewDashboard creates a new dashboard for runID.
func NewDashboard(runID string) *Dashboard {
	return &Dashboard{state: DashboardSnapshot{
		RunID:     runID,
		StartTime: time.Now(),
		Status:    "running",
		Tests:     make(map[string]TestState),
	}}
}

// UpdateFromEvent updates dashboard state from a run event.
func (d *Dashboard) UpdateFromEvent(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	state, exists := d.state.Tests[event.TestID]
	if !exists {
		state = TestState{ID: event.TestID, Name: event.Name}
	}
	if state.Name == "" {
		state.Name = event.Name
	}

	switch event.Type {
	case EventTestStarted:
		state.Status = "running"
		state.StartTime = &now
	case EventIssueRecorded:
		if event.Issue != nil && event.Issue.IsKnown {
			state.KnownIssues++
		} else {
			state.Issues++
		}
	case EventTestFinished:
		state.Status = event.Status
		state.EndTime = &now
		state.Duration = event.Duration
		state.Reason = event.Reason
	}

	d.state.Tests[event.TestID] = state
	d.recalcSummary()
}

func (d *Dashboard) recalcSummary() {
	s := DashboardSummary{}
	for _, ts := range d.state.Tests {
		s.Total++
		switch ts.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case "running":
			s.Running++
		}
	}
	if completed := s.Passed + s.Failed; completed > 0 {
		s.PassRate = float64(s.Passed) / float64(completed) * 100
	}
	s.Elapsed = time.Since(d.state.StartTime).Round(time.Millisecond).String()
	d.state.Summary = s
}

// Snapshot returns a copy of the current dashboard state.
func (d *Dashboard) Snapshot() DashboardSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap := d.state
	snap.Tests = make(map[string]TestState, len(d.state.Tests))
	for k, v := range d.state.Tests {
		snap.Tests[k] = v
	}
	return snap
}

// SetStatus sets the overall run status.
func (d *Dashboard) SetStatus(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Status = status
}

// BuildDashboard creates a Dashboard from an EventCollector by
// replaying all collected events.
func BuildDashboard(runID string, collector *EventCollector) *Dashboard {
	d := NewDashboard(runID)
	for _, event := range collector.Events() {
		d.UpdateFromEvent(event)
	}
	return d
}
