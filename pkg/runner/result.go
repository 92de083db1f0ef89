package runner

import (
	"time"

	"digital.vasic.expectations/pkg/condition"
	"digital.vasic.expectations/pkg/issue"
	"digital.vasic.expectations/pkg/testctx"
)

// Test declares one test. ID defaults to the suite path joined
// with Name.
type Test struct {
	ID     string
	Name   string
	Traits []condition.Trait

	// TimeLimit overrides the runner default. Zero means the
	// runner default applies.
	TimeLimit time.Duration

	// Body is the test itself. It returns the error of a failed
	// requirement unchanged; any other error is recorded as a
	// caught error.
	Body func(t *testctx.T) error
}

// Suite groups tests and nested suites under shared traits.
type Suite struct {
	ID     string
	Name   string
	Traits []condition.Trait
	Tests  []Test
	Suites []Suite
}

// Status is the terminal status of a test.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result is the outcome of running one test.
type Result struct {
	RunID      string        `json:"run_id"`
	TestID     string        `json:"test_id"`
	Name       string        `json:"name"`
	Status     Status        `json:"status"`
	SkipReason string        `json:"skip_reason,omitempty"`
	Issues     []issue.Issue `json:"issues,omitempty"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
}

// Failed reports whether the test failed.
func (r *Result) Failed() bool { return r.Status == StatusFailed }

// IsFinal reports whether the result carries a terminal status.
func (r *Result) IsFinal() bool {
	switch r.Status {
	case StatusPassed, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// KnownIssues returns the issues claimed by known-issue scopes.
func (r *Result) KnownIssues() []issue.Issue {
	var out []issue.Issue
	for _, i := range r.Issues {
		if i.IsKnown {
			out = append(out, i)
		}
	}
	return out
}
