// Package issue defines the Issue record produced when an
// expectation, requirement, confirmation, or known-issue scope
// fails, together with the per-test Sink that collects issues and
// the run-level Stream that pushes them to reporting consumers.
package issue

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies what produced an Issue.
type Kind string

const (
	// KindExpectationFailed is recorded when an expectation or
	// requirement condition evaluates to false.
	KindExpectationFailed Kind = "expectation_failed"

	// KindUnconditionalFailure is recorded by an explicit failure
	// call that has no condition attached.
	KindUnconditionalFailure Kind = "unconditional_failure"

	// KindErrorCaught is recorded when an error escapes a test
	// body or does not match the expected error. The error itself
	// travels in Issue.Error.
	KindErrorCaught Kind = "error_caught"

	// KindTimeLimitExceeded is recorded when a test's time limit
	// fires before the body finishes.
	KindTimeLimitExceeded Kind = "time_limit_exceeded"

	// KindKnownIssueUnmatched is recorded by a strict known-issue
	// scope whose matcher never matched.
	KindKnownIssueUnmatched Kind = "known_issue_unmatched"

	// KindConfirmationMismatch is recorded when a confirmation
	// count falls outside its expected range.
	KindConfirmationMismatch Kind = "confirmation_mismatch"
)

// Severity ranks an Issue.
type Severity int

const (
	// SeverityWarning is reported but never fails a test.
	SeverityWarning Severity = iota
	// SeverityFailure fails the test unless the issue is known.
	SeverityFailure
)

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "warning":
		*s = SeverityWarning
	case "failure":
		*s = SeverityFailure
	default:
		return fmt.Errorf("unknown severity %q", b)
	}
	return nil
}

// ConfirmationDetail carries the payload of a
// KindConfirmationMismatch issue.
type ConfirmationDetail struct {
	Expected Range `json:"expected"`
	Actual   int   `json:"actual"`
}

// Issue is a single recorded failure or warning. Values are
// immutable once recorded; IsKnown is set at most once by the
// known-issue classification step before the issue reaches the
// sink.
type Issue struct {
	// Kind is what produced the issue.
	Kind Kind `json:"kind"`

	// Severity decides whether the issue can fail the test.
	Severity Severity `json:"severity"`

	// Location is the caller-supplied source location.
	Location SourceLocation `json:"location"`

	// Comment is the optional caller-supplied description.
	Comment string `json:"comment,omitempty"`

	// IsKnown is true when a known-issue scope matched the
	// issue. Known issues never fail a test.
	IsKnown bool `json:"is_known"`

	// Error is the payload of KindErrorCaught issues.
	Error error `json:"-"`

	// Expression holds the captured operands of a failed
	// condition.
	Expression *Expression `json:"expression,omitempty"`

	// Confirmation holds the payload of
	// KindConfirmationMismatch issues.
	Confirmation *ConfirmationDetail `json:"confirmation,omitempty"`

	// TestID identifies the owning test. Stamped by the sink.
	TestID string `json:"test_id"`

	// Seq orders issues across the whole run. Stamped by the
	// stream; zero when the sink has no stream.
	Seq uint64 `json:"seq"`

	// RecordedAt is when the sink accepted the issue.
	RecordedAt time.Time `json:"recorded_at"`
}

// New creates an issue of the given kind with failure severity.
func New(kind Kind, loc SourceLocation, comment string) Issue {
	return Issue{
		Kind:     kind,
		Severity: SeverityFailure,
		Location: loc,
		Comment:  comment,
	}
}

// IsFailure reports whether the issue counts towards a failed
// test.
func (i Issue) IsFailure() bool {
	return i.Severity == SeverityFailure && !i.IsKnown
}

// ErrorText returns the payload error's message, or "".
func (i Issue) ErrorText() string {
	if i.Error == nil {
		return ""
	}
	return i.Error.Error()
}

// Description renders a one-line human-readable summary. Report
// formatting proper belongs to consumers of the stream; this is
// what the logger and error messages use.
func (i Issue) Description() string {
	var b strings.Builder
	b.WriteString(string(i.Kind))
	if i.IsKnown {
		b.WriteString(" (known)")
	}
	switch {
	case i.Expression != nil:
		fmt.Fprintf(&b, ": %s", i.Expression)
	case i.Confirmation != nil:
		fmt.Fprintf(&b, ": confirmed %d time(s), expected %s",
			i.Confirmation.Actual, i.Confirmation.Expected)
	case i.Error != nil:
		fmt.Fprintf(&b, ": %v", i.Error)
	}
	if i.Comment != "" {
		fmt.Fprintf(&b, " - %s", i.Comment)
	}
	if !i.Location.IsZero() {
		fmt.Fprintf(&b, " at %s", i.Location)
	}
	return b.String()
}
