package testctx

import (
	"context"
	"errors"

	"digital.vasic.expectations/pkg/issue"
)

// ErrRequirementFailed is the control signal returned by the
// require family once the failure has been recorded. A test body
// returns it unchanged; the runner ends the test without
// recording anything further.
var ErrRequirementFailed = errors.New("requirement failed")

// ErrTimeLimitExceeded is returned by blocking checks once the
// test's time limit has fired. The corresponding issue has
// already been recorded.
var ErrTimeLimitExceeded = errors.New("time limit exceeded")

// RequirementError carries the issue recorded by a failed
// requirement. It matches ErrRequirementFailed with errors.Is.
type RequirementError struct {
	Issue issue.Issue
}

// Error implements error.
func (e *RequirementError) Error() string {
	return "requirement failed: " + e.Issue.Description()
}

// Is reports whether target is ErrRequirementFailed.
func (e *RequirementError) Is(target error) bool {
	return target == ErrRequirementFailed
}

// IsControlSignal reports whether err is one of the runtime's own
// early-exit signals rather than an error raised by user code.
// Control signals are never recorded as caught errors.
func IsControlSignal(err error) bool {
	return errors.Is(err, ErrRequirementFailed) ||
		errors.Is(err, ErrTimeLimitExceeded) ||
		errors.Is(err, context.Canceled)
}
