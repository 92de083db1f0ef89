// Package expect is the expectation engine: it evaluates deferred
// conditions inside a test, records an Issue with the captured
// operands when one fails, and, for the require family, returns
// the control signal that ends the test body early.
//
// A body propagates requirement failures by returning them:
//
//	func(t *testctx.T) error {
//		if err := expect.Require(t, expect.Equal(got, 2)); err != nil {
//			return err
//		}
//		expect.That(t, expect.Greater(len(xs), 0))
//		return nil
//	}
package expect

import (
	"digital.vasic.expectations/pkg/issue"
	"digital.vasic.expectations/pkg/testctx"
)

// Result is the outcome of a non-aborting expectation.
type Result struct {
	// Passed is true when the condition held.
	Passed bool

	// Cancelled is true when the test was already cancelled and
	// the condition was not evaluated.
	Cancelled bool

	// Expression carries the captured operands.
	Expression *issue.Expression

	// Issue is the recorded issue on failure, nil otherwise.
	Issue *issue.Issue

	// Err is the cancellation signal when Cancelled is true.
	Err error
}

// Option adjusts the comment or source location of an
// expectation.
type Option func(*options)

type options struct {
	comment string
	loc     issue.SourceLocation
}

// Comment attaches a human-readable comment to any issue the
// expectation records.
func Comment(s string) Option {
	return func(o *options) { o.comment = s }
}

// At overrides the source location. By default the caller of the
// expectation function is used.
func At(loc issue.SourceLocation) Option {
	return func(o *options) { o.loc = loc }
}

func resolve(loc issue.SourceLocation, opts []Option) options {
	o := options{loc: loc}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// That evaluates cond and records a KindExpectationFailed issue
// if it does not hold. It never ends the test.
func That(t *testctx.T, cond Condition, opts ...Option) Result {
	return check(t, cond, resolve(issue.Caller(1), opts))
}

// Require evaluates cond like That. On failure it returns a
// *testctx.RequirementError that the body must return; the runner
// treats it as already recorded.
func Require(t *testctx.T, cond Condition, opts ...Option) error {
	return required(check(t, cond, resolve(issue.Caller(1), opts)))
}

// Unwrap requires v to be non-nil and returns the value it points
// to.
func Unwrap[V any](t *testctx.T, v *V, opts ...Option) (V, error) {
	var zero V
	o := resolve(issue.Caller(1), opts)
	if err := required(check(t, NotNil(v), o)); err != nil {
		return zero, err
	}
	return *v, nil
}

// Fail records a KindUnconditionalFailure issue.
func Fail(t *testctx.T, opts ...Option) Result {
	return record(t, issue.KindUnconditionalFailure,
		issue.SeverityFailure, resolve(issue.Caller(1), opts))
}

// RequireFail records a KindUnconditionalFailure issue and
// returns the requirement signal.
func RequireFail(t *testctx.T, opts ...Option) error {
	return required(record(t, issue.KindUnconditionalFailure,
		issue.SeverityFailure, resolve(issue.Caller(1), opts)))
}

// Warn records a warning-severity issue that never fails the
// test.
func Warn(t *testctx.T, opts ...Option) Result {
	return record(t, issue.KindUnconditionalFailure,
		issue.SeverityWarning, resolve(issue.Caller(1), opts))
}

// NoError records a KindErrorCaught issue carrying err if err is
// non-nil. The runtime's own control signals are passed back in
// Result.Err without recording anything.
func NoError(t *testctx.T, err error, opts ...Option) Result {
	o := resolve(issue.Caller(1), opts)
	if err == nil {
		return Result{Passed: true}
	}
	if testctx.IsControlSignal(err) {
		return Result{Err: err}
	}
	i := issue.New(issue.KindErrorCaught, o.loc, o.comment)
	i.Error = err
	rec := t.Record(i)
	return Result{Issue: &rec}
}

func check(t *testctx.T, cond Condition, o options) Result {
	if err := t.CheckCancelled(o.loc); err != nil {
		return Result{Cancelled: true, Err: err}
	}

	ev, panicked := evaluate(cond)
	if ev.Passed {
		return Result{Passed: true, Expression: ev.Expression}
	}

	kind := issue.KindExpectationFailed
	if panicked {
		kind = issue.KindErrorCaught
	}
	i := issue.New(kind, o.loc, o.comment)
	i.Expression = ev.Expression
	i.Error = ev.Err
	rec := t.Record(i)
	return Result{Expression: ev.Expression, Issue: &rec}
}

func record(
	t *testctx.T,
	kind issue.Kind,
	sev issue.Severity,
	o options,
) Result {
	if err := t.CheckCancelled(o.loc); err != nil {
		return Result{Cancelled: true, Err: err}
	}
	i := issue.New(kind, o.loc, o.comment)
	i.Severity = sev
	rec := t.Record(i)
	return Result{Issue: &rec}
}

// required converts a Result into the require family's return
// value.
func required(r Result) error {
	switch {
	case r.Cancelled:
		return r.Err
	case r.Passed:
		return nil
	case r.Issue != nil:
		return &testctx.RequirementError{Issue: *r.Issue}
	default:
		return r.Err
	}
}
