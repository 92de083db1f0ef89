package expect

import (
	"errors"
	"fmt"
	"reflect"

	"digital.vasic.expectations/pkg/issue"
	"digital.vasic.expectations/pkg/testctx"
)

// ErrorMatcher decides whether an error returned by an operation
// is the one a Throws expectation is waiting for.
type ErrorMatcher struct {
	desc  string
	never bool
	match func(error) bool
}

// String describes the expected error.
func (m ErrorMatcher) String() string { return m.desc }

// Never expects the operation not to return an error.
func Never() ErrorMatcher {
	return ErrorMatcher{desc: "no error", never: true}
}

// AnyError expects any non-nil error.
func AnyError() ErrorMatcher {
	return ErrorMatcher{
		desc:  "any error",
		match: func(error) bool { return true },
	}
}

// ErrorIs expects an error matching target with errors.Is.
func ErrorIs(target error) ErrorMatcher {
	return ErrorMatcher{
		desc:  fmt.Sprintf("error matching %q", target),
		match: func(err error) bool { return errors.Is(err, target) },
	}
}

// ErrorAs expects an error of type E anywhere in the wrap chain.
func ErrorAs[E error]() ErrorMatcher {
	return ErrorMatcher{
		desc: fmt.Sprintf("error of type %s",
			reflect.TypeFor[E]()),
		match: func(err error) bool {
			var target E
			return errors.As(err, &target)
		},
	}
}

// Matching expects an error accepted by pred. desc names the
// expectation in failure output.
func Matching(desc string, pred func(error) bool) ErrorMatcher {
	return ErrorMatcher{desc: desc, match: pred}
}

// PanicError wraps a value recovered from a panicking operation.
type PanicError struct {
	Value any
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Throws invokes op and checks its error against m. A missing
// expected error records KindExpectationFailed; an unexpected or
// mismatched error records KindErrorCaught carrying that error. A
// panic inside op counts as a *PanicError. Control signals from
// nested requirements are passed back in Result.Err unrecorded.
func Throws(
	t *testctx.T,
	m ErrorMatcher,
	op func() error,
	opts ...Option,
) Result {
	return throws(t, m, op, resolve(issue.Caller(1), opts))
}

// RequireThrows is Throws that returns the requirement signal on
// failure.
func RequireThrows(
	t *testctx.T,
	m ErrorMatcher,
	op func() error,
	opts ...Option,
) error {
	return required(throws(t, m, op, resolve(issue.Caller(1), opts)))
}

func throws(
	t *testctx.T,
	m ErrorMatcher,
	op func() error,
	o options,
) Result {
	if err := t.CheckCancelled(o.loc); err != nil {
		return Result{Cancelled: true, Err: err}
	}

	err := invoke(op)
	if testctx.IsControlSignal(err) {
		return Result{Err: err}
	}

	expr := &issue.Expression{Text: "expected " + m.desc}

	var i issue.Issue
	switch {
	case m.never && err == nil:
		return Result{Passed: true, Expression: expr}
	case m.never:
		i = issue.New(issue.KindErrorCaught, o.loc, o.comment)
		i.Error = err
	case err == nil:
		i = issue.New(issue.KindExpectationFailed, o.loc, o.comment)
		expr.Text += ", but no error was returned"
	case m.match == nil || !m.match(err):
		i = issue.New(issue.KindErrorCaught, o.loc, o.comment)
		i.Error = err
	default:
		return Result{Passed: true, Expression: expr}
	}

	i.Expression = expr
	rec := t.Record(i)
	return Result{Expression: expr, Issue: &rec}
}

// invoke calls op, converting a panic into a *PanicError.
func invoke(op func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	if op == nil {
		return nil
	}
	return op()
}
