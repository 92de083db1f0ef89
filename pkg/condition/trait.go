// Package condition evaluates the runtime conditions attached to
// suites and tests before they run. Suite conditions are
// evaluated first and, when one disables the suite, nested tests
// are skipped without evaluating their own conditions.
package condition

import (
	"context"
	"fmt"

	"digital.vasic.expectations/pkg/issue"
)

// Predicate decides whether a condition holds. It may block on
// ctx, for example while waiting on an external readiness check,
// and may fail; a failure disables the suite or test.
type Predicate func(ctx context.Context) (bool, error)

// Trait is one condition attached to a suite or test.
type Trait struct {
	// Comment is the skip reason reported when the trait
	// disables its subject.
	Comment string

	// Location is where the trait was declared.
	Location issue.SourceLocation

	predicate Predicate
	// negate flips the predicate: DisabledIf/DisabledWhen traits
	// disable when the predicate holds.
	negate bool
}

// EnabledIf runs the subject only when ok is true.
func EnabledIf(ok bool, comment string) Trait {
	return Trait{
		Comment:  comment,
		Location: issue.Caller(1),
		predicate: func(context.Context) (bool, error) {
			return ok, nil
		},
	}
}

// DisabledIf skips the subject when ok is true.
func DisabledIf(ok bool, comment string) Trait {
	return Trait{
		Comment:  comment,
		Location: issue.Caller(1),
		predicate: func(context.Context) (bool, error) {
			return ok, nil
		},
		negate: true,
	}
}

// Disabled always skips the subject.
func Disabled(comment string) Trait {
	return Trait{
		Comment:  comment,
		Location: issue.Caller(1),
		predicate: func(context.Context) (bool, error) {
			return true, nil
		},
		negate: true,
	}
}

// EnabledWhen runs the subject only when pred reports true.
func EnabledWhen(comment string, pred Predicate) Trait {
	return Trait{
		Comment:   comment,
		Location:  issue.Caller(1),
		predicate: pred,
	}
}

// DisabledWhen skips the subject when pred reports true.
func DisabledWhen(comment string, pred Predicate) Trait {
	return Trait{
		Comment:   comment,
		Location:  issue.Caller(1),
		predicate: pred,
		negate:    true,
	}
}

// Evaluate runs the trait's predicate once. It returns whether
// the subject may run and, if not, the reason. A failing or
// panicking predicate disables the subject with the failure text
// as reason.
func (tr Trait) Evaluate(ctx context.Context) (enabled bool, reason string) {
	if tr.predicate == nil {
		return true, ""
	}

	ok, err := callPredicate(ctx, tr.predicate)
	if err != nil {
		return false, err.Error()
	}

	enabled = ok != tr.negate
	if enabled {
		return true, ""
	}
	if tr.Comment != "" {
		return false, tr.Comment
	}
	return false, "disabled"
}

func callPredicate(ctx context.Context, p Predicate) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("condition panicked: %v", r)
		}
	}()
	return p(ctx)
}
