package expect

import (
	"cmp"
	"fmt"

	"digital.vasic.expectations/pkg/issue"
)

// Evaluation is the transient outcome of evaluating a Condition.
// On failure, Expression carries the captured sub-values.
type Evaluation struct {
	Passed     bool
	Expression *issue.Expression
	// Err is set when the condition could not be evaluated, e.g.
	// incomparable operands.
	Err error
}

// Condition is a deferred check. It is evaluated once, inside the
// expectation call, so the operands it captures are the values
// observed at that moment.
type Condition func() Evaluation

// True wraps a precomputed boolean. Only text is captured, so
// prefer a comparison builder when operands matter.
func True(ok bool, text string) Condition {
	return func() Evaluation {
		return Evaluation{
			Passed:     ok,
			Expression: &issue.Expression{Text: text},
		}
	}
}

// False expects ok to be false.
func False(ok bool, text string) Condition {
	return True(!ok, "!("+text+")")
}

// Func evaluates fn lazily.
func Func(text string, fn func() bool) Condition {
	return func() Evaluation {
		return Evaluation{
			Passed:     fn(),
			Expression: &issue.Expression{Text: text},
		}
	}
}

// Compare evaluates lhs op rhs through the default engine and
// captures both operands.
func Compare(lhs any, op string, rhs any) Condition {
	return CompareWith(Default, lhs, op, rhs)
}

// CompareWith is Compare against a specific engine.
func CompareWith(e Engine, lhs any, op string, rhs any) Condition {
	return func() Evaluation {
		ok, err := e.Compare(op, lhs, rhs)
		return Evaluation{
			Passed: ok && err == nil,
			Expression: &issue.Expression{
				Operator: op,
				Operands: []issue.Operand{
					{Label: "lhs", Value: lhs},
					{Label: "rhs", Value: rhs},
				},
			},
			Err: err,
		}
	}
}

// Equal expects lhs == rhs by deep equality.
func Equal[V any](lhs, rhs V) Condition {
	return Compare(lhs, OpEqual, rhs)
}

// NotEqual expects lhs != rhs.
func NotEqual[V any](lhs, rhs V) Condition {
	return Compare(lhs, OpNotEqual, rhs)
}

// Less expects lhs < rhs.
func Less[V cmp.Ordered](lhs, rhs V) Condition {
	return Compare(lhs, OpLess, rhs)
}

// LessOrEqual expects lhs <= rhs.
func LessOrEqual[V cmp.Ordered](lhs, rhs V) Condition {
	return Compare(lhs, OpLessOrEqual, rhs)
}

// Greater expects lhs > rhs.
func Greater[V cmp.Ordered](lhs, rhs V) Condition {
	return Compare(lhs, OpGreater, rhs)
}

// GreaterOrEqual expects lhs >= rhs.
func GreaterOrEqual[V cmp.Ordered](lhs, rhs V) Condition {
	return Compare(lhs, OpGreaterOrEqual, rhs)
}

// Contains expects container to hold element. See the contains
// operator for the supported container kinds.
func Contains(container, element any) Condition {
	return Compare(container, OpContains, element)
}

// Nil expects v to be nil, including typed nil pointers, maps,
// slices, channels and funcs.
func Nil(v any) Condition {
	return func() Evaluation {
		return Evaluation{
			Passed: isNil(v),
			Expression: &issue.Expression{
				Text:     "value == nil",
				Operator: OpEqual,
				Operands: []issue.Operand{{Label: "value", Value: v}},
			},
		}
	}
}

// NotNil expects v to be non-nil.
func NotNil(v any) Condition {
	return func() Evaluation {
		return Evaluation{
			Passed: !isNil(v),
			Expression: &issue.Expression{
				Text:     "value != nil",
				Operator: OpNotEqual,
				Operands: []issue.Operand{{Label: "value", Value: v}},
			},
		}
	}
}

// evaluate runs cond, converting a panic into a failed
// evaluation.
func evaluate(cond Condition) (ev Evaluation, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			ev = Evaluation{
				Expression: &issue.Expression{Text: "condition panicked"},
				Err:        fmt.Errorf("condition panicked: %v", r),
			}
		}
	}()
	if cond == nil {
		return Evaluation{
			Expression: &issue.Expression{Text: "nil condition"},
			Err:        fmt.Errorf("nil condition"),
		}, false
	}
	return cond(), false
}
