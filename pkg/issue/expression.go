package issue

import (
	"fmt"
	"strings"
)

// Operand is one captured sub-value of an evaluated condition.
type Operand struct {
	// Label names the operand, e.g. "lhs" or "rhs".
	Label string `json:"label"`

	// Value is the operand as observed at evaluation time.
	Value any `json:"value"`
}

// Expression records what a condition evaluated, so a failure
// can show both sides of a comparison rather than a bare false.
type Expression struct {
	// Text is a caller-supplied rendering of the source
	// expression, if any.
	Text string `json:"text,omitempty"`

	// Operator is the comparison operator, e.g. "==" or ">".
	// Empty for plain boolean conditions.
	Operator string `json:"operator,omitempty"`

	// Operands holds the captured values in source order.
	Operands []Operand `json:"operands,omitempty"`
}

// Operand returns the captured value with the given label.
func (e *Expression) Operand(label string) (any, bool) {
	if e == nil {
		return nil, false
	}
	for _, o := range e.Operands {
		if o.Label == label {
			return o.Value, true
		}
	}
	return nil, false
}

// String renders the expression with its captured values, e.g.
// `1 == 2` or `len(xs) > 3 (lhs: 2, rhs: 3)`.
func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	if e.Operator != "" && len(e.Operands) == 2 && e.Text == "" {
		return fmt.Sprintf("%#v %s %#v",
			e.Operands[0].Value, e.Operator, e.Operands[1].Value)
	}
	if len(e.Operands) == 0 {
		return e.Text
	}
	parts := make([]string, 0, len(e.Operands))
	for _, o := range e.Operands {
		parts = append(parts, fmt.Sprintf("%s: %#v", o.Label, o.Value))
	}
	text := e.Text
	if text == "" {
		text = e.Operator
	}
	return fmt.Sprintf("%s (%s)", text, strings.Join(parts, ", "))
}
