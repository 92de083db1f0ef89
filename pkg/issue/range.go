package issue

import (
	"fmt"
	"math"
)

// Range is a closed interval of counts, used for expected
// confirmation counts.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Exactly returns the range n...n.
func Exactly(n int) Range { return Range{Min: n, Max: n} }

// AtLeast returns the range n... with no upper bound.
func AtLeast(n int) Range { return Range{Min: n, Max: math.MaxInt} }

// Between returns the range lo...hi. The bounds are swapped if
// given in the wrong order.
func Between(lo, hi int) Range {
	if lo > hi {
		lo, hi = hi, lo
	}
	return Range{Min: lo, Max: hi}
}

// Contains reports whether n lies within the range.
func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// String renders the range as "min...max" or "min..." when
// unbounded.
func (r Range) String() string {
	if r.Max == math.MaxInt {
		return fmt.Sprintf("%d...", r.Min)
	}
	return fmt.Sprintf("%d...%d", r.Min, r.Max)
}
