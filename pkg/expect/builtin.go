package expect

import (
	"bytes"
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Built-in operators.
const (
	OpEqual          = "=="
	OpNotEqual       = "!="
	OpLess           = "<"
	OpLessOrEqual    = "<="
	OpGreater        = ">"
	OpGreaterOrEqual = ">="
	OpContains       = "contains"
)

// compareEqual is deep equality, with byte slices compared by
// content and numbers of different types compared by value. NaN
// equals nothing, itself included.
func compareEqual(lhs, rhs any) (bool, error) {
	if isNil(lhs) || isNil(rhs) {
		return isNil(lhs) && isNil(rhs), nil
	}
	if lb, ok := lhs.([]byte); ok {
		if rb, ok := rhs.([]byte); ok {
			return bytes.Equal(lb, rb), nil
		}
	}
	if reflect.DeepEqual(lhs, rhs) {
		return true, nil
	}
	lv, rv := reflect.ValueOf(lhs), reflect.ValueOf(rhs)
	if isNumber(lv) && isNumber(rv) {
		c, ordered, err := compareOrdered(lhs, rhs)
		return err == nil && ordered && c == 0, nil
	}
	return false, nil
}

func compareNotEqual(lhs, rhs any) (bool, error) {
	eq, err := compareEqual(lhs, rhs)
	return !eq, err
}

// orderedBy adapts a three-way comparison result to a boolean
// operator. Unordered operands satisfy no operator.
func orderedBy(accept func(int) bool) Comparator {
	return func(lhs, rhs any) (bool, error) {
		c, ordered, err := compareOrdered(lhs, rhs)
		if err != nil || !ordered {
			return false, err
		}
		return accept(c), nil
	}
}

// compareOrdered compares integers, unsigned integers, floats,
// strings and time.Time values. Signed and unsigned integers are
// compared exactly; float64 is used only when a float is
// involved. ordered is false when either side is NaN.
func compareOrdered(lhs, rhs any) (c int, ordered bool, err error) {
	if lt, ok := lhs.(time.Time); ok {
		if rt, ok := rhs.(time.Time); ok {
			return lt.Compare(rt), true, nil
		}
	}

	lv, rv := reflect.ValueOf(lhs), reflect.ValueOf(rhs)
	switch {
	case isInt(lv) && isInt(rv):
		return cmp.Compare(lv.Int(), rv.Int()), true, nil
	case isUint(lv) && isUint(rv):
		return cmp.Compare(lv.Uint(), rv.Uint()), true, nil
	case isInt(lv) && isUint(rv):
		return compareIntUint(lv.Int(), rv.Uint()), true, nil
	case isUint(lv) && isInt(rv):
		return -compareIntUint(rv.Int(), lv.Uint()), true, nil
	case isNumber(lv) && isNumber(rv):
		lf, rf := toFloat64(lv), toFloat64(rv)
		switch {
		case lf < rf:
			return -1, true, nil
		case lf > rf:
			return 1, true, nil
		case lf == rf:
			return 0, true, nil
		}
		return 0, false, nil
	case lv.IsValid() && rv.IsValid() &&
		lv.Kind() == reflect.String && rv.Kind() == reflect.String:
		return strings.Compare(lv.String(), rv.String()), true, nil
	}
	return 0, false, fmt.Errorf("cannot order %T and %T", lhs, rhs)
}

func compareIntUint(i int64, u uint64) int {
	if i < 0 {
		return -1
	}
	return cmp.Compare(uint64(i), u)
}

// compareContains reports whether container holds element: a
// substring of a string, an element of a slice or array, or a key
// of a map.
func compareContains(container, element any) (bool, error) {
	cv := reflect.ValueOf(container)
	if !cv.IsValid() {
		return false, fmt.Errorf("cannot search nil container")
	}

	switch cv.Kind() {
	case reflect.String:
		s, ok := element.(string)
		if !ok {
			return false, fmt.Errorf(
				"cannot search string for %T", element,
			)
		}
		return strings.Contains(cv.String(), s), nil
	case reflect.Slice, reflect.Array:
		for i := 0; i < cv.Len(); i++ {
			if eq, _ := compareEqual(cv.Index(i).Interface(), element); eq {
				return true, nil
			}
		}
		return false, nil
	case reflect.Map:
		ev := reflect.ValueOf(element)
		if !ev.IsValid() || !ev.Type().AssignableTo(cv.Type().Key()) {
			return false, fmt.Errorf(
				"cannot use %T as key of %T", element, container,
			)
		}
		return cv.MapIndex(ev).IsValid(), nil
	}
	return false, fmt.Errorf("cannot search %T", container)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface,
		reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func isInt(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16,
		reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(v reflect.Value) bool {
	return v.IsValid() &&
		(v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64)
}

func isNumber(v reflect.Value) bool {
	return isInt(v) || isUint(v) || isFloat(v)
}

func toFloat64(v reflect.Value) float64 {
	switch {
	case isInt(v):
		return float64(v.Int())
	case isUint(v):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
