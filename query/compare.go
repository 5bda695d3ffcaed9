package query

import "time"

// compareValues orders two scalar Values: natural ordering for numbers,
// lexicographic for strings, pointwise for timestamps. Mixed types
// are never ordered — comparable is false and cmp is meaningless in that
// case. Used by the validator's between(a,b) check and by the memory
// evaluator's comparison operators.
func compareValues(a, b Value) (cmp int, comparable bool) {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		if !ok {
			return 0, false
		}
		return cmpFloat(float64(av), float64(bv)), true
	case Str:
		bv, ok := b.(Str)
		if !ok {
			return 0, false
		}
		return cmpString(string(av), string(bv)), true
	case Timestamp:
		bv, ok := b.(Timestamp)
		if !ok {
			return 0, false
		}
		return cmpTime(time.Time(av), time.Time(bv)), true
	default:
		return 0, false
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// Equal reports whether two Values represent the same scalar, used by the
// `=`/`!=`/`in`/`not_in`/`all` family. Mixed types are never equal.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Timestamp:
		bv, ok := b.(Timestamp)
		return ok && time.Time(av).Equal(time.Time(bv))
	default:
		return false
	}
}

// Compare exposes compareValues for use outside this package (the memory
// evaluator lives in package eval).
func Compare(a, b Value) (cmp int, comparable bool) {
	return compareValues(a, b)
}
