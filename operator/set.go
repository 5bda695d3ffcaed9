package operator

import "github.com/qdsl/qdsl/query"

// Set implements query.OperatorSet for one backend, so the validator (in
// package query) never needs to import this package — the dependency runs
// operator -> query only, avoiding a cycle.
type Set struct {
	backend Backend
}

// ForMemory returns the operator set admissible for the memory evaluator.
func ForMemory() *Set { return &Set{backend: Memory} }

// ForSQL returns the operator set admissible for the SQL translator.
func ForSQL() *Set { return &Set{backend: SQL} }

func (s *Set) BackendName() string { return s.backend.String() }

func (s *Set) Exists(tag query.OperatorTag) bool {
	_, ok := Get(tag)
	return ok
}

func (s *Set) Allowed(tag query.OperatorTag) (requiresValue bool, ok bool) {
	e, found := Get(tag)
	if !found || !e.Backends.Has(s.backend) {
		return false, false
	}
	return e.Arity != ArityNone, true
}

func (s *Set) Names() []string { return Names() }

func (s *Set) ValueMatches(tag query.OperatorTag, v query.Value) (ok bool, expected string, got string) {
	e, found := Get(tag)
	if !found {
		return false, "", describeValue(v)
	}
	return matchesKind(e.ValueKind, v)
}

func matchesKind(kind ValueKind, v query.Value) (ok bool, expected string, got string) {
	got = describeValue(v)
	switch kind {
	case KindNone:
		return v == nil, "no value", got
	case KindScalar:
		switch v.(type) {
		case query.Null, query.Bool, query.Number, query.Str, query.Timestamp:
			return true, "scalar", got
		}
		return false, "scalar", got
	case KindScalarString:
		_, isStr := v.(query.Str)
		return isStr, "string", got
	case KindList:
		_, isList := v.(query.List)
		return isList, "list", got
	case KindRangePair:
		_, isBetween := v.(query.Between)
		return isBetween, "between-pair", got
	case KindGeometry:
		_, isGeom := v.(query.Geometry)
		return isGeom, "geometry", got
	case KindBBox:
		_, isBBox := v.(query.BBox)
		return isBBox, "bbox", got
	case KindDWithinPair:
		_, isDWithin := v.(query.DWithin)
		return isDWithin, "dwithin-pair", got
	case KindTokenString:
		_, isStr := v.(query.Str)
		return isStr, "token-string", got
	default:
		return false, "unknown", got
	}
}

func describeValue(v query.Value) string {
	switch v.(type) {
	case nil:
		return "none"
	case query.Null:
		return "null"
	case query.Bool:
		return "bool"
	case query.Number:
		return "number"
	case query.Str:
		return "string"
	case query.Timestamp:
		return "timestamp"
	case query.List:
		return "list"
	case query.Geometry:
		return "geometry"
	case query.BBox:
		return "bbox"
	case query.DWithin:
		return "dwithin-pair"
	case query.Between:
		return "between-pair"
	default:
		return "unknown"
	}
}
