// Package operator implements the operator registry: the closed set of
// operator tags, their arities, value-kind shapes, and backend support,
// built once from a static table at init() — the registry is read-only
// and process-wide.
package operator

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/qdsl/qdsl/query"
)

// Arity distinguishes operators that forbid a value (is_null and friends)
// from every other operator, which requires exactly one Value (whose shape
// may itself be a list, pair, or range — see ValueKind).
type Arity int

const (
	ArityNone Arity = iota // unary: is_null, is_not_null, is_empty, is_not_empty
	ArityOne
)

// ValueKind describes the shape a Condition's Value must take to be valid
// for a given operator.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindScalar
	KindScalarString
	KindList
	KindRangePair
	KindGeometry
	KindBBox
	KindDWithinPair
	KindTokenString
)

// Backend is a bitmask of which evaluators support an operator.
type Backend int

const (
	Memory Backend = 1 << 0
	SQL    Backend = 1 << 1
)

func (b Backend) Has(one Backend) bool { return b&one != 0 }

func (b Backend) String() string {
	switch b {
	case Memory:
		return "memory"
	case SQL:
		return "sql"
	case Memory | SQL:
		return "memory|sql"
	default:
		return "none"
	}
}

// Family groups operators by kind (comparison, set, string, ...); it has no
// effect on validated semantics.
type Family string

const (
	FamilyComparison Family = "comparison"
	FamilySet        Family = "set"
	FamilyString     Family = "string"
	FamilyNull       Family = "null"
	FamilyJSONB      Family = "jsonb"
	FamilyGeometry   Family = "geometry"
	FamilyFTS        Family = "fts"
)

// Entry is one row of the operator matrix.
type Entry struct {
	Tag       query.OperatorTag
	Arity     Arity
	ValueKind ValueKind
	Backends  Backend
	Family    Family
}

var registry map[query.OperatorTag]Entry

func register(tag string, arity Arity, kind ValueKind, backends Backend, family Family) {
	registry[query.OperatorTag(tag)] = Entry{
		Tag:       query.OperatorTag(tag),
		Arity:     arity,
		ValueKind: kind,
		Backends:  backends,
		Family:    family,
	}
}

func init() {
	registry = make(map[query.OperatorTag]Entry, 48)

	both := Memory | SQL

	// Comparison.
	for _, t := range []string{"=", "!=", ">", "<", ">=", "<="} {
		register(t, ArityOne, KindScalar, both, FamilyComparison)
	}

	// Set.
	register("in", ArityOne, KindList, both, FamilySet)
	register("not_in", ArityOne, KindList, both, FamilySet)
	register("all", ArityOne, KindList, both, FamilySet)
	register("between", ArityOne, KindRangePair, both, FamilySet)
	register("not_between", ArityOne, KindRangePair, both, FamilySet)

	// String.
	register("like", ArityOne, KindScalarString, both, FamilyString)
	register("not_like", ArityOne, KindScalarString, both, FamilyString)
	register("ilike", ArityOne, KindScalarString, both, FamilyString)
	register("contains", ArityOne, KindScalarString, both, FamilyString)
	register("icontains", ArityOne, KindScalarString, both, FamilyString)
	register("startswith", ArityOne, KindScalarString, both, FamilyString)
	register("istartswith", ArityOne, KindScalarString, both, FamilyString)
	register("endswith", ArityOne, KindScalarString, both, FamilyString)
	register("iendswith", ArityOne, KindScalarString, both, FamilyString)
	register("regex", ArityOne, KindScalarString, both, FamilyString)
	register("iregex", ArityOne, KindScalarString, both, FamilyString)

	// Null/empty.
	register("is_null", ArityNone, KindNone, both, FamilyNull)
	register("is_not_null", ArityNone, KindNone, both, FamilyNull)
	register("is_empty", ArityNone, KindNone, both, FamilyNull)
	register("is_not_empty", ArityNone, KindNone, both, FamilyNull)

	// JSONB — SQL only.
	register("jsonb_contains", ArityOne, KindScalar, SQL, FamilyJSONB)
	register("jsonb_contained_by", ArityOne, KindScalar, SQL, FamilyJSONB)
	register("jsonb_has_key", ArityOne, KindScalarString, SQL, FamilyJSONB)
	register("jsonb_has_any_keys", ArityOne, KindList, SQL, FamilyJSONB)
	register("jsonb_has_all_keys", ArityOne, KindList, SQL, FamilyJSONB)
	register("jsonb_path_exists", ArityOne, KindScalarString, SQL, FamilyJSONB)

	// Geometry — SQL only.
	register("intersects", ArityOne, KindGeometry, SQL, FamilyGeometry)
	register("within", ArityOne, KindGeometry, SQL, FamilyGeometry)
	register("contains_geom", ArityOne, KindGeometry, SQL, FamilyGeometry)
	register("touches", ArityOne, KindGeometry, SQL, FamilyGeometry)
	register("crosses", ArityOne, KindGeometry, SQL, FamilyGeometry)
	register("overlaps", ArityOne, KindGeometry, SQL, FamilyGeometry)
	register("disjoint", ArityOne, KindGeometry, SQL, FamilyGeometry)
	register("geom_equals", ArityOne, KindGeometry, SQL, FamilyGeometry)
	register("distance_lt", ArityOne, KindDWithinPair, SQL, FamilyGeometry)
	register("dwithin", ArityOne, KindDWithinPair, SQL, FamilyGeometry)
	register("bbox_intersects", ArityOne, KindBBox, SQL, FamilyGeometry)

	// Full-text — SQL only.
	register("fts", ArityOne, KindTokenString, SQL, FamilyFTS)
	register("fts_phrase", ArityOne, KindTokenString, SQL, FamilyFTS)
}

// Get looks up an operator by tag.
func Get(tag query.OperatorTag) (Entry, bool) {
	e, ok := registry[tag]
	return e, ok
}

// Names returns every registered operator tag, for fuzzy-suggestion lookup.
func Names() []string {
	tags := maps.Keys(registry)
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	sort.Strings(names)
	return names
}

// SupportedBy returns every operator admissible for the given backend.
func SupportedBy(backend Backend) []Entry {
	var out []Entry
	for _, e := range registry {
		if e.Backends.Has(backend) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// All returns every registered operator entry.
func All() []Entry {
	out := make([]Entry, 0, len(registry))
	for _, e := range registry {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}
