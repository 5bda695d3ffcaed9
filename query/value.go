package query

import "time"

// Value is the tagged union a Condition compares a field against: null,
// bool, number, string, timestamp, list-of-Value, geometry, bbox,
// dwithin-pair, or between-pair. Concrete kinds below each implement the
// private marker so the set is closed to this package.
type Value interface {
	isValue()
}

// Null is the JSON null value.
type Null struct{}

func (Null) isValue() {}

// Bool is a boolean scalar.
type Bool bool

func (Bool) isValue() {}

// Number is an integer or real scalar.
type Number float64

func (Number) isValue() {}

// Str is a string scalar.
type Str string

func (Str) isValue() {}

// Timestamp is an absolute point in time.
type Timestamp time.Time

func (Timestamp) isValue() {}

// Time converts back to time.Time.
func (t Timestamp) Time() time.Time { return time.Time(t) }

// List is a list of Value, used by in/not_in/all and similar set operators.
type List []Value

func (List) isValue() {}

// GeometryKind names the GeoJSON subset Geometry supports.
type GeometryKind string

const (
	GeomPoint           GeometryKind = "Point"
	GeomLineString      GeometryKind = "LineString"
	GeomPolygon         GeometryKind = "Polygon"
	GeomMultiPoint      GeometryKind = "MultiPoint"
	GeomMultiLineString GeometryKind = "MultiLineString"
	GeomMultiPolygon    GeometryKind = "MultiPolygon"
)

// Geometry is a GeoJSON geometry literal (Point/LineString/Polygon/Multi*).
type Geometry struct {
	Kind        GeometryKind
	Coordinates any // nested []float64 / [][]float64 / [][][]float64 per kind
}

func (Geometry) isValue() {}

// BBox is a 4-tuple of reals: minX, minY, maxX, maxY.
type BBox [4]float64

func (BBox) isValue() {}

// DWithin pairs a geometry with a distance in meters, for the dwithin
// operator.
type DWithin struct {
	Geometry     Geometry
	DistanceM float64
}

func (DWithin) isValue() {}

// Between pairs two scalar Values for the between/not_between operators.
// Lo must be <= Hi; the validator enforces this.
type Between struct {
	Lo Value
	Hi Value
}

func (Between) isValue() {}

// Raw wraps a record field value of a shape outside the closed Value
// union (e.g. a nested map from a dynamic record) so the memory evaluator
// can still carry it through existence checks (is_null/is_empty) even
// though no operator can meaningfully compare it.
type Raw struct{ V any }

func (Raw) isValue() {}
