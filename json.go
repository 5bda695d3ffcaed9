package qdsl

import (
	"encoding/json"
	"fmt"

	"github.com/qdsl/qdsl/errs"
	"github.com/qdsl/qdsl/operator"
	"github.com/qdsl/qdsl/query"
)

// DecodeQuery parses a query document into an AST. Decoding is
// operator-registry-aware: a Condition's value is decoded according to its
// operator's declared value kind, so a JSON array means different things
// for `in` (a List) than for `between` (a range pair) or `bbox_intersects`
// (a BBox) — the operator tag disambiguates the wire shape. An operator tag
// unrecognized by the registry falls back to a generic scalar-or-list
// decode and is left for the validator to reject as UnknownOperator.
func DecodeQuery(data []byte) (*query.Query, error) {
	var wire struct {
		Groups  []json.RawMessage `json:"groups"`
		Limit   *uint32           `json:"limit"`
		Offset  *uint32           `json:"offset"`
		OrderBy []string          `json:"order_by"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, errs.Wrap(errs.KindMalformedPath, "invalid query document", err)
	}

	q := &query.Query{Limit: wire.Limit, Offset: wire.Offset}
	for _, raw := range wire.Groups {
		g, err := decodeGroup(raw)
		if err != nil {
			return nil, err
		}
		q.Groups = append(q.Groups, g)
	}
	for _, s := range wire.OrderBy {
		k, err := query.ParseOrderKey(s)
		if err != nil {
			return nil, err
		}
		q.OrderBy = append(q.OrderBy, k)
	}
	return q, nil
}

func decodeGroup(raw json.RawMessage) (*query.Group, error) {
	var wire struct {
		GroupOperator string            `json:"group_operator"`
		Conditions    []json.RawMessage `json:"conditions"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errs.Wrap(errs.KindMalformedPath, "invalid group", err)
	}

	op := query.OpAnd
	switch wire.GroupOperator {
	case "", "and":
		op = query.OpAnd
	case "or":
		op = query.OpOr
	case "not":
		op = query.OpNot
	default:
		return nil, errs.Newf(errs.KindEmptyGroup, "unknown group_operator %q", wire.GroupOperator)
	}

	g := &query.Group{Op: op}
	for _, raw := range wire.Conditions {
		n, err := decodeNode(raw)
		if err != nil {
			return nil, err
		}
		g.Children = append(g.Children, n)
	}
	return g, nil
}

func decodeNode(raw json.RawMessage) (query.Node, error) {
	var peek struct {
		Field      *string          `json:"field"`
		Conditions *json.RawMessage `json:"conditions"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return nil, errs.Wrap(errs.KindMalformedPath, "invalid group/condition", err)
	}
	if peek.Field != nil {
		return decodeCondition(raw)
	}
	if peek.Conditions != nil {
		return decodeGroup(raw)
	}
	return nil, errs.New(errs.KindEmptyGroup, "node is neither a group nor a condition")
}

func decodeCondition(raw json.RawMessage) (*query.Condition, error) {
	var wire struct {
		Field    string          `json:"field"`
		Operator string          `json:"operator"`
		Value    json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errs.Wrap(errs.KindMalformedPath, "invalid condition", err)
	}

	path, err := query.ParseDottedPath(wire.Field)
	if err != nil {
		return nil, err
	}

	tag := query.OperatorTag(wire.Operator)
	var kind operator.ValueKind
	if entry, ok := operator.Get(tag); ok {
		kind = entry.ValueKind
	} else {
		kind = operator.KindScalar
	}

	value, err := decodeValueForKind(wire.Value, kind)
	if err != nil {
		e := errs.Wrap(errs.KindValueShapeMismatch, fmt.Sprintf("condition %q", wire.Field), err)
		e.Operator = wire.Operator
		e.Field = wire.Field
		return nil, e
	}

	return &query.Condition{Field: path, Operator: tag, Value: value}, nil
}

func decodeValueForKind(raw json.RawMessage, kind operator.ValueKind) (query.Value, error) {
	if len(raw) == 0 {
		if kind == operator.KindNone {
			return nil, nil
		}
		return nil, fmt.Errorf("missing value")
	}

	switch kind {
	case operator.KindNone:
		return nil, nil
	case operator.KindScalarString, operator.KindTokenString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return query.Str(s), nil
	case operator.KindList:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		out := make(query.List, 0, len(items))
		for _, it := range items {
			v, err := decodeScalar(it)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case operator.KindRangePair:
		var pair [2]json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil {
			return nil, err
		}
		lo, err := decodeScalar(pair[0])
		if err != nil {
			return nil, err
		}
		hi, err := decodeScalar(pair[1])
		if err != nil {
			return nil, err
		}
		return query.Between{Lo: lo, Hi: hi}, nil
	case operator.KindGeometry:
		return decodeGeometry(raw)
	case operator.KindBBox:
		var b [4]float64
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return query.BBox(b), nil
	case operator.KindDWithinPair:
		var wire struct {
			Geometry   json.RawMessage `json:"geometry"`
			DistanceM  float64         `json:"distance_m"`
		}
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, err
		}
		g, err := decodeGeometry(wire.Geometry)
		if err != nil {
			return nil, err
		}
		return query.DWithin{Geometry: g, DistanceM: wire.DistanceM}, nil
	default:
		return decodeScalar(raw)
	}
}

func decodeGeometry(raw json.RawMessage) (query.Geometry, error) {
	var wire struct {
		Type        string `json:"type"`
		Coordinates any    `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return query.Geometry{}, err
	}
	switch query.GeometryKind(wire.Type) {
	case query.GeomPoint, query.GeomLineString, query.GeomPolygon,
		query.GeomMultiPoint, query.GeomMultiLineString, query.GeomMultiPolygon:
		return query.Geometry{Kind: query.GeometryKind(wire.Type), Coordinates: wire.Coordinates}, nil
	default:
		return query.Geometry{}, fmt.Errorf("unknown geometry type %q", wire.Type)
	}
}

// decodeScalar handles the generic null/bool/number/string/list cases used
// for comparison operators, list/range elements, and jsonb scalar values.
// A decoded string is run through CoerceValue so an ISO-8601 literal
// becomes a Timestamp automatically.
func decodeScalar(raw json.RawMessage) (query.Value, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return scalarFromAny(v)
}

func scalarFromAny(v any) (query.Value, error) {
	switch t := v.(type) {
	case nil:
		return query.Null{}, nil
	case bool:
		return query.Bool(t), nil
	case float64:
		return query.Number(t), nil
	case string:
		return query.CoerceValue(query.Str(t)), nil
	case []any:
		out := make(query.List, 0, len(t))
		for _, item := range t {
			sv, err := scalarFromAny(item)
			if err != nil {
				return nil, err
			}
			out = append(out, sv)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value literal %v", v)
	}
}

// EncodeQuery serializes an AST back to the query document shape. Together
// with DecodeQuery this supports a lossless builder round-trip.
func EncodeQuery(q *query.Query) ([]byte, error) {
	wire := struct {
		Groups  []any    `json:"groups"`
		Limit   *uint32  `json:"limit,omitempty"`
		Offset  *uint32  `json:"offset,omitempty"`
		OrderBy []string `json:"order_by,omitempty"`
	}{
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	for _, g := range q.Groups {
		wire.Groups = append(wire.Groups, encodeGroup(g))
	}
	for _, k := range q.OrderBy {
		wire.OrderBy = append(wire.OrderBy, k.String())
	}
	return json.Marshal(wire)
}

func encodeGroup(g *query.Group) map[string]any {
	out := map[string]any{"group_operator": g.Op.String()}
	conds := make([]any, 0, len(g.Children))
	for _, c := range g.Children {
		conds = append(conds, encodeNode(c))
	}
	out["conditions"] = conds
	return out
}

func encodeNode(n query.Node) any {
	switch v := n.(type) {
	case *query.Group:
		return encodeGroup(v)
	case *query.Condition:
		return encodeCondition(v)
	default:
		return nil
	}
}

func encodeCondition(c *query.Condition) map[string]any {
	out := map[string]any{
		"field":    c.Field.String(),
		"operator": string(c.Operator),
	}
	if c.Value != nil {
		out["value"] = encodeValue(c.Value)
	}
	return out
}

func encodeValue(v query.Value) any {
	switch t := v.(type) {
	case query.Null:
		return nil
	case query.Bool:
		return bool(t)
	case query.Number:
		return float64(t)
	case query.Str:
		return string(t)
	case query.Timestamp:
		return t.Time().Format("2006-01-02T15:04:05.999999999Z07:00")
	case query.List:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, encodeValue(item))
		}
		return out
	case query.Between:
		return []any{encodeValue(t.Lo), encodeValue(t.Hi)}
	case query.BBox:
		return []float64{t[0], t[1], t[2], t[3]}
	case query.Geometry:
		return map[string]any{"type": string(t.Kind), "coordinates": t.Coordinates}
	case query.DWithin:
		return map[string]any{"geometry": encodeValue(t.Geometry), "distance_m": t.DistanceM}
	default:
		return nil
	}
}
