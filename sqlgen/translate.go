package sqlgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qdsl/qdsl/errs"
	"github.com/qdsl/qdsl/query"
	"github.com/qdsl/qdsl/resolve"
)

// Capabilities reports which S*-tagged operator families a target adapter
// supports, consulted before any JSONB/geometry/FTS predicate is emitted.
type Capabilities struct {
	FTS      bool
	JSONB    bool
	Geometry bool
}

// Translated is the compiled statement handed back by Translate: the SQL
// text, its bound parameters in placeholder order, and the JoinPlan that
// produced the join list (exposed for `explain`-style introspection).
type Translated struct {
	SQL    string
	Args   []any
	Plan   *resolve.JoinPlan
}

// Translator compiles a Query into SQL against one root model, resolving
// every Condition's path through the same SchemaIntrospector and sharing
// one JoinPlan across the whole query so alias reuse holds across
// conditions sharing a non-self-referential path prefix.
type Translator struct {
	Style        PlaceholderStyle
	Resolver     *resolve.SQLResolver
	Capabilities Capabilities
}

// Translate compiles q into a SELECT over rootModel.
func (t *Translator) Translate(q *query.Query, rootModel string) (*Translated, error) {
	plan := resolve.NewJoinPlan(rootModel)
	b := NewBuilder(t.Style)

	where, err := t.translateTopLevel(q, plan, b)
	if err != nil {
		return nil, err
	}

	orderParts := make([]string, 0, len(q.OrderBy))
	for _, k := range q.OrderBy {
		res, err := t.Resolver.Resolve(plan, k.Path)
		if err != nil {
			return nil, err
		}
		if res.Column == nil {
			return nil, errs.Newf(errs.KindTranslationFailed, "order_by path %q did not resolve to a column", k.Path.String())
		}
		dir := "ASC NULLS LAST"
		if k.Direction == query.Desc {
			dir = "DESC NULLS FIRST"
		}
		orderParts = append(orderParts, fmt.Sprintf("%s.%s %s", res.Column.Alias, res.Column.Column, dir))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s.* FROM %s AS %s", plan.RootAlias, plan.RootModel, plan.RootAlias)
	for _, step := range plan.Steps {
		fmt.Fprintf(&sb, " %s %s AS %s", step.Kind.String(), step.Relation, step.Alias)
		if step.On != "" {
			fmt.Fprintf(&sb, " ON %s", step.On)
		}
	}
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if len(orderParts) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orderParts, ", "))
	}
	if q.Limit != nil {
		fmt.Fprintf(&sb, " LIMIT %s", b.Arg(int64(*q.Limit)))
	}
	if q.Offset != nil {
		fmt.Fprintf(&sb, " OFFSET %s", b.Arg(int64(*q.Offset)))
	}

	return &Translated{SQL: sb.String(), Args: b.Args(), Plan: plan}, nil
}

// translateTopLevel ANDs q's top-level groups, per this module's resolution
// of the groups-composition open question (see DESIGN.md).
func (t *Translator) translateTopLevel(q *query.Query, plan *resolve.JoinPlan, b *Builder) (string, error) {
	parts := make([]string, 0, len(q.Groups))
	for _, g := range q.Groups {
		frag, err := t.translateGroup(g, plan, b)
		if err != nil {
			return "", err
		}
		parts = append(parts, frag)
	}
	return strings.Join(parts, " AND "), nil
}

func (t *Translator) translateNode(n query.Node, plan *resolve.JoinPlan, b *Builder) (string, error) {
	switch v := n.(type) {
	case *query.Group:
		return t.translateGroup(v, plan, b)
	case *query.Condition:
		return t.translateCondition(v, plan, b)
	default:
		return "", fmt.Errorf("unknown node type %T", n)
	}
}

func (t *Translator) translateGroup(g *query.Group, plan *resolve.JoinPlan, b *Builder) (string, error) {
	switch g.Op {
	case query.OpAnd:
		if len(g.Children) == 0 {
			return "TRUE", nil
		}
		parts, err := t.translateChildren(g.Children, plan, b)
		if err != nil {
			return "", err
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil
	case query.OpOr:
		if len(g.Children) == 0 {
			return "FALSE", nil
		}
		parts, err := t.translateChildren(g.Children, plan, b)
		if err != nil {
			return "", err
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	case query.OpNot:
		parts, err := t.translateChildren(g.Children, plan, b)
		if err != nil {
			return "", err
		}
		return "NOT (" + strings.Join(parts, " AND ") + ")", nil
	default:
		return "", fmt.Errorf("unknown group operator %v", g.Op)
	}
}

func (t *Translator) translateChildren(children []query.Node, plan *resolve.JoinPlan, b *Builder) ([]string, error) {
	parts := make([]string, 0, len(children))
	for _, c := range children {
		frag, err := t.translateNode(c, plan, b)
		if err != nil {
			return nil, err
		}
		parts = append(parts, frag)
	}
	return parts, nil
}

func (t *Translator) translateCondition(c *query.Condition, plan *resolve.JoinPlan, b *Builder) (string, error) {
	if err := t.checkCapability(c.Operator); err != nil {
		return "", err
	}

	res, err := t.Resolver.Resolve(plan, c.Field)
	if err != nil {
		return "", err
	}

	if res.Predicate != "" {
		return substitutePlaceholders(res.Predicate, res.Params, b), nil
	}

	if res.Column == nil {
		return "", errs.Newf(errs.KindTranslationFailed, "path %q resolved to neither a column nor a predicate", c.Field.String())
	}

	return emitOperator(res.Column, c.Operator, c.Value, b)
}

// substitutePlaceholders rewrites a hook's raw-SQL predicate (written with
// literal "?" placeholders) into the builder's configured style, binding
// each of params in order.
func substitutePlaceholders(predicate string, params []any, b *Builder) string {
	var sb strings.Builder
	i := 0
	for _, r := range predicate {
		if r == '?' && i < len(params) {
			sb.WriteString(b.Arg(params[i]))
			i++
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (t *Translator) checkCapability(op query.OperatorTag) error {
	switch op {
	case "fts", "fts_phrase":
		if !t.Capabilities.FTS {
			return errs.Newf(errs.KindOperatorNotSupportedByBackend, "operator %q requires full-text search support", string(op))
		}
	case "jsonb_contains", "jsonb_contained_by", "jsonb_has_key", "jsonb_has_any_keys", "jsonb_has_all_keys", "jsonb_path_exists":
		if !t.Capabilities.JSONB {
			return errs.Newf(errs.KindOperatorNotSupportedByBackend, "operator %q requires JSONB support", string(op))
		}
	case "intersects", "within", "contains_geom", "touches", "crosses", "overlaps", "disjoint", "geom_equals", "distance_lt", "dwithin", "bbox_intersects":
		if !t.Capabilities.Geometry {
			return errs.Newf(errs.KindOperatorNotSupportedByBackend, "operator %q requires geometry support", string(op))
		}
	}
	return nil
}

func nativeArg(v query.Value) any {
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
		return t.Time()
	default:
		return nil
	}
}

func geoJSON(g query.Geometry) (string, error) {
	b, err := json.Marshal(map[string]any{"type": string(g.Kind), "coordinates": g.Coordinates})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// emitOperator renders one Condition's operator+value against a resolved
// column, one case per operator family, every value routed through
// Builder.Arg rather than string-interpolated into the SQL text.
func emitOperator(col *resolve.ColumnRef, op query.OperatorTag, v query.Value, b *Builder) (string, error) {
	ref := col.Alias + "." + col.Column

	switch op {
	case "=", "!=", ">", "<", ">=", "<=":
		return fmt.Sprintf("%s %s %s", ref, op, b.Arg(nativeArg(v))), nil

	case "in", "not_in":
		list, ok := v.(query.List)
		if !ok {
			return "", errs.Newf(errs.KindValueShapeMismatch, "%s requires a list value", op)
		}
		placeholders := make([]string, 0, len(list))
		for _, e := range list {
			placeholders = append(placeholders, b.Arg(nativeArg(e)))
		}
		kw := "IN"
		if op == "not_in" {
			kw = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", ref, kw, strings.Join(placeholders, ", ")), nil

	case "all":
		list, ok := v.(query.List)
		if !ok {
			return "", errs.Newf(errs.KindValueShapeMismatch, "all requires a list value")
		}
		placeholders := make([]string, 0, len(list))
		for _, e := range list {
			placeholders = append(placeholders, b.Arg(nativeArg(e)))
		}
		return fmt.Sprintf("%s <@ ARRAY[%s]", ref, strings.Join(placeholders, ", ")), nil

	case "between", "not_between":
		pair, ok := v.(query.Between)
		if !ok {
			return "", errs.Newf(errs.KindValueShapeMismatch, "%s requires a range pair", op)
		}
		kw := "BETWEEN"
		if op == "not_between" {
			kw = "NOT BETWEEN"
		}
		return fmt.Sprintf("%s %s %s AND %s", ref, kw, b.Arg(nativeArg(pair.Lo)), b.Arg(nativeArg(pair.Hi))), nil

	case "like", "not_like", "ilike":
		kw := map[query.OperatorTag]string{"like": "LIKE", "not_like": "NOT LIKE", "ilike": "ILIKE"}[op]
		return fmt.Sprintf("%s %s %s", ref, kw, b.Arg(nativeArg(v))), nil

	case "contains", "icontains":
		kw := "LIKE"
		if op == "icontains" {
			kw = "ILIKE"
		}
		return fmt.Sprintf("%s %s '%%' || %s || '%%'", ref, kw, b.Arg(nativeArg(v))), nil

	case "startswith", "istartswith":
		kw := "LIKE"
		if op == "istartswith" {
			kw = "ILIKE"
		}
		return fmt.Sprintf("%s %s %s || '%%'", ref, kw, b.Arg(nativeArg(v))), nil

	case "endswith", "iendswith":
		kw := "LIKE"
		if op == "iendswith" {
			kw = "ILIKE"
		}
		return fmt.Sprintf("%s %s '%%' || %s", ref, kw, b.Arg(nativeArg(v))), nil

	case "regex", "iregex":
		kw := "~"
		if op == "iregex" {
			kw = "~*"
		}
		return fmt.Sprintf("%s %s %s", ref, kw, b.Arg(nativeArg(v))), nil

	case "is_null":
		return fmt.Sprintf("%s IS NULL", ref), nil
	case "is_not_null":
		return fmt.Sprintf("%s IS NOT NULL", ref), nil
	case "is_empty":
		return fmt.Sprintf("(%s IS NULL OR %s = '')", ref, ref), nil
	case "is_not_empty":
		return fmt.Sprintf("(%s IS NOT NULL AND %s != '')", ref, ref), nil

	case "jsonb_contains":
		return fmt.Sprintf("%s @> %s::jsonb", ref, b.Arg(jsonbText(v))), nil
	case "jsonb_contained_by":
		return fmt.Sprintf("%s <@ %s::jsonb", ref, b.Arg(jsonbText(v))), nil
	case "jsonb_has_key":
		return fmt.Sprintf("%s ? %s", ref, b.Arg(nativeArg(v))), nil
	case "jsonb_has_any_keys":
		return emitKeyArray(ref, "?|", v, b)
	case "jsonb_has_all_keys":
		return emitKeyArray(ref, "?&", v, b)
	case "jsonb_path_exists":
		return fmt.Sprintf("jsonb_path_exists(%s, %s)", ref, b.Arg(nativeArg(v))), nil

	case "intersects", "within", "contains_geom", "touches", "crosses", "overlaps", "disjoint", "geom_equals":
		geom, ok := v.(query.Geometry)
		if !ok {
			return "", errs.Newf(errs.KindValueShapeMismatch, "%s requires a geometry value", op)
		}
		js, err := geoJSON(geom)
		if err != nil {
			return "", err
		}
		fn := map[query.OperatorTag]string{
			"intersects": "ST_Intersects", "within": "ST_Within", "contains_geom": "ST_Contains",
			"touches": "ST_Touches", "crosses": "ST_Crosses", "overlaps": "ST_Overlaps",
			"disjoint": "ST_Disjoint", "geom_equals": "ST_Equals",
		}[op]
		return fmt.Sprintf("%s(ST_Transform(%s, 4326), ST_SetSRID(ST_GeomFromGeoJSON(%s), 4326))", fn, ref, b.Arg(js)), nil

	case "dwithin", "distance_lt":
		pair, ok := v.(query.DWithin)
		if !ok {
			return "", errs.Newf(errs.KindValueShapeMismatch, "%s requires a geometry+distance pair", op)
		}
		js, err := geoJSON(pair.Geometry)
		if err != nil {
			return "", err
		}
		if op == "dwithin" {
			return fmt.Sprintf("ST_DWithin(ST_Transform(%s, 3857), ST_Transform(ST_SetSRID(ST_GeomFromGeoJSON(%s), 4326), 3857), %s)",
				ref, b.Arg(js), b.Arg(pair.DistanceM)), nil
		}
		return fmt.Sprintf("ST_Distance(ST_Transform(%s, 3857), ST_Transform(ST_SetSRID(ST_GeomFromGeoJSON(%s), 4326), 3857)) < %s",
			ref, b.Arg(js), b.Arg(pair.DistanceM)), nil

	case "bbox_intersects":
		bbox, ok := v.(query.BBox)
		if !ok {
			return "", errs.Newf(errs.KindValueShapeMismatch, "bbox_intersects requires a 4-tuple")
		}
		return fmt.Sprintf("%s && ST_MakeEnvelope(%s, %s, %s, %s, 4326)", ref,
			b.Arg(bbox[0]), b.Arg(bbox[1]), b.Arg(bbox[2]), b.Arg(bbox[3])), nil

	case "fts":
		return fmt.Sprintf("to_tsvector('english', %s::text) @@ plainto_tsquery('english', %s)", ref, b.Arg(nativeArg(v))), nil
	case "fts_phrase":
		return fmt.Sprintf("to_tsvector('english', %s::text) @@ phraseto_tsquery('english', %s)", ref, b.Arg(nativeArg(v))), nil

	default:
		return "", errs.Newf(errs.KindTranslationFailed, "operator %q has no SQL emission", string(op))
	}
}

func emitKeyArray(ref, op string, v query.Value, b *Builder) (string, error) {
	list, ok := v.(query.List)
	if !ok {
		return "", errs.Newf(errs.KindValueShapeMismatch, "expected a list of keys")
	}
	placeholders := make([]string, 0, len(list))
	for _, e := range list {
		placeholders = append(placeholders, b.Arg(nativeArg(e)))
	}
	return fmt.Sprintf("%s %s ARRAY[%s]", ref, op, strings.Join(placeholders, ", ")), nil
}

func jsonbText(v query.Value) string {
	switch t := v.(type) {
	case query.Str:
		return string(t)
	default:
		b, err := json.Marshal(nativeArg(v))
		if err != nil {
			return ""
		}
		return string(b)
	}
}
