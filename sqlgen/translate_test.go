package sqlgen

import (
	"strings"
	"testing"

	"github.com/qdsl/qdsl/query"
	"github.com/qdsl/qdsl/resolve"
)

func testSchema() *resolve.StaticSchema {
	joinPred := func(parentCol, childCol string) func(string, string) string {
		return func(parentAlias, alias string) string {
			return alias + "." + childCol + " = " + parentAlias + "." + parentCol
		}
	}
	return resolve.NewStaticSchema(map[string]resolve.ModelSpec{
		"users": {
			Columns: []string{"id", "name", "age"},
			Relations: map[string]resolve.Relation{
				"orders": {TargetModel: "orders", JoinPredicate: joinPred("id", "user_id")},
			},
		},
		"orders": {
			Columns: []string{"id", "user_id", "total"},
		},
	})
}

func sqlCond(field string, op query.OperatorTag, v query.Value) *query.Condition {
	path, err := query.ParseDottedPath(field)
	if err != nil {
		panic(err)
	}
	return &query.Condition{Field: path, Operator: op, Value: v}
}

func sqlGroup(op query.GroupOp, children ...query.Node) *query.Group {
	return &query.Group{Op: op, Children: children}
}

func newTranslator(style PlaceholderStyle, caps Capabilities) *Translator {
	return &Translator{
		Style:        style,
		Resolver:     &resolve.SQLResolver{Schema: testSchema()},
		Capabilities: caps,
	}
}

func TestTranslateSimpleEquality(t *testing.T) {
	tr := newTranslator(PlaceholderDollar, Capabilities{})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd, sqlCond("name", "=", query.Str("alice")))}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "SELECT users.* FROM users AS users") {
		t.Fatalf("unexpected SQL: %s", out.SQL)
	}
	if !strings.Contains(out.SQL, "users.name = $1") {
		t.Fatalf("unexpected predicate in SQL: %s", out.SQL)
	}
	if len(out.Args) != 1 || out.Args[0] != "alice" {
		t.Fatalf("unexpected args: %+v", out.Args)
	}
}

func TestTranslateEmitsJoinForRelation(t *testing.T) {
	tr := newTranslator(PlaceholderQuestion, Capabilities{})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd, sqlCond("orders.total", ">", query.Number(100)))}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "INNER JOIN orders AS orders ON orders.user_id = users.id") {
		t.Fatalf("expected a join clause, got: %s", out.SQL)
	}
	if !strings.Contains(out.SQL, "orders.total > ?") {
		t.Fatalf("unexpected predicate: %s", out.SQL)
	}
}

func TestTranslateAliasReuseAcrossConditions(t *testing.T) {
	tr := newTranslator(PlaceholderQuestion, Capabilities{})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd,
		sqlCond("orders.total", ">", query.Number(100)),
		sqlCond("orders.id", "!=", query.Number(5)),
	)}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Plan.Steps) != 1 {
		t.Fatalf("expected a single shared join, got %d: %+v", len(out.Plan.Steps), out.Plan.Steps)
	}
}

func TestTranslateAndOrNotGroups(t *testing.T) {
	tr := newTranslator(PlaceholderQuestion, Capabilities{})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpOr,
		sqlCond("name", "=", query.Str("a")),
		sqlCond("name", "=", query.Str("b")),
	)}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, " OR ") {
		t.Fatalf("expected an OR join in SQL: %s", out.SQL)
	}
}

func TestTranslateEmptyAndGroupIsTrue(t *testing.T) {
	tr := newTranslator(PlaceholderQuestion, Capabilities{})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd)}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "WHERE TRUE") {
		t.Fatalf("expected WHERE TRUE for an empty AND group, got: %s", out.SQL)
	}
}

func TestTranslateOrderByLimitOffset(t *testing.T) {
	tr := newTranslator(PlaceholderDollar, Capabilities{})
	limit := uint32(10)
	offset := uint32(5)
	q := &query.Query{
		Groups:  []*query.Group{sqlGroup(query.OpAnd, sqlCond("name", "=", query.Str("a")))},
		OrderBy: []query.OrderKey{{Path: query.DottedPath{"age"}, Direction: query.Desc}},
		Limit:   &limit,
		Offset:  &offset,
	}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "ORDER BY users.age DESC NULLS FIRST") {
		t.Fatalf("expected an ORDER BY clause with NULLS FIRST, got: %s", out.SQL)
	}
	if !strings.Contains(out.SQL, "LIMIT $2") || !strings.Contains(out.SQL, "OFFSET $3") {
		t.Fatalf("expected LIMIT/OFFSET placeholders, got: %s", out.SQL)
	}
}

func TestTranslateRejectsGeometryWithoutCapability(t *testing.T) {
	tr := newTranslator(PlaceholderQuestion, Capabilities{Geometry: false})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd,
		sqlCond("name", "intersects", query.Geometry{Kind: query.GeomPoint, Coordinates: []float64{1, 2}}),
	)}}
	if _, err := tr.Translate(q, "users"); err == nil {
		t.Fatal("expected an error when geometry capability is absent")
	}
}

func TestTranslateAllowsGeometryWithCapability(t *testing.T) {
	tr := newTranslator(PlaceholderQuestion, Capabilities{Geometry: true})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd,
		sqlCond("name", "intersects", query.Geometry{Kind: query.GeomPoint, Coordinates: []float64{1, 2}}),
	)}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "ST_Intersects") {
		t.Fatalf("expected ST_Intersects in SQL, got: %s", out.SQL)
	}
}

func TestTranslateFTSUsesPlaintoTsquery(t *testing.T) {
	tr := newTranslator(PlaceholderDollar, Capabilities{FTS: true})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd,
		sqlCond("name", "fts", query.Str("red shoes")),
	)}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "plainto_tsquery('english', $1)") {
		t.Fatalf("expected fts to use plainto_tsquery for free-text input, got: %s", out.SQL)
	}
	if strings.Contains(strings.ReplaceAll(out.SQL, "plainto_tsquery(", ""), "to_tsquery(") {
		t.Fatalf("fts must not emit to_tsquery, which rejects ordinary multi-word input, got: %s", out.SQL)
	}
}

func TestTranslateFTSPhraseUsesPhrasetoTsquery(t *testing.T) {
	tr := newTranslator(PlaceholderDollar, Capabilities{FTS: true})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd,
		sqlCond("name", "fts_phrase", query.Str("red shoes")),
	)}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "phraseto_tsquery('english', $1)") {
		t.Fatalf("expected fts_phrase to use phraseto_tsquery, got: %s", out.SQL)
	}
}

func TestTranslateRejectsFTSWithoutCapability(t *testing.T) {
	tr := newTranslator(PlaceholderQuestion, Capabilities{FTS: false})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd, sqlCond("name", "fts", query.Str("hello")))}}
	if _, err := tr.Translate(q, "users"); err == nil {
		t.Fatal("expected an error when FTS capability is absent")
	}
}

func TestTranslateInAndBetween(t *testing.T) {
	tr := newTranslator(PlaceholderQuestion, Capabilities{})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd,
		sqlCond("age", "in", query.List{query.Number(1), query.Number(2)}),
		sqlCond("age", "between", query.Between{Lo: query.Number(1), Hi: query.Number(10)}),
	)}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "users.age IN (?, ?)") {
		t.Fatalf("expected an IN clause, got: %s", out.SQL)
	}
	if !strings.Contains(out.SQL, "users.age BETWEEN ? AND ?") {
		t.Fatalf("expected a BETWEEN clause, got: %s", out.SQL)
	}
}

func TestTranslateHookCustomPredicateSubstitutesPlaceholders(t *testing.T) {
	hook := func(ctx *resolve.ResolutionContext) (*resolve.HookResult, error) {
		return &resolve.HookResult{Kind: resolve.HookCustomPredicate, Predicate: "users.name ILIKE ?", Params: []any{"%a%"}}, nil
	}
	tr := &Translator{
		Style:    PlaceholderDollar,
		Resolver: &resolve.SQLResolver{Schema: testSchema(), Hooks: []resolve.Hook{hook}},
	}
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd, sqlCond("name", "=", query.Str("unused")))}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "users.name ILIKE $1") {
		t.Fatalf("expected the hook predicate to be rewritten to $1, got: %s", out.SQL)
	}
	if len(out.Args) != 1 || out.Args[0] != "%a%" {
		t.Fatalf("unexpected args: %+v", out.Args)
	}
}

func TestTranslateOrderByAscendingUsesNullsLast(t *testing.T) {
	tr := newTranslator(PlaceholderDollar, Capabilities{})
	q := &query.Query{
		Groups:  []*query.Group{sqlGroup(query.OpAnd, sqlCond("name", "=", query.Str("a")))},
		OrderBy: []query.OrderKey{{Path: query.DottedPath{"age"}, Direction: query.Asc}},
	}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "ORDER BY users.age ASC NULLS LAST") {
		t.Fatalf("expected an ORDER BY clause with NULLS LAST, got: %s", out.SQL)
	}
}

func TestTranslateAllRequiresFieldSubsetOfValue(t *testing.T) {
	tr := newTranslator(PlaceholderDollar, Capabilities{})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd,
		sqlCond("name", "all", query.List{query.Str("a"), query.Str("b")}),
	)}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "users.name <@ ARRAY[$1, $2]") {
		t.Fatalf("expected the field array to be checked as contained by the value array, got: %s", out.SQL)
	}
}

func TestTranslateBBoxIntersectsUsesDoubleAmpersand(t *testing.T) {
	tr := newTranslator(PlaceholderDollar, Capabilities{Geometry: true})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd,
		sqlCond("name", "bbox_intersects", query.BBox{1, 2, 3, 4}),
	)}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "users.name && ST_MakeEnvelope(") {
		t.Fatalf("expected a double-ampersand bbox overlap operator, got: %s", out.SQL)
	}
	if strings.Contains(out.SQL, "&&&") {
		t.Fatalf("bbox_intersects must not emit the nonexistent triple-ampersand operator, got: %s", out.SQL)
	}
}

func TestTranslateJSONBHasKeyUsesSingleQuestionMark(t *testing.T) {
	tr := newTranslator(PlaceholderDollar, Capabilities{JSONB: true})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd,
		sqlCond("name", "jsonb_has_key", query.Str("color")),
	)}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "users.name ? $1") {
		t.Fatalf("expected a single-? jsonb has-key operator, got: %s", out.SQL)
	}
	if strings.Contains(out.SQL, "??") {
		t.Fatalf("jsonb_has_key must not emit the invalid double-? operator, got: %s", out.SQL)
	}
}

func TestTranslateIsNullEmitsNoBoundParameter(t *testing.T) {
	tr := newTranslator(PlaceholderQuestion, Capabilities{})
	q := &query.Query{Groups: []*query.Group{sqlGroup(query.OpAnd, &query.Condition{Field: query.DottedPath{"name"}, Operator: "is_null"})}}
	out, err := tr.Translate(q, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.SQL, "users.name IS NULL") {
		t.Fatalf("unexpected SQL: %s", out.SQL)
	}
	if len(out.Args) != 0 {
		t.Fatalf("expected no bound params for is_null, got %+v", out.Args)
	}
}
