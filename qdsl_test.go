package qdsl

import (
	"context"
	"testing"

	"github.com/qdsl/qdsl/query"
	"github.com/qdsl/qdsl/resolve"
	"github.com/qdsl/qdsl/storage/sqlite"
)

func cond(field string, op query.OperatorTag, v query.Value) *query.Condition {
	return &query.Condition{Field: query.DottedPath{field}, Operator: op, Value: v}
}

func simpleQuery() *query.Query {
	return &query.Query{Groups: []*query.Group{
		{Op: query.OpAnd, Children: []query.Node{
			cond("status", "=", query.Str("active")),
		}},
	}}
}

func TestSearchDispatchesToMemoryBackendWhenNoSQLTarget(t *testing.T) {
	records := []any{
		map[string]any{"status": "active"},
		map[string]any{"status": "inactive"},
	}
	out, err := Search(context.Background(), simpleQuery(), records, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 match, got %d", len(out))
	}
}

func TestSearchMemoryBackendPropagatesValidationError(t *testing.T) {
	q := &query.Query{Groups: []*query.Group{{Op: query.OpAnd}}}
	_, err := Search(context.Background(), q, []any{}, nil, nil, nil)
	if err == nil {
		t.Fatalf("expected a validation error for an empty group")
	}
}

func TestSearchStreamMemoryBackend(t *testing.T) {
	records := []any{
		map[string]any{"status": "active"},
		map[string]any{"status": "active"},
	}
	out, errc := SearchStream(context.Background(), simpleQuery(), records, nil, nil, nil)
	var got []any
	for rec := range out {
		got = append(got, rec)
	}
	if err := <-errc; err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 streamed records, got %d", len(got))
	}
}

func TestSearchStreamMemoryBackendValidationErrorClosesChannels(t *testing.T) {
	q := &query.Query{Groups: []*query.Group{{Op: query.OpAnd}}}
	out, errc := SearchStream(context.Background(), q, []any{}, nil, nil, nil)
	for range out {
		t.Fatalf("expected no records on an invalid query")
	}
	if err := <-errc; err == nil {
		t.Fatalf("expected a validation error on the error channel")
	}
}

func sqlSchema() *resolve.StaticSchema {
	return resolve.NewStaticSchema(map[string]resolve.ModelSpec{
		"users": {
			Columns: []string{"id", "name", "status"},
		},
	})
}

func TestExplainCompilesSQLWithoutExecuting(t *testing.T) {
	adapter := sqlite.New(":memory:")
	target := &SQLTarget{Model: "users", Schema: sqlSchema()}
	translated, err := Explain(simpleQuery(), adapter, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if translated.SQL == "" {
		t.Fatalf("expected non-empty SQL")
	}
	if len(translated.Args) != 1 || translated.Args[0] != "active" {
		t.Fatalf("unexpected args: %#v", translated.Args)
	}
}

func TestExplainPropagatesValidationError(t *testing.T) {
	q := &query.Query{Groups: []*query.Group{{Op: query.OpAnd}}}
	adapter := sqlite.New(":memory:")
	target := &SQLTarget{Model: "users", Schema: sqlSchema()}
	_, err := Explain(q, adapter, target)
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestExplainRejectsUnknownModel(t *testing.T) {
	adapter := sqlite.New(":memory:")
	target := &SQLTarget{Model: "ghosts", Schema: sqlSchema()}
	_, err := Explain(simpleQuery(), adapter, target)
	if err == nil {
		t.Fatalf("expected an error resolving an unknown model")
	}
}

func TestSearchRequiresAllThreeSQLCollaborators(t *testing.T) {
	// With db nil, even a non-nil adapter/target must fall through to the
	// memory backend rather than panicking on a nil *sql.DB dereference.
	records := []any{map[string]any{"status": "active"}}
	adapter := sqlite.New(":memory:")
	target := &SQLTarget{Model: "users", Schema: sqlSchema()}
	out, err := Search(context.Background(), simpleQuery(), records, nil, adapter, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected memory-backend dispatch to still run, got %d results", len(out))
	}
}
