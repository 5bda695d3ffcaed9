// Package qdsl is the root of the structured query DSL: a backend-agnostic
// boolean condition tree that can be validated once and evaluated against
// either an in-memory record source or a relational database through a
// single dual-backend dispatcher.
package qdsl

import (
	"context"
	"database/sql"

	"github.com/qdsl/qdsl/eval"
	"github.com/qdsl/qdsl/operator"
	"github.com/qdsl/qdsl/query"
	"github.com/qdsl/qdsl/resolve"
	"github.com/qdsl/qdsl/sqlgen"
	"github.com/qdsl/qdsl/storage"
)

// SQLTarget names the SQL-backed collaborators Search needs beyond the
// query itself and the storage adapter (passed separately): the model to
// query, its schema introspector, and any hooks the caller wants consulted
// during path resolution.
type SQLTarget struct {
	Model  string
	Schema resolve.SchemaIntrospector
	Hooks  []resolve.Hook
}

// Search validates q and evaluates it, dispatching to the memory backend
// when src is a record/slice/channel source, or to the SQL backend when
// db, adapter and target are all non-nil. Returns the materialized, ordered, paged
// result list either way.
func Search(ctx context.Context, q *query.Query, src any, db *sql.DB, adapter storage.Adapter, target *SQLTarget) ([]any, error) {
	if db != nil && adapter != nil && target != nil {
		return searchSQL(ctx, q, db, adapter, target)
	}
	return searchMemory(ctx, q, src)
}

// SearchStream is Search's streaming analogue, returning a channel of
// records and a channel carrying at most one terminal error.
func SearchStream(ctx context.Context, q *query.Query, src any, db *sql.DB, adapter storage.Adapter, target *SQLTarget) (<-chan any, <-chan error) {
	if db != nil && adapter != nil && target != nil {
		return streamSQL(ctx, q, db, adapter, target)
	}
	if err := query.Validate(q, query.ValidatorConfig{Operators: operator.ForMemory(), MaxDepth: 8}); err != nil {
		errc := make(chan error, 1)
		errc <- err
		close(errc)
		out := make(chan any)
		close(out)
		return out, errc
	}
	return eval.Stream(ctx, q, src)
}

func searchMemory(ctx context.Context, q *query.Query, src any) ([]any, error) {
	if err := query.Validate(q, query.ValidatorConfig{Operators: operator.ForMemory(), MaxDepth: 8}); err != nil {
		return nil, err
	}
	return eval.Search(ctx, q, src)
}

func searchSQL(ctx context.Context, q *query.Query, db *sql.DB, adapter storage.Adapter, target *SQLTarget) ([]any, error) {
	translated, err := compileSQL(q, adapter, target)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, translated.SQL, translated.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func streamSQL(ctx context.Context, q *query.Query, db *sql.DB, adapter storage.Adapter, target *SQLTarget) (<-chan any, <-chan error) {
	out := make(chan any)
	errc := make(chan error, 1)

	translated, err := compileSQL(q, adapter, target)
	if err != nil {
		close(out)
		errc <- err
		close(errc)
		return out, errc
	}

	go func() {
		defer close(out)
		defer close(errc)

		rows, err := db.QueryContext(ctx, translated.SQL, translated.Args...)
		if err != nil {
			errc <- err
			return
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			errc <- err
			return
		}
		for rows.Next() {
			rec, err := scanRow(rows, cols)
			if err != nil {
				errc <- err
				return
			}
			select {
			case out <- rec:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		if err := rows.Err(); err != nil {
			errc <- err
		}
	}()

	return out, errc
}

// Explain compiles q without executing it, for the CLI's `explain`
// subcommand and for callers that want to inspect the generated SQL.
func Explain(q *query.Query, adapter storage.Adapter, target *SQLTarget) (*sqlgen.Translated, error) {
	return compileSQL(q, adapter, target)
}

func compileSQL(q *query.Query, adapter storage.Adapter, target *SQLTarget) (*sqlgen.Translated, error) {
	if err := query.Validate(q, query.ValidatorConfig{Operators: operator.ForSQL(), MaxDepth: 8}); err != nil {
		return nil, err
	}

	translator := &sqlgen.Translator{
		Style:        adapter.PlaceholderStyle(),
		Resolver:     &resolve.SQLResolver{Schema: target.Schema, Hooks: target.Hooks},
		Capabilities: storage.Capabilities(adapter),
	}
	return translator.Translate(q, target.Model)
}

func scanRows(rows *sql.Rows) ([]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []any
	for rows.Next() {
		rec, err := scanRow(rows, cols)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRow(rows *sql.Rows, cols []string) (map[string]any, error) {
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	rec := make(map[string]any, len(cols))
	for i, c := range cols {
		rec[c] = vals[i]
	}
	return rec, nil
}
