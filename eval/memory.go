// Package eval implements the memory evaluator: a predicate interpreter
// over dynamic records supporting existential list traversal, materialized
// or streaming.
package eval

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/qdsl/qdsl/errs"
	"github.com/qdsl/qdsl/operator"
	"github.com/qdsl/qdsl/query"
	"github.com/qdsl/qdsl/resolve"
)

// Search evaluates q against src and returns the materialized, ordered,
// paged result list.
func Search(ctx context.Context, q *query.Query, src any) ([]any, error) {
	out, errc := Stream(ctx, q, src)
	var results []any
	for rec := range out {
		results = append(results, rec)
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	return results, nil
}

// Stream evaluates q against src lazily. The returned error channel
// receives at most one value and is closed just before the result
// channel is closed. When q.OrderBy is non-empty the stream must
// buffer the full filtered set before it can emit the first result;
// otherwise it filters and pages without buffering — memory stays O(1) in
// result count.
func Stream(ctx context.Context, q *query.Query, src any) (<-chan any, <-chan error) {
	out := make(chan any)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		cache := newRegexCache()
		items := iterate(src)

		limit, hasLimit := limitOf(q)
		offset := offsetOf(q)

		if len(q.OrderBy) > 0 {
			var buffered []any
			for rec := range items {
				ok, err := matchesQuery(q, rec, cache)
				if err != nil {
					errc <- err
					return
				}
				if ok {
					buffered = append(buffered, rec)
				}
				if ctx.Err() != nil {
					errc <- ctx.Err()
					return
				}
			}
			sortRecords(buffered, q.OrderBy)
			emitPaged(ctx, out, buffered, offset, limit, hasLimit)
			return
		}

		emitted := 0
		skipped := 0
		for rec := range items {
			if hasLimit && emitted >= limit {
				return
			}
			if ctx.Err() != nil {
				errc <- ctx.Err()
				return
			}
			ok, err := matchesQuery(q, rec, cache)
			if err != nil {
				errc <- err
				return
			}
			if !ok {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			select {
			case out <- rec:
				emitted++
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()

	return out, errc
}

func limitOf(q *query.Query) (int, bool) {
	if q.Limit == nil {
		return 0, false
	}
	return int(*q.Limit), true
}

func offsetOf(q *query.Query) int {
	if q.Offset == nil {
		return 0
	}
	return int(*q.Offset)
}

func emitPaged(ctx context.Context, out chan<- any, recs []any, offset int, limit int, hasLimit bool) {
	for i, rec := range recs {
		if i < offset {
			continue
		}
		if hasLimit && i-offset >= limit {
			return
		}
		select {
		case out <- rec:
		case <-ctx.Done():
			return
		}
	}
}

// iterate normalizes a single record, a slice, or a channel source into a
// uniform channel of records.
func iterate(src any) <-chan any {
	out := make(chan any)
	go func() {
		defer close(out)
		if src == nil {
			return
		}
		if ch, ok := src.(<-chan any); ok {
			for rec := range ch {
				out <- rec
			}
			return
		}
		rv := reflect.ValueOf(src)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				out <- rv.Index(i).Interface()
			}
		default:
			out <- src
		}
	}()
	return out
}

// matchesQuery ANDs across the Query's top-level groups, per this module's
// resolution of the open question on groups composition (see DESIGN.md).
func matchesQuery(q *query.Query, rec any, cache *regexCache) (bool, error) {
	for _, g := range q.Groups {
		ok, err := evalGroup(g, rec, cache)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func evalNode(n query.Node, rec any, cache *regexCache) (bool, error) {
	switch v := n.(type) {
	case *query.Group:
		return evalGroup(v, rec, cache)
	case *query.Condition:
		return evalCondition(v, rec, cache)
	default:
		return false, fmt.Errorf("unknown node type %T", n)
	}
}

// evalGroup applies AND(xs) = true when empty, OR(xs) = false when empty,
// NOT(x) negates. NOT's single-child invariant is enforced by the
// validator, not here; a malformed multi-child NOT (possible only if an
// AST was built bypassing validation) ANDs its children before negating
// as a conservative fallback.
func evalGroup(g *query.Group, rec any, cache *regexCache) (bool, error) {
	switch g.Op {
	case query.OpAnd:
		for _, c := range g.Children {
			ok, err := evalNode(c, rec, cache)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case query.OpOr:
		for _, c := range g.Children {
			ok, err := evalNode(c, rec, cache)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case query.OpNot:
		result := true
		for _, c := range g.Children {
			ok, err := evalNode(c, rec, cache)
			if err != nil {
				return false, err
			}
			result = result && ok
		}
		return !result, nil
	default:
		return false, fmt.Errorf("unknown group operator %v", g.Op)
	}
}

func evalCondition(c *query.Condition, rec any, cache *regexCache) (bool, error) {
	resolved := resolve.ResolvePath(rec, []string(c.Field))
	if len(resolved) == 0 {
		resolved = []resolve.Resolved{{Missing: true}}
	}

	entry, found := operator.Get(c.Operator)
	if !found {
		return false, errs.Newf(errs.KindUnknownOperator, "unknown operator %q", string(c.Operator))
	}

	if entry.Arity == operator.ArityNone {
		return evalUnary(c.Operator, resolved), nil
	}

	for _, r := range resolved {
		ok, err := evalScalarCondition(c.Operator, r, c.Value, cache)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func evalUnary(op query.OperatorTag, resolved []resolve.Resolved) bool {
	switch op {
	case "is_null":
		for _, r := range resolved {
			if isNull(r) {
				return true
			}
		}
	case "is_not_null":
		for _, r := range resolved {
			if !isNull(r) {
				return true
			}
		}
	case "is_empty":
		for _, r := range resolved {
			if isEmptyOrMissing(r) {
				return true
			}
		}
	case "is_not_empty":
		for _, r := range resolved {
			if !isEmptyOrMissing(r) {
				return true
			}
		}
	}
	return false
}

func isNull(r resolve.Resolved) bool {
	if r.Missing {
		return true
	}
	_, ok := valueFromRaw(r.Value).(query.Null)
	return ok
}

func isEmptyOrMissing(r resolve.Resolved) bool {
	if r.Missing {
		return true
	}
	return isEmptyValue(valueFromRaw(r.Value))
}

// evalScalarCondition applies op to one existential branch. A missing
// branch is downgraded to the operator's vacuous result rather than
// invoking the operator; a present value that genuinely cannot be compared
// (a real type clash) fails the whole query.
func evalScalarCondition(op query.OperatorTag, r resolve.Resolved, rhs query.Value, cache *regexCache) (bool, error) {
	if r.Missing {
		return missingResult(op), nil
	}
	lhs := valueFromRaw(r.Value)
	return evalOperator(op, lhs, rhs, cache)
}

// missingResult is the vacuous truth value an operator takes when its
// left-hand side is missing: "=" against missing is false, and this
// generalizes that rule so every negative-family operator (!=, not_in,
// not_like, not_between) comes out true when nothing is there to negate,
// and every positive-family operator comes out false.
func missingResult(op query.OperatorTag) bool {
	switch op {
	case "!=", "not_in", "not_like", "not_between":
		return true
	default:
		return false
	}
}

// sortRecords orders by order_by keys in declared order; unknown-or-missing
// sorts last for ASC, first for DESC. Sort is stable.
func sortRecords(recs []any, orderBy []query.OrderKey) {
	sort.SliceStable(recs, func(i, j int) bool {
		for _, k := range orderBy {
			less, equal := lessByKey(recs[i], recs[j], k)
			if !equal {
				return less
			}
		}
		return false
	})
}

func lessByKey(a, b any, k query.OrderKey) (less bool, equal bool) {
	ra := firstResolved(a, k.Path)
	rb := firstResolved(b, k.Path)

	aMissing := ra.Missing
	bMissing := rb.Missing

	if aMissing && bMissing {
		return false, true
	}
	if aMissing || bMissing {
		// unknown-or-missing sorts last for ASC, first for DESC.
		if k.Direction == query.Asc {
			return bMissing, false // a is missing -> a sorts after b -> a is "less" only if b is missing (handled above); else a missing means NOT less
		}
		return aMissing, false // DESC: missing sorts first -> missing is "less"
	}

	av := valueFromRaw(ra.Value)
	bv := valueFromRaw(rb.Value)
	cmp, comparable := query.Compare(av, bv)
	if !comparable {
		return false, true
	}
	if cmp == 0 {
		return false, true
	}
	if k.Direction == query.Desc {
		return cmp > 0, false
	}
	return cmp < 0, false
}

func firstResolved(rec any, path query.DottedPath) resolve.Resolved {
	resolved := resolve.ResolvePath(rec, []string(path))
	if len(resolved) == 0 {
		return resolve.Resolved{Missing: true}
	}
	return resolved[0]
}
