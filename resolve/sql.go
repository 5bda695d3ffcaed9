package resolve

import (
	"fmt"

	"github.com/qdsl/qdsl/errs"
	"github.com/qdsl/qdsl/internal/fuzzy"
	"github.com/qdsl/qdsl/query"
)

// Relation describes one edge in the schema graph.
type Relation struct {
	TargetModel   string
	IsSelfRef     bool
	JoinPredicate func(parentAlias, alias string) string
}

// SchemaIntrospector is the external collaborator that knows a model's
// relations and columns. Implementations typically wrap ORM/struct-tag
// metadata or a hand-maintained schema map.
type SchemaIntrospector interface {
	RelationsOf(model string) (map[string]Relation, error)
	ColumnsOf(model string) (map[string]struct{}, error)
}

// Resolution is the result of resolving one Condition's path: either a
// terminal column reference, or — when a hook claims the whole
// condition — a raw predicate fragment with its bound parameters.
type Resolution struct {
	Column    *ColumnRef
	Predicate string
	Params    []any
}

// SQLResolver resolves DottedPaths into a JoinPlan shared across one
// query's conditions.
type SQLResolver struct {
	Schema SchemaIntrospector
	Hooks  []Hook
}

// Resolve walks path against plan, extending plan's Steps as needed, and
// returns the terminal Resolution. Hooks are consulted before schema
// introspection at every segment, in registration order, left-to-right,
// depth-first across one path.
func (r *SQLResolver) Resolve(plan *JoinPlan, path query.DottedPath) (Resolution, error) {
	currentAlias := plan.RootAlias
	currentModel := plan.RootModel
	prefix := ""

	for i, seg := range path {
		remaining := path[i+1:]
		if prefix == "" {
			prefix = seg
		} else {
			prefix = prefix + "." + seg
		}

		ctx := &ResolutionContext{
			ParentAlias:  currentAlias,
			Attribute:    seg,
			Remaining:    remaining,
			Plan:         plan,
			RootModel:    plan.RootModel,
			CurrentModel: currentModel,
		}
		res, err := runHooks(r.Hooks, ctx)
		if err != nil {
			return Resolution{}, err
		}
		if res != nil {
			switch res.Kind {
			case HookEmittedColumn:
				return Resolution{Column: res.Column}, nil
			case HookCustomPredicate:
				return Resolution{Predicate: res.Predicate, Params: res.Params}, nil
			case HookAddedJoins:
				plan.Steps = append(plan.Steps, res.AddedJoins...)
				currentAlias = res.ContinueAlias
				currentModel = res.ContinueModel
				continue
			}
		}

		isLast := len(remaining) == 0
		if isLast {
			cols, err := r.Schema.ColumnsOf(currentModel)
			if err != nil {
				return Resolution{}, errs.Wrap(errs.KindUnknownField, "schema introspection failed", err)
			}
			if _, ok := cols[seg]; ok {
				return Resolution{Column: &ColumnRef{Alias: currentAlias, Column: seg}}, nil
			}

			rels, relErr := r.Schema.RelationsOf(currentModel)
			if relErr == nil {
				if _, isRel := rels[seg]; isRel {
					return Resolution{}, errs.Newf(errs.KindInvalidLeaf, "path %q terminates in a relation, not a scalar column", path.String())
				}
			}
			return Resolution{}, unknownFieldErr(path, seg, siblingNames(cols, rels))
		}

		rels, err := r.Schema.RelationsOf(currentModel)
		if err != nil {
			return Resolution{}, errs.Wrap(errs.KindUnknownField, "schema introspection failed", err)
		}
		rel, ok := rels[seg]
		if !ok {
			cols, _ := r.Schema.ColumnsOf(currentModel)
			return Resolution{}, unknownFieldErr(path, seg, siblingNames(cols, rels))
		}

		alias, isNew := plan.resolveRelationAlias(rel, prefix, i+1)
		if isNew {
			on := ""
			if rel.JoinPredicate != nil {
				on = rel.JoinPredicate(currentAlias, alias)
			}
			plan.Steps = append(plan.Steps, JoinStep{Relation: rel.TargetModel, Alias: alias, Kind: JoinInner, On: on})
		}
		currentAlias = alias
		currentModel = rel.TargetModel
	}

	return Resolution{}, fmt.Errorf("empty path")
}

func siblingNames(cols map[string]struct{}, rels map[string]Relation) []string {
	names := make([]string, 0, len(cols)+len(rels))
	for c := range cols {
		names = append(names, c)
	}
	for r := range rels {
		names = append(names, r)
	}
	return names
}

func unknownFieldErr(path query.DottedPath, seg string, siblings []string) error {
	e := errs.Newf(errs.KindUnknownField, "unknown field %q in path %q", seg, path.String())
	e.Field = path.String()
	if suggestion, found := fuzzy.Suggest(seg, siblings, 2); found {
		e.Suggestion = suggestion
	}
	return e
}
