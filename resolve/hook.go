// Package resolve implements the path resolver: turning a dotted field
// path into either a memory accessor chain or a SQL join plan plus
// terminal column reference, plus the hook protocol that lets a caller
// intercept resolution of individual path segments.
package resolve

// ResolutionContext is passed to every Hook: enough of the in-progress
// join plan and current path segment for a hook to either emit its own
// column/predicate or defer to the default resolution.
type ResolutionContext struct {
	// ParentAlias is the alias of the relation the current segment is
	// being resolved against.
	ParentAlias string
	// Attribute is the path segment currently being resolved.
	Attribute string
	// Remaining holds the path segments after Attribute, read-only.
	Remaining []string
	// Plan is the JoinPlan being built; hooks may append to it via
	// AddedJoins in their HookResult, but must not otherwise mutate it.
	Plan *JoinPlan
	// RootModel names the query's root relation.
	RootModel string
	// CurrentModel names the relation Attribute is being resolved
	// against (equal to RootModel at the first segment).
	CurrentModel string
}

// IsLastSegment reports whether Attribute is the final path segment.
func (c *ResolutionContext) IsLastSegment() bool { return len(c.Remaining) == 0 }

// HookResultKind discriminates the three shapes a HookResult may take.
type HookResultKind int

const (
	// HookEmittedColumn: the hook fully resolved the remainder of the
	// path to a single column reference.
	HookEmittedColumn HookResultKind = iota
	// HookAddedJoins: the hook appended its own JoinSteps to the plan and
	// resolution should continue from ContinueAlias/ContinueModel.
	HookAddedJoins
	// HookCustomPredicate: the hook replaces the entire condition with a
	// raw SQL predicate fragment and its bound parameters.
	HookCustomPredicate
)

// HookResult is the non-nil return of a Hook. Exactly the fields relevant
// to Kind are meaningful.
type HookResult struct {
	Kind HookResultKind

	Column *ColumnRef // HookEmittedColumn

	AddedJoins    []JoinStep // HookAddedJoins
	ContinueAlias string
	ContinueModel string

	Predicate string // HookCustomPredicate
	Params    []any
}

// Hook intercepts resolution of one path segment. It returns nil, nil when
// it does not claim the segment — resolution then proceeds via schema
// introspection. Hooks must not mutate the AST; they may only read
// ResolutionContext and append to its Plan.
type Hook func(ctx *ResolutionContext) (*HookResult, error)

// runHooks tries each hook in registration order and returns the first
// non-nil result; the first hook to claim a segment wins.
func runHooks(hooks []Hook, ctx *ResolutionContext) (*HookResult, error) {
	for _, h := range hooks {
		res, err := h(ctx)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}
