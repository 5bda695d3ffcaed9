package resolve

import "fmt"

// JoinKind is the SQL join type a JoinStep uses to attach its relation.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
)

func (k JoinKind) String() string {
	if k == JoinLeft {
		return "LEFT JOIN"
	}
	return "INNER JOIN"
}

// JoinStep is one aliased relation attachment in a JoinPlan.
type JoinStep struct {
	Relation string
	Alias    string
	Kind     JoinKind
	On       string // fully-formed "alias.col = parent_alias.col" condition
}

// ColumnRef is a terminal (alias, column) pair.
type ColumnRef struct {
	Alias  string
	Column string
}

// JoinPlan is the ordered list of aliased relation attachments computed
// during path resolution for one query. It is shared across every
// Condition resolved for that query so that alias reuse works across
// conditions.
type JoinPlan struct {
	RootModel string
	RootAlias string

	Steps []JoinStep

	aliasCache    map[string]string // keyed by dotted path-prefix, non-self-referential only
	counter       map[string]int    // per-relation fresh-alias counter
	visitedTables map[string]bool   // every target relation joined so far in this plan
}

// NewJoinPlan starts a plan rooted at rootModel, aliased as itself (the
// translator emits "SELECT root.* FROM root" using this alias).
func NewJoinPlan(rootModel string) *JoinPlan {
	return &JoinPlan{
		RootModel:     rootModel,
		RootAlias:     rootModel,
		aliasCache:    make(map[string]string),
		counter:       make(map[string]int),
		visitedTables: map[string]bool{rootModel: true},
	}
}

// resolveRelationAlias implements the SQL alias policy:
//   - identical (relation, path-prefix) tuples within one plan share an
//     alias (memoization) — UNLESS the relation is self-referential, in
//     which case every occurrence gets a fresh alias even for a repeated
//     prefix, to avoid unintended self-equi-joins (scenario e).
//   - on a cache miss, a relation whose target table is self-referential
//     or was already joined anywhere earlier in this plan (scenario d's
//     counterexample: a distinct relation that happens to reuse a table
//     name already joined via another path) gets a fresh aliased copy;
//     the first, unambiguous occurrence of a table gets the target table
//     name itself as its alias, unaliased.
func (p *JoinPlan) resolveRelationAlias(rel Relation, pathPrefix string, depth int) (alias string, isNewJoin bool) {
	if !rel.IsSelfRef {
		if cached, ok := p.aliasCache[pathPrefix]; ok {
			return cached, false
		}
	}

	var newAlias string
	if rel.IsSelfRef || p.visitedTables[rel.TargetModel] {
		newAlias = p.freshAlias(rel.TargetModel, depth)
	} else {
		newAlias = rel.TargetModel
	}

	p.visitedTables[rel.TargetModel] = true
	if !rel.IsSelfRef {
		p.aliasCache[pathPrefix] = newAlias
	}
	return newAlias, true
}

// freshAlias allocates a readable, collision-free alias of the form
// "{relation}_{depth}" for the first forced-aliased occurrence of a
// relation, and "{relation}_{depth}_{counter}" for subsequent ones.
func (p *JoinPlan) freshAlias(relation string, depth int) string {
	p.counter[relation]++
	n := p.counter[relation]
	if n == 1 {
		return fmt.Sprintf("%s_%d", relation, depth)
	}
	return fmt.Sprintf("%s_%d_%d", relation, depth, n)
}
