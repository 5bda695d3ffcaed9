// Package query defines the query abstract syntax tree, its builder, and
// validator.
package query

import (
	"regexp"
	"strings"

	"github.com/qdsl/qdsl/errs"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// GroupOp is the boolean combinator of a Group.
type GroupOp int

const (
	OpAnd GroupOp = iota
	OpOr
	OpNot
)

func (op GroupOp) String() string {
	switch op {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	default:
		return "?"
	}
}

// Node is either a Group or a Condition.
type Node interface {
	isNode()
}

// Group combines children under AND, OR, or NOT. A NOT group must have
// exactly one child; this is enforced by the validator, not the type
// system, so that the JSON codec can decode malformed input and report it
// as a typed error rather than a panic.
type Group struct {
	Op       GroupOp
	Children []Node
}

func (*Group) isNode() {}

// Condition is a leaf predicate: field operator value.
type Condition struct {
	Field    DottedPath
	Operator OperatorTag
	Value    Value
}

func (*Condition) isNode() {}

// OperatorTag names a member of the closed operator set. The registry in
// package operator is the source of truth for which tags are valid.
type OperatorTag string

// Direction is the sort direction of an OrderKey.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// OrderKey is one entry of a Query's order_by sequence.
type OrderKey struct {
	Path      DottedPath
	Direction Direction
}

// ParseOrderKey parses the textual form used in the JSON document: a
// leading '-' means descending, otherwise ascending.
func ParseOrderKey(s string) (OrderKey, error) {
	dir := Asc
	if strings.HasPrefix(s, "-") {
		dir = Desc
		s = s[1:]
	}
	path, err := ParseDottedPath(s)
	if err != nil {
		return OrderKey{}, err
	}
	return OrderKey{Path: path, Direction: dir}, nil
}

// String renders the OrderKey back to its textual form.
func (k OrderKey) String() string {
	if k.Direction == Desc {
		return "-" + k.Path.String()
	}
	return k.Path.String()
}

// DottedPath is a non-empty sequence of identifiers, e.g. profile.address.city.
type DottedPath []string

// ParseDottedPath splits and validates a dotted path's textual form. It does
// not check the depth limit — that is the validator's job, parameterized by
// a configurable max depth.
func ParseDottedPath(s string) (DottedPath, error) {
	if s == "" {
		return nil, errs.New(errs.KindMalformedPath, "empty path")
	}
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if !identifierRe.MatchString(p) {
			return nil, errs.Newf(errs.KindMalformedPath, "invalid path segment %q in %q", p, s)
		}
	}
	return DottedPath(parts), nil
}

// String joins the path segments back into dotted form.
func (p DottedPath) String() string {
	return strings.Join(p, ".")
}

// Equal reports whether two paths have identical segments.
func (p DottedPath) Equal(o DottedPath) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Query is the top-level document: a sequence of top-level Groups
// (AND-composed, per the resolved open question — see DESIGN.md), optional
// paging, and an ordering sequence.
type Query struct {
	Groups  []*Group
	Limit   *uint32
	Offset  *uint32
	OrderBy []OrderKey
}

// Merge folds other's top-level groups into q's as additional AND-ed
// groups, leaving paging and ordering untouched; intended for combining a
// caller filter with an authorization filter before dispatch.
func (q *Query) Merge(other *Query) *Query {
	if other == nil {
		return q
	}
	merged := &Query{
		Groups:  append(append([]*Group{}, q.Groups...), other.Groups...),
		Limit:   q.Limit,
		Offset:  q.Offset,
		OrderBy: q.OrderBy,
	}
	return merged
}
