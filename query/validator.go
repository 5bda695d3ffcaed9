package query

import (
	"github.com/qdsl/qdsl/errs"
	"github.com/qdsl/qdsl/internal/fuzzy"
)

// OperatorSet is the subset of operator tags permitted for the effective
// backend, supplied by the caller (the dispatcher picks it before invoking
// the validator). It is intentionally an interface rather than a concrete
// operator.Entry map so this package never imports package operator —
// that import runs the other way, avoiding a cycle, and keeps the
// AST/validator purely structural.
type OperatorSet interface {
	// Exists reports whether tag is in the global registry at all,
	// independent of backend support.
	Exists(tag OperatorTag) bool
	// Allowed reports whether tag is permitted for this backend, and if
	// so, whether it requires a value (false only for is_null and kin).
	// It is only meaningful when Exists(tag) is true.
	Allowed(tag OperatorTag) (requiresValue bool, ok bool)
	// Names lists every tag in the registry (not just this backend's
	// subset), used for fuzzy "unknown operator" suggestions.
	Names() []string
	// ValueMatches reports whether value's shape is valid for tag. Called
	// only when Allowed already returned ok=true.
	ValueMatches(tag OperatorTag, value Value) (ok bool, expected string, got string)
	// BackendName names the backend this set was built for ("memory" or
	// "sql"), used in OperatorNotSupportedByBackend error messages.
	BackendName() string
}

// ValidatorConfig holds the validator's inputs: the Query's own Limit/
// Offset are inspected directly, but the permitted operator set and max
// depth are parameters.
type ValidatorConfig struct {
	Operators OperatorSet
	MaxDepth  int // 0 means use the default of 8
}

const defaultMaxDepth = 8

// Validate checks q structurally and semantically. It returns at most one
// typed *errs.Error; it never panics.
func Validate(q *Query, cfg ValidatorConfig) error {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	if q.Limit != nil && int32(*q.Limit) < 0 {
		return errs.New(errs.KindInvalidPaging, "limit must be >= 0")
	}
	if q.Offset != nil && int32(*q.Offset) < 0 {
		return errs.New(errs.KindInvalidPaging, "offset must be >= 0")
	}

	for _, g := range q.Groups {
		if err := validateNode(g, cfg, 1, maxDepth); err != nil {
			return err
		}
	}

	for _, k := range q.OrderBy {
		if len(k.Path) == 0 {
			return errs.New(errs.KindMalformedPath, "order_by path must be non-empty")
		}
	}

	return nil
}

func validateNode(n Node, cfg ValidatorConfig, depth, maxDepth int) error {
	if depth > maxDepth {
		return errs.Newf(errs.KindDepthExceeded, "query tree exceeds max depth %d", maxDepth)
	}

	switch v := n.(type) {
	case *Group:
		return validateGroup(v, cfg, depth, maxDepth)
	case *Condition:
		return validateCondition(v, cfg, maxDepth)
	default:
		return errs.New(errs.KindEmptyGroup, "unknown node type")
	}
}

func validateGroup(g *Group, cfg ValidatorConfig, depth, maxDepth int) error {
	if len(g.Children) == 0 {
		return errs.New(errs.KindEmptyGroup, "group has no children")
	}
	if g.Op == OpNot && len(g.Children) != 1 {
		return errs.Newf(errs.KindInvalidNot, "not group must have exactly one child, got %d", len(g.Children))
	}
	for _, c := range g.Children {
		if err := validateNode(c, cfg, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

func validateCondition(c *Condition, cfg ValidatorConfig, maxDepth int) error {
	if len(c.Field) == 0 {
		return errs.New(errs.KindMalformedPath, "condition field must be non-empty")
	}
	if len(c.Field) > maxDepth {
		return errs.Newf(errs.KindDepthExceeded, "path %q exceeds max depth %d", c.Field.String(), maxDepth)
	}

	if !cfg.Operators.Exists(c.Operator) {
		e := errs.Newf(errs.KindUnknownOperator, "unknown operator %q", string(c.Operator))
		e.Operator = string(c.Operator)
		if suggestion, found := fuzzy.Suggest(string(c.Operator), cfg.Operators.Names(), 2); found {
			e.Suggestion = suggestion
		}
		return e
	}

	requiresValue, ok := cfg.Operators.Allowed(c.Operator)
	if !ok {
		e := errs.Newf(errs.KindOperatorNotSupportedByBackend, "operator %q is not supported by backend %q", string(c.Operator), cfg.Operators.BackendName())
		e.Operator = string(c.Operator)
		return e
	}

	if !requiresValue {
		if c.Value != nil {
			if _, isNull := c.Value.(Null); !isNull {
				return errs.Newf(errs.KindValueShapeMismatch, "operator %q forbids a value", string(c.Operator))
			}
		}
		return nil
	}

	if ok, expected, got := cfg.Operators.ValueMatches(c.Operator, c.Value); !ok {
		e := errs.Newf(errs.KindValueShapeMismatch, "operator %q expects %s, got %s", string(c.Operator), expected, got)
		e.Operator = string(c.Operator)
		return e
	}

	if between, isBetween := c.Value.(Between); isBetween {
		if cmp, comparable := compareValues(between.Lo, between.Hi); comparable && cmp > 0 {
			return errs.Newf(errs.KindValueShapeMismatch, "between requires lo <= hi")
		}
	}

	return nil
}
