package eval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/qdsl/qdsl/errs"
	"github.com/qdsl/qdsl/query"
)

// evalOperator applies op to a present (non-missing) lhs and the
// condition's rhs. Comparison/set/string/null families are implemented
// here; jsonb/geometry/fts tags never reach this function against a
// memory source because operator.ForMemory() excludes them at validation
// time.
func evalOperator(op query.OperatorTag, lhs, rhs query.Value, cache *regexCache) (bool, error) {
	switch op {
	case "=":
		return query.Equal(lhs, rhs), nil
	case "!=":
		return !query.Equal(lhs, rhs), nil
	case ">", "<", ">=", "<=":
		return evalComparison(op, lhs, rhs)
	case "in":
		return evalIn(lhs, rhs)
	case "not_in":
		ok, err := evalIn(lhs, rhs)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case "all":
		return evalAll(lhs, rhs)
	case "between":
		return evalBetween(lhs, rhs)
	case "not_between":
		ok, err := evalBetween(lhs, rhs)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case "like", "ilike", "not_like":
		return evalLike(op, lhs, rhs, cache)
	case "contains", "icontains":
		return evalSubstring(op, lhs, rhs)
	case "startswith", "istartswith":
		return evalPrefix(op, lhs, rhs)
	case "endswith", "iendswith":
		return evalSuffix(op, lhs, rhs)
	case "regex", "iregex":
		return evalRegex(op, lhs, rhs, cache)
	default:
		return false, errs.Newf(errs.KindOperatorNotSupportedByBackend, "operator %q is not evaluable by the memory backend", string(op))
	}
}

func typeMismatch(op query.OperatorTag, lhs, rhs query.Value) error {
	return errs.Newf(errs.KindTypeMismatch, "operator %q: cannot compare %T with %T", string(op), lhs, rhs)
}

func evalComparison(op query.OperatorTag, lhs, rhs query.Value) (bool, error) {
	cmp, comparable := query.Compare(lhs, rhs)
	if !comparable {
		return false, typeMismatch(op, lhs, rhs)
	}
	switch op {
	case ">":
		return cmp > 0, nil
	case "<":
		return cmp < 0, nil
	case ">=":
		return cmp >= 0, nil
	case "<=":
		return cmp <= 0, nil
	}
	return false, fmt.Errorf("unreachable comparison operator %q", op)
}

func evalIn(lhs, rhs query.Value) (bool, error) {
	list, ok := rhs.(query.List)
	if !ok {
		return false, typeMismatch("in", lhs, rhs)
	}
	for _, item := range list {
		if query.Equal(lhs, item) {
			return true, nil
		}
	}
	return false, nil
}

// evalAll requires every element of the lhs list field to appear in the rhs
// value list: field-set ⊆ value-set.
func evalAll(lhs, rhs query.Value) (bool, error) {
	field, ok := lhs.(query.List)
	if !ok {
		return false, typeMismatch("all", lhs, rhs)
	}
	allowed, ok := rhs.(query.List)
	if !ok {
		return false, typeMismatch("all", lhs, rhs)
	}
	for _, have := range field {
		found := false
		for _, want := range allowed {
			if query.Equal(have, want) {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

func evalBetween(lhs, rhs query.Value) (bool, error) {
	pair, ok := rhs.(query.Between)
	if !ok {
		return false, typeMismatch("between", lhs, rhs)
	}
	loCmp, loOK := query.Compare(lhs, pair.Lo)
	hiCmp, hiOK := query.Compare(lhs, pair.Hi)
	if !loOK || !hiOK {
		return false, typeMismatch("between", lhs, rhs)
	}
	return loCmp >= 0 && hiCmp <= 0, nil
}

func asStrings(op query.OperatorTag, lhs, rhs query.Value) (string, string, error) {
	ls, ok := lhs.(query.Str)
	if !ok {
		return "", "", typeMismatch(op, lhs, rhs)
	}
	rs, ok := rhs.(query.Str)
	if !ok {
		return "", "", typeMismatch(op, lhs, rhs)
	}
	return string(ls), string(rs), nil
}

func evalLike(op query.OperatorTag, lhs, rhs query.Value, cache *regexCache) (bool, error) {
	l, pattern, err := asStrings(op, lhs, rhs)
	if err != nil {
		return false, err
	}
	caseFold := op == "ilike"
	key := string(op) + ":" + pattern
	re, err := cache.get(key, func() (*regexp.Regexp, error) {
		p := pattern
		if caseFold {
			p = strings.ToLower(p)
		}
		return likeToRegexp(p)
	})
	if err != nil {
		return false, errs.Wrap(errs.KindInvalidRegex, "invalid like pattern", err)
	}
	subject := l
	if caseFold {
		subject = strings.ToLower(subject)
	}
	matched := re.MatchString(subject)
	if op == "not_like" {
		return !matched, nil
	}
	return matched, nil
}

func evalSubstring(op query.OperatorTag, lhs, rhs query.Value) (bool, error) {
	l, s, err := asStrings(op, lhs, rhs)
	if err != nil {
		return false, err
	}
	if op == "icontains" {
		return strings.Contains(strings.ToLower(l), strings.ToLower(s)), nil
	}
	return strings.Contains(l, s), nil
}

func evalPrefix(op query.OperatorTag, lhs, rhs query.Value) (bool, error) {
	l, s, err := asStrings(op, lhs, rhs)
	if err != nil {
		return false, err
	}
	if op == "istartswith" {
		return strings.HasPrefix(strings.ToLower(l), strings.ToLower(s)), nil
	}
	return strings.HasPrefix(l, s), nil
}

func evalSuffix(op query.OperatorTag, lhs, rhs query.Value) (bool, error) {
	l, s, err := asStrings(op, lhs, rhs)
	if err != nil {
		return false, err
	}
	if op == "iendswith" {
		return strings.HasSuffix(strings.ToLower(l), strings.ToLower(s)), nil
	}
	return strings.HasSuffix(l, s), nil
}

func evalRegex(op query.OperatorTag, lhs, rhs query.Value, cache *regexCache) (bool, error) {
	l, pattern, err := asStrings(op, lhs, rhs)
	if err != nil {
		return false, err
	}
	caseFold := op == "iregex"
	key := string(op) + ":" + pattern
	re, err := cache.get(key, func() (*regexp.Regexp, error) {
		p := pattern
		if caseFold {
			p = "(?i)" + p
		}
		return regexp.Compile(p)
	})
	if err != nil {
		return false, errs.Wrap(errs.KindInvalidRegex, "invalid regex pattern", err)
	}
	return re.MatchString(l), nil
}
