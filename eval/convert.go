package eval

import (
	"time"

	"github.com/qdsl/qdsl/query"
)

// valueFromRaw converts a dynamic record's native Go field value (the
// shapes produced by encoding/json.Unmarshal into `any`, plus time.Time for
// host-native records) into the AST's closed Value union, so it can be
// compared against a Condition's Value with the same rules. Anything
// outside that union rides along as query.Raw, usable only for
// is_null/is_empty-style existence checks.
func valueFromRaw(raw any) query.Value {
	switch v := raw.(type) {
	case nil:
		return query.Null{}
	case query.Value:
		return v
	case bool:
		return query.Bool(v)
	case string:
		return query.CoerceValue(query.Str(v))
	case float64:
		return query.Number(v)
	case float32:
		return query.Number(v)
	case int:
		return query.Number(v)
	case int32:
		return query.Number(v)
	case int64:
		return query.Number(v)
	case time.Time:
		return query.Timestamp(v)
	case []any:
		out := make(query.List, 0, len(v))
		for _, e := range v {
			out = append(out, valueFromRaw(e))
		}
		return out
	default:
		return query.Raw{V: v}
	}
}

// isEmptyValue implements the is_empty/is_not_empty predicate: null,
// zero-length string, and zero-length list are empty; everything else
// (including a present but non-empty Raw) is not.
func isEmptyValue(v query.Value) bool {
	switch t := v.(type) {
	case query.Null:
		return true
	case query.Str:
		return len(t) == 0
	case query.List:
		return len(t) == 0
	default:
		return false
	}
}
