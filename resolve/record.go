package resolve

import (
	"reflect"
	"strconv"
)

// Resolved is one terminal value reached while walking a dotted path over
// a dynamic record. A path that fans out across a list produces one
// Resolved per element that reached a terminal; Missing distinguishes "the
// field truly does not exist at this point" from "the field exists and
// holds a JSON null".
type Resolved struct {
	Value   any
	Missing bool
}

// ResolvePath walks path over root, fanning out at every list encountered
// so that the returned slice holds one Resolved per existential branch.
// Falls back through map, slice, and reflect-based struct field access at
// each segment.
func ResolvePath(root any, path []string) []Resolved {
	return resolveStep(root, path)
}

func resolveStep(current any, path []string) []Resolved {
	if len(path) == 0 {
		return []Resolved{{Value: current}}
	}

	if elems, ok := asList(current); ok {
		var out []Resolved
		for _, elem := range elems {
			out = append(out, resolveStep(elem, path)...)
		}
		return out
	}

	seg := path[0]
	val, found := lookupField(current, seg)
	if !found {
		return []Resolved{{Missing: true}}
	}
	return resolveStep(val, path[1:])
}

// HasField reports whether path resolves to at least one present (possibly
// null) terminal, distinguishing "missing" for is_null/is_empty semantics.
func HasField(root any, path []string) bool {
	for _, r := range ResolvePath(root, path) {
		if !r.Missing {
			return true
		}
	}
	return false
}

func asList(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	default:
		return nil, false
	}
}

// lookupField implements the map -> slice-index -> struct-field fallback
// chain a single path segment tries in order.
func lookupField(current any, name string) (any, bool) {
	if current == nil {
		return nil, false
	}

	if m, ok := current.(map[string]any); ok {
		v, ok := m[name]
		return v, ok
	}

	rv := reflect.ValueOf(current)
	switch rv.Kind() {
	case reflect.Map:
		key := reflect.ValueOf(name)
		if !key.Type().AssignableTo(rv.Type().Key()) {
			return nil, false
		}
		v := rv.MapIndex(key)
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true

	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(name)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true

	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, false
		}
		return lookupField(rv.Elem().Interface(), name)

	case reflect.Struct:
		return lookupStructField(rv, name)

	default:
		return nil, false
	}
}

func lookupStructField(rv reflect.Value, name string) (any, bool) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if jsonName(f) == name || f.Name == name {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			return tag[:i]
		}
	}
	return tag
}
