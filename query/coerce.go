package query

import (
	"time"

	"github.com/google/uuid"
)

// CoerceValue auto-infers a richer Value kind for a plain Str with no
// explicit type hint, whether it arrived from a JSON-decoded condition value
// or was read directly off a record field during memory evaluation: an
// ISO-8601-shaped string becomes a Timestamp, a UUID-shaped string is
// canonicalized. Any other Value kind passes through unchanged — this only
// ever upgrades a bare string, never downgrades or rejects one.
func CoerceValue(v Value) Value {
	s, ok := v.(Str)
	if !ok {
		return v
	}
	if string(s) == "" {
		return v
	}
	if t, ok := parseTimestamp(string(s)); ok {
		return Timestamp(t)
	}
	if id, err := uuid.Parse(string(s)); err == nil {
		return Str(id.String())
	}
	return v
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
