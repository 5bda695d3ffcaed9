package query

import "testing"

func TestCoerceValueUpgradesTimestamp(t *testing.T) {
	v := CoerceValue(Str("2021-06-01T00:00:00Z"))
	if _, ok := v.(Timestamp); !ok {
		t.Fatalf("expected Timestamp, got %T", v)
	}
}

func TestCoerceValueUpgradesDateOnly(t *testing.T) {
	v := CoerceValue(Str("2021-06-01"))
	if _, ok := v.(Timestamp); !ok {
		t.Fatalf("expected Timestamp, got %T", v)
	}
}

func TestCoerceValueLeavesPlainStringAlone(t *testing.T) {
	v := CoerceValue(Str("not a date"))
	if _, ok := v.(Str); !ok {
		t.Fatalf("expected Str to pass through unchanged, got %T", v)
	}
}

func TestCoerceValueLeavesEmptyStringAlone(t *testing.T) {
	v := CoerceValue(Str(""))
	if s, ok := v.(Str); !ok || s != "" {
		t.Fatalf("expected empty Str to pass through unchanged, got %#v", v)
	}
}

func TestCoerceValueNormalizesUUID(t *testing.T) {
	v := CoerceValue(Str("550E8400-E29B-41D4-A716-446655440000"))
	s, ok := v.(Str)
	if !ok {
		t.Fatalf("expected Str, got %T", v)
	}
	if string(s) != "550e8400-e29b-41d4-a716-446655440000" {
		t.Errorf("expected canonical lowercase form, got %q", s)
	}
}

func TestCoerceValuePassesThroughNonString(t *testing.T) {
	v := CoerceValue(Number(42))
	if n, ok := v.(Number); !ok || n != 42 {
		t.Fatalf("expected Number to pass through unchanged, got %#v", v)
	}
}
