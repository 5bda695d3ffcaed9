package query

import "testing"

func TestBuilderSimpleGroup(t *testing.T) {
	q, err := NewBuilder().
		AddCondition("status", "=", Str("active")).
		AddCondition("age", ">=", Number(18)).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Groups) != 1 {
		t.Fatalf("expected 1 top-level group, got %d", len(q.Groups))
	}
	g := q.Groups[0]
	if g.Op != OpAnd {
		t.Errorf("implicit group should default to AND, got %v", g.Op)
	}
	if len(g.Children) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(g.Children))
	}
}

func TestBuilderNestedGroups(t *testing.T) {
	q, err := NewBuilder().
		AddGroup(OpOr).
		AddNestedGroup(OpAnd).AddCondition("a", "=", Number(1)).AddCondition("b", "=", Number(2)).EndNestedGroup().
		AddNestedGroup(OpAnd).AddCondition("c", "=", Number(3)).EndNestedGroup().
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Groups) != 1 || q.Groups[0].Op != OpOr {
		t.Fatalf("expected a single top-level OR group, got %+v", q.Groups)
	}
	if len(q.Groups[0].Children) != 2 {
		t.Fatalf("expected 2 nested groups, got %d", len(q.Groups[0].Children))
	}
}

func TestBuilderRejectsMalformedField(t *testing.T) {
	_, err := NewBuilder().AddCondition("2bad", "=", Number(1)).Build()
	if err == nil {
		t.Fatal("expected error for malformed field")
	}
}

func TestBuilderOrderByDescending(t *testing.T) {
	q, err := NewBuilder().AddCondition("a", "=", Number(1)).OrderBy("-created_at", "name").Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.OrderBy) != 2 {
		t.Fatalf("expected 2 order keys, got %d", len(q.OrderBy))
	}
	if q.OrderBy[0].Direction != Desc {
		t.Errorf("expected first key Desc, got %v", q.OrderBy[0].Direction)
	}
	if q.OrderBy[1].Direction != Asc {
		t.Errorf("expected second key Asc, got %v", q.OrderBy[1].Direction)
	}
}

func TestBuilderLimitOffset(t *testing.T) {
	q, err := NewBuilder().AddCondition("a", "=", Number(1)).Limit(10).Offset(5).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit == nil || *q.Limit != 10 {
		t.Errorf("expected limit 10, got %v", q.Limit)
	}
	if q.Offset == nil || *q.Offset != 5 {
		t.Errorf("expected offset 5, got %v", q.Offset)
	}
}

func TestBuilderReset(t *testing.T) {
	b := NewBuilder().AddCondition("a", "=", Number(1))
	b.Reset()
	q, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Groups) != 0 {
		t.Errorf("expected no groups after reset, got %d", len(q.Groups))
	}
}
