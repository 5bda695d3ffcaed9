package query

import "testing"

func TestParseDottedPath(t *testing.T) {
	p, err := ParseDottedPath("profile.address.city")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p) != 3 || p[0] != "profile" || p[2] != "city" {
		t.Fatalf("unexpected path: %v", p)
	}
	if p.String() != "profile.address.city" {
		t.Errorf("String() round-trip mismatch: %q", p.String())
	}
}

func TestParseDottedPathRejectsEmpty(t *testing.T) {
	if _, err := ParseDottedPath(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestParseDottedPathRejectsBadSegment(t *testing.T) {
	if _, err := ParseDottedPath("profile.2address"); err == nil {
		t.Fatal("expected error for segment starting with a digit")
	}
}

func TestParseOrderKeyDescending(t *testing.T) {
	k, err := ParseOrderKey("-created_at")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k.Direction != Desc {
		t.Errorf("expected Desc, got %v", k.Direction)
	}
	if k.String() != "-created_at" {
		t.Errorf("String() round-trip mismatch: %q", k.String())
	}
}

func TestParseOrderKeyAscending(t *testing.T) {
	k, err := ParseOrderKey("created_at")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k.Direction != Asc {
		t.Errorf("expected Asc, got %v", k.Direction)
	}
}

func TestQueryMerge(t *testing.T) {
	a := &Query{Groups: []*Group{{Op: OpAnd}}}
	limit := uint32(5)
	a.Limit = &limit

	b := &Query{Groups: []*Group{{Op: OpOr}}}

	merged := a.Merge(b)
	if len(merged.Groups) != 2 {
		t.Fatalf("expected 2 groups after merge, got %d", len(merged.Groups))
	}
	if merged.Limit == nil || *merged.Limit != 5 {
		t.Errorf("merge should keep the receiver's limit")
	}
}
