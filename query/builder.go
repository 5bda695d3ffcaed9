package query

// Builder is the fluent constructor for a Query, using a stack to track
// the currently-open group while nested groups are built. It maintains a
// single implicit top-level group (default AND) until AddGroup is called
// explicitly to start another one.
//
// Example, for (a=1 AND b=2) OR (c=3):
//
//	q, err := NewBuilder().
//		AddGroup(OpOr).
//		AddNestedGroup(OpAnd).AddCondition("a", "=", Number(1)).AddCondition("b", "=", Number(2)).EndNestedGroup().
//		AddNestedGroup(OpAnd).AddCondition("c", "=", Number(3)).EndNestedGroup().
//		Build()
type Builder struct {
	groups  []*Group
	stack   []*Group
	limit   *uint32
	offset  *uint32
	orderBy []OrderKey
	err     error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) ensureGroup() {
	if len(b.stack) == 0 {
		b.addGroup(OpAnd)
	}
}

func (b *Builder) addGroup(op GroupOp) {
	g := &Group{Op: op}
	b.groups = append(b.groups, g)
	b.stack = []*Group{g}
}

// AddGroup starts a new top-level group with the given combinator. The
// builder's cursor moves into it, so subsequent AddCondition calls add to
// this new group until another AddGroup or nested-group call moves it
// elsewhere.
func (b *Builder) AddGroup(op GroupOp) *Builder {
	b.addGroup(op)
	return b
}

// AddNestedGroup adds a child group under the current group and moves the
// cursor into it.
func (b *Builder) AddNestedGroup(op GroupOp) *Builder {
	b.ensureGroup()
	g := &Group{Op: op}
	parent := b.stack[len(b.stack)-1]
	parent.Children = append(parent.Children, g)
	b.stack = append(b.stack, g)
	return b
}

// EndNestedGroup moves the cursor back to the parent of the current group.
func (b *Builder) EndNestedGroup() *Builder {
	if len(b.stack) > 1 {
		b.stack = b.stack[:len(b.stack)-1]
	}
	return b
}

// AddCondition appends a Condition to the current group. field is parsed as
// a DottedPath; a malformed field is recorded and surfaced by Build.
func (b *Builder) AddCondition(field string, op OperatorTag, value Value) *Builder {
	b.ensureGroup()
	path, err := ParseDottedPath(field)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	cur := b.stack[len(b.stack)-1]
	cur.Children = append(cur.Children, &Condition{Field: path, Operator: op, Value: value})
	return b
}

// Limit sets the maximum number of results.
func (b *Builder) Limit(n uint32) *Builder {
	b.limit = &n
	return b
}

// Offset sets the number of results to skip.
func (b *Builder) Offset(n uint32) *Builder {
	b.offset = &n
	return b
}

// OrderBy appends ordering keys in their textual form ("-field" for DESC).
func (b *Builder) OrderBy(fields ...string) *Builder {
	for _, f := range fields {
		k, err := ParseOrderKey(f)
		if err != nil {
			if b.err == nil {
				b.err = err
			}
			continue
		}
		b.orderBy = append(b.orderBy, k)
	}
	return b
}

// Build emits the AST. The builder retains no reference to the result, so
// further calls on the same Builder (after Reset) start a fresh tree.
func (b *Builder) Build() (*Query, error) {
	if b.err != nil {
		return nil, b.err
	}
	var clone func(g *Group) *Group
	clone = func(g *Group) *Group {
		out := &Group{Op: g.Op, Children: make([]Node, len(g.Children))}
		for i, c := range g.Children {
			if sub, ok := c.(*Group); ok {
				out.Children[i] = clone(sub)
			} else {
				out.Children[i] = c
			}
		}
		return out
	}
	groups := make([]*Group, len(b.groups))
	for i, g := range b.groups {
		groups[i] = clone(g)
	}
	return &Query{
		Groups:  groups,
		Limit:   b.limit,
		Offset:  b.offset,
		OrderBy: append([]OrderKey{}, b.orderBy...),
	}, nil
}

// Reset returns the builder to its initial empty state.
func (b *Builder) Reset() *Builder {
	*b = Builder{}
	return b
}
