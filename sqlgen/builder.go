// Package sqlgen implements the SQL translator: compiling a query AST plus
// a resolved join plan into a parameterized SQL statement.
package sqlgen

import "strconv"

// PlaceholderStyle selects the bound-parameter syntax a driver expects.
type PlaceholderStyle int

const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1, $2, ...
)

// Builder accumulates bound parameters while a SQL string is assembled,
// handing back the correct placeholder token for each one.
type Builder struct {
	Style PlaceholderStyle
	args  []any
}

// NewBuilder starts an empty Builder for the given placeholder style.
func NewBuilder(style PlaceholderStyle) *Builder {
	return &Builder{Style: style, args: make([]any, 0, 8)}
}

// Arg records v as the next bound parameter and returns its placeholder.
func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	if b.Style == PlaceholderDollar {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

// Args returns every bound parameter recorded so far, in order.
func (b *Builder) Args() []any { return b.args }

// Len reports how many parameters have been bound.
func (b *Builder) Len() int { return len(b.args) }
