package eval

import (
	"regexp"
	"strings"
)

// likeToRegexp translates a SQL-style like pattern (`%` any run, `_` any
// one character) into an anchored regular expression.
func likeToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// regexCache compiles regex/iregex/like patterns once per evaluator
// invocation and reuses them across records.
type regexCache struct {
	compiled map[string]*regexp.Regexp
}

func newRegexCache() *regexCache {
	return &regexCache{compiled: make(map[string]*regexp.Regexp)}
}

func (c *regexCache) get(key string, build func() (*regexp.Regexp, error)) (*regexp.Regexp, error) {
	if re, ok := c.compiled[key]; ok {
		return re, nil
	}
	re, err := build()
	if err != nil {
		return nil, err
	}
	c.compiled[key] = re
	return re, nil
}
