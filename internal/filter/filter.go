// Package filter implements the webserver's path allow-list: the set of
// regular expressions an inbound request's path must match at least one
// of before it is tunneled to the private side at all.
package filter

import (
	"fmt"
	"regexp"
)

// List is a compiled path allow-list. A List with no patterns allows
// every path; otherwise a path must match at least one pattern.
type List struct {
	patterns []*regexp.Regexp
}

// Compile builds a List from raw regular expression patterns. Each
// pattern is matched against the request path as given by
// (*url.URL).Path, unanchored on either end unless the pattern itself
// anchors with ^ or $.
func Compile(patterns []string) (*List, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("filter: invalid pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &List{patterns: compiled}, nil
}

// Allow reports whether path is permitted through the webserver. An
// empty list allows everything; otherwise path must match at least one
// compiled pattern.
func (l *List) Allow(path string) bool {
	if l == nil || len(l.patterns) == 0 {
		return true
	}
	for _, re := range l.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
