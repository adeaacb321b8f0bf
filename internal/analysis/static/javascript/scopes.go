// Filename: javascript/scopes.go
package javascript

import (
	"regexp"
	"sort"
	"strings"
)

// TextScopes approximates function scopes for a file without a tree. A brace
// opens a function body when it follows "=>" or the closing parenthesis of a
// parameter list. Positions are 0-based lines and byte columns.
type TextScopes struct {
	lines []string
	spans []textSpan
}

// textSpan is a function body from its opening to its closing brace.
type textSpan struct {
	start, end cursor
}

// paramsOwner matches the text before a parameter list: "function name",
// "function", or a method or call name.
var paramsOwner = regexp.MustCompile(`(?:\bfunction\b\s*\*?\s*[\w$]*|[\w$]+)\s*$`)

// notParams are words whose parenthesis never holds parameters.
var notParams = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "with": true,
	"return": true, "typeof": true, "await": true, "yield": true, "new": true, "in": true,
	"of": true, "delete": true, "void": true, "case": true,
}

// NewTextScopes measures the function bodies of lines. Strings and line
// comments are blanked first; callers blank block comments themselves.
func NewTextScopes(lines []string) *TextScopes {
	s := &TextScopes{lines: make([]string, len(lines))}
	for i, l := range lines {
		s.lines[i] = stripLiterals(l)
	}

	type brace struct {
		at cursor
		fn bool
	}
	var (
		params  []bool
		braces  []brace
		pending bool
	)
	for l, line := range s.lines {
		for c := 0; c < len(line); c++ {
			switch ch := line[c]; {
			case ch == '(':
				params = append(params, opensParams(line[:c]))
				pending = false
			case ch == ')':
				if n := len(params); n > 0 {
					pending = params[n-1]
					params = params[:n-1]
				}
			case ch == '=' && c+1 < len(line) && line[c+1] == '>':
				pending = true
				c++
			case ch == '{':
				braces = append(braces, brace{at: cursor{l, c}, fn: pending})
				pending = false
			case ch == '}':
				if n := len(braces); n > 0 {
					if b := braces[n-1]; b.fn {
						s.spans = append(s.spans, textSpan{b.at, cursor{l, c}})
					}
					braces = braces[:n-1]
				}
				pending = false
			case ch == ';' || ch == ',':
				pending = false
			}
		}
	}
	// Bodies left open run to the end of the file.
	eof := cursor{len(s.lines), 0}
	for _, b := range braces {
		if b.fn {
			s.spans = append(s.spans, textSpan{b.at, eof})
		}
	}
	sort.Slice(s.spans, func(i, j int) bool { return s.spans[i].start.before(s.spans[j].start) })
	return s
}

func opensParams(prefix string) bool {
	owner := strings.Fields(paramsOwner.FindString(prefix))
	if len(owner) == 0 {
		return false
	}
	return !notParams[owner[len(owner)-1]]
}

func (c cursor) before(o cursor) bool {
	return c.line < o.line || (c.line == o.line && c.col < o.col)
}

// Code returns line i with strings and line comments blanked.
func (s *TextScopes) Code(i int) string { return s.lines[i] }

// ScopeAt returns an identifier for the innermost function body containing
// the position, or TopLevel outside every function.
func (s *TextScopes) ScopeAt(line, col int) NodeID {
	at := cursor{line, col}
	scope := TopLevel
	for i, sp := range s.spans {
		if at.before(sp.start) {
			break
		}
		if !sp.end.before(at) {
			scope = NodeID(i)
		}
	}
	return scope
}

// CallEnd returns the line and column of the parenthesis closing the one at
// (line, col). An unclosed call ends at the start of the last line.
func (s *TextScopes) CallEnd(line, col int) (int, int) {
	end := matchParen(s.lines, line, col)
	return end.line, end.col
}
