// Filename: javascript/loops.go
package javascript

import (
	"regexp"
	"strings"
)

// LoopKind separates loop statements from iteration callbacks.
type LoopKind int

const (
	// LoopStatement is for, for-in, for-of, while and do-while.
	LoopStatement LoopKind = iota
	// LoopCallback is the callback of .forEach(...) or .map(...).
	LoopCallback
)

// LoopRange locates a loop and its body with 0-based line indexes, matching
// the line array of the file.
type LoopRange struct {
	Kind      LoopKind
	Line      int
	BodyStart int
	BodyEnd   int
}

// Contains reports whether a 0-based line index falls inside the loop body.
func (r LoopRange) Contains(line int) bool {
	return line >= r.BodyStart && line <= r.BodyEnd
}

// iterationMethods are the member calls whose first argument runs once per element.
var iterationMethods = map[string]bool{
	"forEach": true,
	"map":     true,
}

// LoopRanges extracts loop ranges from the tree when one is available and by
// brace counting otherwise.
func LoopRanges(res ParseResult, lines []string) []LoopRange {
	return WithFallback(res,
		func(t *Tree) []LoopRange { return LoopRangesFromTree(t) },
		func() []LoopRange { return LoopRangesFromText(lines) },
	)
}

// LoopRangesFromTree collects every loop statement and every .forEach/.map
// callback in source order.
func LoopRangesFromTree(t *Tree) []LoopRange {
	var out []LoopRange
	Walk(t, t.Root(), func(id, _ NodeID) {
		n := t.Node(id)
		switch {
		case n.Kind.IsLoop():
			body := t.Field(id, "body")
			if body == NoNode {
				return
			}
			b := t.Node(body)
			out = append(out, LoopRange{Kind: LoopStatement, Line: n.Start.Row, BodyStart: b.Start.Row, BodyEnd: b.End.Row})

		case n.Kind == KindCallExpression:
			fn := t.Field(id, "function")
			if t.Kind(fn) != KindMemberExpression || !iterationMethods[t.Content(t.Field(fn, "property"))] {
				return
			}
			cb := FirstArgument(t, id)
			if cb == NoNode {
				return
			}
			c := t.Node(cb)
			out = append(out, LoopRange{Kind: LoopCallback, Line: n.Start.Row, BodyStart: c.Start.Row, BodyEnd: c.End.Row})
		}
	})
	return out
}

var (
	loopStatementOpener = regexp.MustCompile(`^\s*(?:\}\s*)?(?:for|while)\s*(?:await\s*)?\(`)
	doOpener            = regexp.MustCompile(`^\s*(?:\}\s*)?do\s*(?:\{|$)`)
	callbackOpener      = regexp.MustCompile(`\.\s*(?:forEach|map)\s*\(`)
	doWhileCloser       = regexp.MustCompile(`^\s*\}\s*while\s*\(`)
)

// LoopRangesFromText finds loop openers line by line and measures each body by
// brace depth. Strings and line comments are blanked before counting.
func LoopRangesFromText(lines []string) []LoopRange {
	clean := make([]string, len(lines))
	for i, l := range lines {
		clean[i] = stripLiterals(l)
	}

	var out []LoopRange
	for i, line := range clean {
		switch {
		case doWhileCloser.MatchString(line):
			// The tail of a do { } while (...) is not a new loop.
			continue
		case loopStatementOpener.MatchString(line):
			open := strings.Index(line, "(")
			closeParen := matchParen(clean, i, open)
			if r, ok := bodyAfter(clean, closeParen.line, closeParen.col+1); ok {
				r.Kind, r.Line = LoopStatement, i
				out = append(out, r)
			}
		case doOpener.MatchString(line):
			if r, ok := bodyAfter(clean, i, strings.Index(line, "do")+2); ok {
				r.Kind, r.Line = LoopStatement, i
				out = append(out, r)
			}
		}

		for _, loc := range callbackOpener.FindAllStringIndex(line, -1) {
			open := loc[1] - 1
			end := matchParen(clean, i, open)
			r := LoopRange{Kind: LoopCallback, Line: i, BodyStart: i, BodyEnd: end.line}
			out = append(out, r)
		}
	}
	return out
}

type cursor struct{ line, col int }

// matchParen returns the position of the parenthesis closing the one at
// (line, col), or the last position scanned when it never closes.
func matchParen(lines []string, line, col int) cursor {
	depth := 0
	for l := line; l < len(lines); l++ {
		start := 0
		if l == line {
			start = col
		}
		for c := start; c < len(lines[l]); c++ {
			switch lines[l][c] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return cursor{l, c}
				}
			}
		}
	}
	last := len(lines) - 1
	if last < line {
		last = line
	}
	return cursor{last, 0}
}

// bodyAfter measures a loop body starting at (line, col). A brace-less body is
// the single statement on the same or next non-empty line.
func bodyAfter(lines []string, line, col int) (LoopRange, bool) {
	if line >= len(lines) {
		return LoopRange{}, false
	}
	for l := line; l < len(lines); l++ {
		rest := lines[l]
		if l == line {
			if col > len(rest) {
				col = len(rest)
			}
			rest = rest[col:]
		}
		trimmed := strings.TrimSpace(rest)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "{") {
			return LoopRange{BodyStart: l, BodyEnd: l}, true
		}

		depth := 0
		for k := l; k < len(lines); k++ {
			start := 0
			if k == line {
				start = col
			}
			for _, ch := range lines[k][min(start, len(lines[k])):] {
				switch ch {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						return LoopRange{BodyStart: l, BodyEnd: k}, true
					}
				}
			}
		}
		return LoopRange{BodyStart: l, BodyEnd: len(lines) - 1}, true
	}
	return LoopRange{}, false
}

// stripLiterals blanks string contents and trailing line comments so braces
// inside them do not disturb depth counting. Column positions are preserved.
func stripLiterals(line string) string {
	b := []byte(line)
	var quote byte
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(b) {
				b[i], b[i+1] = ' ', ' '
				i++
				continue
			}
			if c == quote {
				quote = 0
				continue
			}
			b[i] = ' '
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '/' && i+1 < len(b) && b[i+1] == '/':
			for j := i; j < len(b); j++ {
				b[j] = ' '
			}
			return string(b)
		}
	}
	return string(b)
}
