package core

import "strings"

// BuildCommentMap marks every line that belongs to a block comment. A line
// starting with "/*" opens a block that runs until a line containing "*/".
// A line starting with "*" is marked even outside a block, which catches
// JSDoc continuations at the cost of some precision.
//
// The line holding the closing "*/" stays marked even when code follows it.
func BuildCommentMap(lines []string) []bool {
	out := make([]bool, len(lines))
	open := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case open:
			out[i] = true
			if strings.Contains(trimmed, "*/") {
				open = false
			}
		case strings.HasPrefix(trimmed, "/*"):
			out[i] = true
			// "/*/" does not close itself.
			if !strings.Contains(trimmed[2:], "*/") {
				open = true
			}
		case strings.HasPrefix(trimmed, "*"):
			out[i] = true
		}
	}
	return out
}

// lineCommentMarkers open single-line comments in the kinds we scan. "#" is
// handled apart: it only counts when followed by whitespace, "!" or nothing,
// so private class fields (#field) are not comments.
var lineCommentMarkers = []string{"//", "<!--"}

// IsCommentLine reports whether line i is inside a block comment or starts
// with a single-line comment marker.
func IsCommentLine(lines []string, i int, commentMap []bool) bool {
	if i < 0 || i >= len(lines) {
		return false
	}
	if i < len(commentMap) && commentMap[i] {
		return true
	}
	trimmed := strings.TrimSpace(lines[i])
	for _, m := range lineCommentMarkers {
		if strings.HasPrefix(trimmed, m) {
			return true
		}
	}
	if strings.HasPrefix(trimmed, "#") {
		rest := trimmed[1:]
		return rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '!'
	}
	return false
}
