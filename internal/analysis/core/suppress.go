package core

import (
	"regexp"
	"strings"
)

var (
	fileDirective     = regexp.MustCompile(`(?:\bcodescalpel-disable(?:\s*:)?(?:\s+|$)|\bdisable-rule\s*:)(.*)$`)
	nextLineDirective = regexp.MustCompile(`(?:\bcodescalpel-disable-next-line(?:\s*:)?(?:\s+|$)|\bdisable-next-line\s*:)(.*)$`)
	idSeparator       = regexp.MustCompile(`[\s,]+`)
)

// IsLineSuppressed reports whether findings of ruleID on the 0-based line
// lineIndex are suppressed. Either mechanism suffices:
//
//   - a file-level directive in the leading comment block of the file, which
//     ends at the first line that is neither empty nor a comment;
//   - a next-line directive on the line immediately above lineIndex.
func IsLineSuppressed(lines []string, lineIndex int, ruleID string) bool {
	if lineIndex > 0 && lineIndex-1 < len(lines) {
		if m := nextLineDirective.FindStringSubmatch(lines[lineIndex-1]); m != nil && names(m[1], ruleID) {
			return true
		}
	}
	return fileSuppressed(lines, ruleID)
}

// fileSuppressed reports whether a file-level directive names ruleID.
func fileSuppressed(lines []string, ruleID string) bool {
	for _, id := range FileDirectives(lines) {
		if id == ruleID {
			return true
		}
	}
	return false
}

// FileDirectives lists, in order, the rule IDs named by file-level directives
// in the leading comment block.
func FileDirectives(lines []string) []string {
	var ids []string
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case inBlock:
			if strings.Contains(trimmed, "*/") {
				inBlock = false
			}
		case strings.HasPrefix(trimmed, "/*"):
			inBlock = !strings.Contains(trimmed[2:], "*/")
		case strings.HasPrefix(trimmed, "*"):
		case !IsCommentLine([]string{trimmed}, 0, nil):
			return ids
		}

		if nextLineDirective.MatchString(trimmed) {
			continue
		}
		if m := fileDirective.FindStringSubmatch(trimmed); m != nil {
			ids = append(ids, directiveIDs(m[1])...)
		}
	}
	return ids
}

// names reports whether a directive's argument list contains ruleID.
func names(args, ruleID string) bool {
	for _, id := range directiveIDs(args) {
		if id == ruleID {
			return true
		}
	}
	return false
}

// directiveIDs splits a directive's arguments. Anything after " -- " is a
// free-form reason, and trailing comment closers are dropped.
func directiveIDs(args string) []string {
	if i := strings.Index(args, " -- "); i >= 0 {
		args = args[:i]
	}
	args = strings.TrimSpace(args)
	args = strings.TrimSuffix(args, "*/")
	args = strings.TrimSuffix(args, "-->")
	var ids []string
	for _, id := range idSeparator.Split(args, -1) {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
