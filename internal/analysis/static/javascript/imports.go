// Filename: javascript/imports.go
package javascript

import (
	"regexp"
	"strings"
)

// ImportStyle tells how a module was referenced.
type ImportStyle int

const (
	ImportStatic ImportStyle = iota
	ImportRequire
	ImportDynamic
	ImportReexport
)

// Import is one module reference. Line and Column are 0-based and point at
// the module specifier string.
type Import struct {
	Source string
	Style  ImportStyle
	Line   int
	Column int
}

// ImportSources lists every import/require/dynamic import/re-export source.
func ImportSources(res ParseResult, lines []string) []Import {
	return WithFallback(res,
		func(t *Tree) []Import { return ImportSourcesFromTree(t) },
		func() []Import { return ImportSourcesFromText(lines) },
	)
}

// ImportSourcesFromTree reads specifiers from import/export statements and
// from require(...) and import(...) calls with a literal first argument.
func ImportSourcesFromTree(t *Tree) []Import {
	var out []Import
	add := func(spec NodeID, style ImportStyle) {
		if t.Kind(spec) != KindString {
			return
		}
		n := t.Node(spec)
		out = append(out, Import{Source: StringValue(t, spec), Style: style, Line: n.Start.Row, Column: n.Start.Column})
	}

	Walk(t, t.Root(), func(id, _ NodeID) {
		switch t.Kind(id) {
		case KindImportStatement:
			add(t.Field(id, "source"), ImportStatic)
		case KindExportStatement:
			add(t.Field(id, "source"), ImportReexport)
		case KindCallExpression:
			fn := t.Field(id, "function")
			switch {
			case t.Kind(fn) == KindImport:
				add(FirstArgument(t, id), ImportDynamic)
			case t.Kind(fn) == KindIdentifier && t.Content(fn) == "require":
				add(FirstArgument(t, id), ImportRequire)
			}
		}
	})
	return out
}

var importPatterns = []struct {
	re    *regexp.Regexp
	style ImportStyle
}{
	{regexp.MustCompile(`^\s*import\s+(?:type\s+)?['"]([^'"]+)['"]`), ImportStatic},
	{regexp.MustCompile(`^\s*import\b[^'"]*?\bfrom\s*['"]([^'"]+)['"]`), ImportStatic},
	{regexp.MustCompile(`^\s*export\b[^'"]*?\bfrom\s*['"]([^'"]+)['"]`), ImportReexport},
	{regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`), ImportRequire},
	{regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"]+)['"]\s*\)`), ImportDynamic},
}

// continuationFrom matches the closing line of a multi-line import clause.
var continuationFrom = regexp.MustCompile(`^[^'"]*\}\s*from\s*['"]([^'"]+)['"]`)

// ImportSourcesFromText is the regex twin of ImportSourcesFromTree.
func ImportSourcesFromText(lines []string) []Import {
	var out []Import
	openClause := ImportStyle(-1)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "*") {
			continue
		}

		if openClause >= 0 {
			if m := continuationFrom.FindStringSubmatchIndex(line); m != nil {
				out = append(out, Import{Source: line[m[2]:m[3]], Style: openClause, Line: i, Column: m[2] - 1})
				openClause = -1
				continue
			}
		}

		matched := false
		for _, p := range importPatterns {
			for _, m := range p.re.FindAllStringSubmatchIndex(line, -1) {
				out = append(out, Import{Source: line[m[2]:m[3]], Style: p.style, Line: i, Column: m[2] - 1})
				matched = true
			}
		}

		if !matched && (strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "export ")) &&
			strings.Contains(trimmed, "{") && !strings.Contains(trimmed, "}") {
			openClause = ImportStatic
			if strings.HasPrefix(trimmed, "export ") {
				openClause = ImportReexport
			}
		}
	}
	return out
}

// PackageName reduces a bare specifier to its package: lodash/fp -> lodash,
// @scope/pkg/sub -> @scope/pkg. Relative and absolute paths return "".
func PackageName(source string) string {
	if source == "" || strings.HasPrefix(source, ".") || strings.HasPrefix(source, "/") {
		return ""
	}
	parts := strings.Split(source, "/")
	if strings.HasPrefix(source, "@") {
		if len(parts) < 2 {
			return source
		}
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
