// Filename: javascript/queries.go
package javascript

import "regexp"

// queryTags are template tags that build parameterized queries; interpolations
// inside them become bind parameters rather than SQL text.
var queryTags = map[string]bool{
	"sql":         true,
	"SQL":         true,
	"$queryRaw":   true,
	"$executeRaw": true,
	"Prisma.sql":  true,
}

// rawQueryMethods execute their first argument as SQL text.
var rawQueryMethods = map[string]bool{
	"query":             true,
	"execute":           true,
	"raw":               true,
	"$queryRawUnsafe":   true,
	"$executeRawUnsafe": true,
	"unsafe":            true,
}

// IsTaggedTemplateQuery reports whether call is a tagged template whose tag is
// a known query builder, e.g. sql`...` or prisma.$queryRaw`...`.
func IsTaggedTemplateQuery(t *Tree, call NodeID) bool {
	if t.Kind(call) != KindCallExpression {
		return false
	}
	args := t.Field(call, "arguments")
	if t.Kind(args) != KindTemplateString {
		return false
	}
	path := CalleePath(t, call)
	if len(path) == 0 {
		return false
	}
	if queryTags[path[len(path)-1]] {
		return true
	}
	return len(path) >= 2 && queryTags[path[len(path)-2]+"."+path[len(path)-1]]
}

// IsRawQueryCall reports whether call passes SQL text to a raw execution method.
func IsRawQueryCall(t *Tree, call NodeID) bool {
	if t.Kind(call) != KindCallExpression || t.Kind(t.Field(call, "arguments")) != KindArguments {
		return false
	}
	return rawQueryMethods[CalleeName(t, call)] && len(CalleePath(t, call)) >= 2
}

// DynamicQueryText reports whether a raw query argument splices values into
// the SQL text: a template with substitutions or a concatenation that is not
// entirely literal. A tagged template query argument is safe.
func DynamicQueryText(t *Tree, arg NodeID) bool {
	switch t.Kind(arg) {
	case KindTemplateString:
		return HasSubstitution(t, arg)
	case KindBinaryExpression:
		return ClassifyNode(t, arg) != TaintStatic
	}
	return false
}

var (
	rawQueryCall      = regexp.MustCompile(`\.\s*(query|execute|raw|\$queryRawUnsafe|\$executeRawUnsafe|unsafe)\s*\(`)
	taggedQueryPrefix = regexp.MustCompile(`^(?:sql|SQL|Prisma\.sql)\s*` + "`")
)

// DynamicQueryLine is the text twin of IsRawQueryCall + DynamicQueryText. It
// returns the 0-based column of the offending call, or -1.
func DynamicQueryLine(line string) int {
	for _, m := range rawQueryCall.FindAllStringIndex(line, -1) {
		arg := ArgumentText(line, m[1]-1)
		if arg == "" || taggedQueryPrefix.MatchString(arg) {
			continue
		}
		if len(arg) > 1 && arg[0] == '`' {
			if containsSubstitution(arg) {
				return m[0]
			}
			continue
		}
		if len(splitConcat(arg)) > 1 && ClassifyText(arg) != TaintStatic {
			return m[0]
		}
	}
	return -1
}

func containsSubstitution(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '$' && s[i+1] == '{' {
			return true
		}
	}
	return false
}
