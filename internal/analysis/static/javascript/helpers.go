// Filename: javascript/helpers.go
package javascript

import (
	"fmt"
	"strings"
)

// LocationInfo is a 1-based position inside a file.
type LocationInfo struct {
	File   string
	Line   int
	Column int
}

func (l LocationInfo) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// FormatLocation converts a node start point to a 1-based LocationInfo.
func FormatLocation(t *Tree, id NodeID) LocationInfo {
	if t == nil || id == NoNode {
		return LocationInfo{}
	}
	start := t.Nodes[id].Start
	return LocationInfo{
		File:   t.Path,
		Line:   start.Row + 1,
		Column: start.Column + 1,
	}
}

// FlattenPropertyAccess flattens a chain of member and subscript accesses
// into path segments, e.g. req.body.url -> [req body url] and obj['k'] -> [obj k].
// It returns nil when any link is computed (obj[i]) or not an access at all.
func FlattenPropertyAccess(t *Tree, id NodeID) []string {
	var path []string
	current := id

	for {
		if current == NoNode {
			return nil
		}

		switch t.Kind(current) {
		case KindIdentifier:
			return append([]string{t.Content(current)}, path...)
		case KindThis:
			return append([]string{"this"}, path...)

		case KindMemberExpression:
			object := t.Field(current, "object")
			property := t.Field(current, "property")
			if object == NoNode || property == NoNode {
				return nil
			}
			switch t.Kind(property) {
			case KindPropertyIdentifier, KindIdentifier:
				path = append([]string{t.Content(property)}, path...)
				current = object
			default:
				// Private names (#x) and other shapes are not statically comparable.
				return nil
			}

		case KindSubscriptExpression:
			object := t.Field(current, "object")
			index := t.Field(current, "index")
			if object == NoNode || index == NoNode || t.Kind(index) != KindString {
				return nil
			}
			path = append([]string{StringValue(t, index)}, path...)
			current = object

		case KindParenthesizedExpression, KindNonNullExpression, KindAsExpression:
			// (req as any).body and req!.body flatten like req.body.
			current = t.Child(current, 0)

		default:
			return nil
		}
	}
}

// CalleePath flattens the function position of a call or new expression.
// For a call on a computed receiver (fetchClient().get) it still returns the
// trailing property so callers can match on the method name.
func CalleePath(t *Tree, call NodeID) []string {
	fn := t.Field(call, "function")
	if fn == NoNode {
		fn = t.Field(call, "constructor")
	}
	if fn == NoNode {
		return nil
	}
	if path := FlattenPropertyAccess(t, fn); path != nil {
		return path
	}
	if t.Kind(fn) == KindMemberExpression {
		if prop := t.Field(fn, "property"); prop != NoNode {
			return []string{"", t.Content(prop)}
		}
	}
	if t.Kind(fn) == KindImport {
		return []string{"import"}
	}
	return nil
}

// CalleeName returns the last segment of CalleePath, or "".
func CalleeName(t *Tree, call NodeID) string {
	path := CalleePath(t, call)
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

// Arguments returns the named argument nodes of a call, or nil. A tagged
// template call has no arguments list; its template is returned instead.
func Arguments(t *Tree, call NodeID) []NodeID {
	args := t.Field(call, "arguments")
	if args == NoNode {
		return nil
	}
	if t.Kind(args) == KindTemplateString {
		return []NodeID{args}
	}
	return t.Nodes[args].Children
}

// FirstArgument returns the first argument node of a call, or NoNode.
func FirstArgument(t *Tree, call NodeID) NodeID {
	args := Arguments(t, call)
	if len(args) == 0 {
		return NoNode
	}
	return args[0]
}

// StringValue returns a string literal's content without its quotes.
func StringValue(t *Tree, id NodeID) string {
	return strings.Trim(t.Content(id), "\"'`")
}

// HasSubstitution reports whether a template string interpolates anything.
func HasSubstitution(t *Tree, id NodeID) bool {
	for _, c := range t.Nodes[id].Children {
		if t.Nodes[c].Kind == KindTemplateSubstitution {
			return true
		}
	}
	return false
}
