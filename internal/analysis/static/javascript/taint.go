// Filename: javascript/taint.go
// Three-tier classification of sink arguments. This is a syntactic heuristic,
// not a data-flow analysis: it looks only at the argument expression itself.
package javascript

import (
	"regexp"
	"strings"
)

// ClassifyNode classifies an argument expression from the tree.
func ClassifyNode(t *Tree, id NodeID) Taint {
	if id == NoNode {
		return TaintUnclassified
	}

	switch t.Kind(id) {
	case KindString, KindNumber:
		return TaintStatic

	case KindTemplateString:
		if !HasSubstitution(t, id) {
			return TaintStatic
		}
		return strongest(t, t.Nodes[id].Children, TaintUnclassified)

	case KindTemplateSubstitution, KindParenthesizedExpression, KindAwaitExpression,
		KindAsExpression, KindNonNullExpression:
		return ClassifyNode(t, t.Child(id, 0))

	case KindBinaryExpression:
		if t.Nodes[id].Operator != "+" {
			return TaintUnclassified
		}
		left := ClassifyNode(t, t.Field(id, "left"))
		right := ClassifyNode(t, t.Field(id, "right"))
		if left == TaintStatic && right == TaintStatic {
			return TaintStatic
		}
		return worse(left, right)

	case KindMemberExpression, KindSubscriptExpression:
		if IsRequestAccess(FlattenPropertyAccess(t, id)) {
			return TaintUserInput
		}
		// (await req.json()).url and similar chains are not resolved.
		return TaintUnclassified

	case KindCallExpression:
		if isInputGetterCall(t, id) {
			return TaintUserInput
		}
		return TaintUnclassified

	case KindIdentifier:
		if IsSuspiciousName(t.Content(id)) {
			return TaintSuspiciousName
		}
		return TaintUnclassified
	}

	return TaintUnclassified
}

// isInputGetterCall matches searchParams.get(...) and formData.get(...),
// including receivers such as req.nextUrl.searchParams and (await req.formData()).
func isInputGetterCall(t *Tree, call NodeID) bool {
	fn := t.Field(call, "function")
	if t.Kind(fn) != KindMemberExpression || t.Content(t.Field(fn, "property")) != "get" {
		return false
	}
	if IsInputGetter(FlattenPropertyAccess(t, fn)) {
		return true
	}
	receiver := t.Field(fn, "object")
	return Any(t, receiver, func(n NodeID) bool {
		return t.Kind(n) == KindCallExpression && CalleeName(t, n) == "formData"
	})
}

// strongest folds the classification of children, keeping the most dangerous tier.
func strongest(t *Tree, children []NodeID, acc Taint) Taint {
	for _, c := range children {
		if t.Kind(c) != KindTemplateSubstitution {
			continue
		}
		acc = worse(acc, ClassifyNode(t, c))
	}
	return acc
}

// worse orders tiers by danger: user input, then suspicious name, then the rest.
func worse(a, b Taint) Taint {
	rank := func(x Taint) int {
		switch x {
		case TaintUserInput:
			return 3
		case TaintSuspiciousName:
			return 2
		case TaintUnclassified:
			return 1
		default:
			return 0
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

var (
	staticLiteral  = regexp.MustCompile(`^(?:'[^'\\]*(?:\\.[^'\\]*)*'|"[^"\\]*(?:\\.[^"\\]*)*"|` + "`[^`$]*`" + `|\d+(?:\.\d+)?)$`)
	requestAccess  = regexp.MustCompile(`^(?:req|request)\s*(?:(?:\?\.|\.)\s*(?:body|query|params|nextUrl)\b|\[\s*['"](?:body|query|params|nextUrl)['"])`)
	inputGetter    = regexp.MustCompile(`^(?:\(\s*await\s+)?(?:[\w$]+\s*(?:\?\.|\.)\s*)*(?:searchParams|formData\s*\(\s*\)\s*\)?)\s*(?:\?\.|\.)\s*get\s*\(`)
	bareIdentifier = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)
	substitution   = regexp.MustCompile(`\$\{([^}]*)\}`)
)

// ClassifyText classifies an argument expression given as source text. It is
// the fallback twin of ClassifyNode and must agree with it on common shapes.
func ClassifyText(expr string) Taint {
	expr = strings.TrimSpace(expr)
	expr = strings.TrimPrefix(expr, "await ")
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return TaintUnclassified
	}

	if strings.HasPrefix(expr, "`") && strings.HasSuffix(expr, "`") && strings.Contains(expr, "${") {
		acc := TaintUnclassified
		for _, m := range substitution.FindAllStringSubmatch(expr, -1) {
			acc = worse(acc, ClassifyText(m[1]))
		}
		return acc
	}

	if parts := splitConcat(expr); len(parts) > 1 {
		allStatic := true
		acc := TaintUnclassified
		for _, p := range parts {
			c := ClassifyText(p)
			if c != TaintStatic {
				allStatic = false
			}
			acc = worse(acc, c)
		}
		if allStatic {
			return TaintStatic
		}
		return acc
	}

	switch {
	case staticLiteral.MatchString(expr):
		return TaintStatic
	case requestAccess.MatchString(expr):
		return TaintUserInput
	case inputGetter.MatchString(expr):
		return TaintUserInput
	case bareIdentifier.MatchString(expr) && IsSuspiciousName(expr):
		return TaintSuspiciousName
	}
	return TaintUnclassified
}

// splitConcat splits a + b + c at top level, ignoring + inside strings and brackets.
func splitConcat(expr string) []string {
	var parts []string
	depth := 0
	var quote rune
	start := 0
	for i, r := range expr {
		switch {
		case quote != 0:
			if r == quote && (i == 0 || expr[i-1] != '\\') {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
		case r == '+' && depth == 0:
			parts = append(parts, strings.TrimSpace(expr[start:i]))
			start = i + 1
		}
	}
	return append(parts, strings.TrimSpace(expr[start:]))
}

// ArgumentText extracts the first argument of the call whose opening
// parenthesis is at openParen in line. It respects quotes and nesting and
// returns "" when the argument does not close on this line.
func ArgumentText(line string, openParen int) string {
	if openParen < 0 || openParen >= len(line) || line[openParen] != '(' {
		return ""
	}
	depth := 0
	var quote byte
	for i := openParen + 1; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			if depth == 0 {
				return strings.TrimSpace(line[openParen+1 : i])
			}
			depth--
		case c == ',' && depth == 0:
			return strings.TrimSpace(line[openParen+1 : i])
		}
	}
	return ""
}
