// Package rules holds the detectors evaluated by the scan engine. Every rule is
// a thin configuration over the structural helpers in the javascript package:
// a vocabulary of sinks plus a severity and category.
package rules

import (
	"regexp"
	"strings"

	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	js "github.com/xkilldash9x/codescalpel/internal/analysis/static/javascript"
)

// networkFuncs are bare functions that issue an HTTP request.
var networkFuncs = map[string]bool{
	"fetch":      true,
	"$fetch":     true,
	"ofetch":     true,
	"got":        true,
	"ky":         true,
	"needle":     true,
	"axios":      true,
	"superagent": true,
}

// networkMethods maps client objects to their request methods.
var networkMethods = map[string]map[string]bool{
	"axios": {"get": true, "post": true, "put": true, "patch": true, "delete": true, "head": true, "request": true},
	"got":   {"get": true, "post": true, "put": true, "patch": true, "delete": true},
	"ky":    {"get": true, "post": true, "put": true, "patch": true, "delete": true},
	"http":  {"get": true, "request": true},
	"https": {"get": true, "request": true},
}

// isNetworkCall matches a flattened callee path against the network vocabulary.
func isNetworkCall(path []string) bool {
	switch len(path) {
	case 1:
		return networkFuncs[path[0]]
	case 2:
		return networkMethods[path[0]][path[1]]
	}
	return false
}

// networkCallText is the text twin of isNetworkCall. Group 1 is the callee.
var networkCallText = regexp.MustCompile(`(?:^|[^\w$.])((?:fetch|\$fetch|ofetch|got|ky|needle|axios|superagent)|(?:axios\s*\.\s*(?:get|post|put|patch|delete|head|request))|(?:(?:got|ky)\s*\.\s*(?:get|post|put|patch|delete))|(?:https?\s*\.\s*(?:get|request)))\s*\(`)

// textCall is a call found on a single line by a text pattern.
type textCall struct {
	// Column of the callee, 0-based.
	Column int
	// OpenParen is the index of the call's opening parenthesis.
	OpenParen int
}

// findTextCalls returns the calls of re on line. re must capture the callee in
// group 1 and end at the opening parenthesis.
func findTextCalls(re *regexp.Regexp, line string) []textCall {
	var out []textCall
	for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
		out = append(out, textCall{Column: m[2], OpenParen: m[1] - 1})
	}
	return out
}

// codeLines yields the indexes of lines that are not comments.
func codeLines(file *core.SourceFile) []int {
	out := make([]int, 0, len(file.Lines))
	for i := range file.Lines {
		if !file.IsComment(i) {
			out = append(out, i)
		}
	}
	return out
}

// callsWhere collects the call and new expressions whose callee path satisfies match.
func callsWhere(t *js.Tree, match func(path []string) bool) []js.NodeID {
	var out []js.NodeID
	for _, id := range js.NodesOfKind(t, t.Root(), js.KindCallExpression, js.KindNewExpression) {
		if match(js.CalleePath(t, id)) {
			out = append(out, id)
		}
	}
	return out
}

// isTestFile reports whether a path looks like a test or story file.
func isTestFile(rel string) bool {
	lower := strings.ToLower(rel)
	for _, marker := range []string{".test.", ".spec.", ".stories.", "__tests__/", "__mocks__/", "/test/", "/tests/"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return strings.HasPrefix(lower, "test/") || strings.HasPrefix(lower, "tests/")
}
