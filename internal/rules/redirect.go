package rules

import (
	"regexp"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	js "github.com/xkilldash9x/codescalpel/internal/analysis/static/javascript"
)

// redirectReceivers are objects whose .redirect(...) sends the client
// elsewhere. redirect() from next/navigation is matched as a bare call.
var redirectReceivers = map[string]bool{
	"res":          true,
	"response":     true,
	"reply":        true,
	"NextResponse": true,
	"Response":     true,
	"router":       true,
	"ctx":          true,
}

func isRedirectCall(path []string) bool {
	switch len(path) {
	case 1:
		return path[0] == "redirect" || path[0] == "permanentRedirect"
	case 2:
		switch path[1] {
		case "redirect":
			return redirectReceivers[path[0]]
		case "push", "replace":
			return path[0] == "router"
		}
	}
	return false
}

var redirectCallText = regexp.MustCompile(`(?:^|[^\w$.])((?:redirect|permanentRedirect)|(?:(?:res|response|reply|NextResponse|Response|router|ctx)\s*\.\s*redirect)|(?:router\s*\.\s*(?:push|replace)))\s*\(`)

// OpenRedirect flags redirects whose target comes from the caller.
type OpenRedirect struct {
	core.BaseRule
}

// NewOpenRedirect creates the open-redirect rule.
func NewOpenRedirect() *OpenRedirect {
	return &OpenRedirect{
		BaseRule: core.NewBaseRule("open-redirect", "Open redirect",
			"Detects redirects to destinations taken from request data or an unvalidated variable.",
			schemas.CategorySecurity, schemas.SeverityWarning, core.CodeKinds...,
		).WithRemediation("Only redirect to relative paths or to hosts on an allowlist."),
	}
}

func (r *OpenRedirect) Check(file *core.SourceFile, _ *core.ProjectContext) []schemas.Finding {
	validated := js.HasValidationEvidence(file.Text)
	sites := js.WithFallback(file.Parse,
		func(t *js.Tree) []sinkSite {
			var out []sinkSite
			for _, call := range callsWhere(t, isRedirectCall) {
				n := t.Node(call)
				out = append(out, sinkSite{line: n.Start.Row, column: n.Start.Column, taint: redirectTarget(t, call)})
			}
			return out
		},
		func() []sinkSite {
			var out []sinkSite
			for _, i := range codeLines(file) {
				line := file.Lines[i]
				for _, c := range findTextCalls(redirectCallText, line) {
					out = append(out, sinkSite{line: i, column: c.Column, taint: js.ClassifyText(redirectArgText(line, c.OpenParen))})
				}
			}
			return out
		},
	)

	var out []schemas.Finding
	for _, s := range sites {
		if !s.taint.Flag(validated) || file.IsComment(s.line) {
			continue
		}
		out = append(out, r.Finding(file, s.line, s.column, "Redirect target comes from "+describe(s.taint)+" input"))
	}
	return out
}

// redirectTarget classifies the destination argument. res.redirect(301, url)
// carries the status first.
func redirectTarget(t *js.Tree, call js.NodeID) js.Taint {
	args := js.Arguments(t, call)
	if len(args) == 0 {
		return js.TaintUnclassified
	}
	if len(args) > 1 && t.Kind(args[0]) == js.KindNumber {
		return js.ClassifyNode(t, args[1])
	}
	return js.ClassifyNode(t, args[0])
}

var statusPrefix = regexp.MustCompile(`^\(\s*\d+\s*,`)

// redirectArgText is the text twin of redirectTarget.
func redirectArgText(line string, openParen int) string {
	if m := statusPrefix.FindStringIndex(line[openParen:]); m != nil {
		// Re-run the extraction with the comma standing in for the paren.
		next := openParen + m[1] - 1
		return js.ArgumentText(line[:next]+"("+line[next+1:], next)
	}
	return js.ArgumentText(line, openParen)
}
