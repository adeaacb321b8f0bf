package rules

import (
	"fmt"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	js "github.com/xkilldash9x/codescalpel/internal/analysis/static/javascript"
)

// SSRF flags outbound requests whose destination comes from the caller.
type SSRF struct {
	core.BaseRule
}

// NewSSRF creates the ssrf rule.
func NewSSRF() *SSRF {
	return &SSRF{
		BaseRule: core.NewBaseRule("ssrf", "Server-side request forgery",
			"Detects HTTP requests whose URL is taken from request data or an unvalidated variable.",
			schemas.CategorySecurity, schemas.SeverityCritical, core.CodeKinds...,
		).WithRemediation("Validate the destination against an allowlist of hosts before issuing the request."),
	}
}

func (r *SSRF) Check(file *core.SourceFile, _ *core.ProjectContext) []schemas.Finding {
	validated := js.HasValidationEvidence(file.Text)
	sites := js.WithFallback(file.Parse,
		func(t *js.Tree) []sinkSite { return r.fromTree(t) },
		func() []sinkSite { return r.fromText(file) },
	)

	var out []schemas.Finding
	for _, s := range sites {
		if !s.taint.Flag(validated) || file.IsComment(s.line) {
			continue
		}
		out = append(out, r.Finding(file, s.line, s.column, fmt.Sprintf("Request URL comes from %s input", describe(s.taint))))
	}
	return out
}

func (r *SSRF) fromTree(t *js.Tree) []sinkSite {
	var out []sinkSite
	for _, call := range callsWhere(t, isNetworkCall) {
		n := t.Node(call)
		out = append(out, sinkSite{line: n.Start.Row, column: n.Start.Column, taint: js.ClassifyNode(t, js.FirstArgument(t, call))})
	}
	return out
}

func (r *SSRF) fromText(file *core.SourceFile) []sinkSite {
	var out []sinkSite
	for _, i := range codeLines(file) {
		line := file.Lines[i]
		for _, c := range findTextCalls(networkCallText, line) {
			out = append(out, sinkSite{line: i, column: c.Column, taint: js.ClassifyText(js.ArgumentText(line, c.OpenParen))})
		}
	}
	return out
}

// sinkSite is a sink call and the classification of its argument.
type sinkSite struct {
	line, column int
	taint        js.Taint
}

func describe(t js.Taint) string {
	if t == js.TaintUserInput {
		return "request"
	}
	return "unvalidated"
}
