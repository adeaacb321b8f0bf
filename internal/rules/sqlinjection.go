package rules

import (
	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	js "github.com/xkilldash9x/codescalpel/internal/analysis/static/javascript"
)

// SQLInjection flags raw query calls whose SQL text is assembled from values.
// Tagged template builders (sql`...`, prisma.$queryRaw`...`) bind their
// interpolations as parameters and are never reported.
type SQLInjection struct {
	core.BaseRule
}

// NewSQLInjection creates the sql-injection rule.
func NewSQLInjection() *SQLInjection {
	return &SQLInjection{
		BaseRule: core.NewBaseRule("sql-injection", "SQL injection",
			"Detects raw SQL built by string interpolation or concatenation.",
			schemas.CategorySecurity, schemas.SeverityCritical, core.CodeKinds...,
		).WithRemediation("Use parameterized queries or a tagged template such as sql`...` so values are bound, not spliced."),
	}
}

type position struct{ line, column int }

func (p position) before(o position) bool {
	return p.line < o.line || (p.line == o.line && p.column < o.column)
}

func (r *SQLInjection) Check(file *core.SourceFile, _ *core.ProjectContext) []schemas.Finding {
	sites := js.WithFallback(file.Parse,
		func(t *js.Tree) []position {
			var out []position
			for _, call := range js.NodesOfKind(t, t.Root(), js.KindCallExpression) {
				if !js.IsRawQueryCall(t, call) {
					continue
				}
				arg := js.FirstArgument(t, call)
				if js.IsTaggedTemplateQuery(t, arg) || !js.DynamicQueryText(t, arg) {
					continue
				}
				// Report at the "." before the method, where the text scan reports too.
				at := t.Node(call).Start
				if prop := t.Field(t.Field(call, "function"), "property"); prop != js.NoNode {
					at = t.Node(prop).Start
					at.Column = max(at.Column-1, 0)
				}
				out = append(out, position{at.Row, at.Column})
			}
			return out
		},
		func() []position {
			var out []position
			for _, i := range codeLines(file) {
				if col := js.DynamicQueryLine(file.Lines[i]); col >= 0 {
					out = append(out, position{i, col})
				}
			}
			return out
		},
	)

	var out []schemas.Finding
	for _, p := range sites {
		if file.IsComment(p.line) {
			continue
		}
		out = append(out, r.Finding(file, p.line, p.column, "SQL text is built from interpolated values"))
	}
	return out
}
