package rules

import (
	"regexp"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	js "github.com/xkilldash9x/codescalpel/internal/analysis/static/javascript"
)

var debugMethods = map[string]bool{"log": true, "debug": true, "trace": true, "dir": true, "table": true}

var consoleCallText = regexp.MustCompile(`(?:^|[^\w$.])(console\s*\.\s*(?:log|debug|trace|dir|table))\s*\(`)

// ConsoleLog flags leftover debug output outside tests.
type ConsoleLog struct {
	core.BaseRule
}

// NewConsoleLog creates the console-log rule.
func NewConsoleLog() *ConsoleLog {
	return &ConsoleLog{
		BaseRule: core.NewBaseRule("console-log", "Debug logging left in code",
			"Detects console.log and similar debug calls left in production code.",
			schemas.CategoryAIQuality, schemas.SeverityInfo, core.CodeKinds...,
		).WithRemediation("Remove the call or route it through the application's logger."),
	}
}

func (r *ConsoleLog) Check(file *core.SourceFile, _ *core.ProjectContext) []schemas.Finding {
	if isTestFile(file.RelPath) {
		return nil
	}
	sites := js.WithFallback(file.Parse,
		func(t *js.Tree) []position {
			var out []position
			for _, call := range callsWhere(t, func(p []string) bool {
				return len(p) == 2 && p[0] == "console" && debugMethods[p[1]]
			}) {
				n := t.Node(call)
				out = append(out, position{n.Start.Row, n.Start.Column})
			}
			return out
		},
		func() []position {
			var out []position
			for _, i := range codeLines(file) {
				for _, c := range findTextCalls(consoleCallText, file.Lines[i]) {
					out = append(out, position{i, c.Column})
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
		out = append(out, r.Finding(file, p.line, p.column, "Debug output left in code"))
	}
	return out
}
