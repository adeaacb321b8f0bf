package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	js "github.com/xkilldash9x/codescalpel/internal/analysis/static/javascript"
)

// FetchInLoop flags network calls issued one iteration at a time. Inside loop
// statements every call counts; inside .forEach/.map callbacks only awaited
// calls count, since un-awaited ones run concurrently.
type FetchInLoop struct {
	core.BaseRule
}

// NewFetchInLoop creates the fetch-in-loop rule.
func NewFetchInLoop() *FetchInLoop {
	return &FetchInLoop{
		BaseRule: core.NewBaseRule("fetch-in-loop", "Sequential requests in a loop",
			"Detects HTTP requests issued inside loops, which serializes network latency.",
			schemas.CategoryPerformance, schemas.SeverityWarning, core.CodeKinds...,
		).WithRemediation("Batch the requests with Promise.all or use a bulk endpoint."),
	}
}

// loopCall is a network call site and whether it is awaited.
type loopCall struct {
	line    int
	awaited bool
}

type loopScan struct {
	loops []js.LoopRange
	calls []loopCall
}

var awaitedBefore = regexp.MustCompile(`\bawait\s*$`)

func (r *FetchInLoop) Check(file *core.SourceFile, _ *core.ProjectContext) []schemas.Finding {
	scan := js.WithFallback(file.Parse,
		func(t *js.Tree) loopScan {
			s := loopScan{loops: js.LoopRangesFromTree(t)}
			for _, call := range callsWhere(t, isNetworkCall) {
				s.calls = append(s.calls, loopCall{
					line:    t.Node(call).Start.Row,
					awaited: t.Kind(t.Parent(call)) == js.KindAwaitExpression,
				})
			}
			return s
		},
		func() loopScan {
			s := loopScan{loops: js.LoopRangesFromText(file.Lines)}
			for _, i := range codeLines(file) {
				line := file.Lines[i]
				for _, c := range findTextCalls(networkCallText, line) {
					s.calls = append(s.calls, loopCall{line: i, awaited: awaitedBefore.MatchString(line[:c.Column])})
				}
			}
			return s
		},
	)

	// Each call is attributed to its innermost loop; a loop is reported once.
	counts := map[int]int{}
	var order []int
	for _, c := range scan.calls {
		if file.IsComment(c.line) {
			continue
		}
		idx := innermost(scan.loops, c.line)
		if idx < 0 {
			continue
		}
		if scan.loops[idx].Kind == js.LoopCallback && !c.awaited {
			continue
		}
		if counts[idx] == 0 {
			order = append(order, idx)
		}
		counts[idx]++
	}

	var out []schemas.Finding
	for _, idx := range order {
		loop := scan.loops[idx]
		n := counts[idx]
		msg := fmt.Sprintf("%d network call inside a loop runs once per iteration", n)
		if n > 1 {
			msg = fmt.Sprintf("%d network calls inside a loop run once per iteration", n)
		}
		out = append(out, r.Finding(file, loop.Line, indent(file.Lines[loop.Line]), msg))
	}
	return out
}

// innermost returns the index of the tightest loop whose body holds line, or -1.
func innermost(loops []js.LoopRange, line int) int {
	best := -1
	for i, l := range loops {
		if !l.Contains(line) {
			continue
		}
		if best < 0 || l.BodyStart > loops[best].BodyStart ||
			(l.BodyStart == loops[best].BodyStart && l.BodyEnd < loops[best].BodyEnd) {
			best = i
		}
	}
	return best
}

// indent returns the column of the first non-blank character.
func indent(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
