package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	js "github.com/xkilldash9x/codescalpel/internal/analysis/static/javascript"
)

// dbRoots are identifiers conventionally bound to a database client.
var dbRoots = map[string]bool{
	"prisma":    true,
	"db":        true,
	"database":  true,
	"knex":      true,
	"sequelize": true,
	"drizzle":   true,
	"supabase":  true,
	"mongoose":  true,
}

// writeMethods mutate persistent state.
var writeMethods = map[string]bool{
	"create":     true,
	"createMany": true,
	"update":     true,
	"updateMany": true,
	"upsert":     true,
	"delete":     true,
	"deleteMany": true,
	"insert":     true,
	"insertOne":  true,
	"insertMany": true,
	"updateOne":  true,
	"deleteOne":  true,
	"save":       true,
	"destroy":    true,
}

// coordinators wrap several writes into one unit.
var coordinators = map[string]bool{
	"$transaction":    true,
	"transaction":     true,
	"withTransaction": true,
	"startSession":    true,
	"batch":           true,
}

// transactionThreshold is the number of writes in one scope that needs a wrapper.
const transactionThreshold = 2

func isWriteCall(path []string) bool {
	return len(path) >= 2 && dbRoots[path[0]] && writeMethods[path[len(path)-1]]
}

func isCoordinatorCall(path []string) bool {
	return len(path) >= 1 && coordinators[path[len(path)-1]]
}

var (
	writeCallText       = regexp.MustCompile(`(?:^|[^\w$.])((?:prisma|db|database|knex|sequelize|drizzle|supabase|mongoose)(?:\s*\.\s*[\w$]+)*\s*\.\s*(?:create|createMany|update|updateMany|upsert|delete|deleteMany|insert|insertOne|insertMany|updateOne|deleteOne|save|destroy))\s*\(`)
	coordinatorCallText = regexp.MustCompile(`(?:^|[^\w$])(?:\$transaction|transaction|withTransaction|startSession|batch)\s*\(`)
)

// MissingTransaction flags functions that perform several writes without a
// transaction. Writes are grouped per enclosing function, and a transaction
// call in that same function satisfies the rule.
type MissingTransaction struct {
	core.BaseRule
}

// NewMissingTransaction creates the missing-transaction rule.
func NewMissingTransaction() *MissingTransaction {
	return &MissingTransaction{
		BaseRule: core.NewBaseRule("missing-transaction", "Writes without a transaction",
			"Detects functions that perform multiple database writes without wrapping them in a transaction.",
			schemas.CategoryReliability, schemas.SeverityWarning, core.CodeKinds...,
		).WithRemediation("Wrap related writes in a transaction so a failure cannot leave partial state."),
	}
}

// writeGroup is the set of writes sharing one scope.
type writeGroup struct {
	first position
	count int
}

func (r *MissingTransaction) Check(file *core.SourceFile, _ *core.ProjectContext) []schemas.Finding {
	groups := js.WithFallback(file.Parse,
		func(t *js.Tree) []writeGroup { return r.fromTree(t, file) },
		func() []writeGroup { return r.fromText(file) },
	)

	var out []schemas.Finding
	for _, g := range groups {
		out = append(out, r.Finding(file, g.first.line, g.first.column,
			fmt.Sprintf("%d operations write to the database without a transaction", g.count)))
	}
	return out
}

// fromTree counts writes per enclosing function and drops scopes that also
// call a transaction wrapper.
func (r *MissingTransaction) fromTree(t *js.Tree, file *core.SourceFile) []writeGroup {
	byScope := map[js.NodeID]*writeGroup{}
	var order []js.NodeID
	coordinated := map[js.NodeID]bool{}

	for _, call := range js.NodesOfKind(t, t.Root(), js.KindCallExpression) {
		path := js.CalleePath(t, call)
		scope := js.EnclosingFunction(t, call)
		switch {
		case isCoordinatorCall(path):
			coordinated[scope] = true
		case isWriteCall(path):
			n := t.Node(call)
			if file.IsComment(n.Start.Row) || insideCoordinator(t, call) {
				continue
			}
			g, ok := byScope[scope]
			if !ok {
				g = &writeGroup{first: position{n.Start.Row, n.Start.Column}}
				byScope[scope] = g
				order = append(order, scope)
			}
			g.count++
		}
	}

	var out []writeGroup
	for _, scope := range order {
		if g := byScope[scope]; g.count >= transactionThreshold && !coordinated[scope] {
			out = append(out, *g)
		}
	}
	return out
}

// insideCoordinator reports whether call is nested in the arguments of a
// transaction wrapper, e.g. prisma.$transaction(async () => { ... }).
func insideCoordinator(t *js.Tree, call js.NodeID) bool {
	for cur := js.Ancestor(t, call, js.KindCallExpression); cur != js.NoNode; cur = js.Ancestor(t, cur, js.KindCallExpression) {
		if isCoordinatorCall(js.CalleePath(t, cur)) {
			return true
		}
	}
	return false
}

// fromText groups writes by function bodies measured with brace depth. A
// transaction call covers the writes in its arguments and marks its own scope.
func (r *MissingTransaction) fromText(file *core.SourceFile) []writeGroup {
	code := make([]string, len(file.Lines))
	for _, i := range codeLines(file) {
		code[i] = file.Lines[i]
	}
	scopes := js.NewTextScopes(code)

	type span struct{ start, end position }
	var wrappers []span
	coordinated := map[js.NodeID]bool{}
	for i := range code {
		line := scopes.Code(i)
		for _, m := range coordinatorCallText.FindAllStringIndex(line, -1) {
			open := m[1] - 1
			endLine, endCol := scopes.CallEnd(i, open)
			if definesFunction(scopes, endLine, endCol) {
				continue
			}
			wrappers = append(wrappers, span{position{i, open}, position{endLine, endCol}})
			coordinated[scopes.ScopeAt(i, open)] = true
		}
	}
	wrapped := func(p position) bool {
		for _, w := range wrappers {
			if !p.before(w.start) && !w.end.before(p) {
				return true
			}
		}
		return false
	}

	byScope := map[js.NodeID]*writeGroup{}
	var order []js.NodeID
	for i := range code {
		for _, c := range findTextCalls(writeCallText, scopes.Code(i)) {
			at := position{i, c.Column}
			if wrapped(at) {
				continue
			}
			scope := scopes.ScopeAt(i, c.Column)
			g, ok := byScope[scope]
			if !ok {
				g = &writeGroup{first: at}
				byScope[scope] = g
				order = append(order, scope)
			}
			g.count++
		}
	}

	var out []writeGroup
	for _, scope := range order {
		if g := byScope[scope]; g.count >= transactionThreshold && !coordinated[scope] {
			out = append(out, *g)
		}
	}
	return out
}

// definesFunction reports whether the parameter list ending at (line, col) is
// followed by a body, as in a method named transaction.
func definesFunction(scopes *js.TextScopes, line, col int) bool {
	code := scopes.Code(line)
	if col+1 > len(code) {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(code[col+1:]), "{")
}
