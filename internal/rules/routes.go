package rules

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	js "github.com/xkilldash9x/codescalpel/internal/analysis/static/javascript"
)

// mutatingMethods are the HTTP verbs that change state.
var mutatingMethods = map[string]bool{"POST": true, "PUT": true, "PATCH": true, "DELETE": true}

// authEvidence matches session and token checks. One match anywhere in the
// file is taken as the handler being protected.
var authEvidence = regexp.MustCompile(`(?i)\b(?:getServerSession|getSession|auth\s*\(\s*\)|currentUser|getToken|verifyToken|requireAuth|requireUser|isAuthenticated|authenticate|withAuth|getAuth|clerkClient|jwt\.verify|supabase\.auth|passport\.|ensureLoggedIn|checkAuth)\b`)

var (
	routeHandlerText  = regexp.MustCompile(`^\s*export\s+(?:(?:async\s+)?function\s+|const\s+)(POST|PUT|PATCH|DELETE)\b`)
	defaultExportText = regexp.MustCompile(`^\s*export\s+default\b`)
	expressRouteText  = regexp.MustCompile(`(?:^|[^\w$.])((?:app|router)\s*\.\s*(?:post|put|patch|delete))\s*\(\s*['"` + "`" + `][^'"` + "`" + `]*['"` + "`" + `]\s*,\s*(?:async\s+)?(?:function\b|\([^()]*\)\s*=>|[\w$]+\s*=>)`)
)

// IsRouteFile reports whether a relative path is a server route module:
// Next.js app router route files and pages/api handlers.
func IsRouteFile(rel string) bool {
	rel = strings.ToLower(rel)
	base := path.Base(rel)
	if strings.HasPrefix(base, "route.") && (strings.HasPrefix(rel, "app/") || strings.Contains(rel, "/app/")) {
		return true
	}
	return strings.HasPrefix(rel, "pages/api/") || strings.Contains(rel, "/pages/api/")
}

// UnauthenticatedRoute flags state-changing handlers with no visible
// authentication, when the project has no auth middleware either.
type UnauthenticatedRoute struct {
	core.BaseRule
}

// NewUnauthenticatedRoute creates the unauthenticated-route rule.
func NewUnauthenticatedRoute() *UnauthenticatedRoute {
	return &UnauthenticatedRoute{
		BaseRule: core.NewBaseRule("unauthenticated-route", "Unauthenticated mutating route",
			"Detects POST/PUT/PATCH/DELETE handlers that never check a session or token.",
			schemas.CategorySecurity, schemas.SeverityWarning, core.CodeKinds...,
		).WithRemediation("Verify the session or token at the start of the handler, or protect the route with middleware."),
	}
}

type handlerSite struct {
	position
	name string
}

func (r *UnauthenticatedRoute) Check(file *core.SourceFile, project *core.ProjectContext) []schemas.Finding {
	if (project != nil && project.HasAuthMiddleware) || authEvidence.MatchString(file.Text) || isTestFile(file.RelPath) {
		return nil
	}
	route := IsRouteFile(file.RelPath)
	pagesAPI := route && strings.Contains(strings.ToLower(file.RelPath), "pages/api/")

	sites := js.WithFallback(file.Parse,
		func(t *js.Tree) []handlerSite { return r.fromTree(t, route, pagesAPI) },
		func() []handlerSite { return r.fromText(file, route, pagesAPI) },
	)

	var out []schemas.Finding
	for _, s := range sites {
		if file.IsComment(s.line) {
			continue
		}
		out = append(out, r.Finding(file, s.line, s.column, fmt.Sprintf("%s handler has no authentication check", s.name)))
	}
	return out
}

func (r *UnauthenticatedRoute) fromTree(t *js.Tree, route, pagesAPI bool) []handlerSite {
	var out []handlerSite
	js.Walk(t, t.Root(), func(id, _ js.NodeID) {
		n := t.Node(id)
		switch n.Kind {
		case js.KindExportStatement:
			if !route {
				return
			}
			if pagesAPI && strings.HasPrefix(t.Content(id), "export default") {
				out = append(out, handlerSite{position{n.Start.Row, n.Start.Column}, "API"})
				return
			}
			for _, name := range exportedNames(t, t.Field(id, "declaration")) {
				if mutatingMethods[name] {
					out = append(out, handlerSite{position{n.Start.Row, n.Start.Column}, name})
				}
			}

		case js.KindCallExpression:
			path := js.CalleePath(t, id)
			if len(path) != 2 || (path[0] != "app" && path[0] != "router") || !mutatingMethods[strings.ToUpper(path[1])] {
				return
			}
			args := js.Arguments(t, id)
			if len(args) != 2 || (t.Kind(args[0]) != js.KindString && t.Kind(args[0]) != js.KindTemplateString) || !t.Kind(args[1]).IsFunction() {
				return
			}
			out = append(out, handlerSite{position{n.Start.Row, n.Start.Column}, strings.ToUpper(path[1])})
		}
	})
	return out
}

// exportedNames returns the names bound by an exported declaration.
func exportedNames(t *js.Tree, decl js.NodeID) []string {
	if decl == js.NoNode {
		return nil
	}
	if t.Kind(decl) == js.KindFunctionDeclaration {
		return []string{t.Content(t.Field(decl, "name"))}
	}
	var names []string
	for _, c := range t.Node(decl).Children {
		if t.Kind(c) == js.KindVariableDeclarator {
			names = append(names, t.Content(t.Field(c, "name")))
		}
	}
	return names
}

func (r *UnauthenticatedRoute) fromText(file *core.SourceFile, route, pagesAPI bool) []handlerSite {
	var out []handlerSite
	for _, i := range codeLines(file) {
		line := file.Lines[i]
		if route {
			if pagesAPI && defaultExportText.MatchString(line) {
				out = append(out, handlerSite{position{i, indent(line)}, "API"})
				continue
			}
			if m := routeHandlerText.FindStringSubmatch(line); m != nil {
				out = append(out, handlerSite{position{i, indent(line)}, m[1]})
				continue
			}
		}
		for _, m := range expressRouteText.FindAllStringSubmatchIndex(line, -1) {
			callee := line[m[2]:m[3]]
			verb := strings.ToUpper(strings.TrimSpace(callee[strings.LastIndex(callee, ".")+1:]))
			out = append(out, handlerSite{position{i, m[2]}, verb})
		}
	}
	return out
}
