// core/source_test.go
package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/static/javascript"
)

func TestKindForPath(t *testing.T) {
	cases := map[string]FileKind{
		"src/app.js":            KindJavaScript,
		"lib/x.mjs":             KindJavaScript,
		"lib/x.cjs":             KindJavaScript,
		"ui/Button.jsx":         KindJSX,
		"api/route.ts":          KindTypeScript,
		"api/route.MTS":         KindTypeScript,
		"ui/Page.tsx":           KindTSX,
		"package.json":          KindJSON,
		".env":                  KindEnv,
		"config/.env.local":     KindEnv,
		"ci.yml":                KindYAML,
		"index.html":            KindHTML,
		"App.vue":               KindVue,
		"Card.svelte":           KindSvelte,
		"README.md":             KindOther,
		"Makefile":              KindOther,
		"environment.d.ts.snap": KindOther,
	}
	for path, want := range cases {
		assert.Equal(t, want, KindForPath(path), path)
	}
	assert.True(t, KindTSX.Parseable())
	assert.False(t, KindJSON.Parseable())
	assert.False(t, KindVue.Parseable())
}

func TestNewSourceFile(t *testing.T) {
	text := "/* header */\r\nconst a = 1;\r\n"
	f := NewSourceFile("/repo/src/a.ts", "src/a.ts", text, javascript.NotAttempted())

	assert.Equal(t, []string{"/* header */", "const a = 1;"}, f.Lines)
	assert.Equal(t, KindTypeScript, f.Kind)
	assert.Equal(t, []bool{true, false}, f.CommentMap)
	assert.True(t, f.IsComment(0))
	assert.Nil(t, f.Tree())
}

type stubRule struct {
	BaseRule
}

func (stubRule) Check(*SourceFile, *ProjectContext) []schemas.Finding { return nil }

func TestBaseRule(t *testing.T) {
	r := stubRule{NewBaseRule("demo", "Demo", "demo rule", schemas.CategorySecurity, schemas.SeverityWarning, KindTypeScript).
		WithRemediation("fix it")}

	var rule Rule = r
	assert.True(t, AppliesTo(rule, KindTypeScript))
	assert.False(t, AppliesTo(rule, KindJavaScript))

	all := stubRule{NewBaseRule("all", "All", "", schemas.CategoryReliability, schemas.SeverityInfo)}
	assert.True(t, AppliesTo(all, KindJSON), "empty kind set applies everywhere")

	f := NewSourceFile("/repo/a.ts", "a.ts", "x", javascript.NotAttempted())
	got := r.Finding(f, 0, 4, "msg")
	require.Equal(t, "demo", got.RuleID)
	assert.Equal(t, 1, got.Line)
	assert.Equal(t, 5, got.Column)
	assert.Equal(t, "a.ts", got.File)
	assert.Equal(t, schemas.SeverityWarning, got.Severity)
	assert.Equal(t, schemas.CategorySecurity, got.Category)
	assert.Equal(t, "fix it", got.Remediation)
}

func TestProjectContext(t *testing.T) {
	var nilCtx *ProjectContext
	assert.False(t, nilCtx.HasDependency("next"))
	assert.False(t, nilCtx.IsAliased("@/lib"))

	p := NewProjectContext("/repo")
	p.Dependencies["next"] = true
	p.Frameworks["nextjs"] = true
	p.PathAliases = []string{"@/", "~/"}

	assert.True(t, p.HasDependency("next"))
	assert.False(t, p.HasDependency("express"))
	assert.True(t, p.HasFramework("nextjs"))
	assert.True(t, p.IsAliased("@/components/Button"))
	assert.False(t, p.IsAliased("@scope/pkg"))
}
