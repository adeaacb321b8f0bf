// Filename: javascript/taint_test.go
package javascript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var classificationCases = []struct {
	expr string
	want Taint
}{
	{`'https://api.example.com'`, TaintStatic},
	{`"a" + 'b'`, TaintStatic},
	{"`https://api.example.com/v1`", TaintStatic},
	{`42`, TaintStatic},
	{"`https://x/${id}`", TaintUnclassified},
	{"`${req.body.url}/x`", TaintUserInput},
	{`req.body.url`, TaintUserInput},
	{`req.query['next']`, TaintUserInput},
	{`request.nextUrl.searchParams.get('to')`, TaintUserInput},
	{`searchParams.get('to')`, TaintUserInput},
	{`(await req.formData()).get('u')`, TaintUserInput},
	{`url`, TaintSuspiciousName},
	{`redirectTo`, TaintSuspiciousName},
	{`'https://api/' + url`, TaintSuspiciousName},
	{`'https://api/' + req.params.id`, TaintUserInput},
	{`config.apiBase`, TaintUnclassified},
	{`someVar`, TaintUnclassified},
	{`buildUrl(url)`, TaintUnclassified},
}

func TestClassifyNode(t *testing.T) {
	for _, tt := range classificationCases {
		t.Run(tt.expr, func(t *testing.T) {
			tree := mustParse(t, "async function h(req) { sink("+tt.expr+"); }", "a.js")
			arg := FirstArgument(tree, findCall(t, tree, "sink"))
			assert.Equal(t, tt.want, ClassifyNode(tree, arg), "tier %s", ClassifyNode(tree, arg))
		})
	}
	assert.Equal(t, TaintUnclassified, ClassifyNode(nil, NoNode))
}

// The text classifier is the fallback twin and must agree on every case.
func TestClassifyText_AgreesWithTree(t *testing.T) {
	for _, tt := range classificationCases {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyText(tt.expr))
		})
	}
	assert.Equal(t, TaintUnclassified, ClassifyText("   "))
}

func TestTaintFlag(t *testing.T) {
	assert.True(t, TaintUserInput.Flag(false))
	assert.True(t, TaintUserInput.Flag(true), "direct input ignores validation evidence")
	assert.True(t, TaintSuspiciousName.Flag(false))
	assert.False(t, TaintSuspiciousName.Flag(true))
	assert.False(t, TaintStatic.Flag(false))
	assert.False(t, TaintUnclassified.Flag(false))
}

func TestHasValidationEvidence(t *testing.T) {
	assert.True(t, HasValidationEvidence("const ALLOWLIST = ['a']"))
	assert.True(t, HasValidationEvidence("if (!isAllowedHost(u)) return"))
	assert.True(t, HasValidationEvidence("validateUrl(target)"))
	assert.True(t, HasValidationEvidence("const allowedHosts = new Set()"))
	assert.False(t, HasValidationEvidence("res.status(405).send('Method not allowed')"))
	assert.False(t, HasValidationEvidence("fetch(url)"))
}

func TestArgumentText(t *testing.T) {
	line := `  await fetch(join("a,b", x), { method: 'POST' })`
	open := len("  await fetch")
	assert.Equal(t, `join("a,b", x)`, ArgumentText(line, open))
	assert.Equal(t, "", ArgumentText("fetch(", 5), "unterminated")
	assert.Equal(t, "", ArgumentText("fetch", 2), "not a paren")
	assert.Equal(t, "", ArgumentText("f()", 1))
}
