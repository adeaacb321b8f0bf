// Filename: javascript/imports_test.go
package javascript

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

const importSource = `import fs from 'fs';
import { a,
  b } from "./local";
const x = require('lodash/fp');
export * from '@scope/pkg/sub';
const m = import('dyn');
`

func TestImportSources_TreeAndTextAgree(t *testing.T) {
	want := []Import{
		{Source: "fs", Style: ImportStatic, Line: 0, Column: 15},
		{Source: "./local", Style: ImportStatic, Line: 2, Column: 11},
		{Source: "lodash/fp", Style: ImportRequire, Line: 3, Column: 18},
		{Source: "@scope/pkg/sub", Style: ImportReexport, Line: 4, Column: 14},
		{Source: "dyn", Style: ImportDynamic, Line: 5, Column: 17},
	}
	lines := strings.Split(importSource, "\n")
	tree := mustParse(t, importSource, "a.js")

	if diff := cmp.Diff(want, ImportSourcesFromTree(tree)); diff != "" {
		t.Errorf("tree imports mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, ImportSourcesFromText(lines)); diff != "" {
		t.Errorf("text imports mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want, ImportSources(Parsed(tree), lines))
}

func TestImportSourcesFromText_SkipsComments(t *testing.T) {
	lines := []string{"// import x from 'nope'", " * require('nope')", "import y from 'yes'"}
	got := ImportSourcesFromText(lines)
	assert.Len(t, got, 1)
	assert.Equal(t, "yes", got[0].Source)
}

func TestPackageName(t *testing.T) {
	cases := map[string]string{
		"lodash":            "lodash",
		"lodash/fp":         "lodash",
		"@scope/pkg":        "@scope/pkg",
		"@scope/pkg/sub":    "@scope/pkg",
		"@scope":            "@scope",
		"./local":           "",
		"../up":             "",
		"/abs/path":         "",
		"":                  "",
		"next/navigation":   "next",
		"@/components/Nav":  "@/components",
	}
	for in, want := range cases {
		assert.Equal(t, want, PackageName(in), in)
	}
}
