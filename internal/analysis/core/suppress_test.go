// core/suppress_test.go
package core

import (
	"strings"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
)

func TestIsLineSuppressed_FileLevel(t *testing.T) {
	tests := []struct {
		name   string
		source string
		line   int
		rule   string
		want   bool
	}{
		{
			name:   "leading directive",
			source: "// disable-rule: secrets\nconst x = 1;\nconst key = 'sk_live_abc';",
			line:   2, rule: "secrets", want: true,
		},
		{
			name:   "other rule unaffected",
			source: "// disable-rule: secrets\nconst x = 1;\nfetch(url)",
			line:   2, rule: "ssrf", want: false,
		},
		{
			name:   "comma and space separated",
			source: "// codescalpel-disable ssrf, secrets console-log\nx()",
			line:   1, rule: "console-log", want: true,
		},
		{
			name:   "after executable code has no effect",
			source: "const x = 1;\n// disable-rule: secrets\nconst key = 'sk_live_abc';",
			line:   2, rule: "secrets", want: false,
		},
		{
			name:   "inside leading block comment",
			source: "/**\n * License\n * codescalpel-disable secrets */\n\nconst k = 1;",
			line:   4, rule: "secrets", want: true,
		},
		{
			name:   "block closer stripped",
			source: "/* disable-rule: secrets */\nconst k = 1;",
			line:   1, rule: "secrets", want: true,
		},
		{
			name:   "html comment closer stripped",
			source: "<!-- codescalpel-disable console-log -->\n<script>console.log(1)</script>",
			line:   1, rule: "console-log", want: true,
		},
		{
			name:   "blank lines before code allowed",
			source: "\n\n// disable-rule: ssrf\n\nfetch(url)",
			line:   4, rule: "ssrf", want: true,
		},
		{
			name:   "reason after double dash",
			source: "// disable-rule: ssrf -- proxied internally\nfetch(url)",
			line:   1, rule: "ssrf", want: true,
		},
		{
			name:   "prefix of rule id does not match",
			source: "// disable-rule: sql\nq()",
			line:   1, rule: "sql-injection", want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := SplitLines(tt.source)
			assert.Equal(t, tt.want, IsLineSuppressed(lines, tt.line, tt.rule))
		})
	}
}

func TestIsLineSuppressed_NextLine(t *testing.T) {
	lines := SplitLines(strings.Join([]string{
		"const a = 1;",
		"// codescalpel-disable-next-line ssrf",
		"fetch(url);",
		"fetch(url);",
		"/* disable-next-line: console-log, ssrf */",
		"fetch(url); console.log(url);",
	}, "\n"))

	assert.True(t, IsLineSuppressed(lines, 2, "ssrf"))
	assert.False(t, IsLineSuppressed(lines, 3, "ssrf"), "only the immediately following line")
	assert.False(t, IsLineSuppressed(lines, 2, "secrets"))
	assert.True(t, IsLineSuppressed(lines, 5, "ssrf"))
	assert.True(t, IsLineSuppressed(lines, 5, "console-log"))
	assert.False(t, IsLineSuppressed(lines, 0, "ssrf"))
}

func TestFileDirectives_NextLineIsNotFileLevel(t *testing.T) {
	lines := SplitLines("// codescalpel-disable-next-line ssrf\nfetch(url)\nfetch(url)")
	assert.Empty(t, FileDirectives(lines))
	assert.True(t, IsLineSuppressed(lines, 1, "ssrf"))
	assert.False(t, IsLineSuppressed(lines, 2, "ssrf"))
}

func TestFileDirectives(t *testing.T) {
	lines := SplitLines("#!/usr/bin/env node\n// disable-rule: a,b\n// codescalpel-disable c\nrun()\n// disable-rule: d")
	assert.Equal(t, []string{"a", "b", "c"}, FileDirectives(lines))
}

// FuzzLineModel checks that the line model never panics and stays consistent
// for arbitrary inputs.
func FuzzLineModel(f *testing.F) {
	f.Add([]byte("// disable-rule: secrets\n/* x\n*/ y"))
	f.Add([]byte("/*/\n*\r\n#\r"))
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		text, err := consumer.GetString()
		if err != nil {
			return
		}
		rule, err := consumer.GetString()
		if err != nil {
			return
		}
		idx, err := consumer.GetInt()
		if err != nil {
			return
		}

		lines := SplitLines(text)
		m := BuildCommentMap(lines)
		if len(m) != len(lines) {
			t.Fatalf("comment map has %d entries for %d lines", len(m), len(lines))
		}
		i := idx % (len(lines) + 1)
		_ = IsCommentLine(lines, i, m)
		_ = IsLineSuppressed(lines, i, rule)
		for _, id := range FileDirectives(lines) {
			if id == "" {
				t.Fatal("empty directive id")
			}
		}
	})
}
