// core/lines_test.go
package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{""}},
		{"lf", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"lone cr", "a\rb", []string{"a", "b"}},
		{"mixed", "a\r\nb\nc\rd", []string{"a", "b", "c", "d"}},
		{"blank lines kept", "a\n\n\nb", []string{"a", "", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SplitLines(tt.text)); diff != "" {
				t.Errorf("SplitLines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildCommentMap(t *testing.T) {
	lines := []string{
		"const a = 1;",     // 0
		"/**",              // 1
		" * docs",          // 2
		" */",              // 3
		"const b = 2;",     // 4
		"/* one-liner */",  // 5
		"const c = 3;",     // 6
		"/* opens",         // 7
		"still inside",     // 8
		"closes */ code()", // 9
		"after();",         // 10
		"  * stray star",   // 11
	}
	want := []bool{false, true, true, true, false, true, false, true, true, true, false, true}
	assert.Equal(t, want, BuildCommentMap(lines))
}

func TestBuildCommentMap_ClosingLineKeepsCode(t *testing.T) {
	// Code sharing a line with the block closer is still treated as comment.
	lines := []string{"/* start", "end */ fetch(url)"}
	m := BuildCommentMap(lines)
	assert.True(t, m[1])
	assert.True(t, IsCommentLine(lines, 1, m))
}

func TestIsCommentLine(t *testing.T) {
	lines := []string{
		"// line comment",
		"   // indented",
		"# yaml comment",
		"#",
		"#!/usr/bin/env node",
		"this.#private = 1",
		"#private",
		"<!-- html -->",
		"code(); // trailing",
		"",
	}
	m := BuildCommentMap(lines)
	want := []bool{true, true, true, true, true, false, false, true, false, false}
	for i, w := range want {
		assert.Equal(t, w, IsCommentLine(lines, i, m), "line %d: %q", i, lines[i])
	}
	assert.False(t, IsCommentLine(lines, -1, m))
	assert.False(t, IsCommentLine(lines, len(lines), m))
}
