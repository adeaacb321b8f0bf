// Filename: javascript/loops_test.go
package javascript

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

const loopSource = `for (const x of xs) {
  await fetch(x);
}
items.forEach(async (i) => {
  await fetch(i);
});
while (n--) step();
do {
  tick();
} while (busy());
const label = "for (;;) {";
`

func TestLoopRanges_TreeAndTextAgree(t *testing.T) {
	want := []LoopRange{
		{Kind: LoopStatement, Line: 0, BodyStart: 0, BodyEnd: 2},
		{Kind: LoopCallback, Line: 3, BodyStart: 3, BodyEnd: 5},
		{Kind: LoopStatement, Line: 6, BodyStart: 6, BodyEnd: 6},
		{Kind: LoopStatement, Line: 7, BodyStart: 7, BodyEnd: 9},
	}
	lines := strings.Split(loopSource, "\n")
	tree := mustParse(t, loopSource, "a.js")

	if diff := cmp.Diff(want, LoopRangesFromTree(tree)); diff != "" {
		t.Errorf("tree ranges mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, LoopRangesFromText(lines)); diff != "" {
		t.Errorf("text ranges mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, LoopRanges(Failed(ErrSyntax), lines)); diff != "" {
		t.Errorf("fallback ranges mismatch (-want +got):\n%s", diff)
	}
}

func TestLoopRangesFromText_BracelessNextLine(t *testing.T) {
	lines := []string{
		"for (let i = 0; i < n; i++)",
		"  ping(i);",
		"done();",
	}
	got := LoopRangesFromText(lines)
	assert.Equal(t, []LoopRange{{Kind: LoopStatement, Line: 0, BodyStart: 1, BodyEnd: 1}}, got)
}

func TestLoopRangesFromText_Unterminated(t *testing.T) {
	lines := []string{"while (true) {", "  spin();"}
	got := LoopRangesFromText(lines)
	assert.Equal(t, []LoopRange{{Kind: LoopStatement, Line: 0, BodyStart: 0, BodyEnd: 1}}, got)
}

func TestLoopRangeContains(t *testing.T) {
	r := LoopRange{BodyStart: 3, BodyEnd: 5}
	assert.False(t, r.Contains(2))
	assert.True(t, r.Contains(3))
	assert.True(t, r.Contains(5))
	assert.False(t, r.Contains(6))
}
