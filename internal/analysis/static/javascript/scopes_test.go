// Filename: javascript/scopes_test.go
package javascript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const scopeSource = `import x from 'y';
export function a(p) {
  if (p) {
    work();
  }
}
const b = async () => {
  const s = "} {";
  run();
};
class C {
  m(q): Promise<void> {
    go();
  }
}
top();
wrap(x, () => {
  inner();
});
`

func TestTextScopes(t *testing.T) {
	s := NewTextScopes(strings.Split(scopeSource, "\n"))

	fnA := s.ScopeAt(3, 4)
	fnB := s.ScopeAt(8, 2)
	method := s.ScopeAt(12, 4)
	callback := s.ScopeAt(17, 2)

	for _, scope := range []NodeID{fnA, fnB, method, callback} {
		assert.NotEqual(t, TopLevel, scope)
	}
	assert.Len(t, map[NodeID]bool{fnA: true, fnB: true, method: true, callback: true}, 4, "each body is its own scope")

	assert.Equal(t, fnA, s.ScopeAt(5, 0), "a control block does not open a scope")
	assert.Equal(t, TopLevel, s.ScopeAt(0, 0))
	assert.Equal(t, TopLevel, s.ScopeAt(10, 0), "a class body is not a function")
	assert.Equal(t, TopLevel, s.ScopeAt(15, 0))
	assert.NotContains(t, s.Code(7), "}", "braces in strings are blanked")
}

func TestTextScopes_CallEnd(t *testing.T) {
	s := NewTextScopes(strings.Split(scopeSource, "\n"))

	line, col := s.CallEnd(16, 4)
	assert.Equal(t, 18, line)
	assert.Equal(t, 1, col)
}

func TestTextScopes_GroupLikeTheTree(t *testing.T) {
	tree := mustParse(t, scopeSource, "a.ts")
	s := NewTextScopes(strings.Split(scopeSource, "\n"))

	byTree := map[NodeID]NodeID{}
	for _, call := range NodesOfKind(tree, tree.Root(), KindCallExpression) {
		n := tree.Node(call)
		fromTree := EnclosingFunction(tree, call)
		fromText := s.ScopeAt(n.Start.Row, n.Start.Column)
		if prev, ok := byTree[fromTree]; ok {
			assert.Equal(t, prev, fromText, "line %d", n.Start.Row)
			continue
		}
		byTree[fromTree] = fromText
		assert.Equal(t, fromTree == TopLevel, fromText == TopLevel, "line %d", n.Start.Row)
	}
	assert.Len(t, byTree, 5)
}
