// Filename: javascript/walker.go
// Structure-agnostic traversal over the arena tree. Every structural helper
// and every rule that needs more precision than a line regex builds on Walk.
package javascript

import (
	"fmt"
)

// Visitor is invoked with each node and its parent (NoNode for the walk root's
// missing parent).
type Visitor func(node, parent NodeID)

// Walk visits root and every descendant depth-first, pre-order, children in
// source order. It knows nothing about specific node shapes.
func Walk(t *Tree, root NodeID, visit Visitor) {
	inspect(t, root, func(node, parent NodeID) bool {
		visit(node, parent)
		return true
	})
}

// Any reports whether root or any of its descendants satisfies pred. The walk
// stops at the first match.
func Any(t *Tree, root NodeID, pred func(NodeID) bool) bool {
	found := false
	inspect(t, root, func(node, _ NodeID) bool {
		if found {
			return false
		}
		if pred(node) {
			found = true
			return false
		}
		return true
	})
	return found
}

// inspect is Walk with pruning: returning false skips the node's children.
// It runs on an explicit stack so minified sources cannot overflow.
func inspect(t *Tree, root NodeID, visit func(node, parent NodeID) bool) {
	if t == nil || root == NoNode || int(root) >= len(t.Nodes) {
		return
	}

	type frame struct{ node, parent NodeID }
	stack := []frame{{root, t.Nodes[root].Parent}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(f.node, f.parent) {
			continue
		}
		children := t.Nodes[f.node].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], f.node})
		}
	}
}

// EnclosingFunction walks parent pointers from id and returns the nearest
// function-shaped ancestor (declaration, expression, arrow or method). It
// returns TopLevel when none exists. A function node is not its own scope.
func EnclosingFunction(t *Tree, id NodeID) NodeID {
	for cur := t.Parent(id); cur != NoNode; cur = t.Parent(cur) {
		if t.Nodes[cur].Kind.IsFunction() {
			return cur
		}
	}
	return TopLevel
}

// Ancestor returns the nearest ancestor of id with the given kind, or NoNode.
func Ancestor(t *Tree, id NodeID, kind Kind) NodeID {
	for cur := t.Parent(id); cur != NoNode; cur = t.Parent(cur) {
		if t.Nodes[cur].Kind == kind {
			return cur
		}
	}
	return NoNode
}

// NodesOfKind collects every node of the given kinds under root in source order.
func NodesOfKind(t *Tree, root NodeID, kinds ...Kind) []NodeID {
	var out []NodeID
	Walk(t, root, func(node, _ NodeID) {
		k := t.Nodes[node].Kind
		for _, want := range kinds {
			if k == want {
				out = append(out, node)
				return
			}
		}
	})
	return out
}

// WithFallback runs the tree-based implementation when a tree is available and
// the text implementation otherwise. A panic inside the tree path is recovered
// and also routes to the text path, so one unusual construct degrades precision
// without breaking the scan.
func WithFallback[T any](res ParseResult, ast func(*Tree) T, text func() T) T {
	switch res.Status {
	case ParseOK:
		if out, err := safeAST(res.Tree, ast); err == nil {
			return out
		}
	case ParseFailed, ParseNotAttempted:
	}
	return text()
}

func safeAST[T any](t *Tree, ast func(*Tree) T) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tree helper panic: %v", r)
		}
	}()
	if t == nil {
		return out, fmt.Errorf("parsed result without tree")
	}
	return ast(t), nil
}
