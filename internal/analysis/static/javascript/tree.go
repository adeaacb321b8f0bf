// Filename: javascript/tree.go
// Arena representation of a parsed syntax tree. Every node carries its parent
// index from construction, so scope lookups walk O(depth) instead of rebuilding
// a parent map per query.
package javascript

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// NodeID indexes a node inside a Tree arena.
type NodeID int32

// NoNode is the absent node. EnclosingFunction returns it as the "top level" sentinel.
const NoNode NodeID = -1

// TopLevel is returned by scope resolution when no function encloses a node.
const TopLevel = NoNode

// Kind is the closed set of node kinds the helpers reason about. Grammar types
// outside the set map to KindOther; the raw grammar type is still kept on the node.
type Kind uint8

const (
	KindOther Kind = iota
	KindProgram
	KindFunctionDeclaration
	KindGeneratorFunctionDeclaration
	KindFunctionExpression
	KindGeneratorFunction
	KindArrowFunction
	KindMethodDefinition
	KindForStatement
	KindForInStatement
	KindWhileStatement
	KindDoStatement
	KindStatementBlock
	KindExpressionStatement
	KindCallExpression
	KindNewExpression
	KindArguments
	KindMemberExpression
	KindSubscriptExpression
	KindIdentifier
	KindPropertyIdentifier
	KindShorthandPropertyIdentifier
	KindThis
	KindString
	KindTemplateString
	KindTemplateSubstitution
	KindNumber
	KindBinaryExpression
	KindParenthesizedExpression
	KindAwaitExpression
	KindAsExpression
	KindNonNullExpression
	KindImport
	KindImportStatement
	KindExportStatement
	KindVariableDeclarator
	KindArray
)

var kindByType = map[string]Kind{
	"program":                        KindProgram,
	"function_declaration":           KindFunctionDeclaration,
	"generator_function_declaration": KindGeneratorFunctionDeclaration,
	"function":                       KindFunctionExpression,
	"function_expression":            KindFunctionExpression,
	"generator_function":             KindGeneratorFunction,
	"arrow_function":                 KindArrowFunction,
	"method_definition":              KindMethodDefinition,
	"for_statement":                  KindForStatement,
	"for_in_statement":               KindForInStatement,
	"while_statement":                KindWhileStatement,
	"do_statement":                   KindDoStatement,
	"statement_block":                KindStatementBlock,
	"expression_statement":           KindExpressionStatement,
	"call_expression":                KindCallExpression,
	"new_expression":                 KindNewExpression,
	"arguments":                      KindArguments,
	"member_expression":              KindMemberExpression,
	"subscript_expression":           KindSubscriptExpression,
	"identifier":                     KindIdentifier,
	"property_identifier":            KindPropertyIdentifier,
	"shorthand_property_identifier":  KindShorthandPropertyIdentifier,
	"this":                           KindThis,
	"string":                         KindString,
	"template_string":                KindTemplateString,
	"template_substitution":          KindTemplateSubstitution,
	"number":                         KindNumber,
	"binary_expression":              KindBinaryExpression,
	"parenthesized_expression":       KindParenthesizedExpression,
	"await_expression":               KindAwaitExpression,
	"as_expression":                  KindAsExpression,
	"non_null_expression":            KindNonNullExpression,
	"import":                         KindImport,
	"import_statement":               KindImportStatement,
	"export_statement":               KindExportStatement,
	"variable_declarator":            KindVariableDeclarator,
	"array":                          KindArray,
}

// KindOf maps a grammar type name onto the closed Kind set.
func KindOf(grammarType string) Kind {
	if k, ok := kindByType[grammarType]; ok {
		return k
	}
	return KindOther
}

// IsFunction reports whether the kind opens a new function scope.
func (k Kind) IsFunction() bool {
	switch k {
	case KindFunctionDeclaration, KindGeneratorFunctionDeclaration, KindFunctionExpression,
		KindGeneratorFunction, KindArrowFunction, KindMethodDefinition:
		return true
	default:
		return false
	}
}

// IsLoop reports whether the kind is a loop statement.
func (k Kind) IsLoop() bool {
	switch k {
	case KindForStatement, KindForInStatement, KindWhileStatement, KindDoStatement:
		return true
	default:
		return false
	}
}

// Point is a 0-based row/column position.
type Point struct {
	Row    int
	Column int
}

// Node is one arena entry. Only named grammar nodes are stored; anonymous
// tokens are dropped except for binary operators, which are kept in Operator.
type Node struct {
	Kind      Kind
	Type      string
	Field     string
	Parent    NodeID
	Children  []NodeID
	Operator  string
	StartByte uint32
	EndByte   uint32
	Start     Point
	End       Point
}

// Tree is an immutable arena of nodes plus the source they were parsed from.
// Node 0 is the root.
type Tree struct {
	Path   string
	Source []byte
	Nodes  []Node
}

// Root returns the root node id.
func (t *Tree) Root() NodeID {
	if t == nil || len(t.Nodes) == 0 {
		return NoNode
	}
	return 0
}

// Node returns the node for id. It panics on an out-of-range id, which the
// fallback boundary in WithFallback turns into a text-mode retry.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// Kind is a shorthand for t.Node(id).Kind that tolerates NoNode.
func (t *Tree) Kind(id NodeID) Kind {
	if id == NoNode {
		return KindOther
	}
	return t.Nodes[id].Kind
}

// Parent returns the parent id, or NoNode for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	if id == NoNode {
		return NoNode
	}
	return t.Nodes[id].Parent
}

// Content returns the source text spanned by id.
func (t *Tree) Content(id NodeID) string {
	if id == NoNode {
		return ""
	}
	n := &t.Nodes[id]
	if int(n.EndByte) > len(t.Source) || n.StartByte > n.EndByte {
		return ""
	}
	return string(t.Source[n.StartByte:n.EndByte])
}

// Field returns the first child of id attached under the given grammar field name.
func (t *Tree) Field(id NodeID, field string) NodeID {
	if id == NoNode {
		return NoNode
	}
	for _, c := range t.Nodes[id].Children {
		if t.Nodes[c].Field == field {
			return c
		}
	}
	return NoNode
}

// Child returns the i-th named child of id, or NoNode.
func (t *Tree) Child(id NodeID, i int) NodeID {
	if id == NoNode {
		return NoNode
	}
	children := t.Nodes[id].Children
	if i < 0 || i >= len(children) {
		return NoNode
	}
	return children[i]
}

// build converts a tree-sitter tree into an arena with an iterative cursor walk,
// so deeply nested (minified) sources do not exhaust the goroutine stack.
func build(path string, source []byte, root *sitter.Node) *Tree {
	t := &Tree{Path: path, Source: source, Nodes: make([]Node, 0, 256)}

	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	// stack holds the arena id of each ancestor on the cursor path; anonymous
	// ancestors repeat the id of their nearest named ancestor.
	stack := []NodeID{t.add(root, "", NoNode)}
	if !cursor.GoToFirstChild() {
		return t
	}

	for {
		parent := stack[len(stack)-1]
		node := cursor.CurrentNode()
		field := cursor.CurrentFieldName()

		self := parent
		if node.IsNamed() {
			self = t.add(node, field, parent)
		} else if field == "operator" && parent != NoNode {
			t.Nodes[parent].Operator = node.Type()
		}

		if cursor.GoToFirstChild() {
			stack = append(stack, self)
			continue
		}
		for !cursor.GoToNextSibling() {
			if !cursor.GoToParent() || len(stack) == 1 {
				return t
			}
			stack = stack[:len(stack)-1]
		}
	}
}

func (t *Tree) add(n *sitter.Node, field string, parent NodeID) NodeID {
	id := NodeID(len(t.Nodes))
	sp, ep := n.StartPoint(), n.EndPoint()
	t.Nodes = append(t.Nodes, Node{
		Kind:      KindOf(n.Type()),
		Type:      n.Type(),
		Field:     field,
		Parent:    parent,
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		Start:     Point{Row: int(sp.Row), Column: int(sp.Column)},
		End:       Point{Row: int(ep.Row), Column: int(ep.Column)},
	})
	if parent != NoNode {
		t.Nodes[parent].Children = append(t.Nodes[parent].Children, id)
	}
	return id
}
