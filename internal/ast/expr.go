// Package ast holds the expression sublanguage's parse tree: the single
// node shape shared by every guard, assignment right-hand side, local
// initializer, input, and assert across all three Surefire DSLs.
//
// Grounded on kanso/internal/ast's node-interface pattern (every AST node
// knows its own source position); the node shape itself is narrowed to
// the binary tree spec.md §3 describes: "nodes carry the originating
// token, left/right children, and an is_function flag on identifiers
// that introduce function-call nodes."
package ast

import "surefire/internal/lang"

// Node is one node of an expression parse tree. It is immutable once
// built: the parser and the desugaring pass that expands chained
// relational operators both construct new Node values rather than
// mutating existing ones.
type Node struct {
	Token      lang.Token
	Left       *Node
	Right      *Node
	IsFunction bool
	Args       []*Node // populated only when IsFunction is true
}

// Pos returns the source position of the token that produced this node.
func (n *Node) Pos() lang.Position { return n.Token.Position }

// IsLeaf reports whether n has no children. A zero-argument function
// call is not a leaf by this definition; callers that need to
// distinguish check IsFunction separately.
func (n *Node) IsLeaf() bool { return n.Left == nil && n.Right == nil && !n.IsFunction }
