package ast

import "strings"

// Pretty renders a parse tree back to DSL-equivalent text. It exists so
// the desugaring pass can be tested for idempotence (spec.md §8: parsing
// the pretty-printed output of an already-desugared tree must yield an
// identical tree) and so diagnostics can show a normalized expression.
//
// Grounded on the round-trip assertions in original_source's
// UTestExpressionParser.cpp, which builds a tree and compares its
// re-rendered form against the expected fully-parenthesized text.
func (n *Node) Pretty() string {
	if n == nil {
		return ""
	}
	switch {
	case n.IsFunction:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = a.Pretty()
		}
		return n.Token.Lexeme + "(" + strings.Join(args, ", ") + ")"
	case n.Left != nil && n.Right != nil:
		return "(" + n.Left.Pretty() + " " + n.Token.Lexeme + " " + n.Right.Pretty() + ")"
	case n.Right != nil: // unary: operand stored on Right
		return "(" + n.Token.Lexeme + " " + n.Right.Pretty() + ")"
	default:
		return n.Token.Lexeme
	}
}
