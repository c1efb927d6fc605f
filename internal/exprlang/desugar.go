package exprlang

import (
	"surefire/internal/ast"
	"surefire/internal/lang"
)

// desugarChain rewrites a run of chained relational comparisons into an
// explicit conjunction: the naive left-associative parse of
// "a < b <= c" is ((a < b) <= c), which compares a bool-shaped result
// against c. desugarChain restructures it into "(a < b) and (b <= c)",
// matching ordinary mathematical reading of a chained comparison.
//
// Equality operators ("==", "!=") are left exactly as parsed — they are
// not chainable, so "a == b == c" keeps its natural ((a == b) == c)
// shape.
func desugarChain(n *ast.Node) *ast.Node {
	if n == nil {
		return nil
	}

	if isRelationalNode(n) {
		chain := collectChain(n)
		if len(chain) >= 2 {
			reverse(chain)

			comparisons := make([]*ast.Node, len(chain))
			comparisons[0] = &ast.Node{
				Token: chain[0].Token,
				Left:  desugarChain(chain[0].Left),
				Right: desugarChain(chain[0].Right),
			}
			for i := 1; i < len(chain); i++ {
				comparisons[i] = &ast.Node{
					Token: chain[i].Token,
					Left:  comparisons[i-1].Right,
					Right: desugarChain(chain[i].Right),
				}
			}

			andOp := lang.Operators["and"]
			result := comparisons[0]
			for i := 1; i < len(comparisons); i++ {
				andTok := lang.Token{Type: lang.Operator, Lexeme: "and", Op: andOp, Position: comparisons[i].Token.Position}
				result = &ast.Node{Token: andTok, Left: result, Right: comparisons[i]}
			}
			return result
		}
	}

	if n.IsFunction {
		args := make([]*ast.Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = desugarChain(a)
		}
		return &ast.Node{Token: n.Token, IsFunction: true, Args: args}
	}

	if n.Left == nil && n.Right == nil {
		return n
	}

	return &ast.Node{
		Token: n.Token,
		Left:  desugarChain(n.Left),
		Right: desugarChain(n.Right),
	}
}

func isRelationalNode(n *ast.Node) bool {
	return n.Token.Op != nil && n.Token.Op.Relational && n.Left != nil && n.Right != nil
}

// collectChain walks the left spine of relational nodes starting at n,
// returning them outer-to-inner (n first, innermost comparison last).
func collectChain(n *ast.Node) []*ast.Node {
	var chain []*ast.Node
	cur := n
	for cur != nil && isRelationalNode(cur) {
		chain = append(chain, cur)
		cur = cur.Left
	}
	return chain
}

func reverse(nodes []*ast.Node) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}
