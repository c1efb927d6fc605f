// Package exprlang implements the expression sublanguage: the
// shunting-yard parser, the name-binding compiler, the compiled
// evaluation tree, and the rolling-window stats operators (spec.md
// §4.3–§4.5).
//
// Grounded on kanso/internal/parser/parser_pratt.go's precedence-climbing
// parser, generalized from a Pratt climber into the explicit two-stack
// shunting-yard spec.md §4.3 describes, since chained-relational
// desugaring needs the intermediate parse tree shape that a two-stack
// algorithm naturally produces.
package exprlang

import (
	"surefire/internal/ast"
	"surefire/internal/diag"
	"surefire/internal/lang"
)

// ParseExpr parses a single expression from c, stopping (without
// consuming) at the first token that cannot continue it — a Newline,
// Colon, Comma, RBrace, Section, Label, EOF, or an RParen with no
// matching LParen in this expression, left over for the caller.
func ParseExpr(c *lang.Cursor) (*ast.Node, *diag.Error) {
	var operands []*ast.Node
	var operators []lang.Token // operator tokens and LParen "markers"

	pop := func() *ast.Node {
		n := operands[len(operands)-1]
		operands = operands[:len(operands)-1]
		return n
	}

	applyTop := func() *diag.Error {
		top := operators[len(operators)-1]
		operators = operators[:len(operators)-1]
		if top.Op != nil && top.Op.Unary {
			if len(operands) < 1 {
				return diag.New("Syntax", "syntax error", "missing operand for unary operator '"+top.Lexeme+"'", top.Position)
			}
			operand := pop()
			operands = append(operands, &ast.Node{Token: top, Right: operand})
			return nil
		}
		if len(operands) < 2 {
			return diag.New("Syntax", "syntax error", "missing operand for operator '"+top.Lexeme+"'", top.Position)
		}
		right := pop()
		left := pop()
		operands = append(operands, &ast.Node{Token: top, Left: left, Right: right})
		return nil
	}

	expectOperand := true

loop:
	for {
		tok := c.Tok()

		if expectOperand {
			switch tok.Type {
			case lang.Identifier:
				c.Take()
				if c.Tok().Type == lang.LParen {
					c.Take()
					var args []*ast.Node
					if c.Tok().Type != lang.RParen {
						for {
							arg, err := ParseExpr(c)
							if err != nil {
								return nil, err
							}
							args = append(args, arg)
							if c.Tok().Type == lang.Comma {
								c.Take()
								continue
							}
							break
						}
					}
					if c.Tok().Type != lang.RParen {
						return nil, diag.New("UnbalancedParen", "syntax error", "expected ')' to close argument list", tok.Position)
					}
					c.Take()
					operands = append(operands, &ast.Node{Token: tok, IsFunction: true, Args: args})
				} else {
					operands = append(operands, &ast.Node{Token: tok})
				}
				expectOperand = false

			case lang.Constant:
				c.Take()
				operands = append(operands, &ast.Node{Token: tok})
				expectOperand = false

			case lang.LParen:
				c.Take()
				operators = append(operators, tok)
				expectOperand = true

			case lang.Operator:
				if tok.Op == nil {
					return nil, diag.New("IllegalOperator", "syntax error", "illegal operator '"+tok.Lexeme+"' in expression", tok.Position)
				}
				if tok.Op.Unary {
					c.Take()
					operators = append(operators, tok)
					expectOperand = true
				} else if tok.Lexeme == "-" {
					c.Take()
					unary := tok
					unary.Op = lang.UnaryMinus
					operators = append(operators, unary)
					expectOperand = true
				} else {
					return nil, diag.New("IllegalOperator", "syntax error", "operator '"+tok.Lexeme+"' cannot start an expression", tok.Position)
				}

			default:
				if len(operands) == 0 && len(operators) == 0 {
					return nil, diag.New("EmptyExpression", "syntax error", "expected an expression", tok.Position)
				}
				return nil, diag.New("Syntax", "syntax error", "expected an operand", tok.Position)
			}
			continue
		}

		// expecting a binary operator, ')', or the end of the expression
		switch tok.Type {
		case lang.Operator:
			if tok.Op == nil {
				// '=' and '->' tokenize as an Operator with no Op entry
				// (internal/lang/operators.go has no binding for either):
				// neither can continue an expression, so this is the same
				// left-for-the-caller terminator as the default case below.
				break loop
			}
			if tok.Op.Unary {
				return nil, diag.New("IllegalOperator", "syntax error", "operator '"+tok.Lexeme+"' cannot follow an operand", tok.Position)
			}
			for len(operators) > 0 {
				top := operators[len(operators)-1]
				if top.Type == lang.LParen {
					break
				}
				if top.Op.Precedence >= tok.Op.Precedence {
					if err := applyTop(); err != nil {
						return nil, err
					}
					continue
				}
				break
			}
			c.Take()
			operators = append(operators, tok)
			expectOperand = true

		case lang.RParen:
			matched := false
			for len(operators) > 0 {
				top := operators[len(operators)-1]
				if top.Type == lang.LParen {
					operators = operators[:len(operators)-1]
					matched = true
					break
				}
				if err := applyTop(); err != nil {
					return nil, err
				}
			}
			if !matched {
				// A ')' this expression never opened closes an enclosing
				// function call's argument list: leave it for the caller.
				break loop
			}
			c.Take()
			expectOperand = false

		default:
			break loop
		}
	}

	for len(operators) > 0 {
		top := operators[len(operators)-1]
		if top.Type == lang.LParen {
			return nil, diag.New("UnbalancedParen", "syntax error", "unmatched '('", top.Position)
		}
		if err := applyTop(); err != nil {
			return nil, err
		}
	}

	if len(operands) == 0 {
		return nil, diag.New("EmptyExpression", "syntax error", "expected an expression", c.Tok().Position)
	}
	if len(operands) != 1 {
		return nil, diag.New("Syntax", "syntax error", "malformed expression", c.Tok().Position)
	}

	return desugarChain(operands[0]), nil
}
