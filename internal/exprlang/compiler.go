package exprlang

import (
	"math"
	"strconv"

	"surefire/internal/ast"
	"surefire/internal/diag"
	"surefire/internal/element"
	"surefire/internal/lang"
)

// maxWindowSize is the largest rolling-window length the function set
// accepts.
const maxWindowSize = 100000

// statFunctions maps a rolling-window function name to the statistic it
// reads. These are the only function calls the expression sublanguage
// recognizes.
var statFunctions = map[string]StatOp{
	"roll_avg":    StatAvg,
	"roll_median": StatMedian,
	"roll_min":    StatMin,
	"roll_max":    StatMax,
	"roll_range":  StatRange,
}

// Compiler binds a parsed expression tree to a concrete set of named
// elements, producing a Compiled tree ready to evaluate. Grounded on
// kanso/internal/semantic/analyzer_expression.go's expression-binding
// pass, generalized from a struct/field type-checker to element
// resolution plus rolling-window binding.
type Compiler struct {
	Symbols element.SymbolTable
}

// NewCompiler returns a Compiler resolving identifiers against sym.
func NewCompiler(sym element.SymbolTable) *Compiler {
	return &Compiler{Symbols: sym}
}

// Compile binds n, returning the compiled tree or the first binding
// error encountered.
func (c *Compiler) Compile(n *ast.Node) (*Compiled, *diag.Error) {
	if n == nil {
		return nil, diag.New("Null", "compile error", "expected an expression", lang.Position{})
	}

	if n.IsFunction {
		return c.compileCall(n)
	}

	if n.Left != nil && n.Right != nil {
		left, err := c.Compile(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.Compile(n.Right)
		if err != nil {
			return nil, err
		}
		return &Compiled{Kind: KindBinary, Op: opSymbol(n), Left: left, Right: right}, nil
	}

	if n.Right != nil { // unary
		right, err := c.Compile(n.Right)
		if err != nil {
			return nil, err
		}
		return &Compiled{Kind: KindUnary, Op: opSymbol(n), Right: right}, nil
	}

	// leaf: either an identifier naming an element, or a constant.
	if n.Token.Type == lang.Constant {
		return c.compileConstant(n)
	}
	return c.compileIdentifier(n)
}

func (c *Compiler) compileIdentifier(n *ast.Node) (*Compiled, *diag.Error) {
	h, ok := c.Symbols.Lookup(n.Token.Lexeme)
	if !ok {
		return nil, diag.New("UnknownElement", "compile error", "unknown element '"+n.Token.Lexeme+"'", n.Token.Position)
	}
	if h == nil {
		return nil, diag.New("NullBinding", "compile error", "element '"+n.Token.Lexeme+"' resolved to nothing", n.Token.Position)
	}
	return &Compiled{Kind: KindElement, Elem: h}, nil
}

func (c *Compiler) compileConstant(n *ast.Node) (*Compiled, *diag.Error) {
	lex := n.Token.Lexeme
	if lex == "true" {
		return &Compiled{Kind: KindConst, Value: 1}, nil
	}
	if lex == "false" {
		return &Compiled{Kind: KindConst, Value: 0}, nil
	}
	v, err := strconv.ParseFloat(lex, 64)
	if err != nil {
		return nil, diag.New("BadNumber", "compile error", "'"+lex+"' is not a valid number", n.Token.Position)
	}
	if math.IsInf(v, 0) {
		return nil, diag.New("Overflow", "compile error", "'"+lex+"' is out of range", n.Token.Position)
	}
	return &Compiled{Kind: KindConst, Value: v}, nil
}

func (c *Compiler) compileCall(n *ast.Node) (*Compiled, *diag.Error) {
	op, ok := statFunctions[n.Token.Lexeme]
	if !ok {
		return nil, diag.New("UnknownFunction", "compile error", "unknown function '"+n.Token.Lexeme+"'", n.Token.Position)
	}
	if len(n.Args) != 2 {
		return nil, diag.New("BadArity", "compile error", n.Token.Lexeme+" takes exactly 2 arguments (element, window size)", n.Token.Position)
	}

	srcNode := n.Args[0]
	if !srcNode.IsLeaf() || srcNode.Token.Type != lang.Identifier {
		return nil, diag.New("UnknownElement", "compile error", n.Token.Lexeme+"'s first argument must name an element", srcNode.Token.Position)
	}
	source, ok := c.Symbols.Lookup(srcNode.Token.Lexeme)
	if !ok {
		return nil, diag.New("UnknownElement", "compile error", "unknown element '"+srcNode.Token.Lexeme+"'", srcNode.Token.Position)
	}

	winVal, werr := c.compileWindowSize(n.Args[1])
	if werr != nil {
		return nil, werr
	}

	return &Compiled{
		Kind:   KindStat,
		Stat:   NewRollingWindow(winVal),
		Source: source,
		StatOp: op,
	}, nil
}

// compileWindowSize binds and constant-folds a rolling-window function's
// second argument: an integer constant expression (spec.md §3/§4.4), not
// necessarily a bare literal — `roll_avg(x, 2*n)` is as legal as
// `roll_avg(x, 200)` when n names an already-bound element. It is
// compiled against the same symbol table as the rest of the call and
// evaluated exactly once, at compile time, to fold it down to the
// integer the ring buffer is sized with.
func (c *Compiler) compileWindowSize(n *ast.Node) (int, *diag.Error) {
	compiled, cerr := c.Compile(n)
	if cerr != nil {
		return 0, diag.New("BadWindow", "compile error", "window size must be a compile-time constant expression", n.Pos())
	}
	winVal := compiled.Eval()
	if winVal != math.Trunc(winVal) || winVal < 1 || winVal > maxWindowSize {
		return 0, diag.New("BadWindow", "compile error", "window size must be a positive integer constant no greater than 100000", n.Pos())
	}
	return int(winVal), nil
}

// opSymbol returns the canonical operator spelling Compiled.Eval
// switches on, using the static OperatorInfo table rather than the raw
// surface lexeme so "&&"/"and" and "!"/"not" compile identically.
func opSymbol(n *ast.Node) string {
	if n.Token.Op != nil {
		return n.Token.Op.Symbol
	}
	return n.Token.Lexeme
}
