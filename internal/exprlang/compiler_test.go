package exprlang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"surefire/internal/element"
	"surefire/internal/lang"
	"surefire/internal/sfvalue"
)

func compileSrc(t *testing.T, src string, sym element.SymbolTable) (*Compiled, error) {
	t.Helper()
	tok := lang.NewTokenizer(src)
	tokens, scanErrs := tok.ScanTokens()
	require.Empty(t, scanErrs)
	n, perr := ParseExpr(lang.NewCursor(tokens))
	require.Nil(t, perr, "%v", perr)
	c := NewCompiler(sym)
	compiled, cerr := c.Compile(n)
	if cerr != nil {
		return nil, cerr
	}
	return compiled, nil
}

func TestCompileArithmeticEvaluatesCorrectly(t *testing.T) {
	foo := &element.Element{Name: "foo", Type: sfvalue.I32}
	foo.Set(10)
	sym := element.MapSymbolTable{"foo": foo}

	compiled, err := compileSrc(t, "foo * 2 + 1", sym)
	require.NoError(t, err)
	assert.Equal(t, 21.0, compiled.Eval())
}

func TestCompileChainedRelational(t *testing.T) {
	a := &element.Element{Name: "a", Type: sfvalue.I32}
	b := &element.Element{Name: "b", Type: sfvalue.I32}
	c := &element.Element{Name: "c", Type: sfvalue.I32}
	a.Set(1)
	b.Set(2)
	c.Set(2)
	sym := element.MapSymbolTable{"a": a, "b": b, "c": c}

	compiled, err := compileSrc(t, "a < b <= c", sym)
	require.NoError(t, err)
	assert.Equal(t, 1.0, compiled.Eval())

	c.Set(1)
	assert.Equal(t, 0.0, compiled.Eval())
}

func TestCompileUnknownElementFails(t *testing.T) {
	_, err := compileSrc(t, "missing + 1", element.MapSymbolTable{})
	require.Error(t, err)
}

func TestCompileRollingStatBindsWindow(t *testing.T) {
	foo := &element.Element{Name: "foo", Type: sfvalue.F64}
	sym := element.MapSymbolTable{"foo": foo}

	compiled, err := compileSrc(t, "roll_avg(foo, 2)", sym)
	require.NoError(t, err)

	bindings := compiled.Stats()
	require.Len(t, bindings, 1)
	assert.Same(t, foo, bindings[0].Source)

	foo.Set(3)
	bindings[0].Window.Push(foo.Get())
	foo.Set(5)
	bindings[0].Window.Push(foo.Get())
	assert.Equal(t, 4.0, compiled.Eval())
}

func TestCompileRollingStatBadArity(t *testing.T) {
	foo := &element.Element{Name: "foo", Type: sfvalue.F64}
	_, err := compileSrc(t, "roll_avg(foo)", element.MapSymbolTable{"foo": foo})
	require.Error(t, err)
}

func TestCompileRollingStatWindowAcceptsConstantExpression(t *testing.T) {
	foo := &element.Element{Name: "foo", Type: sfvalue.F64}
	n := &element.Element{Name: "n", Type: sfvalue.I32}
	n.Set(2)
	sym := element.MapSymbolTable{"foo": foo, "n": n}

	compiled, err := compileSrc(t, "roll_avg(foo, 1 + n)", sym)
	require.NoError(t, err)

	bindings := compiled.Stats()
	require.Len(t, bindings, 1)
	for _, v := range []float64{3, 5, 9, 7} {
		foo.Set(v)
		bindings[0].Window.Push(foo.Get())
	}
	// window size 1+n == 3: the oldest push (3) has rolled off, leaving
	// 5, 9, 7.
	assert.Equal(t, (5.0+9.0+7.0)/3, compiled.Eval())
}

func TestCompileRollingStatWindowRejectsNonIntegerConstant(t *testing.T) {
	foo := &element.Element{Name: "foo", Type: sfvalue.F64}
	_, err := compileSrc(t, "roll_avg(foo, 1.5)", element.MapSymbolTable{"foo": foo})
	require.Error(t, err)
}

func TestCompileRollingStatWindowRejectsOutOfRange(t *testing.T) {
	foo := &element.Element{Name: "foo", Type: sfvalue.F64}
	_, err := compileSrc(t, "roll_avg(foo, 0)", element.MapSymbolTable{"foo": foo})
	require.Error(t, err)

	_, err = compileSrc(t, "roll_avg(foo, 100001)", element.MapSymbolTable{"foo": foo})
	require.Error(t, err)
}

func TestCompileShortCircuitAnd(t *testing.T) {
	flag := &element.Element{Name: "flag", Type: sfvalue.Bool}
	flag.Set(0)
	sym := element.MapSymbolTable{"flag": flag}

	compiled, err := compileSrc(t, "flag and (1 / 0)", sym)
	require.NoError(t, err)
	// left side false short-circuits; division-by-zero safety also holds
	// even if the right side were evaluated.
	assert.Equal(t, 0.0, compiled.Eval())
}
