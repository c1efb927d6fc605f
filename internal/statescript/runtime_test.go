package statescript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surefire/internal/statemachine"
)

func TestRuntimeAccumulatesAndStopsOnElapsedTime(t *testing.T) {
	smAsm := mustSMAssembly(t, counterSM)
	scriptFile, perr := Parse(`
[options]
delta_t 3

[Running]
T == 9: @stop
`)
	require.Nil(t, perr, "%v", perr)
	asm, cerr := Compile(scriptFile, smAsm)
	require.Nil(t, cerr, "%v", cerr)

	smRt := statemachine.NewRuntime(smAsm)
	rt := NewRuntime(asm, smRt)
	res := rt.Run(100)

	assert.True(t, res.Stopped)
	assert.False(t, res.Failed)
	assert.Equal(t, 4, res.Steps)

	accum, ok := smAsm.Symbols.Lookup("accum")
	require.True(t, ok)
	assert.Equal(t, float64(18), accum.Get())
}

func TestRuntimeFailsAssertAndRecordsPosition(t *testing.T) {
	smAsm := mustSMAssembly(t, counterSM)
	scriptFile, perr := Parse(`
[options]
delta_t 3

[Running]
T > 0: @assert accum > 1000
T == 9: @stop
`)
	require.Nil(t, perr, "%v", perr)
	asm, cerr := Compile(scriptFile, smAsm)
	require.Nil(t, cerr, "%v", cerr)

	smRt := statemachine.NewRuntime(smAsm)
	rt := NewRuntime(asm, smRt)
	res := rt.Run(100)

	assert.True(t, res.Failed)
	assert.False(t, res.Stopped)
	assert.Equal(t, 0, res.PassedAsserts)
}

func TestRuntimeCountsPassedAsserts(t *testing.T) {
	smAsm := mustSMAssembly(t, counterSM)
	scriptFile, perr := Parse(`
[options]
delta_t 3

[Running]
T > 0: @assert accum >= 0
T == 9: @stop
`)
	require.Nil(t, perr, "%v", perr)
	asm, cerr := Compile(scriptFile, smAsm)
	require.Nil(t, cerr, "%v", cerr)

	smRt := statemachine.NewRuntime(smAsm)
	rt := NewRuntime(asm, smRt)
	res := rt.Run(100)

	assert.True(t, res.Stopped)
	assert.Equal(t, 3, res.PassedAsserts)
}

func TestReportRendersPassingRun(t *testing.T) {
	smAsm := mustSMAssembly(t, counterSM)
	source := `
[options]
delta_t 3

[Running]
T == 9: @stop
`
	scriptFile, perr := Parse(source)
	require.Nil(t, perr, "%v", perr)
	asm, cerr := Compile(scriptFile, smAsm)
	require.Nil(t, cerr, "%v", cerr)

	smRt := statemachine.NewRuntime(smAsm)
	rt := NewRuntime(asm, smRt)
	res := rt.Run(100)

	text := Report(source, asm, res)
	assert.Contains(t, text, "state script ran for 4 step(s)")
	assert.Contains(t, text, "PASSED")
	assert.Contains(t, text, "final state vector:")
	assert.Contains(t, text, "accum = 18")
}
