package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surefire/internal/sfvalue"
	"surefire/internal/statevector"
)

func TestRuntimeSingleStateIncrementsLocalAndElapsedTime(t *testing.T) {
	sv, svErr := statevector.Compile("[sv]\nU64 time\nU32 state\n")
	require.Nil(t, svErr, "%v", svErr)

	file, perr := Parse(`
[state_vector]
U64 time @alias G
U32 state @alias S

[local]
I32 foo = 0

[Initial]
.step
  foo = foo + 1
`)
	require.Nil(t, perr, "%v", perr)

	asm, cerr := (&Compiler{StateVector: sv}).Compile(file)
	require.Nil(t, cerr, "%v", cerr)

	foo, ok := asm.Symbols.Lookup("foo")
	require.True(t, ok)

	rt := NewRuntime(asm)

	assert.Equal(t, sfvalue.Success, rt.Step())
	assert.Equal(t, float64(1), foo.Get())
	assert.Equal(t, float64(0), asm.T.Get())

	asm.G.Set(1)
	assert.Equal(t, sfvalue.Success, rt.Step())
	assert.Equal(t, float64(2), foo.Get())
	assert.Equal(t, float64(1), asm.T.Get())
}

func TestRuntimeTimeNotIncreasingFails(t *testing.T) {
	sv, svErr := statevector.Compile("[sv]\nU64 time\nU32 state\n")
	require.Nil(t, svErr, "%v", svErr)

	file, perr := Parse("[state_vector]\nU64 time @alias G\nU32 state @alias S\n\n[local]\nI32 foo = 0\n\n[Initial]\n.step\n  foo = foo\n")
	require.Nil(t, perr, "%v", perr)
	asm, cerr := (&Compiler{StateVector: sv}).Compile(file)
	require.Nil(t, cerr, "%v", cerr)

	rt := NewRuntime(asm)
	require.Equal(t, sfvalue.Success, rt.Step())
	assert.Equal(t, sfvalue.TimeNotIncreasing, rt.Step())
}

func TestRuntimeEntryExitTransition(t *testing.T) {
	sv, svErr := statevector.Compile("[sv]\nU64 time\nU32 state\nI32 foo\n")
	require.Nil(t, svErr, "%v", svErr)

	file, perr := Parse(`
[state_vector]
U64 time @alias G
U32 state @alias S
I32 foo

[Initial]
.entry
  -> Foo
.exit
  foo = 1

[Foo]
.entry
  foo = 2
`)
	require.Nil(t, perr, "%v", perr)
	asm, cerr := (&Compiler{StateVector: sv}).Compile(file)
	require.Nil(t, cerr, "%v", cerr)

	foo, ok := asm.Symbols.Lookup("foo")
	require.True(t, ok)
	fooID, ok := asm.StateID("Foo")
	require.True(t, ok)

	rt := NewRuntime(asm)

	require.Equal(t, sfvalue.Success, rt.Step())
	assert.Equal(t, float64(1), foo.Get())
	assert.Equal(t, fooID, rt.CurrentState())
	assert.Equal(t, float64(1), asm.S.Get(), "S element still shows the state transitioned from")

	asm.G.Set(1)
	require.Equal(t, sfvalue.Success, rt.Step())
	assert.Equal(t, float64(2), foo.Get())
	assert.Equal(t, fooID, rt.CurrentState())
	assert.Equal(t, float64(fooID), asm.S.Get(), "S element flushes to the destination on the following step")
}

func TestRuntimeSetStateForcesEntry(t *testing.T) {
	sv, svErr := statevector.Compile("[sv]\nU64 time\nU32 state\nI32 foo\n")
	require.Nil(t, svErr, "%v", svErr)

	file, perr := Parse(`
[state_vector]
U64 time @alias G
U32 state @alias S
I32 foo

[Initial]
.step
  foo = 1

[Other]
.entry
  foo = 9
`)
	require.Nil(t, perr, "%v", perr)
	asm, cerr := (&Compiler{StateVector: sv}).Compile(file)
	require.Nil(t, cerr, "%v", cerr)
	foo, _ := asm.Symbols.Lookup("foo")
	otherID, _ := asm.StateID("Other")

	rt := NewRuntime(asm)
	require.Equal(t, sfvalue.Success, rt.Step())
	assert.Equal(t, float64(1), foo.Get())

	rt.SetState(otherID)
	asm.G.Set(1)
	require.Equal(t, sfvalue.Success, rt.Step())
	assert.Equal(t, float64(9), foo.Get())
}
