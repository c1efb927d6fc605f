package statescript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionsAndSections(t *testing.T) {
	file, err := Parse(`
[options]
delta_t 3
init_state Running

[all_states]
time >= 0: @assert time >= 0

[Running]
time > 5: @stop
`)
	require.Nil(t, err, "%v", err)
	require.True(t, file.Options.HaveDeltaT)
	assert.Equal(t, "3", file.Options.DeltaT)
	assert.Equal(t, "Running", file.Options.InitState)
	require.Len(t, file.Sections, 2)
	assert.Equal(t, "all_states", file.Sections[0].Name)
	assert.Equal(t, "Running", file.Sections[1].Name)
}

func TestParseOptionsOrderIndependent(t *testing.T) {
	file, err := Parse(`
[options]
init_state Running
delta_t 1

[Running]
time >= 0: @stop
`)
	require.Nil(t, err, "%v", err)
	assert.Equal(t, "1", file.Options.DeltaT)
	assert.Equal(t, "Running", file.Options.InitState)
}

func TestParseMissingDeltaTValueFails(t *testing.T) {
	_, err := Parse(`
[options]
delta_t

[Running]
time >= 0: @stop
`)
	require.NotNil(t, err)
	assert.Equal(t, "DT", err.Code)
}

func TestParseUnknownConfigOptionFails(t *testing.T) {
	_, err := Parse(`
[options]
frobnicate 1

[Running]
time >= 0: @stop
`)
	require.NotNil(t, err)
	assert.Equal(t, "Config", err.Code)
}

func TestParseDuplicateOptionsSectionFails(t *testing.T) {
	_, err := Parse(`
[options]
delta_t 1

[options]
delta_t 2

[Running]
time >= 0: @stop
`)
	require.NotNil(t, err)
	assert.Equal(t, "Config", err.Code)
}

func TestParseExpectsSectionHeader(t *testing.T) {
	_, err := Parse(`
delta_t 1
`)
	require.NotNil(t, err)
	assert.Equal(t, "Sec", err.Code)
}

func TestParseReusesGuardedBlockGrammar(t *testing.T) {
	file, err := Parse(`
[Running]
time > 5 {
  foo = 1
  @assert foo == 1
}
`)
	require.Nil(t, err, "%v", err)
	require.Len(t, file.Sections, 1)
	require.Len(t, file.Sections[0].Stmts, 1)
}
