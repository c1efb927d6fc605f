// Package statescript implements the state script DSL's parser,
// compiler, and runtime (spec.md §4.10–§4.11): a test-harness language
// of guarded inputs and assertions that drives a compiled state machine
// step by step against a configurable time increment, producing a
// pass/fail report.
package statescript

import (
	"surefire/internal/lang"
	"surefire/internal/statemachine"
)

// Section is one `[all_states]` or `[<StateName>]` block: the flat
// statement grammar the state machine parser already defines, reused
// wholesale (guards, assignments, asserts, stop markers) and restricted
// later, at compile time, to what a state script is actually allowed to
// contain (every statement guarded, no nested guards, no else, no
// transitions).
type Section struct {
	Pos   lang.Position
	Name  string // "all_states", or a state name
	Stmts statemachine.Block
}

// Options holds the reserved `[options]` section's two recognized
// settings, captured as raw tokens: delta_t's range and integer-ness,
// and init_state's resolution against a real state name, both need the
// bound state machine assembly and so are validated at compile time,
// not here.
type Options struct {
	HaveDeltaT  bool
	DeltaT      string // raw constant lexeme
	DeltaTPos   lang.Position

	InitState    string // empty if absent
	InitStatePos lang.Position
}

// File is the parsed state script DSL: its options and its sections in
// declaration order.
type File struct {
	Options  Options
	Sections []*Section
}
