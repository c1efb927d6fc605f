package statescript

import (
	"strconv"

	"surefire/internal/diag"
	"surefire/internal/element"
	"surefire/internal/exprlang"
	"surefire/internal/lang"
	"surefire/internal/statemachine"
)

// allStates is the sentinel state id a section compiled from
// `[all_states]` carries: no real state is ever enumerated to 0.
const allStates = 0

// CompiledInput is one guarded assignment: a test-driven write to a
// state-machine-visible element, executed the moment its guard is
// true.
type CompiledInput struct {
	Guard  *exprlang.Compiled
	Target element.Handle
	Expr   *exprlang.Compiled
}

// CompiledAssert is one guarded assertion, or — when Body is nil — a
// guarded stop marker.
type CompiledAssert struct {
	Pos    lang.Position
	Guard  *exprlang.Compiled
	Body   *exprlang.Compiled // nil for a stop marker
	IsStop bool
}

// CompiledSection is one section's compiled inputs and asserts.
// Inputs and asserts are kept as two separate ordered lists (not
// interleaved in source order) because every input in a section runs
// before any of its asserts are evaluated, each step.
type CompiledSection struct {
	StateID int // allStates for a section compiled from `[all_states]`
	Inputs  []*CompiledInput
	Asserts []*CompiledAssert
}

// Assembly is a fully compiled state script, bound to a state machine
// Assembly it does not own.
type Assembly struct {
	StateMachine *statemachine.Assembly

	DeltaT    uint64
	InitState int // allStates (0) if unspecified

	Sections []*CompiledSection
	Stats    []exprlang.StatBinding
}

// Compile binds a parsed state script File to an already-compiled
// state machine Assembly, producing a state script Assembly.
func Compile(file *File, smAsm *statemachine.Assembly) (*Assembly, *diag.Error) {
	if smAsm.Raked {
		return nil, diag.NewGeneral("RakedAssembly", "compile error", "the bound state machine assembly has been raked and no longer carries the symbol/id tables a state script needs")
	}

	deltaT, initState, err := compileOptions(file.Options, smAsm)
	if err != nil {
		return nil, err
	}

	ec := exprlang.NewCompiler(smAsm.Symbols)

	var sections []*CompiledSection
	var stats []exprlang.StatBinding
	seenStates := map[string]bool{}
	foundScriptStop := false

	for _, sec := range file.Sections {
		stateID := allStates
		if sec.Name != sectionAllStates {
			id, ok := smAsm.StateID(sec.Name)
			if !ok {
				return nil, diag.New("State", "compile error", "unknown state '"+sec.Name+"'", sec.Pos)
			}
			if seenStates[sec.Name] {
				return nil, diag.New("DuplicateState", "compile error", "state '"+sec.Name+"' has more than one section", sec.Pos)
			}
			seenStates[sec.Name] = true
			stateID = id
		}

		cs := &CompiledSection{StateID: stateID}
		foundSectionStop := false

		for _, top := range sec.Stmts {
			if top.Kind != statemachine.StmtGuard {
				return nil, diag.New("Guard", "compile error", "unguarded statement in a state script section", top.Pos)
			}
			if top.Else != nil {
				return nil, diag.New("Else", "compile error", "state scripts may not use 'else'", top.Pos)
			}

			guard, gerr := ec.Compile(top.Expr)
			if gerr != nil {
				return nil, gerr
			}
			stats = append(stats, guard.Stats()...)

			for _, inner := range top.Then {
				switch inner.Kind {
				case statemachine.StmtGuard:
					return nil, diag.New("Nest", "compile error", "state scripts may not use nested guards", inner.Pos)

				case statemachine.StmtTransition:
					return nil, diag.New("Trans", "compile error", "state scripts may not transition the state machine directly", inner.Pos)

				case statemachine.StmtStop:
					if foundSectionStop {
						return nil, diag.New("Unrch", "compile error", "statement after '@stop' can never execute", inner.Pos)
					}
					foundSectionStop = true
					foundScriptStop = true
					cs.Asserts = append(cs.Asserts, &CompiledAssert{Pos: inner.Pos, Guard: guard, IsStop: true})

				case statemachine.StmtAssert:
					if foundSectionStop {
						return nil, diag.New("Unrch", "compile error", "statement after '@stop' can never execute", inner.Pos)
					}
					body, berr := ec.Compile(inner.Expr)
					if berr != nil {
						return nil, berr
					}
					stats = append(stats, body.Stats()...)
					cs.Asserts = append(cs.Asserts, &CompiledAssert{Pos: inner.Pos, Guard: guard, Body: body})

				case statemachine.StmtAssign:
					if foundSectionStop {
						return nil, diag.New("Unrch", "compile error", "statement after '@stop' can never execute", inner.Pos)
					}
					h, ok := smAsm.Symbols.Lookup(inner.Target)
					if !ok {
						return nil, diag.New("AsgElem", "compile error", "unknown assignment target '"+inner.Target+"'", inner.Pos)
					}
					rhs, rerr := ec.Compile(inner.Expr)
					if rerr != nil {
						return nil, rerr
					}
					stats = append(stats, rhs.Stats()...)
					cs.Inputs = append(cs.Inputs, &CompiledInput{Guard: guard, Target: h, Expr: rhs})
				}
			}
		}

		sections = append(sections, cs)
	}

	if !foundScriptStop {
		return nil, diag.NewGeneral("NoStop", "compile error", "a state script must contain at least one '@stop'")
	}

	return &Assembly{
		StateMachine: smAsm,
		DeltaT:       deltaT,
		InitState:    initState,
		Sections:     sections,
		Stats:        stats,
	}, nil
}

// compileOptions validates delta_t (must be a positive integer that
// fits in a U64) and resolves init_state (if present) against the
// state machine's state-id table.
func compileOptions(opts Options, smAsm *statemachine.Assembly) (uint64, int, *diag.Error) {
	if !opts.HaveDeltaT {
		return 0, 0, diag.NewGeneral("DT", "compile error", "'delta_t' not specified in [options] section")
	}
	deltaT, perr := strconv.ParseUint(opts.DeltaT, 10, 64)
	if perr != nil {
		return 0, 0, diag.New("DT", "compile error", "'delta_t' must be an integer greater than 0", opts.DeltaTPos)
	}
	if deltaT == 0 {
		return 0, 0, diag.New("DT", "compile error", "'delta_t' must be an integer greater than 0", opts.DeltaTPos)
	}

	initState := allStates
	if opts.InitState != "" {
		id, ok := smAsm.StateID(opts.InitState)
		if !ok {
			return 0, 0, diag.New("OptState", "compile error", "unknown state '"+opts.InitState+"'", opts.InitStatePos)
		}
		initState = id
	}

	return deltaT, initState, nil
}
