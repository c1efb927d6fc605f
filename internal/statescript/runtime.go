package statescript

import (
	"surefire/internal/lang"
	"surefire/internal/statemachine"
)

// Result is what running a state script to completion produced: whether
// it stopped cleanly or failed an assertion, how many steps it took,
// how many asserts passed along the way, and (on failure) where.
type Result struct {
	Steps         int
	PassedAsserts int
	Stopped       bool // an @stop fired
	Failed        bool
	FailPos       lang.Position
	Overflow      bool // the clock failed to advance after delta_t was added
}

// Runtime drives a compiled state script's Assembly, stepping its bound
// state machine once per cycle (spec.md §4.11). A cycle runs every
// matching section's guarded inputs, steps the state machine, then
// checks every matching section's guarded asserts against the state the
// machine was in when they were evaluated.
type Runtime struct {
	Asm *Assembly
	sm  *statemachine.Runtime

	step int
	g    float64

	result Result
	done   bool
}

// NewRuntime wraps asm for running. If asm specifies an init_state, sm
// is forced to it before the first cycle.
func NewRuntime(asm *Assembly, sm *statemachine.Runtime) *Runtime {
	if asm.InitState != allStates {
		sm.SetState(asm.InitState)
	}
	return &Runtime{Asm: asm, sm: sm, g: asm.StateMachine.G.Get()}
}

// Done reports whether the script has stopped or failed.
func (r *Runtime) Done() bool { return r.done }

// Result returns the outcome so far. Call after Done returns true for
// the final outcome.
func (r *Runtime) Result() Result { return r.result }

// Run drives cycles until the script stops, fails, or its clock
// overflows, returning the final Result. maxSteps bounds a runaway
// script whose author forgot a reachable @stop.
func (r *Runtime) Run(maxSteps int) Result {
	for !r.done && r.step < maxSteps {
		if ok := r.Cycle(); !ok {
			break
		}
	}
	return r.result
}

// Cycle runs exactly one step of the 7-step loop. It returns true while
// the run continues and false once it has ended: a stop, a failed
// assert, or a clock overflow (Result says which), or a call after the
// run already ended.
func (r *Runtime) Cycle() bool {
	if r.done {
		return false
	}

	r.step++
	r.result.Steps = r.step

	asm := r.Asm
	sm := asm.StateMachine

	sm.T.Set(r.sm.NextStateTime())
	sm.S.Set(float64(r.sm.CurrentState()))

	for _, sb := range asm.Stats {
		sb.Window.Push(sb.Source.Get())
	}

	currentID := r.sm.CurrentState()
	var pending []*CompiledAssert

	for _, sec := range asm.Sections {
		if sec.StateID != allStates && sec.StateID != currentID {
			continue
		}
		for _, in := range sec.Inputs {
			if in.Guard.Eval() != 0 {
				in.Target.Set(in.Expr.Eval())
			}
		}
		for _, a := range sec.Asserts {
			if a.Guard.Eval() != 0 {
				pending = append(pending, a)
			}
		}
	}

	r.sm.Step()

	for _, a := range pending {
		if a.IsStop {
			r.result.Stopped = true
			r.done = true
			return false
		}
		if a.Body.Eval() == 0 {
			r.result.Failed = true
			r.result.FailPos = a.Pos
			r.done = true
			return false
		}
		r.result.PassedAsserts++
	}

	nextG := r.g + float64(asm.DeltaT)
	if nextG <= r.g {
		r.result.Overflow = true
		r.done = true
		return false
	}
	r.g = nextG
	sm.G.Set(nextG)

	return true
}
