package statemachine

import "surefire/internal/sfvalue"

// Runtime drives one compiled Assembly through its step() cycle
// (spec.md §4.9). It holds the small amount of mutable bookkeeping that
// is not itself an element: the moment the current state was entered,
// the last observed G, and whether the next step owes an entry block.
//
// A transition's destination becomes the active state (entry/step
// dispatch) the moment it is requested, but the S element itself is not
// written until the start of the following Step call — mirroring the
// original state machine runtime, where currentState() can differ from
// the state element's value for exactly one step after a transition.
type Runtime struct {
	Asm *Assembly

	haveStepped bool
	lastG       float64
	stateStart  float64

	currentID    int
	freshState   bool
	pendingFlush bool
	pendingDest  int
}

// NewRuntime wraps asm for stepping, starting from whatever state id
// compilation wrote into S.
func NewRuntime(asm *Assembly) *Runtime {
	return &Runtime{Asm: asm, currentID: int(asm.S.Get()), freshState: true}
}

// Step executes one cycle: reads G, advances T, runs entry/step/exit as
// appropriate, and applies any requested transition. It never allocates.
func (r *Runtime) Step() sfvalue.ResultCode {
	asm := r.Asm
	g := asm.G.Get()

	if r.haveStepped && g <= r.lastG {
		return sfvalue.TimeNotIncreasing
	}
	if !r.haveStepped {
		r.stateStart = g
	}
	r.lastG = g
	r.haveStepped = true

	if r.pendingFlush {
		asm.S.Set(float64(r.currentID))
		r.pendingFlush = false
	} else if observed := int(asm.S.Get()); observed != r.currentID {
		r.currentID = observed
		r.stateStart = g
		r.freshState = true
	}

	asm.T.Set(g - r.stateStart)

	for _, sb := range asm.Stats {
		sb.Window.Push(sb.Source.Get())
	}

	state := asm.States[r.currentID-1]
	r.pendingDest = 0

	if r.freshState {
		r.freshState = false
		r.execBlock(state.Entry)
	}
	if r.pendingDest == 0 {
		r.execBlock(state.Step)
	}
	if r.pendingDest != 0 {
		r.execBlock(state.Exit)
		r.currentID = r.pendingDest
		r.pendingDest = 0
		r.stateStart = g
		r.freshState = true
		r.pendingFlush = true
	}

	return sfvalue.Success
}

// SetState forces the next Step call to treat id as freshly entered,
// disregarding any pending transition and skipping the outgoing state's
// exit block: its entry block will run before its step block.
func (r *Runtime) SetState(id int) {
	r.currentID = id
	r.Asm.S.Set(float64(id))
	r.freshState = true
	r.pendingFlush = false
}

// CurrentState returns the id that will be active on the next Step
// call. Immediately after a Step call that performed a transition, this
// differs from the S element's value: S still holds the id transitioned
// from until the following Step call flushes it.
func (r *Runtime) CurrentState() int { return r.currentID }

// NextStateTime returns the value T will be set to if Step is called
// right now, without mutating anything. A state script forces its own
// T/S-aliased elements to this value before evaluating any guard, so
// that script-level expressions see the same step the state machine is
// about to take.
func (r *Runtime) NextStateTime() float64 {
	return r.Asm.G.Get() - r.stateStart
}

func (r *Runtime) execBlock(block []*CompiledStmt) {
	for _, s := range block {
		r.execStmt(s)
	}
}

func (r *Runtime) execStmt(s *CompiledStmt) {
	switch s.Kind {
	case StmtAssign:
		s.Target.Set(s.Expr.Eval())
	case StmtTransition:
		r.pendingDest = s.Dest
	case StmtGuard:
		if s.Expr.Eval() != 0 {
			r.execBlock(s.Then)
		} else if s.Else != nil {
			r.execBlock(s.Else)
		}
	}
}
