// Package statemachine implements the state machine DSL's parser,
// compiler, and runtime (spec.md §4.7–§4.9): the section-structured
// language that binds a state vector, declares private locals, and
// defines states with entry/step/exit blocks of guarded assignments and
// transitions.
package statemachine

import (
	"surefire/internal/ast"
	"surefire/internal/lang"
)

// ElementRef is one `<type> <name> [@alias <alias>] [@read_only]` line
// in the [state_vector] section.
type ElementRef struct {
	Pos      lang.Position
	Type     string
	Name     string
	Alias    string // empty if no @alias
	ReadOnly bool
}

// LocalDecl is one `<type> <name> = <expr> [@read_only]` line in the
// [local] section.
type LocalDecl struct {
	Pos      lang.Position
	Type     string
	Name     string
	Init     *ast.Node
	ReadOnly bool
}

// StmtKind tags the shape of a Stmt.
type StmtKind int

const (
	StmtAssign StmtKind = iota
	StmtTransition
	StmtGuard
	StmtAssert // state-script only; the state machine compiler rejects these
	StmtStop   // state-script only; the state machine compiler rejects these
)

// Stmt is one statement in an entry/step/exit block: an assignment, a
// transition, or a guarded sub-block (with an optional else branch).
// Nesting guards inside Then/Else is how the DSL expresses if/else-if
// chains.
type Stmt struct {
	Pos    lang.Position
	Kind   StmtKind
	Target string    // StmtAssign: element/local being written
	Expr   *ast.Node  // StmtAssign: rhs; StmtGuard: condition
	Dest   string    // StmtTransition: destination state name
	Then   Block     // StmtGuard: the guarded body
	Else   Block     // StmtGuard: optional else body (nil if absent)
}

// Block is an ordered list of statements.
type Block []*Stmt

// StateDecl is one `[<StateName>]` section: up to one each of
// .entry/.step/.exit.
type StateDecl struct {
	Pos   lang.Position
	Name  string
	Entry Block
	Step  Block
	Exit  Block
}

// File is the parsed state machine DSL: its state vector cross-
// references, its locals, and its states in declaration order.
type File struct {
	StateVector []*ElementRef
	Locals      []*LocalDecl
	States      []*StateDecl
}
