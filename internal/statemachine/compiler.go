package statemachine

import (
	"surefire/internal/ast"
	"surefire/internal/diag"
	"surefire/internal/element"
	"surefire/internal/exprlang"
	"surefire/internal/lang"
	"surefire/internal/sfvalue"
	"surefire/internal/statevector"
)

// CompiledStmt is one executable node of a block tree: an assignment, a
// transition, or a guarded sub-block. It is the Stmt shape with every
// name resolved to a concrete element.Handle or state id and every
// expression bound by exprlang.Compiler.
type CompiledStmt struct {
	Kind StmtKind

	Target element.Handle     // StmtAssign
	Expr   *exprlang.Compiled // StmtAssign rhs, or StmtGuard condition
	Dest   int                // StmtTransition: destination state id

	Then []*CompiledStmt // StmtGuard
	Else []*CompiledStmt // StmtGuard
}

// CompiledState is one state's compiled .entry/.step/.exit blocks, with
// its enumerated id.
type CompiledState struct {
	ID    int
	Name  string
	Entry []*CompiledStmt
	Step  []*CompiledStmt
	Exit  []*CompiledStmt
}

// Assembly is a fully compiled state machine: frozen runtime tables
// (states, the well-known G/S/T handles, every rolling-window stats
// binding) plus, unless raked, the compile-time symbol and state-id
// tables a state script compiler needs to bind against it.
type Assembly struct {
	StateVector *statevector.StateVector

	G element.Handle
	S element.Handle
	T element.Handle

	States []*CompiledState // States[id-1] for id in 1..len(States)
	Stats  []exprlang.StatBinding

	// Symbols, StateIndex, and SymbolOrder are nil once Raked is true.
	Symbols    element.SymbolTable
	StateIndex map[string]int

	// SymbolOrder lists every bound name (state vector references, T,
	// then locals) in declaration order, skipping aliases: a state
	// script's final state vector dump walks this list and prints each
	// distinct element once, under the name printed here.
	SymbolOrder []string

	Raked bool
}

// StateID returns the enumerated id of name, or false if no such state
// was declared.
func (a *Assembly) StateID(name string) (int, bool) {
	id, ok := a.StateIndex[name]
	return id, ok
}

// Compiler compiles a parsed File against an already-compiled state
// vector, producing an Assembly.
type Compiler struct {
	// StateVector is the bound state vector every `[state_vector]`
	// reference is cross-checked against.
	StateVector *statevector.StateVector

	// InitState names the state the machine starts in. Empty means the
	// first declared state.
	InitState string

	// Rake drops compile-time symbol/id tables from the returned
	// Assembly once its runtime tables are frozen.
	Rake bool
}

// Compile runs the six-step pipeline (spec.md §4.8): state-vector
// cross-check, local compilation, state enumeration, block-tree
// compilation, bundling, and optional raking.
func (c *Compiler) Compile(file *File) (*Assembly, *diag.Error) {
	svTable, gHandle, sHandle, readOnly, svOrder, err := c.crossCheckStateVector(file.StateVector)
	if err != nil {
		return nil, err
	}

	localTable, tHandle, localOrder, err := compileLocals(file.Locals, svTable, readOnly)
	if err != nil {
		return nil, err
	}

	stateIndex := map[string]int{}
	for i, st := range file.States {
		stateIndex[st.Name] = i + 1
	}
	if len(file.States) == 0 {
		return nil, diag.NewGeneral("Init", "compile error", "a state machine must declare at least one state")
	}

	symbols := element.ChainSymbolTable{Inner: localTable, Outer: svTable}
	ec := exprlang.NewCompiler(symbols)

	states := make([]*CompiledState, 0, len(file.States))
	for i, st := range file.States {
		entry, err := compileStmts(st.Entry, false, ec, symbols, readOnly, stateIndex)
		if err != nil {
			return nil, err
		}
		step, err := compileStmts(st.Step, false, ec, symbols, readOnly, stateIndex)
		if err != nil {
			return nil, err
		}
		exit, err := compileStmts(st.Exit, true, ec, symbols, readOnly, stateIndex)
		if err != nil {
			return nil, err
		}
		states = append(states, &CompiledState{ID: i + 1, Name: st.Name, Entry: entry, Step: step, Exit: exit})
	}

	var stats []exprlang.StatBinding
	for _, cs := range states {
		stats = append(stats, collectStmtStats(cs.Entry)...)
		stats = append(stats, collectStmtStats(cs.Step)...)
		stats = append(stats, collectStmtStats(cs.Exit)...)
	}

	initID := 1
	if c.InitState != "" {
		id, ok := stateIndex[c.InitState]
		if !ok {
			return nil, diag.NewGeneral("State", "compile error", "unknown initial state '"+c.InitState+"'")
		}
		initID = id
	}
	sHandle.Set(float64(initID))

	asm := &Assembly{
		StateVector: c.StateVector,
		G:           gHandle,
		S:           sHandle,
		T:           tHandle,
		States:      states,
		Stats:       stats,
		Symbols:     symbols,
		StateIndex:  stateIndex,
		SymbolOrder: append(svOrder, localOrder...),
	}

	if c.Rake {
		asm.Symbols = nil
		asm.StateIndex = nil
		asm.SymbolOrder = nil
		asm.Raked = true
	}

	return asm, nil
}

// crossCheckStateVector binds every `[state_vector]` reference to the
// compiler's bound StateVector (step 1), returning the resulting symbol
// table (by declared name and by alias), the required G/S handles, the
// set of handles that are read-only (explicitly, or implicitly as
// G/S), and the declared names in first-bound order (for a state
// script's final state vector dump: an aliased element's un-aliased
// name is always bound first, so printing in this order and skipping
// already-printed handles reproduces "first alias wins" for free).
func (c *Compiler) crossCheckStateVector(refs []*ElementRef) (element.MapSymbolTable, element.Handle, element.Handle, map[element.Handle]bool, []string, *diag.Error) {
	svTable := element.MapSymbolTable{}
	used := map[element.Handle]bool{}
	readOnly := map[element.Handle]bool{}
	var order []string
	var gHandle, sHandle element.Handle

	for _, ref := range refs {
		h, ok := c.StateVector.Lookup(ref.Name)
		if !ok {
			return nil, nil, nil, nil, nil, diag.New("SvElem", "compile error", "the state vector has no element named '"+ref.Name+"'", ref.Pos)
		}
		declaredType, _ := sfvalue.ElementTypeByName(ref.Type)
		if h.Type != declaredType {
			return nil, nil, nil, nil, nil, diag.New("Type", "compile error", "'"+ref.Name+"' is declared "+ref.Type+" but the state vector has it as "+h.Type.String(), ref.Pos)
		}
		if used[h] {
			return nil, nil, nil, nil, nil, diag.New("ElemDupe", "compile error", "element '"+ref.Name+"' is already bound under another name in this state machine", ref.Pos)
		}
		used[h] = true
		if _, exists := svTable[ref.Name]; exists {
			return nil, nil, nil, nil, nil, diag.New("ElemDupe", "compile error", "name '"+ref.Name+"' is already declared", ref.Pos)
		}
		svTable[ref.Name] = h
		order = append(order, ref.Name)
		if ref.ReadOnly {
			readOnly[h] = true
		}

		if ref.Alias == "" {
			continue
		}
		switch ref.Alias {
		case "T":
			return nil, nil, nil, nil, nil, diag.New("Reserved", "compile error", "'T' is reserved for the implicit state-elapsed-time local", ref.Pos)
		case "G":
			if ref.ReadOnly {
				return nil, nil, nil, nil, nil, diag.New("RedundantReadOnly", "parse error", "'G' is implicitly read-only; @read_only is redundant", ref.Pos)
			}
			if h.Type != sfvalue.U64 {
				return nil, nil, nil, nil, nil, diag.New("GType", "compile error", "the element aliased 'G' must be U64", ref.Pos)
			}
			gHandle = h
			readOnly[h] = true
		case "S":
			if ref.ReadOnly {
				return nil, nil, nil, nil, nil, diag.New("RedundantReadOnly", "parse error", "'S' is implicitly read-only; @read_only is redundant", ref.Pos)
			}
			if h.Type != sfvalue.U32 {
				return nil, nil, nil, nil, nil, diag.New("STypeBad", "compile error", "the element aliased 'S' must be U32", ref.Pos)
			}
			sHandle = h
			readOnly[h] = true
		}
		if _, exists := svTable[ref.Alias]; exists {
			return nil, nil, nil, nil, nil, diag.New("ElemDupe", "compile error", "alias '"+ref.Alias+"' is already declared", ref.Pos)
		}
		svTable[ref.Alias] = h
	}

	if gHandle == nil {
		return nil, nil, nil, nil, nil, diag.NewGeneral("NoG", "compile error", "no state vector element is aliased 'G' (required, U64)")
	}
	if sHandle == nil {
		return nil, nil, nil, nil, nil, diag.NewGeneral("NoS", "compile error", "no state vector element is aliased 'S' (required, U32)")
	}
	return svTable, gHandle, sHandle, readOnly, order, nil
}

// compileLocals synthesizes a private single-region state vector from
// the `[local]` section plus an implicit read-only U64 element T (step
// 2). Each initializer may reference only earlier locals and constants.
// The returned order lists T then every local, in declaration order.
func compileLocals(locals []*LocalDecl, svSymbols element.SymbolTable, readOnly map[element.Handle]bool) (element.MapSymbolTable, element.Handle, []string, *diag.Error) {
	localTable := element.MapSymbolTable{}
	tHandle := &element.Element{Name: "T", Type: sfvalue.U64}
	localTable["T"] = tHandle
	readOnly[tHandle] = true
	order := []string{"T"}

	declared := map[string]bool{}
	for _, l := range locals {
		if l.Name == "T" {
			return nil, nil, nil, diag.New("Reserved", "compile error", "'T' is reserved for the implicit state-elapsed-time local", l.Pos)
		}
		declared[l.Name] = true
	}

	for _, l := range locals {
		if err := checkLocalRefs(l.Init, l.Name, declared, localTable, svSymbols); err != nil {
			return nil, nil, nil, err
		}

		ec := exprlang.NewCompiler(localTable)
		compiled, err := ec.Compile(l.Init)
		if err != nil {
			return nil, nil, nil, err
		}

		et, _ := sfvalue.ElementTypeByName(l.Type)
		el := &element.Element{Name: l.Name, Type: et}
		el.Set(compiled.Eval())
		localTable[l.Name] = el
		order = append(order, l.Name)
		if l.ReadOnly {
			readOnly[el] = true
		}
	}

	return localTable, tHandle, order, nil
}

// checkLocalRefs walks a local's initializer expression, rejecting
// self-reference, forward-reference to a later local, and reference to
// any outer (non-local) state vector element.
func checkLocalRefs(n *ast.Node, name string, declared map[string]bool, compiled element.MapSymbolTable, sv element.SymbolTable) *diag.Error {
	if n == nil {
		return nil
	}
	if n.IsFunction {
		for _, a := range n.Args {
			if err := checkLocalRefs(a, name, declared, compiled, sv); err != nil {
				return err
			}
		}
		return nil
	}
	if n.IsLeaf() && n.Token.Type == lang.Identifier {
		ident := n.Token.Lexeme
		if ident == name {
			return diag.New("SelfRef", "compile error", "local '"+name+"' cannot reference itself in its own initializer", n.Token.Position)
		}
		if _, ok := compiled[ident]; ok {
			return nil
		}
		if declared[ident] {
			return diag.New("UseBeforeInit", "compile error", "local '"+ident+"' is used before it is initialized", n.Token.Position)
		}
		if _, ok := sv.Lookup(ident); ok {
			return diag.New("LocalSvRef", "compile error", "a local initializer cannot reference state vector element '"+ident+"'", n.Token.Position)
		}
		return nil
	}
	if err := checkLocalRefs(n.Left, name, declared, compiled, sv); err != nil {
		return err
	}
	return checkLocalRefs(n.Right, name, declared, compiled, sv)
}

// compileStmts compiles a parsed Block into its executable form.
// inExit marks blocks where a transition statement is illegal.
func compileStmts(block Block, inExit bool, ec *exprlang.Compiler, symbols element.SymbolTable, readOnly map[element.Handle]bool, stateIndex map[string]int) ([]*CompiledStmt, *diag.Error) {
	var out []*CompiledStmt
	for _, s := range block {
		cs, err := compileStmt(s, inExit, ec, symbols, readOnly, stateIndex)
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, nil
}

func compileStmt(s *Stmt, inExit bool, ec *exprlang.Compiler, symbols element.SymbolTable, readOnly map[element.Handle]bool, stateIndex map[string]int) (*CompiledStmt, *diag.Error) {
	switch s.Kind {
	case StmtAssign:
		h, ok := symbols.Lookup(s.Target)
		if !ok {
			return nil, diag.New("AsgElem", "compile error", "unknown assignment target '"+s.Target+"'", s.Pos)
		}
		if readOnly[h] {
			return nil, diag.New("ElemReadOnly", "compile error", "'"+s.Target+"' is read-only", s.Pos)
		}
		rhs, err := ec.Compile(s.Expr)
		if err != nil {
			return nil, err
		}
		return &CompiledStmt{Kind: StmtAssign, Target: h, Expr: rhs}, nil

	case StmtTransition:
		if inExit {
			return nil, diag.New("TrExit", "compile error", "a transition is not allowed inside an .exit block", s.Pos)
		}
		id, ok := stateIndex[s.Dest]
		if !ok {
			return nil, diag.New("State", "compile error", "unknown destination state '"+s.Dest+"'", s.Pos)
		}
		return &CompiledStmt{Kind: StmtTransition, Dest: id}, nil

	case StmtGuard:
		guard, err := ec.Compile(s.Expr)
		if err != nil {
			return nil, err
		}
		then, err := compileStmts(s.Then, inExit, ec, symbols, readOnly, stateIndex)
		if err != nil {
			return nil, err
		}
		var elseBlock []*CompiledStmt
		if s.Else != nil {
			elseBlock, err = compileStmts(s.Else, inExit, ec, symbols, readOnly, stateIndex)
			if err != nil {
				return nil, err
			}
		}
		return &CompiledStmt{Kind: StmtGuard, Expr: guard, Then: then, Else: elseBlock}, nil

	case StmtAssert:
		return nil, diag.New("Assert", "compile error", "@assert is only valid in a state script", s.Pos)

	case StmtStop:
		return nil, diag.New("Stop", "compile error", "@stop is only valid in a state script", s.Pos)
	}
	return nil, diag.NewGeneral("Null", "compile error", "unreachable statement kind")
}

// collectStmtStats gathers every rolling-window binding reachable from
// a compiled block, for the runtime's per-step update loop.
func collectStmtStats(block []*CompiledStmt) []exprlang.StatBinding {
	var out []exprlang.StatBinding
	for _, s := range block {
		switch s.Kind {
		case StmtAssign:
			out = append(out, s.Expr.Stats()...)
		case StmtGuard:
			out = append(out, s.Expr.Stats()...)
			out = append(out, collectStmtStats(s.Then)...)
			out = append(out, collectStmtStats(s.Else)...)
		}
	}
	return out
}
