package element

// SymbolTable maps a DSL identifier to the Element handle it names. The
// expression compiler (internal/exprlang) depends only on this interface,
// not on the concrete state vector or local-variable storage that
// implements it, so the same compiler serves the state machine's
// `[state_vector]`/`[local]` symbols and the state script's symbols.
type SymbolTable interface {
	// Lookup resolves name to its Handle (whose Type field carries the
	// ElementType). ok is false if name is not a known element in this
	// symbol table.
	Lookup(name string) (h Handle, ok bool)
}

// MapSymbolTable is the simplest SymbolTable: a flat name-to-handle map.
// Used directly by the state vector's own by-name lookup and composed by
// the state machine compiler into a larger merged symbol table (state
// vector symbols + locals + aliases).
type MapSymbolTable map[string]Handle

func (m MapSymbolTable) Lookup(name string) (Handle, bool) {
	h, ok := m[name]
	return h, ok
}

// ChainSymbolTable resolves against Inner first and falls back to Outer,
// so an alias or local declaration can shadow (or merely extend) a
// surrounding symbol table without copying its entries.
type ChainSymbolTable struct {
	Inner SymbolTable
	Outer SymbolTable
}

func (c ChainSymbolTable) Lookup(name string) (Handle, bool) {
	if c.Inner != nil {
		if h, ok := c.Inner.Lookup(name); ok {
			return h, ok
		}
	}
	if c.Outer != nil {
		return c.Outer.Lookup(name)
	}
	return nil, false
}
