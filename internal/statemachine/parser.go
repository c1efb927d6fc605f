package statemachine

import (
	"strings"

	"surefire/internal/diag"
	"surefire/internal/exprlang"
	"surefire/internal/lang"
)

const (
	sectionStateVector = "state_vector"
	sectionLocal       = "local"
)

// Parse tokenizes and parses source into a File: the [state_vector]
// cross-reference list, the [local] declarations, and every state
// section, in declaration order.
func Parse(source string) (*File, *diag.Error) {
	tokens, errs := lang.NewTokenizer(source).ScanTokens()
	if len(errs) > 0 {
		e := errs[0]
		return nil, diag.New("Junk", "parse error", e.Message, e.Position)
	}
	c := lang.NewCursor(tokens)
	c.Eat()
	p := &parser{c: c}
	return p.parseFile()
}

type parser struct {
	c                         *lang.Cursor
	file                      File
	haveStateVector, haveLocal bool
}

func (p *parser) parseFile() (*File, *diag.Error) {
	seenStates := map[string]bool{}
	for !p.c.Eof() {
		tok := p.c.Tok()
		if tok.Type != lang.Section {
			return nil, diag.New("UnexpectedToken", "parse error", "expected a section header", tok.Position)
		}
		name := sectionName(tok)
		p.c.Take()

		switch name {
		case sectionStateVector:
			if p.haveStateVector {
				return nil, diag.New("MultiStateVector", "parse error", "[state_vector] declared more than once", tok.Position)
			}
			p.haveStateVector = true
			refs, err := p.parseStateVectorLines()
			if err != nil {
				return nil, err
			}
			p.file.StateVector = refs

		case sectionLocal:
			if p.haveLocal {
				return nil, diag.New("MultiLocal", "parse error", "[local] declared more than once", tok.Position)
			}
			p.haveLocal = true
			locals, err := p.parseLocalLines()
			if err != nil {
				return nil, err
			}
			p.file.Locals = locals

		default:
			if lang.ReservedSectionNames[name] {
				return nil, diag.New("UnexpectedToken", "parse error", "'"+name+"' is a reserved section name", tok.Position)
			}
			if seenStates[name] {
				return nil, diag.New("DuplicateLabel", "parse error", "state '"+name+"' declared more than once", tok.Position)
			}
			seenStates[name] = true
			state, err := p.parseState(name, tok.Position)
			if err != nil {
				return nil, err
			}
			p.file.States = append(p.file.States, state)
		}
	}
	return &p.file, nil
}

func sectionName(tok lang.Token) string {
	s := strings.TrimPrefix(tok.Lexeme, "[")
	s = strings.TrimSuffix(s, "]")
	return s
}

// parseStateVectorLines reads `<type> <name> [@alias <name>] [@read_only]`
// lines up to the next section header.
func (p *parser) parseStateVectorLines() ([]*ElementRef, *diag.Error) {
	var refs []*ElementRef
	seen := map[string]bool{}

	for !p.c.Eof() && p.c.Tok().Type != lang.Section {
		typeTok := p.c.Tok()
		if typeTok.Type != lang.Keyword || typeTok.ElemType == nil {
			return nil, diag.New("ElementType", "parse error", "expected an element type", typeTok.Position)
		}
		p.c.Take()

		nameTok := p.c.Tok()
		if nameTok.Type != lang.Identifier {
			return nil, diag.New("ElementName", "parse error", "expected an element name", nameTok.Position)
		}
		p.c.Take()

		ref := &ElementRef{Pos: typeTok.Position, Type: typeTok.Lexeme, Name: nameTok.Lexeme}
		gotAlias := false
		for p.c.Tok().Type == lang.Annotation {
			atok := p.c.Tok()
			p.c.Take()
			if err := p.applyElementAnnotation(ref, atok, &gotAlias); err != nil {
				return nil, err
			}
		}

		if seen[ref.Name] {
			return nil, diag.New("ElementName", "parse error", "element '"+ref.Name+"' already referenced", ref.Pos)
		}
		seen[ref.Name] = true
		refs = append(refs, ref)
	}
	return refs, nil
}

// applyElementAnnotation consumes one `@read_only` or `@alias <name>`
// annotation already taken from the cursor (atok), pulling the alias
// identifier that follows `@alias` as a separate token.
func (p *parser) applyElementAnnotation(ref *ElementRef, atok lang.Token, gotAlias *bool) *diag.Error {
	switch atok.Lexeme {
	case "@read_only":
		if ref.ReadOnly {
			return diag.New("RedundantReadOnly", "parse error", "@read_only repeated", atok.Position)
		}
		ref.ReadOnly = true
		return nil

	case "@alias":
		if *gotAlias {
			return diag.New("MultipleAlias", "parse error", "an element may have only one @alias", atok.Position)
		}
		nameTok := p.c.Tok()
		if nameTok.Type != lang.Identifier {
			return diag.New("AliasIdent", "parse error", "@alias requires an identifier", nameTok.Position)
		}
		p.c.Take()
		ref.Alias = nameTok.Lexeme
		*gotAlias = true
		return nil

	default:
		return diag.New("BadAnnotation", "parse error", "unrecognized annotation '"+atok.Lexeme+"'", atok.Position)
	}
}

// parseLocalLines reads `<type> <name> = <expr> [@read_only]` lines up
// to the next section header.
func (p *parser) parseLocalLines() ([]*LocalDecl, *diag.Error) {
	var locals []*LocalDecl
	seen := map[string]bool{}

	for !p.c.Eof() && p.c.Tok().Type != lang.Section {
		typeTok := p.c.Tok()
		if typeTok.Type != lang.Keyword || typeTok.ElemType == nil {
			return nil, diag.New("ElementType", "parse error", "expected an element type", typeTok.Position)
		}
		p.c.Take()

		nameTok := p.c.Tok()
		if nameTok.Type != lang.Identifier {
			return nil, diag.New("ElementName", "parse error", "expected a local name", nameTok.Position)
		}
		p.c.Take()

		eqTok := p.c.Tok()
		if !isBareAssign(eqTok) {
			return nil, diag.New("LocalOp", "parse error", "expected '=' after local name", eqTok.Position)
		}
		p.c.Take()

		init, err := exprlang.ParseExpr(p.c)
		if err != nil {
			return nil, wrapExprErr(err, "LocalValue")
		}

		local := &LocalDecl{Pos: typeTok.Position, Type: typeTok.Lexeme, Name: nameTok.Lexeme, Init: init}
		for p.c.Tok().Type == lang.Annotation {
			atok := p.c.Tok()
			p.c.Take()
			if atok.Lexeme != "@read_only" {
				return nil, diag.New("BadAnnotation", "parse error", "unrecognized annotation '"+atok.Lexeme+"' on a local", atok.Position)
			}
			if local.ReadOnly {
				return nil, diag.New("RedundantReadOnly", "parse error", "@read_only repeated", atok.Position)
			}
			local.ReadOnly = true
		}

		if seen[local.Name] {
			return nil, diag.New("ElementName", "parse error", "local '"+local.Name+"' already declared", local.Pos)
		}
		seen[local.Name] = true
		locals = append(locals, local)
	}
	return locals, nil
}

// parseState reads the .entry/.step/.exit labeled blocks of one
// `[<StateName>]` section.
func (p *parser) parseState(name string, pos lang.Position) (*StateDecl, *diag.Error) {
	state := &StateDecl{Pos: pos, Name: name}
	have := map[string]bool{}

	for !p.c.Eof() && p.c.Tok().Type == lang.Label {
		ltok := p.c.Tok()
		p.c.Take()

		if have[ltok.Lexeme] {
			return nil, diag.New("DuplicateLabel", "parse error", "duplicate '"+ltok.Lexeme+"' block in state '"+name+"'", ltok.Position)
		}
		have[ltok.Lexeme] = true

		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}

		switch ltok.Lexeme {
		case ".entry":
			state.Entry = block
		case ".step":
			state.Step = block
		case ".exit":
			state.Exit = block
		default:
			return nil, diag.New("BadLabel", "parse error", "unknown block label '"+ltok.Lexeme+"'", ltok.Position)
		}
	}

	if len(have) == 0 {
		return nil, diag.New("NoLabel", "parse error", "state '"+name+"' has no .entry/.step/.exit block", pos)
	}
	return state, nil
}

// ParseBlock reads a flat sequence of statements from c, stopping at
// the next block label, section header, or end of input. It is the
// state machine's statement grammar exported for reuse by the state
// script parser, which shares this grammar wholesale and enforces its
// own restrictions (every statement guarded, no nested guards, no
// else, no transitions) later, at compile time.
func ParseBlock(c *lang.Cursor) (Block, *diag.Error) {
	p := &parser{c: c}
	return p.parseBlock()
}

// parseBlock reads statements up to the next block label, section
// header, or end of input.
func (p *parser) parseBlock() (Block, *diag.Error) {
	var block Block
	for !p.c.Eof() && p.c.Tok().Type != lang.Label && p.c.Tok().Type != lang.Section {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block = append(block, stmt)
	}
	return block, nil
}

// parseStatementsUntilRBrace reads statements up to a closing brace,
// which it consumes.
func (p *parser) parseStatementsUntilRBrace() (Block, *diag.Error) {
	var block Block
	for {
		if p.c.Eof() {
			return nil, diag.New("UnclosedBrace", "parse error", "expected '}'", p.c.Tok().Position)
		}
		if p.c.Tok().Type == lang.RBrace {
			p.c.Take()
			return block, nil
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block = append(block, stmt)
	}
}

// parseStmt reads one statement: a transition, an assignment, or a
// guarded sub-block (colon or brace form, with an optional else).
func (p *parser) parseStmt() (*Stmt, *diag.Error) {
	tok := p.c.Tok()

	if isArrow(tok) {
		p.c.Take()
		destTok := p.c.Tok()
		if destTok.Type != lang.Identifier {
			return nil, diag.New("TrDest", "parse error", "expected a destination state name after '->'", destTok.Position)
		}
		p.c.Take()
		return &Stmt{Pos: tok.Position, Kind: StmtTransition, Dest: destTok.Lexeme}, nil
	}

	// @assert and @stop share this grammar with the state script DSL; a
	// compiler rejects them where they are not meaningful (the state
	// machine compiler rejects both, since both are state-script-only).
	if tok.Type == lang.Annotation && tok.Lexeme == "@stop" {
		p.c.Take()
		return &Stmt{Pos: tok.Position, Kind: StmtStop}, nil
	}
	if tok.Type == lang.Annotation && tok.Lexeme == "@assert" {
		p.c.Take()
		cond, aerr := exprlang.ParseExpr(p.c)
		if aerr != nil {
			return nil, wrapExprErr(aerr, "ActExpr")
		}
		return &Stmt{Pos: tok.Position, Kind: StmtAssert, Expr: cond}, nil
	}

	if tok.Type == lang.Colon || tok.Type == lang.LBrace {
		return nil, diag.New("EmptyGuard", "parse error", "missing guard condition", tok.Position)
	}

	expr, err := exprlang.ParseExpr(p.c)
	if err != nil {
		if err.Code == "EmptyExpression" {
			return nil, diag.New("Junk", "parse error", err.Message, err.Pos)
		}
		return nil, wrapExprErr(err, "ActExpr")
	}

	next := p.c.Tok()
	switch {
	case next.Type == lang.Colon:
		p.c.Take()
		then, serr := p.parseStmt()
		if serr != nil {
			return nil, serr
		}
		guard := &Stmt{Pos: tok.Position, Kind: StmtGuard, Expr: expr, Then: Block{then}}
		elseBlk, eerr := p.tryParseElse()
		if eerr != nil {
			return nil, eerr
		}
		guard.Else = elseBlk
		return guard, nil

	case next.Type == lang.LBrace:
		p.c.Take()
		body, berr := p.parseStatementsUntilRBrace()
		if berr != nil {
			return nil, berr
		}
		guard := &Stmt{Pos: tok.Position, Kind: StmtGuard, Expr: expr, Then: body}
		elseBlk, eerr := p.tryParseElse()
		if eerr != nil {
			return nil, eerr
		}
		guard.Else = elseBlk
		return guard, nil

	case isBareAssign(next):
		if !expr.IsLeaf() || expr.Token.Type != lang.Identifier {
			return nil, diag.New("ActElem", "parse error", "assignment target must be a plain element or local name", tok.Position)
		}
		p.c.Take()
		rhs, rerr := exprlang.ParseExpr(p.c)
		if rerr != nil {
			return nil, wrapExprErr(rerr, "ActExpr")
		}
		return &Stmt{Pos: tok.Position, Kind: StmtAssign, Target: expr.Token.Lexeme, Expr: rhs}, nil

	default:
		return nil, diag.New("ActOp", "parse error", "expected ':', '{', or '=' after expression", next.Position)
	}
}

// tryParseElse consumes an optional `else: <statement>`, `else {
// <statements> }`, or `else <statement>` trailer.
func (p *parser) tryParseElse() (Block, *diag.Error) {
	tok := p.c.Tok()
	if tok.Type != lang.Identifier || tok.Lexeme != "else" {
		return nil, nil
	}
	p.c.Take()

	if p.c.Tok().Type == lang.LBrace {
		p.c.Take()
		return p.parseStatementsUntilRBrace()
	}
	if p.c.Tok().Type == lang.Colon {
		p.c.Take()
	}
	stmt, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return Block{stmt}, nil
}

func isArrow(tok lang.Token) bool {
	return tok.Type == lang.Operator && tok.Op == nil && tok.Lexeme == "->"
}

func isBareAssign(tok lang.Token) bool {
	return tok.Type == lang.Operator && tok.Op == nil && tok.Lexeme == "="
}

// wrapExprErr recasts an exprlang diagnostic under a statement-machine-
// specific error code, preserving its message and position.
func wrapExprErr(err *diag.Error, code string) *diag.Error {
	if err.HasPos {
		return diag.New(code, err.Category, err.Message, err.Pos)
	}
	return diag.NewGeneral(code, err.Category, err.Message)
}
