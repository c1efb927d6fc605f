package statescript

import (
	"strings"

	"surefire/internal/diag"
	"surefire/internal/lang"
	"surefire/internal/statemachine"
)

const (
	sectionOptions   = "options"
	sectionAllStates = "all_states"

	optDeltaT    = "delta_t"
	optInitState = "init_state"
)

// Parse tokenizes and parses source into a File: the reserved
// `[options]` section (delta_t, optional init_state) plus every
// `[all_states]`/`[<StateName>]` section, in declaration order.
func Parse(source string) (*File, *diag.Error) {
	tokens, errs := lang.NewTokenizer(source).ScanTokens()
	if len(errs) > 0 {
		e := errs[0]
		return nil, diag.New("Junk", "parse error", e.Message, e.Position)
	}
	c := lang.NewCursor(tokens)
	c.Eat()

	file := &File{}
	haveOptions := false

	for !c.Eof() {
		tok := c.Tok()
		if tok.Type != lang.Section {
			return nil, diag.New("Sec", "parse error", "expected a section", tok.Position)
		}
		name := sectionName(tok)
		c.Take()

		if name == sectionOptions {
			if haveOptions {
				return nil, diag.New("Config", "parse error", "[options] declared more than once", tok.Position)
			}
			haveOptions = true
			if err := parseOptions(c, &file.Options); err != nil {
				return nil, err
			}
			continue
		}

		block, err := statemachine.ParseBlock(c)
		if err != nil {
			return nil, err
		}
		file.Sections = append(file.Sections, &Section{Pos: tok.Position, Name: name, Stmts: block})
	}

	return file, nil
}

func sectionName(tok lang.Token) string {
	s := strings.TrimPrefix(tok.Lexeme, "[")
	s = strings.TrimSuffix(s, "]")
	return s
}

// parseOptions reads `delta_t <constant>` and an optional `init_state
// <identifier>` line, in either order, up to the next section header.
// Neither value is validated here: delta_t's range/integer-ness and
// init_state's resolution to a real state both need the bound state
// machine assembly, so both are deferred to the compiler.
func parseOptions(c *lang.Cursor, opts *Options) *diag.Error {
	for !c.Eof() && c.Tok().Type == lang.Identifier {
		idTok := c.Tok()
		c.Take()

		switch idTok.Lexeme {
		case optDeltaT:
			valTok := c.Tok()
			if valTok.Type != lang.Constant {
				return diag.New("DT", "parse error", "expected a value after '"+idTok.Lexeme+"'", idTok.Position)
			}
			c.Take()
			opts.HaveDeltaT = true
			opts.DeltaT = valTok.Lexeme
			opts.DeltaTPos = valTok.Position

		case optInitState:
			valTok := c.Tok()
			if valTok.Type != lang.Identifier {
				return diag.New("OptState", "parse error", "expected a state name after '"+idTok.Lexeme+"'", idTok.Position)
			}
			c.Take()
			opts.InitState = valTok.Lexeme
			opts.InitStatePos = valTok.Position

		default:
			return diag.New("Config", "parse error", "unknown config option '"+idTok.Lexeme+"'", idTok.Position)
		}
	}
	return nil
}
