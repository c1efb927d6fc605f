package statevector

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"surefire/internal/diag"
	"surefire/internal/element"
	"surefire/internal/lang"
	"surefire/internal/sfvalue"
)

// Region is one contiguous, named group of elements, in declaration
// order.
type Region struct {
	Name     string
	Elements []*element.Element
}

// StateVector is the compiled result: an ordered set of Regions plus a
// flat by-name lookup over every element they contain. Structure
// (membership, types, order) is fixed once Compile returns.
type StateVector struct {
	Regions []*Region
	symbols element.MapSymbolTable
}

// Lookup resolves name to its element.Handle, searching every region.
func (sv *StateVector) Lookup(name string) (element.Handle, bool) {
	return sv.symbols.Lookup(name)
}

// Symbols returns the flat symbol table backing Lookup, for composing
// into a larger ChainSymbolTable (e.g. the state machine's merged
// state-vector-plus-locals table).
func (sv *StateVector) Symbols() element.MapSymbolTable {
	return sv.symbols
}

// optionsSection is the reserved section name under which options
// lines (not element declarations) appear.
const optionsSection = "options"

// Compile parses source and builds a StateVector. If regionNames is
// non-empty, only those regions are included in the result (and every
// name in regionNames must actually appear in source, or Compile fails
// with UnknownRegion) — otherwise every region in source is included.
func Compile(source string, regionNames ...string) (*StateVector, *diag.Error) {
	file, perr := parseFile(source)
	if perr != nil {
		return nil, translateParseError(perr)
	}

	want := map[string]bool{}
	for _, n := range regionNames {
		want[n] = true
	}

	sv := &StateVector{symbols: element.MapSymbolTable{}}
	seen := map[string]bool{}

	for _, sec := range file.Sections {
		if sec.Name == optionsSection {
			if err := checkOptions(sec); err != nil {
				return nil, err
			}
			continue
		}

		if len(want) > 0 && !want[sec.Name] {
			continue
		}
		seen[sec.Name] = true

		region := &Region{Name: sec.Name}
		for _, line := range sec.Lines {
			et, ok := sfvalue.ElementTypeByName(line.First)
			if !ok {
				return nil, diag.New("BadElementType", "compile error", "'"+line.First+"' is not a valid element type", posOf(line.Pos))
			}
			if line.Second == "" {
				return nil, diag.New("MissingElementName", "compile error", "expected an element name after '"+line.First+"'", posOf(line.Pos))
			}
			if _, exists := sv.symbols[line.Second]; exists {
				return nil, diag.New("DuplicateElement", "compile error", "element '"+line.Second+"' is already declared", posOf(line.Pos))
			}
			el := &element.Element{Name: line.Second, Type: et}
			region.Elements = append(region.Elements, el)
			sv.symbols[line.Second] = el
		}
		sv.Regions = append(sv.Regions, region)
	}

	for name := range want {
		if !seen[name] {
			return nil, diag.NewGeneral("UnknownRegion", "compile error", "region '"+name+"' does not exist in this state vector")
		}
	}

	return sv, nil
}

// checkOptions validates the reserved [options] section. The only
// recognized option is `lock <true|false>`, carried over from the
// original implementation's thread-safety flag; any other key, or a
// non-boolean value, fails with BadOption.
func checkOptions(sec *Section) *diag.Error {
	for _, line := range sec.Lines {
		if line.First != "lock" {
			return diag.New("BadOption", "compile error", "unknown option '"+line.First+"'", posOf(line.Pos))
		}
		if line.Second != "true" && line.Second != "false" {
			return diag.New("BadOption", "compile error", "option 'lock' must be 'true' or 'false'", posOf(line.Pos))
		}
	}
	return nil
}

func posOf(p lexer.Position) lang.Position {
	return lang.Position{Line: p.Line, Column: p.Column, Offset: p.Offset}
}

// translateParseError maps a raw participle parse error onto
// BadElementType: with Line.Second made grammar-optional, the only
// inputs participle itself can still reject are a stray token where an
// element type or a section name was expected (e.g. an annotation or
// other illegal character) — precisely the "expected element type"
// failure the original implementation reports first.
func translateParseError(err error) *diag.Error {
	pe, ok := err.(participle.Error)
	if !ok {
		return diag.NewGeneral("BadElementType", "compile error", err.Error())
	}
	pos := pe.Position()
	return diag.New("BadElementType", "compile error", pe.Message(), lang.Position{Line: pos.Line, Column: pos.Column, Offset: pos.Offset})
}
