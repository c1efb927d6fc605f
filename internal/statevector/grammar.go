// Package statevector compiles the region-and-element DSL (spec.md §6)
// into a StateVector: an ordered set of regions, each holding zero or
// more typed, named Elements, plus a by-name lookup returning an
// element.Handle.
//
// Grounded on kanso/grammar's participle-based grammar (lexer.go +
// parser.go), narrowed from a general-purpose language grammar to the
// two-line shape this DSL actually has: a bracketed section header
// followed by a run of two-identifier lines. The same Line shape serves
// both `<type> <name>` element declarations and `<key> <value>` lines
// under a reserved `[options]` section — Compile tells the two apart by
// the enclosing section's name, the way the original C++ parser
// special-cased its own Options section.
package statevector

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var stateVectorLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "LBracket", Pattern: `\[`},
	{Name: "RBracket", Pattern: `\]`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Newline", Pattern: `\r?\n`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// File is the root grammar node: a flat run of sections.
type File struct {
	Pos      lexer.Position
	Sections []*Section `@@*`
}

// Section is a bracketed header followed by zero or more two-identifier
// lines.
type Section struct {
	Pos   lexer.Position
	Name  string  `"[" @Ident "]"`
	Lines []*Line `@@*`
}

// Line is either `<type> <name>` (a region's element declaration) or
// `<key> <value>` (an options-section setting). Second is optional at
// the grammar level — a dangling `<type>` with nothing after it is a
// valid parse, left for Compile to reject as MissingElementName with a
// precise message, rather than a generic grammar failure.
type Line struct {
	Pos    lexer.Position
	First  string `@Ident`
	Second string `@Ident?`
}

var stateVectorParser = participle.MustBuild[File](
	participle.Lexer(stateVectorLexer),
	participle.Elide("Whitespace", "Newline", "Comment"),
)

// parseFile parses source into a grammar tree, or returns a participle
// error (translated to a diag.Error by Compile).
func parseFile(source string) (*File, error) {
	return stateVectorParser.ParseString("", source)
}
