// Package lang implements the lexical layer shared by all three Surefire
// DSLs (state vector, state machine, state script): the tokenizer, the
// token iterator/cursor, and the keyword and operator tables they share.
//
// Grounded on kanso/internal/parser/scanner.go and types.go, generalized
// from a single-language scanner into one reused by three section-based
// DSLs that all tokenize the same way.
package lang

import "surefire/internal/sfvalue"

// TokenType tags the kind of a Token. Surefire's DSLs only need the
// variants spec.md's data model calls out; there is no separate STRING
// token type because none of the three DSLs have string literals.
type TokenType int

const (
	Illegal TokenType = iota
	EOF

	Section    // [state_vector], [options], [Foo]
	Label      // .entry, .step, .exit
	Identifier // foo, bar_baz
	Operator   // +, -, and, <=, ->, ...
	Constant   // 123, 1.5e-3, true, false
	Colon      // :
	Newline    // explicit; significant between statements, elided inside parens
	LParen     // (
	RParen     // )
	Annotation // @read_only, @alias=foo, @assert, @stop
	LBrace     // {
	RBrace     // }
	Comma      // ,
	Keyword    // element type keywords (I8..bool) only
)

var tokenTypeNames = map[TokenType]string{
	Illegal: "illegal", EOF: "eof", Section: "section", Label: "label",
	Identifier: "identifier", Operator: "operator", Constant: "constant",
	Colon: "colon", Newline: "newline", LParen: "lparen", RParen: "rparen",
	Annotation: "annotation", LBrace: "lbrace", RBrace: "rbrace",
	Comma: "comma", Keyword: "keyword",
}

func (t TokenType) String() string {
	if s, ok := tokenTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Position is a 1-based line/column plus a 0-based absolute byte offset,
// shared by every DSL's tokens and parse-tree nodes.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token is a single lexical unit: its type, its exact source text, its
// position, and (when applicable) a pointer into the static operator-info
// or element-type-info tables so the parser and compiler never need a
// second string-keyed lookup.
type Token struct {
	Type     TokenType
	Lexeme   string
	Position Position

	// Op is non-nil when Type == Operator; it points at the static,
	// global OperatorInfo entry for this token's lexeme.
	Op *OperatorInfo

	// ElemType is non-nil when Type == Keyword and the keyword names one
	// of the eleven primitive element types (I8..bool).
	ElemType *sfvalue.ElementType
}
