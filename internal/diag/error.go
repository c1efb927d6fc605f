// Package diag implements the diagnostics shared by every Surefire
// compilation stage: a structured Error carrying a stable code and
// source position, and a colorized pretty-printer.
//
// Grounded on kanso/internal/errors (reporter.go, codes.go): a
// CompilerError-shaped struct plus a github.com/fatih/color-based
// formatter producing Rust-style "error[CODE]: message" output with a
// caret under the offending column.
package diag

import "surefire/internal/lang"

// Error is the structured diagnostic every fallible Surefire operation
// returns: tokenizer, parser, and compiler errors all carry a stable
// Code, a human category, a detailed Message, and — unless the error is
// file- or pipeline-scoped — a source Position.
type Error struct {
	Code     string // stable kind, e.g. "UnbalancedParen", "UnknownElement"
	Category string // short header, e.g. "syntax error", "type error"
	Message  string // detailed subtext shown under the caret

	Pos      lang.Position
	HasPos   bool
	Path     string
	HasPath  bool
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Category + ": " + e.Message
	}
	return e.Category
}

// New builds a positioned error (the common case: a tokenizer/parser/
// compiler failure pointing at a specific token).
func New(code, category, message string, pos lang.Position) *Error {
	return &Error{Code: code, Category: category, Message: message, Pos: pos, HasPos: true}
}

// NewGeneral builds an error with no source position (spec.md §7: "if the
// error is general, drop path" — this is the further-degenerate case
// with neither path nor position, e.g. a runtime code like
// TimeNotIncreasing rendered through the same reporter).
func NewGeneral(code, category, message string) *Error {
	return &Error{Code: code, Category: category, Message: message}
}

// WithPath attaches the source file name, for a "<path>:<line>:<col>"
// header; omitted it renders file-scoped (position only).
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	e.HasPath = true
	return e
}
