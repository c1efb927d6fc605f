package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter renders Errors against a specific source text, so it can show
// the offending line and a caret under the exact column.
//
// Grounded on kanso/internal/errors/reporter.go's ErrorReporter.
type Reporter struct {
	source string
	lines  []string
}

// NewReporter builds a Reporter over source.
func NewReporter(source string) *Reporter {
	return &Reporter{source: source, lines: strings.Split(source, "\n")}
}

// Format renders err per spec.md §7:
//
//	"<red><category><reset> @ <path>:<line>:<col>:
//	  | <source-line>
//	  | <spaces>^ <subtext><reset>"
//
// If err has no path, the "@ <path>" segment is dropped. If err has no
// position, the ":<line>:<col>" segment and the source-line/caret block
// are both dropped.
func (r *Reporter) Format(err *Error) string {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	var b strings.Builder
	b.WriteString(red(err.Category))

	if err.HasPath || err.HasPos {
		b.WriteString(" @ ")
		if err.HasPath {
			b.WriteString(err.Path)
			if err.HasPos {
				b.WriteString(":")
			}
		}
		if err.HasPos {
			fmt.Fprintf(&b, "%d:%d", err.Pos.Line, err.Pos.Column)
		}
	}
	b.WriteString(":\n")

	if err.HasPos && err.Pos.Line >= 1 && err.Pos.Line <= len(r.lines) {
		line := r.lines[err.Pos.Line-1]
		b.WriteString("  | ")
		b.WriteString(line)
		b.WriteString("\n  | ")
		col := err.Pos.Column
		if col < 1 {
			col = 1
		}
		b.WriteString(strings.Repeat(" ", col-1))
		b.WriteString(red("^"))
		b.WriteString(" ")
		b.WriteString(err.Message)
	} else {
		b.WriteString(err.Message)
	}

	return b.String()
}

// FormatAll renders a slice of errors, one block per error, separated by
// a blank line.
func (r *Reporter) FormatAll(errs []*Error) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = r.Format(e)
	}
	return strings.Join(parts, "\n\n")
}
