package sfvalue

import (
	"fmt"
	"runtime"
)

// LastAssertion records the file/line of the most recent failing Assert, for
// debug-mode introspection. It is intentionally package-level: a failed
// Assert always aborts the process, so there is never more than one live
// assertion failure to remember.
var LastAssertion string

// Assert enforces a programmer invariant (a non-null tree node, a handle
// that must resolve, a downcast tag that must match). A failing Assert is a
// bug, not a recoverable error, and aborts the process after recording
// where it fired.
func Assert(cond bool, format string, args ...any) {
	if cond {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	LastAssertion = fmt.Sprintf("%s:%d", file, line)
	panic(fmt.Sprintf("surefire: assertion failed at %s: %s", LastAssertion, fmt.Sprintf(format, args...)))
}
