package statescript

import (
	"fmt"
	"strconv"
	"strings"

	"surefire/internal/diag"
	"surefire/internal/sfvalue"
)

// Report renders a Result as the pass/fail text a state script run
// produces (spec.md §6): a one-line step count, the number of asserts
// that passed, on failure a caret pointing at the assert that failed,
// and finally the state machine's state vector in declaration order.
//
// source is the state script text the failure position (if any) is
// rendered against.
func Report(source string, asm *Assembly, res Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "state script ran for %d step(s)\n", res.Steps)
	fmt.Fprintf(&b, "%d assert(s) passed\n", res.PassedAsserts)

	switch {
	case res.Failed:
		b.WriteString("FAILED\n")
		reporter := diag.NewReporter(source)
		err := diag.New("AssertFailed", "assert failed", "this assertion did not hold", res.FailPos)
		b.WriteString(reporter.Format(err))
		b.WriteString("\n")
	case res.Overflow:
		b.WriteString("FAILED: the clock overflowed before the script reached a stop\n")
	case res.Stopped:
		b.WriteString("PASSED\n")
	default:
		b.WriteString("FAILED: the script ran out of steps before reaching a stop\n")
	}

	b.WriteString("final state vector:\n")
	sm := asm.StateMachine
	for _, name := range sm.SymbolOrder {
		h, ok := sm.Symbols.Lookup(name)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %s = %s\n", name, formatValue(h.Get(), h.Type))
	}

	return b.String()
}

func formatValue(v float64, t sfvalue.ElementType) string {
	if t.IsInteger() || t == sfvalue.Bool {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
