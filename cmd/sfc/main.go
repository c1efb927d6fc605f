// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"surefire/internal/assembly"
	"surefire/internal/diag"
	"surefire/internal/statemachine"
	"surefire/internal/statescript"
)

func main() {
	svPath := flag.String("sv", "", "state vector DSL source file")
	smPath := flag.String("sm", "", "state machine DSL source file")
	scriptPath := flag.String("script", "", "state script DSL source file (optional)")
	initState := flag.String("init", "", "the state machine's starting state (default: first declared)")
	verbosity := flag.Int("v", 0, "commonlog verbosity level")
	maxSteps := flag.Int("max-steps", 1_000_000, "cap on state script steps, guarding against a missing @stop")
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	if *svPath == "" || *smPath == "" {
		fmt.Println("Usage: sfc -sv <state_vector.sf> -sm <state_machine.sf> [-script <state_script.sf>]")
		os.Exit(1)
	}

	asm, err := assembly.CompileFiles(assembly.FilePaths{
		StateVectorPath:  *svPath,
		StateMachinePath: *smPath,
		StateScriptPath:  *scriptPath,
		InitState:        *initState,
	})
	if err != nil {
		reportCompileError(err)
		os.Exit(1)
	}

	color.Green("compiled %s + %s successfully", *svPath, *smPath)

	if asm.StateScript == nil {
		return
	}

	log.Printf("sfc: running state script %s", *scriptPath)

	smRuntime := statemachine.NewRuntime(asm.StateMachine)
	scriptRuntime := statescript.NewRuntime(asm.StateScript, smRuntime)
	result := scriptRuntime.Run(*maxSteps)

	source, rerr := os.ReadFile(*scriptPath)
	if rerr != nil {
		source = []byte{}
	}
	fmt.Println(statescript.Report(string(source), asm.StateScript, result))

	if !result.Stopped {
		os.Exit(1)
	}
}

// reportCompileError prints a caret-style compile error against
// whichever source file the error's path names.
func reportCompileError(err error) {
	de, ok := err.(*diag.Error)
	if !ok {
		color.Red("error: %s", err)
		return
	}

	var source string
	if de.HasPath {
		source = readSource(de.Path)
	}
	reporter := diag.NewReporter(source)
	color.Red("%s", reporter.Format(de))
}

func readSource(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(b)
}
