// Package assembly is the glue layer that binds the three compiled DSLs
// into one ready-to-run bundle: a state vector, the state machine
// compiled against it, and (optionally) a state script compiled against
// that state machine. It and cmd/sfc are the only places in this module
// that log — every package under internal/statevector,
// internal/statemachine, and internal/statescript stays side-effect-free.
package assembly

import (
	"log"
	"os"

	"surefire/internal/diag"
	"surefire/internal/statemachine"
	"surefire/internal/statescript"
	"surefire/internal/statevector"
)

// CompileOptions is the explicit configuration surface for Compile: no
// environment variables or config files, just Go values, mirroring the
// teacher's pattern of building a parser from explicit option values
// rather than reading ambient configuration.
type CompileOptions struct {
	// StateVectorSource is the state vector DSL source, one `[<region>]`
	// section per region. If RegionNames is non-empty, only those
	// regions are included.
	StateVectorSource string
	RegionNames       []string

	// StateMachineSource is the state machine DSL source, compiled
	// against the state vector above.
	StateMachineSource string

	// StateScriptSource is the state script DSL source. Empty means no
	// state script: Assembly.StateScript will be nil.
	StateScriptSource string

	// Paths, when set, are attached to any resulting diag.Error (via
	// WithPath) so a caller rendering the error knows which source file
	// to show alongside it. Optional: Compile works without them,
	// CompileFiles always sets them.
	StateVectorPath  string
	StateMachinePath string
	StateScriptPath  string

	// InitState names the state machine's starting state. Empty means
	// the first declared state.
	InitState string

	// Rake drops the state machine's compile-time symbol/id tables once
	// its runtime tables are frozen. Forced off automatically when a
	// state script is being compiled, since the script compiler needs
	// those tables to bind against.
	Rake bool
}

// Assembly is a fully compiled bundle, ready to drive with
// statemachine.Runtime and, if present, statescript.Runtime.
type Assembly struct {
	StateVector  *statevector.StateVector
	StateMachine *statemachine.Assembly
	StateScript  *statescript.Assembly
}

// Compile runs all three DSLs' compile pipelines in turn, logging each
// stage at the standard log level (installed by commonlog.Configure, in
// the process that imports this package).
func Compile(opts CompileOptions) (*Assembly, *diag.Error) {
	log.Printf("assembly: compiling state vector (%d region filter(s))", len(opts.RegionNames))
	sv, err := statevector.Compile(opts.StateVectorSource, opts.RegionNames...)
	if err != nil {
		return nil, withPath(err, opts.StateVectorPath)
	}

	log.Printf("assembly: parsing state machine")
	smFile, err := statemachine.Parse(opts.StateMachineSource)
	if err != nil {
		return nil, withPath(err, opts.StateMachinePath)
	}

	rake := opts.Rake && opts.StateScriptSource == ""
	log.Printf("assembly: compiling state machine (init_state=%q, rake=%v)", opts.InitState, rake)
	smAsm, err := (&statemachine.Compiler{
		StateVector: sv,
		InitState:   opts.InitState,
		Rake:        rake,
	}).Compile(smFile)
	if err != nil {
		return nil, withPath(err, opts.StateMachinePath)
	}

	asm := &Assembly{StateVector: sv, StateMachine: smAsm}

	if opts.StateScriptSource != "" {
		log.Printf("assembly: parsing state script")
		scriptFile, serr := statescript.Parse(opts.StateScriptSource)
		if serr != nil {
			return nil, withPath(serr, opts.StateScriptPath)
		}

		log.Printf("assembly: compiling state script")
		scriptAsm, serr := statescript.Compile(scriptFile, smAsm)
		if serr != nil {
			return nil, withPath(serr, opts.StateScriptPath)
		}
		asm.StateScript = scriptAsm
	}

	return asm, nil
}

func withPath(err *diag.Error, path string) *diag.Error {
	if path == "" {
		return err
	}
	return err.WithPath(path)
}

// FilePaths names the on-disk source of each DSL, for CompileFiles.
// StateScriptPath is optional; an empty string means no state script.
type FilePaths struct {
	StateVectorPath  string
	StateMachinePath string
	StateScriptPath  string
	RegionNames      []string
	InitState        string
	Rake             bool
}

// CompileFiles reads each named file and compiles it via Compile,
// mirroring the teacher's ParseFile/ParseSource split (read, then
// delegate to the source-based entry point).
func CompileFiles(paths FilePaths) (*Assembly, error) {
	svSrc, err := os.ReadFile(paths.StateVectorPath)
	if err != nil {
		return nil, err
	}
	smSrc, err := os.ReadFile(paths.StateMachinePath)
	if err != nil {
		return nil, err
	}

	opts := CompileOptions{
		StateVectorSource:  string(svSrc),
		RegionNames:        paths.RegionNames,
		StateMachineSource: string(smSrc),
		InitState:          paths.InitState,
		Rake:               paths.Rake,
		StateVectorPath:    paths.StateVectorPath,
		StateMachinePath:   paths.StateMachinePath,
		StateScriptPath:    paths.StateScriptPath,
	}

	if paths.StateScriptPath != "" {
		ssSrc, rerr := os.ReadFile(paths.StateScriptPath)
		if rerr != nil {
			return nil, rerr
		}
		opts.StateScriptSource = string(ssSrc)
	}

	asm, cerr := Compile(opts)
	if cerr != nil {
		return nil, cerr
	}
	return asm, nil
}
