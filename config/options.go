// Package config holds the configuration record consumed throughout the
// symbolic execution core (spec §6 "Configuration keys consumed") and the
// solver façade (spec §4.8). It follows the teacher's own pattern of a single
// flat options struct populated by the standard `flag` package, with an
// optional YAML file overlay merged underneath the command line.
package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/symwalk/symex/utils/slices"
)

// ArraysUF selects how array theories are encoded by the flattening layer.
type ArraysUF string

const (
	ArraysUFNever  ArraysUF = "never"
	ArraysUFAuto   ArraysUF = "auto"
	ArraysUFAlways ArraysUF = "always"
)

// SMT2Solver selects the target solver family for the SMT-LIB2 back end
// (spec §4.8 rule 4).
type SMT2Solver string

const (
	SMT2Generic  SMT2Solver = "generic"
	SMT2Boolector SMT2Solver = "boolector"
	SMT2CVC3     SMT2Solver = "cvc3"
	SMT2CVC4     SMT2Solver = "cvc4"
	SMT2MathSAT  SMT2Solver = "mathsat"
	SMT2Yices    SMT2Solver = "yices"
	SMT2Z3       SMT2Solver = "z3"
	SMT2CProver  SMT2Solver = "cprover-smt2"
)

// Options is the configuration record threaded through the driver, the step
// dispatcher and the solver façade. Every field corresponds to one of the
// keys named in spec §6.
type Options struct {
	// Driver / path exploration (§4, §5)
	Depth                 uint `yaml:"depth"`
	Paths                 bool `yaml:"paths"`
	Propagation           bool `yaml:"propagation"`
	Simplify              bool `yaml:"simplify"`
	UnwindingAssertions   bool `yaml:"unwinding-assertions"`
	PartialLoops          bool `yaml:"partial-loops"`
	SelfLoopsToAssumptions bool `yaml:"self-loops-to-assumptions"`
	AllowPointerUnsoundness bool `yaml:"allow-pointer-unsoundness"`
	ValidateSSAEquation   bool `yaml:"validate-ssa-equation"`
	DebugLevel            int  `yaml:"debug-level"`
	DefaultUnwind         uint `yaml:"unwind"`

	// Pretty-printing
	Beautify bool `yaml:"beautify"`
	NoColor  bool `yaml:"no-colorize"`

	// Solver façade (§4.8)
	SATPreprocessor   bool       `yaml:"sat-preprocessor"`
	ArraysUF          ArraysUF   `yaml:"arrays-uf"`
	Dimacs            bool       `yaml:"dimacs"`
	Refine            bool       `yaml:"refine"`
	RefineStrings     bool       `yaml:"refine-strings"`
	RefineArrays      bool       `yaml:"refine-arrays"`
	RefineArithmetic  bool       `yaml:"refine-arithmetic"`
	MaxNodeRefinement int        `yaml:"max-node-refinement"`
	SMT2              bool       `yaml:"smt2"`
	SMT2SolverFamily  SMT2Solver `yaml:"smt2-solver"`
	FPA               bool       `yaml:"fpa"`
	Outfile           string     `yaml:"outfile"`
	SolverTimeLimit   int        `yaml:"solver-time-limit"`
	AllProperties     bool       `yaml:"all-properties"`
	Cover             bool       `yaml:"cover"`
	IncrementalCheck  bool       `yaml:"incremental-check"`

	// ConfigFile, if non-empty, is read and merged under the flags above.
	// Not itself a recognized YAML key.
	ConfigFile string `yaml:"-"`
}

// Default returns the configuration record's default values, matching what
// the CBMC front end this core is derived from defaults to.
func Default() *Options {
	return &Options{
		Depth:             ^uint(0),
		Simplify:          true,
		DebugLevel:        0,
		DefaultUnwind:     1,
		ArraysUF:          ArraysUFAuto,
		SMT2SolverFamily:  SMT2Generic,
		SolverTimeLimit:   0,
		MaxNodeRefinement: int(^uint(0) >> 1),
	}
}

// RegisterFlags binds every configuration key to a flag on fs, following the
// teacher's utils/init.go convention of one flag.*Var call per option.
func (o *Options) RegisterFlags(fs *flag.FlagSet) {
	fs.UintVar(&o.Depth, "depth", o.Depth, "maximum number of steps to symex along a single path")
	fs.BoolVar(&o.Paths, "paths", o.Paths, "enable path exploration: suspend one successor of every symbolic branch")
	fs.BoolVar(&o.Propagation, "propagation", o.Propagation, "enable constant propagation during SSA renaming")
	fs.BoolVar(&o.Simplify, "simplify", o.Simplify, "simplify expressions eagerly while symex runs")
	fs.BoolVar(&o.UnwindingAssertions, "unwinding-assertions", o.UnwindingAssertions, "emit an assertion when a loop/recursion bound is hit")
	fs.BoolVar(&o.PartialLoops, "partial-loops", o.PartialLoops, "continue past an unwinding bound instead of cutting the path")
	fs.BoolVar(&o.SelfLoopsToAssumptions, "self-loops-to-assumptions", o.SelfLoopsToAssumptions, "turn single-instruction self loops into assumptions")
	fs.BoolVar(&o.AllowPointerUnsoundness, "allow-pointer-unsoundness", o.AllowPointerUnsoundness, "tolerate incomplete dereference candidate sets")
	fs.BoolVar(&o.ValidateSSAEquation, "validate-ssa-equation", o.ValidateSSAEquation, "run the level1/level2 renaming validation checks")
	fs.IntVar(&o.DebugLevel, "debug-level", o.DebugLevel, "verbosity of symex's own diagnostic logging")
	fs.UintVar(&o.DefaultUnwind, "unwind", o.DefaultUnwind, "default loop/recursion unwind bound")

	fs.BoolVar(&o.Beautify, "beautify", o.Beautify, "pass expressions through cosmetic simplification before solving")
	fs.BoolVar(&o.NoColor, "no-colorize", o.NoColor, "disable colorized pretty-printing")

	fs.BoolVar(&o.SATPreprocessor, "sat-preprocessor", o.SATPreprocessor, "run the SAT preprocessor ahead of the default/bit-vector back end")
	fs.StringVar((*string)(&o.ArraysUF), "arrays-uf", string(o.ArraysUF), "array theory encoding: never | auto | always")
	fs.BoolVar(&o.Dimacs, "dimacs", o.Dimacs, "dump the problem in DIMACS CNF form instead of solving it")
	fs.BoolVar(&o.Refine, "refine", o.Refine, "use bit-vector refinement over a SAT back end")
	fs.BoolVar(&o.RefineStrings, "refine-strings", o.RefineStrings, "use string refinement (implies bit-vector refinement)")
	fs.BoolVar(&o.RefineArrays, "refine-arrays", o.RefineArrays, "enable per-array refinement")
	fs.BoolVar(&o.RefineArithmetic, "refine-arithmetic", o.RefineArithmetic, "enable per-arithmetic-operator refinement")
	fs.IntVar(&o.MaxNodeRefinement, "max-node-refinement", o.MaxNodeRefinement, "bound on refinement iterations per node")
	fs.BoolVar(&o.SMT2, "smt2", o.SMT2, "dump an SMT-LIB 2.0 script instead of using the bit-vector back end")
	fs.StringVar((*string)(&o.SMT2SolverFamily), "smt2-solver", string(o.SMT2SolverFamily), "SMT-LIB2 solver family: generic | boolector | cvc3 | cvc4 | mathsat | yices | z3 | cprover-smt2")
	fs.BoolVar(&o.FPA, "fpa", o.FPA, "use the floating-point-aware logic (QF_AUFBVFP) for SMT-LIB2 output")
	fs.StringVar(&o.Outfile, "outfile", o.Outfile, "destination for SMT-LIB2/DIMACS output ('-' for stdout)")
	fs.IntVar(&o.SolverTimeLimit, "solver-time-limit", o.SolverTimeLimit, "abort the back-end solver after this many seconds (0 disables)")
	fs.BoolVar(&o.AllProperties, "all-properties", o.AllProperties, "check all properties instead of stopping at the first failure")
	fs.BoolVar(&o.Cover, "cover", o.Cover, "enable coverage-goal instrumentation")
	fs.BoolVar(&o.IncrementalCheck, "incremental-check", o.IncrementalCheck, "use incremental (push/pop) solving where the back end supports it")

	fs.StringVar(&o.ConfigFile, "config", o.ConfigFile, "YAML file overlaying these flags")
}

// MergeFile reads o.ConfigFile (if set) as YAML and overlays its values onto
// o. Flags explicitly passed on the command line still win, since Parse is
// expected to run again after MergeFile in cmd/symex.
func (o *Options) MergeFile() error {
	if o.ConfigFile == "" {
		return nil
	}
	data, err := os.ReadFile(o.ConfigFile)
	if err != nil {
		return fmt.Errorf("reading config file %q: %w", o.ConfigFile, err)
	}
	if err := yaml.Unmarshal(data, o); err != nil {
		return fmt.Errorf("parsing config file %q: %w", o.ConfigFile, err)
	}
	return nil
}

// Validate checks for the mutually exclusive / unsupported combinations
// described in spec §4.8 and §7 ("configuration error"). It is called at
// façade-construction time.
func (o *Options) Validate() error {
	exclusive := 0
	for _, set := range []bool{o.Dimacs, o.Refine, o.RefineStrings, o.SMT2} {
		if set {
			exclusive++
		}
	}
	if o.Dimacs && exclusive > 1 {
		return fmt.Errorf("config: -dimacs is incompatible with -refine/-refine-strings/-smt2")
	}
	if o.Dimacs && (o.IncrementalCheck || o.Beautify) {
		return fmt.Errorf("config: -dimacs does not support incremental solving or -beautify")
	}
	if o.SMT2 && o.SMT2SolverFamily == SMT2Generic && o.Outfile == "" {
		return fmt.Errorf("config: -smt2-solver=generic requires -outfile")
	}
	if !slices.OneOf(o.ArraysUF, ArraysUFNever, ArraysUFAuto, ArraysUFAlways) {
		return fmt.Errorf("config: invalid -arrays-uf value %q", o.ArraysUF)
	}
	return nil
}
