package solver

import (
	"fmt"
	"io"
	"os"

	"github.com/symwalk/symex/config"
)

// Build realizes spec §4.8's get_solver(config) -> Solver operation: it picks
// exactly one back end by the rule order below (first match wins) and
// returns a Bundle whose Close tears down whatever resources that back end
// opened.
//
// 1. dimacs set -> DIMACS dumper; rejects incremental modes and beautification.
// 2. refine set -> bit-vector refinement over a SAT back end.
// 3. refine-strings set -> string refinement wrapping bit-vector refinement.
// 4. smt2 set -> SMT-LIB2 back end; sub-selects a solver family, in-process
//    for z3, dumped text for every other family (generic requires -outfile).
// 5. otherwise -> default bit-vector over SAT.
func Build(opts *config.Options) (*Bundle, error) {
	if opts == nil {
		opts = config.Default()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := checkStreamingCapability(opts); err != nil {
		return nil, err
	}

	switch {
	case opts.Dimacs:
		return buildDumper(opts, "dimacs", newDimacsBackend())
	case opts.Refine:
		return &Bundle{Backend: newRefineBackend()}, nil
	case opts.RefineStrings:
		return &Bundle{Backend: newRefineStringsBackend()}, nil
	case opts.SMT2:
		return buildSMT2(opts)
	default:
		return &Bundle{Backend: newDefaultBackend()}, nil
	}
}

// buildDumper wraps a stub back end (DIMACS/refine families have no
// in-repo encoder, see stub.go) as a Bundle. label is accepted for callers
// that want to extend this into a real file-backed dumper later; the stub
// itself has nothing to write.
func buildDumper(opts *config.Options, label string, backend Backend) (*Bundle, error) {
	_ = opts
	_ = label
	return &Bundle{Backend: backend}, nil
}

func buildSMT2(opts *config.Options) (*Bundle, error) {
	if opts.SMT2SolverFamily == config.SMT2Z3 {
		return &Bundle{Backend: newZ3Backend(opts.SolverTimeLimit)}, nil
	}

	out, closer, err := openOutfile(opts.Outfile)
	if err != nil {
		return nil, fmt.Errorf("solver: opening -outfile: %w", err)
	}
	b := &Bundle{Backend: newSMT2Backend(out, nil, opts)}
	if closer != nil {
		b.addCloser("outfile", closer)
	}
	return b, nil
}

// openOutfile resolves the dumper destination: "-" is stdout (never closed),
// anything else is a created file the bundle takes ownership of.
func openOutfile(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// checkStreamingCapability implements spec §4.8's "disallow all-properties,
// cover, incremental-check where the back end cannot stream": the dump back
// ends (dimacs, generic smt2) write a single static script and cannot honor
// any of the three.
func checkStreamingCapability(opts *config.Options) error {
	dumping := opts.Dimacs || (opts.SMT2 && opts.SMT2SolverFamily != config.SMT2Z3)
	if !dumping {
		return nil
	}
	if opts.AllProperties {
		return fmt.Errorf("solver: -all-properties is not supported by a dump back end")
	}
	if opts.Cover {
		return fmt.Errorf("solver: -cover is not supported by a dump back end")
	}
	if opts.IncrementalCheck {
		return fmt.Errorf("solver: -incremental-check is not supported by a dump back end")
	}
	return nil
}
