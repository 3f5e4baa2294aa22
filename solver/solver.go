// Package solver implements Component I: the façade that builds a
// configured decision-procedure back end from a config.Options record and
// hands it to callers (spec §4.8). The concrete SAT/SMT back ends
// themselves are external collaborators out of scope for this repo (spec
// §1); what lives here is the selection logic, the common bundle lifecycle,
// and the two back ends spec.md describes completely enough to implement:
// the SMT-LIB2 dump (§6) and its one in-process family, z3 (§4.8 rule 4).
package solver

import (
	"github.com/symwalk/symex/equation"
)

// Verdict is a solver's answer for one checked assertion (spec §2 "the
// solver answers satisfiable/unsatisfiable per assertion").
type Verdict int

const (
	Unknown Verdict = iota
	Satisfiable
	Unsatisfiable
	TimedOut
)

func (v Verdict) String() string {
	switch v {
	case Satisfiable:
		return "SAT"
	case Unsatisfiable:
		return "UNSAT"
	case TimedOut:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// CheckResult reports one assertion's verdict alongside the step it came
// from, for counterexample reconstruction (spec §6 "get-value/get-model on
// sat").
type CheckResult struct {
	Step    equation.Step
	Verdict Verdict
}

// Backend is what every concrete decision procedure the façade can select
// implements: convert an equation's steps into its own native form and
// check each assertion against the accumulated assumptions (spec §2 "the
// equation is fed to it, and the solver answers satisfiable/unsatisfiable
// per assertion").
type Backend interface {
	// Name identifies the back end for diagnostics (e.g. "smt2/z3", "dimacs").
	Name() string
	// Check feeds the full equation to the back end and returns one verdict
	// per assertion step, in emission order.
	Check(eq *equation.Equation) ([]CheckResult, error)
	// Close disposes the back end's resources. Bundle.Close calls every
	// component's Close in dependency order (spec §5 "converter before
	// prop, prop before stream").
	Close() error
}

// Bundle is what Build returns: a back end plus the nested resources it
// owns, closed together in dependency order (spec §5 "Back-end objects own
// their file streams; the façade yields a bundle whose destruction closes
// the stream and disposes the converter in dependency order").
type Bundle struct {
	Backend Backend

	// closers is in registration (acquisition) order, so a stream opened
	// before the converter comes first; Close iterates it in reverse, so the
	// converter is closed before the stream it writes to.
	closers []closeNamed
}

type closeNamed struct {
	name string
	fn   func() error
}

func (b *Bundle) addCloser(name string, fn func() error) {
	b.closers = append(b.closers, closeNamed{name, fn})
}

// Close tears the bundle down in dependency order: the back end itself
// first (it may still be using the converter/stream), then every
// registered resource in reverse registration order.
func (b *Bundle) Close() error {
	var firstErr error
	if b.Backend != nil {
		if err := b.Backend.Close(); err != nil {
			firstErr = err
		}
	}
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
