// Package equation implements Component E: the append-only symbolic target
// equation the dispatcher (package symex) writes SSA steps to (spec §3
// "Target equation", invariant 4 "append-only... once emitted, steps are
// never rewritten").
package equation

import (
	"fmt"
	"strings"

	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
)

// StepKind distinguishes the five kinds of equation step (spec §3 "a
// sequence of assignments, assumptions, and verification conditions", plus
// location markers and thread events for interleaving bookkeeping).
type StepKind int

const (
	StepAssignment StepKind = iota
	StepAssumption
	StepAssertion
	StepLocation
	StepThreadEvent
)

func (k StepKind) String() string {
	switch k {
	case StepAssignment:
		return "ASSIGNMENT"
	case StepAssumption:
		return "ASSUMPTION"
	case StepAssertion:
		return "ASSERTION"
	case StepLocation:
		return "LOCATION"
	case StepThreadEvent:
		return "THREAD_EVENT"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// ThreadEventKind refines StepThreadEvent steps.
type ThreadEventKind int

const (
	ThreadSpawn ThreadEventKind = iota
	ThreadEnd
	AtomicBegin
	AtomicEnd
)

// Step is one entry of the equation. Every step carries the source location
// it originated from. Assumption and assertion steps carry the guard active
// when they were emitted inside Cond (spec §4.1 "guard_expr(e) -> g => e");
// the other step kinds record no guard.
type Step struct {
	Kind   StepKind
	Source Source

	// StepAssignment: LHS is the freshly SSA-renamed symbol expression, RHS
	// its fully renamed right-hand side.
	LHS, RHS expr.Expr

	// StepAssumption / StepAssertion: Cond is the renamed condition, already
	// wrapped with guard_expr when the step was emitted.
	Cond expr.Expr
	// StepAssertion only.
	Msg string

	// StepThreadEvent only.
	ThreadEvent ThreadEventKind
	Thread      int
}

// Source identifies where in the goto-program a step originated, echoing
// spec §3's "(function_id, program_counter, thread_number)".
type Source struct {
	Function string
	PC       gotoprog.PC
	Thread   int
}

func (s Source) String() string {
	return fmt.Sprintf("%s:%d@%d", s.Function, s.PC, s.Thread)
}

// Equation is the ordered log of steps for one path. The zero value is an
// empty equation, ready to append to.
type Equation struct {
	steps []Step
}

// Append adds a step to the end of the equation and returns its index,
// matching CBMC's `symex_target_equationt::SSA_steps` append discipline.
func (e *Equation) Append(s Step) int {
	e.steps = append(e.steps, s)
	return len(e.steps) - 1
}

// Len reports how many steps have been emitted so far.
func (e *Equation) Len() int { return len(e.steps) }

// At returns the step at index i. Callers must respect invariant 4: the
// returned Step must never be fed back through Append with edits that would
// change its recorded meaning.
func (e *Equation) At(i int) Step { return e.steps[i] }

// Steps returns the full ordered slice of steps, for consumption by the
// solver façade (package solver).
func (e *Equation) Steps() []Step { return e.steps }

// Assignment appends an assignment step (spec §4.3 "assign:
// rename rhs, bump lhs, append an assignment step").
func (e *Equation) Assignment(src Source, lhs, rhs expr.Expr) int {
	return e.Append(Step{Kind: StepAssignment, Source: src, LHS: lhs, RHS: rhs})
}

// Assumption appends an assumption step; cond must already be the
// guard-wrapped renamed condition.
func (e *Equation) Assumption(src Source, cond expr.Expr) int {
	return e.Append(Step{Kind: StepAssumption, Source: src, Cond: cond})
}

// Assertion appends a VCC; cond must already be the guard-wrapped renamed
// condition and msg the human-readable property description.
func (e *Equation) Assertion(src Source, cond expr.Expr, msg string) int {
	return e.Append(Step{Kind: StepAssertion, Source: src, Cond: cond, Msg: msg})
}

// Location appends a bare source-location marker, used for beautified
// output and counterexample reconstruction (spec §6 "beautify").
func (e *Equation) Location(src Source) int {
	return e.Append(Step{Kind: StepLocation, Source: src})
}

// ThreadEvent appends a thread-lifecycle or atomic-section marker.
func (e *Equation) ThreadEvent(src Source, kind ThreadEventKind, thread int) int {
	return e.Append(Step{Kind: StepThreadEvent, Source: src, ThreadEvent: kind, Thread: thread})
}

// Assertions returns every StepAssertion step, in emission order, for the solver façade to check individually (spec §4.8
// "one check per assertion for one-shot back ends").
func (e *Equation) Assertions() []Step {
	var out []Step
	for _, s := range e.steps {
		if s.Kind == StepAssertion {
			out = append(out, s)
		}
	}
	return out
}

// TotalVCCs and RemainingVCCs implement the running counters spec §3
// requires a State to expose. Remaining excludes assertions whose condition
// has already simplified to the literal true (spec §3 "remaining VCCs").
func (e *Equation) TotalVCCs() int {
	total := 0
	for _, s := range e.steps {
		if s.Kind == StepAssertion {
			total++
		}
	}
	return total
}

func (e *Equation) RemainingVCCs() int {
	remaining := 0
	for _, s := range e.steps {
		if s.Kind == StepAssertion && !s.Cond.IsTrue() {
			remaining++
		}
	}
	return remaining
}

// String renders the equation one step per line, in the teacher's
// String()-plus-PrettyPrint() convention.
func (e *Equation) String() string {
	var b strings.Builder
	for i, s := range e.steps {
		fmt.Fprintf(&b, "%3d: %s\n", i, stepString(s))
	}
	return b.String()
}

func stepString(s Step) string {
	switch s.Kind {
	case StepAssignment:
		return fmt.Sprintf("%s: %s := %s", s.Source, s.LHS, s.RHS)
	case StepAssumption:
		return fmt.Sprintf("%s: ASSUME %s", s.Source, s.Cond)
	case StepAssertion:
		return fmt.Sprintf("%s: ASSERT %s (%s)", s.Source, s.Cond, s.Msg)
	case StepLocation:
		return fmt.Sprintf("%s: LOCATION", s.Source)
	case StepThreadEvent:
		return fmt.Sprintf("%s: %v thread=%d", s.Source, s.ThreadEvent, s.Thread)
	default:
		return "<?step?>"
	}
}

// PrettyPrint writes the equation to stdout.
func (e *Equation) PrettyPrint() {
	fmt.Print(e.String())
}
