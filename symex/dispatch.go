// Package symex implements Component F: the per-instruction step dispatcher
// (spec §4.3-§4.7). Step advances a state by exactly one goto-program
// instruction, writing SSA steps to its equation as it goes.
package symex

import (
	"fmt"

	"github.com/symwalk/symex/config"
	"github.com/symwalk/symex/equation"
	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/guard"
	"github.com/symwalk/symex/state"
)

// Dispatcher executes instructions against a state, collaborating with the
// goto-program function table to resolve calls (spec §2 "the driver asks a
// get_function callback").
type Dispatcher struct {
	GetFunction gotoprog.GetFunction
	Opts        *config.Options

	// MultiThreaded selects the §4.7 assume-folds-into-guard rule in
	// stepAssume. The driver sets it before every step, true while the state
	// holds at least one spawned-thread record; thread switching itself is
	// done by the driver (driver/schedule.go).
	MultiThreaded bool

	// Branches receives every produced "taken" successor state at a
	// symbolic goto, for path-exploration mode (spec §5 "Suspension
	// points"). Nil when path exploration is disabled.
	Branches func(taken *state.State, atPC gotoprog.PC)
}

// StopReason explains why Step stopped advancing; the driver (package
// driver) inspects it to decide whether the path is done.
type StopReason int

const (
	Continue StopReason = iota
	ThreadDone
	Infeasible
	Paused
	NoEntryPoint
)

// Step executes the instruction at s's current (function, pc), mutating s in
// place (spec §4.3 "For each instruction type the dispatcher performs...").
// For most instruction kinds that is exactly one instruction. The exception
// is a symbolic goto or loop back-edge without path exploration: resolving
// its merge (mergeBranches) drives the taken successor forward through
// further calls to Step until it rejoins s, so a single call can advance s
// by an entire branch or unwound loop before returning.
func (d *Dispatcher) Step(s *state.State) (StopReason, error) {
	fn, ok := d.GetFunction(s.Function)
	if !ok {
		return NoEntryPoint, fmt.Errorf("symex: unknown function %q", s.Function)
	}
	if s.PC >= fn.Len() {
		return NoEntryPoint, fmt.Errorf("symex: stale pc %d in function %q (%d instructions)", s.PC, s.Function, fn.Len())
	}
	instr := fn.At(s.PC)

	if s.Guard.IsFalse() {
		return d.stepUnderFalseGuard(s, instr)
	}

	switch instr.Kind {
	case gotoprog.Skip, gotoprog.Location:
		s.Equation.Location(s.Source())
		s.PC++
	case gotoprog.Decl:
		d.stepDecl(s, instr)
		s.PC++
	case gotoprog.Dead:
		l1, ok := s.Renamer.CurrentLevel1(instr.Symbol)
		if ok {
			s.Renamer = s.Renamer.MarkDirty(l1)
		}
		s.PC++
	case gotoprog.Assign:
		d.stepAssign(s, instr)
		s.PC++
	case gotoprog.Assume:
		d.stepAssume(s, instr)
		s.PC++
	case gotoprog.Assert:
		d.stepAssert(s, instr)
		s.PC++
	case gotoprog.Goto:
		return d.stepGoto(s, fn, instr)
	case gotoprog.FunctionCall:
		return d.stepCall(s, instr)
	case gotoprog.Return:
		d.stepReturn(s, instr)
	case gotoprog.EndFunction:
		return d.stepEndFunction(s)
	case gotoprog.StartThread:
		d.stepStartThread(s, instr)
		s.PC++
	case gotoprog.EndThread:
		s.Equation.ThreadEvent(s.Source(), equation.ThreadEnd, s.ActiveThread)
		s.Guard = guard.Guard{}.And(expr.False)
		return ThreadDone, nil
	case gotoprog.AtomicBegin:
		s.AtomicSectionID++
		s.Equation.ThreadEvent(s.Source(), equation.AtomicBegin, s.ActiveThread)
		s.PC++
	case gotoprog.AtomicEnd:
		if s.AtomicSectionID > 0 {
			s.AtomicSectionID--
		}
		s.Equation.ThreadEvent(s.Source(), equation.AtomicEnd, s.ActiveThread)
		s.PC++
	case gotoprog.Catch:
		f := s.PopFrame()
		f.HandlerStack = append(f.HandlerStack, instr.Target)
		s.PushFrame(f)
		s.PC++
	case gotoprog.Throw:
		return d.stepThrow(s)
	case gotoprog.Other:
		d.stepOther(s, instr)
		s.PC++
	default:
		return Infeasible, fmt.Errorf("symex: unsupported instruction kind %v", instr.Kind)
	}

	return Continue, nil
}

// stepUnderFalseGuard implements invariant 5: a false guard short-circuits
// every side-effectful action except end_function's frame teardown and
// dead/atomic_end bookkeeping.
func (d *Dispatcher) stepUnderFalseGuard(s *state.State, instr gotoprog.Instruction) (StopReason, error) {
	switch instr.Kind {
	case gotoprog.EndFunction:
		return d.stepEndFunction(s)
	case gotoprog.Dead:
		l1, ok := s.Renamer.CurrentLevel1(instr.Symbol)
		if ok {
			s.Renamer = s.Renamer.MarkDirty(l1)
		}
		s.PC++
		return Continue, nil
	case gotoprog.AtomicEnd:
		if s.AtomicSectionID > 0 {
			s.AtomicSectionID--
		}
		s.PC++
		return Continue, nil
	default:
		s.PC++
		return Infeasible, nil
	}
}

func (d *Dispatcher) stepDecl(s *state.State, instr gotoprog.Instruction) {
	r, l1 := s.Renamer.FreshLevel1(instr.Symbol, s.ActiveThread, s.FreshInstance(instr.Symbol.Name))
	r, _ = r.BumpLevel2(l1)
	s.Renamer = r

	f := s.PopFrame()
	f.Locals = append(f.Locals, instr.Symbol)
	s.PushFrame(f)

	s.Equation.Location(s.Source())
}
