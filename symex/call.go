package symex

import (
	"fmt"

	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/state"
)

// stepCall implements spec §4.6 "Function call and locality".
func (d *Dispatcher) stepCall(s *state.State, instr gotoprog.Instruction) (StopReason, error) {
	args := make([]expr.Expr, len(instr.CallArgs))
	for i, a := range instr.CallArgs {
		args[i] = d.cleanRead(s, a)
	}

	callee, ok := d.GetFunction(instr.Callee)
	if !ok || len(callee.Body) == 0 {
		d.noBody(s, instr)
		s.PC++
		return Continue, nil
	}

	// Recursion is bounded analogously to a loop's back-edge (spec §4.6): the
	// first (non-recursive) activation of callee is never checked, the same
	// way a loop's forward entry into its body never is; only a call that
	// would re-enter an already-active activation of the same function - the
	// recursive case, the call's equivalent of taking the back edge - is
	// checked against the unwind bound.
	if depth := s.RecursionDepth(callee.ID); depth > 0 && d.shouldStopUnwind(depth, d.unwindBound(0)) {
		d.stopRecursion(s, instr, callee)
		s.PC++
		return Continue, nil
	}
	s.EnterCall(callee.ID)

	instance := s.FreshInstance(callee.ID)

	frame := frameFor(callee, instance, s.ActiveThread)
	frame.CallSitePC = s.PC
	frame.CallLHS = instr.CallLHS

	for i, p := range callee.Params {
		if i >= len(args) {
			break
		}
		r, l1 := s.Renamer.FreshLevel1(p, s.ActiveThread, instance)
		s.Renamer = r
		d.writeSymbol(s, l1.Base, args[i])
		frame.Locals = append(frame.Locals, p)
	}
	for _, l := range callee.Locals {
		r, _ := s.Renamer.FreshLevel1(l, s.ActiveThread, instance)
		s.Renamer = r
	}

	s.PushFrame(frame)
	s.Function = callee.ID
	s.PC = 0
	return Continue, nil
}

func frameFor(fn *gotoprog.Function, instance, thread int) state.Frame {
	return state.Frame{
		Function: fn.ID,
		EndPC:    fn.EndPC(),
		Hidden:   fn.Hidden,
	}
}

// stopRecursion implements the recursion-bound analogue of spec §4.4's three
// configured unwind-bound outcomes (symex/loop.go's stopUnwind): an
// unwinding assertion, silent continuation under partial-loops, or cutting
// the path. In every case the callee is not descended into again; it is
// treated like a bodyless/extern call instead, so a caller-provided lhs
// still gets a binding.
func (d *Dispatcher) stopRecursion(s *state.State, instr gotoprog.Instruction, callee *gotoprog.Function) {
	switch {
	case d.Opts != nil && d.Opts.UnwindingAssertions:
		msg := fmt.Sprintf("unwinding assertion recursion %s", callee.ID)
		s.Equation.Assertion(s.Source(), s.Guard.GuardExpr(expr.False), msg)
	case d.Opts != nil && d.Opts.PartialLoops:
		// Fall through to noBody without cutting the path.
	default:
		s.Guard = s.Guard.And(expr.False)
	}
	d.noBody(s, instr)
}

// noBody implements spec §4.6 step 2: an extern function produces a
// non-deterministic lhs binding rather than descending into a body.
func (d *Dispatcher) noBody(s *state.State, instr gotoprog.Instruction) {
	if instr.CallLHS == nil {
		return
	}
	fresh := expr.Symbol{Name: instr.Callee + "#nondet", Typ: instr.CallLHS.Type()}
	d.assignTo(s, *instr.CallLHS, expr.Sym(fresh))
}

// stepReturn implements spec §4.3 "return": bind the caller-provided lhs (if
// any) using the active frame's CallLHS, then advance to the function's
// END_FUNCTION instruction, which the builder always appends last.
func (d *Dispatcher) stepReturn(s *state.State, instr gotoprog.Instruction) {
	top := s.TopFrame()
	if top.CallLHS != nil {
		val := d.cleanRead(s, instr.RHS)
		d.assignTo(s, *top.CallLHS, val)
	}
	fn, _ := d.GetFunction(s.Function)
	s.PC = fn.EndPC() - 1
}

// stepEndFunction implements spec §4.3 "end_function" / §4.6's pop-and-
// restore: frame-local symbols are invalidated, the frame is popped, and the
// caller's pc resumes at the call site's successor. Popping the entry
// frame signals ThreadDone to the driver.
func (d *Dispatcher) stepEndFunction(s *state.State) (StopReason, error) {
	top := s.PopFrame()
	s.LeaveCall(top.Function)
	for _, local := range top.Locals {
		if l1, ok := s.Renamer.CurrentLevel1(local); ok {
			s.Renamer = s.Renamer.MarkDirty(l1)
		}
	}

	if s.CallStack.Len() == 0 {
		return ThreadDone, nil
	}

	caller := s.TopFrame()
	s.Function = caller.Function
	s.PC = top.CallSitePC + 1
	return Continue, nil
}

func (d *Dispatcher) currentFunction(s *state.State) *gotoprog.Function {
	fn, _ := d.GetFunction(s.Function)
	return fn
}
