package symex

import (
	"fmt"

	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/state"
)

// stepBackEdge implements spec §4.4 "Loop handling" for the taken direction
// of a backwards goto: the per-frame iteration counter for instr.LoopID is
// bumped, and should_stop_unwind decides whether the branch is actually
// taken, cut, or left to continue partially.
func (d *Dispatcher) stepBackEdge(s *state.State, fn *gotoprog.Function, instr gotoprog.Instruction) (StopReason, error) {
	cond := d.cleanRead(s, instr.Cond)
	if cond.IsFalse() {
		s.PC++
		return Continue, nil
	}

	top := s.TopFrame()
	count, _ := top.LoopIters.Get(instr.LoopID)
	count++
	top.LoopIters = top.LoopIters.Set(instr.LoopID, count)
	s.SetTopFrame(top)

	bound := d.unwindBound(instr.LoopID)
	if d.shouldStopUnwind(count, bound) {
		d.stopUnwind(s, instr)
		s.PC++
		return Continue, nil
	}

	if cond.IsTrue() {
		s.PC = instr.Target
		return Continue, nil
	}

	// Symbolic backwards condition: take the back-edge under the extra
	// guard, fall through under its negation. The taken copy re-enters the
	// loop body as a live path and is driven forward (via mergeBranches)
	// until it rejoins the fall-through successor, the same eager
	// race-to-convergence spec §4.5 uses for a forward branch; an unwound
	// loop just means the race runs for more iterations before the two
	// sides' program counters coincide.
	taken := s.Clone()
	taken.Guard = s.Guard.And(cond)
	taken.PC = instr.Target

	s.Guard = s.Guard.And(expr.Not(cond))
	s.PC++

	if d.Branches != nil {
		s.ShouldPauseSymex = true
		d.Branches(taken, instr.Target)
		return Paused, nil
	}
	return Continue, d.mergeBranches(s, taken, fn)
}

// unwindBound resolves the configured unwind bound for a loop id. A future
// per-loop override table (spec §6 "depth" is per-path, not per-loop) is not
// modeled; every loop shares the configuration's default-unwind bound.
func (d *Dispatcher) unwindBound(loopID int) int {
	if d.Opts == nil {
		return 1
	}
	return int(d.Opts.DefaultUnwind)
}

// shouldStopUnwind implements spec §4.4 "should_stop_unwind(source, context,
// count) returns true when the count meets a configured bound".
func (d *Dispatcher) shouldStopUnwind(count, bound int) bool {
	return bound >= 0 && count >= bound
}

// stopUnwind implements the three configured outcomes of hitting an unwind
// bound (spec §4.4): an unwinding assertion, silent continuation under
// partial-loops, or cutting the path by setting the guard to false.
func (d *Dispatcher) stopUnwind(s *state.State, instr gotoprog.Instruction) {
	if d.Opts != nil && d.Opts.UnwindingAssertions {
		msg := fmt.Sprintf("unwinding assertion loop %d", instr.LoopID)
		s.Equation.Assertion(s.Source(), s.Guard.GuardExpr(expr.False), msg)
		return
	}
	if d.Opts != nil && d.Opts.PartialLoops {
		return
	}
	s.Guard = s.Guard.And(expr.False)
}
