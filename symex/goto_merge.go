package symex

import (
	"fmt"

	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/guard"
	"github.com/symwalk/symex/ssa"
	"github.com/symwalk/symex/state"
)

// stepGoto implements spec §4.5: a forward/backward distinction for the
// decided cases, and an eager race-to-convergence merge for the symbolic
// case.
func (d *Dispatcher) stepGoto(s *state.State, fn *gotoprog.Function, instr gotoprog.Instruction) (StopReason, error) {
	if backwards(s.PC, instr.Target) {
		return d.stepBackEdge(s, fn, instr)
	}

	cond := d.cleanRead(s, instr.Cond)

	switch {
	case cond.IsTrue():
		s.PC = instr.Target
		return Continue, nil

	case cond.IsFalse():
		s.PC++
		return Continue, nil

	default:
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
}

// backwards reports whether target lies at or before the goto's own
// position, the spec §4.4 criterion for a loop back-edge rather than a
// forward branch.
func backwards(at, target gotoprog.PC) bool { return target <= at }

// mergeBranches implements spec §4.5's merge without path exploration: the
// taken successor is not frozen and phi-combined at a merge point chosen in
// advance (the branch's own target), it is restored as a genuinely live path
// and driven forward with the same dispatcher until it and the fall-through
// successor reach the same program counter in the same function - their true
// dynamic join, wherever that turns out to be. Whichever of the two is
// behind gets stepped; a nested symbolic fork or loop unwind on that side
// recurses back into mergeBranches and fully resolves before this call
// continues, so nested diamonds and unwound loops converge correctly without
// any separate bookkeeping.
func (d *Dispatcher) mergeBranches(s, taken *state.State, fn *gotoprog.Function) error {
	// taken was cloned from s before either side advanced, so s.Renamer at
	// this instant is exactly the renaming state both sides forked from;
	// phiRenamer needs it to tell "this side wrote something new" apart from
	// "this side's counter happens to coincide with the other side's",
	// which independent per-branch counters make possible (see phiRenamer).
	baseline := s.Renamer

	const budget = 4096
	for i := 0; i < budget; i++ {
		if s.Function == taken.Function && s.PC == taken.PC {
			mergeInto(s, taken, baseline)
			return nil
		}

		// Whichever side has wandered into a call is incomparable by pc
		// until it returns to fn; drive that one. Once both are back in fn,
		// drive whichever has the smaller pc.
		behind := s
		switch {
		case s.Function != fn.ID:
			behind = s
		case taken.Function != fn.ID:
			behind = taken
		case taken.PC < s.PC:
			behind = taken
		}

		reason, err := d.Step(behind)
		if err != nil {
			return err
		}
		if reason == ThreadDone {
			// This successor ran off the end of the function before ever
			// rejoining the other; there is no dynamic join to merge at, so
			// the other successor simply keeps going on its own guard.
			return nil
		}
	}
	return fmt.Errorf("symex: branch merge did not converge within %d steps", budget)
}

// mergeInto merges the taken-branch state into the fall-through state s at
// their common program counter (spec §4.5).
func mergeInto(s, taken *state.State, baseline ssa.Renamer) {
	fallthroughGuard := s.Guard
	takenGuard := taken.Guard

	s.Guard = guard.Or(takenGuard, fallthroughGuard)

	s.Renamer = phiRenamer(s, s.Renamer, taken.Renamer, baseline, takenGuard, fallthroughGuard)

	for fnID, vs := range taken.ValueSets {
		if _, ok := s.ValueSets[fnID]; !ok {
			s.ValueSets[fnID] = vs
		}
	}
}

// phiRenamer implements spec §4.5's phi reconstruction: for every base
// symbol either side wrote to since baseline (the renaming state both sides
// forked from), a new counter is allocated and a phi assignment is emitted
// choosing between the two incoming values under their respective guards.
//
// Divergence is judged against baseline rather than by comparing the two
// sides' final SSA symbols directly: each side bumps its own level-2
// counter for a variable independently of the other, so two sides that each
// write the variable exactly once land on the identical counter despite
// holding different values. Comparing against the common starting point
// both sides actually diverged from catches that case; comparing the two
// final symbols against each other does not.
func phiRenamer(s *state.State, fallthroughR, takenR, baseline ssa.Renamer, takenGuard, fallthroughGuard guard.Guard) ssa.Renamer {
	seen := map[string]bool{}
	result := fallthroughR

	walk := func(r ssa.Renamer) {
		r.EachLevel1(func(base expr.Symbol, l1 ssa.Symbol) {
			if seen[base.Name] {
				return
			}
			seen[base.Name] = true

			ftL1, ftOK := fallthroughR.CurrentLevel1(base)
			tkL1, tkOK := takenR.CurrentLevel1(base)
			if !ftOK || !tkOK {
				return
			}
			if !changedSince(baseline, fallthroughR, base) && !changedSince(baseline, takenR, base) {
				return
			}

			ftL2, _ := fallthroughR.CurrentLevel2(ftL1)
			tkL2, _ := takenR.CurrentLevel2(tkL1)

			phiVal := expr.ITE(takenGuard.AsExpr(), tkL2.Expr(), ftL2.Expr())
			newR, fresh := result.BumpLevel2(ftL1)
			result = newR
			s.Equation.Assignment(s.Source(), fresh.Expr(), phiVal)
		})
	}
	walk(fallthroughR)
	walk(takenR)

	return result
}

// changedSince reports whether r's current binding for base (a level-0
// symbol) differs from baseline's: either a fresh level-1 instance (base's
// first write happened after the fork) or the same instance with a bumped
// level-2 counter.
func changedSince(baseline, r ssa.Renamer, base expr.Symbol) bool {
	l1, ok := r.CurrentLevel1(base)
	if !ok {
		return false
	}
	baseL1, baseOK := baseline.CurrentLevel1(base)
	if !baseOK || !baseL1.Equal(l1) {
		return true
	}
	l2, _ := r.CurrentLevel2(l1)
	baseL2, _ := baseline.CurrentLevel2(baseL1)
	return l2.Counter != baseL2.Counter
}
