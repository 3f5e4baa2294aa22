package symex

import (
	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/state"
)

// stepAssign implements spec §4.3 "assign": structural lhs is decomposed
// recursively into functional `with` updates before the final write, then
// the rhs is renamed and the write bumps the target's level-2 counter.
func (d *Dispatcher) stepAssign(s *state.State, instr gotoprog.Instruction) {
	rhs := d.cleanRead(s, instr.RHS)
	d.assignTo(s, instr.LHS, rhs)
}

// assignTo performs the structural decomposition of spec §4.3: an index,
// member or byte-extract lhs becomes a `with` update of the base symbol; an
// ITE lhs splits into two guarded assignments; a plain symbol lhs is the base
// case that actually renames/bumps/emits.
func (d *Dispatcher) assignTo(s *state.State, lhs, rhs expr.Expr) {
	switch lhs.Kind() {
	case expr.KindSymbol:
		d.writeSymbol(s, lhs.Sym(), rhs)

	case expr.KindIndex:
		base, idx := lhs.Operands()[0], lhs.Operands()[1]
		idx = d.cleanRead(s, idx)
		d.assignTo(s, base, expr.With(d.cleanRead(s, base), idx, rhs, ""))

	case expr.KindMember:
		base := lhs.Operands()[0]
		d.assignTo(s, base, expr.With(d.cleanRead(s, base), expr.Expr{}, rhs, lhs.Field()))

	case expr.KindByteExtract:
		base, offset := lhs.Operands()[0], lhs.Operands()[1]
		offset = d.cleanRead(s, offset)
		d.assignTo(s, base, expr.With(d.cleanRead(s, base), offset, rhs, ""))

	case expr.KindDeref:
		d.assignThroughDeref(s, lhs.Operands()[0], rhs)

	case expr.KindTypecast:
		// A typecast lhs writes through to the underlying symbol at its
		// original type; the value is cast back on write.
		d.assignTo(s, lhs.Operands()[0], expr.Typecast(lhs.Operands()[0].Type(), rhs))

	case expr.KindITE:
		cond, then, els := lhs.Operands()[0], lhs.Operands()[1], lhs.Operands()[2]
		cond = d.cleanRead(s, cond)
		outerGuard := s.Guard
		s.Guard = outerGuard.And(cond)
		d.assignTo(s, then, rhs)
		s.Guard = outerGuard.And(expr.Not(cond))
		d.assignTo(s, els, rhs)
		s.Guard = outerGuard
	}
}

// assignThroughDeref lowers a write through a pointer into a guarded case
// split over the pointer's dereference candidates (spec §4.3 "clean rhs:
// resolve dereferences"; Component C supplies the candidate set). With no
// candidates known, and `allow-pointer-unsoundness` configured, the write is
// silently dropped; otherwise it targets a single synthesized fallback
// object so the equation still reflects that a write occurred.
func (d *Dispatcher) assignThroughDeref(s *state.State, ptr expr.Expr, rhs expr.Expr) {
	ptr = d.cleanRead(s, ptr)
	if ptr.Kind() != expr.KindSymbol {
		return
	}
	candidates := s.ValueSetFor(d.currentFunction(s)).Candidates(ptr.Sym())
	if len(candidates) == 0 {
		if d.Opts != nil && d.Opts.AllowPointerUnsoundness {
			return
		}
		candidates = []expr.Symbol{{Name: ptr.Sym().Name + "#obj", Typ: rhs.Type()}}
	}
	outerGuard := s.Guard
	for _, cand := range candidates {
		s.Guard = outerGuard.And(expr.Compare(expr.OpEq, ptr, expr.AddressOf(expr.Sym(cand))))
		d.writeSymbol(s, cand, rhs)
	}
	s.Guard = outerGuard
}

// writeSymbol is the base case of assignTo: bump base's level-2 counter and
// emit the assignment step (spec §4.3 "rename lhs level 1 -> bump to fresh
// level 2 ... append an assignment step").
func (d *Dispatcher) writeSymbol(s *state.State, base expr.Symbol, rhs expr.Expr) {
	l1, ok := s.Renamer.CurrentLevel1(base)
	if !ok {
		r, fresh := s.Renamer.FreshLevel1(base, s.ActiveThread, s.FreshInstance(base.Name))
		s.Renamer = r
		l1 = fresh
	}
	renamedRHS := rhs
	if d.Opts == nil || d.Opts.Simplify {
		renamedRHS = expr.Simplify(renamedRHS)
	}

	r, l2 := s.Renamer.BumpLevel2(l1)
	s.Renamer = r

	if d.Opts != nil && d.Opts.Propagation && isConstant(renamedRHS) {
		s.Renamer = s.Renamer.Propagate(l2, renamedRHS)
	}

	s.Equation.Assignment(s.Source(), l2.Expr(), renamedRHS)
}

// cleanRead renames and (when configured) simplifies a read-position
// expression (spec §4.3 "clean ... each argument (read-mode)").
func (d *Dispatcher) cleanRead(s *state.State, e expr.Expr) expr.Expr {
	propagate := d.Opts == nil || d.Opts.Propagation
	renamed := s.Renamer.Rename(e, propagate)
	if d.Opts == nil || d.Opts.Simplify {
		renamed = expr.Simplify(renamed)
	}
	return renamed
}

func isConstant(e expr.Expr) bool { return e.Kind() == expr.KindConst }
