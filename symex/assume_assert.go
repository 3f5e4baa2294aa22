package symex

import (
	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/state"
)

// stepAssume implements spec §4.3 "assume(e)": a condition that simplifies
// to true is dropped. Single-threaded programs append an assumption step and
// then add the condition to the guard; multi-threaded programs only fold the
// condition into the guard so it composes across not-yet-synchronized
// interleavings.
func (d *Dispatcher) stepAssume(s *state.State, instr gotoprog.Instruction) {
	cond := d.cleanRead(s, instr.Cond)
	if cond.IsTrue() {
		return
	}
	if d.MultiThreaded {
		s.Guard = s.Guard.And(cond)
		return
	}
	s.Equation.Assumption(s.Source(), s.Guard.GuardExpr(cond))
	s.Guard = s.Guard.And(cond)
}

// stepAssert implements spec §4.3 "assert(e)": a quantified condition has
// each bound variable re-entered under a fresh level-1 name before renaming;
// no negation is pushed into it. Every assertion is appended, including one
// that simplifies to true; such a step counts towards the total VCCs but not
// the remaining ones.
func (d *Dispatcher) stepAssert(s *state.State, instr gotoprog.Instruction) {
	cond := instr.Cond
	if cond.HasQuantifier() {
		cond = rewriteQuantifiers(s, cond)
	}
	cond = d.cleanRead(s, cond)

	obligation := s.Guard.GuardExpr(cond)
	if d.Opts == nil || d.Opts.Simplify {
		obligation = expr.Simplify(obligation)
	}
	s.Equation.Assertion(s.Source(), obligation, instr.Msg)
}

// rewriteQuantifiers re-enters a quantifier's bound variable as a fresh
// level-1 SSA name so repeated assertions over the same source expression
// never collide (spec §4.2 "Quantified variables ... re-entered into the
// decl table to keep them unique").
func rewriteQuantifiers(s *state.State, e expr.Expr) expr.Expr {
	if e.Kind() != expr.KindExists && e.Kind() != expr.KindForall {
		return e.Map(func(sub expr.Expr) expr.Expr { return rewriteQuantifiers(s, sub) })
	}
	bound := e.BoundVar()
	r, fresh := s.Renamer.FreshLevel1(bound, s.ActiveThread, s.FreshInstance(bound.Name))
	s.Renamer = r
	body := rewriteQuantifiers(s, e.Body())
	freshSym := expr.Symbol{Name: fresh.String(), Typ: bound.Typ}
	if e.Kind() == expr.KindExists {
		return expr.Exists(freshSym, body)
	}
	return expr.Forall(freshSym, body)
}
