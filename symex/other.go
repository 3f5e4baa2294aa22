package symex

import (
	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/state"
)

// stepOther implements spec §4.3 "other: covers printf-like emits,
// inputs/outputs, gcc builtins, allocate, cpp_new/delete. Each has a
// dedicated lowering that produces assignment or assumption steps."
//
// The printf/output, input, va_arg_next, allocate and cpp_new lowerings
// follow the same shape: materialize a fresh dynamic symbol (spec §3
// "mutable symbol table for dynamically introduced names"), register it with
// the state's symbol table, and, where there is a value to bind, write it
// into the equation as an ordinary SSA assignment. cpp_delete instead marks
// its argument's current SSA instance dirty, and any other op emits only a
// location step.
func (d *Dispatcher) stepOther(s *state.State, instr gotoprog.Instruction) {
	switch instr.OtherOp {
	case gotoprog.OtherPrintf, gotoprog.OtherOutput:
		d.emitFreshWrite(s, "printf", instr.OtherArg)

	case gotoprog.OtherInput:
		d.bindFresh(s, instr.OtherLHS, "input")

	case gotoprog.OtherGCCBuiltinVaArgNext:
		d.bindFresh(s, instr.OtherLHS, "va_arg_next")

	case gotoprog.OtherAllocate, gotoprog.OtherCppNew:
		d.bindFresh(s, instr.OtherLHS, "dynamic_object")

	case gotoprog.OtherCppDelete:
		if instr.OtherArg.Kind() == expr.KindSymbol {
			if l1, ok := s.Renamer.CurrentLevel1(instr.OtherArg.Sym()); ok {
				s.Renamer = s.Renamer.MarkDirty(l1)
			}
		}
		s.Equation.Location(s.Source())

	default:
		s.Equation.Location(s.Source())
	}
}

// emitFreshWrite records arg's renamed value against a freshly declared
// dynamic symbol, used for side-effecting built-ins whose lhs is implicit
// (printf, output) rather than explicit.
func (d *Dispatcher) emitFreshWrite(s *state.State, tag string, arg expr.Expr) {
	arg = d.cleanRead(s, arg)
	fresh := s.NextDynamicSymbol(tag, arg.Type())
	s.Symtab = s.Symtab.Declare(fresh)
	r, l1 := s.Renamer.FreshLevel1(fresh, s.ActiveThread, 0)
	s.Renamer = r
	d.writeSymbol(s, l1.Base, arg)
}

// bindFresh assigns a freshly declared non-deterministic dynamic symbol into
// lhs, used for built-ins that introduce new unconstrained values (input,
// gcc_builtin_va_arg_next, allocate, cpp_new). A nil lhs means the result is
// discarded; the symbol is still declared so the equation reflects that a
// nondeterministic event occurred.
func (d *Dispatcher) bindFresh(s *state.State, lhs *expr.Expr, tag string) {
	t := expr.Pointer
	if lhs != nil {
		t = lhs.Type()
	}
	fresh := s.NextDynamicSymbol(tag, t)
	s.Symtab = s.Symtab.Declare(fresh)
	if lhs == nil {
		return
	}
	d.assignTo(s, *lhs, expr.Sym(fresh))
}
