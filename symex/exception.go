package symex

import (
	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/state"
)

// stepThrow implements spec §4.3 "throw: propagates by disabling
// non-matching frames' guards until a matching handler is found. If no
// handler exists the path becomes infeasible (guard set to false)."
//
// "Disabling" a frame means popping it without running its own
// end_function teardown logic, since the stack is unwinding past it rather
// than returning through it normally; frame-local symbols are still marked
// dirty so stale reads cannot leak past the unwind.
func (d *Dispatcher) stepThrow(s *state.State) (StopReason, error) {
	for s.CallStack.Len() > 0 {
		top := s.TopFrame()
		if len(top.HandlerStack) > 0 {
			handler := top.HandlerStack[len(top.HandlerStack)-1]
			top.HandlerStack = top.HandlerStack[:len(top.HandlerStack)-1]
			s.SetTopFrame(top)
			s.PC = handler
			return Continue, nil
		}

		popped := s.PopFrame()
		for _, local := range popped.Locals {
			if l1, ok := s.Renamer.CurrentLevel1(local); ok {
				s.Renamer = s.Renamer.MarkDirty(l1)
			}
		}
		if s.CallStack.Len() == 0 {
			break
		}
		caller := s.TopFrame()
		s.Function = caller.Function
	}

	// No handler anywhere on the stack: the path is infeasible.
	s.Guard = s.Guard.And(expr.False)
	return Infeasible, nil
}
