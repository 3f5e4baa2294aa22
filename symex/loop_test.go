package symex

import (
	"testing"

	"github.com/symwalk/symex/config"
	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/state"
)

func loopFixture(cond expr.Expr) *gotoprog.Function {
	return gotoprog.NewBuilder("main").
		LocationI().           // 0: header
		Goto(cond, 0, 1).      // 1: back-edge to header, loop id 1
		Skip().                // 2: after the loop
		Build()
}

func TestStepBackEdgeDecidedFalseFallsThroughWithoutCountingIteration(t *testing.T) {
	fn := loopFixture(expr.False)
	d := newDispatcher(fn)
	s := state.New("main", fn.EndPC(), false)
	s.PC = 1

	d.Step(s)
	if s.PC != 2 {
		t.Fatalf("PC = %d, want 2", s.PC)
	}
	if n, _ := s.TopFrame().LoopIters.Get(1); n != 0 {
		t.Errorf("loop iteration counter = %d, want 0 (condition was decided false)", n)
	}
}

func TestStepBackEdgeDecidedTrueTakesEdgeUnderTheBound(t *testing.T) {
	fn := loopFixture(expr.True)
	d := newDispatcher(fn)
	d.Opts.DefaultUnwind = 5
	s := state.New("main", fn.EndPC(), false)
	s.PC = 1

	d.Step(s)
	if s.PC != 0 {
		t.Fatalf("PC after a decided-true back-edge = %d, want 0 (loop taken)", s.PC)
	}
	if n, _ := s.TopFrame().LoopIters.Get(1); n != 1 {
		t.Errorf("loop iteration counter = %d, want 1", n)
	}
}

func TestStepBackEdgeStopsUnwindWithGuardFalse(t *testing.T) {
	fn := loopFixture(expr.True)
	d := newDispatcher(fn)
	d.Opts.DefaultUnwind = 1
	d.Opts.UnwindingAssertions = false
	d.Opts.PartialLoops = false
	s := state.New("main", fn.EndPC(), false)
	s.PC = 1

	d.Step(s) // count becomes 1, bound 1 -> stop

	if !s.Guard.IsFalse() {
		t.Error("stopUnwind with neither unwinding-assertions nor partial-loops set should cut the path")
	}
	if s.PC != 2 {
		t.Errorf("PC after stopping unwind = %d, want 2 (treated as a decided-false back-edge)", s.PC)
	}
}

func TestStepBackEdgeStopsUnwindWithUnwindingAssertion(t *testing.T) {
	fn := loopFixture(expr.True)
	d := newDispatcher(fn)
	d.Opts.DefaultUnwind = 1
	d.Opts.UnwindingAssertions = true
	s := state.New("main", fn.EndPC(), false)
	s.PC = 1

	before := s.Equation.Len()
	d.Step(s)

	if s.Equation.Len() != before+1 {
		t.Fatalf("unwinding-assertions should emit exactly one assertion step, got %d new steps", s.Equation.Len()-before)
	}
	last := s.Equation.At(s.Equation.Len() - 1)
	if !last.Cond.IsFalse() {
		t.Errorf("unwinding assertion condition = %v, want the literal false", last.Cond)
	}
	if s.Guard.IsFalse() {
		t.Error("an unwinding-assertions stop should not also cut the path's guard")
	}
}

func TestStepBackEdgeStopsUnwindWithPartialLoopsContinues(t *testing.T) {
	fn := loopFixture(expr.True)
	d := newDispatcher(fn)
	d.Opts.DefaultUnwind = 1
	d.Opts.UnwindingAssertions = false
	d.Opts.PartialLoops = true
	s := state.New("main", fn.EndPC(), false)
	s.PC = 1

	d.Step(s)
	if s.Guard.IsFalse() {
		t.Error("partial-loops should continue past the bound without cutting the path")
	}
	if s.PC != 2 {
		t.Errorf("PC after a partial-loops stop = %d, want 2", s.PC)
	}
}

func TestUnwindBoundDefaultsToOneWithNilOpts(t *testing.T) {
	d := &Dispatcher{}
	if got := d.unwindBound(0); got != 1 {
		t.Errorf("unwindBound with nil Opts = %d, want 1", got)
	}
}

func TestShouldStopUnwindNegativeBoundNeverStops(t *testing.T) {
	d := &Dispatcher{Opts: config.Default()}
	if d.shouldStopUnwind(1000, -1) {
		t.Error("a negative bound should mean unlimited unwinding")
	}
}

func TestStepBackEdgeSymbolicDrivesReentryToConvergence(t *testing.T) {
	c := expr.Sym(expr.Symbol{Name: "c", Typ: expr.Bool})
	fn := loopFixture(c)
	d := newDispatcher(fn)
	d.Opts.DefaultUnwind = 5
	s := state.New("main", fn.EndPC(), false)
	s.PC = 1

	d.Step(s)
	if s.PC != 2 {
		t.Errorf("the fall-through continuation's PC = %d, want 2", s.PC)
	}
	if s.Equation.Len() == 0 {
		t.Errorf("Equation.Len() = 0, want the taken re-entry's header steps (it is driven through the loop before Step returns)")
	}
}
