package symex

import (
	"testing"

	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/state"
)

func TestStepCallPushesFrameAndBindsParams(t *testing.T) {
	p := expr.Symbol{Name: "p", Typ: expr.Int}
	callee := gotoprog.NewBuilder("f").Param(p).Skip().Build()
	arg := expr.Const(expr.Int, 3)
	caller := gotoprog.NewBuilder("main").Call(nil, "f", arg).Build()

	d := newDispatcher(caller, callee)
	s := state.New("main", caller.EndPC(), false)

	reason, err := d.Step(s)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if reason != Continue {
		t.Errorf("Step(call) = %v, want Continue", reason)
	}
	if s.Function != "f" || s.PC != 0 {
		t.Fatalf("after call, location = %s:%d, want f:0", s.Function, s.PC)
	}
	if s.CallStack.Len() != 2 {
		t.Fatalf("CallStack.Len() after call = %d, want 2", s.CallStack.Len())
	}

	last := s.Equation.At(s.Equation.Len() - 1)
	if !last.RHS.Equal(arg) {
		t.Errorf("callee's bound parameter write = %v, want the argument %v", last.RHS, arg)
	}
}

func TestStepCallRecordsReturnSiteAndLHS(t *testing.T) {
	callee := gotoprog.NewBuilder("f").Skip().Build()
	lhs := expr.Sym(expr.Symbol{Name: "r", Typ: expr.Int})
	caller := gotoprog.NewBuilder("main").Call(&lhs, "f").Build()

	d := newDispatcher(caller, callee)
	s := state.New("main", caller.EndPC(), false)
	d.Step(s)

	top := s.TopFrame()
	if top.CallSitePC != 0 {
		t.Errorf("CallSitePC = %d, want 0", top.CallSitePC)
	}
	if top.CallLHS == nil || !top.CallLHS.Equal(lhs) {
		t.Errorf("CallLHS = %v, want %v", top.CallLHS, lhs)
	}
}

func TestStepCallOnExternFunctionBindsNondet(t *testing.T) {
	lhs := expr.Sym(expr.Symbol{Name: "r", Typ: expr.Int})
	caller := gotoprog.NewBuilder("main").Call(&lhs, "extern_f").Build()

	d := newDispatcher(caller) // "extern_f" is never registered
	s := state.New("main", caller.EndPC(), false)

	reason, err := d.Step(s)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if reason != Continue {
		t.Errorf("Step(extern call) = %v, want Continue", reason)
	}
	if s.PC != 1 {
		t.Errorf("PC after an extern call = %d, want 1 (stays in caller)", s.PC)
	}
	if s.Equation.Len() != 1 {
		t.Fatalf("extern call produced %d equation steps, want 1 (nondet binding)", s.Equation.Len())
	}
}

func TestStepCallOnDiscardedExternIsNoOp(t *testing.T) {
	caller := gotoprog.NewBuilder("main").Call(nil, "extern_f").Build()

	d := newDispatcher(caller)
	s := state.New("main", caller.EndPC(), false)
	d.Step(s)

	if s.Equation.Len() != 0 {
		t.Errorf("discarded extern call emitted %d steps, want 0", s.Equation.Len())
	}
}

func TestStepReturnBindsCallerLHSAndJumpsToEndFunction(t *testing.T) {
	callee := gotoprog.NewBuilder("f").Return(expr.Const(expr.Int, 42)).Build()
	lhs := expr.Sym(expr.Symbol{Name: "r", Typ: expr.Int})
	caller := gotoprog.NewBuilder("main").Call(&lhs, "f").Build()

	d := newDispatcher(caller, callee)
	s := state.New("main", caller.EndPC(), false)
	d.Step(s) // call: enters f at pc 0

	reason, err := d.Step(s) // return
	if err != nil {
		t.Fatalf("Step(return) error = %v", err)
	}
	if reason != Continue {
		t.Errorf("Step(return) = %v, want Continue", reason)
	}
	if s.PC != callee.EndPC()-1 {
		t.Errorf("PC after return = %d, want the appended END_FUNCTION at %d", s.PC, callee.EndPC()-1)
	}

	last := s.Equation.At(s.Equation.Len() - 1)
	if !last.RHS.Equal(expr.Const(expr.Int, 42)) {
		t.Errorf("return's bound value = %v, want 42", last.RHS)
	}
}

func TestStepEndFunctionPopsFrameAndResumesCaller(t *testing.T) {
	callee := gotoprog.NewBuilder("f").Skip().Build()
	caller := gotoprog.NewBuilder("main").Call(nil, "f").Skip().Build()

	d := newDispatcher(caller, callee)
	s := state.New("main", caller.EndPC(), false)
	d.Step(s) // call -> enters f
	d.Step(s) // skip inside f
	reason, err := d.Step(s) // end_function of f
	if err != nil {
		t.Fatalf("Step(end_function) error = %v", err)
	}
	if reason != Continue {
		t.Errorf("Step(end_function) mid-call = %v, want Continue", reason)
	}
	if s.Function != "main" || s.PC != 1 {
		t.Errorf("after returning, location = %s:%d, want main:1", s.Function, s.PC)
	}
}

func TestStepEndFunctionOnEntryFrameIsThreadDone(t *testing.T) {
	fn := gotoprog.NewBuilder("main").Skip().Build()
	d := newDispatcher(fn)
	s := state.New("main", fn.EndPC(), false)
	d.Step(s) // skip

	reason, err := d.Step(s) // end_function of the entry frame
	if err != nil {
		t.Fatalf("Step(end_function) error = %v", err)
	}
	if reason != ThreadDone {
		t.Errorf("Step(end_function) on the entry frame = %v, want ThreadDone", reason)
	}
}

func TestStepCallStopsRecursionAtUnwindBoundWithGuardFalse(t *testing.T) {
	// f calls itself unconditionally, so the base case never arrives on its
	// own; the recursion bound must be what stops it.
	callee := gotoprog.NewBuilder("f").Call(nil, "f").Build()

	d := newDispatcher(callee)
	d.Opts.DefaultUnwind = 1
	d.Opts.UnwindingAssertions = false
	d.Opts.PartialLoops = false
	s := state.New("f", callee.EndPC(), false)

	d.Step(s) // first call: depth 0 -> 1, under the bound, descends into f
	if s.Function != "f" || s.CallStack.Len() != 2 {
		t.Fatalf("after the first self-call, location = %s, stack depth %d, want f at depth 2", s.Function, s.CallStack.Len())
	}

	d.Step(s) // second call: depth already 1 == bound 1, recursion is cut
	if s.CallStack.Len() != 2 {
		t.Fatalf("a cut recursive call pushed a frame, stack depth = %d, want 2 (unchanged)", s.CallStack.Len())
	}
	if !s.Guard.IsFalse() {
		t.Error("stopRecursion with neither unwinding-assertions nor partial-loops set should cut the path")
	}
}

func TestStepCallStopsRecursionWithUnwindingAssertion(t *testing.T) {
	callee := gotoprog.NewBuilder("f").Call(nil, "f").Build()

	d := newDispatcher(callee)
	d.Opts.DefaultUnwind = 1
	d.Opts.UnwindingAssertions = true
	s := state.New("f", callee.EndPC(), false)

	d.Step(s) // first call, under the bound

	before := s.Equation.Len()
	d.Step(s) // second call, recursion bound hit

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

func TestStepCallDoesNotBoundNonRecursiveCallsAtDefaultUnwind(t *testing.T) {
	// Two distinct, non-recursive functions called back to back must never
	// trip the recursion bound, even at the default unwind of 1: the bound
	// only applies to re-entering an already-active activation of the *same*
	// function, the call's analogue of a loop's back edge.
	g := gotoprog.NewBuilder("g").Skip().Build()
	f := gotoprog.NewBuilder("f").Call(nil, "g").Build()

	d := newDispatcher(f, g)
	s := state.New("f", f.EndPC(), false)

	reason, err := d.Step(s)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if reason != Continue || s.Function != "g" {
		t.Fatalf("calling a distinct function got reason=%v, function=%s, want Continue at g", reason, s.Function)
	}
}

func TestRecursionGetsDisjointInstancesPerActivation(t *testing.T) {
	// A self-recursive call: the two activations of f must get different
	// level-1 instances for the same parameter, or a write in the inner call
	// would alias the outer activation's SSA symbol (spec §4.6 "locality").
	p := expr.Symbol{Name: "p", Typ: expr.Int}
	callee := gotoprog.NewBuilder("f").
		Param(p).
		Call(nil, "f", expr.Const(expr.Int, 0)).
		Skip().
		Build()

	d := newDispatcher(callee)
	d.Opts.DefaultUnwind = 2 // the nested call below runs at recursion depth 1
	s := state.New("f", callee.EndPC(), false)

	d.Step(s) // the inner call (pc 0 is the call instruction since f has no decl of its own param)
	innerL1, ok := s.Renamer.CurrentLevel1(p)
	if !ok {
		t.Fatal("recursive call did not bind the callee's parameter")
	}

	// Re-enter once more to get a third activation and confirm instances differ.
	d.Step(s) // the second, nested call
	nestedL1, ok := s.Renamer.CurrentLevel1(p)
	if !ok {
		t.Fatal("second recursive call did not bind the callee's parameter")
	}
	if innerL1.Instance == nestedL1.Instance {
		t.Errorf("two activations of a recursive call shared instance %d, want distinct instances", innerL1.Instance)
	}
}
