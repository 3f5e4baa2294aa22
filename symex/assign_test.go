package symex

import (
	"testing"

	"github.com/symwalk/symex/equation"
	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/state"
)

func declared(t *testing.T, d *Dispatcher, s *state.State, sym expr.Symbol) {
	t.Helper()
	d.stepDecl(s, gotoprog.Instruction{Kind: gotoprog.Decl, Symbol: sym})
}

func TestWriteSymbolBumpsCounterAndEmits(t *testing.T) {
	x := expr.Symbol{Name: "x", Typ: expr.Int}
	d := newDispatcher()
	s := state.New("main", 1, false)
	declared(t, d, s, x)

	d.writeSymbol(s, x, expr.Const(expr.Int, 1))
	d.writeSymbol(s, x, expr.Const(expr.Int, 2))

	steps := s.Equation.Steps()
	if len(steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(steps))
	}
	if steps[0].LHS.Equal(steps[1].LHS) {
		t.Error("two writes to the same base symbol produced the same SSA lhs")
	}
}

func TestAssignToSimpleSymbol(t *testing.T) {
	x := expr.Symbol{Name: "x", Typ: expr.Int}
	d := newDispatcher()
	s := state.New("main", 1, false)
	declared(t, d, s, x)

	d.stepAssign(s, gotoprog.Instruction{Kind: gotoprog.Assign, LHS: expr.Sym(x), RHS: expr.Const(expr.Int, 5)})

	last := s.Equation.At(s.Equation.Len() - 1)
	if last.Kind != equation.StepAssignment || !last.RHS.Equal(expr.Const(expr.Int, 5)) {
		t.Errorf("last step = %+v, want an assignment of 5", last)
	}
}

func TestAssignToITESplitsUnderBothGuards(t *testing.T) {
	x := expr.Symbol{Name: "x", Typ: expr.Int}
	y := expr.Symbol{Name: "y", Typ: expr.Int}
	cond := expr.Sym(expr.Symbol{Name: "c", Typ: expr.Bool})

	d := newDispatcher()
	s := state.New("main", 1, false)
	declared(t, d, s, x)
	declared(t, d, s, y)

	lhs := expr.ITE(cond, expr.Sym(x), expr.Sym(y))
	d.assignTo(s, lhs, expr.Const(expr.Int, 9))

	if s.Equation.Len() != 2 {
		t.Fatalf("ITE lhs produced %d assignment steps, want 2", s.Equation.Len())
	}
	if !s.Guard.IsTrue() {
		t.Error("the outer guard should be restored after an ITE-lhs assignment")
	}
}

func TestAssignToTypecastWritesThroughAtOriginalType(t *testing.T) {
	x := expr.Symbol{Name: "x", Typ: expr.Int}
	d := newDispatcher()
	s := state.New("main", 1, false)
	declared(t, d, s, x)

	lhs := expr.Typecast(expr.Bool, expr.Sym(x))
	d.assignTo(s, lhs, expr.True)

	last := s.Equation.At(s.Equation.Len() - 1)
	if last.RHS.Type() != expr.Int {
		t.Errorf("typecast-lhs write ended up at type %v, want the underlying symbol's type %v", last.RHS.Type(), expr.Int)
	}
}

func TestAssignToByteExtractDecomposesAsWithUpdate(t *testing.T) {
	x := expr.Symbol{Name: "x", Typ: expr.Int}
	d := newDispatcher()
	s := state.New("main", 1, false)
	declared(t, d, s, x)

	lhs := expr.ByteExtract(expr.Int, expr.Sym(x), expr.Const(expr.Int, 1))
	d.assignTo(s, lhs, expr.Const(expr.Int, 0xff))

	last := s.Equation.At(s.Equation.Len() - 1)
	if last.RHS.Kind() != expr.KindWith {
		t.Fatalf("byte-extract lhs write produced RHS kind %v, want a `with` update of the base symbol", last.RHS.Kind())
	}
}

func TestCleanReadSimplifiesWhenEnabled(t *testing.T) {
	d := newDispatcher()
	s := state.New("main", 1, false)

	e := expr.Binary(expr.OpAdd, expr.Int, expr.Const(expr.Int, 2), expr.Const(expr.Int, 3))
	got := d.cleanRead(s, e)
	if !got.Equal(expr.Const(expr.Int, 5)) {
		t.Errorf("cleanRead(2+3) = %v, want the folded constant 5", got)
	}
}

func TestCleanReadRenamesSymbols(t *testing.T) {
	x := expr.Symbol{Name: "x", Typ: expr.Int}
	d := newDispatcher()
	s := state.New("main", 1, false)
	declared(t, d, s, x)
	d.writeSymbol(s, x, expr.Const(expr.Int, 7))

	got := d.cleanRead(s, expr.Sym(x))
	if got.Sym().Name == x.Name {
		t.Errorf("cleanRead did not rename %v to its current SSA instance", x)
	}
}
