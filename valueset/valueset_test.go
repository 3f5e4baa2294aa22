package valueset

import (
	"testing"

	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
)

func sym(name string, t expr.Type) expr.Symbol {
	return expr.Symbol{Name: name, Typ: t}
}

func TestAnalyzeUnionsAddressOf(t *testing.T) {
	p := sym("p", expr.Pointer)
	x := sym("x", expr.Int)

	fn := &gotoprog.Function{
		ID:     "f",
		Locals: []expr.Symbol{p, x},
		Body: []gotoprog.Instruction{
			{Kind: gotoprog.Assign, LHS: expr.Sym(p), RHS: expr.AddressOf(expr.Sym(x))},
		},
	}

	a := Analyze(fn)
	got := a.Candidates(p)
	if !containsSymbol(got, x) {
		t.Errorf("Candidates(p) = %v, want it to include x after p := &x", got)
	}
	if !containsSymbol(got, p) {
		t.Errorf("Candidates(p) = %v, want it to include p itself", got)
	}
}

func TestAnalyzeUnionsPointerCopy(t *testing.T) {
	p := sym("p", expr.Pointer)
	q := sym("q", expr.Pointer)
	x := sym("x", expr.Int)

	fn := &gotoprog.Function{
		ID:     "f",
		Locals: []expr.Symbol{p, q, x},
		Body: []gotoprog.Instruction{
			{Kind: gotoprog.Assign, LHS: expr.Sym(p), RHS: expr.AddressOf(expr.Sym(x))},
			{Kind: gotoprog.Assign, LHS: expr.Sym(q), RHS: expr.Sym(p)},
		},
	}

	a := Analyze(fn)
	got := a.Candidates(q)
	if !containsSymbol(got, x) {
		t.Errorf("Candidates(q) = %v, want it to include x after q := p aliasing p := &x", got)
	}
}

func TestAnalyzeDoesNotUnionNonPointerCopy(t *testing.T) {
	a1 := sym("a", expr.Int)
	b := sym("b", expr.Int)
	x := sym("x", expr.Int)
	p := sym("p", expr.Pointer)

	fn := &gotoprog.Function{
		ID:     "f",
		Locals: []expr.Symbol{a1, b, x, p},
		Body: []gotoprog.Instruction{
			{Kind: gotoprog.Assign, LHS: expr.Sym(p), RHS: expr.AddressOf(expr.Sym(x))},
			{Kind: gotoprog.Assign, LHS: expr.Sym(a1), RHS: expr.Sym(b)},
		},
	}

	a := Analyze(fn)
	got := a.Candidates(a1)
	if containsSymbol(got, x) || containsSymbol(got, p) {
		t.Errorf("Candidates(a) = %v, want it isolated from the unrelated p/x union (non-pointer copy)", got)
	}
}

func TestCandidatesOfUnregisteredSymbolIsNil(t *testing.T) {
	fn := &gotoprog.Function{ID: "f"}
	a := Analyze(fn)
	if got := a.Candidates(sym("ghost", expr.Pointer)); got != nil {
		t.Errorf("Candidates on an unregistered symbol = %v, want nil", got)
	}
}

func TestAnalyzeIgnoresNonAssignInstructions(t *testing.T) {
	p := sym("p", expr.Pointer)
	x := sym("x", expr.Int)

	fn := &gotoprog.Function{
		ID:     "f",
		Locals: []expr.Symbol{p, x},
		Body: []gotoprog.Instruction{
			{Kind: gotoprog.Assert, Cond: expr.True},
		},
	}

	a := Analyze(fn)
	got := a.Candidates(p)
	if len(got) != 1 || got[0].Name != "p" {
		t.Errorf("Candidates(p) = %v, want just [p] (no assignment ever touched it)", got)
	}
	if containsSymbol(got, x) {
		t.Errorf("Candidates(p) unexpectedly includes x: %v", got)
	}
}

func containsSymbol(syms []expr.Symbol, want expr.Symbol) bool {
	for _, s := range syms {
		if s.Name == want.Name {
			return true
		}
	}
	return false
}
