package ssa

import (
	"testing"

	"github.com/symwalk/symex/expr"
)

var xBase = expr.Symbol{Name: "x", Typ: expr.Int}

func TestLevel0OfIsLevel0(t *testing.T) {
	s := Level0Of(xBase)
	if s.Level() != Level0 {
		t.Errorf("Level() = %v, want Level0", s.Level())
	}
	if got := s.String(); got != "x" {
		t.Errorf("String() = %q, want %q", got, "x")
	}
}

func TestAtLevel1(t *testing.T) {
	s := Level0Of(xBase).AtLevel1(2, 1)
	if s.Level() != Level1 {
		t.Errorf("Level() = %v, want Level1", s.Level())
	}
	if got := s.String(); got != "x!2@1" {
		t.Errorf("String() = %q, want %q", got, "x!2@1")
	}
}

func TestAtLevel2(t *testing.T) {
	s := Level0Of(xBase).AtLevel1(0, 0).AtLevel2(3)
	if s.Level() != Level2 {
		t.Errorf("Level() = %v, want Level2", s.Level())
	}
	if got := s.String(); got != "x!0@0#3" {
		t.Errorf("String() = %q, want %q", got, "x!0@0#3")
	}
}

func TestLevel1KeyIgnoresCounter(t *testing.T) {
	a := Level0Of(xBase).AtLevel1(1, 0).AtLevel2(3)
	b := Level0Of(xBase).AtLevel1(1, 0).AtLevel2(7)
	if !a.Level1Key().Equal(b.Level1Key()) {
		t.Error("Level1Key should be equal for symbols differing only in counter")
	}
}

func TestSymbolEqual(t *testing.T) {
	a := Level0Of(xBase).AtLevel1(1, 0).AtLevel2(2)
	b := Level0Of(xBase).AtLevel1(1, 0).AtLevel2(2)
	c := Level0Of(xBase).AtLevel1(1, 0).AtLevel2(3)
	if !a.Equal(b) {
		t.Error("identical symbols compared unequal")
	}
	if a.Equal(c) {
		t.Error("symbols with different counters compared equal")
	}
}

func TestSymbolExprRoundTrips(t *testing.T) {
	s := Level0Of(xBase).AtLevel1(1, 0).AtLevel2(2)
	e := s.Expr()
	if e.Kind() != expr.KindSymbol {
		t.Fatalf("Expr() kind = %s, want symbol", e.Kind())
	}
	if e.Sym().Name != s.String() {
		t.Errorf("Expr() name = %q, want %q", e.Sym().Name, s.String())
	}
	if e.Sym().Typ != xBase.Typ {
		t.Errorf("Expr() type = %v, want %v", e.Sym().Typ, xBase.Typ)
	}
}
