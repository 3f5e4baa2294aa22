package symtab

import (
	"testing"

	"github.com/symwalk/symex/expr"
)

func TestNewIsEmpty(t *testing.T) {
	tbl := New()
	if tbl.Len() != 0 {
		t.Errorf("Len() on a new table = %d, want 0", tbl.Len())
	}
	if _, ok := tbl.Lookup("x"); ok {
		t.Error("Lookup on an empty table reported ok=true")
	}
}

func TestDeclareThenLookup(t *testing.T) {
	tbl := New()
	s := expr.Symbol{Name: "x", Typ: expr.Int}
	tbl2 := tbl.Declare(s)

	if tbl2.Len() != 1 {
		t.Fatalf("Len() after Declare = %d, want 1", tbl2.Len())
	}
	got, ok := tbl2.Lookup("x")
	if !ok {
		t.Fatal("Lookup(x) did not find the declared symbol")
	}
	if got != s {
		t.Errorf("Lookup(x) = %+v, want %+v", got, s)
	}
}

func TestDeclareDoesNotMutateReceiver(t *testing.T) {
	tbl := New()
	tbl2 := tbl.Declare(expr.Symbol{Name: "x", Typ: expr.Int})

	if tbl.Len() != 0 {
		t.Errorf("Declare mutated the receiver: Len() = %d, want 0", tbl.Len())
	}
	if tbl2.Len() != 1 {
		t.Errorf("Declare did not take effect on the returned table: Len() = %d, want 1", tbl2.Len())
	}
}

func TestDeclareOverwritesExistingName(t *testing.T) {
	tbl := New()
	tbl = tbl.Declare(expr.Symbol{Name: "x", Typ: expr.Int})
	tbl = tbl.Declare(expr.Symbol{Name: "x", Typ: expr.Bool})

	if tbl.Len() != 1 {
		t.Fatalf("Len() after re-declaring x = %d, want 1", tbl.Len())
	}
	got, _ := tbl.Lookup("x")
	if got.Typ != expr.Bool {
		t.Errorf("Lookup(x).Typ = %v, want %v (overwritten by second Declare)", got.Typ, expr.Bool)
	}
}

func TestSymbolsPreservesDeclarationOrder(t *testing.T) {
	tbl := New()
	tbl = tbl.Declare(expr.Symbol{Name: "b", Typ: expr.Int})
	tbl = tbl.Declare(expr.Symbol{Name: "a", Typ: expr.Int})
	tbl = tbl.Declare(expr.Symbol{Name: "c", Typ: expr.Int})
	// Re-declaring an existing name must not move it in the order.
	tbl = tbl.Declare(expr.Symbol{Name: "b", Typ: expr.Bool})

	got := tbl.Symbols()
	if len(got) != 3 {
		t.Fatalf("Symbols() returned %d entries, want 3", len(got))
	}
	names := []string{got[0].Name, got[1].Name, got[2].Name}
	want := []string{"b", "a", "c"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Symbols() order = %v, want %v", names, want)
			break
		}
	}
	if got[0].Typ != expr.Bool {
		t.Errorf("Symbols()[0].Typ = %v, want %v (re-declare should update type in place)", got[0].Typ, expr.Bool)
	}
}
