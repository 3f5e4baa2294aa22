package expr

import "testing"

func TestSimplifyConstantFolding(t *testing.T) {
	tests := []struct {
		name string
		in   Expr
		want Expr
	}{
		{"add", Binary(OpAdd, Int, Const(Int, 2), Const(Int, 3)), Const(Int, 5)},
		{"sub", Binary(OpSub, Int, Const(Int, 5), Const(Int, 3)), Const(Int, 2)},
		{"mul", Binary(OpMul, Int, Const(Int, 2), Const(Int, 3)), Const(Int, 6)},
		{"div", Binary(OpDiv, Int, Const(Int, 6), Const(Int, 3)), Const(Int, 2)},
		{"div-by-zero-not-folded", Binary(OpDiv, Int, Const(Int, 6), Const(Int, 0)), Binary(OpDiv, Int, Const(Int, 6), Const(Int, 0))},
		{"eq-true", Compare(OpEq, Const(Int, 2), Const(Int, 2)), True},
		{"eq-false", Compare(OpEq, Const(Int, 2), Const(Int, 3)), False},
		{"lt-true", Compare(OpLt, Const(Int, 1), Const(Int, 2)), True},
		{"lt-false", Compare(OpLt, Const(Int, 2), Const(Int, 1)), False},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Simplify(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("Simplify(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSimplifyBooleanIdentities(t *testing.T) {
	x := Sym(Symbol{Name: "x", Typ: Bool})

	tests := []struct {
		name string
		in   Expr
		want Expr
	}{
		{"and-true-rhs", And(x, True), x},
		{"and-true-lhs", And(True, x), x},
		{"and-false-rhs", And(x, False), False},
		{"and-false-lhs", And(False, x), False},
		{"and-self", And(x, x), x},
		{"or-false-rhs", Or(x, False), x},
		{"or-false-lhs", Or(False, x), x},
		{"or-true-rhs", Or(x, True), True},
		{"or-true-lhs", Or(True, x), True},
		{"or-self", Or(x, x), x},
		{"double-negation", Not(Not(x)), x},
		{"not-true", Not(True), False},
		{"not-false", Not(False), True},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Simplify(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("Simplify(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSimplifyCompareSameOperand(t *testing.T) {
	x := Sym(Symbol{Name: "x", Typ: Int})

	tests := []struct {
		op   Op
		want Expr
	}{
		{OpEq, True}, {OpLe, True}, {OpGe, True},
		{OpNeq, False}, {OpLt, False}, {OpGt, False},
	}
	for _, tt := range tests {
		got := Simplify(Compare(tt.op, x, x))
		if !got.Equal(tt.want) {
			t.Errorf("Simplify(x %s x) = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestSimplifyITE(t *testing.T) {
	x := Sym(Symbol{Name: "x", Typ: Int})
	y := Sym(Symbol{Name: "y", Typ: Int})

	if got := Simplify(ITE(True, x, y)); !got.Equal(x) {
		t.Errorf("ITE(true, x, y) = %v, want x", got)
	}
	if got := Simplify(ITE(False, x, y)); !got.Equal(y) {
		t.Errorf("ITE(false, x, y) = %v, want y", got)
	}
	if got := Simplify(ITE(Sym(Symbol{Name: "c", Typ: Bool}), x, x)); !got.Equal(x) {
		t.Errorf("ITE(c, x, x) = %v, want x", got)
	}
}

func TestSimplifyRecursesIntoOperands(t *testing.T) {
	// (2+3) + x should fold the constant sub-expression even though the
	// whole expression cannot reduce to a literal.
	x := Sym(Symbol{Name: "x", Typ: Int})
	in := Binary(OpAdd, Int, Binary(OpAdd, Int, Const(Int, 2), Const(Int, 3)), x)
	want := Binary(OpAdd, Int, Const(Int, 5), x)

	got := Simplify(in)
	if !got.Equal(want) {
		t.Errorf("Simplify(%v) = %v, want %v", in, got, want)
	}
}

func TestSimplifyIsIdempotent(t *testing.T) {
	x := Sym(Symbol{Name: "x", Typ: Bool})
	in := And(Or(x, False), True)
	once := Simplify(in)
	twice := Simplify(once)
	if !once.Equal(twice) {
		t.Errorf("Simplify not idempotent: once=%v twice=%v", once, twice)
	}
}
