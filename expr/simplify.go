package expr

// Simplify performs the bottom-up constant-folding and algebraic
// simplification assumed by spec §4.1/§4.3 ("simplify(cond)", "the result is
// literally true"). It is deliberately small: this package is a stand-in for
// the external expression library (spec §1 "out of scope"), and the symex
// core only ever depends on the handful of simplifications spec.md calls out
// by name (and(true,x)=x, and(false,x)=false, double negation, constant
// comparisons, trivial if-then-else).
func Simplify(e Expr) Expr {
	e = e.Map(Simplify)

	switch e.kind {
	case KindUnary:
		if e.op == OpNot {
			op := e.operands[0]
			if op.IsTrue() {
				return False
			}
			if op.IsFalse() {
				return True
			}
			if op.kind == KindUnary && op.op == OpNot {
				return op.operands[0]
			}
		}
	case KindBinary:
		lhs, rhs := e.operands[0], e.operands[1]
		switch e.op {
		case OpAnd:
			switch {
			case lhs.IsFalse() || rhs.IsFalse():
				return False
			case lhs.IsTrue():
				return rhs
			case rhs.IsTrue():
				return lhs
			case lhs.Equal(rhs):
				return lhs
			}
		case OpOr:
			switch {
			case lhs.IsTrue() || rhs.IsTrue():
				return True
			case lhs.IsFalse():
				return rhs
			case rhs.IsFalse():
				return lhs
			case lhs.Equal(rhs):
				return lhs
			}
		}
		if lhs.kind == KindConst && rhs.kind == KindConst {
			if folded, ok := foldArith(e.op, lhs, rhs, e.typ); ok {
				return folded
			}
		}
	case KindCompare:
		lhs, rhs := e.operands[0], e.operands[1]
		if lhs.Equal(rhs) {
			switch e.op {
			case OpEq, OpLe, OpGe:
				return True
			case OpNeq, OpLt, OpGt:
				return False
			}
		}
		if lhs.kind == KindConst && rhs.kind == KindConst {
			if folded, ok := foldCompare(e.op, lhs, rhs); ok {
				return folded
			}
		}
	case KindITE:
		cond := e.operands[0]
		if cond.IsTrue() {
			return e.operands[1]
		}
		if cond.IsFalse() {
			return e.operands[2]
		}
		if e.operands[1].Equal(e.operands[2]) {
			return e.operands[1]
		}
	}
	return e
}

func asInt(e Expr) (int64, bool) {
	switch v := e.constVal.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

func foldArith(op Op, lhs, rhs Expr, t Type) (Expr, bool) {
	a, aok := asInt(lhs)
	b, bok := asInt(rhs)
	if !aok || !bok {
		return Expr{}, false
	}
	switch op {
	case OpAdd:
		return Const(t, a+b), true
	case OpSub:
		return Const(t, a-b), true
	case OpMul:
		return Const(t, a*b), true
	case OpDiv:
		if b == 0 {
			return Expr{}, false
		}
		return Const(t, a/b), true
	case OpMod:
		if b == 0 {
			return Expr{}, false
		}
		return Const(t, a%b), true
	case OpXor:
		return Const(t, a^b), true
	}
	return Expr{}, false
}

func foldCompare(op Op, lhs, rhs Expr) (Expr, bool) {
	a, aok := asInt(lhs)
	b, bok := asInt(rhs)
	if !aok || !bok {
		return Expr{}, false
	}
	var result bool
	switch op {
	case OpEq:
		result = a == b
	case OpNeq:
		result = a != b
	case OpLt:
		result = a < b
	case OpLe:
		result = a <= b
	case OpGt:
		result = a > b
	case OpGe:
		result = a >= b
	default:
		return Expr{}, false
	}
	if result {
		return True, true
	}
	return False, true
}
