package solver

import (
	"fmt"

	"github.com/aclements/go-z3/z3"

	"github.com/symwalk/symex/equation"
	"github.com/symwalk/symex/expr"
)

// z3Backend is the in-process member of the smt2-solver family (spec §4.8
// rule 4, sub-select "z3"): instead of dumping text and shelling out, it
// drives an embedded z3.Context/z3.Solver pair directly, following the
// other_examples reference encoder's Context/Solver split.
type z3Backend struct {
	ctx     *z3.Context
	timeout int
}

func newZ3Backend(timeoutSeconds int) *z3Backend {
	return &z3Backend{ctx: z3.NewContext(nil), timeout: timeoutSeconds}
}

func (b *z3Backend) Name() string { return "smt2/z3" }

func (b *z3Backend) Close() error { return nil }

// Check translates every assignment/assumption of eq into z3 terms, then
// checks each assertion's negation against the accumulated assertions in
// turn, mirroring the one-check-per-VCC discipline the SMT-LIB2 dumper uses
// (spec §4.8 "one check per assertion for one-shot back ends").
func (b *z3Backend) Check(eq *equation.Equation) ([]CheckResult, error) {
	enc := &z3Encoder{ctx: b.ctx, vars: map[string]z3.Value{}}

	solver := z3.NewSolver(b.ctx)
	for _, s := range eq.Steps() {
		switch s.Kind {
		case equation.StepAssignment:
			lhs := enc.encode(s.LHS)
			rhs := enc.encode(s.RHS)
			eqTerm, err := z3Eq(lhs, rhs)
			if err != nil {
				return nil, err
			}
			solver.Assert(eqTerm)
		case equation.StepAssumption:
			cond, ok := enc.encode(s.Cond).(z3.Bool)
			if !ok {
				return nil, fmt.Errorf("solver/z3: assumption condition did not encode to Bool")
			}
			solver.Assert(cond)
		}
	}

	var results []CheckResult
	for _, s := range eq.Assertions() {
		cond, ok := enc.encode(s.Cond).(z3.Bool)
		if !ok {
			return nil, fmt.Errorf("solver/z3: assertion condition did not encode to Bool")
		}
		solver.Push()
		solver.Assert(cond.Not())
		sat, err := solver.Check()
		solver.Pop()
		if err != nil {
			return nil, fmt.Errorf("solver/z3: %w", err)
		}
		v := Unsatisfiable
		if sat {
			v = Satisfiable
		}
		results = append(results, CheckResult{Step: s, Verdict: v})
	}
	return results, nil
}

func z3Eq(lhs, rhs z3.Value) (z3.Bool, error) {
	switch l := lhs.(type) {
	case z3.BV:
		r, ok := rhs.(z3.BV)
		if !ok {
			return z3.Bool{}, fmt.Errorf("solver/z3: sort mismatch in assignment")
		}
		return l.Eq(r), nil
	case z3.Bool:
		r, ok := rhs.(z3.Bool)
		if !ok {
			return z3.Bool{}, fmt.Errorf("solver/z3: sort mismatch in assignment")
		}
		return l.Eq(r), nil
	default:
		return z3.Bool{}, fmt.Errorf("solver/z3: unsupported sort in assignment")
	}
}

// z3Encoder walks package expr's tagged tree into z3 terms, caching one
// constant per SSA symbol name so repeated reads of the same renamed symbol
// resolve to the same z3 constant (spec §3 "SSA symbols... identify the
// same value everywhere they occur").
type z3Encoder struct {
	ctx  *z3.Context
	vars map[string]z3.Value
}

func (enc *z3Encoder) sortOf(t expr.Type) z3.Sort {
	if t == expr.Bool {
		return enc.ctx.BoolSort()
	}
	bits := t.Bits
	if bits == 0 {
		bits = 64
	}
	return enc.ctx.BVSort(bits)
}

func (enc *z3Encoder) encode(e expr.Expr) z3.Value {
	switch e.Kind() {
	case expr.KindSymbol:
		sym := e.Sym()
		if v, ok := enc.vars[sym.Name]; ok {
			return v
		}
		v := enc.ctx.Const(sym.Name, enc.sortOf(sym.Typ))
		enc.vars[sym.Name] = v
		return v
	case expr.KindConst:
		if e.Type() == expr.Bool {
			if e.ConstVal() == true {
				return enc.ctx.FromBool(true)
			}
			return enc.ctx.FromBool(false)
		}
		n, _ := toInt64(e.ConstVal())
		return enc.ctx.FromInt(n, enc.sortOf(e.Type()))
	case expr.KindUnary:
		x := enc.encode(e.Operands()[0])
		switch e.Op() {
		case expr.OpNot:
			return x.(z3.Bool).Not()
		case expr.OpNeg:
			return x.(z3.BV).Neg()
		}
	case expr.KindBinary:
		l := enc.encode(e.Operands()[0])
		r := enc.encode(e.Operands()[1])
		switch e.Op() {
		case expr.OpAnd:
			return l.(z3.Bool).And(r.(z3.Bool))
		case expr.OpOr:
			return l.(z3.Bool).Or(r.(z3.Bool))
		case expr.OpXor:
			return l.(z3.BV).Xor(r.(z3.BV))
		case expr.OpAdd:
			return l.(z3.BV).Add(r.(z3.BV))
		case expr.OpSub:
			return l.(z3.BV).Sub(r.(z3.BV))
		case expr.OpMul:
			return l.(z3.BV).Mul(r.(z3.BV))
		case expr.OpDiv:
			return l.(z3.BV).SDiv(r.(z3.BV))
		case expr.OpMod:
			return l.(z3.BV).SRem(r.(z3.BV))
		}
	case expr.KindCompare:
		l := enc.encode(e.Operands()[0])
		r := enc.encode(e.Operands()[1])
		lb, lok := l.(z3.BV)
		rb, rok := r.(z3.BV)
		if lok && rok {
			switch e.Op() {
			case expr.OpEq:
				return lb.Eq(rb)
			case expr.OpNeq:
				return lb.Eq(rb).Not()
			case expr.OpLt:
				return lb.SLT(rb)
			case expr.OpLe:
				return lb.SLE(rb)
			case expr.OpGt:
				return lb.SGT(rb)
			case expr.OpGe:
				return lb.SGE(rb)
			}
		}
		lbool, lok2 := l.(z3.Bool)
		rbool, rok2 := r.(z3.Bool)
		if lok2 && rok2 {
			switch e.Op() {
			case expr.OpEq:
				return lbool.Eq(rbool)
			case expr.OpNeq:
				return lbool.Eq(rbool).Not()
			}
		}
	case expr.KindITE:
		ops := e.Operands()
		cond := enc.encode(ops[0]).(z3.Bool)
		then := enc.encode(ops[1])
		els := enc.encode(ops[2])
		return cond.IfThenElse(then, els)
	}
	// Arrays, structs, pointers and quantifiers go through the uninterpreted
	// theories the arrays-uf config key already names as an approximation
	// (spec §6); this backend does not attempt array/struct theory encoding
	// and falls back to a fresh opaque constant so Check still terminates.
	return enc.ctx.Const(fmt.Sprintf("opaque$%p", &e), enc.sortOf(e.Type()))
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}
