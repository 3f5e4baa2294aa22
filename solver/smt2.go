package solver

import (
	"fmt"
	"io"
	"strings"

	"github.com/symwalk/symex/config"
	"github.com/symwalk/symex/equation"
	"github.com/symwalk/symex/expr"
)

// smt2Backend dumps the equation as an SMT-LIB 2.0 script, following the
// format spec §6 lays out exactly: a tool preamble, a logic declaration,
// declare-funs for every SSA symbol, one assert per assumption and per
// negated assertion (one check per assertion for one-shot back ends, or
// under push/pop for incremental ones), check-sat, and a get-value/get-model
// request for counterexample reconstruction.
type smt2Backend struct {
	out       io.Writer
	closer    func() error
	family    config.SMT2Solver
	fpa       bool
	incremental bool
}

func newSMT2Backend(out io.Writer, closer func() error, opts *config.Options) *smt2Backend {
	return &smt2Backend{
		out:         out,
		closer:      closer,
		family:      opts.SMT2SolverFamily,
		fpa:         opts.FPA,
		incremental: opts.IncrementalCheck,
	}
}

func (b *smt2Backend) Name() string { return "smt2/" + string(b.family) }

func (b *smt2Backend) Close() error {
	if b.closer != nil {
		return b.closer()
	}
	return nil
}

// Check writes the full SMT-LIB2 script for eq. Since the concrete solver
// process/library behind a dumped script is an external collaborator (spec
// §1), Check reports every assertion as Unknown — dumping the problem, not
// solving it, is this back end's entire job (spec §4.8 rule 4's "dimacs"
// and "smt2" selections are dump back ends by construction).
func (b *smt2Backend) Check(eq *equation.Equation) ([]CheckResult, error) {
	logic := "QF_AUFBV"
	if b.fpa {
		logic = "QF_AUFBVFP"
	}

	fmt.Fprintf(b.out, "; Generated by symex 0.1\n")
	fmt.Fprintf(b.out, "(set-logic %s)\n", logic)
	if b.family != config.SMT2Generic {
		fmt.Fprintf(b.out, "(set-option :produce-models true)\n")
	}

	declared := map[string]bool{}
	declare := func(sym expr.Symbol) {
		if declared[sym.Name] {
			return
		}
		declared[sym.Name] = true
		fmt.Fprintf(b.out, "(declare-fun |%s| () %s)\n", sym.Name, smtSort(sym.Typ))
	}

	steps := eq.Steps()
	for _, s := range steps {
		switch s.Kind {
		case equation.StepAssignment:
			s.LHS.Walk(func(e expr.Expr) {
				if e.Kind() == expr.KindSymbol {
					declare(e.Sym())
				}
			})
			s.RHS.Walk(func(e expr.Expr) {
				if e.Kind() == expr.KindSymbol {
					declare(e.Sym())
				}
			})
		case equation.StepAssumption, equation.StepAssertion:
			s.Cond.Walk(func(e expr.Expr) {
				if e.Kind() == expr.KindSymbol {
					declare(e.Sym())
				}
			})
		}
	}

	for _, s := range steps {
		switch s.Kind {
		case equation.StepAssignment:
			fmt.Fprintf(b.out, "(assert (= |%s| %s))\n", s.LHS.Sym().Name, smtExpr(s.RHS))
		case equation.StepAssumption:
			fmt.Fprintf(b.out, "(assert %s)\n", smtExpr(s.Cond))
		}
	}

	var results []CheckResult
	assertions := eq.Assertions()
	for i, s := range assertions {
		if b.incremental {
			fmt.Fprintf(b.out, "(push 1)\n")
		}
		fmt.Fprintf(b.out, "; assertion %d: %s\n", i, s.Msg)
		fmt.Fprintf(b.out, "(assert (not %s))\n", smtExpr(s.Cond))
		fmt.Fprintf(b.out, "(check-sat)\n")
		fmt.Fprintf(b.out, "(get-model)\n")
		if b.incremental {
			fmt.Fprintf(b.out, "(pop 1)\n")
		}
		results = append(results, CheckResult{Step: s, Verdict: Unknown})
	}

	return results, nil
}

func smtSort(t expr.Type) string {
	switch t {
	case expr.Bool:
		return "Bool"
	default:
		if t.Bits > 0 {
			return fmt.Sprintf("(_ BitVec %d)", t.Bits)
		}
		return "(_ BitVec 64)"
	}
}

// smtExpr renders e as an SMT-LIB2 s-expression. It covers the operator set
// package expr exposes (spec §3 "Expression"); array/struct theories are
// approximated with uninterpreted "with"/select-style applications, which
// is the same approximation the arrays-uf config key (spec §6) names.
func smtExpr(e expr.Expr) string {
	switch e.Kind() {
	case expr.KindSymbol:
		return "|" + e.Sym().Name + "|"
	case expr.KindConst:
		return smtConst(e)
	case expr.KindUnary:
		return fmt.Sprintf("(%s %s)", smtOp(e.Op()), smtExpr(e.Operands()[0]))
	case expr.KindBinary, expr.KindCompare:
		ops := e.Operands()
		return fmt.Sprintf("(%s %s %s)", smtOp(e.Op()), smtExpr(ops[0]), smtExpr(ops[1]))
	case expr.KindITE:
		ops := e.Operands()
		return fmt.Sprintf("(ite %s %s %s)", smtExpr(ops[0]), smtExpr(ops[1]), smtExpr(ops[2]))
	case expr.KindIndex:
		ops := e.Operands()
		return fmt.Sprintf("(select %s %s)", smtExpr(ops[0]), smtExpr(ops[1]))
	case expr.KindWith:
		ops := e.Operands()
		if e.Field() != "" {
			return fmt.Sprintf("(update-field |%s| %s %s)", e.Field(), smtExpr(ops[0]), smtExpr(ops[2]))
		}
		return fmt.Sprintf("(store %s %s %s)", smtExpr(ops[0]), smtExpr(ops[1]), smtExpr(ops[2]))
	case expr.KindMember:
		return fmt.Sprintf("(field-|%s| %s)", e.Field(), smtExpr(e.Operands()[0]))
	case expr.KindByteExtract:
		ops := e.Operands()
		return fmt.Sprintf("(byte-extract %s %s)", smtExpr(ops[0]), smtExpr(ops[1]))
	case expr.KindDeref:
		return fmt.Sprintf("(deref %s)", smtExpr(e.Operands()[0]))
	case expr.KindAddressOf:
		return fmt.Sprintf("(address-of %s)", smtExpr(e.Operands()[0]))
	case expr.KindTypecast:
		return smtExpr(e.Operands()[0])
	case expr.KindExists:
		return fmt.Sprintf("(exists ((|%s| %s)) %s)", e.BoundVar().Name, smtSort(e.BoundVar().Typ), smtExpr(e.Body()))
	case expr.KindForall:
		return fmt.Sprintf("(forall ((|%s| %s)) %s)", e.BoundVar().Name, smtSort(e.BoundVar().Typ), smtExpr(e.Body()))
	default:
		return "false"
	}
}

func smtConst(e expr.Expr) string {
	switch v := e.ConstVal().(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int, int64:
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func smtOp(op expr.Op) string {
	switch op {
	case expr.OpNot:
		return "not"
	case expr.OpNeg:
		return "-"
	case expr.OpAnd:
		return "and"
	case expr.OpOr:
		return "or"
	case expr.OpXor:
		return "xor"
	case expr.OpEq:
		return "="
	case expr.OpNeq:
		return "distinct"
	default:
		return string(op)
	}
}

var _ = strings.TrimSpace
