// Package guard implements the guard algebra of spec §4.1: a symbolic
// predicate accumulated along a single execution path, represented as a
// conjunction list with opportunistic simplification.
package guard

import (
	"fmt"
	"strings"

	"github.com/symwalk/symex/expr"
)

// Guard is an immutable conjunction of expressions. The zero value is the
// trivially true guard.
type Guard struct {
	// isFalse is set once any conjunct simplifies to the constant false; at
	// that point conjuncts is cleared, since the whole conjunction collapses.
	isFalse  bool
	conjuncts []expr.Expr
}

// True is the guard accumulated at the entry of a path: no conditions assumed yet.
var True = Guard{}

// IsTrue reports whether the guard has no conjuncts (the trivial guard).
func (g Guard) IsTrue() bool { return !g.isFalse && len(g.conjuncts) == 0 }

// IsFalse reports whether the guard has collapsed to false, meaning the path
// it belongs to is infeasible (spec §3 invariant 5).
func (g Guard) IsFalse() bool { return g.isFalse }

// And appends e to the guard, applying the simplifications spec §4.1
// requires: an added false collapses the guard; a constant true is a no-op;
// identical conjuncts are deduplicated.
func (g Guard) And(e expr.Expr) Guard {
	if g.isFalse {
		return g
	}
	e = expr.Simplify(e)
	if e.IsTrue() {
		return g
	}
	if e.IsFalse() {
		return Guard{isFalse: true}
	}
	for _, c := range g.conjuncts {
		if c.Equal(e) {
			return g
		}
	}
	conjuncts := make([]expr.Expr, len(g.conjuncts), len(g.conjuncts)+1)
	copy(conjuncts, g.conjuncts)
	conjuncts = append(conjuncts, e)
	return Guard{conjuncts: conjuncts}
}

// AsExpr collapses the guard to a single boolean expression: the conjunction
// of all its conjuncts, or the literal false/true constant.
func (g Guard) AsExpr() expr.Expr {
	if g.isFalse {
		return expr.False
	}
	if len(g.conjuncts) == 0 {
		return expr.True
	}
	acc := g.conjuncts[0]
	for _, c := range g.conjuncts[1:] {
		acc = expr.And(acc, c)
	}
	return acc
}

// GuardExpr wraps e as the implication `guard => e`, used to turn an
// assertion into a proof obligation (spec §4.1, §4.3 "vcc").
func (g Guard) GuardExpr(e expr.Expr) expr.Expr {
	if g.IsTrue() {
		return e
	}
	return expr.Or(expr.Not(g.AsExpr()), e)
}

// Or combines two guards by disjunction, as required at a goto-merge (spec
// §4.5 "Merging: Guard: disjunction"). It simplifies away the join when one
// guard implies the other in the easy syntactic cases (one's conjunct list
// contains every conjunct of the other's, or one side is false/true).
func Or(g1, g2 Guard) Guard {
	switch {
	case g1.isFalse:
		return g2
	case g2.isFalse:
		return g1
	case g1.IsTrue() || g2.IsTrue():
		return True
	}
	if g1.implies(g2) {
		return g2
	}
	if g2.implies(g1) {
		return g1
	}
	return Guard{conjuncts: []expr.Expr{expr.Or(g1.AsExpr(), g2.AsExpr())}}
}

// implies reports whether every conjunct of g is also a conjunct of other,
// i.e. g's conjunction is a syntactic superset and therefore implies other.
func (g Guard) implies(other Guard) bool {
	if len(other.conjuncts) > len(g.conjuncts) {
		return false
	}
outer:
	for _, oc := range other.conjuncts {
		for _, gc := range g.conjuncts {
			if gc.Equal(oc) {
				continue outer
			}
		}
		return false
	}
	return true
}

// String renders the guard as its conjunction, for diagnostics.
func (g Guard) String() string {
	if g.isFalse {
		return "false"
	}
	if len(g.conjuncts) == 0 {
		return "true"
	}
	parts := make([]string, len(g.conjuncts))
	for i, c := range g.conjuncts {
		parts[i] = c.String()
	}
	return strings.Join(parts, " && ")
}

// PrettyPrint writes the guard to stdout.
func (g Guard) PrettyPrint() {
	fmt.Println(g.String())
}
