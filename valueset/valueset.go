// Package valueset implements Component C: a lightweight, flow-insensitive
// dataflow supplying dereference candidates per pointer symbol (spec §3
// "value-set/safe-pointer analysis"). It is deliberately conservative rather
// than precise: every symbol whose address is ever taken, or that is ever
// assigned into the same pointer-typed variable, ends up in one shared
// points-to class, which the dispatcher (package symex) consults when
// lowering a dereference into a guarded case split over its candidates
// (spec §4.3 "dereference lowering").
//
// The union-find construction mirrors the teacher's own partition-set
// machinery over `github.com/spakin/disjoint` elements.
package valueset

import (
	uf "github.com/spakin/disjoint"

	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
)

// Analysis holds, for one function body, the points-to partition computed
// over its instructions.
type Analysis struct {
	elements map[string]*uf.Element // base symbol name -> union-find element
	symbols  map[string]expr.Symbol // base symbol name -> its declared Symbol
}

// Analyze runs the single-pass union-find construction over fn's body,
// unioning:
//   - p and x whenever p := &x (p may subsequently alias x);
//   - p and q whenever p := q and both are pointer-typed (copy propagation of
//     a points-to set).
//
// Only a bare symbol on either side of an assignment is considered; fields
// and elements of struct- or array-typed pointees are not unioned.
func Analyze(fn *gotoprog.Function) *Analysis {
	a := &Analysis{
		elements: make(map[string]*uf.Element),
		symbols:  make(map[string]expr.Symbol),
	}

	declare := func(s expr.Symbol) *uf.Element {
		if el, ok := a.elements[s.Name]; ok {
			return el
		}
		el := uf.NewElement()
		el.Data = s.Name
		a.elements[s.Name] = el
		a.symbols[s.Name] = s
		return el
	}

	for _, p := range fn.Params {
		declare(p)
	}
	for _, l := range fn.Locals {
		declare(l)
	}

	union := func(a1, a2 *uf.Element) { uf.Union(a1, a2) }

	for _, instr := range fn.Body {
		if instr.Kind != gotoprog.Assign {
			continue
		}
		lhsSym, ok := baseSymbol(instr.LHS)
		if !ok {
			continue
		}
		lhsEl := declare(lhsSym)

		switch instr.RHS.Kind() {
		case expr.KindAddressOf:
			if sym, ok := baseSymbol(indexOperand(instr.RHS, 0)); ok {
				union(lhsEl, declare(sym))
			}
		case expr.KindSymbol:
			if rhsSym, ok := baseSymbol(instr.RHS); ok && rhsSym.Typ == expr.Pointer {
				union(lhsEl, declare(rhsSym))
			}
		}
	}

	return a
}

// baseSymbol returns the program symbol of a bare symbol expression; any
// other expression, a dereference included, yields false.
func baseSymbol(e expr.Expr) (expr.Symbol, bool) {
	if e.Kind() == expr.KindSymbol {
		return e.Sym(), true
	}
	return expr.Symbol{}, false
}

func indexOperand(e expr.Expr, i int) expr.Expr {
	ops := e.Operands()
	if i < len(ops) {
		return ops[i]
	}
	return expr.Expr{}
}

// Candidates returns every symbol this analysis believes ptr may alias,
// including ptr itself. A nil result means ptr was never registered (e.g. a
// parameter of an unanalyzed callee); the dispatcher then writes to a single
// synthesized fallback object, or drops the write under
// allow-pointer-unsoundness.
func (a *Analysis) Candidates(ptr expr.Symbol) []expr.Symbol {
	el, ok := a.elements[ptr.Name]
	if !ok {
		return nil
	}
	rep := el.Find()

	var out []expr.Symbol
	for name, e := range a.elements {
		if e.Find() == rep {
			out = append(out, a.symbols[name])
		}
	}
	return out
}
