// Package fixtures hand-assembles small goto-programs with gotoprog.Builder,
// standing in for the external front end that would otherwise translate
// source into this IR (spec §1, "out of scope: producing goto-programs from
// source"). cmd/symex serves these by name until a real front end exists;
// the driver and symex packages never import this package directly, only
// cmd/symex and the test suites do.
package fixtures

import (
	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/utils/slices"
)

type entry struct {
	name  string
	build func() *gotoprog.Program
}

var registry = []entry{
	{"straight-line", straightLine},
	{"branch-merge", branchMerge},
	{"bounded-loop", boundedLoop},
	{"unbounded-loop", unboundedLoop},
	{"thread-race", threadRace},
	{"recursion", recursion},
}

// Names lists every fixture cmd/symex can run by name.
func Names() []string {
	names := make([]string, len(registry))
	for i, e := range registry {
		names[i] = e.name
	}
	return names
}

// Load builds the named fixture's Program, or reports false if name is
// unknown.
func Load(name string) (*gotoprog.Program, bool) {
	e, ok := slices.Find(registry, func(e entry) bool { return e.name == name })
	if !ok {
		return nil, false
	}
	return e.build(), true
}

var (
	x = expr.Symbol{Name: "x", Typ: expr.Int}
	y = expr.Symbol{Name: "y", Typ: expr.Int}
	i = expr.Symbol{Name: "i", Typ: expr.Int}
	n = expr.Symbol{Name: "n", Typ: expr.Int}
)

// straightLine: x := 1; y := x + 1; assert y == 2.
func straightLine() *gotoprog.Program {
	b := gotoprog.NewBuilder("main")
	b.Local(x).Local(y)
	b.Assign(expr.Sym(x), expr.Const(expr.Int, 1))
	b.Assign(expr.Sym(y), expr.Binary(expr.OpAdd, expr.Int, expr.Sym(x), expr.Const(expr.Int, 1)))
	b.Assert(expr.Compare(expr.OpEq, expr.Sym(y), expr.Const(expr.Int, 2)), "y is two")
	fn := b.Build()
	return &gotoprog.Program{Functions: map[string]*gotoprog.Function{"main": fn}, Entry: "main"}
}

// branchMerge: x := nondet; if x > 0 goto 4; y := -1; goto 5; y := 1; merge;
// assert y != 0. Exercises the symbolic-goto/phi path of §4.5.
func branchMerge() *gotoprog.Program {
	b := gotoprog.NewBuilder("main")
	b.Local(x).Local(y)
	b.Assign(expr.Sym(x), expr.Sym(expr.Symbol{Name: "nondet", Typ: expr.Int}))

	cond := expr.Compare(expr.OpGt, expr.Sym(x), expr.Const(expr.Int, 0))
	gotoPC := b.PC()
	b.Goto(cond, 0, 0) // target patched below once known

	b.Assign(expr.Sym(y), expr.Const(expr.Int, -1))
	jumpPC := b.PC()
	b.Goto(expr.True, 0, 0) // unconditional jump to merge point, patched below

	thenPC := b.PC()
	b.Assign(expr.Sym(y), expr.Const(expr.Int, 1))

	mergePC := b.PC()
	b.Assert(expr.Compare(expr.OpNeq, expr.Sym(y), expr.Const(expr.Int, 0)), "y is nonzero")

	fn := b.Build()
	fn.Body[gotoPC].Target = thenPC
	fn.Body[jumpPC].Target = mergePC
	return &gotoprog.Program{Functions: map[string]*gotoprog.Function{"main": fn}, Entry: "main"}
}

// boundedLoop: i := 0; n := 2; do { i := i + 1 } while (i < n); assert i == n, with the
// loop unwound under unwinding-assertions (spec §8 scenario "bounded
// unwinding").
func boundedLoop() *gotoprog.Program {
	b := gotoprog.NewBuilder("main")
	b.Local(i).Local(n)
	b.Assign(expr.Sym(i), expr.Const(expr.Int, 0))
	b.Assign(expr.Sym(n), expr.Const(expr.Int, 2))

	headerPC := b.PC()
	cond := expr.Compare(expr.OpLt, expr.Sym(i), expr.Sym(n))
	b.Assign(expr.Sym(i), expr.Binary(expr.OpAdd, expr.Int, expr.Sym(i), expr.Const(expr.Int, 1)))
	b.Goto(cond, headerPC, 1)

	b.Assert(expr.Compare(expr.OpEq, expr.Sym(i), expr.Sym(n)), "i reached n")
	fn := b.Build()
	return &gotoprog.Program{Functions: map[string]*gotoprog.Function{"main": fn}, Entry: "main"}
}

// unboundedLoop: while (true) { i := i + 1 }; assert false (unreachable).
// With partial-loops off, the default unwind bound cuts the path before the
// assertion is ever reached (spec §8 scenario "unbounded loop cut").
func unboundedLoop() *gotoprog.Program {
	b := gotoprog.NewBuilder("main")
	b.Local(i)
	b.Assign(expr.Sym(i), expr.Const(expr.Int, 0))

	headerPC := b.PC()
	b.Assign(expr.Sym(i), expr.Binary(expr.OpAdd, expr.Int, expr.Sym(i), expr.Const(expr.Int, 1)))
	b.Goto(expr.True, headerPC, 1)

	b.Assert(expr.False, "unreachable")
	fn := b.Build()
	return &gotoprog.Program{Functions: map[string]*gotoprog.Function{"main": fn}, Entry: "main"}
}

// threadRace spawns a second thread that writes x concurrently with the
// main thread's write, then asserts on the final value — exercising §4.7's
// interleaving and §8's "both interleavings emitted" scenario under -paths.
func threadRace() *gotoprog.Program {
	b := gotoprog.NewBuilder("main")
	b.Local(x)
	b.Assign(expr.Sym(x), expr.Const(expr.Int, 0))

	spawnPC := b.PC()
	b.StartThread(0) // patched below
	b.Assign(expr.Sym(x), expr.Const(expr.Int, 1))
	b.Assert(expr.Compare(expr.OpEq, expr.Sym(x), expr.Const(expr.Int, 1)), "main wrote last")
	b.EndFunction()

	childPC := b.PC()
	b.Assign(expr.Sym(x), expr.Const(expr.Int, 2))
	b.EndThread()

	fn := b.Build()
	fn.Body[spawnPC].Target = childPC
	return &gotoprog.Program{Functions: map[string]*gotoprog.Function{"main": fn}, Entry: "main"}
}

// recursion: main calling the recursive fact(3) twice in sequence,
// exercising §4.6's per-call locality instance so each activation's
// SSA-renamed locals stay disjoint from the other's (spec §8 "recursion
// locality").
func recursion() *gotoprog.Program {
	rb := gotoprog.NewBuilder("fact")
	rb.Param(n).Returns(expr.Int)
	cond := expr.Compare(expr.OpLe, expr.Sym(n), expr.Const(expr.Int, 1))
	skipPC := rb.PC()
	rb.Goto(cond, 0, 0)
	recLHS := expr.Sym(expr.Symbol{Name: "sub", Typ: expr.Int})
	rb.Call(&recLHS, "fact", expr.Binary(expr.OpSub, expr.Int, expr.Sym(n), expr.Const(expr.Int, 1)))
	rb.Return(expr.Binary(expr.OpMul, expr.Int, expr.Sym(n), recLHS))
	basePC := rb.PC()
	rb.Return(expr.Const(expr.Int, 1))
	factFn := rb.Build()
	factFn.Body[skipPC].Target = basePC

	mb := gotoprog.NewBuilder("main")
	r1 := expr.Sym(expr.Symbol{Name: "r1", Typ: expr.Int})
	r2 := expr.Sym(expr.Symbol{Name: "r2", Typ: expr.Int})
	mb.Local(r1.Sym()).Local(r2.Sym())
	mb.Call(&r1, "fact", expr.Const(expr.Int, 3))
	mb.Call(&r2, "fact", expr.Const(expr.Int, 3))
	mb.Assert(expr.Compare(expr.OpEq, r1, r2), "two activations agree")
	mainFn := mb.Build()

	return &gotoprog.Program{
		Functions: map[string]*gotoprog.Function{"main": mainFn, "fact": factFn},
		Entry:     "main",
	}
}
