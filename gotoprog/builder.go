package gotoprog

import (
	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/utils/graph"
)

// Builder hand-assembles a Function body, instruction by instruction. It
// exists because producing goto-programs from source is out of scope (spec
// §1); tests build small fixtures directly, in the spirit of the teacher's
// own CFG construction helpers (analysis/cfg's addNode/GetSynthetic).
type Builder struct {
	fn *Function
}

// NewBuilder starts building a function with the given identifier.
func NewBuilder(id string) *Builder {
	return &Builder{fn: &Function{ID: id}}
}

func (b *Builder) Param(s expr.Symbol) *Builder {
	b.fn.Params = append(b.fn.Params, s)
	return b
}

func (b *Builder) Local(s expr.Symbol) *Builder {
	b.fn.Locals = append(b.fn.Locals, s)
	return b
}

func (b *Builder) Returns(t expr.Type) *Builder {
	b.fn.RetType = t
	return b
}

func (b *Builder) Hidden() *Builder {
	b.fn.Hidden = true
	return b
}

// PC returns the program counter the next appended instruction will occupy,
// useful for wiring forward gotos before their target is known.
func (b *Builder) PC() PC { return PC(len(b.fn.Body)) }

func (b *Builder) add(i Instruction) *Builder {
	b.fn.Body = append(b.fn.Body, i)
	return b
}

func (b *Builder) Skip() *Builder             { return b.add(Instruction{Kind: Skip}) }
func (b *Builder) LocationI() *Builder        { return b.add(Instruction{Kind: Location}) }
func (b *Builder) Decl(s expr.Symbol) *Builder { return b.add(Instruction{Kind: Decl, Symbol: s}) }
func (b *Builder) Dead(s expr.Symbol) *Builder { return b.add(Instruction{Kind: Dead, Symbol: s}) }

func (b *Builder) Assign(lhs, rhs expr.Expr) *Builder {
	return b.add(Instruction{Kind: Assign, LHS: lhs, RHS: rhs})
}

func (b *Builder) Assume(cond expr.Expr) *Builder {
	return b.add(Instruction{Kind: Assume, Cond: cond})
}

func (b *Builder) Assert(cond expr.Expr, msg string) *Builder {
	return b.add(Instruction{Kind: Assert, Cond: cond, Msg: msg})
}

// Goto appends a conditional (or, with expr.True, unconditional) branch to
// target. Use PC() beforehand to compute forward targets, or pass the
// header's PC directly for a loop back-edge.
func (b *Builder) Goto(cond expr.Expr, target PC, loopID int) *Builder {
	return b.add(Instruction{Kind: Goto, Cond: cond, Target: target, LoopID: loopID})
}

func (b *Builder) Call(lhs *expr.Expr, callee string, args ...expr.Expr) *Builder {
	return b.add(Instruction{Kind: FunctionCall, CallLHS: lhs, Callee: callee, CallArgs: args})
}

func (b *Builder) Return(val expr.Expr) *Builder {
	return b.add(Instruction{Kind: Return, RHS: val})
}

func (b *Builder) EndFunction() *Builder { return b.add(Instruction{Kind: EndFunction}) }

func (b *Builder) StartThread(target PC) *Builder {
	return b.add(Instruction{Kind: StartThread, Target: target})
}
func (b *Builder) EndThread() *Builder   { return b.add(Instruction{Kind: EndThread}) }
func (b *Builder) AtomicBegin() *Builder { return b.add(Instruction{Kind: AtomicBegin}) }
func (b *Builder) AtomicEnd() *Builder   { return b.add(Instruction{Kind: AtomicEnd}) }
func (b *Builder) Throw() *Builder { return b.add(Instruction{Kind: Throw}) }

// Catch pushes handler as the active exception handler for the rest of the
// enclosing frame's lifetime (spec §4.6 "per-frame handler stack").
func (b *Builder) Catch(handler PC) *Builder {
	return b.add(Instruction{Kind: Catch, Target: handler})
}

func (b *Builder) Other(op OtherOp, lhs *expr.Expr, arg expr.Expr) *Builder {
	return b.add(Instruction{Kind: Other, OtherOp: op, OtherLHS: lhs, OtherArg: arg})
}

// Build finalizes the function: it appends a trailing EndFunction if the
// body doesn't already end with one, and computes incoming-backwards-edge
// metadata for loop-header detection (spec §4.4).
func (b *Builder) Build() *Function {
	if len(b.fn.Body) == 0 || b.fn.Body[len(b.fn.Body)-1].Kind != EndFunction {
		b.fn.Body = append(b.fn.Body, Instruction{Kind: EndFunction})
	}
	computeBackEdges(b.fn)
	return b.fn
}

// computeBackEdges scans every Goto instruction and records it against its
// target's IncomingBackEdges when the target dominates the goto (spec §4.4
// "detected by ... a backwards goto from a deeper or equal location"): a
// textually-earlier target is always a dominator in this straight-line IR,
// but routing the check through a real dominator tree (built with the
// teacher's generic graph utility) also gets loops reached only through an
// earlier unconditional jump right, which a bare "target <= pc" index
// comparison would miss.
func computeBackEdges(f *Function) {
	successors := func(pc PC) []PC {
		if int(pc) >= len(f.Body) {
			return nil
		}
		instr := f.Body[pc]
		switch instr.Kind {
		case EndFunction, Return, Throw:
			return nil
		case Goto:
			if instr.Cond.IsTrue() {
				return []PC{instr.Target}
			}
			if instr.Cond.IsFalse() {
				return []PC{pc + 1}
			}
			return []PC{pc + 1, instr.Target}
		case StartThread:
			// The spawned thread's body lives in the same function at
			// instr.Target; treat it as an extra edge so any loop inside it
			// still has a meaningful dominator relative to the spawn point.
			return []PC{pc + 1, instr.Target}
		default:
			return []PC{pc + 1}
		}
	}

	dom := graph.OfHashable[PC](successors).DominatorTree(0)

	dominates := func(target, pc PC) bool {
		if target == pc {
			return true
		}
		defer func() { recover() }() // unreachable nodes panic in DominatorTree; treat as "does not dominate"
		return dom(pc, target) == target
	}

	for pc, instr := range f.Body {
		if instr.Kind != Goto {
			continue
		}
		if dominates(instr.Target, PC(pc)) {
			tgt := f.Body[instr.Target]
			tgt.IncomingBackEdges = append(tgt.IncomingBackEdges, PC(pc))
			f.Body[instr.Target] = tgt
		}
	}
}
