// Package gotoprog represents the goto-program intermediate representation
// the symbolic execution core consumes (spec §3, §6 "Inputs"). Producing
// this IR from source code is out of scope (spec §1); this package only
// defines the shape the driver walks, plus a small builder API used by tests
// to hand-assemble fixtures (spec §8 end-to-end scenarios).
package gotoprog

import (
	"fmt"

	"github.com/symwalk/symex/expr"
)

// Kind is the closed set of instruction kinds (spec §3 "Instruction kind").
type Kind int

const (
	Skip Kind = iota
	EndFunction
	Location
	Goto
	Assume
	Assert
	Return
	Assign
	FunctionCall
	Other
	Decl
	Dead
	StartThread
	EndThread
	AtomicBegin
	AtomicEnd
	Catch
	Throw
)

func (k Kind) String() string {
	names := [...]string{
		"SKIP", "END_FUNCTION", "LOCATION", "GOTO", "ASSUME", "ASSERT",
		"RETURN", "ASSIGN", "FUNCTION_CALL", "OTHER", "DECL", "DEAD",
		"START_THREAD", "END_THREAD", "ATOMIC_BEGIN", "ATOMIC_END", "CATCH", "THROW",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// OtherOp distinguishes the lowerings grouped under the Other instruction
// kind (spec §4.3 "other: printf-like emits, inputs/outputs, gcc builtins,
// allocate, cpp_new/delete").
type OtherOp int

const (
	OtherPrintf OtherOp = iota
	OtherInput
	OtherOutput
	OtherGCCBuiltinVaArgNext
	OtherAllocate
	OtherCppNew
	OtherCppDelete
)

// PC identifies an instruction within a function's body by index. It is the
// "program counter" component of a source location (spec §3).
type PC int

// Instruction is one step of a goto-program function body.
type Instruction struct {
	Kind Kind
	Pos  string // human-readable source position, opaque to the core

	// Assign
	LHS, RHS expr.Expr

	// Assume / Assert / Goto's condition
	Cond expr.Expr

	// Goto
	Target PC

	// Assert
	Msg string

	// FunctionCall
	CallLHS  *expr.Expr // nil if the call's result is discarded
	Callee   string
	CallArgs []expr.Expr

	// Decl / Dead / quantifier rewriting use Symbol
	Symbol expr.Symbol

	// StartThread: Target names the first instruction of the spawned thread.
	// LoopID identifies the loop a backwards Goto closes, for §4.4 bookkeeping.
	LoopID int

	// Other
	OtherOp  OtherOp
	OtherLHS *expr.Expr
	OtherArg expr.Expr

	// IncomingBackEdges lists the PCs of backwards gotos that target this
	// instruction, used by the loop-header detection in §4.4.
	IncomingBackEdges []PC
}

func (i Instruction) String() string {
	switch i.Kind {
	case Assign:
		return fmt.Sprintf("%s := %s", i.LHS, i.RHS)
	case Assume:
		return fmt.Sprintf("ASSUME %s", i.Cond)
	case Assert:
		return fmt.Sprintf("ASSERT %s (%s)", i.Cond, i.Msg)
	case Goto:
		return fmt.Sprintf("IF %s GOTO %d", i.Cond, i.Target)
	case FunctionCall:
		if i.CallLHS != nil {
			return fmt.Sprintf("%s := %s(...)", *i.CallLHS, i.Callee)
		}
		return fmt.Sprintf("%s(...)", i.Callee)
	case Decl:
		return fmt.Sprintf("DECL %s", i.Symbol)
	case Dead:
		return fmt.Sprintf("DEAD %s", i.Symbol)
	default:
		return i.Kind.String()
	}
}
