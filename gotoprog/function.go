package gotoprog

import "github.com/symwalk/symex/expr"

// Function is one entry in the goto-program's function table (spec §3
// "each body is a sequence of instructions ... ; §6 Inputs: functions keyed
// by id").
type Function struct {
	ID     string
	Params []expr.Symbol
	Locals []expr.Symbol
	// RetType is the zero Type when the function returns nothing.
	RetType expr.Type
	Body    []Instruction
	// Hidden excludes assertions within this function from VCC generation
	// (spec §3 Frame "hidden flag").
	Hidden bool
}

// At returns the instruction at pc. Callers must ensure 0 <= pc < len(Body)
// (spec §3 invariant 2: "the current program counter is always within the
// function at the top frame").
func (f *Function) At(pc PC) Instruction {
	return f.Body[int(pc)]
}

// Len is the number of instructions in the function body.
func (f *Function) Len() PC { return PC(len(f.Body)) }

// EndPC is the program counter one past the function's last instruction,
// used as the frame's end-of-function marker (spec §3 Frame).
func (f *Function) EndPC() PC { return PC(len(f.Body)) }

// GetFunction is the driver's collaborator contract for retrieving function
// bodies by identifier (spec §2 "the driver asks a get_function callback").
type GetFunction func(id string) (*Function, bool)

// Program is a complete goto-program: a function table plus the entry point.
type Program struct {
	Functions map[string]*Function
	Entry     string
}

// GetFunction adapts a Program to the GetFunction callback shape.
func (p *Program) GetFunction(id string) (*Function, bool) {
	f, ok := p.Functions[id]
	return f, ok
}
