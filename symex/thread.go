package symex

import (
	"github.com/benbjohnson/immutable"

	"github.com/symwalk/symex/equation"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/state"
)

// stepStartThread implements spec §4.7 "start_thread appends a new thread
// record with its own pc ... a copy of the parent guard, and atomic-section
// id 0". The spawned thread's call stack starts as a fresh single frame at
// the spawning thread's current function so that its own end_function eventually reports
// ThreadDone independent of the spawning thread's stack.
func (d *Dispatcher) stepStartThread(s *state.State, instr gotoprog.Instruction) {
	newThread := s.Threads.Len() + 1

	fn := d.currentFunction(s)
	frame := frameFor(fn, s.FreshInstance(fn.ID), newThread)
	stack := immutable.NewList[state.Frame]()
	stack = stack.Append(frame)

	s.Threads = s.Threads.Append(state.ThreadRecord{
		ID:              newThread,
		PC:              instr.Target,
		Function:        s.Function,
		AtomicSectionID: 0,
		Guard:           s.Guard,
		CallStack:       stack,
	})

	s.Equation.ThreadEvent(s.Source(), equation.ThreadSpawn, newThread)
}
