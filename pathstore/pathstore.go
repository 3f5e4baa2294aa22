// Package pathstore implements Component G: the queue of suspended states
// at branch points when path exploration is enabled (spec §3 "Path
// storage", §5 "Suspension points"). It is built directly on the teacher's
// own generic FIFO worklist (utils/worklist), which is exactly the "queue"
// shape spec.md asks for.
package pathstore

import (
	"github.com/symwalk/symex/equation"
	"github.com/symwalk/symex/state"
	"github.com/symwalk/symex/utils/worklist"
)

// Store holds states suspended at a branch (spec §4.5, §4.7) awaiting
// resumption. It is not safe for concurrent use; the driver is the sole
// owner, matching spec §5 "the state is owned by the driver".
type Store struct {
	pending worklist.Worklist[*state.State]
	count   int
	history []branch
}

// New returns an empty path store.
func New() *Store {
	return &Store{pending: worklist.Empty[*state.State]()}
}

// Suspend adds a state to the store (spec §5 "suspends the current state to
// path storage").
func (st *Store) Suspend(s *state.State) {
	st.pending.Add(s)
	st.count++
	st.history = append(st.history, branch{id: len(st.history), note: s.Source().String()})
}

// IsEmpty reports whether any suspended state remains.
func (st *Store) IsEmpty() bool { return st.pending.IsEmpty() }

// Len reports how many states are currently suspended.
func (st *Store) Len() int { return st.count }

// Resume pops the next suspended state (FIFO order) and re-seats it on a
// fresh equation object, since equations do not survive across paths (spec
// §5 "resume_from_saved_state, which re-seats the state on a fresh equation
// object"). The state's own history up to the branch point is otherwise
// preserved in full (renamer, guard, call stack, value-sets).
func (st *Store) Resume() (*state.State, bool) {
	if st.pending.IsEmpty() {
		return nil, false
	}
	s := st.pending.GetNext()
	st.count--
	s.Equation = &equation.Equation{}
	s.ShouldPauseSymex = false
	return s, true
}
