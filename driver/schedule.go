package driver

import (
	"sort"

	"github.com/symwalk/symex/config"
	"github.com/symwalk/symex/pathstore"
	"github.com/symwalk/symex/state"
)

// switchAfterThreadDone implements the deterministic half of spec §4.7's
// scheduling policy: once the active thread's call stack has fully emptied
// (symex.ThreadDone), round-robin to the lowest-numbered live suspended
// thread, if any. It is unconditional on atomic-section id because a
// thread that has finished cannot itself still be inside an atomic section
// (invariant 6); it is the *other* thread's atomic state (restored wholesale
// by Activate) that takes effect.
func switchAfterThreadDone(s *state.State) bool {
	next, ok := pickLiveThread(s)
	if !ok {
		return false
	}
	s.RemoveThreadRecord(next.ID)
	s.Activate(next)
	return true
}

// maybeSwitchThread implements the path-exploration half of spec §4.7 /
// §9's open question: with path exploration enabled, every step boundary
// where more than one thread is alive and no atomic section is open is
// itself treated as a branch point (like a symbolic goto, spec §4.5): one
// successor stays on the current thread, the other switches to the next
// live thread. Both are explored, which is what makes scenario §8.5 ("two
// interleavings, assertion reachable in at least one") actually produce
// both schedules rather than one fixed round-robin order. Without path
// exploration, scheduling is the deterministic round-robin in
// switchAfterThreadDone alone, satisfying §8 "Thread determinism" trivially
// (same config -> same single schedule every run).
func maybeSwitchThread(s *state.State, opts *config.Options, store *pathstore.Store) {
	if opts == nil || !opts.Paths {
		return
	}
	if s.AtomicSectionID > 0 {
		return
	}
	next, ok := pickLiveThread(s)
	if !ok {
		return
	}

	switched := s.Clone()
	switched.RemoveThreadRecord(next.ID)
	prev := switched.Activate(next)
	switched.ReplaceThreadRecord(prev)

	// The "stay" successor is the current s, continuing unmodified; the
	// "switch" successor is handed to path storage exactly like a taken
	// goto branch (spec §5 "suspends the current state to path storage").
	store.Suspend(switched)
}

// pickLiveThread returns the lowest-ID suspended thread that has not
// already run to completion (spec §8 "Thread determinism" wants a fixed,
// reproducible tie-break).
func pickLiveThread(s *state.State) (state.ThreadRecord, bool) {
	var live []state.ThreadRecord
	for _, id := range s.ThreadIDs() {
		if id == s.ActiveThread {
			continue
		}
		rec, ok := s.ThreadRecordByID(id)
		if ok && !rec.Done() {
			live = append(live, rec)
		}
	}
	if len(live) == 0 {
		return state.ThreadRecord{}, false
	}
	sort.Slice(live, func(i, j int) bool { return live[i].ID < live[j].ID })
	return live[0], true
}
