// Package state implements Component D: the per-path execution snapshot
// (spec §3 "State"). A State is immutable like the renamer it carries: every
// mutating operation returns an updated copy sharing structure with the
// receiver via `github.com/benbjohnson/immutable` persistent collections,
// which is what makes cloning a whole path at a symbolic branch (spec §3
// Lifecycle, §4.5 "two successor states") cheap.
package state

import (
	"fmt"

	"github.com/benbjohnson/immutable"

	"github.com/symwalk/symex/equation"
	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/guard"
	"github.com/symwalk/symex/ssa"
	"github.com/symwalk/symex/symtab"
	"github.com/symwalk/symex/valueset"
)

// Frame is one active call on a thread (spec §3 "Frame").
type Frame struct {
	Function string
	EndPC    gotoprog.PC
	Hidden   bool

	// LoopIters maps loop id to its current unwind count (spec §4.4).
	LoopIters *immutable.Map[int, int]

	// Locals lists the level-0 symbols declared in this frame, torn down on
	// return (spec §3 "local declarations to tear down on return").
	Locals []expr.Symbol

	// CallSitePC is the instruction the call came from, restored into the
	// caller frame's pc on end_function.
	CallSitePC gotoprog.PC

	// CallLHS is the caller-provided binding for the callee's return value,
	// nil for a discarded call result (spec §4.6 step 5, §4.3 "return").
	CallLHS *expr.Expr

	// HandlerStack is the throw/catch handler stack active for this frame
	// (spec §4.3 "throw / catch: maintain a per-frame handler stack").
	HandlerStack []gotoprog.PC
}

func newFrame(function string, endPC gotoprog.PC, hidden bool, callSite gotoprog.PC, callLHS *expr.Expr) Frame {
	return Frame{
		Function:   function,
		EndPC:      endPC,
		Hidden:     hidden,
		LoopIters:  immutable.NewMap[int, int](nil),
		CallSitePC: callSite,
		CallLHS:    callLHS,
	}
}

// ThreadRecord is the suspended execution context of one virtual thread not
// currently running (spec §3 "Thread record: program counter, atomic-section
// id, guard snapshot").
type ThreadRecord struct {
	ID              int
	PC              gotoprog.PC
	Function        string
	AtomicSectionID int
	Guard           guard.Guard
	CallStack       *immutable.List[Frame]
}

// Done reports whether this suspended thread has already run to completion
// (empty call stack or a false guard it can never escape), so the driver's
// round-robin can skip it rather than resume dead threads forever.
func (t ThreadRecord) Done() bool {
	return t.CallStack.Len() == 0 || t.Guard.IsFalse()
}

// State is the per-path execution snapshot (spec §3 "State").
type State struct {
	Symtab symtab.Table

	CallStack *immutable.List[Frame]

	// Threads holds every *other* thread's suspended record; thread 0 is the
	// initial thread and, when active, is represented by CallStack/PC/Guard
	// directly rather than an entry here (spec §4.7 "Threads are a vector").
	Threads *immutable.List[ThreadRecord]

	ActiveThread    int
	AtomicSectionID int

	PC       gotoprog.PC
	Function string

	Guard guard.Guard

	Renamer ssa.Renamer

	// ValueSets caches a per-function points-to analysis, computed lazily
	// and shared across paths (spec §3 "value-set/dirty caches per
	// function").
	ValueSets map[string]*valueset.Analysis

	ShouldPauseSymex bool

	Equation *equation.Equation

	nextInstance map[string]int // function id -> next fresh locality instance
	nextDynamic  map[string]int // tag -> next fresh dynamic-symbol counter

	// recursionDepth maps a function id to the number of its activations
	// currently on the call stack, the per-function counter spec §4.6's
	// recursion bound checks against the unwind bound (spec §4.4's
	// per-frame LoopIters is the analogous counter for loops).
	recursionDepth map[string]int
}

// New returns the initial state at entry, thread 0, pc 0 of the given
// function (spec §3 Lifecycle "created at the entry point").
func New(entryFunction string, endPC gotoprog.PC, hidden bool) *State {
	frame := newFrame(entryFunction, endPC, hidden, 0, nil)
	stack := immutable.NewList[Frame]()
	stack = stack.Append(frame)

	return &State{
		Symtab:         symtab.New(),
		CallStack:      stack,
		Threads:        immutable.NewList[ThreadRecord](),
		ActiveThread:   0,
		PC:             0,
		Function:       entryFunction,
		Guard:          guard.True,
		Renamer:        ssa.NewRenamer(),
		ValueSets:      map[string]*valueset.Analysis{},
		Equation:       &equation.Equation{},
		nextInstance:   map[string]int{},
		nextDynamic:    map[string]int{},
		recursionDepth: map[string]int{},
	}
}

// Clone produces an independent copy of s. Persistent collections are shared
// by reference until one side mutates them, so this is O(1) regardless of
// call-stack depth or symbol-table size (spec §3 Lifecycle "cloned when a
// goto is taken under path exploration").
func (s *State) Clone() *State {
	clone := *s
	clone.ValueSets = make(map[string]*valueset.Analysis, len(s.ValueSets))
	for k, v := range s.ValueSets {
		clone.ValueSets[k] = v
	}
	clone.nextInstance = make(map[string]int, len(s.nextInstance))
	for k, v := range s.nextInstance {
		clone.nextInstance[k] = v
	}
	clone.nextDynamic = make(map[string]int, len(s.nextDynamic))
	for k, v := range s.nextDynamic {
		clone.nextDynamic[k] = v
	}
	clone.recursionDepth = make(map[string]int, len(s.recursionDepth))
	for k, v := range s.recursionDepth {
		clone.recursionDepth[k] = v
	}
	return &clone
}

// TopFrame returns the active thread's innermost frame. Callers may rely on
// it never panicking while invariant 1 holds (non-empty call stack).
func (s *State) TopFrame() Frame {
	return s.CallStack.Get(s.CallStack.Len() - 1)
}

// PushFrame activates a new frame on top of the call stack (spec §4.6 step
// 3 "push a new frame").
func (s *State) PushFrame(f Frame) {
	s.CallStack = s.CallStack.Append(f)
}

// PopFrame removes the innermost frame, returning it (spec §4.6 "end_function ...
// pop the frame").
func (s *State) PopFrame() Frame {
	top := s.TopFrame()
	s.CallStack = s.CallStack.Slice(0, s.CallStack.Len()-1)
	return top
}

// SetTopFrame replaces the innermost frame, used when the dispatcher updates
// loop-iteration counters or the handler stack in place (spec §4.4, §4.3
// throw/catch).
func (s *State) SetTopFrame(f Frame) {
	s.CallStack = s.CallStack.Set(s.CallStack.Len()-1, f)
}

// FreshInstance allocates the next locality instance for function id (spec
// §4.6 "allocate fresh level-1 instances... the locality step").
func (s *State) FreshInstance(function string) int {
	n := s.nextInstance[function]
	s.nextInstance[function] = n + 1
	return n
}

// RecursionDepth reports how many activations of function are currently on
// the call stack (spec §4.6 "recursion is bounded analogously to loops via
// per-function unwind counts").
func (s *State) RecursionDepth(function string) int {
	return s.recursionDepth[function]
}

// EnterCall records one more active activation of function, called when
// stepCall pushes a frame for it.
func (s *State) EnterCall(function string) {
	s.recursionDepth[function]++
}

// LeaveCall records that one activation of function has ended, called when
// stepEndFunction pops its frame.
func (s *State) LeaveCall(function string) {
	if s.recursionDepth[function] > 0 {
		s.recursionDepth[function]--
	}
}

// NextDynamicSymbol allocates a fresh, uniquely-tagged dynamic symbol of
// type t (spec §9 "dynamic_counter... a field of the state (preferred)").
// Unlike FreshInstance (which disambiguates SSA instances of an existing
// program symbol), this mints brand new symbols that exist only because the
// dispatcher's "other" lowering (printf, input, allocate, ...) introduced
// them.
func (s *State) NextDynamicSymbol(tag string, t expr.Type) expr.Symbol {
	n := s.nextDynamic[tag]
	s.nextDynamic[tag] = n + 1
	return expr.Symbol{Name: fmt.Sprintf("%s#%d", tag, n), Typ: t}
}

// ValueSetFor lazily computes (and caches) the points-to analysis for fn.
func (s *State) ValueSetFor(fn *gotoprog.Function) *valueset.Analysis {
	if a, ok := s.ValueSets[fn.ID]; ok {
		return a
	}
	a := valueset.Analyze(fn)
	s.ValueSets[fn.ID] = a
	return a
}

// ActiveRecord snapshots the currently active thread's context as a
// ThreadRecord, for freezing into s.Threads at a switch.
func (s *State) ActiveRecord() ThreadRecord {
	return ThreadRecord{
		ID:              s.ActiveThread,
		PC:              s.PC,
		Function:        s.Function,
		AtomicSectionID: s.AtomicSectionID,
		Guard:           s.Guard,
		CallStack:       s.CallStack,
	}
}

// Activate installs rec as the running thread, returning the prior active
// context so the caller can store it back among s.Threads.
func (s *State) Activate(rec ThreadRecord) (previous ThreadRecord) {
	previous = s.ActiveRecord()
	s.ActiveThread = rec.ID
	s.PC = rec.PC
	s.Function = rec.Function
	s.AtomicSectionID = rec.AtomicSectionID
	s.Guard = rec.Guard
	s.CallStack = rec.CallStack
	return previous
}

// ThreadIDs returns the id of the active thread plus every suspended
// thread's id, in a stable order (active first, then s.Threads in list
// order), for the driver's round-robin scheduling (spec §4.7).
func (s *State) ThreadIDs() []int {
	ids := []int{s.ActiveThread}
	itr := s.Threads.Iterator()
	for !itr.Done() {
		_, rec := itr.Next()
		ids = append(ids, rec.ID)
	}
	return ids
}

// ReplaceThreadRecord overwrites (or appends, if absent) the suspended
// record for rec.ID among s.Threads.
func (s *State) ReplaceThreadRecord(rec ThreadRecord) {
	itr := s.Threads.Iterator()
	for !itr.Done() {
		i, existing := itr.Next()
		if existing.ID == rec.ID {
			s.Threads = s.Threads.Set(i, rec)
			return
		}
	}
	s.Threads = s.Threads.Append(rec)
}

// RemoveThreadRecord deletes the suspended record for id from s.Threads,
// once the driver has determined it will never be scheduled again.
func (s *State) RemoveThreadRecord(id int) {
	kept := immutable.NewList[ThreadRecord]()
	itr := s.Threads.Iterator()
	for !itr.Done() {
		_, existing := itr.Next()
		if existing.ID != id {
			kept = kept.Append(existing)
		}
	}
	s.Threads = kept
}

// ThreadRecordByID looks up a suspended thread's record.
func (s *State) ThreadRecordByID(id int) (ThreadRecord, bool) {
	itr := s.Threads.Iterator()
	for !itr.Done() {
		_, existing := itr.Next()
		if existing.ID == id {
			return existing, true
		}
	}
	return ThreadRecord{}, false
}

// Source returns the current (function, pc, thread) location (spec §3
// "Source location").
func (s *State) Source() equation.Source {
	return equation.Source{Function: s.Function, PC: s.PC, Thread: s.ActiveThread}
}
