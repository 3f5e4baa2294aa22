package symex

import (
	"testing"

	"github.com/symwalk/symex/equation"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/state"
)

func TestStepStartThreadSpawnsRecordAtTarget(t *testing.T) {
	fn := gotoprog.NewBuilder("main").StartThread(3).Skip().Skip().Skip().Build()
	d := newDispatcher(fn)
	s := state.New("main", fn.EndPC(), false)

	reason, err := d.Step(s)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if reason != Continue {
		t.Errorf("Step(start_thread) = %v, want Continue", reason)
	}
	if s.Threads.Len() != 1 {
		t.Fatalf("Threads.Len() = %d, want 1", s.Threads.Len())
	}

	rec, ok := s.ThreadRecordByID(1)
	if !ok {
		t.Fatal("no thread record for id 1")
	}
	if rec.PC != 3 {
		t.Errorf("spawned thread's PC = %d, want 3", rec.PC)
	}
	if rec.AtomicSectionID != 0 {
		t.Errorf("spawned thread's AtomicSectionID = %d, want 0", rec.AtomicSectionID)
	}

	last := s.Equation.At(s.Equation.Len() - 1)
	if last.Kind != equation.StepThreadEvent || last.ThreadEvent != equation.ThreadSpawn || last.Thread != 1 {
		t.Errorf("last step = %+v, want a ThreadSpawn event for thread 1", last)
	}
}

func TestStepStartThreadAssignsIncrementingIDs(t *testing.T) {
	fn := gotoprog.NewBuilder("main").StartThread(1).StartThread(1).Skip().Build()
	d := newDispatcher(fn)
	s := state.New("main", fn.EndPC(), false)

	d.Step(s)
	d.Step(s)

	if s.Threads.Len() != 2 {
		t.Fatalf("Threads.Len() = %d, want 2", s.Threads.Len())
	}
	if _, ok := s.ThreadRecordByID(1); !ok {
		t.Error("expected a thread record for id 1")
	}
	if _, ok := s.ThreadRecordByID(2); !ok {
		t.Error("expected a thread record for id 2")
	}
}
