// Package driver implements Component H: the outer loop that invokes the
// step dispatcher (package symex) until a path's call stack empties or
// execution is paused for path exploration (spec §2, §4.7, §5).
package driver

import (
	"fmt"

	"github.com/symwalk/symex/config"
	"github.com/symwalk/symex/equation"
	"github.com/symwalk/symex/gotoprog"
	"github.com/symwalk/symex/internal/logging"
	"github.com/symwalk/symex/pathstore"
	"github.com/symwalk/symex/state"
	"github.com/symwalk/symex/symex"
	"github.com/symwalk/symex/symtab"
)

// Result is one fully-run path's output (spec §6 "Outputs"): its equation,
// the augmented dynamic symbol table, and the VCC counters.
type Result struct {
	Equation      *equation.Equation
	Symtab        symtab.Table
	TotalVCCs     int
	RemainingVCCs int
}

// Run drives prog from its entry point to completion, exploring every
// feasible path spec §2's data-flow paragraph describes. With
// opts.Paths disabled, exactly one Result is returned (the single
// deterministically-scheduled path); with it enabled, one Result per
// explored path (spec §2 "Path exploration").
func Run(prog *gotoprog.Program, opts *config.Options) ([]Result, error) {
	results, _, err := RunTraced(prog, opts)
	return results, err
}

// RunTraced behaves exactly like Run but also returns the pathstore.Store
// used along the way, so a caller can render the suspended-path tree with
// Store.Visualize after the run completes.
func RunTraced(prog *gotoprog.Program, opts *config.Options) ([]Result, *pathstore.Store, error) {
	if opts == nil {
		opts = config.Default()
	}
	log := logging.New(opts.DebugLevel)

	entryFn, ok := prog.GetFunction(prog.Entry)
	if !ok {
		return nil, nil, fmt.Errorf("driver: no entry point %q", prog.Entry)
	}

	store := pathstore.New()
	var results []Result

	initial := state.New(prog.Entry, entryFn.EndPC(), entryFn.Hidden)
	if err := runPath(initial, prog, opts, store, log, &results); err != nil {
		return nil, nil, err
	}

	for !store.IsEmpty() {
		next, _ := store.Resume()
		log.Debugf(1, "resuming suspended path (%d still queued)", store.Len())
		if err := runPath(next, prog, opts, store, log, &results); err != nil {
			return nil, nil, err
		}
	}

	return results, store, nil
}

// runPath steps s to completion (or until it pauses to suspend a branch),
// appending its Result when it finishes. Any branch it suspends along the
// way is handed to store rather than run eagerly, so paths complete in the
// queue order pathstore.Store hands them back (spec §5).
func runPath(s *state.State, prog *gotoprog.Program, opts *config.Options, store *pathstore.Store, log *logging.Logger, results *[]Result) error {
	disp := &symex.Dispatcher{GetFunction: prog.GetFunction, Opts: opts}
	if opts.Paths {
		disp.Branches = func(taken *state.State, atPC gotoprog.PC) {
			store.Suspend(taken)
		}
	}

	steps := uint(0)
stepLoop:
	for {
		disp.MultiThreaded = s.Threads.Len() > 0

		if opts.Depth > 0 && steps >= opts.Depth {
			log.Debugf(2, "path cut at configured depth %d", opts.Depth)
			break stepLoop
		}
		steps++

		maybeSwitchThread(s, opts, store)

		reason, err := disp.Step(s)
		if err != nil {
			return fmt.Errorf("driver: %w", err)
		}

		switch reason {
		case symex.Paused:
			return nil
		case symex.ThreadDone:
			if switchAfterThreadDone(s) {
				continue stepLoop
			}
			break stepLoop
		default:
			continue stepLoop
		}
	}

	*results = append(*results, Result{
		Equation:      s.Equation,
		Symtab:        s.Symtab,
		TotalVCCs:     s.Equation.TotalVCCs(),
		RemainingVCCs: s.Equation.RemainingVCCs(),
	})
	return nil
}
