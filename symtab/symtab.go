// Package symtab implements the mutable symbol table for dynamically
// introduced names a state carries alongside the goto-program's static
// function/symbol declarations (spec §3 "mutable symbol table for
// dynamically introduced names"). Names are introduced by the dispatcher
// (package symex) when it materializes a fresh object — the value of a
// printf or output, an input, a va_arg value, an allocation — that has no
// counterpart in the original program.
package symtab

import "github.com/symwalk/symex/expr"

// Table is a persistent, append-mostly symbol table. It is immutable like
// every other piece of per-path state (spec §3 Lifecycle): Declare returns a
// new Table holding a copy of the old entries and never changes its
// receiver, which lets state.State clone a Table by value at a symbolic
// branch.
type Table struct {
	entries map[string]expr.Symbol
	order   []string
}

// New returns an empty dynamic symbol table.
func New() Table {
	return Table{entries: map[string]expr.Symbol{}}
}

// Declare registers a freshly introduced symbol, returning the updated table.
// Declaring a name that already exists overwrites its type, matching the
// dispatcher's re-use of synthesized names across unwound loop iterations.
func (t Table) Declare(s expr.Symbol) Table {
	entries := make(map[string]expr.Symbol, len(t.entries)+1)
	for k, v := range t.entries {
		entries[k] = v
	}
	if _, exists := entries[s.Name]; !exists {
		t.order = append(append([]string(nil), t.order...), s.Name)
	}
	entries[s.Name] = s
	return Table{entries: entries, order: t.order}
}

// Lookup returns the declared symbol for name, if any.
func (t Table) Lookup(name string) (expr.Symbol, bool) {
	s, ok := t.entries[name]
	return s, ok
}

// Len reports how many dynamic symbols have been declared.
func (t Table) Len() int { return len(t.entries) }

// Symbols returns every declared symbol in declaration order, for use by the
// solver façade's output symbol table (spec §6 "Outputs: ... an augmented
// symbol table of dynamically introduced names").
func (t Table) Symbols() []expr.Symbol {
	out := make([]expr.Symbol, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.entries[name])
	}
	return out
}
