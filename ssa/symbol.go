// Package ssa maintains the three SSA renaming levels described in spec
// §4.2: level 0 is the original program symbol, level 1 disambiguates
// per-call instances and thread tags (recursion locality, §4.6), and level 2
// adds a write counter. Constant propagation is a side table over level-2
// symbols.
package ssa

import (
	"fmt"

	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/utils"
)

// Symbol is an expr.Symbol annotated with the three SSA level tags (spec
// §3 "An SSA symbol is a symbol annotated with three level tags").
type Symbol struct {
	Base     expr.Symbol
	Instance int // level 1: per-call instance, disambiguates recursion
	Thread   int // level 1: thread tag
	Counter  int // level 2: write counter, -1 means "not level-2 renamed"
}

// Level reports how far a symbol has been renamed.
type Level int

const (
	Level0 Level = iota
	Level1
	Level2
)

// Level0Of strips all renaming, returning the bare program symbol (spec
// §4.2 "x"). Its Instance is -1, which marks it as not level-1 renamed.
func Level0Of(base expr.Symbol) Symbol {
	return Symbol{Base: base, Instance: -1, Counter: -1}
}

// AtLevel1 returns the receiver renamed to level 1 (spec §4.2 "x!i@k").
func (s Symbol) AtLevel1(instance, thread int) Symbol {
	return Symbol{Base: s.Base, Instance: instance, Thread: thread, Counter: -1}
}

// AtLevel2 returns the receiver renamed to level 2 with the given write
// counter (spec §4.2 "x!i@k#c").
func (s Symbol) AtLevel2(counter int) Symbol {
	s.Counter = counter
	return s
}

// Level reports which renaming level the symbol is currently at.
func (s Symbol) Level() Level {
	if s.Counter < 0 {
		if s.Instance < 0 {
			return Level0
		}
		return Level1
	}
	return Level2
}

// String renders the symbol using the spec's own notation: x, x!i@k, x!i@k#c.
func (s Symbol) String() string {
	switch s.Level() {
	case Level0:
		return s.Base.Name
	case Level1:
		return fmt.Sprintf("%s!%d@%d", s.Base.Name, s.Instance, s.Thread)
	default:
		return fmt.Sprintf("%s!%d@%d#%d", s.Base.Name, s.Instance, s.Thread, s.Counter)
	}
}

// Expr wraps the SSA symbol back into an expr.Expr leaf, renaming its name to
// the rendered SSA string so that it round-trips through the expression tree
// and the downstream equation/solver layers uniformly.
func (s Symbol) Expr() expr.Expr {
	return expr.Sym(expr.Symbol{Name: s.String(), Typ: s.Base.Typ})
}

func (s Symbol) Hash() uint32 {
	return utils.HashCombine(
		s.Base.Hash(),
		utils.HashInt(s.Instance),
		utils.HashInt(s.Thread),
		utils.HashInt(s.Counter),
	)
}

func (s Symbol) Equal(o Symbol) bool {
	return s.Base.Equal(o.Base) && s.Instance == o.Instance &&
		s.Thread == o.Thread && s.Counter == o.Counter
}

// AtLevel1Key identifies a symbol up to (base, instance, thread), ignoring
// the level-2 counter; used as the renamer table's level-1 -> level-2 map key.
type AtLevel1Key struct {
	Base     expr.Symbol
	Instance int
	Thread   int
}

func (s Symbol) Level1Key() AtLevel1Key {
	return AtLevel1Key{Base: s.Base, Instance: s.Instance, Thread: s.Thread}
}

func (k AtLevel1Key) Hash() uint32 {
	return utils.HashCombine(k.Base.Hash(), utils.HashInt(k.Instance), utils.HashInt(k.Thread))
}

func (k AtLevel1Key) Equal(o AtLevel1Key) bool {
	return k.Base.Equal(o.Base) && k.Instance == o.Instance && k.Thread == o.Thread
}
