package ssa

import (
	"github.com/benbjohnson/immutable"

	"github.com/symwalk/symex/expr"
	"github.com/symwalk/symex/utils"
)

// Renamer is the persistent collection of renaming tables described in spec
// §3 ("three renamer tables") and §4.2. It is immutable: every mutating
// method returns a new Renamer sharing structure with the receiver, which is
// what lets package state clone a whole path's renaming context in O(log n)
// at a symbolic branch (spec §3 Lifecycle).
type Renamer struct {
	// level1 maps a base symbol name to its current (instance, thread) pair
	// within the active scope. Locality (spec §4.6) rewrites this entry with
	// a fresh instance at call/decl entry.
	level1 *immutable.Map[string, level1Entry]

	// level2 maps a level-1 key to its current write counter.
	level2 *immutable.Map[AtLevel1Key, int]

	// propagation is the constant-propagation side table (spec §4.2): it
	// maps a fully-renamed level-2 symbol to the constant expression a read
	// should resolve to, when propagation is known and enabled.
	propagation *immutable.Map[Symbol, expr.Expr]

	// dirty marks level-1 keys whose renaming has been invalidated by a
	// `dead` instruction (spec §4.3 "dead(x): invalidate the renaming of x").
	// A read after a key is dirty must produce a fresh non-deterministic
	// value rather than resolving through level2/propagation.
	dirty *immutable.Map[AtLevel1Key, bool]
}

type level1Entry struct {
	base             expr.Symbol
	instance, thread int
}

// NewRenamer returns the empty renamer: every symbol is still at level 0.
func NewRenamer() Renamer {
	return Renamer{
		level1:      immutable.NewMap[string, level1Entry](nil),
		level2:      utils.NewImmMap[AtLevel1Key, int](),
		propagation: utils.NewImmMap[Symbol, expr.Expr](),
		dirty:       utils.NewImmMap[AtLevel1Key, bool](),
	}
}

// FreshLevel1 allocates a new level-1 instance for base under the given
// thread, recording it as the symbol's current instance (spec §4.6
// "locality"). It returns the renamer updated with the new current instance,
// plus the level-1 symbol itself.
func (r Renamer) FreshLevel1(base expr.Symbol, thread int, instance int) (Renamer, Symbol) {
	r.level1 = r.level1.Set(base.Name, level1Entry{base: base, instance: instance, thread: thread})
	sym := Level0Of(base).AtLevel1(instance, thread)
	// A fresh instance starts with no writes yet; level-2 counter state for
	// this exact key is reset so recursion (spec §8 "Recursion soundness")
	// cannot see a stale counter from an unrelated prior activation.
	r.level2 = r.level2.Delete(sym.Level1Key())
	return r, sym
}

// CurrentLevel1 looks up the current level-1 symbol for base in the active
// scope. ok is false if base has never been declared/bound (a contract
// violation upstream per spec §7 "structural invariant violation").
func (r Renamer) CurrentLevel1(base expr.Symbol) (Symbol, bool) {
	entry, ok := r.level1.Get(base.Name)
	if !ok {
		return Symbol{}, false
	}
	return Level0Of(base).AtLevel1(entry.instance, entry.thread), true
}

// BumpLevel2 increments the write counter for the level-1 symbol sym and
// returns the renamer plus the freshly-written level-2 symbol (spec §4.2
// "Writes bump c once").
func (r Renamer) BumpLevel2(sym Symbol) (Renamer, Symbol) {
	key := sym.Level1Key()
	counter, _ := r.level2.Get(key)
	counter++
	r.level2 = r.level2.Set(key, counter)
	r.dirty = r.dirty.Delete(key)
	return r, sym.AtLevel2(counter)
}

// CurrentLevel2 renames sym (a level-1 symbol) to its current level-2
// counter, for use at a read (spec §4.2 "Reads use the current c").
// The second return reports whether the key has been invalidated by `dead`.
func (r Renamer) CurrentLevel2(sym Symbol) (result Symbol, isDirty bool) {
	key := sym.Level1Key()
	if dirty, _ := r.dirty.Get(key); dirty {
		return sym.AtLevel2(0), true
	}
	counter, ok := r.level2.Get(key)
	if !ok {
		counter = 0
	}
	return sym.AtLevel2(counter), false
}

// MarkDirty invalidates the renaming of a level-1 symbol so that subsequent
// reads produce fresh non-deterministic values (spec §4.3 "dead(x)").
func (r Renamer) MarkDirty(sym Symbol) Renamer {
	r.dirty = r.dirty.Set(sym.Level1Key(), true)
	return r
}

// Propagate records that the given fully-renamed level-2 symbol currently
// holds the known constant value c (spec §4.2 constant propagation side
// table).
func (r Renamer) Propagate(sym Symbol, c expr.Expr) Renamer {
	r.propagation = r.propagation.Set(sym, c)
	return r
}

// ResolveConstant looks up the constant-propagation side table for a fully
// renamed level-2 symbol. ok is false if no propagated value is known.
func (r Renamer) ResolveConstant(sym Symbol) (c expr.Expr, ok bool) {
	return r.propagation.Get(sym)
}

// EachLevel1 calls visit once per base symbol currently bound to a level-1
// instance, in unspecified order. Used by the goto-merge phi reconstruction
// (package symex) to enumerate the variables two incoming renamers might
// disagree on (spec §4.5 "for every variable whose level-2 counter
// differs...").
func (r Renamer) EachLevel1(visit func(base expr.Symbol, l1 Symbol)) {
	itr := r.level1.Iterator()
	for !itr.Done() {
		_, entry, ok := itr.Next()
		if !ok {
			continue
		}
		visit(entry.base, Level0Of(entry.base).AtLevel1(entry.instance, entry.thread))
	}
}

// Rename performs a full read-rename of e: every symbol leaf is rewritten
// from its base name to its current level-2 SSA symbol (resolving through
// constant propagation when `propagate` is true), purely functionally (spec
// §4.2 "Renaming is purely functional per-expression").
func (r Renamer) Rename(e expr.Expr, propagate bool) expr.Expr {
	if e.Kind() == expr.KindSymbol {
		l1, ok := r.CurrentLevel1(e.Sym())
		if !ok {
			// Never declared: treat as an external/global symbol, which is
			// stable at level 0 for the lifetime of the run.
			return e
		}
		l2, dirty := r.CurrentLevel2(l1)
		if dirty {
			return l2.Expr()
		}
		if propagate {
			if c, ok := r.ResolveConstant(l2); ok {
				return c
			}
		}
		return l2.Expr()
	}
	if e.Kind() == expr.KindExists || e.Kind() == expr.KindForall {
		// Quantified variables are renamed at level 1 only (spec §4.2) and
		// re-entered into the decl table by the caller (package symex) to
		// keep them unique; here we just rename the body as given.
		return e.Map(func(sub expr.Expr) expr.Expr { return r.Rename(sub, propagate) })
	}
	return e.Map(func(sub expr.Expr) expr.Expr { return r.Rename(sub, propagate) })
}
