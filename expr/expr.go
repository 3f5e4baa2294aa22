// Package expr implements the tagged expression tree described in spec §3:
// leaves are symbols, constants and typecasts; interior nodes are arithmetic,
// logical, comparison, array/struct access, dereference, address-of,
// quantifiers and if-then-else. Expressions are value types: sharing is by
// value, and renaming (package ssa) never mutates an expression in place.
package expr

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/symwalk/symex/utils"
)

// Kind identifies the shape of an expression node.
type Kind int

const (
	KindSymbol Kind = iota
	KindConst
	KindTypecast
	KindUnary
	KindBinary
	KindCompare
	KindIndex
	KindMember
	KindByteExtract // a `with`-style structural lhs/rhs over a byte range, spec §4.3's "byte-extract"
	KindDeref
	KindAddressOf
	KindITE
	KindExists
	KindForall
	KindWith // a[i] := v style functional update, produced by lowering (§4.3)
)

func (k Kind) String() string {
	switch k {
	case KindSymbol:
		return "symbol"
	case KindConst:
		return "const"
	case KindTypecast:
		return "typecast"
	case KindUnary:
		return "unary"
	case KindBinary:
		return "binary"
	case KindCompare:
		return "compare"
	case KindIndex:
		return "index"
	case KindMember:
		return "member"
	case KindByteExtract:
		return "byte-extract"
	case KindDeref:
		return "deref"
	case KindAddressOf:
		return "address-of"
	case KindITE:
		return "ite"
	case KindExists:
		return "exists"
	case KindForall:
		return "forall"
	case KindWith:
		return "with"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Type is a minimal stand-in for the external type-system collaborator
// (spec §1, "out of scope: the expression/type/symbol-table libraries"). It
// is only ever compared for identity/equality and printed.
type Type struct {
	Name string
	Bits int // 0 for non bit-vector types (bool, pointer, array/struct)
}

func (t Type) String() string { return t.Name }

var (
	Bool    = Type{Name: "bool"}
	Int     = Type{Name: "int", Bits: 32}
	Pointer = Type{Name: "pointer", Bits: 64}
)

func Array(elem Type) Type   { return Type{Name: "[]" + elem.Name} }
func Struct(name string) Type { return Type{Name: "struct " + name} }

// Op is the operator tag for unary/binary/compare nodes.
type Op string

const (
	OpNot Op = "!"
	OpNeg Op = "neg"

	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"
	OpMod Op = "%"
	OpAnd Op = "&&"
	OpOr  Op = "||"
	OpXor Op = "^"

	OpEq  Op = "=="
	OpNeq Op = "!="
	OpLt  Op = "<"
	OpLe  Op = "<="
	OpGt  Op = ">"
	OpGe  Op = ">="
)

// Expr is an immutable expression tree node. The zero value is not a valid
// expression; use the constructors below.
type Expr struct {
	kind Kind
	typ  Type

	// KindSymbol
	sym Symbol

	// KindConst
	constVal interface{}

	// KindUnary / KindBinary / KindCompare
	op       Op
	operands []Expr

	// KindTypecast / KindDeref / KindAddressOf: operands[0] is the operand

	// KindIndex: operands = [array, idx]
	// KindMember: operands[0] is the struct, field below
	field string

	// KindITE: operands = [cond, then, else]
	// KindWith: operands = [base, index-or-field-selector, value]; field set for member-with
	// KindByteExtract: operands = [base, offset]

	// KindExists / KindForall
	boundVar Symbol
	body     *Expr
}

// Symbol identifies a program variable. In this package it carries only the
// base name and type; SSA disambiguation (levels 0-2) is layered on top by
// package ssa.
type Symbol struct {
	Name string
	Typ  Type
}

func (s Symbol) String() string { return s.Name }

func (s Symbol) Hash() uint32 {
	return utils.HashCombine(utils.HashString(s.Name), utils.HashString(s.Typ.Name))
}

func (s Symbol) Equal(o Symbol) bool {
	return s.Name == o.Name && s.Typ == o.Typ
}

// Kind, Type report an expression's node kind and static type.
func (e Expr) Kind() Kind { return e.kind }
func (e Expr) Type() Type { return e.typ }

// Sym returns the embedded symbol; valid only for KindSymbol.
func (e Expr) Sym() Symbol { return e.sym }

// ConstVal returns the embedded literal value; valid only for KindConst.
func (e Expr) ConstVal() interface{} { return e.constVal }

// Op returns the embedded operator; valid for KindUnary/KindBinary/KindCompare.
func (e Expr) Op() Op { return e.op }

// Operands returns the child expressions, in a fixed per-kind order documented
// on each constructor below.
func (e Expr) Operands() []Expr { return e.operands }

// Field returns the struct field name; valid only for KindMember (and
// field-selecting KindWith nodes).
func (e Expr) Field() string { return e.field }

// BoundVar, Body expose a quantifier's bound variable and body.
func (e Expr) BoundVar() Symbol { return e.boundVar }
func (e Expr) Body() Expr       { return *e.body }

// Sym constructs a symbol leaf.
func Sym(s Symbol) Expr { return Expr{kind: KindSymbol, typ: s.Typ, sym: s} }

// Const constructs a constant leaf of the given type and value.
func Const(t Type, v interface{}) Expr { return Expr{kind: KindConst, typ: t, constVal: v} }

// True, False are the canonical boolean constants the guard algebra and the
// simplifier compare against.
var (
	True  = Const(Bool, true)
	False = Const(Bool, false)
)

// IsTrue, IsFalse recognize the canonical boolean literals after simplification.
func (e Expr) IsTrue() bool  { return e.kind == KindConst && e.typ == Bool && e.constVal == true }
func (e Expr) IsFalse() bool { return e.kind == KindConst && e.typ == Bool && e.constVal == false }

// Typecast constructs a typecast node.
func Typecast(t Type, operand Expr) Expr {
	return Expr{kind: KindTypecast, typ: t, operands: []Expr{operand}}
}

// Unary constructs a unary operator node.
func Unary(op Op, t Type, operand Expr) Expr {
	return Expr{kind: KindUnary, typ: t, op: op, operands: []Expr{operand}}
}

// Not is the common case of boolean negation.
func Not(e Expr) Expr { return Unary(OpNot, Bool, e) }

// Binary constructs a binary arithmetic/logical operator node.
func Binary(op Op, t Type, lhs, rhs Expr) Expr {
	return Expr{kind: KindBinary, typ: t, op: op, operands: []Expr{lhs, rhs}}
}

// And, Or are the common boolean binary connectives.
func And(lhs, rhs Expr) Expr { return Binary(OpAnd, Bool, lhs, rhs) }
func Or(lhs, rhs Expr) Expr  { return Binary(OpOr, Bool, lhs, rhs) }

// Compare constructs a comparison node (always of type Bool).
func Compare(op Op, lhs, rhs Expr) Expr {
	return Expr{kind: KindCompare, typ: Bool, op: op, operands: []Expr{lhs, rhs}}
}

// Index constructs an array-access node `array[idx]`.
func Index(elemType Type, array, idx Expr) Expr {
	return Expr{kind: KindIndex, typ: elemType, operands: []Expr{array, idx}}
}

// Member constructs a struct-field-access node `s.field`.
func Member(fieldType Type, s Expr, field string) Expr {
	return Expr{kind: KindMember, typ: fieldType, operands: []Expr{s}, field: field}
}

// ByteExtract constructs a byte-extract node `byte_extract(base, offset)` of
// result type t (spec §4.3's "byte-extract" structural lhs/rhs form).
// Endianness is not modeled: this package is a stand-in for the external
// expression/type-system collaborator (spec §1), so byte order is left to
// whatever back end eventually interprets the node.
func ByteExtract(t Type, base, offset Expr) Expr {
	return Expr{kind: KindByteExtract, typ: t, operands: []Expr{base, offset}}
}

// Deref constructs a pointer dereference node `*p`.
func Deref(t Type, p Expr) Expr {
	return Expr{kind: KindDeref, typ: t, operands: []Expr{p}}
}

// AddressOf constructs an address-of node `&e`.
func AddressOf(e Expr) Expr {
	return Expr{kind: KindAddressOf, typ: Pointer, operands: []Expr{e}}
}

// ITE constructs an if-then-else node.
func ITE(cond, then, els Expr) Expr {
	return Expr{kind: KindITE, typ: then.typ, operands: []Expr{cond, then, els}}
}

// With constructs a functional array/struct update node used by the
// assignment decomposition in §4.3: `with(base, selector, value)`.
// For array updates selector is the index expression; for struct updates
// selector is the zero expression and field names the updated member.
func With(base, selector, value Expr, field string) Expr {
	return Expr{kind: KindWith, typ: base.typ, operands: []Expr{base, selector, value}, field: field}
}

// Exists, Forall construct quantified expressions over a freshly bound symbol.
func Exists(bound Symbol, body Expr) Expr {
	return Expr{kind: KindExists, typ: Bool, boundVar: bound, body: &body}
}

func Forall(bound Symbol, body Expr) Expr {
	return Expr{kind: KindForall, typ: Bool, boundVar: bound, body: &body}
}

// Map rebuilds e with each operand (and, for quantifiers, the body) replaced
// by f(operand). Used by the SSA renamer (package ssa) to rewrite a local
// copy of an expression without mutating the original (§4.2 "purely
// functional per-expression").
func (e Expr) Map(f func(Expr) Expr) Expr {
	switch e.kind {
	case KindSymbol, KindConst:
		return e
	case KindExists, KindForall:
		newBody := f(*e.body)
		e.body = &newBody
		return e
	default:
		if len(e.operands) == 0 {
			return e
		}
		newOperands := make([]Expr, len(e.operands))
		for i, o := range e.operands {
			newOperands[i] = f(o)
		}
		e.operands = newOperands
		return e
	}
}

var (
	symColor  = utils.CanColorize(color.New(color.FgHiGreen).SprintFunc())
	opColor   = utils.CanColorize(color.New(color.FgHiWhite, color.Faint).SprintFunc())
	constColor = utils.CanColorize(color.New(color.FgHiCyan).SprintFunc())
)

// String renders the expression in infix form, wrapping every binary and
// comparison node in parentheses.
func (e Expr) String() string {
	switch e.kind {
	case KindSymbol:
		return symColor(e.sym.Name)
	case KindConst:
		return constColor(fmt.Sprintf("%v", e.constVal))
	case KindTypecast:
		return fmt.Sprintf("(%s)%s", e.typ, e.operands[0])
	case KindUnary:
		return opColor(string(e.op)) + e.operands[0].String()
	case KindBinary, KindCompare:
		return fmt.Sprintf("(%s %s %s)", e.operands[0], opColor(string(e.op)), e.operands[1])
	case KindIndex:
		return fmt.Sprintf("%s[%s]", e.operands[0], e.operands[1])
	case KindMember:
		return fmt.Sprintf("%s.%s", e.operands[0], e.field)
	case KindByteExtract:
		return fmt.Sprintf("byte_extract(%s, %s)", e.operands[0], e.operands[1])
	case KindDeref:
		return "*" + e.operands[0].String()
	case KindAddressOf:
		return "&" + e.operands[0].String()
	case KindITE:
		return fmt.Sprintf("(%s ? %s : %s)", e.operands[0], e.operands[1], e.operands[2])
	case KindWith:
		if e.field != "" {
			return fmt.Sprintf("with(%s, .%s, %s)", e.operands[0], e.field, e.operands[2])
		}
		return fmt.Sprintf("with(%s, %s, %s)", e.operands[0], e.operands[1], e.operands[2])
	case KindExists:
		return fmt.Sprintf("(exists %s . %s)", e.boundVar, e.body)
	case KindForall:
		return fmt.Sprintf("(forall %s . %s)", e.boundVar, e.body)
	default:
		return "<?expr?>"
	}
}

// PrettyPrint writes the expression to stdout, matching the teacher's
// PrettyPrint()-alongside-String() convention.
func (e Expr) PrettyPrint() {
	fmt.Println(e.String())
}

// Hash computes a structural hash, used for memoization keys and
// deduplication (e.g. guard conjunct dedup in package guard).
func (e Expr) Hash() uint32 {
	h := utils.HashCombine(uint32(e.kind), utils.HashString(e.typ.Name))
	switch e.kind {
	case KindSymbol:
		h = utils.HashCombine(h, e.sym.Hash())
	case KindConst:
		h = utils.HashCombine(h, utils.HashString(fmt.Sprintf("%v", e.constVal)))
	case KindExists, KindForall:
		h = utils.HashCombine(h, e.boundVar.Hash(), e.body.Hash())
	default:
		h = utils.HashCombine(h, utils.HashString(string(e.op)), utils.HashString(e.field))
		for _, o := range e.operands {
			h = utils.HashCombine(h, o.Hash())
		}
	}
	return h
}

// Equal performs structural equality.
func (e Expr) Equal(o Expr) bool {
	if e.kind != o.kind || e.typ != o.typ {
		return false
	}
	switch e.kind {
	case KindSymbol:
		return e.sym.Equal(o.sym)
	case KindConst:
		return fmt.Sprintf("%v", e.constVal) == fmt.Sprintf("%v", o.constVal)
	case KindExists, KindForall:
		return e.boundVar.Equal(o.boundVar) && e.body.Equal(*o.body)
	default:
		if e.op != o.op || e.field != o.field || len(e.operands) != len(o.operands) {
			return false
		}
		for i := range e.operands {
			if !e.operands[i].Equal(o.operands[i]) {
				return false
			}
		}
		return true
	}
}

// Walk calls visit for e and every descendant expression, depth-first.
func (e Expr) Walk(visit func(Expr)) {
	visit(e)
	switch e.kind {
	case KindExists, KindForall:
		e.body.Walk(visit)
	default:
		for _, o := range e.operands {
			o.Walk(visit)
		}
	}
}

// HasQuantifier reports whether e contains an exists/forall anywhere in its
// tree, used by the assert-lowering in package symex (§4.3).
func (e Expr) HasQuantifier() bool {
	found := false
	e.Walk(func(sub Expr) {
		if sub.kind == KindExists || sub.kind == KindForall {
			found = true
		}
	})
	return found
}

// join is a small helper used by callers that render operand lists.
func join(es []Expr, sep string) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}
