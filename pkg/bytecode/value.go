/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

package bytecode

import "fmt"

// Kind identifies what is stored inside a Value.
type Kind int

const (
	KindUnbound Kind = iota
	KindBool
	KindInt
	KindSymbol
	KindKeyword
	KindProcedure
	KindOpaque
	KindContinuation
	KindNil
	KindPair
)

// Value is the single word type the value stack is made of: every local,
// every argument, every linkage slot, every piece of engine bookkeeping
// that lives on the stack is a Value. It wraps whatever native Go data the
// kind needs, the same way a tagged machine word would.
type Value struct {
	kind    Kind
	boolean bool
	integer int
	symbol  string
	proc    *Procedure
	opaque  any
	pair    *Pair
}

// Unbound is the sentinel value used for uninitialized fluids, unfilled
// local slots, and similar "there's nothing here" situations.
var Unbound = Value{kind: KindUnbound}

// False and True are the two boolean values. Scheme's only false-y value
// is #f; everything else -- including 0 and the empty list -- is truthy.
var False = Value{kind: KindBool, boolean: false}
var True = Value{kind: KindBool, boolean: true}

func NewBool(b bool) Value {
	if b {
		return True
	}
	return False
}

func NewInt(n int) Value {
	return Value{kind: KindInt, integer: n}
}

func NewSymbol(s string) Value {
	return Value{kind: KindSymbol, symbol: s}
}

// NewKeyword creates the keyword written #:name in source syntax. Keywords
// are self-evaluating markers used in keyword-argument lists; they are a
// distinct kind from symbols so a procedure can tell "the caller passed the
// symbol color" apart from "the caller is naming the color argument".
func NewKeyword(name string) Value {
	return Value{kind: KindKeyword, symbol: name}
}

func NewProcedure(p *Procedure) Value {
	return Value{kind: KindProcedure, proc: p}
}

// NewOpaque wraps an arbitrary Go value -- a dynstack winder handle or
// similar -- that a VM-level collaborator needs to carry on the value stack
// without bytecode needing to know its shape.
func NewOpaque(v any) Value {
	return Value{kind: KindOpaque, opaque: v}
}

// NewContinuation wraps a captured continuation (either a *FullContinuation
// or a *PartialContinuation from pkg/vm) as an applicable Value. The VM
// core is the only thing that knows how to unpack it; bytecode just passes
// it around and applies it like any other callee.
func NewContinuation(c any) Value {
	return Value{kind: KindContinuation, opaque: c}
}

// Nil is the empty list, the proper terminator of a Pair chain.
var Nil = Value{kind: KindNil}

// Pair is a cons cell: the building block of Scheme lists. A proper list is
// a chain of Pairs ending in Nil; anything else ending the chain makes it
// improper.
type Pair struct {
	Car Value
	Cdr Value
}

// NewPair conses car onto cdr.
func NewPair(car, cdr Value) Value {
	return Value{kind: KindPair, pair: &Pair{Car: car, Cdr: cdr}}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUnbound() bool      { return v.kind == KindUnbound }
func (v Value) IsBool() bool         { return v.kind == KindBool }
func (v Value) IsInt() bool          { return v.kind == KindInt }
func (v Value) IsSymbol() bool       { return v.kind == KindSymbol }
func (v Value) IsKeyword() bool      { return v.kind == KindKeyword }
func (v Value) IsProcedure() bool    { return v.kind == KindProcedure }
func (v Value) IsOpaque() bool       { return v.kind == KindOpaque }
func (v Value) IsContinuation() bool { return v.kind == KindContinuation }
func (v Value) IsNil() bool          { return v.kind == KindNil }
func (v Value) IsPair() bool         { return v.kind == KindPair }

// IsTruthy reports whether v counts as true in a conditional context.
// Only #f is false; everything else, including 0, is truthy.
func (v Value) IsTruthy() bool {
	return !(v.kind == KindBool && !v.boolean)
}

func (v Value) AsBool() bool { return v.boolean }
func (v Value) AsInt() int   { return v.integer }

func (v Value) AsSymbol() string { return v.symbol }

func (v Value) AsKeyword() string { return v.symbol }

func (v Value) AsProcedure() *Procedure { return v.proc }

func (v Value) AsOpaque() any { return v.opaque }

// AsContinuation returns the captured continuation wrapped by v (a
// *vm.FullContinuation or *vm.PartialContinuation), or nil if v doesn't
// wrap one.
func (v Value) AsContinuation() any { return v.opaque }

func (v Value) AsPair() *Pair { return v.pair }

func (v Value) String() string {
	switch v.kind {
	case KindUnbound:
		return "#<unbound>"
	case KindBool:
		if v.boolean {
			return "#t"
		}
		return "#f"
	case KindInt:
		return fmt.Sprintf("%d", v.integer)
	case KindSymbol:
		return v.symbol
	case KindKeyword:
		return "#:" + v.symbol
	case KindProcedure:
		return v.proc.String()
	case KindOpaque:
		return fmt.Sprintf("#<opaque %v>", v.opaque)
	case KindContinuation:
		return "#<continuation>"
	case KindNil:
		return "()"
	case KindPair:
		return fmt.Sprintf("(%v . %v)", v.pair.Car, v.pair.Cdr)
	default:
		return "#<invalid-value>"
	}
}

// Uncons walks a chain of Pairs starting at v, collecting Car values until
// it reaches something that isn't a Pair. It returns the elements collected
// so far and whatever the chain ended on: Nil for a proper list, anything
// else for an improper one (including v itself, unchanged, when v is not a
// Pair to begin with and elems is empty).
func Uncons(v Value) (elems []Value, tail Value) {
	for v.IsPair() {
		elems = append(elems, v.pair.Car)
		v = v.pair.Cdr
	}
	return elems, v
}

// Procedure is a callable entity: either ordinary bytecode living at some
// offset in a Program's flat Code, or one of the VM-resident builtins
// identified by index (see pkg/vm/builtins.go).
type Procedure struct {
	// Name is used for error messages and disassembly; it's not otherwise
	// load-bearing.
	Name string

	// Entry is the code offset (an index into Program.Code) where this
	// procedure's body starts. Meaningless when IsBuiltin is true.
	Entry int

	// IsBuiltin marks one of the five VM-resident builtins. BuiltinIndex
	// then identifies which one; Entry is unused.
	IsBuiltin    bool
	BuiltinIndex int

	// Arity, carried for WrongNumArgs/TooManyArgs checking at call sites.
	Required int
	Optional int
	Rest     bool

	// Keywords names the keyword arguments this procedure accepts, in the
	// order their binding slots follow its positional locals. Only
	// meaningful for procedures whose body starts with an OpBindKwargs;
	// empty for everything else.
	Keywords []string
}

func (p *Procedure) String() string {
	if p.IsBuiltin {
		return fmt.Sprintf("#<builtin %s>", p.Name)
	}
	return fmt.Sprintf("#<procedure %s@%d>", p.Name, p.Entry)
}

// AcceptsArgCount reports whether calling p with n arguments satisfies its
// declared arity.
func (p *Procedure) AcceptsArgCount(n int) bool {
	if n < p.Required {
		return false
	}
	if p.Rest {
		return true
	}
	return n <= p.Required+p.Optional
}
