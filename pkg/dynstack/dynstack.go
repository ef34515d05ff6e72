/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

// Package dynstack implements the dynamic-environment stack that drives
// Kestrel's abort-to-prompt control operator: the nested record of
// dynamic-wind winders and delimited-continuation prompts a computation is
// currently inside of. The VM core (pkg/vm) owns the value stack and the
// instruction dispatch loop; it drives this stack but doesn't define it,
// exactly as a prompt/abort implementation sits above the bare capture
// primitives in the system this core is modeled on.
package dynstack

import "github.com/kestrel-lang/kestrel/pkg/bytecode"

// Entry is either a Winder or a Prompt, pushed onto a Stack in the order
// the computation entered them.
type Entry interface {
	entry()
}

// Winder records a dynamic-wind: Before was already run; After must run
// when control escapes outward past this point, whether by a normal
// return, a non-local exit via abort-to-prompt, or continuation
// reinstatement unwinding through it.
//
// Before/After are plain Go closures rather than callable bytecode.Value
// procedures. The thunks a real dynamic-wind would run are themselves
// compiled guest code, but invoking compiled code from here would mean
// re-entering the instruction dispatch loop in the middle of an opcode
// handler -- exactly the kind of engine-body machinery SPEC_FULL.md scopes
// out of this core. Since this package already stands in for an external
// collaborator (see the package doc), closures are the natural boundary:
// whatever builds a Winder decides what "run the thunk" means.
type Winder struct {
	Before func()
	After  func()
}

func (*Winder) entry() {}

// Prompt marks a delimited-continuation boundary established by
// call-with-prompt (outside this core's scope -- see SPEC_FULL.md), tagged
// so abort-to-prompt can find it. FP and SP are the value-stack cursors as
// they stood when the prompt was pushed; a partial continuation captured
// by an abort reaching this prompt spans the stack from FP up to the
// aborting frame. HandlerRA is
// the code offset abort-to-prompt transfers control to: the instruction
// the prompt's (out-of-scope) establishing code arranged to run with the
// delivered values and the captured partial continuation on top of stack.
type Prompt struct {
	Tag       bytecode.Value
	FP        int
	SP        int
	HandlerRA int
}

func (*Prompt) entry() {}

// Stack is the dynamic-environment stack itself: a simple LIFO of Entry
// values. The VM pushes a Winder or Prompt as control enters their scope,
// and pops them again as control leaves it, whether by falling off the end
// or by abort-to-prompt unwinding several levels at once.
type Stack struct {
	entries []Entry
}

func New() *Stack {
	return &Stack{}
}

func (s *Stack) Push(e Entry) {
	s.entries = append(s.entries, e)
}

// Pop removes and returns the topmost entry. Returns nil if the stack is
// empty.
func (s *Stack) Pop() Entry {
	if len(s.entries) == 0 {
		return nil
	}
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return top
}

// Len reports how many entries are currently pushed.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Mark returns an opaque position in the stack, usable later with
// WindersAbove or TruncateTo. It's just the current length, but callers
// shouldn't assume that.
func (s *Stack) Mark() int {
	return len(s.entries)
}

// FindPrompt searches from the top of the stack downward for the
// innermost Prompt tagged tag. It returns the prompt, the Mark it was
// found at (so callers can truncate down to it), and whether it was
// found at all -- abort-to-prompt with no matching prompt is a usage
// error the VM reports as if the tag were simply unbound.
func (s *Stack) FindPrompt(tag bytecode.Value) (*Prompt, int, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if p, ok := s.entries[i].(*Prompt); ok && p.Tag == tag {
			return p, i, true
		}
	}
	return nil, -1, false
}

// WindersAbove returns, innermost-first, the Winders found strictly above
// mark -- i.e., the ones an abort or continuation unwind targeting mark
// must run the After thunk of, in order.
func (s *Stack) WindersAbove(mark int) []*Winder {
	var out []*Winder
	for i := len(s.entries) - 1; i >= mark; i-- {
		if w, ok := s.entries[i].(*Winder); ok {
			out = append(out, w)
		}
	}
	return out
}

// TruncateTo discards every entry above mark, leaving the stack as it was
// when Mark() returned mark. Callers are expected to have already run the
// After thunks of any Winders being discarded.
func (s *Stack) TruncateTo(mark int) {
	if mark < len(s.entries) {
		s.entries = s.entries[:mark]
	}
}

// Snapshot returns a shallow copy of the entries from mark to the current
// top, in stack order (bottom-most of the range first). Used when
// capturing a continuation: the captured entries are replayed (their
// Before thunks re-run) on reinstatement.
func (s *Stack) Snapshot(mark int) []Entry {
	out := make([]Entry, len(s.entries)-mark)
	copy(out, s.entries[mark:])
	return out
}

// Restore re-pushes entries captured by Snapshot, in order, running no
// thunks itself -- the caller (the VM's continuation reinstatement path)
// is responsible for invoking each Winder's Before closure as it's
// restored.
func (s *Stack) Restore(entries []Entry) {
	s.entries = append(s.entries, entries...)
}
