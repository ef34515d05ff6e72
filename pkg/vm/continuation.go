/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package vm

import (
	"github.com/kestrel-lang/kestrel/pkg/bytecode"
	"github.com/kestrel-lang/kestrel/pkg/dynstack"
	"github.com/kestrel-lang/kestrel/pkg/errs"
)

// FullContinuation is a captured full continuation: the entire live value
// stack below the capturing frame, plus the cursors needed to make
// reinstating it behave exactly as if the capturing call had returned.
// Grounded on vm_return_to_continuation in the source this core is modeled
// on (see DESIGN.md): capture records state "as already returned" rather
// than "mid capture-call", since the capturing builtin's own frame has
// nothing useful left to do once the continuation exists.
type FullContinuation struct {
	owner      *VM
	stackCopy  []bytecode.Value
	fp         int
	ra         int
	dyn        []dynstack.Entry
	rewindable bool
}

// PartialContinuation is a captured delimited continuation: the slice of
// the value stack between a prompt and the abort-to-prompt call that
// reached it, plus enough bookkeeping to relocate that slice onto a
// different stack base when reinstated elsewhere. Grounded on
// vm_reinstate_partial_continuation (see DESIGN.md).
type PartialContinuation struct {
	owner        *VM
	stackCopy    []bytecode.Value
	capturedBase int
	fp           int
	ra           int
	dyn          []dynstack.Entry
	rewindOK     bool
}

// captureFullContinuation captures the state call/cc's OWN frame will leave
// behind once it's torn down for its tail-call to the supplied procedure:
// everything below this frame, plus this frame's own dynamic link and saved
// return address as the resumption point. Invariant 3 (SPEC_FULL.md §8)
// then holds directly: invoking the returned continuation with n values
// looks exactly like call/cc's own call having returned those n values.
func (vm *VM) captureFullContinuation() *FullContinuation {
	dynLink := vm.frameDynLink()
	ra := vm.frameSavedRA()
	base := vm.fp + dynLinkOffset
	liveTop := base - 1

	size := liveTop - Base + 1
	if size < 0 {
		size = 0
	}
	cp := make([]bytecode.Value, size)
	for i := 0; i < size; i++ {
		cp[i] = vm.stack.At(Base + i)
	}

	return &FullContinuation{
		owner:      vm,
		stackCopy:  cp,
		fp:         dynLink,
		ra:         ra,
		dyn:        vm.dyn.Snapshot(0),
		rewindable: vm.rewindable,
	}
}

// reinstateFull restores a full continuation's entire captured stack and
// transfers control to its saved return address with args as the delivered
// values, per SPEC_FULL.md §4.5/invariant 3.
func (vm *VM) reinstateFull(c *FullContinuation, args []bytecode.Value) {
	if c.owner != vm {
		panic(errs.NewVMError(errs.ContinuationNotRewindable,
			"continuation reinstated in a different VM than the one that captured it"))
	}
	if !c.rewindable {
		panic(errs.NewVMError(errs.ContinuationNotRewindable,
			"continuation captured during a non-rewindable call-with-vm extent"))
	}

	need := len(c.stackCopy) + len(args) + linkageSize
	if need > vm.stack.UsableSize() {
		panic(errs.NewVMError(errs.StackOverflow,
			"not enough stack to reinstate a full continuation needing %d cells", need))
	}

	for i, v := range c.stackCopy {
		vm.stack.SetAt(Base+i, v)
	}
	vm.stack.TruncateTo(Base + len(c.stackCopy) - 1)
	vm.fp = c.fp

	vm.rewindDynstackFull(c.dyn)

	// The restored region already ends exactly where the capturing frame's
	// own linkage used to sit -- the same place doReturn leaves sp after
	// tearing a frame down. Delivering args is then nothing more than
	// doReturn's own final step.
	for _, a := range args {
		vm.stack.Push(a)
	}

	vm.fireControlHook(hookRestoreContinuation, args...)
	vm.ip = c.ra
}

// capturePartialAbove captures the slice of stack from the prompt's
// recorded FP up to, but not including, the capturing frame (base),
// stopping there exactly as captureFullContinuation does for call/cc: the
// capture represents "as if this frame had already returned". The
// dynamic-environment slice it records starts at mark, so it includes the
// prompt itself.
func (vm *VM) capturePartialAbove(p *dynstack.Prompt, base, capFP, capRA int, mark int) *PartialContinuation {
	promptBase := p.FP
	size := base - promptBase
	if size < 0 {
		size = 0
	}
	cp := make([]bytecode.Value, size)
	for i := 0; i < size; i++ {
		cp[i] = vm.stack.At(promptBase + i)
	}

	return &PartialContinuation{
		owner:        vm,
		stackCopy:    cp,
		capturedBase: promptBase,
		fp:           capFP,
		ra:           capRA,
		dyn:          vm.dyn.Snapshot(mark),
		rewindOK:     true,
	}
}

// reinstatePartial transplants a partial continuation's captured slice onto
// the stack just above its current top (sp+1), not over the current
// frame's locals, relocating the dynamic-link chain within it and
// rewinding its captured dynamic-environment slice, per
// vm_reinstate_partial_continuation.
func (vm *VM) reinstatePartial(c *PartialContinuation, args []bytecode.Value) {
	if c.owner != vm {
		panic(errs.NewVMError(errs.ContinuationNotRewindable,
			"continuation reinstated in a different VM than the one that captured it"))
	}
	if !c.rewindOK {
		panic(errs.NewVMError(errs.ContinuationNotRewindable,
			"partial continuation already reinstated in a way that invalidated it"))
	}

	// The captured slice is spliced in directly above whatever the stack
	// currently holds -- invoking a partial continuation behaves like an
	// ordinary call that happens to push a whole pre-built run of frames at
	// once, rather than replacing anything already live below it.
	base2 := vm.stack.SP() + 1
	delta := base2 - c.capturedBase

	need := (base2 - Base) + len(c.stackCopy) + len(args) + linkageSize
	if need > vm.stack.UsableSize() {
		panic(errs.NewVMError(errs.StackOverflow,
			"not enough stack to reinstate a partial continuation needing %d cells", need))
	}

	for i, v := range c.stackCopy {
		vm.stack.SetAt(base2+i, v)
	}
	if len(c.stackCopy) > 0 {
		relocateDynLinks(vm, c.fp+delta, base2, delta)
	}

	vm.stack.TruncateTo(base2 - 1 + len(c.stackCopy))
	vm.fp = c.fp + delta
	vm.ip = c.ra

	for _, a := range args {
		vm.stack.Push(a)
	}

	vm.rewindDynSlice(c.dyn, delta)
	vm.fireControlHook(hookRestoreContinuation, args...)
}

// relocateDynLinks walks the dynamic-link chain starting at startFP, adding
// delta to every frame's recorded dynamic link as long as that frame's own
// linkage still lies inside the transplanted region (i.e. above base2).
// Ported from the SCM_FRAME_DYNAMIC_LINK relocation loop in
// vm_reinstate_partial_continuation.
func relocateDynLinks(vm *VM, startFP, base2, delta int) {
	fp := startFP
	for fp+dynLinkOffset > base2 {
		old := vm.stack.At(fp + dynLinkOffset).AsInt()
		relocated := old + delta
		vm.stack.SetAt(fp+dynLinkOffset, bytecode.NewInt(relocated))
		fp = relocated
	}
}

// rewindDynstackFull replaces the current dynamic-environment stack
// wholesale with the one captured by a full continuation: every entry
// currently installed is unwound (running Winder.After), then every
// captured entry is wound back in (running Winder.Before). Simpler than
// computing a common-ancestor diff, and observably equivalent for the
// scenarios this core is responsible for.
func (vm *VM) rewindDynstackFull(entries []dynstack.Entry) {
	for vm.dyn.Len() > 0 {
		e := vm.dyn.Pop()
		if w, ok := e.(*dynstack.Winder); ok && w.After != nil {
			w.After()
		}
	}
	for _, e := range entries {
		switch v := e.(type) {
		case *dynstack.Winder:
			if v.Before != nil {
				v.Before()
			}
			vm.dyn.Push(&dynstack.Winder{Before: v.Before, After: v.After})
		case *dynstack.Prompt:
			vm.dyn.Push(&dynstack.Prompt{Tag: v.Tag, FP: v.FP, SP: v.SP, HandlerRA: v.HandlerRA})
		}
	}
}

// rewindDynSlice winds a partial continuation's captured dynamic-
// environment slice back onto the current dynstack, in capture order:
// Winders re-run their Before thunk, Prompts are re-registered with their
// FP/SP shifted by delta so abort-to-prompt still finds them at the right
// place in the relocated stack.
func (vm *VM) rewindDynSlice(entries []dynstack.Entry, delta int) {
	for _, e := range entries {
		switch v := e.(type) {
		case *dynstack.Winder:
			if v.Before != nil {
				v.Before()
			}
			vm.dyn.Push(&dynstack.Winder{Before: v.Before, After: v.After})
		case *dynstack.Prompt:
			vm.dyn.Push(&dynstack.Prompt{Tag: v.Tag, FP: v.FP + delta, SP: v.SP + delta, HandlerRA: v.HandlerRA})
		}
	}
}

// abort implements the abort-to-prompt control operator: flatten tail into
// vals, find the prompt tagged tag, capture a partial continuation of
// everything above it, run the After thunk of every winder being escaped,
// then transfer control to the prompt's handler with the flattened values
// and the new partial continuation on top of stack. tail must be a proper
// list (it is Nil when coming from the abort-to-prompt builtin, whose
// arguments all arrive on the stack); flattening happens before anything
// else so a bad tail aborts nothing.
func (vm *VM) abort(tag bytecode.Value, vals []bytecode.Value, tail bytecode.Value) {
	elems, rest := bytecode.Uncons(tail)
	if !rest.IsNil() {
		panic(errs.NewVMError(errs.ImproperList, "abort-to-prompt: tail is not a proper list: %v", tail))
	}
	vals = append(vals, elems...)

	prompt, mark, ok := vm.dyn.FindPrompt(tag)
	if !ok {
		panic(errs.NewVMError(errs.Unbound, "abort-to-prompt: no such prompt tag: %v", tag))
	}

	vm.fireControlHook(hookAbortContinuation, vals...)

	dynLink := vm.frameDynLink()
	ra := vm.frameSavedRA()
	base := vm.fp + dynLinkOffset

	partial := vm.capturePartialAbove(prompt, base, dynLink, ra, mark)

	for _, w := range vm.dyn.WindersAbove(mark) {
		if w.After != nil {
			w.After()
		}
	}
	vm.dyn.TruncateTo(mark)

	vm.fp = prompt.FP
	vm.stack.TruncateTo(prompt.SP)
	for _, v := range vals {
		vm.stack.Push(v)
	}
	vm.stack.Push(bytecode.NewContinuation(partial))
	vm.ip = prompt.HandlerRA
}

// PushPrompt establishes a new prompt tagged tag, whose handler starts at
// handlerRA. This is the minimal hook an (out-of-scope) call-with-prompt
// implementation needs from this core; it's exported so tests -- and any
// future compiler front-end -- can drive it without a bytecode opcode of
// their own.
func (vm *VM) PushPrompt(tag bytecode.Value, handlerRA int) {
	vm.dyn.Push(&dynstack.Prompt{Tag: tag, FP: vm.fp, SP: vm.stack.SP(), HandlerRA: handlerRA})
}

// PopPrompt removes the innermost dynstack entry, whatever it is. Paired
// with PushPrompt for tests that establish a prompt around a Run call.
func (vm *VM) PopPrompt() { vm.dyn.Pop() }

// PushWinder installs a dynamic-wind winder, as the (out-of-scope)
// compiled form of dynamic-wind would.
func (vm *VM) PushWinder(before, after func()) {
	vm.dyn.Push(&dynstack.Winder{Before: before, After: after})
}

// PopWinder removes the innermost dynstack entry without running its After
// thunk -- callers that want the thunk run should call it themselves first.
func (vm *VM) PopWinder() { vm.dyn.Pop() }
