/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package vm

import (
	"github.com/kestrel-lang/kestrel/pkg/bytecode"
	"github.com/kestrel-lang/kestrel/pkg/errs"
)

// enterFrame pushes a new frame for a call to entry: self (the callee
// itself, by convention local 0 -- the same register-zero-is-self
// convention the source this core is modeled on uses) followed by args,
// then the three linkage cells, with fp left pointing at self. dynLink and
// ra are what RETURN (or a continuation reinstatement) will restore when
// this frame is left.
func (vm *VM) enterFrame(self bytecode.Value, args []bytecode.Value, dynLink, ra, entry int) {
	argsBase := vm.stack.SP() + 1
	vm.stack.Push(self)
	for _, a := range args {
		vm.stack.Push(a)
	}
	vm.stack.InsertCells(argsBase, linkageSize)
	fp := argsBase + linkageSize
	vm.stack.SetAt(fp+dynLinkOffset, bytecode.NewInt(dynLink))
	vm.stack.SetAt(fp+savedRAOffset, bytecode.NewInt(ra))
	vm.stack.SetAt(fp+reservedOffset, bytecode.NewInt(len(args)+1))

	vm.fp = fp
	vm.ip = entry
}

// frameDynLink and frameSavedRA read the current frame's linkage cells.
func (vm *VM) frameDynLink() int { return vm.stack.At(vm.fp + dynLinkOffset).AsInt() }
func (vm *VM) frameSavedRA() int { return vm.stack.At(vm.fp + savedRAOffset).AsInt() }

// frameLocalCount reads how many locals (including self) the current frame
// was entered with -- the count assert-nargs opcodes check against.
func (vm *VM) frameLocalCount() int { return vm.stack.At(vm.fp + reservedOffset).AsInt() }

// reuseFrame replaces the current frame's locals with self and args,
// leaving the linkage cells untouched so the callee returns directly to
// this frame's own caller. This is what makes tail calls run in constant
// stack space: the exiting frame's cells are reclaimed before the callee
// gets any.
func (vm *VM) reuseFrame(self bytecode.Value, args []bytecode.Value, entry int) {
	vm.stack.TruncateTo(vm.fp - 1)
	vm.stack.Push(self)
	for _, a := range args {
		vm.stack.Push(a)
	}
	vm.stack.SetAt(vm.fp+reservedOffset, bytecode.NewInt(len(args)+1))
	vm.ip = entry
}

// fireControlHook fires one of the six control-event hooks with the
// current frame's view and the event's extra arguments, when hook dispatch
// is active.
func (vm *VM) fireControlHook(k hookKind, extras ...bytecode.Value) {
	if vm.debugHooksActive() {
		vm.fireHook(k, vm.currentFrameView(), extras...)
	}
}

// applicable validates callee for application: a continuation is
// reinstated on the spot (applicable then returns nil -- there is no frame
// to enter), a procedure is checked against its declared arity and
// returned, and anything else is WrongTypeApply.
func (vm *VM) applicable(callee bytecode.Value, args []bytecode.Value) *bytecode.Procedure {
	if callee.IsContinuation() {
		vm.fireControlHook(hookApply)
		vm.invokeContinuation(callee, args)
		return nil
	}
	if !callee.IsProcedure() {
		panic(errs.NewVMError(errs.WrongTypeApply, "%v", callee))
	}
	proc := callee.AsProcedure()
	n := len(args)
	if !proc.AcceptsArgCount(n) {
		if n > proc.Required {
			panic(errs.NewVMError(errs.TooManyArgs, "%d", n))
		}
		panic(errs.NewVMError(errs.WrongNumArgs, "%v", proc))
	}
	return proc
}

// apply is the dispatch point every non-tail call funnels through: callee
// is either an ordinary procedure (checked against its declared arity and
// given a fresh frame) or a captured continuation (reinstated instead of
// entered). dynLink and ra name the frame a RETURN from the callee comes
// back to.
func (vm *VM) apply(callee bytecode.Value, args []bytecode.Value, dynLink, ra int) {
	proc := vm.applicable(callee, args)
	if proc == nil {
		return
	}
	vm.fireControlHook(hookApply)
	vm.enterFrame(callee, args, dynLink, ra, vm.entryFor(proc))
	vm.fireControlHook(hookPushContinuation)
}

// tailApply is apply's tail-position twin: same callee dispatch and arity
// checking, but the current frame is reused in place rather than a new one
// pushed, and no push-continuation event fires -- the callee consumes the
// return continuation this frame already had.
func (vm *VM) tailApply(callee bytecode.Value, args []bytecode.Value) {
	proc := vm.applicable(callee, args)
	if proc == nil {
		return
	}
	vm.fireControlHook(hookApply)
	vm.reuseFrame(callee, args, vm.entryFor(proc))
}

// invokeContinuation dispatches to the full or partial reinstatement path
// depending on what callee actually wraps.
func (vm *VM) invokeContinuation(callee bytecode.Value, args []bytecode.Value) {
	switch c := callee.AsContinuation().(type) {
	case *FullContinuation:
		vm.reinstateFull(c, args)
	case *PartialContinuation:
		vm.reinstatePartial(c, args)
	default:
		panic(errs.NewICE("continuation value wraps unrecognized type %T", c))
	}
}

// doReturn implements the common tail of every return path (OpReturn,
// OpReturnValues, and the dead-code return-values tail of the
// abort-to-prompt builtin, reached only if a partial continuation capturing
// it is ever reinstated): pop the current frame's linkage, hand vals to
// whoever is waiting at the saved return address. Landing on bootRA means
// the outermost call has returned: halt with vals as the program's result,
// exactly what the synthetic boot continuation's HALT would have done with
// them as its own frame's locals.
func (vm *VM) doReturn(vals []bytecode.Value) {
	vm.fireControlHook(hookPopContinuation, vals...)
	dynLink := vm.frameDynLink()
	ra := vm.frameSavedRA()
	base := vm.fp + dynLinkOffset

	vm.stack.TruncateTo(base - 1)
	vm.fp = dynLink

	if ra == bootRA {
		vm.haltValues = vals
		vm.halted = true
		return
	}

	for _, v := range vals {
		vm.stack.Push(v)
	}
	vm.ip = ra
}
