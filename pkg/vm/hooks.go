/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package vm

import "github.com/kestrel-lang/kestrel/pkg/bytecode"

// hookKind identifies which of the six control events a hook fires for.
type hookKind int

const (
	hookApply hookKind = iota
	hookPushContinuation
	hookPopContinuation
	hookNext
	hookAbortContinuation
	hookRestoreContinuation
)

// HookFunc observes a control event without being able to affect it: it
// receives a read-only FrameView plus whatever extra values the event
// carries (the returned values for pop-continuation, the delivered values
// for abort-continuation and restore-continuation, nothing for the rest).
// The FrameView is only valid for the duration of the call; hooks must not
// retain it. Panicking out of a hook (e.g. to raise a VMError) is allowed
// and propagates exactly like a panic from ordinary bytecode dispatch.
type HookFunc func(frame FrameView, extras ...bytecode.Value)

type hookSlots struct {
	apply               HookFunc
	pushContinuation    HookFunc
	popContinuation     HookFunc
	next                HookFunc
	abortContinuation   HookFunc
	restoreContinuation HookFunc
}

func (vm *VM) slot(k hookKind) *HookFunc {
	switch k {
	case hookApply:
		return &vm.hooks.apply
	case hookPushContinuation:
		return &vm.hooks.pushContinuation
	case hookPopContinuation:
		return &vm.hooks.popContinuation
	case hookNext:
		return &vm.hooks.next
	case hookAbortContinuation:
		return &vm.hooks.abortContinuation
	case hookRestoreContinuation:
		return &vm.hooks.restoreContinuation
	default:
		return nil
	}
}

// SetApplyHook, SetPushContinuationHook, SetPopContinuationHook,
// SetNextHook, SetAbortContinuationHook, and SetRestoreContinuationHook
// install (or, with a nil fn, remove) the handler for each of the six
// control events HookDispatcher recognizes. They mirror the
// vm-apply-hook & co. accessors from SPEC_FULL.md §6.
func (vm *VM) SetApplyHook(fn HookFunc)               { vm.hooks.apply = fn }
func (vm *VM) SetPushContinuationHook(fn HookFunc)    { vm.hooks.pushContinuation = fn }
func (vm *VM) SetPopContinuationHook(fn HookFunc)     { vm.hooks.popContinuation = fn }
func (vm *VM) SetNextHook(fn HookFunc)                { vm.hooks.next = fn }
func (vm *VM) SetAbortContinuationHook(fn HookFunc)   { vm.hooks.abortContinuation = fn }
func (vm *VM) SetRestoreContinuationHook(fn HookFunc) { vm.hooks.restoreContinuation = fn }

// fireHook invokes the hook for k, if one is set. The trace level is saved
// and zeroed for the duration of the call, so a hook's own VM activity can
// never recursively refire hooks. The built-in trace hook (see
// SetTraceWriter) fires first, followed by any user-installed hook for
// the same event.
func (vm *VM) fireHook(k hookKind, fv FrameView, extras ...bytecode.Value) {
	saved := vm.traceLevel
	vm.traceLevel = 0
	defer func() { vm.traceLevel = saved }()

	if vm.trace != nil {
		vm.writeTrace(k, fv, extras)
	}

	slot := vm.slot(k)
	if slot != nil && *slot != nil {
		(*slot)(fv, extras...)
	}
}
