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

// opHandler executes one decoded instruction. Both engines dispatch
// through the exact same table; only the surrounding hook firing differs.
type opHandler func(vm *VM, operand uint32)

var opTable [256]opHandler

// dispatch runs the fetch-decode-execute loop until the VM halts, either
// because the outermost (boot) frame returned or an OpHalt executed.
// This is the one loop body both Engine values share: EngineDebug differs
// only in that it fires the "next" hook before each instruction and lets
// individual handlers fire their own control-event hooks; EngineRegular
// skips all of that.
func (vm *VM) dispatch() {
	for !vm.halted {
		if vm.ip < 0 || vm.ip >= len(vm.Program.Code) {
			panic(errs.NewICE("ip %d out of range (code length %d)", vm.ip, len(vm.Program.Code)))
		}

		if vm.debugHooksActive() {
			vm.fireHook(hookNext, vm.currentFrameView())
		}

		word := vm.Program.Code[vm.ip]
		op, operand := bytecode.DecodeInstruction(word)
		vm.ip++

		handler := opTable[op]
		if handler == nil {
			panic(errs.NewFatalVMError(errs.BadInstruction, "undefined opcode in word 0x%08x", word))
		}
		handler(vm, operand)
	}
}

// debugHooksActive reports whether hook dispatch should happen at all:
// only under EngineDebug, and only once a nonzero trace level has been
// requested. The engine is the one latched at Run entry, not the VM's
// settable selector: switching engines mid-execution (say, from inside a
// hook) only takes effect on the next Run. Note that fireHook zeroes the
// trace level for the duration of a hook call, which is what makes this
// check also the re-entrancy guard.
func (vm *VM) debugHooksActive() bool {
	return vm.activeEngine == EngineDebug && vm.traceLevel > 0
}
