/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

// Package vm implements Kestrel's execution core: a value stack, frame
// discipline over it, an instruction dispatch loop available in two
// flavors (Regular and Debug, differing only in whether control-event
// hooks fire), full and partial continuation capture and reinstatement,
// the abort-to-prompt control operator, and the handful of VM-resident
// builtins every guest program can call into.
package vm

import (
	"io"

	"github.com/kestrel-lang/kestrel/pkg/bytecode"
	"github.com/kestrel-lang/kestrel/pkg/dynstack"
	"github.com/kestrel-lang/kestrel/pkg/errs"
)

// Engine selects which dispatch loop a VM runs: Regular never fires
// control-event hooks and runs at full speed; Debug fires all six around
// every relevant event, at a real but bounded cost. Both share the exact
// same opcode-handler table -- see ops.go -- so switching engines never
// changes what a program computes, only whether anyone is watching it
// happen.
type Engine int

const (
	EngineRegular Engine = iota
	EngineDebug
)

func (e Engine) String() string {
	if e == EngineDebug {
		return "debug"
	}
	return "regular"
}

// bootRA and bootFP are the sentinel linkage values installed for the
// outermost frame. A RETURN that finds this saved return address has
// nowhere left to go but back to Run's caller: that's this VM's synthetic
// "boot continuation". No HALT instruction is executed for it; doReturn
// checks for bootRA and halts with the returned values itself.
const bootRA = -1
const bootFP = -1

// VM is one execution core: a program, a value stack with its three
// cursors, a dynamic-environment stack, hook slots, and the bookkeeping
// needed to run, pause on overflow, and resume.
type VM struct {
	Program *bytecode.Program
	Debug   *bytecode.DebugInfo

	stack *Stack
	fp    int
	ip    int

	engine     Engine
	traceLevel int
	trace      io.Writer

	// activeEngine is the engine latched by the last Run call; dispatch
	// consults this, not engine, so an engine switch never takes effect
	// mid-execution.
	activeEngine Engine

	dyn   *dynstack.Stack
	hooks hookSlots

	halted     bool
	haltValues []bytecode.Value

	// rewindable is false for the duration of a call-with-vm invocation
	// that switched to a different VM than the one previously current;
	// see registry.go. A continuation captured during such an extent
	// cannot later be reinstated -- ContinuationNotRewindable.
	rewindable bool

	// builtinBase is the code offset where this VM's copy of the
	// VM-resident builtin stubs begins, appended to the end of Program's
	// own code at construction time so every Procedure -- guest or
	// builtin -- is addressable as a single flat (Program, offset) pair.
	// See builtins.go.
	builtinBase int

	// builtinOffsets maps each BuiltinIndex to its code offset relative to
	// builtinBase, computed once at construction time.
	builtinOffsets []int
}

// New creates a VM bound to program, with a value stack sized from
// usableStackSize (a size below MinStackSize, including 0, selects
// DefaultStackSize instead). If program is nil, an
// empty one is used -- the VM is then only useful for running the
// VM-resident builtins directly, which is enough for call/cc, apply & co.
// to be tested in isolation.
func New(program *bytecode.Program, usableStackSize int) *VM {
	if program == nil {
		program = bytecode.NewProgram()
	}
	vm := &VM{
		engine:     EngineRegular,
		dyn:        dynstack.New(),
		rewindable: true,
	}
	vm.stack = NewStack(usableStackSize, vm)
	vm.fp = Base
	vm.installBuiltins(program)
	return vm
}

// GetEngine returns the VM's current dispatch engine.
func (vm *VM) GetEngine() Engine { return vm.engine }

// SetEngine switches which dispatch loop future Run calls use.
func (vm *VM) SetEngine(e Engine) { vm.engine = e }

// TraceLevel returns the current trace level (0 disables hook dispatch
// entirely, regardless of engine).
func (vm *VM) TraceLevel() int { return vm.traceLevel }

// SetTraceLevel sets the trace level. Hooks only fire when running under
// EngineDebug with a nonzero trace level.
func (vm *VM) SetTraceLevel(n int) { vm.traceLevel = n }

// SetTraceWriter sets where trace-hook output goes. A nil writer disables
// the built-in trace hook (hooks installed via SetApplyHook & co. are
// unaffected).
func (vm *VM) SetTraceWriter(w io.Writer) { vm.trace = w }

// IP, FP, SP expose the VM's cursor words, mirroring the language-visible
// vm:ip/fp/sp accessors from SPEC_FULL.md §6.
func (vm *VM) IP() int { return vm.ip }
func (vm *VM) FP() int { return vm.fp }
func (vm *VM) SP() int { return vm.stack.SP() }

// Run invokes proc with args as a fresh top-level call and runs the
// dispatch loop to completion, returning whatever values the program
// ultimately returns to the boot continuation. Non-fatal errors raised by
// the core (see pkg/errs) are recovered here and returned normally; a
// Fatal VMError is re-panicked past this recover; anything else
// recovered is an Internal Consistency Error, since it means an invariant
// this core is supposed to maintain was violated.
func (vm *VM) Run(proc *bytecode.Procedure, args []bytecode.Value) (results []bytecode.Value, err errs.Error) {
	startSP := vm.stack.SP()
	startFP := vm.fp
	startDyn := vm.dyn.Mark()

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(errs.Error); ok {
				if ve, ok := r.(*errs.VMError); ok {
					if ve.Fatal {
						// BadInstruction and a double stack-overflow fault are
						// not recoverable conditions: re-panic past this
						// recover so the process goes down, matching §5/§7's
						// "the process is aborted".
						panic(ve)
					}
					if ve.Kind == errs.StackOverflow {
						vm.stack.ReclaimReserve()
					}
				}
				// An error abandons every frame pushed since this call
				// started, the same way abort-to-prompt unwinds to its
				// target prompt: run the After thunk of whatever winders
				// are being escaped, then restore the cursors this Run
				// found them in, so the VM is usable again for the next
				// top-level call (SPEC_FULL.md S6).
				for _, w := range vm.dyn.WindersAbove(startDyn) {
					if w.After != nil {
						w.After()
					}
				}
				vm.dyn.TruncateTo(startDyn)
				vm.stack.TruncateTo(startSP)
				vm.fp = startFP
				err = e
				return
			}
			panic(errs.NewICE("unexpected panic in VM dispatch: %v", r))
		}
	}()

	vm.halted = false
	vm.haltValues = nil
	vm.activeEngine = vm.engine
	vm.apply(bytecode.NewProcedure(proc), args, bootFP, bootRA)
	vm.dispatch()
	results = vm.haltValues
	return
}

// entryFor resolves where to start executing proc, dispatching to a
// builtin's tiny bytecode stub when IsBuiltin is set.
func (vm *VM) entryFor(proc *bytecode.Procedure) int {
	if proc.IsBuiltin {
		return vm.builtinEntry(proc.BuiltinIndex)
	}
	return proc.Entry
}
