/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

package vm

import (
	"github.com/kestrel-lang/kestrel/pkg/bytecode"
	"github.com/kestrel-lang/kestrel/pkg/errs"
)

func init() {
	opTable[bytecode.OpNop] = opNop
	opTable[bytecode.OpConstant] = opConstant
	opTable[bytecode.OpTrue] = opTrue
	opTable[bytecode.OpFalse] = opFalse
	opTable[bytecode.OpPop] = opPop
	opTable[bytecode.OpDup] = opDup
	opTable[bytecode.OpGetLocal] = opGetLocal
	opTable[bytecode.OpSetLocal] = opSetLocal
	opTable[bytecode.OpMov] = opMov
	opTable[bytecode.OpAllocFrame] = opAllocFrame
	opTable[bytecode.OpAdd] = opAdd
	opTable[bytecode.OpCall] = opCall
	opTable[bytecode.OpTailCall] = opTailCall
	opTable[bytecode.OpTailCallShuffle] = opTailCallShuffle
	opTable[bytecode.OpReturn] = opReturn
	opTable[bytecode.OpReturnValues] = opReturnValues
	opTable[bytecode.OpReceive] = opReceive
	opTable[bytecode.OpJump] = opJump
	opTable[bytecode.OpJumpIfFalse] = opJumpIfFalse
	opTable[bytecode.OpCallCC] = opCallCC
	opTable[bytecode.OpTailApply] = opTailApply
	opTable[bytecode.OpAssertNargsEQ] = opAssertNargsEQ
	opTable[bytecode.OpAssertNargsGE] = opAssertNargsGE
	opTable[bytecode.OpAbortToPrompt] = opAbortToPrompt
	opTable[bytecode.OpBindKwargs] = opBindKwargs
	opTable[bytecode.OpHalt] = opHalt
	// OpBad is deliberately left unregistered: dispatch's nil-handler check
	// is what turns it into a fatal BadInstruction.
}

func opNop(vm *VM, operand uint32) {}

func opConstant(vm *VM, operand uint32) {
	vm.stack.Push(vm.Program.Constants[operand])
}

func opTrue(vm *VM, operand uint32)  { vm.stack.Push(bytecode.True) }
func opFalse(vm *VM, operand uint32) { vm.stack.Push(bytecode.False) }

func opPop(vm *VM, operand uint32) { vm.stack.Pop() }
func opDup(vm *VM, operand uint32) { vm.stack.Push(vm.stack.Peek(0)) }

func opGetLocal(vm *VM, operand uint32) {
	vm.stack.Push(vm.stack.At(vm.fp + int(operand)))
}

func opSetLocal(vm *VM, operand uint32) {
	v := vm.stack.Pop()
	vm.stack.SetAt(vm.fp+int(operand), v)
}

func opMov(vm *VM, operand uint32) {
	dst, src := bytecode.DecodeOperands12(operand)
	vm.stack.SetAt(vm.fp+dst, vm.stack.At(vm.fp+src))
}

// opAllocFrame grows the current frame up to operand locals (including
// local 0), padding with False, the empty-slot filler. A no-op if the
// frame already has at least that many cells.
func opAllocFrame(vm *VM, operand uint32) {
	target := vm.fp + int(operand) - 1
	for vm.stack.SP() < target {
		vm.stack.Push(bytecode.False)
	}
}

func opAdd(vm *VM, operand uint32) {
	b := vm.stack.Pop()
	a := vm.stack.Pop()
	vm.stack.Push(bytecode.NewInt(a.AsInt() + b.AsInt()))
}

// popCallArgs pops a callee and its n arguments off the top of the stack,
// in the shape OpCall/OpTailCall expect: callee pushed first, then its n
// arguments above it.
func popCallArgs(vm *VM, n int) (callee bytecode.Value, args []bytecode.Value) {
	args = make([]bytecode.Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = vm.stack.Pop()
	}
	callee = vm.stack.Pop()
	return
}

func opCall(vm *VM, operand uint32) {
	callee, args := popCallArgs(vm, int(operand))
	dynLink := vm.fp
	ra := vm.ip
	vm.apply(callee, args, dynLink, ra)
}

func opTailCall(vm *VM, operand uint32) {
	callee, args := popCallArgs(vm, int(operand))
	vm.tailApply(callee, args)
}

func opTailCallShuffle(vm *VM, operand uint32) {
	calleeIdx := vm.fp + int(operand)
	callee := vm.stack.At(calleeIdx)

	n := vm.stack.SP() - calleeIdx
	args := make([]bytecode.Value, n)
	for i := 0; i < n; i++ {
		args[i] = vm.stack.At(calleeIdx + 1 + i)
	}

	vm.tailApply(callee, args)
}

func opReturn(vm *VM, operand uint32) {
	n := int(operand)
	vals := make([]bytecode.Value, n)
	for i := n - 1; i >= 0; i-- {
		vals[i] = vm.stack.Pop()
	}
	vm.doReturn(vals)
}

func opReturnValues(vm *VM, operand uint32) {
	start := vm.fp + int(operand)
	n := vm.stack.SP() - start + 1
	if n < 0 {
		n = 0
	}
	vals := make([]bytecode.Value, n)
	for i := 0; i < n; i++ {
		vals[i] = vm.stack.At(start + i)
	}
	vm.doReturn(vals)
}

// opReceive asserts that a just-completed non-tail call left exactly the
// expected number of values starting at the frame-relative index in the
// operand's high bits.
func opReceive(vm *VM, operand uint32) {
	start, expected := bytecode.DecodeOperands12(operand)
	got := vm.stack.SP() - (vm.fp + start) + 1

	switch {
	case got == expected:
		return
	case got == 0:
		panic(errs.NewVMError(errs.NoValues, "expected %d values, got none", expected))
	case got < expected:
		panic(errs.NewVMError(errs.NotEnoughValues, "expected %d values, got %d", expected, got))
	default:
		panic(errs.NewVMError(errs.WrongNumberOfValues, "expected %d values, got %d", expected, got))
	}
}

func opJump(vm *VM, operand uint32) { vm.ip = int(operand) }

func opJumpIfFalse(vm *VM, operand uint32) {
	v := vm.stack.Pop()
	if !v.IsTruthy() {
		vm.ip = int(operand)
	}
}

// opCallCC implements the call/cc builtin body: capture a full continuation
// resuming at this frame's own return point, then tail-call the procedure
// in local 1 with it as its sole argument.
func opCallCC(vm *VM, operand uint32) {
	proc := vm.stack.At(vm.fp + 1)
	cont := vm.captureFullContinuation()
	vm.tailApply(proc, []bytecode.Value{bytecode.NewContinuation(cont)})
}

// opTailApply implements the apply builtin body: local 1 is the procedure,
// locals 2..N-2 are fixed arguments, and local N-1 must be a proper list
// whose elements are appended after them.
func opTailApply(vm *VM, operand uint32) {
	n := vm.frameLocalCount()
	proc := vm.stack.At(vm.fp + 1)

	var args []bytecode.Value
	for i := 2; i < n-1; i++ {
		args = append(args, vm.stack.At(vm.fp+i))
	}

	tail := vm.stack.At(vm.fp + n - 1)
	elems, rest := bytecode.Uncons(tail)
	if !rest.IsNil() {
		if len(elems) == 0 {
			panic(errs.NewVMError(errs.ApplyToNonList, "apply: last argument is not a list: %v", tail))
		}
		panic(errs.NewVMError(errs.ImproperList, "apply: last argument is an improper list: %v", tail))
	}
	args = append(args, elems...)

	vm.tailApply(proc, args)
}

func opAssertNargsEQ(vm *VM, operand uint32) {
	n := vm.frameLocalCount()
	if n != int(operand) {
		panic(errs.NewVMError(errs.WrongNumArgs, "expected exactly %d arguments (incl. self), got %d", operand, n))
	}
}

func opAssertNargsGE(vm *VM, operand uint32) {
	n := vm.frameLocalCount()
	if n < int(operand) {
		panic(errs.NewVMError(errs.WrongNumArgs, "expected at least %d arguments (incl. self), got %d", operand, n))
	}
}

// opAbortToPrompt implements the abort-to-prompt builtin body: local 1 is
// the prompt tag, locals 2..sp are the values delivered to its handler.
func opAbortToPrompt(vm *VM, operand uint32) {
	tag := vm.stack.At(vm.fp + 1)
	n := vm.stack.SP() - (vm.fp + 1)
	vals := make([]bytecode.Value, n)
	for i := 0; i < n; i++ {
		vals[i] = vm.stack.At(vm.fp + 2 + i)
	}
	vm.abort(tag, vals, bytecode.Nil)
}

// opBindKwargs validates and binds the keyword/value tail of the current
// frame. Locals from operand up to sp must alternate keyword and value;
// each keyword must be one the callee procedure declares, and its value is
// bound into the slot reserved for it (operand plus the keyword's position
// in the declared list), with Unbound filling the slots of keywords the
// caller didn't supply. The three failure modes are the three
// keyword-argument-error kinds, each naming the callee.
func opBindKwargs(vm *VM, operand uint32) {
	self := vm.stack.At(vm.fp)
	start := vm.fp + int(operand)
	n := vm.stack.SP() - start + 1
	if n < 0 {
		n = 0
	}
	if n%2 != 0 {
		panic(errs.NewVMError(errs.KeywordOddLength,
			"%v: keyword argument list has odd length", self))
	}

	var keywords []string
	if self.IsProcedure() {
		keywords = self.AsProcedure().Keywords
	}

	bound := make([]bytecode.Value, len(keywords))
	for i := range bound {
		bound[i] = bytecode.Unbound
	}

	for i := 0; i < n; i += 2 {
		kw := vm.stack.At(start + i)
		if !kw.IsKeyword() {
			panic(errs.NewVMError(errs.KeywordInvalidKeyword,
				"%v: not a keyword: %v", self, kw))
		}
		slot := -1
		for j, name := range keywords {
			if kw.AsKeyword() == name {
				slot = j
				break
			}
		}
		if slot < 0 {
			panic(errs.NewVMError(errs.KeywordUnrecognizedKeyword,
				"%v: unrecognized keyword: %v", self, kw))
		}
		bound[slot] = vm.stack.At(start + i + 1)
	}

	vm.stack.TruncateTo(start - 1)
	for _, v := range bound {
		vm.stack.Push(v)
	}
}

// opHalt stops the engine directly, with operand values taken from the top
// of the stack as the program's result. Kept for fidelity with the
// reference opcode set and for hand-assembled test programs; ordinary
// top-level returns land on bootRA instead (see doReturn) and never
// execute this.
func opHalt(vm *VM, operand uint32) {
	n := int(operand)
	vals := make([]bytecode.Value, n)
	for i := n - 1; i >= 0; i-- {
		vals[i] = vm.stack.Pop()
	}
	vm.haltValues = vals
	vm.halted = true
}
