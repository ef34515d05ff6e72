/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

package bytecode

// OpCode identifies an instruction. It occupies the low 8 bits of an
// instruction word; the remaining 24 bits carry the operand, in one of a
// few shapes documented per opcode below.
type OpCode byte

const (
	// OpNop does nothing. One word, operand unused.
	OpNop OpCode = iota

	// OpConstant pushes Program.Constants[operand] onto the stack. Operand
	// is a 24-bit index.
	OpConstant

	// OpTrue and OpFalse push the corresponding boolean immediate. Operand
	// unused.
	OpTrue
	OpFalse

	// OpPop discards the top of the stack. Operand unused.
	OpPop

	// OpDup duplicates the top of the stack. Operand unused.
	OpDup

	// OpGetLocal pushes the value at frame-relative local index (operand,
	// 24-bit) onto the top of the stack.
	OpGetLocal

	// OpSetLocal pops the top of the stack and stores it at frame-relative
	// local index (operand, 24-bit).
	OpSetLocal

	// OpMov copies the value at frame-relative local index (operand's low
	// 12 bits) into frame-relative local index (operand's high 12 bits).
	// Used to shuffle locals around without round-tripping through the
	// stack top; see the call-with-values builtin's body.
	OpMov

	// OpAllocFrame grows the current frame to operand (24-bit) locals
	// (counting local 0), padding the new slots with False. A no-op if
	// the frame already has at least that many cells.
	OpAllocFrame

	// OpAdd pops two values, pushes their sum. A convenience arithmetic
	// opcode for guest bytecode; not part of the control-operator core.
	OpAdd

	// OpCall performs a non-tail call. Operand (24-bit) is the argument
	// count N. The stack must hold, at its top, N+1 values: the callee
	// followed by its N arguments. See pkg/vm/ops.go for the full calling
	// convention.
	OpCall

	// OpTailCall performs a tail call, reusing the current frame's
	// linkage. Same stack shape as OpCall. Operand is the argument count.
	OpTailCall

	// OpTailCallShuffle performs a tail call where the callee sits at
	// frame-relative local index (operand, 24-bit) and its arguments are
	// whatever values currently occupy the stack above that local, up to
	// the current sp. Used by the call-with-values builtin to hand a
	// producer's results to its consumer without growing the frame.
	OpTailCallShuffle

	// OpReturn returns from the current frame. Operand (24-bit) is the
	// number of return values, which are the top N values on the stack.
	OpReturn

	// OpReturnValues returns from the current frame with a runtime-
	// determined number of values: everything from frame-relative local
	// index (operand, 24-bit) up to the current sp. Used by the values
	// builtin, which must return however many arguments it was called
	// with.
	OpReturnValues

	// OpReceive checks that a just-completed non-tail call produced the
	// right number of values: the operand's high 12 bits give the
	// frame-relative index where the first value should sit, the low 12
	// bits the expected count. Raises NoValues, NotEnoughValues or
	// WrongNumberOfValues otherwise. This is the one piece of "engine
	// body" multi-value bookkeeping this core takes on directly, since
	// those three error kinds are core, not opcode-body, semantics.
	OpReceive

	// OpJump sets ip to operand (24-bit), an absolute code offset.
	OpJump

	// OpJumpIfFalse pops the top of the stack; if it is #f, sets ip to
	// operand (24-bit).
	OpJumpIfFalse

	// OpCallCC implements the body of the call/cc builtin: captures a full
	// continuation resuming at the current frame's return point, then
	// tail-calls the procedure in local 1 with that continuation as its
	// sole argument. Operand unused.
	OpCallCC

	// OpTailApply implements the body of the apply builtin: local 1 is the
	// procedure, locals 2..N-2 are fixed arguments, and local N-1 must be a
	// proper list whose elements are appended to the fixed arguments.
	// Tail-calls the procedure with the combined argument list. Operand
	// unused.
	OpTailApply

	// OpAssertNargsEQ raises WrongNumArgs unless the current frame has
	// exactly operand (24-bit) locals.
	OpAssertNargsEQ

	// OpAssertNargsGE raises WrongNumArgs unless the current frame has at
	// least operand (24-bit) locals.
	OpAssertNargsGE

	// OpAbortToPrompt implements the body of the abort-to-prompt builtin:
	// local 1 holds the prompt tag, locals 2..sp hold the values to
	// deliver to the prompt's handler. Operand unused.
	OpAbortToPrompt

	// OpBindKwargs validates and binds the keyword/value tail of the
	// current frame: locals from frame-relative index (operand, 24-bit) up
	// to sp must alternate keyword and value, and every keyword must be
	// one the callee procedure declares. Raises one of the three
	// keyword-argument-error kinds otherwise.
	OpBindKwargs

	// OpHalt stops the engine, taking operand (24-bit) values from the top
	// of the stack as the result. Ordinary top-level returns never execute
	// it: they land on the bootRA sentinel return address, which
	// pkg/vm's doReturn recognizes and halts on directly.
	OpHalt

	// OpBad is never a valid instruction: decoding it always raises a
	// fatal BadInstruction. Useful for deliberately exercising that path
	// in tests without having to corrupt a Program's Code by hand.
	OpBad
)

var opcodeNames = map[OpCode]string{
	OpNop:             "nop",
	OpConstant:        "constant",
	OpTrue:            "true",
	OpFalse:           "false",
	OpPop:             "pop",
	OpDup:             "dup",
	OpGetLocal:        "get-local",
	OpSetLocal:        "set-local",
	OpMov:             "mov",
	OpAllocFrame:      "alloc-frame",
	OpAdd:             "add",
	OpCall:            "call",
	OpTailCall:        "tail-call",
	OpTailCallShuffle: "tail-call-shuffle",
	OpReturn:          "return",
	OpReturnValues:    "return-values",
	OpReceive:         "receive",
	OpJump:            "jump",
	OpJumpIfFalse:     "jump-if-false",
	OpCallCC:          "call-cc",
	OpTailApply:       "tail-apply",
	OpAssertNargsEQ:   "assert-nargs-eq",
	OpAssertNargsGE:   "assert-nargs-ge",
	OpAbortToPrompt:   "abort-to-prompt",
	OpBindKwargs:      "bind-kwargs",
	OpHalt:            "halt",
	OpBad:             "bad-instruction",
}

func (op OpCode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return "bad-instruction"
}
