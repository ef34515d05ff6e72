/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package vm

import "github.com/kestrel-lang/kestrel/pkg/bytecode"

// The five VM-resident builtins, identified by a small fixed index rather
// than a name lookup: every Procedure.BuiltinIndex is one of these.
const (
	BuiltinApply BuiltinIndex = iota
	BuiltinValues
	BuiltinCallWithValues
	BuiltinCallCC
	BuiltinAbortToPrompt

	builtinCount
)

// BuiltinIndex identifies one of the VM-resident builtins.
type BuiltinIndex int

type builtinDef struct {
	name     string
	required int
	optional int
	rest     bool
	body     []uint32
}

// builtinDefs holds each builtin's name, declared arity (counting
// arguments, not self, the way every other Procedure counts them), and its
// hand-assembled bytecode body. Bodies are written against the
// self-in-local-0 calling convention: local 0 is always the procedure
// itself, local 1 is its first declared argument, and so on -- which is
// why each body's assert-nargs operand is one more than the table's
// Required count.
var builtinDefs = []builtinDef{
	BuiltinApply: {
		name:     "apply",
		required: 2,
		optional: 0,
		rest:     true,
		// locals: [self, proc, arg1, ..., argN-2, tail-list]
		body: []uint32{
			bytecode.EncodeInstruction(bytecode.OpAssertNargsGE, 3),
			bytecode.EncodeInstruction(bytecode.OpTailApply, 0),
		},
	},
	BuiltinValues: {
		name:     "values",
		required: 0,
		optional: 0,
		rest:     true,
		// locals: [self, val1, ..., valN]; return every local past self.
		body: []uint32{
			bytecode.EncodeInstruction(bytecode.OpReturnValues, 1),
		},
	},
	BuiltinCallWithValues: {
		name:     "call-with-values",
		required: 2,
		optional: 0,
		rest:     false,
		// locals: [self, producer, consumer]. Grow the frame one slot and
		// mov the consumer into it (local 3, where the shuffle below can
		// still find it), push the producer and call it with no arguments;
		// its results land above local 3 the same way any non-tail call's
		// results do. Shuffle-tail-call local 3 (the consumer) against
		// whatever now sits above it.
		body: []uint32{
			bytecode.EncodeInstruction(bytecode.OpAssertNargsEQ, 3),
			bytecode.EncodeInstruction(bytecode.OpAllocFrame, 4),
			bytecode.EncodeInstruction(bytecode.OpMov, bytecode.EncodeOperands12(3, 2)),
			bytecode.EncodeInstruction(bytecode.OpGetLocal, 1),
			bytecode.EncodeInstruction(bytecode.OpCall, 0),
			bytecode.EncodeInstruction(bytecode.OpTailCallShuffle, 3),
		},
	},
	BuiltinCallCC: {
		name:     "call-with-current-continuation",
		required: 1,
		optional: 0,
		rest:     false,
		// locals: [self, proc]
		body: []uint32{
			bytecode.EncodeInstruction(bytecode.OpAssertNargsEQ, 2),
			bytecode.EncodeInstruction(bytecode.OpCallCC, 0),
		},
	},
	BuiltinAbortToPrompt: {
		name:     "abort-to-prompt",
		required: 1,
		optional: 0,
		rest:     true,
		// locals: [self, tag, val1, ..., valN]. The trailing ReturnValues is
		// only ever reached if a partial continuation captured at the
		// AbortToPrompt instruction is later reinstated and its caller
		// returns normally into this same stub -- under ordinary execution
		// AbortToPrompt never falls through to it.
		body: []uint32{
			bytecode.EncodeInstruction(bytecode.OpAssertNargsGE, 2),
			bytecode.EncodeInstruction(bytecode.OpAbortToPrompt, 0),
			bytecode.EncodeInstruction(bytecode.OpReturnValues, 1),
		},
	},
}

// BuiltinIndexToName and BuiltinNameToIndex expose the builtin name table
// for whatever front end wants to bind these into a top-level environment.
func BuiltinIndexToName(idx BuiltinIndex) (string, bool) {
	if idx < 0 || int(idx) >= len(builtinDefs) {
		return "", false
	}
	return builtinDefs[idx].name, true
}

func BuiltinNameToIndex(name string) (BuiltinIndex, bool) {
	for i, d := range builtinDefs {
		if d.name == name {
			return BuiltinIndex(i), true
		}
	}
	return 0, false
}

// BuiltinProcedure returns a ready-to-apply Procedure value for one of the
// VM-resident builtins.
func BuiltinProcedure(idx BuiltinIndex) *bytecode.Procedure {
	d := builtinDefs[idx]
	return &bytecode.Procedure{
		Name:         d.name,
		IsBuiltin:    true,
		BuiltinIndex: int(idx),
		Required:     d.required,
		Optional:     d.optional,
		Rest:         d.rest,
	}
}

// installBuiltins builds this VM's actual Program: a copy of base's code and
// constants (base itself is never mutated, since it may be shared by other
// VMs or held onto by whoever compiled it) with every builtin's stub body
// appended after it. vm.builtinBase records where that appended region
// starts; builtinEntry resolves a BuiltinIndex to an absolute offset within
// it.
func (vm *VM) installBuiltins(base *bytecode.Program) {
	code := make([]uint32, len(base.Code), len(base.Code)+64)
	copy(code, base.Code)
	constants := make([]bytecode.Value, len(base.Constants))
	copy(constants, base.Constants)

	builtinBase := len(code)
	offsets := make([]int, len(builtinDefs))
	for i, d := range builtinDefs {
		offsets[i] = len(code) - builtinBase
		code = append(code, d.body...)
	}

	vm.Program = &bytecode.Program{
		Code:       code,
		Constants:  constants,
		EntryPoint: base.EntryPoint,
	}
	vm.builtinBase = builtinBase
	vm.builtinOffsets = offsets
}

// builtinEntry resolves idx to an absolute code offset in vm.Program.Code.
func (vm *VM) builtinEntry(idx int) int {
	return vm.builtinBase + vm.builtinOffsets[idx]
}
