/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

package bytecode

import (
	"fmt"
	"io"
)

// Disassemble writes a human-readable listing of p's code to w. di may be
// nil, in which case procedure boundaries and source lines are omitted.
func Disassemble(w io.Writer, p *Program, di *DebugInfo) {
	fmt.Fprintf(w, "=== program (%d constants, %d words) ===\n", len(p.Constants), len(p.Code))
	lastLine := -1
	for offset := 0; offset < len(p.Code); offset++ {
		if di != nil {
			if name := di.ProcedureNameAt(offset); name != "" {
				fmt.Fprintf(w, "%s:\n", name)
			}
		}
		line := "   |"
		if di != nil {
			l := di.LineAt(offset)
			if l != lastLine {
				line = fmt.Sprintf("%4d", l)
				lastLine = l
			}
		}
		fmt.Fprintf(w, "%04d %s %s\n", offset, line, disassembleInstruction(p, offset))
	}
}

// disassembleInstruction renders the single instruction at offset.
func disassembleInstruction(p *Program, offset int) string {
	op, operand := DecodeInstruction(p.Code[offset])
	switch op {
	case OpConstant:
		if int(operand) < len(p.Constants) {
			return fmt.Sprintf("%-18s %d ; %v", op, operand, p.Constants[operand])
		}
		return fmt.Sprintf("%-18s %d ; <out of range>", op, operand)
	case OpMov, OpReceive:
		a, b := DecodeOperands12(operand)
		return fmt.Sprintf("%-18s %d %d", op, a, b)
	case OpNop, OpTrue, OpFalse, OpPop, OpDup, OpCallCC, OpTailApply, OpAbortToPrompt, OpHalt:
		return op.String()
	default:
		return fmt.Sprintf("%-18s %d", op, operand)
	}
}
