/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

// Package demo holds a handful of small, named, hand-assembled programs
// exercising the execution core end to end: arithmetic, the apply and
// call-with-values builtins, and a call/cc early-exit. There is no
// compiler front end in this module (see SPEC_FULL.md's Non-goals), so
// these are built directly against pkg/bytecode the way pkg/vm's own
// builtin stubs are, and serve both `cmd/kestrel` and the golden test
// suite in pkg/suite.
package demo

import (
	"github.com/kestrel-lang/kestrel/pkg/bytecode"
	"github.com/kestrel-lang/kestrel/pkg/vm"
)

// Program bundles a compiled program with the entry procedure a caller
// should pass to (*vm.VM).Run, plus the debug information the assemblers
// below record as they go (procedure names only -- there is no source
// text for these, so no line table).
type Program struct {
	Code  *bytecode.Program
	Entry *bytecode.Procedure
	Debug *bytecode.DebugInfo
}

// Names lists every demo registered below, in a stable order -- used by
// `kestrel run`/`kestrel disasm`'s argument validation and by the golden
// suite's error messages.
var Names = []string{"identity", "add", "apply-sum", "values-sum", "callcc-demo", "kwargs-sum", "kwargs-odd"}

// Get builds the named demo program, or reports ok=false if name isn't
// one of Names. Each call returns a fresh *bytecode.Program: callers are
// free to hand it to as many VMs as they like.
func Get(name string) (Program, bool) {
	switch name {
	case "identity":
		return identity(), true
	case "add":
		return add(), true
	case "apply-sum":
		return applySum(), true
	case "values-sum":
		return valuesSum(), true
	case "callcc-demo":
		return callCCDemo(), true
	case "kwargs-sum":
		return kwargsDemo(false), true
	case "kwargs-odd":
		return kwargsDemo(true), true
	default:
		return Program{}, false
	}
}

// identity takes one argument and returns it unchanged.
func identity() Program {
	p := bytecode.NewProgram()
	di := bytecode.NewDebugInfo()
	entry := p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpReturn, 1)
	di.ProcedureNames[entry] = "identity"
	return Program{
		Code:  p,
		Entry: &bytecode.Procedure{Name: "identity", Entry: entry, Required: 1},
		Debug: di,
	}
}

// addProcedure assembles the two-argument addition procedure used both as
// its own demo and as a building block for apply-sum and values-sum.
func addProcedure(p *bytecode.Program, di *bytecode.DebugInfo) *bytecode.Procedure {
	entry := p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpGetLocal, 2)
	p.Emit(bytecode.OpAdd, 0)
	p.Emit(bytecode.OpReturn, 1)
	di.ProcedureNames[entry] = "add"
	return &bytecode.Procedure{Name: "add", Entry: entry, Required: 2}
}

func add() Program {
	p := bytecode.NewProgram()
	di := bytecode.NewDebugInfo()
	proc := addProcedure(p, di)
	return Program{Code: p, Entry: proc, Debug: di}
}

// applySum computes (apply add 10 (20)), i.e. add(10, 20), to exercise the
// apply builtin's fixed-arguments-plus-tail-list convention.
func applySum() Program {
	p := bytecode.NewProgram()
	di := bytecode.NewDebugInfo()
	addProc := addProcedure(p, di)

	tailList := bytecode.NewPair(bytecode.NewInt(20), bytecode.Nil)
	cApply := p.AddConstant(bytecode.NewProcedure(vm.BuiltinProcedure(vm.BuiltinApply)))
	cAdd := p.AddConstant(bytecode.NewProcedure(addProc))
	cTen := p.AddConstant(bytecode.NewInt(10))
	cTail := p.AddConstant(tailList)

	entry := p.Emit(bytecode.OpConstant, cApply)
	p.Emit(bytecode.OpConstant, cAdd)
	p.Emit(bytecode.OpConstant, cTen)
	p.Emit(bytecode.OpConstant, cTail)
	p.Emit(bytecode.OpCall, 3)
	p.Emit(bytecode.OpReturn, 1)
	di.ProcedureNames[entry] = "apply-sum"

	return Program{
		Code:  p,
		Entry: &bytecode.Procedure{Name: "apply-sum", Entry: entry, Required: 0},
		Debug: di,
	}
}

// valuesSum computes (call-with-values (lambda () (values 3 4)) add), to
// exercise call-with-values threading a producer's results into a
// consumer without an intervening named binding.
func valuesSum() Program {
	p := bytecode.NewProgram()
	di := bytecode.NewDebugInfo()
	addProc := addProcedure(p, di)

	producerEntry := p.Emit(bytecode.OpConstant, p.AddConstant(bytecode.NewInt(3)))
	p.Emit(bytecode.OpConstant, p.AddConstant(bytecode.NewInt(4)))
	p.Emit(bytecode.OpReturn, 2)
	di.ProcedureNames[producerEntry] = "producer"
	producer := &bytecode.Procedure{Name: "producer", Entry: producerEntry, Required: 0}

	cCallWithValues := p.AddConstant(bytecode.NewProcedure(vm.BuiltinProcedure(vm.BuiltinCallWithValues)))
	cProducer := p.AddConstant(bytecode.NewProcedure(producer))
	cAdd := p.AddConstant(bytecode.NewProcedure(addProc))

	entry := p.Emit(bytecode.OpConstant, cCallWithValues)
	p.Emit(bytecode.OpConstant, cProducer)
	p.Emit(bytecode.OpConstant, cAdd)
	p.Emit(bytecode.OpCall, 2)
	p.Emit(bytecode.OpReturn, 1)
	di.ProcedureNames[entry] = "values-sum"

	return Program{
		Code:  p,
		Entry: &bytecode.Procedure{Name: "values-sum", Entry: entry, Required: 0},
		Debug: di,
	}
}

// callCCDemo calls call/cc with a procedure that immediately invokes its
// continuation with 99, discarding whatever it would otherwise have done,
// to exercise a full continuation's "escape" use.
func callCCDemo() Program {
	p := bytecode.NewProgram()
	di := bytecode.NewDebugInfo()

	escapeEntry := p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpConstant, p.AddConstant(bytecode.NewInt(99)))
	p.Emit(bytecode.OpCall, 1)
	p.Emit(bytecode.OpReturn, 1) // unreachable: invoking k never returns here
	di.ProcedureNames[escapeEntry] = "escape"
	escapeProc := &bytecode.Procedure{Name: "escape", Entry: escapeEntry, Required: 1}

	cCallCC := p.AddConstant(bytecode.NewProcedure(vm.BuiltinProcedure(vm.BuiltinCallCC)))
	cEscape := p.AddConstant(bytecode.NewProcedure(escapeProc))

	entry := p.Emit(bytecode.OpConstant, cCallCC)
	p.Emit(bytecode.OpConstant, cEscape)
	p.Emit(bytecode.OpCall, 1)
	p.Emit(bytecode.OpReturn, 1)
	di.ProcedureNames[entry] = "callcc-demo"

	return Program{
		Code:  p,
		Entry: &bytecode.Procedure{Name: "callcc-demo", Entry: entry, Required: 0},
		Debug: di,
	}
}

// kwargsDemo exercises keyword-argument binding: offset-add takes one
// positional argument plus a #:offset keyword and returns their sum. The
// odd variant's entry point drops the keyword's value from the call, so
// the callee's bind-kwargs sees an odd-length tail and raises.
func kwargsDemo(odd bool) Program {
	p := bytecode.NewProgram()
	di := bytecode.NewDebugInfo()

	offsetAddEntry := p.Emit(bytecode.OpBindKwargs, 2)
	p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpGetLocal, 2)
	p.Emit(bytecode.OpAdd, 0)
	p.Emit(bytecode.OpReturn, 1)
	di.ProcedureNames[offsetAddEntry] = "offset-add"
	offsetAddProc := &bytecode.Procedure{
		Name:     "offset-add",
		Entry:    offsetAddEntry,
		Required: 1,
		Rest:     true,
		Keywords: []string{"offset"},
	}

	cOffsetAdd := p.AddConstant(bytecode.NewProcedure(offsetAddProc))
	cOffset := p.AddConstant(bytecode.NewKeyword("offset"))

	if odd {
		entry := p.Emit(bytecode.OpConstant, cOffsetAdd)
		p.Emit(bytecode.OpGetLocal, 1)
		p.Emit(bytecode.OpConstant, cOffset)
		p.Emit(bytecode.OpCall, 2)
		p.Emit(bytecode.OpReturn, 1)
		di.ProcedureNames[entry] = "kwargs-odd"
		return Program{
			Code:  p,
			Entry: &bytecode.Procedure{Name: "kwargs-odd", Entry: entry, Required: 1},
			Debug: di,
		}
	}

	entry := p.Emit(bytecode.OpConstant, cOffsetAdd)
	p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpConstant, cOffset)
	p.Emit(bytecode.OpGetLocal, 2)
	p.Emit(bytecode.OpCall, 3)
	p.Emit(bytecode.OpReturn, 1)
	di.ProcedureNames[entry] = "kwargs-sum"
	return Program{
		Code:  p,
		Entry: &bytecode.Procedure{Name: "kwargs-sum", Entry: entry, Required: 2},
		Debug: di,
	}
}
