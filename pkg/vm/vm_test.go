/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package vm

import (
	"testing"

	"github.com/kestrel-lang/kestrel/pkg/bytecode"
	"github.com/kestrel-lang/kestrel/pkg/errs"
)

// TestRunIdentity covers S1/S2-ish ground: a trivial single-argument call
// returns its argument unchanged through the ordinary CALL/RETURN path.
func TestRunIdentity(t *testing.T) {
	p := bytecode.NewProgram()
	entry := p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpReturn, 1)
	proc := &bytecode.Procedure{Name: "identity", Entry: entry, Required: 1}

	theVM := New(p, 0)
	results, err := theVM.Run(proc, []bytecode.Value{bytecode.NewInt(7)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || !results[0].IsInt() || results[0].AsInt() != 7 {
		t.Fatalf("want [7], got %v", results)
	}
}

// TestCallCCEscape covers S4: invoking a captured continuation from inside
// the procedure call/cc handed it short-circuits straight back out with
// the continuation's argument as call/cc's own result.
func TestCallCCEscape(t *testing.T) {
	p := bytecode.NewProgram()

	escapeEntry := p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpConstant, p.AddConstant(bytecode.NewInt(42)))
	p.Emit(bytecode.OpCall, 1)
	p.Emit(bytecode.OpReturn, 1) // unreachable: invoking k never returns here
	escapeProc := &bytecode.Procedure{Name: "escape", Entry: escapeEntry, Required: 1}

	cCallCC := p.AddConstant(bytecode.NewProcedure(BuiltinProcedure(BuiltinCallCC)))
	cEscape := p.AddConstant(bytecode.NewProcedure(escapeProc))

	mainEntry := p.Emit(bytecode.OpConstant, cCallCC)
	p.Emit(bytecode.OpConstant, cEscape)
	p.Emit(bytecode.OpCall, 1)
	p.Emit(bytecode.OpReturn, 1)
	mainProc := &bytecode.Procedure{Name: "main", Entry: mainEntry, Required: 0}

	theVM := New(p, 0)
	results, err := theVM.Run(mainProc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].AsInt() != 42 {
		t.Fatalf("want [42], got %v", results)
	}
}

// TestAbortToPromptReinstatesPartialContinuation covers S5: an
// abort-to-prompt transfers control to the installed prompt's handler
// with the delivered value and a partial continuation; reinstating that
// continuation later resumes exactly where the abort happened, delivering
// new values as if the abort-to-prompt call itself had returned them.
func TestAbortToPromptReinstatesPartialContinuation(t *testing.T) {
	p := bytecode.NewProgram()

	tag := bytecode.NewSymbol("my-tag")
	cTag := p.AddConstant(tag)
	cAbort := p.AddConstant(bytecode.NewProcedure(BuiltinProcedure(BuiltinAbortToPrompt)))
	cSeven := p.AddConstant(bytecode.NewInt(7))

	bodyEntry := p.Emit(bytecode.OpConstant, cAbort)
	p.Emit(bytecode.OpConstant, cTag)
	p.Emit(bytecode.OpConstant, cSeven)
	p.Emit(bytecode.OpCall, 2)
	p.Emit(bytecode.OpReturnValues, 1)
	bodyProc := &bytecode.Procedure{Name: "body", Entry: bodyEntry, Required: 0}

	// The prompt's handler: push the delivered value and the partial
	// continuation it was handed, then halt with both as the result -- a
	// stand-in for whatever a real prompt handler would do with them.
	handlerEntry := p.Emit(bytecode.OpGetLocal, 0)
	p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpHalt, 2)

	theVM := New(p, 0)
	theVM.PushPrompt(tag, handlerEntry)

	theVM.apply(bytecode.NewProcedure(bodyProc), nil, bootFP, bootRA)
	theVM.dispatch()

	if len(theVM.haltValues) != 2 {
		t.Fatalf("want 2 halt values (delivered value, continuation), got %v", theVM.haltValues)
	}
	if !theVM.haltValues[0].IsInt() || theVM.haltValues[0].AsInt() != 7 {
		t.Fatalf("want delivered value 7, got %v", theVM.haltValues[0])
	}
	if !theVM.haltValues[1].IsContinuation() {
		t.Fatalf("want a captured partial continuation, got %v", theVM.haltValues[1])
	}

	cont := theVM.haltValues[1]
	theVM.halted = false
	theVM.haltValues = nil
	theVM.invokeContinuation(cont, []bytecode.Value{bytecode.NewInt(42)})
	theVM.dispatch()

	if len(theVM.haltValues) != 1 || theVM.haltValues[0].AsInt() != 42 {
		t.Fatalf("want [42] after reinstating the partial continuation, got %v", theVM.haltValues)
	}
}

// TestStackOverflowRecoversVM covers S6: unbounded non-tail recursion
// raises a recoverable StackOverflow exactly once, and the VM is usable
// again for an unrelated call afterward.
func TestStackOverflowRecoversVM(t *testing.T) {
	p := bytecode.NewProgram()

	idEntry := p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpReturn, 1)
	idProc := &bytecode.Procedure{Name: "identity", Entry: idEntry, Required: 1}

	// spin calls itself as a non-tail call forever, growing the stack by
	// one frame per recursion until it overflows.
	spinProc := &bytecode.Procedure{Name: "spin", Required: 0}
	cSpin := p.AddConstant(bytecode.NewProcedure(spinProc))
	spinEntry := p.Emit(bytecode.OpConstant, cSpin)
	p.Emit(bytecode.OpCall, 0)
	p.Emit(bytecode.OpReturn, 0)
	spinProc.Entry = spinEntry

	theVM := New(p, MinStackSize)

	_, err := theVM.Run(spinProc, nil)
	if err == nil {
		t.Fatalf("expected a stack overflow from unbounded recursion")
	}
	ve, ok := err.(*errs.VMError)
	if !ok || ve.Kind != errs.StackOverflow {
		t.Fatalf("want a StackOverflow error, got %#v", err)
	}
	if ve.Fatal {
		t.Fatalf("the first overflow in a run should be recoverable, not fatal")
	}

	results, err := theVM.Run(idProc, []bytecode.Value{bytecode.NewInt(42)})
	if err != nil {
		t.Fatalf("VM should be usable again after a recovered overflow: %v", err)
	}
	if len(results) != 1 || results[0].AsInt() != 42 {
		t.Fatalf("want [42], got %v", results)
	}
}

// TestCallWithVMNonRewindableContinuation covers S8: a continuation
// captured while call-with-vm had switched to a different VM than the one
// previously current cannot be reinstated later, even from inside the
// capturing VM itself.
func TestCallWithVMNonRewindableContinuation(t *testing.T) {
	p := bytecode.NewProgram()

	escapeEntry := p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpReturn, 1)
	escapeProc := &bytecode.Procedure{Name: "escape", Entry: escapeEntry, Required: 1}

	cCallCC := p.AddConstant(bytecode.NewProcedure(BuiltinProcedure(BuiltinCallCC)))
	cEscape := p.AddConstant(bytecode.NewProcedure(escapeProc))

	mainEntry := p.Emit(bytecode.OpConstant, cCallCC)
	p.Emit(bytecode.OpConstant, cEscape)
	p.Emit(bytecode.OpCall, 1)
	p.Emit(bytecode.OpReturn, 1)
	mainProc := &bytecode.Procedure{Name: "main", Entry: mainEntry, Required: 0}

	outer := New(p, 0)
	inner := New(p, 0)

	var cont bytecode.Value
	CallWithVM(outer, func() {
		CallWithVM(inner, func() {
			results, err := inner.Run(mainProc, nil)
			if err != nil {
				t.Fatalf("unexpected error capturing continuation: %v", err)
			}
			cont = results[0]
		})
	})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected a ContinuationNotRewindable panic")
		}
		ve, ok := r.(*errs.VMError)
		if !ok || ve.Kind != errs.ContinuationNotRewindable {
			t.Fatalf("want ContinuationNotRewindable, got %v", r)
		}
	}()
	inner.invokeContinuation(cont, nil)
}

// TestRunValuesBuiltin covers S2: running the values builtin directly
// returns its arguments as a multi-value result.
func TestRunValuesBuiltin(t *testing.T) {
	theVM := New(nil, 0)
	args := []bytecode.Value{bytecode.NewInt(1), bytecode.NewInt(2), bytecode.NewInt(3)}
	results, err := theVM.Run(BuiltinProcedure(BuiltinValues), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("want 3 values, got %v", results)
	}
	for i, want := range []int{1, 2, 3} {
		if results[i].AsInt() != want {
			t.Fatalf("result %d: want %d, got %v", i, want, results[i])
		}
	}
}

// TestTailCallReusesFrame checks that a tail call replaces the current
// frame instead of pushing a new one: once the outermost call has
// returned, the stack must be back at its starting cursor, with no dead
// frame left between the boot frame and the returned value.
func TestTailCallReusesFrame(t *testing.T) {
	p := bytecode.NewProgram()

	idEntry := p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpReturn, 1)
	idProc := &bytecode.Procedure{Name: "identity", Entry: idEntry, Required: 1}

	cID := p.AddConstant(bytecode.NewProcedure(idProc))
	mainEntry := p.Emit(bytecode.OpConstant, cID)
	p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpTailCall, 1)
	mainProc := &bytecode.Procedure{Name: "main", Entry: mainEntry, Required: 1}

	theVM := New(p, 0)
	results, err := theVM.Run(mainProc, []bytecode.Value{bytecode.NewInt(11)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].AsInt() != 11 {
		t.Fatalf("want [11], got %v", results)
	}
	if theVM.SP() != Base-1 {
		t.Fatalf("tail call leaked stack cells: sp=%d after the run, want %d", theVM.SP(), Base-1)
	}
}

// TestReceive covers the three multi-value mismatch errors a RECEIVE
// raises when a call doesn't produce what its continuation expects.
func TestReceive(t *testing.T) {
	cases := []struct {
		name     string
		produced int
		expected int
		wantErr  errs.Kind
		wantOK   bool
	}{
		{"exact", 2, 2, 0, true},
		{"none", 0, 1, errs.NoValues, false},
		{"too-few", 1, 2, errs.NotEnoughValues, false},
		{"too-many", 2, 1, errs.WrongNumberOfValues, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := bytecode.NewProgram()

			producerEntry := len(p.Code)
			for i := 0; i < tc.produced; i++ {
				p.Emit(bytecode.OpConstant, p.AddConstant(bytecode.NewInt(i+3)))
			}
			p.Emit(bytecode.OpReturn, uint32(tc.produced))
			producer := &bytecode.Procedure{Name: "producer", Entry: producerEntry, Required: 0}

			cProducer := p.AddConstant(bytecode.NewProcedure(producer))
			mainEntry := p.Emit(bytecode.OpConstant, cProducer)
			p.Emit(bytecode.OpCall, 0)
			p.Emit(bytecode.OpReceive, bytecode.EncodeOperands12(1, tc.expected))
			p.Emit(bytecode.OpReturnValues, 1)
			mainProc := &bytecode.Procedure{Name: "main", Entry: mainEntry, Required: 0}

			theVM := New(p, 0)
			results, err := theVM.Run(mainProc, nil)

			if tc.wantOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(results) != tc.produced {
					t.Fatalf("want %d values, got %v", tc.produced, results)
				}
				return
			}
			ve, ok := err.(*errs.VMError)
			if !ok || ve.Kind != tc.wantErr {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

// TestKeywordArguments covers S7 and its two sibling failure modes: the
// keyword/value tail of a call is validated and bound by bind-kwargs,
// with each of the three keyword-argument-error kinds raised for its own
// malformation, naming the callee.
func TestKeywordArguments(t *testing.T) {
	p := bytecode.NewProgram()
	entry := p.Emit(bytecode.OpBindKwargs, 2)
	p.Emit(bytecode.OpGetLocal, 2)
	p.Emit(bytecode.OpReturn, 1)
	proc := &bytecode.Procedure{
		Name:     "paint",
		Entry:    entry,
		Required: 1,
		Rest:     true,
		Keywords: []string{"color"},
	}

	cases := []struct {
		name    string
		args    []bytecode.Value
		want    int
		wantErr errs.Kind
		wantOK  bool
	}{
		{"bound", []bytecode.Value{bytecode.NewInt(1), bytecode.NewKeyword("color"), bytecode.NewInt(9)}, 9, 0, true},
		{"odd-length", []bytecode.Value{bytecode.NewInt(1), bytecode.NewKeyword("color")}, 0, errs.KeywordOddLength, false},
		{"invalid-keyword", []bytecode.Value{bytecode.NewInt(1), bytecode.NewInt(5), bytecode.NewInt(9)}, 0, errs.KeywordInvalidKeyword, false},
		{"unrecognized-keyword", []bytecode.Value{bytecode.NewInt(1), bytecode.NewKeyword("size"), bytecode.NewInt(9)}, 0, errs.KeywordUnrecognizedKeyword, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			theVM := New(p, 0)
			results, err := theVM.Run(proc, tc.args)
			if tc.wantOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(results) != 1 || results[0].AsInt() != tc.want {
					t.Fatalf("want [%d], got %v", tc.want, results)
				}
				return
			}
			ve, ok := err.(*errs.VMError)
			if !ok || ve.Kind != tc.wantErr {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			if ve.Context == "" {
				t.Fatalf("keyword errors must name the callee, got empty context")
			}
		})
	}
}

// TestAbortImproperTail checks that abort's tail list is flattened (and
// rejected) before anything is unwound: a bad tail aborts nothing.
func TestAbortImproperTail(t *testing.T) {
	theVM := New(nil, 0)
	tag := bytecode.NewSymbol("t")
	theVM.PushPrompt(tag, 0)

	func() {
		defer func() {
			r := recover()
			ve, ok := r.(*errs.VMError)
			if !ok || ve.Kind != errs.ImproperList {
				t.Fatalf("want ImproperList, got %v", r)
			}
		}()
		theVM.abort(tag, nil, bytecode.NewPair(bytecode.NewInt(1), bytecode.NewInt(2)))
	}()

	if theVM.dyn.Len() != 1 {
		t.Fatalf("an improper tail must not unwind the prompt, dynstack len=%d", theVM.dyn.Len())
	}
}

// TestBadInstructionIsFatal: an undefined opcode is a fatal condition that
// re-panics past Run's recover instead of coming back as an ordinary
// error.
func TestBadInstructionIsFatal(t *testing.T) {
	p := bytecode.NewProgram()
	entry := p.Emit(bytecode.OpBad, 0)
	proc := &bytecode.Procedure{Name: "bad", Entry: entry, Required: 0}

	theVM := New(p, 0)
	defer func() {
		r := recover()
		ve, ok := r.(*errs.VMError)
		if !ok || ve.Kind != errs.BadInstruction || !ve.Fatal {
			t.Fatalf("want a fatal BadInstruction panic, got %v", r)
		}
	}()
	theVM.Run(proc, nil)
	t.Fatalf("Run should not have returned")
}

// TestPopContinuationHookReceivesValues: the pop-continuation event
// carries the values being returned as its extra arguments.
func TestPopContinuationHookReceivesValues(t *testing.T) {
	p := bytecode.NewProgram()
	entry := p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpReturn, 1)
	proc := &bytecode.Procedure{Name: "identity", Entry: entry, Required: 1}

	theVM := New(p, 0)
	theVM.SetEngine(EngineDebug)
	theVM.SetTraceLevel(1)

	var got []bytecode.Value
	theVM.SetPopContinuationHook(func(_ FrameView, extras ...bytecode.Value) {
		got = append([]bytecode.Value(nil), extras...)
	})

	if _, err := theVM.Run(proc, []bytecode.Value{bytecode.NewInt(5)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].AsInt() != 5 {
		t.Fatalf("want the returned [5] as hook extras, got %v", got)
	}
}

// TestBuiltinNameIndexRoundtrip covers invariant 6: the builtin name/index
// tables round-trip in both directions.
func TestBuiltinNameIndexRoundtrip(t *testing.T) {
	for i := BuiltinIndex(0); int(i) < int(builtinCount); i++ {
		name, ok := BuiltinIndexToName(i)
		if !ok {
			t.Fatalf("BuiltinIndexToName(%d) not found", i)
		}
		idx, ok := BuiltinNameToIndex(name)
		if !ok || idx != i {
			t.Fatalf("BuiltinNameToIndex(%q) = (%d, %v), want (%d, true)", name, idx, ok, i)
		}
	}
}

// TestHookNoopWhenTraceLevelZero covers invariant 5: with trace_level at
// its default of 0, an installed apply hook never fires, even under the
// Debug engine, and the call still returns its result; once the trace
// level is raised to 1, the same hook fires.
func TestHookNoopWhenTraceLevelZero(t *testing.T) {
	p := bytecode.NewProgram()
	entry := p.Emit(bytecode.OpGetLocal, 1)
	p.Emit(bytecode.OpReturn, 1)
	proc := &bytecode.Procedure{Name: "identity", Entry: entry, Required: 1}

	theVM := New(p, 0)
	theVM.SetEngine(EngineDebug)

	fired := false
	theVM.SetApplyHook(func(FrameView, ...bytecode.Value) { fired = true })

	results, err := theVM.Run(proc, []bytecode.Value{bytecode.NewInt(1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fired {
		t.Fatalf("hook fired despite trace_level == 0")
	}
	if len(results) != 1 || results[0].AsInt() != 1 {
		t.Fatalf("want [1], got %v", results)
	}

	theVM.SetTraceLevel(1)
	results, err = theVM.Run(proc, []bytecode.Value{bytecode.NewInt(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fired {
		t.Fatalf("hook should have fired once trace_level > 0 under EngineDebug")
	}
	if len(results) != 1 || results[0].AsInt() != 2 {
		t.Fatalf("want [2], got %v", results)
	}
}

// TestMarkLiveTracesOnlyLivePrefix covers invariant 2: marking must stop
// exactly at sp and must refuse to trace anything for an address that
// isn't the stack's own back-pointer cell.
func TestMarkLiveTracesOnlyLivePrefix(t *testing.T) {
	s := NewStack(MinStackSize, nil)
	s.Push(bytecode.NewInt(1))
	s.Push(bytecode.NewInt(2))
	s.Push(bytecode.NewInt(3))
	s.Drop(1) // sp now sits below the cell that used to hold 3

	var seen []int
	ok := s.MarkLive(Base-1, func(v bytecode.Value) { seen = append(seen, v.AsInt()) })
	if !ok {
		t.Fatalf("MarkLive should recognize the stack's own back-pointer cell")
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("want to trace exactly [1 2] (nothing above sp), got %v", seen)
	}

	seen = nil
	if s.MarkLive(Base, func(bytecode.Value) { seen = append(seen, 0) }) {
		t.Fatalf("MarkLive should refuse an address that isn't the back-pointer cell")
	}
	if len(seen) != 0 {
		t.Fatalf("a refused MarkLive must not visit anything")
	}
}

// TestStackInvariants exercises the basic value-stack discipline: a new
// stack starts empty at Base-1, pushes move sp up and peek sees them in
// order, and dropping past empty is reported as StackUnderflow rather than
// silently corrupting sp.
func TestStackInvariants(t *testing.T) {
	s := NewStack(MinStackSize, nil)
	if s.SP() != Base-1 {
		t.Fatalf("new stack should start empty, sp=%d", s.SP())
	}

	s.Push(bytecode.NewInt(1))
	s.Push(bytecode.NewInt(2))
	if s.SP() != Base+1 {
		t.Fatalf("want sp=%d after two pushes, got %d", Base+1, s.SP())
	}
	if s.Peek(0).AsInt() != 2 || s.Peek(1).AsInt() != 1 {
		t.Fatalf("peek returned unexpected values")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected StackUnderflow popping past empty")
			}
		}()
		s.Drop(10)
	}()
}
