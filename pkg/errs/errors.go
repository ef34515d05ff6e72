/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

package errs

import (
	"fmt"
)

//
// The Error interface
//

// Error is a Kestrel error. Every error kind the VM core can raise
// implements this interface, so callers can always get a process exit code
// out of whatever they catch.
type Error interface {
	error
	ExitCode() int
}

//
// BadUsage
//

// BadUsage is an error that happened because the kestrel tool was called in
// the wrong way (like incorrect command-line arguments).
type BadUsage struct {
	Message string
}

func NewBadUsage(format string, a ...any) *BadUsage {
	return &BadUsage{Message: fmt.Sprintf(format, a...)}
}

func (e *BadUsage) Error() string { return "Usage error: " + e.Message }

func (e *BadUsage) ExitCode() int { return StatusCodeBadUsage }

//
// CommandPrep
//

// CommandPrep is an error that happened while getting ready to run a
// command -- opening a file, parsing a golden test suite, that kind of
// thing. Doesn't fit any of the VM's own error kinds.
type CommandPrep struct {
	Message string
}

func NewCommandPrep(format string, a ...any) *CommandPrep {
	return &CommandPrep{Message: fmt.Sprintf(format, a...)}
}

func (e *CommandPrep) Error() string { return e.Message }

func (e *CommandPrep) ExitCode() int { return StatusCodeCommandPrepError }

//
// TestSuite
//

// TestSuite is an error that happened when running Kestrel's own golden
// test suite (i.e., when testing the VM itself, not a guest program).
type TestSuite struct {
	TestCase string
	Message  string
}

func NewTestSuite(testCase, format string, a ...any) *TestSuite {
	return &TestSuite{TestCase: testCase, Message: fmt.Sprintf(format, a...)}
}

func (e *TestSuite) Error() string {
	return fmt.Sprintf("%v: %v", e.TestCase, e.Message)
}

func (e *TestSuite) ExitCode() int { return StatusCodeTestSuiteError }

//
// ICE
//

// ICE is an Internal Consistency Error: something the VM's own invariants
// say can't happen, happened anyway. Always a bug in the VM itself, never
// in a guest program.
type ICE struct {
	Message string
}

func NewICE(format string, a ...any) *ICE {
	return &ICE{Message: fmt.Sprintf(format, a...)}
}

func (e *ICE) Error() string { return "Internal Consistency Error: " + e.Message }

func (e *ICE) ExitCode() int { return StatusCodeICE }

//
// VMError and its kinds
//

// Kind identifies which of the VM's error conditions a VMError represents.
// These are the error kinds the execution core itself can raise while
// running guest bytecode -- as opposed to BadUsage/CommandPrep/TestSuite/ICE,
// which are tooling-level errors that never cross the VM/run boundary.
type Kind int

const (
	BadInstruction Kind = iota
	Unbound
	UnboundFluid
	NotAVariable
	NotAPair
	NotAByteVector
	NotAStruct
	ApplyToNonList
	ImproperList
	KeywordOddLength
	KeywordInvalidKeyword
	KeywordUnrecognizedKeyword
	TooManyArgs
	WrongNumArgs
	WrongTypeApply
	StackOverflow
	StackUnderflow
	NoValues
	NotEnoughValues
	WrongNumberOfValues
	ContinuationNotRewindable
	BadWideStringLength
)

var kindNames = map[Kind]string{
	BadInstruction:             "bad-instruction",
	Unbound:                    "unbound",
	UnboundFluid:               "unbound-fluid",
	NotAVariable:               "not-a-variable",
	NotAPair:                   "not-a-pair",
	NotAByteVector:             "not-a-bytevector",
	NotAStruct:                 "not-a-struct",
	ApplyToNonList:             "apply-to-non-list",
	ImproperList:               "improper-list",
	KeywordOddLength:           "keyword-argument-error/odd-length",
	KeywordInvalidKeyword:      "keyword-argument-error/invalid-keyword",
	KeywordUnrecognizedKeyword: "keyword-argument-error/unrecognized-keyword",
	TooManyArgs:                "too-many-args",
	WrongNumArgs:               "wrong-num-args",
	WrongTypeApply:             "wrong-type-apply",
	StackOverflow:              "stack-overflow",
	StackUnderflow:             "stack-underflow",
	NoValues:                   "no-values",
	NotEnoughValues:            "not-enough-values",
	WrongNumberOfValues:        "wrong-number-of-values",
	ContinuationNotRewindable:  "continuation-not-rewindable",
	BadWideStringLength:        "bad-wide-string-length",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("unknown-error-kind(%d)", int(k))
}

// VMError is raised (via panic, see pkg/vm) by the execution core whenever
// one of the conditions in §7 occurs. It carries whatever context that
// error kind needs: a raw instruction word, an offending procedure or
// value, an expected count. Most fields are only meaningful for a subset
// of Kinds; Context holds a free-form human-readable rendering of whatever
// the specific kind cares about.
type VMError struct {
	Kind Kind

	// Context is a short human-readable description of the offending value,
	// procedure, or count -- whatever is relevant for Kind.
	Context string

	// Fatal is set for the two error conditions that cannot be recovered
	// from: BadInstruction and a stack overflow that happens a second time
	// before the reserve is reclaimed. A Fatal VMError is never something a
	// handler is expected to catch and continue past.
	Fatal bool
}

func NewVMError(kind Kind, format string, a ...any) *VMError {
	return &VMError{Kind: kind, Context: fmt.Sprintf(format, a...)}
}

// NewFatalVMError builds a VMError for one of the two conditions the VM
// cannot recover from: a malformed instruction word, or a stack overflow
// striking a second time before the reserve is reclaimed.
func NewFatalVMError(kind Kind, format string, a ...any) *VMError {
	return &VMError{Kind: kind, Context: fmt.Sprintf(format, a...), Fatal: true}
}

func (e *VMError) Error() string {
	if e.Context == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Context)
}

func (e *VMError) ExitCode() int {
	if e.Fatal {
		return StatusCodeFatalVMError
	}
	return StatusCodeRuntimeError
}
