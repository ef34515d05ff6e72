/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

package bytecode

// DebugInfo carries source-level information about a Program that isn't
// needed to execute it, only to report useful diagnostics and
// disassembly: which procedure a given code offset belongs to, and what
// source line it came from. Kestrel keeps no persisted state, so
// DebugInfo only ever exists in memory, built alongside a Program by
// whatever assembled it.
type DebugInfo struct {
	// ProcedureNames maps a procedure's entry offset to a human-readable
	// name, for disassembly and backtraces.
	ProcedureNames map[int]string

	// Lines maps a code offset to a source line number. Entries are
	// sparse: only offsets where the line changes need to be present: the
	// line for an offset is the nearest (offset' <= offset) entry.
	Lines map[int]int

	// SourceFile is the name of the file the Program was compiled from,
	// if any.
	SourceFile string
}

// NewDebugInfo returns an empty DebugInfo ready to be populated.
func NewDebugInfo() *DebugInfo {
	return &DebugInfo{
		ProcedureNames: map[int]string{},
		Lines:          map[int]int{},
	}
}

// LineAt returns the source line associated with offset, or 0 if unknown.
func (di *DebugInfo) LineAt(offset int) int {
	best := 0
	bestOffset := -1
	for o, line := range di.Lines {
		if o <= offset && o > bestOffset {
			bestOffset = o
			best = line
		}
	}
	return best
}

// ProcedureNameAt returns the name of the procedure whose entry point is
// offset, or "" if unknown.
func (di *DebugInfo) ProcedureNameAt(offset int) string {
	return di.ProcedureNames[offset]
}
