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

// Reserve is the number of cells kept free past stackLimit so that
// stack-overflow signaling can itself execute without overflowing a
// second time.
const Reserve = 512

// MinStackSize is the smallest usable stack capacity accepted from
// KESTREL_STACK_SIZE; smaller values are ignored in favor of
// DefaultStackSize.
const MinStackSize = 1024

// DefaultStackSize is the usable stack capacity used when
// KESTREL_STACK_SIZE isn't set (or is out of range).
const DefaultStackSize = 256 * 1024

// Stack is the VM's value stack: a fixed-capacity buffer of tagged values
// plus its sp cursor (ip and fp are kept on the VM). Cell 0 is reserved
// for a back-pointer (see MarkLive); the usable area begins at Base.
type Stack struct {
	cells []bytecode.Value

	// usableCapacity is how many cells past Base a normal push may use;
	// it starts at capacity-Reserve and is raised to capacity the first
	// time a StackOverflow is raised, so the error-raising path has room
	// to run.
	usableCapacity int

	// capacity is the total cell count past Base, including the reserve.
	capacity int

	// reserveTaken records whether the reserve has already been granted
	// once. A second StackOverflow while it's taken is a fatal
	// double-fault.
	reserveTaken bool

	// owner is the back-pointer stored (conceptually) at cells[0], letting
	// a precise stack-marking collector recover the owning VM from a raw
	// cell reference. See MarkLive.
	owner any

	// sp is an inclusive index into cells; sp == Base-1 means empty.
	sp int
}

// Base is the index of the first usable cell; cell 0 holds the
// back-pointer MarkLive checks for.
const Base = 1

// NewStack allocates a stack with the given usable capacity (not counting
// the reserve or the back-pointer cell).
func NewStack(usableCapacity int, owner any) *Stack {
	if usableCapacity < MinStackSize {
		usableCapacity = DefaultStackSize
	}
	capacity := usableCapacity + Reserve
	s := &Stack{
		cells:          make([]bytecode.Value, capacity+Base),
		usableCapacity: usableCapacity,
		capacity:       capacity,
		owner:          owner,
		sp:             Base - 1,
	}
	return s
}

// SP returns the current stack pointer (inclusive top).
func (s *Stack) SP() int { return s.sp }

// StackLimit is the highest index a normal push may write to before
// StackOverflow, i.e. Base + usableCapacity - 1.
func (s *Stack) StackLimit() int { return Base + s.usableCapacity - 1 }

// checkRoom raises StackOverflow if pushing n more cells past the current
// sp would cross StackLimit. Implements the reserve discipline described
// in SPEC_FULL.md §4.1: the first time this happens, the usable area is
// extended into the reserve so the error-raising path (and whatever
// handler catches it) has room to run; a second overflow before the
// reserve is reclaimed is a fatal double-fault.
func (s *Stack) checkRoom(n int) {
	if s.sp+n <= s.StackLimit() {
		return
	}
	if s.reserveTaken {
		panic(errs.NewFatalVMError(errs.StackOverflow,
			"stack overflowed a second time before the reserve was reclaimed"))
	}
	s.usableCapacity = s.capacity
	s.reserveTaken = true
	panic(errs.NewVMError(errs.StackOverflow, "stack overflow (capacity %d)", s.capacity))
}

// ReclaimReserve lowers the usable area back to capacity-Reserve. Called
// once a StackOverflow has been caught and handled, so that a later
// overflow is recoverable again rather than immediately fatal.
func (s *Stack) ReclaimReserve() {
	s.usableCapacity = s.capacity - Reserve
	s.reserveTaken = false
}

// Push appends v above the current sp, raising StackOverflow if there's
// no room.
func (s *Stack) Push(v bytecode.Value) {
	s.checkRoom(1)
	s.sp++
	s.cells[s.sp] = v
}

// Pop removes and returns the value at sp, raising StackUnderflow if the
// stack is (logically) empty.
func (s *Stack) Pop() bytecode.Value {
	if s.sp < Base {
		panic(errs.NewVMError(errs.StackUnderflow, "pop on empty stack"))
	}
	v := s.cells[s.sp]
	s.sp--
	return v
}

// ReserveCells pushes n Unbound filler cells, raising StackOverflow if there's
// no room. Used to grow a frame for temporaries before a nested call.
func (s *Stack) ReserveCells(n int) {
	s.checkRoom(n)
	for i := 0; i < n; i++ {
		s.sp++
		s.cells[s.sp] = bytecode.Unbound
	}
}

// Drop discards the top n cells, raising StackUnderflow if the stack
// doesn't hold that many.
func (s *Stack) Drop(n int) {
	if s.sp-n < Base-1 {
		panic(errs.NewVMError(errs.StackUnderflow, "drop %d on a shorter stack", n))
	}
	s.sp -= n
}

// Peek returns the value k cells below the top (Peek(0) is the top
// itself) without removing it.
func (s *Stack) Peek(k int) bytecode.Value {
	idx := s.sp - k
	if idx < Base-1 || idx > s.sp {
		panic(errs.NewVMError(errs.StackUnderflow, "peek(%d) out of range", k))
	}
	return s.cells[idx]
}

// At returns the value at absolute index idx (as fp/sp address it).
func (s *Stack) At(idx int) bytecode.Value {
	return s.cells[idx]
}

// SetAt stores v at absolute index idx.
func (s *Stack) SetAt(idx int, v bytecode.Value) {
	s.cells[idx] = v
}

// Set stores v at the cell k below the top (Set(0, v) overwrites the top).
func (s *Stack) Set(k int, v bytecode.Value) {
	idx := s.sp - k
	if idx < Base-1 || idx > s.sp {
		panic(errs.NewVMError(errs.StackUnderflow, "set(%d) out of range", k))
	}
	s.cells[idx] = v
}

// TruncateTo lowers sp to newSP, discarding everything above it. newSP
// must not be higher than the current sp.
func (s *Stack) TruncateTo(newSP int) {
	s.sp = newSP
}

// InsertCells opens a gap of n cells starting at idx, shifting everything
// from idx to sp upward by n. The cells of the gap still hold whatever
// they held before the shift; callers overwrite them immediately. Used by the CALL opcode handler to
// make room for linkage slots below a callee's arguments. Raises
// StackOverflow if there isn't room to grow.
func (s *Stack) InsertCells(idx int, n int) {
	s.checkRoom(n)
	for i := s.sp; i >= idx; i-- {
		s.cells[i+n] = s.cells[i]
	}
	s.sp += n
}

// MarkLive stands in for the custom GC mark callback PreciseStackMarker
// describes: given a candidate root address, it reports whether addr is
// actually this stack's reserved back-pointer cell (Base-1) and, if so,
// visits every live cell in [Base..sp] -- never anything past sp. Go's
// own collector already scans the backing array as one conservative
// block, so nothing here drives real GC behavior; it exists so the
// "marking traces no cell at index > sp" invariant is something calling
// code (and tests) can exercise directly, the way the teacher's own GC
// integration would gate a mark callback on the same back-pointer check
// before it ever touches stack memory.
func (s *Stack) MarkLive(addr int, visit func(bytecode.Value)) bool {
	if addr != Base-1 {
		return false
	}
	for i := Base; i <= s.sp; i++ {
		visit(s.cells[i])
	}
	return true
}

// Capacity returns the total usable-plus-reserve capacity, for
// diagnostics. Continuation reinstatement checks against UsableSize.
func (s *Stack) Capacity() int { return s.capacity }

// UsableSize returns how many cells are currently usable above Base,
// matching Guile's "stack_size" in the reinstatement overflow checks this
// core's continuation code performs.
func (s *Stack) UsableSize() int { return s.usableCapacity }
