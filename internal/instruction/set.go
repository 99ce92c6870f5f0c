// Package instruction defines the instruction descriptor and the ordered
// instruction set a program is assembled against. The position of a
// descriptor in the set is its bytecode value.
package instruction

import (
	"errors"

	"slasha/internal/bytecode"
	"slasha/internal/memcore"
)

// ErrLoopDepth is the fatal failure raised when loop-table construction
// measures a nesting depth beyond the configured limit. Any non-nil error
// returned by an executor aborts the run.
var ErrLoopDepth = errors.New("maximum loop depth exceeded")

// Instruction describes one opcode: its source name, whether it belongs to
// the built-in set, its executor, and its usage counters. Counters are
// per-descriptor and only reset by an explicit Clear.
type Instruction struct {
	Name string
	DIS  bool
	Exec func(in *Instruction, core *memcore.Core, set *Set) error

	nOps            uint64
	nInvops         uint64
	nInputs         uint64
	nOutputs        uint64
	nInputsBfOutput uint64
}

// CountOp records one executed operation.
func (in *Instruction) CountOp() { in.nOps++ }

// CountInvop records one invalid operation.
func (in *Instruction) CountInvop() { in.nInvops++ }

// CountInput records one executed input, and one input-before-output if no
// output instruction has run yet.
func (in *Instruction) CountInput(core *memcore.Core) {
	in.nInputs++
	if !core.OutputExecuted {
		in.nInputsBfOutput++
	}
}

// CountOutput records one executed output.
func (in *Instruction) CountOutput() { in.nOutputs++ }

func (in *Instruction) Ops() uint64                { return in.nOps }
func (in *Instruction) Invops() uint64             { return in.nInvops }
func (in *Instruction) Inputs() uint64             { return in.nInputs }
func (in *Instruction) Outputs() uint64            { return in.nOutputs }
func (in *Instruction) InputsBeforeOutput() uint64 { return in.nInputsBfOutput }

// ClearCounters zeroes the usage counters.
func (in *Instruction) ClearCounters() {
	in.nOps = 0
	in.nInvops = 0
	in.nInputs = 0
	in.nOutputs = 0
	in.nInputsBfOutput = 0
}

// Set is an ordered, append-only instruction registry. Insertion order
// assigns bytecode values; the set is frozen for the duration of a run.
type Set struct {
	insts        []*Instruction
	numNumeric   uint32
	maxLoopDepth int
}

// NewSet returns an empty set with the loop-depth check disabled.
func NewSet() *Set {
	return &Set{maxLoopDepth: -1}
}

// Insert appends a descriptor and returns its bytecode value.
func (s *Set) Insert(in *Instruction) bytecode.Code {
	s.insts = append(s.insts, in)
	return bytecode.Code(len(s.insts) - 1)
}

// Exec dispatches one bytecode word.
func (s *Set) Exec(c bytecode.Code, core *memcore.Core) error {
	in := s.insts[c]
	return in.Exec(in, core, s)
}

// Lookup scans for the first descriptor with the given name. Duplicate
// names are allowed; only the first is ever found.
func (s *Set) Lookup(name string) (bytecode.Code, bool) {
	for i, in := range s.insts {
		if in.Name == name {
			return bytecode.Code(i), true
		}
	}
	return 0, false
}

// At returns the descriptor for a bytecode value.
func (s *Set) At(c bytecode.Code) *Instruction { return s.insts[c] }

// Name returns the source name of a bytecode value.
func (s *Set) Name(c bytecode.Code) string { return s.insts[c].Name }

// Size returns the number of registered instructions.
func (s *Set) Size() int { return len(s.insts) }

// SetNumNumeric records how many numeric-literal instructions lead the set.
func (s *Set) SetNumNumeric(n uint32) { s.numNumeric = n }

// NumNumeric reports how many numeric-literal instructions lead the set.
func (s *Set) NumNumeric() uint32 { return s.numNumeric }

// MaxLoopDepth returns the loop nesting limit; negative disables the check.
func (s *Set) MaxLoopDepth() int { return s.maxLoopDepth }

// SetMaxLoopDepth sets the loop nesting limit.
func (s *Set) SetMaxLoopDepth(depth int) { s.maxLoopDepth = depth }

// TotalOps sums executed operations across the set.
func (s *Set) TotalOps() uint64 {
	var n uint64
	for _, in := range s.insts {
		n += in.nOps
	}
	return n
}

// TotalInvops sums invalid operations across the set.
func (s *Set) TotalInvops() uint64 {
	var n uint64
	for _, in := range s.insts {
		n += in.nInvops
	}
	return n
}

// TotalInputs sums executed input instructions across the set.
func (s *Set) TotalInputs() uint64 {
	var n uint64
	for _, in := range s.insts {
		n += in.nInputs
	}
	return n
}

// TotalOutputs sums executed output instructions across the set.
func (s *Set) TotalOutputs() uint64 {
	var n uint64
	for _, in := range s.insts {
		n += in.nOutputs
	}
	return n
}

// TotalInputsBeforeOutput sums inputs executed before the first output.
func (s *Set) TotalInputsBeforeOutput() uint64 {
	var n uint64
	for _, in := range s.insts {
		n += in.nInputsBfOutput
	}
	return n
}

// Clear resets every counter in the set.
func (s *Set) Clear() {
	for _, in := range s.insts {
		in.ClearCounters()
	}
}

// ListAll renders every instruction name in source form.
func (s *Set) ListAll() string {
	out := ""
	for _, in := range s.insts {
		out += in.Name + "/"
	}
	return out + "."
}
