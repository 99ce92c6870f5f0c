// Package memcore holds the mutable state of a single Slash/A run: the two
// registers, the data and label tapes with their saved bitmaps, the lazily
// built control-flow tables, and the borrowed I/O buffers.
package memcore

import (
	"math"

	"slasha/internal/bytecode"
)

// Core is the memory core of one run. The F register is unexported so that
// every write goes through SetF, which rejects non-finite values.
type Core struct {
	f float64 // F register, always finite
	I uint64  // I register

	Code bytecode.Program // program tape, set by the interpreter
	PC   int              // program tape position

	D      []float64 // data tape
	DSaved []bool

	L      []int // label tape: saved program-counter values
	LSaved []bool

	// Loop tables, built on the first executed loop instruction of a run.
	// LoopTarget[i] is the partner position of the loop/endloop at i, 0
	// meaning "no partner" (position 0 is never a valid partner).
	LoopTarget []int
	LoopCount  []uint64

	// Forward-jump table, built on the first firing jumpifn of a run.
	// Nil until built; JumpTable[i] is the matching jumphere position of
	// the jumpifn at i, 0 if unmatched.
	JumpTable []int

	Input  *[]float64
	Output *[]float64

	// OutputExecuted is sticky once any output instruction has run; it
	// gates the inputs-before-first-output counter.
	OutputExecuted bool

	// RanState is the opaque scalar handed to the injected generator.
	RanState int64
	Ran      func(state *int64) float64
}

// NewCore allocates a core with the given tape sizes. The input and output
// buffers are borrowed from the caller for the lifetime of the run.
func NewCore(dsize, lsize int, input, output *[]float64) *Core {
	return &Core{
		D:      make([]float64, dsize),
		DSaved: make([]bool, dsize),
		L:      make([]int, lsize),
		LSaved: make([]bool, lsize),
		Input:  input,
		Output: output,
	}
}

// F returns the float register.
func (c *Core) F() float64 { return c.f }

// SetF writes the F register. Non-finite values are rejected: F keeps its
// old value and SetF reports false.
func (c *Core) SetF(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	c.f = f
	return true
}

// ResetTables drops the lazily built control-flow tables so the next run
// over this core rebuilds them for its own program.
func (c *Core) ResetTables() {
	c.LoopTarget = nil
	c.LoopCount = nil
	c.JumpTable = nil
}
