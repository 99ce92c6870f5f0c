// Package dis implements the Default Instruction Set: the built-in opcodes
// every Slash/A interpreter ships with, plus the block of numeric-literal
// instructions that load fixed values into the I register.
//
// Every executor counts one operation on entry and funnels every guarded
// precondition failure into the invalid-operation counter of its own
// descriptor. Invalid operations never stop a run; the only fatal signal an
// executor can raise is the loop-depth limit during loop-table construction.
package dis

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"

	"slasha/internal/instruction"
	"slasha/internal/memcore"
)

// Stdin and Stdout carry the interactive traffic of the input and output
// instructions when no input buffer is supplied. Tests redirect them.
var (
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
)

// PromptInput controls whether the input instruction prints its prompt.
// Piped runs stay clean; terminals get the prompt.
var PromptInput = isatty.IsTerminal(os.Stdin.Fd())

// InsertNumeric appends n numeric-literal instructions, named "0".."n-1",
// each loading its value into the I register.
func InsertNumeric(set *instruction.Set, n uint32) {
	for i := uint32(0); i < n; i++ {
		k := uint64(i)
		set.Insert(&instruction.Instruction{
			Name: strconv.FormatUint(k, 10),
			DIS:  true,
			Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
				core.I = k
				in.CountOp()
				return nil
			},
		})
	}
	set.SetNumNumeric(n)
}

// InsertIO appends the input/output instructions.
func InsertIO(set *instruction.Set) {
	set.Insert(newInput())
	set.Insert(newOutput())
}

// InsertMemReg appends the memory-register instructions.
func InsertMemReg(set *instruction.Set) {
	set.Insert(newLoad())
	set.Insert(newSave())
	set.Insert(newSwap())
	set.Insert(newCmp())
}

// InsertRegReg appends the register-register instructions.
func InsertRegReg(set *instruction.Set) {
	set.Insert(newInc())
	set.Insert(newDec())
	set.Insert(newItoF())
	set.Insert(newFtoI())
}

// InsertGotos appends the label/goto instructions.
func InsertGotos(set *instruction.Set) {
	set.Insert(newLabel())
	set.Insert(newGotoIfP())
}

// InsertJumps appends the forward-jump instructions.
func InsertJumps(set *instruction.Set) {
	set.Insert(newJumpIfN())
	set.Insert(newJumpHere())
}

// InsertLoops appends the bounded-loop instructions.
func InsertLoops(set *instruction.Set) {
	set.Insert(newLoop())
	set.Insert(newEndLoop())
}

// InsertBasicMath appends add, sub, mul and div.
func InsertBasicMath(set *instruction.Set) {
	set.Insert(newBinary("add", func(f, d float64) float64 { return f + d }))
	set.Insert(newBinary("sub", func(f, d float64) float64 { return f - d }))
	set.Insert(newBinary("mul", func(f, d float64) float64 { return f * d }))
	set.Insert(newBinary("div", func(f, d float64) float64 { return f / d }))
}

// InsertAdvMath appends the remaining math instructions.
func InsertAdvMath(set *instruction.Set) {
	set.Insert(newAbs())
	set.Insert(newSign())
	set.Insert(newExp())
	set.Insert(newLog())
	set.Insert(newSin())
	set.Insert(newBinary("pow", math.Pow))
	set.Insert(newRan())
}

// InsertMisc appends everything else.
func InsertMisc(set *instruction.Set) {
	set.Insert(newNop())
}

// InsertFull appends the whole Default Instruction Set except the numeric
// literals, which are sized by the host and inserted separately.
func InsertFull(set *instruction.Set) {
	InsertIO(set)
	InsertMemReg(set)
	InsertRegReg(set)
	InsertGotos(set)
	InsertJumps(set)
	InsertLoops(set)
	InsertBasicMath(set)
	InsertAdvMath(set)
	InsertMisc(set)
}

// InsertFullMinusGotos appends the full set without label/gotoifp.
// Evolutionary hosts use it to rule out trivial infinite loops.
func InsertFullMinusGotos(set *instruction.Set) {
	InsertIO(set)
	InsertMemReg(set)
	InsertRegReg(set)
	InsertJumps(set)
	InsertLoops(set)
	InsertBasicMath(set)
	InsertAdvMath(set)
	InsertMisc(set)
}

func newItoF() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "itof",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if !core.SetF(float64(core.I)) {
				in.CountInvop()
			}
			return nil
		},
	}
}

func newFtoI() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "ftoi",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			// Round half to even, then wrap through a signed value so a
			// negative F lands far out of tape range.
			core.I = uint64(int64(math.RoundToEven(core.F())))
			return nil
		},
	}
}

func newInc() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "inc",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if !core.SetF(core.F() + 1.0) {
				in.CountInvop()
			}
			return nil
		},
	}
}

func newDec() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "dec",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if !core.SetF(core.F() - 1.0) {
				in.CountInvop()
			}
			return nil
		},
	}
}

func newLoad() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "load",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if core.I < uint64(len(core.D)) && core.DSaved[core.I] {
				if !core.SetF(core.D[core.I]) {
					in.CountInvop()
				}
			} else {
				in.CountInvop()
			}
			return nil
		},
	}
}

func newSave() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "save",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if core.I < uint64(len(core.D)) {
				core.D[core.I] = core.F()
				core.DSaved[core.I] = true
			} else {
				in.CountInvop()
			}
			return nil
		},
	}
}

func newSwap() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "swap",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if core.I < uint64(len(core.D)) && core.DSaved[core.I] {
				aux := core.D[core.I]
				core.D[core.I] = core.F()
				core.SetF(aux)
			} else {
				in.CountInvop()
			}
			return nil
		},
	}
}

func newCmp() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "cmp",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if core.I < uint64(len(core.D)) && core.DSaved[core.I] {
				ret := 0.0
				if core.F() != core.D[core.I] {
					ret = -1
				}
				if !core.SetF(ret) {
					in.CountInvop()
				}
			} else {
				in.CountInvop()
			}
			return nil
		},
	}
}

// newBinary builds the guarded F-with-D[I] instructions. Division by zero,
// pow of a negative base to a fractional power and the like yield
// non-finite results, which SetF
// rejects: F keeps its value and the operation counts invalid.
func newBinary(name string, op func(f, d float64) float64) *instruction.Instruction {
	return &instruction.Instruction{
		Name: name,
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if core.I < uint64(len(core.D)) && core.DSaved[core.I] {
				if !core.SetF(op(core.F(), core.D[core.I])) {
					in.CountInvop()
				}
			} else {
				in.CountInvop()
			}
			return nil
		},
	}
}

func newAbs() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "abs",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			core.SetF(math.Abs(core.F()))
			return nil
		},
	}
}

// sign negates F. The name is historical; the behavior is negation, and
// programs in the wild depend on it.
func newSign() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "sign",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			core.SetF(-core.F())
			return nil
		},
	}
}

func newExp() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "exp",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			core.SetF(math.Exp(core.F()))
			return nil
		},
	}
}

func newLog() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "log",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if !core.SetF(math.Log(core.F())) {
				in.CountInvop()
			}
			return nil
		},
	}
}

func newSin() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "sin",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			core.SetF(math.Sin(core.F()))
			return nil
		},
	}
}

func newRan() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "ran",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if !core.SetF(core.Ran(&core.RanState)) {
				in.CountInvop()
			}
			return nil
		},
	}
}

func newNop() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "nop",
		DIS:  true,
		Exec: func(in *instruction.Instruction, _ *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			return nil
		},
	}
}

func newInput() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "input",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if len(*core.Input) == 0 {
				if PromptInput {
					fmt.Fprintf(Stdout, "Enter input #%d: ", in.Inputs()+1)
				}
				var f float64
				if _, err := fmt.Fscan(Stdin, &f); err == nil {
					core.SetF(f)
				}
			} else if in.Inputs() < uint64(len(*core.Input)) {
				core.SetF((*core.Input)[in.Inputs()])
			}
			// An exhausted supplied buffer leaves F alone but the input
			// still counts.
			in.CountInput(core)
			return nil
		},
	}
}

func newOutput() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "output",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if len(*core.Input) == 0 {
				fmt.Fprintf(Stdout, "Output #%d: %g\n", in.Outputs()+1, core.F())
			} else {
				*core.Output = append(*core.Output, core.F())
			}
			in.CountOutput()
			core.OutputExecuted = true
			return nil
		},
	}
}

func newLabel() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "label",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if core.I < uint64(len(core.L)) {
				// Saves the label's own position; the interpreter's
				// post-increment resumes execution just past it.
				core.L[core.I] = core.PC
				core.LSaved[core.I] = true
			} else {
				in.CountInvop()
			}
			return nil
		},
	}
}

func newGotoIfP() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "gotoifp",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if core.I < uint64(len(core.L)) {
				if core.LSaved[core.I] {
					if core.F() >= 0 {
						core.PC = core.L[core.I]
					}
				} else {
					in.CountInvop()
				}
			} else {
				in.CountInvop()
			}
			return nil
		},
	}
}

func newJumpIfN() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "jumpifn",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, set *instruction.Set) error {
			in.CountOp()
			if core.F() < 0 {
				if core.JumpTable == nil {
					buildJumpTable(core, set)
				}
				if core.JumpTable[core.PC] != 0 {
					core.PC = core.JumpTable[core.PC]
				} else {
					in.CountInvop()
				}
			}
			return nil
		},
	}
}

func newJumpHere() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "jumphere",
		DIS:  true,
		Exec: func(in *instruction.Instruction, _ *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			return nil
		},
	}
}

func newLoop() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "loop",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, set *instruction.Set) error {
			in.CountOp()
			if core.LoopTarget == nil {
				if err := buildLoopTable(core, set); err != nil {
					return err
				}
			}
			if core.LoopTarget[core.PC] != 0 {
				if core.I == 0 {
					// Skip the whole body: land on the endloop, the
					// interpreter steps past it.
					core.PC = core.LoopTarget[core.PC]
				} else {
					core.LoopCount[core.PC] = core.I
				}
			} else {
				in.CountInvop()
			}
			return nil
		},
	}
}

func newEndLoop() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "endloop",
		DIS:  true,
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if core.LoopTarget != nil {
				if core.LoopTarget[core.PC] != 0 {
					loopAddr := core.LoopTarget[core.PC]
					if core.LoopCount[loopAddr] > 1 {
						core.PC = loopAddr
						core.LoopCount[loopAddr]--
					}
				} else {
					in.CountInvop()
				}
			} else {
				in.CountInvop()
			}
			return nil
		},
	}
}
