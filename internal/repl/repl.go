// internal/repl/repl.go
package repl

import (
	"bufio"
	"fmt"
	"os"

	"slasha/internal/dis"
	"slasha/internal/instruction"
	"slasha/internal/interp"
	"slasha/internal/lexer"
	"slasha/internal/memcore"
)

// Start runs a read-assemble-run loop. Each line is a whole program and
// gets a fresh memory core; the instruction set is shared across the
// session, and each run resets its counters.
func Start(numNumeric uint32, dsize, lsize int, seed int64) {
	fmt.Println("Slash/A REPL | type 'exit' to quit")
	scanner := bufio.NewScanner(os.Stdin)

	set := instruction.NewSet()
	dis.InsertNumeric(set, numNumeric)
	dis.InsertFull(set)

	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "exit" {
			break
		}

		prog, err := lexer.Assemble(line, set)
		if err != nil {
			fmt.Println(err)
			continue
		}

		input := []float64{}
		output := []float64{}
		core := memcore.NewCore(dsize, lsize, &input, &output)

		if interp.RunByteCode(set, core, prog, seed, 0, -1) {
			fmt.Println("Program failed (time-out, loop depth, etc)!")
		}
	}
}
