package dis

import (
	"slasha/internal/instruction"
	"slasha/internal/memcore"
)

// buildJumpTable resolves every jumpifn in the program to its matching
// jumphere in one pass over the code tape. Matching is by balanced nesting:
// each jumpifn opens a scope, each jumphere closes the innermost. Entry 0
// means unmatched; a jumpifn at position 0 can never be its own partner so
// the sentinel is unambiguous. Matching is by instruction name, so a host
// descriptor named "jumpifn" participates like the built-in one.
func buildJumpTable(core *memcore.Core, set *instruction.Set) {
	size := len(core.Code)
	table := make([]int, size)

	for cur := 0; cur < size; cur++ {
		if set.Name(core.Code[cur]) != "jumpifn" {
			continue
		}
		open := 1
		pos := cur + 1
		for open > 0 && pos < size {
			switch set.Name(core.Code[pos]) {
			case "jumpifn":
				open++
			case "jumphere":
				open--
			}
			pos++
		}
		if open == 0 {
			// Points at the jumphere itself; the interpreter executes
			// the instruction after it.
			table[cur] = pos - 1
		}
	}

	core.JumpTable = table
}

// buildLoopTable pairs every loop with its endloop, recording the partner
// position in both directions, and measures the deepest nesting seen. When
// the measured depth exceeds the set's limit the run fails; the tables are
// still assigned so the counters observed so far stay meaningful.
func buildLoopTable(core *memcore.Core, set *instruction.Set) error {
	size := len(core.Code)
	target := make([]int, size)
	count := make([]uint64, size)
	maxDepth := 0

	for cur := 0; cur < size; cur++ {
		if set.Name(core.Code[cur]) != "loop" {
			continue
		}
		depth := 1
		open := 1
		pos := cur + 1
		for open > 0 && pos < size {
			switch set.Name(core.Code[pos]) {
			case "loop":
				open++
				if open > depth {
					depth = open
				}
			case "endloop":
				open--
			}
			pos++
		}
		if open <= 0 {
			if depth > maxDepth {
				maxDepth = depth
			}
			target[cur] = pos - 1
			target[pos-1] = cur
		}
	}

	core.LoopTarget = target
	core.LoopCount = count

	if limit := set.MaxLoopDepth(); limit >= 0 && maxDepth > limit {
		return instruction.ErrLoopDepth
	}
	return nil
}
