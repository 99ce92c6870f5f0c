// Package interp drives a Slash/A run: it resets the per-run state, arms
// the wall-clock watchdog and dispatches bytecode until the program ends,
// the watchdog fires, or an executor raises a fatal failure.
package interp

import (
	"sync/atomic"
	"time"

	"slasha/internal/bytecode"
	"slasha/internal/instruction"
	"slasha/internal/memcore"
	"slasha/internal/rng"
)

// A zero max-runtime means a week.
const defaultMaxRuntime = 7 * 24 * time.Hour

// Watchdog is the cooperative cancellation flag the fetch loop polls
// between instructions. It is set once, from any goroutine; a running
// instruction finishes before the flag is observed, so cancellation is at
// worst one instruction late.
type Watchdog struct {
	expired atomic.Bool
}

// Expire flips the flag.
func (w *Watchdog) Expire() { w.expired.Store(true) }

// Expired reports whether the flag has been flipped.
func (w *Watchdog) Expired() bool { return w.expired.Load() }

// RunByteCode executes a program against the given set and core, arming a
// timer-backed watchdog. It reports failed=true on timeout or a fatal
// failure such as the loop-depth limit; invalid operations never fail a
// run.
func RunByteCode(set *instruction.Set, core *memcore.Core, prog bytecode.Program,
	seed int64, maxRuntime time.Duration, maxLoopDepth int) bool {

	if maxRuntime == 0 {
		maxRuntime = defaultMaxRuntime
	}

	wd := &Watchdog{}
	timer := time.AfterFunc(maxRuntime, wd.Expire)
	defer timer.Stop()

	return RunWithWatchdog(set, core, prog, seed, wd, maxLoopDepth)
}

// RunWithWatchdog is RunByteCode with a caller-owned watchdog, so hosts
// and tests can expire a run programmatically.
func RunWithWatchdog(set *instruction.Set, core *memcore.Core, prog bytecode.Program,
	seed int64, wd *Watchdog, maxLoopDepth int) bool {

	core.Code = prog
	core.PC = 0
	core.ResetTables()
	core.RanState = seed
	if core.Ran == nil {
		core.Ran = rng.Ran2
	}

	set.SetMaxLoopDepth(maxLoopDepth)
	set.Clear()

	if len(prog) == 0 {
		return false
	}

	for {
		if err := set.Exec(prog[core.PC], core); err != nil {
			return true
		}
		core.PC++
		if core.PC >= len(prog) || wd.Expired() {
			break
		}
	}

	return wd.Expired()
}
