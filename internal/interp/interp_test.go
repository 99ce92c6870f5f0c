package interp

import (
	"testing"
	"time"

	"slasha/internal/bytecode"
	"slasha/internal/dis"
	"slasha/internal/instruction"
	"slasha/internal/lexer"
	"slasha/internal/memcore"
)

func newEnv(t *testing.T, src string) (*instruction.Set, *memcore.Core, bytecode.Program) {
	t.Helper()

	set := instruction.NewSet()
	dis.InsertNumeric(set, 16)
	dis.InsertFull(set)

	prog, err := lexer.Assemble(src, set)
	if err != nil {
		t.Fatal(err)
	}

	input := []float64{0}
	output := []float64{}
	core := memcore.NewCore(10, 10, &input, &output)
	return set, core, prog
}

func TestNormalTermination(t *testing.T) {
	set, core, prog := newEnv(t, "7/itof/0/save/.")

	if failed := RunByteCode(set, core, prog, -2237, 0, -1); failed {
		t.Error("run reported failed")
	}
	if core.PC != len(prog) {
		t.Errorf("pc = %d, want %d", core.PC, len(prog))
	}
}

func TestEmptyProgram(t *testing.T) {
	set, core, prog := newEnv(t, ".")

	if failed := RunByteCode(set, core, prog, -2237, 0, -1); failed {
		t.Error("empty program reported failed")
	}
	if got := set.TotalOps(); got != 0 {
		t.Errorf("ops = %d, want 0", got)
	}
}

func TestPreExpiredWatchdogStopsAfterOneInstruction(t *testing.T) {
	// gotoifp with F == 0 jumps back forever; only the watchdog ends it.
	set, core, prog := newEnv(t, "0/label/0/gotoifp/.")

	wd := &Watchdog{}
	wd.Expire()

	if failed := RunWithWatchdog(set, core, prog, -2237, wd, -1); !failed {
		t.Error("expired watchdog did not fail the run")
	}
	// Cancellation is cooperative: exactly one instruction ran.
	if got := set.TotalOps(); got != 1 {
		t.Errorf("ops = %d, want 1", got)
	}
}

func TestWallClockTimeout(t *testing.T) {
	set, core, prog := newEnv(t, "0/label/0/gotoifp/.")

	start := time.Now()
	failed := RunByteCode(set, core, prog, -2237, 50*time.Millisecond, -1)
	elapsed := time.Since(start)

	if !failed {
		t.Error("timeout did not fail the run")
	}
	if elapsed > 5*time.Second {
		t.Errorf("run took %v, watchdog did not bite", elapsed)
	}
}

func TestAsyncExpireFromAnotherGoroutine(t *testing.T) {
	set, core, prog := newEnv(t, "0/label/0/gotoifp/.")

	wd := &Watchdog{}
	go func() {
		time.Sleep(20 * time.Millisecond)
		wd.Expire()
	}()

	if failed := RunWithWatchdog(set, core, prog, -2237, wd, -1); !failed {
		t.Error("async expire did not fail the run")
	}
}

func TestCountersResetPerRun(t *testing.T) {
	set, core, prog := newEnv(t, "7/itof/nop/.")

	RunByteCode(set, core, prog, -2237, 0, -1)
	first := set.TotalOps()

	input := []float64{0}
	output := []float64{}
	core2 := memcore.NewCore(10, 10, &input, &output)
	RunByteCode(set, core2, prog, -2237, 0, -1)

	if got := set.TotalOps(); got != first {
		t.Errorf("second run ops = %d, want %d (counters reset on entry)", got, first)
	}
}

func TestFatalDepthFailure(t *testing.T) {
	set, core, prog := newEnv(t, "1/loop/1/loop/nop/endloop/endloop/.")

	if failed := RunByteCode(set, core, prog, -2237, 0, 1); !failed {
		t.Error("depth overflow did not fail the run")
	}
	// Counters up to the failure stay observable.
	if got := set.TotalOps(); got == 0 {
		t.Error("no ops recorded before the failure")
	}
}

func TestTablesRebuiltPerRun(t *testing.T) {
	set, core, prog := newEnv(t, "2/loop/1/itof/output/endloop/.")

	RunByteCode(set, core, prog, -2237, 0, -1)

	// Re-running a different program on the same core must not reuse the
	// old tables.
	prog2, err := lexer.Assemble("3/loop/2/itof/output/endloop/.", set)
	if err != nil {
		t.Fatal(err)
	}
	if failed := RunByteCode(set, core, prog2, -2237, 0, -1); failed {
		t.Error("second run failed")
	}
	if got := len(*core.Output); got != 2+3 {
		t.Errorf("outputs across both runs = %d, want 5", got)
	}
}
