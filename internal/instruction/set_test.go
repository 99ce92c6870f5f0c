package instruction

import (
	"testing"

	"slasha/internal/memcore"
)

func nopInst(name string) *Instruction {
	return &Instruction{
		Name: name,
		Exec: func(in *Instruction, _ *memcore.Core, _ *Set) error {
			in.CountOp()
			return nil
		},
	}
}

func TestInsertAssignsSequentialCodes(t *testing.T) {
	set := NewSet()
	for i, name := range []string{"a", "b", "c"} {
		if got := set.Insert(nopInst(name)); int(got) != i {
			t.Errorf("insert %q: got code %d, want %d", name, got, i)
		}
	}
	if set.Size() != 3 {
		t.Errorf("size: got %d, want 3", set.Size())
	}
}

func TestLookupFirstMatchWins(t *testing.T) {
	set := NewSet()
	set.Insert(nopInst("dup"))
	set.Insert(nopInst("other"))
	set.Insert(nopInst("dup")) // shadowed forever

	c, ok := set.Lookup("dup")
	if !ok {
		t.Fatal("lookup failed")
	}
	if c != 0 {
		t.Errorf("got code %d, want 0", c)
	}

	if _, ok := set.Lookup("missing"); ok {
		t.Error("lookup of missing name succeeded")
	}
}

func TestTotalsAndClear(t *testing.T) {
	set := NewSet()
	set.Insert(nopInst("a"))
	set.Insert(nopInst("b"))

	core := memcore.NewCore(1, 1, &[]float64{}, &[]float64{})

	for i := 0; i < 3; i++ {
		if err := set.Exec(0, core); err != nil {
			t.Fatal(err)
		}
	}
	if err := set.Exec(1, core); err != nil {
		t.Fatal(err)
	}

	if got := set.TotalOps(); got != 4 {
		t.Errorf("total ops: got %d, want 4", got)
	}
	if got := set.At(0).Ops(); got != 3 {
		t.Errorf("inst 0 ops: got %d, want 3", got)
	}

	set.Clear()
	if got := set.TotalOps(); got != 0 {
		t.Errorf("total ops after clear: got %d, want 0", got)
	}
}

func TestCounterHelpers(t *testing.T) {
	in := nopInst("x")
	core := memcore.NewCore(1, 1, &[]float64{}, &[]float64{})

	in.CountInput(core)
	in.CountInput(core)
	core.OutputExecuted = true
	in.CountInput(core)
	in.CountOutput()
	in.CountInvop()

	if in.Inputs() != 3 {
		t.Errorf("inputs: got %d, want 3", in.Inputs())
	}
	if in.InputsBeforeOutput() != 2 {
		t.Errorf("inputs before output: got %d, want 2", in.InputsBeforeOutput())
	}
	if in.Outputs() != 1 || in.Invops() != 1 {
		t.Errorf("outputs/invops: got %d/%d, want 1/1", in.Outputs(), in.Invops())
	}
}

func TestListAll(t *testing.T) {
	set := NewSet()
	set.Insert(nopInst("a"))
	set.Insert(nopInst("b"))
	if got := set.ListAll(); got != "a/b/." {
		t.Errorf("got %q, want %q", got, "a/b/.")
	}
}
