package optimize

import (
	"testing"

	"github.com/nexusfab/nexus/signal"
)

func TestSanityPassesOnWellFormedModule(t *testing.T) {
	m := signal.NewModule("m")
	a := m.AddPort("A", signal.DirInput)
	clk := m.AddPort("CLK", signal.DirInput)
	rst := m.AddPort("RST", signal.DirInput)
	g := m.AddGate("G", signal.GateNot, a)
	m.AddFlop("Q", g, clk, rst)

	if err := Sanity(m, false); err != nil {
		t.Fatalf("expected a well-formed module to pass sanity, got %v", err)
	}
}

// TestSanityCatchesMissingDualEdge breaks the mutual Inputs/Outputs
// invariant directly (bypassing Connect) to confirm Sanity reports it.
func TestSanityCatchesMissingDualEdge(t *testing.T) {
	m := signal.NewModule("m")
	a := m.AddPort("A", signal.DirInput)
	m.AddGate("G", signal.GateNot, a)

	// Detach G from A's Outputs without updating G's Inputs, breaking
	// dual-edge symmetry.
	aSig := m.Get(a)
	aSig.Outputs = nil

	err := Sanity(m, false)
	if err == nil {
		t.Fatalf("expected a sanity violation for the broken dual edge")
	}
	sanityErr, ok := err.(*SanityError)
	if !ok {
		t.Fatalf("expected *SanityError, got %T", err)
	}
	if len(sanityErr.Violations) == 0 {
		t.Fatalf("expected at least one violation")
	}
}

func TestSanityForbidsConstantGateInputsWhenRequested(t *testing.T) {
	m := signal.NewModule("m")
	c := m.AddConstant("C1", 1, 1)
	a := m.AddPort("A", signal.DirInput)
	m.AddGate("G", signal.GateAnd, c, a)

	if err := Sanity(m, false); err != nil {
		t.Fatalf("constant inputs should be allowed when not forbidden: %v", err)
	}
	if err := Sanity(m, true); err == nil {
		t.Fatalf("expected a violation when constant inputs are forbidden")
	}
}

// TestSanityAllowsFlopClockResetWithoutOutputsEdge confirms the documented
// flop clock/reset exception: a flop's clock/reset drivers need not list the
// flop in their own Outputs.
func TestSanityAllowsFlopClockResetWithoutOutputsEdge(t *testing.T) {
	m := signal.NewModule("m")
	d := m.AddPort("D", signal.DirInput)
	clk := m.AddPort("CLK", signal.DirInput)
	rst := m.AddPort("RST", signal.DirInput)
	m.AddFlop("Q", d, clk, rst)

	if err := Sanity(m, false); err != nil {
		t.Fatalf("clock/reset exception should not trip sanity: %v", err)
	}
}
