package optimize

import (
	"testing"

	"github.com/nexusfab/nexus/signal"
)

// TestConstantFoldThroughCond is spec.md §8 scenario 1: COND(C1=1, A, B)
// with A, B port inputs folds away entirely, with every consumer rewired
// to A.
func TestConstantFoldThroughCond(t *testing.T) {
	m := signal.NewModule("m")
	a := m.AddPort("A", signal.DirInput)
	b := m.AddPort("B", signal.DirInput)
	c1 := m.AddConstant("C1", 1, 1)
	g := m.AddGate("G", signal.GateCond, c1, a, b)
	out := m.AddPort("OUT", signal.DirOutput)
	m.Connect(g, out)

	dropped := Propagate(m)
	if dropped != 1 {
		t.Fatalf("expected exactly 1 gate dropped, got %d", dropped)
	}
	if _, ok := m.Lookup("G"); ok {
		t.Fatalf("G should have been removed")
	}
	outSig := m.Get(out)
	if len(outSig.Inputs) != 1 || outSig.Inputs[0] != a {
		t.Fatalf("OUT should be rewired directly to A, got inputs %v", outSig.Inputs)
	}
}

// TestXorWithConstantOneBecomesNot is spec.md §8 scenario 2.
func TestXorWithConstantOneBecomesNot(t *testing.T) {
	m := signal.NewModule("m")
	a := m.AddPort("A", signal.DirInput)
	c1 := m.AddConstant("C1", 1, 1)
	g := m.AddGate("G", signal.GateXor, a, c1)
	out := m.AddPort("OUT", signal.DirOutput)
	m.Connect(g, out)

	Propagate(m)

	outSig := m.Get(out)
	if len(outSig.Inputs) != 1 {
		t.Fatalf("expected OUT to have exactly one input after folding, got %v", outSig.Inputs)
	}
	driver := m.Get(outSig.Inputs[0])
	if driver.Kind != signal.KindGate || driver.Op != signal.GateNot {
		t.Fatalf("expected OUT driven by a NOT gate, got %s %s", driver.Kind, driver.Op)
	}
	if len(driver.Inputs) != 1 || driver.Inputs[0] != a {
		t.Fatalf("expected NOT(A), got inputs %v", driver.Inputs)
	}
}

// TestPropagateIsIdempotent exercises spec.md §8's round-trip property:
// running the optimiser twice drops zero gates on the second run.
func TestPropagateIsIdempotent(t *testing.T) {
	m := signal.NewModule("m")
	a := m.AddPort("A", signal.DirInput)
	c1 := m.AddConstant("C1", 1, 1)
	g := m.AddGate("G", signal.GateXor, a, c1)
	out := m.AddPort("OUT", signal.DirOutput)
	m.Connect(g, out)

	first := Propagate(m)
	if first == 0 {
		t.Fatalf("expected the first pass to drop at least one gate")
	}
	second := Propagate(m)
	if second != 0 {
		t.Fatalf("second run should drop zero gates, dropped %d", second)
	}
}

// TestNaryAndWithOneConstantFoldsToSmallerAnd covers AND(var1, var2, const1)
// -- a 3-input gate with two surviving variable inputs and one constant.
// classifyInputs reports numOne=1, numVar=2; the constant-1 term is the
// AND identity, so it is dropped and the two variable inputs remain.
func TestNaryAndWithOneConstantFoldsToSmallerAnd(t *testing.T) {
	m := signal.NewModule("m")
	a := m.AddPort("A", signal.DirInput)
	b := m.AddPort("B", signal.DirInput)
	c1 := m.AddConstant("C1", 1, 1)
	g := m.AddGate("G", signal.GateAnd, a, b, c1)
	out := m.AddPort("OUT", signal.DirOutput)
	m.Connect(g, out)

	Propagate(m)

	outSig := m.Get(out)
	if len(outSig.Inputs) != 1 {
		t.Fatalf("expected OUT to have exactly one input after folding, got %v", outSig.Inputs)
	}
	driver := m.Get(outSig.Inputs[0])
	if driver.Kind != signal.KindGate || driver.Op != signal.GateAnd {
		t.Fatalf("expected OUT driven by an AND gate, got %s %s", driver.Kind, driver.Op)
	}
	if len(driver.Inputs) != 2 || driver.Inputs[0] != a || driver.Inputs[1] != b {
		t.Fatalf("expected AND(A, B) with the constant dropped, got inputs %v", driver.Inputs)
	}
}

// TestNaryOrWithOneConstantOneFoldsToConstant covers OR(var1, var2, const1):
// any constant-1 input among 2+ variable inputs collapses the whole n-ary OR
// to a constant, regardless of which position the constant occupies.
func TestNaryOrWithOneConstantOneFoldsToConstant(t *testing.T) {
	m := signal.NewModule("m")
	c1 := m.AddConstant("C1", 1, 1)
	a := m.AddPort("A", signal.DirInput)
	b := m.AddPort("B", signal.DirInput)
	g := m.AddGate("G", signal.GateOr, c1, a, b)
	out := m.AddPort("OUT", signal.DirOutput)
	m.Connect(g, out)

	Propagate(m)

	outSig := m.Get(out)
	if len(outSig.Inputs) != 1 {
		t.Fatalf("expected OUT to have exactly one input after folding, got %v", outSig.Inputs)
	}
	driver := m.Get(outSig.Inputs[0])
	if !driver.IsConstant() || driver.Bit() != 1 {
		t.Fatalf("expected OUT folded to constant 1, got %+v", driver)
	}
}

// TestNaryXorWithOddConstantOnesInvertsSmallerXor covers XOR(var1, var2,
// const1, const1, const1): an odd number of constant-1 inputs among 2+
// variable inputs inverts the XOR of the remaining variables.
func TestNaryXorWithOddConstantOnesInvertsSmallerXor(t *testing.T) {
	m := signal.NewModule("m")
	a := m.AddPort("A", signal.DirInput)
	b := m.AddPort("B", signal.DirInput)
	c1a := m.AddConstant("C1A", 1, 1)
	c1b := m.AddConstant("C1B", 1, 1)
	c1c := m.AddConstant("C1C", 1, 1)
	g := m.AddGate("G", signal.GateXor, a, b, c1a, c1b, c1c)
	out := m.AddPort("OUT", signal.DirOutput)
	m.Connect(g, out)

	Propagate(m)

	outSig := m.Get(out)
	if len(outSig.Inputs) != 1 {
		t.Fatalf("expected OUT to have exactly one input after folding, got %v", outSig.Inputs)
	}
	notGate := m.Get(outSig.Inputs[0])
	if notGate.Kind != signal.KindGate || notGate.Op != signal.GateNot {
		t.Fatalf("expected OUT driven by a NOT gate, got %s %s", notGate.Kind, notGate.Op)
	}
	xorGate := m.Get(notGate.Inputs[0])
	if xorGate.Kind != signal.KindGate || xorGate.Op != signal.GateXor {
		t.Fatalf("expected NOT driven by an XOR gate, got %s %s", xorGate.Kind, xorGate.Op)
	}
	if len(xorGate.Inputs) != 2 || xorGate.Inputs[0] != a || xorGate.Inputs[1] != b {
		t.Fatalf("expected XOR(A, B) with the constants dropped, got inputs %v", xorGate.Inputs)
	}
}

// TestDualEdgesStaySymmetric exercises spec.md §8's universal dual-edge
// invariant after a propagation pass.
func TestDualEdgesStaySymmetric(t *testing.T) {
	m := signal.NewModule("m")
	a := m.AddPort("A", signal.DirInput)
	b := m.AddPort("B", signal.DirInput)
	c1 := m.AddConstant("C1", 1, 1)
	g := m.AddGate("G", signal.GateCond, c1, a, b)
	out := m.AddPort("OUT", signal.DirOutput)
	m.Connect(g, out)
	Propagate(m)

	for _, h := range m.AllSignals() {
		s := m.Get(h)
		for _, inH := range s.Inputs {
			in := m.Get(inH)
			found := false
			for _, o := range in.Outputs {
				if o == h {
					found = true
				}
			}
			if !found {
				t.Fatalf("signal %q lists %q as input but isn't in its outputs", s.Name, in.Name)
			}
		}
	}
}
