package partition

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nexusfab/nexus/signal"
)

// keys reduces a required-signal multiset down to the set of distinct
// handles it touches, for a diff that doesn't depend on occurrence counts.
func keys(m map[signal.Handle]int) map[signal.Handle]bool {
	out := make(map[signal.Handle]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

// TestRequiredInputsMatchesExactPortSet re-checks scenario 4's "exactly the
// 10 declared input ports" property with a structural diff rather than a
// bare length comparison, so a regression that swaps in the wrong handles
// (while keeping the count right) is still caught.
func TestRequiredInputsMatchesExactPortSet(t *testing.T) {
	m := buildScenario4Module()
	first := &Partition{Index: 0, m: m}
	for _, gh := range m.Gates {
		first.gates = append(first.gates, gh)
	}
	for _, fh := range m.Flops {
		first.flops = append(first.flops, fh)
	}

	want := make(map[signal.Handle]bool, 10)
	for i := 0; i < 10; i++ {
		want[m.MustLookup(portName(i))] = true
	}

	got := keys(first.RequiredInputs())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("RequiredInputs() keys mismatch (-want +got):\n%s", diff)
	}
}
