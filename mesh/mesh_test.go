package mesh

import (
	"testing"

	"github.com/nexusfab/nexus/message"
	"github.com/nexusfab/nexus/node"
	"github.com/nexusfab/nexus/pipe"
)

// TestSingleTileMeshIsIdleAfterReset is the 1x1 empty-mesh boundary case
// from spec.md §8: a freshly built single-tile mesh with no program loaded
// must report idle immediately.
func TestSingleTileMeshIsIdleAfterReset(t *testing.T) {
	m := Builder{}.WithRows(1).WithColumns(1).Build()
	egress := pipe.New()
	m.AttachEgress(egress)

	if !m.IsIdle() {
		t.Fatalf("freshly built 1x1 mesh should be idle")
	}
}

// TestResetEquivalence exercises the mesh-reset testable property in
// spec.md §8: stepping then resetting must return the mesh to the exact
// idle state it started in.
func TestResetEquivalence(t *testing.T) {
	m := Builder{}.WithRows(2).WithColumns(2).Build()
	egress := pipe.New()
	m.AttachEgress(egress)

	for i := 0; i < 4; i++ {
		m.Step(true)
	}
	m.Reset()

	if !m.IsIdle() {
		t.Fatalf("mesh should be idle again after reset")
	}
	if !egress.IsIdle() {
		t.Fatalf("egress pipe is external to the mesh and unaffected by Reset, but should still be empty here")
	}
}

// TestWiringConnectsNeighbours exercises that a LOAD message addressed to
// tile (0,1), fed into tile (0,0) through the mesh ingress and routed east
// by one step of tile (0,0), arrives on tile (0,1)'s inbound-from-west
// pipe, proving the two tiles share the same pipe instance.
func TestWiringConnectsNeighbours(t *testing.T) {
	m := Builder{}.WithRows(1).WithColumns(2).Build()
	egress := pipe.New()
	m.AttachEgress(egress)

	west := m.Tile(0, 1).Inbound(node.West)
	if !west.IsIdle() {
		t.Fatalf("pipe should start empty")
	}
	m.Ingress().EnqueueLoad(message.Load{
		Header:  message.Header{TargetRow: 0, TargetColumn: 1, Command: message.CommandLoad},
		Address: 0,
		Data:    0xAA,
	})
	m.Tile(0, 0).Step(false)
	if west.IsIdle() {
		t.Fatalf("expected queued load to be visible on the shared inbound pipe")
	}
}

// TestAggregatorChainReachesEgress checks that a passthrough frame for a
// column outside the mesh, injected into aggregator(1)'s InboundNeighbour,
// is forwarded unchanged through aggregator(0) to the egress pipe, which
// holds only if the mesh wires aggregator(1)'s outbound into
// aggregator(0)'s InboundNeighbour.
func TestAggregatorChainReachesEgress(t *testing.T) {
	m := Builder{}.WithRows(1).WithColumns(2).Build()
	egress := pipe.New()
	m.AttachEgress(egress)

	h := message.Header{TargetRow: 0, TargetColumn: 9, Command: message.CommandPassthrough}
	m.Aggregator(1).InboundNeighbour.EnqueueRaw(h, message.Raw(0x99))
	m.Aggregator(1).Step()
	m.Aggregator(0).Step()

	if egress.IsIdle() {
		t.Fatalf("expected frame chained through aggregator(1) -> aggregator(0) -> egress")
	}
	gotH, gotRaw := egress.DequeueRaw()
	if gotH != h || gotRaw != message.Raw(0x99) {
		t.Fatalf("frame corrupted across aggregator chain")
	}
}

// TestOutputsConcatenatesColumnMajor exercises Outputs' flat buffer layout.
func TestOutputsConcatenatesColumnMajor(t *testing.T) {
	m := Builder{}.WithRows(1).WithColumns(2).Build()
	egress := pipe.New()
	m.AttachEgress(egress)

	send := func(column uint8, slot uint8, data uint8) {
		raw := message.PackOutput(message.Output{
			Header: message.Header{TargetRow: 0, TargetColumn: column, Command: message.CommandSignal},
			Slot:   slot,
			Mask:   0xFF,
			Data:   data,
		})
		m.Aggregator(uint32(column)).InboundMesh.EnqueueRaw(message.HeaderOf(raw), raw)
	}
	send(0, 0, 0x11)
	send(1, 0, 0x22)
	m.Aggregator(0).Step()
	m.Aggregator(1).Step()

	out := m.Outputs()
	if out[0] != 0x11 || out[4] != 0x22 {
		t.Fatalf("outputs = %v, want column 0 slot 0 = 0x11, column 1 slot 0 = 0x22", out)
	}
}
