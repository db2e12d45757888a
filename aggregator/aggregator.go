// Package aggregator implements the per-column mesh output sink described
// in spec.md §4.8, grounded on NXAggregator (nxaggregator.hpp/.cpp).
package aggregator

import (
	"github.com/nexusfab/nexus/message"
	"github.com/nexusfab/nexus/pipe"
)

// Slots is the number of output bytes an aggregator holds.
const Slots = 4

// Aggregator sits at the south edge of one mesh column (or feeds directly
// to the control plane for a single-row mesh). It has two inbound pipes
// (from the mesh, from the neighbouring aggregator to its east) and one
// outbound pipe towards the host.
type Aggregator struct {
	Column uint8

	InboundMesh      *pipe.Pipe
	InboundNeighbour *pipe.Pipe
	outbound         *pipe.Pipe

	outputs [Slots]uint8
}

// New returns an aggregator for the given column with its two inbound
// pipes created.
func New(column uint8) *Aggregator {
	a := &Aggregator{
		Column:           column,
		InboundMesh:      pipe.New(),
		InboundNeighbour: pipe.New(),
	}
	a.Reset()
	return a
}

// Attach plugs in the outbound pipe towards the host (or the next
// aggregator in the chain).
func (a *Aggregator) Attach(p *pipe.Pipe) {
	a.outbound = p
}

// Reset drops both inbound pipes and zeroes every output slot.
func (a *Aggregator) Reset() {
	a.InboundMesh.Reset()
	a.InboundNeighbour.Reset()
	a.outputs = [Slots]uint8{}
}

// IsIdle reports whether both inbound pipes are empty.
func (a *Aggregator) IsIdle() bool {
	return a.InboundMesh.IsIdle() && a.InboundNeighbour.IsIdle()
}

// Outputs returns a copy of the current output slots.
func (a *Aggregator) Outputs() [Slots]uint8 {
	return a.outputs
}

// Step drains inbound-mesh, updating output slots for SIGNAL frames
// targeting this column (or forwarding them to the host when the frame's
// bypass flag is set), forwards anything else verbatim, then drains
// inbound-neighbour straight to outbound.
func (a *Aggregator) Step() {
	for !a.InboundMesh.IsIdle() {
		header := a.InboundMesh.NextHeader()
		if header.TargetColumn == a.Column && header.Command == message.CommandSignal {
			_, raw := a.InboundMesh.DequeueRaw()
			out := message.UnpackOutput(raw)
			if out.Bypass {
				a.outbound.EnqueueSignal(out.AsSignal())
			} else {
				a.outputs[out.Slot] = (out.Data & out.Mask) | (a.outputs[out.Slot] &^ out.Mask)
			}
		} else {
			h, raw := a.InboundMesh.DequeueRaw()
			a.outbound.EnqueueRaw(h, raw)
		}
	}

	for !a.InboundNeighbour.IsIdle() {
		h, raw := a.InboundNeighbour.DequeueRaw()
		a.outbound.EnqueueRaw(h, raw)
	}
}
