// Package engine implements the top-level tick loop described in
// spec.md §4.11, grounded on Nexus (nexus.hpp/.cpp): it owns a mesh and a
// control plane, wires them together exactly as Nexus's constructor does,
// and drives cycles to quiescence.
package engine

import (
	"time"

	"github.com/nexusfab/nexus/control"
	"github.com/nexusfab/nexus/internal/xlog"
	"github.com/nexusfab/nexus/mesh"
	"github.com/nexusfab/nexus/pipe"
)

// Engine is one fully wired Nexus device: a mesh, its control plane, and
// the single ingress/egress pipes that connect them.
type Engine struct {
	Mesh    *mesh.Mesh
	Control *control.Plane

	egress *pipe.Pipe
}

// New builds a rows*columns mesh, a matching control plane, and wires the
// control plane's to-mesh pipe onto the mesh's ingress (tile (0,0)'s north
// inbound pipe) and its from-mesh pipe onto a fresh egress pipe attached to
// column 0's aggregator -- the same wiring Nexus::Nexus performs.
func New(rows, columns uint32) *Engine {
	m := mesh.Builder{}.WithRows(rows).WithColumns(columns).Build()
	egress := pipe.New()
	m.AttachEgress(egress)

	c := control.New(rows, columns)
	c.AttachMesh(m.Ingress(), egress)

	return &Engine{Mesh: m, Control: c, egress: egress}
}

// Reset returns the mesh, control plane and egress pipe to their power-on
// state.
func (e *Engine) Reset() {
	e.Control.Reset()
	e.Mesh.Reset()
	e.egress.Reset()
}

// Run drives the device for the given number of cycles. On each cycle the
// control plane and mesh are stepped in lock-step until both report idle,
// with the trigger pulse only asserted on the first step of each cycle
// (exactly as Nexus::run does), then the mesh's outputs are sampled into
// the control plane's diff-and-report path. It returns the achieved
// effective frequency in Hz, measured the same way Nexus::run reports it.
func (e *Engine) Run(cycles uint32, withTrigger bool) float64 {
	xlog.L().Info("engine run", "cycles", cycles)
	begin := time.Now()

	for cycle := uint32(0); cycle < cycles; cycle++ {
		steps := 0
		for {
			e.Control.Step()
			e.Mesh.Step(withTrigger && steps == 0)
			steps++
			if e.Mesh.IsIdle() && e.Control.IsIdle() {
				break
			}
		}
		xlog.Trace("engine cycle finished", "cycle", cycle, "steps", steps)
		e.Control.UpdateOutputs(e.Mesh.Outputs())
		e.Control.AdvanceCycle()
	}

	elapsed := time.Since(begin)
	if cycles == 0 || elapsed <= 0 {
		return 0
	}
	return float64(cycles) / elapsed.Seconds()
}
