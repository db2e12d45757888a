// Package control implements the host-facing control plane described in
// spec.md §4.10, grounded on NXControl (nxcontrol.hpp/.cpp).
package control

import (
	"fmt"

	"github.com/nexusfab/nexus/aggregator"
	"github.com/nexusfab/nexus/internal/xlog"
	"github.com/nexusfab/nexus/message"
	"github.com/nexusfab/nexus/pipe"
)

// deviceID, versionMajor and versionMinor identify this model in a PARAMS
// response; they are not meaningful hardware revision numbers.
const (
	deviceID     = 0x4E455855 // "NEXU"
	versionMajor = 1
	versionMinor = 0
)

// Plane is the host<->mesh control bridge: it answers READ_PARAMS and
// READ_STATUS directly, forwards TO_MESH requests into the mesh's ingress
// pipe, forwards every mesh->host frame on as a FROM_MESH response, and
// turns per-cycle output snapshots into OUTPUTS sections.
type Plane struct {
	rows, columns uint32

	toHost   *Pipe // control-plane responses, towards the host
	fromHost *Pipe // control-plane requests, from the host

	toMesh   *pipe.Pipe // node-plane frames, into the mesh
	fromMesh *pipe.Pipe // node-plane frames, out of the mesh

	lastOutput []uint8

	cycle     uint32
	firstTick bool
	seenLow   bool
}

// New returns a control plane sized for the given mesh geometry, with its
// host-facing pipes created. AttachMesh must be called before Step.
func New(rows, columns uint32) *Plane {
	p := &Plane{
		rows:     rows,
		columns:  columns,
		toHost:   NewPipe(),
		fromHost: NewPipe(),
	}
	p.Reset()
	return p
}

// ToHost returns the pipe the host reads responses from.
func (p *Plane) ToHost() *Pipe { return p.toHost }

// FromHost returns the pipe the host writes requests into.
func (p *Plane) FromHost() *Pipe { return p.fromHost }

// AttachMesh wires the control plane's node-plane pipes: toMesh is the
// mesh's ingress pipe, fromMesh is the mesh's egress pipe.
func (p *Plane) AttachMesh(toMesh, fromMesh *pipe.Pipe) {
	p.toMesh = toMesh
	p.fromMesh = fromMesh
}

// Reset clears both host pipes, both mesh-facing pipes (if attached) and
// the held output-diff state.
func (p *Plane) Reset() {
	p.lastOutput = make([]uint8, int(p.columns)*aggregator.Slots)
	p.cycle = 0
	p.firstTick = true
	p.seenLow = false
	p.toHost.Reset()
	p.fromHost.Reset()
	if p.toMesh != nil {
		p.toMesh.Reset()
	}
	if p.fromMesh != nil {
		p.fromMesh.Reset()
	}
}

// IsIdle reports whether the mesh-facing pipes are empty. Host pipes are
// excluded, exactly as NXControl::is_idle documents: they sit outside the
// per-cycle execution loop.
func (p *Plane) IsIdle() bool {
	return p.toMesh.IsIdle() && p.fromMesh.IsIdle()
}

// Step digests every request queued from the host, then forwards every
// frame the mesh has emitted on towards the host.
func (p *Plane) Step() {
	for !p.fromHost.IsIdle() {
		p.handleRequest(p.fromHost.Dequeue())
	}

	for !p.fromMesh.IsIdle() {
		switch p.fromMesh.NextType() {
		case message.CommandLoad, message.CommandSignal, message.CommandPassthrough:
			_, raw := p.fromMesh.DequeueRaw()
			p.toHost.Enqueue(message.PackFromMesh(message.FromMesh{Frame: raw}))
		default:
			panic("control: unsupported message forwarded from mesh")
		}
	}
}

func (p *Plane) handleRequest(frame message.ControlFrame) {
	switch frame.Op() {
	case message.OpReadParams:
		p.toHost.Enqueue(message.PackParams(message.Params{
			DeviceID:     deviceID,
			VersionMajor: versionMajor,
			VersionMinor: versionMinor,
			TimerWidth:   32,
			Rows:         uint8(p.rows),
			Columns:      uint8(p.columns),
		}))

	case message.OpReadStatus:
		p.toHost.Enqueue(message.PackStatus(message.Status{
			MeshIdle:  p.toMesh.IsIdle(),
			AggIdle:   p.fromMesh.IsIdle(),
			SeenLow:   p.seenLow,
			FirstTick: p.firstTick,
			Cycle:     p.cycle,
		}))

	case message.OpSoftReset:
		p.Reset()

	case message.OpConfigure:
		xlog.Trace("control configure (accepted, no-op until triggered)")

	case message.OpTrigger:
		xlog.Trace("control trigger")

	case message.OpToMesh:
		m := message.UnpackToMesh(frame)
		h := message.HeaderOf(m.Frame)
		p.toMesh.EnqueueRaw(h, m.Frame)

	case message.OpMemory:
		panic("control: direct MEMORY access requests are not yet implemented")

	default:
		panic(fmt.Sprintf("control: unsupported host request opcode %d", frame.Op()))
	}
}

// UpdateOutputs compares the mesh's flat output buffer against the last
// snapshot and, if anything changed, emits one OUTPUTS response per 12-byte
// (96-bit) section until the whole buffer has been covered -- mirroring
// NXControl::update_outputs's chunking exactly.
func (p *Plane) UpdateOutputs(outputs []uint8) {
	if len(outputs) != len(p.lastOutput) {
		panic("control: output buffer length mismatch")
	}

	changed := false
	for i := range outputs {
		if outputs[i] != p.lastOutput[i] {
			changed = true
			break
		}
	}
	if !changed {
		return
	}

	const slotPerMsg = 12 // 96 bits / 8
	total := len(outputs)
	numMsg := (total + slotPerMsg - 1) / slotPerMsg
	for i := 0; i < numMsg; i++ {
		offset := i * slotPerMsg
		var section [12]uint8
		copy(section[:], outputs[offset:])
		p.toHost.Enqueue(message.PackOutputs(message.Outputs{
			Stamp:   p.cycle,
			Index:   uint16(i),
			Section: section,
		}))
	}
	copy(p.lastOutput, outputs)
}

// AdvanceCycle records that one more mesh cycle has completed, updating the
// state READ_STATUS reports.
func (p *Plane) AdvanceCycle() {
	p.cycle++
	p.firstTick = false
}
