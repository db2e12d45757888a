package control

import "github.com/nexusfab/nexus/message"

// Pipe is a FIFO queue of control-plane frames, the control-plane
// counterpart of pipe.Pipe for the node plane. Grounded on NXControlPipe
// (nxcontrolpipe.hpp/.cpp); unlike the node-plane pipe it carries no
// separate request/response distinction in Go since ControlOp already
// spans both spaces without overlap.
type Pipe struct {
	entries []message.ControlFrame
}

// NewPipe returns an empty control-plane pipe.
func NewPipe() *Pipe {
	return &Pipe{}
}

// Reset drops every queued frame.
func (p *Pipe) Reset() {
	p.entries = nil
}

// IsIdle reports whether the pipe has no queued frames.
func (p *Pipe) IsIdle() bool {
	return len(p.entries) == 0
}

// Enqueue appends an already-packed frame.
func (p *Pipe) Enqueue(f message.ControlFrame) {
	p.entries = append(p.entries, f)
}

// NextOp returns the opcode of the frame at the head of the queue. Panics
// if the pipe is empty.
func (p *Pipe) NextOp() message.ControlOp {
	if p.IsIdle() {
		panic("control.Pipe: NextOp called on empty pipe")
	}
	return p.entries[0].Op()
}

// Dequeue removes and returns the frame at the head of the queue. Panics
// if the pipe is empty.
func (p *Pipe) Dequeue() message.ControlFrame {
	if p.IsIdle() {
		panic("control.Pipe: Dequeue called on empty pipe")
	}
	f := p.entries[0]
	p.entries = p.entries[1:]
	return f
}
