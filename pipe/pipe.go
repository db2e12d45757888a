// Package pipe implements the FIFO message pipe described in spec.md §4.6:
// an unbounded queue of node-plane frames that stores each entry alongside
// its already-resolved header so a consumer can inspect what is queued
// without decoding the full payload.
package pipe

import "github.com/nexusfab/nexus/message"

// entry pairs a frame with its header, mirroring NXMessagePipe::entry_t --
// the header is split out so next_type/next_header never need to re-derive
// it from the raw bits.
type entry struct {
	header message.Header
	raw    message.Raw
}

// Pipe is a single-threaded FIFO queue of node-plane frames. Nothing in it
// is safe for concurrent use; the tick loop owns every pipe it touches and
// never shares one across goroutines (spec.md §5).
type Pipe struct {
	entries []entry
}

// New returns an empty pipe.
func New() *Pipe {
	return &Pipe{}
}

// Reset drops every queued entry.
func (p *Pipe) Reset() {
	p.entries = nil
}

// EnqueueLoad appends a LOAD message.
func (p *Pipe) EnqueueLoad(m message.Load) {
	p.push(m.Header, message.PackLoad(m))
}

// EnqueueSignal appends a SIGNAL message.
func (p *Pipe) EnqueueSignal(m message.Signal) {
	p.push(m.Header, message.PackSignal(m))
}

// EnqueueRaw appends an already-encoded frame, used by the routing layer to
// forward a message it isn't addressed to without decoding and re-encoding
// it (spec.md §4.9's passthrough path).
func (p *Pipe) EnqueueRaw(header message.Header, raw message.Raw) {
	p.push(header, raw)
}

func (p *Pipe) push(h message.Header, raw message.Raw) {
	p.entries = append(p.entries, entry{header: h, raw: raw})
}

// IsIdle reports whether the pipe has no queued entries.
func (p *Pipe) IsIdle() bool {
	return len(p.entries) == 0
}

// NextType returns the command of the entry at the head of the pipe. It
// panics if the pipe is empty -- callers must check IsIdle first, matching
// the teacher's assert(!"...") convention for programmer-error conditions.
func (p *Pipe) NextType() message.Command {
	p.mustNotBeEmpty("NextType")
	return p.entries[0].header.Command
}

// NextHeader returns the header at the head of the pipe.
func (p *Pipe) NextHeader() message.Header {
	p.mustNotBeEmpty("NextHeader")
	return p.entries[0].header
}

// DequeueLoad removes and decodes the head entry as a LOAD message. Panics
// if the pipe is empty or the head entry isn't a LOAD.
func (p *Pipe) DequeueLoad() message.Load {
	raw := p.dequeueRawChecked(message.CommandLoad, "DequeueLoad")
	return message.UnpackLoad(raw)
}

// DequeueSignal removes and decodes the head entry as a SIGNAL message.
func (p *Pipe) DequeueSignal() message.Signal {
	raw := p.dequeueRawChecked(message.CommandSignal, "DequeueSignal")
	return message.UnpackSignal(raw)
}

// DequeueRaw removes and returns the head entry's header and undecoded
// frame, regardless of command.
func (p *Pipe) DequeueRaw() (message.Header, message.Raw) {
	p.mustNotBeEmpty("DequeueRaw")
	e := p.entries[0]
	p.entries = p.entries[1:]
	return e.header, e.raw
}

func (p *Pipe) dequeueRawChecked(want message.Command, caller string) message.Raw {
	p.mustNotBeEmpty(caller)
	if p.entries[0].header.Command != want {
		panic(caller + ": head entry command does not match")
	}
	_, raw := p.DequeueRaw()
	return raw
}

func (p *Pipe) mustNotBeEmpty(caller string) {
	if len(p.entries) == 0 {
		panic("pipe: called " + caller + " on empty pipe")
	}
}

// Len reports the number of queued entries, used by diagnostics and tests.
func (p *Pipe) Len() int {
	return len(p.entries)
}
