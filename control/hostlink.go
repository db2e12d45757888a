package control

import (
	"io"
	"sync"
	"time"

	"github.com/nexusfab/nexus/internal/xlog"
	"github.com/nexusfab/nexus/message"
)

// pollInterval is how long drainOutgoing waits before re-checking an empty
// ToHost pipe. The deterministic core has no notion of "blocking until a
// frame is queued", so this is a plain poll rather than a condition
// variable.
const pollInterval = 100 * time.Microsecond

// HostLink drives a Plane's host-facing Pipes against a FrameCodec on two
// background goroutines, kept strictly outside the deterministic core
// (spec.md §5): drainOutgoing moves frames the plane queued onto ToHost out
// to the wire, fillIncoming moves frames arriving on the wire into
// FromHost. Guarded by a mutex rather than left to the Pipe's own slice
// access, the same shape core.Port's defaultPort uses to protect its
// incoming/outgoing buffers from its connection goroutine.
type HostLink struct {
	mu     sync.Mutex
	plane  *Plane
	codec  *FrameCodec
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewHostLink binds plane's host pipes to codec. Call Start to begin
// pumping frames.
func NewHostLink(plane *Plane, codec *FrameCodec) *HostLink {
	return &HostLink{plane: plane, codec: codec}
}

// Start launches drainOutgoing and fillIncoming. Calling Start twice without
// an intervening Stop panics.
func (h *HostLink) Start() {
	h.mu.Lock()
	if h.stopCh != nil {
		h.mu.Unlock()
		panic("control: HostLink already started")
	}
	h.stopCh = make(chan struct{})
	stop := h.stopCh
	h.mu.Unlock()

	h.wg.Add(2)
	go h.drainOutgoing(stop)
	go h.fillIncoming(stop)
}

// Stop signals both workers to exit and waits for them to do so. fillIncoming
// is typically parked in a blocking ReadFrame call, which a closed stop
// channel alone cannot interrupt; if the codec's underlying transport
// implements io.Closer, Stop closes it to unblock that read.
func (h *HostLink) Stop() {
	h.mu.Lock()
	stop := h.stopCh
	h.stopCh = nil
	h.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	if closer, ok := h.codec.rw.(io.Closer); ok {
		closer.Close()
	}
	h.wg.Wait()
}

// drainOutgoing repeatedly dequeues whatever the plane has queued for the
// host and writes it out over the codec.
func (h *HostLink) drainOutgoing(stop <-chan struct{}) {
	defer h.wg.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}

		h.mu.Lock()
		idle := h.plane.ToHost().IsIdle()
		var frame message.ControlFrame
		if !idle {
			frame = h.plane.ToHost().Dequeue()
		}
		h.mu.Unlock()

		if idle {
			time.Sleep(pollInterval)
			continue
		}
		if err := h.codec.WriteFrame(frame); err != nil {
			xlog.L().Error("hostlink: writing frame", "error", err)
			return
		}
	}
}

// fillIncoming repeatedly blocks reading one frame off the codec and
// enqueues it for the plane to consume on its next Step.
func (h *HostLink) fillIncoming(stop <-chan struct{}) {
	defer h.wg.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}

		frame, err := h.codec.ReadFrame()
		if err != nil {
			xlog.L().Error("hostlink: reading frame", "error", err)
			return
		}

		h.mu.Lock()
		h.plane.FromHost().Enqueue(frame)
		h.mu.Unlock()
	}
}
