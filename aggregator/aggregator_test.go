package aggregator

import (
	"testing"

	"github.com/nexusfab/nexus/message"
	"github.com/nexusfab/nexus/pipe"
)

// TestSlotWriteWithMask is the literal scenario in spec.md §8 item 6.
func TestSlotWriteWithMask(t *testing.T) {
	a := New(2)
	host := pipe.New()
	a.Attach(host)

	send := func(slot uint8, data, mask uint8) {
		raw := message.PackOutput(message.Output{
			Header: message.Header{TargetRow: 0, TargetColumn: 2, Command: message.CommandSignal},
			Slot:   slot,
			Mask:   mask,
			Data:   data,
		})
		a.InboundMesh.EnqueueRaw(message.HeaderOf(raw), raw)
	}

	send(0, 0x5A, 0xFF)
	send(1, 0xA5, 0xFF)
	a.Step()

	out := a.Outputs()
	if out[0] != 0x5A || out[1] != 0xA5 {
		t.Fatalf("outputs = %v, want [0x5A 0xA5 ...]", out)
	}

	send(0, 0x3C, 0x0F)
	a.Step()

	out = a.Outputs()
	if out[0] != 0x5C {
		t.Fatalf("slot[0] after masked write = 0x%02x, want 0x5C", out[0])
	}
}

func TestBypassForwardsToHost(t *testing.T) {
	a := New(2)
	host := pipe.New()
	a.Attach(host)

	raw := message.PackOutput(message.Output{
		Header: message.Header{TargetRow: 0, TargetColumn: 2, Command: message.CommandSignal},
		Slot:   0,
		Mask:   0xFF,
		Bypass: true,
		Data:   0x42,
	})
	a.InboundMesh.EnqueueRaw(message.HeaderOf(raw), raw)
	a.Step()

	if !host.IsIdle() {
		sig := host.DequeueSignal()
		if sig.Data != 0x42 {
			t.Fatalf("forwarded signal data = 0x%02x, want 0x42", sig.Data)
		}
	} else {
		t.Fatalf("expected bypassed message forwarded to host")
	}
	out := a.Outputs()
	if out[0] != 0 {
		t.Fatalf("bypassed message must not update slot state, got 0x%02x", out[0])
	}
}

func TestNeighbourForwardsStraightThrough(t *testing.T) {
	a := New(1)
	host := pipe.New()
	a.Attach(host)

	h := message.Header{TargetRow: 0, TargetColumn: 9, Command: message.CommandPassthrough}
	a.InboundNeighbour.EnqueueRaw(h, message.Raw(0xABCD))
	a.Step()

	gotH, gotRaw := host.DequeueRaw()
	if gotH != h || gotRaw != message.Raw(0xABCD) {
		t.Fatalf("neighbour traffic not forwarded verbatim")
	}
}
