package control

import (
	"bytes"
	"testing"

	"github.com/nexusfab/nexus/message"
)

func TestFrameCodecRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	codec := NewFrameCodec(&buf)

	want := message.PackStatus(message.Status{Active: true, Cycle: 0xABCDEF})
	if err := codec.WriteFrame(want); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	got, err := codec.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestFrameCodecUsesSixteenBytesPerFrame(t *testing.T) {
	var buf bytes.Buffer
	codec := NewFrameCodec(&buf)
	if err := codec.WriteFrame(message.PackTrigger()); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if buf.Len() != frameBytes {
		t.Fatalf("wrote %d bytes, want %d", buf.Len(), frameBytes)
	}
}

func TestFrameCodecReadFrameErrorsOnShortInput(t *testing.T) {
	buf := bytes.NewBuffer([]byte{1, 2, 3})
	codec := NewFrameCodec(buf)
	if _, err := codec.ReadFrame(); err == nil {
		t.Fatalf("expected an error reading a truncated frame")
	}
}
