package control

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/nexusfab/nexus/message"
)

// frameBytes is the wire size of one 128-bit control frame: two big-endian
// uint64 halves, Hi then Lo.
const frameBytes = 16

// FrameCodec adapts an io.ReadWriter carrying raw bytes into a source and
// sink of message.ControlFrame values, satisfying the "framed byte
// interface; the transport below it is not specified" contract: anything
// that implements io.ReadWriter (a socket, a PCIe/XDMA character device, an
// in-memory pipe for tests) can sit underneath it unmodified.
type FrameCodec struct {
	rw io.ReadWriter
}

// NewFrameCodec wraps rw.
func NewFrameCodec(rw io.ReadWriter) *FrameCodec {
	return &FrameCodec{rw: rw}
}

// WriteFrame encodes f as 16 bytes (Hi then Lo, big-endian) and writes it.
func (c *FrameCodec) WriteFrame(f message.ControlFrame) error {
	var buf [frameBytes]byte
	binary.BigEndian.PutUint64(buf[0:8], f.Hi)
	binary.BigEndian.PutUint64(buf[8:16], f.Lo)
	if _, err := c.rw.Write(buf[:]); err != nil {
		return fmt.Errorf("control: writing frame: %w", err)
	}
	return nil
}

// ReadFrame blocks until one full 16-byte frame has been read and decodes
// it.
func (c *FrameCodec) ReadFrame() (message.ControlFrame, error) {
	var buf [frameBytes]byte
	if _, err := io.ReadFull(c.rw, buf[:]); err != nil {
		return message.ControlFrame{}, fmt.Errorf("control: reading frame: %w", err)
	}
	return message.ControlFrame{
		Hi: binary.BigEndian.Uint64(buf[0:8]),
		Lo: binary.BigEndian.Uint64(buf[8:16]),
	}, nil
}
