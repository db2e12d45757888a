// Package message implements the bit-exact pack/unpack of the node-plane
// and control-plane frames described in spec.md §4.6 and §6.
package message

// Command is the 2-bit node-plane command field.
type Command uint8

const (
	CommandLoad        Command = 0
	CommandSignal      Command = 1
	CommandPassthrough Command = 2 // reserved passthrough, enqueued raw only
)

// Header is the common {target_row, target_column, command} prefix shared
// by every node-plane message.
type Header struct {
	TargetRow    uint8 // 4 bits
	TargetColumn uint8 // 4 bits
	Command      Command
}

// Slot selects which half of a 16-bit data-memory word a byte occupies, or
// (in instructions / SIGNAL messages) how the tile's current slot should be
// resolved. See spec.md §4.7.1.
type Slot uint8

const (
	SlotPreserve Slot = 0
	SlotInverse  Slot = 1
	SlotLower    Slot = 2
	SlotUpper    Slot = 3
)

// Resolve applies the slot-selector semantics of spec.md §4.7.1 against the
// tile's current slot bit.
func (s Slot) Resolve(current bool) bool {
	switch s {
	case SlotInverse:
		return !current
	case SlotLower:
		return false
	case SlotUpper:
		return true
	default: // SlotPreserve and any other value
		return current
	}
}

// Load is a LOAD node-plane message: writes a byte into a tile's
// instruction memory.
type Load struct {
	Header
	Address uint16 // 11 bits
	Slot    bool   // 1 bit: selects byte-within-half-word
	Data    uint8
}

// Signal is a SIGNAL node-plane message: writes a byte into a tile's data
// memory.
type Signal struct {
	Header
	Address  uint16 // 10 bits
	SlotMode Slot   // 2 bits
	Data     uint8
}

// Raw is an opaque 64-bit node-plane frame used for passthrough routing
// (enqueue_raw/dequeue_raw in spec.md §4.6): the pipe never interprets its
// contents, only its header, so forwarding never needs to decode and
// re-encode a message it isn't addressed to.
type Raw uint64

// Frame bit layout, MSB-first within and across fields:
//
//	[63:60] target row (4)   [59:56] target column (4)  [55:54] command (2)
//	LOAD:    [53:43] address (11)  [42] slot (1)  [41:34] data (8)
//	SIGNAL:  [53:44] address (10)  [43:42] slot_mode (2)  [41:34] data (8)
const (
	nodeRowShift     = 60
	nodeColumnShift  = 56
	nodeCommandShift = 54

	loadAddressShift = 43
	loadSlotShift    = 42
	loadDataShift    = 34

	sigAddressShift  = 44
	sigSlotModeShift = 42
	sigDataShift     = 34
)

func packHeader(h Header) uint64 {
	return (uint64(h.TargetRow&0xF) << nodeRowShift) |
		(uint64(h.TargetColumn&0xF) << nodeColumnShift) |
		(uint64(h.Command&0x3) << nodeCommandShift)
}

// HeaderOf extracts just the header from a raw frame, used by the pipe's
// next_header/peek support without requiring a full decode.
func HeaderOf(raw Raw) Header {
	u := uint64(raw)
	return Header{
		TargetRow:    uint8((u >> nodeRowShift) & 0xF),
		TargetColumn: uint8((u >> nodeColumnShift) & 0xF),
		Command:      Command((u >> nodeCommandShift) & 0x3),
	}
}

// PackLoad encodes a Load message bit-exactly into a 64-bit frame.
func PackLoad(m Load) Raw {
	u := packHeader(m.Header)
	u |= uint64(m.Address&0x7FF) << loadAddressShift
	if m.Slot {
		u |= 1 << loadSlotShift
	}
	u |= uint64(m.Data) << loadDataShift
	return Raw(u)
}

// UnpackLoad decodes a Load message from a raw frame. Caller must know the
// frame's header.Command == CommandLoad.
func UnpackLoad(raw Raw) Load {
	u := uint64(raw)
	return Load{
		Header:  HeaderOf(raw),
		Address: uint16((u >> loadAddressShift) & 0x7FF),
		Slot:    (u>>loadSlotShift)&0x1 != 0,
		Data:    uint8((u >> loadDataShift) & 0xFF),
	}
}

// PackSignal encodes a Signal message bit-exactly into a 64-bit frame.
func PackSignal(m Signal) Raw {
	u := packHeader(m.Header)
	u |= uint64(m.Address&0x3FF) << sigAddressShift
	u |= uint64(m.SlotMode&0x3) << sigSlotModeShift
	u |= uint64(m.Data) << sigDataShift
	return Raw(u)
}

// UnpackSignal decodes a Signal message from a raw frame. Caller must know
// the frame's header.Command == CommandSignal.
func UnpackSignal(raw Raw) Signal {
	u := uint64(raw)
	return Signal{
		Header:   HeaderOf(raw),
		Address:  uint16((u >> sigAddressShift) & 0x3FF),
		SlotMode: Slot((u >> sigSlotModeShift) & 0x3),
		Data:     uint8((u >> sigDataShift) & 0xFF),
	}
}
