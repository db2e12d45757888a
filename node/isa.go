// Package node implements the tile: instruction/data memory, registers,
// the per-cycle digest/evaluate loop, and the message routing policy
// described in spec.md §4.7.
package node

// Op is the 3-bit instruction opcode.
type Op uint8

const (
	OpMemory Op = iota
	OpTruth
	OpPick
	OpWait
	OpShuffle
	OpShuffleAlt
)

// MemMode is the MEMORY opcode's 2-bit sub-mode.
type MemMode uint8

const (
	MemLoad MemMode = iota
	MemStore
	MemSend
)

// Slot mirrors message.Slot's resolution semantics (spec.md §4.7.1) for the
// 2-bit slot selector embedded in instructions.
type Slot uint8

const (
	SlotPreserve Slot = 0
	SlotInverse  Slot = 1
	SlotLower    Slot = 2
	SlotUpper    Slot = 3
)

// Resolve applies the slot-selector semantics against the tile's current
// slot bit.
func (s Slot) Resolve(current bool) bool {
	switch s {
	case SlotInverse:
		return !current
	case SlotLower:
		return false
	case SlotUpper:
		return true
	default:
		return current
	}
}

// Instruction bit layout, 32 bits, MSB-first, op common to every variant:
//
//	[31:29] op (3)
//
// MEMORY: [28:27] mode (2) [26:24] tgt/src_a (3) [23:13] address (11)
//
//	[12:11] slot (2) [10:7] send_row (4) [6:3] send_col (4)
//
// TRUTH:  [28:26] src_a [25:23] src_b [22:20] src_c [19:17] mux_0
//
//	[16:14] mux_1 [13:11] mux_2 [10:3] table (8)
//
// PICK:   [28:26] src_a [25:23] mux_0 [22:20] mux_1 [19:17] mux_2
//
//	[16:14] mux_3 [13:10] mask (4) [9] upper (1) [8:2] address_6_0 (7)
//
// WAIT:   [28] pc0 [27] idle
//
// SHUFFLE/SHUFFLE_ALT: [28:26] src_a [25:23] tgt [22:20] mux_0 [19:17] mux_1
//
//	[16:14] mux_2 [13:11] mux_3 [10:8] mux_4 [7:5] mux_5 [4:2] mux_6
//	[1:0] mux_7 (2 -- restricted to source bit positions 0-3)
const (
	opShift = 29

	memModeShift    = 27
	memTgtShift     = 24
	memAddressShift = 13
	memSlotShift    = 11
	memSendRowShift = 7
	memSendColShift = 3

	truthSrcAShift = 26
	truthSrcBShift = 23
	truthSrcCShift = 20
	truthMux0Shift = 17
	truthMux1Shift = 14
	truthMux2Shift = 11
	truthTableShift = 3

	pickSrcAShift      = 26
	pickMux0Shift      = 23
	pickMux1Shift      = 20
	pickMux2Shift      = 17
	pickMux3Shift      = 14
	pickMaskShift      = 10
	pickUpperShift     = 9
	pickAddress60Shift = 2

	waitPC0Shift  = 28
	waitIdleShift = 27

	shufSrcAShift = 26
	shufTgtShift  = 23
	shufMux0Shift = 20
	shufMux1Shift = 17
	shufMux2Shift = 14
	shufMux3Shift = 11
	shufMux4Shift = 8
	shufMux5Shift = 5
	shufMux6Shift = 2
	shufMux7Shift = 0
)

// ExtractOp returns the 3-bit opcode of a raw instruction word.
func ExtractOp(raw uint32) Op {
	return Op((raw >> opShift) & 0x7)
}

// Memory is the decoded MEMORY instruction.
type Memory struct {
	Mode     MemMode
	Tgt      uint8 // valid for LOAD
	SrcA     uint8 // valid for STORE/SEND (same field as Tgt)
	Address  uint16
	Slot     Slot
	SendRow  uint8
	SendCol  uint8
}

// DecodeMemory decodes a MEMORY instruction word.
func DecodeMemory(raw uint32) Memory {
	reg := uint8((raw >> memTgtShift) & 0x7)
	return Memory{
		Mode:    MemMode((raw >> memModeShift) & 0x3),
		Tgt:     reg,
		SrcA:    reg,
		Address: uint16((raw >> memAddressShift) & 0x7FF),
		Slot:    Slot((raw >> memSlotShift) & 0x3),
		SendRow: uint8((raw >> memSendRowShift) & 0xF),
		SendCol: uint8((raw >> memSendColShift) & 0xF),
	}
}

// EncodeMemory packs a MEMORY instruction word.
func EncodeMemory(m Memory) uint32 {
	u := uint32(OpMemory) << opShift
	u |= uint32(m.Mode&0x3) << memModeShift
	reg := m.Tgt
	if m.Mode != MemLoad {
		reg = m.SrcA
	}
	u |= uint32(reg&0x7) << memTgtShift
	u |= uint32(m.Address&0x7FF) << memAddressShift
	u |= uint32(m.Slot&0x3) << memSlotShift
	u |= uint32(m.SendRow&0xF) << memSendRowShift
	u |= uint32(m.SendCol&0xF) << memSendColShift
	return u
}

// Truth is the decoded TRUTH instruction.
type Truth struct {
	SrcA, SrcB, SrcC uint8
	Mux0, Mux1, Mux2 uint8
	Table            uint8
}

func DecodeTruth(raw uint32) Truth {
	return Truth{
		SrcA:  uint8((raw >> truthSrcAShift) & 0x7),
		SrcB:  uint8((raw >> truthSrcBShift) & 0x7),
		SrcC:  uint8((raw >> truthSrcCShift) & 0x7),
		Mux0:  uint8((raw >> truthMux0Shift) & 0x7),
		Mux1:  uint8((raw >> truthMux1Shift) & 0x7),
		Mux2:  uint8((raw >> truthMux2Shift) & 0x7),
		Table: uint8((raw >> truthTableShift) & 0xFF),
	}
}

func EncodeTruth(t Truth) uint32 {
	u := uint32(OpTruth) << opShift
	u |= uint32(t.SrcA&0x7) << truthSrcAShift
	u |= uint32(t.SrcB&0x7) << truthSrcBShift
	u |= uint32(t.SrcC&0x7) << truthSrcCShift
	u |= uint32(t.Mux0&0x7) << truthMux0Shift
	u |= uint32(t.Mux1&0x7) << truthMux1Shift
	u |= uint32(t.Mux2&0x7) << truthMux2Shift
	u |= uint32(t.Table) << truthTableShift
	return u
}

// Pick is the decoded PICK instruction.
type Pick struct {
	SrcA                   uint8
	Mux0, Mux1, Mux2, Mux3 uint8
	Mask                   uint8
	Upper                  bool
	Address60              uint8
}

func DecodePick(raw uint32) Pick {
	return Pick{
		SrcA:      uint8((raw >> pickSrcAShift) & 0x7),
		Mux0:      uint8((raw >> pickMux0Shift) & 0x7),
		Mux1:      uint8((raw >> pickMux1Shift) & 0x7),
		Mux2:      uint8((raw >> pickMux2Shift) & 0x7),
		Mux3:      uint8((raw >> pickMux3Shift) & 0x7),
		Mask:      uint8((raw >> pickMaskShift) & 0xF),
		Upper:     (raw>>pickUpperShift)&0x1 != 0,
		Address60: uint8((raw >> pickAddress60Shift) & 0x7F),
	}
}

func EncodePick(p Pick) uint32 {
	u := uint32(OpPick) << opShift
	u |= uint32(p.SrcA&0x7) << pickSrcAShift
	u |= uint32(p.Mux0&0x7) << pickMux0Shift
	u |= uint32(p.Mux1&0x7) << pickMux1Shift
	u |= uint32(p.Mux2&0x7) << pickMux2Shift
	u |= uint32(p.Mux3&0x7) << pickMux3Shift
	u |= uint32(p.Mask&0xF) << pickMaskShift
	if p.Upper {
		u |= 1 << pickUpperShift
	}
	u |= uint32(p.Address60&0x7F) << pickAddress60Shift
	return u
}

// Wait is the decoded WAIT instruction.
type Wait struct {
	PC0  bool
	Idle bool
}

func DecodeWait(raw uint32) Wait {
	return Wait{
		PC0:  (raw>>waitPC0Shift)&0x1 != 0,
		Idle: (raw>>waitIdleShift)&0x1 != 0,
	}
}

func EncodeWait(w Wait) uint32 {
	u := uint32(OpWait) << opShift
	if w.PC0 {
		u |= 1 << waitPC0Shift
	}
	if w.Idle {
		u |= 1 << waitIdleShift
	}
	return u
}

// Shuffle is the decoded SHUFFLE/SHUFFLE_ALT instruction. Mux7 is
// restricted to source bit positions 0-3 (2 bits): the opcode, src_a, tgt
// and eight 3-bit mux fields would need 33 bits, one more than the 32-bit
// word holds.
type Shuffle struct {
	Alt                                                bool
	SrcA, Tgt                                          uint8
	Mux0, Mux1, Mux2, Mux3, Mux4, Mux5, Mux6, Mux7 uint8
}

func DecodeShuffle(raw uint32) Shuffle {
	return Shuffle{
		Alt:  ExtractOp(raw) == OpShuffleAlt,
		SrcA: uint8((raw >> shufSrcAShift) & 0x7),
		Tgt:  uint8((raw >> shufTgtShift) & 0x7),
		Mux0: uint8((raw >> shufMux0Shift) & 0x7),
		Mux1: uint8((raw >> shufMux1Shift) & 0x7),
		Mux2: uint8((raw >> shufMux2Shift) & 0x7),
		Mux3: uint8((raw >> shufMux3Shift) & 0x7),
		Mux4: uint8((raw >> shufMux4Shift) & 0x7),
		Mux5: uint8((raw >> shufMux5Shift) & 0x7),
		Mux6: uint8((raw >> shufMux6Shift) & 0x7),
		Mux7: uint8((raw >> shufMux7Shift) & 0x3),
	}
}

func EncodeShuffle(s Shuffle) uint32 {
	op := OpShuffle
	if s.Alt {
		op = OpShuffleAlt
	}
	u := uint32(op) << opShift
	u |= uint32(s.SrcA&0x7) << shufSrcAShift
	u |= uint32(s.Tgt&0x7) << shufTgtShift
	u |= uint32(s.Mux0&0x7) << shufMux0Shift
	u |= uint32(s.Mux1&0x7) << shufMux1Shift
	u |= uint32(s.Mux2&0x7) << shufMux2Shift
	u |= uint32(s.Mux3&0x7) << shufMux3Shift
	u |= uint32(s.Mux4&0x7) << shufMux4Shift
	u |= uint32(s.Mux5&0x7) << shufMux5Shift
	u |= uint32(s.Mux6&0x7) << shufMux6Shift
	u |= uint32(s.Mux7&0x3) << shufMux7Shift
	return u
}
