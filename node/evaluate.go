package node

import (
	"fmt"

	"github.com/nexusfab/nexus/internal/xlog"
	"github.com/nexusfab/nexus/message"
)

// evaluate clears idle/waiting and executes instructions from inst_memory
// until a WAIT sets waiting again (spec.md §4.7). If this call wasn't
// triggered by the tick (i.e. it is re-entered mid-cycle because further
// combinational inputs arrived), execution resumes from the PC captured at
// the last trigger rather than continuing from wherever the prior
// evaluate left off.
func (t *Tile) evaluate(trigger bool) bool {
	if !t.waiting {
		panic(fmt.Sprintf("node (%d,%d): evaluate re-entered while not waiting", t.Row, t.Column))
	}

	if !trigger {
		t.pc = t.restartPC
	}

	t.idle = false
	t.waiting = false

	for !t.waiting {
		raw := t.InstMemory.Read(t.pc)
		t.execute(raw)
		t.pc++
	}

	return t.idle
}

func (t *Tile) execute(raw uint32) {
	switch ExtractOp(raw) {
	case OpMemory:
		t.execMemory(DecodeMemory(raw))
	case OpTruth:
		t.execTruth(DecodeTruth(raw))
	case OpPick:
		t.execPick(DecodePick(raw))
	case OpWait:
		t.execWait(DecodeWait(raw))
	case OpShuffle, OpShuffleAlt:
		t.execShuffle(DecodeShuffle(raw))
	default:
		panic(fmt.Sprintf("node (%d,%d): unsupported opcode in instruction 0x%08x", t.Row, t.Column, raw))
	}
}

func (t *Tile) resolveSlot(s Slot) bool {
	return s.Resolve(t.slot)
}

func (t *Tile) execMemory(m Memory) {
	slot := t.resolveSlot(m.Slot)
	shift := uint32(0)
	if slot {
		shift = 8
	}

	switch m.Mode {
	case MemLoad:
		if m.Tgt == 7 {
			panic(fmt.Sprintf("node (%d,%d): MEMORY LOAD may not target register 7", t.Row, t.Column))
		}
		data := t.DataMemory.Read(uint32(m.Address))
		t.registers[m.Tgt] = uint8((data >> shift) & 0xFF)

	case MemStore:
		data := uint32(t.registers[m.SrcA])
		mask := (uint32(m.SendRow) << 4) | uint32(m.SendCol)
		t.DataMemory.Write(uint32(m.Address), data<<shift, mask<<shift)

	case MemSend:
		out := message.Signal{
			Header: message.Header{
				TargetRow:    m.SendRow,
				TargetColumn: m.SendCol,
				Command:      message.CommandSignal,
			},
			Address:  m.Address,
			SlotMode: message.Slot(m.Slot),
			Data:     t.registers[m.SrcA],
		}
		xlog.Trace("node send", "row", t.Row, "column", t.Column, "to_row", m.SendRow, "to_column", m.SendCol, "data", out.Data)
		t.route(m.SendRow, m.SendCol).EnqueueSignal(out)

	default:
		panic(fmt.Sprintf("node (%d,%d): unsupported memory mode %d", t.Row, t.Column, m.Mode))
	}
}

func (t *Tile) execTruth(tr Truth) {
	bitA := (t.registers[tr.SrcA]>>tr.Mux0)&1 != 0
	bitB := (t.registers[tr.SrcB]>>tr.Mux1)&1 != 0
	bitC := (t.registers[tr.SrcC]>>tr.Mux2)&1 != 0

	shifted := tr.Table
	if bitA {
		shifted >>= 1
	}
	if bitB {
		shifted >>= 2
	}
	if bitC {
		shifted >>= 4
	}
	result := shifted & 1

	t.registers[7] = (t.registers[7] << 1) | result
}

func (t *Tile) execPick(p Pick) {
	val := t.registers[p.SrcA]
	b0 := (val >> p.Mux0) & 1
	b1 := (val >> p.Mux1) & 1
	b2 := (val >> p.Mux2) & 1
	b3 := (val >> p.Mux3) & 1

	picked := (b3 << 7) | (b2 << 6) | (b1 << 5) | (b0 << 4) |
		(b3 << 3) | (b2 << 2) | (b1 << 1) | (b0 << 0)

	mask := uint32(p.Mask)
	if p.Upper {
		mask <<= 4
	}
	slot := t.resolveSlot(SlotPreserve) // PICK always uses the tile's current slot for its data-memory shift
	shift := uint32(0)
	if slot {
		shift = 8
	}

	address := uint32(64) + uint32(p.Address60)
	t.DataMemory.Write(address, uint32(picked)<<shift, mask<<shift)
}

func (t *Tile) execWait(w Wait) {
	t.waiting = true
	t.idle = w.Idle
	if w.PC0 {
		t.nextPC = 0
	} else {
		t.nextPC = t.pc + 1
	}
	t.nextSlot = !t.slot
}

func (t *Tile) execShuffle(s Shuffle) {
	if s.Tgt == 7 {
		panic(fmt.Sprintf("node (%d,%d): SHUFFLE may not target register 7", t.Row, t.Column))
	}
	val := t.registers[s.SrcA]
	bit := func(pos uint8) uint8 { return (val >> pos) & 1 }
	t.registers[s.Tgt] = bit(s.Mux0) |
		(bit(s.Mux1) << 1) |
		(bit(s.Mux2) << 2) |
		(bit(s.Mux3) << 3) |
		(bit(s.Mux4) << 4) |
		(bit(s.Mux5) << 5) |
		(bit(s.Mux6) << 6) |
		(bit(s.Mux7) << 7)
}
