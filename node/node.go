package node

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nexusfab/nexus/internal/xlog"
	"github.com/nexusfab/nexus/message"
	"github.com/nexusfab/nexus/pipe"
)

var directionTitle = cases.Title(language.English)

// Direction indexes a tile's four neighbour-facing pipes. The numeric order
// North=0, East=1, South=2, West=3 is the polling/routing rotation order
// required by spec.md §5.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Tile is one compute element of the mesh (spec.md §4.7).
type Tile struct {
	Row, Column uint8

	inbound  [4]*pipe.Pipe
	outbound [4]*pipe.Pipe

	InstMemory *Memory
	DataMemory *Memory
	Dump       bool

	registers [8]uint8

	idle      bool
	waiting   bool
	cycle     uint32
	pc        uint32
	slot      bool
	restartPC uint32
	nextPC    uint32
	nextSlot  bool
}

// New returns a tile at (row, column) with its four inbound pipes created
// and its instruction/data memories reset.
func New(row, column uint8) *Tile {
	t := &Tile{Row: row, Column: column}
	for i := range t.inbound {
		t.inbound[i] = pipe.New()
	}
	t.InstMemory = NewMemory()
	t.DataMemory = NewMemory()
	t.Reset()
	return t
}

// Attach plugs an outbound pipe (owned by the neighbour on that side) into
// this tile's given direction. Panics if the direction is already
// connected, matching the teacher's fail-fast wiring discipline.
func (t *Tile) Attach(dir Direction, p *pipe.Pipe) {
	if t.outbound[dir] != nil {
		panic(fmt.Sprintf("node (%d,%d): outbound %s already attached", t.Row, t.Column, dir))
	}
	t.outbound[dir] = p
}

// Inbound returns the tile's inbound pipe for the given direction, used by
// the mesh builder to connect a neighbour's outbound side to it.
func (t *Tile) Inbound(dir Direction) *pipe.Pipe {
	return t.inbound[dir]
}

// Reset zeroes all state and seeds instruction memory with a single WAIT
// instruction at address 0 (pc0=1, idle=1), per spec.md §4.7.
func (t *Tile) Reset() {
	t.idle = true
	t.waiting = true
	t.cycle = 0
	t.pc = 0
	t.slot = false
	t.restartPC = 0
	t.nextPC = 0
	t.nextSlot = false
	t.registers = [8]uint8{}
	t.InstMemory.Clear()
	t.DataMemory.Clear()
	for _, p := range t.inbound {
		p.Reset()
	}
	t.InstMemory.Write(0, EncodeWait(Wait{PC0: true, Idle: true}), 0xFFFFFFFF)
}

// IsIdle reports whether the tile is idle and every connected inbound pipe
// is empty.
func (t *Tile) IsIdle() bool {
	if !t.idle {
		return false
	}
	for _, p := range t.inbound {
		if p != nil && !p.IsIdle() {
			return false
		}
	}
	return true
}

// Step performs one evaluation step. If trigger is set, the latched
// next_pc/next_slot are adopted before digesting (so digest's slot
// resolution sees the post-trigger state); evaluate runs when triggered or
// when digest observed a combinational input change.
func (t *Tile) Step(trigger bool) {
	xlog.Trace("node step", "row", t.Row, "column", t.Column, "trigger", trigger)

	if trigger {
		t.pc = t.nextPC
		t.restartPC = t.nextPC
		t.slot = t.nextSlot
		t.cycle++
	}

	combChange := t.digest()

	if trigger || combChange {
		t.evaluate(trigger)
	}
}

// digest drains every connected inbound pipe, applying messages addressed
// to this tile and forwarding everything else. Polling order is
// North,East,South,West per spec.md §5. Only SIGNAL traffic counts as a
// combinational input change -- a LOAD only patches instruction memory
// (firmware bring-up), which must not retrigger evaluation mid-cycle.
func (t *Tile) digest() bool {
	changed := false
	for _, p := range t.inbound {
		if p == nil {
			continue
		}
		for !p.IsIdle() {
			header := p.NextHeader()
			if header.TargetRow == t.Row && header.TargetColumn == t.Column {
				switch header.Command {
				case message.CommandLoad:
					t.applyLoad(p.DequeueLoad())
				case message.CommandSignal:
					t.applySignal(p.DequeueSignal())
					changed = true
				default:
					panic(fmt.Sprintf("node (%d,%d): unsupported command received", t.Row, t.Column))
				}
			} else {
				h, raw := p.DequeueRaw()
				t.route(header.TargetRow, header.TargetColumn).EnqueueRaw(h, raw)
			}
		}
	}
	return changed
}

func (t *Tile) applyLoad(m message.Load) {
	shift := 0
	if m.Address&1 != 0 {
		shift += 16
	}
	if m.Slot {
		shift += 8
	}
	address := uint32(m.Address >> 1)
	data := uint32(m.Data) << shift
	mask := uint32(0xFF) << shift
	xlog.Trace("node load", "row", t.Row, "column", t.Column, "address", address, "data", data, "mask", mask)
	t.InstMemory.Write(address, data, mask)
}

func (t *Tile) applySignal(m message.Signal) {
	slot := message.Slot(m.SlotMode).Resolve(t.slot)
	shift := 0
	if slot {
		shift = 8
	}
	t.DataMemory.Write(uint32(m.Address), uint32(m.Data)<<shift, 0xFF<<shift)
}

// route picks the tile's outbound pipe for a message bound for target,
// following the clockwise-from-preferred-direction search in spec.md §4.7.
// Panics if target is this tile (self-routing is a programmer error) or if
// no outbound pipe is connected at all.
func (t *Tile) route(targetRow, targetColumn uint8) *pipe.Pipe {
	if targetRow == t.Row && targetColumn == t.Column {
		panic(fmt.Sprintf("node (%d,%d): attempted to route to self", t.Row, t.Column))
	}

	var start Direction
	switch {
	case targetColumn < t.Column:
		start = West
	case targetColumn > t.Column:
		start = East
	case targetRow < t.Row:
		start = North
	default:
		start = South
	}

	for offset := Direction(0); offset < 4; offset++ {
		trial := (start + offset) % 4
		if t.outbound[trial] != nil {
			xlog.Trace("node route", "row", t.Row, "column", t.Column, "direction", directionTitle.String(trial.String()))
			return t.outbound[trial]
		}
	}
	panic(fmt.Sprintf("node (%d,%d): no outbound pipe connected to route towards (%d,%d)", t.Row, t.Column, targetRow, targetColumn))
}

// PC returns the current program counter, used by tests and diagnostics.
func (t *Tile) PC() uint32 { return t.pc }

// Register returns the value of register index (0-7).
func (t *Tile) Register(index int) uint8 { return t.registers[index] }
