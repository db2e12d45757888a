// Package mesh builds and drives the R*C grid of tiles described in
// spec.md §4.9, grounded on NXMesh (nxmesh.hpp/.cpp) for the tile wiring
// and on Nexus::run (nexus.cpp) for the column-aggregator chaining.
package mesh

import (
	"fmt"

	"github.com/nexusfab/nexus/aggregator"
	"github.com/nexusfab/nexus/node"
	"github.com/nexusfab/nexus/pipe"
)

// Mesh owns every tile and per-column aggregator in the device.
type Mesh struct {
	Rows, Columns uint32

	tiles       [][]*node.Tile
	aggregators []*aggregator.Aggregator
}

// Builder constructs a Mesh, following the teacher's WithX-chained builder
// convention (config.DeviceBuilder) rather than a single constructor with a
// long positional argument list.
type Builder struct {
	rows, columns uint32
}

// WithRows sets the mesh's row count.
func (b Builder) WithRows(rows uint32) Builder {
	b.rows = rows
	return b
}

// WithColumns sets the mesh's column count.
func (b Builder) WithColumns(columns uint32) Builder {
	b.columns = columns
	return b
}

// Build creates the tile grid, wires every tile to its N/E/S/W neighbours,
// and chains a column aggregator onto the south edge of each column.
func (b Builder) Build() *Mesh {
	if b.rows == 0 || b.columns == 0 {
		panic("mesh: rows and columns must both be non-zero")
	}

	m := &Mesh{Rows: b.rows, Columns: b.columns}

	m.tiles = make([][]*node.Tile, b.rows)
	for row := uint32(0); row < b.rows; row++ {
		m.tiles[row] = make([]*node.Tile, b.columns)
		for column := uint32(0); column < b.columns; column++ {
			m.tiles[row][column] = node.New(uint8(row), uint8(column))
		}
	}

	for row := uint32(0); row < b.rows; row++ {
		for column := uint32(0); column < b.columns; column++ {
			tile := m.tiles[row][column]
			if row > 0 {
				tile.Attach(node.North, m.tiles[row-1][column].Inbound(node.South))
			}
			if row < b.rows-1 {
				tile.Attach(node.South, m.tiles[row+1][column].Inbound(node.North))
			}
			if column > 0 {
				tile.Attach(node.West, m.tiles[row][column-1].Inbound(node.East))
			}
			if column < b.columns-1 {
				tile.Attach(node.East, m.tiles[row][column+1].Inbound(node.West))
			}
		}
	}

	m.aggregators = make([]*aggregator.Aggregator, b.columns)
	for column := uint32(0); column < b.columns; column++ {
		m.aggregators[column] = aggregator.New(uint8(column))
		bottomRow := b.rows - 1
		m.tiles[bottomRow][column].Attach(node.South, m.aggregators[column].InboundMesh)
	}
	// Chain aggregators east-to-west: column C's outbound feeds column C-1's
	// InboundNeighbour, so traffic ultimately drains out of column 0 -- the
	// same single egress point Nexus::Nexus attaches to aggregator 0.
	for column := uint32(1); column < b.columns; column++ {
		m.aggregators[column].Attach(m.aggregators[column-1].InboundNeighbour)
	}

	return m
}

// Tile returns the tile at (row, column). Panics if out of range.
func (m *Mesh) Tile(row, column uint32) *node.Tile {
	if row >= m.Rows || column >= m.Columns {
		panic(fmt.Sprintf("mesh: tile (%d,%d) out of range for %dx%d mesh", row, column, m.Rows, m.Columns))
	}
	return m.tiles[row][column]
}

// Aggregator returns the column aggregator for the given column.
func (m *Mesh) Aggregator(column uint32) *aggregator.Aggregator {
	return m.aggregators[column]
}

// AttachEgress plugs the mesh's single egress pipe (towards the host) onto
// aggregator 0's outbound side.
func (m *Mesh) AttachEgress(p *pipe.Pipe) {
	m.aggregators[0].Attach(p)
}

// Ingress returns the pipe used to inject host traffic into the mesh: the
// north inbound pipe of tile (0,0), exactly as Nexus::Nexus wires
// m_ingress.
func (m *Mesh) Ingress() *pipe.Pipe {
	return m.tiles[0][0].Inbound(node.North)
}

// Reset clears every tile and aggregator back to its power-on state.
func (m *Mesh) Reset() {
	for _, row := range m.tiles {
		for _, tile := range row {
			tile.Reset()
		}
	}
	for _, agg := range m.aggregators {
		agg.Reset()
	}
}

// IsIdle reports whether every tile and aggregator is idle.
func (m *Mesh) IsIdle() bool {
	for _, row := range m.tiles {
		for _, tile := range row {
			if !tile.IsIdle() {
				return false
			}
		}
	}
	for _, agg := range m.aggregators {
		if !agg.IsIdle() {
			return false
		}
	}
	return true
}

// Step advances every tile, then drains every aggregator. Aggregators step
// after tiles so a SIGNAL emitted into an aggregator's inbound-mesh pipe
// during this same step is visible to column-chained forwarding before the
// next Step call.
func (m *Mesh) Step(trigger bool) {
	for _, row := range m.tiles {
		for _, tile := range row {
			tile.Step(trigger)
		}
	}
	// Aggregators drain highest column first so that by the time column 0
	// (the one wired to egress) steps, every neighbour-forwarded frame from
	// columns to its east has already arrived in its InboundNeighbour pipe.
	for column := int(m.Columns) - 1; column >= 0; column-- {
		m.aggregators[column].Step()
	}
}

// Outputs returns the Slots-wide output snapshot of every column,
// concatenated column-major as Nexus::run's flat outputs buffer does.
func (m *Mesh) Outputs() []uint8 {
	buf := make([]uint8, int(m.Columns)*aggregator.Slots)
	for column := uint32(0); column < m.Columns; column++ {
		slots := m.aggregators[column].Outputs()
		copy(buf[int(column)*aggregator.Slots:], slots[:])
	}
	return buf
}
