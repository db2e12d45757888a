// Package loader reads a JSON design description plus its referenced hex
// instruction files and queues the decoded instructions as control-plane
// requests, grounded on nxloader.cpp/.hpp.
package loader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nexusfab/nexus/engine"
	"github.com/nexusfab/nexus/internal/xlog"
	"github.com/nexusfab/nexus/message"
)

// Node places one tile's instruction hex file at (Row, Column).
type Node struct {
	Row    uint32 `json:"row"`
	Column uint32 `json:"column"`
	Hex    string `json:"hex"`
}

// Design is the top-level JSON design description: {rows, columns, nodes}.
type Design struct {
	Rows    uint32 `json:"rows"`
	Columns uint32 `json:"columns"`
	Nodes   []Node `json:"nodes"`
}

// parseDesign reads and JSON-decodes the design file at path.
func parseDesign(path string) (Design, error) {
	f, err := os.Open(path)
	if err != nil {
		return Design{}, fmt.Errorf("loader: opening design file: %w", err)
	}
	defer f.Close()

	var d Design
	if err := json.NewDecoder(f).Decode(&d); err != nil {
		return Design{}, fmt.Errorf("loader: decoding design file %q: %w", path, err)
	}
	return d, nil
}

// readHexWords reads one 32-bit word per line from an ASCII hex file: an
// optional "0x"/"0X" prefix, blank lines skipped.
func readHexWords(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: opening hex file: %w", err)
	}
	defer f.Close()

	var words []uint32
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(strings.TrimPrefix(line, "0x"), "0X")
		v, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("loader: parsing hex word %q in %s: %w", line, path, err)
		}
		words = append(words, uint32(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("loader: reading %s: %w", path, err)
	}
	return words, nil
}

// Load reads the design file at designPath, queues four LOAD control
// requests per instruction word for every referenced node, then steps e
// until the mesh sinks every queued message. Mirrors NXLoader::load,
// including its little-endian byte ordering across (address&1, slot)
// (spec.md §8 scenario 5).
func Load(e *engine.Engine, designPath string) error {
	design, err := parseDesign(designPath)
	if err != nil {
		return err
	}
	if design.Rows > e.Mesh.Rows || design.Columns > e.Mesh.Columns {
		return fmt.Errorf("loader: design geometry %dx%d exceeds mesh %dx%d",
			design.Rows, design.Columns, e.Mesh.Rows, e.Mesh.Columns)
	}

	base := filepath.Dir(designPath)
	for _, node := range design.Nodes {
		hexPath := node.Hex
		if !filepath.IsAbs(hexPath) {
			hexPath = filepath.Join(base, hexPath)
		}
		words, err := readHexWords(hexPath)
		if err != nil {
			return err
		}
		xlog.Trace("loader queuing instructions", "row", node.Row, "column", node.Column, "words", len(words))
		for address, instr := range words {
			for idx := 0; idx < 4; idx++ {
				load := message.Load{
					Header: message.Header{
						TargetRow:    uint8(node.Row),
						TargetColumn: uint8(node.Column),
						Command:      message.CommandLoad,
					},
					Address: uint16(address)<<1 + uint16(idx/2),
					Slot:    idx%2 != 0,
					Data:    uint8(instr >> (8 * idx)),
				}
				raw := message.PackLoad(load)
				e.Control.FromHost().Enqueue(message.PackToMesh(message.ToMesh{Frame: raw}))
			}
		}
	}

	xlog.Trace("loader: all messages queued, waiting for idle")
	e.Run(1, false)
	return nil
}
