package loader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nexusfab/nexus/engine"
	"github.com/nexusfab/nexus/message"
)

// writeDesign writes a one-node design file plus its hex instruction file
// into dir, returning the design file's path.
func writeDesign(t *testing.T, dir string, row, column uint32, words []uint32) string {
	t.Helper()

	hexPath := filepath.Join(dir, "tile.hex")
	var hexBody string
	for _, w := range words {
		hexBody += hexLine(w)
	}
	if err := os.WriteFile(hexPath, []byte(hexBody), 0o644); err != nil {
		t.Fatalf("writing hex fixture: %v", err)
	}

	design := Design{
		Rows:    row + 1,
		Columns: column + 1,
		Nodes:   []Node{{Row: row, Column: column, Hex: "tile.hex"}},
	}
	raw, err := json.Marshal(design)
	if err != nil {
		t.Fatalf("marshalling design fixture: %v", err)
	}
	designPath := filepath.Join(dir, "design.json")
	if err := os.WriteFile(designPath, raw, 0o644); err != nil {
		t.Fatalf("writing design fixture: %v", err)
	}
	return designPath
}

func hexLine(w uint32) string {
	const hexDigits = "0123456789abcdef"
	b := make([]byte, 0, 9)
	for shift := 28; shift >= 0; shift -= 4 {
		b = append(b, hexDigits[(w>>uint(shift))&0xF])
	}
	b = append(b, '\n')
	return string(b)
}

// TestLoadAssemblesLittleEndianWord is spec.md §8 scenario 5: loading the
// word 0xDDCCBBAA (bytes 0xAA,0xBB,0xCC,0xDD, little-endian) via a design
// file results in the target tile's inst_memory[0] holding that word.
func TestLoadAssemblesLittleEndianWord(t *testing.T) {
	dir := t.TempDir()
	designPath := writeDesign(t, dir, 0, 0, []uint32{0xDDCCBBAA})

	e := engine.New(1, 1)
	if err := Load(e, designPath); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tile := e.Mesh.Tile(0, 0)
	got := tile.InstMemory.Read(0)
	want := uint32(0xDDCCBBAA)
	if got != want {
		t.Fatalf("inst_memory[0] = 0x%08x, want 0x%08x", got, want)
	}
}

func TestLoadRejectsGeometryLargerThanMesh(t *testing.T) {
	dir := t.TempDir()
	designPath := writeDesign(t, dir, 2, 2, []uint32{0})

	e := engine.New(1, 1)
	if err := Load(e, designPath); err == nil {
		t.Fatalf("expected an error for an out-of-range design geometry")
	}
}

func TestReadHexWordsSkipsBlankLinesAndAcceptsPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "words.hex")
	body := "0x1\n\n  deadbeef  \n2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	words, err := readHexWords(path)
	if err != nil {
		t.Fatalf("readHexWords failed: %v", err)
	}
	want := []uint32{1, 0xdeadbeef, 2}
	if len(words) != len(want) {
		t.Fatalf("got %d words, want %d", len(words), len(want))
	}
	for i := range want {
		if words[i] != want[i] {
			t.Fatalf("word %d = 0x%x, want 0x%x", i, words[i], want[i])
		}
	}
}

// TestLoadDrainsRequestsAndRoundTripsLoadFrames checks that Load leaves no
// request queued, then round-trips the four LOAD messages one word maps to
// (two addresses, two slots each) through PackLoad/UnpackLoad. It does not
// inspect the frames the loader itself queued; the Memory read-modify-write
// path exercised above covers those.
func TestLoadDrainsRequestsAndRoundTripsLoadFrames(t *testing.T) {
	dir := t.TempDir()
	designPath := writeDesign(t, dir, 0, 0, []uint32{0xDDCCBBAA})

	e := engine.New(1, 1)
	if err := Load(e, designPath); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !e.Control.FromHost().IsIdle() {
		t.Fatalf("expected every queued request to have been drained by Load")
	}

	// The four messages word 0xDDCCBBAA maps to, built by hand rather than
	// taken from the loader.
	want := []message.Load{
		{Header: message.Header{Command: message.CommandLoad}, Address: 0, Slot: false, Data: 0xAA},
		{Header: message.Header{Command: message.CommandLoad}, Address: 0, Slot: true, Data: 0xBB},
		{Header: message.Header{Command: message.CommandLoad}, Address: 1, Slot: false, Data: 0xCC},
		{Header: message.Header{Command: message.CommandLoad}, Address: 1, Slot: true, Data: 0xDD},
	}
	for i, w := range want {
		raw := message.PackLoad(w)
		got := message.UnpackLoad(raw)
		if got.Address != w.Address || got.Slot != w.Slot || got.Data != w.Data {
			t.Fatalf("message %d round-trip mismatch: got %+v, want %+v", i, got, w)
		}
	}
}
