package main

import (
	"fmt"
	"io"

	"github.com/nexusfab/nexus/aggregator"
)

// vcdWriter emits a minimal IEEE 1364 value-change-dump covering the
// mesh's per-column aggregated output bytes, one identifier per slot.
type vcdWriter struct {
	w       io.Writer
	columns uint32
}

func newVCDWriter(w io.Writer, columns uint32) *vcdWriter {
	return &vcdWriter{w: w, columns: columns}
}

func (v *vcdWriter) ident(index int) byte { return byte('!' + index) }

func (v *vcdWriter) writeHeader() {
	fmt.Fprint(v.w, "$timescale 1ns $end\n$scope module nexus $end\n")
	for i := 0; i < int(v.columns)*aggregator.Slots; i++ {
		fmt.Fprintf(v.w, "$var wire 8 %c out_%d $end\n", v.ident(i), i)
	}
	fmt.Fprint(v.w, "$upscope $end\n$enddefinitions $end\n")
}

func (v *vcdWriter) writeSample(cycle uint32, outputs []uint8) {
	fmt.Fprintf(v.w, "#%d\n", cycle)
	for i, b := range outputs {
		fmt.Fprintf(v.w, "b%08b %c\n", b, v.ident(i))
	}
}
