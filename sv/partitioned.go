package sv

import (
	"fmt"
	"io"

	"github.com/nexusfab/nexus/partition"
	"github.com/nexusfab/nexus/signal"
)

// PrintPartitioned renders a partitioned module as SystemVerilog with one
// "// - Partition N" banner section per partition, grounded on
// nxdump_partitions_sv.cpp. Every cross-partition reference is resolved
// with chaseToSource, since a signal crossing a partition boundary is only
// ever reachable through an alias wire in this graph.
func PrintPartitioned(w io.Writer, pr *partition.Partitioner) error {
	m := pr.Module
	writeIOBoundary(w, m)

	fmt.Fprint(w, "\n// Signals\n\n")
	for _, gh := range m.Gates {
		fmt.Fprintf(w, "logic %s;\n", signame(m, gh))
	}

	chase := func(h signal.Handle) signal.Handle { return chaseToSource(m, h) }

	fmt.Fprint(w, "\n// Partitions\n\n")
	for _, p := range pr.Partitions {
		fmt.Fprintf(w, "// - Partition %d\n", p.Index)
		fmt.Fprint(w, "//   Flops\n")
		flops := p.Flops()
		for _, fh := range flops {
			fmt.Fprintf(w, "logic %s;\n", signame(m, fh))
		}
		fmt.Fprintln(w)

		fmt.Fprint(w, "//   Processes\n")
		writeFlopProcesses(w, m, flops, chase)
		fmt.Fprintln(w)

		fmt.Fprint(w, "//   Gates\n")
		for _, gh := range p.Gates() {
			expr, err := gateExpr(m, m.Get(gh), chase)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "assign %s = %s;\n", signame(m, gh), expr)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprint(w, "\n// Other Assignments\n\n")
	for _, wh := range m.Wires {
		wire := m.Get(wh)
		switch {
		case len(wire.Inputs) == 0:
			fmt.Fprintf(w, "assign %s = 'dX;\n", signame(m, wh))
		case len(wire.Inputs) == 1 && m.Get(wire.Inputs[0]).Kind == signal.KindGate:
			continue // already emitted under its driving gate's partition section
		case len(wire.Inputs) == 1:
			fmt.Fprintf(w, "assign %s = %s;\n", signame(m, wh), signame(m, chaseToSource(m, wire.Inputs[0])))
		default:
			return fmt.Errorf("sv: wire %q has %d drivers, want at most 1", wire.Name, len(wire.Inputs))
		}
	}

	fmt.Fprint(w, "\n// Drive Outputs\n\n")
	for _, ph := range m.Ports {
		p := m.Get(ph)
		if p.Direction != signal.DirOutput {
			continue
		}
		if len(p.Inputs) != 1 {
			return fmt.Errorf("sv: output port %q has %d drivers, want exactly 1", p.Name, len(p.Inputs))
		}
		fmt.Fprintf(w, "assign %s = %s;\n", signame(m, ph), signame(m, p.Inputs[0]))
	}

	fmt.Fprintf(w, "\nendmodule : %s\n", m.Name)
	return nil
}
