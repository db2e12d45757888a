package sv

import (
	"fmt"
	"io"

	"github.com/nexusfab/nexus/signal"
)

// Print renders m as flat, unpartitioned SystemVerilog, grounded on
// nxdump_sv.cpp. It never runs the optimiser or sanity pass itself -- the
// caller is expected to have already done so.
func Print(w io.Writer, m *signal.Module) error {
	writeIOBoundary(w, m)

	fmt.Fprint(w, "\n// Wires\n\n")
	for _, wh := range m.Wires {
		fmt.Fprintf(w, "logic %s;\n", signame(m, wh))
	}

	fmt.Fprint(w, "\n// Flops\n\n")
	for _, fh := range m.Flops {
		fmt.Fprintf(w, "logic %s;\n", signame(m, fh))
	}

	fmt.Fprint(w, "\n// Processes\n\n")
	writeFlopProcesses(w, m, m.Flops, identity)

	fmt.Fprint(w, "\n// Gates and Assignments\n\n")
	for _, wh := range m.Wires {
		wire := m.Get(wh)
		fmt.Fprintf(w, "assign %s = ", signame(m, wh))
		switch {
		case len(wire.Inputs) == 0:
			fmt.Fprint(w, "'dX")
		case len(wire.Inputs) == 1 && m.Get(wire.Inputs[0]).Kind == signal.KindGate:
			expr, err := gateExpr(m, m.Get(wire.Inputs[0]), identity)
			if err != nil {
				return err
			}
			fmt.Fprint(w, expr)
		case len(wire.Inputs) == 1:
			fmt.Fprint(w, signame(m, wire.Inputs[0]))
		default:
			return fmt.Errorf("sv: wire %q has %d drivers, want at most 1", wire.Name, len(wire.Inputs))
		}
		fmt.Fprint(w, ";\n")
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
