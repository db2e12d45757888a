// Package sv renders a lowered signal.Module as SystemVerilog, grounded on
// nxdump_sv.cpp and nxdump_partitions_sv.cpp. It is a pure textual render
// of the graph the hdl and optimize packages already produced; it performs
// no further lowering or checking of its own.
package sv

import (
	"fmt"
	"io"

	"github.com/nexusfab/nexus/signal"
)

func signame(m *signal.Module, h signal.Handle) string {
	s := m.Get(h)
	if s.IsConstant() {
		return fmt.Sprintf("'d%d", s.Value)
	}
	return s.Name
}

// chaseToSource walks backward through wire-typed signals only, returning
// the first non-wire signal. Mirrors NXPartition::chase_to_source, used by
// the partitioned dump to resolve a gate's cross-partition inputs to their
// true driver rather than an intermediate alias wire.
func chaseToSource(m *signal.Module, h signal.Handle) signal.Handle {
	s := m.Get(h)
	if !s.IsWire() {
		return h
	}
	return chaseToSource(m, s.Inputs[0])
}

func writeIOBoundary(w io.Writer, m *signal.Module) {
	fmt.Fprintf(w, "module %s (\n", m.Name)
	first := true
	for _, ph := range m.Ports {
		p := m.Get(ph)
		prefix := "    , "
		if first {
			prefix = "      "
		}
		dir := "input "
		if p.Direction == signal.DirOutput {
			dir = "output"
		}
		fmt.Fprintf(w, "%s%s logic %s\n", prefix, dir, signame(m, ph))
		first = false
	}
	fmt.Fprint(w, ");\n")
}

// flopResetDecomposition recovers (rstVal, dataVal) from a flop's single
// data input. nxdump_sv.cpp reads these directly off NXFlop::m_rst_val,
// a field our Flop has no equivalent of; hdl.lowerFlopAssign instead wires
// every flop's data input through a COND(reset, rst_val, data) selector
// gate (hdl/process.go), so the reset value is recovered here by
// pattern-matching that shape.
func flopResetDecomposition(m *signal.Module, flop *signal.Signal) (rstVal, dataVal signal.Handle, ok bool) {
	if len(flop.Inputs) != 1 {
		return 0, 0, false
	}
	drv := m.Get(flop.Inputs[0])
	if drv.Kind != signal.KindGate || drv.Op != signal.GateCond || len(drv.Inputs) != 3 {
		return 0, 0, false
	}
	if drv.Inputs[0] != flop.Reset {
		return 0, 0, false
	}
	return drv.Inputs[1], drv.Inputs[2], true
}

// writeFlopProcesses emits one always block per flop in flops, in order.
func writeFlopProcesses(w io.Writer, m *signal.Module, flops []signal.Handle, chase func(signal.Handle) signal.Handle) {
	first := true
	for _, fh := range flops {
		f := m.Get(fh)
		if !first {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "always @(posedge %s, posedge %s)\n", signame(m, f.Clock), signame(m, f.Reset))
		if rstVal, dataVal, ok := flopResetDecomposition(m, f); ok {
			fmt.Fprintf(w, "    if (%s) %s <= %s;\n", signame(m, f.Reset), signame(m, fh), signame(m, chase(rstVal)))
			fmt.Fprintf(w, "    else %s <= %s;\n", signame(m, fh), signame(m, chase(dataVal)))
		} else {
			fmt.Fprintf(w, "    if (%s) %s <= 'dX;\n", signame(m, f.Reset), signame(m, fh))
			fmt.Fprintf(w, "    else %s <= %s;\n", signame(m, fh), signame(m, chase(f.Inputs[0])))
		}
		first = false
	}
}

var gateOpSymbol = map[signal.GateOp]string{
	signal.GateAnd: "&",
	signal.GateOr:  "|",
	signal.GateNot: "!",
	signal.GateXor: "^",
}

// gateExpr renders a gate as a SystemVerilog RHS expression: basic
// assignment, ternary COND, or a unary/n-ary AND/OR/NOT/XOR chain, matching
// nxdump_sv.cpp's per-gate switch.
func gateExpr(m *signal.Module, g *signal.Signal, chase func(signal.Handle) signal.Handle) (string, error) {
	switch {
	case g.Op == signal.GateAssign && len(g.Inputs) == 1:
		return signame(m, chase(g.Inputs[0])), nil

	case g.Op == signal.GateCond && len(g.Inputs) == 3:
		return fmt.Sprintf("%s ? %s : %s",
			signame(m, chase(g.Inputs[0])), signame(m, chase(g.Inputs[1])), signame(m, chase(g.Inputs[2]))), nil

	case len(g.Inputs) >= 1:
		opStr, ok := gateOpSymbol[g.Op]
		if !ok {
			break
		}
		if len(g.Inputs) == 1 {
			return fmt.Sprintf("%s(%s)", opStr, signame(m, chase(g.Inputs[0]))), nil
		}
		out := signame(m, chase(g.Inputs[0]))
		for _, in := range g.Inputs[1:] {
			out += " " + opStr + " " + signame(m, chase(in))
		}
		return out, nil
	}
	return "", fmt.Errorf("sv: unsupported gate %q (op=%s, %d inputs)", g.Name, g.Op, len(g.Inputs))
}

func identity(h signal.Handle) signal.Handle { return h }
