// Package partition implements the Kernighan-Lin-style mesh partitioner
// described in spec.md §4.5: it splits a module's gates and flops into
// clusters that each fit a fixed per-node input/output budget.
package partition

import "github.com/nexusfab/nexus/signal"

const tagPartition = "partition"
const tagSwapped = "swapped"

// Partition holds an index, a back-reference to the module it carves up,
// and the ordered flop-then-gate membership lists that make swap iteration
// order reproducible.
type Partition struct {
	Index int
	m     *signal.Module

	flops []signal.Handle
	gates []signal.Handle
}

// Flops returns the partition's owned flops in insertion order.
func (p *Partition) Flops() []signal.Handle { return append([]signal.Handle(nil), p.flops...) }

// Gates returns the partition's owned gates in insertion order.
func (p *Partition) Gates() []signal.Handle { return append([]signal.Handle(nil), p.gates...) }

// allFlopsAndGates returns flops then gates, the canonical iteration order
// spec.md §4.5 calls out as what makes results reproducible.
func (p *Partition) allFlopsAndGates() []signal.Handle {
	out := make([]signal.Handle, 0, len(p.flops)+len(p.gates))
	out = append(out, p.flops...)
	out = append(out, p.gates...)
	return out
}

// add moves h into the partition, tagging it with this partition's index
// (the authoritative membership record per spec.md §3/§4.5).
func (p *Partition) add(h signal.Handle) {
	s := p.m.Get(h)
	s.SetTag(tagPartition, p.Index)
	switch s.Kind {
	case signal.KindFlop:
		p.flops = append(p.flops, h)
	case signal.KindGate:
		p.gates = append(p.gates, h)
	}
}

// remove drops h from the partition's membership lists without touching
// its tag (the caller always immediately re-tags via add on the new side).
func (p *Partition) remove(h signal.Handle) {
	s := p.m.Get(h)
	switch s.Kind {
	case signal.KindFlop:
		p.flops = removeHandle(p.flops, h)
	case signal.KindGate:
		p.gates = removeHandle(p.gates, h)
	}
}

func removeHandle(list []signal.Handle, h signal.Handle) []signal.Handle {
	for i, v := range list {
		if v == h {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// chaseToSource walks backward through wire-typed signals only, returning
// the first non-wire signal.
func chaseToSource(m *signal.Module, h signal.Handle) signal.Handle {
	s := m.Get(h)
	if !s.IsWire() {
		return h
	}
	return chaseToSource(m, s.Inputs[0])
}

// chaseToTargets walks forward through wires (and gates when thruGates),
// collecting every non-wire (and non-gate-when-requested) target. Gates are
// always included in the returned list, matching nxpartitioner.cpp.
func chaseToTargets(m *signal.Module, h signal.Handle, thruGates bool) []signal.Handle {
	s := m.Get(h)
	stopHere := !s.IsWire() && (!thruGates || s.Kind != signal.KindGate)
	if stopHere {
		return []signal.Handle{h}
	}
	var out []signal.Handle
	if s.Kind == signal.KindGate {
		out = append(out, h)
	}
	for _, o := range s.Outputs {
		out = append(out, chaseToTargets(m, o, thruGates)...)
	}
	return out
}

// traceInputs returns the set of external (different-partition, non-constant)
// source signals feeding root's inputs.
func (p *Partition) traceInputs(root signal.Handle) map[signal.Handle]struct{} {
	traced := make(map[signal.Handle]struct{})
	s := p.m.Get(root)
	for _, in := range s.Inputs {
		src := chaseToSource(p.m, in)
		srcSig := p.m.Get(src)
		if srcSig.IsConstant() {
			continue
		}
		idx, tagged := srcSig.Tag(tagPartition)
		if !tagged || idx != p.Index {
			traced[src] = struct{}{}
		}
	}
	return traced
}

// traceOutputs returns the set of external consumers of root's outputs.
func (p *Partition) traceOutputs(root signal.Handle) map[signal.Handle]struct{} {
	traced := make(map[signal.Handle]struct{})
	s := p.m.Get(root)
	for _, out := range s.Outputs {
		for _, target := range chaseToTargets(p.m, out, false) {
			targetSig := p.m.Get(target)
			idx, tagged := targetSig.Tag(tagPartition)
			if !tagged || idx != p.Index {
				traced[target] = struct{}{}
			}
		}
	}
	return traced
}

// RequiredInputs is the multiset of external signals this partition's gates
// consume, plus one external input per flop regardless of loopback (the
// hardware artefact spec.md §4.5 calls out).
func (p *Partition) RequiredInputs() map[signal.Handle]int {
	external := map[signal.Handle]int{}
	for _, g := range p.gates {
		for src := range p.traceInputs(g) {
			external[src]++
		}
	}
	for _, f := range p.flops {
		fSig := p.m.Get(f)
		src := chaseToSource(p.m, fSig.Inputs[0])
		external[src]++
	}
	return external
}

// RequiredOutputs is the multiset of external consumers of this partition's
// flops and gates.
func (p *Partition) RequiredOutputs() map[signal.Handle]int {
	external := map[signal.Handle]int{}
	for _, h := range p.allFlopsAndGates() {
		for out := range p.traceOutputs(h) {
			external[out]++
		}
	}
	return external
}

// Fits reports whether both multisets' sizes are within the given budgets.
func (p *Partition) Fits(nodeInputs, nodeOutputs int) bool {
	return len(p.RequiredInputs()) <= nodeInputs && len(p.RequiredOutputs()) <= nodeOutputs
}

func sumValues(m map[signal.Handle]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

// ioCost is |I(P)|+|O(P)| summed over both multisets' values (not distinct
// keys), matching the KL pass's cost function in spec.md §4.5.
func (p *Partition) ioCost() int {
	return sumValues(p.RequiredInputs()) + sumValues(p.RequiredOutputs())
}
