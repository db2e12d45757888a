package signal

import "fmt"

// Module is a named container owning the arena of signals plus ordered,
// kind-specific lists (ports, wires, gates, flops) and a name-indexed map,
// mirroring nxmodule.hpp. Handles are u32 indices into arena; a dropped slot
// is invalidated rather than reused, so handles held by other signals never
// dangle into an unrelated live signal.
type Module struct {
	Name string

	arena []*Signal // arena[0] is never used; Handle 0 means "no signal"
	byName map[string]Handle

	Ports []Handle
	Wires []Handle
	Gates []Handle
	Flops []Handle
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{
		Name:   name,
		arena:  make([]*Signal, 1),
		byName: make(map[string]Handle),
	}
}

// Get resolves a handle to its Signal. Panics on the zero handle or a
// dropped slot, both of which indicate a caller bug.
func (m *Module) Get(h Handle) *Signal {
	if h == invalidHandle || int(h) >= len(m.arena) || m.arena[h] == nil {
		panic(fmt.Sprintf("module %q: invalid signal handle %d", m.Name, h))
	}
	return m.arena[h]
}

// Lookup resolves a signal by name.
func (m *Module) Lookup(name string) (Handle, bool) {
	h, ok := m.byName[name]
	return h, ok
}

// MustLookup resolves a signal by name, panicking if absent.
func (m *Module) MustLookup(name string) Handle {
	h, ok := m.byName[name]
	if !ok {
		panic(fmt.Sprintf("module %q: no signal named %q", m.Name, name))
	}
	return h
}

func (m *Module) alloc(s *Signal) Handle {
	h := Handle(len(m.arena))
	s.Handle = h
	m.arena = append(m.arena, s)
	if s.Name != "" {
		if _, exists := m.byName[s.Name]; exists {
			panic(fmt.Sprintf("module %q: duplicate signal name %q", m.Name, s.Name))
		}
		m.byName[s.Name] = h
	}
	return h
}

// addSignal appends h to the correct kind vector per spec.md §3's
// "add-signal appends to the correct kind vector and registers it in the
// map" rule. The name map registration already happened in alloc.
func (m *Module) addSignal(s *Signal) Handle {
	h := m.alloc(s)
	switch s.Kind {
	case KindPort:
		m.Ports = append(m.Ports, h)
	case KindWire:
		m.Wires = append(m.Wires, h)
	case KindGate:
		m.Gates = append(m.Gates, h)
	case KindFlop:
		m.Flops = append(m.Flops, h)
	}
	return h
}

// AddConstant creates and registers a new Constant signal. Constants are not
// tracked in a dedicated vector (they have no inputs/outputs to optimize and
// are referenced only from consumers), matching the original tool's
// treatment of constants as unmanaged literals.
func (m *Module) AddConstant(name string, width uint, value uint64) Handle {
	return m.alloc(&Signal{Name: name, Kind: KindConstant, Width: width, Value: value})
}

// AddWire creates and registers a new Wire signal.
func (m *Module) AddWire(name string) Handle {
	return m.addSignal(&Signal{Name: name, Kind: KindWire})
}

// AddPort creates and registers a new Port signal.
func (m *Module) AddPort(name string, dir Direction) Handle {
	return m.addSignal(&Signal{Name: name, Kind: KindPort, Direction: dir})
}

// AddGate creates and registers a new Gate signal with the given op, wiring
// its inputs via Connect. The gate has no name collision risk for
// compiler-generated names since callers pick unique names (e.g. by
// suffixing the op and an allocation counter).
func (m *Module) AddGate(name string, op GateOp, inputs ...Handle) Handle {
	g := &Signal{Name: name, Kind: KindGate, Op: op}
	h := m.addSignal(g)
	for _, in := range inputs {
		m.Connect(in, h)
	}
	return h
}

// AddFlop creates and registers a new Flop signal. Clock and reset are
// asymmetric edges: they are stored on the flop but never mirrored into the
// driver's Outputs list, matching the documented clock/reset exception.
func (m *Module) AddFlop(name string, data, clock, reset Handle) Handle {
	f := &Signal{Name: name, Kind: KindFlop}
	h := m.addSignal(f)
	m.Connect(data, h)
	f.Clock = clock
	f.Reset = reset
	return h
}

// Connect records that src drives dst: dst gains src in its Inputs, and src
// gains dst in its Outputs. This is the only way new non-clock/reset edges
// should be created; it keeps the dual-edge invariant in spec.md §3 true by
// construction.
func (m *Module) Connect(src, dst Handle) {
	s, d := m.Get(src), m.Get(dst)
	d.Inputs = append(d.Inputs, src)
	s.Outputs = append(s.Outputs, dst)
}

// Disconnect removes a single src->dst edge (both directions). It is a
// no-op-on-second-call-safe removal of the first matching entry in each
// list, mirroring how the propagate pass detaches dropped gates from their
// inputs' output lists.
func (m *Module) Disconnect(src, dst Handle) {
	s, d := m.Get(src), m.Get(dst)
	d.Inputs = removeFirst(d.Inputs, src)
	s.Outputs = removeFirst(s.Outputs, dst)
}

func removeFirst(list []Handle, h Handle) []Handle {
	for i, v := range list {
		if v == h {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// ReplaceConsumerInput rewires every place dst lists oldSrc as an input to
// list newSrc instead, maintaining the dual edges on both sides: oldSrc
// loses dst from its Outputs, newSrc gains dst in its Outputs. This is the
// primitive the constant propagation pass uses to retire a gate in favour of
// its replacement without ever touching a Signal's slices directly.
func (m *Module) ReplaceConsumerInput(oldSrc, newSrc, dst Handle) {
	d := m.Get(dst)
	replaced := false
	for i, in := range d.Inputs {
		if in == oldSrc {
			d.Inputs[i] = newSrc
			replaced = true
		}
	}
	if !replaced {
		panic(fmt.Sprintf("module %q: %q does not list %q as an input",
			m.Name, m.Get(dst).Name, m.Get(oldSrc).Name))
	}
	old := m.Get(oldSrc)
	old.Outputs = removeFirst(old.Outputs, dst)
	newS := m.Get(newSrc)
	newS.Outputs = append(newS.Outputs, dst)
}

// DropSignal removes a signal from the module: the arena slot is
// invalidated and the name map entry is removed in constant time, and the
// signal is removed from its kind vector by a linear search of that vector,
// so the whole call is not constant time. Callers must have already disconnected
// every edge touching the signal (the sanity pass checks this).
func (m *Module) DropSignal(h Handle) {
	s := m.Get(h)
	delete(m.byName, s.Name)
	switch s.Kind {
	case KindPort:
		m.Ports = removeFirst(m.Ports, h)
	case KindWire:
		m.Wires = removeFirst(m.Wires, h)
	case KindGate:
		m.Gates = removeFirst(m.Gates, h)
	case KindFlop:
		m.Flops = removeFirst(m.Flops, h)
	}
	m.arena[h] = nil
}

// AllSignals returns every live handle in the module, ports first, then
// wires, gates and flops -- a stable, deterministic order used by the
// prune and sanity passes.
func (m *Module) AllSignals() []Handle {
	out := make([]Handle, 0, len(m.Ports)+len(m.Wires)+len(m.Gates)+len(m.Flops))
	out = append(out, m.Ports...)
	out = append(out, m.Wires...)
	out = append(out, m.Gates...)
	out = append(out, m.Flops...)
	return out
}
