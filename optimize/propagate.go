// Package optimize implements the constant-propagation optimiser, the
// dead-signal prune sweep, and the sanity pass described in spec.md
// §4.2-§4.4.
package optimize

import (
	"fmt"

	"github.com/nexusfab/nexus/signal"
)

// namer hands out unique synthetic gate names derived from the gate being
// retired, so intermediate OR(p, AND(not(p), f)) style rewrites stay
// readable in an SV dump.
type namer struct {
	base  string
	count int
}

func (n *namer) next(suffix string) string {
	n.count++
	return fmt.Sprintf("%s$%s%d", n.base, suffix, n.count)
}

// constants caches the two possible 1-bit constants so a single propagation
// pass doesn't allocate a fresh Constant signal per fold.
type constants struct {
	zero, one signal.Handle
	n         int
}

func (c *constants) get(m *signal.Module, value uint64) signal.Handle {
	if value == 0 {
		if c.zero == 0 {
			c.n++
			c.zero = m.AddConstant(fmt.Sprintf("$const0_%d", c.n), 1, 0)
		}
		return c.zero
	}
	if c.one == 0 {
		c.n++
		c.one = m.AddConstant(fmt.Sprintf("$const1_%d", c.n), 1, 1)
	}
	return c.one
}

// Propagate runs constant-propagation passes until a pass drops no gates,
// per spec.md §4.2, and returns the total number of gates dropped across
// every pass. Running it twice in succession must drop zero gates on the
// second run (the idempotence property in spec.md §8): once every gate's
// inputs are free of constants, classifyInputs reports num_one==num_zero==0
// for all of them and no rewrite rule fires.
func Propagate(m *signal.Module) int {
	total := 0
	for {
		dropped := propagatePass(m)
		total += dropped
		if dropped == 0 {
			break
		}
	}
	return total
}

func propagatePass(m *signal.Module) int {
	consts := &constants{}
	// Snapshot the gate list: new gates synthesized mid-pass are not
	// revisited in this pass (they carry forward to the next one), and
	// retired gates are dropped only after the snapshot is walked.
	gates := append([]signal.Handle(nil), m.Gates...)
	toDrop := make([]signal.Handle, 0)

	for _, gh := range gates {
		g := m.Get(gh)
		if g.Kind != signal.KindGate {
			continue // already dropped earlier in this pass as a side effect
		}

		numOne, numZero, numVar := classifyInputs(m, g)
		if numOne == 0 && numZero == 0 {
			continue
		}

		var newDriver signal.Handle
		switch g.Op {
		case signal.GateCond:
			newDriver = rewriteCond(m, g, consts)
		case signal.GateAssign:
			continue // identity, retained for emission
		default:
			if len(g.Inputs) == 1 {
				newDriver = rewriteUnary(m, g, numOne, numZero, numVar, consts)
			} else {
				newDriver = rewriteVariadic(m, g, numOne, numZero, numVar, consts)
			}
		}

		if newDriver == 0 {
			continue
		}
		retire(m, g, newDriver)
		toDrop = append(toDrop, gh)
	}

	for _, gh := range toDrop {
		m.DropSignal(gh)
	}
	return len(toDrop)
}

func classifyInputs(m *signal.Module, g *signal.Signal) (numOne, numZero, numVar int) {
	for _, inH := range g.Inputs {
		in := m.Get(inH)
		if !in.IsConstant() {
			numVar++
			continue
		}
		if in.Bit() == 1 {
			numOne++
		} else {
			numZero++
		}
	}
	return
}

// retire rewires every consumer of g to newDriver and detaches g from its
// own inputs, leaving g with empty Inputs/Outputs ready for DropSignal.
func retire(m *signal.Module, g *signal.Signal, newDriver signal.Handle) {
	consumers := append([]signal.Handle(nil), g.Outputs...)
	for _, consumer := range consumers {
		m.ReplaceConsumerInput(g.Handle, newDriver, consumer)
	}
	inputs := append([]signal.Handle(nil), g.Inputs...)
	for _, in := range inputs {
		m.Disconnect(in, g.Handle)
	}
}

// rewriteCond implements every COND(p, t, f) case in spec.md §4.2.
func rewriteCond(m *signal.Module, g *signal.Signal, consts *constants) signal.Handle {
	n := &namer{base: g.Name}
	p, t, f := g.Inputs[0], g.Inputs[1], g.Inputs[2]
	pSig, tSig, fSig := m.Get(p), m.Get(t), m.Get(f)

	if pSig.IsConstant() {
		if pSig.Bit() != 0 {
			return t
		}
		return f
	}

	if tSig.IsConstant() && fSig.IsConstant() {
		if tSig.Bit() == fSig.Bit() {
			return consts.get(m, tSig.Bit())
		}
		if tSig.Bit() == 1 {
			return p
		}
		return m.AddGate(n.next("not"), signal.GateNot, p)
	}

	if tSig.IsConstant() {
		if tSig.Bit() == 1 {
			// t=1, f non-constant: OR(p, AND(NOT(p), f))
			notP := m.AddGate(n.next("not"), signal.GateNot, p)
			andPF := m.AddGate(n.next("and"), signal.GateAnd, notP, f)
			return m.AddGate(n.next("or"), signal.GateOr, p, andPF)
		}
		// t=0, f non-constant: AND(NOT(p), f)
		notP := m.AddGate(n.next("not"), signal.GateNot, p)
		return m.AddGate(n.next("and"), signal.GateAnd, notP, f)
	}

	// fSig is constant (only remaining case, since !numVar-only handled above)
	if fSig.Bit() == 1 {
		// f=1, t non-constant: OR(AND(p,t), NOT(p))
		andPT := m.AddGate(n.next("and"), signal.GateAnd, p, t)
		notP := m.AddGate(n.next("not"), signal.GateNot, p)
		return m.AddGate(n.next("or"), signal.GateOr, andPT, notP)
	}
	// f=0, t non-constant: AND(p, t)
	return m.AddGate(n.next("and"), signal.GateAnd, p, t)
}

// rewriteUnary implements the single-input reducer rules in spec.md §4.2.
// It always has at least one constant input here (the caller already
// filtered that), so AND/OR/XOR with one input and any constant folds
// entirely since there is nothing left to vary once the constant terms are
// accounted for, save the special case of a single non-constant term in
// AND/OR that did not itself reach zero/one respectively.
func rewriteUnary(m *signal.Module, g *signal.Signal, numOne, numZero, numVar int, consts *constants) signal.Handle {
	switch g.Op {
	case signal.GateAnd:
		if numVar == 0 || numZero > 0 {
			value := uint64(0)
			if numZero == 0 {
				value = 1
			}
			return consts.get(m, value)
		}
	case signal.GateOr:
		if numVar == 0 || numOne > 0 {
			value := uint64(0)
			if numOne > 0 {
				value = 1
			}
			return consts.get(m, value)
		}
	case signal.GateNot:
		// Single input and it is constant (numVar==0 is implied: a NOT has
		// exactly one input and we already know it's constant here).
		value := uint64(1)
		if numOne > 0 {
			value = 0
		}
		return consts.get(m, value)
	case signal.GateXor:
		if numVar == 0 {
			value := uint64(numOne % 2)
			return consts.get(m, value)
		}
	}
	return 0
}

// rewriteVariadic implements the multi-input AND/OR/XOR rules in spec.md
// §4.2 for gates with two or more inputs. AND/OR/XOR gates are n-ary (§3),
// so this folds every constant input at once rather than assuming exactly
// two inputs -- a 3+-input gate with more than one remaining variable input
// (e.g. AND(var1, var2, const0)) is a valid, spec-sanctioned shape, not a
// programmer error.
func rewriteVariadic(m *signal.Module, g *signal.Signal, numOne, numZero, numVar int, consts *constants) signal.Handle {
	if numVar == 0 {
		var value uint64
		switch g.Op {
		case signal.GateAnd:
			if numZero == 0 {
				value = 1
			}
		case signal.GateOr:
			if numOne > 0 {
				value = 1
			}
		case signal.GateXor:
			value = uint64(numOne % 2)
		}
		return consts.get(m, value)
	}

	vars := make([]signal.Handle, 0, numVar)
	for _, inH := range g.Inputs {
		if !m.Get(inH).IsConstant() {
			vars = append(vars, inH)
		}
	}
	n := &namer{base: g.Name}

	switch g.Op {
	case signal.GateAnd:
		if numZero > 0 {
			return consts.get(m, 0)
		}
		if len(vars) == 1 {
			return vars[0]
		}
		return m.AddGate(n.next("and"), signal.GateAnd, vars...)
	case signal.GateOr:
		if numOne > 0 {
			return consts.get(m, 1)
		}
		if len(vars) == 1 {
			return vars[0]
		}
		return m.AddGate(n.next("or"), signal.GateOr, vars...)
	case signal.GateXor:
		reduced := vars[0]
		if len(vars) > 1 {
			reduced = m.AddGate(n.next("xor"), signal.GateXor, vars...)
		}
		if numOne%2 == 1 {
			return m.AddGate(n.next("not"), signal.GateNot, reduced)
		}
		return reduced
	}
	return 0
}
