// Package hdl lowers an elaborated netlist AST (package ast) into a
// signal.Module, per spec.md §4.1. Grounded on nxmodule.hpp for the
// target graph shape and on the lowering rules of spec.md §4.1 itself
// (the originating nxparser.hpp/.cpp only produce the AST this package
// consumes, and are out of scope per the Non-goal on text parsing).
package hdl

import (
	"fmt"

	"github.com/nexusfab/nexus/hdl/ast"
	"github.com/nexusfab/nexus/signal"
)

// UnsupportedError reports an AST node the lowering pass does not
// recognise -- every occurrence names the offending kind, per spec.md
// §4.1's "Failure" clause.
type UnsupportedError struct {
	Kind string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("hdl: unsupported %s", e.Kind)
}

// bits is an ordered bit-level signal list, LSB first, the "bit-holder"
// spec.md's expression-lowering rules describe.
type bits []signal.Handle

// lowering carries the working state of one Lower call.
type lowering struct {
	mod *signal.Module
	// expansion maps a declared name to its per-bit signal list.
	expansion map[string]bits
	// varTypes holds declared-but-not-yet-lowered Variable types; a
	// Variable becomes real Flop signals only once lowerAlways has
	// determined its clock/reset (spec.md §4.1's process-lowering rule).
	varTypes map[string]ast.Type
	counter  int
}

// Lower consumes an elaborated ast.Module and produces the equivalent
// signal.Module, expanding packed ranges to per-bit signals and
// constructing flops from recognised clocked processes.
func Lower(m *ast.Module) (*signal.Module, error) {
	l := &lowering{
		mod:       signal.NewModule(m.Name),
		expansion: make(map[string]bits),
		varTypes:  make(map[string]ast.Type),
	}

	for _, p := range m.Ports {
		if err := l.declarePort(p); err != nil {
			return nil, err
		}
	}
	for _, n := range m.Nets {
		l.declareNet(n)
	}
	for _, v := range m.Vars {
		l.declareVar(v)
	}

	for _, item := range m.Items {
		switch it := item.(type) {
		case *ast.ContinuousAssign:
			if err := l.lowerContinuousAssign(it); err != nil {
				return nil, err
			}
		case *ast.ProceduralBlock:
			if it.Kind != ast.ProcAlways {
				return nil, &UnsupportedError{Kind: "procedural block kind"}
			}
			if err := l.lowerAlways(it.Body); err != nil {
				return nil, err
			}
		default:
			return nil, &UnsupportedError{Kind: "module item"}
		}
	}

	return l.mod, nil
}

func bitName(base string, i int) string {
	if base == "" {
		return fmt.Sprintf("_b%d", i)
	}
	return fmt.Sprintf("%s_%d", base, i)
}

// expand allocates (or returns the already-allocated) per-bit expansion
// for a scalar or packed-range declaration.
func (l *lowering) expand(name string, t ast.Type, alloc func(bitName string) signal.Handle) bits {
	if t.Scalar() {
		h := alloc(name)
		b := bits{h}
		l.expansion[name] = b
		return b
	}
	lo, hi := t.Lo, t.Hi
	if lo > hi {
		lo, hi = hi, lo
	}
	b := make(bits, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		b = append(b, alloc(bitName(name, i)))
	}
	l.expansion[name] = b
	return b
}

func (l *lowering) declarePort(p *ast.Port) error {
	dir := signal.DirInput
	if p.Dir == ast.DirOutput {
		dir = signal.DirOutput
	}
	l.expand(p.Name, p.Type, func(bn string) signal.Handle {
		return l.mod.AddPort(bn, dir)
	})
	return nil
}

func (l *lowering) declareNet(n *ast.Net) {
	l.expand(n.Name, n.Type, func(bn string) signal.Handle {
		return l.mod.AddWire(bn)
	})
}

func (l *lowering) declareVar(v *ast.Variable) {
	// Flop storage is materialised lazily, once lowerAlways has determined
	// its clock and reset; record only the type for now.
	l.varTypes[v.Name] = v.Type
}

func (l *lowering) lowerContinuousAssign(a *ast.ContinuousAssign) error {
	lhs, err := l.lowerExpr(a.LHS)
	if err != nil {
		return err
	}
	rhs, err := l.lowerExpr(a.RHS)
	if err != nil {
		return err
	}
	if len(lhs) != len(rhs) {
		return &UnsupportedError{Kind: "continuous assign with mismatched widths"}
	}
	for i := range lhs {
		name := fmt.Sprintf("__assign%d", l.counter)
		l.counter++
		g := l.mod.AddGate(name, signal.GateAssign, rhs[i])
		l.mod.Connect(g, lhs[i])
	}
	return nil
}

// lowerExpr lowers one expression to its bit-holder, per spec.md §4.1's
// per-kind rules.
func (l *lowering) lowerExpr(e ast.Expr) (bits, error) {
	switch x := e.(type) {
	case *ast.NamedValue:
		b, ok := l.expansion[x.Name]
		if !ok {
			return nil, &UnsupportedError{Kind: fmt.Sprintf("reference to undeclared name %q", x.Name)}
		}
		return b, nil

	case *ast.IntegerLiteral:
		out := make(bits, 0, x.Width)
		for i := 0; i < x.Width; i++ {
			bitVal := (x.Value >> uint(i)) & 1
			name := fmt.Sprintf("__const%d", l.counter)
			l.counter++
			out = append(out, l.mod.AddConstant(name, 1, bitVal))
		}
		return out, nil

	case *ast.ElementSelect:
		base, err := l.lowerExpr(x.Value)
		if err != nil {
			return nil, err
		}
		if x.Index < 0 || x.Index >= len(base) {
			return nil, &UnsupportedError{Kind: "element select index out of range"}
		}
		return bits{base[x.Index]}, nil

	case *ast.RangeSelect:
		base, err := l.lowerExpr(x.Value)
		if err != nil {
			return nil, err
		}
		lo, hi := x.Left, x.Right
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo < 0 || hi >= len(base) {
			return nil, &UnsupportedError{Kind: "range select out of range"}
		}
		return append(bits{}, base[lo:hi+1]...), nil

	case *ast.Concatenation:
		var out bits
		for _, operand := range x.Operands {
			b, err := l.lowerExpr(operand)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		return out, nil

	case *ast.Conversion:
		return l.lowerExpr(x.Operand)

	case *ast.UnaryOp:
		return l.lowerUnary(x)

	case *ast.BinaryOp:
		return l.lowerBinary(x)

	case *ast.ConditionalOp:
		return l.lowerConditional(x)

	default:
		return nil, &UnsupportedError{Kind: "expression"}
	}
}

func (l *lowering) newGate(op signal.GateOp, inputs ...signal.Handle) signal.Handle {
	name := fmt.Sprintf("__%s%d", op, l.counter)
	l.counter++
	return l.mod.AddGate(name, op, inputs...)
}

func (l *lowering) lowerUnary(x *ast.UnaryOp) (bits, error) {
	operand, err := l.lowerExpr(x.Operand)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "~":
		out := make(bits, len(operand))
		for i, b := range operand {
			out[i] = l.newGate(signal.GateNot, b)
		}
		return out, nil
	case "!":
		return bits{l.newGate(signal.GateNot, l.reduce(signal.GateOr, operand))}, nil
	case "&":
		return bits{l.reduce(signal.GateAnd, operand)}, nil
	case "|":
		return bits{l.reduce(signal.GateOr, operand)}, nil
	case "^":
		return bits{l.reduce(signal.GateXor, operand)}, nil
	default:
		return nil, &UnsupportedError{Kind: fmt.Sprintf("unary operator %q", x.Op)}
	}
}

// reduce folds a list of bits into a single n-ary gate output, per spec.md
// §3's AND/OR/XOR gates being n-ary rather than strictly binary.
func (l *lowering) reduce(op signal.GateOp, operands bits) signal.Handle {
	return l.newGate(op, operands...)
}

func (l *lowering) lowerBinary(x *ast.BinaryOp) (bits, error) {
	left, err := l.lowerExpr(x.Left)
	if err != nil {
		return nil, err
	}
	right, err := l.lowerExpr(x.Right)
	if err != nil {
		return nil, err
	}
	if len(left) != len(right) {
		return nil, &UnsupportedError{Kind: "binary op with mismatched widths"}
	}
	var op signal.GateOp
	switch x.Op {
	case "&":
		op = signal.GateAnd
	case "|":
		op = signal.GateOr
	case "^":
		op = signal.GateXor
	default:
		return nil, &UnsupportedError{Kind: fmt.Sprintf("binary operator %q", x.Op)}
	}
	out := make(bits, len(left))
	for i := range left {
		out[i] = l.newGate(op, left[i], right[i])
	}
	return out, nil
}

func (l *lowering) lowerConditional(x *ast.ConditionalOp) (bits, error) {
	pred, err := l.lowerExpr(x.Pred)
	if err != nil {
		return nil, err
	}
	if len(pred) != 1 {
		return nil, &UnsupportedError{Kind: "conditional predicate wider than one bit"}
	}
	left, err := l.lowerExpr(x.Left)
	if err != nil {
		return nil, err
	}
	right, err := l.lowerExpr(x.Right)
	if err != nil {
		return nil, err
	}
	if len(left) != len(right) {
		return nil, &UnsupportedError{Kind: "conditional op with mismatched widths"}
	}
	out := make(bits, len(left))
	for i := range left {
		out[i] = l.newGate(signal.GateCond, pred[0], left[i], right[i])
	}
	return out, nil
}
