package hdl

import (
	"fmt"

	"github.com/nexusfab/nexus/hdl/ast"
	"github.com/nexusfab/nexus/signal"
)

// lowerAlways implements spec.md §4.1's single recognised process shape:
//
//	always @(posedge clk, posedge rst) if (rst) lhs <= rst_val; else lhs <= d;
//
// The Timed statement's event list becomes the positive-edge trigger set;
// the Conditional's predicate names the reset signal; of the two
// triggers, the one matching the predicate is the reset and the other is
// the clock. Each LHS bit assigned in both branches becomes a Flop with
// clock, reset, the true-branch RHS bit as its reset value selector, and
// the false-branch RHS bit as its data input.
func (l *lowering) lowerAlways(body ast.Stmt) error {
	timed, ok := body.(*ast.Timed)
	if !ok {
		return &UnsupportedError{Kind: "process body without a sensitivity list"}
	}
	if len(timed.Events) != 2 {
		return &UnsupportedError{Kind: "process sensitivity list (expected exactly clk and rst)"}
	}
	for _, ev := range timed.Events {
		if ev.Edge != ast.PosEdge {
			return &UnsupportedError{Kind: "non-posedge sensitivity event"}
		}
	}

	cond, ok := timed.Body.(*ast.Conditional)
	if !ok {
		return &UnsupportedError{Kind: "process body without an if/else reset check"}
	}
	predName, ok := cond.Cond.(*ast.NamedValue)
	if !ok {
		return &UnsupportedError{Kind: "reset predicate that isn't a bare signal name"}
	}

	resetName := predName.Name
	clockName := ""
	for _, ev := range timed.Events {
		if ev.Signal == resetName {
			continue
		}
		clockName = ev.Signal
	}
	if clockName == "" {
		return &UnsupportedError{Kind: "sensitivity list missing a distinct clock signal"}
	}
	clockBits, err := l.lowerExpr(&ast.NamedValue{Name: clockName})
	if err != nil {
		return err
	}
	resetBits, err := l.lowerExpr(&ast.NamedValue{Name: resetName})
	if err != nil {
		return err
	}
	if len(clockBits) != 1 || len(resetBits) != 1 {
		return &UnsupportedError{Kind: "multi-bit clock or reset signal"}
	}
	clock, reset := clockBits[0], resetBits[0]

	trueAssigns, err := collectAssigns(cond.IfTrue)
	if err != nil {
		return err
	}
	falseAssigns, err := collectAssigns(cond.IfFalse)
	if err != nil {
		return err
	}

	for name, rstExpr := range trueAssigns {
		dataExpr, ok := falseAssigns[name]
		if !ok {
			return &UnsupportedError{Kind: fmt.Sprintf("signal %q assigned only in the reset branch", name)}
		}
		if err := l.lowerFlopAssign(name, rstExpr, dataExpr, clock, reset); err != nil {
			return err
		}
	}
	for name := range falseAssigns {
		if _, ok := trueAssigns[name]; !ok {
			return &UnsupportedError{Kind: fmt.Sprintf("signal %q assigned only in the data branch", name)}
		}
	}

	return nil
}

// collectAssigns walks a branch's statement tree and returns its
// top-level non-blocking assignments keyed by LHS name.
func collectAssigns(s ast.Stmt) (map[string]ast.Expr, error) {
	out := make(map[string]ast.Expr)
	var walk func(ast.Stmt) error
	walk = func(s ast.Stmt) error {
		switch st := s.(type) {
		case *ast.Block:
			for _, inner := range st.Stmts {
				if err := walk(inner); err != nil {
					return err
				}
			}
		case *ast.ExprStmt:
			asn, ok := st.Expr.(*ast.Assignment)
			if !ok {
				return &UnsupportedError{Kind: "process statement that isn't an assignment"}
			}
			name, ok := asn.LHS.(*ast.NamedValue)
			if !ok {
				return &UnsupportedError{Kind: "flop assignment with a non-scalar-name LHS"}
			}
			out[name.Name] = asn.RHS
		default:
			return &UnsupportedError{Kind: "process statement"}
		}
		return nil
	}
	if err := walk(s); err != nil {
		return nil, err
	}
	return out, nil
}

// lowerFlopAssign builds the Flop signals for one variable (scalar or
// packed-range), wiring each bit's reset value and data input.
func (l *lowering) lowerFlopAssign(name string, rstExpr, dataExpr ast.Expr, clock, reset signal.Handle) error {
	t, ok := l.varTypes[name]
	if !ok {
		return &UnsupportedError{Kind: fmt.Sprintf("flop assignment to undeclared variable %q", name)}
	}

	rstBits, err := l.lowerExpr(rstExpr)
	if err != nil {
		return err
	}
	dataBits, err := l.lowerExpr(dataExpr)
	if err != nil {
		return err
	}
	width := t.Width()
	if len(rstBits) != width || len(dataBits) != width {
		return &UnsupportedError{Kind: fmt.Sprintf("flop %q reset/data value width mismatch", name)}
	}

	b := make(bits, width)
	for i := 0; i < width; i++ {
		flopName := name
		if !t.Scalar() {
			flopName = bitName(name, i)
		}
		// The flop's own reset-value selection is expressed as a COND
		// gate feeding its data input: COND(reset, rst_val, d). This
		// keeps Flop itself a plain "one data input" signal per spec.md
		// §3 while still giving the reset value a place in the graph
		// that the optimiser's constant-propagation pass can fold.
		selName := fmt.Sprintf("__rstsel_%s_%d", name, i)
		sel := l.mod.AddGate(selName, signal.GateCond, reset, rstBits[i], dataBits[i])
		b[i] = l.mod.AddFlop(flopName, sel, clock, reset)
	}
	l.expansion[name] = b
	return nil
}
