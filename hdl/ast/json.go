package ast

import (
	"encoding/json"
	"fmt"
)

// DecodeModule decodes a JSON-encoded elaborated netlist into a Module.
// The encoding is a plain discriminated-union shape (a "kind" string field
// naming the concrete Expr/Stmt/Item variant) since Go's interfaces give
// encoding/json nothing to dispatch on by itself; this is the thin
// machine-readable counterpart to whatever upstream tool already produced
// the elaborated AST per spec.md §1 -- it never tokenises or parses HDL
// text itself.
func DecodeModule(data []byte) (*Module, error) {
	var raw struct {
		Name  string            `json:"name"`
		Ports []*Port           `json:"ports"`
		Nets  []*Net            `json:"nets"`
		Vars  []*Variable       `json:"vars"`
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ast: decoding module: %w", err)
	}

	m := &Module{Name: raw.Name, Ports: raw.Ports, Nets: raw.Nets, Vars: raw.Vars}
	for i, item := range raw.Items {
		decoded, err := decodeItem(item)
		if err != nil {
			return nil, fmt.Errorf("ast: decoding item %d: %w", i, err)
		}
		m.Items = append(m.Items, decoded)
	}
	return m, nil
}

func kindOf(data []byte) (string, error) {
	var k struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &k); err != nil {
		return "", err
	}
	if k.Kind == "" {
		return "", fmt.Errorf("missing \"kind\" discriminator")
	}
	return k.Kind, nil
}

func decodeItem(data []byte) (Item, error) {
	kind, err := kindOf(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "continuous_assign":
		var v struct {
			LHS json.RawMessage `json:"lhs"`
			RHS json.RawMessage `json:"rhs"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		lhs, err := decodeExpr(v.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeExpr(v.RHS)
		if err != nil {
			return nil, err
		}
		return &ContinuousAssign{LHS: lhs, RHS: rhs}, nil

	case "procedural_block":
		var v struct {
			Body json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		body, err := decodeStmt(v.Body)
		if err != nil {
			return nil, err
		}
		return &ProceduralBlock{Kind: ProcAlways, Body: body}, nil

	default:
		return nil, fmt.Errorf("ast: unknown item kind %q", kind)
	}
}

func decodeStmt(data []byte) (Stmt, error) {
	kind, err := kindOf(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "timed":
		var v struct {
			Events []Timing        `json:"events"`
			Body   json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		body, err := decodeStmt(v.Body)
		if err != nil {
			return nil, err
		}
		return &Timed{Events: v.Events, Body: body}, nil

	case "conditional":
		var v struct {
			Cond    json.RawMessage `json:"cond"`
			IfTrue  json.RawMessage `json:"if_true"`
			IfFalse json.RawMessage `json:"if_false"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(v.Cond)
		if err != nil {
			return nil, err
		}
		ifTrue, err := decodeStmt(v.IfTrue)
		if err != nil {
			return nil, err
		}
		var ifFalse Stmt
		if len(v.IfFalse) > 0 {
			ifFalse, err = decodeStmt(v.IfFalse)
			if err != nil {
				return nil, err
			}
		}
		return &Conditional{Cond: cond, IfTrue: ifTrue, IfFalse: ifFalse}, nil

	case "expr_stmt":
		var v struct {
			Expr json.RawMessage `json:"expr"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		e, err := decodeExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Expr: e}, nil

	case "block":
		var v struct {
			Stmts []json.RawMessage `json:"stmts"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		block := &Block{}
		for i, s := range v.Stmts {
			decoded, err := decodeStmt(s)
			if err != nil {
				return nil, fmt.Errorf("stmt %d: %w", i, err)
			}
			block.Stmts = append(block.Stmts, decoded)
		}
		return block, nil

	default:
		return nil, fmt.Errorf("ast: unknown statement kind %q", kind)
	}
}

func decodeExpr(data []byte) (Expr, error) {
	if len(data) == 0 {
		return nil, nil
	}
	kind, err := kindOf(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "assignment":
		var v struct {
			LHS json.RawMessage `json:"lhs"`
			RHS json.RawMessage `json:"rhs"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		lhs, err := decodeExpr(v.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeExpr(v.RHS)
		if err != nil {
			return nil, err
		}
		return &Assignment{LHS: lhs, RHS: rhs}, nil

	case "named_value":
		var v struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &NamedValue{Name: v.Name}, nil

	case "integer_literal":
		var v struct {
			Value uint64 `json:"value"`
			Width int    `json:"width"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &IntegerLiteral{Value: v.Value, Width: v.Width}, nil

	case "element_select":
		var v struct {
			Value json.RawMessage `json:"value"`
			Index int             `json:"index"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		val, err := decodeExpr(v.Value)
		if err != nil {
			return nil, err
		}
		return &ElementSelect{Value: val, Index: v.Index}, nil

	case "range_select":
		var v struct {
			Value json.RawMessage `json:"value"`
			Left  int             `json:"left"`
			Right int             `json:"right"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		val, err := decodeExpr(v.Value)
		if err != nil {
			return nil, err
		}
		return &RangeSelect{Value: val, Left: v.Left, Right: v.Right}, nil

	case "concatenation":
		var v struct {
			Operands []json.RawMessage `json:"operands"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		c := &Concatenation{}
		for i, op := range v.Operands {
			decoded, err := decodeExpr(op)
			if err != nil {
				return nil, fmt.Errorf("operand %d: %w", i, err)
			}
			c.Operands = append(c.Operands, decoded)
		}
		return c, nil

	case "conversion":
		var v struct {
			Operand json.RawMessage `json:"operand"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		operand, err := decodeExpr(v.Operand)
		if err != nil {
			return nil, err
		}
		return &Conversion{Operand: operand}, nil

	case "unary_op":
		var v struct {
			Op      string          `json:"op"`
			Operand json.RawMessage `json:"operand"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		operand, err := decodeExpr(v.Operand)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: v.Op, Operand: operand}, nil

	case "binary_op":
		var v struct {
			Op    string          `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		left, err := decodeExpr(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(v.Right)
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: v.Op, Left: left, Right: right}, nil

	case "conditional_op":
		var v struct {
			Pred  json.RawMessage `json:"pred"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		pred, err := decodeExpr(v.Pred)
		if err != nil {
			return nil, err
		}
		left, err := decodeExpr(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(v.Right)
		if err != nil {
			return nil, err
		}
		return &ConditionalOp{Pred: pred, Left: left, Right: right}, nil

	default:
		return nil, fmt.Errorf("ast: unknown expression kind %q", kind)
	}
}
