// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Node is an element of a parsed expression tree.
type Node interface {
	// String renders the node back to canonical expression text.
	String() string

	eval(sc *scope) (float64, error)
}

// scope carries what a tree walk needs: the source for error reporting and
// the parameter values.
type scope struct {
	source string
	params map[string]string
}

// NumberNode is a numeric literal or a resolved constant.
type NumberNode struct {
	Value float64
	Pos   int
}

func (n *NumberNode) String() string { return formatFloat(n.Value) }

func (n *NumberNode) eval(*scope) (float64, error) { return n.Value, nil }

// ParameterNode is a $name or ${name} reference.
type ParameterNode struct {
	Name string
	Pos  int
}

func (n *ParameterNode) String() string { return "${" + n.Name + "}" }

func (n *ParameterNode) eval(sc *scope) (float64, error) {
	raw, ok := sc.params[n.Name]
	if !ok {
		return 0, newError(ErrUnknownParameter, sc.source, n.Pos, "parameter %q is not defined", n.Name)
	}
	v, err := parseNumeric(raw)
	if err != nil {
		return 0, newError(ErrConversion, sc.source, n.Pos, "parameter %q value %q is not numeric", n.Name, raw)
	}
	return v, nil
}

// UnaryNode is a negation.
type UnaryNode struct {
	Operand Node
	Pos     int
}

func (n *UnaryNode) String() string { return "(-" + n.Operand.String() + ")" }

func (n *UnaryNode) eval(sc *scope) (float64, error) {
	v, err := n.Operand.eval(sc)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

// BinaryNode applies an arithmetic or comparison operator.
type BinaryNode struct {
	Op    TokenType
	Left  Node
	Right Node
	Pos   int
}

var operatorText = map[TokenType]string{
	TokenPlus:    "+",
	TokenMinus:   "-",
	TokenStar:    "*",
	TokenSlash:   "/",
	TokenPercent: "%",
	TokenGt:      ">",
	TokenLt:      "<",
	TokenGe:      ">=",
	TokenLe:      "<=",
	TokenEq:      "==",
	TokenNe:      "!=",
}

func (n *BinaryNode) String() string {
	return "(" + n.Left.String() + " " + operatorText[n.Op] + " " + n.Right.String() + ")"
}

func (n *BinaryNode) eval(sc *scope) (float64, error) {
	l, err := n.Left.eval(sc)
	if err != nil {
		return 0, err
	}
	r, err := n.Right.eval(sc)
	if err != nil {
		return 0, err
	}

	switch n.Op {
	case TokenPlus:
		return l + r, nil
	case TokenMinus:
		return l - r, nil
	case TokenStar:
		return l * r, nil
	case TokenSlash:
		if r == 0 {
			return 0, newError(ErrDivisionByZero, sc.source, n.Pos, "division of %s by zero", formatFloat(l))
		}
		return l / r, nil
	case TokenPercent:
		if r == 0 {
			return 0, newError(ErrDivisionByZero, sc.source, n.Pos, "modulo of %s by zero", formatFloat(l))
		}
		return math.Mod(l, r), nil
	case TokenGt:
		return truth(l > r), nil
	case TokenLt:
		return truth(l < r), nil
	case TokenGe:
		return truth(l >= r), nil
	case TokenLe:
		return truth(l <= r), nil
	case TokenEq:
		return truth(l == r), nil
	case TokenNe:
		return truth(l != r), nil
	}
	return 0, newError(ErrSyntax, sc.source, n.Pos, "unsupported operator %s", n.Op)
}

// CallNode is a call to a built-in function.
type CallNode struct {
	Name string
	Args []Node
	Pos  int
}

func (n *CallNode) String() string {
	args := make([]string, 0, len(n.Args))
	for _, a := range n.Args {
		args = append(args, a.String())
	}
	return n.Name + "(" + strings.Join(args, ", ") + ")"
}

func (n *CallNode) eval(sc *scope) (float64, error) {
	fn, ok := builtins[n.Name]
	if !ok {
		return 0, newError(ErrUnknownFunction, sc.source, n.Pos, "function %q is not defined", n.Name)
	}
	if len(n.Args) != fn.arity {
		return 0, newError(ErrArity, sc.source, n.Pos, "%s expects %d argument(s), got %d", n.Name, fn.arity, len(n.Args))
	}

	args := make([]float64, len(n.Args))
	for i, a := range n.Args {
		v, err := a.eval(sc)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}

	v, err := fn.apply(args)
	if err != nil {
		return 0, newError(ErrDomain, sc.source, n.Pos, "%s: %s", n.Name, err)
	}
	return v, nil
}

type builtin struct {
	arity int
	apply func(args []float64) (float64, error)
}

func unary(f func(float64) float64) builtin {
	return builtin{arity: 1, apply: func(a []float64) (float64, error) { return f(a[0]), nil }}
}

var builtins = map[string]builtin{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"abs":   unary(math.Abs),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"sqrt": {arity: 1, apply: func(a []float64) (float64, error) {
		if a[0] < 0 {
			return 0, fmt.Errorf("negative argument %s", formatFloat(a[0]))
		}
		return math.Sqrt(a[0]), nil
	}},
	"min": {arity: 2, apply: func(a []float64) (float64, error) { return math.Min(a[0], a[1]), nil }},
	"max": {arity: 2, apply: func(a []float64) (float64, error) { return math.Max(a[0], a[1]), nil }},
}

var constants = map[string]float64{
	"PI": math.Pi,
	"E":  math.E,
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// parseNumeric accepts numbers and the boolean words true/false.
func parseNumeric(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	switch s {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
