// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package expr implements the arithmetic expression language used in scenario
and catalog attribute values.

An expression evaluates to a float64. Comparisons yield exactly 1 or 0.
Parameters are referenced as $name or ${name} and are looked up in a
map[string]string supplied at evaluation time; the values true and false are
read as 1 and 0.

# Basic Usage

	engine := expr.NewEngine()

	v, err := engine.Evaluate("${Speed} * 2 + max(1, 3)", map[string]string{"Speed": "10"})
	// v == 23

	n, err := expr.EvaluateAs[int](engine, "(2 + 3) * 4", nil)
	// n == 20

An expression wrapped whole in ${ ... }, the form used in attribute values,
is unwrapped before parsing:

	v, err := engine.Evaluate("${$Speed / 3.6}", params)

# Built-ins

Functions: sin, cos, tan, abs, floor, ceil, sqrt (one argument) and min, max
(two arguments). Constants: PI and E.

# Error Handling

Every failure is an *Error carrying the source and offset, wrapping one of
the sentinel errors:

	_, err := engine.Evaluate("5 % 0", nil)
	errors.Is(err, expr.ErrDivisionByZero) // true

	var exprErr *expr.Error
	if errors.As(err, &exprErr) {
		fmt.Println(exprErr.Position)
	}

# Concurrency

Engine and Expression are safe for concurrent use. Compiled trees are kept in
a bounded LRU keyed by source text.
*/
package expr
