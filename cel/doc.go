// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package cel evaluates CEL constraints attached to parameter declarations.

A parameter declaration may carry a constraint restricting the values the
parameter accepts. Constraints are CEL expressions returning bool, evaluated
with two variables in scope:

  - value: the candidate value, already converted to the declared type
    (double, int, uint, bool or string)
  - params: every parameter currently in scope, keyed by name

# Basic Usage

	engine := cel.NewEngine()

	c, err := engine.Compile(`value >= 0.0 && value <= 70.0`)
	if err != nil {
	    // handle compilation error
	}

	ok, err := c.Satisfied(42.0, nil)
	// ok == true

# Validation

Use Check to validate a constraint when a declaration is registered:

	if err := engine.Check(`value > `); err != nil {
	    // constraint is invalid
	}

# Error Handling

Compilation errors are returned as structured types with location information:

	_, err := engine.Compile(`value >`)
	var parseErr *cel.ParseError
	if errors.As(err, &parseErr) {
	    fmt.Println(parseErr.Errors) // line/column/message details
	}

	_, err = engine.Compile(`speed > 3`)
	var checkErr *cel.CheckError
	if errors.As(err, &checkErr) {
	    fmt.Println(checkErr.AsJSON())
	}

# DoS Protection

Catalog files are untrusted input, so constraints are bounded:

	engine := cel.NewEngine().
	    WithMaxExpressionLength(512).
	    WithCostLimit(10000)

# Concurrency

The Engine and Constraint types are safe for concurrent use. Compiled
constraints are memoized by source.
*/
package cel
