// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package expr

import (
	"errors"
	"fmt"
)

// Sentinel errors for expression operations.
var (
	// ErrSyntax is returned when an expression contains a malformed token or
	// does not follow the grammar.
	ErrSyntax = errors.New("expression syntax error")

	// ErrUnknownParameter is returned when an expression references a parameter
	// that is not present in the evaluation context.
	ErrUnknownParameter = errors.New("unknown parameter")

	// ErrUnknownFunction is returned when an expression calls a function that
	// is not built in.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrUnknownConstant is returned for bare identifiers other than PI and E.
	ErrUnknownConstant = errors.New("unknown constant")

	// ErrArity is returned when a function is called with the wrong number of arguments.
	ErrArity = errors.New("wrong number of arguments")

	// ErrDomain is returned when a function argument is outside the function's domain.
	ErrDomain = errors.New("argument outside function domain")

	// ErrDivisionByZero is returned for division or modulo by zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrConversion is returned when a result cannot be represented in the requested type.
	ErrConversion = errors.New("cannot convert expression result")
)

// Error describes a failure to tokenize, parse or evaluate an expression.
type Error struct {
	// Source is the expression text as given to the engine.
	Source string
	// Position is the byte offset of the offending token, or -1 when the
	// failure is not tied to a position.
	Position int
	// Msg is a human readable detail.
	Msg string

	err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("expression %q at offset %d: %s: %s", e.Source, e.Position, e.err, e.Msg)
	}
	return fmt.Sprintf("expression %q: %s: %s", e.Source, e.err, e.Msg)
}

// Unwrap returns the sentinel describing the failure class.
func (e *Error) Unwrap() error {
	return e.err
}

func newError(sentinel error, source string, pos int, format string, args ...any) *Error {
	return &Error{
		Source:   source,
		Position: pos,
		Msg:      fmt.Sprintf(format, args...),
		err:      sentinel,
	}
}
