// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package param

import (
	"errors"
	"fmt"
)

// Sentinel errors for parameter operations.
var (
	// ErrMissingParameter is returned when a referenced parameter has no value
	// in the active context. Missing parameters are never defaulted.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrTypeMismatch is returned when a value does not parse as the requested
	// or declared type.
	ErrTypeMismatch = errors.New("parameter type mismatch")

	// ErrConstraint is returned when a value violates its declaration's constraint.
	ErrConstraint = errors.New("parameter constraint violated")

	// ErrInvalidName is returned for names that are not valid parameter identifiers.
	ErrInvalidName = errors.New("invalid parameter name")

	// ErrUnknownType is returned for declarations with an unsupported parameter type.
	ErrUnknownType = errors.New("unknown parameter type")
)

// Error describes a failure involving a single parameter.
type Error struct {
	// Name is the parameter name, if known.
	Name string
	// Value is the offending value or text, if any.
	Value string
	// Msg is an optional detail.
	Msg string

	err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("parameter %q: %s", e.Name, e.err)
	if e.Value != "" {
		msg += fmt.Sprintf(" (value %q)", e.Value)
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	return msg
}

// Unwrap returns the sentinel describing the failure class.
func (e *Error) Unwrap() error {
	return e.err
}

func newError(sentinel error, name, value, msg string) *Error {
	return &Error{Name: name, Value: value, Msg: msg, err: sentinel}
}
