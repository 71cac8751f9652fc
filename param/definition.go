// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package param

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type is a declared parameter type.
type Type string

// Supported parameter types.
const (
	TypeDouble        Type = "double"
	TypeInteger       Type = "integer"
	TypeUnsignedInt   Type = "unsignedInt"
	TypeUnsignedShort Type = "unsignedShort"
	TypeBoolean       Type = "boolean"
	TypeString        Type = "string"
	TypeDateTime      Type = "dateTime"
)

// Known reports whether t is a supported type.
func (t Type) Known() bool {
	switch t {
	case TypeDouble, TypeInteger, TypeUnsignedInt, TypeUnsignedShort, TypeBoolean, TypeString, TypeDateTime:
		return true
	}
	return false
}

// Parse converts raw to the Go value used for constraint evaluation:
// float64, int64, uint64, bool, string or time.Time.
func (t Type) Parse(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	switch t {
	case TypeString:
		return raw, nil
	case TypeDouble:
		return strconv.ParseFloat(s, 64)
	case TypeInteger:
		return strconv.ParseInt(s, 10, 32)
	case TypeUnsignedInt:
		return strconv.ParseUint(s, 10, 32)
	case TypeUnsignedShort:
		return strconv.ParseUint(s, 10, 16)
	case TypeBoolean:
		return strconv.ParseBool(s)
	case TypeDateTime:
		return time.Parse(time.RFC3339, s)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
}

// Definition declares a parameter. It is used for validation only: values
// are always stored as text in an Engine.
type Definition struct {
	Name        string
	Type        Type
	Default     string
	Description string
	// Constraint is an optional CEL expression over `value` and `params`.
	Constraint string
}
