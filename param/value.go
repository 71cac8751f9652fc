// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package param

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/openxosc/xosc-core/expr"
	"github.com/openxosc/xosc-core/validation/name"
)

// Kind says how a Value is resolved.
type Kind int

const (
	// KindLiteral values are used as-is.
	KindLiteral Kind = iota
	// KindParameter values name a parameter ($name).
	KindParameter
	// KindExpression values hold ${...} expression text.
	KindExpression
)

// String returns a readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindParameter:
		return "parameter"
	case KindExpression:
		return "expression"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is an attribute value that is either a literal T, a reference to a
// parameter, or an expression. The zero Value is the literal zero of T.
type Value[T expr.Scalar] struct {
	kind    Kind
	literal T
	text    string
}

// Literal returns a Value holding v.
func Literal[T expr.Scalar](v T) Value[T] {
	return Value[T]{kind: KindLiteral, literal: v}
}

// Ref returns a Value referring to the parameter called name.
func Ref[T expr.Scalar](name string) Value[T] {
	return Value[T]{kind: KindParameter, text: name}
}

// Expr returns a Value holding expression text, typically of the form ${...}.
func Expr[T expr.Scalar](text string) Value[T] {
	return Value[T]{kind: KindExpression, text: text}
}

// Kind reports how the value is resolved.
func (v Value[T]) Kind() Kind {
	return v.kind
}

// IsLiteral reports whether the value needs no resolution.
func (v Value[T]) IsLiteral() bool {
	return v.kind == KindLiteral
}

// Get returns the literal and true for literal values.
func (v Value[T]) Get() (T, bool) {
	return v.literal, v.kind == KindLiteral
}

// Text returns the parameter name or expression text. It is empty for literals.
func (v Value[T]) Text() string {
	return v.text
}

// String renders the value the way it appears in a document.
func (v Value[T]) String() string {
	switch v.kind {
	case KindParameter:
		return "$" + v.text
	case KindExpression:
		return v.text
	default:
		return FormatScalar(v.literal)
	}
}

// ParseValue classifies attribute text: text containing a ${name} span or
// starting with "${" is an expression, "$name" a parameter reference, anything
// else a literal parsed as T.
func ParseValue[T expr.Scalar](raw string) (Value[T], error) {
	switch {
	case spanPattern.MatchString(raw):
		return Expr[T](raw), nil
	case strings.HasPrefix(raw, "${"):
		if !strings.HasSuffix(raw, "}") {
			return Value[T]{}, newError(ErrTypeMismatch, "", raw, "unterminated expression")
		}
		return Expr[T](raw), nil
	case strings.HasPrefix(raw, "$"):
		ref := raw[1:]
		if err := name.ValidateParameter(ref); err != nil {
			return Value[T]{}, newError(ErrInvalidName, ref, raw, err.Error())
		}
		return Ref[T](ref), nil
	}

	lit, err := ParseScalar[T](raw)
	if err != nil {
		return Value[T]{}, newError(ErrTypeMismatch, "", raw, err.Error())
	}
	return Literal(lit), nil
}

// UnmarshalXMLAttr implements xml.UnmarshalerAttr.
func (v *Value[T]) UnmarshalXMLAttr(attr xml.Attr) error {
	parsed, err := ParseValue[T](attr.Value)
	if err != nil {
		return fmt.Errorf("attribute %s: %w", attr.Name.Local, err)
	}
	*v = parsed
	return nil
}

// ParseScalar parses text as T. Booleans accept true/false and 1/0.
func ParseScalar[T expr.Scalar](s string) (T, error) {
	var out T
	raw := s
	s = strings.TrimSpace(s)

	var (
		v   any
		err error
	)
	switch any(out).(type) {
	case string:
		v = raw
	case bool:
		v, err = strconv.ParseBool(s)
	case float64:
		v, err = strconv.ParseFloat(s, 64)
	case float32:
		var f float64
		f, err = strconv.ParseFloat(s, 32)
		v = float32(f)
	case int:
		var n int64
		n, err = strconv.ParseInt(s, 10, strconv.IntSize)
		v = int(n)
	case int8:
		var n int64
		n, err = strconv.ParseInt(s, 10, 8)
		v = int8(n)
	case int16:
		var n int64
		n, err = strconv.ParseInt(s, 10, 16)
		v = int16(n)
	case int32:
		var n int64
		n, err = strconv.ParseInt(s, 10, 32)
		v = int32(n)
	case int64:
		v, err = strconv.ParseInt(s, 10, 64)
	case uint:
		var n uint64
		n, err = strconv.ParseUint(s, 10, strconv.IntSize)
		v = uint(n)
	case uint8:
		var n uint64
		n, err = strconv.ParseUint(s, 10, 8)
		v = uint8(n)
	case uint16:
		var n uint64
		n, err = strconv.ParseUint(s, 10, 16)
		v = uint16(n)
	case uint32:
		var n uint64
		n, err = strconv.ParseUint(s, 10, 32)
		v = uint32(n)
	case uint64:
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return out, fmt.Errorf("cannot parse %q as %T", s, out)
	}
	return v.(T), nil
}

// FormatScalar renders v in the form ParseScalar accepts.
func FormatScalar[T expr.Scalar](v T) string {
	switch x := any(v).(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}
