// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package expr

import (
	"fmt"
	"math"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultMaxExpressionLength is the maximum accepted expression length in bytes.
	DefaultMaxExpressionLength = 4096

	// DefaultCacheSize is the number of compiled expressions kept by an Engine.
	DefaultCacheSize = 256
)

// Engine compiles and evaluates expressions. Compiled trees are memoized by
// source text. It is safe for concurrent use from multiple goroutines.
type Engine struct {
	compiled            *lru.Cache[string, *Expression]
	maxExpressionLength int
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	cacheSize int
	maxLen    int
}

// WithCacheSize sets how many compiled expressions are memoized.
// A size of zero or less disables memoization.
func WithCacheSize(n int) Option {
	return func(c *engineConfig) {
		c.cacheSize = n
	}
}

// WithMaxExpressionLength sets the maximum accepted expression length.
// Negative lengths are treated as zero, which rejects every non-empty source.
func WithMaxExpressionLength(n int) Option {
	return func(c *engineConfig) {
		c.maxLen = n
	}
}

// NewEngine creates an expression engine.
func NewEngine(opts ...Option) *Engine {
	cfg := &engineConfig{
		cacheSize: DefaultCacheSize,
		maxLen:    DefaultMaxExpressionLength,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	e := &Engine{maxExpressionLength: max(cfg.maxLen, 0)}
	if cfg.cacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		e.compiled, _ = lru.New[string, *Expression](cfg.cacheSize)
	}
	return e
}

// Expression is a compiled expression ready for evaluation. It holds no
// parameter values and may be evaluated concurrently.
type Expression struct {
	source string
	root   Node
}

// Source returns the original expression text.
func (x *Expression) Source() string {
	return x.source
}

// Root returns the parsed tree.
func (x *Expression) Root() Node {
	return x.root
}

// Evaluate computes the expression using params for parameter references.
func (x *Expression) Evaluate(params map[string]string) (float64, error) {
	return x.root.eval(&scope{source: x.source, params: params})
}

// Compile parses src, reusing a previously compiled tree when available.
func (e *Engine) Compile(src string) (*Expression, error) {
	if len(src) > e.maxExpressionLength {
		return nil, newError(ErrSyntax, src[:e.maxExpressionLength], -1,
			"expression length %d exceeds maximum of %d", len(src), e.maxExpressionLength)
	}

	if e.compiled != nil {
		if x, ok := e.compiled.Get(src); ok {
			return x, nil
		}
	}

	root, err := Parse(src)
	if err != nil {
		return nil, err
	}

	x := &Expression{source: src, root: root}
	if e.compiled != nil {
		e.compiled.Add(src, x)
	}
	return x, nil
}

// Evaluate compiles and evaluates src in one step.
func (e *Engine) Evaluate(src string, params map[string]string) (float64, error) {
	x, err := e.Compile(src)
	if err != nil {
		return 0, err
	}
	return x.Evaluate(params)
}

// Scalar lists the types an expression result can be converted to.
type Scalar interface {
	float64 | float32 | int | int8 | int16 | int32 | int64 |
		uint | uint8 | uint16 | uint32 | uint64 | string | bool
}

// EvaluateAs evaluates src and converts the result to T.
//
// Integer targets require an integral result within range; a fractional
// result is an ErrConversion rather than a truncation. Boolean targets accept
// exactly 1 and 0, which is what comparisons produce.
func EvaluateAs[T Scalar](e *Engine, src string, params map[string]string) (T, error) {
	var zero T
	v, err := e.Evaluate(src, params)
	if err != nil {
		return zero, err
	}
	out, err := Convert[T](v)
	if err != nil {
		return zero, &Error{Source: src, Position: -1, Msg: err.Error(), err: ErrConversion}
	}
	return out, nil
}

// Convert converts a float64 to T following the rules of EvaluateAs.
func Convert[T Scalar](v float64) (T, error) {
	var out T
	switch any(out).(type) {
	case float64:
		return any(v).(T), nil
	case float32:
		if !math.IsInf(v, 0) && math.Abs(v) > math.MaxFloat32 {
			return out, fmt.Errorf("%s overflows float32", formatFloat(v))
		}
		return any(float32(v)).(T), nil
	case string:
		return any(formatFloat(v)).(T), nil
	case bool:
		switch v {
		case 1:
			return any(true).(T), nil
		case 0:
			return any(false).(T), nil
		}
		return out, fmt.Errorf("%s is not a boolean (expected 1 or 0)", formatFloat(v))
	}

	if math.IsNaN(v) || math.IsInf(v, 0) || math.Trunc(v) != v {
		return out, fmt.Errorf("%s is not an integer", formatFloat(v))
	}
	// Integers are parsed from their exact decimal form so range checks come
	// from strconv.
	text := strconv.FormatFloat(v, 'f', 0, 64)
	switch any(out).(type) {
	case int:
		n, err := strconv.ParseInt(text, 10, strconv.IntSize)
		return any(int(n)).(T), rangeErr(err, text, "int")
	case int8:
		n, err := strconv.ParseInt(text, 10, 8)
		return any(int8(n)).(T), rangeErr(err, text, "int8")
	case int16:
		n, err := strconv.ParseInt(text, 10, 16)
		return any(int16(n)).(T), rangeErr(err, text, "int16")
	case int32:
		n, err := strconv.ParseInt(text, 10, 32)
		return any(int32(n)).(T), rangeErr(err, text, "int32")
	case int64:
		n, err := strconv.ParseInt(text, 10, 64)
		return any(n).(T), rangeErr(err, text, "int64")
	case uint:
		n, err := strconv.ParseUint(text, 10, strconv.IntSize)
		return any(uint(n)).(T), rangeErr(err, text, "uint")
	case uint8:
		n, err := strconv.ParseUint(text, 10, 8)
		return any(uint8(n)).(T), rangeErr(err, text, "uint8")
	case uint16:
		n, err := strconv.ParseUint(text, 10, 16)
		return any(uint16(n)).(T), rangeErr(err, text, "uint16")
	case uint32:
		n, err := strconv.ParseUint(text, 10, 32)
		return any(uint32(n)).(T), rangeErr(err, text, "uint32")
	case uint64:
		n, err := strconv.ParseUint(text, 10, 64)
		return any(n).(T), rangeErr(err, text, "uint64")
	}
	return out, fmt.Errorf("unsupported target type %T", out)
}

func rangeErr(err error, text, typ string) error {
	if err != nil {
		return fmt.Errorf("%s does not fit in %s", text, typ)
	}
	return nil
}
