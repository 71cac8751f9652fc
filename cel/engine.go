// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

// Package cel evaluates CEL constraints attached to parameter declarations.
package cel

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

const (
	// DefaultMaxExpressionLength is the maximum allowed length for a constraint.
	DefaultMaxExpressionLength = 2048

	// DefaultCostLimit is the default runtime cost limit for constraint evaluation.
	DefaultCostLimit = 100000

	// ValueVariable is the name under which the candidate parameter value is bound.
	ValueVariable = "value"

	// ParamsVariable is the name under which all current parameter values are bound.
	ParamsVariable = "params"
)

// Engine compiles and evaluates parameter constraints. It is safe for
// concurrent use from multiple goroutines.
type Engine struct {
	envCache            *envCache
	maxExpressionLength int
	costLimit           uint64

	// compiled memoizes constraints by source; declarations are few and
	// repeat across every Specialize call.
	compiled sync.Map
}

// envCache holds a lazily-initialized CEL environment.
type envCache struct {
	once sync.Once
	env  *cel.Env
	err  error
}

// Constraint is a compiled constraint ready for evaluation.
type Constraint struct {
	source  string
	program cel.Program
}

// Source returns the original constraint source string.
func (c *Constraint) Source() string {
	return c.source
}

// NewEngine creates a constraint engine. Constraints see two variables:
// `value`, the candidate value converted to the declared parameter type, and
// `params`, a map of every parameter currently in scope.
//
// Example constraints:
//
//	value >= 0.0 && value <= 70.0
//	value in ["car", "truck", "bus"]
//	value <= double(params["SpeedLimit"])
func NewEngine() *Engine {
	return &Engine{
		envCache:            &envCache{},
		maxExpressionLength: DefaultMaxExpressionLength,
		costLimit:           DefaultCostLimit,
	}
}

// WithMaxExpressionLength sets the maximum allowed length for constraints.
func (e *Engine) WithMaxExpressionLength(maxLen int) *Engine {
	e.maxExpressionLength = maxLen
	return e
}

// WithCostLimit sets the runtime cost limit for constraint evaluation.
func (e *Engine) WithCostLimit(limit uint64) *Engine {
	e.costLimit = limit
	return e
}

func (e *Engine) getEnv() (*cel.Env, error) {
	e.envCache.once.Do(func() {
		e.envCache.env, e.envCache.err = cel.NewEnv(
			cel.Variable(ValueVariable, cel.DynType),
			cel.Variable(ParamsVariable, cel.MapType(cel.StringType, cel.DynType)),
			cel.CrossTypeNumericComparisons(true),
		)
	})
	return e.envCache.env, e.envCache.err
}

// Compile parses and type-checks a constraint. Results are memoized by source.
//
// Returns a ParseError for syntax errors and a CheckError when the
// constraint references unknown variables or functions.
func (e *Engine) Compile(src string) (*Constraint, error) {
	if c, ok := e.compiled.Load(src); ok {
		return c.(*Constraint), nil
	}

	ast, err := e.check(src)
	if err != nil {
		return nil, err
	}

	env, err := e.getEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to get CEL environment: %w", err)
	}
	program, err := env.Program(ast, cel.CostLimit(e.costLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program for constraint %q: %w", src, err)
	}

	c := &Constraint{source: src, program: program}
	actual, _ := e.compiled.LoadOrStore(src, c)
	return actual.(*Constraint), nil
}

// Check verifies that a constraint is syntactically and semantically valid
// without creating a program.
func (e *Engine) Check(src string) error {
	_, err := e.check(src)
	return err
}

func (e *Engine) check(src string) (*cel.Ast, error) {
	if len(src) > e.maxExpressionLength {
		return nil, fmt.Errorf("%w: constraint length %d exceeds maximum of %d",
			ErrExpressionCheck, len(src), e.maxExpressionLength)
	}

	env, err := e.getEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to get CEL environment: %w", err)
	}

	parsedAst, issues := env.Parse(src)
	if issues.Err() != nil {
		return nil, newParseError(src, issues)
	}

	checkedAst, issues := env.Check(parsedAst)
	if issues.Err() != nil {
		return nil, newCheckError(src, issues)
	}

	return checkedAst, nil
}

// Satisfied evaluates the constraint for a candidate value.
func (c *Constraint) Satisfied(value any, params map[string]any) (bool, error) {
	if params == nil {
		params = map[string]any{}
	}
	out, _, err := c.program.Eval(map[string]any{
		ValueVariable:  value,
		ParamsVariable: params,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrEvaluation, err)
	}

	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("%w: expected bool, got %T", ErrInvalidResult, out.Value())
	}
	return ok, nil
}
