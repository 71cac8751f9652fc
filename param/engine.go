// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package param

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"strings"
	"sync"

	"github.com/openxosc/xosc-core/cel"
	"github.com/openxosc/xosc-core/expr"
	"github.com/openxosc/xosc-core/validation/name"
)

// spanPattern matches ${name} spans whose body is a plain identifier.
var spanPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Specializer is implemented by catalog entities: given a complete parameter
// map it returns a copy with every parameterized field resolved.
type Specializer[E any] interface {
	Specialize(params map[string]string) (E, error)
}

// Engine holds a parameter context (name to textual value) and the
// declarations used to validate it. It is safe for concurrent use; child
// engines created with WithAdditionalContext never share state with their
// parent.
type Engine struct {
	mu          sync.RWMutex
	context     map[string]string
	definitions map[string]Definition

	constraints *cel.Engine
	exprs       *expr.Engine
}

// Option configures an Engine.
type Option func(*Engine)

// WithConstraints shares a constraint engine between parameter engines.
func WithConstraints(c *cel.Engine) Option {
	return func(e *Engine) {
		e.constraints = c
	}
}

// WithExpressionEngine shares an expression engine between parameter engines.
func WithExpressionEngine(x *expr.Engine) Option {
	return func(e *Engine) {
		e.exprs = x
	}
}

// NewEngine creates an empty parameter engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		context:     make(map[string]string),
		definitions: make(map[string]Definition),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.constraints == nil {
		e.constraints = cel.NewEngine()
	}
	if e.exprs == nil {
		e.exprs = expr.NewEngine()
	}
	return e
}

// Define registers a declaration. The declared default is not applied; use
// Declare for that.
func (e *Engine) Define(def Definition) error {
	if err := name.ValidateParameter(def.Name); err != nil {
		return newError(ErrInvalidName, def.Name, "", err.Error())
	}
	if !def.Type.Known() {
		return newError(ErrUnknownType, def.Name, string(def.Type), "")
	}
	if def.Constraint != "" {
		if _, err := e.constraints.Compile(def.Constraint); err != nil {
			return fmt.Errorf("parameter %q: invalid constraint: %w", def.Name, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.definitions[def.Name] = def
	return nil
}

// Declare registers def and sets its default value.
func (e *Engine) Declare(def Definition) error {
	if err := e.Define(def); err != nil {
		return err
	}
	return e.SetParameter(def.Name, def.Default)
}

// Definition returns the declaration for a parameter, if any.
func (e *Engine) Definition(paramName string) (Definition, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	def, ok := e.definitions[paramName]
	return def, ok
}

// SetParameter stores a value. When the parameter is declared, the value
// must parse as the declared type and satisfy the declared constraint; a
// rejected value is not stored.
func (e *Engine) SetParameter(paramName, value string) error {
	if err := name.ValidateParameter(paramName); err != nil {
		return newError(ErrInvalidName, paramName, "", err.Error())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if def, ok := e.definitions[paramName]; ok {
		if err := e.validateLocked(def, value); err != nil {
			return err
		}
	}
	e.context[paramName] = value
	return nil
}

func (e *Engine) validateLocked(def Definition, value string) error {
	typed, err := def.Type.Parse(value)
	if err != nil {
		return newError(ErrTypeMismatch, def.Name, value, fmt.Sprintf("declared as %s", def.Type))
	}
	if def.Constraint == "" {
		return nil
	}

	c, err := e.constraints.Compile(def.Constraint)
	if err != nil {
		return fmt.Errorf("parameter %q: invalid constraint: %w", def.Name, err)
	}
	scope := make(map[string]any, len(e.context)+1)
	for k, v := range e.context {
		scope[k] = v
	}
	scope[def.Name] = value

	ok, err := c.Satisfied(typed, scope)
	if err != nil {
		return fmt.Errorf("parameter %q: %w", def.Name, err)
	}
	if !ok {
		return newError(ErrConstraint, def.Name, value, def.Constraint)
	}
	return nil
}

// Parameter returns the textual value of a parameter.
func (e *Engine) Parameter(paramName string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.context[paramName]
	return v, ok
}

// Parameters returns a copy of the parameter context.
func (e *Engine) Parameters() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.context)
}

// Len returns the number of parameters in the context.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.context)
}

// ResolveParameterExpression replaces every ${name} span in text with the
// parameter's value. Text without spans is returned unchanged. A span naming
// an unknown parameter is an ErrMissingParameter.
func (e *Engine) ResolveParameterExpression(text string) (string, error) {
	matches := spanPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var b strings.Builder
	last := 0
	for _, m := range matches {
		paramName := text[m[2]:m[3]]
		v, ok := e.context[paramName]
		if !ok {
			return "", newError(ErrMissingParameter, paramName, "", fmt.Sprintf("referenced in %q", text))
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(v)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// WithAdditionalContext returns an independent child engine whose context is
// this engine's context overlaid with extra. Declarations are copied. Values
// in extra are stored as given; they are validated when resolved.
func (e *Engine) WithAdditionalContext(extra map[string]string) *Engine {
	e.mu.RLock()
	defer e.mu.RUnlock()

	child := &Engine{
		context:     maps.Clone(e.context),
		definitions: maps.Clone(e.definitions),
		constraints: e.constraints,
		exprs:       e.exprs,
	}
	maps.Copy(child.context, extra)
	return child
}

// Resolve returns the concrete value of v in the engine's context.
//
// Literals are returned without any lookup. Parameter references are looked
// up and parsed as T. Expressions are evaluated by the expression engine,
// which reads ${name} and $name references straight from the context; an
// expression consisting of a single ${name} span is treated like a parameter
// reference so that string and integer parameters keep their exact text.
//
// A string expression that is not arithmetic, such as "${prefix}_car", is a
// template: its spans are substituted and the resulting text returned.
func Resolve[T expr.Scalar](e *Engine, v Value[T]) (T, error) {
	switch v.Kind() {
	case KindLiteral:
		lit, _ := v.Get()
		return lit, nil
	case KindParameter:
		return resolveRef[T](e, v.Text())
	}

	text := strings.TrimSpace(v.Text())
	if m := spanPattern.FindStringSubmatch(text); m != nil && m[0] == text {
		return resolveRef[T](e, m[1])
	}

	var zero T
	out, err := expr.EvaluateAs[T](e.exprs, text, e.Parameters())
	if err == nil {
		return out, nil
	}
	if isTemplate[T](err) && spanPattern.MatchString(text) {
		substituted, serr := e.ResolveParameterExpression(text)
		if serr != nil {
			return zero, serr
		}
		return any(substituted).(T), nil
	}
	if errors.Is(err, expr.ErrUnknownParameter) {
		return zero, newError(ErrMissingParameter, "", text, err.Error())
	}
	return zero, fmt.Errorf("evaluating %q: %w", text, err)
}

// isTemplate reports whether a failed evaluation into T should fall back to
// plain span substitution. Only string targets qualify, and only when the
// text is not an expression or refers to non-numeric values.
func isTemplate[T expr.Scalar](err error) bool {
	var zero T
	if _, ok := any(zero).(string); !ok {
		return false
	}
	return errors.Is(err, expr.ErrSyntax) ||
		errors.Is(err, expr.ErrUnknownConstant) ||
		errors.Is(err, expr.ErrConversion)
}

func resolveRef[T expr.Scalar](e *Engine, paramName string) (T, error) {
	var zero T
	raw, ok := e.Parameter(paramName)
	if !ok {
		return zero, newError(ErrMissingParameter, paramName, "", "")
	}
	out, err := ParseScalar[T](raw)
	if err != nil {
		return zero, newError(ErrTypeMismatch, paramName, raw, err.Error())
	}
	return out, nil
}

// Substitute merges extra over the engine's context, extra taking precedence,
// and specializes entity with the merged parameters. The engine itself is
// not modified.
func Substitute[E any](e *Engine, entity Specializer[E], extra map[string]string) (E, error) {
	merged := e.Parameters()
	maps.Copy(merged, extra)
	return entity.Specialize(merged)
}
