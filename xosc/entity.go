// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package xosc

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/openxosc/xosc-core/expr"
	"github.com/openxosc/xosc-core/param"
)

// ErrSpecialize is wrapped by every error returned from an entity's
// Specialize method.
var ErrSpecialize = errors.New("cannot specialize catalog entry")

// Entity is a catalog entry of one of the fixed kinds. The set of
// implementations is closed.
type Entity interface {
	Kind() Kind
	EntryName() string
	ParameterSchema() ([]param.Definition, error)

	catalogEntity()
}

// Specializer is an Entity that can produce a concrete copy of itself for a
// set of parameter values.
type Specializer[E any] interface {
	Entity
	param.Specializer[E]
}

// Entry holds the attributes shared by every catalog entity.
type Entry struct {
	Name                  string                 `xml:"name,attr"`
	ParameterDeclarations []ParameterDeclaration `xml:"ParameterDeclarations>ParameterDeclaration"`
}

// EntryName returns the name the entry is looked up by.
func (e Entry) EntryName() string {
	return e.Name
}

// ParameterSchema returns the entry's parameter declarations.
func (e Entry) ParameterSchema() ([]param.Definition, error) {
	defs := make([]param.Definition, 0, len(e.ParameterDeclarations))
	for _, d := range e.ParameterDeclarations {
		def, err := d.Definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (e Entry) clone() Entry {
	out := e
	if e.ParameterDeclarations != nil {
		out.ParameterDeclarations = make([]ParameterDeclaration, len(e.ParameterDeclarations))
		for i, d := range e.ParameterDeclarations {
			out.ParameterDeclarations[i] = d.clone()
		}
	}
	return out
}

// ParameterDeclaration declares a parameter of a catalog entry together with
// its default value.
type ParameterDeclaration struct {
	Name             string                 `xml:"name,attr"`
	Type             param.Type             `xml:"parameterType,attr"`
	Value            string                 `xml:"value,attr"`
	Description      string                 `xml:"description,attr,omitempty"`
	ConstraintGroups []ValueConstraintGroup `xml:"ConstraintGroup"`
}

// Definition converts the declaration into a parameter definition. Constraint
// groups are rendered as a CEL constraint.
func (d ParameterDeclaration) Definition() (param.Definition, error) {
	constraint, err := celConstraint(d.Type, d.ConstraintGroups)
	if err != nil {
		return param.Definition{}, fmt.Errorf("parameter %q: %w", d.Name, err)
	}
	return param.Definition{
		Name:        d.Name,
		Type:        d.Type,
		Default:     d.Value,
		Description: d.Description,
		Constraint:  constraint,
	}, nil
}

func (d ParameterDeclaration) clone() ParameterDeclaration {
	out := d
	if d.ConstraintGroups != nil {
		out.ConstraintGroups = make([]ValueConstraintGroup, len(d.ConstraintGroups))
		for i, g := range d.ConstraintGroups {
			out.ConstraintGroups[i] = ValueConstraintGroup{Constraints: slices.Clone(g.Constraints)}
		}
	}
	return out
}

// scope resolves the parameterized fields of one entry. The first failure is
// kept and every later resolution becomes a no-op.
type scope struct {
	kind   Kind
	name   string
	engine *param.Engine
	err    error
}

// newScope builds the parameter context for specializing e: declared
// defaults, overlaid with params. A default may itself be a reference or
// expression ("$MaxSpeed"); it is resolved against params and the defaults
// declared before it.
func newScope(kind Kind, e Entry, params map[string]string) *scope {
	s := &scope{kind: kind, name: e.Name, engine: param.NewEngine()}

	defs, err := e.ParameterSchema()
	if err != nil {
		s.err = err
		return s
	}
	for _, def := range defs {
		if err := s.engine.Define(def); err != nil {
			s.err = err
			return s
		}
	}
	for _, def := range defs {
		if _, ok := params[def.Name]; ok {
			continue
		}
		value, err := s.defaultValue(def, params)
		if err != nil {
			s.err = fmt.Errorf("default of parameter %q: %w", def.Name, err)
			return s
		}
		if err := s.engine.SetParameter(def.Name, value); err != nil {
			s.err = fmt.Errorf("default of %w", err)
			return s
		}
	}
	for _, k := range slices.Sorted(maps.Keys(params)) {
		if err := s.engine.SetParameter(k, params[k]); err != nil {
			s.err = err
			return s
		}
	}
	return s
}

func (s *scope) defaultValue(def param.Definition, params map[string]string) (string, error) {
	v, err := param.ParseValue[string](def.Default)
	if err != nil || v.IsLiteral() {
		return def.Default, nil
	}
	return param.Resolve(s.engine.WithAdditionalContext(params), v)
}

// resolve replaces *v by its resolved literal.
func resolve[T expr.Scalar](s *scope, field string, v *param.Value[T]) {
	if s.err != nil || v.IsLiteral() {
		return
	}
	out, err := param.Resolve(s.engine, *v)
	if err != nil {
		s.err = fmt.Errorf("%s: %w", field, err)
		return
	}
	*v = param.Literal(out)
}

func (s *scope) Err() error {
	if s.err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s %q: %w", ErrSpecialize, s.kind, s.name, s.err)
}

// Property is a free-form name/value pair.
type Property struct {
	Name  string              `xml:"name,attr"`
	Value param.Value[string] `xml:"value,attr"`
}

func resolveProperties(s *scope, props []Property) {
	for i := range props {
		resolve(s, "Property "+props[i].Name, &props[i].Value)
	}
}
