// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package param resolves parameterized attribute values.

Attributes in scenario and catalog documents hold one of three forms, modeled
by Value:

	maxSpeed="69.4"            literal
	maxSpeed="$MaxSpeed"       parameter reference
	maxSpeed="${$Speed / 3.6}" expression

An Engine holds the active parameter context and resolves values against it:

	engine := param.NewEngine()
	_ = engine.SetParameter("Speed", "250")

	v, err := param.Resolve(engine, param.Expr[float64]("${$Speed / 3.6}"))

String targets also accept templates. Text that is not arithmetic has its
${name} spans replaced:

	id, err := param.Resolve(engine, param.Expr[string]("${Prefix}_car"))

A parameter that is not in the context is always an ErrMissingParameter; it
is never replaced by a default.

# Declarations

Declared parameters are validated when set. The declared type must parse
and an optional CEL constraint must hold:

	err := engine.Declare(param.Definition{
		Name:       "MaxSpeed",
		Type:       param.TypeDouble,
		Default:    "50",
		Constraint: "value > 0.0",
	})

# Scoping

WithAdditionalContext returns an independent child; resolving a nested
reference never mutates the caller's context. Substitute merges extra values
over the context (extra wins) and hands the result to an entity's Specialize
method.
*/
package param
