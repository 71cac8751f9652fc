// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package xosc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/openxosc/xosc-core/param"
)

// Rule is a value constraint comparison.
type Rule string

// Value constraint rules.
const (
	RuleEqualTo        Rule = "equalTo"
	RuleNotEqualTo     Rule = "notEqualTo"
	RuleGreaterThan    Rule = "greaterThan"
	RuleGreaterOrEqual Rule = "greaterOrEqual"
	RuleLessThan       Rule = "lessThan"
	RuleLessOrEqual    Rule = "lessOrEqual"
)

var ruleOperators = map[Rule]string{
	RuleEqualTo:        "==",
	RuleNotEqualTo:     "!=",
	RuleGreaterThan:    ">",
	RuleGreaterOrEqual: ">=",
	RuleLessThan:       "<",
	RuleLessOrEqual:    "<=",
}

// ValueConstraint compares a parameter value against a fixed operand.
type ValueConstraint struct {
	Rule  Rule   `xml:"rule,attr"`
	Value string `xml:"value,attr"`
}

// ValueConstraintGroup holds constraints that must all hold. A declaration
// is satisfied when any of its groups is.
type ValueConstraintGroup struct {
	Constraints []ValueConstraint `xml:"ValueConstraint"`
}

// celConstraint renders constraint groups as a CEL expression over `value`.
// It returns "" when there are no constraints.
func celConstraint(t param.Type, groups []ValueConstraintGroup) (string, error) {
	var alternatives []string
	for _, g := range groups {
		if len(g.Constraints) == 0 {
			continue
		}
		terms := make([]string, 0, len(g.Constraints))
		for _, c := range g.Constraints {
			op, ok := ruleOperators[c.Rule]
			if !ok {
				return "", fmt.Errorf("unknown constraint rule %q", c.Rule)
			}
			operand, err := celLiteral(t, c.Value)
			if err != nil {
				return "", fmt.Errorf("constraint %s %q: %w", c.Rule, c.Value, err)
			}
			terms = append(terms, "value "+op+" "+operand)
		}
		alternatives = append(alternatives, "("+strings.Join(terms, " && ")+")")
	}
	return strings.Join(alternatives, " || "), nil
}

func celLiteral(t param.Type, raw string) (string, error) {
	s := strings.TrimSpace(raw)
	switch t {
	case param.TypeDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return "", errors.New("not a finite double")
		}
		lit := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(lit, ".eE") {
			lit += ".0"
		}
		return lit, nil
	case param.TypeInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return "", errors.New("not an integer")
		}
		return strconv.FormatInt(n, 10), nil
	case param.TypeUnsignedInt, param.TypeUnsignedShort:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return "", errors.New("not an unsigned integer")
		}
		return strconv.FormatUint(n, 10) + "u", nil
	case param.TypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return "", errors.New("not a boolean")
		}
		return strconv.FormatBool(b), nil
	case param.TypeString:
		return strconv.Quote(raw), nil
	case param.TypeDateTime:
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return "", errors.New("not an RFC 3339 date-time")
		}
		return fmt.Sprintf("timestamp(%q)", ts.Format(time.RFC3339Nano)), nil
	}
	return "", fmt.Errorf("%w: %q", param.ErrUnknownType, string(t))
}
