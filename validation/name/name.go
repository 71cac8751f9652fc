// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

// Package name provides validation functions for parameter, catalog, entry
// and bundle names.
package name

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	parameterNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	bundleNameRegex    = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
)

// ValidateParameter validates that a parameter name is an identifier:
// a letter or underscore followed by letters, digits and underscores.
func ValidateParameter(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("parameter name cannot be empty or consist only of whitespace")
	}

	if strings.Contains(name, "\x00") {
		return fmt.Errorf("parameter name cannot contain null bytes")
	}

	if !parameterNameRegex.MatchString(name) {
		return fmt.Errorf("parameter name must start with a letter or underscore and contain only letters, digits and underscores: %q", name)
	}

	return nil
}

// ValidateEntry validates a catalog or entry name.
func ValidateEntry(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty or consist only of whitespace")
	}

	if strings.Contains(name, "\x00") {
		return fmt.Errorf("name cannot contain null bytes")
	}

	// ':' separates the parts of a resolution key
	if strings.Contains(name, ":") {
		return fmt.Errorf("name cannot contain ':': %q", name)
	}

	if strings.TrimSpace(name) != name {
		return fmt.Errorf("name cannot have leading or trailing whitespace: %q", name)
	}

	return nil
}

// ValidateBundle validates a catalog bundle name: lowercase alphanumeric
// characters, dots, underscores and dashes, starting with a letter or digit.
func ValidateBundle(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("bundle name cannot be empty or consist only of whitespace")
	}

	if strings.Contains(name, "\x00") {
		return fmt.Errorf("bundle name cannot contain null bytes")
	}

	if name != strings.ToLower(name) {
		return fmt.Errorf("bundle name must be lowercase: %q", name)
	}

	if !bundleNameRegex.MatchString(name) {
		return fmt.Errorf("bundle name can only contain lowercase alphanumeric characters, dots, underscores and dashes: %q", name)
	}

	return nil
}
