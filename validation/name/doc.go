// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package name provides validation functions for parameter, catalog and entry
names.

Parameter names appear inside ${...} spans and $name references, so they are
restricted to identifier characters. Catalog and entry names are free text but
must be usable as part of a resolution key.

# Parameter Names

	if err := name.ValidateParameter("MaxSpeed"); err != nil {
		// reject the declaration
	}

Valid parameter names must:
  - Start with a letter or underscore
  - Contain only letters, digits and underscores

# Entry and Catalog Names

	if err := name.ValidateEntry("car_white"); err != nil {
		// reject the reference
	}

Valid entry names must:
  - Be non-empty (not just whitespace)
  - Not contain null bytes or ':' (the resolution key separator)
  - Not have leading or trailing whitespace

# Bundle Names

Bundle names label catalog bundles in OCI annotations and local store paths.
Valid bundle names must:
  - Start with a lowercase letter or digit
  - Contain only lowercase letters, digits, dots, underscores and dashes

# Examples

Valid parameter names:

	"MaxSpeed"
	"_internal"
	"speed_2"

Invalid parameter names:

	""          // empty
	"2fast"     // leading digit
	"max speed" // whitespace
	"a-b"       // dash
*/
package name
