// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package config loads the catalog tooling configuration.

A configuration file is YAML, validated against an embedded JSON schema
before it is decoded:

	cache:
	  capacity: 50
	catalog:
	  extension: .xosc
	  duplicatePolicy: first-match
	  locations:
	    vehicle: catalogs/vehicles
	    controller: catalogs/controllers
	log:
	  level: debug
	  format: text
	parameters:
	  EgoSpeed: 30.0

The file lives at $XDG_CONFIG_HOME/xosc/config.yaml by default. The
XOSC_CACHE_CAPACITY, XOSC_CATALOG_EXTENSION, XOSC_DUPLICATE_POLICY,
XOSC_LOG_LEVEL and XOSC_LOG_FORMAT variables override the file.

	cfg, err := config.LoadDefault(&env.OSReader{})
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	m, err := cfg.NewManager(logger)
*/
package config
