// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package env provides an interface-based abstraction for environment variable
access, enabling dependency injection and testing isolation.

# Basic Usage

Use OSReader to read environment variables via the standard os package:

	reader := &env.OSReader{}
	value := reader.Getenv("MY_VAR")
	level, ok := reader.LookupEnv("XOSC_LOG_LEVEL")

MapReader serves a fixed set of variables, which is handy for embedding a
configuration into a test or a tool invocation:

	reader := env.MapReader{"XOSC_CACHE_CAPACITY": "50"}

# Testing

The Reader interface allows injecting a mock in tests to avoid relying on
real environment variables. A generated mock is available in the mocks
sub-package:

	ctrl := gomock.NewController(t)
	mock := mocks.NewMockReader(ctrl)
	mock.EXPECT().Getenv("MY_VAR").Return("test-value")

	result := myFunc(mock)

# Design

The config package reads its XOSC_* overrides through a Reader. Production
code passes an OSReader, while tests substitute the generated mock.
*/
package env
