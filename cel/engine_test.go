// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package cel_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openxosc/xosc-core/cel"
)

func TestEngine_Compile_ValidConstraints(t *testing.T) {
	t.Parallel()

	engine := cel.NewEngine()

	tests := []struct {
		name string
		expr string
	}{
		{name: "range", expr: `value >= 0.0 && value <= 70.0`},
		{name: "membership", expr: `value in ["car", "truck", "bus"]`},
		{name: "reference to other parameter", expr: `value <= double(params["SpeedLimit"])`},
		{name: "key presence", expr: `"SpeedLimit" in params`},
		{name: "string function", expr: `value.startsWith("ego")`},
		{name: "true literal", expr: `true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := engine.Compile(tt.expr)
			require.NoError(t, err)
			require.NotNil(t, c)
			assert.Equal(t, tt.expr, c.Source())
		})
	}
}

func TestEngine_Compile_Errors(t *testing.T) {
	t.Parallel()

	engine := cel.NewEngine()

	t.Run("syntax error is a ParseError", func(t *testing.T) {
		t.Parallel()
		_, err := engine.Compile(`value >`)
		require.Error(t, err)

		var parseErr *cel.ParseError
		require.True(t, errors.As(err, &parseErr), "expected ParseError, got %T", err)
		assert.ErrorIs(t, err, cel.ErrExpressionCheck)
		assert.Contains(t, parseErr.Error(), "parse")
		assert.Equal(t, `value >`, parseErr.Source)
		assert.NotEmpty(t, parseErr.Errors)
	})

	t.Run("unknown variable is a CheckError", func(t *testing.T) {
		t.Parallel()
		_, err := engine.Compile(`speed > 3.0`)
		require.Error(t, err)

		var checkErr *cel.CheckError
		require.True(t, errors.As(err, &checkErr), "expected CheckError, got %T", err)
		assert.Contains(t, checkErr.Error(), "check")
		assert.Contains(t, checkErr.AsJSON(), "speed")
	})

	t.Run("too long", func(t *testing.T) {
		t.Parallel()
		short := cel.NewEngine().WithMaxExpressionLength(10)
		_, err := short.Compile(`value > 0.0 && value < 100.0`)
		require.Error(t, err)
		assert.ErrorIs(t, err, cel.ErrExpressionCheck)
	})
}

func TestEngine_Check(t *testing.T) {
	t.Parallel()

	engine := cel.NewEngine()

	require.NoError(t, engine.Check(`value > 0`))
	require.Error(t, engine.Check(`value >`))
}

func TestConstraint_Satisfied(t *testing.T) {
	t.Parallel()

	engine := cel.NewEngine()

	tests := []struct {
		name     string
		expr     string
		value    any
		params   map[string]any
		expected bool
	}{
		{name: "double in range", expr: `value >= 0.0 && value <= 70.0`, value: 42.0, expected: true},
		{name: "double above range", expr: `value >= 0.0 && value <= 70.0`, value: 80.0, expected: false},
		{name: "double against int literal", expr: `value > 0`, value: 0.5, expected: true},
		{name: "int value", expr: `value < 3`, value: int64(2), expected: true},
		{name: "string membership", expr: `value in ["car", "truck"]`, value: "bus", expected: false},
		{name: "bool value", expr: `value == true`, value: true, expected: true},
		{
			name:     "relative to other parameter",
			expr:     `value <= double(params["SpeedLimit"])`,
			value:    50.0,
			params:   map[string]any{"SpeedLimit": "60"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := engine.Compile(tt.expr)
			require.NoError(t, err)

			ok, err := c.Satisfied(tt.value, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}

func TestConstraint_Satisfied_Errors(t *testing.T) {
	t.Parallel()

	engine := cel.NewEngine()

	t.Run("non bool result", func(t *testing.T) {
		t.Parallel()
		c, err := engine.Compile(`value`)
		require.NoError(t, err)

		_, err = c.Satisfied(1.0, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, cel.ErrInvalidResult)
	})

	t.Run("missing params key", func(t *testing.T) {
		t.Parallel()
		c, err := engine.Compile(`value < double(params["Missing"])`)
		require.NoError(t, err)

		_, err = c.Satisfied(1.0, map[string]any{})
		require.Error(t, err)
		assert.ErrorIs(t, err, cel.ErrEvaluation)
	})
}

func TestEngine_Compile_Memoizes(t *testing.T) {
	t.Parallel()

	engine := cel.NewEngine()

	a, err := engine.Compile(`value > 1.0`)
	require.NoError(t, err)
	b, err := engine.Compile(`value > 1.0`)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestEngine_Concurrency(t *testing.T) {
	t.Parallel()

	engine := cel.NewEngine()

	const numGoroutines = 50
	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := engine.Compile(`value >= 0.0 && value < 25.0`)
			if err != nil {
				errs <- err
				return
			}
			ok, err := c.Satisfied(float64(i), nil)
			if err != nil {
				errs <- err
				return
			}
			if ok != (i < 25) {
				errs <- fmt.Errorf("value %d: unexpected result %v", i, ok)
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
}
