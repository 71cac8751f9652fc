// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package catalog_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openxosc/xosc-core/catalog"
	"github.com/openxosc/xosc-core/xosc"
)

func TestResolutionKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "vehicle:VehicleCatalog:car", catalog.ResolutionKey(xosc.KindVehicle, "VehicleCatalog", "car"))
	assert.Equal(t, "miscObject:Props:cone", catalog.ResolutionKey(xosc.KindMiscObject, "Props", "cone"))
}

func TestResolver_BeginEnd(t *testing.T) {
	t.Parallel()

	r := catalog.NewResolver()
	require.NoError(t, r.Begin("vehicle:c:a"))
	require.NoError(t, r.Begin("route:c:b"))
	assert.Equal(t, []string{"route:c:b", "vehicle:c:a"}, r.InFlight())

	err := r.Begin("vehicle:c:a")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrCycle)

	var cycleErr *catalog.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, "vehicle:c:a", cycleErr.Key)
	assert.Contains(t, cycleErr.InFlight, "route:c:b")

	r.End("vehicle:c:a")
	r.End("vehicle:c:a")
	assert.Equal(t, []string{"route:c:b"}, r.InFlight())
	require.NoError(t, r.Begin("vehicle:c:a"))
}

func TestResolver_Guard(t *testing.T) {
	t.Parallel()

	r := catalog.NewResolver()

	release, err := r.Guard("k")
	require.NoError(t, err)

	_, err = r.Guard("k")
	assert.ErrorIs(t, err, catalog.ErrCycle)

	release()
	release()
	assert.Empty(t, r.InFlight())

	release, err = r.Guard("k")
	require.NoError(t, err)
	defer release()
	assert.Equal(t, []string{"k"}, r.InFlight())
}

func TestResolver_GuardReleasedOnFailure(t *testing.T) {
	t.Parallel()

	r := catalog.NewResolver()
	fail := func() error {
		release, err := r.Guard("k")
		if err != nil {
			return err
		}
		defer release()
		return errors.New("boom")
	}

	require.Error(t, fail())
	require.Error(t, fail())
	assert.Empty(t, r.InFlight())
}
