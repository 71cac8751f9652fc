// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openxosc/xosc-core/catalog"
	"github.com/openxosc/xosc-core/param"
	"github.com/openxosc/xosc-core/xosc"
)

func vehicleRef(entry string, assignments ...xosc.ParameterAssignment) xosc.CatalogReference[xosc.Vehicle] {
	return xosc.NewCatalogReference[xosc.Vehicle](param.Literal("VehicleCatalog"), param.Literal(entry), assignments...)
}

func get[T float64 | string | bool](t *testing.T, v param.Value[T]) T {
	t.Helper()
	out, ok := v.Get()
	require.True(t, ok, "value %s is not a literal", v)
	return out
}

func TestManager_ResolveVehicle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)
	m := catalog.NewManager()

	resolved, err := m.ResolveVehicle(context.Background(),
		vehicleRef("car", xosc.Assign("MaxSpeedParam", "80.0")), xosc.NewDirectory(dir))
	require.NoError(t, err)

	assert.Equal(t, path, resolved.SourcePath)
	assert.Equal(t, "VehicleCatalog", resolved.CatalogName)
	assert.Equal(t, "car", resolved.EntryName)
	assert.Equal(t, "80.0", resolved.Parameters["MaxSpeedParam"])

	car := resolved.Entity
	assert.InDelta(t, 80.0, get(t, car.Performance.MaxSpeed), 1e-9)
	assert.InDelta(t, 8.0, get(t, car.Performance.MaxAcceleration), 1e-9)
	assert.InDelta(t, 9.5, get(t, car.Performance.MaxDeceleration), 1e-9)
	assert.InDelta(t, 1500.0, get(t, car.Mass), 1e-9)
	require.Len(t, car.Properties, 1)
	assert.Equal(t, "red", get(t, car.Properties[0].Value))
}

func TestManager_ResolveVehicle_AssignmentThroughDeclaredDefault(t *testing.T) {
	t.Parallel()

	const doc = `<OpenSCENARIO><Catalog name="VehicleCatalog">` +
		`<Vehicle name="car" vehicleCategory="car" mass="1500">` +
		`<ParameterDeclarations>` +
		`<ParameterDeclaration name="MaxSpeedParam" parameterType="double" value="$MaxSpeed"/>` +
		`</ParameterDeclarations>` +
		`<Performance maxSpeed="${MaxSpeedParam}" maxAcceleration="5" maxDeceleration="9"/>` +
		`</Vehicle></Catalog></OpenSCENARIO>`

	dir := t.TempDir()
	writeCatalog(t, dir, "vehicles.xosc", doc)
	m := catalog.NewManager()

	resolved, err := m.ResolveVehicle(context.Background(),
		vehicleRef("car", xosc.Assign("MaxSpeed", "80.0")), xosc.NewDirectory(dir))
	require.NoError(t, err)
	assert.InDelta(t, 80.0, get(t, resolved.Entity.Performance.MaxSpeed), 1e-9)
	assert.Equal(t, "80.0", resolved.Parameters["MaxSpeed"])

	_, err = m.ResolveVehicle(context.Background(), vehicleRef("bus"), xosc.NewDirectory(dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrLookup)
	assert.Contains(t, err.Error(), "VehicleCatalog")
	assert.Contains(t, err.Error(), "bus")
}

func TestManager_ResolveVehicle_Defaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)
	m := catalog.NewManager()

	resolved, err := m.ResolveVehicle(context.Background(), vehicleRef("car"), xosc.NewDirectory(dir))
	require.NoError(t, err)
	assert.InDelta(t, 69.4, get(t, resolved.Entity.Performance.MaxSpeed), 1e-9)
	assert.NotContains(t, resolved.Parameters, "MaxSpeedParam")
}

func TestManager_Resolve_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)

	tests := []struct {
		name    string
		ref     xosc.CatalogReference[xosc.Vehicle]
		loc     xosc.Directory
		wantErr error
	}{
		{
			name:    "unknown entry",
			ref:     vehicleRef("bus"),
			loc:     xosc.NewDirectory(dir),
			wantErr: catalog.ErrLookup,
		},
		{
			name:    "missing directory",
			ref:     vehicleRef("car"),
			loc:     xosc.NewDirectory(filepath.Join(dir, "missing")),
			wantErr: catalog.ErrDiscovery,
		},
		{
			name:    "constraint violated",
			ref:     vehicleRef("car", xosc.Assign("MaxSpeedParam", "150")),
			loc:     xosc.NewDirectory(dir),
			wantErr: param.ErrConstraint,
		},
		{
			name:    "assignment of wrong type",
			ref:     vehicleRef("car", xosc.Assign("MaxSpeedParam", "fast")),
			loc:     xosc.NewDirectory(dir),
			wantErr: param.ErrTypeMismatch,
		},
		{
			name:    "invalid assignment name",
			ref:     vehicleRef("car", xosc.Assign("1st", "x")),
			loc:     xosc.NewDirectory(dir),
			wantErr: param.ErrInvalidName,
		},
		{
			name: "unresolved entry name",
			ref: xosc.NewCatalogReference[xosc.Vehicle](
				param.Literal("VehicleCatalog"), param.Ref[string]("EntryParam")),
			loc:     xosc.NewDirectory(dir),
			wantErr: param.ErrMissingParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := catalog.NewManager()
			resolved, err := catalog.Resolve(context.Background(), m, tt.ref, tt.loc)
			require.Error(t, err)
			assert.Nil(t, resolved)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, m.Resolver().InFlight())
		})
	}
}

func TestManager_LookupErrorNamesEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)
	m := catalog.NewManager()

	_, err := m.ResolveVehicle(context.Background(), vehicleRef("bus"), xosc.NewDirectory(dir))
	require.Error(t, err)

	var lookupErr *catalog.LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, xosc.KindVehicle, lookupErr.Kind)
	assert.Equal(t, "VehicleCatalog", lookupErr.Catalog)
	assert.Equal(t, "bus", lookupErr.Entry)
	assert.Equal(t, dir, lookupErr.Directory)
	assert.Contains(t, err.Error(), "vehicle:VehicleCatalog:bus")

	_, err = m.ResolveVehicle(context.Background(), vehicleRef("bus"), xosc.NewDirectory(dir))
	assert.ErrorIs(t, err, catalog.ErrLookup, "a failed resolution can be retried")
	assert.NotErrorIs(t, err, catalog.ErrCycle)
}

func TestManager_CycleDetection(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)
	m := catalog.NewManager()

	key := catalog.ResolutionKey(xosc.KindVehicle, "VehicleCatalog", "car")
	require.NoError(t, m.Resolver().Begin(key))

	_, err := m.ResolveVehicle(context.Background(), vehicleRef("car"), xosc.NewDirectory(dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrCycle)

	var cycleErr *catalog.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, key, cycleErr.Key)

	_, err = m.ResolveVehicle(context.Background(), vehicleRef("truck"), xosc.NewDirectory(dir))
	require.NoError(t, err, "distinct keys are not blocked")

	m.Resolver().End(key)
	_, err = m.ResolveVehicle(context.Background(), vehicleRef("car"), xosc.NewDirectory(dir))
	require.NoError(t, err)
}

func TestManager_SequentialResolutionsAreIndependent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)
	m := catalog.NewManager()

	first, err := m.ResolveVehicle(context.Background(),
		vehicleRef("car", xosc.Assign("MaxSpeedParam", "50")), xosc.NewDirectory(dir))
	require.NoError(t, err)
	first.Entity.Properties[0].Value = param.Literal("blue")

	second, err := m.ResolveVehicle(context.Background(), vehicleRef("car"), xosc.NewDirectory(dir))
	require.NoError(t, err)

	assert.InDelta(t, 50.0, get(t, first.Entity.Performance.MaxSpeed), 1e-9)
	assert.InDelta(t, 69.4, get(t, second.Entity.Performance.MaxSpeed), 1e-9)
	assert.Equal(t, "red", get(t, second.Entity.Properties[0].Value))
	assert.Empty(t, m.Resolver().InFlight())
	assert.Positive(t, m.Cache().Stats().Hits)
}

func TestManager_DuplicatePolicy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := writeCatalog(t, dir, "a.xosc", truckCatalog("Trucks", "9000"))
	second := writeCatalog(t, dir, "b.xosc", truckCatalog("Trucks", "12000"))
	ref := xosc.NewCatalogReference[xosc.Vehicle](param.Literal("Trucks"), param.Literal("truck"))

	_, err := catalog.NewManager().ResolveVehicle(context.Background(), ref, xosc.NewDirectory(dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrDuplicateEntry)

	var dupErr *catalog.DuplicateEntryError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, []string{first, second}, dupErr.Paths)

	m := catalog.NewManager(catalog.WithDuplicatePolicy(catalog.DuplicateFirstMatch))
	resolved, err := m.ResolveVehicle(context.Background(), ref, xosc.NewDirectory(dir))
	require.NoError(t, err)
	assert.Equal(t, first, resolved.SourcePath)
	assert.InDelta(t, 9000.0, get(t, resolved.Entity.Mass), 1e-9)
}

func TestManager_CatalogNameMatching(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	vehicles := writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)
	trucks := writeCatalog(t, dir, "trucks.xosc", truckCatalog("Trucks", "9000"))

	tests := []struct {
		name        string
		opts        []catalog.Option
		catalogName string
		entry       string
		wantPath    string
		wantErr     error
	}{
		{
			name:        "entry name only",
			catalogName: "MyVehicles",
			entry:       "car",
			wantPath:    vehicles,
		},
		{
			name:        "declaring catalog name",
			catalogName: "VehicleCatalog",
			entry:       "car",
			wantPath:    vehicles,
		},
		{
			name:        "strict with matching catalog",
			opts:        []catalog.Option{catalog.WithCatalogNameMatch(true)},
			catalogName: "VehicleCatalog",
			entry:       "car",
			wantPath:    vehicles,
		},
		{
			name:        "strict with another catalog",
			opts:        []catalog.Option{catalog.WithCatalogNameMatch(true)},
			catalogName: "Trucks",
			entry:       "car",
			wantErr:     catalog.ErrLookup,
		},
		{
			name:        "same entry in two catalogs",
			catalogName: "Trucks",
			entry:       "truck",
			wantErr:     catalog.ErrDuplicateEntry,
		},
		{
			name:        "strict picks the named catalog",
			opts:        []catalog.Option{catalog.WithCatalogNameMatch(true)},
			catalogName: "Trucks",
			entry:       "truck",
			wantPath:    trucks,
		},
		{
			name:        "unknown entry",
			catalogName: "MyVehicles",
			entry:       "bus",
			wantErr:     catalog.ErrLookup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := catalog.NewManager(tt.opts...)
			ref := xosc.NewCatalogReference[xosc.Vehicle](param.Literal(tt.catalogName), param.Literal(tt.entry))
			resolved, err := m.ResolveVehicle(context.Background(), ref, xosc.NewDirectory(dir))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), catalog.ResolutionKey(xosc.KindVehicle, tt.catalogName, tt.entry))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, resolved.SourcePath)
			assert.Equal(t, tt.catalogName, resolved.CatalogName)
			assert.Equal(t, tt.entry, resolved.EntryName)
		})
	}
}

func TestDuplicatePolicy_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "error", catalog.DuplicateError.String())
	assert.Equal(t, "first-match", catalog.DuplicateFirstMatch.String())
}

func TestParseDuplicatePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    catalog.DuplicatePolicy
		wantErr bool
	}{
		{in: "", want: catalog.DuplicateError},
		{in: "error", want: catalog.DuplicateError},
		{in: "First-Match", want: catalog.DuplicateFirstMatch},
		{in: " first ", want: catalog.DuplicateFirstMatch},
		{in: "last", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := catalog.ParseDuplicatePolicy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManager_AmbientParameters(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)
	m := catalog.NewManager()

	scoped := m.Scoped(map[string]string{"EntryParam": "car", "Speed": "42"})
	ref := xosc.NewCatalogReference[xosc.Vehicle](
		param.Literal("VehicleCatalog"),
		param.Ref[string]("EntryParam"),
		xosc.ParameterAssignment{
			ParameterRef: param.Literal("MaxSpeedParam"),
			Value:        param.Ref[string]("Speed"),
		},
	)

	resolved, err := scoped.ResolveVehicle(context.Background(), ref, xosc.NewDirectory(dir))
	require.NoError(t, err)
	assert.Equal(t, "car", resolved.EntryName)
	assert.InDelta(t, 42.0, get(t, resolved.Entity.Performance.MaxSpeed), 1e-9)
	assert.Equal(t, "42", resolved.Parameters["MaxSpeedParam"])
	assert.Equal(t, "42", resolved.Parameters["Speed"])

	_, ok := m.Parameters().Parameter("EntryParam")
	assert.False(t, ok, "the parent context is not modified")
	assert.Same(t, m.Cache(), scoped.Cache())
	assert.Same(t, m.Resolver(), scoped.Resolver())

	_, err = m.ResolveVehicle(context.Background(), ref, xosc.NewDirectory(dir))
	assert.ErrorIs(t, err, param.ErrMissingParameter)
}

func TestManager_ResolveConfigured(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)
	m := catalog.NewManager(catalog.WithLocations(xosc.CatalogLocations{
		xosc.KindVehicle: xosc.NewDirectory(dir),
	}))

	resolved, err := catalog.ResolveConfigured(context.Background(), m, vehicleRef("truck"))
	require.NoError(t, err)
	assert.Equal(t, "truck", resolved.EntryName)

	ctrl := xosc.NewCatalogReference[xosc.Controller](param.Literal("ControllerCatalog"), param.Literal("driver"))
	_, err = catalog.ResolveConfigured(context.Background(), m, ctrl)
	assert.ErrorIs(t, err, catalog.ErrNoLocation)
}

func TestManager_ResolveController(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "controllers.xosc", controllerCatalog)
	parser := &countingParser{}
	cache := catalog.NewCache(10)
	m := catalog.NewManager(catalog.WithLoader(catalog.NewLoader(cache, catalog.WithParser(parser))))
	assert.Same(t, cache, m.Cache())

	ref := xosc.NewCatalogReference[xosc.Controller](
		param.Literal("ControllerCatalog"), param.Literal("driver"), xosc.Assign("Mode", "aggressive"))

	for range 2 {
		resolved, err := m.ResolveController(context.Background(), ref, xosc.NewDirectory(dir))
		require.NoError(t, err)
		assert.Equal(t, "aggressive", get(t, resolved.Entity.Properties[0].Value))
	}
	assert.Equal(t, int32(1), parser.calls.Load())
	assert.Equal(t, 1, m.Cache().Controllers().Len())
}

func TestManager_SharedCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)
	cache := catalog.NewCache(4)

	a := catalog.NewManager(catalog.WithCache(cache))
	b := catalog.NewManager(catalog.WithCache(cache))

	_, err := a.ResolveVehicle(context.Background(), vehicleRef("car"), xosc.NewDirectory(dir))
	require.NoError(t, err)
	_, err = b.ResolveVehicle(context.Background(), vehicleRef("car"), xosc.NewDirectory(dir))
	require.NoError(t, err)

	assert.Equal(t, 1, cache.Files().Len())
	assert.Equal(t, uint64(1), cache.Stats().Hits)
}

func TestManager_ConcurrentDistinctKeys(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)
	m := catalog.NewManager()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, entry := range []string{"car", "truck"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.ResolveVehicle(context.Background(), vehicleRef(entry), xosc.NewDirectory(dir))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Empty(t, m.Resolver().InFlight())
}
