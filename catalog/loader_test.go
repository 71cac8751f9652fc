// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package catalog_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openxosc/xosc-core/catalog"
	"github.com/openxosc/xosc-core/param"
	"github.com/openxosc/xosc-core/xosc"
)

const vehicleCatalog = `<?xml version="1.0" encoding="UTF-8"?>
<OpenSCENARIO>
  <FileHeader revMajor="1" revMinor="2" date="2026-01-01T00:00:00" description="vehicles" author="test"/>
  <Catalog name="VehicleCatalog">
    <Vehicle name="car" vehicleCategory="car" mass="1500">
      <ParameterDeclarations>
        <ParameterDeclaration name="MaxSpeedParam" parameterType="double" value="69.4">
          <ConstraintGroup>
            <ValueConstraint rule="greaterThan" value="0"/>
            <ValueConstraint rule="lessOrEqual" value="100"/>
          </ConstraintGroup>
        </ParameterDeclaration>
        <ParameterDeclaration name="Color" parameterType="string" value="red"/>
      </ParameterDeclarations>
      <Performance maxSpeed="${MaxSpeedParam}" maxAcceleration="${$MaxSpeedParam / 10}" maxDeceleration="9.5"/>
      <BoundingBox>
        <Center x="1.4" y="0" z="0.75"/>
        <Dimensions width="1.8" length="4.5" height="1.5"/>
      </BoundingBox>
      <Properties>
        <Property name="color" value="$Color"/>
      </Properties>
    </Vehicle>
    <Vehicle name="truck" vehicleCategory="truck" mass="9000">
      <Performance maxSpeed="25" maxAcceleration="2" maxDeceleration="6"/>
    </Vehicle>
  </Catalog>
</OpenSCENARIO>`

const controllerCatalog = `<?xml version="1.0" encoding="UTF-8"?>
<OpenSCENARIO>
  <FileHeader revMajor="1" revMinor="2" date="2026-01-01T00:00:00" description="controllers" author="test"/>
  <Catalog name="ControllerCatalog">
    <Controller name="driver">
      <ParameterDeclarations>
        <ParameterDeclaration name="Mode" parameterType="string" value="normal"/>
      </ParameterDeclarations>
      <Properties>
        <Property name="mode" value="$Mode"/>
      </Properties>
    </Controller>
  </Catalog>
</OpenSCENARIO>`

// truckCatalog returns a vehicle catalog with a single truck of the given mass.
func truckCatalog(catalogName, mass string) string {
	return `<OpenSCENARIO><Catalog name="` + catalogName + `">` +
		`<Vehicle name="truck" vehicleCategory="truck" mass="` + mass + `">` +
		`<Performance maxSpeed="25" maxAcceleration="2" maxDeceleration="6"/>` +
		`</Vehicle></Catalog></OpenSCENARIO>`
}

func writeCatalog(t *testing.T, dir, fileName, content string) string {
	t.Helper()
	path := filepath.Join(dir, fileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

type countingParser struct {
	calls atomic.Int32
}

func (p *countingParser) Parse(data []byte) (*xosc.CatalogFile, error) {
	p.calls.Add(1)
	return xosc.XMLParser{}.Parse(data)
}

func TestLoader_DiscoverCatalogFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "b.xosc", vehicleCatalog)
	writeCatalog(t, dir, "a.xosc", vehicleCatalog)
	writeCatalog(t, dir, "c.txt", "not a catalog")
	writeCatalog(t, dir, "D.XOSC", vehicleCatalog)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.xosc"), 0o700))
	writeCatalog(t, filepath.Join(dir, "nested.xosc"), "deep.xosc", vehicleCatalog)

	l := catalog.NewLoader(nil)
	files, err := l.DiscoverCatalogFiles(xosc.NewDirectory(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "D.XOSC"),
		filepath.Join(dir, "a.xosc"),
		filepath.Join(dir, "b.xosc"),
	}, files)

	again, err := l.DiscoverCatalogFiles(xosc.NewDirectory(dir))
	require.NoError(t, err)
	assert.Equal(t, files, again)
}

func TestLoader_DiscoverCatalogFiles_Extension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "a.xosc", vehicleCatalog)
	writeCatalog(t, dir, "b.cat", vehicleCatalog)

	l := catalog.NewLoader(nil, catalog.WithFileExtension(".cat"))
	files, err := l.DiscoverCatalogFiles(xosc.NewDirectory(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.cat")}, files)
	assert.Equal(t, ".cat", l.Extension())
}

func TestLoader_DiscoverCatalogFiles_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeCatalog(t, dir, "a.xosc", vehicleCatalog)

	tests := []struct {
		name    string
		dir     xosc.Directory
		wantErr error
	}{
		{
			name: "parameterized path",
			dir:  xosc.Directory{Path: param.Ref[string]("CatalogDir")},
		},
		{
			name:    "missing directory",
			dir:     xosc.NewDirectory(filepath.Join(dir, "missing")),
			wantErr: fs.ErrNotExist,
		},
		{
			name: "file instead of directory",
			dir:  xosc.NewDirectory(file),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			files, err := catalog.NewLoader(nil).DiscoverCatalogFiles(tt.dir)
			require.Error(t, err)
			assert.Nil(t, files)
			assert.ErrorIs(t, err, catalog.ErrDiscovery)

			var discErr *catalog.DiscoveryError
			require.True(t, errors.As(err, &discErr))
			assert.NotEmpty(t, discErr.Reason)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoader_LoadAndParseCatalogFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)
	parser := &countingParser{}
	l := catalog.NewLoader(catalog.NewCache(10), catalog.WithParser(parser))

	first, err := l.LoadAndParseCatalogFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "VehicleCatalog", first.Catalog.Name)

	first.Catalog.Name = "mutated"

	second, err := l.LoadAndParseCatalogFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "VehicleCatalog", second.Catalog.Name)
	assert.Equal(t, int32(1), parser.calls.Load())
	assert.Equal(t, uint64(1), l.Cache().Stats().Hits)

	writeCatalog(t, dir, "vehicles.xosc", truckCatalog("Trucks", "9000"))
	third, err := l.LoadAndParseCatalogFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Trucks", third.Catalog.Name)
	assert.Equal(t, int32(2), parser.calls.Load())
	assert.Equal(t, 1, l.Cache().Files().Len())
}

func TestLoader_LoadAndParseCatalogFile_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{
			name: "malformed xml",
			path: writeCatalog(t, dir, "broken.xosc", "<OpenSCENARIO><Catalog"),
		},
		{
			name:    "no catalog element",
			path:    writeCatalog(t, dir, "empty.xosc", "<OpenSCENARIO></OpenSCENARIO>"),
			wantErr: xosc.ErrNoCatalog,
		},
		{
			name:    "missing file",
			path:    filepath.Join(dir, "missing.xosc"),
			wantErr: fs.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := catalog.NewLoader(catalog.NewCache(10))
			f, err := l.LoadAndParseCatalogFile(context.Background(), tt.path)
			require.Error(t, err)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, catalog.ErrParse)
			assert.Contains(t, err.Error(), tt.path)

			var parseErr *catalog.ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.path, parseErr.Path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Zero(t, l.Cache().Files().Len())
		})
	}
}

func TestLoader_CanceledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := catalog.NewLoader(nil).LoadVehicleCatalogs(ctx, xosc.NewDirectory(dir))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_LoadEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "b.xosc", truckCatalog("Trucks", "12000"))
	writeCatalog(t, dir, "a.xosc", vehicleCatalog)
	writeCatalog(t, dir, "c.xosc", controllerCatalog)

	l := catalog.NewLoader(nil)
	vehicles, err := l.LoadVehicleCatalogs(context.Background(), xosc.NewDirectory(dir))
	require.NoError(t, err)

	require.Len(t, vehicles, 3)
	names := make([]string, len(vehicles))
	for i, v := range vehicles {
		names[i] = v.Catalog + "/" + v.Entity.EntryName() + "@" + filepath.Base(v.Path)
	}
	assert.Equal(t, []string{
		"VehicleCatalog/car@a.xosc",
		"VehicleCatalog/truck@a.xosc",
		"Trucks/truck@b.xosc",
	}, names)

	routes, err := l.LoadRouteCatalogs(context.Background(), xosc.NewDirectory(dir))
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestLoader_TypedStores(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeCatalog(t, dir, "controllers.xosc", controllerCatalog)
	parser := &countingParser{}
	l := catalog.NewLoader(catalog.NewCache(10), catalog.WithParser(parser))

	for range 3 {
		controllers, err := l.LoadControllerCatalogs(context.Background(), xosc.NewDirectory(dir))
		require.NoError(t, err)
		require.Len(t, controllers, 1)
		assert.Equal(t, "driver", controllers[0].Entity.EntryName())
		assert.Equal(t, "ControllerCatalog", controllers[0].Catalog)
		assert.Equal(t, path, controllers[0].Path)
	}

	assert.Equal(t, int32(1), parser.calls.Load())
	keys := l.Cache().Controllers().Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], path+"@sha256:"), keys[0])

	assert.Equal(t, 2, l.Cache().InvalidateFile(path))
	assert.Zero(t, l.Cache().Controllers().Len())
	assert.Zero(t, l.Cache().Files().Len())
}

func TestLoader_ConcurrentLoads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCatalog(t, dir, "vehicles.xosc", vehicleCatalog)
	writeCatalog(t, dir, "controllers.xosc", controllerCatalog)
	l := catalog.NewLoader(catalog.NewCache(10))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = l.LoadVehicleCatalogs(context.Background(), xosc.NewDirectory(dir))
			} else {
				_, err = l.LoadControllerCatalogs(context.Background(), xosc.NewDirectory(dir))
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 2, l.Cache().Files().Len())
}
