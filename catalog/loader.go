// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	_ "crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"

	"github.com/openxosc/xosc-core/logging"
	"github.com/openxosc/xosc-core/xosc"
)

// DefaultExtension is the file extension of catalog files.
const DefaultExtension = ".xosc"

// Located is an entry together with the file it was read from.
type Located[E xosc.Entity] struct {
	Entity E
	Path   string
	// Catalog is the name of the catalog the entry belongs to.
	Catalog string
}

// Loader discovers and parses catalog files, consulting and populating a
// Cache.
type Loader struct {
	cache     *Cache
	parser    xosc.Parser
	extension string
	logger    *slog.Logger

	group singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithParser sets the catalog document parser. The default is xosc.XMLParser.
func WithParser(p xosc.Parser) LoaderOption {
	return func(l *Loader) {
		l.parser = p
	}
}

// WithFileExtension sets the extension catalog files must have, including
// the leading dot. The comparison ignores case.
func WithFileExtension(ext string) LoaderOption {
	return func(l *Loader) {
		l.extension = ext
	}
}

// WithLoaderLogger sets the logger. The default discards output.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a loader backed by cache. A nil cache gets a private
// cache of DefaultCacheCapacity.
func NewLoader(cache *Cache, opts ...LoaderOption) *Loader {
	l := &Loader{
		cache:     cache,
		parser:    xosc.XMLParser{},
		extension: DefaultExtension,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.cache == nil {
		l.cache = NewCache(DefaultCacheCapacity)
	}
	if l.logger == nil {
		l.logger = logging.Discard()
	}
	return l
}

// Cache returns the loader's cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Extension returns the catalog file extension.
func (l *Loader) Extension() string {
	return l.extension
}

// IsCatalogFile reports whether path has the catalog file extension.
func (l *Loader) IsCatalogFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), l.extension)
}

// DiscoverCatalogFiles lists the catalog files directly inside dir, sorted
// by path. The directory path must be a literal.
func (l *Loader) DiscoverCatalogFiles(dir xosc.Directory) ([]string, error) {
	path, ok := dir.Path.Get()
	if !ok {
		return nil, &DiscoveryError{
			Path:   dir.Path.String(),
			Reason: "parameterized directory paths are not supported",
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &DiscoveryError{Path: path, Reason: "cannot stat directory", Err: err}
	}
	if !info.IsDir() {
		return nil, &DiscoveryError{Path: path, Reason: "not a directory"}
	}

	children, err := os.ReadDir(path)
	if err != nil {
		return nil, &DiscoveryError{Path: path, Reason: "cannot list directory", Err: err}
	}

	var files []string
	for _, child := range children {
		if !child.Type().IsRegular() && child.Type()&fs.ModeSymlink == 0 {
			continue
		}
		if !l.IsCatalogFile(child.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, child.Name()))
	}
	slices.Sort(files)

	l.logger.Debug("discovered catalog files", "directory", path, "count", len(files))
	return files, nil
}

// LoadAndParseCatalogFile returns the parsed catalog file at path. A cached
// parse is reused while the file content is unchanged; concurrent loads of
// the same path share one parse.
func (l *Loader) LoadAndParseCatalogFile(ctx context.Context, path string) (*xosc.CatalogFile, error) {
	data, dgst, err := l.readFile(ctx, path)
	if err != nil {
		return nil, err
	}
	entry, err := l.parseFile(path, data, dgst)
	if err != nil {
		return nil, err
	}
	return entry.File, nil
}

func (l *Loader) readFile(ctx context.Context, path string) ([]byte, digest.Digest, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	// #nosec G304 -- path comes from catalog discovery or the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", &ParseError{Path: path, Err: err}
	}
	return data, digest.FromBytes(data), nil
}

// parseFile returns a private copy of the parsed content of path.
func (l *Loader) parseFile(path string, data []byte, dgst digest.Digest) (FileEntry, error) {
	if cached, ok := l.cache.Files().Get(path); ok {
		if cached.Digest == dgst {
			l.logger.Debug("catalog file cache hit", "path", path, "digest", dgst)
			return cached, nil
		}
		l.logger.Debug("catalog file changed", "path", path, "cached", cached.Digest, "digest", dgst)
		l.cache.InvalidateFile(path)
	}

	v, err, shared := l.group.Do(path+"@"+dgst.String(), func() (any, error) {
		file, err := l.parser.Parse(data)
		if err != nil {
			return nil, err
		}
		if file == nil || file.Catalog == nil {
			return nil, xosc.ErrNoCatalog
		}
		entry := FileEntry{Digest: dgst, File: file}
		l.cache.Files().put(path, path, entry)
		return entry, nil
	})
	if err != nil {
		return FileEntry{}, &ParseError{Path: path, Err: err}
	}
	l.logger.Debug("parsed catalog file", "path", path, "digest", dgst, "shared", shared)

	return cloneFileEntry(v.(FileEntry)), nil
}

// LoadEntries returns every entry of kind E in the catalog files of dir, in
// scan order. Entries with the same name are all returned.
func LoadEntries[E xosc.Entity](ctx context.Context, l *Loader, dir xosc.Directory) ([]Located[E], error) {
	paths, err := l.DiscoverCatalogFiles(dir)
	if err != nil {
		return nil, err
	}

	var out []Located[E]
	for _, path := range paths {
		catalogName, entries, err := loadFileEntries[E](ctx, l, path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			out = append(out, Located[E]{Entity: e, Path: path, Catalog: catalogName})
		}
	}
	return out, nil
}

// loadFileEntries returns the catalog name and the entries of kind E in one
// file. Kinds with a typed store are memoized per file content.
func loadFileEntries[E xosc.Entity](ctx context.Context, l *Loader, path string) (string, []E, error) {
	data, dgst, err := l.readFile(ctx, path)
	if err != nil {
		return "", nil, err
	}

	var (
		loaded any
		zero   E
	)
	switch any(zero).(type) {
	case xosc.Controller:
		loaded, err = loadTyped(l, l.cache.Controllers(), path, data, dgst)
	case xosc.Trajectory:
		loaded, err = loadTyped(l, l.cache.Trajectories(), path, data, dgst)
	case xosc.Route:
		loaded, err = loadTyped(l, l.cache.Routes(), path, data, dgst)
	case xosc.Environment:
		loaded, err = loadTyped(l, l.cache.Environments(), path, data, dgst)
	default:
		var entry FileEntry
		entry, err = l.parseFile(path, data, dgst)
		if err == nil {
			loaded = CatalogEntries[E]{
				Catalog: entry.File.Catalog.Name,
				Entries: xosc.EntriesOf[E](entry.File.Catalog),
			}
		}
	}
	if err != nil {
		return "", nil, err
	}

	entries, ok := loaded.(CatalogEntries[E])
	if !ok {
		return "", nil, fmt.Errorf("catalog: unexpected %T for %s entries", loaded, zero.Kind())
	}
	return entries.Catalog, entries.Entries, nil
}

// loadTyped returns the entries of kind E in path from store, keyed by path
// and content digest.
func loadTyped[E xosc.Entity](
	l *Loader, store *Store[CatalogEntries[E]], path string, data []byte, dgst digest.Digest,
) (CatalogEntries[E], error) {
	key := path + "@" + dgst.String()
	if entries, ok := store.Get(key); ok {
		l.logger.Debug("catalog entry cache hit", "key", key)
		return entries, nil
	}

	entry, err := l.parseFile(path, data, dgst)
	if err != nil {
		return CatalogEntries[E]{}, err
	}
	entries := CatalogEntries[E]{
		Catalog: entry.File.Catalog.Name,
		Entries: xosc.EntriesOf[E](entry.File.Catalog),
	}
	store.put(key, path, entries)
	return entries, nil
}

// LoadVehicleCatalogs returns every vehicle in the catalog files of dir.
func (l *Loader) LoadVehicleCatalogs(ctx context.Context, dir xosc.Directory) ([]Located[xosc.Vehicle], error) {
	return LoadEntries[xosc.Vehicle](ctx, l, dir)
}

// LoadControllerCatalogs returns every controller in the catalog files of dir.
func (l *Loader) LoadControllerCatalogs(ctx context.Context, dir xosc.Directory) ([]Located[xosc.Controller], error) {
	return LoadEntries[xosc.Controller](ctx, l, dir)
}

// LoadPedestrianCatalogs returns every pedestrian in the catalog files of dir.
func (l *Loader) LoadPedestrianCatalogs(ctx context.Context, dir xosc.Directory) ([]Located[xosc.Pedestrian], error) {
	return LoadEntries[xosc.Pedestrian](ctx, l, dir)
}

// LoadMiscObjectCatalogs returns every misc object in the catalog files of dir.
func (l *Loader) LoadMiscObjectCatalogs(ctx context.Context, dir xosc.Directory) ([]Located[xosc.MiscObject], error) {
	return LoadEntries[xosc.MiscObject](ctx, l, dir)
}

// LoadEnvironmentCatalogs returns every environment in the catalog files of dir.
func (l *Loader) LoadEnvironmentCatalogs(ctx context.Context, dir xosc.Directory) ([]Located[xosc.Environment], error) {
	return LoadEntries[xosc.Environment](ctx, l, dir)
}

// LoadManeuverCatalogs returns every maneuver in the catalog files of dir.
func (l *Loader) LoadManeuverCatalogs(ctx context.Context, dir xosc.Directory) ([]Located[xosc.Maneuver], error) {
	return LoadEntries[xosc.Maneuver](ctx, l, dir)
}

// LoadTrajectoryCatalogs returns every trajectory in the catalog files of dir.
func (l *Loader) LoadTrajectoryCatalogs(ctx context.Context, dir xosc.Directory) ([]Located[xosc.Trajectory], error) {
	return LoadEntries[xosc.Trajectory](ctx, l, dir)
}

// LoadRouteCatalogs returns every route in the catalog files of dir.
func (l *Loader) LoadRouteCatalogs(ctx context.Context, dir xosc.Directory) ([]Located[xosc.Route], error) {
	return LoadEntries[xosc.Route](ctx, l, dir)
}
