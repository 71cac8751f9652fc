// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/openxosc/xosc-core/logging"
	"github.com/openxosc/xosc-core/param"
	"github.com/openxosc/xosc-core/validation/name"
	"github.com/openxosc/xosc-core/xosc"
)

// ErrNoLocation is returned when no catalog directory is configured for the
// kind of a reference.
var ErrNoLocation = errors.New("no catalog location configured")

// DuplicatePolicy decides what happens when an entry name is defined more
// than once among the scanned catalog files.
type DuplicatePolicy int

const (
	// DuplicateError fails the resolution with a DuplicateEntryError.
	DuplicateError DuplicatePolicy = iota
	// DuplicateFirstMatch uses the first definition in sorted file order.
	DuplicateFirstMatch
)

// ParseDuplicatePolicy parses "error" or "first-match".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return DuplicateError, nil
	case "first-match", "firstmatch", "first":
		return DuplicateFirstMatch, nil
	}
	return DuplicateError, fmt.Errorf("unknown duplicate policy %q", s)
}

func (p DuplicatePolicy) String() string {
	if p == DuplicateFirstMatch {
		return "first-match"
	}
	return "error"
}

// ResolvedCatalog is a specialized entry and the metadata of its resolution.
// It is produced fresh for every call and never cached.
type ResolvedCatalog[E xosc.Entity] struct {
	Entity      E
	SourcePath  string
	CatalogName string
	EntryName   string
	// Parameters is the parameter map the entry was specialized with.
	Parameters map[string]string
}

// Manager resolves catalog references into specialized entities.
//
// Managers created with Scoped share the cache, loader and resolver of their
// parent but have their own parameter context.
type Manager struct {
	cache     *Cache
	loader    *Loader
	resolver  *Resolver
	params    *param.Engine
	logger    *slog.Logger
	policy    DuplicatePolicy
	locations xosc.CatalogLocations

	// matchCatalog also requires the declaring catalog's name to match.
	matchCatalog bool

	extension string
	capacity  int
}

// Option configures a Manager.
type Option func(*Manager)

// WithCache shares an existing cache.
func WithCache(c *Cache) Option {
	return func(m *Manager) {
		m.cache = c
	}
}

// WithLoader sets the loader. Its cache becomes the manager's cache.
func WithLoader(l *Loader) Option {
	return func(m *Manager) {
		m.loader = l
	}
}

// WithParameters sets the ambient parameter context.
func WithParameters(e *param.Engine) Option {
	return func(m *Manager) {
		m.params = e
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDuplicatePolicy sets how duplicate entry names are handled. The
// default is DuplicateError.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(m *Manager) {
		m.policy = p
	}
}

// WithCatalogNameMatch requires an entry's declaring catalog to carry the
// reference's catalog name. By default entries are matched on entry name
// alone across every catalog file in the directory.
func WithCatalogNameMatch(enabled bool) Option {
	return func(m *Manager) {
		m.matchCatalog = enabled
	}
}

// WithExtension sets the catalog file extension of the default loader.
func WithExtension(ext string) Option {
	return func(m *Manager) {
		m.extension = ext
	}
}

// WithCacheCapacity sets the capacity of the default cache.
func WithCacheCapacity(n int) Option {
	return func(m *Manager) {
		m.capacity = n
	}
}

// WithLocations sets the directories used by ResolveConfigured.
func WithLocations(locs xosc.CatalogLocations) Option {
	return func(m *Manager) {
		m.locations = maps.Clone(locs)
	}
}

// NewManager creates a manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		extension: DefaultExtension,
		capacity:  DefaultCacheCapacity,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = logging.Discard()
	}
	if m.loader != nil {
		m.cache = m.loader.Cache()
	} else {
		if m.cache == nil {
			m.cache = NewCache(m.capacity)
		}
		m.loader = NewLoader(m.cache, WithFileExtension(m.extension), WithLoaderLogger(m.logger))
	}
	if m.params == nil {
		m.params = param.NewEngine()
	}
	m.resolver = NewResolver()
	return m
}

// Scoped returns a manager handle whose parameter context is this manager's
// context overlaid with extra. The cache, loader and resolver are shared.
func (m *Manager) Scoped(extra map[string]string) *Manager {
	child := *m
	child.params = m.params.WithAdditionalContext(extra)
	return &child
}

// Parameters returns the ambient parameter context.
func (m *Manager) Parameters() *param.Engine { return m.params }

// Cache returns the shared cache.
func (m *Manager) Cache() *Cache { return m.cache }

// Loader returns the loader.
func (m *Manager) Loader() *Loader { return m.loader }

// Resolver returns the cycle guard.
func (m *Manager) Resolver() *Resolver { return m.resolver }

// MatchesCatalogName reports whether lookups also match the catalog name.
func (m *Manager) MatchesCatalogName() bool { return m.matchCatalog }

// Locations returns a copy of the configured catalog locations.
func (m *Manager) Locations() xosc.CatalogLocations { return maps.Clone(m.locations) }

// Resolve turns ref into a specialized entity read from the catalog files in
// loc.
//
// The reference's catalog and entry names are resolved against the ambient
// parameters, the entry is looked up by name among all entries of the kind
// in loc (and of the named catalog only, with WithCatalogNameMatch), the
// reference's parameter assignments are resolved against the
// ambient parameters and the entry is specialized with the ambient
// parameters overlaid with the assignments. The resolution either succeeds
// completely or fails with an error naming the resolution key; the cycle
// guard is released in both cases.
func Resolve[E xosc.Specializer[E]](
	ctx context.Context, m *Manager, ref xosc.CatalogReference[E], loc xosc.Directory,
) (*ResolvedCatalog[E], error) {
	kind := ref.Kind()

	catalogName, err := param.Resolve(m.params, ref.CatalogName())
	if err != nil {
		return nil, fmt.Errorf("resolving %s reference catalog name: %w", kind, err)
	}
	entryName, err := param.Resolve(m.params, ref.EntryName())
	if err != nil {
		return nil, fmt.Errorf("resolving %s reference entry name: %w", kind, err)
	}
	key := ResolutionKey(kind, catalogName, entryName)

	release, err := m.resolver.Guard(key)
	if err != nil {
		return nil, err
	}
	defer release()

	resolved, err := resolveGuarded(ctx, m, ref, loc, catalogName, entryName)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", key, err)
	}

	m.logger.Debug("resolved catalog reference", "key", key, "path", resolved.SourcePath)
	return resolved, nil
}

func resolveGuarded[E xosc.Specializer[E]](
	ctx context.Context, m *Manager, ref xosc.CatalogReference[E], loc xosc.Directory,
	catalogName, entryName string,
) (*ResolvedCatalog[E], error) {
	located, err := LoadEntries[E](ctx, m.loader, loc)
	if err != nil {
		return nil, err
	}

	match, err := selectEntry(located, m.policy, m.matchCatalog, ref.Kind(), catalogName, entryName, loc)
	if err != nil {
		return nil, err
	}

	assigned, err := m.assignments(ref.ParameterAssignments())
	if err != nil {
		return nil, err
	}

	entity, err := param.Substitute(m.params, param.Specializer[E](match.Entity), assigned)
	if err != nil {
		return nil, err
	}

	applied := m.params.Parameters()
	maps.Copy(applied, assigned)

	return &ResolvedCatalog[E]{
		Entity:      entity,
		SourcePath:  match.Path,
		CatalogName: catalogName,
		EntryName:   entryName,
		Parameters:  applied,
	}, nil
}

func selectEntry[E xosc.Entity](
	located []Located[E], policy DuplicatePolicy, matchCatalog bool,
	kind xosc.Kind, catalogName, entryName string, loc xosc.Directory,
) (Located[E], error) {
	var matches []Located[E]
	for _, l := range located {
		if l.Entity.EntryName() != entryName {
			continue
		}
		if matchCatalog && l.Catalog != catalogName {
			continue
		}
		matches = append(matches, l)
	}

	switch {
	case len(matches) == 0:
		return Located[E]{}, &LookupError{
			Kind:      kind,
			Catalog:   catalogName,
			Entry:     entryName,
			Directory: loc.Path.String(),
		}
	case len(matches) > 1 && policy == DuplicateError:
		paths := make([]string, len(matches))
		for i, l := range matches {
			paths[i] = l.Path
		}
		return Located[E]{}, &DuplicateEntryError{Kind: kind, Entry: entryName, Paths: paths}
	}
	return matches[0], nil
}

// assignments resolves each assignment's name and value against the ambient
// parameters.
func (m *Manager) assignments(in []xosc.ParameterAssignment) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for _, a := range in {
		paramName, err := param.Resolve(m.params, a.ParameterRef)
		if err != nil {
			return nil, fmt.Errorf("parameter assignment %s: %w", a.ParameterRef, err)
		}
		if err := name.ValidateParameter(paramName); err != nil {
			return nil, fmt.Errorf("parameter assignment %s: %w: %w", a.ParameterRef, param.ErrInvalidName, err)
		}
		value, err := param.Resolve(m.params, a.Value)
		if err != nil {
			return nil, fmt.Errorf("parameter assignment %s: %w", paramName, err)
		}
		out[paramName] = value
	}
	return out, nil
}

// ResolveConfigured resolves ref in the location configured for its kind.
func ResolveConfigured[E xosc.Specializer[E]](
	ctx context.Context, m *Manager, ref xosc.CatalogReference[E],
) (*ResolvedCatalog[E], error) {
	loc, ok := m.locations.Lookup(ref.Kind())
	if !ok {
		return nil, fmt.Errorf("%w for %s catalogs", ErrNoLocation, ref.Kind())
	}
	return Resolve(ctx, m, ref, loc)
}

// ResolveVehicle resolves a vehicle reference.
func (m *Manager) ResolveVehicle(
	ctx context.Context, ref xosc.CatalogReference[xosc.Vehicle], loc xosc.Directory,
) (*ResolvedCatalog[xosc.Vehicle], error) {
	return Resolve(ctx, m, ref, loc)
}

// ResolveController resolves a controller reference.
func (m *Manager) ResolveController(
	ctx context.Context, ref xosc.CatalogReference[xosc.Controller], loc xosc.Directory,
) (*ResolvedCatalog[xosc.Controller], error) {
	return Resolve(ctx, m, ref, loc)
}

// ResolvePedestrian resolves a pedestrian reference.
func (m *Manager) ResolvePedestrian(
	ctx context.Context, ref xosc.CatalogReference[xosc.Pedestrian], loc xosc.Directory,
) (*ResolvedCatalog[xosc.Pedestrian], error) {
	return Resolve(ctx, m, ref, loc)
}

// ResolveMiscObject resolves a misc object reference.
func (m *Manager) ResolveMiscObject(
	ctx context.Context, ref xosc.CatalogReference[xosc.MiscObject], loc xosc.Directory,
) (*ResolvedCatalog[xosc.MiscObject], error) {
	return Resolve(ctx, m, ref, loc)
}

// ResolveEnvironment resolves an environment reference.
func (m *Manager) ResolveEnvironment(
	ctx context.Context, ref xosc.CatalogReference[xosc.Environment], loc xosc.Directory,
) (*ResolvedCatalog[xosc.Environment], error) {
	return Resolve(ctx, m, ref, loc)
}

// ResolveManeuver resolves a maneuver reference.
func (m *Manager) ResolveManeuver(
	ctx context.Context, ref xosc.CatalogReference[xosc.Maneuver], loc xosc.Directory,
) (*ResolvedCatalog[xosc.Maneuver], error) {
	return Resolve(ctx, m, ref, loc)
}

// ResolveTrajectory resolves a trajectory reference.
func (m *Manager) ResolveTrajectory(
	ctx context.Context, ref xosc.CatalogReference[xosc.Trajectory], loc xosc.Directory,
) (*ResolvedCatalog[xosc.Trajectory], error) {
	return Resolve(ctx, m, ref, loc)
}

// ResolveRoute resolves a route reference.
func (m *Manager) ResolveRoute(
	ctx context.Context, ref xosc.CatalogReference[xosc.Route], loc xosc.Directory,
) (*ResolvedCatalog[xosc.Route], error) {
	return Resolve(ctx, m, ref, loc)
}
