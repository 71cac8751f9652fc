// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package catalog resolves catalog references into specialized entities.

A Manager ties the pieces together:

	m := catalog.NewManager(catalog.WithCacheCapacity(50))

	ref := xosc.NewCatalogReference[xosc.Vehicle](
		param.Literal("VehicleCatalog"),
		param.Literal("car"),
		xosc.Assign("MaxSpeedParam", "80.0"),
	)
	resolved, err := catalog.Resolve(ctx, m, ref, xosc.NewDirectory("catalogs/vehicles"))

Resolve rescans the directory on every call. The Loader lists the catalog
files directly inside it in sorted order and parses each one, reusing a
cached parse while the file's content digest is unchanged. The entry is
looked up by catalog and entry name, the reference's parameter assignments
are resolved against the manager's ambient parameters, and the entry is
specialized with the ambient parameters overlaid with the assignments.

# Cache

Cache holds five stores: controllers, trajectories, routes, environments
and parsed files. Each store is bounded by the cache capacity and evicts the
entry that was read least recently. Values are copied on the way in and on
the way out. A Watcher invalidates entries of files that change on disk.

# Cycles

Each resolution is bracketed by the Resolver under the key
"{kind}:{catalog}:{entry}". Re-entering a key that is still in flight fails
with a CycleError. The key is released on every return path, so a failed
resolution can be retried.

# Duplicates

An entry name defined in more than one scanned file is an error by default.
WithDuplicatePolicy(DuplicateFirstMatch) selects the first definition in
sorted file order instead.
*/
package catalog
