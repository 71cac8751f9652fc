// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundle distributes catalog directories as OCI artifacts kept in
// local OCI Image Layouts.
//
// A bundle is a single image manifest with artifact type
// [ArtifactTypeCatalogBundle]. Its one layer is a reproducible tar.gz of the
// catalog files, and its config labels summarize the catalogs and entries
// inside. [Packager] validates every file with a catalog.Loader before
// packaging, [Store] keeps bundles in a layout directory, [Transfer] copies a
// bundle between layouts (for example onto removable media or a shared
// mount) and [Verify] checks it, and [Extract] unpacks a bundle into a
// directory a catalog.Manager can use as a catalog location:
//
//	media, _ := bundle.NewStore("/mnt/rig/bundles")
//	d, _ := bundle.Transfer(ctx, store, media, "v1")
//	_, dir, _ := bundle.Extract(ctx, media, d, workDir)
//	m := catalog.NewManager(catalog.WithLocations(xosc.CatalogLocations{
//		xosc.KindVehicle: dir,
//	}))
//
// Nothing in this package talks to a network.
package bundle
