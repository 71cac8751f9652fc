// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/openxosc/xosc-core/xosc"
)

// Inspect returns the metadata of the bundle manifest d.
func Inspect(ctx context.Context, store *Store, d digest.Digest) (*BundleConfig, error) {
	manifest, err := bundleManifest(ctx, store, d)
	if err != nil {
		return nil, err
	}
	return bundleConfig(ctx, store, manifest)
}

// Extract writes the catalog files of the bundle manifest d into dest and
// returns the metadata together with dest as a catalog directory, ready for
// a catalog.Manager location.
func Extract(ctx context.Context, store *Store, d digest.Digest, dest string) (*BundleConfig, xosc.Directory, error) {
	manifest, err := bundleManifest(ctx, store, d)
	if err != nil {
		return nil, xosc.Directory{}, err
	}
	cfg, err := bundleConfig(ctx, store, manifest)
	if err != nil {
		return nil, xosc.Directory{}, err
	}

	layer, err := store.GetBlob(ctx, manifest.Layers[0].Digest)
	if err != nil {
		return nil, xosc.Directory{}, err
	}
	files, err := ExtractArchive(layer)
	if err != nil {
		return nil, xosc.Directory{}, fmt.Errorf("extracting bundle %s: %w", d, err)
	}

	if err := os.MkdirAll(dest, 0o750); err != nil {
		return nil, xosc.Directory{}, fmt.Errorf("creating %s: %w", dest, err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dest, f.Name), f.Content, 0o600); err != nil {
			return nil, xosc.Directory{}, fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	return cfg, xosc.NewDirectory(dest), nil
}

func bundleManifest(ctx context.Context, store *Store, d digest.Digest) (*ocispec.Manifest, error) {
	manifest, err := store.GetManifest(ctx, d)
	if err != nil {
		return nil, err
	}
	if manifest.ArtifactType != ArtifactTypeCatalogBundle {
		return nil, fmt.Errorf("%w: %s has artifact type %q", ErrNotBundle, d, manifest.ArtifactType)
	}
	if len(manifest.Layers) != 1 {
		return nil, fmt.Errorf("%w: %s has %d layers", ErrNotBundle, d, len(manifest.Layers))
	}
	return manifest, nil
}

func bundleConfig(ctx context.Context, store *Store, manifest *ocispec.Manifest) (*BundleConfig, error) {
	data, err := store.GetBlob(ctx, manifest.Config.Digest)
	if err != nil {
		return nil, err
	}
	var image ocispec.Image
	if err := json.Unmarshal(data, &image); err != nil {
		return nil, fmt.Errorf("parsing image config: %w", err)
	}
	return BundleConfigFromImageConfig(&image)
}
