// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/opencontainers/go-digest"
	specs "github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/openxosc/xosc-core/catalog"
	"github.com/openxosc/xosc-core/env"
	"github.com/openxosc/xosc-core/validation/name"
	"github.com/openxosc/xosc-core/xosc"
)

// EnvSourceDateEpoch pins the bundle timestamp for reproducible builds.
const EnvSourceDateEpoch = "SOURCE_DATE_EPOCH"

// PackageOptions configures bundle packaging.
type PackageOptions struct {
	// Name is required; see name.ValidateBundle.
	Name        string
	Version     string
	Description string

	// Epoch stamps the archive entries, the config and the manifest.
	Epoch time.Time

	// Tag, when set, tags the manifest in the store.
	Tag string
}

// PackageResult describes a packaged bundle.
type PackageResult struct {
	ManifestDigest digest.Digest
	ConfigDigest   digest.Digest
	LayerDigest    digest.Digest
	Config         *BundleConfig
}

// Packager builds reproducible catalog bundles from catalog directories.
type Packager struct {
	store  *Store
	loader *catalog.Loader
}

// NewPackager creates a packager writing to store. Catalog files are found
// and validated with loader; a nil loader gets a default one.
// Panics if store is nil.
func NewPackager(store *Store, loader *catalog.Loader) *Packager {
	if store == nil {
		panic("bundle: NewPackager called with nil store")
	}
	if loader == nil {
		loader = catalog.NewLoader(nil)
	}
	return &Packager{store: store, loader: loader}
}

// DefaultPackageOptions returns options for the bundle name. The epoch is
// taken from SOURCE_DATE_EPOCH when reader has a valid value.
func DefaultPackageOptions(bundleName string, reader env.Reader) PackageOptions {
	epoch := time.Unix(0, 0).UTC()
	if sde, ok := reader.LookupEnv(EnvSourceDateEpoch); ok && sde != "" {
		if ts, err := strconv.ParseInt(sde, 10, 64); err == nil {
			epoch = time.Unix(ts, 0).UTC()
		}
	}
	return PackageOptions{Name: bundleName, Epoch: epoch}
}

// Package bundles the catalog files of dir into the store. Every file must
// parse as a catalog; packaging the same files with the same options yields
// the same digests.
func (p *Packager) Package(ctx context.Context, dir xosc.Directory, opts PackageOptions) (*PackageResult, error) {
	if err := name.ValidateBundle(opts.Name); err != nil {
		return nil, err
	}
	if opts.Epoch.IsZero() {
		opts.Epoch = time.Unix(0, 0).UTC()
	}
	opts.Epoch = opts.Epoch.UTC()

	paths, err := p.loader.DiscoverCatalogFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyBundle, dir.Path)
	}

	cfg := &BundleConfig{Name: opts.Name, Version: opts.Version, Description: opts.Description}
	files := make([]ArchiveFile, 0, len(paths))
	for _, path := range paths {
		parsed, err := p.loader.LoadAndParseCatalogFile(ctx, path)
		if err != nil {
			return nil, err
		}
		// #nosec G304 -- path was discovered in the bundled directory
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		base := filepath.Base(path)
		files = append(files, ArchiveFile{Name: base, Content: content})
		cfg.Catalogs = append(cfg.Catalogs, summarize(base, parsed))
	}

	layer, uncompressed, err := CreateArchive(files, opts.Epoch)
	if err != nil {
		return nil, fmt.Errorf("creating bundle layer: %w", err)
	}
	layerDigest, err := p.store.PutBlob(ctx, layer)
	if err != nil {
		return nil, fmt.Errorf("storing layer blob: %w", err)
	}

	image, err := imageConfig(cfg, uncompressed, opts.Epoch)
	if err != nil {
		return nil, err
	}
	configBytes, err := json.Marshal(image)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	configDigest, err := p.store.PutBlob(ctx, configBytes)
	if err != nil {
		return nil, fmt.Errorf("storing config blob: %w", err)
	}

	manifest := &ocispec.Manifest{
		Versioned:    specs.Versioned{SchemaVersion: 2},
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: ArtifactTypeCatalogBundle,
		Config: ocispec.Descriptor{
			MediaType: ocispec.MediaTypeImageConfig,
			Digest:    configDigest,
			Size:      int64(len(configBytes)),
		},
		Layers: []ocispec.Descriptor{{
			MediaType: ocispec.MediaTypeImageLayerGzip,
			Digest:    layerDigest,
			Size:      int64(len(layer)),
		}},
		Annotations: manifestAnnotations(cfg, opts.Epoch),
	}
	manifestDigest, err := p.store.PutManifest(ctx, manifest)
	if err != nil {
		return nil, fmt.Errorf("storing manifest: %w", err)
	}

	if opts.Tag != "" {
		if err := p.store.Tag(ctx, manifestDigest, opts.Tag); err != nil {
			return nil, err
		}
	}

	return &PackageResult{
		ManifestDigest: manifestDigest,
		ConfigDigest:   configDigest,
		LayerDigest:    layerDigest,
		Config:         cfg,
	}, nil
}

func imageConfig(cfg *BundleConfig, uncompressed []byte, epoch time.Time) (*ocispec.Image, error) {
	catalogs, err := json.Marshal(cfg.Catalogs)
	if err != nil {
		return nil, fmt.Errorf("encoding catalog summaries: %w", err)
	}
	labels := map[string]string{
		LabelBundleName:     cfg.Name,
		LabelBundleCatalogs: string(catalogs),
	}
	if cfg.Version != "" {
		labels[LabelBundleVersion] = cfg.Version
	}
	if cfg.Description != "" {
		labels[LabelBundleDescription] = cfg.Description
	}

	return &ocispec.Image{
		Created: &epoch,
		Config:  ocispec.ImageConfig{Labels: labels},
		RootFS: ocispec.RootFS{
			Type:    "layers",
			DiffIDs: []digest.Digest{digest.FromBytes(uncompressed)},
		},
		History: []ocispec.History{{
			Created:   &epoch,
			CreatedBy: "xosc bundle package",
		}},
	}, nil
}

func manifestAnnotations(cfg *BundleConfig, epoch time.Time) map[string]string {
	annotations := map[string]string{
		ocispec.AnnotationCreated: epoch.Format(time.RFC3339),
		ocispec.AnnotationTitle:   cfg.Name,
		AnnotationBundleName:      cfg.Name,
	}
	if cfg.Version != "" {
		annotations[AnnotationBundleVersion] = cfg.Version
		annotations[ocispec.AnnotationVersion] = cfg.Version
	}
	if cfg.Description != "" {
		annotations[AnnotationBundleDescription] = cfg.Description
		annotations[ocispec.AnnotationDescription] = cfg.Description
	}
	return annotations
}
