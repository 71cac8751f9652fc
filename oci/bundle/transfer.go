// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"

	"github.com/openxosc/xosc-core/xosc"
)

// MaxManifestSize bounds a transferred manifest (1MB).
const MaxManifestSize int64 = 1 * 1024 * 1024

// MaxConfigSize bounds a transferred bundle config (1MB).
const MaxConfigSize int64 = 1 * 1024 * 1024

// ErrCorruptBundle is returned when the parts of a bundle disagree.
var ErrCorruptBundle = errors.New("corrupt catalog bundle")

// Transfer copies the bundle tagged tag from src into dst under the same tag
// and returns its manifest digest. dst is typically a layout on removable
// media or a shared mount that test rigs read from. Every part is checked
// while it is written and the copied bundle is verified; a bundle that fails
// verification is untagged in dst. src is never modified.
func Transfer(ctx context.Context, src, dst *Store, tag string) (digest.Digest, error) {
	if src == nil || dst == nil {
		return "", errors.New("bundle: Transfer needs a source and a destination store")
	}
	if tag == "" {
		return "", errors.New("bundle: Transfer needs a tag")
	}

	desc, err := oras.Copy(ctx, src.Target(), tag, newBundleGuard(dst.Target()), tag, oras.DefaultCopyOptions)
	if err != nil {
		return "", fmt.Errorf("transferring %s from %s to %s: %w", tag, src.Root(), dst.Root(), err)
	}
	if _, err := Verify(ctx, dst, desc.Digest); err != nil {
		if uerr := dst.Untag(ctx, tag); uerr != nil {
			return "", errors.Join(err, uerr)
		}
		return "", err
	}
	return desc.Digest, nil
}

// Verify checks that the bundle manifest d is self-consistent: the config
// lists exactly the files of the layer, and every file parses as the catalog
// its summary names.
func Verify(ctx context.Context, store *Store, d digest.Digest) (*BundleConfig, error) {
	manifest, err := bundleManifest(ctx, store, d)
	if err != nil {
		return nil, err
	}
	cfg, err := bundleConfig(ctx, store, manifest)
	if err != nil {
		return nil, err
	}
	layer, err := store.GetBlob(ctx, manifest.Layers[0].Digest)
	if err != nil {
		return nil, err
	}
	files, err := ExtractArchive(layer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptBundle, d, err)
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	slices.Sort(names)
	if !slices.Equal(names, cfg.Files()) {
		return nil, fmt.Errorf("%w: %s: layer holds %v, config lists %v", ErrCorruptBundle, d, names, cfg.Files())
	}

	parser := xosc.XMLParser{}
	for _, f := range files {
		parsed, err := parser.Parse(f.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s: %w", ErrCorruptBundle, d, f.Name, err)
		}
		want := catalogOf(cfg, f.Name)
		if parsed.Catalog.Name != want {
			return nil, fmt.Errorf("%w: %s: %s declares catalog %q, config says %q",
				ErrCorruptBundle, d, f.Name, parsed.Catalog.Name, want)
		}
	}
	return cfg, nil
}

func catalogOf(cfg *BundleConfig, file string) string {
	for _, s := range cfg.Catalogs {
		if s.File == file {
			return s.Catalog
		}
	}
	return ""
}

var _ oras.Target = (*bundleGuard)(nil)

// bundleGuard admits only catalog bundle content into the wrapped target.
// Manifests must be single-layer bundles, configs must carry the bundle
// labels and layers must unpack into catalog files.
type bundleGuard struct {
	inner oras.Target
}

func newBundleGuard(inner oras.Target) *bundleGuard {
	return &bundleGuard{inner: inner}
}

func (g *bundleGuard) Fetch(ctx context.Context, target ocispec.Descriptor) (io.ReadCloser, error) {
	return g.inner.Fetch(ctx, target)
}

func (g *bundleGuard) Exists(ctx context.Context, target ocispec.Descriptor) (bool, error) {
	return g.inner.Exists(ctx, target)
}

func (g *bundleGuard) Resolve(ctx context.Context, reference string) (ocispec.Descriptor, error) {
	return g.inner.Resolve(ctx, reference)
}

func (g *bundleGuard) Tag(ctx context.Context, desc ocispec.Descriptor, reference string) error {
	return g.inner.Tag(ctx, desc, reference)
}

// Push reads at most the limit for the media type, checks the digest and
// the bundle rules, and only then writes to the wrapped target.
func (g *bundleGuard) Push(ctx context.Context, desc ocispec.Descriptor, content io.Reader) error {
	limit := sizeLimit(desc.MediaType)
	if desc.Size < 0 || desc.Size > limit {
		return fmt.Errorf("%w: %s of size %d, limit %d", ErrNotBundle, desc.MediaType, desc.Size, limit)
	}

	data, err := io.ReadAll(io.LimitReader(content, limit+1))
	if err != nil {
		return fmt.Errorf("reading %s: %w", desc.Digest, err)
	}
	if int64(len(data)) > limit {
		return fmt.Errorf("%w: %s content exceeds limit %d", ErrNotBundle, desc.MediaType, limit)
	}
	if actual := digest.FromBytes(data); actual != desc.Digest {
		return fmt.Errorf("digest mismatch: expected %s, got %s", desc.Digest, actual)
	}

	if err := checkBundlePart(desc.MediaType, data); err != nil {
		return err
	}
	return g.inner.Push(ctx, desc, bytes.NewReader(data))
}

func sizeLimit(mediaType string) int64 {
	switch mediaType {
	case ocispec.MediaTypeImageManifest:
		return MaxManifestSize
	case ocispec.MediaTypeImageConfig:
		return MaxConfigSize
	default:
		return MaxArchiveSize
	}
}

func checkBundlePart(mediaType string, data []byte) error {
	switch mediaType {
	case ocispec.MediaTypeImageManifest:
		var manifest ocispec.Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			return fmt.Errorf("parsing manifest: %w", err)
		}
		if manifest.ArtifactType != ArtifactTypeCatalogBundle {
			return fmt.Errorf("%w: artifact type %q", ErrNotBundle, manifest.ArtifactType)
		}
		if len(manifest.Layers) != 1 || manifest.Layers[0].MediaType != ocispec.MediaTypeImageLayerGzip {
			return fmt.Errorf("%w: manifest must have one gzip layer", ErrNotBundle)
		}
	case ocispec.MediaTypeImageConfig:
		var image ocispec.Image
		if err := json.Unmarshal(data, &image); err != nil {
			return fmt.Errorf("parsing image config: %w", err)
		}
		if _, err := BundleConfigFromImageConfig(&image); err != nil {
			return err
		}
	case ocispec.MediaTypeImageLayerGzip:
		if _, err := ExtractArchive(data); err != nil {
			return fmt.Errorf("%w: %w", ErrNotBundle, err)
		}
	default:
		return fmt.Errorf("%w: unexpected media type %q", ErrNotBundle, mediaType)
	}
	return nil
}
