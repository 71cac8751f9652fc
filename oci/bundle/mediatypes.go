// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/openxosc/xosc-core/xosc"
)

// ArtifactTypeCatalogBundle identifies catalog bundle manifests.
const ArtifactTypeCatalogBundle = "application/vnd.openxosc.catalog.bundle.v1"

// Annotation keys for bundle metadata in manifests.
const (
	AnnotationBundleName        = "io.openxosc.bundle.name"
	AnnotationBundleVersion     = "io.openxosc.bundle.version"
	AnnotationBundleDescription = "io.openxosc.bundle.description"
)

// Label keys for bundle metadata in the OCI image config.
const (
	LabelBundleName        = "io.openxosc.bundle.name"
	LabelBundleVersion     = "io.openxosc.bundle.version"
	LabelBundleDescription = "io.openxosc.bundle.description"
	// LabelBundleCatalogs holds the JSON encoded catalog summaries.
	LabelBundleCatalogs = "io.openxosc.bundle.catalogs"
)

var (
	// ErrNotBundle is returned for OCI content that is not a catalog bundle.
	ErrNotBundle = errors.New("not a catalog bundle")

	// ErrEmptyBundle is returned when a directory has no catalog files.
	ErrEmptyBundle = errors.New("no catalog files to bundle")
)

// CatalogSummary describes one catalog file of a bundle.
type CatalogSummary struct {
	File    string `json:"file"`
	Catalog string `json:"catalog"`
	// Entries lists entry names per kind, in document order.
	Entries map[xosc.Kind][]string `json:"entries"`
}

// BundleConfig is the bundle metadata carried in the image config labels.
type BundleConfig struct {
	Name        string           `json:"name"`
	Version     string           `json:"version,omitempty"`
	Description string           `json:"description,omitempty"`
	Catalogs    []CatalogSummary `json:"catalogs"`
}

// Files returns the bundled file names in sorted order.
func (c *BundleConfig) Files() []string {
	files := make([]string, len(c.Catalogs))
	for i, s := range c.Catalogs {
		files[i] = s.File
	}
	slices.Sort(files)
	return files
}

// Lookup returns the summary of the catalog named name.
func (c *BundleConfig) Lookup(name string) (CatalogSummary, bool) {
	for _, s := range c.Catalogs {
		if s.Catalog == name {
			return s, true
		}
	}
	return CatalogSummary{}, false
}

// summarize lists the entries of a parsed catalog file.
func summarize(file string, f *xosc.CatalogFile) CatalogSummary {
	s := CatalogSummary{File: file, Catalog: f.Catalog.Name, Entries: make(map[xosc.Kind][]string)}
	for _, e := range f.Catalog.Entries() {
		s.Entries[e.Kind()] = append(s.Entries[e.Kind()], e.EntryName())
	}
	return s
}

// BundleConfigFromImageConfig extracts the bundle metadata from OCI image
// config labels.
func BundleConfigFromImageConfig(img *ocispec.Image) (*BundleConfig, error) {
	if img == nil {
		return nil, errors.New("image config is nil")
	}
	labels := img.Config.Labels
	if labels == nil {
		return nil, fmt.Errorf("%w: config has no labels", ErrNotBundle)
	}

	cfg := &BundleConfig{
		Name:        labels[LabelBundleName],
		Version:     labels[LabelBundleVersion],
		Description: labels[LabelBundleDescription],
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: bundle name label is missing", ErrNotBundle)
	}
	if raw := labels[LabelBundleCatalogs]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.Catalogs); err != nil {
			return nil, fmt.Errorf("parsing catalog summaries: %w", err)
		}
	}
	return cfg, nil
}
