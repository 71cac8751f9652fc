// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package xosc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"

	"golang.org/x/net/html/charset"

	"github.com/openxosc/xosc-core/validation/name"
)

var (
	// ErrNoCatalog is returned for documents without a Catalog element.
	ErrNoCatalog = errors.New("document has no Catalog element")

	// ErrInvalidEntry is returned for catalog entries whose name or
	// parameter declarations are malformed.
	ErrInvalidEntry = errors.New("invalid catalog entry")
)

// Parser decodes catalog documents.
type Parser interface {
	Parse(data []byte) (*CatalogFile, error)
}

// XMLParser decodes the OpenSCENARIO XML form of catalog documents. Documents
// declaring a non-UTF-8 encoding are transcoded.
type XMLParser struct{}

// Parse implements Parser.
func (XMLParser) Parse(data []byte) (*CatalogFile, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var f CatalogFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding catalog document: %w", err)
	}
	if f.Catalog == nil {
		return nil, ErrNoCatalog
	}
	if err := f.Catalog.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks entry names and parameter declarations.
func (c *Catalog) Validate() error {
	for _, e := range c.Entries() {
		if err := name.ValidateEntry(e.EntryName()); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidEntry, e.Kind(), err)
		}
		defs, err := e.ParameterSchema()
		if err != nil {
			return fmt.Errorf("%w: %s %q: %w", ErrInvalidEntry, e.Kind(), e.EntryName(), err)
		}
		for _, def := range defs {
			if err := name.ValidateParameter(def.Name); err != nil {
				return fmt.Errorf("%w: %s %q: %w", ErrInvalidEntry, e.Kind(), e.EntryName(), err)
			}
			if !def.Type.Known() {
				return fmt.Errorf("%w: %s %q: parameter %q has unknown type %q",
					ErrInvalidEntry, e.Kind(), e.EntryName(), def.Name, def.Type)
			}
		}
	}
	return nil
}

// ParseCatalogString decodes a catalog document held in a string.
func ParseCatalogString(s string) (*CatalogFile, error) {
	return XMLParser{}.Parse([]byte(s))
}

// ParseCatalogFile reads and decodes the catalog document at path.
func ParseCatalogFile(path string) (*CatalogFile, error) {
	// #nosec G304 -- path is a catalog file chosen by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return XMLParser{}.Parse(data)
}
