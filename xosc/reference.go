// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package xosc

import (
	"encoding/xml"
	"slices"

	"github.com/openxosc/xosc-core/param"
)

// ParameterAssignment overrides one parameter of a referenced entry. The
// parameter name may itself be parameterized.
type ParameterAssignment struct {
	ParameterRef param.Value[string] `xml:"parameterRef,attr"`
	Value        param.Value[string] `xml:"value,attr"`
}

// Assign returns a literal assignment.
func Assign(name, value string) ParameterAssignment {
	return ParameterAssignment{
		ParameterRef: param.Literal(name),
		Value:        param.Literal(value),
	}
}

// CatalogReference points at one entry of a catalog. E is the kind of the
// referenced entry. A reference is immutable once built.
type CatalogReference[E Entity] struct {
	catalogName param.Value[string]
	entryName   param.Value[string]
	assignments []ParameterAssignment
}

// NewCatalogReference builds a reference.
func NewCatalogReference[E Entity](catalogName, entryName param.Value[string], assignments ...ParameterAssignment) CatalogReference[E] {
	return CatalogReference[E]{
		catalogName: catalogName,
		entryName:   entryName,
		assignments: slices.Clone(assignments),
	}
}

// CatalogName returns the catalog name.
func (r CatalogReference[E]) CatalogName() param.Value[string] {
	return r.catalogName
}

// EntryName returns the entry name.
func (r CatalogReference[E]) EntryName() param.Value[string] {
	return r.entryName
}

// ParameterAssignments returns a copy of the assignments in document order.
func (r CatalogReference[E]) ParameterAssignments() []ParameterAssignment {
	return slices.Clone(r.assignments)
}

// Kind returns the kind of entry the reference resolves to.
func (r CatalogReference[E]) Kind() Kind {
	var zero E
	return zero.Kind()
}

// UnmarshalXML implements xml.Unmarshaler for the CatalogReference element.
func (r *CatalogReference[E]) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw struct {
		CatalogName param.Value[string]   `xml:"catalogName,attr"`
		EntryName   param.Value[string]   `xml:"entryName,attr"`
		Assignments []ParameterAssignment `xml:"ParameterAssignments>ParameterAssignment"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	*r = NewCatalogReference[E](raw.CatalogName, raw.EntryName, raw.Assignments...)
	return nil
}

// Directory is a catalog location. The path may be parameterized, but only
// literal paths can be scanned.
type Directory struct {
	Path param.Value[string] `xml:"path,attr"`
}

// NewDirectory returns a Directory with a literal path.
func NewDirectory(path string) Directory {
	return Directory{Path: param.Literal(path)}
}

// CatalogLocations maps each entity kind to the directory its catalogs
// live in.
type CatalogLocations map[Kind]Directory

// Lookup returns the directory configured for kind.
func (l CatalogLocations) Lookup(kind Kind) (Directory, bool) {
	d, ok := l[kind]
	return d, ok
}
