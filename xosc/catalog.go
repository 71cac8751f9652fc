// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package xosc

import "encoding/xml"

// FileHeader is the document header of a catalog file.
type FileHeader struct {
	RevMajor    uint16 `xml:"revMajor,attr"`
	RevMinor    uint16 `xml:"revMinor,attr"`
	Date        string `xml:"date,attr"`
	Description string `xml:"description,attr"`
	Author      string `xml:"author,attr"`
}

// CatalogFile is a decoded catalog document.
type CatalogFile struct {
	XMLName xml.Name   `xml:"OpenSCENARIO"`
	Header  FileHeader `xml:"FileHeader"`
	Catalog *Catalog   `xml:"Catalog"`
}

// DeepCopy returns a copy sharing no memory with f.
func (f *CatalogFile) DeepCopy() *CatalogFile {
	if f == nil {
		return nil
	}
	out := *f
	if f.Catalog != nil {
		c := f.Catalog.DeepCopy()
		out.Catalog = &c
	}
	return &out
}

// Catalog is a named collection of entries. A catalog file usually holds a
// single kind of entry, but any mix is accepted.
type Catalog struct {
	Name         string        `xml:"name,attr"`
	Vehicles     []Vehicle     `xml:"Vehicle"`
	Controllers  []Controller  `xml:"Controller"`
	Pedestrians  []Pedestrian  `xml:"Pedestrian"`
	MiscObjects  []MiscObject  `xml:"MiscObject"`
	Environments []Environment `xml:"Environment"`
	Maneuvers    []Maneuver    `xml:"Maneuver"`
	Trajectories []Trajectory  `xml:"Trajectory"`
	Routes       []Route       `xml:"Route"`
}

// Entries returns every entry of the catalog, grouped by kind in Kinds()
// order and in document order within a kind.
func (c *Catalog) Entries() []Entity {
	var out []Entity
	out = appendEntities(out, c.Vehicles)
	out = appendEntities(out, c.Controllers)
	out = appendEntities(out, c.Pedestrians)
	out = appendEntities(out, c.MiscObjects)
	out = appendEntities(out, c.Environments)
	out = appendEntities(out, c.Maneuvers)
	out = appendEntities(out, c.Trajectories)
	out = appendEntities(out, c.Routes)
	return out
}

func appendEntities[E Entity](out []Entity, in []E) []Entity {
	for _, e := range in {
		out = append(out, e)
	}
	return out
}

// DeepCopy returns a copy sharing no memory with c.
func (c *Catalog) DeepCopy() Catalog {
	return Catalog{
		Name:         c.Name,
		Vehicles:     deepCopyAll(c.Vehicles, Vehicle.DeepCopy),
		Controllers:  deepCopyAll(c.Controllers, Controller.DeepCopy),
		Pedestrians:  deepCopyAll(c.Pedestrians, Pedestrian.DeepCopy),
		MiscObjects:  deepCopyAll(c.MiscObjects, MiscObject.DeepCopy),
		Environments: deepCopyAll(c.Environments, Environment.DeepCopy),
		Maneuvers:    deepCopyAll(c.Maneuvers, Maneuver.DeepCopy),
		Trajectories: deepCopyAll(c.Trajectories, Trajectory.DeepCopy),
		Routes:       deepCopyAll(c.Routes, Route.DeepCopy),
	}
}

// DeepCopyAll copies every element of in with DeepCopy.
func DeepCopyAll[E interface{ DeepCopy() E }](in []E) []E {
	return deepCopyAll(in, func(e E) E { return e.DeepCopy() })
}

func deepCopyAll[E any](in []E, cp func(E) E) []E {
	if in == nil {
		return nil
	}
	out := make([]E, len(in))
	for i, e := range in {
		out[i] = cp(e)
	}
	return out
}

// EntriesOf returns the catalog's entries of kind E.
func EntriesOf[E Entity](c *Catalog) []E {
	if c == nil {
		return nil
	}
	var entries any
	var zero E
	switch any(zero).(type) {
	case Vehicle:
		entries = c.Vehicles
	case Controller:
		entries = c.Controllers
	case Pedestrian:
		entries = c.Pedestrians
	case MiscObject:
		entries = c.MiscObjects
	case Environment:
		entries = c.Environments
	case Maneuver:
		entries = c.Maneuvers
	case Trajectory:
		entries = c.Trajectories
	case Route:
		entries = c.Routes
	}
	out, _ := entries.([]E)
	return out
}
