// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package xosc

import (
	"slices"

	"github.com/openxosc/xosc-core/param"
)

// Vector3 is a point or extent in entity coordinates.
type Vector3 struct {
	X param.Value[float64] `xml:"x,attr"`
	Y param.Value[float64] `xml:"y,attr"`
	Z param.Value[float64] `xml:"z,attr"`
}

// Dimensions is the extent of a bounding box.
type Dimensions struct {
	Width  param.Value[float64] `xml:"width,attr"`
	Length param.Value[float64] `xml:"length,attr"`
	Height param.Value[float64] `xml:"height,attr"`
}

// BoundingBox encloses an object.
type BoundingBox struct {
	Center     Vector3    `xml:"Center"`
	Dimensions Dimensions `xml:"Dimensions"`
}

func resolveBoundingBox(s *scope, b *BoundingBox) {
	resolve(s, "BoundingBox.Center.x", &b.Center.X)
	resolve(s, "BoundingBox.Center.y", &b.Center.Y)
	resolve(s, "BoundingBox.Center.z", &b.Center.Z)
	resolve(s, "BoundingBox.Dimensions.width", &b.Dimensions.Width)
	resolve(s, "BoundingBox.Dimensions.length", &b.Dimensions.Length)
	resolve(s, "BoundingBox.Dimensions.height", &b.Dimensions.Height)
}

// Performance bounds a vehicle's motion.
type Performance struct {
	MaxSpeed        param.Value[float64] `xml:"maxSpeed,attr"`
	MaxAcceleration param.Value[float64] `xml:"maxAcceleration,attr"`
	MaxDeceleration param.Value[float64] `xml:"maxDeceleration,attr"`
}

// Vehicle is a vehicle catalog entry.
type Vehicle struct {
	Entry
	Category    param.Value[string]  `xml:"vehicleCategory,attr"`
	Mass        param.Value[float64] `xml:"mass,attr"`
	Performance Performance          `xml:"Performance"`
	BoundingBox BoundingBox          `xml:"BoundingBox"`
	Properties  []Property           `xml:"Properties>Property"`
}

// Kind implements Entity.
func (Vehicle) Kind() Kind { return KindVehicle }

func (Vehicle) catalogEntity() {}

// DeepCopy returns a copy sharing no memory with v.
func (v Vehicle) DeepCopy() Vehicle {
	out := v
	out.Entry = v.Entry.clone()
	out.Properties = slices.Clone(v.Properties)
	return out
}

// Specialize resolves every parameterized field of v.
func (v Vehicle) Specialize(params map[string]string) (Vehicle, error) {
	out := v.DeepCopy()
	s := newScope(KindVehicle, v.Entry, params)
	resolve(s, "vehicleCategory", &out.Category)
	resolve(s, "mass", &out.Mass)
	resolve(s, "Performance.maxSpeed", &out.Performance.MaxSpeed)
	resolve(s, "Performance.maxAcceleration", &out.Performance.MaxAcceleration)
	resolve(s, "Performance.maxDeceleration", &out.Performance.MaxDeceleration)
	resolveBoundingBox(s, &out.BoundingBox)
	resolveProperties(s, out.Properties)
	if err := s.Err(); err != nil {
		return Vehicle{}, err
	}
	return out, nil
}

// Controller is a controller catalog entry.
type Controller struct {
	Entry
	Properties []Property `xml:"Properties>Property"`
}

// Kind implements Entity.
func (Controller) Kind() Kind { return KindController }

func (Controller) catalogEntity() {}

// DeepCopy returns a copy sharing no memory with c.
func (c Controller) DeepCopy() Controller {
	out := c
	out.Entry = c.Entry.clone()
	out.Properties = slices.Clone(c.Properties)
	return out
}

// Specialize resolves every parameterized field of c.
func (c Controller) Specialize(params map[string]string) (Controller, error) {
	out := c.DeepCopy()
	s := newScope(KindController, c.Entry, params)
	resolveProperties(s, out.Properties)
	if err := s.Err(); err != nil {
		return Controller{}, err
	}
	return out, nil
}

// Pedestrian is a pedestrian catalog entry.
type Pedestrian struct {
	Entry
	Mass        param.Value[float64] `xml:"mass,attr"`
	Category    param.Value[string]  `xml:"pedestrianCategory,attr"`
	Model       param.Value[string]  `xml:"model3d,attr"`
	BoundingBox BoundingBox          `xml:"BoundingBox"`
	Properties  []Property           `xml:"Properties>Property"`
}

// Kind implements Entity.
func (Pedestrian) Kind() Kind { return KindPedestrian }

func (Pedestrian) catalogEntity() {}

// DeepCopy returns a copy sharing no memory with p.
func (p Pedestrian) DeepCopy() Pedestrian {
	out := p
	out.Entry = p.Entry.clone()
	out.Properties = slices.Clone(p.Properties)
	return out
}

// Specialize resolves every parameterized field of p.
func (p Pedestrian) Specialize(params map[string]string) (Pedestrian, error) {
	out := p.DeepCopy()
	s := newScope(KindPedestrian, p.Entry, params)
	resolve(s, "mass", &out.Mass)
	resolve(s, "pedestrianCategory", &out.Category)
	resolve(s, "model3d", &out.Model)
	resolveBoundingBox(s, &out.BoundingBox)
	resolveProperties(s, out.Properties)
	if err := s.Err(); err != nil {
		return Pedestrian{}, err
	}
	return out, nil
}

// MiscObject is a miscellaneous object catalog entry.
type MiscObject struct {
	Entry
	Mass        param.Value[float64] `xml:"mass,attr"`
	Category    param.Value[string]  `xml:"miscObjectCategory,attr"`
	BoundingBox BoundingBox          `xml:"BoundingBox"`
	Properties  []Property           `xml:"Properties>Property"`
}

// Kind implements Entity.
func (MiscObject) Kind() Kind { return KindMiscObject }

func (MiscObject) catalogEntity() {}

// DeepCopy returns a copy sharing no memory with m.
func (m MiscObject) DeepCopy() MiscObject {
	out := m
	out.Entry = m.Entry.clone()
	out.Properties = slices.Clone(m.Properties)
	return out
}

// Specialize resolves every parameterized field of m.
func (m MiscObject) Specialize(params map[string]string) (MiscObject, error) {
	out := m.DeepCopy()
	s := newScope(KindMiscObject, m.Entry, params)
	resolve(s, "mass", &out.Mass)
	resolve(s, "miscObjectCategory", &out.Category)
	resolveBoundingBox(s, &out.BoundingBox)
	resolveProperties(s, out.Properties)
	if err := s.Err(); err != nil {
		return MiscObject{}, err
	}
	return out, nil
}
