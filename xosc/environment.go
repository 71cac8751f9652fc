// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package xosc

import "github.com/openxosc/xosc-core/param"

// TimeOfDay sets the simulated clock.
type TimeOfDay struct {
	Animation param.Value[bool]   `xml:"animation,attr"`
	DateTime  param.Value[string] `xml:"dateTime,attr"`
}

// Sun describes the light source.
type Sun struct {
	Intensity param.Value[float64] `xml:"intensity,attr"`
	Azimuth   param.Value[float64] `xml:"azimuth,attr"`
	Elevation param.Value[float64] `xml:"elevation,attr"`
}

// Fog limits visibility.
type Fog struct {
	VisualRange param.Value[float64] `xml:"visualRange,attr"`
}

// Precipitation describes rain or snow.
type Precipitation struct {
	Type      param.Value[string]  `xml:"precipitationType,attr"`
	Intensity param.Value[float64] `xml:"precipitationIntensity,attr"`
}

// Weather groups the optional weather components.
type Weather struct {
	CloudState    param.Value[string] `xml:"cloudState,attr"`
	Sun           *Sun                `xml:"Sun"`
	Fog           *Fog                `xml:"Fog"`
	Precipitation *Precipitation      `xml:"Precipitation"`
}

// RoadCondition describes the road surface.
type RoadCondition struct {
	FrictionScaleFactor param.Value[float64] `xml:"frictionScaleFactor,attr"`
}

// Environment is an environment catalog entry.
type Environment struct {
	Entry
	TimeOfDay     TimeOfDay     `xml:"TimeOfDay"`
	Weather       Weather       `xml:"Weather"`
	RoadCondition RoadCondition `xml:"RoadCondition"`
}

// Kind implements Entity.
func (Environment) Kind() Kind { return KindEnvironment }

func (Environment) catalogEntity() {}

// DeepCopy returns a copy sharing no memory with e.
func (e Environment) DeepCopy() Environment {
	out := e
	out.Entry = e.Entry.clone()
	if e.Weather.Sun != nil {
		sun := *e.Weather.Sun
		out.Weather.Sun = &sun
	}
	if e.Weather.Fog != nil {
		fog := *e.Weather.Fog
		out.Weather.Fog = &fog
	}
	if e.Weather.Precipitation != nil {
		p := *e.Weather.Precipitation
		out.Weather.Precipitation = &p
	}
	return out
}

// Specialize resolves every parameterized field of e.
func (e Environment) Specialize(params map[string]string) (Environment, error) {
	out := e.DeepCopy()
	s := newScope(KindEnvironment, e.Entry, params)
	resolve(s, "TimeOfDay.animation", &out.TimeOfDay.Animation)
	resolve(s, "TimeOfDay.dateTime", &out.TimeOfDay.DateTime)
	resolve(s, "Weather.cloudState", &out.Weather.CloudState)
	if sun := out.Weather.Sun; sun != nil {
		resolve(s, "Weather.Sun.intensity", &sun.Intensity)
		resolve(s, "Weather.Sun.azimuth", &sun.Azimuth)
		resolve(s, "Weather.Sun.elevation", &sun.Elevation)
	}
	if fog := out.Weather.Fog; fog != nil {
		resolve(s, "Weather.Fog.visualRange", &fog.VisualRange)
	}
	if p := out.Weather.Precipitation; p != nil {
		resolve(s, "Weather.Precipitation.precipitationType", &p.Type)
		resolve(s, "Weather.Precipitation.precipitationIntensity", &p.Intensity)
	}
	resolve(s, "RoadCondition.frictionScaleFactor", &out.RoadCondition.FrictionScaleFactor)
	if err := s.Err(); err != nil {
		return Environment{}, err
	}
	return out, nil
}
