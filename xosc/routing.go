// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package xosc

import (
	"fmt"
	"slices"

	"github.com/openxosc/xosc-core/param"
)

// WorldPosition is a position in world coordinates with a heading.
type WorldPosition struct {
	X param.Value[float64] `xml:"x,attr"`
	Y param.Value[float64] `xml:"y,attr"`
	Z param.Value[float64] `xml:"z,attr"`
	H param.Value[float64] `xml:"h,attr"`
}

func resolvePosition(s *scope, field string, p *WorldPosition) {
	resolve(s, field+".x", &p.X)
	resolve(s, field+".y", &p.Y)
	resolve(s, field+".z", &p.Z)
	resolve(s, field+".h", &p.H)
}

// Vertex is one point of a polyline trajectory.
type Vertex struct {
	Time     param.Value[float64] `xml:"time,attr"`
	Position WorldPosition        `xml:"Position>WorldPosition"`
}

// Trajectory is a trajectory catalog entry.
type Trajectory struct {
	Entry
	Closed   param.Value[bool] `xml:"closed,attr"`
	Vertices []Vertex          `xml:"Shape>Polyline>Vertex"`
}

// Kind implements Entity.
func (Trajectory) Kind() Kind { return KindTrajectory }

func (Trajectory) catalogEntity() {}

// DeepCopy returns a copy sharing no memory with t.
func (t Trajectory) DeepCopy() Trajectory {
	out := t
	out.Entry = t.Entry.clone()
	out.Vertices = slices.Clone(t.Vertices)
	return out
}

// Specialize resolves every parameterized field of t.
func (t Trajectory) Specialize(params map[string]string) (Trajectory, error) {
	out := t.DeepCopy()
	s := newScope(KindTrajectory, t.Entry, params)
	resolve(s, "closed", &out.Closed)
	for i := range out.Vertices {
		field := fmt.Sprintf("Vertex[%d]", i)
		resolve(s, field+".time", &out.Vertices[i].Time)
		resolvePosition(s, field+".Position", &out.Vertices[i].Position)
	}
	if err := s.Err(); err != nil {
		return Trajectory{}, err
	}
	return out, nil
}

// Waypoint is one stop on a route.
type Waypoint struct {
	RouteStrategy param.Value[string] `xml:"routeStrategy,attr"`
	Position      WorldPosition       `xml:"Position>WorldPosition"`
}

// Route is a route catalog entry.
type Route struct {
	Entry
	Closed    param.Value[bool] `xml:"closed,attr"`
	Waypoints []Waypoint        `xml:"Waypoint"`
}

// Kind implements Entity.
func (Route) Kind() Kind { return KindRoute }

func (Route) catalogEntity() {}

// DeepCopy returns a copy sharing no memory with r.
func (r Route) DeepCopy() Route {
	out := r
	out.Entry = r.Entry.clone()
	out.Waypoints = slices.Clone(r.Waypoints)
	return out
}

// Specialize resolves every parameterized field of r.
func (r Route) Specialize(params map[string]string) (Route, error) {
	out := r.DeepCopy()
	s := newScope(KindRoute, r.Entry, params)
	resolve(s, "closed", &out.Closed)
	for i := range out.Waypoints {
		field := fmt.Sprintf("Waypoint[%d]", i)
		resolve(s, field+".routeStrategy", &out.Waypoints[i].RouteStrategy)
		resolvePosition(s, field+".Position", &out.Waypoints[i].Position)
	}
	if err := s.Err(); err != nil {
		return Route{}, err
	}
	return out, nil
}

// Event is a maneuver event. Actions and start triggers are not modeled.
type Event struct {
	Name                  string              `xml:"name,attr"`
	Priority              param.Value[string] `xml:"priority,attr"`
	MaximumExecutionCount param.Value[uint32] `xml:"maximumExecutionCount,attr"`
}

// Maneuver is a maneuver catalog entry.
type Maneuver struct {
	Entry
	Events []Event `xml:"Event"`
}

// Kind implements Entity.
func (Maneuver) Kind() Kind { return KindManeuver }

func (Maneuver) catalogEntity() {}

// DeepCopy returns a copy sharing no memory with m.
func (m Maneuver) DeepCopy() Maneuver {
	out := m
	out.Entry = m.Entry.clone()
	out.Events = slices.Clone(m.Events)
	return out
}

// Specialize resolves every parameterized field of m.
func (m Maneuver) Specialize(params map[string]string) (Maneuver, error) {
	out := m.DeepCopy()
	s := newScope(KindManeuver, m.Entry, params)
	for i := range out.Events {
		field := fmt.Sprintf("Event %q", out.Events[i].Name)
		resolve(s, field+".priority", &out.Events[i].Priority)
		resolve(s, field+".maximumExecutionCount", &out.Events[i].MaximumExecutionCount)
	}
	if err := s.Err(); err != nil {
		return Maneuver{}, err
	}
	return out, nil
}
