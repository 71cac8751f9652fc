// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package xosc

import "fmt"

// Kind identifies a catalog entity kind.
type Kind string

// Catalog entity kinds.
const (
	KindVehicle     Kind = "vehicle"
	KindController  Kind = "controller"
	KindPedestrian  Kind = "pedestrian"
	KindMiscObject  Kind = "miscObject"
	KindEnvironment Kind = "environment"
	KindManeuver    Kind = "maneuver"
	KindTrajectory  Kind = "trajectory"
	KindRoute       Kind = "route"
)

// Kinds returns every entity kind in catalog order.
func Kinds() []Kind {
	return []Kind{
		KindVehicle, KindController, KindPedestrian, KindMiscObject,
		KindEnvironment, KindManeuver, KindTrajectory, KindRoute,
	}
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown catalog kind %q", s)
}

func (k Kind) String() string {
	return string(k)
}
