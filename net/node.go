// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package net

// NodeKind distinguishes the node variants
type NodeKind int

const (
	JunctionKind NodeKind = iota + 1
	ReservoirKind
	TankKind
)

// String returns the name of a node kind
func (o NodeKind) String() string {
	switch o {
	case JunctionKind:
		return "junction"
	case ReservoirKind:
		return "reservoir"
	case TankKind:
		return "tank"
	}
	return "unknown"
}

// Node holds the data of one network node. The Kind tag selects which fields
// are meaningful: junction fields for JunctionKind, reservoir fields for
// ReservoirKind and tank fields for TankKind. Nodes are stored in flat
// arrays indexed by Id; Name is a user-visible identifier only.
type Node struct {

	// common
	Id        int      // index in Network.Nodes
	Name      string   // unique name
	Kind      NodeKind // variant tag
	Elevation float64  // elevation [m]
	X, Y      float64  // coordinates (pass-through to results; not used by the solver)

	// junction
	BaseDemand float64 // base demand [m³/s]
	DemandPat  string  // demand pattern name; "" => constant
	NominalP   float64 // nominal pressure head [m] (pressure-driven mode)
	MinimumP   float64 // minimum pressure head [m] (pressure-driven mode)

	// reservoir
	BaseHead float64 // base total head [m]
	HeadPat  string  // head pattern name; "" => constant

	// tank
	InitLevel float64 // initial level above tank elevation [m]
	MinLevel  float64 // minimum level [m]
	MaxLevel  float64 // maximum level [m]
	Diameter  float64 // tank diameter [m]; cylindrical volume assumed
	VolCurve  string  // volume curve name; "" => cylindrical
}

// InitHead returns the total head of a tank at the beginning of a simulation
func (o *Node) InitHead() float64 {
	return o.Elevation + o.InitLevel
}

// MinHead returns the total head corresponding to the minimum tank level
func (o *Node) MinHead() float64 {
	return o.Elevation + o.MinLevel
}

// MaxHead returns the total head corresponding to the maximum tank level
func (o *Node) MaxHead() float64 {
	return o.Elevation + o.MaxLevel
}
