// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package net

// CurveType defines the kind of a curve
type CurveType int

const (
	HeadCurve CurveType = iota + 1
	VolumeCurve
	EfficiencyCurve
	HeadlossCurve
)

// String returns the name of a curve type
func (o CurveType) String() string {
	switch o {
	case HeadCurve:
		return "HEAD"
	case VolumeCurve:
		return "VOLUME"
	case EfficiencyCurve:
		return "EFFICIENCY"
	case HeadlossCurve:
		return "HEADLOSS"
	}
	return "unknown"
}

// Curve holds a named, typed list of (x,y) points
type Curve struct {
	Name string    // unique name
	Type CurveType // kind of curve
	X    []float64 // abscissae; e.g. flow [m³/s] for head curves
	Y    []float64 // ordinates; e.g. head [m] for head curves
}

// Npts returns the number of points of the curve
func (o *Curve) Npts() int {
	return len(o.X)
}
