// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"strings"

	"github.com/cpmech/gosl/chk"
)

// unitConv converts input quantities to SI (m, m³/s, s). The flow-unit
// keyword of the [OPTIONS] section selects between US customary input
// (lengths in ft, diameters in inches, pressures in psi) and metric input
// (lengths in m, diameters in mm, pressures in m), with the flow factor
// specific to the keyword.
type unitConv struct {
	name string
	flow float64 // input flow unit → m³/s
	us   bool    // US customary lengths/pressures
}

var flowUnits = map[string]unitConv{
	"CFS": {"CFS", 0.0283168466, true},
	"GPM": {"GPM", 6.30901964e-5, true},
	"MGD": {"MGD", 0.0438126364, true},
	"LPS": {"LPS", 1e-3, false},
	"LPM": {"LPM", 1.0 / 60000.0, false},
	"CMH": {"CMH", 1.0 / 3600.0, false},
	"CMD": {"CMD", 1.0 / 86400.0, false},
	"MLD": {"MLD", 1e6 * 1e-3 / 86400.0, false},
	"SI":  {"SI", 1.0, false},
}

// conversion factors
const (
	ftToM  = 0.3048
	inToM  = 0.0254
	psiToM = 0.703249614902
	mmToM  = 1e-3
)

// getUnits returns the converter for a flow-unit keyword
func getUnits(key string) (u unitConv, err error) {
	u, ok := flowUnits[strings.ToUpper(key)]
	if !ok {
		err = chk.Err("unknown flow units keyword %q", key)
	}
	return
}

// Flow converts a flow value to m³/s
func (o unitConv) Flow(v float64) float64 { return v * o.flow }

// Length converts a length/elevation/head value to m
func (o unitConv) Length(v float64) float64 {
	if o.us {
		return v * ftToM
	}
	return v
}

// Diameter converts a pipe/valve/tank diameter to m
func (o unitConv) Diameter(v float64) float64 {
	if o.us {
		return v * inToM
	}
	return v * mmToM
}

// TankDiameter converts a tank diameter to m (tank diameters use the
// length unit, not the pipe-diameter unit)
func (o unitConv) TankDiameter(v float64) float64 { return o.Length(v) }

// Pressure converts a pressure value to m of water
func (o unitConv) Pressure(v float64) float64 {
	if o.us {
		return v * psiToM
	}
	return v
}
