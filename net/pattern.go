// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package net

import "math"

// Pattern holds a named, finite ordered sequence of multipliers applied to a
// base value (demand or reservoir head)
type Pattern struct {
	Name  string    // unique name
	Mults []float64 // multipliers; cycled over the simulation horizon
}

// At returns the multiplier active at simulated time t [s]
//  Input:
//   t     -- simulated time [s]
//   start -- pattern start offset [s]
//   step  -- pattern step [s]
func (o *Pattern) At(t, start, step float64) float64 {
	if len(o.Mults) == 0 {
		return 1.0
	}
	i := int(math.Floor((t-start)/step)) % len(o.Mults)
	if i < 0 {
		i += len(o.Mults)
	}
	return o.Mults[i]
}
