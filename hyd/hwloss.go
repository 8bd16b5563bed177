// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import "math"

// The pure Hazen-Williams term Q·|Q|^0.852 has a vertical tangent at Q=0,
// which makes the Jacobian singular near zero flow. Below Q2 the term is
// replaced by a smooth piecewise function:
//
//   |Q| < Q1        linear        0.01·|Q|
//   Q1 ≤ |Q| ≤ Q2   transitional  cubic matching value and slope at both ends
//   |Q| > Q2        physical      |Q|^1.852
//
// The sign of the returned value follows the sign of Q and the derivative is
// continuous everywhere.
const (
	HwQ1 = 0.00349347323944 // lower regularization threshold [m³/s]
	HwQ2 = 0.00549347323944 // upper regularization threshold [m³/s]
)

// cubic Hermite data for the transitional regime, fixed by the boundary
// values and slopes of the neighboring regimes
var hwHermite struct {
	y1, y2 float64 // values at Q1, Q2
	d1, d2 float64 // slopes at Q1, Q2
}

func init() {
	hwHermite.y1 = 0.01 * HwQ1
	hwHermite.d1 = 0.01
	hwHermite.y2 = math.Pow(HwQ2, 1.852)
	hwHermite.d2 = 1.852 * math.Pow(HwQ2, 0.852)
}

// HwLoss returns the regularized Hazen-Williams flow term f(Q) such that
// pipe headloss = resistance·f(Q)
func HwLoss(q float64) float64 {
	aq := math.Abs(q)
	var f float64
	switch {
	case aq < HwQ1:
		f = 0.01 * aq
	case aq > HwQ2:
		f = math.Pow(aq, 1.852)
	default:
		f = hermite(aq)
	}
	if q < 0 {
		return -f
	}
	return f
}

// HwLossDeriv returns df/dQ of the regularized term. The derivative is an
// even function of Q, so it takes |Q|.
func HwLossDeriv(aq float64) float64 {
	switch {
	case aq < HwQ1:
		return 0.01
	case aq > HwQ2:
		return 1.852 * math.Pow(aq, 0.852)
	}
	return hermiteDeriv(aq)
}

// hermite evaluates the transitional cubic on [Q1,Q2]
func hermite(x float64) float64 {
	h := HwQ2 - HwQ1
	s := (x - HwQ1) / h
	s2 := s * s
	s3 := s2 * s
	return (2*s3-3*s2+1)*hwHermite.y1 + (s3-2*s2+s)*h*hwHermite.d1 +
		(-2*s3+3*s2)*hwHermite.y2 + (s3-s2)*h*hwHermite.d2
}

// hermiteDeriv evaluates the derivative of the transitional cubic
func hermiteDeriv(x float64) float64 {
	h := HwQ2 - HwQ1
	s := (x - HwQ1) / h
	s2 := s * s
	return ((6*s2-6*s)*hwHermite.y1+(3*s2-4*s+1)*h*hwHermite.d1+
		(-6*s2+6*s)*hwHermite.y2+(3*s2-2*s)*h*hwHermite.d2) / h
}
