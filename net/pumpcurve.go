// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package net

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// PumpCoeffs returns the (A, B, C) coefficients of the head characteristic
//
//   head_gain = A - B·Q^C
//
// of the pump's curve.
//
// For a single-point curve (Q1,H1):
//
//   A = 4/3·H1   B = 1/3·H1/Q1²   C = 2
//
// For a three-point curve whose first point is at zero flow:
//
//   A = H1   C = ln((H1-H2)/(H1-H3))/ln(Q2/Q3)   B = (H1-H2)/Q2^C
//
// For a three-point curve with nonzero first flow, the 3×3 nonlinear system
// Hi = A - B·Qi^C is solved by Newton's method from the initial guess
// (200, 1e-3, 1.5). Multi-point curves are rejected.
func (o *Network) PumpCoeffs(pump *Link) (A, B, C float64) {
	if pump.Kind != PumpKind {
		chk.Panic("link %q is not a pump", pump.Name)
	}
	curve, ok := o.Curves[pump.CurveName]
	if !ok {
		chk.Panic("pump %q refers to unknown head curve %q", pump.Name, pump.CurveName)
	}
	switch curve.Npts() {
	case 1:
		Q1, H1 := curve.X[0], curve.Y[0]
		if Q1 <= 0 || H1 <= 0 {
			chk.Panic("pump %q: single-point head curve %q needs positive flow and head", pump.Name, curve.Name)
		}
		A = (4.0 / 3.0) * H1
		B = (1.0 / 3.0) * H1 / (Q1 * Q1)
		C = 2
	case 3:
		Q1, H1 := curve.X[0], curve.Y[0]
		Q2, H2 := curve.X[1], curve.Y[1]
		Q3, H3 := curve.X[2], curve.Y[2]
		if Q1 == 0 {
			A = H1
			C = math.Log((H1-H2)/(H1-H3)) / math.Log(Q2/Q3)
			B = (H1 - H2) / math.Pow(Q2, C)
		} else {
			A, B, C = fitThreePoint([]float64{Q1, Q2, Q3}, []float64{H1, H2, H3})
		}
	default:
		chk.Panic("pump %q: head curve %q has %d points; only 1- and 3-point curves are supported", pump.Name, curve.Name, curve.Npts())
	}
	return
}

// fitThreePoint solves Hi = A - B·Qi^C for (A,B,C) by a damped Newton
// method: the full step is halved while the residual norm grows
func fitThreePoint(Q, H []float64) (A, B, C float64) {

	// initial guess and workspace
	x := []float64{200, 1e-3, 1.5}
	xt := make([]float64, 3)
	r := make([]float64, 3)
	dx := make([]float64, 3)
	J := la.MatAlloc(3, 3)
	Ji := la.MatAlloc(3, 3)

	// residual norm at y
	resnorm := func(y []float64) (nr float64) {
		for i := 0; i < 3; i++ {
			ri := y[0] - y[1]*math.Pow(Q[i], y[2]) - H[i]
			if math.Abs(ri) > nr {
				nr = math.Abs(ri)
			}
		}
		return
	}

	// Newton iterations
	tol := 1e-12
	converged := false
	for it := 0; it < 200; it++ {

		// residual and Jacobian
		for i := 0; i < 3; i++ {
			qc := math.Pow(Q[i], x[2])
			r[i] = x[0] - x[1]*qc - H[i]
			J[i][0] = 1
			J[i][1] = -qc
			J[i][2] = -x[1] * qc * math.Log(Q[i])
		}
		nr := resnorm(x)
		if nr < tol {
			converged = true
			break
		}

		// solve J·dx = r
		err := la.MatInvG(Ji, J, 1e-14)
		if err != nil {
			chk.Panic("pump curve fitting: singular Jacobian in three-point Newton solve:\n%v", err)
		}
		la.MatVecMul(dx, 1, Ji, r)

		// damped update: x ← x - α·dx
		α := 1.0
		for ls := 0; ls < 30; ls++ {
			for i := 0; i < 3; i++ {
				xt[i] = x[i] - α*dx[i]
			}
			if resnorm(xt) < nr {
				break
			}
			α /= 2
		}
		copy(x, xt)
	}
	if !converged {
		chk.Panic("pump curve fitting: Newton solve did not converge for points Q=%v H=%v", Q, H)
	}
	return x[0], x[1], x[2]
}

// PumpHeadGain returns the head loss across a pump (the negative of the head
// it adds) running at relative speed s for flow q, together with the
// derivative of that head loss with respect to flow:
//
//   hloss = -A·s² + B·s^(2-C)·|q|^C
//
// following the affinity scaling of the characteristic; s=1 recovers the
// nominal curve.
func PumpHeadGain(A, B, C, s, q float64) (hloss, dhlossdq float64) {
	aq := math.Abs(q)
	sA := A * s * s
	sB := B * math.Pow(s, 2-C)
	hloss = -sA + sB*math.Pow(aq, C)
	dhlossdq = sB * C * math.Pow(aq, C-1)
	if q < 0 {
		dhlossdq = -dhlossdq
	}
	return
}
