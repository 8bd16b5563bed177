// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/num"
)

func Test_hwreg01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("hwreg01. regularization continuity at the thresholds")

	ε := 1e-10

	// value continuity at q1 and q2
	chk.Scalar(tst, "f(q1-)=f(q1+)", 1e-8, HwLoss(HwQ1-ε), HwLoss(HwQ1+ε))
	chk.Scalar(tst, "f(q2-)=f(q2+)", 1e-8, HwLoss(HwQ2-ε), HwLoss(HwQ2+ε))

	// slope continuity at q1 and q2
	chk.Scalar(tst, "f'(q1-)=f'(q1+)", 1e-8, HwLossDeriv(HwQ1-ε), HwLossDeriv(HwQ1+ε))
	chk.Scalar(tst, "f'(q2-)=f'(q2+)", 1e-8, HwLossDeriv(HwQ2-ε), HwLossDeriv(HwQ2+ε))

	// boundary values match the neighboring regimes exactly
	chk.Scalar(tst, "f(q1)", 1e-15, hermite(HwQ1), 0.01*HwQ1)
	chk.Scalar(tst, "f(q2)", 1e-15, hermite(HwQ2), math.Pow(HwQ2, 1.852))
}

func Test_hwreg02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("hwreg02. sign convention and derivative cross-check")

	// odd function of Q
	for _, q := range []float64{1e-4, HwQ1, 0.004, HwQ2, 0.01, 0.1} {
		chk.Scalar(tst, io.Sf("f(-q)=-f(q) q=%g", q), 1e-15, HwLoss(-q), -HwLoss(q))
	}

	// analytic derivative versus central differences
	for _, q := range []float64{5e-4, 0.002, 0.004, 0.0045, 0.005, 0.008, 0.05, 0.5} {
		dnum, _ := num.DerivCentral(func(x float64, args ...interface{}) float64 {
			return HwLoss(x)
		}, q, 1e-7)
		chk.AnaNum(tst, io.Sf("f'(%g)", q), 1e-6, HwLossDeriv(q), dnum, chk.Verbose)
	}
}

func Test_hwreg03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("hwreg03. monotonicity across the transitional regime")

	prev := 0.0
	for q := 0.0; q <= 2*HwQ2; q += HwQ2 / 200 {
		f := HwLoss(q)
		if f < prev {
			tst.Errorf("regularized loss decreases at q=%g", q)
			return
		}
		prev = f
	}
}
