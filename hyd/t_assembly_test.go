// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"

	"github.com/stephenfrechette/gohyd/net"
)

// buildRJT returns reservoir → junction → tank connected by two pipes
func buildRJT() *net.Network {
	n := net.New("rjt")
	n.AddReservoir("R1", 100, "")
	n.AddJunction("J1", 10, 0.02, "")
	n.AddTank("T1", 40, 5, 0, 10, 20)
	n.AddPipe("P1", "R1", "J1", 1000, 0.3, 130, 0, net.Open)
	n.AddPipe("P2", "J1", "T1", 800, 0.25, 130, 0, net.Open)
	n.Init()
	return n
}

func Test_assembly01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("assembly01. residual layout and closed-link rows")

	n := buildRJT()
	d := NewDomain(n)
	d.SetDemands(0)
	d.Dt = 3600
	d.FirstStep = true

	// system size: 2L+N+T+R = 4+3+1+1
	chk.IntAssert(d.Nx, 9)

	// on the first step the tank row is Dirichlet: residual vanishes at the
	// warm start, which sets the tank head to elevation+initial level
	d.AssembleSystem()
	rowTank := d.Nn + 2*2 // after node balances and both link blocks
	chk.Scalar(tst, "tank Dirichlet residual", 1e-14, d.Rv[rowTank], 0)

	// node balance at the junction: inflow - outflow - demand
	// warm start: all flows 0.1 => residual = 0.1 - 0.1 - 0.02
	chk.Scalar(tst, "junction balance", 1e-14, d.Rv[1], -0.02)

	// closing P2 moves its rows to flow=0 and headloss=0 at the tail
	d.Net.SetLinkStatus(1, net.Closed)
	d.RefreshClosed(nil)
	d.AssembleSystem()
	chk.Scalar(tst, "closed flow residual", 1e-14, d.Rv[d.Nx-2], d.X[1])
	chk.Scalar(tst, "closed headloss residual", 1e-14, d.Rv[d.Nx-1], d.X[d.OffHl+1])
}

func Test_assembly02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("assembly02. analytic Jacobian versus directional differences")

	n := net.New("jac")
	n.AddReservoir("R1", 100, "")
	n.AddJunction("J1", 10, 0.02, "")
	n.AddJunction("J2", 20, 0.01, "")
	n.AddTank("T1", 40, 5, 0, 10, 20)
	n.AddCurve("C1", net.HeadCurve, []float64{0, 0.1, 0.2}, []float64{100, 80, 40})
	n.AddPipe("P1", "R1", "J1", 1000, 0.3, 130, 2.5, net.Open)
	n.AddPipe("P2", "J1", "J2", 800, 0.25, 130, 0, net.Open)
	n.AddPipe("P3", "J2", "T1", 600, 0.25, 130, 0, net.Open)
	n.AddPump("PU1", "R1", "J2", "C1")
	n.Init()

	d := NewDomain(n)
	d.SetDemands(0)
	d.Dt = 3600
	d.FirstStep = false

	// assemble J at the warm start (flows away from the regularization knees)
	d.AssembleSystem()
	Jm := d.Kb.ToMatrix(nil)

	// directional check: J·v against (R(x+εv) - R(x-εv)) / 2ε
	nx := d.Nx
	vs := [][]float64{make([]float64, nx), make([]float64, nx), make([]float64, nx)}
	for i := 0; i < nx; i++ {
		vs[0][i] = 1
		vs[1][i] = float64(i%3) - 1
		vs[2][i] = math.Sin(float64(i + 1))
	}
	xp := make([]float64, nx)
	xm := make([]float64, nx)
	rp := make([]float64, nx)
	rm := make([]float64, nx)
	jv := make([]float64, nx)
	ε := 1e-7
	for k, v := range vs {
		la.VecFill(jv, 0)
		la.SpMatVecMulAdd(jv, 1, Jm, v) // jv += J·v
		for i := 0; i < nx; i++ {
			xp[i] = d.X[i] + ε*v[i]
			xm[i] = d.X[i] - ε*v[i]
		}
		d.AssembleResidual(rp, xp)
		d.AssembleResidual(rm, xm)
		for i := 0; i < nx; i++ {
			dnum := (rp[i] - rm[i]) / (2 * ε)
			chk.AnaNum(tst, io.Sf("J·v%d [%d]", k, i), 1e-5, jv[i], dnum, false)
		}
	}
}
