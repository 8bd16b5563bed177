// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/stephenfrechette/gohyd/ctl"
	"github.com/stephenfrechette/gohyd/net"
	"github.com/stephenfrechette/gohyd/out"
)

// buildTankNet returns a reservoir feeding a tank through a junction
func buildTankNet() *net.Network {
	n := net.New("tanknet")
	n.AddReservoir("R1", 60, "")
	n.AddJunction("J1", 10, 0.01, "")
	n.AddTank("T1", 40, 2, 0, 20, 15)
	n.AddPipe("P1", "R1", "J1", 1000, 0.3, 130, 0, net.Open)
	n.AddPipe("P2", "J1", "T1", 800, 0.3, 130, 0, net.Open)
	n.Opts.Duration = 4 * 3600
	n.Opts.HydStep = 3600
	n.Init()
	return n
}

func Test_eps01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("eps01. tank level integration across steps")

	n := buildTankNet()
	drv := NewDriver(n, nil)
	nbad, err := drv.Run()
	if err != nil {
		tst.Errorf("run failed:\n%v", err)
		return
	}
	chk.IntAssert(nbad, 0)
	res := drv.Res
	chk.IntAssert(res.Node.Nslices(), 5)

	// tank head starts at elevation + initial level
	chk.Scalar(tst, "initial tank head", 1e-6, res.Node.At("T1", 0, out.ColHead), 42)

	// level(t+Δt) = level(t) + inflow·Δt·4/(π·D²), with the inflow recorded
	// at t+Δt (the value used by the evolution residual of that step)
	tank := n.GetNode("T1")
	coef := n.Opts.HydStep * 4.0 / (math.Pi * tank.Diameter * tank.Diameter)
	for k := 1; k < res.Node.Nslices(); k++ {
		t0 := res.Node.Times[k-1]
		t1 := res.Node.Times[k]
		h0 := res.Node.At("T1", t0, out.ColHead)
		h1 := res.Node.At("T1", t1, out.ColHead)
		qin := res.Node.At("T1", t1, out.ColDemand)
		chk.Scalar(tst, io.Sf("tank evolution t=%g", t1), 1e-4, h1-h0, qin*coef)

		// level stays within bounds
		lvl := h1 - tank.Elevation
		if lvl < tank.MinLevel-1e-9 || lvl > tank.MaxLevel+1e-9 {
			tst.Errorf("tank level %v outside [%v,%v]", lvl, tank.MinLevel, tank.MaxLevel)
		}
	}

	// mass balance at the junction on every step
	for _, t := range res.Node.Times {
		q1 := res.Link.At("P1", t, out.ColFlowrate)
		q2 := res.Link.At("P2", t, out.ColFlowrate)
		d := res.Node.At("J1", t, out.ColDemand)
		if math.Abs(q1-q2-d) > 1e-5 {
			tst.Errorf("junction mass balance violated at t=%g: %v", t, q1-q2-d)
		}
	}
}

func Test_eps02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("eps02. time control closes a pipe at its trigger")

	n := buildTankNet()
	tstar := 2 * 3600.0
	action := ctl.Action{Kind: ctl.LinkObj, Id: n.GetLink("P1").Id, Attr: ctl.AttrStatus, Value: 0}
	tc := ctl.NewTimeControl("close-P1", tstar, ctl.SimTime, false, action, 0)

	drv := NewDriver(n, []ctl.Control{tc})
	_, err := drv.Run()
	if err != nil {
		tst.Errorf("run failed:\n%v", err)
		return
	}
	res := drv.Res

	// open before the trigger, exactly zero at and after it
	if res.Link.At("P1", tstar-n.Opts.HydStep, out.ColFlowrate) == 0 {
		tst.Errorf("P1 must carry flow before the trigger")
	}
	chk.Scalar(tst, "flow at t*", 1e-15, res.Link.At("P1", tstar, out.ColFlowrate), 0)
	chk.Scalar(tst, "flow after t*", 1e-15, res.Link.At("P1", tstar+3600, out.ColFlowrate), 0)

	// the fire is logged once
	chk.IntAssert(len(drv.CtlLog.Events), 1)
	chk.Scalar(tst, "fire time", 1e-15, drv.CtlLog.Events[0].Time, tstar)
}

func Test_eps03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("eps03. two identical runs give identical results")

	run := func() *out.Results {
		n := buildTankNet()
		drv := NewDriver(n, nil)
		if _, err := drv.Run(); err != nil {
			tst.Fatalf("run failed:\n%v", err)
		}
		return drv.Res
	}
	a := run()
	b := run()
	for _, col := range []string{out.ColDemand, out.ColHead, out.ColPressure} {
		va := a.Node.Columns[col]
		vb := b.Node.Columns[col]
		chk.IntAssert(len(va), len(vb))
		for i := range va {
			if va[i] != vb[i] {
				tst.Errorf("results differ in node column %q at %d: %v != %v", col, i, va[i], vb[i])
				return
			}
		}
	}
	for i := range a.Link.Columns[out.ColFlowrate] {
		if a.Link.Columns[out.ColFlowrate][i] != b.Link.Columns[out.ColFlowrate][i] {
			tst.Errorf("results differ in link flow at %d", i)
			return
		}
	}
}

func Test_eps04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("eps04. conditional control backtracks to the crossing")

	n := buildTankNet()

	// close the feeding pipe when the tank level reaches 4 m
	threshold := 4.0
	tank := n.GetNode("T1")
	action := ctl.Action{Kind: ctl.LinkObj, Id: n.GetLink("P2").Id, Attr: ctl.AttrStatus, Value: 0}
	cc := ctl.NewConditionalControl("tank-high", ctl.NodeObj, tank.Id, ctl.AttrLevel,
		ctl.GreaterEqual, threshold, action, 0)

	drv := NewDriver(n, []ctl.Control{cc})
	_, err := drv.Run()
	if err != nil {
		tst.Errorf("run failed:\n%v", err)
		return
	}
	res := drv.Res

	// the control fired, at a time inside the simulation horizon
	if len(drv.CtlLog.Events) < 1 {
		tst.Errorf("conditional control did not fire")
		return
	}
	tFire := drv.CtlLog.Events[0].Time
	io.Pforan("fired at t = %v s\n", tFire)
	if tFire <= 0 || tFire > n.Opts.Duration {
		tst.Errorf("fire time %v outside the horizon", tFire)
	}

	// after the fire the feeding pipe stays closed and the level holds near
	// the threshold
	last := res.Node.Times[res.Node.Nslices()-1]
	chk.Scalar(tst, "flow after fire", 1e-15, res.Link.At("P2", last, out.ColFlowrate), 0)
	lvl := res.Node.At("T1", last, out.ColHead) - tank.Elevation
	chk.Scalar(tst, "final level near threshold", 0.05, lvl, threshold)
}

func Test_eps05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("eps05. tank clamped at its maximum level")

	n := net.New("overflow")
	n.AddReservoir("R1", 80, "")
	n.AddJunction("J1", 10, 0.0, "")
	n.AddTank("T1", 40, 2.8, 0, 3, 4)
	n.AddPipe("P1", "R1", "J1", 500, 0.4, 130, 0, net.Open)
	n.AddPipe("P2", "J1", "T1", 400, 0.4, 130, 0, net.Open)
	n.Opts.Duration = 3 * 3600
	n.Opts.HydStep = 3600
	n.Init()

	drv := NewDriver(n, nil)
	if _, err := drv.Run(); err != nil {
		tst.Errorf("run failed:\n%v", err)
		return
	}
	res := drv.Res
	tank := n.GetNode("T1")

	// the level never exceeds the maximum and the overflow event is recorded
	for _, t := range res.Node.Times {
		lvl := res.Node.At("T1", t, out.ColHead) - tank.Elevation
		if lvl > tank.MaxLevel+1e-9 {
			tst.Errorf("tank level %v exceeds max %v at t=%g", lvl, tank.MaxLevel, t)
		}
	}
	found := false
	for _, e := range res.Events {
		if e.Kind == "tankfull" && e.Name == "T1" {
			found = true
		}
	}
	if !found {
		tst.Errorf("tankfull event was not recorded")
	}
}
