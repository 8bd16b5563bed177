// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package net

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

// buildSmall returns a model with one reservoir, two junctions, one tank,
// three pipes and one pump
func buildSmall() *Network {
	n := New("small")
	n.AddReservoir("R1", 100, "")
	n.AddJunction("J1", 10, 0.02, "")
	n.AddJunction("J2", 15, 0.01, "")
	n.AddTank("T1", 40, 5, 0, 10, 20)
	n.AddCurve("C1", HeadCurve, []float64{0.05}, []float64{30})
	n.AddPipe("P1", "R1", "J1", 1000, 0.3, 130, 0, Open)
	n.AddPipe("P2", "J1", "J2", 800, 0.25, 130, 0, Open)
	n.AddPipe("P3", "J2", "T1", 600, 0.25, 130, 0, Open)
	n.AddPump("PU1", "R1", "J2", "C1")
	n.Init()
	return n
}

func Test_network01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("network01. construction, lookup and subsets")

	n := buildSmall()

	// sizes
	chk.IntAssert(n.Nnodes(), 4)
	chk.IntAssert(n.Nlinks(), 4)
	chk.IntAssert(n.Ntanks(), 1)
	chk.IntAssert(n.Nreservoirs(), 1)

	// lookup
	chk.IntAssert(n.GetNode("R1").Id, 0)
	chk.IntAssert(n.GetLink("P3").Id, 2)
	if n.GetNode("nope") != nil {
		tst.Errorf("lookup of unknown node must return nil")
	}

	// subsets
	chk.Ints(tst, "junctions", n.Junctions, []int{1, 2})
	chk.Ints(tst, "reservoirs", n.Reservoirs, []int{0})
	chk.Ints(tst, "tanks", n.Tanks, []int{3})
	chk.Ints(tst, "pipes", n.Pipes, []int{0, 1, 2})
	chk.Ints(tst, "pumps", n.Pumps, []int{3})

	// compact indices
	chk.Ints(tst, "Tid", n.Tid, []int{-1, -1, -1, 0})
	chk.Ints(tst, "Rid", n.Rid, []int{0, -1, -1, -1})

	// incidence
	chk.Ints(tst, "links of R1", n.LinksOf(0), []int{0, 3})
	chk.Ints(tst, "links of J2", n.LinksOf(2), []int{1, 2, 3})

	// tank head helpers
	t1 := n.GetNode("T1")
	chk.Scalar(tst, "init head", 1e-15, t1.InitHead(), 45)
	chk.Scalar(tst, "max head", 1e-15, t1.MaxHead(), 50)
}

func Test_network02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("network02. mutators")

	n := buildSmall()
	n.SetLinkStatus(0, Closed)
	chk.IntAssert(int(n.Links[0].Status), int(Closed))
	n.SetPumpSpeed(3, 1.2)
	chk.Scalar(tst, "speed", 1e-15, n.Links[3].Speed, 1.2)
	n.SetPumpPowerOut(3, true)
	if !n.Links[3].PowerOut {
		tst.Errorf("power outage flag not set")
	}
}

func Test_network03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("network03. structural errors are fatal")

	// unknown end node
	func() {
		defer func() {
			if recover() == nil {
				tst.Errorf("link to unknown node must panic")
			}
		}()
		n := New("bad")
		n.AddJunction("J1", 0, 0, "")
		n.AddPipe("P1", "J1", "nope", 100, 0.3, 130, 0, Open)
	}()

	// multi-point pump curve
	func() {
		defer func() {
			if recover() == nil {
				tst.Errorf("multi-point pump curve must panic")
			}
		}()
		n := New("bad")
		n.AddReservoir("R1", 50, "")
		n.AddJunction("J1", 0, 0.01, "")
		n.AddCurve("C5", HeadCurve, []float64{0, 1, 2, 3, 4}, []float64{50, 45, 38, 25, 5})
		n.AddPump("PU1", "R1", "J1", "C5")
		n.Init()
	}()

	// tank initial level out of bounds
	func() {
		defer func() {
			if recover() == nil {
				tst.Errorf("tank with bad initial level must panic")
			}
		}()
		n := New("bad")
		n.AddTank("T1", 10, 12, 0, 10, 15)
		n.Init()
	}()
}

func Test_pattern01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("pattern01. multiplier indexing")

	p := Pattern{Name: "pat", Mults: []float64{1.0, 1.5, 0.5}}
	chk.Scalar(tst, "t=0", 1e-15, p.At(0, 0, 3600), 1.0)
	chk.Scalar(tst, "t=3599", 1e-15, p.At(3599, 0, 3600), 1.0)
	chk.Scalar(tst, "t=3600", 1e-15, p.At(3600, 0, 3600), 1.5)
	chk.Scalar(tst, "t=2h", 1e-15, p.At(2*3600, 0, 3600), 0.5)
	chk.Scalar(tst, "wraps", 1e-15, p.At(3*3600, 0, 3600), 1.0)
	chk.Scalar(tst, "offset", 1e-15, p.At(3600, 3600, 3600), 1.0)

	n := New("x")
	chk.Scalar(tst, "empty name", 1e-15, n.PatternAt("", 123), 1.0)
}
