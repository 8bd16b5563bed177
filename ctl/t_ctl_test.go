// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctl

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/stephenfrechette/gohyd/net"
)

// fakeState is a hand-rolled State for tests
type fakeState struct {
	t      float64
	shift  float64
	levels map[int]float64
	flows  map[int]float64
}

func (o fakeState) Time() float64            { return o.t }
func (o fakeState) ShiftedTime() float64     { return o.shift + o.t }
func (o fakeState) NodeHead(id int) float64  { return o.levels[id] + 100 }
func (o fakeState) NodeLevel(id int) float64 { return o.levels[id] }
func (o fakeState) LinkFlow(id int) float64  { return o.flows[id] }
func (o fakeState) SolverTolerance() float64 { return 1e-6 }

func smallNet() *net.Network {
	n := net.New("x")
	n.AddReservoir("R1", 50, "")
	n.AddJunction("J1", 0, 0.01, "")
	n.AddPipe("P1", "R1", "J1", 100, 0.3, 130, 0, net.Open)
	n.Init()
	return n
}

func Test_timectl01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("timectl01. one-shot time control")

	n := smallNet()
	a := Action{Kind: LinkObj, Id: 0, Attr: AttrStatus, Value: 0}
	c := NewTimeControl("close", 7200, SimTime, false, a, 0)

	// not required before the trigger
	req, _ := c.IsActionRequired(fakeState{t: 3600})
	if req {
		tst.Errorf("control must not fire before its trigger")
	}

	// required at the trigger, with zero rewind
	req, b := c.IsActionRequired(fakeState{t: 7200})
	if !req {
		tst.Errorf("control must fire at its trigger")
	}
	chk.Scalar(tst, "backtrack", 1e-15, b, 0)

	// firing closes the link and completes the control
	c.Fire(n)
	chk.IntAssert(int(n.Links[0].Status), int(net.Closed))
	req, _ = c.IsActionRequired(fakeState{t: 10800})
	if req {
		tst.Errorf("one-shot control must be complete after firing")
	}
}

func Test_timectl02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("timectl02. daily control re-arms 24 h later")

	n := smallNet()
	a := Action{Kind: LinkObj, Id: 0, Attr: AttrStatus, Value: 0}
	c := NewTimeControl("daily", 6*3600, ShiftedTime, true, a, 0)

	req, _ := c.IsActionRequired(fakeState{t: 6 * 3600})
	if !req {
		tst.Errorf("daily control must fire on day 0")
	}
	c.Fire(n)

	// re-armed for the next day
	req, _ = c.IsActionRequired(fakeState{t: 20 * 3600})
	if req {
		tst.Errorf("daily control must wait for the next day")
	}
	req, _ = c.IsActionRequired(fakeState{t: 30 * 3600})
	if !req {
		tst.Errorf("daily control must fire again on day 1")
	}

	// daily triggers above 24 h are rejected
	defer func() {
		if recover() == nil {
			tst.Errorf("daily trigger above 24 h must panic")
		}
	}()
	NewTimeControl("bad", 25*3600, ShiftedTime, true, a, 0)
}

func Test_condctl01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("condctl01. linear interpolation of the crossing time")

	n := smallNet()
	a := Action{Kind: LinkObj, Id: 0, Attr: AttrStatus, Value: 0}
	c := NewConditionalControl("high", NodeObj, 1, AttrLevel, GreaterEqual, 15, a, 0)

	// history: level 10 at t=0
	c.InformSuccessfulStep(fakeState{t: 0, levels: map[int]float64{1: 10}})

	// level 20 at t=3600 => crossing at t=1800, backtrack 1800
	req, b := c.IsActionRequired(fakeState{t: 3600, levels: map[int]float64{1: 20}})
	if !req {
		tst.Errorf("control must require action above the threshold")
	}
	chk.Scalar(tst, "backtrack", 1e-10, b, 1800)

	// below the threshold nothing happens
	req, _ = c.IsActionRequired(fakeState{t: 3600, levels: map[int]float64{1: 12}})
	if req {
		tst.Errorf("control must not fire below the threshold")
	}
}

func Test_condctl02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("condctl02. comparisons and fire-now cases")

	// comparisons
	if !Greater.Holds(2, 1) || Greater.Holds(1, 1) {
		tst.Errorf("Greater comparison wrong")
	}
	if !GreaterEqual.Holds(1, 1) || GreaterEqual.Holds(0.5, 1) {
		tst.Errorf("GreaterEqual comparison wrong")
	}
	if !Less.Holds(1, 2) || Less.Holds(2, 2) {
		tst.Errorf("Less comparison wrong")
	}
	if !LessEqual.Holds(2, 2) || LessEqual.Holds(3, 2) {
		tst.Errorf("LessEqual comparison wrong")
	}

	// without history the control fires immediately
	n := smallNet()
	a := Action{Kind: LinkObj, Id: 0, Attr: AttrStatus, Value: 0}
	c := NewConditionalControl("low", NodeObj, 1, AttrLevel, LessEqual, 5, a, 3)
	req, b := c.IsActionRequired(fakeState{t: 3600, levels: map[int]float64{1: 2}})
	if !req {
		tst.Errorf("control must fire without history")
	}
	chk.Scalar(tst, "backtrack", 1e-15, b, 0)
	chk.IntAssert(c.Priority(), 3)

	// firing applies the action
	c.Fire(n)
	chk.IntAssert(int(n.Links[0].Status), int(net.Closed))
}

func Test_ctllog01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ctllog01. fired controls are recorded")

	var log Log
	a := Action{Kind: LinkObj, Id: 0, Attr: AttrStatus, Value: 0}
	c := NewTimeControl("close", 3600, SimTime, false, a, 0)
	log.Append(3600, c)
	chk.IntAssert(len(log.Events), 1)
	chk.StrAssert(log.Events[0].Control, "close")
	chk.Scalar(tst, "time", 1e-15, log.Events[0].Time, 3600)
}
