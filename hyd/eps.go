// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/io"

	"github.com/stephenfrechette/gohyd/ctl"
	"github.com/stephenfrechette/gohyd/net"
	"github.com/stephenfrechette/gohyd/out"
)

// driver constants
const (
	BtrkTol   = 1e-6 // backtracks at or below this [s] mean "fire now"
	NmaxBtrk  = 10   // maximum control backtracks within one hydraulic step
	NmaxCV    = 10   // maximum check-valve closure rounds within one solve
	CVflowTol = 1e-8 // reverse flow below this closes a check valve [m³/s]
)

// Driver runs the extended-period simulation: it advances simulated time in
// hydraulic steps, refreshes demands and reservoir heads from patterns,
// coordinates with the controls subsystem (including sub-step backtracking
// to interpolated crossing times), integrates tank levels between solver
// calls and records results.
//
// The driver holds the only mutable reference to the network; the solver
// reads it as an immutable snapshot during iterations.
type Driver struct {

	// input
	Net      *net.Network  // the network (mutable: controls fire through it)
	Dom      *Domain       // solver domain
	Controls []ctl.Control // all controls
	Res      *out.Results  // results store, appended once per step
	CtlLog   *ctl.Log      // record of fired controls
	Verbose  bool          // show step messages

	// cooperative cancellation, checked between steps only; on cancel the
	// partial results store is returned intact
	Stop bool

	// internal
	tNow     float64   // current simulated time
	cvClosed []int     // check valves blocked for the current step
	prevPres []float64 // [nnodes] junction pressures of the previous accepted step
	hasPrev  bool
}

// NewDriver returns a driver for a network with its controls
func NewDriver(n *net.Network, controls []ctl.Control) (o *Driver) {
	o = new(Driver)
	o.Net = n
	o.Dom = NewDomain(n)
	o.Controls = controls
	o.Res = out.NewResults(n)
	o.CtlLog = new(ctl.Log)
	o.prevPres = make([]float64, n.Nnodes())
	return
}

// state view handed to controls //////////////////////////////////////////////////////////////////

type driverState struct {
	d *Driver
	t float64
}

func (o driverState) Time() float64            { return o.t }
func (o driverState) ShiftedTime() float64     { return o.d.Net.Opts.StartClock + o.t }
func (o driverState) NodeHead(id int) float64  { return o.d.Dom.Head(id) }
func (o driverState) NodeLevel(id int) float64 { return o.d.Dom.Head(id) - o.d.Net.Nodes[id].Elevation }
func (o driverState) LinkFlow(id int) float64  { return o.d.Dom.Flow(id) }
func (o driverState) SolverTolerance() float64 { return BtrkTol }

// run ////////////////////////////////////////////////////////////////////////////////////////////

// Run advances the simulation from t=0 to the configured duration in
// hydraulic steps and returns the number of non-converged steps
func (o *Driver) Run() (nbad int, err error) {
	opts := &o.Net.Opts
	dtFn := &fun.Cte{C: opts.HydStep}
	return o.RunFunc(opts.Duration, dtFn)
}

// RunFunc advances the simulation to tf with the step size given by dtFn
// (evaluated at the start of each step). The linear solver is released on
// all exit paths.
func (o *Driver) RunFunc(tf float64, dtFn fun.Func) (nbad int, err error) {

	defer o.Dom.Clean()

	// step at t=0
	o.tNow = 0
	o.Dom.FirstStep = true
	conv, serr := o.advance(0, 0)
	if serr != nil {
		o.Res.AddEvent(0, "numerical", "", serr.Error())
		conv = false
	}
	o.acceptStep(0, conv)
	if !conv {
		nbad++
	}

	// the tank rows change shape after the Dirichlet step, so the linear
	// solver must be re-initialised
	o.Dom.FirstStep = false
	o.Dom.resetLinSol()

	// time loop
	for o.tNow < tf {
		if o.Stop {
			if o.Verbose {
				io.Pfyel("cancelled at t=%g s\n", o.tNow)
			}
			return
		}
		Δt := dtFn.F(o.tNow, nil)
		if Δt <= 0 {
			return nbad, chk.Err("time step function returned Δt=%g at t=%g", Δt, o.tNow)
		}
		if o.tNow+Δt > tf {
			Δt = tf - o.tNow
		}
		t := o.tNow + Δt
		if o.Verbose {
			io.Pf("hydraulic step at t = %10.1f s\n", t)
		}
		conv, serr = o.advance(t, Δt)
		if serr != nil {
			// numerical failures flag the step; the run continues since the
			// warm start at the next pattern change often recovers
			o.Res.AddEvent(t, "numerical", "", serr.Error())
			conv = false
		}
		o.acceptStep(t, conv)
		if !conv {
			nbad++
		}
		o.tNow = t
	}
	return
}

// advance brings the solution from the end of the last accepted step to
// time t (a step of size dt), handling pre-step time controls, check
// valves and conditional-control backtracking
func (o *Driver) advance(t, dt float64) (converged bool, err error) {

	// pre-step: fire time controls whose trigger is at or before t
	o.fireTimeControls(t)

	tStart := t - dt
	cur := tStart
	rounds := 0
	for {

		// solve the sub-step [cur, t]
		converged, err = o.solveAt(t, t-cur)
		if err != nil || !converged {
			return
		}

		// post-step: ask every control; the earliest crossing (the smallest
		// reduced sub-step) wins
		req, maxbtrk := o.requiredControls(t)
		if len(req) == 0 {
			return
		}
		rounds++
		if rounds > NmaxBtrk {
			// control oscillation: accept the current state and continue
			o.Res.AddEvent(t, "oscillation", "", "more than 10 control backtracks in one step; state accepted")
			return
		}

		if maxbtrk <= BtrkTol || t-maxbtrk <= cur+BtrkTol {
			// crossings at (or numerically at) the current time: fire now
			// and re-solve the same sub-step with the new statuses
			for _, c := range req {
				if !o.actionChanges(c.Action()) {
					continue
				}
				if _, b := c.IsActionRequired(driverState{o, t}); b <= BtrkTol || t-b <= cur+BtrkTol {
					c.Fire(o.Net)
					o.CtlLog.Append(t, c)
					if o.Verbose {
						io.Pf("  control %q fired at t=%g s\n", c.Name(), t)
					}
				}
			}
			continue
		}

		// earliest crossing wins: discard the step, re-solve the shorter
		// sub-step up to the crossing, fire there, then resume towards t
		tc := t - maxbtrk
		winner := req[0]
		converged, err = o.solveAt(tc, tc-cur)
		if err != nil {
			return
		}
		if converged {
			o.Dom.SnapshotTankHeads()
			o.informControls(tc)
		}
		winner.Fire(o.Net)
		o.CtlLog.Append(tc, winner)
		if o.Verbose {
			io.Pf("  control %q fired at t=%g s (backtracked %g s)\n", winner.Name(), tc, maxbtrk)
		}
		cur = tc
	}
}

// solveAt solves the hydraulics at time t for a tank-integration window dt,
// enforcing check valves by closing any CV pipe that carries reverse flow
// and re-solving
func (o *Driver) solveAt(t, dt float64) (converged bool, err error) {

	// refresh step inputs
	o.Dom.SetDemands(t)
	o.applyPressureDriven()
	o.Dom.SetReservoirHeads(t)
	o.Dom.Dt = dt
	if !o.Dom.FirstStep && dt <= 0 {
		o.Dom.Dt = 1e-6 // zero-length re-solve window; keep tank rows regular
	}

	// check-valve rounds
	o.cvClosed = o.cvClosed[:0]
	for round := 0; round <= NmaxCV; round++ {
		o.Dom.RefreshClosed(o.cvClosed)
		converged, err = o.Dom.SolveStep(false)
		if err != nil {
			o.Dom.resetLinSol()
			return
		}
		if !converged {
			return
		}
		blocked := false
		for _, lid := range o.Net.Pipes {
			l := o.Net.Links[lid]
			if l.Status != net.CV || o.Dom.Closed[lid] {
				continue
			}
			if o.Dom.Flow(lid) < -CVflowTol {
				o.cvClosed = append(o.cvClosed, lid)
				blocked = true
			}
		}
		if !blocked {
			return
		}
	}
	return
}

// acceptStep finalises a step at time t: clamps tank levels, advances tank
// heads (on converged steps only), informs controls and appends results
func (o *Driver) acceptStep(t float64, converged bool) {

	if converged {
		o.clampTanks(t)
		o.Dom.SnapshotTankHeads()
		o.informControls(t)
	} else {
		o.Res.AddEvent(t, "nonconverged", "", "Newton iteration did not converge; best-effort state recorded")
		if o.Verbose {
			io.Pfred("step at t=%g s did not converge\n", t)
		}
	}

	// node rows
	nn := o.Net.Nnodes()
	demand := make([]float64, nn)
	head := make([]float64, nn)
	pressure := make([]float64, nn)
	for nid, n := range o.Net.Nodes {
		head[nid] = o.Dom.Head(nid)
		switch n.Kind {
		case net.JunctionKind:
			demand[nid] = o.Dom.Demands[nid]
			pressure[nid] = head[nid] - n.Elevation
		case net.TankKind:
			demand[nid] = o.Dom.TankInflow(o.Net.Tid[nid])
			pressure[nid] = head[nid] - n.Elevation
		case net.ReservoirKind:
			demand[nid] = o.Dom.ReservoirDemand(o.Net.Rid[nid])
			pressure[nid] = 0
		}
		o.prevPres[nid] = pressure[nid]
	}
	o.hasPrev = true

	// link rows
	nl := o.Net.Nlinks()
	flow := make([]float64, nl)
	velocity := make([]float64, nl)
	for lid, l := range o.Net.Links {
		flow[lid] = o.Dom.Flow(lid)
		if l.Kind == net.PipeKind {
			velocity[lid] = 4.0 * math.Abs(flow[lid]) / (math.Pi * l.Diameter * l.Diameter)
		}
	}

	o.Res.AppendStep(t, converged,
		map[string][]float64{out.ColDemand: demand, out.ColHead: head, out.ColPressure: pressure},
		map[string][]float64{out.ColFlowrate: flow, out.ColVelocity: velocity})
}

// clampTanks clamps tank heads to [min,max] level; a tank at a bound has its
// inflow zeroed and the event recorded
func (o *Driver) clampTanks(t float64) {
	for tid, nid := range o.Net.Tanks {
		n := o.Net.Nodes[nid]
		h := o.Dom.Head(nid)
		if h > n.MaxHead() {
			o.Dom.X[o.Dom.OffH+nid] = n.MaxHead()
			o.Dom.X[o.Dom.OffTi+tid] = 0
			o.Res.AddEvent(t, "tankfull", n.Name, "tank reached maximum level; clamped, inflow zeroed")
		} else if h < n.MinHead() {
			o.Dom.X[o.Dom.OffH+nid] = n.MinHead()
			o.Dom.X[o.Dom.OffTi+tid] = 0
			o.Res.AddEvent(t, "tankempty", n.Name, "tank reached minimum level; clamped, inflow zeroed")
		}
	}
}

// controls helpers ///////////////////////////////////////////////////////////////////////////////

// fireTimeControls fires every time control whose trigger is at or before t
func (o *Driver) fireTimeControls(t float64) {
	s := driverState{o, t}
	for _, c := range o.Controls {
		tc, ok := c.(*ctl.TimeControl)
		if !ok {
			continue
		}
		for {
			required, _ := tc.IsActionRequired(s)
			if !required {
				break
			}
			tc.Fire(o.Net)
			o.CtlLog.Append(t, tc)
			if o.Verbose {
				io.Pf("  time control %q fired at t=%g s\n", tc.Name(), t)
			}
		}
	}
}

// requiredControls returns the controls that want to fire at time t, sorted
// by earliest crossing (largest backtrack) then highest priority, along with
// the largest backtrack. Controls whose action would not change the network
// are skipped so a condition that stays true does not re-fire on every step.
func (o *Driver) requiredControls(t float64) (req []ctl.Control, maxbtrk float64) {
	s := driverState{o, t}
	btrk := make(map[ctl.Control]float64)
	for _, c := range o.Controls {
		required, b := c.IsActionRequired(s)
		if !required || !o.actionChanges(c.Action()) {
			continue
		}
		req = append(req, c)
		btrk[c] = b
	}
	if len(req) == 0 {
		return
	}
	sort.SliceStable(req, func(i, j int) bool {
		bi, bj := btrk[req[i]], btrk[req[j]]
		if bi != bj {
			return bi > bj
		}
		return req[i].Priority() > req[j].Priority()
	})
	maxbtrk = btrk[req[0]]
	return
}

// actionChanges reports whether applying the action would change the network
func (o *Driver) actionChanges(a ctl.Action) bool {
	if a.Kind != ctl.LinkObj {
		return true
	}
	l := o.Net.Links[a.Id]
	switch a.Attr {
	case ctl.AttrStatus:
		open := l.Status != net.Closed
		return (a.Value > 0) != open
	case ctl.AttrSpeed:
		return l.Speed != a.Value
	case ctl.AttrSetting:
		return l.Setting != a.Value
	case ctl.AttrPowerOut:
		return l.PowerOut != (a.Value > 0)
	}
	return true
}

// informControls lets every control record history after an accepted step
func (o *Driver) informControls(t float64) {
	s := driverState{o, t}
	for _, c := range o.Controls {
		c.InformSuccessfulStep(s)
	}
}

// applyPressureDriven scales junction demands by the Wagner pressure
// function of the previous accepted step's pressure (lagged one step).
// Demand-driven runs are untouched.
func (o *Driver) applyPressureDriven() {
	if o.Net.Opts.Demands != net.PressureDriven || !o.hasPrev {
		return
	}
	for _, nid := range o.Net.Junctions {
		n := o.Net.Nodes[nid]
		p := o.prevPres[nid]
		var w float64
		switch {
		case p <= n.MinimumP:
			w = 0
		case p >= n.NominalP:
			w = 1
		default:
			w = math.Sqrt((p - n.MinimumP) / (n.NominalP - n.MinimumP))
		}
		o.Dom.Demands[nid] *= w
	}
}
