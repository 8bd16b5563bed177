// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package hyd implements the hydraulic core: residual and Jacobian assembly
// of the network equations, the damped Newton solver for one hydraulic step
// and the extended-period driver that stitches steps together through tank
// level integration and the controls subsystem.
package hyd

import (
	"github.com/cpmech/gosl/la"

	"github.com/stephenfrechette/gohyd/net"
)

// Domain holds the solver state for one network: the unknowns vector, the
// assembled residual and sparse Jacobian, demand and reservoir-head caches
// and the linear solver.
//
// The unknowns vector X concatenates, in fixed order,
//
//   [ flow (L) | headloss (L) | head (N) | tank inflow (T) | reservoir demand (R) ]
//
// giving 2L+N+T+R entries. The residual rows follow the same count: node
// balances (N), link head-loss relations and link head-differences for open
// links, tank evolution (T), reservoir head fixing (R), then one flow-zero
// and one headloss-zero row per closed link, replacing that link's head-loss
// and head-difference rows. This block layout is the load-bearing design
// decision for assembly performance; AssembleSystem follows it literally.
type Domain struct {

	// read-only network reference
	Net *net.Network

	// dimensions and offsets into X
	Nl, Nn, Nt, Nr int // number of links, nodes, tanks, reservoirs
	Nx             int // 2L+N+T+R
	OffHl          int // offset of headloss block == L
	OffH           int // offset of head block == 2L
	OffTi          int // offset of tank inflow block == 2L+N
	OffRd          int // offset of reservoir demand block == 2L+N+T

	// step inputs, refreshed by the driver
	Demands      []float64 // [Nn] current nodal demands (junction entries used)
	ResHeads     []float64 // [Nr] current reservoir heads (base·pattern)
	LastTankHead []float64 // [Nt] tank heads at the end of the previous accepted step
	Dt           float64   // current hydraulic step [s]
	FirstStep    bool      // first time step: tank heads are Dirichlet
	Closed       []bool    // [Nl] links excluded from the head equations

	// solution and solver workspace
	X        []float64   // unknowns
	Rv       []float64   // residual
	Fb       []float64   // -residual (right-hand side)
	Wb       []float64   // Newton step workspace
	Xtrial   []float64   // line search workspace
	Kb       *la.Triplet // sparse Jacobian
	LinSol   la.LinSol   // linear solver
	InitLSol bool        // linear solver must be (re)initialised before use

	// cached pump coefficients, indexed like Net.Links (nonzero for pumps)
	pumpA, pumpB, pumpC []float64
}

// NewDomain allocates a domain for a network. The network must be Init'ed.
func NewDomain(n *net.Network) (o *Domain) {
	o = new(Domain)
	o.Net = n
	o.Nl = n.Nlinks()
	o.Nn = n.Nnodes()
	o.Nt = n.Ntanks()
	o.Nr = n.Nreservoirs()
	o.Nx = 2*o.Nl + o.Nn + o.Nt + o.Nr
	o.OffHl = o.Nl
	o.OffH = 2 * o.Nl
	o.OffTi = 2*o.Nl + o.Nn
	o.OffRd = 2*o.Nl + o.Nn + o.Nt

	o.Demands = make([]float64, o.Nn)
	o.ResHeads = make([]float64, o.Nr)
	o.LastTankHead = make([]float64, o.Nt)
	o.Closed = make([]bool, o.Nl)

	o.X = make([]float64, o.Nx)
	o.Rv = make([]float64, o.Nx)
	o.Fb = make([]float64, o.Nx)
	o.Wb = make([]float64, o.Nx)
	o.Xtrial = make([]float64, o.Nx)
	o.Kb = new(la.Triplet)
	o.Kb.Init(o.Nx, o.Nx, o.nnzEstimate())
	o.LinSol = la.GetSolver("umfpack")
	o.InitLSol = true

	// pump coefficients
	o.pumpA = make([]float64, o.Nl)
	o.pumpB = make([]float64, o.Nl)
	o.pumpC = make([]float64, o.Nl)
	for _, lid := range n.Pumps {
		o.pumpA[lid], o.pumpB[lid], o.pumpC[lid] = n.PumpCoeffs(n.Links[lid])
	}

	// initial reservoir heads at t=0
	for i, nid := range n.Reservoirs {
		o.ResHeads[i] = n.Nodes[nid].BaseHead * n.PatternAt(n.Nodes[nid].HeadPat, 0)
	}

	o.InitX()
	o.SnapshotTankHeads()
	o.FirstStep = true
	return
}

// nnzEstimate bounds the number of Jacobian nonzeros: node rows carry one
// entry per incident link plus one, link rows at most three entries, tank
// rows two and reservoir rows one.
func (o *Domain) nnzEstimate() int {
	return 7*o.Nl + o.Nn + 2*o.Nt + o.Nr + 16
}

// InitX warm-starts the unknowns: flows 0.1, headlosses 10, heads 200,
// tank heads elevation+initial level, tank inflows 0.1, reservoir demands 1
func (o *Domain) InitX() {
	for i := 0; i < o.Nl; i++ {
		o.X[i] = 0.1
		o.X[o.OffHl+i] = 10.0
	}
	for i := 0; i < o.Nn; i++ {
		o.X[o.OffH+i] = 200.0
	}
	for _, nid := range o.Net.Tanks {
		o.X[o.OffH+nid] = o.Net.Nodes[nid].InitHead()
	}
	for i := 0; i < o.Nt; i++ {
		o.X[o.OffTi+i] = 0.1
	}
	for i := 0; i < o.Nr; i++ {
		o.X[o.OffRd+i] = 1.0
	}
}

// accessors into the solution ////////////////////////////////////////////////////////////////////

// Flow returns the flow through link lid
func (o *Domain) Flow(lid int) float64 { return o.X[lid] }

// Headloss returns the head loss across link lid
func (o *Domain) Headloss(lid int) float64 { return o.X[o.OffHl+lid] }

// Head returns the total head at node nid
func (o *Domain) Head(nid int) float64 { return o.X[o.OffH+nid] }

// TankInflow returns the signed inflow into tank tid (tank index, not node id)
func (o *Domain) TankInflow(tid int) float64 { return o.X[o.OffTi+tid] }

// ReservoirDemand returns the demand variable of reservoir rid
func (o *Domain) ReservoirDemand(rid int) float64 { return o.X[o.OffRd+rid] }

// step management ////////////////////////////////////////////////////////////////////////////////

// SnapshotTankHeads copies the current tank heads into LastTankHead
func (o *Domain) SnapshotTankHeads() {
	for i, nid := range o.Net.Tanks {
		o.LastTankHead[i] = o.X[o.OffH+nid]
	}
}

// SetDemands refreshes the junction demands for time t (base·pattern)
func (o *Domain) SetDemands(t float64) {
	for i := range o.Demands {
		o.Demands[i] = 0
	}
	for _, nid := range o.Net.Junctions {
		n := o.Net.Nodes[nid]
		o.Demands[nid] = n.BaseDemand * o.Net.PatternAt(n.DemandPat, t)
	}
}

// SetReservoirHeads refreshes the reservoir heads for time t (base·pattern)
func (o *Domain) SetReservoirHeads(t float64) {
	for i, nid := range o.Net.Reservoirs {
		n := o.Net.Nodes[nid]
		o.ResHeads[i] = n.BaseHead * o.Net.PatternAt(n.HeadPat, t)
	}
}

// RefreshClosed recomputes the closed set from the network statuses: links
// with Closed status and pumps under power outage. Extra ids (e.g. check
// valves blocked for this step) are added on top. The linear solver is
// re-initialised whenever the set changes, since the sparsity pattern moves.
func (o *Domain) RefreshClosed(extra []int) {
	changed := false
	set := func(i int, v bool) {
		if o.Closed[i] != v {
			o.Closed[i] = v
			changed = true
		}
	}
	for i, l := range o.Net.Links {
		c := l.Status == net.Closed
		if l.Kind == net.PumpKind && l.PowerOut {
			c = true
		}
		set(i, c)
	}
	for _, i := range extra {
		set(i, true)
	}
	if changed {
		o.resetLinSol()
	}
}

// resetLinSol forces re-initialisation of the linear solver
func (o *Domain) resetLinSol() {
	if !o.InitLSol {
		o.LinSol.Clean()
		o.InitLSol = true
	}
}

// Clean releases the linear solver resources; must be called on all exit
// paths, including solver failure
func (o *Domain) Clean() {
	if !o.InitLSol {
		o.LinSol.Clean()
		o.InitLSol = true
	}
}
