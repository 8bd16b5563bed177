// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"

	"github.com/stephenfrechette/gohyd/net"
)

// AssembleSystem computes the residual at the current X into Rv and the
// analytic sparse Jacobian into Kb
func (o *Domain) AssembleSystem() {
	o.Kb.Start()
	o.assemble(o.Rv, o.X, o.Kb)
}

// AssembleResidual computes the residual at an arbitrary trial vector x
func (o *Domain) AssembleResidual(res, x []float64) {
	o.assemble(res, x, nil)
}

// assemble walks the residual blocks in their fixed order, keeping a
// sequential row counter; Jacobian entries are emitted alongside each
// residual row when K is non-nil
func (o *Domain) assemble(res, x []float64, K *la.Triplet) {

	put := func(i, j int, v float64) {
		if K != nil {
			K.Put(i, j, v)
		}
	}

	row := 0

	// node balance: Σ inflow - Σ outflow - demand = 0
	for nid, n := range o.Net.Nodes {
		expr := 0.0
		for _, lid := range o.Net.NodeLinks[nid] {
			l := o.Net.Links[lid]
			if l.End == nid {
				expr += x[lid]
				put(row, lid, 1)
			}
			if l.Start == nid {
				expr -= x[lid]
				put(row, lid, -1)
			}
		}
		switch n.Kind {
		case net.JunctionKind:
			res[row] = expr - o.Demands[nid]
		case net.TankKind:
			tid := o.Net.Tid[nid]
			res[row] = expr - x[o.OffTi+tid]
			put(row, o.OffTi+tid, -1)
		case net.ReservoirKind:
			rid := o.Net.Rid[nid]
			res[row] = expr - x[o.OffRd+rid]
			put(row, o.OffRd+rid, -1)
		}
		row++
	}

	// link head-loss relations (open links only)
	for lid, l := range o.Net.Links {
		if o.Closed[lid] {
			continue
		}
		q := x[lid]
		aq := math.Abs(q)
		var hl, dhldq float64
		switch l.Kind {
		case net.PipeKind:
			r := l.HwResistance()
			hl = r * HwLoss(q)
			dhldq = r * HwLossDeriv(aq)
			if l.MinorLoss > 0 {
				m := l.MinorResistance()
				hl += m * q * aq
				dhldq += 2 * m * aq
			}
		case net.PumpKind:
			hl, dhldq = net.PumpHeadGain(o.pumpA[lid], o.pumpB[lid], o.pumpC[lid], l.Speed, q)
		case net.ValveKind:
			// open pipe carrying only the valve's minor loss
			m := l.MinorResistance()
			hl = m * q * aq
			dhldq = 2 * m * aq
		default:
			chk.Panic("link %q has unknown kind", l.Name)
		}
		res[row] = hl - x[o.OffHl+lid]
		put(row, lid, dhldq)
		put(row, o.OffHl+lid, -1)
		row++
	}

	// link head-differences (open links only)
	for lid, l := range o.Net.Links {
		if o.Closed[lid] {
			continue
		}
		res[row] = x[o.OffHl+lid] - (x[o.OffH+l.Start] - x[o.OffH+l.End])
		put(row, o.OffHl+lid, 1)
		put(row, o.OffH+l.Start, -1)
		put(row, o.OffH+l.End, 1)
		row++
	}

	// tank evolution: Dirichlet on the first step, explicit Euler afterwards
	for tid, nid := range o.Net.Tanks {
		n := o.Net.Nodes[nid]
		if o.FirstStep {
			res[row] = x[o.OffH+nid] - n.InitHead()
			put(row, o.OffH+nid, 1)
		} else {
			coef := o.Dt * 4.0 / (math.Pi * n.Diameter * n.Diameter)
			res[row] = x[o.OffTi+tid]*coef - (x[o.OffH+nid] - o.LastTankHead[tid])
			put(row, o.OffH+nid, -1)
			put(row, o.OffTi+tid, coef)
		}
		row++
	}

	// reservoir head fixing
	for rid, nid := range o.Net.Reservoirs {
		res[row] = x[o.OffH+nid] - o.ResHeads[rid]
		put(row, o.OffH+nid, 1)
		row++
	}

	// closed links: flow = 0, replacing the head-loss rows
	for lid := range o.Net.Links {
		if !o.Closed[lid] {
			continue
		}
		res[row] = x[lid]
		put(row, lid, 1)
		row++
	}

	// closed links: headloss = 0, replacing the head-difference rows
	for lid := range o.Net.Links {
		if !o.Closed[lid] {
			continue
		}
		res[row] = x[o.OffHl+lid]
		put(row, o.OffHl+lid, 1)
		row++
	}

	if row != o.Nx {
		chk.Panic("internal error: assembled %d rows but the system has %d", row, o.Nx)
	}
}
