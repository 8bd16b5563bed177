// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/stephenfrechette/gohyd/net"
)

// Todini computes the Todini resilience index for every recorded step. The
// index is the ratio of surplus power delivered at junctions to the maximum
// power that could be dissipated while meeting the required head
// hstar [m] above each junction's elevation:
//
//          Σj qj·(hj - h*j)
//   I = ─────────────────────────
//       Σr (-qr)·hr + Σp qp·gp - Σj qj·h*j
//
// with h*j = elevation_j + hstar, reservoir inflows -qr at head hr and pump
// head gains gp. It is a verification metric, not a solver input.
func Todini(res *Results, n *net.Network, hstar float64) []float64 {
	idx := make([]float64, res.Node.Nslices())
	for k, t := range res.Node.Times {
		var pOut, pExp, pIn, pPump float64
		for _, nid := range n.Junctions {
			nd := n.Nodes[nid]
			q := res.Node.At(nd.Name, t, ColDemand)
			h := res.Node.At(nd.Name, t, ColHead)
			hreq := nd.Elevation + hstar
			pOut += q * h
			pExp += q * hreq
		}
		for _, nid := range n.Reservoirs {
			nd := n.Nodes[nid]
			q := res.Node.At(nd.Name, t, ColDemand)
			h := res.Node.At(nd.Name, t, ColHead)
			pIn += -q * h
		}
		for _, lid := range n.Pumps {
			l := n.Links[lid]
			A, B, C := n.PumpCoeffs(l)
			q := res.Link.At(l.Name, t, ColFlowrate)
			hl, _ := net.PumpHeadGain(A, B, C, l.Speed, q)
			gain := -hl
			if gain < 0 {
				gain = 0
			}
			pPump += math.Abs(q) * gain
		}
		den := pIn + pPump - pExp
		if den != 0 {
			idx[k] = (pOut - pExp) / den
		}
	}
	return idx
}

// TodiniStats returns the mean, minimum and maximum of a Todini series
func TodiniStats(idx []float64) (mean, min, max float64) {
	if len(idx) == 0 {
		return
	}
	mean = floats.Sum(idx) / float64(len(idx))
	min = floats.Min(idx)
	max = floats.Max(idx)
	return
}
