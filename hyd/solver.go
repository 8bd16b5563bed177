// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
)

// solver constants
const (
	ResTol   = 1e-6 // convergence: ‖R‖∞ below this [SI]
	NmaxIt   = 100  // maximum Newton iterations
	NmaxHalf = 10   // maximum step halvings in the line search
)

// SolveStep runs the damped Newton iteration for one hydraulic step at the
// current demands, reservoir heads, closed set and Dt. The iteration is
//
//   X ← X + α·w   with   J·w = -R
//
// where α starts at 1 and is halved (at most NmaxHalf times) while the step
// increases ‖R‖∞. Failure to converge is reported through converged=false
// but the current X is still the best-effort solution; the driver decides
// whether to accept it.
func (o *Domain) SolveStep(verbose bool) (converged bool, err error) {

	var normR float64
	var it int
	defer func() {
		if verbose {
			io.Pf("%4d iterations, ‖R‖∞ = %23.15e\n", it, normR)
		}
	}()

	for it = 0; it < NmaxIt; it++ {

		// assemble residual and Jacobian at X
		o.AssembleSystem()
		normR = la.VecLargest(o.Rv, 1)
		if normR < ResTol {
			o.zeroClosed()
			return true, nil
		}

		// right-hand side: Fb = -R
		for i := 0; i < o.Nx; i++ {
			o.Fb[i] = -o.Rv[i]
		}

		// initialise linear solver on first use or after a pattern change
		if o.InitLSol {
			err = o.LinSol.InitR(o.Kb, false, false, false)
			if err != nil {
				return false, chk.Err("linear solver initialisation failed:\n%v", err)
			}
			o.InitLSol = false
		}

		// factorise and solve J·w = Fb
		err = o.LinSol.Fact()
		if err != nil {
			return false, chk.Err("Jacobian factorisation failed (singular matrix?):\n%v", err)
		}
		err = o.LinSol.SolveR(o.Wb, o.Fb, false)
		if err != nil {
			return false, chk.Err("linear solve failed:\n%v", err)
		}

		// line search: halve α while the residual grows
		α := 1.0
		for ls := 0; ls <= NmaxHalf; ls++ {
			for i := 0; i < o.Nx; i++ {
				o.Xtrial[i] = o.X[i] + α*o.Wb[i]
			}
			o.AssembleResidual(o.Fb, o.Xtrial) // Fb reused as residual scratch
			if la.VecLargest(o.Fb, 1) < normR || ls == NmaxHalf {
				break
			}
			α /= 2
		}
		copy(o.X, o.Xtrial)
	}

	// re-evaluate the residual at the final X
	o.AssembleResidual(o.Rv, o.X)
	normR = la.VecLargest(o.Rv, 1)
	if normR < ResTol {
		o.zeroClosed()
		return true, nil
	}
	return false, nil
}

// zeroClosed pins flow and headloss of closed links to exactly zero; the
// Newton iteration only brings them below the residual tolerance
func (o *Domain) zeroClosed() {
	for lid, closed := range o.Closed {
		if closed {
			o.X[lid] = 0
			o.X[o.OffHl+lid] = 0
		}
	}
}
