// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctl

import (
	"github.com/cpmech/gosl/io"

	"github.com/stephenfrechette/gohyd/net"
)

// Comparison is the relation between a monitored value and a threshold
type Comparison int

const (
	Greater Comparison = iota + 1
	GreaterEqual
	Less
	LessEqual
)

// Holds returns whether "value cmp threshold" is true
func (o Comparison) Holds(value, threshold float64) bool {
	switch o {
	case Greater:
		return value > threshold
	case GreaterEqual:
		return value >= threshold
	case Less:
		return value < threshold
	case LessEqual:
		return value <= threshold
	}
	return false
}

// ConditionalControl fires an action when a monitored attribute of a node or
// link crosses a threshold. The backtrack time is found by linear
// interpolation between the previous accepted step's value and the current
// value, so the driver can re-solve a shorter sub-step and fire the action
// at the crossing time rather than at the end of the surrounding step.
type ConditionalControl struct {
	name      string
	srcKind   ObjKind
	srcId     int
	srcAttr   string
	cmp       Comparison
	threshold float64
	action    Action
	priority  int

	// history from the last accepted step, for interpolation
	prevTime  float64
	prevValue float64
	hasPrev   bool
}

// NewConditionalControl returns a conditional control
//  Input:
//   name      -- control name (for logs)
//   srcKind   -- kind of the monitored object
//   srcId     -- id of the monitored object
//   srcAttr   -- monitored attribute: AttrLevel, AttrHead or AttrFlow
//   cmp       -- comparison against the threshold
//   threshold -- threshold value
//   action    -- action to fire when the comparison holds
//   priority  -- tie-break priority
func NewConditionalControl(name string, srcKind ObjKind, srcId int, srcAttr string, cmp Comparison, threshold float64, action Action, priority int) *ConditionalControl {
	return &ConditionalControl{name: name, srcKind: srcKind, srcId: srcId, srcAttr: srcAttr,
		cmp: cmp, threshold: threshold, action: action, priority: priority}
}

// Name returns the control name
func (o *ConditionalControl) Name() string { return o.name }

// Priority returns the tie-break priority
func (o *ConditionalControl) Priority() int { return o.priority }

// Action returns the action this control fires
func (o *ConditionalControl) Action() Action { return o.action }

// IsActionRequired implements the Control interface. When the comparison
// holds, the crossing time is interpolated as
//
//   t_cross = t⁻ + (threshold - v⁻)·(t - t⁻)/(v - v⁻)
//
// and the backtrack is t - t_cross.
func (o *ConditionalControl) IsActionRequired(s State) (required bool, backtrack float64) {
	value := sourceValue(s, o.srcKind, o.srcId, o.srcAttr)
	if !o.cmp.Holds(value, o.threshold) {
		return false, 0
	}
	t := s.Time()
	if !o.hasPrev || value == o.prevValue || t == o.prevTime {
		// no usable history (first step, or flat trajectory): fire now
		return true, 0
	}
	if o.cmp.Holds(o.prevValue, o.threshold) {
		// condition already held at the previous step; no new crossing
		return true, 0
	}
	tcross := o.prevTime + (o.threshold-o.prevValue)*(t-o.prevTime)/(value-o.prevValue)
	backtrack = t - tcross
	if backtrack < 0 {
		backtrack = 0
	}
	return true, backtrack
}

// Fire applies the action
func (o *ConditionalControl) Fire(n *net.Network) {
	o.action.Apply(n)
}

// InformSuccessfulStep records the monitored value for interpolation on the
// next step
func (o *ConditionalControl) InformSuccessfulStep(s State) {
	o.prevTime = s.Time()
	o.prevValue = sourceValue(s, o.srcKind, o.srcId, o.srcAttr)
	o.hasPrev = true
}

// String returns a short description
func (o *ConditionalControl) String() string {
	return io.Sf("conditional control %q: threshold=%g", o.name, o.threshold)
}
