// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctl

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/stephenfrechette/gohyd/net"
)

// TimeFlag selects the clock a TimeControl trigger refers to
type TimeFlag int

const (
	// SimTime measures the trigger in seconds since the start of the simulation
	SimTime TimeFlag = iota

	// ShiftedTime measures the trigger in seconds since 12 AM on day 0 of the
	// simulation; values above 86400 refer to later days
	ShiftedTime
)

// TimeControl fires an action when the simulated (or shifted) time reaches a
// trigger. A daily control re-arms itself 24 h later after each fire;
// otherwise the control is complete after firing once.
type TimeControl struct {
	name     string
	trigger  float64 // trigger time [s]
	flag     TimeFlag
	daily    bool
	action   Action
	priority int
	complete bool
}

// NewTimeControl returns a time control
//  Input:
//   name     -- control name (for logs)
//   trigger  -- trigger time [s], measured per flag
//   flag     -- SimTime or ShiftedTime
//   daily    -- re-arm every 24 h
//   action   -- action to fire
//   priority -- tie-break priority
func NewTimeControl(name string, trigger float64, flag TimeFlag, daily bool, action Action, priority int) *TimeControl {
	if daily && trigger > 24*3600 {
		chk.Panic("time control %q: daily trigger must be within 0 and 24 h, got %g s", name, trigger)
	}
	return &TimeControl{name: name, trigger: trigger, flag: flag, daily: daily, action: action, priority: priority}
}

// Name returns the control name
func (o *TimeControl) Name() string { return o.name }

// Priority returns the tie-break priority
func (o *TimeControl) Priority() int { return o.priority }

// Action returns the action this control fires
func (o *TimeControl) Action() Action { return o.action }

// IsActionRequired implements the Control interface
func (o *TimeControl) IsActionRequired(s State) (required bool, backtrack float64) {
	if o.complete {
		return false, 0
	}
	now := s.Time()
	if o.flag == ShiftedTime {
		now = s.ShiftedTime()
	}
	if o.trigger <= now {
		return true, now - o.trigger
	}
	return false, 0
}

// Fire applies the action and re-arms or completes the control
func (o *TimeControl) Fire(n *net.Network) {
	o.action.Apply(n)
	if o.daily {
		o.trigger += 24 * 3600
	} else {
		o.complete = true
	}
}

// InformSuccessfulStep is a no-op: time controls keep no state history
func (o *TimeControl) InformSuccessfulStep(s State) {}

// String returns a short description
func (o *TimeControl) String() string {
	return io.Sf("time control %q: trigger=%g s daily=%v", o.name, o.trigger, o.daily)
}
