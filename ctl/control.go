// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ctl implements the controls subsystem: time-triggered and
// threshold-triggered actions that open/close links or change settings,
// with support for sub-step backtracking to an interpolated crossing time.
package ctl

import (
	"github.com/cpmech/gosl/chk"

	"github.com/stephenfrechette/gohyd/net"
)

// ObjKind identifies the kind of object monitored or acted upon
type ObjKind int

const (
	NodeObj ObjKind = iota + 1
	LinkObj
)

// Attribute names understood by actions and conditions
const (
	AttrStatus   = "status"   // link status; value 1 => open, 0 => closed
	AttrSpeed    = "speed"    // pump relative speed
	AttrSetting  = "setting"  // valve setting
	AttrPowerOut = "powerout" // pump power outage; value 1 => out
	AttrLevel    = "level"    // node level (head - elevation)
	AttrHead     = "head"     // node total head
	AttrFlow     = "flow"     // link flow
)

// State is a read-only view of the current hydraulic state, implemented by
// the EPS driver. Controls query it to decide whether to fire.
type State interface {
	Time() float64            // current simulated time [s]
	ShiftedTime() float64     // seconds since 12 AM on day 0; may exceed 86400
	NodeHead(id int) float64  // total head at node [m]
	NodeLevel(id int) float64 // head - elevation [m]
	LinkFlow(id int) float64  // flow through link [m³/s]
	SolverTolerance() float64 // backtracks at or below this are "fire now"
}

// Control is the capability set shared by all control variants
type Control interface {

	// IsActionRequired returns whether the control wants to fire at the
	// current state and, if so, how far back [s] from the current simulated
	// time the actual crossing occurred. A backtrack at or below the solver
	// tolerance means "fire now, no rewind needed".
	IsActionRequired(s State) (required bool, backtrack float64)

	// Fire applies the control's action to the network
	Fire(n *net.Network)

	// InformSuccessfulStep lets the control record history (e.g. the
	// previously monitored value) after an accepted step
	InformSuccessfulStep(s State)

	// Priority breaks ties when multiple controls fire at the same instant
	Priority() int

	// Name identifies the control in logs
	Name() string

	// Action returns the action the control fires, for logging
	Action() Action
}

// Action is a deferred mutation of a network attribute. The target is held
// as a (kind, id, attribute) record and resolved at fire time, so an action
// never keeps a live reference into the model.
type Action struct {
	Kind  ObjKind // target object kind
	Id    int     // target object id
	Attr  string  // attribute to change
	Value float64 // new value
}

// Apply resolves the target and applies the mutation
func (o Action) Apply(n *net.Network) {
	switch o.Kind {
	case LinkObj:
		switch o.Attr {
		case AttrStatus:
			if o.Value > 0 {
				n.SetLinkStatus(o.Id, net.Open)
			} else {
				n.SetLinkStatus(o.Id, net.Closed)
			}
		case AttrSpeed:
			n.SetPumpSpeed(o.Id, o.Value)
		case AttrSetting:
			n.Links[o.Id].Setting = o.Value
		case AttrPowerOut:
			n.SetPumpPowerOut(o.Id, o.Value > 0)
		default:
			chk.Panic("cannot apply action: unknown link attribute %q", o.Attr)
		}
	case NodeObj:
		chk.Panic("cannot apply action: node attributes are not controllable")
	default:
		chk.Panic("cannot apply action: unknown object kind %d", o.Kind)
	}
}

// sourceValue reads a monitored attribute from the state
func sourceValue(s State, kind ObjKind, id int, attr string) float64 {
	switch kind {
	case NodeObj:
		switch attr {
		case AttrLevel:
			return s.NodeLevel(id)
		case AttrHead:
			return s.NodeHead(id)
		}
	case LinkObj:
		if attr == AttrFlow {
			return s.LinkFlow(id)
		}
	}
	chk.Panic("cannot monitor attribute %q of object kind %d", attr, kind)
	return 0
}
