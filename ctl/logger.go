// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctl

import "github.com/cpmech/gosl/io"

// FiredEvent records one fired control
type FiredEvent struct {
	Time    float64 // simulated time of the fire [s]
	Control string  // control name
	Kind    ObjKind // target object kind
	Id      int     // target object id
	Attr    string  // changed attribute
	Value   float64 // new value
}

// Log is an append-only record of every fired control during a run
type Log struct {
	Events []FiredEvent
}

// Append records a fire
func (o *Log) Append(t float64, c Control) {
	a := c.Action()
	o.Events = append(o.Events, FiredEvent{Time: t, Control: c.Name(), Kind: a.Kind, Id: a.Id, Attr: a.Attr, Value: a.Value})
}

// String lists the log, one event per line
func (o *Log) String() (l string) {
	for _, e := range o.Events {
		l += io.Sf("t=%10.1f  %-20s %s=%g (object %d)\n", e.Time, e.Control, e.Attr, e.Value, e.Id)
	}
	return
}
