// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package out implements the simulation results store and its consumers:
// tabular access, CSV and binary writers and verification metrics.
package out

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/stephenfrechette/gohyd/net"
)

// node table columns
const (
	ColDemand   = "demand"
	ColHead     = "head"
	ColPressure = "pressure"
)

// link table columns
const (
	ColFlowrate = "flowrate"
	ColVelocity = "velocity"
)

// Table is a time-indexed table keyed by (name, time). Rows are appended one
// full time slice at a time; all names must be registered before the first
// slice is appended.
type Table struct {
	Names   []string             // row entities, in registration order
	Types   []string             // entity type per name
	Times   []float64            // appended times, in order
	Columns map[string][]float64 // column → values, one per (time, name), time-major

	nameIdx map[string]int
}

// NewTable returns a table for the given entities
func NewTable(names, types []string, columns []string) (o *Table) {
	o = new(Table)
	o.Names = names
	o.Types = types
	o.Columns = make(map[string][]float64)
	for _, c := range columns {
		o.Columns[c] = nil
	}
	o.buildIndex()
	return
}

// buildIndex recreates the name lookup (needed after decoding)
func (o *Table) buildIndex() {
	o.nameIdx = make(map[string]int)
	for i, n := range o.Names {
		o.nameIdx[n] = i
	}
}

// AppendSlice appends the values of one time slice. vals maps column name to
// a slice aligned with Names.
func (o *Table) AppendSlice(t float64, vals map[string][]float64) {
	o.Times = append(o.Times, t)
	for c := range o.Columns {
		v, ok := vals[c]
		if !ok || len(v) != len(o.Names) {
			chk.Panic("time slice at t=%g misses column %q or has wrong length", t, c)
		}
		o.Columns[c] = append(o.Columns[c], v...)
	}
}

// At returns the value of a column for (name, time). Times are matched
// within 1e-9 s.
func (o *Table) At(name string, t float64, column string) float64 {
	i, ok := o.nameIdx[name]
	if !ok {
		chk.Panic("table has no entity named %q", name)
	}
	col, ok := o.Columns[column]
	if !ok {
		chk.Panic("table has no column named %q", column)
	}
	for k, tk := range o.Times {
		if math.Abs(tk-t) < 1e-9 {
			return col[k*len(o.Names)+i]
		}
	}
	chk.Panic("table has no slice at t=%g", t)
	return 0
}

// TypeOf returns the type tag of an entity
func (o *Table) TypeOf(name string) string {
	i, ok := o.nameIdx[name]
	if !ok {
		chk.Panic("table has no entity named %q", name)
	}
	return o.Types[i]
}

// Nslices returns the number of appended time slices
func (o *Table) Nslices() int { return len(o.Times) }

// Event records a noteworthy occurrence during a run (tank at bound,
// non-convergence, control oscillation)
type Event struct {
	Time float64 // simulated time [s]
	Kind string  // event kind
	Name string  // object involved
	Note string  // free text
}

// Results is the append-only record of one simulation run
type Results struct {
	Network   string    // network name
	Node      *Table    // per-node results: demand, head, pressure
	Link      *Table    // per-link results: flowrate, velocity
	Converged []bool    // per recorded step
	Events    []Event   // recorded events
	Options   net.Options
}

// NewResults allocates a results store for a network
func NewResults(n *net.Network) (o *Results) {
	o = new(Results)
	o.Network = n.Name
	o.Options = n.Opts

	nodeNames := make([]string, n.Nnodes())
	nodeTypes := make([]string, n.Nnodes())
	for i, nd := range n.Nodes {
		nodeNames[i] = nd.Name
		nodeTypes[i] = nd.Kind.String()
	}
	o.Node = NewTable(nodeNames, nodeTypes, []string{ColDemand, ColHead, ColPressure})

	linkNames := make([]string, n.Nlinks())
	linkTypes := make([]string, n.Nlinks())
	for i, l := range n.Links {
		linkNames[i] = l.Name
		linkTypes[i] = l.Kind.String()
	}
	o.Link = NewTable(linkNames, linkTypes, []string{ColFlowrate, ColVelocity})
	return
}

// AppendStep records one hydraulic step
//  Input:
//   t         -- simulated time [s]
//   converged -- whether the solver converged at this step
//   nodeVals  -- demand, head, pressure slices aligned with node ids
//   linkVals  -- flowrate, velocity slices aligned with link ids
func (o *Results) AppendStep(t float64, converged bool, nodeVals, linkVals map[string][]float64) {
	o.Node.AppendSlice(t, nodeVals)
	o.Link.AppendSlice(t, linkVals)
	o.Converged = append(o.Converged, converged)
}

// AddEvent records an event
func (o *Results) AddEvent(t float64, kind, name, note string) {
	o.Events = append(o.Events, Event{Time: t, Kind: kind, Name: name, Note: note})
}

// AllConverged reports whether every recorded step converged
func (o *Results) AllConverged() bool {
	for _, c := range o.Converged {
		if !c {
			return false
		}
	}
	return true
}
