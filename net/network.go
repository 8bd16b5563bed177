// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package net implements the in-memory water distribution network model:
// a graph of typed nodes and links with curves, patterns and options.
// The model is built once, then remains structurally fixed for the duration
// of a simulation run; link statuses and pump settings mutate only through
// the controls subsystem, between solver calls.
package net

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// Network holds all nodes, links, curves, patterns and options of one
// water distribution model. Nodes and links live in flat arrays indexed by
// integer id; names map to ids through NodeMap and LinkMap.
type Network struct {

	// input
	Name     string              // network name
	Nodes    []*Node             // all nodes; index == node id
	Links    []*Link             // all links; index == link id
	Curves   map[string]*Curve   // curves by name
	Patterns map[string]*Pattern // patterns by name
	Opts     Options             // simulation options

	// derived: name → id
	NodeMap map[string]int // node name → id
	LinkMap map[string]int // link name → id

	// derived: subsets (ids)
	Junctions  []int // junction node ids
	Reservoirs []int // reservoir node ids
	Tanks      []int // tank node ids
	Pipes      []int // pipe link ids
	Pumps      []int // pump link ids
	Valves     []int // valve link ids

	// derived: topology and compact indices
	NodeLinks [][]int // [nnodes] incident link ids per node
	Tid       []int   // [nnodes] node id → tank index or -1
	Rid       []int   // [nnodes] node id → reservoir index or -1
}

// New returns an empty network
func New(name string) (o *Network) {
	o = new(Network)
	o.Name = name
	o.Curves = make(map[string]*Curve)
	o.Patterns = make(map[string]*Pattern)
	o.NodeMap = make(map[string]int)
	o.LinkMap = make(map[string]int)
	o.Opts.SetDefault()
	return
}

// sizes ///////////////////////////////////////////////////////////////////////////////////////////

// Nnodes returns the number of nodes
func (o *Network) Nnodes() int { return len(o.Nodes) }

// Nlinks returns the number of links
func (o *Network) Nlinks() int { return len(o.Links) }

// Ntanks returns the number of tanks
func (o *Network) Ntanks() int { return len(o.Tanks) }

// Nreservoirs returns the number of reservoirs
func (o *Network) Nreservoirs() int { return len(o.Reservoirs) }

// construction ////////////////////////////////////////////////////////////////////////////////////

func (o *Network) addNode(n *Node) *Node {
	if _, ok := o.NodeMap[n.Name]; ok {
		chk.Panic("node named %q is defined more than once", n.Name)
	}
	n.Id = len(o.Nodes)
	o.Nodes = append(o.Nodes, n)
	o.NodeMap[n.Name] = n.Id
	return n
}

func (o *Network) addLink(l *Link, start, end string) *Link {
	if _, ok := o.LinkMap[l.Name]; ok {
		chk.Panic("link named %q is defined more than once", l.Name)
	}
	si, ok := o.NodeMap[start]
	if !ok {
		chk.Panic("link %q refers to unknown start node %q; add the node first", l.Name, start)
	}
	ei, ok := o.NodeMap[end]
	if !ok {
		chk.Panic("link %q refers to unknown end node %q; add the node first", l.Name, end)
	}
	l.Id = len(o.Links)
	l.Start = si
	l.End = ei
	o.Links = append(o.Links, l)
	o.LinkMap[l.Name] = l.Id
	return l
}

// AddJunction adds a junction node
//  Input:
//   name       -- unique node name
//   elevation  -- elevation [m]
//   baseDemand -- base demand [m³/s]
//   pattern    -- demand pattern name; "" => constant
func (o *Network) AddJunction(name string, elevation, baseDemand float64, pattern string) *Node {
	return o.addNode(&Node{Name: name, Kind: JunctionKind, Elevation: elevation,
		BaseDemand: baseDemand, DemandPat: pattern, NominalP: 20, MinimumP: 0})
}

// AddReservoir adds a reservoir node
func (o *Network) AddReservoir(name string, baseHead float64, pattern string) *Node {
	return o.addNode(&Node{Name: name, Kind: ReservoirKind, BaseHead: baseHead, HeadPat: pattern})
}

// AddTank adds a tank node
func (o *Network) AddTank(name string, elevation, initLevel, minLevel, maxLevel, diameter float64) *Node {
	return o.addNode(&Node{Name: name, Kind: TankKind, Elevation: elevation,
		InitLevel: initLevel, MinLevel: minLevel, MaxLevel: maxLevel, Diameter: diameter})
}

// AddPipe adds a pipe link
func (o *Network) AddPipe(name, start, end string, length, diameter, roughness, minorLoss float64, status LinkStatus) *Link {
	return o.addLink(&Link{Name: name, Kind: PipeKind, Length: length, Diameter: diameter,
		Roughness: roughness, MinorLoss: minorLoss, Status: status}, start, end)
}

// AddPump adds a pump link referring to a head curve
func (o *Network) AddPump(name, start, end, curveName string) *Link {
	return o.addLink(&Link{Name: name, Kind: PumpKind, CurveName: curveName, Speed: 1.0}, start, end)
}

// AddValve adds a valve link. Non-open valve behavior is modeled as an open
// pipe with the valve's minor-loss coefficient.
func (o *Network) AddValve(name, start, end string, diameter float64, vtype ValveType, setting, minorLoss float64) *Link {
	return o.addLink(&Link{Name: name, Kind: ValveKind, Diameter: diameter,
		Vtype: vtype, Setting: setting, MinorLoss: minorLoss}, start, end)
}

// AddCurve adds a curve
func (o *Network) AddCurve(name string, ctype CurveType, x, y []float64) *Curve {
	if len(x) != len(y) {
		chk.Panic("curve %q has %d abscissae and %d ordinates", name, len(x), len(y))
	}
	c := &Curve{Name: name, Type: ctype, X: x, Y: y}
	o.Curves[name] = c
	return c
}

// AddPattern adds a pattern
func (o *Network) AddPattern(name string, mults []float64) *Pattern {
	if len(mults) == 0 {
		chk.Panic("pattern %q has no multipliers", name)
	}
	p := &Pattern{Name: name, Mults: mults}
	o.Patterns[name] = p
	return p
}

// Init builds the derived data (subsets, incidence lists, compact indices)
// and validates the model. It must be called once, after all components are
// added and before the network is handed to the solver. Structural problems
// are fatal.
func (o *Network) Init() {

	// subsets and compact indices
	nn := len(o.Nodes)
	o.Junctions = o.Junctions[:0]
	o.Reservoirs = o.Reservoirs[:0]
	o.Tanks = o.Tanks[:0]
	o.Tid = make([]int, nn)
	o.Rid = make([]int, nn)
	for i, n := range o.Nodes {
		o.Tid[i] = -1
		o.Rid[i] = -1
		switch n.Kind {
		case JunctionKind:
			o.Junctions = append(o.Junctions, i)
		case ReservoirKind:
			o.Rid[i] = len(o.Reservoirs)
			o.Reservoirs = append(o.Reservoirs, i)
		case TankKind:
			o.Tid[i] = len(o.Tanks)
			o.Tanks = append(o.Tanks, i)
			if n.MinLevel > n.MaxLevel {
				chk.Panic("tank %q has min level %g above max level %g", n.Name, n.MinLevel, n.MaxLevel)
			}
			if n.InitLevel < n.MinLevel || n.InitLevel > n.MaxLevel {
				chk.Panic("tank %q has initial level %g outside [%g,%g]", n.Name, n.InitLevel, n.MinLevel, n.MaxLevel)
			}
			if n.Diameter <= 0 && n.VolCurve == "" {
				chk.Panic("tank %q needs a positive diameter or a volume curve", n.Name)
			}
			if n.VolCurve != "" {
				c, ok := o.Curves[n.VolCurve]
				if !ok {
					chk.Panic("tank %q refers to unknown volume curve %q", n.Name, n.VolCurve)
				}
				n.Diameter = equivalentDiameter(n.Name, c)
			}
		default:
			chk.Panic("node %q has unknown kind", n.Name)
		}
	}

	// links
	o.Pipes = o.Pipes[:0]
	o.Pumps = o.Pumps[:0]
	o.Valves = o.Valves[:0]
	o.NodeLinks = make([][]int, nn)
	for i, l := range o.Links {
		if l.Start < 0 || l.Start >= nn || l.End < 0 || l.End >= nn {
			chk.Panic("link %q refers to nonexistent nodes", l.Name)
		}
		o.NodeLinks[l.Start] = append(o.NodeLinks[l.Start], i)
		o.NodeLinks[l.End] = append(o.NodeLinks[l.End], i)
		switch l.Kind {
		case PipeKind:
			o.Pipes = append(o.Pipes, i)
			if l.Length <= 0 || l.Diameter <= 0 || l.Roughness <= 0 {
				chk.Panic("pipe %q needs positive length, diameter and roughness", l.Name)
			}
		case PumpKind:
			o.Pumps = append(o.Pumps, i)
			c, ok := o.Curves[l.CurveName]
			if !ok {
				chk.Panic("pump %q refers to unknown head curve %q", l.Name, l.CurveName)
			}
			if c.Npts() != 1 && c.Npts() != 3 {
				chk.Panic("pump %q: head curve %q has %d points; only 1- and 3-point curves are supported", l.Name, l.CurveName, c.Npts())
			}
			if l.Speed == 0 {
				l.Speed = 1.0
			}
		case ValveKind:
			o.Valves = append(o.Valves, i)
			if l.Diameter <= 0 {
				chk.Panic("valve %q needs a positive diameter", l.Name)
			}
		default:
			chk.Panic("link %q has unknown kind", l.Name)
		}
	}

	// patterns referenced by nodes must exist
	for _, n := range o.Nodes {
		if n.DemandPat != "" {
			if _, ok := o.Patterns[n.DemandPat]; !ok {
				chk.Panic("node %q refers to unknown demand pattern %q", n.Name, n.DemandPat)
			}
		}
		if n.HeadPat != "" {
			if _, ok := o.Patterns[n.HeadPat]; !ok {
				chk.Panic("node %q refers to unknown head pattern %q", n.Name, n.HeadPat)
			}
		}
	}
}

// equivalentDiameter returns the diameter of a cylinder with the same mean
// cross-section as a (level, volume) curve; the tank evolution equation
// assumes a cylindrical tank
func equivalentDiameter(tank string, c *Curve) float64 {
	np := c.Npts()
	if np < 2 {
		chk.Panic("tank %q: volume curve %q needs at least two points", tank, c.Name)
	}
	dl := c.X[np-1] - c.X[0]
	dv := c.Y[np-1] - c.Y[0]
	if dl <= 0 || dv <= 0 {
		chk.Panic("tank %q: volume curve %q must increase in level and volume", tank, c.Name)
	}
	return math.Sqrt(4.0 * dv / (math.Pi * dl))
}

// lookup //////////////////////////////////////////////////////////////////////////////////////////

// GetNode returns a node by name; nil if absent
func (o *Network) GetNode(name string) *Node {
	if id, ok := o.NodeMap[name]; ok {
		return o.Nodes[id]
	}
	return nil
}

// GetLink returns a link by name; nil if absent
func (o *Network) GetLink(name string) *Link {
	if id, ok := o.LinkMap[name]; ok {
		return o.Links[id]
	}
	return nil
}

// LinksOf returns the ids of all links incident to node nid
func (o *Network) LinksOf(nid int) []int {
	return o.NodeLinks[nid]
}

// PatternAt returns the multiplier of the named pattern at time t;
// 1.0 for the empty name
func (o *Network) PatternAt(name string, t float64) float64 {
	if name == "" {
		return 1.0
	}
	p, ok := o.Patterns[name]
	if !ok {
		return 1.0
	}
	return p.At(t, o.Opts.PatStart, o.Opts.PatStep)
}

// mutators (used by the controls subsystem, between solver calls) /////////////////////////////////

// SetLinkStatus changes the status of a link
func (o *Network) SetLinkStatus(lid int, status LinkStatus) {
	o.Links[lid].Status = status
}

// SetPumpSpeed changes the relative speed of a pump
func (o *Network) SetPumpSpeed(lid int, speed float64) {
	if o.Links[lid].Kind != PumpKind {
		chk.Panic("link %q is not a pump", o.Links[lid].Name)
	}
	o.Links[lid].Speed = speed
}

// SetPumpPowerOut sets or clears the power-outage flag of a pump
func (o *Network) SetPumpPowerOut(lid int, out bool) {
	if o.Links[lid].Kind != PumpKind {
		chk.Panic("link %q is not a pump", o.Links[lid].Name)
	}
	o.Links[lid].PowerOut = out
}
