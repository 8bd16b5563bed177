// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data read from an EPANET-style (.inp)
// text file. All quantities are converted to SI (m, m³/s, s) at parse time;
// the rest of the repository never sees input units.
package inp

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/stephenfrechette/gohyd/ctl"
	"github.com/stephenfrechette/gohyd/net"
)

// Model bundles everything read from one input file
type Model struct {
	Network  *net.Network  // the network, Init'ed and validated
	Controls []ctl.Control // controls from the [CONTROLS] section
	Warnings []string      // skipped sections and ignored entries
}

// ReadInp reads a network model from an EPANET-style .inp file
func ReadInp(filename string) (m *Model, err error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, chk.Err("cannot read input file %q:\n%v", filename, err)
	}
	return ParseInp(string(b), io.FnKey(filename))
}

// ParseInp parses the text of an .inp file. The sections may appear in any
// order; nodes are created before links and controls are resolved last.
// Construction panics (duplicate names, invalid components) surface as
// errors.
func ParseInp(text, name string) (m *Model, err error) {

	defer func() {
		if r := recover(); r != nil {
			m, err = nil, chk.Err("invalid network: %v", r)
		}
	}()

	// collect lines per section
	sections := make(map[string][]string)
	var current string
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			current = strings.ToUpper(strings.Trim(line, "[]"))
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], line)
		}
	}

	m = new(Model)
	m.Network = net.New(name)
	n := m.Network

	// options come first: they fix the unit system
	units := flowUnits["GPM"]
	if err = m.readOptions(sections["OPTIONS"], &units); err != nil {
		return nil, err
	}
	if err = m.readTimes(sections["TIMES"]); err != nil {
		return nil, err
	}

	// patterns and curves before the components that reference them
	if err = m.readPatterns(sections["PATTERNS"]); err != nil {
		return nil, err
	}
	if err = m.readCurves(sections["CURVES"]); err != nil {
		return nil, err
	}

	// nodes, then links
	if err = m.readJunctions(sections["JUNCTIONS"], units); err != nil {
		return nil, err
	}
	if err = m.readReservoirs(sections["RESERVOIRS"], units); err != nil {
		return nil, err
	}
	if err = m.readTanks(sections["TANKS"], units); err != nil {
		return nil, err
	}
	if err = m.readPipes(sections["PIPES"], units); err != nil {
		return nil, err
	}
	if err = m.readPumps(sections["PUMPS"], units); err != nil {
		return nil, err
	}
	if err = m.readValves(sections["VALVES"], units); err != nil {
		return nil, err
	}
	if err = m.readDemands(sections["DEMANDS"], units); err != nil {
		return nil, err
	}
	if err = m.readStatus(sections["STATUS"]); err != nil {
		return nil, err
	}
	if err = m.readCoordinates(sections["COORDINATES"]); err != nil {
		return nil, err
	}

	// convert curve units now that their roles are known
	m.convertCurves(units)

	// controls refer to links and nodes: last
	if err = m.readControls(sections["CONTROLS"], units); err != nil {
		return nil, err
	}

	// note skipped sections
	known := map[string]bool{
		"OPTIONS": true, "TIMES": true, "PATTERNS": true, "CURVES": true,
		"JUNCTIONS": true, "RESERVOIRS": true, "TANKS": true, "PIPES": true,
		"PUMPS": true, "VALVES": true, "DEMANDS": true, "STATUS": true,
		"COORDINATES": true, "CONTROLS": true, "TITLE": true, "END": true,
	}
	for sec := range sections {
		if !known[sec] {
			m.Warnings = append(m.Warnings, io.Sf("section [%s] is not supported and was skipped", sec))
		}
	}

	// derived data and structural validation
	n.Init()
	return
}

// sections ///////////////////////////////////////////////////////////////////////////////////////

func (o *Model) readOptions(lines []string, units *unitConv) (err error) {
	for _, line := range lines {
		f := strings.Fields(line)
		key := strings.ToUpper(f[0])
		switch key {
		case "UNITS":
			if len(f) < 2 {
				return chk.Err("[OPTIONS] UNITS needs a value")
			}
			*units, err = getUnits(f[1])
			if err != nil {
				return
			}
		case "HEADLOSS":
			if len(f) < 2 {
				return chk.Err("[OPTIONS] HEADLOSS needs a value")
			}
			hl := strings.ToUpper(f[1])
			if hl != "H-W" && hl != "HW" {
				return chk.Err("headloss formula %q is not supported; only Hazen-Williams (H-W) is available", f[1])
			}
		case "DEMAND":
			if len(f) >= 3 && strings.ToUpper(f[1]) == "MODEL" {
				switch strings.ToUpper(f[2]) {
				case "DDA":
					o.Network.Opts.Demands = net.DemandDriven
				case "PDA":
					o.Network.Opts.Demands = net.PressureDriven
				default:
					return chk.Err("demand model %q is not supported", f[2])
				}
			}
		case "QUALITY":
			o.Network.Opts.QualityNoted = true
			o.Warnings = append(o.Warnings, "[OPTIONS] QUALITY is ignored: water-quality simulation is not supported")
		default:
			// remaining options do not affect the hydraulic core
		}
	}
	return
}

func (o *Model) readTimes(lines []string) (err error) {
	opts := &o.Network.Opts
	for _, line := range lines {
		f := strings.Fields(line)
		key := strings.ToUpper(f[0])
		switch {
		case key == "DURATION":
			opts.Duration, err = parseTime(f[1:])
		case key == "HYDRAULIC" && len(f) > 1 && strings.ToUpper(f[1]) == "TIMESTEP":
			opts.HydStep, err = parseTime(f[2:])
		case key == "PATTERN" && len(f) > 1 && strings.ToUpper(f[1]) == "TIMESTEP":
			opts.PatStep, err = parseTime(f[2:])
		case key == "PATTERN" && len(f) > 1 && strings.ToUpper(f[1]) == "START":
			opts.PatStart, err = parseTime(f[2:])
		case key == "START" && len(f) > 1 && strings.ToUpper(f[1]) == "CLOCKTIME":
			opts.StartClock, err = parseClockTime(f[2:])
		default:
			// report and quality timesteps do not affect the hydraulic core
		}
		if err != nil {
			return chk.Err("[TIMES] cannot parse %q:\n%v", line, err)
		}
	}
	return
}

func (o *Model) readPatterns(lines []string) (err error) {
	mults := make(map[string][]float64)
	var order []string
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 2 {
			return chk.Err("[PATTERNS] line %q needs an id and at least one multiplier", line)
		}
		if _, ok := mults[f[0]]; !ok {
			order = append(order, f[0])
		}
		for _, tok := range f[1:] {
			v, e := strconv.ParseFloat(tok, 64)
			if e != nil {
				return chk.Err("[PATTERNS] cannot parse multiplier %q", tok)
			}
			mults[f[0]] = append(mults[f[0]], v)
		}
	}
	for _, id := range order {
		o.Network.AddPattern(id, mults[id])
	}
	return
}

func (o *Model) readCurves(lines []string) (err error) {
	type pt struct{ x, y float64 }
	pts := make(map[string][]pt)
	var order []string
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) != 3 {
			return chk.Err("[CURVES] line %q needs id, x and y", line)
		}
		x, e1 := strconv.ParseFloat(f[1], 64)
		y, e2 := strconv.ParseFloat(f[2], 64)
		if e1 != nil || e2 != nil {
			return chk.Err("[CURVES] cannot parse point %q", line)
		}
		if _, ok := pts[f[0]]; !ok {
			order = append(order, f[0])
		}
		pts[f[0]] = append(pts[f[0]], pt{x, y})
	}
	for _, id := range order {
		x := make([]float64, len(pts[id]))
		y := make([]float64, len(pts[id]))
		for i, p := range pts[id] {
			x[i] = p.x
			y[i] = p.y
		}
		o.Network.AddCurve(id, net.HeadCurve, x, y)
	}
	return
}

func (o *Model) readJunctions(lines []string, u unitConv) (err error) {
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 2 {
			return chk.Err("[JUNCTIONS] line %q needs at least id and elevation", line)
		}
		elev, e := strconv.ParseFloat(f[1], 64)
		if e != nil {
			return chk.Err("[JUNCTIONS] cannot parse elevation in %q", line)
		}
		demand := 0.0
		pattern := ""
		if len(f) > 2 {
			demand, e = strconv.ParseFloat(f[2], 64)
			if e != nil {
				return chk.Err("[JUNCTIONS] cannot parse demand in %q", line)
			}
		}
		if len(f) > 3 {
			pattern = f[3]
		}
		o.Network.AddJunction(f[0], u.Length(elev), u.Flow(demand), pattern)
	}
	return
}

func (o *Model) readReservoirs(lines []string, u unitConv) (err error) {
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 2 {
			return chk.Err("[RESERVOIRS] line %q needs at least id and head", line)
		}
		head, e := strconv.ParseFloat(f[1], 64)
		if e != nil {
			return chk.Err("[RESERVOIRS] cannot parse head in %q", line)
		}
		pattern := ""
		if len(f) > 2 {
			pattern = f[2]
		}
		o.Network.AddReservoir(f[0], u.Length(head), pattern)
	}
	return
}

func (o *Model) readTanks(lines []string, u unitConv) (err error) {
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 6 {
			return chk.Err("[TANKS] line %q needs id, elevation, init/min/max level and diameter", line)
		}
		v := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v[i], err = strconv.ParseFloat(f[1+i], 64)
			if err != nil {
				return chk.Err("[TANKS] cannot parse %q", line)
			}
		}
		tank := o.Network.AddTank(f[0], u.Length(v[0]), u.Length(v[1]), u.Length(v[2]), u.Length(v[3]), u.TankDiameter(v[4]))
		if len(f) > 7 {
			tank.VolCurve = f[7]
		}
	}
	return
}

func (o *Model) readPipes(lines []string, u unitConv) (err error) {
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 6 {
			return chk.Err("[PIPES] line %q needs id, nodes, length, diameter and roughness", line)
		}
		length, e1 := strconv.ParseFloat(f[3], 64)
		diam, e2 := strconv.ParseFloat(f[4], 64)
		rough, e3 := strconv.ParseFloat(f[5], 64)
		if e1 != nil || e2 != nil || e3 != nil {
			return chk.Err("[PIPES] cannot parse %q", line)
		}
		minor := 0.0
		if len(f) > 6 {
			minor, err = strconv.ParseFloat(f[6], 64)
			if err != nil {
				return chk.Err("[PIPES] cannot parse minor loss in %q", line)
			}
		}
		status := net.Open
		if len(f) > 7 {
			switch strings.ToUpper(f[7]) {
			case "OPEN":
				status = net.Open
			case "CLOSED":
				status = net.Closed
			case "CV":
				status = net.CV
			default:
				return chk.Err("[PIPES] unknown status %q in %q", f[7], line)
			}
		}
		if err = requireNodes(o.Network, f[1], f[2], "[PIPES]", f[0]); err != nil {
			return
		}
		o.Network.AddPipe(f[0], f[1], f[2], u.Length(length), u.Diameter(diam), rough, minor, status)
	}
	return
}

func (o *Model) readPumps(lines []string, u unitConv) (err error) {
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 5 {
			return chk.Err("[PUMPS] line %q needs id, nodes and a HEAD curve", line)
		}
		if err = requireNodes(o.Network, f[1], f[2], "[PUMPS]", f[0]); err != nil {
			return
		}
		var curve string
		speed := 1.0
		for i := 3; i+1 < len(f); i += 2 {
			switch strings.ToUpper(f[i]) {
			case "HEAD":
				curve = f[i+1]
			case "SPEED":
				speed, err = strconv.ParseFloat(f[i+1], 64)
				if err != nil {
					return chk.Err("[PUMPS] cannot parse speed in %q", line)
				}
			case "POWER":
				return chk.Err("[PUMPS] pump %q uses a POWER rating; only HEAD curves are supported", f[0])
			default:
				return chk.Err("[PUMPS] unknown keyword %q in %q", f[i], line)
			}
		}
		if curve == "" {
			return chk.Err("[PUMPS] pump %q has no HEAD curve", f[0])
		}
		pump := o.Network.AddPump(f[0], f[1], f[2], curve)
		pump.Speed = speed
	}
	return
}

func (o *Model) readValves(lines []string, u unitConv) (err error) {
	vtypes := map[string]net.ValveType{
		"PRV": net.PRV, "PSV": net.PSV, "PBV": net.PBV,
		"FCV": net.FCV, "TCV": net.TCV, "GPV": net.GPV,
	}
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 6 {
			return chk.Err("[VALVES] line %q needs id, nodes, diameter, type and setting", line)
		}
		if err = requireNodes(o.Network, f[1], f[2], "[VALVES]", f[0]); err != nil {
			return
		}
		diam, e1 := strconv.ParseFloat(f[3], 64)
		setting, e2 := strconv.ParseFloat(f[5], 64)
		if e1 != nil || e2 != nil {
			return chk.Err("[VALVES] cannot parse %q", line)
		}
		vt, ok := vtypes[strings.ToUpper(f[4])]
		if !ok {
			return chk.Err("[VALVES] unknown valve type %q in %q", f[4], line)
		}
		minor := 0.0
		if len(f) > 6 {
			minor, err = strconv.ParseFloat(f[6], 64)
			if err != nil {
				return chk.Err("[VALVES] cannot parse minor loss in %q", line)
			}
		}
		o.Network.AddValve(f[0], f[1], f[2], u.Diameter(diam), vt, setting, minor)
	}
	return
}

func (o *Model) readDemands(lines []string, u unitConv) (err error) {
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 2 {
			return chk.Err("[DEMANDS] line %q needs a junction and a demand", line)
		}
		node := o.Network.GetNode(f[0])
		if node == nil || node.Kind != net.JunctionKind {
			return chk.Err("[DEMANDS] %q is not a junction", f[0])
		}
		d, e := strconv.ParseFloat(f[1], 64)
		if e != nil {
			return chk.Err("[DEMANDS] cannot parse demand in %q", line)
		}
		node.BaseDemand = u.Flow(d)
		if len(f) > 2 {
			node.DemandPat = f[2]
		}
	}
	return
}

func (o *Model) readStatus(lines []string) (err error) {
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 2 {
			return chk.Err("[STATUS] line %q needs a link and a status", line)
		}
		link := o.Network.GetLink(f[0])
		if link == nil {
			return chk.Err("[STATUS] unknown link %q", f[0])
		}
		switch strings.ToUpper(f[1]) {
		case "OPEN":
			link.Status = net.Open
		case "CLOSED":
			link.Status = net.Closed
		case "CV":
			link.Status = net.CV
		default:
			v, e := strconv.ParseFloat(f[1], 64)
			if e != nil {
				return chk.Err("[STATUS] cannot parse status %q", f[1])
			}
			if link.Kind == net.PumpKind {
				link.Speed = v
			} else {
				link.Setting = v
			}
		}
	}
	return
}

func (o *Model) readCoordinates(lines []string) (err error) {
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 3 {
			return chk.Err("[COORDINATES] line %q needs a node, x and y", line)
		}
		node := o.Network.GetNode(f[0])
		if node == nil {
			return chk.Err("[COORDINATES] unknown node %q", f[0])
		}
		x, e1 := strconv.ParseFloat(f[1], 64)
		y, e2 := strconv.ParseFloat(f[2], 64)
		if e1 != nil || e2 != nil {
			return chk.Err("[COORDINATES] cannot parse %q", line)
		}
		node.X = x
		node.Y = y
	}
	return
}

// convertCurves converts curve points to SI according to each curve's role:
// pump head curves carry (flow, head), tank volume curves carry (level,
// volume). Curves with no known role are left as given.
func (o *Model) convertCurves(u unitConv) {
	voleUnit := ftToM * ftToM * ftToM
	if !u.us {
		voleUnit = 1.0
	}
	converted := make(map[string]bool)
	for _, lid := range collectPumps(o.Network) {
		name := o.Network.Links[lid].CurveName
		c, ok := o.Network.Curves[name]
		if !ok || converted[name] {
			continue
		}
		for i := range c.X {
			c.X[i] = u.Flow(c.X[i])
			c.Y[i] = u.Length(c.Y[i])
		}
		c.Type = net.HeadCurve
		converted[name] = true
	}
	for _, nd := range o.Network.Nodes {
		if nd.Kind != net.TankKind || nd.VolCurve == "" {
			continue
		}
		c, ok := o.Network.Curves[nd.VolCurve]
		if !ok || converted[nd.VolCurve] {
			continue
		}
		for i := range c.X {
			c.X[i] = u.Length(c.X[i])
			c.Y[i] = c.Y[i] * voleUnit
		}
		c.Type = net.VolumeCurve
		converted[nd.VolCurve] = true
	}
}

// collectPumps lists pump link ids before Network.Init has built the subsets
func collectPumps(n *net.Network) (pumps []int) {
	for i, l := range n.Links {
		if l.Kind == net.PumpKind {
			pumps = append(pumps, i)
		}
	}
	return
}

// requireNodes checks that both endpoints of a link exist
func requireNodes(n *net.Network, start, end, section, link string) error {
	if n.GetNode(start) == nil {
		return chk.Err("%s link %q refers to unknown node %q", section, link, start)
	}
	if n.GetNode(end) == nil {
		return chk.Err("%s link %q refers to unknown node %q", section, link, end)
	}
	return nil
}
