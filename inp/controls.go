// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"strconv"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/stephenfrechette/gohyd/ctl"
	"github.com/stephenfrechette/gohyd/net"
)

// readControls parses the [CONTROLS] section. Supported grammars:
//
//   LINK id status IF NODE id ABOVE value
//   LINK id status IF NODE id BELOW value
//   LINK id status AT TIME value
//   LINK id status AT CLOCKTIME value [AM|PM]
//
// where status is OPEN, CLOSED or a numeric setting (pump speed or valve
// setting).
func (o *Model) readControls(lines []string, u unitConv) (err error) {
	for k, line := range lines {
		f := strings.Fields(line)
		up := make([]string, len(f))
		for i, tok := range f {
			up[i] = strings.ToUpper(tok)
		}
		if len(f) < 5 || up[0] != "LINK" {
			return chk.Err("[CONTROLS] cannot parse %q", line)
		}

		// the acted-on link and its new setting
		link := o.Network.GetLink(f[1])
		if link == nil {
			return chk.Err("[CONTROLS] unknown link %q in %q", f[1], line)
		}
		action, e := controlAction(link, up[2])
		if e != nil {
			return chk.Err("[CONTROLS] %v in %q", e, line)
		}
		name := io.Sf("control-%d", k)

		switch up[3] {
		case "IF":
			if len(f) < 8 || up[4] != "NODE" {
				return chk.Err("[CONTROLS] cannot parse %q", line)
			}
			node := o.Network.GetNode(f[5])
			if node == nil {
				return chk.Err("[CONTROLS] unknown node %q in %q", f[5], line)
			}
			raw, e := strconv.ParseFloat(f[7], 64)
			if e != nil {
				return chk.Err("[CONTROLS] cannot parse threshold in %q", line)
			}
			// tanks are monitored by level, junctions by pressure head
			var threshold float64
			if node.Kind == net.TankKind {
				threshold = u.Length(raw)
			} else {
				threshold = u.Pressure(raw)
			}
			var cmp ctl.Comparison
			switch up[6] {
			case "ABOVE":
				cmp = ctl.GreaterEqual
			case "BELOW":
				cmp = ctl.LessEqual
			default:
				return chk.Err("[CONTROLS] expected ABOVE or BELOW in %q", line)
			}
			o.Controls = append(o.Controls, ctl.NewConditionalControl(name,
				ctl.NodeObj, node.Id, ctl.AttrLevel, cmp, threshold, action, 0))

		case "AT":
			if len(f) < 6 {
				return chk.Err("[CONTROLS] cannot parse %q", line)
			}
			switch up[4] {
			case "TIME":
				t, e := parseTime(f[5:])
				if e != nil {
					return chk.Err("[CONTROLS] cannot parse trigger time in %q", line)
				}
				o.Controls = append(o.Controls, ctl.NewTimeControl(name, t, ctl.SimTime, false, action, 0))
			case "CLOCKTIME":
				t, e := parseClockTime(f[5:])
				if e != nil {
					return chk.Err("[CONTROLS] cannot parse clock time in %q", line)
				}
				o.Controls = append(o.Controls, ctl.NewTimeControl(name, t, ctl.ShiftedTime, true, action, 0))
			default:
				return chk.Err("[CONTROLS] expected TIME or CLOCKTIME in %q", line)
			}

		default:
			return chk.Err("[CONTROLS] expected IF or AT in %q", line)
		}
	}
	return
}

// controlAction builds the action for a status/setting token
func controlAction(link *net.Link, status string) (a ctl.Action, err error) {
	switch status {
	case "OPEN":
		return ctl.Action{Kind: ctl.LinkObj, Id: link.Id, Attr: ctl.AttrStatus, Value: 1}, nil
	case "CLOSED":
		return ctl.Action{Kind: ctl.LinkObj, Id: link.Id, Attr: ctl.AttrStatus, Value: 0}, nil
	}
	v, e := strconv.ParseFloat(status, 64)
	if e != nil {
		return a, chk.Err("unknown status %q", status)
	}
	if link.Kind == net.PumpKind {
		return ctl.Action{Kind: ctl.LinkObj, Id: link.Id, Attr: ctl.AttrSpeed, Value: v}, nil
	}
	return ctl.Action{Kind: ctl.LinkObj, Id: link.Id, Attr: ctl.AttrSetting, Value: v}, nil
}
