// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"strconv"
	"strings"

	"github.com/cpmech/gosl/chk"
)

// parseTime parses a [TIMES] value into seconds. Accepted forms:
//
//   HH:MM or HH:MM:SS         clock-style duration
//   <number> [units]          decimal value; units ∈ {SECONDS, MINUTES,
//                             HOURS, DAYS}, default HOURS
func parseTime(f []string) (sec float64, err error) {
	if len(f) == 0 {
		return 0, chk.Err("missing time value")
	}
	if strings.Contains(f[0], ":") {
		return parseClock(f[0])
	}
	v, e := strconv.ParseFloat(f[0], 64)
	if e != nil {
		return 0, chk.Err("cannot parse time value %q", f[0])
	}
	unit := "HOURS"
	if len(f) > 1 {
		unit = strings.ToUpper(f[1])
	}
	switch {
	case strings.HasPrefix(unit, "SEC"):
		return v, nil
	case strings.HasPrefix(unit, "MIN"):
		return v * 60, nil
	case strings.HasPrefix(unit, "HOUR") || strings.HasPrefix(unit, "HR"):
		return v * 3600, nil
	case strings.HasPrefix(unit, "DAY"):
		return v * 86400, nil
	}
	return 0, chk.Err("unknown time unit %q", f[1])
}

// parseClock parses HH:MM or HH:MM:SS into seconds. Hours may exceed 24.
func parseClock(s string) (sec float64, err error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, chk.Err("cannot parse clock value %q", s)
	}
	mult := 3600.0
	for _, p := range parts {
		v, e := strconv.ParseFloat(p, 64)
		if e != nil {
			return 0, chk.Err("cannot parse clock value %q", s)
		}
		sec += v * mult
		mult /= 60
	}
	return
}

// parseClockTime parses a clock time with optional AM/PM suffix into seconds
// since 12 AM
func parseClockTime(f []string) (sec float64, err error) {
	if len(f) == 0 {
		return 0, chk.Err("missing clock time value")
	}
	v := f[0]
	if strings.Contains(v, ":") {
		sec, err = parseClock(v)
	} else {
		var h float64
		h, err = strconv.ParseFloat(v, 64)
		sec = h * 3600
	}
	if err != nil {
		return
	}
	if len(f) > 1 {
		switch strings.ToUpper(f[1]) {
		case "AM":
			if sec >= 12*3600 && sec < 13*3600 {
				sec -= 12 * 3600 // 12 AM is midnight
			}
		case "PM":
			if sec < 12*3600 {
				sec += 12 * 3600
			}
		default:
			return 0, chk.Err("unknown clock suffix %q", f[1])
		}
	}
	return
}
