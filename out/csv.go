// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"bytes"
	"os"
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// WriteCsv writes the results as CSV with one row per (name, time,
// attribute) triple:
//
//   entity,name,time,attribute,value
func (o *Results) WriteCsv(filename string) (err error) {
	var buf bytes.Buffer
	buf.WriteString("entity,name,time,attribute,value\n")
	writeTable := func(entity string, tbl *Table) {
		cols := make([]string, 0, len(tbl.Columns))
		for col := range tbl.Columns {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for k, t := range tbl.Times {
			for i, name := range tbl.Names {
				for _, col := range cols {
					buf.WriteString(io.Sf("%s,%s,%g,%s,%g\n", entity, name, t, col, tbl.Columns[col][k*len(tbl.Names)+i]))
				}
			}
		}
	}
	writeTable("node", o.Node)
	writeTable("link", o.Link)
	if err = os.WriteFile(filename, buf.Bytes(), 0666); err != nil {
		return chk.Err("cannot write %q:\n%v", filename, err)
	}
	return
}
