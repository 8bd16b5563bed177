// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"os"

	"github.com/cpmech/gosl/io"

	"github.com/stephenfrechette/gohyd/hyd"
	"github.com/stephenfrechette/gohyd/inp"
	"github.com/stephenfrechette/gohyd/out"
)

// exit codes
const (
	exitOk           = 0 // converged run
	exitNonConverged = 1 // at least one step did not converge
	exitBadInput     = 2 // malformed input
)

func main() {

	// options
	duration := flag.Float64("duration", -1, "override simulation duration [s]")
	step := flag.Float64("step", -1, "override hydraulic time step [s]")
	csvfile := flag.String("csv", "", "write results as CSV to this file")
	resdir := flag.String("resdir", "", "write a binary results archive to this directory")
	verbose := flag.Bool("verbose", true, "show messages")
	flag.Parse()

	// input filename
	if len(flag.Args()) < 1 {
		io.PfRed("Please provide an input filename. Ex.: net1.inp\n")
		os.Exit(exitBadInput)
	}
	fnamepath := flag.Arg(0)
	if io.FnExt(fnamepath) == "" {
		fnamepath += ".inp"
	}

	// message
	if *verbose {
		io.PfWhite("\nGohyd -- extended-period hydraulic network simulator\n\n")
	}

	// read network
	model, err := inp.ReadInp(fnamepath)
	if err != nil {
		io.PfRed("ERROR: %v\n", err)
		os.Exit(exitBadInput)
	}
	for _, w := range model.Warnings {
		io.Pfyel("warning: %s\n", w)
	}
	if *duration >= 0 {
		model.Network.Opts.Duration = *duration
	}
	if *step > 0 {
		model.Network.Opts.HydStep = *step
	}

	// run simulation
	driver := hyd.NewDriver(model.Network, model.Controls)
	driver.Verbose = *verbose
	nbad, err := driver.Run()
	if err != nil {
		io.PfRed("ERROR: %v\n", err)
		os.Exit(exitNonConverged)
	}

	// write results
	if *csvfile != "" {
		if err = driver.Res.WriteCsv(*csvfile); err != nil {
			io.PfRed("ERROR: %v\n", err)
			os.Exit(exitNonConverged)
		}
	}
	if *resdir != "" {
		arch := out.Archive{Model: model.Network, Results: driver.Res}
		if err = arch.Save(*resdir, model.Network.Name, "gob"); err != nil {
			io.PfRed("ERROR: %v\n", err)
			os.Exit(exitNonConverged)
		}
	}

	// final message and exit code
	if nbad > 0 {
		if *verbose {
			io.PfRed("> %d of %d steps did not converge\n", nbad, len(driver.Res.Converged))
		}
		os.Exit(exitNonConverged)
	}
	if *verbose {
		io.PfGreen("> Success\n")
	}
	os.Exit(exitOk)
}
