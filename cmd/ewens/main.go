// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Ewens is a tool for the estimation of the population mutation rate
// from allele frequency spectra,
// and for the Monte Carlo calibration of the estimators.
package main

import (
	"github.com/js-arias/command"
	"github.com/js-arias/ewens/cmd/ewens/bayes"
	"github.com/js-arias/ewens/cmd/ewens/calibcmd"
	"github.com/js-arias/ewens/cmd/ewens/estimate"
	"github.com/js-arias/ewens/cmd/ewens/like"
	"github.com/js-arias/ewens/cmd/ewens/param"
	"github.com/js-arias/ewens/cmd/ewens/sim"
)

var app = &command.Command{
	Usage: "ewens <command> [<argument>...]",
	Short: "a tool for the estimation of the population mutation rate",
}

func init() {
	app.Add(bayes.Command)
	app.Add(calibcmd.Command)
	app.Add(estimate.Command)
	app.Add(like.Command)
	app.Add(param.Command)
	app.Add(sim.Command)
}

func main() {
	app.Main()
}
