// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package like implements a command to calculate
// the log likelihood of allele frequency spectra
// under the Ewens sampling formula.
package like

import (
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/ewens/esf"
	"github.com/js-arias/ewens/spectrum"
)

var Command = &command.Command{
	Usage: `like --theta <value> [--cond]
	[-i|--input <file>]`,
	Short: "calculate the likelihood of allele spectra",
	Long: `
Command like calculates the log likelihood of the allele frequency spectrum
of one or more loci under the Ewens sampling formula, at the mutation rate
given with the required flag --theta.

The spectra are read as a TSV table from the standard input, or from the
file given with the flag --input, or -i.

If the flag --cond is defined, the likelihood of each locus will be
conditioned on the sample being polymorphic; in that case, every locus must
be polymorphic.

The command prints the log likelihood of each locus, and the joint log
likelihood of all the loci, which assumes that the loci are independent and
share the mutation rate.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var theta float64
var cond bool
var input string

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&theta, "theta", 0, "")
	c.Flags().BoolVar(&cond, "cond", false, "")
	c.Flags().StringVar(&input, "input", "", "")
	c.Flags().StringVar(&input, "i", "", "")
}

func run(c *command.Command, args []string) error {
	if theta <= 0 {
		return c.UsageError("flag --theta undefined")
	}

	m, err := readSpectra(c)
	if err != nil {
		return err
	}

	sum := 0.0
	for i, a := range m {
		like := esf.LogProb
		if cond {
			like = esf.LogProbCond
		}
		l, err := like(a, theta)
		if err != nil {
			return fmt.Errorf("locus %d: %v", i+1, err)
		}
		fmt.Fprintf(c.Stdout(), "locus-%d\t%.6f\n", i+1, l)
		sum += l
	}
	fmt.Fprintf(c.Stdout(), "joint\t%.6f\n", sum)
	return nil
}

func readSpectra(c *command.Command) (spectrum.Multi, error) {
	r := c.Stdin()
	name := "stdin"
	if input != "" {
		f, err := os.Open(input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
		name = input
	}

	m, err := spectrum.ReadTSV(r)
	if err != nil {
		return nil, fmt.Errorf("on input %q: %v", name, err)
	}
	return m, nil
}
