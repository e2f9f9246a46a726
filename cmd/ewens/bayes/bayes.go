// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package bayes implements a command to sample
// the posterior distribution of the population mutation rate.
package bayes

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/js-arias/command"
	"github.com/js-arias/ewens/infer/mcmc"
	"github.com/js-arias/ewens/infer/posterior"
	"github.com/js-arias/ewens/prior"
	"github.com/js-arias/ewens/spectrum"
	"golang.org/x/exp/rand"
)

var Command = &command.Command{
	Usage: `bayes [--model <model>]
	[--prior <function>] [--p1 <value>] [--p2 <value>]
	[--phi1 <value>] [--phi2 <value>]
	[--sites <list>] [--counts <list>] [--sample <value>]
	[--steps <value>] [--burnin <value>] [--thin <value>]
	[--seed <value>] [-i|--input <file>]`,
	Short: "sample the posterior of the mutation rate",
	Long: `
Command bayes samples the posterior distribution of the population mutation
rate with a Metropolis random walk, and prints the posterior mean and the
95% credible interval of the parameters.

The flag --model selects the data model. Valid values are (unconditional is
the default):

	- unconditional: the Ewens sampling formula on the allele frequency
	  spectrum of a single locus.
	- conditional: as unconditional, with the sample known to be
	  polymorphic.
	- multilocus: the joint Ewens sampling formula on the spectra of
	  multiple loci.
	- multilocus-cond: the multilocus form with each locus conditioned
	  on polymorphism.
	- tavare: the distribution of the number of segregating sites.
	- beta-binomial: the distribution of the derived allele count of a
	  single segregating site per locus, with a dispersion parameter,
	  phi.

The spectra of the Ewens models are read as a TSV table from the standard
input, or from the file given with the flag --input, or -i. The tavare model
reads the per locus number of segregating sites from the flag --sites, as a
comma separated list, and the beta-binomial model reads the per locus
derived allele counts from the flag --counts; both models require the sample
size given with the flag --sample.

The flag --prior sets the prior of the mutation rate. Valid values are
(gamma is the default):

	- gamma: with shape --p1 and rate --p2 (1 and 1 by default).
	- lognormal: with log-mean --p1 and log-deviation --p2.

The prior of the phi parameter of the beta-binomial model is a gamma with
shape --phi1 and rate --phi2 (1 and 1 by default).

The sampler is controlled with the flags --steps, --burnin, and --thin. By
default, the seed of the random number generator is taken from the current
time; use the flag --seed to define a seed.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var modelFlag string
var priorFlag string
var sitesFlag string
var countsFlag string
var input string
var p1 float64
var p2 float64
var phi1 float64
var phi2 float64
var sample int
var steps int
var burnIn int
var thin int
var seed int64

func setFlags(c *command.Command) {
	c.Flags().StringVar(&modelFlag, "model", "unconditional", "")
	c.Flags().StringVar(&priorFlag, "prior", "gamma", "")
	c.Flags().StringVar(&sitesFlag, "sites", "", "")
	c.Flags().StringVar(&countsFlag, "counts", "", "")
	c.Flags().StringVar(&input, "input", "", "")
	c.Flags().StringVar(&input, "i", "", "")
	c.Flags().Float64Var(&p1, "p1", 1, "")
	c.Flags().Float64Var(&p2, "p2", 1, "")
	c.Flags().Float64Var(&phi1, "phi1", 1, "")
	c.Flags().Float64Var(&phi2, "phi2", 1, "")
	c.Flags().IntVar(&sample, "sample", 0, "")
	c.Flags().IntVar(&steps, "steps", 0, "")
	c.Flags().IntVar(&burnIn, "burnin", -1, "")
	c.Flags().IntVar(&thin, "thin", 0, "")
	c.Flags().Int64Var(&seed, "seed", 0, "")
}

func run(c *command.Command, args []string) error {
	m, err := posterior.ParseModel(modelFlag)
	if err != nil {
		return c.UsageError(err.Error())
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(uint64(seed)))

	tp, err := prior.Parse(priorFlag, p1, p2, rand.NewSource(uint64(seed)+1))
	if err != nil {
		return c.UsageError(err.Error())
	}

	s := posterior.Spec{
		Model:      m,
		SampleSize: sample,
		Theta:      tp,
		Options: mcmc.Options{
			Steps:  steps,
			BurnIn: burnIn,
			Thin:   thin,
		},
	}

	switch m {
	case posterior.Tavare:
		s.Sites, err = intList(sitesFlag)
		if err != nil {
			return c.UsageError(err.Error())
		}
		if len(s.Sites) == 0 {
			return c.UsageError("flag --sites undefined")
		}
	case posterior.BetaBinomial:
		s.Counts, err = intList(countsFlag)
		if err != nil {
			return c.UsageError(err.Error())
		}
		if len(s.Counts) == 0 {
			return c.UsageError("flag --counts undefined")
		}
		s.Phi, err = prior.NewGamma(phi1, phi2, rand.NewSource(uint64(seed)+2))
		if err != nil {
			return c.UsageError(err.Error())
		}
	default:
		s.Spectra, err = readSpectra(c)
		if err != nil {
			return err
		}
	}

	post, err := posterior.Run(s, r)
	if err != nil {
		return err
	}

	e, err := post.Estimate()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout(), "theta\t%.6f\t%.6f\t%.6f\n", e.Mean, e.Lo, e.Hi)

	if m == posterior.BetaBinomial {
		e, err := post.EstimatePhi()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Stdout(), "phi\t%.6f\t%.6f\t%.6f\n", e.Mean, e.Lo, e.Hi)
	}
	return nil
}

func intList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var vs []int
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("invalid list value %q", f)
		}
		vs = append(vs, v)
	}
	return vs, nil
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
