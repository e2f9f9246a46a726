// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package param implements a command to manage
// the parameters of a calibration run.
package param

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/js-arias/command"
	"github.com/js-arias/ewens/calparam"
)

var Command = &command.Command{
	Usage: `param [--sample <value>] [--loci <value>]
	[--seqlen <value>] [--theta <value>] [--kappa <value>]
	[--reps <value>] [--asc <condition>] [--retries <value>]
	[--failfast <value>] [--prior <function>]
	[--p1 <value>] [--p2 <value>]
	[--steps <value>] [--burnin <value>] [--thin <value>]
	<param-file>`,
	Short: "manage calibration parameters",
	Long: `
Command param manages the parameters of a calibration run. The argument of
the command is the name of the parameters file; if the file does not exist,
it will be created with the default values.

By default, the command will print the currently defined parameters. If any
flag is defined, the corresponding parameter will be updated and the file
saved.

The simulation parameters are: --sample, the number of sequences per
replicate; --loci, the number of independent loci; --seqlen, the length of
the simulated sequences (if zero, the infinite alleles model is used);
--theta, the population mutation rate; --kappa, the transition-transversion
ratio used with sequences; and --reps, the number of replicates.

The flag --asc sets the condition imposed on each simulated locus. Valid
values are (none is the default):

	- none: every simulation is accepted.
	- polymorphic: only polymorphic samples are accepted.
	- single-site: only samples with a single segregating site
	  are accepted.

The flag --retries sets the maximum number of re-simulations allowed to
satisfy the condition; a zero value removes the limit. If the flag
--failfast is set to true, the run will stop at the first failed replicate.

The flag --prior sets the prior of the mutation rate used by the Bayesian
estimators. Valid values are (gamma is the default):

	- gamma: with shape --p1 and rate --p2.
	- lognormal: with log-mean --p1 and log-deviation --p2.

The sampler of the posterior is set with --steps, the number of steps of the
chain, --burnin, the number of discarded initial steps, and --thin, the
number of steps between stored samples.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var ascFlag string
var priorFlag string
var failFast string
var theta float64
var kappa float64
var p1 float64
var p2 float64
var sample int
var loci int
var seqLen int
var reps int
var retries int
var steps int
var burnIn int
var thin int

func setFlags(c *command.Command) {
	c.Flags().StringVar(&ascFlag, "asc", "", "")
	c.Flags().StringVar(&priorFlag, "prior", "", "")
	c.Flags().StringVar(&failFast, "failfast", "", "")
	c.Flags().Float64Var(&theta, "theta", 0, "")
	c.Flags().Float64Var(&kappa, "kappa", 0, "")
	c.Flags().Float64Var(&p1, "p1", 0, "")
	c.Flags().Float64Var(&p2, "p2", 0, "")
	c.Flags().IntVar(&sample, "sample", 0, "")
	c.Flags().IntVar(&loci, "loci", 0, "")
	c.Flags().IntVar(&seqLen, "seqlen", -1, "")
	c.Flags().IntVar(&reps, "reps", 0, "")
	c.Flags().IntVar(&retries, "retries", -1, "")
	c.Flags().IntVar(&steps, "steps", 0, "")
	c.Flags().IntVar(&burnIn, "burnin", -1, "")
	c.Flags().IntVar(&thin, "thin", 0, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting parameters file")
	}

	cp, err := calparam.Read(args[0])
	if errors.Is(err, fs.ErrNotExist) {
		cp = calparam.New(args[0])
		if err := cp.Write(); err != nil {
			return err
		}
		err = nil
	}
	if err != nil {
		return err
	}

	ed := false
	if sample > 0 {
		if err := cp.SetSample(sample); err != nil {
			return err
		}
		ed = true
	}
	if loci > 0 {
		if err := cp.SetLoci(loci); err != nil {
			return err
		}
		ed = true
	}
	if seqLen >= 0 {
		if err := cp.SetSeqLen(seqLen); err != nil {
			return err
		}
		ed = true
	}
	if theta > 0 {
		if err := cp.SetTheta(theta); err != nil {
			return err
		}
		ed = true
	}
	if kappa > 0 {
		if err := cp.SetKappa(kappa); err != nil {
			return err
		}
		ed = true
	}
	if reps > 0 {
		if err := cp.SetReplicates(reps); err != nil {
			return err
		}
		ed = true
	}
	if ascFlag != "" {
		if err := cp.SetAscertainment(ascFlag); err != nil {
			return err
		}
		ed = true
	}
	if retries >= 0 {
		if err := cp.SetRetries(retries); err != nil {
			return err
		}
		ed = true
	}
	if failFast != "" {
		switch failFast {
		case "true":
			cp.SetFailFast(true)
		case "false":
			cp.SetFailFast(false)
		default:
			return c.UsageError(fmt.Sprintf("invalid --failfast value %q", failFast))
		}
		ed = true
	}
	if priorFlag != "" {
		if err := cp.SetPrior(priorFlag); err != nil {
			return err
		}
		ed = true
	}
	if p1 != 0 || p2 != 0 {
		h1, h2 := cp.Hyper()
		if p1 != 0 {
			h1 = p1
		}
		if p2 != 0 {
			h2 = p2
		}
		cp.SetHyper(h1, h2)
		ed = true
	}
	if steps > 0 {
		if err := cp.SetSteps(steps); err != nil {
			return err
		}
		ed = true
	}
	if burnIn >= 0 {
		if err := cp.SetBurnIn(burnIn); err != nil {
			return err
		}
		ed = true
	}
	if thin > 0 {
		if err := cp.SetThin(thin); err != nil {
			return err
		}
		ed = true
	}

	if ed {
		if err := cp.Write(); err != nil {
			return err
		}
		return nil
	}

	printParams(c.Stdout(), cp)
	return nil
}

func printParams(w io.Writer, cp *calparam.CP) {
	fmt.Fprintf(w, "%s:\t%d\n", calparam.Sample, cp.Sample())
	fmt.Fprintf(w, "%s:\t%d\n", calparam.Loci, cp.Loci())
	fmt.Fprintf(w, "%s:\t%d\n", calparam.SeqLen, cp.SeqLen())
	fmt.Fprintf(w, "%s:\t%.6f\n", calparam.Theta, cp.Theta())
	fmt.Fprintf(w, "%s:\t%.6f\n", calparam.Kappa, cp.Kappa())
	fmt.Fprintf(w, "%s:\t%d\n", calparam.Replicates, cp.Replicates())
	fmt.Fprintf(w, "%s:\t%s\n", calparam.Ascertainment, cp.Ascertainment())
	fmt.Fprintf(w, "%s:\t%d\n", calparam.Retries, cp.Retries())
	fmt.Fprintf(w, "%s:\t%v\n", calparam.FailFast, cp.FailFast())
	fmt.Fprintf(w, "%s:\t%s\n", calparam.Prior, cp.PriorFamily())
	h1, h2 := cp.Hyper()
	fmt.Fprintf(w, "%s:\t%.6f\n", calparam.Hyper1, h1)
	fmt.Fprintf(w, "%s:\t%.6f\n", calparam.Hyper2, h2)
	fmt.Fprintf(w, "%s:\t%d\n", calparam.Steps, cp.Steps())
	fmt.Fprintf(w, "%s:\t%d\n", calparam.BurnIn, cp.BurnIn())
	fmt.Fprintf(w, "%s:\t%d\n", calparam.Thin, cp.Thin())
}
