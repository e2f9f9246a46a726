// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package calibcmd implements a command to run
// a Monte Carlo calibration of the mutation rate estimators.
package calibcmd

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/js-arias/command"
	"github.com/js-arias/ewens/calib"
	"github.com/js-arias/ewens/calparam"
	"golang.org/x/exp/rand"
)

var Command = &command.Command{
	Usage: `calib [--cpu <value>] [--seed <value>]
	[--records <file>] [-v|--verbose] <param-file>`,
	Short: "calibrate the mutation rate estimators",
	Long: `
Command calib simulates samples of a known population mutation rate under
the coalescent, runs every estimator on each sample, and reports the bias,
the root mean square error, and the coverage of the 95% credible intervals
of each estimator.

The argument of the command is the name of a calibration parameters file,
which defines the simulation, the ascertainment condition, the prior, and
the sampler of the posterior.

By default, all available processors will be used; use the flag --cpu to set
a different number. By default, the seed of the random number generators is
taken from the current time; use the flag --seed to define a seed, so the
run will be reproducible for any number of processors.

If the flag --records is defined, the estimates of each replicate will be
written as a TSV table to the indicated file.

If the flag --verbose, or -v, is defined, the command will report each
finished replicate.

The report is printed to the standard output as a TSV table with the
columns:

	estimator   the name of the estimator
	mean        the mean of the point estimates
	stdev       the standard deviation of the point estimates
	bias        the mean minus the simulated mutation rate
	rmse        the root mean square error
	coverage    the fraction of credible intervals
	            that contain the simulated rate
	replicates  the number of successful replicates
	failed      the number of failed replicates

Failed replicates are reported by error category after the table, unless the
parameters define the fail-fast flag, in which case the run stops at the
first failure.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var recFile string
var cpu int
var seed int64
var verbose bool

func setFlags(c *command.Command) {
	c.Flags().StringVar(&recFile, "records", "", "")
	c.Flags().IntVar(&cpu, "cpu", 0, "")
	c.Flags().Int64Var(&seed, "seed", 0, "")
	c.Flags().BoolVar(&verbose, "verbose", false, "")
	c.Flags().BoolVar(&verbose, "v", false, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting parameters file")
	}
	cp, err := calparam.Read(args[0])
	if err != nil {
		return err
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	p, err := calib.FromParam(cp, rand.NewSource(uint64(seed)))
	if err != nil {
		return err
	}
	p.CPU = cpu
	p.Seed = uint64(seed)
	p.KeepRecords = recFile != ""
	if verbose {
		p.Observer = func(rep int, err error) {
			if err != nil {
				fmt.Fprintf(c.Stderr(), "replicate %d: %v\n", rep, err)
				return
			}
			fmt.Fprintf(c.Stderr(), "replicate %d: ok\n", rep)
		}
	}

	res, err := calib.Run(p)
	if err != nil {
		return err
	}

	out := c.Stdout()
	fmt.Fprintf(out, "estimator\tmean\tstdev\tbias\trmse\tcoverage\treplicates\tfailed\n")
	for _, ag := range res.Estimators {
		fmt.Fprintf(out, "%s\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%d\t%d\n",
			ag.Name, ag.Mean, ag.StdDev, ag.Bias, ag.RMSE, ag.Coverage, ag.Replicates, ag.Failed)
	}

	if res.Failed > 0 {
		fmt.Fprintf(out, "# failed replicates: %d\n", res.Failed)
		cats := make([]string, 0, len(res.Failures))
		for ct := range res.Failures {
			cats = append(cats, ct)
		}
		sort.Strings(cats)
		for _, ct := range cats {
			fmt.Fprintf(out, "# %s: %d\n", ct, res.Failures[ct])
		}
	}

	if recFile != "" {
		if err := writeRecords(recFile, res); err != nil {
			return err
		}
	}
	return nil
}

func writeRecords(name string, res *calib.Result) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "# ewens calibration records\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	header := []string{"replicate", "estimator", "point", "lo", "hi"}
	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("on file %q: while writing header: %v", name, err)
	}

	for _, rec := range res.Records {
		for _, e := range rec.Estimates {
			lo, hi := "", ""
			if e.Interval {
				lo = strconv.FormatFloat(e.Lo, 'f', 6, 64)
				hi = strconv.FormatFloat(e.Hi, 'f', 6, 64)
			}
			row := []string{
				strconv.Itoa(rec.Replicate),
				e.Name,
				strconv.FormatFloat(e.Point, 'f', 6, 64),
				lo,
				hi,
			}
			if err := tsv.Write(row); err != nil {
				return fmt.Errorf("on file %q: %v", name, err)
			}
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", name, err)
	}
	return nil
}
