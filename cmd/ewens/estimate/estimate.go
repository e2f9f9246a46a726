// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package estimate implements a command
// to calculate the classical estimates
// of the population mutation rate
// from sequence alignments.
package estimate

import (
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/ewens/estimator"
	"github.com/js-arias/ewens/simulate"
	"github.com/js-arias/ewens/spectrum"
)

var Command = &command.Command{
	Usage: "estimate <seq-file>...",
	Short: "estimate the mutation rate from alignments",
	Long: `
Command estimate calculates the classical estimates of the population
mutation rate from one or more sequence alignments, each alignment being an
independent locus.

The arguments of the command are the names of the alignment files. Each file
has a sequence per line, with the first 10 columns used for the sequence
label.

For each locus, the command prints the number of sequences, the number of
segregating sites, Watterson's estimate, and the mean number of pairwise
differences, both per locus and per site. If there are multiple loci, the
per locus average of the estimates is printed at the end.
	`,
	Run: run,
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting alignment files")
	}

	fmt.Fprintf(c.Stdout(), "locus\tsequences\tsites\twatterson\tdiversity\tpersite\n")
	wSum := 0.0
	dSum := 0.0
	for _, a := range args {
		seqs, err := readSeqFile(a)
		if err != nil {
			return err
		}
		s, err := spectrum.SegregatingSites(seqs)
		if err != nil {
			return fmt.Errorf("on file %q: %v", a, err)
		}
		w, err := estimator.WattersonFromSeqs(seqs)
		if err != nil {
			return fmt.Errorf("on file %q: %v", a, err)
		}
		d, err := estimator.PairwiseDiversity(seqs)
		if err != nil {
			return fmt.Errorf("on file %q: %v", a, err)
		}
		ps, err := estimator.NucleotideDiversity(seqs)
		if err != nil {
			return fmt.Errorf("on file %q: %v", a, err)
		}
		fmt.Fprintf(c.Stdout(), "%s\t%d\t%d\t%.6f\t%.6f\t%.6f\n", a, len(seqs), s, w, d, ps)
		wSum += w
		dSum += d
	}

	if len(args) > 1 {
		l := float64(len(args))
		fmt.Fprintf(c.Stdout(), "# mean:\twatterson %.6f\tdiversity %.6f\n", wSum/l, dSum/l)
	}
	return nil
}

func readSeqFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seqs, err := simulate.ReadSeqs(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return seqs, nil
}
