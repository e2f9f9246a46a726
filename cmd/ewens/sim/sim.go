// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package sim implements a command to simulate
// allele frequency spectra
// under the coalescent.
package sim

import (
	"fmt"
	"os"
	"time"

	"github.com/js-arias/command"
	"github.com/js-arias/ewens/calparam"
	"github.com/js-arias/ewens/simulate"
	"github.com/js-arias/ewens/spectrum"
	"golang.org/x/exp/rand"
)

var Command = &command.Command{
	Usage: `sim [-o|--output <file>] [--seqs <prefix>]
	[--seed <value>] <param-file>`,
	Short: "simulate allele frequency spectra",
	Long: `
Command sim simulates the allele frequency spectrum of one or more loci under
the coalescent with the infinite alleles model, using the sample size, the
mutation rate, the number of loci, and the ascertainment condition defined in
a calibration parameters file.

The argument of the command is the name of the parameters file.

The resulting spectra are written as a TSV table to the standard output, or
to the file indicated with the flag --output, or -o.

If the parameters define a sequence length, the loci will be simulated as
nucleotide sequences, and the spectra will group the identical sequences. Use
the flag --seqs to also save the alignment of each locus, using the indicated
prefix for the file names.

By default, the seed of the random number generator is taken from the current
time. Use the flag --seed to define a seed.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var output string
var seqPrefix string
var seed int64

func setFlags(c *command.Command) {
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
	c.Flags().StringVar(&seqPrefix, "seqs", "", "")
	c.Flags().Int64Var(&seed, "seed", 0, "")
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
	r := rand.New(rand.NewSource(uint64(seed)))

	m := make(spectrum.Multi, 0, cp.Loci())
	for l := 0; l < cp.Loci(); l++ {
		a, err := simLocus(cp, l, r)
		if err != nil {
			return err
		}
		m = append(m, a)
	}

	w := c.Stdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := spectrum.WriteTSV(w, m); err != nil {
		return err
	}
	return nil
}

func simLocus(cp *calparam.CP, l int, r *rand.Rand) (spectrum.Spectrum, error) {
	retries := 0
	for {
		if cp.Retries() > 0 && retries >= cp.Retries() {
			return nil, fmt.Errorf("locus %d: %d simulations discarded by the %s condition", l, retries, cp.Ascertainment())
		}

		g, err := simulate.NewGenealogy(cp.Sample(), r)
		if err != nil {
			return nil, err
		}

		var a spectrum.Spectrum
		var s int
		var seqs []string
		if cp.SeqLen() == 0 {
			a, s, err = g.Alleles(cp.Theta(), r)
			if err != nil {
				return nil, err
			}
		} else {
			seqs, err = simulate.Sequences(g, cp.SeqLen(), cp.Theta(), cp.Kappa(), r)
			if err != nil {
				return nil, err
			}
			a, err = spectrum.FromAlignment(seqs)
			if err != nil {
				return nil, err
			}
			s, err = spectrum.SegregatingSites(seqs)
			if err != nil {
				return nil, err
			}
		}

		ok := false
		switch cp.Ascertainment() {
		case "polymorphic":
			ok = !a.IsMonomorphic()
		case "single-site":
			ok = s == 1
		default:
			ok = true
		}
		if !ok {
			retries++
			continue
		}

		if seqPrefix != "" && seqs != nil {
			name := fmt.Sprintf("%s-locus-%d.txt", seqPrefix, l+1)
			if err := writeSeqFile(name, seqs); err != nil {
				return nil, err
			}
		}
		return a, nil
	}
}

func writeSeqFile(name string, seqs []string) (err error) {
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

	if err := simulate.WriteSeqs(f, seqs); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	return nil
}
