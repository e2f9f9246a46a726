// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package spectrum implements the allele frequency spectrum
// of a sample of gene copies.
package spectrum

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned when a spectrum
// does not represent a valid allele partition
// of its sample.
var ErrMalformed = errors.New("malformed spectrum")

// A Spectrum is an allele frequency spectrum:
// entry k is the number of distinct allelic types
// observed exactly k times
// in a sample of n gene copies.
// Entry 0 is unused,
// so a valid spectrum of a sample of n copies
// has n+1 entries
// and the products k*a[k] sum to n.
type Spectrum []int

// New creates a spectrum of a monomorphic sample
// of n gene copies,
// that is a single allelic type
// observed n times.
func New(n int) Spectrum {
	a := make(Spectrum, n+1)
	a[n] = 1
	return a
}

// FromCounts creates a spectrum
// from a list of allelic class sizes.
// The sample size is the sum of the class sizes.
func FromCounts(classes []int) (Spectrum, error) {
	n := 0
	for _, c := range classes {
		if c < 1 {
			return nil, fmt.Errorf("%w: class of size %d", ErrMalformed, c)
		}
		n += c
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: empty sample", ErrMalformed)
	}

	a := make(Spectrum, n+1)
	for _, c := range classes {
		a[c]++
	}
	return a, nil
}

// FromAlignment creates a spectrum
// from a collection of aligned sequences,
// grouping the sequences into allelic classes
// by exact symbol identity.
// A sample without segregating sites
// produces the monomorphic spectrum.
func FromAlignment(seqs []string) (Spectrum, error) {
	if len(seqs) == 0 {
		return nil, fmt.Errorf("%w: empty sample", ErrMalformed)
	}
	for _, s := range seqs {
		if len(s) != len(seqs[0]) {
			return nil, fmt.Errorf("%w: sequences of unequal length", ErrMalformed)
		}
	}

	count := make(map[string]int, len(seqs))
	for _, s := range seqs {
		count[s]++
	}

	a := make(Spectrum, len(seqs)+1)
	for _, c := range count {
		a[c]++
	}
	return a, nil
}

// Classes returns the number of distinct allelic types
// in the sample.
func (a Spectrum) Classes() int {
	k := 0
	for _, v := range a {
		k += v
	}
	return k
}

// IsMonomorphic reports whether the sample
// contains a single allelic type.
func (a Spectrum) IsMonomorphic() bool {
	n := a.SampleSize()
	if n < 1 {
		return false
	}
	return a[n] == 1 && a.Classes() == 1
}

// SampleSize returns the number of gene copies
// in the sample.
func (a Spectrum) SampleSize() int {
	return len(a) - 1
}

// Validate returns an error
// if the spectrum does not satisfy
// the allele frequency spectrum invariant.
func (a Spectrum) Validate() error {
	if len(a) < 2 {
		return fmt.Errorf("%w: empty spectrum", ErrMalformed)
	}
	n := a.SampleSize()

	sum := 0
	for k := 0; k <= n; k++ {
		if a[k] < 0 {
			return fmt.Errorf("%w: negative count %d at class %d", ErrMalformed, a[k], k)
		}
		sum += k * a[k]
	}
	if a[0] != 0 {
		return fmt.Errorf("%w: %d classes of size zero", ErrMalformed, a[0])
	}
	if sum != n {
		return fmt.Errorf("%w: copies sum to %d, sample size is %d", ErrMalformed, sum, n)
	}
	return nil
}

// A Multi is an ordered collection of spectra
// from multiple loci,
// all sampled from the same number of gene copies
// and assumed to share the mutation parameter.
type Multi []Spectrum

// SampleSize returns the number of gene copies
// sampled at each locus.
func (m Multi) SampleSize() int {
	if len(m) == 0 {
		return 0
	}
	return m[0].SampleSize()
}

// Validate returns an error
// if any member spectrum is invalid,
// or if the loci have different sample sizes.
func (m Multi) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("%w: no loci", ErrMalformed)
	}
	n := m[0].SampleSize()
	for i, a := range m {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("locus %d: %w", i, err)
		}
		if a.SampleSize() != n {
			return fmt.Errorf("%w: locus %d: sample size %d, want %d", ErrMalformed, i, a.SampleSize(), n)
		}
	}
	return nil
}
