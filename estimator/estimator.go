// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package estimator implements the classical point estimators
// of the scaled mutation parameter
// from segregating site counts
// and pairwise sequence divergence.
package estimator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/js-arias/ewens/spectrum"
)

// ErrSampleSize is returned when a sample
// is too small for an estimator.
var ErrSampleSize = errors.New("insufficient sample size")

var hMu sync.Mutex
var hTable = []float64{0}

// Harmonic returns the harmonic number,
// the sum of the reciprocals of the first m integers.
// The value of each argument is computed once
// and then served from a shared table.
func Harmonic(m int) float64 {
	if m < 1 {
		return 0
	}

	hMu.Lock()
	defer hMu.Unlock()
	for i := len(hTable); i <= m; i++ {
		hTable = append(hTable, hTable[i-1]+1/float64(i))
	}
	return hTable[m]
}

// Watterson returns the estimate of the scaled mutation parameter
// from the number of segregating sites s
// in a sample of n sequences:
// s divided by the harmonic number of n-1.
func Watterson(s, n int) (float64, error) {
	if n < 2 {
		return 0, fmt.Errorf("%w: sample of %d sequences", ErrSampleSize, n)
	}
	if s < 0 {
		return 0, fmt.Errorf("invalid segregating sites: %d", s)
	}
	return float64(s) / Harmonic(n-1), nil
}

// WattersonFromSeqs returns Watterson's estimate
// from an aligned sample of sequences.
func WattersonFromSeqs(seqs []string) (float64, error) {
	if len(seqs) < 2 {
		return 0, fmt.Errorf("%w: sample of %d sequences", ErrSampleSize, len(seqs))
	}
	s, err := spectrum.SegregatingSites(seqs)
	if err != nil {
		return 0, err
	}
	return Watterson(s, len(seqs))
}

// NucleotideDiversity returns the mean number of differing sites
// over all unordered pairs of sequences,
// per site.
// All pairs are compared.
func NucleotideDiversity(seqs []string) (float64, error) {
	if len(seqs) < 2 {
		return 0, fmt.Errorf("%w: sample of %d sequences", ErrSampleSize, len(seqs))
	}
	if len(seqs[0]) == 0 {
		return 0, fmt.Errorf("%w: sequences of length zero", spectrum.ErrMalformed)
	}
	d, err := spectrum.PairwiseDiff(seqs)
	if err != nil {
		return 0, err
	}
	return d / float64(len(seqs[0])), nil
}

// PairwiseDiversity returns the mean number of differing sites
// over all unordered pairs of sequences,
// an estimate of the mutation rate at the locus scale
// (the per site form is NucleotideDiversity).
// All pairs are compared.
func PairwiseDiversity(seqs []string) (float64, error) {
	if len(seqs) < 2 {
		return 0, fmt.Errorf("%w: sample of %d sequences", ErrSampleSize, len(seqs))
	}
	return spectrum.PairwiseDiff(seqs)
}
