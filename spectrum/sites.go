// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package spectrum

import "fmt"

// SegregatingSites returns the number of alignment columns
// with more than one distinct symbol
// across the sampled sequences.
func SegregatingSites(seqs []string) (int, error) {
	if len(seqs) == 0 {
		return 0, fmt.Errorf("%w: empty sample", ErrMalformed)
	}
	for _, s := range seqs {
		if len(s) != len(seqs[0]) {
			return 0, fmt.Errorf("%w: sequences of unequal length", ErrMalformed)
		}
	}

	sites := 0
	for i := range seqs[0] {
		for _, s := range seqs[1:] {
			if s[i] != seqs[0][i] {
				sites++
				break
			}
		}
	}
	return sites, nil
}

// PairwiseDiff returns the mean number of differing sites
// over all unordered pairs of sequences.
// The mean is exact:
// all n(n-1)/2 pairs are compared.
func PairwiseDiff(seqs []string) (float64, error) {
	if len(seqs) < 2 {
		return 0, fmt.Errorf("%w: %d sequences, want at least 2", ErrMalformed, len(seqs))
	}
	for _, s := range seqs {
		if len(s) != len(seqs[0]) {
			return 0, fmt.Errorf("%w: sequences of unequal length", ErrMalformed)
		}
	}

	sum := 0
	for i, si := range seqs {
		for _, sj := range seqs[i+1:] {
			for k := range si {
				if si[k] != sj[k] {
					sum++
				}
			}
		}
	}
	pairs := len(seqs) * (len(seqs) - 1) / 2
	return float64(sum) / float64(pairs), nil
}
