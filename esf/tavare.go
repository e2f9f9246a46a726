// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package esf

import (
	"fmt"
	"math"
)

// TavareLogProb returns the log probability
// of observing s segregating sites
// in a sample of n sequences
// under the infinite sites coalescent,
// given the scaled mutation parameter theta
// (Tavaré 1984):
//
//	P(S=s) = (n-1)/theta sum (-1)^(j-1) C(n-2,j-1) (theta/(theta+j))^(s+1)
//
// with the sum over j = 1 .. n-1.
// The alternating sum is evaluated with a signed log-sum-exp,
// accumulating positive and negative terms apart
// and combining them in log space.
// The binomial coefficients grow with the sample,
// so the cancellation between the two accumulations
// consumes about n/3 decimal digits:
// with float64 arithmetic the evaluation is reliable
// for samples of up to about 50 sequences.
// When the surviving digits drop below working precision
// the function fails with ErrInstability
// instead of reporting a wrong or non finite value.
func TavareLogProb(s, n int, theta float64) (float64, error) {
	if theta <= 0 {
		return 0, fmt.Errorf("%w: theta %.6g", ErrInvalidParam, theta)
	}
	if n < 2 {
		return 0, fmt.Errorf("%w: sample of %d sequences", ErrInvalidParam, n)
	}
	if s < 0 {
		return 0, fmt.Errorf("%w: %d segregating sites", ErrInvalidParam, s)
	}

	lt := math.Log(theta)
	pos := make([]float64, 0, n/2+1)
	neg := make([]float64, 0, n/2)
	for j := 1; j < n; j++ {
		term := logChoose(n-2, j-1) + float64(s+1)*(lt-math.Log(theta+float64(j)))
		if j%2 == 1 {
			pos = append(pos, term)
		} else {
			neg = append(neg, term)
		}
	}

	lPos := logSumExp(pos)
	lNeg := logSumExp(neg)
	lp := math.Log(float64(n-1)) - lt
	switch {
	case len(neg) == 0:
		lp += lPos
	case lPos > lNeg:
		diff := log1mexp(lNeg - lPos)
		// the cancellation lPos-(lPos+diff) eats -diff/ln(10)
		// of the 15 decimal digits of a float64
		if -diff > 28 {
			return 0, fmt.Errorf("%w: segregating sites %d, sample %d, theta %.6g", ErrInstability, s, n, theta)
		}
		lp += lPos + diff
	default:
		// cancellation consumed the sum
		return 0, fmt.Errorf("%w: segregating sites %d, sample %d, theta %.6g", ErrInstability, s, n, theta)
	}

	if math.IsNaN(lp) || math.IsInf(lp, 0) {
		return 0, fmt.Errorf("%w: segregating sites %d, sample %d, theta %.6g", ErrInstability, s, n, theta)
	}
	return lp, nil
}
