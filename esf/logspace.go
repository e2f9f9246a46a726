// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package esf

import "math"

// log1mexp returns log(1 - exp(x)) for x < 0,
// switching between log(-expm1(x)) and log1p(-exp(x))
// to keep precision when x is close to zero
// or very negative.
func log1mexp(x float64) float64 {
	if x >= 0 {
		return math.NaN()
	}
	if x > -math.Ln2 {
		return math.Log(-math.Expm1(x))
	}
	return math.Log1p(-math.Exp(x))
}

// logChoose returns the log of the binomial coefficient.
func logChoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	ln, _ := math.Lgamma(float64(n) + 1)
	lk, _ := math.Lgamma(float64(k) + 1)
	lnk, _ := math.Lgamma(float64(n-k) + 1)
	return ln - lk - lnk
}

// logSumExp returns the log of the sum
// of the exponentials of the given values,
// factoring out the maximum.
func logSumExp(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}
	max := xs[0]
	for _, x := range xs[1:] {
		if x > max {
			max = x
		}
	}
	if math.IsInf(max, -1) {
		return max
	}

	var sum float64
	for _, x := range xs {
		sum += math.Exp(x - max)
	}
	return math.Log(sum) + max
}
