// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package posterior

import (
	"fmt"
	"math"

	"github.com/js-arias/ewens/esf"
)

// betaBinTarget is the posterior target
// of the beta binomial SNP model:
// the derived allele count of a segregating site
// in a sample of n sequences
// is beta binomial with parameters theta and phi,
// truncated to the polymorphic counts 1 .. n-1.
type betaBinTarget struct {
	spec Spec
}

func newBetaBinTarget(s Spec) (*betaBinTarget, error) {
	if s.Phi == nil {
		return nil, fmt.Errorf("%w: undefined phi prior", esf.ErrInvalidParam)
	}
	if s.SampleSize < 2 {
		return nil, fmt.Errorf("%w: model %s: sample size %d", esf.ErrInvalidParam, s.Model, s.SampleSize)
	}
	if len(s.Counts) == 0 {
		return nil, fmt.Errorf("%w: model %s: no allele counts", esf.ErrInvalidParam, s.Model)
	}
	for i, k := range s.Counts {
		if k < 1 || k >= s.SampleSize {
			return nil, fmt.Errorf("%w: locus %d: allele count %d outside 1..%d", esf.ErrInvalidParam, i, k, s.SampleSize-1)
		}
	}
	return &betaBinTarget{spec: s}, nil
}

func (t *betaBinTarget) Dim() int { return 2 }

func (t *betaBinTarget) LogProb(x []float64) float64 {
	theta, phi := x[0], x[1]
	if theta <= 0 || phi <= 0 {
		return math.Inf(-1)
	}

	s := t.spec
	n := s.SampleSize

	// truncation constant over the polymorphic counts
	lsum := math.Inf(-1)
	lpmf := make([]float64, n)
	for k := 1; k < n; k++ {
		lpmf[k] = logBetaBin(k, n, theta, phi)
		lsum = logAdd(lsum, lpmf[k])
	}
	if math.IsNaN(lsum) || math.IsInf(lsum, 0) {
		return math.Inf(-1)
	}

	like := 0.0
	for _, k := range s.Counts {
		like += lpmf[k] - lsum
	}
	return like + s.Theta.LogProb(theta) + s.Phi.LogProb(phi)
}

// logBetaBin returns the log probability
// of k derived copies in a sample of n
// under a beta binomial with parameters a and b.
func logBetaBin(k, n int, a, b float64) float64 {
	return lchoose(n, k) + lbeta(float64(k)+a, float64(n-k)+b) - lbeta(a, b)
}

func lbeta(a, b float64) float64 {
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	lab, _ := math.Lgamma(a + b)
	return la + lb - lab
}

func lchoose(n, k int) float64 {
	ln, _ := math.Lgamma(float64(n) + 1)
	lk, _ := math.Lgamma(float64(k) + 1)
	lnk, _ := math.Lgamma(float64(n-k) + 1)
	return ln - lk - lnk
}

// logAdd returns log(exp(a)+exp(b)).
func logAdd(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	if math.IsInf(a, -1) {
		return a
	}
	return a + math.Log1p(math.Exp(b-a))
}
