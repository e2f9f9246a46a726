// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package esf implements the Ewens sampling formula,
// the probability distribution of an allele frequency spectrum
// under the infinite alleles coalescent,
// given the scaled mutation parameter.
// All probabilities are computed and reported in log space.
package esf

import (
	"errors"
	"fmt"
	"math"

	"github.com/js-arias/ewens/spectrum"
)

// ErrInvalidParam is returned when a parameter
// is outside the support of the distribution.
var ErrInvalidParam = errors.New("invalid parameter")

// ErrInstability is returned when an evaluation
// produces a non finite intermediate value.
// It indicates a precision defect
// and is never clamped to a usable number.
var ErrInstability = errors.New("numerical instability")

// LogProb returns the log probability
// of an allele frequency spectrum
// given the scaled mutation parameter theta.
func LogProb(a spectrum.Spectrum, theta float64) (float64, error) {
	if theta <= 0 {
		return 0, fmt.Errorf("%w: theta %.6g", ErrInvalidParam, theta)
	}
	if err := a.Validate(); err != nil {
		return 0, err
	}

	n := a.SampleSize()
	lt := math.Log(theta)

	// log of the rising factorial theta (theta+1) ... (theta+n-1)
	rise := lt
	for i := 1; i < n; i++ {
		rise += math.Log(theta + float64(i))
	}

	lg, _ := math.Lgamma(float64(n) + 1)
	lp := lg - rise
	for j := 1; j <= n; j++ {
		if a[j] == 0 {
			continue
		}
		aj := float64(a[j])
		lf, _ := math.Lgamma(aj + 1)
		lp += aj*lt - aj*math.Log(float64(j)) - lf
	}

	if math.IsNaN(lp) || math.IsInf(lp, 0) {
		return 0, fmt.Errorf("%w: spectrum %v, theta %.6g", ErrInstability, a, theta)
	}
	return lp, nil
}

// LogProbMulti returns the joint log probability
// of a collection of spectra
// sampled at independent loci
// that share the mutation parameter theta.
// The joint value is the sum of the per locus log probabilities.
func LogProbMulti(m spectrum.Multi, theta float64) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}

	sum := 0.0
	for i, a := range m {
		lp, err := LogProb(a, theta)
		if err != nil {
			return 0, fmt.Errorf("locus %d: %w", i, err)
		}
		sum += lp
	}
	return sum, nil
}

// LogMonomorphic returns the log probability
// of a monomorphic sample of n gene copies
// given theta.
func LogMonomorphic(n int, theta float64) (float64, error) {
	return LogProb(spectrum.New(n), theta)
}

// LogPolymorphic returns the log probability
// that a sample of n gene copies
// contains more than one allelic type,
// given theta.
func LogPolymorphic(n int, theta float64) (float64, error) {
	lm, err := LogMonomorphic(n, theta)
	if err != nil {
		return 0, err
	}

	lp := log1mexp(lm)
	if math.IsNaN(lp) || math.IsInf(lp, 0) {
		return 0, fmt.Errorf("%w: polymorphism probability at n %d, theta %.6g", ErrInstability, n, theta)
	}
	return lp, nil
}

// LogProbCond returns the log probability
// of an allele frequency spectrum
// conditioned on the sample being polymorphic,
// as when the samples are ascertained
// to contain at least one segregating site.
// The conditioning is a subtraction in log space
// of the log probability of polymorphism.
func LogProbCond(a spectrum.Spectrum, theta float64) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if a.IsMonomorphic() {
		return 0, fmt.Errorf("%w: monomorphic spectrum under polymorphism conditioning", ErrInvalidParam)
	}

	lp, err := LogProb(a, theta)
	if err != nil {
		return 0, err
	}
	den, err := LogPolymorphic(a.SampleSize(), theta)
	if err != nil {
		return 0, err
	}
	return lp - den, nil
}

// LogProbCondMulti returns the joint log probability
// of a collection of spectra,
// each conditioned on polymorphism,
// sharing the mutation parameter theta.
func LogProbCondMulti(m spectrum.Multi, theta float64) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}

	sum := 0.0
	for i, a := range m {
		lp, err := LogProbCond(a, theta)
		if err != nil {
			return 0, fmt.Errorf("locus %d: %w", i, err)
		}
		sum += lp
	}
	return sum, nil
}
