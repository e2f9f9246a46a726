// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package prior implements the prior distribution families
// used for the scaled mutation parameter.
// A prior is a continuous distribution
// over the positive real line.
package prior

import (
	"fmt"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// A Prior is a prior probability distribution
// over a positive parameter.
type Prior interface {
	// LogProb returns the log of the density at x.
	LogProb(x float64) float64

	// Rand returns a random draw from the prior.
	Rand() float64

	// Mean returns the mean of the prior.
	Mean() float64

	// String output for the family name and parameters.
	String() string
}

// Gamma is a gamma prior.
type Gamma struct {
	// Parameters of the gamma distribution
	Param distuv.Gamma
}

// NewGamma creates a gamma prior
// with the given shape and rate,
// using src as the random number source.
// A nil source uses the shared global source.
func NewGamma(shape, rate float64, src rand.Source) (Gamma, error) {
	if shape <= 0 {
		return Gamma{}, fmt.Errorf("invalid gamma prior: shape %.6g", shape)
	}
	if rate <= 0 {
		return Gamma{}, fmt.Errorf("invalid gamma prior: rate %.6g", rate)
	}
	return Gamma{
		Param: distuv.Gamma{
			Alpha: shape,
			Beta:  rate,
			Src:   src,
		},
	}, nil
}

// LogProb returns the log of the density at x.
func (g Gamma) LogProb(x float64) float64 {
	return g.Param.LogProb(x)
}

// Rand returns a random draw from the prior.
func (g Gamma) Rand() float64 {
	return g.Param.Rand()
}

// Mean returns the mean of the prior,
// the ratio of shape to rate.
func (g Gamma) Mean() float64 {
	return g.Param.Mean()
}

// String output for the family name and parameters.
func (g Gamma) String() string {
	return fmt.Sprintf("gamma(%.6f,%.6f)", g.Param.Alpha, g.Param.Beta)
}

// LogNormal is a log normal prior.
type LogNormal struct {
	// Parameters of the log normal distribution
	Param distuv.LogNormal
}

// NewLogNormal creates a log normal prior
// with the given location and scale,
// using src as the random number source.
// A nil source uses the shared global source.
func NewLogNormal(mu, sigma float64, src rand.Source) (LogNormal, error) {
	if sigma <= 0 {
		return LogNormal{}, fmt.Errorf("invalid logNormal prior: scale %.6g", sigma)
	}
	return LogNormal{
		Param: distuv.LogNormal{
			Mu:    mu,
			Sigma: sigma,
			Src:   src,
		},
	}, nil
}

// LogProb returns the log of the density at x.
func (ln LogNormal) LogProb(x float64) float64 {
	return ln.Param.LogProb(x)
}

// Rand returns a random draw from the prior.
func (ln LogNormal) Rand() float64 {
	return ln.Param.Rand()
}

// Mean returns the mean of the prior.
func (ln LogNormal) Mean() float64 {
	return ln.Param.Mean()
}

// String output for the family name and parameters.
func (ln LogNormal) String() string {
	return fmt.Sprintf("logNormal(%.6f,%.6f)", ln.Param.Mu, ln.Param.Sigma)
}

// Parse creates a prior
// from a family name
// and its two parameters
// (shape and rate for a gamma prior,
// location and scale for a log normal prior).
func Parse(family string, p1, p2 float64, src rand.Source) (Prior, error) {
	switch strings.ToLower(strings.TrimSpace(family)) {
	case "gamma":
		return NewGamma(p1, p2, src)
	case "lognormal":
		return NewLogNormal(p1, p2, src)
	}
	return nil, fmt.Errorf("unknown prior family %q", family)
}
