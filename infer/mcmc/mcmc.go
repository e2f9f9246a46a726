// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package mcmc implements a random walk Metropolis sampler
// for models with positive parameters.
package mcmc

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// A Target is an unnormalized posterior density
// over a vector of positive parameters.
type Target interface {
	// Dim returns the number of parameters.
	Dim() int

	// LogProb returns the unnormalized log posterior density
	// at the given parameter vector.
	// Points outside the support report
	// negative infinity.
	LogProb(x []float64) float64
}

// Options are the settings of a sampler run.
type Options struct {
	// Steps is the number of iterations of the chain
	// after burn in.
	Steps int

	// BurnIn is the number of discarded initial iterations.
	BurnIn int

	// Thin keeps one of every thin iterations.
	Thin int

	// Epsilon is the width of the multiplier proposal.
	Epsilon float64
}

// Defaults used for unset options.
const (
	defSteps   = 20_000
	defBurnIn  = 5_000
	defThin    = 10
	defEpsilon = 1.0
)

func (o Options) fill() Options {
	if o.Steps <= 0 {
		o.Steps = defSteps
	}
	if o.BurnIn < 0 {
		o.BurnIn = defBurnIn
	}
	if o.Thin <= 0 {
		o.Thin = defThin
	}
	if o.Epsilon <= 0 {
		o.Epsilon = defEpsilon
	}
	return o
}

// A Chain is the output of a sampler run.
type Chain struct {
	// Draws of the parameter vector,
	// in chain order.
	Draws [][]float64

	// Accepted is the fraction of accepted proposals.
	Accepted float64
}

// Sample runs a Metropolis chain on the target
// starting at init,
// using r as the random number source.
// Proposals multiply one parameter at a time
// by exp((u-0.5)*epsilon),
// a random walk on the log scale
// that keeps the parameters positive;
// the Hastings correction of the multiplier
// is included in the acceptance ratio.
func Sample(t Target, init []float64, o Options, r *rand.Rand) (*Chain, error) {
	o = o.fill()
	if len(init) != t.Dim() {
		return nil, fmt.Errorf("init vector of %d parameters, want %d", len(init), t.Dim())
	}
	for i, v := range init {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("invalid init value %.6g at parameter %d", v, i)
		}
	}

	x := make([]float64, len(init))
	copy(x, init)
	lp := t.LogProb(x)
	if math.IsNaN(lp) || math.IsInf(lp, 0) {
		return nil, fmt.Errorf("non finite log probability %.6g at init %v", lp, init)
	}

	ch := &Chain{
		Draws: make([][]float64, 0, o.Steps/o.Thin),
	}
	accepted := 0
	prop := make([]float64, len(x))
	for i := 0; i < o.BurnIn+o.Steps; i++ {
		copy(prop, x)
		p := 0
		if len(x) > 1 {
			p = r.Intn(len(x))
		}
		c := math.Exp((r.Float64() - 0.5) * o.Epsilon)
		prop[p] = x[p] * c

		newLP := t.LogProb(prop)
		// the Hastings ratio of the multiplier proposal is c
		a := newLP - lp + math.Log(c)
		if a >= 0 || r.Float64() < math.Exp(a) {
			x[p] = prop[p]
			lp = newLP
			accepted++
		}

		if i < o.BurnIn {
			continue
		}
		if (i-o.BurnIn)%o.Thin != 0 {
			continue
		}
		d := make([]float64, len(x))
		copy(d, x)
		ch.Draws = append(ch.Draws, d)
	}
	ch.Accepted = float64(accepted) / float64(o.BurnIn+o.Steps)
	return ch, nil
}
