// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package posterior implements Bayesian estimation
// of the scaled mutation parameter,
// packaging a prior and a likelihood form
// into a target for the Metropolis sampler
// and reducing the returned draws
// to a point estimate and a credible interval.
package posterior

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/js-arias/ewens/esf"
	"github.com/js-arias/ewens/infer/mcmc"
	"github.com/js-arias/ewens/prior"
	"github.com/js-arias/ewens/spectrum"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
)

// ErrUnavailable is returned when a sampler run
// produces no usable draws.
var ErrUnavailable = errors.New("posterior unavailable")

// Model indicates the likelihood form
// used for the posterior.
type Model int

// Valid models.
const (
	// The Ewens sampling formula
	// on a single allele frequency spectrum.
	Unconditional Model = iota

	// The Ewens sampling formula
	// on a single spectrum,
	// conditioned on the sample being polymorphic.
	Conditional

	// The Ewens sampling formula
	// on the spectra of multiple loci
	// sharing the mutation parameter.
	Multilocus

	// The multilocus form
	// with each locus conditioned on polymorphism.
	MultilocusCond

	// Tavaré's probability of the number of segregating sites
	// per locus.
	Tavare

	// A beta binomial distribution
	// of the derived allele count
	// of a single segregating site per locus,
	// truncated to the polymorphic counts;
	// it has a second parameter, phi.
	BetaBinomial
)

// ParseModel returns a model
// from a string.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unconditional", "esf":
		return Unconditional, nil
	case "conditional":
		return Conditional, nil
	case "multilocus":
		return Multilocus, nil
	case "multilocus-cond":
		return MultilocusCond, nil
	case "tavare":
		return Tavare, nil
	case "beta-binomial":
		return BetaBinomial, nil
	}
	return 0, fmt.Errorf("unknown model %q", s)
}

// String output for a model.
func (m Model) String() string {
	switch m {
	case Unconditional:
		return "unconditional"
	case Conditional:
		return "conditional"
	case Multilocus:
		return "multilocus"
	case MultilocusCond:
		return "multilocus-cond"
	case Tavare:
		return "tavare"
	case BetaBinomial:
		return "beta-binomial"
	}
	return "unknown"
}

// A Spec is the specification of a posterior run:
// a model choice,
// its data payload,
// the priors,
// and the sampler settings.
type Spec struct {
	// Model choice
	Model Model

	// Spectra is the data of the ESF models.
	// The single locus models
	// expect exactly one spectrum.
	Spectra spectrum.Multi

	// Sites is the per locus number of segregating sites,
	// the data of the Tavare model.
	Sites []int

	// Counts is the per locus derived allele count
	// of the beta binomial model.
	Counts []int

	// SampleSize is the number of gene copies per sample,
	// used by the Tavare and beta binomial models.
	SampleSize int

	// Theta is the prior of the mutation parameter.
	Theta prior.Prior

	// Phi is the prior of the second parameter
	// of the beta binomial model.
	Phi prior.Prior

	// Options of the Metropolis sampler.
	Options mcmc.Options
}

// A Posterior is a collection of posterior draws.
type Posterior struct {
	// Theta draws
	Theta []float64

	// Phi draws,
	// only for the beta binomial model
	Phi []float64

	// Accepted is the fraction of accepted proposals.
	Accepted float64

	// Unstable is the number of proposals
	// rejected because the likelihood evaluator
	// reported a numerical instability.
	Unstable int
}

// An Estimate is a point estimate
// with its 95% equal tailed credible interval.
type Estimate struct {
	Mean   float64
	Lo, Hi float64
}

// Run draws from the posterior of the given specification
// using r as the random number source.
func Run(s Spec, r *rand.Rand) (*Posterior, error) {
	if s.Theta == nil {
		return nil, fmt.Errorf("%w: undefined theta prior", esf.ErrInvalidParam)
	}

	var t mcmc.Target
	switch s.Model {
	case Unconditional, Conditional:
		if len(s.Spectra) != 1 {
			return nil, fmt.Errorf("%w: model %s: %d loci, want 1", esf.ErrInvalidParam, s.Model, len(s.Spectra))
		}
		t = &esfTarget{spec: s}
	case Multilocus, MultilocusCond:
		if err := s.Spectra.Validate(); err != nil {
			return nil, err
		}
		t = &esfTarget{spec: s}
	case Tavare:
		if len(s.Sites) == 0 {
			return nil, fmt.Errorf("%w: model %s: no segregating site counts", esf.ErrInvalidParam, s.Model)
		}
		if s.SampleSize < 2 {
			return nil, fmt.Errorf("%w: model %s: sample size %d", esf.ErrInvalidParam, s.Model, s.SampleSize)
		}
		t = &esfTarget{spec: s}
	case BetaBinomial:
		bt, err := newBetaBinTarget(s)
		if err != nil {
			return nil, err
		}
		t = bt
	default:
		return nil, fmt.Errorf("%w: unknown model %d", esf.ErrInvalidParam, s.Model)
	}

	init := make([]float64, t.Dim())
	init[0] = initValue(s.Theta)
	if t.Dim() > 1 {
		init[1] = initValue(s.Phi)
	}

	ch, err := mcmc.Sample(t, init, s.Options, r)
	if err != nil {
		if et, ok := t.(*esfTarget); ok && et.unstable > 0 {
			return nil, fmt.Errorf("%w: %w: at the initial point", ErrUnavailable, esf.ErrInstability)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	p := &Posterior{
		Theta:    make([]float64, len(ch.Draws)),
		Accepted: ch.Accepted,
	}
	if et, ok := t.(*esfTarget); ok {
		p.Unstable = et.unstable
	}
	if t.Dim() > 1 {
		p.Phi = make([]float64, len(ch.Draws))
	}
	for i, d := range ch.Draws {
		p.Theta[i] = d[0]
		if t.Dim() > 1 {
			p.Phi[i] = d[1]
		}
	}
	return p, nil
}

func initValue(p prior.Prior) float64 {
	if p == nil {
		return 1
	}
	v := p.Mean()
	if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 1
	}
	return v
}

// Estimate returns the posterior mean of theta
// and its 95% equal tailed credible interval.
func (p *Posterior) Estimate() (Estimate, error) {
	return summarize(p.Theta)
}

// EstimatePhi returns the posterior mean of phi
// and its 95% equal tailed credible interval.
func (p *Posterior) EstimatePhi() (Estimate, error) {
	return summarize(p.Phi)
}

func summarize(draws []float64) (Estimate, error) {
	xs := make([]float64, 0, len(draws))
	for _, d := range draws {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		xs = append(xs, d)
	}
	if len(xs) == 0 {
		return Estimate{}, fmt.Errorf("%w: no usable draws", ErrUnavailable)
	}

	mean := stat.Mean(xs, nil)
	slices.Sort(xs)
	return Estimate{
		Mean: mean,
		Lo:   stat.Quantile(0.025, stat.Empirical, xs, nil),
		Hi:   stat.Quantile(0.975, stat.Empirical, xs, nil),
	}, nil
}

// esfTarget is the posterior target
// of the likelihood forms
// with theta as the only free parameter.
type esfTarget struct {
	spec Spec

	// evaluations rejected by a numerical instability
	unstable int
}

func (t *esfTarget) Dim() int { return 1 }

func (t *esfTarget) LogProb(x []float64) float64 {
	theta := x[0]
	if theta <= 0 {
		return math.Inf(-1)
	}

	var like float64
	var err error
	s := t.spec
	switch s.Model {
	case Unconditional:
		like, err = esf.LogProb(s.Spectra[0], theta)
	case Conditional:
		like, err = esf.LogProbCond(s.Spectra[0], theta)
	case Multilocus:
		like, err = esf.LogProbMulti(s.Spectra, theta)
	case MultilocusCond:
		like, err = esf.LogProbCondMulti(s.Spectra, theta)
	case Tavare:
		for _, sites := range s.Sites {
			var lp float64
			lp, err = esf.TavareLogProb(sites, s.SampleSize, theta)
			if err != nil {
				break
			}
			like += lp
		}
	}
	if err != nil {
		// the chain rejects the point;
		// an invalid parameter is a legitimate rejection,
		// but an instability must stay visible
		if errors.Is(err, esf.ErrInstability) {
			t.unstable++
		}
		return math.Inf(-1)
	}
	return like + s.Theta.LogProb(theta)
}
