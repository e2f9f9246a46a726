// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package posterior_test

import (
	"errors"
	"math"
	"testing"

	"github.com/js-arias/ewens/esf"
	"github.com/js-arias/ewens/infer/mcmc"
	"github.com/js-arias/ewens/infer/posterior"
	"github.com/js-arias/ewens/prior"
	"github.com/js-arias/ewens/spectrum"
	"golang.org/x/exp/rand"
)

func TestModelParse(t *testing.T) {
	models := []posterior.Model{
		posterior.Unconditional,
		posterior.Conditional,
		posterior.Multilocus,
		posterior.MultilocusCond,
		posterior.Tavare,
		posterior.BetaBinomial,
	}
	for _, m := range models {
		got, err := posterior.ParseModel(m.String())
		if err != nil {
			t.Errorf("model %s: unexpected error: %v", m, err)
		}
		if got != m {
			t.Errorf("model %s: got %s", m, got)
		}
	}
	if _, err := posterior.ParseModel("bayes"); err == nil {
		t.Errorf("unknown model: expecting error")
	}
}

func TestEstimate(t *testing.T) {
	// synthetic draws 1 .. 1000
	draws := make([]float64, 1000)
	for i := range draws {
		draws[i] = float64(i + 1)
	}
	p := &posterior.Posterior{Theta: draws}

	e, err := p.Estimate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(e.Mean-500.5) > 1e-9 {
		t.Errorf("mean: got %.4f, want %.4f", e.Mean, 500.5)
	}
	if math.Abs(e.Lo-25) > 1 {
		t.Errorf("lower bound: got %.4f, want %.1f", e.Lo, 25.0)
	}
	if math.Abs(e.Hi-975) > 1 {
		t.Errorf("upper bound: got %.4f, want %.1f", e.Hi, 975.0)
	}
}

func TestEstimateUnavailable(t *testing.T) {
	p := &posterior.Posterior{
		Theta: []float64{math.NaN(), math.NaN(), math.Inf(1)},
	}
	if _, err := p.Estimate(); !errors.Is(err, posterior.ErrUnavailable) {
		t.Errorf("got error %v, want %v", err, posterior.ErrUnavailable)
	}

	empty := &posterior.Posterior{}
	if _, err := empty.Estimate(); !errors.Is(err, posterior.ErrUnavailable) {
		t.Errorf("got error %v, want %v", err, posterior.ErrUnavailable)
	}
}

func TestRunUnconditional(t *testing.T) {
	// a polymorphic pair has likelihood theta/(1+theta);
	// with an exponential prior the posterior mean
	// is (1-e E1(1))/(e E1(1)) by direct integration
	th, err := prior.NewGamma(1, 1, rand.NewSource(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := posterior.Spec{
		Model:   posterior.Unconditional,
		Spectra: spectrum.Multi{spectrum.Spectrum{0, 2, 0}},
		Theta:   th,
		Options: mcmc.Options{Steps: 50_000},
	}
	r := rand.New(rand.NewSource(42))

	p, err := posterior.Run(s, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, err := p.Estimate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 1.4773
	if math.Abs(e.Mean-want) > 0.1 {
		t.Errorf("posterior mean: got %.4f, want %.4f", e.Mean, want)
	}
	if e.Lo >= e.Mean || e.Hi <= e.Mean {
		t.Errorf("credible interval [%.4f, %.4f] does not cover the mean %.4f", e.Lo, e.Hi, e.Mean)
	}
}

func TestRunTavare(t *testing.T) {
	th, err := prior.NewGamma(1, 2, rand.NewSource(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := posterior.Spec{
		Model:      posterior.Tavare,
		Sites:      []int{2, 0, 1, 3, 1},
		SampleSize: 10,
		Theta:      th,
		Options:    mcmc.Options{Steps: 20_000},
	}
	r := rand.New(rand.NewSource(11))

	p, err := posterior.Run(s, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, err := p.Estimate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Mean <= 0 {
		t.Errorf("posterior mean: got %.4f", e.Mean)
	}
	if e.Lo >= e.Hi {
		t.Errorf("credible interval [%.4f, %.4f]", e.Lo, e.Hi)
	}
}

func TestRunTavareUnstable(t *testing.T) {
	th, err := prior.NewGamma(1, 1, rand.NewSource(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// a large sample makes the alternating sum cancel
	s := posterior.Spec{
		Model:      posterior.Tavare,
		Sites:      []int{6},
		SampleSize: 250,
		Theta:      th,
		Options:    mcmc.Options{Steps: 20_000},
	}
	r := rand.New(rand.NewSource(11))

	_, err = posterior.Run(s, r)
	if !errors.Is(err, posterior.ErrUnavailable) {
		t.Errorf("error %q: want %q", err, posterior.ErrUnavailable)
	}
	if !errors.Is(err, esf.ErrInstability) {
		t.Errorf("error %q: want %q", err, esf.ErrInstability)
	}
}

func TestRunBetaBinomial(t *testing.T) {
	th, err := prior.NewGamma(1, 1, rand.NewSource(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ph, err := prior.NewGamma(1, 1, rand.NewSource(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := posterior.Spec{
		Model:      posterior.BetaBinomial,
		Counts:     []int{1, 3, 1, 9, 2, 1, 4},
		SampleSize: 10,
		Theta:      th,
		Phi:        ph,
		Options:    mcmc.Options{Steps: 20_000},
	}
	r := rand.New(rand.NewSource(6323))

	p, err := posterior.Run(s, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Phi) != len(p.Theta) {
		t.Fatalf("phi draws: got %d, want %d", len(p.Phi), len(p.Theta))
	}
	e, err := p.Estimate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := p.EstimatePhi()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Mean <= 0 || f.Mean <= 0 {
		t.Errorf("posterior means: theta %.4f, phi %.4f", e.Mean, f.Mean)
	}
}

func TestRunInvalid(t *testing.T) {
	th, err := prior.NewGamma(1, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := rand.New(rand.NewSource(1))

	// no prior
	s := posterior.Spec{
		Model:   posterior.Unconditional,
		Spectra: spectrum.Multi{spectrum.New(5)},
	}
	if _, err := posterior.Run(s, r); err == nil {
		t.Errorf("undefined prior: expecting error")
	}

	// single locus model with two loci
	s = posterior.Spec{
		Model:   posterior.Unconditional,
		Spectra: spectrum.Multi{spectrum.New(5), spectrum.New(5)},
		Theta:   th,
	}
	if _, err := posterior.Run(s, r); err == nil {
		t.Errorf("two loci on a single locus model: expecting error")
	}

	// beta binomial without phi
	s = posterior.Spec{
		Model:      posterior.BetaBinomial,
		Counts:     []int{1},
		SampleSize: 10,
		Theta:      th,
	}
	if _, err := posterior.Run(s, r); err == nil {
		t.Errorf("undefined phi prior: expecting error")
	}

	// monomorphic data under polymorphism conditioning
	s = posterior.Spec{
		Model:   posterior.Conditional,
		Spectra: spectrum.Multi{spectrum.New(5)},
		Theta:   th,
	}
	if _, err := posterior.Run(s, r); !errors.Is(err, posterior.ErrUnavailable) {
		t.Errorf("monomorphic conditional data: got error %v, want %v", err, posterior.ErrUnavailable)
	}
}
