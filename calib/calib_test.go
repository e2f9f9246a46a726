// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package calib_test

import (
	"errors"
	"math"
	"testing"

	"github.com/js-arias/ewens/calib"
	"github.com/js-arias/ewens/calparam"
	"github.com/js-arias/ewens/esf"
	"github.com/js-arias/ewens/infer/mcmc"
	"github.com/js-arias/ewens/infer/posterior"
	"github.com/js-arias/ewens/prior"
	"golang.org/x/exp/rand"
)

func testParams(t testing.TB) calib.Params {
	t.Helper()

	p, err := prior.NewGamma(1, 1, rand.NewSource(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return calib.Params{
		Sample:     25,
		Theta:      1,
		Loci:       1,
		Replicates: 100,
		Prior:      p,
		Options: mcmc.Options{
			Steps:  2000,
			BurnIn: 500,
			Thin:   5,
		},
		KeepRecords: true,
		Seed:        42,
	}
}

func findAggregate(t testing.TB, res *calib.Result, name string) calib.Aggregate {
	t.Helper()

	for _, ag := range res.Estimators {
		if ag.Name == name {
			return ag
		}
	}
	t.Fatalf("estimator %q: no aggregate", name)
	return calib.Aggregate{}
}

func TestRun(t *testing.T) {
	p := testParams(t)

	reps := 0
	p.Observer = func(rep int, err error) {
		reps++
		if err != nil {
			t.Errorf("replicate %d: unexpected error: %v", rep, err)
		}
	}

	res, err := calib.Run(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reps != p.Replicates {
		t.Errorf("observed replicates: got %d, want %d", reps, p.Replicates)
	}
	if got := len(res.Records) + res.Failed; got != p.Replicates {
		t.Errorf("recorded replicates: got %d, want %d", got, p.Replicates)
	}

	w := findAggregate(t, res, calib.NameWatterson)
	if w.Replicates != p.Replicates {
		t.Errorf("estimator %q: %d replicates, want %d", w.Name, w.Replicates, p.Replicates)
	}
	if !math.IsNaN(w.Coverage) {
		t.Errorf("estimator %q: coverage %.3f, want NaN", w.Name, w.Coverage)
	}

	// Watterson's estimator is unbiased;
	// the naive estimate s/n is not.
	naive := 0.0
	for _, rec := range res.Records {
		sum := 0
		for _, s := range rec.Sites {
			sum += s
		}
		naive += float64(sum) / float64(p.Sample)
	}
	naive /= float64(len(res.Records))
	naiveBias := naive - p.Theta
	if math.Abs(w.Bias) >= math.Abs(naiveBias) {
		t.Errorf("estimator %q: bias %.3f, naive bias %.3f", w.Name, w.Bias, naiveBias)
	}
	tol := 4 * w.StdDev / math.Sqrt(float64(w.Replicates))
	if math.Abs(w.Bias) > tol {
		t.Errorf("estimator %q: bias %.3f [tol = %.3f]", w.Name, w.Bias, tol)
	}

	b := findAggregate(t, res, calib.NameBayes)
	if b.Replicates == 0 {
		t.Fatalf("estimator %q: no successful replicate", b.Name)
	}
	if math.IsNaN(b.Coverage) || b.Coverage < 0.5 || b.Coverage > 1 {
		t.Errorf("estimator %q: coverage %.3f", b.Name, b.Coverage)
	}
	if b.RMSE <= 0 {
		t.Errorf("estimator %q: RMSE %.3f", b.Name, b.RMSE)
	}

	tv := findAggregate(t, res, calib.NameTavare)
	if tv.Replicates+tv.Failed != p.Replicates {
		t.Errorf("estimator %q: %d replicates and %d failures, want %d", tv.Name, tv.Replicates, tv.Failed, p.Replicates)
	}
}

func TestRunSequences(t *testing.T) {
	p := testParams(t)
	p.Loci = 2
	p.SeqLen = 500
	p.Kappa = 2
	p.Replicates = 20

	res, err := calib.Run(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := findAggregate(t, res, calib.NameDiversity)
	if d.Replicates != p.Replicates {
		t.Errorf("estimator %q: %d replicates, want %d", d.Name, d.Replicates, p.Replicates)
	}
	if d.Mean <= 0 {
		t.Errorf("estimator %q: mean %.3f", d.Name, d.Mean)
	}

	w := findAggregate(t, res, calib.NameWatterson)
	if w.Mean <= 0 {
		t.Errorf("estimator %q: mean %.3f", w.Name, w.Mean)
	}
}

func TestRunAscertainment(t *testing.T) {
	p := testParams(t)
	p.Ascertainment = calib.Polymorphic
	p.Replicates = 20

	res, err := calib.Run(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, rec := range res.Records {
		for _, a := range rec.Spectra {
			if a.IsMonomorphic() {
				t.Errorf("replicate %d: monomorphic spectrum under ascertainment", rec.Replicate)
			}
		}
	}

	c := findAggregate(t, res, calib.NameBayesCond)
	if c.Replicates == 0 {
		t.Errorf("estimator %q: no successful replicate", c.Name)
	}
}

func TestRunRetryExceeded(t *testing.T) {
	p := testParams(t)
	p.Theta = 1e-9
	p.Ascertainment = calib.Polymorphic
	p.Retries = 3
	p.Replicates = 10

	res, err := calib.Run(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Failed != p.Replicates {
		t.Errorf("failed replicates: got %d, want %d", res.Failed, p.Replicates)
	}
	if got := res.Failures["ascertainment-retry-exceeded"]; got != p.Replicates {
		t.Errorf("retry failures: got %d, want %d", got, p.Replicates)
	}
	if len(res.Records) != 0 {
		t.Errorf("got %d records, want none", len(res.Records))
	}

	p.FailFast = true
	if _, err := calib.Run(p); !errors.Is(err, calib.ErrRetryExceeded) {
		t.Errorf("fail-fast run: got error %v, want %v", err, calib.ErrRetryExceeded)
	}

	p.FailFast = false
	p.Ascertainment = calib.SingleSite
	p.Retries = 50
	res, err = calib.Run(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Failures["ascertainment-retry-exceeded"]; got != p.Replicates {
		t.Errorf("single-site retry failures: got %d, want %d", got, p.Replicates)
	}
}

func TestRunFailFastEstimator(t *testing.T) {
	p := testParams(t)
	// the Tavaré sum cancels on large samples,
	// so that estimator fails on every replicate
	p.Sample = 250
	p.Replicates = 3
	p.FailFast = true

	_, err := calib.Run(p)
	if !errors.Is(err, posterior.ErrUnavailable) {
		t.Errorf("fail-fast run: got error %v, want %v", err, posterior.ErrUnavailable)
	}

	p.FailFast = false
	res, err := calib.Run(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tv := findAggregate(t, res, calib.NameTavare)
	if tv.Failed != p.Replicates {
		t.Errorf("estimator %q: %d failures, want %d", tv.Name, tv.Failed, p.Replicates)
	}
	if tv.Replicates != 0 {
		t.Errorf("estimator %q: %d replicates, want none", tv.Name, tv.Replicates)
	}
	for _, rec := range res.Records {
		for _, f := range rec.Fails {
			if f.Name != calib.NameTavare {
				continue
			}
			if !errors.Is(f.Err, esf.ErrInstability) {
				t.Errorf("replicate %d: estimator %q: error %q: want %q", rec.Replicate, f.Name, f.Err, esf.ErrInstability)
			}
		}
	}
}

func TestReplicate(t *testing.T) {
	p := testParams(t)
	r := rand.New(rand.NewSource(42))

	rec, err := calib.Replicate(p, 0, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.Spectra) != p.Loci {
		t.Errorf("got %d spectra, want %d", len(rec.Spectra), p.Loci)
	}
	if err := rec.Spectra.Validate(); err != nil {
		t.Errorf("invalid spectra: %v", err)
	}
	if len(rec.Sites) != p.Loci {
		t.Errorf("got %d site counts, want %d", len(rec.Sites), p.Loci)
	}
	if got := len(rec.Estimates) + len(rec.Fails); got < 3 {
		t.Errorf("got %d estimator outputs, want at least 3", got)
	}
	for _, e := range rec.Estimates {
		if e.Point < 0 {
			t.Errorf("estimator %q: point estimate %.3f", e.Name, e.Point)
		}
		if e.Interval && e.Lo > e.Hi {
			t.Errorf("estimator %q: interval %.3f, %.3f", e.Name, e.Lo, e.Hi)
		}
	}
}

func TestRunInvalid(t *testing.T) {
	p := testParams(t)
	p.Sample = 1
	if _, err := calib.Run(p); err == nil {
		t.Errorf("sample of 1: expecting error")
	}

	p = testParams(t)
	p.Prior = nil
	if _, err := calib.Run(p); err == nil {
		t.Errorf("undefined prior: expecting error")
	}
}

func TestFromParam(t *testing.T) {
	cp := calparam.New("tmp-file.tab")
	cp.SetSample(50)
	cp.SetTheta(2.5)
	cp.SetAscertainment("single-site")
	cp.SetFailFast(true)

	p, err := calib.FromParam(cp, rand.NewSource(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Sample != 50 {
		t.Errorf("sample: got %d, want 50", p.Sample)
	}
	if p.Theta != 2.5 {
		t.Errorf("theta: got %.3f, want 2.5", p.Theta)
	}
	if p.Ascertainment != calib.SingleSite {
		t.Errorf("ascertainment: got %v, want %v", p.Ascertainment, calib.SingleSite)
	}
	if !p.FailFast {
		t.Errorf("failfast: got false, want true")
	}
	if p.Prior == nil {
		t.Fatalf("undefined prior")
	}
	if got := p.Prior.String(); got != "gamma(1.000000,1.000000)" {
		t.Errorf("prior: got %q", got)
	}
}
