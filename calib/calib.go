// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package calib implements a Monte Carlo calibration
// of the mutation rate estimators:
// samples of a known mutation rate are simulated
// under the coalescent,
// each estimator runs on every sample,
// and the estimates are aggregated
// into bias, error, and coverage reports.
package calib

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/js-arias/ewens/calparam"
	"github.com/js-arias/ewens/esf"
	"github.com/js-arias/ewens/estimator"
	"github.com/js-arias/ewens/infer/mcmc"
	"github.com/js-arias/ewens/infer/posterior"
	"github.com/js-arias/ewens/prior"
	"github.com/js-arias/ewens/simulate"
	"github.com/js-arias/ewens/spectrum"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
)

// ErrRetryExceeded is used when a simulated replicate
// cannot satisfy the ascertainment condition
// within the allowed number of retries.
var ErrRetryExceeded = errors.New("ascertainment retries exceeded")

// Ascertainment is a sampling condition
// imposed on each simulated locus.
type Ascertainment int

// Valid ascertainment conditions.
const (
	// Every simulated locus is accepted.
	None Ascertainment = iota

	// Only polymorphic loci are accepted.
	Polymorphic

	// Only loci with a single segregating site are accepted.
	SingleSite
)

// ParseAscertainment returns an ascertainment condition
// from a string.
func ParseAscertainment(s string) (Ascertainment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return None, nil
	case "polymorphic":
		return Polymorphic, nil
	case "single-site":
		return SingleSite, nil
	}
	return 0, fmt.Errorf("unknown ascertainment %q", s)
}

// String output for an ascertainment condition.
func (a Ascertainment) String() string {
	switch a {
	case None:
		return "none"
	case Polymorphic:
		return "polymorphic"
	case SingleSite:
		return "single-site"
	}
	return "unknown"
}

// Names of the estimators in a calibration run.
const (
	// Watterson's estimate from the segregating sites.
	NameWatterson = "watterson"

	// Pairwise nucleotide diversity
	// (sequence simulations only).
	NameDiversity = "diversity"

	// Posterior mean under the Ewens sampling formula.
	NameBayes = "bayes"

	// Posterior mean conditioned on polymorphism.
	NameBayesCond = "bayes-cond"

	// Posterior mean from the number of segregating sites.
	NameTavare = "tavare"
)

// Params is the collection of parameters
// of a calibration run.
type Params struct {
	// Sample is the number of sequences per replicate.
	Sample int

	// Theta is the mutation rate used for the simulations.
	Theta float64

	// Loci is the number of independent loci per replicate.
	Loci int

	// SeqLen is the length of the simulated sequences.
	// If zero,
	// allele spectra are simulated
	// under the infinite alleles model.
	SeqLen int

	// Kappa is the transition-transversion ratio
	// of the sequence simulations.
	Kappa float64

	// Replicates is the number of simulated replicates.
	Replicates int

	// Ascertainment is the sampling condition
	// imposed on each simulated locus.
	Ascertainment Ascertainment

	// Retries is the maximum number of re-simulations
	// allowed to satisfy the ascertainment condition.
	// If zero,
	// there is no limit.
	Retries int

	// Prior of the mutation rate
	// for the Bayesian estimators.
	Prior prior.Prior

	// Options of the Metropolis sampler.
	Options mcmc.Options

	// FailFast stops the run
	// at the first failed replicate.
	FailFast bool

	// KeepRecords retains the per replicate records
	// in the result.
	KeepRecords bool

	// CPU is the number of concurrent replicates.
	// If zero,
	// all the available processors will be used.
	CPU int

	// Seed of the random number generators.
	// Each replicate derives its own seed,
	// so a run is reproducible
	// for any number of processors.
	Seed uint64

	// Observer,
	// if defined,
	// is called after each finished replicate
	// with the replicate index
	// and its error
	// (nil on success).
	Observer func(rep int, err error)
}

// FromParam returns the run parameters
// stored in a calibration file.
func FromParam(cp *calparam.CP, src rand.Source) (Params, error) {
	p, err := cp.Prior(src)
	if err != nil {
		return Params{}, fmt.Errorf("on file %q: %v", cp.Name(), err)
	}
	a, err := ParseAscertainment(cp.Ascertainment())
	if err != nil {
		return Params{}, fmt.Errorf("on file %q: %v", cp.Name(), err)
	}

	return Params{
		Sample:        cp.Sample(),
		Theta:         cp.Theta(),
		Loci:          cp.Loci(),
		SeqLen:        cp.SeqLen(),
		Kappa:         cp.Kappa(),
		Replicates:    cp.Replicates(),
		Ascertainment: a,
		Retries:       cp.Retries(),
		Prior:         p,
		Options: mcmc.Options{
			Steps:  cp.Steps(),
			BurnIn: cp.BurnIn(),
			Thin:   cp.Thin(),
		},
		FailFast: cp.FailFast(),
	}, nil
}

func (p Params) validate() error {
	if p.Sample < 2 {
		return fmt.Errorf("%w: sample of %d", esf.ErrInvalidParam, p.Sample)
	}
	if p.Theta <= 0 {
		return fmt.Errorf("%w: theta %.6g", esf.ErrInvalidParam, p.Theta)
	}
	if p.Loci < 1 {
		return fmt.Errorf("%w: %d loci", esf.ErrInvalidParam, p.Loci)
	}
	if p.Replicates < 1 {
		return fmt.Errorf("%w: %d replicates", esf.ErrInvalidParam, p.Replicates)
	}
	if p.SeqLen > 0 && p.Kappa <= 0 {
		return fmt.Errorf("%w: kappa %.6g", esf.ErrInvalidParam, p.Kappa)
	}
	if p.Prior == nil {
		return fmt.Errorf("%w: undefined theta prior", esf.ErrInvalidParam)
	}
	return nil
}

// An Estimate is the output of an estimator
// on a single replicate.
type Estimate struct {
	// Name of the estimator.
	Name string

	// Point estimate of the mutation rate.
	Point float64

	// Bounds of the 95% credible interval.
	Lo, Hi float64

	// Interval is true if Lo and Hi are defined.
	Interval bool
}

// A Fail is an estimator failure on a single replicate.
type Fail struct {
	// Name of the estimator.
	Name string

	// Err is the reported error.
	Err error
}

// A Record is the output of a single replicate.
type Record struct {
	// Replicate index.
	Replicate int

	// Spectra is the simulated allele frequency spectrum
	// of each locus.
	Spectra spectrum.Multi

	// Sites is the number of segregating sites
	// of each locus.
	Sites []int

	// Retries is the number of discarded simulations
	// over all loci.
	Retries int

	// Estimates of each successful estimator.
	Estimates []Estimate

	// Fails of each failed estimator.
	Fails []Fail
}

// Replicate simulates a single replicate
// and runs every estimator on it.
// A non nil error means that the replicate
// produced no usable data;
// estimator failures are reported
// in the record itself.
func Replicate(p Params, rep int, r *rand.Rand) (*Record, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	rec := &Record{
		Replicate: rep,
		Spectra:   make(spectrum.Multi, 0, p.Loci),
		Sites:     make([]int, 0, p.Loci),
	}
	divSum := 0.0
	for l := 0; l < p.Loci; l++ {
		a, s, div, retries, err := p.simLocus(r)
		if err != nil {
			return nil, fmt.Errorf("replicate %d: locus %d: %w", rep, l, err)
		}
		rec.Spectra = append(rec.Spectra, a)
		rec.Sites = append(rec.Sites, s)
		rec.Retries += retries
		divSum += div
	}

	sum := 0
	for _, s := range rec.Sites {
		sum += s
	}
	if w, err := estimator.Watterson(sum, p.Sample); err != nil {
		rec.Fails = append(rec.Fails, Fail{NameWatterson, err})
	} else {
		rec.Estimates = append(rec.Estimates, Estimate{Name: NameWatterson, Point: w / float64(p.Loci)})
	}

	if p.SeqLen > 0 {
		rec.Estimates = append(rec.Estimates, Estimate{Name: NameDiversity, Point: divSum / float64(p.Loci)})
	}

	rec.bayes(p, r)
	rec.tavare(p, r)

	return rec, nil
}

// SimLocus simulates a locus
// honoring the ascertainment condition.
// It returns the allele spectrum,
// the number of segregating sites,
// the mean pairwise difference
// (zero on the infinite alleles model),
// and the number of discarded simulations.
func (p Params) simLocus(r *rand.Rand) (a spectrum.Spectrum, s int, div float64, retries int, err error) {
	for {
		if p.Retries > 0 && retries >= p.Retries {
			return nil, 0, 0, retries, fmt.Errorf("%w: %d retries [theta %.6g, sample %d, %s]", ErrRetryExceeded, retries, p.Theta, p.Sample, p.Ascertainment)
		}

		g, err := simulate.NewGenealogy(p.Sample, r)
		if err != nil {
			return nil, 0, 0, retries, err
		}

		if p.SeqLen == 0 {
			a, s, err = g.Alleles(p.Theta, r)
			if err != nil {
				return nil, 0, 0, retries, err
			}
		} else {
			a, s, div, err = p.seqLocus(g, r)
			if err != nil {
				return nil, 0, 0, retries, err
			}
		}

		switch p.Ascertainment {
		case None:
			return a, s, div, retries, nil
		case Polymorphic:
			if !a.IsMonomorphic() {
				return a, s, div, retries, nil
			}
		case SingleSite:
			if s == 1 {
				return a, s, div, retries, nil
			}
		}
		retries++
	}
}

// SeqLocus simulates a sequence alignment on a genealogy,
// handing the sequences through a worker private scratch file,
// and scans it for the spectrum,
// the segregating sites,
// and the mean pairwise difference.
func (p Params) seqLocus(g *simulate.Genealogy, r *rand.Rand) (spectrum.Spectrum, int, float64, error) {
	seqs, err := simulate.Sequences(g, p.SeqLen, p.Theta, p.Kappa, r)
	if err != nil {
		return nil, 0, 0, err
	}
	name, err := simulate.WriteScratch(seqs)
	if err != nil {
		return nil, 0, 0, err
	}
	defer os.Remove(name)

	seqs, err = simulate.ReadScratchFile(name)
	if err != nil {
		return nil, 0, 0, err
	}
	a, err := spectrum.FromAlignment(seqs)
	if err != nil {
		return nil, 0, 0, err
	}
	s, err := spectrum.SegregatingSites(seqs)
	if err != nil {
		return nil, 0, 0, err
	}
	div, err := estimator.PairwiseDiversity(seqs)
	if err != nil {
		return nil, 0, 0, err
	}
	return a, s, div, nil
}

func (rec *Record) bayes(p Params, r *rand.Rand) {
	model := posterior.Unconditional
	if p.Loci > 1 {
		model = posterior.Multilocus
	}
	rec.runPosterior(p, NameBayes, posterior.Spec{
		Model:   model,
		Spectra: rec.Spectra,
		Theta:   p.Prior,
		Options: p.Options,
	}, r)

	// the conditioned form corrects the ascertainment
	// of the sampling process
	if p.Ascertainment == None {
		return
	}
	model = posterior.Conditional
	if p.Loci > 1 {
		model = posterior.MultilocusCond
	}
	rec.runPosterior(p, NameBayesCond, posterior.Spec{
		Model:   model,
		Spectra: rec.Spectra,
		Theta:   p.Prior,
		Options: p.Options,
	}, r)
}

func (rec *Record) tavare(p Params, r *rand.Rand) {
	rec.runPosterior(p, NameTavare, posterior.Spec{
		Model:      posterior.Tavare,
		Sites:      rec.Sites,
		SampleSize: p.Sample,
		Theta:      p.Prior,
		Options:    p.Options,
	}, r)
}

func (rec *Record) runPosterior(p Params, name string, s posterior.Spec, r *rand.Rand) {
	post, err := posterior.Run(s, r)
	if err != nil {
		rec.Fails = append(rec.Fails, Fail{name, err})
		return
	}
	if post.Unstable > 0 {
		err := fmt.Errorf("%w: %d unstable evaluations [theta %.6g, sample %d]", esf.ErrInstability, post.Unstable, p.Theta, p.Sample)
		rec.Fails = append(rec.Fails, Fail{name, err})
		return
	}
	e, err := post.Estimate()
	if err != nil {
		rec.Fails = append(rec.Fails, Fail{name, err})
		return
	}
	rec.Estimates = append(rec.Estimates, Estimate{
		Name:     name,
		Point:    e.Mean,
		Lo:       e.Lo,
		Hi:       e.Hi,
		Interval: true,
	})
}

// An Aggregate is the summary of an estimator
// over all successful replicates.
type Aggregate struct {
	// Name of the estimator.
	Name string

	// Mean and standard deviation of the point estimates.
	Mean   float64
	StdDev float64

	// Bias is the mean estimate
	// minus the simulated mutation rate.
	Bias float64

	// RMSE is the root mean square error
	// of the point estimates.
	RMSE float64

	// Coverage is the fraction of credible intervals
	// that contain the simulated mutation rate
	// (NaN for estimators without intervals).
	Coverage float64

	// Replicates is the number of replicates
	// with a successful estimate.
	Replicates int

	// Failed is the number of replicates
	// in which the estimator failed.
	Failed int
}

// A Result is the output of a calibration run.
type Result struct {
	// Estimators is the aggregate of each estimator,
	// sorted by name.
	Estimators []Aggregate

	// Failures is the number of failed replicates
	// by error category.
	Failures map[string]int

	// Failed is the total number of failed replicates.
	Failed int

	// Records of each successful replicate,
	// sorted by replicate index;
	// only retained if requested.
	Records []*Record
}

type answer struct {
	rep int
	rec *Record
	err error
}

// Run simulates the replicates of a calibration run
// in parallel
// and aggregates the results.
// If fail-fast is not set,
// failed replicates are counted by category
// and excluded from the aggregates;
// otherwise the first failure,
// of a replicate or of any of its estimators,
// aborts the run.
func Run(p Params) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	cpu := p.CPU
	if cpu <= 0 {
		cpu = runtime.GOMAXPROCS(0)
	}

	jobs := make(chan int, cpu*2)
	ans := make(chan answer, p.Replicates)
	for i := 0; i < cpu; i++ {
		go func() {
			for rep := range jobs {
				r := rand.New(rand.NewSource(p.Seed + uint64(rep) + 1))
				rec, err := Replicate(p, rep, r)
				ans <- answer{rep: rep, rec: rec, err: err}
			}
		}()
	}
	go func() {
		for rep := 0; rep < p.Replicates; rep++ {
			jobs <- rep
		}
		close(jobs)
	}()

	res := &Result{
		Failures: make(map[string]int),
	}
	var recs []*Record
	for i := 0; i < p.Replicates; i++ {
		a := <-ans
		if p.Observer != nil {
			p.Observer(a.rep, a.err)
		}
		if a.err != nil {
			if p.FailFast {
				return nil, a.err
			}
			res.Failures[category(a.err)]++
			res.Failed++
			continue
		}
		if p.FailFast && len(a.rec.Fails) > 0 {
			f := a.rec.Fails[0]
			return nil, fmt.Errorf("replicate %d: estimator %s: %w", a.rec.Replicate, f.Name, f.Err)
		}
		recs = append(recs, a.rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Replicate < recs[j].Replicate })

	res.aggregate(p, recs)
	if p.KeepRecords {
		res.Records = recs
	}
	return res, nil
}

func (res *Result) aggregate(p Params, recs []*Record) {
	points := make(map[string][]float64)
	cover := make(map[string][2]int)
	failed := make(map[string]int)
	for _, rec := range recs {
		for _, e := range rec.Estimates {
			points[e.Name] = append(points[e.Name], e.Point)
			if !e.Interval {
				continue
			}
			c := cover[e.Name]
			c[1]++
			if e.Lo <= p.Theta && p.Theta <= e.Hi {
				c[0]++
			}
			cover[e.Name] = c
		}
		for _, f := range rec.Fails {
			failed[f.Name]++
		}
	}

	names := make([]string, 0, len(points))
	for nm := range points {
		names = append(names, nm)
	}
	for nm := range failed {
		if _, ok := points[nm]; !ok {
			names = append(names, nm)
		}
	}
	sort.Strings(names)

	for _, nm := range names {
		xs := points[nm]
		ag := Aggregate{
			Name:       nm,
			Coverage:   math.NaN(),
			Replicates: len(xs),
			Failed:     failed[nm],
		}
		if len(xs) > 0 {
			ag.Mean = stat.Mean(xs, nil)
			ag.Bias = ag.Mean - p.Theta
			sq := 0.0
			for _, x := range xs {
				d := x - p.Theta
				sq += d * d
			}
			ag.RMSE = math.Sqrt(sq / float64(len(xs)))
		}
		if len(xs) > 1 {
			ag.StdDev = stat.StdDev(xs, nil)
		}
		if c := cover[nm]; c[1] > 0 {
			ag.Coverage = float64(c[0]) / float64(c[1])
		}
		res.Estimators = append(res.Estimators, ag)
	}
}

// Category returns the reporting category of an error.
func category(err error) string {
	switch {
	case errors.Is(err, ErrRetryExceeded):
		return "ascertainment-retry-exceeded"
	case errors.Is(err, posterior.ErrUnavailable):
		return "posterior-unavailable"
	case errors.Is(err, esf.ErrInstability):
		return "numerical-instability"
	case errors.Is(err, esf.ErrInvalidParam):
		return "invalid-parameter"
	case errors.Is(err, spectrum.ErrMalformed):
		return "malformed-spectrum"
	case errors.Is(err, estimator.ErrSampleSize):
		return "insufficient-sample-size"
	}
	return "other"
}
