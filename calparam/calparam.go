// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package calparam implements reading and writing
// of the parameters for a calibration run.
package calparam

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/js-arias/ewens/prior"
	"golang.org/x/exp/rand"
)

// Param is a keyword to identify
// the type of parameter in a calibration file.
type Param string

// Valid parameters
const (
	// Ascertainment is the sampling condition
	// imposed on each simulated replicate.
	Ascertainment Param = "ascertainment"

	// BurnIn is the number of chain steps
	// discarded before sampling the posterior.
	BurnIn Param = "burnin"

	// FailFast indicates if the run should stop
	// at the first failed replicate.
	FailFast Param = "failfast"

	// Hyper1 is the first hyper-parameter of the prior
	// (shape for gamma, mu for lognormal).
	Hyper1 Param = "hyper1"

	// Hyper2 is the second hyper-parameter of the prior
	// (rate for gamma, sigma for lognormal).
	Hyper2 Param = "hyper2"

	// Kappa is the transition-transversion ratio
	// used when simulating sequences.
	Kappa Param = "kappa"

	// Loci is the number of independent loci per replicate.
	Loci Param = "loci"

	// Prior is the prior family for the mutation rate.
	Prior Param = "prior"

	// Replicates is the number of simulated replicates.
	Replicates Param = "replicates"

	// Retries is the maximum number of re-simulations
	// allowed to satisfy ascertainment
	// (zero means no limit).
	Retries Param = "retries"

	// Sample is the number of sequences per replicate.
	Sample Param = "sample"

	// SeqLen is the length of the simulated sequences
	// (zero uses the infinite alleles model).
	SeqLen Param = "seqlen"

	// Steps is the number of chain steps
	// used when sampling the posterior.
	Steps Param = "steps"

	// Theta is the population mutation rate
	// used for the simulations.
	Theta Param = "theta"

	// Thin is the number of chain steps
	// between stored posterior samples.
	Thin Param = "thin"
)

// CP represents a collection of calibration parameters.
type CP struct {
	name string // file name

	// simulation
	sample  int
	loci    int
	seqLen  int
	theta   float64
	kappa   float64
	reps    int
	asc     string
	retries int
	ff      bool

	// prior
	prior string
	h1    float64
	h2    float64

	// chain
	steps  int
	burnIn int
	thin   int
}

// New creates a new parameter collection.
func New(name string) *CP {
	return &CP{
		name:    name,
		sample:  20,
		loci:    1,
		theta:   1,
		kappa:   2,
		reps:    100,
		asc:     "none",
		retries: 1000,
		prior:   "gamma",
		h1:      1,
		h2:      1,
		steps:   20000,
		burnIn:  5000,
		thin:    10,
	}
}

var header = []string{
	"parameter",
	"value",
}

// Read reads a calibration file from a TSV file.
//
// The TSV must contains the following fields:
//
//   - parameter, the name of the parameter
//   - value, the value of the parameter
//
// Here is an example file:
//
//	# ewens calibration parameters
//	parameter	value
//	sample	20
//	theta	1.000000
//	replicates	100
//	prior	gamma
func Read(name string) (*CP, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tsv := csv.NewReader(f)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("on file %q: header: %v", name, err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(h)
		fields[h] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("on file %q: expecting field %q", name, h)
		}
	}

	cp := New(name)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on file %q: on row %d: %v", name, ln, err)
		}

		f := "parameter"
		p := Param(strings.ToLower(row[fields[f]]))

		f = "value"
		v := row[fields[f]]
		switch p {
		case Ascertainment:
			if err := cp.SetAscertainment(v); err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
		case BurnIn:
			b, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			if err := cp.SetBurnIn(b); err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
		case FailFast:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			cp.SetFailFast(b)
		case Hyper1:
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			cp.h1 = x
		case Hyper2:
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			cp.h2 = x
		case Kappa:
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			if err := cp.SetKappa(x); err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
		case Loci:
			l, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			if err := cp.SetLoci(l); err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
		case Prior:
			if err := cp.SetPrior(v); err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
		case Replicates:
			r, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			if err := cp.SetReplicates(r); err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
		case Retries:
			r, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			if err := cp.SetRetries(r); err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
		case Sample:
			s, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			if err := cp.SetSample(s); err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
		case SeqLen:
			s, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			if err := cp.SetSeqLen(s); err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
		case Steps:
			s, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			if err := cp.SetSteps(s); err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
		case Theta:
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			if err := cp.SetTheta(x); err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
		case Thin:
			th, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			if err := cp.SetThin(th); err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
		}
	}
	return cp, nil
}

// Ascertainment returns the sampling condition
// imposed on each simulated replicate.
func (cp *CP) Ascertainment() string {
	return cp.asc
}

// BurnIn returns the number of chain steps
// discarded before sampling the posterior.
func (cp *CP) BurnIn() int {
	return cp.burnIn
}

// FailFast returns true if the run should stop
// at the first failed replicate.
func (cp *CP) FailFast() bool {
	return cp.ff
}

// Hyper returns the two hyper-parameters of the prior.
func (cp *CP) Hyper() (float64, float64) {
	return cp.h1, cp.h2
}

// Kappa returns the transition-transversion ratio
// used when simulating sequences.
func (cp *CP) Kappa() float64 {
	return cp.kappa
}

// Loci returns the number of independent loci per replicate.
func (cp *CP) Loci() int {
	return cp.loci
}

// Name returns the name used for a set of parameters
// of a calibration run.
func (cp *CP) Name() string {
	return cp.name
}

// Prior returns the prior distribution of the mutation rate
// using the indicated family and hyper-parameters.
func (cp *CP) Prior(src rand.Source) (prior.Prior, error) {
	return prior.Parse(cp.prior, cp.h1, cp.h2, src)
}

// PriorFamily returns the name of the prior family.
func (cp *CP) PriorFamily() string {
	return cp.prior
}

// Replicates returns the number of simulated replicates.
func (cp *CP) Replicates() int {
	return cp.reps
}

// Retries returns the maximum number of re-simulations
// allowed to satisfy ascertainment.
func (cp *CP) Retries() int {
	return cp.retries
}

// Sample returns the number of sequences per replicate.
func (cp *CP) Sample() int {
	return cp.sample
}

// SeqLen returns the length of the simulated sequences.
func (cp *CP) SeqLen() int {
	return cp.seqLen
}

// Steps returns the number of chain steps
// used when sampling the posterior.
func (cp *CP) Steps() int {
	return cp.steps
}

// Theta returns the population mutation rate
// used for the simulations.
func (cp *CP) Theta() float64 {
	return cp.theta
}

// Thin returns the number of chain steps
// between stored posterior samples.
func (cp *CP) Thin() int {
	return cp.thin
}

// SetAscertainment sets the sampling condition
// imposed on each simulated replicate.
func (cp *CP) SetAscertainment(a string) error {
	a = strings.ToLower(strings.TrimSpace(a))
	switch a {
	case "none":
	case "polymorphic":
	case "single-site":
	default:
		return fmt.Errorf("unknown ascertainment %q", a)
	}
	cp.asc = a
	return nil
}

// SetBurnIn sets the number of chain steps
// discarded before sampling the posterior.
func (cp *CP) SetBurnIn(b int) error {
	if b < 0 {
		return fmt.Errorf("invalid burn-in value: %d", b)
	}
	cp.burnIn = b
	return nil
}

// SetFailFast sets the behavior of the run
// when a replicate fails.
func (cp *CP) SetFailFast(ff bool) {
	cp.ff = ff
}

// SetHyper sets the two hyper-parameters of the prior.
func (cp *CP) SetHyper(h1, h2 float64) {
	cp.h1 = h1
	cp.h2 = h2
}

// SetKappa sets the transition-transversion ratio
// used when simulating sequences.
func (cp *CP) SetKappa(k float64) error {
	if k <= 0 {
		return fmt.Errorf("invalid kappa value: %.6f", k)
	}
	cp.kappa = k
	return nil
}

// SetLoci sets the number of independent loci per replicate.
func (cp *CP) SetLoci(l int) error {
	if l < 1 {
		return fmt.Errorf("invalid loci value: %d", l)
	}
	cp.loci = l
	return nil
}

// SetName sets the name of a parameter collection.
func (cp *CP) SetName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	cp.name = name
}

// SetPrior sets the prior family for the mutation rate.
func (cp *CP) SetPrior(p string) error {
	p = strings.ToLower(strings.TrimSpace(p))
	switch p {
	case "gamma":
	case "lognormal":
	default:
		return fmt.Errorf("unknown prior %q", p)
	}
	cp.prior = p
	return nil
}

// SetReplicates sets the number of simulated replicates.
func (cp *CP) SetReplicates(r int) error {
	if r < 1 {
		return fmt.Errorf("invalid replicates value: %d", r)
	}
	cp.reps = r
	return nil
}

// SetRetries sets the maximum number of re-simulations
// allowed to satisfy ascertainment.
// A zero value removes the limit.
func (cp *CP) SetRetries(r int) error {
	if r < 0 {
		return fmt.Errorf("invalid retries value: %d", r)
	}
	cp.retries = r
	return nil
}

// SetSample sets the number of sequences per replicate.
func (cp *CP) SetSample(s int) error {
	if s < 2 {
		return fmt.Errorf("invalid sample value: %d", s)
	}
	cp.sample = s
	return nil
}

// SetSeqLen sets the length of the simulated sequences.
// A zero value uses the infinite alleles model.
func (cp *CP) SetSeqLen(s int) error {
	if s < 0 {
		return fmt.Errorf("invalid sequence length: %d", s)
	}
	cp.seqLen = s
	return nil
}

// SetSteps sets the number of chain steps
// used when sampling the posterior.
func (cp *CP) SetSteps(s int) error {
	if s < 1 {
		return fmt.Errorf("invalid steps value: %d", s)
	}
	cp.steps = s
	return nil
}

// SetTheta sets the population mutation rate
// used for the simulations.
func (cp *CP) SetTheta(x float64) error {
	if x <= 0 {
		return fmt.Errorf("invalid theta value: %.6f", x)
	}
	cp.theta = x
	return nil
}

// SetThin sets the number of chain steps
// between stored posterior samples.
func (cp *CP) SetThin(t int) error {
	if t < 1 {
		return fmt.Errorf("invalid thin value: %d", t)
	}
	cp.thin = t
	return nil
}

// Write writes a parameter collection into a file.
func (cp *CP) Write() (err error) {
	f, err := os.Create(cp.name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "# ewens calibration parameters\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("on file %q: while writing header: %v", cp.name, err)
	}

	rows := [][]string{
		{string(Sample), strconv.Itoa(cp.sample)},
		{string(Loci), strconv.Itoa(cp.loci)},
		{string(SeqLen), strconv.Itoa(cp.seqLen)},
		{string(Theta), strconv.FormatFloat(cp.theta, 'f', 6, 64)},
		{string(Kappa), strconv.FormatFloat(cp.kappa, 'f', 6, 64)},
		{string(Replicates), strconv.Itoa(cp.reps)},
		{string(Ascertainment), cp.asc},
		{string(Retries), strconv.Itoa(cp.retries)},
		{string(FailFast), strconv.FormatBool(cp.ff)},
		{string(Prior), cp.prior},
		{string(Hyper1), strconv.FormatFloat(cp.h1, 'f', 6, 64)},
		{string(Hyper2), strconv.FormatFloat(cp.h2, 'f', 6, 64)},
		{string(Steps), strconv.Itoa(cp.steps)},
		{string(BurnIn), strconv.Itoa(cp.burnIn)},
		{string(Thin), strconv.Itoa(cp.thin)},
	}
	for _, row := range rows {
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("on file %q: %v", cp.name, err)
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", cp.name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", cp.name, err)
	}
	return nil
}
