// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package esf_test

import (
	"errors"
	"math"
	"testing"

	"github.com/js-arias/ewens/esf"
)

// directTavare evaluates the alternating sum
// in linear space,
// usable as a reference for small samples.
func directTavare(s, n int, theta float64) float64 {
	sum := 0.0
	for j := 1; j < n; j++ {
		c := 1.0
		for i := 0; i < j-1; i++ {
			c *= float64(n-2-i) / float64(i+1)
		}
		term := c * math.Pow(theta/(theta+float64(j)), float64(s+1))
		if j%2 == 0 {
			term = -term
		}
		sum += term
	}
	return math.Log(float64(n-1) / theta * sum)
}

func TestTavarePair(t *testing.T) {
	// n=2: the number of segregating sites is geometric,
	// P(S=s) = (1/(1+theta)) (theta/(1+theta))^s
	theta := 1.3
	for s := 0; s <= 10; s++ {
		got, err := esf.TavareLogProb(s, 2, theta)
		if err != nil {
			t.Fatalf("sites %d: unexpected error: %v", s, err)
		}
		want := math.Log(1/(1+theta)) + float64(s)*math.Log(theta/(1+theta))
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("sites %d: got %.12f, want %.12f", s, got, want)
		}
	}
}

func TestTavareDirect(t *testing.T) {
	thetas := []float64{0.1, 1, 10}
	for _, n := range []int{3, 5, 10, 25, 40} {
		for _, theta := range thetas {
			for _, s := range []int{0, 1, 2, 5, 20} {
				got, err := esf.TavareLogProb(s, n, theta)
				if errors.Is(err, esf.ErrInstability) {
					// a genuinely cancelled corner
					// (tiny probability in a large sample);
					// the evaluator must refuse it,
					// not report garbage
					continue
				}
				if err != nil {
					t.Fatalf("sites %d, sample %d, theta %.1f: unexpected error: %v", s, n, theta, err)
				}
				want := directTavare(s, n, theta)
				if math.Abs(got-want) > 1e-6*math.Abs(want)+1e-9 {
					t.Errorf("sites %d, sample %d, theta %.1f: got %.9f, want %.9f", s, n, theta, got, want)
				}
			}
		}
	}
}

func TestTavareLargeSample(t *testing.T) {
	// beyond the documented range the evaluator must fail,
	// never return a non finite or silently wrong value
	_, err := esf.TavareLogProb(1, 250, 0.1)
	if !errors.Is(err, esf.ErrInstability) {
		t.Errorf("sample of 250: got error %v, want %v", err, esf.ErrInstability)
	}
}

func TestTavareNormalization(t *testing.T) {
	for _, n := range []int{2, 5, 10} {
		theta := 0.5
		sum := 0.0
		for s := 0; s < 400; s++ {
			lp, err := esf.TavareLogProb(s, n, theta)
			if err != nil {
				t.Fatalf("sites %d, sample %d: unexpected error: %v", s, n, err)
			}
			sum += math.Exp(lp)
		}
		if math.Abs(sum-1) > 1e-8 {
			t.Errorf("sample %d: probabilities sum to %.12f, want 1", n, sum)
		}
	}
}

func TestTavareInvalid(t *testing.T) {
	if _, err := esf.TavareLogProb(1, 2, 0); !errors.Is(err, esf.ErrInvalidParam) {
		t.Errorf("theta 0: got error %v, want %v", err, esf.ErrInvalidParam)
	}
	if _, err := esf.TavareLogProb(1, 1, 1); !errors.Is(err, esf.ErrInvalidParam) {
		t.Errorf("sample of 1: got error %v, want %v", err, esf.ErrInvalidParam)
	}
	if _, err := esf.TavareLogProb(-1, 5, 1); !errors.Is(err, esf.ErrInvalidParam) {
		t.Errorf("negative sites: got error %v, want %v", err, esf.ErrInvalidParam)
	}
}
