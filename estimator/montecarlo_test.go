// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package estimator_test

import (
	"math"
	"testing"

	"github.com/js-arias/ewens/estimator"
	"github.com/js-arias/ewens/simulate"
	"golang.org/x/exp/rand"
)

func TestWattersonUnbiased(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	n := 250
	theta := 0.1
	reps := 1000

	sum := 0.0
	sq := 0.0
	for i := 0; i < reps; i++ {
		g, err := simulate.NewGenealogy(n, r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s, err := g.SegregatingSites(theta, r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		w, err := estimator.Watterson(s, n)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sum += w
		sq += w * w
	}
	got := sum / float64(reps)
	sd := math.Sqrt(sq/float64(reps) - got*got)

	tol := 3 * sd / math.Sqrt(float64(reps))
	if math.Abs(got-theta) > tol {
		t.Errorf("mean estimate: got %.4f, want %.4f [tol = %.4f]", got, theta, tol)
	}
}
