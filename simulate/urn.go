// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package simulate

import (
	"fmt"

	"github.com/js-arias/ewens/esf"
	"github.com/js-arias/ewens/spectrum"
	"golang.org/x/exp/rand"
)

// Urn draws an allele frequency spectrum
// of a sample of n gene copies
// from the Ewens sampling distribution,
// using Hoppe's urn:
// the i-th copy founds a new allelic type
// with probability theta/(theta+i-1),
// or repeats the type of one of the previous copies
// picked uniformly at random.
func Urn(n int, theta float64, r *rand.Rand) (spectrum.Spectrum, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: sample of %d gene copies", esf.ErrInvalidParam, n)
	}
	if theta <= 0 {
		return nil, fmt.Errorf("%w: theta %.6g", esf.ErrInvalidParam, theta)
	}

	var classes []int
	for i := 0; i < n; i++ {
		if r.Float64() < theta/(theta+float64(i)) {
			classes = append(classes, 1)
			continue
		}

		// repeat the type of a random previous copy
		m := r.Intn(i)
		for j, c := range classes {
			if m < c {
				classes[j]++
				break
			}
			m -= c
		}
	}
	return spectrum.FromCounts(classes)
}
