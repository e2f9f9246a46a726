// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package simulate

import (
	"fmt"

	"github.com/js-arias/ewens/esf"
	"golang.org/x/exp/rand"
)

var bases = []byte("ACGT")

// transition maps each base to its transition partner.
var transition = map[byte]byte{
	'A': 'G',
	'G': 'A',
	'C': 'T',
	'T': 'C',
}

// transversions maps each base to its transversion partners.
var transversions = map[byte][2]byte{
	'A': {'C', 'T'},
	'G': {'C', 'T'},
	'C': {'A', 'G'},
	'T': {'A', 'G'},
}

// Sequences evolves aligned nucleotide sequences
// of the given length on a genealogy.
// The number of substitutions on a branch
// is Poisson at rate theta/2 per unit of branch length,
// each substitution falls on a uniform random site,
// and the new base is a transition
// with probability kappa/(kappa+2),
// or one of the two transversions otherwise
// (kappa is the transition to transversion rate ratio
// of a Kimura model).
// The returned sequences are in tip order.
func Sequences(g *Genealogy, length int, theta, kappa float64, r *rand.Rand) ([]string, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: sequence length %d", esf.ErrInvalidParam, length)
	}
	if kappa <= 0 {
		return nil, fmt.Errorf("%w: kappa %.6g", esf.ErrInvalidParam, kappa)
	}
	muts, _, err := g.branchMutations(theta, r)
	if err != nil {
		return nil, err
	}

	root := make([]byte, length)
	for i := range root {
		root[i] = bases[r.Intn(4)]
	}

	seqs := make([]string, g.n)
	ts := kappa / (kappa + 2)
	var walk func(v int, seq []byte)
	walk = func(v int, seq []byte) {
		s := make([]byte, length)
		copy(s, seq)
		for m := 0; m < muts[v]; m++ {
			site := r.Intn(length)
			if r.Float64() < ts {
				s[site] = transition[s[site]]
				continue
			}
			tv := transversions[s[site]]
			s[site] = tv[r.Intn(2)]
		}

		nd := g.nodes[v]
		if nd.left < 0 {
			seqs[v] = string(s)
			return
		}
		walk(nd.left, s)
		walk(nd.right, s)
	}
	walk(g.root, root)

	return seqs, nil
}
