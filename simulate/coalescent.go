// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package simulate implements neutral coalescent simulations
// of allele configurations:
// gene genealogies,
// mutations under the infinite alleles
// and infinite sites models,
// and finite sequences evolved on a genealogy.
package simulate

import (
	"fmt"

	"github.com/js-arias/ewens/esf"
	"github.com/js-arias/ewens/estimator"
	"github.com/js-arias/ewens/spectrum"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// A node is a node of a genealogy.
// Terminal nodes have age 0
// and no children.
type node struct {
	parent      int
	left, right int
	age         float64
}

// A Genealogy is a coalescent gene genealogy
// of a sample of gene copies.
// Ages are in coalescent time units
// (2N generations for a diploid population),
// so a branch of length t
// receives mutations at rate theta/2 per unit time.
type Genealogy struct {
	n     int
	nodes []node
	root  int
}

// NewGenealogy simulates the genealogy
// of a sample of n gene copies,
// merging random pairs of lineages
// with exponential waiting times
// of rate k(k-1)/2 while k lineages remain.
func NewGenealogy(n int, r *rand.Rand) (*Genealogy, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: sample of %d gene copies", esf.ErrInvalidParam, n)
	}

	g := &Genealogy{
		n:     n,
		nodes: make([]node, n, 2*n-1),
	}
	for i := range g.nodes {
		g.nodes[i] = node{parent: -1, left: -1, right: -1}
	}

	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	age := 0.0
	for k := n; k > 1; k-- {
		rate := float64(k*(k-1)) / 2
		age += r.ExpFloat64() / rate

		i := r.Intn(len(active))
		l := active[i]
		active[i] = active[len(active)-1]
		active = active[:len(active)-1]
		i = r.Intn(len(active))
		rg := active[i]

		p := len(g.nodes)
		g.nodes = append(g.nodes, node{
			parent: -1,
			left:   l,
			right:  rg,
			age:    age,
		})
		g.nodes[l].parent = p
		g.nodes[rg].parent = p
		active[i] = p
	}
	g.root = len(g.nodes) - 1
	return g, nil
}

// SampleSize returns the number of gene copies
// at the tips of the genealogy.
func (g *Genealogy) SampleSize() int {
	return g.n
}

// TMRCA returns the age of the root,
// the time to the most recent common ancestor
// of the sample.
func (g *Genealogy) TMRCA() float64 {
	return g.nodes[g.root].age
}

// TotalLength returns the sum of all branch lengths.
func (g *Genealogy) TotalLength() float64 {
	sum := 0.0
	for i, nd := range g.nodes {
		if i == g.root {
			continue
		}
		sum += g.nodes[nd.parent].age - nd.age
	}
	return sum
}

// branchMutations drops a Poisson number of mutations
// on every branch,
// at rate theta/2 per unit of branch length,
// and returns the per node count
// (mutations on the branch above each node)
// and the total.
func (g *Genealogy) branchMutations(theta float64, r *rand.Rand) ([]int, int, error) {
	if theta <= 0 {
		return nil, 0, fmt.Errorf("%w: theta %.6g", esf.ErrInvalidParam, theta)
	}

	muts := make([]int, len(g.nodes))
	total := 0
	for i, nd := range g.nodes {
		if i == g.root {
			continue
		}
		l := g.nodes[nd.parent].age - nd.age
		if l <= 0 {
			continue
		}
		p := distuv.Poisson{Lambda: theta * l / 2, Src: r}
		m := int(p.Rand())
		muts[i] = m
		total += m
	}
	return muts, total, nil
}

// SegregatingSites returns the number of segregating sites
// of the sample under the infinite sites model:
// a Poisson draw on the total branch length
// at rate theta/2.
func (g *Genealogy) SegregatingSites(theta float64, r *rand.Rand) (int, error) {
	_, s, err := g.branchMutations(theta, r)
	return s, err
}

// Alleles drops infinite alleles mutations on the genealogy
// and returns the resulting allele frequency spectrum
// together with the number of mutations,
// which is also the number of segregating sites
// under the infinite sites model
// for the same mutation history.
// Two gene copies carry the same allelic type
// when no mutation falls on the path between them.
func (g *Genealogy) Alleles(theta float64, r *rand.Rand) (spectrum.Spectrum, int, error) {
	muts, total, err := g.branchMutations(theta, r)
	if err != nil {
		return nil, 0, err
	}

	// assign allelic types from the root down:
	// a mutated branch starts a new type
	ids := make([]int, len(g.nodes))
	next := 1
	var walk func(v, id int)
	walk = func(v, id int) {
		if muts[v] > 0 {
			id = next
			next++
		}
		ids[v] = id
		nd := g.nodes[v]
		if nd.left < 0 {
			return
		}
		walk(nd.left, id)
		walk(nd.right, id)
	}
	walk(g.root, 0)

	count := make(map[int]int, g.n)
	for i := 0; i < g.n; i++ {
		count[ids[i]]++
	}
	classes := make([]int, 0, len(count))
	for _, c := range count {
		classes = append(classes, c)
	}
	a, err := spectrum.FromCounts(classes)
	if err != nil {
		return nil, 0, err
	}
	return a, total, nil
}

// ExpectedLength returns the expectation
// of the total length of a genealogy
// of a sample of n gene copies,
// twice the harmonic number of n-1.
func ExpectedLength(n int) float64 {
	return 2 * estimator.Harmonic(n-1)
}
