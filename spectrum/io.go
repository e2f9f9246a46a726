// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package spectrum

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var header = []string{
	"locus",
	"class",
	"count",
}

// ReadTSV reads a collection of spectra from a TSV file.
//
// The TSV must contain the following fields:
//
//   - locus, an identifier of the locus
//   - class, a multiplicity class (the number of copies of a type)
//   - count, the number of allelic types in the class
//
// Only the non-zero entries of a spectrum are stored.
// Here is an example file:
//
//	# allele frequency spectra
//	locus	class	count
//	0	1	3
//	0	2	1
//	1	5	1
func ReadTSV(r io.Reader) (Multi, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(h)
		fields[h] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	classes := make(map[string]map[int]int)
	var loci []string
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "locus"
		loc := row[fields[f]]
		if _, ok := classes[loc]; !ok {
			classes[loc] = make(map[int]int)
			loci = append(loci, loc)
		}

		f = "class"
		k, err := strconv.Atoi(row[fields[f]])
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		if k < 1 {
			return nil, fmt.Errorf("on row %d: field %q: invalid class %d", ln, f, k)
		}

		f = "count"
		c, err := strconv.Atoi(row[fields[f]])
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		classes[loc][k] += c
	}
	if len(loci) == 0 {
		return nil, fmt.Errorf("%w: no spectra in input", ErrMalformed)
	}

	m := make(Multi, 0, len(loci))
	for _, loc := range loci {
		n := 0
		for k, c := range classes[loc] {
			n += k * c
		}
		a := make(Spectrum, n+1)
		for k, c := range classes[loc] {
			a[k] = c
		}
		m = append(m, a)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteTSV writes a collection of spectra
// into a TSV file.
func WriteTSV(w io.Writer, m Multi) error {
	if err := m.Validate(); err != nil {
		return err
	}

	tsv := csv.NewWriter(w)
	tsv.Comma = '\t'
	tsv.UseCRLF = true
	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}

	for i, a := range m {
		for k := 1; k <= a.SampleSize(); k++ {
			if a[k] == 0 {
				continue
			}
			row := []string{
				strconv.Itoa(i),
				strconv.Itoa(k),
				strconv.Itoa(a[k]),
			}
			if err := tsv.Write(row); err != nil {
				return fmt.Errorf("locus %d: %v", i, err)
			}
		}
	}

	tsv.Flush()
	return tsv.Error()
}
