// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package simulate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// labelWidth is the width of the taxon label field
// of the sequence interchange format.
const labelWidth = 10

// WriteSeqs writes aligned sequences
// in a fixed width text interchange format:
// one sequence per line,
// a taxon label padded to 10 columns,
// then the sequence.
func WriteSeqs(w io.Writer, seqs []string) error {
	if len(seqs) == 0 {
		return fmt.Errorf("empty alignment")
	}

	bw := bufio.NewWriter(w)
	for i, s := range seqs {
		label := fmt.Sprintf("t%d", i+1)
		if len(label) > labelWidth {
			return fmt.Errorf("sample too large for the label field: %d sequences", len(seqs))
		}
		fmt.Fprintf(bw, "%-*s%s\n", labelWidth, label, s)
	}
	return bw.Flush()
}

// ReadSeqs reads aligned sequences
// from the fixed width interchange format.
// Taxon labels are discarded.
func ReadSeqs(r io.Reader) ([]string, error) {
	var seqs []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		ln := sc.Text()
		if strings.TrimSpace(ln) == "" {
			continue
		}
		if len(ln) <= labelWidth {
			return nil, fmt.Errorf("on line %d: truncated sequence record", len(seqs)+1)
		}
		seqs = append(seqs, ln[labelWidth:])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(seqs) == 0 {
		return nil, fmt.Errorf("empty alignment")
	}
	return seqs, nil
}

// WriteScratch writes an alignment
// into a scratch file with a unique name,
// for handing sequence data between processes,
// and returns the file name.
// The caller must remove the file
// on every exit path.
func WriteScratch(seqs []string) (string, error) {
	f, err := os.CreateTemp("", "ewens-seqs-*.txt")
	if err != nil {
		return "", err
	}
	name := f.Name()

	if err := WriteSeqs(f, seqs); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("on scratch file %q: %v", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("on scratch file %q: %v", name, err)
	}
	return name, nil
}

// ReadScratchFile reads an alignment
// from a file in the interchange format.
func ReadScratchFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seqs, err := ReadSeqs(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return seqs, nil
}
