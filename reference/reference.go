// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reference provides handling of multiple sequence reference files
// used for read demultiplexing.
package reference

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// ErrNoSequences is returned when a reference file holds no sequences.
var ErrNoSequences = errors.New("reference: no sequences")

// Reference is a named reference sequence.
type Reference struct {
	Name string
	Seq  string
}

// Set is an ordered collection of uniquely named reference sequences.
type Set struct {
	refs  []Reference
	index map[string]int
}

// ReadFile returns the Set of sequences held in the fasta file at path.
func ReadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read returns the Set of sequences read from the fasta stream r.
// The name of each reference is the complete header line without the
// leading '>'. Read returns an error if r contains no sequences or if
// a name is repeated.
func Read(r io.Reader) (*Set, error) {
	s := &Set{index: make(map[string]int)}
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNA)))
	for sc.Next() {
		seq := sc.Seq().(*linear.Seq)
		name := seq.ID
		if seq.Desc != "" {
			name += " " + seq.Desc
		}
		if _, dup := s.index[name]; dup {
			return nil, errors.Errorf("reference: duplicate sequence name %q", name)
		}
		s.index[name] = len(s.refs)
		s.refs = append(s.refs, Reference{Name: name, Seq: seq.Seq.String()})
	}
	if err := sc.Error(); err != nil {
		return nil, errors.Wrap(err, "reference: error during fasta read")
	}
	if len(s.refs) == 0 {
		return nil, ErrNoSequences
	}
	return s, nil
}

// Len returns the number of references in s.
func (s *Set) Len() int { return len(s.refs) }

// References returns a copy of the references in s in file order.
func (s *Set) References() []Reference {
	return append([]Reference(nil), s.refs...)
}

// Seq returns the sequence of the named reference.
func (s *Set) Seq(name string) (seq string, ok bool) {
	i, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.refs[i].Seq, true
}

// Illegal returns the names of references that contain letters other
// than A, T, G, C or N, ignoring case.
func (s *Set) Illegal() []string {
	var names []string
	for _, r := range s.refs {
		if strings.IndexFunc(r.Seq, illegal) >= 0 {
			names = append(names, r.Name)
		}
	}
	return names
}

func illegal(r rune) bool {
	switch r {
	case 'A', 'T', 'G', 'C', 'N', 'a', 't', 'g', 'c', 'n':
		return false
	}
	return true
}

// WriteSplit writes each reference in s to its own fasta file in dir,
// named for the reference with a ".fasta" suffix. It returns the paths
// of the files written.
func (s *Set) WriteSplit(dir string) ([]string, error) {
	paths := make([]string, 0, len(s.refs))
	for _, r := range s.refs {
		path := filepath.Join(dir, r.Name+".fasta")
		f, err := os.Create(path)
		if err != nil {
			return paths, err
		}
		seq := linear.NewSeq(r.Name, alphabet.BytesToLetters([]byte(r.Seq)), alphabet.DNA)
		_, err = fmt.Fprintf(f, "%a\n", seq)
		if err != nil {
			f.Close()
			return paths, errors.Wrapf(err, "reference: failed to write %q", path)
		}
		err = f.Close()
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
