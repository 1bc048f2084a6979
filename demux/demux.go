// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package demux

import (
	"io"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/biogo/hts/sam"
)

// RecordReader is a source of alignment records.
type RecordReader interface {
	Read() (*sam.Record, error)
}

// RecordWriter is a destination for accepted alignment records.
type RecordWriter interface {
	Write(*sam.Record) error
}

// Summary holds the classification counts from a demultiplexing run.
type Summary struct {
	// Unmapped is the number of records skipped
	// because they were not mapped.
	Unmapped int

	// Refs holds the tally for each reference
	// that had at least one mapped record.
	Refs map[string]*Tally
}

// Tally holds the classification counts for a reference.
type Tally struct {
	Accepted int
	Rejected map[Reason]int

	cover []float64
}

// Cover returns the mean and standard deviation of query coverage
// for accepted records.
func (t *Tally) Cover() (mean, std float64) {
	switch len(t.cover) {
	case 0:
		return 0, 0
	case 1:
		return t.cover[0], 0
	}
	return stat.MeanStdDev(t.cover, nil)
}

func (s *Summary) tally(ref string) *Tally {
	t, ok := s.Refs[ref]
	if !ok {
		t = &Tally{Rejected: make(map[Reason]int)}
		s.Refs[ref] = t
	}
	return t
}

// Demultiplex reads all records from src, classifies each using p and
// the analogue offsets for its reference, and writes accepted records to
// dst in input order. If tick is not nil it is called after each record
// is read. Any error terminates the run.
func Demultiplex(src RecordReader, dst RecordWriter, offsets map[string]int, p Policy, tick func()) (*Summary, error) {
	s := &Summary{Refs: make(map[string]*Tally)}
	for {
		r, err := src.Read()
		if err != nil {
			if err != io.EOF {
				return s, errors.Wrap(err, "demux: unexpected error reading alignments")
			}
			break
		}
		if tick != nil {
			tick()
		}

		a := AlignmentOf(r)
		if !a.Mapped {
			s.Unmapped++
			continue
		}
		offset, ok := offsets[a.Ref]
		if !ok {
			return s, errors.Errorf("demux: no analogue offset for reference %q", a.Ref)
		}
		o, err := p.Classify(a, offset)
		if err != nil {
			return s, err
		}

		t := s.tally(a.Ref)
		if o.Verdict != Accepted {
			t.Rejected[o.Reason]++
			continue
		}
		err = dst.Write(r)
		if err != nil {
			return s, errors.Wrapf(err, "demux: failed to write %q", r.Name)
		}
		t.Accepted++
		t.cover = append(t.cover, o.Cover)
	}
	return s, nil
}
