// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package alignment provides coordinate sorting and indexing of aligner
// output so that it can be demultiplexed.
package alignment

import (
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// SortSAM reads the SAM file at src and writes its records in coordinate
// order to a BAM file at dst. Unmapped records without a reference are
// placed last. The number of records written is returned.
func SortSAM(src, dst string) (n int, err error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sr, err := sam.NewReader(f)
	if err != nil {
		return 0, errors.Wrapf(err, "alignment: failed to open SAM input %q", src)
	}
	var recs []*sam.Record
	for {
		r, err := sr.Read()
		if err != nil {
			if err != io.EOF {
				return 0, errors.Wrapf(err, "alignment: unexpected error reading %q", src)
			}
			break
		}
		recs = append(recs, r)
	}
	sort.Stable(byCoordinate(recs))

	h := sr.Header()
	h.SortOrder = sam.Coordinate

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	bw, err := bam.NewWriter(out, h, 1)
	if err != nil {
		out.Close()
		return 0, errors.Wrapf(err, "alignment: failed to open BAM output %q", dst)
	}
	for _, r := range recs {
		err = bw.Write(r)
		if err != nil {
			bw.Close()
			out.Close()
			return n, errors.Wrapf(err, "alignment: failed to write record %q", r.Name)
		}
		n++
	}
	err = bw.Close()
	if err != nil {
		out.Close()
		return n, err
	}
	return n, out.Close()
}

// byCoordinate sorts records by reference ID then position with
// records without a reference last.
type byCoordinate []*sam.Record

func (r byCoordinate) Len() int { return len(r) }
func (r byCoordinate) Less(i, j int) bool {
	ri, rj := refID(r[i]), refID(r[j])
	if ri != rj {
		if ri < 0 {
			return false
		}
		if rj < 0 {
			return true
		}
		return ri < rj
	}
	return r[i].Pos < r[j].Pos
}
func (r byCoordinate) Swap(i, j int) { r[i], r[j] = r[j], r[i] }

func refID(r *sam.Record) int {
	if r.Ref == nil {
		return -1
	}
	return r.Ref.ID()
}

// IndexBAM writes a BAI index for the coordinate sorted BAM file at path
// to path+".bai".
func IndexBAM(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	br, err := bam.NewReader(f, 1)
	if err != nil {
		return errors.Wrapf(err, "alignment: failed to open BAM stream %q", path)
	}
	defer br.Close()

	var idx bam.Index
	for {
		r, err := br.Read()
		if err != nil {
			if err != io.EOF {
				return errors.Wrapf(err, "alignment: unexpected error reading %q", path)
			}
			break
		}
		err = idx.Add(r, br.LastChunk())
		if err != nil {
			return errors.Wrapf(err, "alignment: failed to index record %q", r.Name)
		}
	}

	out, err := os.Create(path + ".bai")
	if err != nil {
		return err
	}
	err = bam.WriteIndex(out, &idx)
	if err != nil {
		out.Close()
		return errors.Wrapf(err, "alignment: failed to write index for %q", path)
	}
	return out.Close()
}

// Count returns the total number of records described by the BAI index
// at path for a BAM file with nrefs references.
func Count(path string, nrefs int) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	idx, err := bam.ReadIndex(f)
	if err != nil {
		return 0, errors.Wrapf(err, "alignment: failed to read index %q", path)
	}

	var n uint64
	for id := 0; id < nrefs; id++ {
		stats, ok := idx.ReferenceStats(id)
		if !ok {
			continue
		}
		n += stats.Mapped + stats.Unmapped
	}
	if u, ok := idx.Unmapped(); ok {
		n += u
	}
	return n, nil
}
