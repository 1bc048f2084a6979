// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package demux

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/check.v1"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

type records []*sam.Record

func (r *records) Read() (*sam.Record, error) {
	if len(*r) == 0 {
		return nil, io.EOF
	}
	rec := (*r)[0]
	*r = (*r)[1:]
	return rec, nil
}

type collector []string

func (w *collector) Write(r *sam.Record) error {
	*w = append(*w, r.Name)
	return nil
}

// record returns a mapped record with a query sequence of length n
// of which aligned bases are matched at pos.
func record(name string, ref *sam.Reference, pos, aligned, n int, flags sam.Flags) *sam.Record {
	var cigar sam.Cigar
	if n > aligned {
		cigar = append(cigar, sam.NewCigarOp(sam.CigarSoftClipped, n-aligned))
	}
	cigar = append(cigar, sam.NewCigarOp(sam.CigarMatch, aligned))
	return &sam.Record{
		Name:    name,
		Ref:     ref,
		Pos:     pos,
		MapQ:    60,
		Cigar:   cigar,
		Flags:   flags,
		MatePos: -1,
		Seq:     sam.NewSeq(bytes.Repeat([]byte("C"), n)),
		Qual:    bytes.Repeat([]byte{30}, n),
	}
}

func testHeader(c *check.C) (*sam.Header, *sam.Reference, *sam.Reference) {
	ref1, err := sam.NewReference("ref1", "", "", 200, nil, nil)
	c.Assert(err, check.IsNil)
	ref2, err := sam.NewReference("ref2", "", "", 200, nil, nil)
	c.Assert(err, check.IsNil)
	h, err := sam.NewHeader(nil, []*sam.Reference{ref1, ref2})
	c.Assert(err, check.IsNil)
	return h, ref1, ref2
}

func (s *S) TestDemultiplex(c *check.C) {
	_, ref1, ref2 := testHeader(c)
	unmapped := &sam.Record{Name: "unmapped", Pos: -1, MatePos: -1, Flags: sam.Unmapped}
	src := records{
		record("ref1-spans", ref1, 10, 90, 100, 0),
		unmapped,
		record("ref1-short", ref1, 10, 20, 100, 0),
		record("ref1-reverse", ref1, 10, 90, 100, sam.Reverse),
		record("ref2-any", ref2, 150, 45, 50, 0),
		record("ref1-late", ref1, 90, 95, 100, 0),
		record("ref1-spans-2", ref1, 0, 100, 100, 0),
	}
	offsets := map[string]int{"ref1": 40, "ref2": 0}

	var (
		dst   collector
		ticks int
	)
	sum, err := Demultiplex(&src, &dst, offsets, DefaultPolicy, func() { ticks++ })
	c.Assert(err, check.IsNil)
	c.Check([]string(dst), check.DeepEquals, []string{"ref1-spans", "ref2-any", "ref1-spans-2"})
	c.Check(ticks, check.Equals, 7)

	c.Check(sum.Unmapped, check.Equals, 1)
	c.Check(sum.Refs["ref1"].Accepted, check.Equals, 2)
	c.Check(sum.Refs["ref1"].Rejected, check.DeepEquals, map[Reason]int{
		LowCoverage:   1,
		ReverseStrand: 1,
		StartInWindow: 1,
	})
	c.Check(sum.Refs["ref2"].Accepted, check.Equals, 1)

	mean, std := sum.Refs["ref1"].Cover()
	c.Check(math.Abs(mean-0.95) < 1e-12, check.Equals, true, check.Commentf("mean=%v", mean))
	c.Check(std > 0, check.Equals, true)
	mean, std = sum.Refs["ref2"].Cover()
	c.Check(mean, check.Equals, 0.9)
	c.Check(std, check.Equals, 0.0)
}

func (s *S) TestDemultiplexErrors(c *check.C) {
	_, ref1, _ := testHeader(c)

	src := records{record("r", ref1, 0, 90, 100, 0)}
	_, err := Demultiplex(&src, new(collector), map[string]int{}, DefaultPolicy, nil)
	c.Check(err, check.ErrorMatches, `demux: no analogue offset for reference "ref1"`)

	empty := record("empty", ref1, 0, 10, 10, 0)
	empty.Seq = sam.Seq{}
	empty.Qual = nil
	src = records{empty}
	_, err = Demultiplex(&src, new(collector), map[string]int{"ref1": 0}, DefaultPolicy, nil)
	c.Check(errors.Cause(err), check.Equals, ErrZeroLength)
}

func (s *S) TestRouter(c *check.C) {
	dir := c.MkDir()
	h, ref1, ref2 := testHeader(c)

	rt, err := NewRouter(dir, h)
	c.Assert(err, check.IsNil)
	c.Check(rt.Paths(), check.DeepEquals, []string{
		filepath.Join(dir, "ref1.bam"),
		filepath.Join(dir, "ref2.bam"),
	})

	src := records{
		record("a", ref1, 0, 100, 100, 0),
		record("b", ref1, 5, 50, 100, 0),
		record("c", ref2, 0, 100, 100, 0),
		record("d", ref1, 7, 100, 100, 0),
	}
	_, err = Demultiplex(&src, rt, map[string]int{"ref1": 0, "ref2": 0}, DefaultPolicy, nil)
	c.Assert(err, check.IsNil)
	c.Assert(rt.Close(), check.IsNil)

	c.Check(readNames(c, filepath.Join(dir, "ref1.bam")), check.DeepEquals, []string{"a", "d"})
	c.Check(readNames(c, filepath.Join(dir, "ref2.bam")), check.DeepEquals, []string{"c"})

	err = rt.Write(&sam.Record{Name: "x"})
	c.Check(err, check.ErrorMatches, `demux: cannot route unplaced record "x"`)
}

func readNames(c *check.C, path string) []string {
	f, err := os.Open(path)
	c.Assert(err, check.IsNil)
	defer f.Close()
	br, err := bam.NewReader(f, 1)
	c.Assert(err, check.IsNil)
	defer br.Close()
	var names []string
	for {
		r, err := br.Read()
		if err == io.EOF {
			break
		}
		c.Assert(err, check.IsNil)
		names = append(names, r.Name)
	}
	return names
}
