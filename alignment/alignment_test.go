// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alignment

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/check.v1"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

const unsorted = "@HD\tVN:1.0\tSO:unsorted\n" +
	"@SQ\tSN:ref1\tLN:100\n" +
	"@SQ\tSN:ref2\tLN:100\n" +
	"unplaced\t4\t*\t0\t0\t*\t*\t0\t0\tACGTACGTAC\t*\n" +
	"c\t0\tref2\t5\t60\t10M\t*\t0\t0\tACGTACGTAC\t*\n" +
	"b\t0\tref1\t31\t60\t10M\t*\t0\t0\tACGTACGTAC\t*\n" +
	"a\t16\tref1\t11\t60\t10M\t*\t0\t0\tACGTACGTAC\t*\n"

func writeSAM(c *check.C, dir, text string) string {
	path := filepath.Join(dir, "alignments.sam")
	err := os.WriteFile(path, []byte(text), 0o644)
	c.Assert(err, check.IsNil)
	return path
}

func readBAM(c *check.C, path string) (*sam.Header, []*sam.Record) {
	f, err := os.Open(path)
	c.Assert(err, check.IsNil)
	defer f.Close()
	br, err := bam.NewReader(f, 1)
	c.Assert(err, check.IsNil)
	defer br.Close()
	var recs []*sam.Record
	for {
		r, err := br.Read()
		if err == io.EOF {
			break
		}
		c.Assert(err, check.IsNil)
		recs = append(recs, r)
	}
	return br.Header(), recs
}

func (s *S) TestSortSAM(c *check.C) {
	dir := c.MkDir()
	src := writeSAM(c, dir, unsorted)
	dst := filepath.Join(dir, "alignments.sorted.bam")

	n, err := SortSAM(src, dst)
	c.Assert(err, check.IsNil)
	c.Check(n, check.Equals, 4)

	h, recs := readBAM(c, dst)
	c.Check(h.SortOrder, check.Equals, sam.Coordinate)
	var names []string
	for _, r := range recs {
		names = append(names, r.Name)
	}
	c.Check(names, check.DeepEquals, []string{"a", "b", "c", "unplaced"})
}

func (s *S) TestSortSAMMissing(c *check.C) {
	dir := c.MkDir()
	_, err := SortSAM(filepath.Join(dir, "absent.sam"), filepath.Join(dir, "out.bam"))
	c.Check(os.IsNotExist(err), check.Equals, true)
}

func (s *S) TestIndexAndCount(c *check.C) {
	dir := c.MkDir()
	src := writeSAM(c, dir, unsorted)
	dst := filepath.Join(dir, "alignments.sorted.bam")
	_, err := SortSAM(src, dst)
	c.Assert(err, check.IsNil)

	err = IndexBAM(dst)
	c.Assert(err, check.IsNil)
	_, err = os.Stat(dst + ".bai")
	c.Assert(err, check.IsNil)

	n, err := Count(dst+".bai", 2)
	c.Assert(err, check.IsNil)
	c.Check(n, check.Equals, uint64(4))
}
