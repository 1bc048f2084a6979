// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package demux provides classification and routing of aligned reads to
// per-reference outputs.
package demux

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/biogo/biogo/seq"
	"github.com/biogo/hts/sam"
)

// ErrZeroLength is returned when a mapped read has no query sequence,
// so its query coverage is undefined.
var ErrZeroLength = errors.New("demux: zero length query")

// Alignment is the subset of an alignment record used for classification.
type Alignment struct {
	Name string
	Ref  string

	// Start and End are the zero-based, half-open
	// reference coordinates of the alignment.
	Start, End int

	// Aligned is the number of query bases in the alignment,
	// excluding soft-clipped bases. Length is the length of
	// the query sequence.
	Aligned, Length int

	Strand seq.Strand

	// Mapped is false if the record has no reference,
	// no alignment or is flagged as unmapped.
	Mapped bool
}

// AlignmentOf returns the Alignment described by r.
func AlignmentOf(r *sam.Record) Alignment {
	a := Alignment{
		Name:   r.Name,
		Start:  r.Pos,
		Length: r.Seq.Length,
		Strand: seq.Plus,
	}
	if r.Flags&sam.Reverse != 0 {
		a.Strand = seq.Minus
	}
	if r.Ref == nil || r.Flags&sam.Unmapped != 0 || len(r.Cigar) == 0 {
		return a
	}
	a.Ref = r.Ref.Name()
	a.End = r.End()
	for _, co := range r.Cigar {
		if co.Type() == sam.CigarSoftClipped {
			continue
		}
		a.Aligned += co.Len() * co.Type().Consumes().Query
	}
	a.Mapped = true
	return a
}

// Cover returns the fraction of the query that is aligned.
func (a Alignment) Cover() (float64, error) {
	if a.Length == 0 {
		return 0, ErrZeroLength
	}
	return float64(a.Aligned) / float64(a.Length), nil
}

// Default classification parameters.
const (
	DefaultUpstream    = 15
	DefaultDownstream  = 21
	DefaultMinCoverage = 0.8
)

// DefaultPolicy is the standard read classification policy.
var DefaultPolicy = Policy{
	Upstream:    DefaultUpstream,
	Downstream:  DefaultDownstream,
	MinCoverage: DefaultMinCoverage,
}

// Policy specifies the acceptance criteria for aligned reads.
type Policy struct {
	// Upstream and Downstream define the analogue window
	// that an accepted alignment must span. An alignment
	// must start before offset-Upstream and end after
	// offset+Downstream.
	Upstream   int
	Downstream int

	// MinCoverage is the exclusive lower bound on the
	// fraction of the query that is aligned.
	MinCoverage float64
}

// Verdict is the result class of a classification.
type Verdict int

const (
	Skipped Verdict = iota
	Rejected
	Accepted
)

func (v Verdict) String() string {
	switch v {
	case Skipped:
		return "skipped"
	case Rejected:
		return "rejected"
	case Accepted:
		return "accepted"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// Reason is the cause of a non-accepting classification.
type Reason int

const (
	NoReason Reason = iota
	Unmapped
	LowCoverage
	ReverseStrand
	StartInWindow
	EndInWindow
)

func (r Reason) String() string {
	switch r {
	case NoReason:
		return "none"
	case Unmapped:
		return "unmapped"
	case LowCoverage:
		return "low coverage"
	case ReverseStrand:
		return "reverse strand"
	case StartInWindow:
		return "starts within analogue window"
	case EndInWindow:
		return "ends within analogue window"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Outcome is the classification of a single alignment.
type Outcome struct {
	Verdict Verdict
	Reason  Reason

	// Cover is the query coverage of a mapped alignment.
	Cover float64
}

// Classify returns the classification of a under the policy p, given
// the analogue offset for the reference a is aligned to. An offset of
// zero disables the analogue window test. Criteria are tested in the
// order coverage, strand, window start then window end, and the first
// failing criterion is reported.
func (p Policy) Classify(a Alignment, offset int) (Outcome, error) {
	if !a.Mapped {
		return Outcome{Verdict: Skipped, Reason: Unmapped}, nil
	}
	cover, err := a.Cover()
	if err != nil {
		return Outcome{}, errors.Wrapf(err, "demux: cannot classify %q", a.Name)
	}
	o := Outcome{Verdict: Rejected, Cover: cover}
	switch {
	case cover <= p.MinCoverage:
		o.Reason = LowCoverage
	case a.Strand != seq.Plus:
		o.Reason = ReverseStrand
	case offset > 0 && a.Start >= offset-p.Upstream:
		o.Reason = StartInWindow
	case offset > 0 && a.End <= offset+p.Downstream:
		o.Reason = EndInWindow
	default:
		o.Verdict = Accepted
	}
	return o, nil
}
