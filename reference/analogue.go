// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reference

import "strings"

// AnalogueMotifs are the placeholder motifs that mark the position of a
// base analogue in a reference, in search priority order.
var AnalogueMotifs = []string{
	"NTNNNNN",
	"NNNTNNN",
	"NNNNNTN",
}

// Analogues returns the offset of the analogue region for each reference
// in s. The offset is the leftmost position of the first motif in motifs
// that is found in the reference sequence; motifs are tried in order.
// References without any of the motifs are given an offset of zero and
// are listed in missing.
//
// An offset of zero is indistinguishable from a motif found at the start
// of the sequence; both leave the analogue window unanchored.
func (s *Set) Analogues(motifs []string) (offsets map[string]int, missing []string) {
	offsets = make(map[string]int, len(s.refs))
	for _, r := range s.refs {
		off, ok := locate(r.Seq, motifs)
		if !ok {
			missing = append(missing, r.Name)
		}
		offsets[r.Name] = off
	}
	return offsets, missing
}

func locate(seq string, motifs []string) (int, bool) {
	for _, m := range motifs {
		if i := strings.Index(seq, m); i >= 0 {
			return i, true
		}
	}
	return 0, false
}
