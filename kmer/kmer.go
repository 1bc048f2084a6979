// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kmer provides enumeration of kmers holding a single marker base.
package kmer

// Layout describes the position of a marker base in a kmer by the
// number of alphabet bases either side of it.
type Layout struct {
	Prefix, Suffix int
}

// Len returns the length of kmers with the layout.
func (l Layout) Len() int { return l.Prefix + 1 + l.Suffix }

// Layouts are the marker positions covered in a 5-mer pore model.
var Layouts = []Layout{
	{Prefix: 0, Suffix: 4},
	{Prefix: 4, Suffix: 0},
	{Prefix: 3, Suffix: 1},
	{Prefix: 1, Suffix: 3},
	{Prefix: 2, Suffix: 2},
}

// Alphabet and Marker are the standard bases and the base analogue
// marker used in Osiris pore models.
const (
	Alphabet = "ATGC"
	Marker   = 'B'
)

// Enumerate returns every kmer made of letters from alphabet with marker
// inserted according to each of the given layouts. Kmers are returned
// grouped by layout in the order given, and within a layout in
// lexicographic order of alphabet positions with the prefix varying
// slowest.
func Enumerate(alphabet string, marker byte, layouts []Layout) []string {
	var kmers []string
	for _, l := range layouts {
		for _, pre := range product(alphabet, l.Prefix) {
			for _, suf := range product(alphabet, l.Suffix) {
				b := make([]byte, 0, l.Len())
				b = append(b, pre...)
				b = append(b, marker)
				b = append(b, suf...)
				kmers = append(kmers, string(b))
			}
		}
	}
	return kmers
}

// product returns all n length words over alphabet, with the
// first letter varying slowest.
func product(alphabet string, n int) []string {
	words := []string{""}
	for i := 0; i < n; i++ {
		next := make([]string, 0, len(words)*len(alphabet))
		for _, w := range words {
			for j := 0; j < len(alphabet); j++ {
				next = append(next, w+alphabet[j:j+1])
			}
		}
		words = next
	}
	return words
}
