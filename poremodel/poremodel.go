// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package poremodel provides reading and comparison of pore models
// mapping kmers to expected nanopore signal statistics.
package poremodel

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Stats holds the signal statistics for a kmer.
type Stats struct {
	Mean float64
	Std  float64

	// Aux holds the fourth and fifth
	// model columns.
	Aux [2]float64
}

// Model is a pore model.
type Model map[string]Stats

const (
	kmerField = iota
	meanField
	stdField
	aux0Field
	aux1Field

	numFields
)

// ReadFile returns the Model held in the file at path.
func ReadFile(path string) (Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read returns a Model read from the tab-separated stream r. Lines
// starting with '#' or "kmer" are treated as headers and are ignored,
// as are blank lines.
func Read(r io.Reader) (Model, error) {
	m := make(Model)
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimRight(sc.Text(), "\r\n")
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "kmer") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < numFields {
			return nil, errors.Errorf("poremodel: too few fields on line %d: %q", line, text)
		}
		var v [numFields]float64
		for i := meanField; i < numFields; i++ {
			var err error
			v[i], err = strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "poremodel: invalid value on line %d", line)
			}
		}
		m[fields[kmerField]] = Stats{
			Mean: v[meanField],
			Std:  v[stdField],
			Aux:  [2]float64{v[aux0Field], v[aux1Field]},
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "poremodel: failed to read model")
	}
	return m, nil
}

// Missing returns the kmers that are not present in m, in the order
// they are given. Repeated kmers are reported once.
func (m Model) Missing(kmers []string) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, k := range kmers {
		if _, ok := m[k]; ok || seen[k] {
			continue
		}
		seen[k] = true
		missing = append(missing, k)
	}
	return missing
}

// Differences returns the difference in mean between a and b for each
// kmer present in both models, with kmers in sorted order.
func Differences(a, b Model) (kmers []string, diffs []float64) {
	for k := range a {
		if _, ok := b[k]; ok {
			kmers = append(kmers, k)
		}
	}
	sort.Strings(kmers)
	diffs = make([]float64, len(kmers))
	for i, k := range kmers {
		diffs[i] = a[k].Mean - b[k].Mean
	}
	return kmers, diffs
}
