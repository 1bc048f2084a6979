// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// notinmodel reports the base analogue kmers that are absent from an
// Osiris pore model. When given a second model it also reports the
// distribution of differences in mean signal between the two models.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kortschak/osiris/kmer"
	"github.com/kortschak/osiris/poremodel"
)

var (
	other = flag.String("compare", "", "specify a second model to compare kmer means against")
	hist  = flag.String("hist", "", "specify an image file for the histogram of mean differences (requires -compare)")
	bins  = flag.Int("bins", 50, "specify the number of histogram bins")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [options] <model>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 || (*hist != "" && *other == "") || *bins < 1 {
		flag.Usage()
		os.Exit(1)
	}

	model, err := poremodel.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("failed to read model: %v", err)
	}
	err = writeMissing(os.Stdout, model)
	if err != nil {
		log.Fatalf("failed to write missing kmers: %v", err)
	}

	if *other == "" {
		return
	}
	ref, err := poremodel.ReadFile(*other)
	if err != nil {
		log.Fatalf("failed to read comparison model: %v", err)
	}
	_, diffs := poremodel.Differences(model, ref)
	mean, std := summary(diffs)
	log.Printf("%d shared kmers: mean difference %.4f std %.4f", len(diffs), mean, std)
	if *hist != "" {
		err = histogram(diffs, *bins, *hist)
		if err != nil {
			log.Fatalf("failed to render histogram: %v", err)
		}
	}
}

// writeMissing writes the analogue kmers that are absent
// from m to w, one per line.
func writeMissing(w io.Writer, m poremodel.Model) error {
	for _, k := range m.Missing(kmer.Enumerate(kmer.Alphabet, kmer.Marker, kmer.Layouts)) {
		_, err := fmt.Fprintln(w, k)
		if err != nil {
			return err
		}
	}
	return nil
}

func summary(x []float64) (mean, std float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

func histogram(diffs []float64, n int, path string) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	h, err := plotter.NewHist(plotter.Values(diffs), n)
	if err != nil {
		return err
	}
	p.Add(h)
	p.Title.Text = "kmer mean differences"
	p.X.Label.Text = "difference in mean"
	p.Y.Label.Text = "count"
	return p.Save(15*vg.Centimeter, 10*vg.Centimeter, path)
}
