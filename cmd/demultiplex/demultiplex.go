// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// demultiplex aligns basecalled reads to a multiple sequence reference and
// splits the alignments into one BAM file per reference sequence, keeping
// forward strand reads that are well covered and that span the reference's
// base analogue region.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/kortschak/osiris/alignment"
	"github.com/kortschak/osiris/bwa"
	"github.com/kortschak/osiris/demux"
	"github.com/kortschak/osiris/graphmap"
	"github.com/kortschak/osiris/progress"
	"github.com/kortschak/osiris/reference"
)

// errUsage is returned by parseConfig when the usage has
// already been reported.
var errUsage = errors.New("invalid usage")

type config struct {
	reference string
	reads     string
	threads   int
	out       string

	runAlign bool
	bwa      string
	graphmap string
	mode     string

	policy   demux.Policy
	progress bool
}

func parseConfig(name string, args []string, stderr io.Writer) (config, error) {
	c := config{policy: demux.DefaultPolicy}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.reference, "reference", "", "path to reference file in fasta format (required)")
	fs.StringVar(&c.reference, "r", "", "short for -reference")
	fs.StringVar(&c.reads, "reads", "", "path to file with all reads to demultiplex (required)")
	fs.IntVar(&c.threads, "threads", 1, "number of aligner threads")
	fs.IntVar(&c.threads, "t", 1, "short for -threads")
	fs.StringVar(&c.out, "out", ".", "output directory")
	fs.BoolVar(&c.runAlign, "run-align", true, `actually run the aligner
    	false is useful to demultiplex an existing
    	alignments.sorted.bam in the output directory`,
	)
	fs.StringVar(&c.bwa, "bwa", "", "path to bwa if not in $PATH")
	fs.StringVar(&c.graphmap, "graphmap", "", "path to graphmap if not in $PATH")
	fs.StringVar(&c.mode, "mode", "sensitive", "graphmap parameter preset")
	fs.IntVar(&c.policy.Upstream, "upstream", demux.DefaultUpstream, "required alignment extent before the analogue")
	fs.IntVar(&c.policy.Downstream, "downstream", demux.DefaultDownstream, "required alignment extent after the analogue")
	fs.Float64Var(&c.policy.MinCoverage, "min-cover", demux.DefaultMinCoverage, "minimum aligned fraction of each read (exclusive)")
	fs.BoolVar(&c.progress, "progress", false, "display a progress bar on stderr")

	err := fs.Parse(args)
	if err != nil {
		if err == flag.ErrHelp {
			return c, err
		}
		return c, errUsage
	}
	if c.reference == "" || c.reads == "" {
		fmt.Fprintln(stderr, "invalid argument: must have reads and reference set")
		fs.Usage()
		return c, errUsage
	}
	if c.threads < 1 || c.policy.Upstream < 0 || c.policy.Downstream < 0 || c.policy.MinCoverage < 0 || 1 < c.policy.MinCoverage {
		fmt.Fprintln(stderr, "invalid argument: threads must be positive, window extents must not be negative and min-cover must be in [0,1]")
		fs.Usage()
		return c, errUsage
	}
	return c, nil
}

func main() {
	cfg, err := parseConfig(os.Args[0], os.Args[1:], os.Stderr)
	switch err {
	case nil:
	case flag.ErrHelp:
		os.Exit(0)
	default:
		os.Exit(1)
	}

	err = run(cfg)
	if err != nil {
		log.Fatal(err)
	}
}

func run(cfg config) error {
	refs, err := reference.ReadFile(cfg.reference)
	if err != nil {
		return fmt.Errorf("failed to read reference: %v", err)
	}
	for _, name := range refs.Illegal() {
		log.Printf("warning: illegal character in reference %q: legal characters are A, T, G, C and N", name)
	}
	paths, err := refs.WriteSplit(cfg.out)
	if err != nil {
		return fmt.Errorf("failed to split reference: %v", err)
	}
	log.Printf("wrote %d reference sequences", len(paths))

	offsets, missing := refs.Analogues(reference.AnalogueMotifs)
	for _, name := range missing {
		log.Printf("warning: analogue domain not found in %q: is the right domain in the reference?", name)
	}

	sorted, err := align(cfg)
	if err != nil {
		return fmt.Errorf("failed alignment: %v", err)
	}

	log.Printf("demultiplexing alignments in %q", sorted)
	h, sum, err := split(sorted, cfg, offsets)
	if err != nil {
		return fmt.Errorf("failed to demultiplex: %v", err)
	}
	report(h, sum)
	return nil
}

// align runs the aligner if requested and returns the path of a
// coordinate sorted and indexed BAM file of the alignments.
func align(cfg config) (string, error) {
	sorted := filepath.Join(cfg.out, "alignments.sorted.bam")
	if cfg.runAlign {
		idx := bwa.Index{Cmd: cfg.bwa, Reference: cfg.reference}
		cmd, err := idx.BuildCommand()
		if err != nil {
			return "", err
		}
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
		log.Printf("indexing reference %q", cfg.reference)
		err = cmd.Run()
		if err != nil {
			return "", err
		}

		aligned := filepath.Join(cfg.out, "alignments.sam")
		g := graphmap.Align{
			Cmd:     cfg.graphmap,
			Threads: cfg.threads,
			Mode:    cfg.mode,

			Reference: cfg.reference,
			Reads:     cfg.reads,
			Out:       aligned,
		}
		cmd, err = g.BuildCommand()
		if err != nil {
			return "", err
		}
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
		log.Printf("aligning reads in %q", cfg.reads)
		err = cmd.Run()
		if err != nil {
			return "", err
		}

		n, err := alignment.SortSAM(aligned, sorted)
		if err != nil {
			return "", err
		}
		log.Printf("sorted %d alignments into %q", n, sorted)
		return sorted, alignment.IndexBAM(sorted)
	}

	_, err := os.Stat(sorted + ".bai")
	if os.IsNotExist(err) {
		log.Printf("indexing %q", sorted)
		return sorted, alignment.IndexBAM(sorted)
	}
	return sorted, err
}

// split demultiplexes the alignments in the BAM file at path into one
// indexed BAM file per reference in the output directory.
func split(path string, cfg config, offsets map[string]int) (*sam.Header, *demux.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	br, err := bam.NewReader(f, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open bam stream: %v", err)
	}
	defer br.Close()

	h := br.Header()
	for _, r := range h.Refs() {
		log.Printf("opening output for %s", r.Name())
	}
	rt, err := demux.NewRouter(cfg.out, h)
	if err != nil {
		return nil, nil, err
	}

	var (
		bar  *progress.Bar
		tick func()
	)
	if cfg.progress {
		n, err := alignment.Count(path+".bai", len(h.Refs()))
		if err != nil {
			rt.Close()
			return nil, nil, err
		}
		bar = progress.Start(os.Stderr, int64(n))
		tick = bar.Increment
	}
	sum, err := demux.Demultiplex(br, rt, offsets, cfg.policy, tick)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		rt.Close()
		return nil, nil, err
	}
	err = rt.Close()
	if err != nil {
		return nil, nil, err
	}

	for _, p := range rt.Paths() {
		err = alignment.IndexBAM(p)
		if err != nil {
			return nil, nil, err
		}
	}
	return h, sum, nil
}

var rejections = []demux.Reason{
	demux.LowCoverage,
	demux.ReverseStrand,
	demux.StartInWindow,
	demux.EndInWindow,
}

func report(h *sam.Header, sum *demux.Summary) {
	log.Printf("skipped %d unmapped records", sum.Unmapped)
	for _, r := range h.Refs() {
		t, ok := sum.Refs[r.Name()]
		if !ok {
			log.Printf("%s (length %d): no mapped records", r.Name(), r.Len())
			continue
		}
		mean, std := t.Cover()
		log.Printf("%s (length %d): accepted %d (coverage %.3f±%.3f)", r.Name(), r.Len(), t.Accepted, mean, std)
		for _, reason := range rejections {
			if n := t.Rejected[reason]; n != 0 {
				log.Printf("\trejected %d: %v", n, reason)
			}
		}
	}
}
