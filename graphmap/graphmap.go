// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package graphmap provides interaction with the GraphMap long read aligner.
package graphmap

import (
	"errors"
	"os/exec"

	"github.com/biogo/external"
)

var ErrMissingRequired = errors.New("graphmap: missing required argument")

// Align defines parameters for the graphmap align tool.
type Align struct {
	// Usage: graphmap align -r ref.fasta -d reads.fasta -o out.sam [options]
	//
	Cmd  string `buildarg:"{{if .}}{{.}}{{else}}graphmap{{end}}"` // graphmap
	Tool string `buildarg:"{{if .}}{{.}}{{else}}align{{end}}"`    // align

	Threads int    `buildarg:"{{if .}}-t{{split}}{{.}}{{end}}"` // -t: number of threads
	Mode    string `buildarg:"{{if .}}-x{{split}}{{.}}{{end}}"` // -x: parameter preset, e.g. sensitive

	// Input files:
	Reference string `buildarg:"{{if .}}-r{{split}}{{.}}{{end}}"` // -r: reference fasta
	Reads     string `buildarg:"{{if .}}-d{{split}}{{.}}{{end}}"` // -d: reads fasta/fastq

	// Output file; stdout if empty.
	Out string `buildarg:"{{if .}}-o{{split}}{{.}}{{end}}"` // -o: SAM output
}

// BuildCommand returns an exec.Cmd built from the parameters in a.
func (a Align) BuildCommand() (*exec.Cmd, error) {
	if a.Reference == "" || a.Reads == "" {
		return nil, ErrMissingRequired
	}
	cl := external.Must(external.Build(a, nil))
	return exec.Command(cl[0], cl[1:]...), nil
}
