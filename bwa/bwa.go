// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bwa provides interaction with the bwa reference indexer.
package bwa

import (
	"errors"
	"os/exec"

	"github.com/biogo/external"
)

var ErrMissingRequired = errors.New("bwa: missing required argument")

// Index defines parameters for the bwa index tool.
type Index struct {
	// Usage: bwa index [options] <in.fasta>
	//
	Cmd  string `buildarg:"{{if .}}{{.}}{{else}}bwa{{end}}"`   // bwa
	Tool string `buildarg:"{{if .}}{{.}}{{else}}index{{end}}"` // index

	Algorithm string `buildarg:"{{if .}}-a{{split}}{{.}}{{end}}"` // -a: BWT construction algorithm: bwtsw, is or rb2
	Prefix    string `buildarg:"{{if .}}-p{{split}}{{.}}{{end}}"` // -p: prefix of the index

	Reference string `buildarg:"{{.}}"` // "in.fasta"
}

// BuildCommand returns an exec.Cmd built from the parameters in i.
func (i Index) BuildCommand() (*exec.Cmd, error) {
	if i.Reference == "" {
		return nil, ErrMissingRequired
	}
	cl := external.Must(external.Build(i, nil))
	return exec.Command(cl[0], cl[1:]...), nil
}
