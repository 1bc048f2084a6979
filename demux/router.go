// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package demux

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// Router writes alignment records to a BAM file for each reference in
// a SAM header.
type Router struct {
	paths   []string
	files   []*os.File
	writers []*bam.Writer
	byName  map[string]*bam.Writer
}

// NewRouter returns a Router writing to "<ref>.bam" files in dir, one
// for each reference in h. Each output uses h as its header.
func NewRouter(dir string, h *sam.Header) (*Router, error) {
	refs := h.Refs()
	r := &Router{byName: make(map[string]*bam.Writer, len(refs))}
	for _, ref := range refs {
		path := filepath.Join(dir, ref.Name()+".bam")
		f, err := os.Create(path)
		if err != nil {
			r.Close()
			return nil, err
		}
		w, err := bam.NewWriter(f, h, 1)
		if err != nil {
			f.Close()
			r.Close()
			return nil, errors.Wrapf(err, "demux: failed to open BAM output %q", path)
		}
		r.paths = append(r.paths, path)
		r.files = append(r.files, f)
		r.writers = append(r.writers, w)
		r.byName[ref.Name()] = w
	}
	return r, nil
}

// Paths returns the output file paths in header reference order.
func (r *Router) Paths() []string { return r.paths }

// Write writes rec to the output for its reference.
func (r *Router) Write(rec *sam.Record) error {
	if rec.Ref == nil {
		return errors.Errorf("demux: cannot route unplaced record %q", rec.Name)
	}
	w, ok := r.byName[rec.Ref.Name()]
	if !ok {
		return errors.Errorf("demux: no output for reference %q", rec.Ref.Name())
	}
	return w.Write(rec)
}

// Close closes all outputs, returning the first error encountered.
func (r *Router) Close() error {
	var err error
	for i, w := range r.writers {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "demux: failed to close %q", r.paths[i])
		}
		if cerr := r.files[i].Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	r.writers = nil
	r.files = nil
	return err
}
