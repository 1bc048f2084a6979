// Copyright ©2017 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package progress provides a textual progress bar.
package progress

import (
	"io"

	"github.com/cheggaaa/pb/v3"
)

// Template renders a bar in the form "[=====>    ] 42.00%".
const Template pb.ProgressBarTemplate = `[{{bar . "" "=" ">" " " ""}}] {{percent .}}`

// Width is the default total width of a rendered bar.
const Width = 80

// Bar is a progress bar counting toward a known total.
type Bar struct {
	bar *pb.ProgressBar
}

// Start returns a started Bar writing to w that counts toward total.
func Start(w io.Writer, total int64) *Bar {
	bar := pb.New64(total).
		SetTemplate(Template).
		SetWriter(w).
		SetWidth(Width)
	return &Bar{bar: bar.Start()}
}

// Increment advances the bar by one.
func (b *Bar) Increment() { b.bar.Increment() }

// Current returns the current count.
func (b *Bar) Current() int64 { return b.bar.Current() }

// Finish stops the bar and writes its final state.
func (b *Bar) Finish() { b.bar.Finish() }
