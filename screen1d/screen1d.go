// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen1d draws a one line bar gauge on a terminal using ANSI color
// codes.
//
// It is used to show how much of the shunt full scale a power monitor is
// using while readings scroll by.
package screen1d

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for this gauge.
type Opts struct {
	// X is the number of cells of the bar.
	X       int
	Palette *ansi256.Palette
	// W defaults to a color capable stdout.
	W io.Writer

	_ struct{}
}

var (
	colorOff  = color.NRGBA{0x30, 0x30, 0x30, 0xff}
	colorLow  = color.NRGBA{0x00, 0xc0, 0x00, 0xff}
	colorMid  = color.NRGBA{0xe0, 0xc0, 0x00, 0xff}
	colorHigh = color.NRGBA{0xe0, 0x00, 0x00, 0xff}
)

// Dev is a bar gauge that outputs to the console.
type Dev struct {
	w       io.Writer
	l       int
	palette ansi256.Palette

	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts.X <= 0 {
		return nil, errors.New("screen1d: gauge needs at least one cell")
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{w: w, l: opts.X, palette: *p}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("Screen1D{%d}", d.l)
}

// Halt implements conn.Resource.
//
// It restores the terminal colors and moves to the next line.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Lit returns the number of cells lit for fraction, clamped to [0, 1].
func (d *Dev) Lit(fraction float64) int {
	if math.IsNaN(fraction) || fraction <= 0 {
		return 0
	}
	if fraction >= 1 {
		return d.l
	}
	return int(math.Round(fraction * float64(d.l)))
}

// Gauge redraws the bar in place with fraction of it lit, followed by label.
func (d *Dev) Gauge(fraction float64, label string) error {
	lit := d.Lit(fraction)
	// Minimize the amount of memory allocated per call.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := 0; i < d.l; i++ {
		_, _ = io.WriteString(&d.buf, d.palette.Block(d.cellColor(i, lit)))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	_, _ = d.buf.WriteString(label)
	_, err := d.buf.WriteTo(d.w)
	return err
}

// cellColor shades lit cells by their position on the bar.
func (d *Dev) cellColor(i, lit int) color.NRGBA {
	if i >= lit {
		return colorOff
	}
	switch pos := float64(i+1) / float64(d.l); {
	case pos > 0.85:
		return colorHigh
	case pos > 0.6:
		return colorMid
	default:
		return colorLow
	}
}

var _ fmt.Stringer = &Dev{}
