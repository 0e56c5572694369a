// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package screen1d

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/maruel/ansi256"
)

func TestNew(t *testing.T) {
	if _, err := New(&Opts{}); err == nil {
		t.Fatal("New() accepted an empty gauge")
	}
	d, err := New(&Opts{X: 4, W: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	if s := d.String(); s != "Screen1D{4}" {
		t.Fatalf("String() = %q", s)
	}
}

func TestLit(t *testing.T) {
	d, err := New(&Opts{X: 10, W: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		fraction float64
		want     int
	}{
		{-1, 0},
		{0, 0},
		{math.NaN(), 0},
		{0.04, 0},
		{0.05, 1},
		{0.5, 5},
		{0.99, 10},
		{1, 10},
		{3, 10},
	} {
		if got := d.Lit(test.fraction); got != test.want {
			t.Errorf("Lit(%g) = %d, want %d", test.fraction, got, test.want)
		}
	}
}

func TestGauge(t *testing.T) {
	var buf bytes.Buffer
	d, err := New(&Opts{X: 20, W: &buf})
	if err != nil {
		t.Fatal(err)
	}
	p := ansi256.Default

	if err := d.Gauge(0.5, "160mV"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\r\033[0m") || !strings.HasSuffix(out, "\033[0m 160mV") {
		t.Fatalf("Gauge() = %q", out)
	}
	if n := strings.Count(out, p.Block(colorLow)); n != 10 {
		t.Errorf("%d low cells, want 10", n)
	}
	if n := strings.Count(out, p.Block(colorOff)); n != 10 {
		t.Errorf("%d off cells, want 10", n)
	}
	if strings.Contains(out, p.Block(colorHigh)) {
		t.Error("high cells lit at half scale")
	}

	buf.Reset()
	if err := d.Gauge(1, ""); err != nil {
		t.Fatal(err)
	}
	out = buf.String()
	// Cells 13-17 are mid, 18-20 high.
	if n := strings.Count(out, p.Block(colorMid)); n != 5 {
		t.Errorf("%d mid cells, want 5", n)
	}
	if n := strings.Count(out, p.Block(colorHigh)); n != 3 {
		t.Errorf("%d high cells, want 3", n)
	}

	buf.Reset()
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\n\033[0m" {
		t.Fatalf("Halt() wrote %q", buf.String())
	}
}
