/*
Copyright © 2019 the AMRmap authors.
This file is part of AMRmap.

AMRmap is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AMRmap is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AMRmap.  If not, see <http://www.gnu.org/licenses/>.
*/

package amrmap

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseDirection(t *testing.T) {
	for s, want := range map[string]Axis{"x": AxisX, "Y": AxisY, "z": AxisZ, "": AxisZ} {
		have, err := ParseDirection(s)
		if err != nil {
			t.Errorf("%q: %v", s, err)
		}
		if have != want {
			t.Errorf("%q: have %v, want %v", s, have, want)
		}
	}
	for _, s := range []string{"xy", "los", "1"} {
		if _, err := ParseDirection(s); !errors.Is(err, ErrInvalidDirection) {
			t.Errorf("%q: have %v, want invalid direction", s, err)
		}
	}
}

func TestPlaneAxes(t *testing.T) {
	for a, want := range map[Axis][2]Axis{
		AxisZ: {AxisX, AxisY},
		AxisY: {AxisX, AxisZ},
		AxisX: {AxisY, AxisZ},
	} {
		u, v := a.planeAxes()
		if u != want[0] || v != want[1] {
			t.Errorf("%v: have (%v, %v), want %v", a, u, v, want)
		}
	}
}

func TestComputeGeometry(t *testing.T) {
	tbl := testTable(t, 1, 2)
	g, err := computeGeometry(&Request{
		Resolution: 10,
		Direction:  "y",
		Center:     []float64{50, 40, 30},
		XRange:     []float64{-20, 20},
		ZRange:     []float64{-10, 10},
		RangeUnit:  "kpc",
	}, tbl)
	if err != nil {
		t.Fatal(err)
	}
	if g.U != AxisX || g.V != AxisZ {
		t.Errorf("axes: have (%v, %v)", g.U, g.V)
	}
	if g.Nx != 10 || g.Ny != 5 {
		t.Errorf("shape: have (%d, %d), want (10, 5)", g.Nx, g.Ny)
	}
	if different(g.PixelSize, 0.04, 1e-12) {
		t.Errorf("pixel size: have %g, want 0.04", g.PixelSize)
	}
	wantRange := [3][2]float64{{0.3, 0.7}, {0, 1}, {0.2, 0.4}}
	for a := range wantRange {
		for i := range wantRange[a] {
			if different(g.Range[a][i], wantRange[a][i], 1e-12) {
				t.Errorf("range: have %v, want %v", g.Range, wantRange)
			}
		}
	}
	if different(g.Extent.Min.X, 0.3, 1e-12) || different(g.Extent.Max.Y, 0.4, 1e-12) {
		t.Errorf("extent: have %+v", g.Extent)
	}
}

func TestSpan(t *testing.T) {
	for _, test := range []struct {
		name        string
		lo, size    float64
		origin, pix float64
		n           int
		first       int
		fracs       []float64
	}{
		{"inside", 0.25, 0.125, 0, 0.25, 4, 1, []float64{1}},
		{"aligned", 0.5, 0.25, 0, 0.25, 4, 2, []float64{1}},
		{"fan out", 0, 0.5, 0, 0.25, 4, 0, []float64{0.5, 0.5}},
		{"straddle", 0.125, 0.25, 0, 0.25, 4, 0, []float64{0.5, 0.5}},
		{"clipped low", -0.125, 0.25, 0, 0.25, 4, 0, []float64{0.5}},
		{"clipped high", 0.875, 0.25, 0, 0.25, 4, 3, []float64{0.5}},
		{"outside", 2, 0.25, 0, 0.25, 4, 3, []float64{}},
	} {
		t.Run(test.name, func(t *testing.T) {
			first, fracs := span(test.lo, test.size, test.origin, test.pix, test.n, nil)
			if len(test.fracs) > 0 && first != test.first {
				t.Errorf("first: have %d, want %d", first, test.first)
			}
			if len(fracs) == 0 && len(test.fracs) == 0 {
				return
			}
			if !reflect.DeepEqual(fracs, test.fracs) {
				t.Errorf("fractions: have %v, want %v", fracs, test.fracs)
			}
		})
	}
}

func TestSelects(t *testing.T) {
	tbl := testTable(t, 1, 2)
	g, err := computeGeometry(&Request{
		Resolution: 4,
		XRange:     []float64{-0.25, 0.1},
		ZRange:     []float64{0, 0.5},
	}, tbl)
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		level int
		c     [3]int
		want  bool
	}{
		{1, [3]int{0, 0, 1}, true},  // overlaps x range, center in z range
		{1, [3]int{0, 0, 0}, false}, // center below z range
		{2, [3]int{0, 0, 2}, false}, // entirely left of x range
		{2, [3]int{2, 3, 3}, true},
		{2, [3]int{3, 0, 2}, false}, // entirely right of x range
	} {
		if have := g.selects(test.level, test.c); have != test.want {
			t.Errorf("level %d %v: have %v, want %v", test.level, test.c, have, test.want)
		}
	}
}
