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
	"testing"
)

func TestFillGaps(t *testing.T) {
	const nx, ny = 4, 4
	weight := make([]float64, nx*ny)
	mean := make([]float64, nx*ny)
	sum := make([]float64, nx*ny)
	for i := range weight {
		weight[i] = 1
		mean[i] = 2
		sum[i] = 1
	}
	// A hole surrounded on all sides and one on the edge.
	for _, i := range []int{5, 8} {
		weight[i], mean[i], sum[i] = 0, 0, 0
	}
	mean[6] = 10
	weight[6] = 3

	maps := [][]float64{mean, sum}
	modes := []Mode{ModeMean, ModeSum}
	n := fillGaps(maps, modes, weight, nx, ny, GapFill{Enabled: true, MinNeighbors: 5, Connectivity: 8})
	if n != 1 {
		t.Errorf("filled: have %d, want 1", n)
	}
	// Six neighbors of weight 1 and value 2, one of weight 3 and value 10.
	if want := (6*2 + 3*10) / 9.; different(mean[5], want, 1e-12) {
		t.Errorf("filled value: have %g, want %g", mean[5], want)
	}
	if mean[8] != 0 {
		t.Errorf("edge pixel with 4 neighbors should not be filled: %g", mean[8])
	}
	if sum[5] != 0 {
		t.Errorf("summed maps should not be filled: %g", sum[5])
	}
	if weight[5] != 0 {
		t.Errorf("the weight should not be changed: %g", weight[5])
	}

	// With 4-connectivity the edge pixel has 3 populated neighbors.
	n = fillGaps(maps, modes, weight, nx, ny, GapFill{Enabled: true, MinNeighbors: 3, Connectivity: 4})
	if n != 2 {
		t.Errorf("filled: have %d, want 2", n)
	}
	if n := fillGaps(maps, modes, weight, nx, ny, GapFill{}); n != 0 {
		t.Errorf("disabled: have %d", n)
	}
}

func TestFillGapsRegionEdge(t *testing.T) {
	const nx, ny = 5, 5
	weight := make([]float64, nx*ny)
	mean := make([]float64, nx*ny)
	for i := range weight {
		weight[i], mean[i] = 1, 2
	}
	// An empty 2x2 corner: pixel (1, 1) has five populated neighbors
	// but none on its far sides.
	for _, i := range []int{0, 1, 5, 6} {
		weight[i], mean[i] = 0, 0
	}
	n := fillGaps([][]float64{mean}, []Mode{ModeMean}, weight, nx, ny, GapFill{Enabled: true, MinNeighbors: 5, Connectivity: 8})
	if n != 0 {
		t.Errorf("filled: have %d, want 0", n)
	}
	if mean[6] != 0 {
		t.Errorf("corner pixel: have %g, want 0", mean[6])
	}
}

func TestGapFillDefaults(t *testing.T) {
	c, err := GapFill{Enabled: true}.withDefaults()
	if err != nil {
		t.Fatal(err)
	}
	if c.Connectivity != 8 || c.MinNeighbors != 5 || c.Threshold != 0 {
		t.Errorf("have %+v", c)
	}
	for _, bad := range []GapFill{
		{Connectivity: 6},
		{Connectivity: 4, MinNeighbors: 5},
		{Threshold: 1},
		{Threshold: -0.1},
	} {
		if _, err := bad.withDefaults(); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%+v: have %v", bad, err)
		}
	}
}

func TestProjectGapFill(t *testing.T) {
	tbl := testTable(t, 2, 5)
	mask := make([]bool, tbl.Len())
	for i := range mask {
		// Drop a single fine column so that its pixels are empty.
		c := tbl.Center(i)
		mask[i] = !(tbl.Level(i) == 5 && c[0] > 15./32 && c[0] < 16./32 && c[1] > 15./32 && c[1] < 16./32)
	}
	req := Request{
		Variables:  []string{"mass", "v"},
		Resolution: 32,
		ZRange:     []float64{-0.1, 0.1},
		Mask:       mask,
	}
	plain, err := Project(tbl, &req)
	if err != nil {
		t.Fatal(err)
	}
	req.GapFill = GapFill{Enabled: true}
	filled, err := Project(tbl, &req)
	if err != nil {
		t.Fatal(err)
	}
	if filled.Filled != 1 {
		t.Errorf("filled: have %d, want 1", filled.Filled)
	}
	if plain.At("v", 15, 15) != 0 || filled.At("v", 15, 15) <= 0 {
		t.Errorf("gap: have %g before and %g after filling", plain.At("v", 15, 15), filled.At("v", 15, 15))
	}
	compareMaps(t, "mass", filled.Maps["mass"].Elements, plain.Maps["mass"].Elements, 0)
}
