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

import "math"

// GapFill configures the filling of empty pixels at resolution
// transitions. Only maps of weighted (intensive) quantities are filled;
// summed maps and the weight map are never changed, so filling cannot
// create mass.
type GapFill struct {
	// Enabled turns gap filling on.
	Enabled bool

	// Threshold is the fraction of the largest absolute pixel weight at
	// or below which a pixel is considered empty. Zero means only pixels
	// with no weight at all are empty.
	Threshold float64

	// MinNeighbors is the number of populated neighbors an empty pixel
	// needs to be filled. Zero means 5 for 8-connectivity and 3 for
	// 4-connectivity.
	MinNeighbors int

	// Connectivity is 4 or 8. Zero means 8.
	Connectivity int
}

// withDefaults checks c and fills in default values.
func (c GapFill) withDefaults() (GapFill, error) {
	if c.Connectivity == 0 {
		c.Connectivity = 8
	}
	if c.Connectivity != 4 && c.Connectivity != 8 {
		return c, invalidParam("GapFill.Connectivity", c.Connectivity, "must be 4 or 8")
	}
	if c.MinNeighbors == 0 {
		if c.Connectivity == 8 {
			c.MinNeighbors = 5
		} else {
			c.MinNeighbors = 3
		}
	}
	if c.MinNeighbors < 1 || c.MinNeighbors > c.Connectivity {
		return c, invalidParam("GapFill.MinNeighbors", c.MinNeighbors, "must be in [1, %d]", c.Connectivity)
	}
	if c.Threshold < 0 || c.Threshold >= 1 || !finite(c.Threshold) {
		return c, invalidParam("GapFill.Threshold", c.Threshold, "must be in [0, 1)")
	}
	return c, nil
}

var (
	neighbors4 = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	neighbors8 = [][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
)

// fillGaps replaces empty pixels of the weighted maps that are surrounded
// by populated pixels with the weighted average of their populated
// neighbors. An empty pixel is only filled when populated pixels lie on
// both sides of it along at least one map axis, so the edges of the
// sampled region are left alone. Values are taken from the maps as they were before filling,
// so the result does not depend on scan order. It returns the number of
// pixels filled.
func fillGaps(maps [][]float64, modes []Mode, weight []float64, nx, ny int, c GapFill) int {
	if !c.Enabled || weight == nil || nx*ny == 0 {
		return 0
	}
	var intensive []int
	for j, m := range modes {
		if m.weighted() {
			intensive = append(intensive, j)
		}
	}
	if len(intensive) == 0 {
		return 0
	}
	var wmax float64
	for _, w := range weight {
		wmax = math.Max(wmax, math.Abs(w))
	}
	threshold := c.Threshold * wmax
	populated := func(i int) bool { return math.Abs(weight[i]) > threshold }
	at := func(ix, iy int) bool {
		return ix >= 0 && iy >= 0 && ix < nx && iy < ny && populated(iy*nx+ix)
	}
	bracketed := func(ix, iy int) bool {
		return (at(ix-1, iy) && at(ix+1, iy)) || (at(ix, iy-1) && at(ix, iy+1))
	}

	offsets := neighbors8
	if c.Connectivity == 4 {
		offsets = neighbors4
	}
	orig := make([][]float64, len(maps))
	for _, j := range intensive {
		orig[j] = append([]float64(nil), maps[j]...)
	}

	filled := 0
	nbrs := make([]int, 0, 8)
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			i := iy*nx + ix
			if populated(i) || !bracketed(ix, iy) {
				continue
			}
			nbrs = nbrs[:0]
			for _, o := range offsets {
				jx, jy := ix+o[0], iy+o[1]
				if jx < 0 || jy < 0 || jx >= nx || jy >= ny {
					continue
				}
				if n := jy*nx + jx; populated(n) {
					nbrs = append(nbrs, n)
				}
			}
			if len(nbrs) < c.MinNeighbors {
				continue
			}
			var wsum float64
			for _, n := range nbrs {
				wsum += weight[n]
			}
			for _, j := range intensive {
				var v float64
				for _, n := range nbrs {
					v += weight[n] * orig[j][n]
				}
				maps[j][i] = ratio(v, wsum)
			}
			filled++
		}
	}
	return filled
}
