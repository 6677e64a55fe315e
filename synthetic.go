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
	"math"
)

// SyntheticConfig describes a synthetic AMR snapshot: a box at level
// Lmin refined to Lmax inside a sphere, filled with a gas cloud.
type SyntheticConfig struct {
	BoxLength  float64
	Lmin, Lmax int

	// Center is the center of the refined sphere and the cloud in code
	// units. Nil means the box center.
	Center []float64

	// Radius is the radius of the refined sphere in code units.
	Radius float64

	// CoreRadius is the core radius of the density profile
	// rho = 1 / (1 + (r/CoreRadius)^2). Zero means uniform density 1.
	CoreRadius float64

	// Omega is the angular velocity of solid-body rotation about the
	// z axis through Center.
	Omega float64

	// Temperature is p/rho in code units. Zero means 1.
	Temperature float64

	Scales ScaleTable
}

// SyntheticCells returns the cell data described by c. The leaf cells
// tile the box without overlap.
func SyntheticCells(c SyntheticConfig) (CellData, error) {
	if !(c.BoxLength > 0) {
		return CellData{}, invalidParam("BoxLength", c.BoxLength, "must be positive")
	}
	if c.Lmin < 0 || c.Lmin > c.Lmax || c.Lmax > 10 {
		return CellData{}, invalidParam("level range", [2]int{c.Lmin, c.Lmax},
			"must satisfy 0 <= lmin <= lmax <= 10")
	}
	center := [3]float64{c.BoxLength / 2, c.BoxLength / 2, c.BoxLength / 2}
	if c.Center != nil {
		if len(c.Center) != 3 {
			return CellData{}, invalidParam("Center", c.Center, "must have 3 values")
		}
		copy(center[:], c.Center)
	}
	temp := c.Temperature
	if temp == 0 {
		temp = 1
	}

	d := CellData{
		BoxLength: c.BoxLength,
		Lmin:      c.Lmin,
		Lmax:      c.Lmax,
		Fields:    make(map[string][]float64),
		Scales:    c.Scales,
	}
	for _, f := range []string{"rho", "vx", "vy", "vz", "p"} {
		d.Fields[f] = nil
	}
	addLeaf := func(l int, ci [3]int) {
		s := c.BoxLength / float64(int(1)<<uint(l))
		var p [3]float64
		for a := range p {
			p[a] = (float64(ci[a])+0.5)*s - center[a]
		}
		r := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
		rho := 1.
		if c.CoreRadius > 0 {
			rho = 1 / (1 + (r/c.CoreRadius)*(r/c.CoreRadius))
		}
		d.Levels = append(d.Levels, l)
		d.Coords = append(d.Coords, ci)
		d.Fields["rho"] = append(d.Fields["rho"], rho)
		d.Fields["vx"] = append(d.Fields["vx"], -c.Omega*p[1])
		d.Fields["vy"] = append(d.Fields["vy"], c.Omega*p[0])
		d.Fields["vz"] = append(d.Fields["vz"], 0)
		d.Fields["p"] = append(d.Fields["p"], rho*temp)
	}
	// refine returns whether the sphere intersects cell ci at level l.
	refine := func(l int, ci [3]int) bool {
		s := c.BoxLength / float64(int(1)<<uint(l))
		var d2 float64
		for a := 0; a < 3; a++ {
			lo, hi := float64(ci[a])*s, float64(ci[a]+1)*s
			q := math.Max(lo, math.Min(center[a], hi))
			d2 += (q - center[a]) * (q - center[a])
		}
		return d2 < c.Radius*c.Radius
	}
	var walk func(l int, ci [3]int)
	walk = func(l int, ci [3]int) {
		if l < c.Lmax && refine(l, ci) {
			for o := 0; o < 8; o++ {
				walk(l+1, [3]int{2*ci[0] + o&1, 2*ci[1] + (o>>1)&1, 2*ci[2] + (o>>2)&1})
			}
			return
		}
		addLeaf(l, ci)
	}
	n := 1 << uint(c.Lmin)
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				walk(c.Lmin, [3]int{i, j, k})
			}
		}
	}
	return d, nil
}

// SyntheticTable returns a cell table holding the cells described by c.
func SyntheticTable(c SyntheticConfig) (*CellTable, error) {
	d, err := SyntheticCells(c)
	if err != nil {
		return nil, err
	}
	return NewCellTable(d)
}
