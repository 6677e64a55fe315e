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
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
)

// Result holds the maps produced by a projection.
type Result struct {
	// Variables lists the projected variables in request order.
	Variables []string

	// Maps holds one map per variable with shape [Ny, Nx]; element
	// (iy, ix) is pixel column ix along U and row iy along V.
	Maps map[string]*sparse.DenseArray

	Units map[string]string
	Modes map[string]Mode

	// Weight is the weighting variable and WeightMap its projection,
	// or nil if no mode is weighted.
	Weight    string
	WeightMap *sparse.DenseArray

	Direction Axis
	U, V      Axis

	Nx, Ny    int
	PixelSize float64 // code units

	// Extent is the area covered by the maps as
	// [umin, umax, vmin, vmax] in code units.
	Extent [4]float64

	// Range is the selected region along x, y, and z in code units.
	Range [3][2]float64

	// Center is the reference point of the projection in code units.
	Center [3]float64

	LevelRange [2]int
	LevelMax   int
	BoxLength  float64
	Scales     ScaleTable

	Strategy Strategy
	Threads  int

	// Selected is the number of cells deposited.
	Selected int

	// Totals holds the sum over the selected cells of each summed
	// variable, and Outside the part of that sum that fell outside
	// of the map extent. Sum(map) + Outside equals Totals.
	Totals  map[string]float64
	Outside map[string]float64

	// Filled is the number of pixels set by gap filling.
	Filled int
}

// newResult creates a result with all-zero maps.
func newResult(t *CellTable, g *Geometry, vars, units []string, modes []Mode, weight string) *Result {
	lmin, lmax := t.LevelRange()
	r := &Result{
		Variables:  vars,
		Maps:       make(map[string]*sparse.DenseArray),
		Units:      make(map[string]string),
		Modes:      make(map[string]Mode),
		Weight:     weight,
		Direction:  g.Direction,
		U:          g.U,
		V:          g.V,
		Nx:         g.Nx,
		Ny:         g.Ny,
		PixelSize:  g.PixelSize,
		Extent:     [4]float64{g.Extent.Min.X, g.Extent.Max.X, g.Extent.Min.Y, g.Extent.Max.Y},
		Range:      g.Range,
		Center:     g.Center,
		LevelRange: [2]int{lmin, lmax},
		LevelMax:   g.LevelMax,
		BoxLength:  t.BoxLength(),
		Scales:     t.Scales(),
		Totals:     make(map[string]float64),
		Outside:    make(map[string]float64),
	}
	weighted := false
	for i, v := range vars {
		r.Maps[v] = sparse.ZerosDense(g.Ny, g.Nx)
		r.Units[v] = units[i]
		r.Modes[v] = modes[i]
		if modes[i] == ModeSum {
			r.Totals[v] = 0
			r.Outside[v] = 0
		}
		weighted = weighted || modes[i].weighted()
	}
	if weighted {
		r.WeightMap = sparse.ZerosDense(g.Ny, g.Nx)
	} else {
		r.Weight = ""
	}
	return r
}

// Bounds returns the extent of the maps.
func (r *Result) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: r.Extent[0], Y: r.Extent[2]},
		Max: geom.Point{X: r.Extent[1], Y: r.Extent[3]},
	}
}

// At returns the value of variable name at pixel (ix, iy).
func (r *Result) At(name string, ix, iy int) float64 {
	return r.Maps[name].Get(iy, ix)
}

// Sum returns the sum over all pixels of the map of variable name.
func (r *Result) Sum(name string) float64 {
	m, ok := r.Maps[name]
	if !ok {
		return 0
	}
	return m.Sum()
}

// PixelCenters returns the coordinates in code units of the pixel
// centers along U and V.
func (r *Result) PixelCenters() (u, v []float64) {
	u = make([]float64, r.Nx)
	for i := range u {
		u[i] = r.Extent[0] + (float64(i)+0.5)*r.PixelSize
	}
	v = make([]float64, r.Ny)
	for i := range v {
		v[i] = r.Extent[2] + (float64(i)+0.5)*r.PixelSize
	}
	return u, v
}

// ExtentIn returns the extent converted to the given length unit.
func (r *Result) ExtentIn(unitSymbol string) ([4]float64, error) {
	f, err := r.Scales.Factor(unitSymbol, unit.Meter)
	if err != nil {
		return [4]float64{}, fmt.Errorf("amrmap: extent: %w", err)
	}
	return [4]float64{r.Extent[0] * f, r.Extent[1] * f, r.Extent[2] * f, r.Extent[3] * f}, nil
}

// PixelSizeIn returns the pixel size converted to the given length unit.
func (r *Result) PixelSizeIn(unitSymbol string) (float64, error) {
	f, err := r.Scales.Factor(unitSymbol, unit.Meter)
	if err != nil {
		return 0, fmt.Errorf("amrmap: pixel size: %w", err)
	}
	return r.PixelSize * f, nil
}
