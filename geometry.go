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
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/unit"
)

// Axis is a coordinate axis of the simulation box.
type Axis int

// The coordinate axes.
const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "invalid"
	}
}

// ParseDirection returns the axis named by s ("x", "y", or "z"). An empty
// string means the z axis.
func ParseDirection(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z", "":
		return AxisZ, nil
	}
	return 0, &ParameterError{
		Param:  "Direction",
		Value:  s,
		Reason: "must be x, y, or z",
		Err:    ErrInvalidDirection,
	}
}

// planeAxes returns the in-plane axes of a projection along a:
// z projects onto (x, y), y onto (x, z), and x onto (y, z).
func (a Axis) planeAxes() (u, v Axis) {
	switch a {
	case AxisX:
		return AxisY, AxisZ
	case AxisY:
		return AxisX, AxisZ
	default:
		return AxisX, AxisY
	}
}

// Geometry describes the output grid of a projection. All lengths are in
// code units.
type Geometry struct {
	Direction Axis
	U, V      Axis // in-plane axes, mapped to map columns and rows.

	Nx, Ny    int
	PixelSize float64

	// Extent is the in-plane area covered by the map: X is along U and
	// Y is along V.
	Extent *geom.Bounds

	// Range is the selected region along each box axis.
	Range [3][2]float64

	// Center is the reference point for ranges and radii.
	Center [3]float64

	// LevelMax is the level that finer cells are coarsened to, or 0 for
	// no coarsening.
	LevelMax int

	boxLength float64
}

// Empty returns whether the output grid has no pixels.
func (g *Geometry) Empty() bool { return g.Nx == 0 || g.Ny == 0 }

// index returns the flat index of pixel (ix, iy).
func (g *Geometry) index(ix, iy int) int { return iy*g.Nx + ix }

// lengthFactor returns the factor converting code lengths into rangeUnit.
func lengthFactor(scales ScaleTable, rangeUnit string) (float64, error) {
	f, err := scales.Factor(rangeUnit, unit.Meter)
	if err != nil {
		return 0, &VariableError{Variable: "RangeUnit", Unit: rangeUnit, Reason: err.Error(), Err: ErrIncompatibleUnit}
	}
	return f, nil
}

func finite(v ...float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// resolveCenter converts a user-specified center in rangeUnit into code
// units. An empty center means the center of the box.
func resolveCenter(t *CellTable, center []float64, f float64) ([3]float64, error) {
	switch len(center) {
	case 0:
		return t.BoxCenter(), nil
	case 3:
		if !finite(center...) {
			return [3]float64{}, invalidParam("Center", center, "must be finite")
		}
		return [3]float64{center[0] / f, center[1] / f, center[2] / f}, nil
	default:
		return [3]float64{}, invalidParam("Center", center, "must have 3 values, have %d", len(center))
	}
}

// resolveRange converts ranges relative to center in rangeUnit into
// absolute code-unit ranges. A nil range covers the whole box.
func resolveRange(t *CellTable, center [3]float64, ranges [3][]float64, f float64) ([3][2]float64, error) {
	var o [3][2]float64
	names := [3]string{"XRange", "YRange", "ZRange"}
	for a, r := range ranges {
		switch len(r) {
		case 0:
			o[a] = [2]float64{0, t.BoxLength()}
		case 2:
			if !finite(r...) {
				return o, invalidRange(names[a], r, "must be finite")
			}
			if r[0] >= r[1] {
				return o, invalidRange(names[a], r, "min must be less than max")
			}
			o[a] = [2]float64{center[a] + r[0]/f, center[a] + r[1]/f}
		default:
			return o, invalidParam(names[a], r, "must have 2 values, have %d", len(r))
		}
	}
	return o, nil
}

// computeGeometry determines the output grid for req. When neither a
// resolution nor a pixel size is requested, the returned geometry is
// empty.
func computeGeometry(req *Request, t *CellTable) (*Geometry, error) {
	dir, err := ParseDirection(req.Direction)
	if err != nil {
		return nil, err
	}
	if req.Resolution < 0 {
		return nil, invalidParam("Resolution", req.Resolution, "must not be negative")
	}
	if req.PixelSize < 0 || !finite(req.PixelSize) {
		return nil, invalidParam("PixelSize", req.PixelSize, "must be a non-negative number")
	}
	if req.Resolution > 0 && req.PixelSize > 0 {
		return nil, invalidParam("PixelSize", req.PixelSize, "cannot be set together with Resolution (%d)", req.Resolution)
	}
	if req.LevelMax < 0 || req.LevelMax > MaxLevel {
		return nil, invalidParam("LevelMax", req.LevelMax, "must be in [0, %d]", MaxLevel)
	}
	f, err := lengthFactor(t.Scales(), req.RangeUnit)
	if err != nil {
		return nil, err
	}
	center, err := resolveCenter(t, req.Center, f)
	if err != nil {
		return nil, err
	}
	rng, err := resolveRange(t, center, [3][]float64{req.XRange, req.YRange, req.ZRange}, f)
	if err != nil {
		return nil, err
	}

	g := &Geometry{
		Direction: dir,
		Range:     rng,
		Center:    center,
		LevelMax:  req.LevelMax,
		boxLength: t.BoxLength(),
	}
	g.U, g.V = dir.planeAxes()
	umin, umax := rng[g.U][0], rng[g.U][1]
	vmin, vmax := rng[g.V][0], rng[g.V][1]
	g.Extent = &geom.Bounds{
		Min: geom.Point{X: umin, Y: vmin},
		Max: geom.Point{X: umin, Y: vmin},
	}
	eu, ev := umax-umin, vmax-vmin
	emax := math.Max(eu, ev)

	switch {
	case req.Resolution > 0:
		g.PixelSize = emax / float64(req.Resolution)
	case req.PixelSize > 0:
		g.PixelSize = req.PixelSize / f
	default:
		return g, nil
	}
	g.Nx = pixelCount(eu, g.PixelSize)
	g.Ny = pixelCount(ev, g.PixelSize)
	g.Extent.Max = geom.Point{
		X: umin + float64(g.Nx)*g.PixelSize,
		Y: vmin + float64(g.Ny)*g.PixelSize,
	}
	return g, nil
}

// pixelCount returns the number of pixels of size p needed to cover
// extent e. Round-off in e/p is ignored so that an extent that is an
// exact multiple of p does not gain an extra pixel.
func pixelCount(e, p float64) int {
	n := e / p
	r := math.Round(n)
	if math.Abs(n-r) <= 1e-9*math.Max(1, r) {
		n = r
	}
	c := int(math.Ceil(n))
	if c < 1 {
		c = 1
	}
	return c
}

// footprint returns the cell's level and integer coordinates after
// coarsening to LevelMax.
func (g *Geometry) footprint(level int, c [3]int) (int, [3]int) {
	if g.LevelMax > 0 && level > g.LevelMax {
		shift := uint(level - g.LevelMax)
		return g.LevelMax, [3]int{c[0] >> shift, c[1] >> shift, c[2] >> shift}
	}
	return level, c
}

// cellSize returns the edge length of cells at level.
func (g *Geometry) cellSize(level int) float64 {
	return g.boxLength / float64(int64(1)<<uint(level))
}

// selects returns whether a cell belongs in the projection: its center
// must be within the line-of-sight range and its footprint must overlap
// the in-plane range.
func (g *Geometry) selects(level int, c [3]int) bool {
	s := g.cellSize(level)
	w := g.Direction
	los := (float64(c[w]) + 0.5) * s
	if los < g.Range[w][0] || los >= g.Range[w][1] {
		return false
	}
	for _, a := range [2]Axis{g.U, g.V} {
		lo := float64(c[a]) * s
		if lo+s <= g.Range[a][0] || lo >= g.Range[a][1] {
			return false
		}
	}
	return true
}

// span computes the pixels along one map axis overlapped by the interval
// [lo, lo+size) and the fraction of the interval in each pixel. It returns
// the first pixel index; fracs is reused to hold the fractions. A cell
// entirely within one pixel has a fraction of exactly 1.
func span(lo, size, origin, pix float64, n int, fracs []float64) (int, []float64) {
	hi := lo + size
	first := int(math.Floor((lo - origin) / pix))
	last := int(math.Ceil((hi-origin)/pix)) - 1
	if first < 0 {
		first = 0
	}
	if last > n-1 {
		last = n - 1
	}
	fracs = fracs[:0]
	for i := first; i <= last; i++ {
		pl := origin + float64(i)*pix
		ph := pl + pix
		l, h := math.Max(lo, pl), math.Min(hi, ph)
		switch {
		case l == lo && h == hi:
			fracs = append(fracs, 1)
		case h > l:
			fracs = append(fracs, (h-l)/size)
		default:
			fracs = append(fracs, 0)
		}
	}
	return first, fracs
}
