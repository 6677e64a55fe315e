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
	"math"
	"sort"

	"github.com/ctessum/unit"
)

// MaxLevel is the finest refinement level that can be represented.
const MaxLevel = 30

// DefaultGamma is the adiabatic index used when none is specified.
const DefaultGamma = 5. / 3.

// CellData holds the columns used to create a CellTable. The slices are
// not copied and must not be modified after NewCellTable is called.
type CellData struct {
	// BoxLength is the edge length of the cubic simulation box in code units.
	BoxLength float64

	// Lmin and Lmax are the coarsest and finest levels in the table.
	Lmin, Lmax int

	// Levels holds the refinement level of each cell.
	Levels []int

	// Coords holds the integer index of each cell at its level along
	// x, y, and z. Each index must be in [0, 2^level).
	Coords [][3]int

	// Fields holds the raw field values, one value per cell.
	Fields map[string][]float64

	// FieldDims optionally specifies the dimensions of raw fields that
	// are not among the standard hydro fields. Fields missing here are
	// dimensionless.
	FieldDims map[string]unit.Dimensions

	// Gamma is the adiabatic index. Zero means DefaultGamma.
	Gamma float64

	// Scales converts code units to physical units. Nil means only
	// code units are available.
	Scales ScaleTable
}

// CellTable is an immutable, columnar collection of AMR cells. It is
// safe for concurrent use by multiple projections.
type CellTable struct {
	levels    []int
	coords    [][3]int
	fields    map[string][]float64
	fieldDims map[string]unit.Dimensions
	lmin      int
	lmax      int
	boxLength float64
	gamma     float64
	scales    ScaleTable
}

// NewCellTable checks d for consistency and returns a cell table holding it.
func NewCellTable(d CellData) (*CellTable, error) {
	if !(d.BoxLength > 0) || math.IsInf(d.BoxLength, 0) {
		return nil, invalidParam("BoxLength", d.BoxLength, "must be positive and finite")
	}
	if d.Lmin < 0 || d.Lmax > MaxLevel || d.Lmin > d.Lmax {
		return nil, invalidParam("level range", [2]int{d.Lmin, d.Lmax},
			"must satisfy 0 <= lmin <= lmax <= %d", MaxLevel)
	}
	if len(d.Levels) != len(d.Coords) {
		return nil, invalidParam("Coords", len(d.Coords), "have %d coordinates for %d levels",
			len(d.Coords), len(d.Levels))
	}
	for i, l := range d.Levels {
		if l < d.Lmin || l > d.Lmax {
			return nil, invalidParam("Levels", l, "cell %d is outside of level range [%d, %d]",
				i, d.Lmin, d.Lmax)
		}
		n := 1 << uint(l)
		for _, c := range d.Coords[i] {
			if c < 0 || c >= n {
				return nil, invalidParam("Coords", d.Coords[i],
					"cell %d at level %d must have indices in [0, %d)", i, l, n)
			}
		}
	}
	for name, v := range d.Fields {
		if len(v) != len(d.Levels) {
			return nil, invalidParam("Fields", name, "have %d values for %d cells", len(v), len(d.Levels))
		}
	}
	t := &CellTable{
		levels:    d.Levels,
		coords:    d.Coords,
		fields:    d.Fields,
		fieldDims: d.FieldDims,
		lmin:      d.Lmin,
		lmax:      d.Lmax,
		boxLength: d.BoxLength,
		gamma:     d.Gamma,
		scales:    d.Scales,
	}
	if t.fields == nil {
		t.fields = make(map[string][]float64)
	}
	if t.gamma == 0 {
		t.gamma = DefaultGamma
	}
	if t.scales == nil {
		t.scales = NewScaleTable()
	}
	return t, nil
}

// Len returns the number of cells in the table.
func (t *CellTable) Len() int { return len(t.levels) }

// Level returns the refinement level of cell i.
func (t *CellTable) Level(i int) int { return t.levels[i] }

// Coord returns the integer coordinates of cell i at its level.
func (t *CellTable) Coord(i int) [3]int { return t.coords[i] }

// Field returns the values of the raw field with the given name.
// The returned slice must not be modified.
func (t *CellTable) Field(name string) ([]float64, bool) {
	v, ok := t.fields[name]
	return v, ok
}

// FieldNames returns the names of the raw fields in sorted order.
func (t *CellTable) FieldNames() []string {
	o := make([]string, 0, len(t.fields))
	for n := range t.fields {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}

// FieldDims returns the dimensions of a raw field that are not implied
// by its name.
func (t *CellTable) FieldDims(name string) (unit.Dimensions, bool) {
	d, ok := t.fieldDims[name]
	return d, ok
}

// LevelRange returns the coarsest and finest levels of the table.
func (t *CellTable) LevelRange() (lmin, lmax int) { return t.lmin, t.lmax }

// BoxLength returns the edge length of the simulation box in code units.
func (t *CellTable) BoxLength() float64 { return t.boxLength }

// Gamma returns the adiabatic index.
func (t *CellTable) Gamma() float64 { return t.gamma }

// Scales returns the table that converts code units to physical units.
func (t *CellTable) Scales() ScaleTable { return t.scales }

// CellSize returns the edge length of cells at the given level.
func (t *CellTable) CellSize(level int) float64 {
	return t.boxLength / float64(int64(1)<<uint(level))
}

// Center returns the position of the center of cell i in code units.
func (t *CellTable) Center(i int) [3]float64 {
	s := t.CellSize(t.levels[i])
	c := t.coords[i]
	return [3]float64{
		(float64(c[0]) + 0.5) * s,
		(float64(c[1]) + 0.5) * s,
		(float64(c[2]) + 0.5) * s,
	}
}

// BoxCenter returns the geometric center of the simulation box.
func (t *CellTable) BoxCenter() [3]float64 {
	h := t.boxLength / 2
	return [3]float64{h, h, h}
}

// LevelCounts returns the number of cells at each level from lmin to lmax.
func (t *CellTable) LevelCounts() []int {
	o := make([]int, t.lmax-t.lmin+1)
	for _, l := range t.levels {
		o[l-t.lmin]++
	}
	return o
}

func (t *CellTable) String() string {
	return fmt.Sprintf("CellTable{cells: %d, levels: [%d, %d], box: %g, fields: %v}",
		t.Len(), t.lmin, t.lmax, t.boxLength, t.FieldNames())
}
