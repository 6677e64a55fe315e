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
	"gonum.org/v1/gonum/floats"
)

// Raw hydro fields with known dimensions.
var rawDims = map[string]unit.Dimensions{
	"rho": unit.KilogramPerMeter3,
	"vx":  unit.MeterPerSecond,
	"vy":  unit.MeterPerSecond,
	"vz":  unit.MeterPerSecond,
	"p":   unit.Pascal,
}

// cellView gives derivation functions access to one cell.
type cellView struct {
	t      *CellTable
	fields map[string][]float64
	center [3]float64 // reference point for radii
	axis   Axis       // cylinder axis
}

func (c *cellView) f(name string, i int) float64 { return c.fields[name][i] }

func (c *cellView) volume(i int) float64 {
	s := c.t.CellSize(c.t.levels[i])
	return s * s * s
}

func (c *cellView) speed2(i int) float64 {
	vx, vy, vz := c.f("vx", i), c.f("vy", i), c.f("vz", i)
	return vx*vx + vy*vy + vz*vz
}

func (c *cellView) soundSpeed(i int) float64 {
	rho := c.f("rho", i)
	if rho <= 0 {
		return 0
	}
	return math.Sqrt(c.t.gamma * c.f("p", i) / rho)
}

// derived is a quantity computed from the raw fields and cell geometry.
type derived struct {
	dims      unit.Dimensions
	extensive bool
	needs     []string
	eval      func(c *cellView, i int) float64

	// column marks a column density through the cell. Summed over a
	// map it becomes the surface density of each pixel.
	column bool
}

// derivedVars is the closed set of quantities that can be derived
// from the raw fields.
var derivedVars = map[string]derived{
	"mass": {
		dims: unit.Kilogram, extensive: true, needs: []string{"rho"},
		eval: func(c *cellView, i int) float64 { return c.f("rho", i) * c.volume(i) },
	},
	"sd": {
		dims: SurfaceDensity, extensive: true, needs: []string{"rho"}, column: true,
		eval: func(c *cellView, i int) float64 { return c.f("rho", i) * c.t.CellSize(c.t.levels[i]) },
	},
	"volume": {
		dims: unit.Meter3, extensive: true,
		eval: func(c *cellView, i int) float64 { return c.volume(i) },
	},
	"cellsize": {
		dims: unit.Meter,
		eval: func(c *cellView, i int) float64 { return c.t.CellSize(c.t.levels[i]) },
	},
	"level": {
		dims: unit.Dimless,
		eval: func(c *cellView, i int) float64 { return float64(c.t.levels[i]) },
	},
	"x": {
		dims: unit.Meter,
		eval: func(c *cellView, i int) float64 { return c.t.Center(i)[0] },
	},
	"y": {
		dims: unit.Meter,
		eval: func(c *cellView, i int) float64 { return c.t.Center(i)[1] },
	},
	"z": {
		dims: unit.Meter,
		eval: func(c *cellView, i int) float64 { return c.t.Center(i)[2] },
	},
	"v": {
		dims: unit.MeterPerSecond, needs: []string{"vx", "vy", "vz"},
		eval: func(c *cellView, i int) float64 { return math.Sqrt(c.speed2(i)) },
	},
	"ekin": {
		dims: unit.Joule, extensive: true, needs: []string{"rho", "vx", "vy", "vz"},
		eval: func(c *cellView, i int) float64 {
			return 0.5 * c.f("rho", i) * c.volume(i) * c.speed2(i)
		},
	},
	"cs": {
		dims: unit.MeterPerSecond, needs: []string{"rho", "p"},
		eval: func(c *cellView, i int) float64 { return c.soundSpeed(i) },
	},
	"mach": {
		dims: unit.Dimless, needs: []string{"rho", "p", "vx", "vy", "vz"},
		eval: func(c *cellView, i int) float64 {
			cs := c.soundSpeed(i)
			if cs == 0 {
				return 0
			}
			return math.Sqrt(c.speed2(i)) / cs
		},
	},
	"T": {
		dims: unit.Kelvin, needs: []string{"rho", "p"},
		eval: func(c *cellView, i int) float64 {
			rho := c.f("rho", i)
			if rho <= 0 {
				return 0
			}
			return c.f("p", i) / rho
		},
	},
	"r_sphere": {
		dims: unit.Meter,
		eval: func(c *cellView, i int) float64 {
			p := c.t.Center(i)
			dx, dy, dz := p[0]-c.center[0], p[1]-c.center[1], p[2]-c.center[2]
			return math.Sqrt(dx*dx + dy*dy + dz*dz)
		},
	},
	"r_cylinder": {
		dims: unit.Meter,
		eval: func(c *cellView, i int) float64 {
			p := c.t.Center(i)
			u, v := c.axis.planeAxes()
			du, dv := p[u]-c.center[u], p[v]-c.center[v]
			return math.Sqrt(du*du + dv*dv)
		},
	},
}

// DerivedVariables returns the names of the quantities that can be
// derived from the raw fields, in sorted order.
func DerivedVariables() []string {
	o := make([]string, 0, len(derivedVars))
	for n := range derivedVars {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}

// VariableInfo describes a resolvable variable.
type VariableInfo struct {
	Name      string
	Dims      unit.Dimensions
	Extensive bool // Extensive variables are summed by default.
	Derived   bool
}

// DefaultMode returns the reduction mode used for the variable when
// none is requested.
func (v VariableInfo) DefaultMode() Mode {
	if v.Extensive {
		return ModeSum
	}
	return ModeMean
}

// Describe returns information about the variable name. Raw fields in the
// table take precedence over derived quantities of the same name.
func (t *CellTable) Describe(name string) (VariableInfo, error) {
	if _, ok := t.fields[name]; ok {
		d, ok := t.fieldDims[name]
		if !ok {
			d, ok = rawDims[name]
		}
		if !ok {
			d = unit.Dimless
		}
		return VariableInfo{Name: name, Dims: d}, nil
	}
	dv, ok := derivedVars[name]
	if !ok {
		return VariableInfo{}, &VariableError{
			Variable: name,
			Reason:   "not a field in the cell table or a derived quantity",
			Err:      ErrUnknownVariable,
		}
	}
	for _, n := range dv.needs {
		if _, ok := t.fields[n]; !ok {
			return VariableInfo{}, &VariableError{
				Variable: name,
				Reason:   fmt.Sprintf("requires field %q, which is not in the cell table", n),
				Err:      ErrUnknownVariable,
			}
		}
	}
	return VariableInfo{Name: name, Dims: dv.dims, Extensive: dv.extensive, Derived: true}, nil
}

// columnDensity returns whether name resolves to the derived column
// density rather than a raw field.
func (t *CellTable) columnDensity(name string) bool {
	if _, ok := t.fields[name]; ok {
		return false
	}
	return derivedVars[name].column
}

// UnitFactor returns the factor converting the variable name from code
// units into unitSymbol.
func (t *CellTable) UnitFactor(name, unitSymbol string) (VariableInfo, float64, error) {
	info, err := t.Describe(name)
	if err != nil {
		return info, 0, err
	}
	f, err := t.scales.Factor(unitSymbol, info.Dims)
	if err != nil {
		return info, 0, &VariableError{
			Variable: name,
			Unit:     unitSymbol,
			Reason:   fmt.Sprintf("%v (variable has dimension %s)", err, DimensionName(info.Dims)),
			Err:      ErrIncompatibleUnit,
		}
	}
	return info, f, nil
}

// Resolver evaluates raw and derived variables for selections of cells.
// It is stateless apart from its reference point and can be used
// concurrently.
type Resolver struct {
	Table *CellTable

	// Center is the reference point for r_sphere and r_cylinder, in code units.
	Center [3]float64

	// Axis is the axis of the cylinder used by r_cylinder.
	Axis Axis
}

// NewResolver returns a resolver for t that measures radii from the box
// center with a cylinder axis along z.
func NewResolver(t *CellTable) *Resolver {
	return &Resolver{Table: t, Center: t.BoxCenter(), Axis: AxisZ}
}

// Resolve returns the values of variable name in unitSymbol for the
// cells with the given table indices. A nil selection means every cell.
// The returned slice has one value per selected cell.
func (r *Resolver) Resolve(name, unitSymbol string, sel []int) ([]float64, error) {
	t := r.Table
	info, factor, err := t.UnitFactor(name, unitSymbol)
	if err != nil {
		return nil, err
	}
	n := t.Len()
	if sel != nil {
		n = len(sel)
	}
	out := make([]float64, n)
	index := func(k int) int {
		if sel == nil {
			return k
		}
		return sel[k]
	}
	if !info.Derived {
		raw := t.fields[name]
		for k := range out {
			out[k] = raw[index(k)]
		}
	} else {
		c := &cellView{t: t, fields: t.fields, center: r.Center, axis: r.Axis}
		eval := derivedVars[name].eval
		for k := range out {
			out[k] = eval(c, index(k))
		}
	}
	if factor != 1 {
		floats.Scale(factor, out)
	}
	return out, nil
}

// Resolve returns the values of variable name in unitSymbol for every
// cell of t, measuring radii from the box center.
func Resolve(t *CellTable, name, unitSymbol string) ([]float64, error) {
	return NewResolver(t).Resolve(name, unitSymbol, nil)
}
