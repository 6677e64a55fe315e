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

// StandardUnit is the unit symbol for values in simulation code units.
// The empty string is treated the same way.
const StandardUnit = "standard"

var (
	// SurfaceDensity is mass per unit area, the dimension of projected
	// density maps.
	SurfaceDensity = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -2}
)

// dimensionNames holds the dimension names that may be used in scale
// table files.
var dimensionNames = map[string]unit.Dimensions{
	"dimensionless":  unit.Dimless,
	"length":         unit.Meter,
	"area":           unit.Meter2,
	"volume":         unit.Meter3,
	"mass":           unit.Kilogram,
	"density":        unit.KilogramPerMeter3,
	"surfacedensity": SurfaceDensity,
	"velocity":       unit.MeterPerSecond,
	"pressure":       unit.Pascal,
	"temperature":    unit.Kelvin,
	"energy":         unit.Joule,
	"time":           unit.Second,
}

// DimensionsByName returns the dimensions with the given name, e.g.
// "length" or "density".
func DimensionsByName(name string) (unit.Dimensions, bool) {
	d, ok := dimensionNames[name]
	return d, ok
}

// DimensionName returns the name of d, or its SI representation if
// it does not have a name.
func DimensionName(d unit.Dimensions) string {
	names := make([]string, 0, len(dimensionNames))
	for n := range dimensionNames {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if dimensionNames[n].Matches(d) {
			return n
		}
	}
	return d.String()
}

// Scale converts values of dimension Dims from code units into a
// physical unit: physical = Factor * code.
type Scale struct {
	Factor float64
	Dims   unit.Dimensions
}

// ScaleTable maps unit symbols (e.g. "kpc", "Msol", "km_s") to the
// factors that convert code-unit values into them. It is supplied by
// the loader of the simulation output and is read-only afterwards.
type ScaleTable map[string]Scale

// NewScaleTable returns an empty scale table. Only code units are
// available until symbols are added.
func NewScaleTable() ScaleTable { return make(ScaleTable) }

// Add registers symbol with the given conversion factor and dimensions.
func (s ScaleTable) Add(symbol string, factor float64, dims unit.Dimensions) error {
	if symbol == "" || symbol == StandardUnit {
		return fmt.Errorf("amrmap: unit symbol %q is reserved for code units", symbol)
	}
	if !(factor > 0) || math.IsInf(factor, 0) {
		return fmt.Errorf("amrmap: unit %q: scale factor must be positive and finite, have %g", symbol, factor)
	}
	s[symbol] = Scale{Factor: factor, Dims: dims}
	return nil
}

// Symbols returns the symbols in the table in sorted order.
func (s ScaleTable) Symbols() []string {
	o := make([]string, 0, len(s))
	for sym := range s {
		o = append(o, sym)
	}
	sort.Strings(o)
	return o
}

// Factor returns the factor converting code-unit values of dimension dims
// into symbol. Code units ("" or "standard") always have a factor of 1.
func (s ScaleTable) Factor(symbol string, dims unit.Dimensions) (float64, error) {
	if symbol == "" || symbol == StandardUnit {
		return 1, nil
	}
	sc, ok := s[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: unit %q is not in the scale table", ErrIncompatibleUnit, symbol)
	}
	if err := unit.New(sc.Factor, sc.Dims).Check(dims); err != nil {
		return 0, fmt.Errorf("%w: unit %q: %v", ErrIncompatibleUnit, symbol, err)
	}
	return sc.Factor, nil
}
