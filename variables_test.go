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
	"math"
	"testing"

	"github.com/ctessum/unit"
)

func smallTable(t *testing.T) *CellTable {
	tbl, err := NewCellTable(CellData{
		BoxLength: 1,
		Lmin:      1,
		Lmax:      2,
		Levels:    []int{1, 2},
		Coords:    [][3]int{{0, 0, 0}, {3, 3, 3}},
		Fields: map[string][]float64{
			"rho":   {2, 4},
			"vx":    {3, 0},
			"vy":    {4, 0},
			"vz":    {0, 1},
			"p":     {1.2, 0.6},
			"metal": {0.02, 0.01},
		},
		FieldDims: map[string]unit.Dimensions{"metal": unit.Dimless},
		Scales:    testScales(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestResolve(t *testing.T) {
	tbl := smallTable(t)
	for _, test := range []struct {
		name, unit string
		want       []float64
	}{
		{"rho", "", []float64{2, 4}},
		{"metal", "", []float64{0.02, 0.01}},
		{"mass", "", []float64{2. / 8, 4. / 64}},
		{"mass", "Msol", []float64{2e10 / 8, 4e10 / 64}},
		{"volume", "", []float64{1. / 8, 1. / 64}},
		{"cellsize", "kpc", []float64{50, 25}},
		{"level", "", []float64{1, 2}},
		{"x", "", []float64{0.25, 0.875}},
		{"v", "", []float64{5, 1}},
		{"v", "km_s", []float64{5 * 65.6, 65.6}},
		{"ekin", "", []float64{0.5 * 2. / 8 * 25, 0.5 * 4. / 64}},
		{"cs", "", []float64{math.Sqrt(DefaultGamma * 0.6), math.Sqrt(DefaultGamma * 0.15)}},
		{"mach", "", []float64{5 / math.Sqrt(DefaultGamma*0.6), 1 / math.Sqrt(DefaultGamma*0.15)}},
		{"T", "", []float64{0.6, 0.15}},
		{"r_sphere", "", []float64{math.Sqrt(3 * 0.25 * 0.25), math.Sqrt(3 * 0.375 * 0.375)}},
		{"r_cylinder", "", []float64{math.Sqrt(2 * 0.25 * 0.25), math.Sqrt(2 * 0.375 * 0.375)}},
	} {
		have, err := Resolve(tbl, test.name, test.unit)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		for i := range have {
			if different(have[i], test.want[i], 1e-12) {
				t.Errorf("%s [%s] cell %d: have %g, want %g", test.name, test.unit, i, have[i], test.want[i])
			}
		}
	}
}

func TestResolveSelection(t *testing.T) {
	tbl := smallTable(t)
	r := NewResolver(tbl)
	v, err := r.Resolve("rho", "", []int{1})
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 1 || v[0] != 4 {
		t.Errorf("have %v, want [4]", v)
	}
	v, err = r.Resolve("mass", "", []int{})
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 0 {
		t.Errorf("empty selection: have %v", v)
	}
	r.Center = [3]float64{0.25, 0.25, 0}
	r.Axis = AxisY
	v, err = r.Resolve("r_cylinder", "", []int{0})
	if err != nil {
		t.Fatal(err)
	}
	if different(v[0], 0.25, 1e-12) {
		t.Errorf("r_cylinder around y: have %g, want 0.25", v[0])
	}
}

func TestResolveErrors(t *testing.T) {
	tbl := smallTable(t)
	for _, test := range []struct {
		name, unit string
		want       error
	}{
		{"entropy", "", ErrUnknownVariable},
		{"rho", "kpc", ErrIncompatibleUnit},
		{"mass", "lb", ErrIncompatibleUnit},
		{"metal", "K", ErrIncompatibleUnit},
	} {
		_, err := Resolve(tbl, test.name, test.unit)
		if !errors.Is(err, test.want) {
			t.Errorf("%s [%s]: have %v, want %v", test.name, test.unit, err, test.want)
		}
		var ve *VariableError
		if !errors.As(err, &ve) || ve.Variable != test.name {
			t.Errorf("%s: error should name the variable: %v", test.name, err)
		}
	}

	// Derived variables need their raw fields.
	noVel, err := NewCellTable(CellData{
		BoxLength: 1, Lmax: 0,
		Levels: []int{0}, Coords: [][3]int{{0, 0, 0}},
		Fields: map[string][]float64{"rho": {1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(noVel, "v", ""); !errors.Is(err, ErrUnknownVariable) {
		t.Errorf("have %v, want unknown variable", err)
	}
	if _, err := Resolve(noVel, "mass", ""); err != nil {
		t.Error(err)
	}
}

func TestDefaultModes(t *testing.T) {
	tbl := smallTable(t)
	for name, want := range map[string]Mode{
		"mass": ModeSum, "volume": ModeSum, "ekin": ModeSum,
		"rho": ModeMean, "v": ModeMean, "T": ModeMean, "metal": ModeMean,
	} {
		info, err := tbl.Describe(name)
		if err != nil {
			t.Fatal(err)
		}
		if info.DefaultMode() != want {
			t.Errorf("%s: have %v, want %v", name, info.DefaultMode(), want)
		}
	}
}
