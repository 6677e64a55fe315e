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
	"testing"

	"github.com/ctessum/unit"
)

const testTolerance = 1.e-10

func different(a, b, tolerance float64) bool {
	if a == b {
		return false
	}
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

// testScales returns a scale table for a 100 kpc box.
func testScales() ScaleTable {
	s := NewScaleTable()
	for _, u := range []struct {
		sym    string
		factor float64
		dims   unit.Dimensions
	}{
		{"kpc", 100, unit.Meter},
		{"pc", 1e5, unit.Meter},
		{"Msol", 1e10, unit.Kilogram},
		{"km_s", 65.6, unit.MeterPerSecond},
		{"K", 5.2e5, unit.Kelvin},
		{"g_cm3", 6.8e-25, unit.KilogramPerMeter3},
		{"Msol_pc2", 1, SurfaceDensity},
	} {
		if err := s.Add(u.sym, u.factor, u.dims); err != nil {
			panic(err)
		}
	}
	return s
}

// testTable returns a rotating cloud refined from lmin to lmax near the
// box center.
func testTable(t testing.TB, lmin, lmax int) *CellTable {
	tbl, err := SyntheticTable(SyntheticConfig{
		BoxLength:  1,
		Lmin:       lmin,
		Lmax:       lmax,
		Radius:     0.3,
		CoreRadius: 0.1,
		Omega:      2,
		Scales:     testScales(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

// symmetricTable returns a cloud that is symmetric under permutations
// of the box axes.
func symmetricTable(t testing.TB, lmin, lmax int) *CellTable {
	tbl, err := SyntheticTable(SyntheticConfig{
		BoxLength:  1,
		Lmin:       lmin,
		Lmax:       lmax,
		Radius:     0.25,
		CoreRadius: 0.15,
		Scales:     testScales(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func compareMaps(t *testing.T, name string, a, b []float64, tolerance float64) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("%s: length: have %d, want %d", name, len(a), len(b))
	}
	n := 0
	for i := range a {
		if math.Abs(a[i]-b[i]) > tolerance*math.Max(math.Abs(a[i]), math.Abs(b[i])) {
			if n < 5 {
				t.Errorf("%s: pixel %d: have %g, want %g", name, i, a[i], b[i])
			}
			n++
		}
	}
	if n > 0 {
		t.Errorf("%s: %d of %d pixels differ", name, n, len(a))
	}
}
