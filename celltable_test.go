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
	"reflect"
	"testing"
)

func TestNewCellTable(t *testing.T) {
	valid := func() CellData {
		return CellData{
			BoxLength: 2,
			Lmin:      1,
			Lmax:      2,
			Levels:    []int{1, 2, 2},
			Coords:    [][3]int{{0, 1, 1}, {2, 3, 0}, {3, 3, 3}},
			Fields:    map[string][]float64{"rho": {1, 2, 3}},
		}
	}
	tbl, err := NewCellTable(valid())
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 3 {
		t.Errorf("len: have %d, want 3", tbl.Len())
	}
	if have, want := tbl.Center(0), [3]float64{0.5, 1.5, 1.5}; have != want {
		t.Errorf("center: have %v, want %v", have, want)
	}
	if have, want := tbl.CellSize(2), 0.5; have != want {
		t.Errorf("cell size: have %v, want %v", have, want)
	}
	if have, want := tbl.LevelCounts(), []int{1, 2}; !reflect.DeepEqual(have, want) {
		t.Errorf("level counts: have %v, want %v", have, want)
	}
	if tbl.Gamma() != DefaultGamma {
		t.Errorf("gamma: have %g, want %g", tbl.Gamma(), DefaultGamma)
	}
	if have, want := tbl.FieldNames(), []string{"rho"}; !reflect.DeepEqual(have, want) {
		t.Errorf("fields: have %v, want %v", have, want)
	}

	for _, test := range []struct {
		name   string
		modify func(d *CellData)
	}{
		{"box length", func(d *CellData) { d.BoxLength = 0 }},
		{"level range", func(d *CellData) { d.Lmin = 3 }},
		{"level outside range", func(d *CellData) { d.Levels[0] = 0 }},
		{"coordinate too large", func(d *CellData) { d.Coords[0][2] = 2 }},
		{"negative coordinate", func(d *CellData) { d.Coords[1][0] = -1 }},
		{"coordinate count", func(d *CellData) { d.Coords = d.Coords[:2] }},
		{"field length", func(d *CellData) { d.Fields["p"] = []float64{1} }},
	} {
		t.Run(test.name, func(t *testing.T) {
			d := valid()
			test.modify(&d)
			_, err := NewCellTable(d)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("have %v, want invalid parameter", err)
			}
		})
	}
}
