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

package amrmaputil

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/ctessum/unit"
	"github.com/kr/pretty"
	"github.com/spatialmodel/amrmap"
)

func testScales() amrmap.ScaleTable {
	s := amrmap.NewScaleTable()
	s.Add("kpc", 100, unit.Meter)
	s.Add("Msol", 1e10, unit.Kilogram)
	return s
}

func testTable(t *testing.T) *amrmap.CellTable {
	tbl, err := amrmap.SyntheticTable(amrmap.SyntheticConfig{
		BoxLength:  1,
		Lmin:       2,
		Lmax:       4,
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

func writeTable(t *testing.T, tbl *amrmap.CellTable) string {
	path := filepath.Join(t.TempDir(), "cells.ncf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := WriteCellTable(f, tbl); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCellTableRoundTrip(t *testing.T) {
	tbl := testTable(t)
	path := writeTable(t, tbl)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	extra := amrmap.NewScaleTable()
	extra.Add("pc", 1e5, unit.Meter)
	tbl2, err := ReadCellTable(f, extra)
	if err != nil {
		t.Fatal(err)
	}
	if tbl2.Len() != tbl.Len() {
		t.Fatalf("length: have %d, want %d", tbl2.Len(), tbl.Len())
	}
	if tbl2.BoxLength() != tbl.BoxLength() || tbl2.Gamma() != tbl.Gamma() {
		t.Errorf("box or gamma: have %v, want %v", tbl2, tbl)
	}
	lmin, lmax := tbl2.LevelRange()
	if lmin != 2 || lmax != 4 {
		t.Errorf("level range: have [%d, %d], want [2, 4]", lmin, lmax)
	}
	for i := 0; i < tbl.Len(); i++ {
		if tbl2.Level(i) != tbl.Level(i) || tbl2.Coord(i) != tbl.Coord(i) {
			t.Fatalf("cell %d: have %d %v, want %d %v", i, tbl2.Level(i), tbl2.Coord(i), tbl.Level(i), tbl.Coord(i))
		}
	}
	if !reflect.DeepEqual(tbl2.FieldNames(), tbl.FieldNames()) {
		t.Errorf("fields: have %v, want %v", tbl2.FieldNames(), tbl.FieldNames())
	}
	for _, name := range tbl.FieldNames() {
		a, _ := tbl.Field(name)
		b, _ := tbl2.Field(name)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("field %s differs", name)
		}
	}
	want := testScales()
	want.Add("pc", 1e5, unit.Meter)
	if diff := pretty.Diff(tbl2.Scales(), want); len(diff) > 0 {
		t.Errorf("scales: %v", diff)
	}
	info, err := tbl2.Describe("rho")
	if err != nil {
		t.Fatal(err)
	}
	if !info.Dims.Matches(unit.KilogramPerMeter3) {
		t.Errorf("rho dimensions: have %v", info.Dims)
	}
}

func TestWriteResult(t *testing.T) {
	tbl := testTable(t)
	res, err := amrmap.Project(tbl, &amrmap.Request{
		Variables:  []string{"mass", "rho"},
		Resolution: 8,
		Direction:  "y",
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "map.ncf")
	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteResult(w, res); err != nil {
		t.Fatal(err)
	}
	w.Close()

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	f, err := cdf.Open(r)
	if err != nil {
		t.Fatal(err)
	}
	if dir := f.Header.GetAttribute("", "direction").(string); dir != "y" {
		t.Errorf("direction: have %s, want y", dir)
	}
	if l := f.Header.Lengths("mass"); !reflect.DeepEqual(l, []int{8, 8}) {
		t.Errorf("shape: have %v, want [8 8]", l)
	}
	for _, v := range []string{"mass", "rho", weightMapName} {
		data := make([]float64, 64)
		if _, err := f.Reader(v, nil, nil).Read(data); err != nil {
			t.Fatal(err)
		}
		want := res.WeightMap.Elements
		if v != weightMapName {
			want = res.Maps[v].Elements
		}
		if !reflect.DeepEqual(data, want) {
			t.Errorf("%s: have %v, want %v", v, data, want)
		}
	}
	total := f.Header.GetAttribute("mass", "total").([]float64)[0]
	if math.Abs(total-res.Totals["mass"]) > 1e-15 {
		t.Errorf("total: have %g, want %g", total, res.Totals["mass"])
	}
}

func TestWriteEmptyResult(t *testing.T) {
	tbl := testTable(t)
	res, err := amrmap.Project(tbl, &amrmap.Request{Variables: []string{"mass"}})
	if err != nil {
		t.Fatal(err)
	}
	w, err := os.Create(filepath.Join(t.TempDir(), "empty.ncf"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := WriteResult(w, res); err != errEmptyResult {
		t.Errorf("have %v, want %v", err, errEmptyResult)
	}
}

func TestWriteProfile(t *testing.T) {
	tbl := testTable(t)
	p, err := amrmap.RadialProfile(tbl, &amrmap.ProfileRequest{
		Variables: []string{"mass", "v"},
		Bins:      10,
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "profile.ncf")
	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteProfile(w, p); err != nil {
		t.Fatal(err)
	}
	w.Close()

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	f, err := cdf.Open(r)
	if err != nil {
		t.Fatal(err)
	}
	data := make([]float64, 10)
	if _, err := f.Reader("cumulative_mass", nil, nil).Read(data); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(data, p.Cumulative["mass"]) {
		t.Errorf("cumulative mass: have %v, want %v", data, p.Cumulative["mass"])
	}
	edges := make([]float64, 11)
	if _, err := f.Reader("edges", nil, nil).Read(edges); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(edges, p.Edges) {
		t.Errorf("edges: have %v, want %v", edges, p.Edges)
	}
	centers := make([]float64, 10)
	if _, err := f.Reader("centers", nil, nil).Read(centers); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(centers, p.BinCenters()) {
		t.Errorf("centers: have %v, want %v", centers, p.BinCenters())
	}
	if s := f.Header.GetAttribute("centers", "spacing"); s != "linear" {
		t.Errorf("spacing: have %v, want linear", s)
	}
}
