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
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/unit"
	"github.com/spatialmodel/amrmap"
)

// WriteCellTable writes t to w in NetCDF format.
func WriteCellTable(w *os.File, t *amrmap.CellTable) error {
	n := t.Len()
	if n == 0 {
		return fmt.Errorf("amrmap: cannot write a cell table with no cells")
	}
	h := cdf.NewHeader([]string{"cell"}, []int{n})
	h.AddAttribute("", "comment", "AMRmap cell table")
	lmin, lmax := t.LevelRange()
	h.AddAttribute("", "box_length", []float64{t.BoxLength()})
	h.AddAttribute("", "lmin", []int32{int32(lmin)})
	h.AddAttribute("", "lmax", []int32{int32(lmax)})
	h.AddAttribute("", "gamma", []float64{t.Gamma()})
	h.AddAttribute("", "data_version", amrmap.DataVersion)

	scales := t.Scales()
	if syms := scales.Symbols(); len(syms) > 0 {
		h.AddAttribute("", "scale_symbols", strings.Join(syms, ","))
		for _, s := range syms {
			h.AddAttribute("", "scale_"+s, []float64{scales[s].Factor})
			h.AddAttribute("", "scale_"+s+"_dimension", amrmap.DimensionName(scales[s].Dims))
		}
	}

	for _, v := range []string{"level", "cx", "cy", "cz"} {
		h.AddVariable(v, []string{"cell"}, []int32{0})
	}
	fields := t.FieldNames()
	for _, name := range fields {
		info, err := t.Describe(name)
		if err != nil {
			return err
		}
		h.AddVariable(name, []string{"cell"}, []float64{0})
		h.AddAttribute(name, "dimension", amrmap.DimensionName(info.Dims))
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return err
	}
	ints := make([][]int32, 4)
	for j := range ints {
		ints[j] = make([]int32, n)
	}
	for i := 0; i < n; i++ {
		c := t.Coord(i)
		ints[0][i] = int32(t.Level(i))
		ints[1][i], ints[2][i], ints[3][i] = int32(c[0]), int32(c[1]), int32(c[2])
	}
	for j, v := range []string{"level", "cx", "cy", "cz"} {
		if err := writeVar(f, v, ints[j]); err != nil {
			return err
		}
	}
	for _, name := range fields {
		d, _ := t.Field(name)
		if err := writeVar(f, name, d); err != nil {
			return err
		}
	}
	return cdf.UpdateNumRecs(w)
}

// writeVar writes the whole of variable v.
func writeVar(f *cdf.File, v string, data interface{}) error {
	end := f.Header.Lengths(v)
	start := make([]int, len(end))
	if _, err := f.Writer(v, start, end).Write(data); err != nil {
		return fmt.Errorf("amrmap: writing variable %s to netcdf file: %w", v, err)
	}
	return nil
}

// ReadCellTable reads a cell table written by WriteCellTable. Units in
// extra are added to the units stored in the file, replacing any with
// the same symbol.
func ReadCellTable(rw cdf.ReaderWriterAt, extra amrmap.ScaleTable) (*amrmap.CellTable, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("amrmap: reading cell table: %w", err)
	}
	h := f.Header
	dataVersion, _ := h.GetAttribute("", "data_version").(string)
	if dataVersion != amrmap.DataVersion {
		return nil, fmt.Errorf("amrmap: cell table data version %s is incompatible "+
			"with the required version %s", dataVersion, amrmap.DataVersion)
	}
	d := amrmap.CellData{
		Fields:    make(map[string][]float64),
		FieldDims: make(map[string]unit.Dimensions),
		Scales:    amrmap.NewScaleTable(),
	}
	if d.BoxLength, err = float64Attr(h, "box_length"); err != nil {
		return nil, err
	}
	if d.Gamma, err = float64Attr(h, "gamma"); err != nil {
		return nil, err
	}
	if d.Lmin, err = intAttr(h, "lmin"); err != nil {
		return nil, err
	}
	if d.Lmax, err = intAttr(h, "lmax"); err != nil {
		return nil, err
	}
	if syms, ok := h.GetAttribute("", "scale_symbols").(string); ok && syms != "" {
		for _, s := range strings.Split(syms, ",") {
			factor, err := float64Attr(h, "scale_"+s)
			if err != nil {
				return nil, err
			}
			dimName, _ := h.GetAttribute("", "scale_"+s+"_dimension").(string)
			dims, ok := amrmap.DimensionsByName(dimName)
			if !ok {
				return nil, fmt.Errorf("amrmap: unit %q has unknown dimension %q", s, dimName)
			}
			if err := d.Scales.Add(s, factor, dims); err != nil {
				return nil, err
			}
		}
	}

	for _, s := range extra.Symbols() {
		if err := d.Scales.Add(s, extra[s].Factor, extra[s].Dims); err != nil {
			return nil, err
		}
	}

	n := h.Lengths("level")
	if len(n) != 1 {
		return nil, fmt.Errorf("amrmap: cell table is missing variable `level`")
	}
	ints := make([][]int32, 4)
	for j, v := range []string{"level", "cx", "cy", "cz"} {
		ints[j] = make([]int32, n[0])
		if _, err := f.Reader(v, nil, nil).Read(ints[j]); err != nil {
			return nil, fmt.Errorf("amrmap: reading variable %s: %w", v, err)
		}
	}
	d.Levels = make([]int, n[0])
	d.Coords = make([][3]int, n[0])
	for i := range d.Levels {
		d.Levels[i] = int(ints[0][i])
		d.Coords[i] = [3]int{int(ints[1][i]), int(ints[2][i]), int(ints[3][i])}
	}
	for _, v := range h.Variables() {
		switch v {
		case "level", "cx", "cy", "cz":
			continue
		}
		data := make([]float64, n[0])
		if _, err := f.Reader(v, nil, nil).Read(data); err != nil {
			return nil, fmt.Errorf("amrmap: reading variable %s: %w", v, err)
		}
		d.Fields[v] = data
		dimName, _ := h.GetAttribute(v, "dimension").(string)
		if dims, ok := amrmap.DimensionsByName(dimName); ok {
			d.FieldDims[v] = dims
		}
	}
	return amrmap.NewCellTable(d)
}

func float64Attr(h *cdf.Header, name string) (float64, error) {
	v, ok := h.GetAttribute("", name).([]float64)
	if !ok || len(v) != 1 {
		return 0, fmt.Errorf("amrmap: missing or invalid attribute %s", name)
	}
	return v[0], nil
}

func intAttr(h *cdf.Header, name string) (int, error) {
	v, ok := h.GetAttribute("", name).([]int32)
	if !ok || len(v) != 1 {
		return 0, fmt.Errorf("amrmap: missing or invalid attribute %s", name)
	}
	return int(v[0]), nil
}

// WriteResult writes the maps in r to w in NetCDF format. Each map is a
// variable with dimensions (y, x). Results without pixels cannot be
// written.
func WriteResult(w *os.File, r *amrmap.Result) error {
	if r.Nx == 0 || r.Ny == 0 {
		return errEmptyResult
	}
	h := cdf.NewHeader([]string{"y", "x"}, []int{r.Ny, r.Nx})
	h.AddAttribute("", "comment", "AMRmap projection")
	h.AddAttribute("", "direction", r.Direction.String())
	h.AddAttribute("", "u_axis", r.U.String())
	h.AddAttribute("", "v_axis", r.V.String())
	h.AddAttribute("", "nx", []int32{int32(r.Nx)})
	h.AddAttribute("", "ny", []int32{int32(r.Ny)})
	h.AddAttribute("", "pixel_size", []float64{r.PixelSize})
	h.AddAttribute("", "extent", r.Extent[:])
	h.AddAttribute("", "range", []float64{
		r.Range[0][0], r.Range[0][1], r.Range[1][0], r.Range[1][1], r.Range[2][0], r.Range[2][1]})
	h.AddAttribute("", "center", r.Center[:])
	h.AddAttribute("", "level_range", []int32{int32(r.LevelRange[0]), int32(r.LevelRange[1])})
	h.AddAttribute("", "level_max", []int32{int32(r.LevelMax)})
	h.AddAttribute("", "box_length", []float64{r.BoxLength})
	h.AddAttribute("", "strategy", r.Strategy.String())
	h.AddAttribute("", "selected", []int32{int32(r.Selected)})
	h.AddAttribute("", "filled", []int32{int32(r.Filled)})
	h.AddAttribute("", "data_version", amrmap.DataVersion)

	for _, v := range r.Variables {
		h.AddVariable(v, []string{"y", "x"}, []float64{0})
		h.AddAttribute(v, "units", r.Units[v])
		h.AddAttribute(v, "mode", r.Modes[v].String())
		if total, ok := r.Totals[v]; ok {
			h.AddAttribute(v, "total", []float64{total})
			h.AddAttribute(v, "outside", []float64{r.Outside[v]})
		}
	}
	if r.WeightMap != nil {
		h.AddVariable(weightMapName, []string{"y", "x"}, []float64{0})
		h.AddAttribute(weightMapName, "weight", r.Weight)
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return err
	}
	for _, v := range r.Variables {
		if err := writeVar(f, v, r.Maps[v].Elements); err != nil {
			return err
		}
	}
	if r.WeightMap != nil {
		if err := writeVar(f, weightMapName, r.WeightMap.Elements); err != nil {
			return err
		}
	}
	return cdf.UpdateNumRecs(w)
}

var errEmptyResult = errors.New("amrmap: cannot write a projection without pixels")

// weightMapName is the name of the projected weight in result files.
const weightMapName = "weight_map"

// WriteProfile writes p to w in NetCDF format.
func WriteProfile(w *os.File, p *amrmap.Profile) error {
	bins := len(p.Edges) - 1
	h := cdf.NewHeader([]string{"bin", "edge"}, []int{bins, bins + 1})
	h.AddAttribute("", "comment", "AMRmap radial profile")
	h.AddAttribute("", "kind", p.Kind)
	h.AddAttribute("", "axis", p.Axis.String())
	h.AddAttribute("", "center", p.Center[:])
	h.AddAttribute("", "selected", []int32{int32(p.Selected)})
	h.AddAttribute("", "data_version", amrmap.DataVersion)
	h.AddVariable("edges", []string{"edge"}, []float64{0})
	h.AddVariable("centers", []string{"bin"}, []float64{0})
	if p.LogBins {
		h.AddAttribute("centers", "spacing", "log")
	} else {
		h.AddAttribute("centers", "spacing", "linear")
	}

	// Sort the names so they write in the same order every time.
	cumulative := make([]string, 0, len(p.Cumulative))
	for v := range p.Cumulative {
		cumulative = append(cumulative, v)
	}
	sort.Strings(cumulative)

	for _, v := range p.Variables {
		h.AddVariable(v, []string{"bin"}, []float64{0})
		h.AddAttribute(v, "units", p.Units[v])
		h.AddAttribute(v, "mode", p.Modes[v].String())
		if total, ok := p.Totals[v]; ok {
			h.AddAttribute(v, "total", []float64{total})
		}
	}
	for _, v := range cumulative {
		h.AddVariable("cumulative_"+v, []string{"bin"}, []float64{0})
		h.AddAttribute("cumulative_"+v, "units", p.Units[v])
	}
	if p.Weights != nil {
		h.AddVariable("weights", []string{"bin"}, []float64{0})
		h.AddAttribute("weights", "weight", p.Weight)
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return err
	}
	if err := writeVar(f, "edges", p.Edges); err != nil {
		return err
	}
	if err := writeVar(f, "centers", p.BinCenters()); err != nil {
		return err
	}
	for _, v := range p.Variables {
		if err := writeVar(f, v, p.Values[v]); err != nil {
			return err
		}
	}
	for _, v := range cumulative {
		if err := writeVar(f, "cumulative_"+v, p.Cumulative[v]); err != nil {
			return err
		}
	}
	if p.Weights != nil {
		if err := writeVar(f, "weights", p.Weights); err != nil {
			return err
		}
	}
	return cdf.UpdateNumRecs(w)
}
