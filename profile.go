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
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// ProfileRequest specifies a radial profile.
type ProfileRequest struct {
	Variables  []string
	Units      []string
	Modes      []Mode
	Weight     string
	WeightUnit string

	// Kind is "sphere" (the default) for spherical shells or "cylinder"
	// for cylindrical shells around an axis through Center.
	Kind string

	// Axis is the axis of cylindrical profiles: "x", "y", or "z".
	Axis string

	// Center is the origin of the profile in RangeUnit. Empty means
	// the center of the box.
	Center    []float64
	RangeUnit string

	// RMin and RMax bound the profile in RangeUnit. An RMax of zero
	// means the largest distance from Center to a corner of the box.
	RMin, RMax float64

	// Bins is the number of radial bins.
	Bins int

	// LogBins spaces the bins logarithmically. It requires RMin > 0.
	LogBins bool

	Mask    []bool
	Threads int
	Log     logrus.FieldLogger
	Verbose bool
}

// Profile holds radially binned variables.
type Profile struct {
	Variables []string
	Kind      string
	Axis      Axis
	Center    [3]float64 // code units

	// Edges holds the Bins+1 bin edges in code units.
	Edges   []float64
	LogBins bool

	// Values holds the reduced values of each variable per bin, and
	// Cumulative the running sum from the innermost bin outward for
	// summed variables.
	Values     map[string][]float64
	Cumulative map[string][]float64

	Units map[string]string
	Modes map[string]Mode

	Weight  string
	Weights []float64

	// Selected is the number of cells within [RMin, RMax).
	Selected int
	Totals   map[string]float64
}

// BinCenters returns the midpoint of each bin in code units; for
// logarithmic bins it is the geometric midpoint.
func (p *Profile) BinCenters() []float64 {
	o := make([]float64, len(p.Edges)-1)
	for i := range o {
		if p.LogBins {
			o[i] = math.Sqrt(p.Edges[i] * p.Edges[i+1])
		} else {
			o[i] = (p.Edges[i] + p.Edges[i+1]) / 2
		}
	}
	return o
}

// binIndex returns the bin of radius r, or -1 if r is outside of
// [rmin, rmax).
func binIndex(r, rmin, rmax float64, bins int, logBins bool) int {
	if r < rmin || r >= rmax {
		return -1
	}
	var x float64
	if logBins {
		x = math.Log(r/rmin) / math.Log(rmax/rmin)
	} else {
		x = (r - rmin) / (rmax - rmin)
	}
	b := int(x * float64(bins))
	if b >= bins {
		b = bins - 1
	}
	return b
}

// RadialProfile bins the cells of t selected by req by their distance
// from the profile center and reduces each requested variable per bin.
func RadialProfile(t *CellTable, req *ProfileRequest) (*Profile, error) {
	start := time.Now()
	log := req.Log
	if log == nil {
		log = discardLogger()
	}
	kind := strings.ToLower(req.Kind)
	if kind == "" {
		kind = "sphere"
	}
	if kind != "sphere" && kind != "cylinder" {
		return nil, invalidParam("Kind", req.Kind, "must be sphere or cylinder")
	}
	axis, err := ParseDirection(req.Axis)
	if err != nil {
		return nil, err
	}
	if req.Bins < 1 {
		return nil, invalidParam("Bins", req.Bins, "must be positive")
	}
	if req.Threads < 0 {
		return nil, invalidParam("Threads", req.Threads, "must not be negative")
	}
	if req.Mask != nil && len(req.Mask) != t.Len() {
		return nil, invalidParam("Mask", len(req.Mask), "have %d mask values for %d cells", len(req.Mask), t.Len())
	}
	f, err := lengthFactor(t.Scales(), req.RangeUnit)
	if err != nil {
		return nil, err
	}
	center, err := resolveCenter(t, req.Center, f)
	if err != nil {
		return nil, err
	}
	rmin, rmax := req.RMin/f, req.RMax/f
	if rmax == 0 {
		for _, c := range center {
			d := math.Max(c, t.BoxLength()-c)
			rmax += d * d
		}
		rmax = math.Sqrt(rmax) * (1 + 1e-12)
	}
	if !finite(rmin, rmax) || rmin < 0 || rmin >= rmax {
		return nil, invalidRange("RMin/RMax", [2]float64{req.RMin, req.RMax}, "must satisfy 0 <= RMin < RMax")
	}
	if req.LogBins && rmin <= 0 {
		return nil, invalidRange("RMin", req.RMin, "must be positive for logarithmic bins")
	}
	plan, err := planVariables(t, req.Variables, req.Units, req.Modes, req.Weight, req.WeightUnit)
	if err != nil {
		return nil, err
	}

	radius := "r_sphere"
	if kind == "cylinder" {
		radius = "r_cylinder"
	}
	res := &Resolver{Table: t, Center: center, Axis: axis}
	r, err := res.Resolve(radius, StandardUnit, nil)
	if err != nil {
		return nil, err
	}
	var rows, bins []int
	for i, ri := range r {
		if req.Mask != nil && !req.Mask[i] {
			continue
		}
		if b := binIndex(ri, rmin, rmax, req.Bins, req.LogBins); b >= 0 {
			rows = append(rows, i)
			bins = append(bins, b)
		}
	}
	if rows == nil {
		rows = make([]int, 0)
	}

	values := make([][]float64, len(plan.names))
	for j, v := range plan.names {
		if values[j], err = res.Resolve(v, plan.units[j], rows); err != nil {
			return nil, err
		}
	}
	var weights []float64
	if plan.weighted {
		if weights, err = res.Resolve(plan.weight, plan.weightUnit, rows); err != nil {
			return nil, err
		}
	}
	workers := numWorkers(req.Threads, len(rows))
	b := &binning{
		nx:         req.Bins,
		ny:         1,
		strategy:   StrategyDense,
		ranges:     partition(len(rows), workers),
		values:     values,
		modes:      plan.modes,
		weights:    weights,
		newLocator: func() locator { return &binLocator{bins: bins} },
		log:        log,
	}
	out, err := b.run()
	if err != nil {
		return nil, err
	}

	p := &Profile{
		Variables:  plan.names,
		Kind:       kind,
		Axis:       axis,
		Center:     center,
		Edges:      make([]float64, req.Bins+1),
		LogBins:    req.LogBins,
		Values:     make(map[string][]float64),
		Cumulative: make(map[string][]float64),
		Units:      make(map[string]string),
		Modes:      make(map[string]Mode),
		Weight:     plan.weight,
		Weights:    out.weight,
		Selected:   len(rows),
		Totals:     make(map[string]float64),
	}
	if req.LogBins {
		floats.LogSpan(p.Edges, rmin, rmax)
	} else {
		floats.Span(p.Edges, rmin, rmax)
	}
	for j, v := range plan.names {
		vals := make([]float64, req.Bins)
		var m2 []float64
		if out.m2 != nil {
			m2 = out.m2[j]
		}
		reduce(plan.modes[j], out.num[j], out.weight, m2, vals)
		p.Values[v] = vals
		p.Units[v] = plan.units[j]
		p.Modes[v] = plan.modes[j]
		if plan.modes[j] == ModeSum {
			p.Cumulative[v] = floats.CumSum(make([]float64, req.Bins), vals)
			p.Totals[v] = floats.Sum(values[j])
		}
	}
	logAt(log, req.Verbose, logrus.Fields{
		"kind":    kind,
		"cells":   len(rows),
		"bins":    req.Bins,
		"workers": workers,
		"elapsed": time.Since(start),
	}, "amrmap: profile complete")
	return p, nil
}
