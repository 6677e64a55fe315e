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
	"io/ioutil"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// DefaultWeight is the variable used to weight mean, variance, and
// standard deviation maps when none is requested.
const DefaultWeight = "mass"

// Request specifies a projection.
type Request struct {
	// Variables are the names of the variables to project.
	Variables []string

	// Units holds the output unit of each variable. It may be empty,
	// in which case all variables are in code units.
	Units []string

	// Modes holds the reduction mode of each variable. It may be empty,
	// in which case each variable uses its default mode.
	Modes []Mode

	// Weight is the variable used to weight the weighted modes. The
	// default is DefaultWeight. Pixels whose accumulated weight is
	// exactly zero are 0 in weighted maps; negative weights are used
	// as given.
	Weight     string
	WeightUnit string

	// Resolution is the number of pixels along the longer side of the
	// map. Alternatively, PixelSize sets the edge length of the pixels
	// in RangeUnit. At most one of them may be set; if neither is set
	// the result has empty maps.
	Resolution int
	PixelSize  float64

	// Direction is the line of sight: "x", "y", or "z" (the default).
	Direction string

	// Center is the reference point of the ranges in RangeUnit. Empty
	// means the center of the box.
	Center []float64

	// XRange, YRange, and ZRange limit the selected region to
	// [Center+min, Center+max) along each axis, in RangeUnit. An empty
	// range covers the whole box.
	XRange, YRange, ZRange []float64

	// RangeUnit is the length unit of Center, the ranges, and PixelSize.
	// The default is code units.
	RangeUnit string

	// Mask, if not nil, selects cells by table row.
	Mask []bool

	// LevelMax, if greater than zero, coarsens cells finer than LevelMax
	// to their ancestor at LevelMax before they are deposited.
	LevelMax int

	// Threads is the maximum number of workers. Zero means one per CPU.
	Threads int

	// Strategy forces dense or sparse accumulation.
	Strategy Strategy

	GapFill GapFill

	// Cache, if not nil, is used to resolve variables. It must have been
	// created for the same cell table.
	Cache *ResolverCache

	// Log receives progress messages. Nil means no logging.
	Log logrus.FieldLogger

	// Verbose logs progress at the info level instead of debug.
	Verbose bool
}

func (req *Request) logger() logrus.FieldLogger {
	if req.Log != nil {
		return req.Log
	}
	return discardLogger()
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

func logAt(log logrus.FieldLogger, verbose bool, fields logrus.Fields, msg string) {
	e := log.WithFields(fields)
	if verbose {
		e.Info(msg)
	} else {
		e.Debug(msg)
	}
}

// variablePlan holds the checked variables of a request.
type variablePlan struct {
	names      []string
	units      []string
	modes      []Mode
	weight     string
	weightUnit string
	weighted   bool
}

// planVariables checks the variables, units, and modes of a request
// against the table and fills in defaults.
func planVariables(t *CellTable, vars, units []string, modes []Mode, weight, weightUnit string) (*variablePlan, error) {
	if len(vars) == 0 {
		return nil, invalidParam("Variables", vars, "at least one variable is required")
	}
	if len(units) != 0 && len(units) != len(vars) {
		return nil, invalidParam("Units", units, "have %d units for %d variables", len(units), len(vars))
	}
	if len(modes) != 0 && len(modes) != len(vars) {
		return nil, invalidParam("Modes", modes, "have %d modes for %d variables", len(modes), len(vars))
	}
	p := &variablePlan{
		names: vars,
		units: make([]string, len(vars)),
		modes: make([]Mode, len(vars)),
	}
	seen := make(map[string]bool)
	for i, v := range vars {
		if seen[v] {
			return nil, invalidParam("Variables", v, "variable is requested more than once")
		}
		seen[v] = true
		if len(units) != 0 {
			p.units[i] = units[i]
		}
		if p.units[i] == "" {
			p.units[i] = StandardUnit
		}
		info, _, err := t.UnitFactor(v, p.units[i])
		if err != nil {
			return nil, err
		}
		m := ModeDefault
		if len(modes) != 0 {
			m = modes[i]
		}
		switch m {
		case ModeDefault:
			m = info.DefaultMode()
		case ModeSum, ModeMean, ModeVariance, ModeStd:
		default:
			return nil, invalidParam("Modes", m, "unknown mode for variable %q", v)
		}
		p.modes[i] = m
		p.weighted = p.weighted || m.weighted()
	}
	if p.weighted {
		p.weight = weight
		if p.weight == "" {
			p.weight = DefaultWeight
		}
		p.weightUnit = weightUnit
		if p.weightUnit == "" {
			p.weightUnit = StandardUnit
		}
		if _, _, err := t.UnitFactor(p.weight, p.weightUnit); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// selection holds the cells chosen for a projection ordered by level,
// with levels and coordinates after coarsening.
type selection struct {
	rows   []int
	levels []int
	coords [][3]int
}

// selectCells returns the cells of t that pass mask and lie within the
// region of g, grouped by level from coarsest to finest. The order of
// cells within a level is the table order.
func selectCells(t *CellTable, g *Geometry, mask []bool) *selection {
	lmin, lmax := t.LevelRange()
	byLevel := make([][]int, lmax-lmin+1)
	for i := 0; i < t.Len(); i++ {
		if mask != nil && !mask[i] {
			continue
		}
		l, c := g.footprint(t.levels[i], t.coords[i])
		if !g.selects(l, c) {
			continue
		}
		byLevel[t.levels[i]-lmin] = append(byLevel[t.levels[i]-lmin], i)
	}
	s := &selection{rows: make([]int, 0)}
	for _, rows := range byLevel {
		s.rows = append(s.rows, rows...)
	}
	s.levels = make([]int, len(s.rows))
	s.coords = make([][3]int, len(s.rows))
	for k, i := range s.rows {
		s.levels[k], s.coords[k] = g.footprint(t.levels[i], t.coords[i])
	}
	return s
}

// gather returns the values of a resolved variable for the selected rows.
func gather(all []float64, rows []int) []float64 {
	o := make([]float64, len(rows))
	for k, i := range rows {
		o[k] = all[i]
	}
	return o
}

// perPixelArea rescales the column densities of the selected rows so that
// their sum over a pixel is the surface density of the pixel.
func perPixelArea(t *CellTable, vals []float64, rows []int, pixelSize float64) {
	a := pixelSize * pixelSize
	for k, i := range rows {
		s := t.CellSize(t.levels[i])
		vals[k] *= s * s / a
	}
}

// resolveSelection resolves a variable for the selected rows, using the
// cache if there is one.
func resolveSelection(t *CellTable, cache *ResolverCache, center [3]float64, axis Axis,
	name, unitSymbol string, rows []int) ([]float64, error) {
	if cache != nil {
		all, err := cache.Resolve(name, unitSymbol, center, axis)
		if err != nil {
			return nil, err
		}
		return gather(all, rows), nil
	}
	r := &Resolver{Table: t, Center: center, Axis: axis}
	return r.Resolve(name, unitSymbol, rows)
}

// Project deposits the cells of t selected by req onto a uniform map
// perpendicular to the requested direction and reduces each requested
// variable with its mode. All parameters are checked before any cells
// are binned. An empty selection is not an error: it results in maps
// of zeros. If any worker fails, no result is returned.
func Project(t *CellTable, req *Request) (*Result, error) {
	start := time.Now()
	log := req.logger()

	if req.Threads < 0 {
		return nil, invalidParam("Threads", req.Threads, "must not be negative")
	}
	if req.Mask != nil && len(req.Mask) != t.Len() {
		return nil, invalidParam("Mask", len(req.Mask), "have %d mask values for %d cells", len(req.Mask), t.Len())
	}
	switch req.Strategy {
	case StrategyAuto, StrategyDense, StrategySparse:
	default:
		return nil, invalidParam("Strategy", req.Strategy, "unknown strategy")
	}
	g, err := computeGeometry(req, t)
	if err != nil {
		return nil, err
	}
	plan, err := planVariables(t, req.Variables, req.Units, req.Modes, req.Weight, req.WeightUnit)
	if err != nil {
		return nil, err
	}
	gapFill, err := req.GapFill.withDefaults()
	if err != nil {
		return nil, err
	}

	res := newResult(t, g, plan.names, plan.units, plan.modes, plan.weight)
	if g.Empty() {
		return res, nil
	}

	sel := selectCells(t, g, req.Mask)
	values := make([][]float64, len(plan.names))
	for j, v := range plan.names {
		values[j], err = resolveSelection(t, req.Cache, g.Center, g.Direction, v, plan.units[j], sel.rows)
		if err != nil {
			return nil, err
		}
		if plan.modes[j] == ModeSum && t.columnDensity(v) {
			perPixelArea(t, values[j], sel.rows, g.PixelSize)
		}
	}
	var weights []float64
	if plan.weighted {
		weights, err = resolveSelection(t, req.Cache, g.Center, g.Direction, plan.weight, plan.weightUnit, sel.rows)
		if err != nil {
			return nil, err
		}
	}

	strategy := selectStrategy(g.Nx, g.Ny, req.Strategy)
	workers := numWorkers(req.Threads, len(sel.rows))
	b := &binning{
		nx:       g.Nx,
		ny:       g.Ny,
		strategy: strategy,
		ranges:   partition(len(sel.rows), workers),
		values:   values,
		modes:    plan.modes,
		weights:  weights,
		newLocator: func() locator {
			return &mapLocator{g: g, levels: sel.levels, coords: sel.coords}
		},
		log: log,
	}
	out, err := b.run()
	if err != nil {
		return nil, err
	}

	maps := make([][]float64, len(plan.names))
	for j, v := range plan.names {
		maps[j] = res.Maps[v].Elements
		var m2 []float64
		if out.m2 != nil {
			m2 = out.m2[j]
		}
		reduce(plan.modes[j], out.num[j], out.weight, m2, maps[j])
		if plan.modes[j] == ModeSum {
			res.Totals[v] = floats.Sum(values[j])
			res.Outside[v] = out.outside[j]
		}
	}
	if out.weight != nil {
		copy(res.WeightMap.Elements, out.weight)
	}
	res.Filled = fillGaps(maps, plan.modes, out.weight, g.Nx, g.Ny, gapFill)
	res.Strategy = strategy
	res.Threads = workers
	res.Selected = len(sel.rows)

	logAt(log, req.Verbose, logrus.Fields{
		"direction":   g.Direction,
		"cells":       len(sel.rows),
		"pixels":      humanize.Comma(int64(g.Nx * g.Ny)),
		"occupied":    humanize.Comma(int64(out.touched)),
		"strategy":    strategy,
		"workers":     workers,
		"accumulator": humanize.Bytes(out.size),
		"filled":      res.Filled,
		"elapsed":     time.Since(start),
	}, "amrmap: projection complete")
	return res, nil
}
