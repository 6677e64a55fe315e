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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats holds summary statistics of a variable over a set of cells.
type Stats struct {
	Count    int
	Weight   float64 // sum of weights
	Mean     float64
	Std      float64
	Skewness float64
	Median   float64
	Min, Max float64
}

// maskRows returns the rows of t selected by mask.
func maskRows(t *CellTable, mask []bool) ([]int, error) {
	if mask == nil {
		return nil, nil
	}
	if len(mask) != t.Len() {
		return nil, invalidParam("Mask", len(mask), "have %d mask values for %d cells", len(mask), t.Len())
	}
	rows := make([]int, 0, len(mask))
	for i, m := range mask {
		if m {
			rows = append(rows, i)
		}
	}
	return rows, nil
}

// Sum returns the sum of variable name in unitSymbol over the cells
// selected by mask. A nil mask selects all cells.
func Sum(t *CellTable, name, unitSymbol string, mask []bool) (float64, error) {
	rows, err := maskRows(t, mask)
	if err != nil {
		return 0, err
	}
	v, err := NewResolver(t).Resolve(name, unitSymbol, rows)
	if err != nil {
		return 0, err
	}
	return floats.Sum(v), nil
}

// WeightedStats returns statistics of variable name in unitSymbol over
// the cells selected by mask, weighted by the variable weight. An empty
// weight gives every cell the same weight. An empty selection results
// in zero statistics.
func WeightedStats(t *CellTable, name, unitSymbol, weight, weightUnit string, mask []bool) (Stats, error) {
	rows, err := maskRows(t, mask)
	if err != nil {
		return Stats{}, err
	}
	r := NewResolver(t)
	x, err := r.Resolve(name, unitSymbol, rows)
	if err != nil {
		return Stats{}, err
	}
	var w []float64
	if weight != "" {
		if w, err = r.Resolve(weight, weightUnit, rows); err != nil {
			return Stats{}, err
		}
	}
	s := Stats{Count: len(x)}
	if s.Count == 0 {
		return s, nil
	}
	if w == nil {
		s.Weight = float64(len(x))
	} else {
		s.Weight = floats.Sum(w)
	}
	s.Min, s.Max = floats.Min(x), floats.Max(x)
	if s.Weight <= 0 {
		return s, nil
	}
	// Population moments: weights are masses, not counts.
	mean, variance := stat.PopMeanVariance(x, w)
	s.Mean, s.Std = mean, math.Sqrt(variance)
	if s.Std > 0 {
		var m3 float64
		for i, xi := range x {
			wi := 1.
			if w != nil {
				wi = w[i]
			}
			d := xi - mean
			m3 += wi * d * d * d
		}
		s.Skewness = m3 / s.Weight / (variance * s.Std)
	}
	sx := append([]float64(nil), x...)
	var sw []float64
	if w != nil {
		sw = append([]float64(nil), w...)
	}
	stat.SortWeighted(sx, sw)
	s.Median = stat.Quantile(0.5, stat.Empirical, sx, sw)
	return s, nil
}
