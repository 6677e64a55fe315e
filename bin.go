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
	"github.com/sirupsen/logrus"
)

// locator finds the pixels overlapped by a selected cell. locate calls
// visit with each pixel index and the fraction of the cell that falls in
// it, and returns the total fraction of the cell inside the grid.
// Locators are not safe for concurrent use; each worker gets its own.
type locator interface {
	locate(k int, visit func(pix int, frac float64)) float64
}

// mapLocator projects cells onto the pixels of a map.
type mapLocator struct {
	g      *Geometry
	levels []int    // level of each selected cell, after coarsening
	coords [][3]int // coordinates of each selected cell, after coarsening
	fu, fv []float64
}

func (l *mapLocator) locate(k int, visit func(pix int, frac float64)) float64 {
	g := l.g
	c := l.coords[k]
	s := g.cellSize(l.levels[k])
	iu, fu := span(float64(c[g.U])*s, s, g.Extent.Min.X, g.PixelSize, g.Nx, l.fu)
	iv, fv := span(float64(c[g.V])*s, s, g.Extent.Min.Y, g.PixelSize, g.Ny, l.fv)
	l.fu, l.fv = fu, fv
	var su, sv float64
	for _, f := range fu {
		su += f
	}
	for _, f := range fv {
		sv += f
	}
	for j, b := range fv {
		if b == 0 {
			continue
		}
		row := g.index(iu, iv+j)
		for i, a := range fu {
			if a != 0 {
				visit(row+i, a*b)
			}
		}
	}
	return su * sv
}

// binLocator deposits each cell whole into a precomputed bin.
type binLocator struct {
	bins []int
}

func (l *binLocator) locate(k int, visit func(pix int, frac float64)) float64 {
	visit(l.bins[k], 1)
	return 1
}

// binning deposits the values of the selected cells into pixels using
// parallel workers. values, weights and the locator are indexed by the
// position of a cell in the selection.
type binning struct {
	nx, ny   int
	strategy Strategy
	ranges   [][2]int // selection positions handled by each worker

	values  [][]float64
	modes   []Mode
	weights []float64 // nil unless a mode is weighted

	newLocator func() locator
	log        logrus.FieldLogger
}

// binned holds the merged channels of a binning.
type binned struct {
	num     [][]float64 // per variable
	m2      [][]float64 // per variable; nil unless a second pass was needed
	weight  []float64   // nil unless a mode is weighted
	outside []float64   // per variable
	size    uint64      // bytes used by one accumulator
	touched int
}

func (b *binning) channels() int {
	n := len(b.values)
	if b.weights != nil {
		n++
	}
	return n
}

// deposit adds the contributions of cells lo through hi-1 to acc.
func (b *binning) deposit(acc *accumulator, loc locator, lo, hi int) {
	nv := len(b.values)
	for k := lo; k < hi; k++ {
		w := 1.
		if b.weights != nil {
			w = b.weights[k]
		}
		inside := loc.locate(k, func(pix int, f float64) {
			for j, m := range b.modes {
				v := b.values[j][k]
				if m.weighted() {
					acc.add(j, pix, w*v*f)
				} else {
					acc.add(j, pix, v*f)
				}
			}
			if b.weights != nil {
				acc.add(nv, pix, w*f)
			}
		})
		if inside < 1 {
			for j, m := range b.modes {
				if !m.weighted() {
					acc.outside[j] += b.values[j][k] * (1 - inside)
				}
			}
		}
	}
}

// deviations adds the weighted squared deviations of cells lo through
// hi-1 from the pixel means to acc.
func (b *binning) deviations(acc *accumulator, loc locator, means [][]float64, lo, hi int) {
	for k := lo; k < hi; k++ {
		w := b.weights[k]
		loc.locate(k, func(pix int, f float64) {
			for j, m := range b.modes {
				if !m.secondPass() {
					continue
				}
				d := b.values[j][k] - means[j][pix]
				acc.add(j, pix, w*f*d*d)
			}
		})
	}
}

// run bins the cells and merges the worker results. Variance and
// standard deviation modes take a second pass over the cells once the
// pixel means are known.
func (b *binning) run() (*binned, error) {
	newAcc := func() *accumulator {
		return newAccumulator(b.strategy, b.nx, b.ny, b.channels())
	}
	acc, err := runWorkers(b.ranges, newAcc, func(acc *accumulator, lo, hi int) error {
		b.deposit(acc, b.newLocator(), lo, hi)
		return nil
	}, b.log)
	if err != nil {
		return nil, err
	}
	out := &binned{
		num:     make([][]float64, len(b.values)),
		outside: acc.outside[:len(b.values)],
		size:    acc.size(),
		touched: acc.occupied(),
	}
	for j := range b.values {
		out.num[j] = acc.channel(j).Elements
	}
	if b.weights != nil {
		out.weight = acc.channel(len(b.values)).Elements
	}

	second := false
	for _, m := range b.modes {
		second = second || m.secondPass()
	}
	if !second {
		return out, nil
	}
	means := make([][]float64, len(b.values))
	for j, m := range b.modes {
		if m.secondPass() {
			means[j] = pixelMeans(out.num[j], out.weight)
		}
	}
	acc2, err := runWorkers(b.ranges, newAcc, func(acc *accumulator, lo, hi int) error {
		b.deviations(acc, b.newLocator(), means, lo, hi)
		return nil
	}, b.log)
	if err != nil {
		return nil, err
	}
	out.m2 = make([][]float64, len(b.values))
	for j := range b.values {
		out.m2[j] = acc2.channel(j).Elements
	}
	return out, nil
}
