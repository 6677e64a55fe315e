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
	"strings"

	"github.com/ctessum/sparse"
)

// DenseMaxSide is the largest map side length, in pixels, for which
// the automatic strategy uses dense accumulators. A dense channel of
// this size takes 32 MiB.
const DenseMaxSide = 2048

// Strategy is the storage used to accumulate pixel values.
type Strategy int

// Accumulation strategies. StrategyAuto chooses dense storage for maps
// up to DenseMaxSide pixels on a side and sparse storage otherwise.
const (
	StrategyAuto Strategy = iota
	StrategyDense
	StrategySparse
)

func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyDense:
		return "dense"
	case StrategySparse:
		return "sparse"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy returns the strategy named by s.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return StrategyAuto, nil
	case "dense":
		return StrategyDense, nil
	case "sparse":
		return StrategySparse, nil
	}
	return 0, invalidParam("Strategy", s, "must be auto, dense, or sparse")
}

// selectStrategy returns the storage strategy for an nx by ny map.
func selectStrategy(nx, ny int, hint Strategy) Strategy {
	if hint == StrategyDense || hint == StrategySparse {
		return hint
	}
	if nx <= DenseMaxSide && ny <= DenseMaxSide {
		return StrategyDense
	}
	return StrategySparse
}

// accumulator holds a set of pixel channels with a common shape.
// Exactly one of dense and sparse is set.
type accumulator struct {
	strategy Strategy
	nx, ny   int
	dense    []*sparse.DenseArray
	sparse   []*sparse.SparseArray

	// outside holds, per channel, the amount deposited by cells that
	// fell outside of the map extent.
	outside []float64
}

func newAccumulator(s Strategy, nx, ny, nchan int) *accumulator {
	a := &accumulator{strategy: s, nx: nx, ny: ny, outside: make([]float64, nchan)}
	for i := 0; i < nchan; i++ {
		if s == StrategySparse {
			a.sparse = append(a.sparse, sparse.ZerosSparse(ny, nx))
		} else {
			a.dense = append(a.dense, sparse.ZerosDense(ny, nx))
		}
	}
	return a
}

// add adds v to pixel i of channel c.
func (a *accumulator) add(c, i int, v float64) {
	if a.strategy == StrategySparse {
		if v != 0 {
			a.sparse[c].Elements[i] += v
		}
		return
	}
	a.dense[c].Elements[i] += v
}

// merge adds the channels of b into a.
func (a *accumulator) merge(b *accumulator) {
	for c := range a.outside {
		if a.strategy == StrategySparse {
			a.sparse[c].AddSparse(b.sparse[c])
		} else {
			a.dense[c].AddDense(b.dense[c])
		}
		a.outside[c] += b.outside[c]
	}
}

// channel returns channel c as a dense array. For dense accumulators
// the returned array is the channel itself.
func (a *accumulator) channel(c int) *sparse.DenseArray {
	if a.strategy == StrategySparse {
		return a.sparse[c].ToDenseArray()
	}
	return a.dense[c]
}

// occupied returns the number of pixels that have received a deposit in
// any channel.
func (a *accumulator) occupied() int {
	if a.strategy == StrategySparse {
		seen := make(map[int]struct{})
		for _, s := range a.sparse {
			for i := range s.Elements {
				seen[i] = struct{}{}
			}
		}
		return len(seen)
	}
	n := 0
	for i := 0; i < a.nx*a.ny; i++ {
		for _, d := range a.dense {
			if d.Elements[i] != 0 {
				n++
				break
			}
		}
	}
	return n
}

// size returns the approximate memory used by the accumulator, in bytes.
func (a *accumulator) size() uint64 {
	if a.strategy == StrategySparse {
		var n uint64
		for _, s := range a.sparse {
			// Map entries take roughly 40 bytes including overhead.
			n += uint64(len(s.Elements)) * 40
		}
		return n
	}
	return uint64(len(a.dense)) * uint64(a.nx) * uint64(a.ny) * 8
}
