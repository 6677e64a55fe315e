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
	"math"
	"strings"
)

// Mode is the way values of a variable are combined within a pixel.
type Mode int

// Reduction modes. ModeDefault selects ModeSum for extensive variables
// (mass, volume, kinetic energy) and ModeMean for all others.
const (
	ModeDefault Mode = iota
	ModeSum
	ModeMean
	ModeVariance
	ModeStd
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeSum:
		return "sum"
	case ModeMean:
		return "mean"
	case ModeVariance:
		return "variance"
	case ModeStd:
		return "std"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode returns the mode named by s.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return ModeDefault, nil
	case "sum":
		return ModeSum, nil
	case "mean", "wmean", "mass-weighted-mean", "weighted-mean":
		return ModeMean, nil
	case "variance", "var":
		return ModeVariance, nil
	case "std", "stddev":
		return ModeStd, nil
	}
	return 0, invalidParam("Mode", s, "must be sum, mean, variance, or std")
}

// weighted returns whether the mode divides by the accumulated weight.
func (m Mode) weighted() bool { return m == ModeMean || m == ModeVariance || m == ModeStd }

// secondPass returns whether the mode needs the per-pixel mean before
// it can be accumulated.
func (m Mode) secondPass() bool { return m == ModeVariance || m == ModeStd }

// ratio returns num/w, or 0 where there is no weight. Negative weights
// are divided by like any other.
func ratio(num, w float64) float64 {
	if w != 0 && !math.IsInf(w, 0) && !math.IsNaN(w) {
		return num / w
	}
	return 0
}

// reduce finalizes the accumulated channel num of one variable into out.
// weight is the accumulated weight and m2 the accumulated squared
// deviations from the pixel means; either may be nil when the mode does
// not use it. Pixels without weight are 0.
func reduce(mode Mode, num, weight, m2, out []float64) {
	switch mode {
	case ModeSum:
		copy(out, num)
	case ModeMean:
		for i := range out {
			out[i] = ratio(num[i], weight[i])
		}
	case ModeVariance, ModeStd:
		for i := range out {
			v := ratio(m2[i], weight[i])
			if v < 0 {
				v = 0
			}
			if mode == ModeStd {
				v = math.Sqrt(v)
			}
			out[i] = v
		}
	default:
		panic(fmt.Errorf("amrmap: cannot reduce with mode %v", mode))
	}
}

// pixelMeans returns num/weight for every pixel.
func pixelMeans(num, weight []float64) []float64 {
	o := make([]float64, len(num))
	for i := range o {
		o[i] = ratio(num[i], weight[i])
	}
	return o
}
