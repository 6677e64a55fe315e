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
)

func TestParseMode(t *testing.T) {
	for s, want := range map[string]Mode{
		"sum": ModeSum, "mean": ModeMean, "mass-weighted-mean": ModeMean,
		"Variance": ModeVariance, "var": ModeVariance, "std": ModeStd, "": ModeDefault,
	} {
		have, err := ParseMode(s)
		if err != nil || have != want {
			t.Errorf("%q: have %v (%v), want %v", s, have, err, want)
		}
	}
	if _, err := ParseMode("median"); err == nil {
		t.Error("expected an error")
	}
}

func TestReduce(t *testing.T) {
	num := []float64{6, 0, 3, -6}
	weight := []float64{2, 0, 0, -2}
	m2 := []float64{8, 0, 1e-30, -8}
	out := make([]float64, 4)
	for _, test := range []struct {
		mode Mode
		want []float64
	}{
		{ModeSum, []float64{6, 0, 3, -6}},
		{ModeMean, []float64{3, 0, 0, 3}},
		{ModeVariance, []float64{4, 0, 0, 4}},
		{ModeStd, []float64{2, 0, 0, 2}},
	} {
		reduce(test.mode, num, weight, m2, out)
		for i := range out {
			if math.IsNaN(out[i]) || out[i] != test.want[i] {
				t.Errorf("%v: pixel %d: have %g, want %g", test.mode, i, out[i], test.want[i])
			}
		}
	}
}
