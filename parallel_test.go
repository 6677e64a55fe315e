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

func TestPartition(t *testing.T) {
	for _, test := range []struct {
		n, workers int
		want       [][2]int
	}{
		{10, 3, [][2]int{{0, 4}, {4, 7}, {7, 10}}},
		{2, 2, [][2]int{{0, 1}, {1, 2}}},
		{0, 1, [][2]int{{0, 0}}},
	} {
		if have := partition(test.n, test.workers); !reflect.DeepEqual(have, test.want) {
			t.Errorf("partition(%d, %d): have %v, want %v", test.n, test.workers, have, test.want)
		}
	}
}

func TestNumWorkers(t *testing.T) {
	if have := numWorkers(4, 2); have > 2 {
		t.Errorf("workers should not exceed cells: have %d", have)
	}
	if have := numWorkers(8, 0); have != 1 {
		t.Errorf("empty selection: have %d, want 1", have)
	}
	if have := numWorkers(1, 100); have != 1 {
		t.Errorf("have %d, want 1", have)
	}
}

func TestRunWorkersFailure(t *testing.T) {
	ranges := partition(30, 3)
	newAcc := func() *accumulator { return newAccumulator(StrategyDense, 2, 2, 1) }
	errBad := errors.New("bad cell")
	_, err := runWorkers(ranges, newAcc, func(acc *accumulator, lo, hi int) error {
		switch lo {
		case 10:
			panic("index out of range")
		case 20:
			return errBad
		}
		acc.add(0, 0, 1)
		return nil
	}, nil)
	if !errors.Is(err, ErrWorkerFailure) {
		t.Fatalf("have %v, want worker failure", err)
	}
	if !errors.Is(err, errBad) {
		t.Errorf("error should wrap the worker error: %v", err)
	}
	var we *WorkerError
	if !errors.As(err, &we) || len(we.Errs) != 2 {
		t.Errorf("both failed workers should be reported: %v", err)
	}

	acc, err := runWorkers(ranges, newAcc, func(acc *accumulator, lo, hi int) error {
		acc.add(0, 3, float64(hi-lo))
		return nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if have := acc.channel(0).Elements[3]; have != 30 {
		t.Errorf("merged: have %g, want 30", have)
	}
}
