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
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// numWorkers returns the number of workers to use for n cells with the
// given thread budget. A budget of zero or less means one worker per CPU.
func numWorkers(threads, n int) int {
	w := runtime.NumCPU()
	if threads > 0 && threads < w {
		w = threads
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// partition splits n items into the given number of contiguous ranges
// whose sizes differ by at most one.
func partition(n, workers int) [][2]int {
	o := make([][2]int, workers)
	lo := 0
	for w := range o {
		size := n / workers
		if w < n%workers {
			size++
		}
		o[w] = [2]int{lo, lo + size}
		lo += size
	}
	return o
}

// runWorkers runs work on each range in its own goroutine with a private
// accumulator, then merges the accumulators in range order so that the
// result does not depend on the order in which workers finish. If any
// worker fails or panics, the errors of all failed workers are returned
// together and no accumulator is returned.
func runWorkers(ranges [][2]int, newAcc func() *accumulator,
	work func(acc *accumulator, lo, hi int) error, log logrus.FieldLogger) (*accumulator, error) {

	accs := make([]*accumulator, len(ranges))
	errs := make([]error, len(ranges))
	var g errgroup.Group
	for w, r := range ranges {
		w, r := w, r
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("worker %d (cells %d-%d): panic: %v", w, r[0], r[1], p)
				}
				errs[w] = err
			}()
			acc := newAcc()
			if err := work(acc, r[0], r[1]); err != nil {
				return fmt.Errorf("worker %d (cells %d-%d): %w", w, r[0], r[1], err)
			}
			accs[w] = acc
			if log != nil {
				log.WithFields(logrus.Fields{
					"worker": w,
					"cells":  r[1] - r[0],
				}).Debug("amrmap: worker finished")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		we := new(WorkerError)
		for _, e := range errs {
			if e != nil {
				we.Errs = append(we.Errs, e)
			}
		}
		return nil, we
	}
	merged := accs[0]
	for _, a := range accs[1:] {
		merged.merge(a)
	}
	return merged, nil
}
