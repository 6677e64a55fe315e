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

// Package amrmap projects and reduces adaptive-mesh-refinement (AMR)
// simulation cells onto uniform grids.
//
// Cells of all refinement levels are deposited onto a single output map
// by the exact overlap of their footprints with the pixels, so summed
// quantities such as mass are conserved regardless of the map
// resolution. Several variables can be projected in one pass, each with
// its own reduction: a sum, or a mean, variance, or standard deviation
// weighted by another variable. The work is split among parallel workers
// that each own an accumulator; the accumulators are merged in a fixed
// order so that results do not depend on the number of workers.
package amrmap

// Version gives the version number.
const Version = "0.3.0"

// DataVersion is the version of the cell table interchange format.
const DataVersion = "1.0.0"
