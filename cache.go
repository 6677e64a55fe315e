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
	"context"
	"runtime"

	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/amrmap/internal/hash"
)

// ResolverCache keeps resolved variables for every cell of a table in
// memory so that repeated projections of the same table, for example
// along several directions, resolve each variable only once. Identical
// concurrent requests are computed once. It is safe for concurrent use.
type ResolverCache struct {
	table *CellTable
	cache *requestcache.Cache
}

type resolveRequest struct {
	Name, Unit string
	Center     [3]float64
	Axis       Axis
}

// NewResolverCache returns a cache for t holding at most maxEntries
// resolved variables.
func NewResolverCache(t *CellTable, maxEntries int) *ResolverCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c := &ResolverCache{table: t}
	c.cache = requestcache.NewCache(c.resolve, runtime.GOMAXPROCS(-1),
		requestcache.Deduplicate(), requestcache.Memory(maxEntries))
	return c
}

func (c *ResolverCache) resolve(ctx context.Context, payload interface{}) (interface{}, error) {
	req := payload.(resolveRequest)
	r := &Resolver{Table: c.table, Center: req.Center, Axis: req.Axis}
	return r.Resolve(req.Name, req.Unit, nil)
}

// Resolve returns the values of variable name in unitSymbol for every
// cell in the table, with radii measured from center around axis. The
// returned slice is shared with the cache and must not be modified.
func (c *ResolverCache) Resolve(name, unitSymbol string, center [3]float64, axis Axis) ([]float64, error) {
	req := resolveRequest{Name: name, Unit: unitSymbol, Center: center, Axis: axis}
	if name != "r_sphere" && name != "r_cylinder" {
		// Only the radii depend on the reference point.
		req.Center, req.Axis = [3]float64{}, AxisZ
	}
	res, err := c.cache.NewRequest(context.Background(), req, hash.Key(req)).Result()
	if err != nil {
		return nil, err
	}
	return res.([]float64), nil
}

// Requests returns the number of requests received by the in-memory
// cache and by the resolver; their ratio is the miss rate.
func (c *ResolverCache) Requests() (cache, resolved int) {
	r := c.cache.Requests()
	return r[1], r[len(r)-1]
}
