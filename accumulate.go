/*
Copyright © 2026 the SwathGrid authors.
This file is part of SwathGrid.

SwathGrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SwathGrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SwathGrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package swathgrid

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// An Accumulator collects weighted pixel contributions for one output
// grid. Sums and weights are held in float64 regardless of the input
// precision, because a cell may receive millions of small-weight
// additions over a pass. An Accumulator is not safe for concurrent use;
// parallel runs give each worker its own replica and Merge them, which is
// exact because sum, weight, and count are associative and commutative
// reductions.
type Accumulator struct {
	grid     *GridDef
	channels []string
	kernel   *kernel
	cfg      Config

	sums    []*sparse.DenseArray // per channel, Ny×Nx
	weights *sparse.DenseArray   // Ny×Nx
	counts  *sparse.DenseArrayInt
}

// NewAccumulator creates an accumulator for the given grid and channel
// names. The configuration is validated before any storage is allocated.
func NewAccumulator(grid *GridDef, channels []string, cfg Config) (*Accumulator, error) {
	if err := grid.valid(); err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("swathgrid: grid %s: at least one channel is required", grid.Name)
	}
	k, err := newKernel(&cfg)
	if err != nil {
		return nil, err
	}
	a := &Accumulator{
		grid:     grid,
		channels: channels,
		kernel:   k,
		cfg:      cfg,
		sums:     make([]*sparse.DenseArray, len(channels)),
		weights:  sparse.ZerosDense(grid.Ny, grid.Nx),
		counts:   sparse.ZerosDenseInt(grid.Ny, grid.Nx),
	}
	for c := range a.sums {
		a.sums[c] = sparse.ZerosDense(grid.Ny, grid.Nx)
	}
	return a, nil
}

// Grid returns the grid definition being accumulated into.
func (a *Accumulator) Grid() *GridDef { return a.grid }

// Channels returns the channel names, in accumulation order.
func (a *Accumulator) Channels() []string { return a.channels }

// add distributes one pixel's channel values over the cells inside its
// footprint. values[c] is the pixel's value for channel c; NaN values are
// excluded from that channel's sum but the pixel's weight and count still
// apply to every cell it touches. Only cells within the bounding box of
// the rotated ellipse are visited.
func (a *Accumulator) add(fp *footprint, values []float64) {
	r0 := int(math.Ceil(fp.row - fp.halfY - 0.5))
	r1 := int(math.Floor(fp.row + fp.halfY - 0.5))
	c0 := int(math.Ceil(fp.col - fp.halfX - 0.5))
	c1 := int(math.Floor(fp.col + fp.halfX - 0.5))
	if r0 < 0 {
		r0 = 0
	}
	if c0 < 0 {
		c0 = 0
	}
	if r1 > a.grid.Ny-1 {
		r1 = a.grid.Ny - 1
	}
	if c1 > a.grid.Nx-1 {
		c1 = a.grid.Nx - 1
	}

	touched := false
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			// Cell (r, c) has its center at (c+0.5, r+0.5) in
			// continuous grid coordinates.
			q := fp.distance(float64(c)+0.5, float64(r)+0.5)
			if q >= 1 {
				continue
			}
			a.deposit(r, c, a.kernel.weight(q), values)
			touched = true
		}
	}
	if touched {
		return
	}

	// The footprint covered no cell center. So that every valid pixel
	// contributes somewhere, deposit the full center weight into the
	// nearest cell if it is within the grid.
	r := int(math.Floor(fp.row))
	c := int(math.Floor(fp.col))
	if r >= 0 && r < a.grid.Ny && c >= 0 && c < a.grid.Nx {
		a.deposit(r, c, a.kernel.max(), values)
	}
}

func (a *Accumulator) deposit(r, c int, w float64, values []float64) {
	i := a.weights.Index1d(r, c)
	a.weights.Elements[i] += w
	a.counts.Elements[i]++
	for ch, v := range values {
		if math.IsNaN(v) {
			continue
		}
		a.sums[ch].Elements[i] += w * v
	}
}

// Merge folds the contents of other, which must target the same grid with
// the same channels, into a. other should not be used afterward.
func (a *Accumulator) Merge(other *Accumulator) error {
	if other.grid != a.grid || len(other.sums) != len(a.sums) {
		return fmt.Errorf("swathgrid: cannot merge accumulators for different grids or channel sets")
	}
	a.weights.AddDense(other.weights)
	for i, n := range other.counts.Elements {
		a.counts.Elements[i] += n
	}
	for c := range a.sums {
		a.sums[c].AddDense(other.sums[c])
	}
	return nil
}

// A Result holds the finalized output of one grid: for each channel a
// Ny×Nx array of weighted means (or the fill value where coverage was
// insufficient), plus the per-cell contribution count shared by all
// channels.
type Result struct {
	Grid      *GridDef
	Channels  []string
	Values    []*sparse.DenseArray
	Counts    *sparse.DenseArrayInt
	FillValue float64
}

// Finalize computes the output grid from the accumulated state: cells
// whose weight total exceeds the configured minimum get the weighted mean
// of their contributions, and all other cells get the fill value with
// their (possibly zero) count reported as is. Finalize does not modify
// the accumulator, so it is idempotent and may be called on the partial
// state left by a cancelled run.
func (a *Accumulator) Finalize() *Result {
	res := &Result{
		Grid:      a.grid,
		Channels:  a.channels,
		Values:    make([]*sparse.DenseArray, len(a.sums)),
		Counts:    sparse.ZerosDenseInt(a.grid.Ny, a.grid.Nx),
		FillValue: a.cfg.FillValue,
	}
	copy(res.Counts.Elements, a.counts.Elements)
	for c, sum := range a.sums {
		out := sparse.ZerosDense(a.grid.Ny, a.grid.Nx)
		for i, w := range a.weights.Elements {
			if w > a.cfg.MinWeight {
				out.Elements[i] = sum.Elements[i] / w
			} else {
				out.Elements[i] = a.cfg.FillValue
			}
		}
		res.Values[c] = out
	}
	return res
}
