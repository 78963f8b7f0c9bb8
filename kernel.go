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

import "math"

// weightCount is the resolution of the precomputed kernel table.
// Evaluation cost matters here: the kernel is applied once per cell per
// footprint, which is the hot loop of the whole pass.
const weightCount = 10000

// A kernel maps q, the squared distance from a footprint center
// normalized to 1 at the footprint boundary, to an accumulation weight.
// Weights are precomputed on a fixed table; q = 0 always maps to the
// kernel maximum and q ≥ 1 to exactly zero.
type kernel struct {
	table []float64
}

// newKernel builds the weight table for a validated configuration.
func newKernel(c *Config) (*kernel, error) {
	if err := c.Valid(); err != nil {
		return nil, err
	}
	k := &kernel{table: make([]float64, weightCount)}
	for i := range k.table {
		q := float64(i) / float64(weightCount)
		switch c.KernelShape {
		case KernelEWA:
			k.table[i] = math.Exp(-c.KernelDecay * q)
		case KernelParabolic:
			k.table[i] = 1 - q
		}
	}
	return k, nil
}

// weight returns the accumulation weight for normalized squared
// distance q.
func (k *kernel) weight(q float64) float64 {
	if q < 0 || q >= 1 || math.IsNaN(q) {
		return 0
	}
	return k.table[int(q*weightCount)]
}

// max returns the kernel's center weight.
func (k *kernel) max() float64 { return k.table[0] }
