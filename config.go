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
)

// Config holds the resampling parameters for a run. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// KernelShape selects the weighting kernel: KernelEWA or
	// KernelParabolic.
	KernelShape string

	// KernelDecay is the decay constant k in the EWA kernel
	// w = exp(-k·q), where q is the squared distance from the
	// footprint center normalized so that q = 1 at the footprint
	// boundary. Ignored by the parabolic kernel.
	KernelDecay float64

	// MaxFootprintCells clamps each footprint semi-axis to this many
	// grid cells, bounding the rasterization cost of pathological
	// scan geometries such as those adjacent to projection
	// singularities.
	MaxFootprintCells float64

	// MinWeight is the smallest accumulated weight total for which a
	// cell is considered covered. Cells at or below this total
	// finalize to FillValue with their count reported as is.
	MinWeight float64

	// FillValue is the output value for uncovered cells.
	FillValue float64

	// Margin is the width, in cells, of the band outside the grid
	// edges within which projected pixels are retained so that
	// footprints partially overlapping the grid still contribute.
	// The footprint clamp radius is added to this internally.
	Margin float64

	// Workers is the number of accumulation workers. Zero or
	// negative means runtime.GOMAXPROCS(0).
	Workers int

	// BlockScans is the number of scans handed to a worker at a
	// time. Zero or negative means the default of 16.
	BlockScans int
}

// Weighting kernel shapes.
const (
	// KernelEWA is the elliptical weighted averaging kernel
	// w = exp(-k·q) inside the footprint and 0 outside it.
	KernelEWA = "ewa"

	// KernelParabolic is w = 1 - q inside the footprint and 0
	// outside it.
	KernelParabolic = "parabolic"
)

const defaultBlockScans = 16

// DefaultConfig returns the default resampling parameters: an EWA kernel
// decaying to 1% of its center weight at the footprint boundary,
// footprints clamped to 10 cells, and the ms2gt fill conventions.
func DefaultConfig() Config {
	return Config{
		KernelShape:       KernelEWA,
		KernelDecay:       math.Log(100),
		MaxFootprintCells: 10,
		MinWeight:         0.01,
		FillValue:         -999.0,
	}
}

// Valid checks the configuration, returning an error describing the first
// problem found. It is called before any accumulation begins.
func (c *Config) Valid() error {
	switch c.KernelShape {
	case KernelEWA:
		if c.KernelDecay <= 0 || math.IsNaN(c.KernelDecay) || math.IsInf(c.KernelDecay, 0) {
			return fmt.Errorf("swathgrid: EWA kernel decay must be positive and finite but is %g", c.KernelDecay)
		}
	case KernelParabolic:
	default:
		return fmt.Errorf("swathgrid: unknown kernel shape %q", c.KernelShape)
	}
	if c.MaxFootprintCells < 1 {
		return fmt.Errorf("swathgrid: maximum footprint extent must be at least 1 cell but is %g", c.MaxFootprintCells)
	}
	if c.MinWeight < 0 || math.IsNaN(c.MinWeight) {
		return fmt.Errorf("swathgrid: minimum weight must be non-negative but is %g", c.MinWeight)
	}
	if math.IsNaN(c.FillValue) {
		return fmt.Errorf("swathgrid: fill value must not be NaN")
	}
	if c.Margin < 0 {
		return fmt.Errorf("swathgrid: margin must be non-negative but is %g", c.Margin)
	}
	return nil
}
