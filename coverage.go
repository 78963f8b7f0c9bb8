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
	"github.com/GaryBoone/GoStats/stats"
	"github.com/gonum/floats"
)

// A Coverage report describes how well a swath covered an output grid:
// how many cells received any contribution and the distribution of
// contribution counts over those cells. Cells with zero contributions are
// excluded from the count statistics.
type Coverage struct {
	Grid         string
	TotalCells   int
	CoveredCells int

	// CountMean, CountStdDev, CountMin, and CountMax describe the
	// per-cell contribution counts of covered cells.
	CountMean   float64
	CountStdDev float64
	CountMin    float64
	CountMax    float64

	// WeightSum is the total accumulated weight over the grid.
	WeightSum float64
}

// CoveredFraction is the fraction of grid cells that received at least
// one contribution.
func (c *Coverage) CoveredFraction() float64 {
	if c.TotalCells == 0 {
		return 0
	}
	return float64(c.CoveredCells) / float64(c.TotalCells)
}

// Coverage computes the coverage report for the accumulated state so
// far. Like Finalize, it does not modify the accumulator.
func (a *Accumulator) Coverage() *Coverage {
	c := &Coverage{
		Grid:       a.grid.Name,
		TotalCells: a.grid.Cells(),
		WeightSum:  floats.Sum(a.weights.Elements),
	}
	var st stats.Stats
	for _, n := range a.counts.Elements {
		if n == 0 {
			continue
		}
		c.CoveredCells++
		st.Update(float64(n))
	}
	if c.CoveredCells > 0 {
		c.CountMean = st.Mean()
		c.CountMin = st.Min()
		c.CountMax = st.Max()
		if c.CoveredCells > 1 {
			c.CountStdDev = st.SampleStandardDeviation()
		}
	}
	return c
}
