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
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom/proj"
)

// geodeticProj is the spatial reference that swath pixel coordinates are
// given in.
const geodeticProj = "+proj=longlat"

// ErrInvalidCoordinate is returned when a geodetic coordinate is outside
// the valid latitude/longitude ranges or is not a number.
var ErrInvalidCoordinate = errors.New("swathgrid: invalid geodetic coordinate")

// A Projector converts geodetic coordinates to continuous column/row
// coordinates of one output grid. It holds no mutable state and may be
// shared by concurrent callers.
type Projector struct {
	grid      *GridDef
	transform proj.Transformer

	// margin is the number of cells outside the grid edges within
	// which a coordinate is still considered usable, so that pixels
	// whose footprints only partially overlap the grid are not
	// discarded prematurely.
	margin float64
}

// NewProjector creates a Projector for the given grid. margin is in units
// of grid cells; see ms2gt's ll2cr "rind" option for the equivalent
// concept.
func NewProjector(grid *GridDef, margin float64) (*Projector, error) {
	if err := grid.valid(); err != nil {
		return nil, err
	}
	if margin < 0 {
		return nil, fmt.Errorf("swathgrid: projector margin must be non-negative but is %g", margin)
	}
	longlat, err := proj.Parse(geodeticProj)
	if err != nil {
		return nil, fmt.Errorf("swathgrid: parsing geodetic spatial reference: %v", err)
	}
	ct, err := longlat.NewTransform(grid.SR)
	if err != nil {
		return nil, fmt.Errorf("swathgrid: creating transform to grid %s: %v", grid.Name, err)
	}
	if ct == nil {
		// NewTransform returns a nil Transformer when the two
		// spatial references are equivalent, i.e. the grid is itself
		// geographic.
		ct = func(x, y float64) (float64, float64, error) { return x, y, nil }
	}
	return &Projector{grid: grid, transform: ct, margin: margin}, nil
}

// Grid returns the grid definition this projector targets.
func (p *Projector) Grid() *GridDef { return p.grid }

// Project converts a geodetic coordinate to continuous (column, row)
// coordinates of the output grid. Cell (i, j) spans columns [j, j+1) and
// rows [i, i+1), so a pixel exactly at the upper-left grid corner maps to
// (0, 0). in reports whether the result falls within the grid expanded by
// the projector's margin; a coordinate with in == false carries no error
// but should not be accumulated. A non-nil error means the coordinate was
// invalid or the projection is undefined there, and the pixel should be
// skipped.
func (p *Projector) Project(lat, lon float64) (col, row float64, in bool, err error) {
	if math.IsNaN(lat) || math.IsNaN(lon) ||
		lat < -90 || lat > 90 || lon < -360 || lon > 360 {
		return 0, 0, false, ErrInvalidCoordinate
	}
	x, y, err := p.transform(lon, lat)
	if err != nil {
		return 0, 0, false, fmt.Errorf("swathgrid: projecting (%g, %g) to grid %s: %v",
			lat, lon, p.grid.Name, err)
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, false, fmt.Errorf("swathgrid: projection of (%g, %g) is undefined on grid %s",
			lat, lon, p.grid.Name)
	}
	col = (x - p.grid.X0) / p.grid.Dx
	row = (p.grid.Y0 - y) / p.grid.Dy
	in = col >= -p.margin && col < float64(p.grid.Nx)+p.margin &&
		row >= -p.margin && row < float64(p.grid.Ny)+p.margin
	return col, row, in, nil
}
