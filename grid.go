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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// GridDef specifies the output grid that swath data are resampled to.
// (X0, Y0) is the upper-left corner of the upper-left cell in the units
// of the grid's spatial reference; rows increase downward from Y0 and
// columns increase rightward from X0, following raster convention.
// A GridDef must not be modified after creation; one GridDef may be
// shared read-only by any number of concurrent runs.
type GridDef struct {
	Name   string
	Nx, Ny int
	Dx, Dy float64
	X0, Y0 float64
	SR     *proj.SR
	Extent geom.Polygon

	// Proj4 is the textual projection specification SR was parsed
	// from, if any. It is carried along for output metadata only.
	Proj4 string
}

// NewGridRegular creates a new regular grid, where all grid cells are the
// same size. sr is the spatial reference of the grid, and (X0, Y0) is the
// upper-left corner.
func NewGridRegular(name string, nx, ny int, dx, dy, x0, y0 float64, sr *proj.SR) (*GridDef, error) {
	grid := &GridDef{
		Name: name,
		Nx:   nx, Ny: ny,
		Dx: dx, Dy: dy,
		X0: x0, Y0: y0,
		SR: sr,
	}
	if err := grid.valid(); err != nil {
		return nil, err
	}
	grid.Extent = geom.Polygon([]geom.Path{{
		{X: x0, Y: y0},
		{X: x0 + dx*float64(nx), Y: y0},
		{X: x0 + dx*float64(nx), Y: y0 - dy*float64(ny)},
		{X: x0, Y: y0 - dy*float64(ny)},
		{X: x0, Y: y0},
	}})
	return grid, nil
}

func (g *GridDef) valid() error {
	if g.Nx <= 0 || g.Ny <= 0 {
		return fmt.Errorf("swathgrid: grid %s has invalid dimensions %d×%d", g.Name, g.Nx, g.Ny)
	}
	if g.Dx <= 0 || g.Dy <= 0 {
		return fmt.Errorf("swathgrid: grid %s has invalid cell size %g×%g", g.Name, g.Dx, g.Dy)
	}
	if g.SR == nil {
		return fmt.Errorf("swathgrid: grid %s is missing a spatial reference", g.Name)
	}
	return nil
}

// Cells is the total number of cells in the grid.
func (g *GridDef) Cells() int { return g.Nx * g.Ny }

// CellCenter returns the spatial-reference coordinates of the center of
// cell (row, col).
func (g *GridDef) CellCenter(row, col int) (x, y float64) {
	x = g.X0 + (float64(col)+0.5)*g.Dx
	y = g.Y0 - (float64(row)+0.5)*g.Dy
	return
}

// CellPolygon returns the boundary of cell (row, col) in the grid's
// spatial reference.
func (g *GridDef) CellPolygon(row, col int) geom.Polygon {
	x := g.X0 + float64(col)*g.Dx
	y := g.Y0 - float64(row)*g.Dy
	return geom.Polygon([]geom.Path{{
		{X: x, Y: y},
		{X: x + g.Dx, Y: y},
		{X: x + g.Dx, Y: y - g.Dy},
		{X: x, Y: y - g.Dy},
		{X: x, Y: y},
	}})
}
