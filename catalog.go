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
	"io"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/geom/proj"
)

// GridSpec holds the parameters needed to construct a GridDef. It is the
// TOML representation of one entry in a grid catalog.
type GridSpec struct {
	// Projection is a Proj4-style specification of the grid's map
	// projection, e.g.
	// "+proj=lcc +lat_1=33 +lat_2=45 +lat_0=40 +lon_0=-97".
	Projection string

	// X0 and Y0 are the projection coordinates of the upper-left
	// corner of the grid.
	X0, Y0 float64

	// Dx and Dy are the cell edge lengths in projection units.
	Dx, Dy float64

	// Nx and Ny are the number of columns and rows, respectively.
	Nx, Ny int
}

// GridDef constructs a grid definition from the specification,
// parsing the projection string.
func (s GridSpec) GridDef(name string) (*GridDef, error) {
	sr, err := proj.Parse(s.Projection)
	if err != nil {
		return nil, fmt.Errorf("swathgrid: parsing projection for grid %s: %v", name, err)
	}
	g, err := NewGridRegular(name, s.Nx, s.Ny, s.Dx, s.Dy, s.X0, s.Y0, sr)
	if err != nil {
		return nil, err
	}
	g.Proj4 = s.Projection
	return g, nil
}

// A Catalog is a collection of named grid definitions, taking the role
// that grid parameter definition files play in the ms2gt tool chain.
type Catalog struct {
	Grids map[string]GridSpec
}

// ReadCatalog decodes a TOML grid catalog from r.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	c := new(Catalog)
	if _, err := toml.NewDecoder(r).Decode(c); err != nil {
		return nil, fmt.Errorf("swathgrid: decoding grid catalog: %v", err)
	}
	return c, nil
}

// LoadCatalog reads a TOML grid catalog from the given file.
func LoadCatalog(filename string) (*Catalog, error) {
	c := new(Catalog)
	if _, err := toml.DecodeFile(filename, c); err != nil {
		return nil, fmt.Errorf("swathgrid: decoding grid catalog %s: %v", filename, err)
	}
	return c, nil
}

// Grid constructs the named grid definition.
func (c *Catalog) Grid(name string) (*GridDef, error) {
	spec, ok := c.Grids[name]
	if !ok {
		return nil, fmt.Errorf("swathgrid: grid %s is not in the catalog", name)
	}
	return spec.GridDef(name)
}

// Names returns the names of the grids in the catalog, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Grids))
	for name := range c.Grids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
