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

// Package swathgrid resamples irregularly located satellite swath data
// onto regular map-projected grids.
//
// Each swath pixel carries its own geodetic coordinate. A single pass
// over the swath projects every pixel into continuous grid coordinates,
// estimates the pixel's elliptical ground footprint from the positions of
// its neighbors in the same and adjacent scans, and spreads the pixel's
// channel values over the grid cells inside that footprint with a
// radially decaying weight (forward navigation resampling, after the
// fornav program in NSIDC's MODIS Swath-to-Grid Toolkit). Cells divide
// their accumulated weighted sums by their accumulated weights to produce
// the output grid; cells that never accumulate enough weight report a
// fill value and a contribution count of zero.
//
// Swath input and grid output are abstracted behind the SwathReader and
// GridWriter interfaces; the swathio package provides flat binary and
// NetCDF implementations.
package swathgrid
