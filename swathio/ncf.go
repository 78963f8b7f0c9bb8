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

package swathio

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/swathgrid"
)

// A NetCDFWriter writes finalized grids as NetCDF-3 files, one file per
// grid named <grid>.nc in Dir. Each channel becomes a float32 variable
// over dimensions (y, x), plus an int32 "count" variable, with the grid
// geometry recorded as global attributes.
type NetCDFWriter struct {
	Dir string
}

// WriteGrid implements swathgrid.GridWriter.
func (w *NetCDFWriter) WriteGrid(res *swathgrid.Result) error {
	g := res.Grid
	h := cdf.NewHeader([]string{"y", "x"}, []int{g.Ny, g.Nx})
	h.AddAttribute("", "comment", "swath data resampled by swathgrid")
	h.AddAttribute("", "grid_name", g.Name)
	if g.Proj4 != "" {
		h.AddAttribute("", "projection", g.Proj4)
	}
	h.AddAttribute("", "x0", []float64{g.X0})
	h.AddAttribute("", "y0", []float64{g.Y0})
	h.AddAttribute("", "dx", []float64{g.Dx})
	h.AddAttribute("", "dy", []float64{g.Dy})

	for _, name := range res.Channels {
		h.AddVariable(name, []string{"y", "x"}, []float32{0})
		h.AddAttribute(name, "_FillValue", []float32{float32(res.FillValue)})
	}
	h.AddVariable("count", []string{"y", "x"}, []int32{0})
	h.AddAttribute("count", "description", "number of swath pixels contributing to each cell")
	h.Define()

	path := filepath.Join(w.Dir, g.Name+".nc")
	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("swathio: creating %s: %w", path, err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("swathio: creating netcdf %s: %v", path, err)
	}
	for c, name := range res.Channels {
		data32 := make([]float32, len(res.Values[c].Elements))
		for i, e := range res.Values[c].Elements {
			data32[i] = float32(e)
		}
		if err := writeVar(f, name, data32); err != nil {
			ff.Close()
			return fmt.Errorf("swathio: writing %s to %s: %v", name, path, err)
		}
	}
	counts := make([]int32, len(res.Counts.Elements))
	for i, n := range res.Counts.Elements {
		counts[i] = int32(n)
	}
	if err := writeVar(f, "count", counts); err != nil {
		ff.Close()
		return fmt.Errorf("swathio: writing count to %s: %v", path, err)
	}
	return ff.Close()
}

func writeVar(f *cdf.File, name string, values interface{}) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	_, err := f.Writer(name, start, end).Write(values)
	return err
}

// A NetCDFReader reads a swath from a NetCDF file holding latitude,
// longitude, and channel variables over dimensions (scan, pixel).
// Values equal to a variable's _FillValue attribute (or to fill, for
// variables without one) are reported as NaN.
type NetCDFReader struct {
	ff    *os.File
	f     *cdf.File
	names []string
	vars  []string

	latVar, lonVar string
	scans, pixels  int
	fill           float64
	scan           int
}

// OpenNetCDFSwath opens a NetCDF swath file. channels maps output channel
// names to variable names; lat and lon name the geolocation variables.
func OpenNetCDFSwath(path, latVar, lonVar string, channels []Channel, fill float64) (*NetCDFReader, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("swathio: at least one channel variable is required")
	}
	ff, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("swathio: opening %s: %w", path, err)
	}
	f, err := cdf.Open(ff)
	if err != nil {
		ff.Close()
		return nil, fmt.Errorf("swathio: reading netcdf header of %s: %v", path, err)
	}
	r := &NetCDFReader{
		ff: ff, f: f,
		latVar: latVar, lonVar: lonVar,
		fill: fill,
	}
	dims := f.Header.Lengths(latVar)
	if len(dims) != 2 {
		ff.Close()
		return nil, fmt.Errorf("swathio: variable %s in %s has %d dimensions; want 2 (scan, pixel)",
			latVar, path, len(dims))
	}
	r.scans, r.pixels = dims[0], dims[1]
	for _, v := range append([]string{lonVar}, varNames(channels)...) {
		d := f.Header.Lengths(v)
		if len(d) != 2 || d[0] != r.scans || d[1] != r.pixels {
			ff.Close()
			return nil, fmt.Errorf("swathio: variable %s in %s does not match the %d×%d swath layout",
				v, path, r.scans, r.pixels)
		}
	}
	for _, c := range channels {
		r.names = append(r.names, c.Name)
		r.vars = append(r.vars, c.Path)
	}
	return r, nil
}

func varNames(channels []Channel) []string {
	v := make([]string, len(channels))
	for i, c := range channels {
		v[i] = c.Path
	}
	return v
}

// Channels implements swathgrid.SwathReader.
func (r *NetCDFReader) Channels() []string { return r.names }

// ReadScan implements swathgrid.SwathReader.
func (r *NetCDFReader) ReadScan() (*swathgrid.Scan, error) {
	if r.scan >= r.scans {
		return nil, io.EOF
	}
	s := &swathgrid.Scan{
		Index: r.scan,
		Lat:   make([]float64, r.pixels),
		Lon:   make([]float64, r.pixels),
		Data:  make([][]float64, len(r.vars)),
	}
	if err := r.readRow(r.latVar, s.Lat); err != nil {
		return nil, err
	}
	if err := r.readRow(r.lonVar, s.Lon); err != nil {
		return nil, err
	}
	for c, v := range r.vars {
		s.Data[c] = make([]float64, r.pixels)
		if err := r.readRow(v, s.Data[c]); err != nil {
			return nil, err
		}
	}
	r.scan++
	return s, nil
}

func (r *NetCDFReader) readRow(v string, dst []float64) error {
	rd := r.f.Reader(v, []int{r.scan, 0}, []int{r.scan + 1, r.pixels})
	buf := rd.Zero(r.pixels)
	if _, err := rd.Read(buf); err != nil {
		return fmt.Errorf("swathio: reading %s scan %d: %v", v, r.scan, err)
	}
	fill := r.fillFor(v)
	switch b := buf.(type) {
	case []float32:
		for i, x := range b {
			f := float64(x)
			if f == fill {
				f = math.NaN()
			}
			dst[i] = f
		}
	case []float64:
		for i, x := range b {
			if x == fill {
				x = math.NaN()
			}
			dst[i] = x
		}
	default:
		return fmt.Errorf("swathio: variable %s has unsupported type %T", v, buf)
	}
	return nil
}

// fillFor returns the variable's _FillValue attribute if it has one, or
// the reader's default fill sentinel.
func (r *NetCDFReader) fillFor(v string) float64 {
	switch a := r.f.Header.GetAttribute(v, "_FillValue").(type) {
	case []float32:
		if len(a) > 0 {
			return float64(a[0])
		}
	case []float64:
		if len(a) > 0 {
			return a[0]
		}
	}
	return r.fill
}

// Close closes the underlying file.
func (r *NetCDFReader) Close() error { return r.ff.Close() }
