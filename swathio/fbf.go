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

// Package swathio provides swath readers and grid writers for the
// swathgrid resampling core: ms2gt-style flat binary files and NetCDF.
package swathio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/spatialmodel/swathgrid"
)

// DefaultFill is the flat binary fill sentinel used by the ms2gt swath
// files this package is compatible with.
const DefaultFill = -999.0

// A Channel names one flat binary channel file.
type Channel struct {
	Name string
	Path string
}

// A FlatReader reads a swath from flat binary files of 4-byte
// little-endian floats, one value per pixel in scan-major order: one file
// of latitudes, one of longitudes, and one per channel. This is the
// layout the ms2gt tools exchange swath data in. Values equal to the
// fill sentinel are reported as NaN.
type FlatReader struct {
	pixels int
	fill   float64
	names  []string

	lat, lon *bufio.Reader
	chans    []*bufio.Reader
	closers  []io.Closer

	buf  []float32
	scan int
}

// NewFlatReader opens a flat binary swath with the given number of pixels
// per scan. fill is the input fill sentinel (DefaultFill for ms2gt
// files).
func NewFlatReader(pixels int, fill float64, latPath, lonPath string, channels []Channel) (*FlatReader, error) {
	if pixels <= 0 {
		return nil, fmt.Errorf("swathio: pixels per scan must be positive but is %d", pixels)
	}
	r := &FlatReader{
		pixels: pixels,
		fill:   fill,
		buf:    make([]float32, pixels),
	}
	open := func(path string) (*bufio.Reader, error) {
		f, err := os.Open(path)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("swathio: opening %s: %w", path, err)
		}
		r.closers = append(r.closers, f)
		return bufio.NewReaderSize(f, 1<<16), nil
	}
	var err error
	if r.lat, err = open(latPath); err != nil {
		return nil, err
	}
	if r.lon, err = open(lonPath); err != nil {
		return nil, err
	}
	for _, c := range channels {
		br, err := open(c.Path)
		if err != nil {
			return nil, err
		}
		r.chans = append(r.chans, br)
		r.names = append(r.names, c.Name)
	}
	return r, nil
}

// Channels implements swathgrid.SwathReader.
func (r *FlatReader) Channels() []string { return r.names }

// ReadScan implements swathgrid.SwathReader. It returns io.EOF once the
// latitude file is exhausted at a scan boundary; a partial scan in any
// file is an error.
func (r *FlatReader) ReadScan() (*swathgrid.Scan, error) {
	s := &swathgrid.Scan{
		Index: r.scan,
		Lat:   make([]float64, r.pixels),
		Lon:   make([]float64, r.pixels),
		Data:  make([][]float64, len(r.chans)),
	}
	if err := r.readRow(r.lat, s.Lat, "latitude"); err != nil {
		return nil, err
	}
	if err := r.readRow(r.lon, s.Lon, "longitude"); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("swathio: longitude file is shorter than latitude file: %w", err)
	}
	for c, br := range r.chans {
		s.Data[c] = make([]float64, r.pixels)
		if err := r.readRow(br, s.Data[c], r.names[c]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("swathio: channel %s is shorter than latitude file: %w", r.names[c], err)
		}
	}
	r.scan++
	return s, nil
}

func (r *FlatReader) readRow(br *bufio.Reader, dst []float64, what string) error {
	if err := binary.Read(br, binary.LittleEndian, r.buf); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("swathio: reading %s scan %d: %w", what, r.scan, err)
	}
	for i, v := range r.buf {
		f := float64(v)
		if f == r.fill {
			f = math.NaN()
		}
		dst[i] = f
	}
	return nil
}

// Close closes all underlying files.
func (r *FlatReader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// A Float32Writer streams float64 values to a flat binary file of 4-byte
// little-endian floats, substituting a fill sentinel for NaN.
type Float32Writer struct {
	f    *os.File
	w    *bufio.Writer
	fill float32
}

// CreateFloat32 creates a flat binary file at path. NaNs written to it
// become fill.
func CreateFloat32(path string, fill float64) (*Float32Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("swathio: creating %s: %w", path, err)
	}
	return &Float32Writer{f: f, w: bufio.NewWriterSize(f, 1<<16), fill: float32(fill)}, nil
}

// Write appends vals to the file.
func (w *Float32Writer) Write(vals []float64) error {
	buf := make([]float32, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			buf[i] = w.fill
			continue
		}
		buf[i] = float32(v)
	}
	return binary.Write(w.w, binary.LittleEndian, buf)
}

// Close flushes and closes the file.
func (w *Float32Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// A FlatWriter writes finalized grids as flat binary files in a
// directory: one float32 file per channel named
// <grid>_<channel>_<ny>_<nx>.img and one int32 count file named
// <grid>_count_<ny>_<nx>.img, all row-major with row 0 first.
type FlatWriter struct {
	Dir string
}

// WriteGrid implements swathgrid.GridWriter.
func (w *FlatWriter) WriteGrid(res *swathgrid.Result) error {
	g := res.Grid
	for c, name := range res.Channels {
		path := filepath.Join(w.Dir, fmt.Sprintf("%s_%s_%05d_%05d.img", g.Name, name, g.Ny, g.Nx))
		fw, err := CreateFloat32(path, res.FillValue)
		if err != nil {
			return err
		}
		if err := fw.Write(res.Values[c].Elements); err != nil {
			fw.Close()
			return fmt.Errorf("swathio: writing %s: %w", path, err)
		}
		if err := fw.Close(); err != nil {
			return fmt.Errorf("swathio: closing %s: %w", path, err)
		}
	}

	path := filepath.Join(w.Dir, fmt.Sprintf("%s_count_%05d_%05d.img", g.Name, g.Ny, g.Nx))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("swathio: creating %s: %w", path, err)
	}
	bw := bufio.NewWriterSize(f, 1<<16)
	counts := make([]int32, len(res.Counts.Elements))
	for i, n := range res.Counts.Elements {
		counts[i] = int32(n)
	}
	if err := binary.Write(bw, binary.LittleEndian, counts); err != nil {
		f.Close()
		return fmt.Errorf("swathio: writing %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("swathio: writing %s: %w", path, err)
	}
	return f.Close()
}
