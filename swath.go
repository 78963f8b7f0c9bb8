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
)

// A Scan is one instrument scan row: the geodetic location of each pixel
// along the row plus the measured value of each channel at each pixel.
// A channel value of NaN marks an invalid (fill) measurement; a latitude
// or longitude of NaN marks a pixel with no usable geolocation. Scans are
// transient: they are produced by a SwathReader, consumed within a single
// resampling pass, and not retained afterward.
type Scan struct {
	// Index is the zero-based position of this scan in acquisition
	// order.
	Index int

	// Lat and Lon hold the geodetic coordinates of each pixel in the
	// scan, in degrees.
	Lat, Lon []float64

	// Data holds one slice of per-pixel values for each channel.
	Data [][]float64
}

// Pixels returns the number of pixels in the scan.
func (s *Scan) Pixels() int { return len(s.Lat) }

// check verifies that all of a scan's slices have matching lengths.
func (s *Scan) check(channels int) error {
	if len(s.Lon) != len(s.Lat) {
		return fmt.Errorf("swathgrid: scan %d has %d latitudes but %d longitudes",
			s.Index, len(s.Lat), len(s.Lon))
	}
	if len(s.Data) != channels {
		return fmt.Errorf("swathgrid: scan %d has %d channels; want %d",
			s.Index, len(s.Data), channels)
	}
	for c, d := range s.Data {
		if len(d) != len(s.Lat) {
			return fmt.Errorf("swathgrid: scan %d channel %d has %d values but %d pixels",
				s.Index, c, len(d), len(s.Lat))
		}
	}
	return nil
}

// A SwathReader produces the scans of a swath in acquisition order.
// ReadScan should return io.EOF after the last scan. Readers are consumed
// in a single pass; they need not support rewinding and are not used
// concurrently.
type SwathReader interface {
	// Channels returns the names of the channels carried by each
	// scan, in the order they appear in Scan.Data.
	Channels() []string

	// ReadScan returns the next scan, or io.EOF when the swath is
	// exhausted.
	ReadScan() (*Scan, error)
}

// A SliceReader is a SwathReader over scans already held in memory.
// It is mainly useful for testing and for small swaths.
type SliceReader struct {
	ChannelNames []string
	Scans        []*Scan
	next         int
}

// Channels implements SwathReader.
func (r *SliceReader) Channels() []string { return r.ChannelNames }

// ReadScan implements SwathReader.
func (r *SliceReader) ReadScan() (*Scan, error) {
	if r.next >= len(r.Scans) {
		return nil, io.EOF
	}
	s := r.Scans[r.next]
	r.next++
	return s, nil
}
