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

// minAxisCells is the semi-axis, in cells, of the minimal isotropic
// footprint used when neighbor geometry is degenerate or unavailable.
const minAxisCells = 0.5

// A footprint is the elliptical sensitivity area of one swath pixel in
// continuous grid coordinates. The ellipse is stored as the quadratic
// form q(wx, wy) = a·wx² + 2b·wx·wy + c·wy² over offsets (wx, wy) from
// the center; q ≤ 1 is the elliptical support and q is the normalized
// squared distance that the weighting kernel is evaluated at.
type footprint struct {
	col, row float64
	a, b, c  float64

	// halfX and halfY are the half extents of the axis-aligned
	// bounding box of the q = 1 ellipse.
	halfX, halfY float64
}

// setAxes fills in the quadratic form from the semi-axis vectors
// u (along-scan) and v (along-track), given in grid coordinates.
// It reports whether the vectors span a proper ellipse.
func (f *footprint) setAxes(ux, uy, vx, vy float64) bool {
	d := ux*vy - uy*vx
	if math.Abs(d) < 1e-12 {
		return false
	}
	d2 := d * d
	f.a = (uy*uy + vy*vy) / d2
	f.b = -(ux*uy + vx*vy) / d2
	f.c = (ux*ux + vx*vx) / d2
	// ac - b² = 1/d² for this construction, so the bounding box is
	// halfX = √c·|d|, halfY = √a·|d|.
	ad := math.Abs(d)
	f.halfX = math.Sqrt(f.c) * ad
	f.halfY = math.Sqrt(f.a) * ad
	return true
}

// setIsotropic makes the footprint a circle of radius r cells.
func (f *footprint) setIsotropic(r float64) {
	f.a = 1 / (r * r)
	f.b = 0
	f.c = f.a
	f.halfX = r
	f.halfY = r
}

// distance returns the normalized squared distance of grid coordinate
// (col, row) from the footprint center.
func (f *footprint) distance(col, row float64) float64 {
	wx := col - f.col
	wy := row - f.row
	return f.a*wx*wx + 2*f.b*wx*wy + f.c*wy*wy
}

// clampVec limits the length of vector (x, y) to max cells, and grows it
// to the minimal axis length if it is shorter than that. A zero vector
// becomes the fallback direction (fx, fy), which must have length
// minAxisCells.
func clampVec(x, y, max, fx, fy float64) (float64, float64) {
	l := math.Hypot(x, y)
	if l < 1e-12 {
		return fx, fy
	}
	if l > max {
		s := max / l
		return x * s, y * s
	}
	if l < minAxisCells {
		s := minAxisCells / l
		return x * s, y * s
	}
	return x, y
}

// A projScan holds the projected grid coordinates of one scan against one
// grid. Pixels that were invalid, failed to project, or fell outside the
// grid margin have NaN coordinates. Buffers are recycled by the owning
// scanRing.
type projScan struct {
	idx        int
	scan       *Scan
	cols, rows []float64
}

// A scanRing is a fixed-depth ring of the three projected scans
// (previous, current, next) needed to estimate the footprint of pixels in
// the current scan. Its buffers are allocated once and reused for every
// scan that passes through, so a pass over the swath does no per-scan
// allocation beyond the first three scans.
type scanRing struct {
	bufs  [3]*projScan
	count int // scans pushed so far
}

func newScanRing(pixels int) *scanRing {
	r := new(scanRing)
	for i := range r.bufs {
		r.bufs[i] = &projScan{
			cols: make([]float64, pixels),
			rows: make([]float64, pixels),
		}
	}
	return r
}

// reset empties the ring, keeping its buffers for reuse.
func (r *scanRing) reset() { r.count = 0 }

// nextBuf returns the buffer the next scan should be projected into.
// The returned buffer recycles the storage of the scan that is about to
// fall out of the ring.
func (r *scanRing) nextBuf() *projScan { return r.bufs[r.count%3] }

// push commits the buffer returned by the preceding nextBuf call.
func (r *scanRing) push() { r.count++ }

// at returns the projected scan with index i, or nil if it has been
// evicted from the ring or not yet pushed.
func (r *scanRing) at(i int) *projScan {
	if i < 0 || i >= r.count || i < r.count-3 {
		return nil
	}
	return r.bufs[i%3]
}

// estimate derives the footprint of pixel p of the projected scan cur.
// prev and next are the adjacent scans, either of which may be nil at
// swath boundaries. It returns false if the pixel itself has no valid
// grid coordinate.
//
// The along-scan semi-axis comes from the spacing to the pixel's
// horizontal neighbors and the along-track semi-axis from the spacing to
// the vertically adjacent pixels, each falling back to a one-sided
// difference and then to the minimal isotropic footprint as neighbors
// become unavailable. Axes are clamped to maxCells.
func (f *footprint) estimate(prev, cur, next *projScan, p int, maxCells float64) bool {
	cx := cur.cols[p]
	cy := cur.rows[p]
	if math.IsNaN(cx) {
		return false
	}
	f.col = cx
	f.row = cy

	ux, uy := neighborDiff(cur, cur, p-1, p+1, cx, cy)
	vx, vy := neighborDiff(prev, next, p, p, cx, cy)

	ux, uy = clampVec(ux, uy, maxCells, minAxisCells, 0)
	vx, vy = clampVec(vx, vy, maxCells, 0, minAxisCells)

	if !f.setAxes(ux, uy, vx, vy) {
		// Collinear axes: the scan geometry is locally degenerate
		// (e.g. repeated geolocation near a projection pole).
		f.setIsotropic(minAxisCells)
	}
	return true
}

// neighborDiff estimates the local pixel spacing at (cx, cy) from the
// neighbors before[i] and after[j]: a centered difference when both are
// usable, a one-sided difference when only one is, and zero when neither
// is (the caller substitutes the minimal axis).
func neighborDiff(before, after *projScan, i, j int, cx, cy float64) (dx, dy float64) {
	bOK := before != nil && i >= 0 && i < len(before.cols) && !math.IsNaN(before.cols[i])
	aOK := after != nil && j >= 0 && j < len(after.cols) && !math.IsNaN(after.cols[j])
	switch {
	case bOK && aOK:
		return (after.cols[j] - before.cols[i]) / 2, (after.rows[j] - before.rows[i]) / 2
	case aOK:
		return after.cols[j] - cx, after.rows[j] - cy
	case bOK:
		return cx - before.cols[i], cy - before.rows[i]
	}
	return 0, 0
}
