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
	"math"
	"testing"
)

func TestFootprintSetAxes(t *testing.T) {
	var f footprint
	// Axis-aligned half-cell axes: q = 4wx² + 4wy², so the boundary
	// is a circle of radius 0.5 and the bounding box is ±0.5.
	if !f.setAxes(0.5, 0, 0, 0.5) {
		t.Fatal("want a proper ellipse but have degenerate axes")
	}
	if f.a != 4 || f.b != 0 || f.c != 4 {
		t.Errorf("want coefficients (4, 0, 4) but have (%g, %g, %g)", f.a, f.b, f.c)
	}
	if math.Abs(f.halfX-0.5) > 1e-12 || math.Abs(f.halfY-0.5) > 1e-12 {
		t.Errorf("want half extents (0.5, 0.5) but have (%g, %g)", f.halfX, f.halfY)
	}
	if q := f.distance(f.col+0.5, f.row); math.Abs(q-1) > 1e-12 {
		t.Errorf("want q = 1 on the boundary but have %g", q)
	}
	if q := f.distance(f.col, f.row); q != 0 {
		t.Errorf("want q = 0 at the center but have %g", q)
	}
}

func TestFootprintSetAxes_rotated(t *testing.T) {
	var f footprint
	// Semi-axes of lengths 2 and 1 rotated 45 degrees.
	s := math.Sqrt2 / 2
	if !f.setAxes(2*s, 2*s, -s, s) {
		t.Fatal("want a proper ellipse but have degenerate axes")
	}
	// The axis tips lie exactly on the q = 1 boundary.
	for _, tip := range [][2]float64{{2 * s, 2 * s}, {-s, s}} {
		if q := f.distance(f.col+tip[0], f.row+tip[1]); math.Abs(q-1) > 1e-12 {
			t.Errorf("axis tip (%g, %g): want q = 1 but have %g", tip[0], tip[1], q)
		}
	}
	// The bounding box must contain the axis tips.
	if f.halfX < 2*s-1e-12 || f.halfY < 2*s-1e-12 {
		t.Errorf("want half extents of at least %g but have (%g, %g)", 2*s, f.halfX, f.halfY)
	}
}

func TestFootprintSetAxes_degenerate(t *testing.T) {
	var f footprint
	if f.setAxes(1, 0, 2, 0) {
		t.Error("collinear axes: want false but have true")
	}
	if f.setAxes(0, 0, 0, 1) {
		t.Error("zero axis: want false but have true")
	}
}

func TestFootprintSetIsotropic(t *testing.T) {
	var f footprint
	f.setIsotropic(2)
	if q := f.distance(f.col+2, f.row); math.Abs(q-1) > 1e-12 {
		t.Errorf("want q = 1 at radius 2 but have %g", q)
	}
	if f.halfX != 2 || f.halfY != 2 {
		t.Errorf("want half extents (2, 2) but have (%g, %g)", f.halfX, f.halfY)
	}
}

func TestClampVec(t *testing.T) {
	tests := []struct {
		x, y, max    float64
		wantX, wantY float64
	}{
		{3, 4, 10, 3, 4},     // within bounds: unchanged
		{6, 8, 5, 3, 4},      // too long: clamped to length 5
		{0.3, 0, 10, 0.5, 0}, // too short: grown to the minimal axis
		{0, 0, 10, 0.5, 0},   // zero: fallback direction
	}
	for _, test := range tests {
		x, y := clampVec(test.x, test.y, test.max, 0.5, 0)
		if math.Abs(x-test.wantX) > 1e-12 || math.Abs(y-test.wantY) > 1e-12 {
			t.Errorf("clampVec(%g, %g, %g): want (%g, %g) but have (%g, %g)",
				test.x, test.y, test.max, test.wantX, test.wantY, x, y)
		}
	}
}

// makeProjScan builds a projected scan for footprint tests.
func makeProjScan(idx int, cols, rows []float64) *projScan {
	return &projScan{idx: idx, cols: cols, rows: rows}
}

func TestFootprintEstimate(t *testing.T) {
	nan := math.NaN()
	// Three scans of three pixels spaced one cell apart in both
	// directions.
	prev := makeProjScan(0, []float64{1, 2, 3}, []float64{1, 1, 1})
	cur := makeProjScan(1, []float64{1, 2, 3}, []float64{2, 2, 2})
	next := makeProjScan(2, []float64{1, 2, 3}, []float64{3, 3, 3})

	var f footprint
	if !f.estimate(prev, cur, next, 1, 10) {
		t.Fatal("want a footprint for a valid pixel but have none")
	}
	if f.col != 2 || f.row != 2 {
		t.Errorf("want center (2, 2) but have (%g, %g)", f.col, f.row)
	}
	// Unit axes in both directions: q = wx² + wy².
	if q := f.distance(3, 2); math.Abs(q-1) > 1e-12 {
		t.Errorf("want q = 1 one cell along scan but have %g", q)
	}
	if q := f.distance(2, 3); math.Abs(q-1) > 1e-12 {
		t.Errorf("want q = 1 one cell along track but have %g", q)
	}

	// Edge pixel: the along-scan axis falls back to a one-sided
	// difference with the same spacing.
	if !f.estimate(prev, cur, next, 0, 10) {
		t.Fatal("want a footprint for an edge pixel but have none")
	}
	if q := f.distance(2, 2); math.Abs(q-1) > 1e-12 {
		t.Errorf("edge pixel: want q = 1 one cell along scan but have %g", q)
	}

	// Boundary scan: no previous scan, one-sided along-track
	// difference.
	if !f.estimate(nil, cur, next, 1, 10) {
		t.Fatal("want a footprint at the swath boundary but have none")
	}
	if q := f.distance(2, 3); math.Abs(q-1) > 1e-12 {
		t.Errorf("boundary scan: want q = 1 one cell along track but have %g", q)
	}

	// A pixel with no valid coordinate has no footprint.
	bad := makeProjScan(1, []float64{1, nan, 3}, []float64{2, nan, 2})
	if f.estimate(prev, bad, next, 1, 10) {
		t.Error("invalid pixel: want false but have true")
	}

	// No usable neighbors at all: minimal isotropic footprint.
	lone := makeProjScan(1, []float64{nan, 2, nan}, []float64{nan, 2, nan})
	if !f.estimate(nil, lone, nil, 1, 10) {
		t.Fatal("want a footprint for an isolated pixel but have none")
	}
	if f.halfX != minAxisCells || f.halfY != minAxisCells {
		t.Errorf("isolated pixel: want half extents (%g, %g) but have (%g, %g)",
			minAxisCells, minAxisCells, f.halfX, f.halfY)
	}
}

func TestFootprintEstimate_clamped(t *testing.T) {
	// Neighbors 100 cells away, as near a projection singularity.
	prev := makeProjScan(0, []float64{0, 100, 200}, []float64{0, 0, 0})
	cur := makeProjScan(1, []float64{0, 100, 200}, []float64{100, 100, 100})
	next := makeProjScan(2, []float64{0, 100, 200}, []float64{200, 200, 200})

	var f footprint
	if !f.estimate(prev, cur, next, 1, 10) {
		t.Fatal("want a footprint but have none")
	}
	if f.halfX > 10+1e-9 || f.halfY > 10+1e-9 {
		t.Errorf("want half extents clamped to 10 but have (%g, %g)", f.halfX, f.halfY)
	}
}

func TestScanRing(t *testing.T) {
	r := newScanRing(4)
	if have := r.at(0); have != nil {
		t.Errorf("empty ring: want nil but have %v", have)
	}
	for i := 0; i < 5; i++ {
		ps := r.nextBuf()
		ps.idx = i
		r.push()
	}
	if have := r.at(1); have != nil {
		t.Errorf("evicted scan: want nil but have %v", have)
	}
	for i := 2; i < 5; i++ {
		ps := r.at(i)
		if ps == nil {
			t.Fatalf("scan %d: want a projected scan but have nil", i)
		}
		if ps.idx != i {
			t.Errorf("scan %d: want idx %d but have %d", i, i, ps.idx)
		}
	}
	if have := r.at(5); have != nil {
		t.Errorf("future scan: want nil but have %v", have)
	}

	r.reset()
	if have := r.at(2); have != nil {
		t.Errorf("after reset: want nil but have %v", have)
	}
}
