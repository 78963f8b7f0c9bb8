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
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

var nan = math.NaN()

// Stats summarizes what happened to the swath pixels during a run.
// The per-grid counters are event counts: one pixel checked against two
// grids can contribute two events.
type Stats struct {
	// Scans and Pixels are the number of scans and pixels read from
	// the swath.
	Scans  int
	Pixels int64

	// InvalidCoordinates counts pixels skipped because their
	// geodetic coordinates were malformed.
	InvalidCoordinates int64

	// ProjectionFailures counts pixel/grid pairs skipped because the
	// grid's projection was undefined at the pixel.
	ProjectionFailures int64

	// OutsideGrid counts pixel/grid pairs dropped because the pixel
	// projected outside the grid and its margin.
	OutsideGrid int64
}

func (s *Stats) addBlock(o *blockStats) {
	s.InvalidCoordinates += o.invalid
	s.ProjectionFailures += o.projFailed
	s.OutsideGrid += o.outside
}

type blockStats struct {
	invalid, projFailed, outside int64
}

// A Runner resamples swaths onto one or more output grids in a single
// pass. The grids and configuration are shared read-only by all workers;
// each call to Run owns its accumulators exclusively, so distinct runs
// never share mutable state.
type Runner struct {
	Grids  []*GridDef
	Config Config

	// Log receives progress messages. If nil, progress is not
	// reported.
	Log logrus.FieldLogger
}

// block is a contiguous range of scans assigned to one worker, plus one
// halo scan on each side. Halo scans supply neighbor geometry for
// footprints at the range boundaries but are accumulated only by the
// block that owns them.
type block struct {
	before *Scan // may be nil
	scans  []*Scan
	after  *Scan // may be nil
}

// Run reads the swath once and accumulates it onto every configured
// grid, returning one finalized Result per grid in the order of r.Grids.
// Accumulation is distributed over workers by scan ranges with a private
// accumulator replica per worker per grid; replicas are merged before
// finalization, which is exact because the accumulated quantities are
// commutative sums.
//
// Cancelling ctx stops intake of further scans; blocks already dispatched
// are finished, merged, and finalized, so a cancelled run returns valid
// (if incompletely covered) grids together with the context's error.
func (r *Runner) Run(ctx context.Context, reader SwathReader) ([]*Result, *Stats, error) {
	if err := r.Config.Valid(); err != nil {
		return nil, nil, err
	}
	if len(r.Grids) == 0 {
		return nil, nil, fmt.Errorf("swathgrid: no output grids configured")
	}
	channels := reader.Channels()
	if len(channels) == 0 {
		return nil, nil, fmt.Errorf("swathgrid: swath reader reports no channels")
	}
	log := r.Log
	if log == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		log = logger
	}

	// The projector margin must cover the footprint clamp radius so
	// that footprints reaching into the grid from outside still
	// contribute.
	projectors := make([]*Projector, len(r.Grids))
	for i, g := range r.Grids {
		p, err := NewProjector(g, r.Config.Margin+r.Config.MaxFootprintCells)
		if err != nil {
			return nil, nil, err
		}
		projectors[i] = p
	}

	nworkers := r.Config.Workers
	if nworkers <= 0 {
		nworkers = runtime.GOMAXPROCS(0)
	}
	blockScans := r.Config.BlockScans
	if blockScans <= 0 {
		blockScans = defaultBlockScans
	}

	// One accumulator replica per worker per grid.
	accs := make([][]*Accumulator, nworkers)
	for w := range accs {
		accs[w] = make([]*Accumulator, len(r.Grids))
		for i, g := range r.Grids {
			a, err := NewAccumulator(g, channels, r.Config)
			if err != nil {
				return nil, nil, err
			}
			accs[w][i] = a
		}
	}

	stats := new(Stats)
	blocks := make(chan *block, nworkers)
	var readErr error

	go func() {
		defer close(blocks)
		var halo *Scan
		var owned []*Scan
		emit := func(after *Scan) {
			if len(owned) == 0 {
				return
			}
			b := &block{before: halo, scans: owned, after: after}
			halo = owned[len(owned)-1]
			owned = nil
			blocks <- b
		}
		read := func() (*Scan, error) {
			s, err := reader.ReadScan()
			if err != nil {
				return nil, err
			}
			if err := s.check(len(channels)); err != nil {
				return nil, err
			}
			s.Index = stats.Scans
			stats.Scans++
			stats.Pixels += int64(s.Pixels())
			if stats.Scans%1000 == 0 {
				log.WithFields(logrus.Fields{
					"scans":  stats.Scans,
					"pixels": stats.Pixels,
				}).Info("resampling swath")
			}
			return s, nil
		}
		for {
			if ctx.Err() != nil {
				emit(nil)
				return
			}
			s, err := read()
			if err == io.EOF {
				emit(nil)
				return
			}
			if err != nil {
				readErr = fmt.Errorf("swathgrid: reading scan %d: %w", stats.Scans, err)
				emit(nil)
				return
			}
			owned = append(owned, s)
			if len(owned) == blockScans {
				// The next scan becomes both this block's
				// trailing halo and the first scan of the
				// next block.
				next, err := read()
				if err == io.EOF {
					emit(nil)
					return
				}
				if err != nil {
					readErr = fmt.Errorf("swathgrid: reading scan %d: %w", stats.Scans, err)
					emit(nil)
					return
				}
				emit(next)
				owned = append(owned, next)
			}
		}
	}()

	var wg sync.WaitGroup
	workerStats := make([]*blockStats, nworkers)
	for w := 0; w < nworkers; w++ {
		wg.Add(1)
		workerStats[w] = new(blockStats)
		go func(w int) {
			defer wg.Done()
			wk := newWorker(projectors, accs[w], len(channels), r.Config.MaxFootprintCells)
			for b := range blocks {
				wk.processBlock(b, workerStats[w])
			}
		}(w)
	}
	wg.Wait()

	for _, ws := range workerStats {
		stats.addBlock(ws)
	}

	// Fold all replicas into the first and finalize.
	results := make([]*Result, len(r.Grids))
	for i := range r.Grids {
		merged := accs[0][i]
		for w := 1; w < nworkers; w++ {
			if err := merged.Merge(accs[w][i]); err != nil {
				return nil, nil, err
			}
		}
		results[i] = merged.Finalize()
		cov := merged.Coverage()
		log.WithFields(logrus.Fields{
			"grid":      r.Grids[i].Name,
			"cells":     cov.TotalCells,
			"covered":   cov.CoveredCells,
			"meanCount": cov.CountMean,
		}).Info("finalized grid")
	}

	if readErr != nil {
		return nil, stats, readErr
	}
	if err := ctx.Err(); err != nil {
		return results, stats, err
	}
	return results, stats, nil
}

// A GridWriter consumes finalized grids. Implementations live outside the
// resampling core; see the swathio package.
type GridWriter interface {
	WriteGrid(*Result) error
}

// Emit hands each finalized result to the writer in order.
func Emit(results []*Result, w GridWriter) error {
	for _, res := range results {
		if err := w.WriteGrid(res); err != nil {
			return fmt.Errorf("swathgrid: writing grid %s: %w", res.Grid.Name, err)
		}
	}
	return nil
}

// A worker accumulates the scans of one block at a time. Its scan ring
// buffers are reused across blocks and grids.
type worker struct {
	projectors []*Projector
	accs       []*Accumulator
	rings      []*scanRing
	values     []float64
	maxCells   float64
}

func newWorker(projectors []*Projector, accs []*Accumulator, channels int, maxCells float64) *worker {
	return &worker{
		projectors: projectors,
		accs:       accs,
		rings:      make([]*scanRing, len(projectors)),
		values:     make([]float64, channels),
		maxCells:   maxCells,
	}
}

func (w *worker) processBlock(b *block, st *blockStats) {
	seq := make([]*Scan, 0, len(b.scans)+2)
	ownedFrom := 0
	if b.before != nil {
		seq = append(seq, b.before)
		ownedFrom = 1
	}
	seq = append(seq, b.scans...)
	ownedTo := len(seq)
	if b.after != nil {
		seq = append(seq, b.after)
	}

	for gi, pr := range w.projectors {
		if w.rings[gi] == nil {
			w.rings[gi] = newScanRing(seq[0].Pixels())
		}
		ring := w.rings[gi]
		ring.reset()
		for k := range seq {
			ps := ring.nextBuf()
			projectScan(pr, seq[k], ps, st)
			ring.push()
			if k-1 >= ownedFrom && k-1 < ownedTo {
				w.accumulateScan(gi, ring, k-1)
			}
		}
		if len(seq)-1 >= ownedFrom && len(seq)-1 < ownedTo {
			w.accumulateScan(gi, ring, len(seq)-1)
		}
	}
}

// accumulateScan adds every pixel of the scan at ring position k to grid
// gi, using the ring's adjacent scans for footprint geometry.
func (w *worker) accumulateScan(gi int, ring *scanRing, k int) {
	cur := ring.at(k)
	prev := ring.at(k - 1)
	next := ring.at(k + 1)
	acc := w.accs[gi]
	var fp footprint
	for p := 0; p < len(cur.cols); p++ {
		if !fp.estimate(prev, cur, next, p, w.maxCells) {
			continue
		}
		for c := range w.values {
			w.values[c] = cur.scan.Data[c][p]
		}
		acc.add(&fp, w.values)
	}
}

// projectScan projects every pixel of s onto pr's grid, writing the
// results into the recycled buffer ps. Dropped pixels get NaN
// coordinates.
func projectScan(pr *Projector, s *Scan, ps *projScan, st *blockStats) {
	n := s.Pixels()
	ps.idx = s.Index
	ps.scan = s
	if cap(ps.cols) < n {
		ps.cols = make([]float64, n)
		ps.rows = make([]float64, n)
	}
	ps.cols = ps.cols[:n]
	ps.rows = ps.rows[:n]
	for i := 0; i < n; i++ {
		col, row, in, err := pr.Project(s.Lat[i], s.Lon[i])
		switch {
		case errors.Is(err, ErrInvalidCoordinate):
			st.invalid++
		case err != nil:
			st.projFailed++
		case !in:
			st.outside++
		default:
			ps.cols[i] = col
			ps.rows[i] = row
			continue
		}
		ps.cols[i] = nan
		ps.rows[i] = nan
	}
}
