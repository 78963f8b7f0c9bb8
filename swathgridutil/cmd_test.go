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

package swathgridutil

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ctessum/geom/proj"

	"github.com/spatialmodel/swathgrid"
	"github.com/spatialmodel/swathgrid/swathio"
)

func TestParseChannels(t *testing.T) {
	Cfg.Set("Swath.Channels", []string{"band1=b1.img", "band2=b2.img"})
	defer Cfg.Set("Swath.Channels", []string{})

	channels, err := parseChannels()
	if err != nil {
		t.Fatal(err)
	}
	want := []swathio.Channel{
		{Name: "band1", Path: "b1.img"},
		{Name: "band2", Path: "b2.img"},
	}
	if !reflect.DeepEqual(want, channels) {
		t.Errorf("want %v but have %v", want, channels)
	}

	for _, bad := range []string{"noequals", "=path", "name="} {
		Cfg.Set("Swath.Channels", []string{bad})
		if _, err := parseChannels(); err == nil {
			t.Errorf("%q: want error but have nil", bad)
		}
	}
}

func TestResampleConfig_defaults(t *testing.T) {
	cfg, err := resampleConfig()
	if err != nil {
		t.Fatal(err)
	}
	want := swathgrid.DefaultConfig()
	if cfg.KernelShape != want.KernelShape {
		t.Errorf("kernel shape: want %q but have %q", want.KernelShape, cfg.KernelShape)
	}
	if cfg.KernelDecay != want.KernelDecay {
		t.Errorf("kernel decay: want %g but have %g", want.KernelDecay, cfg.KernelDecay)
	}
	if cfg.MaxFootprintCells != want.MaxFootprintCells {
		t.Errorf("max footprint: want %g but have %g", want.MaxFootprintCells, cfg.MaxFootprintCells)
	}
	if cfg.MinWeight != want.MinWeight {
		t.Errorf("min weight: want %g but have %g", want.MinWeight, cfg.MinWeight)
	}
	if cfg.FillValue != want.FillValue {
		t.Errorf("fill value: want %g but have %g", want.FillValue, cfg.FillValue)
	}
}

func TestGridWriter(t *testing.T) {
	if _, ok := gridWriter().(*swathio.NetCDFWriter); !ok {
		t.Errorf("default: want a NetCDF writer but have %T", gridWriter())
	}
	Cfg.Set("Output.Format", "flat")
	defer Cfg.Set("Output.Format", "netcdf")
	if _, ok := gridWriter().(*swathio.FlatWriter); !ok {
		t.Errorf("flat: want a flat binary writer but have %T", gridWriter())
	}
}

func TestConvertPoints(t *testing.T) {
	longlat, err := proj.Parse("+proj=longlat")
	if err != nil {
		t.Fatal(err)
	}
	world, err := swathgrid.NewGridRegular("world", 360, 180, 1, 1, -180, 90, longlat)
	if err != nil {
		t.Fatal(err)
	}
	lccSR, err := proj.Parse("+proj=lcc +lat_1=33.000000 +lat_2=45.000000 " +
		"+lat_0=40.000000 +lon_0=-97.000000 +x_0=0 +y_0=0 " +
		"+a=6370997.000000 +b=6370997.000000 +to_meter=1")
	if err != nil {
		t.Fatal(err)
	}
	conus, err := swathgrid.NewGridRegular("conus", 20, 20, 100000, 100000, -1e6, 1e6, lccSR)
	if err != nil {
		t.Fatal(err)
	}

	parse := func(t *testing.T, line string) (a, b, u, v float64, status int) {
		t.Helper()
		if _, err := fmt.Sscan(line, &a, &b, &u, &v, &status); err != nil {
			t.Fatalf("parsing output %q: %v", line, err)
		}
		return
	}

	t.Run("geographic forward", func(t *testing.T) {
		var buf bytes.Buffer
		if err := convertPoints(world, false, strings.NewReader("2.5 0.5\n\n"), &buf); err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("want 1 output line but have %d", len(lines))
		}
		lat, lon, x, y, status := parse(t, lines[0])
		if lat != 2.5 || lon != 0.5 || x != 0.5 || y != 2.5 || status != 0 {
			t.Errorf("want 2.5 0.5 0.5 2.5 0 but have %s", lines[0])
		}
	})

	t.Run("projected round trip", func(t *testing.T) {
		var buf bytes.Buffer
		if err := convertPoints(conus, false, strings.NewReader("40 -97\n"), &buf); err != nil {
			t.Fatal(err)
		}
		_, _, x, y, status := parse(t, strings.TrimSpace(buf.String()))
		if status != 0 {
			t.Fatalf("forward status: want 0 but have %d", status)
		}
		if math.Abs(x) > 1 || math.Abs(y) > 1 {
			t.Errorf("projection origin: want (0, 0) but have (%g, %g)", x, y)
		}

		buf.Reset()
		if err := convertPoints(conus, true, strings.NewReader(fmt.Sprintf("%g %g\n", x, y)), &buf); err != nil {
			t.Fatal(err)
		}
		_, _, lat, lon, status := parse(t, strings.TrimSpace(buf.String()))
		if status != 0 {
			t.Fatalf("inverse status: want 0 but have %d", status)
		}
		if math.Abs(lat-40) > 1e-6 || math.Abs(lon-(-97)) > 1e-6 {
			t.Errorf("want (40, -97) but have (%g, %g)", lat, lon)
		}
	})

	t.Run("bad input", func(t *testing.T) {
		var buf bytes.Buffer
		if err := convertPoints(world, false, strings.NewReader("not a number\n"), &buf); err == nil {
			t.Error("want error for an unparseable line but have nil")
		}
	})
}

func TestLoadGrids(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "grids.toml")
	err := os.WriteFile(catalog, []byte(`
[Grids.world]
Projection = "+proj=longlat"
X0 = -180.0
Y0 = 90.0
Dx = 1.0
Dy = 1.0
Nx = 360
Ny = 180
`), 0644)
	if err != nil {
		t.Fatal(err)
	}
	Cfg.Set("catalog", catalog)
	Cfg.Set("grids", []string{"world"})
	defer func() {
		Cfg.Set("catalog", "grids.toml")
		Cfg.Set("grids", []string{})
	}()

	grids, err := loadGrids()
	if err != nil {
		t.Fatal(err)
	}
	if len(grids) != 1 || grids[0].Name != "world" || grids[0].Nx != 360 {
		t.Errorf("want the world grid but have %v", grids)
	}

	Cfg.Set("grids", []string{"nowhere"})
	if _, err := loadGrids(); err == nil {
		t.Error("want error for an unknown grid but have nil")
	}
}
