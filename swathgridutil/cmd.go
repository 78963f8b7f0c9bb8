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

// Package swathgridutil wires the swathgrid resampling core to
// command-line flags and configuration files.
package swathgridutil

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/spatialmodel/swathgrid"
	"github.com/spatialmodel/swathgrid/swathio"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to SwathGrid.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "catalog",
			usage: `
              catalog specifies the location of the TOML grid catalog
              holding the available output grid definitions.`,
			defaultVal: "grids.toml",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "grids",
			usage: `
              grids lists the names of the catalog grids to resample
              onto.`,
			shorthand:  "g",
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags(), projectCmd.Flags(), xyCmd.Flags()},
		},
		{
			name: "inverse",
			usage: `
              inverse makes the xy command convert projection-plane
              (x, y) pairs back to geodetic coordinates.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{xyCmd.Flags()},
		},
		{
			name: "Swath.Pixels",
			usage: `
              Swath.Pixels is the number of pixels in each swath scan,
              required for flat binary swath input.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags(), projectCmd.Flags()},
		},
		{
			name: "Swath.Lat",
			usage: `
              Swath.Lat is the latitude input: the path of a flat binary
              file, or the variable name for NetCDF swaths.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags(), projectCmd.Flags()},
		},
		{
			name: "Swath.Lon",
			usage: `
              Swath.Lon is the longitude input: the path of a flat binary
              file, or the variable name for NetCDF swaths.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags(), projectCmd.Flags()},
		},
		{
			name: "Swath.Channels",
			usage: `
              Swath.Channels lists the swath channels as name=source
              pairs, where source is a flat binary file path or a NetCDF
              variable name depending on Swath.Format.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags()},
		},
		{
			name: "Swath.Format",
			usage: `
              Swath.Format selects the swath input format: "flat" for
              ms2gt-style flat binary files or "netcdf".`,
			defaultVal: "flat",
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags(), projectCmd.Flags()},
		},
		{
			name: "Swath.File",
			usage: `
              Swath.File is the swath file path for NetCDF input.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags(), projectCmd.Flags()},
		},
		{
			name: "Swath.Fill",
			usage: `
              Swath.Fill is the input fill sentinel marking invalid
              values.`,
			defaultVal: swathio.DefaultFill,
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags(), projectCmd.Flags()},
		},
		{
			name: "Kernel.Shape",
			usage: `
              Kernel.Shape selects the weighting kernel: "ewa" or
              "parabolic".`,
			defaultVal: swathgrid.KernelEWA,
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags()},
		},
		{
			name: "Kernel.Decay",
			usage: `
              Kernel.Decay is the EWA kernel decay constant k in
              w = exp(-k·q).`,
			defaultVal: swathgrid.DefaultConfig().KernelDecay,
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags()},
		},
		{
			name: "Resample.MaxFootprintCells",
			usage: `
              Resample.MaxFootprintCells clamps each pixel footprint
              semi-axis to this many output cells.`,
			defaultVal: swathgrid.DefaultConfig().MaxFootprintCells,
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags()},
		},
		{
			name: "Resample.MinWeight",
			usage: `
              Resample.MinWeight is the smallest accumulated weight for
              which a cell is considered covered.`,
			defaultVal: swathgrid.DefaultConfig().MinWeight,
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags()},
		},
		{
			name: "Resample.FillValue",
			usage: `
              Resample.FillValue is the output value for uncovered
              cells.`,
			defaultVal: swathgrid.DefaultConfig().FillValue,
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags()},
		},
		{
			name: "Resample.Margin",
			usage: `
              Resample.Margin is the width in cells of the band outside
              the grid within which projected pixels are retained
              (ll2cr's "rind").`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags(), projectCmd.Flags()},
		},
		{
			name: "Resample.Workers",
			usage: `
              Resample.Workers is the number of accumulation workers;
              0 means one per CPU.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags()},
		},
		{
			name: "Output.Dir",
			usage: `
              Output.Dir is the directory output grids are written to.`,
			shorthand:  "o",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags(), projectCmd.Flags()},
		},
		{
			name: "Output.Format",
			usage: `
              Output.Format selects the grid output format: "netcdf" or
              "flat".`,
			defaultVal: "netcdf",
			flagsets:   []*pflag.FlagSet{resampleCmd.Flags()},
		},
		{
			name: "Project.Tag",
			usage: `
              Project.Tag is the filename prefix for the column and row
              files written by the project command.`,
			defaultVal: "swath",
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
		{
			name: "Project.FillOut",
			usage: `
              Project.FillOut is the value written for pixels that could
              not be projected.`,
			defaultVal: -1e30,
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
	}

	Cfg = viper.New()
	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // Only create the flag once.
				continue
			}
			switch d := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, d, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, d, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, d, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, d, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, d, option.usage)
			default:
				panic(fmt.Sprintf("invalid argument type: %T", d))
			}
		}
		for i, set := range option.flagsets {
			if i != 0 {
				set.AddFlag(option.flagsets[0].Lookup(option.name))
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	Root.AddCommand(versionCmd)
	Root.AddCommand(resampleCmd)
	Root.AddCommand(projectCmd)
	Root.AddCommand(gridsCmd)
	Root.AddCommand(xyCmd)
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "swathgrid",
	Short: "swathgrid resamples satellite swath data onto map-projected grids.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setConfig()
	},
	SilenceUsage: true,
}

// setConfig reads the configuration file named by the config flag, if
// any, into Cfg. Flag values take precedence over file values.
func setConfig() error {
	if file := Cfg.GetString("config"); file != "" {
		Cfg.SetConfigFile(file)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("swathgridutil: reading configuration file: %w", err)
		}
	}
	return nil
}

var version = "development"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("swathgrid v%s\n", version)
	},
}

var resampleCmd = &cobra.Command{
	Use:   "resample",
	Short: "Resample a swath onto the configured output grids",
	Long: `resample runs the full forward navigation pipeline: it projects
every swath pixel onto each configured grid, spreads the pixel's channel
values over the cells inside its estimated footprint, and writes one
finalized grid per catalog grid per channel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		grids, err := loadGrids()
		if err != nil {
			return err
		}
		reader, closer, err := openSwath(true)
		if err != nil {
			return err
		}
		defer closer()
		cfg, err := resampleConfig()
		if err != nil {
			return err
		}
		runner := &swathgrid.Runner{
			Grids:  grids,
			Config: cfg,
			Log:    logrus.StandardLogger(),
		}
		results, stats, err := runner.Run(context.Background(), reader)
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"scans":    stats.Scans,
			"pixels":   stats.Pixels,
			"invalid":  stats.InvalidCoordinates,
			"unmapped": stats.ProjectionFailures,
			"outside":  stats.OutsideGrid,
		}).Info("finished resampling")
		return swathgrid.Emit(results, gridWriter())
	},
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Write the grid column/row coordinates of every swath pixel",
	Long: `project converts the swath's geodetic coordinates to continuous
column/row coordinates of one output grid and writes them as flat binary
files, equivalent to ms2gt's ll2cr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		grids, err := loadGrids()
		if err != nil {
			return err
		}
		if len(grids) != 1 {
			return fmt.Errorf("swathgridutil: project requires exactly one grid; got %d", len(grids))
		}
		reader, closer, err := openSwath(false)
		if err != nil {
			return err
		}
		defer closer()
		return writeProjected(grids[0], reader)
	},
}

var gridsCmd = &cobra.Command{
	Use:   "grids",
	Short: "List the grids available in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := swathgrid.LoadCatalog(Cfg.GetString("catalog"))
		if err != nil {
			return err
		}
		for _, name := range catalog.Names() {
			s := catalog.Grids[name]
			fmt.Printf("%s: %d×%d cells of %g×%g at (%g, %g); %s\n",
				name, s.Nx, s.Ny, s.Dx, s.Dy, s.X0, s.Y0, s.Projection)
		}
		return nil
	},
}

var xyCmd = &cobra.Command{
	Use:   "xy",
	Short: "Convert geodetic coordinate pairs to projection coordinates",
	Long: `xy reads whitespace-separated coordinate pairs from standard input,
one pair per line, and writes each input pair followed by its conversion
and a status flag (0 on success), equivalent to ms2gt's ll2xy. Input lines
hold (lat, lon) and the output appends projection-plane (x, y); with
--inverse the input holds (x, y) and the output appends (lat, lon),
equivalent to xy2ll. The projection comes from the single configured
catalog grid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		grids, err := loadGrids()
		if err != nil {
			return err
		}
		if len(grids) != 1 {
			return fmt.Errorf("swathgridutil: xy requires exactly one grid; got %d", len(grids))
		}
		return convertPoints(grids[0], Cfg.GetBool("inverse"), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// convertPoints streams coordinate pairs from r to w through grid g's
// projection, forward (lat lon to x y) or inverse (x y to lat lon).
func convertPoints(g *swathgrid.GridDef, inverse bool, r io.Reader, w io.Writer) error {
	longlat, err := proj.Parse("+proj=longlat")
	if err != nil {
		return fmt.Errorf("swathgridutil: parsing geodetic spatial reference: %v", err)
	}
	var t proj.Transformer
	if inverse {
		t, err = g.SR.NewTransform(longlat)
	} else {
		t, err = longlat.NewTransform(g.SR)
	}
	if err != nil {
		return fmt.Errorf("swathgridutil: creating transform for grid %s: %v", g.Name, err)
	}
	if t == nil { // equivalent spatial references
		t = func(x, y float64) (float64, float64, error) { return x, y, nil }
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var a, b float64
		if _, err := fmt.Sscan(line, &a, &b); err != nil {
			return fmt.Errorf("swathgridutil: parsing coordinate pair %q: %v", line, err)
		}
		var u, v float64
		var cerr error
		if inverse {
			// (x, y) in; the transform yields (lon, lat).
			lon, lat, e := t(a, b)
			u, v, cerr = lat, lon, e
		} else {
			// (lat, lon) in; the transform takes (lon, lat).
			u, v, cerr = t(b, a)
		}
		status := 0
		if cerr != nil || math.IsNaN(u) || math.IsNaN(v) {
			status = -1
		}
		if _, err := fmt.Fprintf(w, "%.7f %.7f %.7f %.7f %2d\n", a, b, u, v, status); err != nil {
			return err
		}
	}
	return sc.Err()
}

// loadGrids builds the grid definitions named by the grids option from
// the catalog.
func loadGrids() ([]*swathgrid.GridDef, error) {
	names := Cfg.GetStringSlice("grids")
	if len(names) == 0 {
		return nil, fmt.Errorf("swathgridutil: no grids specified")
	}
	catalog, err := swathgrid.LoadCatalog(Cfg.GetString("catalog"))
	if err != nil {
		return nil, err
	}
	grids := make([]*swathgrid.GridDef, len(names))
	for i, name := range names {
		if grids[i], err = catalog.Grid(name); err != nil {
			return nil, err
		}
	}
	return grids, nil
}

// parseChannels splits the name=source channel options.
func parseChannels() ([]swathio.Channel, error) {
	specs := Cfg.GetStringSlice("Swath.Channels")
	channels := make([]swathio.Channel, len(specs))
	for i, s := range specs {
		name, src, found := strings.Cut(s, "=")
		if !found || name == "" || src == "" {
			return nil, fmt.Errorf("swathgridutil: channel %q is not a name=source pair", s)
		}
		channels[i] = swathio.Channel{Name: name, Path: src}
	}
	return channels, nil
}

// openSwath opens the configured swath input. If needChannels is false,
// a swath with no channel data is acceptable (the project command only
// uses geolocation).
func openSwath(needChannels bool) (swathgrid.SwathReader, func() error, error) {
	channels, err := parseChannels()
	if err != nil {
		return nil, nil, err
	}
	if needChannels && len(channels) == 0 {
		return nil, nil, fmt.Errorf("swathgridutil: no swath channels specified")
	}
	fill := Cfg.GetFloat64("Swath.Fill")
	switch format := Cfg.GetString("Swath.Format"); format {
	case "flat":
		r, err := swathio.NewFlatReader(Cfg.GetInt("Swath.Pixels"), fill,
			Cfg.GetString("Swath.Lat"), Cfg.GetString("Swath.Lon"), channels)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case "netcdf":
		r, err := swathio.OpenNetCDFSwath(Cfg.GetString("Swath.File"),
			Cfg.GetString("Swath.Lat"), Cfg.GetString("Swath.Lon"), channels, fill)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	default:
		return nil, nil, fmt.Errorf("swathgridutil: unknown swath format %q", format)
	}
}

// resampleConfig assembles the core resampling configuration from the
// registry.
func resampleConfig() (swathgrid.Config, error) {
	cfg := swathgrid.Config{
		KernelShape:       Cfg.GetString("Kernel.Shape"),
		KernelDecay:       cast.ToFloat64(Cfg.Get("Kernel.Decay")),
		MaxFootprintCells: cast.ToFloat64(Cfg.Get("Resample.MaxFootprintCells")),
		MinWeight:         cast.ToFloat64(Cfg.Get("Resample.MinWeight")),
		FillValue:         cast.ToFloat64(Cfg.Get("Resample.FillValue")),
		Margin:            cast.ToFloat64(Cfg.Get("Resample.Margin")),
		Workers:           Cfg.GetInt("Resample.Workers"),
	}
	return cfg, cfg.Valid()
}

func gridWriter() swathgrid.GridWriter {
	dir := Cfg.GetString("Output.Dir")
	if Cfg.GetString("Output.Format") == "flat" {
		return &swathio.FlatWriter{Dir: dir}
	}
	return &swathio.NetCDFWriter{Dir: dir}
}

// writeProjected streams the swath once through the projector for grid g
// and writes per-pixel column and row files.
func writeProjected(g *swathgrid.GridDef, reader swathgrid.SwathReader) error {
	projector, err := swathgrid.NewProjector(g, cast.ToFloat64(Cfg.Get("Resample.Margin")))
	if err != nil {
		return err
	}
	dir := Cfg.GetString("Output.Dir")
	tag := Cfg.GetString("Project.Tag")
	fillOut := cast.ToFloat64(Cfg.Get("Project.FillOut"))
	cols, err := swathio.CreateFloat32(filepath.Join(dir, fmt.Sprintf("%s_%s_cols.img", tag, g.Name)), fillOut)
	if err != nil {
		return err
	}
	defer cols.Close()
	rows, err := swathio.CreateFloat32(filepath.Join(dir, fmt.Sprintf("%s_%s_rows.img", tag, g.Name)), fillOut)
	if err != nil {
		return err
	}
	defer rows.Close()

	var colBuf, rowBuf []float64
	for {
		s, err := reader.ReadScan()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		n := s.Pixels()
		if cap(colBuf) < n {
			colBuf = make([]float64, n)
			rowBuf = make([]float64, n)
		}
		colBuf = colBuf[:n]
		rowBuf = rowBuf[:n]
		for i := 0; i < n; i++ {
			col, row, in, err := projector.Project(s.Lat[i], s.Lon[i])
			if err != nil || !in {
				colBuf[i] = fillOut
				rowBuf[i] = fillOut
				continue
			}
			colBuf[i] = col
			rowBuf[i] = row
		}
		if err := cols.Write(colBuf); err != nil {
			return err
		}
		if err := rows.Write(rowBuf); err != nil {
			return err
		}
	}
	return nil
}
