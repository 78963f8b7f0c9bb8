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
	"strings"
	"testing"
)

func TestKernelEWA(t *testing.T) {
	cfg := DefaultConfig()
	k, err := newKernel(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	if have := k.weight(0); have != 1 {
		t.Errorf("center: want weight 1 but have %g", have)
	}
	if have := k.max(); have != 1 {
		t.Errorf("max: want 1 but have %g", have)
	}
	// The default decay reaches 1% of the center weight at the
	// footprint boundary.
	if have := k.weight(0.9999); math.Abs(have-0.01) > 1e-3 {
		t.Errorf("near boundary: want weight near 0.01 but have %g", have)
	}
	// Zero at and beyond the boundary, and for invalid q.
	for _, q := range []float64{1, 1.5, -0.1, math.NaN()} {
		if have := k.weight(q); have != 0 {
			t.Errorf("q = %g: want weight 0 but have %g", q, have)
		}
	}
	// Monotone decay.
	if k.weight(0.2) <= k.weight(0.8) {
		t.Errorf("want weight(0.2) > weight(0.8) but have %g <= %g",
			k.weight(0.2), k.weight(0.8))
	}
}

func TestKernelParabolic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KernelShape = KernelParabolic
	k, err := newKernel(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	if have := k.weight(0); have != 1 {
		t.Errorf("center: want weight 1 but have %g", have)
	}
	if have := k.weight(0.5); have != 0.5 {
		t.Errorf("q = 0.5: want weight 0.5 but have %g", have)
	}
	if have := k.weight(1); have != 0 {
		t.Errorf("boundary: want weight 0 but have %g", have)
	}
}

func TestConfigValid(t *testing.T) {
	good := DefaultConfig()
	if err := good.Valid(); err != nil {
		t.Errorf("default configuration: want nil but have %v", err)
	}

	tests := []struct {
		modify func(*Config)
		errSub string
	}{
		{func(c *Config) { c.KernelShape = "gaussian" }, "kernel shape"},
		{func(c *Config) { c.KernelDecay = 0 }, "decay"},
		{func(c *Config) { c.KernelDecay = math.Inf(1) }, "decay"},
		{func(c *Config) { c.MaxFootprintCells = 0.5 }, "footprint"},
		{func(c *Config) { c.MinWeight = -1 }, "weight"},
		{func(c *Config) { c.FillValue = math.NaN() }, "fill"},
		{func(c *Config) { c.Margin = -1 }, "margin"},
	}
	for i, test := range tests {
		cfg := DefaultConfig()
		test.modify(&cfg)
		err := cfg.Valid()
		if err == nil {
			t.Errorf("test %d: want error but have nil", i)
		} else if !strings.Contains(err.Error(), test.errSub) {
			t.Errorf("test %d: want error containing %q but have %q", i, test.errSub, err)
		}
	}

	// The parabolic kernel ignores the decay constant.
	cfg := DefaultConfig()
	cfg.KernelShape = KernelParabolic
	cfg.KernelDecay = 0
	if err := cfg.Valid(); err != nil {
		t.Errorf("parabolic with zero decay: want nil but have %v", err)
	}
}
