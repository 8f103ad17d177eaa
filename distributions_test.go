/*
Copyright © 2021 the spillcast authors.
This file is part of spillcast.

spillcast is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

spillcast is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with spillcast.  If not, see <http://www.gnu.org/licenses/>.
*/

package spillcast

import (
	"errors"
	"math"
	"testing"
)

func testProfile() *VesselTypeProfile {
	return &VesselTypeProfile{
		Name:             "tanker",
		CarriesCargo:     true,
		MinLength:        10,
		MaxLength:        300,
		MinCargo:         0,
		MaxCargo:         20,
		MinFuel:          0,
		MaxFuel:          10,
		ProbabilityCargo: 0.8,
		ProbabilityFuel:  0.2,
		Cargo: &CapacityDist{
			Bins:          [][]float64{{0, 10}, {10, 20}},
			Probabilities: []float64{1, 0},
		},
		Fuel: &CapacityDist{
			Bins:          [][]float64{{0, 5}, {5, 10}},
			Probabilities: []float64{0.5, 0.5},
		},
	}
}

func TestProfileValidate(t *testing.T) {
	if err := testProfile().Validate(); err != nil {
		t.Fatalf("valid profile rejected: %v", err)
	}

	var cfgErr *ConfigurationError

	p := testProfile()
	p.Cargo.Probabilities = []float64{0.5, 0.4}
	err := p.Validate()
	if err == nil {
		t.Error("probabilities summing to 0.9 should be rejected")
	} else if !errors.As(err, &cfgErr) {
		t.Errorf("have %T, want *ConfigurationError", err)
	}

	p = testProfile()
	p.Cargo.Bins = [][]float64{{10, 20}, {0, 10}}
	if p.Validate() == nil {
		t.Error("out-of-order bins should be rejected")
	}

	p = testProfile()
	p.Cargo.Bins = [][]float64{{0, 10}, {5, 20}}
	if p.Validate() == nil {
		t.Error("overlapping bins should be rejected")
	}

	p = testProfile()
	p.ProbabilityFuel = 0.5
	if p.Validate() == nil {
		t.Error("cargo+fuel probabilities summing to 1.3 should be rejected")
	}

	p = testProfile()
	p.Fuel = nil
	if p.Validate() == nil {
		t.Error("missing fuel distribution should be rejected")
	}
}

func TestSampleCapacityBinned(t *testing.T) {
	// With all probability on the first bin, every draw must fall in
	// [0, 10).
	p := testProfile()
	rg := NewRand(42)
	for i := 0; i < 1000; i++ {
		v, err := p.SampleCapacity("cargo", 100, rg)
		if err != nil {
			t.Fatal(err)
		}
		if v < 0 || v >= 10 {
			t.Fatalf("draw %d: have %g, want [0, 10)", i, v)
		}
	}
}

func TestSampleCapacityLengthBounds(t *testing.T) {
	p := testProfile()
	rg := NewRand(1)

	v, err := p.SampleCapacity("fuel", 5, rg) // below MinLength
	if err != nil {
		t.Fatal(err)
	}
	if v != p.MinFuel {
		t.Errorf("below min length: have %g, want %g", v, p.MinFuel)
	}

	v, err = p.SampleCapacity("cargo", 400, rg) // above MaxLength
	if err != nil {
		t.Fatal(err)
	}
	if v != p.MaxCargo {
		t.Errorf("above max length: have %g, want %g", v, p.MaxCargo)
	}
}

func TestSampleCapacityNoCargo(t *testing.T) {
	p := testProfile()
	p.CarriesCargo = false
	rg := NewRand(1)
	for i := 0; i < 100; i++ {
		v, err := p.SampleCapacity("cargo", 100, rg)
		if err != nil {
			t.Fatal(err)
		}
		if v != 0 {
			t.Fatalf("cargo capacity for non-cargo vessel: have %g, want 0", v)
		}
	}
}

func TestCapacityFitEval(t *testing.T) {
	tests := []struct {
		fit  CapacityFit
		l    float64
		want float64
	}{
		{CapacityFit{Kind: FitLinear, Coefs: []float64{2, 3}}, 10, 23},
		{CapacityFit{Kind: FitExp, Coefs: []float64{0.01, 2}}, 100, math.Exp(2) * math.Exp(1)},
		{CapacityFit{Kind: FitQuadratic, Coefs: []float64{1, 2, 3}}, 4, 27},
	}
	for _, test := range tests {
		if have := test.fit.Eval(test.l); math.Abs(have-test.want) > 1e-12 {
			t.Errorf("%s fit at %g: have %g, want %g", test.fit.Kind, test.l, have, test.want)
		}
	}
}

func TestSampleCapacityFitClamped(t *testing.T) {
	p := testProfile()
	p.Fuel = &CapacityDist{Fit: &CapacityFit{Kind: FitLinear, Coefs: []float64{1, 0}}}
	rg := NewRand(1)

	// A 200 m vessel would fit to 200 L, above MaxFuel.
	v, err := p.SampleCapacity("fuel", 200, rg)
	if err != nil {
		t.Fatal(err)
	}
	if v != p.MaxFuel {
		t.Errorf("have %g, want clamp to %g", v, p.MaxFuel)
	}
}

func TestFuelSpill(t *testing.T) {
	rg := NewRand(5)

	p := testProfile()
	p.CarriesCargo = false
	for i := 0; i < 100; i++ {
		if !p.FuelSpill(rg) {
			t.Fatal("non-cargo vessel type must always spill fuel")
		}
	}

	p = testProfile()
	p.ProbabilityCargo, p.ProbabilityFuel = 0, 1
	for i := 0; i < 100; i++ {
		if !p.FuelSpill(rg) {
			t.Fatal("probability_fuel=1 must always spill fuel")
		}
	}
	p.ProbabilityCargo, p.ProbabilityFuel = 1, 0
	for i := 0; i < 100; i++ {
		if p.FuelSpill(rg) {
			t.Fatal("probability_cargo=1 must never spill fuel")
		}
	}
}

func TestAdjustTugBargeLength(t *testing.T) {
	rg := NewRand(3)
	if have := AdjustTugBargeLength("tanker", 50, rg); have != 50 {
		t.Errorf("tanker length adjusted: have %g, want 50", have)
	}
	if have := AdjustTugBargeLength("atb", 150, rg); have != 150 {
		t.Errorf("long atb length adjusted: have %g, want 150", have)
	}
	for i := 0; i < 100; i++ {
		have := AdjustTugBargeLength("barge", 40, rg)
		var ok bool
		for _, l := range standardBargeLengths {
			if have == l {
				ok = true
			}
		}
		if !ok {
			t.Fatalf("short barge length %g is not a standardized tug-and-barge length", have)
		}
	}
}

func TestSampleSpillFraction(t *testing.T) {
	rg := NewRand(7)
	for i := 0; i < 1000; i++ {
		f := SampleSpillFraction(rg)
		if f <= 0 || f >= 1 {
			t.Fatalf("spill fraction %g outside (0, 1)", f)
		}
	}

	// Same seed, same stream.
	a, b := NewRand(11), NewRand(11)
	for i := 0; i < 10; i++ {
		if fa, fb := SampleSpillFraction(a), SampleSpillFraction(b); fa != fb {
			t.Fatalf("draw %d: %g != %g for identical seeds", i, fa, fb)
		}
	}
}

func TestCumulativeSpillFraction(t *testing.T) {
	if have := cumulativeSpillFraction(0); math.Abs(have) > 1e-12 {
		t.Errorf("cumulative at 0: have %g, want 0", have)
	}
	if have := cumulativeSpillFraction(1); math.Abs(have-1) > 1e-12 {
		t.Errorf("cumulative at 1: have %g, want 1", have)
	}
	// Monotone increasing.
	prev := 0.0
	for f := 0.02; f <= 1; f += 0.02 {
		c := cumulativeSpillFraction(f)
		if c < prev {
			t.Fatalf("cumulative distribution decreases at %g", f)
		}
		prev = c
	}
}
