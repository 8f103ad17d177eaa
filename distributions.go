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
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Capacity fit kinds. The fit coefficients C are applied to a vessel
// length L as:
//
//	linear:    C[0]*L + C[1]
//	exp:       exp(C[1]) * exp(C[0]*L)
//	quadratic: C[0]*L² + C[1]*L + C[2]
const (
	FitLinear    = "linear"
	FitExp       = "exp"
	FitQuadratic = "quadratic"
)

// CapacityFit is a regression of tank capacity [liters] against vessel
// length [m], fitted to vessel traffic survey data.
type CapacityFit struct {
	Kind  string    `yaml:"kind"`
	Coefs []float64 `yaml:"coefs"`
}

// Eval evaluates the fit at vessel length l.
func (f *CapacityFit) Eval(l float64) float64 {
	switch f.Kind {
	case FitLinear:
		return f.Coefs[0]*l + f.Coefs[1]
	case FitExp:
		return math.Exp(f.Coefs[1]) * math.Exp(f.Coefs[0]*l)
	case FitQuadratic:
		return f.Coefs[0]*l*l + f.Coefs[1]*l + f.Coefs[2]
	}
	return math.NaN()
}

func (f *CapacityFit) validate(vesselType, attr string) error {
	var want int
	switch f.Kind {
	case FitLinear, FitExp:
		want = 2
	case FitQuadratic:
		want = 3
	default:
		return configErrorf("vessel type %s: %s fit: unknown kind %q", vesselType, attr, f.Kind)
	}
	if len(f.Coefs) != want {
		return configErrorf("vessel type %s: %s fit: %s fit needs %d coefficients, got %d",
			vesselType, attr, f.Kind, want, len(f.Coefs))
	}
	return nil
}

// CapacityDist is an empirical tank capacity distribution for one
// attribute (cargo or fuel) of one vessel type. Exactly one of
// Bins+Probabilities or Fit must be configured.
type CapacityDist struct {
	// Bins are half-open capacity intervals [lo, hi) in liters.
	Bins [][]float64 `yaml:"bins"`
	// Probabilities are the per-bin weights; they must sum to 1.
	Probabilities []float64 `yaml:"probabilities"`
	// Fit estimates capacity from vessel length instead of a binned draw.
	Fit *CapacityFit `yaml:"fit"`
}

func (d *CapacityDist) validate(vesselType, attr string) error {
	if d.Fit != nil {
		if len(d.Bins) != 0 || len(d.Probabilities) != 0 {
			return configErrorf("vessel type %s: %s: both fit and bins configured", vesselType, attr)
		}
		return d.Fit.validate(vesselType, attr)
	}
	if len(d.Bins) == 0 {
		return configErrorf("vessel type %s: %s: neither fit nor bins configured", vesselType, attr)
	}
	if len(d.Bins) != len(d.Probabilities) {
		return configErrorf("vessel type %s: %s: %d bins but %d probabilities",
			vesselType, attr, len(d.Bins), len(d.Probabilities))
	}
	for i, b := range d.Bins {
		if len(b) != 2 || b[0] >= b[1] {
			return configErrorf("vessel type %s: %s: malformed bin %d: %v", vesselType, attr, i, b)
		}
		if i > 0 && b[0] < d.Bins[i-1][1] {
			return configErrorf("vessel type %s: %s: bins %d and %d overlap or are out of order",
				vesselType, attr, i-1, i)
		}
	}
	if sum := floats.Sum(d.Probabilities); math.Abs(sum-1) > probTolerance {
		return configErrorf("vessel type %s: %s: bin probabilities sum to %g, not 1", vesselType, attr, sum)
	}
	return nil
}

// VesselTypeProfile holds the static capacity distributions and limits
// for one vessel type. Profiles are immutable after loading.
type VesselTypeProfile struct {
	Name string `yaml:"-"`

	// CarriesCargo marks vessel types that can transport oil as cargo.
	// Types that cannot (fishing, cruise, ferry, ...) always yield a
	// cargo volume of zero.
	CarriesCargo bool `yaml:"carries_cargo"`

	MinLength float64 `yaml:"min_length"`
	MaxLength float64 `yaml:"max_length"`
	MinCargo  float64 `yaml:"min_cargo"`
	MaxCargo  float64 `yaml:"max_cargo"`
	MinFuel   float64 `yaml:"min_fuel"`
	MaxFuel   float64 `yaml:"max_fuel"`

	// ProbabilityCargo and ProbabilityFuel weight whether a spill from
	// this vessel type comes from its cargo or its fuel tanks. When both
	// are zero the type is assumed to spill fuel only.
	ProbabilityCargo float64 `yaml:"probability_cargo"`
	ProbabilityFuel  float64 `yaml:"probability_fuel"`

	Cargo *CapacityDist `yaml:"cargo"`
	Fuel  *CapacityDist `yaml:"fuel"`
}

// Validate checks the profile invariants, returning a ConfigurationError
// on the first violation.
func (p *VesselTypeProfile) Validate() error {
	if p.MinLength < 0 || p.MaxLength <= p.MinLength {
		return configErrorf("vessel type %s: invalid length range [%g, %g]", p.Name, p.MinLength, p.MaxLength)
	}
	if p.Fuel == nil {
		return configErrorf("vessel type %s: no fuel capacity distribution", p.Name)
	}
	if err := p.Fuel.validate(p.Name, "fuel"); err != nil {
		return err
	}
	if p.CarriesCargo {
		if p.Cargo == nil {
			return configErrorf("vessel type %s: carries cargo but has no cargo capacity distribution", p.Name)
		}
		if err := p.Cargo.validate(p.Name, "cargo"); err != nil {
			return err
		}
		if sum := p.ProbabilityCargo + p.ProbabilityFuel; math.Abs(sum-1) > probTolerance {
			return configErrorf("vessel type %s: probability_cargo + probability_fuel = %g, not 1", p.Name, sum)
		}
	}
	return nil
}

// SampleLength draws a vessel length uniformly from the profile's length
// range. It is used when no observed track length is available.
func (p *VesselTypeProfile) SampleLength(rg *rand.Rand) float64 {
	u := distuv.Uniform{Min: p.MinLength, Max: p.MaxLength, Src: rg}
	return u.Rand()
}

// FuelSpill draws whether a spill from this vessel type comes from fuel
// tanks rather than cargo. Types that carry no cargo always spill fuel.
func (p *VesselTypeProfile) FuelSpill(rg *rand.Rand) bool {
	if !p.CarriesCargo || p.ProbabilityFuel+p.ProbabilityCargo == 0 {
		return true
	}
	b := distuv.Bernoulli{P: p.ProbabilityFuel, Src: rg}
	return b.Rand() == 1
}

// SampleCapacity draws a tank capacity [liters] for the given attribute
// ("cargo" or "fuel") of one vessel of length vesselLength. Lengths
// outside the profile's length range clamp to the attribute's capacity
// limits. A binned distribution yields a weighted bin draw followed by a
// uniform draw within the bin; a fitted distribution evaluates the fit
// at the vessel length and clamps the result.
func (p *VesselTypeProfile) SampleCapacity(attr string, vesselLength float64, rg *rand.Rand) (float64, error) {
	var d *CapacityDist
	var lo, hi float64
	switch attr {
	case "cargo":
		if !p.CarriesCargo {
			return 0, nil
		}
		d, lo, hi = p.Cargo, p.MinCargo, p.MaxCargo
	case "fuel":
		d, lo, hi = p.Fuel, p.MinFuel, p.MaxFuel
	default:
		return 0, configErrorf("vessel type %s: unknown capacity attribute %q", p.Name, attr)
	}
	if vesselLength < p.MinLength {
		return lo, nil
	}
	if vesselLength > p.MaxLength {
		return hi, nil
	}
	if d.Fit != nil {
		return clamp(d.Fit.Eval(vesselLength), lo, hi), nil
	}
	i, ok := weightedChoice(rg, d.Probabilities)
	if !ok {
		return 0, configErrorf("vessel type %s: %s: zero total bin probability", p.Name, attr)
	}
	u := distuv.Uniform{Min: d.Bins[i][0], Max: d.Bins[i][1], Src: rg}
	return u.Rand(), nil
}

// standardBargeLengths are tug-and-tank-barge combination lengths [m]
// observed in vessel traffic data, used to standardize under-reported
// articulated tug-and-barge lengths.
var standardBargeLengths = []float64{147, 172, 178, 206, 207}

// AdjustTugBargeLength standardizes ATB and tank barge lengths: reported
// lengths under 100 m for those types describe the tug alone, so a
// combined tug-and-barge length is drawn instead. Other vessel types and
// longer vessels are returned unchanged.
func AdjustTugBargeLength(vesselType string, vesselLength float64, rg *rand.Rand) float64 {
	if vesselType != "atb" && vesselType != "barge" {
		return vesselLength
	}
	if vesselLength >= 100 {
		return vesselLength
	}
	return standardBargeLengths[rg.Intn(len(standardBargeLengths))]
}

// Parameters of the two-exponential cumulative spill-fraction mixture,
// fitted to historical spill cases.
const (
	spillFracBins = 50
	typeOneFrac   = 0.7
	typeOneDecay  = 0.28
	typeTwoDecay  = 0.02
)

// cumulativeSpillFraction is the cumulative probability that no more
// than the given fraction of a tank's contents is spilled.
func cumulativeSpillFraction(fraction float64) float64 {
	typeTwoFrac := 1 - typeOneFrac
	multiplier := 1 / (1 -
		typeOneFrac*math.Exp(-1/typeOneDecay) -
		typeTwoFrac*math.Exp(-1/typeTwoDecay))
	return (1 -
		typeOneFrac*math.Exp(-fraction/typeOneDecay) -
		typeTwoFrac*math.Exp(-fraction/typeTwoDecay)) * multiplier
}

// SampleSpillFraction draws the fraction of tank capacity spilled from a
// 50-bin discretization of the cumulative spill-fraction distribution.
func SampleSpillFraction(rg *rand.Rand) float64 {
	prob := make([]float64, spillFracBins)
	center := make([]float64, spillFracBins)
	for i := 0; i < spillFracBins; i++ {
		f0 := float64(i) / spillFracBins
		f1 := float64(i+1) / spillFracBins
		prob[i] = cumulativeSpillFraction(f1) - cumulativeSpillFraction(f0)
		center[i] = 0.5 * (f0 + f1)
	}
	i, _ := weightedChoice(rg, prob)
	return center[i]
}
