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
	"sort"

	"golang.org/x/exp/rand"
)

// attributionTolerance is the allowed deviation from 1 for oil-type
// weight tables, which are transcribed from transfer-volume reports and
// carry more rounding error than configured probabilities.
const attributionTolerance = 1e-4

// OilWeights maps oil type labels to their fraction of total transfer
// volume for one facility or region. The fractions must sum to 1.
type OilWeights map[string]float64

func (w OilWeights) validate(context string) error {
	var sum float64
	for _, v := range w {
		sum += v
	}
	if math.Abs(sum-1) > attributionTolerance {
		return configErrorf("%s: oil type fractions sum to %g, not 1", context, sum)
	}
	return nil
}

// sample draws an oil type from the weights. Iteration order over a map
// is randomized by the runtime, so the labels are sorted first to keep
// draws reproducible for a given seed.
func (w OilWeights) sample(rg *rand.Rand) (string, bool) {
	labels := make([]string, 0, len(w))
	for l := range w {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	weights := make([]float64, len(labels))
	for i, l := range labels {
		weights[i] = w[l]
	}
	i, ok := weightedChoice(rg, weights)
	if !ok {
		return "", false
	}
	return labels[i], true
}

// RouteAttribution attributes oil types to a specific origin/destination
// pair for one vessel type.
type RouteAttribution struct {
	Origin      string     `yaml:"origin"`
	Destination string     `yaml:"destination"`
	Oils        OilWeights `yaml:"oils"`
}

// VesselAttribution holds the layered oil-type lookup tables for one
// vessel type. Lookups try each layer in a fixed order: an exact
// origin/destination route, the origin facility, the origin's generic
// region, and finally the vessel-type-wide default.
type VesselAttribution struct {
	Routes  []RouteAttribution    `yaml:"routes"`
	Origins map[string]OilWeights `yaml:"origins"`
	Regions map[string]OilWeights `yaml:"regions"`
	Default OilWeights            `yaml:"default"`
}

// OilAttributionTable maps sampled vessel/route context to oil types.
type OilAttributionTable struct {
	// Vessels holds per-vessel-type attribution layers.
	Vessels map[string]*VesselAttribution `yaml:"vessel_types"`
	// FacilityRegions maps facility names to their generic region
	// (Pacific, US, or Canada) for the region fallback layer.
	FacilityRegions map[string]string `yaml:"facility_regions"`
}

// Validate checks every weight table in the attribution table,
// returning a ConfigurationError on the first violation.
func (t *OilAttributionTable) Validate() error {
	for vt, va := range t.Vessels {
		for i, r := range va.Routes {
			if err := r.Oils.validate("vessel type " + vt + " route " + r.Origin + " to " + r.Destination); err != nil {
				return err
			}
			if r.Origin == "" {
				return configErrorf("vessel type %s: route %d has no origin", vt, i)
			}
		}
		for o, w := range va.Origins {
			if err := w.validate("vessel type " + vt + " origin " + o); err != nil {
				return err
			}
		}
		for r, w := range va.Regions {
			if err := w.validate("vessel type " + vt + " region " + r); err != nil {
				return err
			}
		}
		if va.Default != nil {
			if err := va.Default.validate("vessel type " + vt + " default"); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResolveOilType draws the type of oil carried as cargo by a vessel of
// the given type traveling from origin to destination. The lookup layers
// are tried in order until one matches; a weighted draw within the
// matched layer picks the oil type. If no layer matches, including the
// vessel-type-wide default, an AttributionError is returned.
func (t *OilAttributionTable) ResolveOilType(vesselType, origin, destination string, rg *rand.Rand) (string, error) {
	fail := &AttributionError{VesselType: vesselType, Origin: origin, Destination: destination}
	va, ok := t.Vessels[vesselType]
	if !ok {
		return "", fail
	}
	for _, r := range va.Routes {
		if r.Origin == origin && r.Destination == destination {
			if oil, ok := r.Oils.sample(rg); ok {
				return oil, nil
			}
			return "", fail
		}
	}
	if w, ok := va.Origins[origin]; ok {
		if oil, ok := w.sample(rg); ok {
			return oil, nil
		}
		return "", fail
	}
	if region, ok := t.FacilityRegions[origin]; ok {
		if w, ok := va.Regions[region]; ok {
			if oil, ok := w.sample(rg); ok {
				return oil, nil
			}
			return "", fail
		}
	}
	// Origins that are themselves generic region labels fall through to
	// the region tables directly.
	if w, ok := va.Regions[origin]; ok {
		if oil, ok := w.sample(rg); ok {
			return oil, nil
		}
		return "", fail
	}
	if va.Default != nil {
		if oil, ok := va.Default.sample(rg); ok {
			return oil, nil
		}
	}
	return "", fail
}

// FuelTypeTable maps vessel types to the fuels they burn and the
// probability of each, typically bunker vs. diesel.
type FuelTypeTable map[string]OilWeights

// Validate checks that each vessel type's fuel weights sum to 1.
func (t FuelTypeTable) Validate() error {
	for vt, w := range t {
		if err := w.validate("fuel types for vessel type " + vt); err != nil {
			return err
		}
	}
	return nil
}

// SampleFuelType draws the fuel type burned by the given vessel type.
func (t FuelTypeTable) SampleFuelType(vesselType string, rg *rand.Rand) (string, error) {
	w, ok := t[vesselType]
	if !ok {
		return "", &AttributionError{VesselType: vesselType}
	}
	fuel, ok := w.sample(rg)
	if !ok {
		return "", &AttributionError{VesselType: vesselType}
	}
	return fuel, nil
}
