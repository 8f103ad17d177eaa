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
	"reflect"
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

func mustLineString(coords ...float64) geom.LineString {
	ls := make(geom.LineString, 0, len(coords)/2)
	for i := 0; i < len(coords); i += 2 {
		ls = append(ls, geom.Point{X: coords[i], Y: coords[i+1]})
	}
	return ls
}

// testGenerator assembles an in-memory generator with two vessel types
// on the 2×2 test grid: a tanker that carries cargo and a ferry that
// does not. All traffic sits in the single water cell at row 1,
// column 0.
func testGenerator(seed uint64) *Generator {
	ferry := testProfile()
	ferry.Name = "ferry"
	ferry.CarriesCargo = false
	ferry.Cargo = nil
	ferry.Fuel = &CapacityDist{Fit: &CapacityFit{Kind: FitLinear, Coefs: []float64{0.05, 0}}}

	lg := logrus.New()
	lg.SetLevel(logrus.ErrorLevel)

	return &Generator{
		Profiles: map[string]*VesselTypeProfile{
			"tanker": testProfile(),
			"ferry":  ferry,
		},
		Attribution: testAttributionTable(),
		FuelTypes: FuelTypeTable{
			"tanker": {"bunker": 0.7, "diesel": 0.3},
			"ferry":  {"diesel": 1},
		},
		Traffic: map[string]*TrafficRaster{
			"tanker": testTraffic("tanker", 2),
			"ferry":  testTraffic("ferry", 1),
		},
		TotalTraffic: testTraffic("all", 3),
		Mask:         testMask(),
		Mesh:         testMesh(),
		VesselTypes:  []string{"tanker", "ferry"},
		StartDate:    time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC),
		Rand:         NewRand(seed),
		Log:          lg,
	}
}

func TestGenerateDeterminism(t *testing.T) {
	a, err := testGenerator(42).Generate(20)
	if err != nil {
		t.Fatal(err)
	}
	b, err := testGenerator(42).Generate(20)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical seeds and inputs produced different records")
	}

	c, err := testGenerator(43).Generate(20)
	if err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced identical records")
	}
}

func TestGenerateRecords(t *testing.T) {
	g := testGenerator(7)
	records, err := g.Generate(50)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 50 {
		t.Fatalf("have %d records, want 50", len(records))
	}

	for i, r := range records {
		if r.VesselType != "tanker" && r.VesselType != "ferry" {
			t.Fatalf("record %d: unexpected vessel type %s", i, r.VesselType)
		}
		p := g.Profiles[r.VesselType]

		// Volumes stay within tank capacity limits and at most one of
		// fuel and cargo is spilled.
		if r.FuelVolume < 0 || r.FuelVolume > p.MaxFuel {
			t.Fatalf("record %d: fuel volume %g outside [0, %g]", i, r.FuelVolume, p.MaxFuel)
		}
		if r.CargoVolume < 0 || r.CargoVolume > p.MaxCargo {
			t.Fatalf("record %d: cargo volume %g outside [0, %g]", i, r.CargoVolume, p.MaxCargo)
		}
		if r.FuelVolume > 0 && r.CargoVolume > 0 {
			t.Fatalf("record %d: both fuel and cargo spilled", i)
		}
		if r.VesselType == "ferry" && r.CargoVolume != 0 {
			t.Fatalf("record %d: cargo spill from a vessel type that carries none", i)
		}

		if r.OilType == "" {
			t.Fatalf("record %d: no oil type", i)
		}
		if want := "Lagrangian_" + r.OilType + ".dat"; r.LagrangianTemplate != want {
			t.Fatalf("record %d: template %s, want %s", i, r.LagrangianTemplate, want)
		}

		if r.DateTime.Before(g.StartDate) || r.DateTime.After(g.EndDate.Add(23*time.Hour)) {
			t.Fatalf("record %d: %s outside the spill period", i, r.DateTime)
		}

		// All traffic is in one raster cell; the mesh keeps refined
		// positions within it.
		if r.Longitude < -123 || r.Longitude > -122.9 || r.Latitude < 48.1 || r.Latitude > 48.2 {
			t.Fatalf("record %d: position (%g, %g) outside the only traffic cell", i, r.Longitude, r.Latitude)
		}
	}
}

func TestGenerateCellCenterWithoutMesh(t *testing.T) {
	g := testGenerator(3)
	g.Mesh = nil
	records, err := g.Generate(5)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range records {
		if r.Longitude != -122.95 || r.Latitude != 48.15 {
			t.Errorf("record %d: have (%g, %g), want the cell center (-122.95, 48.15)",
				i, r.Longitude, r.Latitude)
		}
	}
}

func TestGenerateRetryExhaustion(t *testing.T) {
	g := testGenerator(3)
	// A track store with no tracks makes every location draw fail
	// recoverably until the retry budget runs out.
	g.Tracks = &TrackStore{}
	g.MaxRetries = 4

	var cfgErr *ConfigurationError
	_, err := g.Generate(1)
	if err == nil {
		t.Fatal("empty track store should exhaust the retry budget")
	}
	if !errors.As(err, &cfgErr) {
		t.Errorf("have %T, want *ConfigurationError", err)
	}
}

func TestGenerateMissingProfile(t *testing.T) {
	g := testGenerator(3)
	delete(g.Profiles, "ferry")
	var cfgErr *ConfigurationError
	if _, err := g.Generate(1); !errors.As(err, &cfgErr) {
		t.Errorf("missing profile: have %T, want *ConfigurationError", err)
	}
}

func TestGenerateNoTrafficInWater(t *testing.T) {
	g := testGenerator(3)
	// Water only where no vessel ever goes. Built from scratch because
	// sparse.DenseArray.Set silently ignores zero values, so the water
	// cell from testMask cannot be cleared by setting it to 0.
	m := sparse.ZerosDense(2, 2)
	m.Set(1, 0, 1)
	g.Mask = &WaterMask{Data: m}

	var cfgErr *ConfigurationError
	if _, err := g.Generate(1); !errors.As(err, &cfgErr) {
		t.Errorf("have %T, want *ConfigurationError", err)
	}
}

func TestGenerateResamplesVoyageNotVessel(t *testing.T) {
	// An attribution gap means the drawn voyage has no oil-type
	// coverage; the voyage must be redrawn, not the vessel type.
	g := testGenerator(29)
	g.VesselTypes = []string{"tanker"}
	g.Profiles["tanker"].ProbabilityCargo = 1
	g.Profiles["tanker"].ProbabilityFuel = 0
	g.Attribution.Vessels["tanker"].Default = nil

	covered := &Track{
		Geom:        mustLineString(-123.05, 48.15, -122.85, 48.15),
		Length:      245,
		Origin:      "Westridge Marine Terminal",
		Destination: "anchorage",
		Duration:    5 * time.Hour,
	}
	uncovered := &Track{
		Geom:        mustLineString(-123.05, 48.12, -122.85, 48.12),
		Length:      245,
		Origin:      "nowhere",
		Destination: "anywhere",
		Duration:    time.Hour,
	}
	tracks := &TrackStore{}
	tracks.AddTracks("tanker", covered, uncovered)
	g.Tracks = tracks

	records, err := g.Generate(25)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range records {
		if r.VesselType != "tanker" {
			t.Fatalf("record %d: vessel type %s, want tanker", i, r.VesselType)
		}
		if r.Origin != "Westridge Marine Terminal" || r.OilType != "dilbit" {
			t.Fatalf("record %d: uncovered voyage kept: origin %q, oil %q", i, r.Origin, r.OilType)
		}
		if r.CargoVolume <= 0 {
			t.Fatalf("record %d: cargo spill has volume %g", i, r.CargoVolume)
		}
	}
}

func TestGenerateVoyageRetryExhaustion(t *testing.T) {
	// When no voyage of the drawn vessel type has attribution coverage,
	// the run must fail instead of quietly shifting spills to other
	// vessel types.
	g := testGenerator(29)
	g.VesselTypes = []string{"tanker"}
	g.Profiles["tanker"].ProbabilityCargo = 1
	g.Profiles["tanker"].ProbabilityFuel = 0
	g.Attribution.Vessels["tanker"].Default = nil
	g.MaxRetries = 3

	tracks := &TrackStore{}
	tracks.AddTracks("tanker", &Track{
		Geom:        mustLineString(-123.05, 48.15, -122.85, 48.15),
		Length:      245,
		Origin:      "nowhere",
		Destination: "anywhere",
		Duration:    3 * time.Hour,
	})
	g.Tracks = tracks

	var cfgErr *ConfigurationError
	_, err := g.Generate(1)
	if err == nil {
		t.Fatal("uncoverable tanker voyages should fail the run")
	}
	if !errors.As(err, &cfgErr) {
		t.Errorf("have %T, want *ConfigurationError", err)
	}
}

func TestGenerateMonthLayerValidation(t *testing.T) {
	g := testGenerator(3)
	g.TotalTraffic = &TrafficRaster{VesselType: "all", Data: sparse.ZerosDense(6, 2, 2)}
	var cfgErr *ConfigurationError
	if _, err := g.Generate(1); !errors.As(err, &cfgErr) {
		t.Errorf("6-layer combined raster: have %T, want *ConfigurationError", err)
	}
}

func TestGenerateWithTracks(t *testing.T) {
	g := testGenerator(17)
	cellTrack := func(origin, dest string, length float64) *Track {
		return &Track{
			// Crosses the water cell at row 1, column 0.
			Geom:        mustLineString(-123.05, 48.15, -122.85, 48.15),
			Length:      length,
			Origin:      origin,
			Destination: dest,
			MMSI:        "316001234",
			Duration:    3 * time.Hour,
		}
	}
	tracks := &TrackStore{}
	tracks.AddTracks("tanker", cellTrack("Westridge Marine Terminal", "anchorage", 245))
	tracks.AddTracks("ferry", cellTrack("Tsawwassen", "Swartz Bay", 160))
	g.Tracks = tracks

	records, err := g.Generate(30)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range records {
		if r.Origin == "" || r.MMSI != "316001234" {
			t.Fatalf("record %d: voyage attributes not taken from the sampled track: %+v", i, r)
		}
		if r.VesselType == "tanker" && r.CargoVolume > 0 {
			// The tanker track originates at a facility in the origins
			// layer of the attribution table.
			if r.OilType != "dilbit" {
				t.Fatalf("record %d: cargo oil type %s, want dilbit", i, r.OilType)
			}
		}
	}
}
