/*
Copyright © 2020 the spillcast authors.
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

// Package spillcast generates statistically plausible parameter sets for
// Monte Carlo simulations of marine oil-spill incidents. For each
// requested spill it composes draws from empirically derived
// distributions (vessel traffic density rasters, vessel capacity
// tables, and oil attribution tables) into one internally consistent
// spill record: when and where the spill happens, from what kind of
// vessel, what substance, and how much of it.
//
// It does not simulate spill transport or weathering; the records it
// produces are inputs for downstream simulation tools.
package spillcast

import (
	"errors"
	"fmt"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

// Version gives the version number of this version of spillcast.
const Version = "1.2.0"

// SpillRecord is one synthesized Monte Carlo input describing a
// hypothetical oil spill. Records are immutable once created.
type SpillRecord struct {
	// DateTime is the spill date and hour, a naive local time of the
	// model domain.
	DateTime time.Time

	Latitude  float64
	Longitude float64

	VesselType string

	// OilType is the type of oil spilled, from the fuel table for fuel
	// spills or the attribution table for cargo spills.
	OilType string

	// FuelVolume and CargoVolume are the spilled volumes [liters]. At
	// most one of them is nonzero; vessel types that carry no cargo
	// always have CargoVolume == 0.
	FuelVolume  float64
	CargoVolume float64

	Origin      string
	Destination string
	MMSI        string

	// LagrangianTemplate names the particle-tracking input template for
	// the spilled oil type.
	LagrangianTemplate string
}

// Generator synthesizes spill records. All referenced tables and
// rasters are loaded before generation starts and are read-only; the
// only state that changes between spills is the random source.
type Generator struct {
	Profiles    map[string]*VesselTypeProfile
	Attribution *OilAttributionTable
	FuelTypes   FuelTypeTable

	// Traffic holds one monthly raster per configured vessel type, and
	// TotalTraffic the all-vessels raster whose monthly water-cell
	// totals weight the spill date draw.
	Traffic      map[string]*TrafficRaster
	TotalTraffic *TrafficRaster
	Mask         *WaterMask

	// Mesh refines sampled raster cells to ocean model water points.
	// When nil, spills are placed at raster cell centers.
	Mesh *MeshGrid

	// Tracks supplies vessel lengths and voyage origin/destination from
	// AIS data. When nil, lengths are drawn from the vessel profiles and
	// origins/destinations are left empty.
	Tracks *TrackStore

	VesselTypes []string
	StartDate   time.Time
	EndDate     time.Time

	// MaxRetries bounds resampling after recoverable errors on any one
	// spill. Exhausting it fails the whole run.
	MaxRetries int

	Rand *rand.Rand
	Log  *logrus.Logger

	// Cached per-vessel-type aggregate rasters and traffic totals.
	aggregates   map[string]*sparse.DenseArray
	typeWeights  []float64
	monthWeights []float64
}

// NewGenerator assembles a Generator from the given configuration,
// loading every input file up front. The files are closed again before
// NewGenerator returns; generation itself does no I/O.
func NewGenerator(cfg *Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	profiles, err := LoadVesselProfiles(cfg.VesselProfiles)
	if err != nil {
		return nil, err
	}
	attribution, err := LoadOilAttribution(cfg.OilAttribution)
	if err != nil {
		return nil, err
	}
	fuelTypes, err := LoadFuelTypes(cfg.FuelTypes)
	if err != nil {
		return nil, err
	}
	mask, err := LoadWaterMask(cfg.WaterMask)
	if err != nil {
		return nil, err
	}
	total, err := LoadTrafficRaster(cfg.TrafficPath("all"), "all")
	if err != nil {
		return nil, err
	}
	traffic := make(map[string]*TrafficRaster)
	for _, vt := range cfg.VesselTypes {
		r, err := LoadTrafficRaster(cfg.TrafficPath(vt), vt)
		if err != nil {
			return nil, err
		}
		traffic[vt] = r
	}
	var mesh *MeshGrid
	if cfg.MeshFile != "" {
		mesh, err = LoadMeshGrid(cfg.MeshFile)
		if err != nil {
			return nil, err
		}
	}
	var tracks *TrackStore
	if cfg.TracksDir != "" {
		tracks, err = LoadTracks(cfg.TracksDir, cfg.VesselTypes)
		if err != nil {
			return nil, err
		}
	}
	g := &Generator{
		Profiles:     profiles,
		Attribution:  attribution,
		FuelTypes:    fuelTypes,
		Traffic:      traffic,
		TotalTraffic: total,
		Mask:         mask,
		Mesh:         mesh,
		Tracks:       tracks,
		VesselTypes:  cfg.VesselTypes,
		StartDate:    cfg.StartDate,
		EndDate:      cfg.EndDate,
		MaxRetries:   cfg.MaxRetries,
		Rand:         NewRand(cfg.Seed),
	}
	return g, nil
}

// init validates cross-table consistency and precomputes the sampling
// weights that stay fixed for the whole run.
func (g *Generator) init() error {
	if g.Log == nil {
		g.Log = logrus.StandardLogger()
	}
	if g.Rand == nil {
		return configErrorf("no random source configured")
	}
	if g.MaxRetries <= 0 {
		g.MaxRetries = DefaultMaxRetries
	}
	if len(g.VesselTypes) == 0 {
		return configErrorf("no vessel types configured")
	}
	for _, vt := range g.VesselTypes {
		p, ok := g.Profiles[vt]
		if !ok {
			return configErrorf("no profile for vessel type %s", vt)
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if _, ok := g.Traffic[vt]; !ok {
			return configErrorf("no traffic raster for vessel type %s", vt)
		}
		if _, ok := g.FuelTypes[vt]; !ok {
			return configErrorf("no fuel types for vessel type %s", vt)
		}
	}
	if err := g.Attribution.Validate(); err != nil {
		return err
	}
	if err := g.FuelTypes.Validate(); err != nil {
		return err
	}

	g.aggregates = make(map[string]*sparse.DenseArray, len(g.VesselTypes))
	g.typeWeights = make([]float64, len(g.VesselTypes))
	for i, vt := range g.VesselTypes {
		g.aggregates[vt] = g.Traffic[vt].Aggregate()
		totals := g.Traffic[vt].MonthlyTotals(g.Mask)
		for _, t := range totals {
			g.typeWeights[i] += t
		}
	}
	if g.TotalTraffic != nil {
		if months := g.TotalTraffic.Data.Shape[0]; months != 12 {
			return configErrorf("combined traffic raster has %d monthly layers, want 12", months)
		}
		g.monthWeights = g.TotalTraffic.MonthlyTotals(g.Mask)
	}
	return nil
}

// Generate synthesizes n spill records. Either all n records are
// returned or an error is; there are no partial results. Output is
// reproducible bit for bit for a given seed and input tables.
func (g *Generator) Generate(n int) ([]SpillRecord, error) {
	if err := g.init(); err != nil {
		return nil, err
	}
	records := make([]SpillRecord, 0, n)
	for i := 0; i < n; i++ {
		rec, err := g.synthesize(i)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// synthesize produces the i'th spill record. An empty sampling domain
// means the drawn vessel type or location was a dead end, so the whole
// record is redrawn from the vessel type on, up to the retry budget.
// Attribution gaps are handled further down, at the voyage draw.
func (g *Generator) synthesize(i int) (SpillRecord, error) {
	for retry := 0; retry <= g.MaxRetries; retry++ {
		rec, err := g.drawSpill()
		if err == nil {
			g.Log.WithFields(logrus.Fields{
				"spill":  i,
				"vessel": rec.VesselType,
				"oil":    rec.OilType,
			}).Info("synthesized spill record")
			return rec, nil
		}
		var empty *EmptyDomainError
		if errors.As(err, &empty) {
			g.Log.WithField("spill", i).WithError(err).Info("resampling spill")
			continue
		}
		return SpillRecord{}, err
	}
	return SpillRecord{}, configErrorf("spill %d: retry budget (%d) exhausted; "+
		"the configured vessel types, rasters, and attribution tables do not overlap", i, g.MaxRetries)
}

// drawSpill runs the fixed per-spill sampling sequence: vessel type,
// location, attributes, time.
func (g *Generator) drawSpill() (SpillRecord, error) {
	var rec SpillRecord

	// Vessel type, weighted by each type's total traffic in water cells.
	vi, ok := weightedChoice(g.Rand, g.typeWeights)
	if !ok {
		return rec, configErrorf("no vessel type has any traffic in water cells")
	}
	rec.VesselType = g.VesselTypes[vi]
	profile := g.Profiles[rec.VesselType]
	raster := g.Traffic[rec.VesselType]

	// Location, weighted by the vessel type's traffic density.
	row, col, err := SampleCell(g.aggregates[rec.VesselType], g.Mask, g.Rand)
	if err != nil {
		return rec, err
	}
	cell := raster.Transform.CellBounds(row, col)
	if g.Mesh != nil {
		if lon, lat, ok := g.Mesh.Refine(cell, g.Rand); ok {
			rec.Longitude, rec.Latitude = lon, lat
		} else {
			rec.Longitude, rec.Latitude = raster.Transform.CellCenter(row, col)
		}
	} else {
		rec.Longitude, rec.Latitude = raster.Transform.CellCenter(row, col)
	}

	// Voyage and voyage-dependent attributes. An attribution gap is a
	// property of the drawn voyage, not of the vessel type or location,
	// so only the voyage draw is repeated.
	for retry := 0; ; retry++ {
		err = g.drawAttributes(&rec, profile, cell)
		if err == nil {
			break
		}
		var attr *AttributionError
		if !errors.As(err, &attr) {
			return rec, err
		}
		if retry >= g.MaxRetries {
			return rec, configErrorf("vessel type %s: retry budget (%d) exhausted; "+
				"the attribution tables do not cover the type's voyages", rec.VesselType, g.MaxRetries)
		}
		g.Log.WithFields(logrus.Fields{
			"vessel": rec.VesselType,
			"origin": rec.Origin,
		}).WithError(err).Info("resampling voyage")
	}

	// Date and hour, with the month weighted by total traffic.
	rec.DateTime, err = SampleDateTime(g.StartDate, g.EndDate, g.monthWeights, g.Rand)
	if err != nil {
		return rec, err
	}
	return rec, nil
}

// drawAttributes draws the voyage of one spill and everything derived
// from it: vessel length and origin/destination from AIS tracks where
// available, tank capacities, the spilled substance, its volume, and
// its oil type.
func (g *Generator) drawAttributes(rec *SpillRecord, profile *VesselTypeProfile, cell *geom.Bounds) error {
	rec.Origin, rec.Destination, rec.MMSI = "", "", ""
	rec.FuelVolume, rec.CargoVolume = 0, 0

	var vesselLength float64
	if g.Tracks != nil {
		track, err := g.Tracks.SampleTrack(rec.VesselType, cell, g.Rand)
		if err != nil {
			return err
		}
		vesselLength = track.Length
		rec.Origin = track.Origin
		rec.Destination = track.Destination
		rec.MMSI = track.MMSI
	} else {
		vesselLength = profile.SampleLength(g.Rand)
	}
	vesselLength = AdjustTugBargeLength(rec.VesselType, vesselLength, g.Rand)

	fuelCapacity, err := profile.SampleCapacity("fuel", vesselLength, g.Rand)
	if err != nil {
		return err
	}
	cargoCapacity, err := profile.SampleCapacity("cargo", vesselLength, g.Rand)
	if err != nil {
		return err
	}
	fraction := SampleSpillFraction(g.Rand)
	if profile.FuelSpill(g.Rand) {
		oil, err := g.FuelTypes.SampleFuelType(rec.VesselType, g.Rand)
		if err != nil {
			return err
		}
		rec.OilType = oil
		rec.FuelVolume = fuelCapacity * fraction
	} else {
		oil, err := g.Attribution.ResolveOilType(rec.VesselType, rec.Origin, rec.Destination, g.Rand)
		if err != nil {
			return err
		}
		rec.OilType = oil
		rec.CargoVolume = cargoCapacity * fraction
	}
	rec.LagrangianTemplate = fmt.Sprintf("Lagrangian_%s.dat", rec.OilType)
	return nil
}
