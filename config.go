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
	"os"
	"path/filepath"
	"time"
)

// DefaultMaxRetries bounds per-spill resampling after recoverable
// errors when no budget is configured.
const DefaultMaxRetries = 10

// Config collects every run-time input of a generation run. It is
// constructed once at startup and passed by reference; nothing reads
// configuration from ambient state.
type Config struct {
	// StartDate and EndDate bound the period (inclusive) from which
	// spill dates are drawn.
	StartDate time.Time
	EndDate   time.Time

	// TrafficDir holds one monthly traffic raster file per vessel type,
	// named "<vesselType>.nc", plus "all.nc" for all vessel types
	// combined.
	TrafficDir string

	// WaterMask is the path to the precomputed water mask aligned to
	// the traffic rasters.
	WaterMask string

	// MeshFile is the path to the ocean model mesh descriptor used to
	// refine spill locations to model water points. Optional.
	MeshFile string

	// TracksDir holds one AIS track shapefile per vessel type. Optional.
	TracksDir string

	// VesselProfiles, OilAttribution, and FuelTypes are paths to the
	// static YAML reference tables.
	VesselProfiles string
	OilAttribution string
	FuelTypes      string

	// VesselTypes lists the vessel types to consider.
	VesselTypes []string

	// MaxRetries bounds per-spill resampling; DefaultMaxRetries if zero.
	MaxRetries int

	// Seed initializes the random number generator.
	Seed uint64
}

// TrafficPath returns the path of the traffic raster file for the given
// vessel type (or "all" for the combined raster).
func (c *Config) TrafficPath(vesselType string) string {
	return filepath.Join(c.TrafficDir, vesselType+".nc")
}

// Validate checks that the required inputs are configured and that the
// required files exist, returning a ConfigurationError otherwise.
func (c *Config) Validate() error {
	if c.EndDate.Before(c.StartDate) {
		return configErrorf("end date %s is before start date %s",
			c.EndDate.Format("2006-01-02"), c.StartDate.Format("2006-01-02"))
	}
	if len(c.VesselTypes) == 0 {
		return configErrorf("no vessel types configured")
	}
	required := map[string]string{
		"water mask":      c.WaterMask,
		"vessel profiles": c.VesselProfiles,
		"oil attribution": c.OilAttribution,
		"fuel types":      c.FuelTypes,
	}
	for what, path := range required {
		if path == "" {
			return configErrorf("no %s file configured", what)
		}
		if _, err := os.Stat(path); err != nil {
			return configErrorf("%s file: %v", what, err)
		}
	}
	if c.TrafficDir == "" {
		return configErrorf("no traffic raster directory configured")
	}
	if _, err := os.Stat(c.TrafficPath("all")); err != nil {
		return configErrorf("combined traffic raster: %v", err)
	}
	return nil
}
