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

package spillcastutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lnashier/viper"
	"github.com/oceanmodel/spillcast"
	"github.com/spf13/cast"
)

// dateFormat is the configuration file date layout.
const dateFormat = "2006-01-02"

// GenConfig builds the generator configuration from the configuration
// variables, expanding any environment variables in paths.
func GenConfig(cfg *viper.Viper) (*spillcast.Config, error) {
	start, err := parseDate(cfg, "StartDate")
	if err != nil {
		return nil, err
	}
	end, err := parseDate(cfg, "EndDate")
	if err != nil {
		return nil, err
	}
	c := &spillcast.Config{
		StartDate:      start,
		EndDate:        end,
		TrafficDir:     os.ExpandEnv(cfg.GetString("TrafficDir")),
		WaterMask:      os.ExpandEnv(cfg.GetString("WaterMask")),
		MeshFile:       os.ExpandEnv(cfg.GetString("MeshFile")),
		TracksDir:      os.ExpandEnv(cfg.GetString("TracksDir")),
		VesselProfiles: os.ExpandEnv(cfg.GetString("VesselProfiles")),
		OilAttribution: os.ExpandEnv(cfg.GetString("OilAttribution")),
		FuelTypes:      os.ExpandEnv(cfg.GetString("FuelTypes")),
		VesselTypes:    expandStringSlice(cfg.GetStringSlice("VesselTypes")),
		MaxRetries:     cfg.GetInt("MaxRetries"),
		Seed:           cast.ToUint64(cfg.Get("Seed")),
	}
	return c, nil
}

// parseDate reads a "YYYY-MM-DD" date from the configuration.
func parseDate(cfg *viper.Viper, key string) (time.Time, error) {
	s := cfg.GetString(key)
	if s == "" {
		return time.Time{}, fmt.Errorf("spillcast: the %s configuration variable must be set", key)
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("spillcast: parsing %s: %v", key, err)
	}
	return t, nil
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkOutputFile makes sure that the output file's directory exists,
// and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`spillcast: you need to specify an output file (for example: OutputFile="spills.csv")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("spillcast: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}
