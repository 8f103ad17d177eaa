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

// Package spillcastutil wires the spillcast model to its command-line
// interface and configuration handling.
package spillcastutil

import (
	"fmt"
	"strconv"

	"github.com/lnashier/viper"
	"github.com/oceanmodel/spillcast"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to spillcast.
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
			name: "verbosity",
			usage: `
              verbosity chooses how much information to print about the
              progress of the calculation. Valid choices are debug, info,
              warning, and error; warning and error should be silent
              unless something goes wrong.`,
			shorthand:  "v",
			defaultVal: "warning",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "StartDate",
			usage: `
              StartDate is the first date (inclusive) of the period from
              which spill dates are drawn. Format = "YYYY-MM-DD".`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "EndDate",
			usage: `
              EndDate is the last date (inclusive) of the period from
              which spill dates are drawn. Format = "YYYY-MM-DD".`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "TrafficDir",
			usage: `
              TrafficDir is the directory holding one monthly vessel
              traffic raster file per vessel type, named
              "<vesselType>.nc", plus "all.nc" for all vessel types
              combined. The path can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "WaterMask",
			usage: `
              WaterMask is the path to the precomputed water mask aligned
              to the traffic rasters. The path can include environment
              variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MeshFile",
			usage: `
              MeshFile is the path to the ocean model mesh descriptor
              used to refine spill locations to model water points. If it
              is left blank, spills are placed at raster cell centers.
              The path can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "TracksDir",
			usage: `
              TracksDir is the directory holding one AIS vessel track
              shapefile per vessel type, named "<vesselType>.shp". If it
              is left blank, vessel lengths are drawn from the vessel
              profiles and voyage origins/destinations are left empty.
              The path can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "VesselProfiles",
			usage: `
              VesselProfiles is the path to the YAML table of vessel
              capacity distributions by vessel type. The path can include
              environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OilAttribution",
			usage: `
              OilAttribution is the path to the YAML table attributing
              cargo oil types to vessel types and voyage routes. The path
              can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "FuelTypes",
			usage: `
              FuelTypes is the path to the YAML table of fuel types and
              probabilities by vessel type. The path can include
              environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "VesselTypes",
			usage: `
              VesselTypes lists the vessel types from which spills can
              occur, and for which there are traffic rasters.`,
			defaultVal: []string{
				"tanker", "atb", "barge", "cargo", "cruise",
				"ferry", "fishing", "smallpass", "other",
			},
			flagsets: []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MaxRetries",
			usage: `
              MaxRetries bounds how many times any one spill is resampled
              after a recoverable sampling error before the run fails.`,
			defaultVal: spillcast.DefaultMaxRetries,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Seed",
			usage: `
              Seed initializes the random number generator. Runs with the
              same seed and input tables produce identical output.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path of the CSV file to write the spill
              parameters to. It can include environment variables.`,
			defaultVal: "spills.csv",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SPILLCAST")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("spillcast: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// setVerbosity configures the logging level.
func setVerbosity() error {
	level, err := logrus.ParseLevel(Cfg.GetString("verbosity"))
	if err != nil {
		return fmt.Errorf("spillcast: %v", err)
	}
	logrus.SetLevel(level)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "spillcast",
	Short: "A random oil-spill parameter generator.",
	Long: `spillcast generates parameter sets for Monte Carlo simulations of
marine oil-spill incidents: for each requested spill it draws a date,
location, vessel type, oil type, and spill volume from empirically
derived distributions.

Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the
format 'SPILLCAST_var' where 'var' is the name of the variable to be
set. Many configuration variables are additionally allowed to contain
environment variables within them.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if err := setConfig(); err != nil {
			return err
		}
		return setVerbosity()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of spillcast.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("spillcast v%s\n", spillcast.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd generates spill parameters and writes them to a CSV file.
var runCmd = &cobra.Command{
	Use:   "run [n_spills] [output_file]",
	Short: "Generate random oil-spill parameters.",
	Long: `run calculates a CSV file containing the parameters of a set of
random oil spills to drive Monte Carlo simulations. Either all requested
spills are written or the command fails without output.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		nSpills, err := strconv.Atoi(args[0])
		if err != nil || nSpills < 0 {
			return fmt.Errorf("spillcast: n_spills must be a non-negative integer, got %q", args[0])
		}
		outputFile := Cfg.GetString("OutputFile")
		if len(args) == 2 {
			outputFile = args[1]
		}
		outputFile, err = checkOutputFile(outputFile)
		if err != nil {
			return err
		}
		cfg, err := GenConfig(Cfg)
		if err != nil {
			return err
		}
		return Run(nSpills, cfg, outputFile)
	},
	DisableAutoGenTag: true,
}

// Run generates nSpills spill records per cfg and writes them to
// outputFile.
func Run(nSpills int, cfg *spillcast.Config, outputFile string) error {
	gen, err := spillcast.NewGenerator(cfg)
	if err != nil {
		return err
	}
	records, err := gen.Generate(nSpills)
	if err != nil {
		return err
	}
	if err := spillcast.WriteCSVFile(outputFile, records); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"spills": len(records),
		"file":   outputFile,
	}).Info("wrote spill parameters")
	return nil
}
