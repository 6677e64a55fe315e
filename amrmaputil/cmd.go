/*
Copyright © 2019 the AMRmap authors.
This file is part of AMRmap.

AMRmap is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AMRmap is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AMRmap.  If not, see <http://www.gnu.org/licenses/>.
*/

package amrmaputil

import (
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/amrmap"
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
	// Options are the configuration options available to AMRmap.
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
			name: "CellTable",
			usage: `
              CellTable is the path to the NetCDF cell table to read. It can
              include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{projectCmd.Flags(), profileCmd.Flags(), statsCmd.Flags()},
		},
		{
			name: "ScaleFile",
			usage: `
              ScaleFile is the path to a TOML file with units to convert code
              units into, in addition to any stored in the cell table. Each
              unit is a table such as
                [scales.kpc]
                factor = 3.08e21
                dimension = "length"`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path where the output file should be written.
              When projecting along more than one direction, the direction
              is appended to the file name.`,
			shorthand:  "o",
			defaultVal: "amrmap_output.ncf",
			flagsets:   []*pflag.FlagSet{synthCmd.Flags(), projectCmd.Flags(), profileCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to a rotating log file that messages are
              written to in addition to the standard output. If it is empty,
              messages are only written to the standard output.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Verbose",
			usage: `
              Verbose specifies whether to log progress details.`,
			shorthand:  "v",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Variables",
			usage: fmt.Sprintf(`
              Variables are the raw fields or derived quantities to process,
              for example rho or mass. The derived quantities are:
              %s.`, strings.Join(amrmap.DerivedVariables(), ", ")),
			defaultVal: []string{"mass"},
			flagsets:   []*pflag.FlagSet{projectCmd.Flags(), profileCmd.Flags(), statsCmd.Flags()},
		},
		{
			name: "Units",
			usage: `
              Units are the output units of the Variables, in the same order.
              Empty means code units.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{projectCmd.Flags(), profileCmd.Flags(), statsCmd.Flags()},
		},
		{
			name: "Modes",
			usage: `
              Modes are the reduction modes of the Variables, in the same order:
              sum, mean, variance, or std. Empty means sum for extensive
              quantities and mean for the others.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{projectCmd.Flags(), profileCmd.Flags()},
		},
		{
			name: "Weight",
			usage: `
              Weight is the variable that weighted modes and statistics are
              weighted by. Empty means mass.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{projectCmd.Flags(), profileCmd.Flags(), statsCmd.Flags()},
		},
		{
			name: "WeightUnit",
			usage: `
              WeightUnit is the unit of the Weight variable.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{projectCmd.Flags(), profileCmd.Flags(), statsCmd.Flags()},
		},
		{
			name: "Resolution",
			usage: `
              Resolution is the number of pixels along the longer side of the
              projected maps.`,
			shorthand:  "r",
			defaultVal: 256,
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
		{
			name: "PixelSize",
			usage: `
              PixelSize is the edge length of the pixels in RangeUnit. It can
              be used instead of Resolution, which must then be set to 0.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
		{
			name: "Directions",
			usage: `
              Directions are the lines of sight to project along: x, y, or z.`,
			defaultVal: []string{"z"},
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
		{
			name: "Center",
			usage: `
              Center is the reference point of the ranges and radii in
              RangeUnit, as "x,y,z". "bc" or an empty value means the center
              of the box.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{projectCmd.Flags(), profileCmd.Flags()},
		},
		{
			name: "XRange",
			usage: `
              XRange limits the region along x to "min,max" relative to
              Center, in RangeUnit. Empty means the whole box.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
		{
			name: "YRange",
			usage: `
              YRange limits the region along y to "min,max" relative to
              Center, in RangeUnit. Empty means the whole box.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
		{
			name: "ZRange",
			usage: `
              ZRange limits the region along z to "min,max" relative to
              Center, in RangeUnit. Empty means the whole box.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
		{
			name: "RangeUnit",
			usage: `
              RangeUnit is the length unit of Center, the ranges, PixelSize,
              and the profile radii. Empty means code units.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{projectCmd.Flags(), profileCmd.Flags()},
		},
		{
			name: "LevelMax",
			usage: `
              LevelMax, if greater than zero, coarsens cells that are finer
              than LevelMax before they are projected.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
		{
			name: "Threads",
			usage: `
              Threads is the maximum number of workers. 0 means one per CPU.`,
			shorthand:  "t",
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{projectCmd.Flags(), profileCmd.Flags()},
		},
		{
			name: "Strategy",
			usage: `
              Strategy is the accumulator strategy: auto, dense, or sparse.`,
			defaultVal: "auto",
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
		{
			name: "GapFill.Enabled",
			usage: `
              GapFill.Enabled specifies whether empty pixels surrounded by
              populated pixels are filled in the maps of weighted modes.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
		{
			name: "GapFill.Threshold",
			usage: `
              GapFill.Threshold is the fraction of the largest pixel weight at
              or below which a pixel is considered empty.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
		{
			name: "GapFill.MinNeighbors",
			usage: `
              GapFill.MinNeighbors is the number of populated neighbors an empty
              pixel needs to be filled. 0 means the default for the
              connectivity.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
		{
			name: "GapFill.Connectivity",
			usage: `
              GapFill.Connectivity is the pixel neighborhood, 4 or 8.`,
			defaultVal: 8,
			flagsets:   []*pflag.FlagSet{projectCmd.Flags()},
		},
		{
			name: "Profile.Kind",
			usage: `
              Profile.Kind is sphere or cylinder.`,
			defaultVal: "sphere",
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
		{
			name: "Profile.Axis",
			usage: `
              Profile.Axis is the axis of cylindrical profiles: x, y, or z.`,
			defaultVal: "z",
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
		{
			name: "Profile.Bins",
			usage: `
              Profile.Bins is the number of radial bins.`,
			defaultVal: 50,
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
		{
			name: "Profile.RMin",
			usage: `
              Profile.RMin is the inner radius of the profile in RangeUnit.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
		{
			name: "Profile.RMax",
			usage: `
              Profile.RMax is the outer radius of the profile in RangeUnit.
              0 means the distance to the farthest corner of the box.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
		{
			name: "Profile.Log",
			usage: `
              Profile.Log specifies whether the bins are spaced logarithmically.
              It requires Profile.RMin > 0.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
		{
			name: "Synth.BoxLength",
			usage: `
              Synth.BoxLength is the edge length of the synthetic box in code units.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{synthCmd.Flags()},
		},
		{
			name: "Synth.Lmin",
			usage: `
              Synth.Lmin is the coarsest level of the synthetic table.`,
			defaultVal: 5,
			flagsets:   []*pflag.FlagSet{synthCmd.Flags()},
		},
		{
			name: "Synth.Lmax",
			usage: `
              Synth.Lmax is the finest level of the synthetic table.`,
			defaultVal: 6,
			flagsets:   []*pflag.FlagSet{synthCmd.Flags()},
		},
		{
			name: "Synth.Radius",
			usage: `
              Synth.Radius is the radius in code units of the sphere around
              the box center that is refined to Synth.Lmax.`,
			defaultVal: 0.25,
			flagsets:   []*pflag.FlagSet{synthCmd.Flags()},
		},
		{
			name: "Synth.CoreRadius",
			usage: `
              Synth.CoreRadius is the core radius of the gas density profile in
              code units. 0 means uniform density.`,
			defaultVal: 0.1,
			flagsets:   []*pflag.FlagSet{synthCmd.Flags()},
		},
		{
			name: "Synth.Omega",
			usage: `
              Synth.Omega is the angular velocity of the gas about the z axis
              in code units.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{synthCmd.Flags()},
		},
		{
			name: "Synth.Temperature",
			usage: `
              Synth.Temperature is the ratio of pressure to density in code
              units. 0 means 1.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{synthCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("AMRMAP")

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
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
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
	Root.AddCommand(synthCmd)
	Root.AddCommand(projectCmd)
	Root.AddCommand(profileCmd)
	Root.AddCommand(statsCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("amrmap: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "amrmap",
	Short: "Project adaptive mesh refinement data onto regular maps.",
	Long: `AMRmap projects the cells of adaptive mesh refinement simulation snapshots
onto regular two-dimensional maps and reduces them into radial profiles and
summary statistics. Use the subcommands specified below to access the
functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'AMRMAP_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of AMRmap.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("AMRmap v%s (data version %s)\n", amrmap.Version, amrmap.DataVersion)
	},
	DisableAutoGenTag: true,
}

// synthCmd is a command that creates a synthetic cell table.
var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Create a synthetic cell table.",
	Long: `synth creates a synthetic AMR snapshot holding a gas cloud in a box
refined to Synth.Lmax within Synth.Radius of the box center, and saves it
as a NetCDF cell table in OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := SyntheticConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		log, closeLog := newLogger(cmd.OutOrStdout(), Cfg.GetString("LogFile"), Cfg.GetBool("Verbose"))
		defer closeLog()
		return Synth(c, outputFile, log)
	},
	DisableAutoGenTag: true,
}

// projectCmd is a command that projects a cell table onto maps.
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project a cell table onto maps.",
	Long: `project reads the cell table in CellTable, projects the requested
Variables along each of the Directions, and saves the maps in NetCDF
format. Variables are resolved once and shared among the directions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, dirs, err := RequestConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		t, err := loadCellTable(Cfg)
		if err != nil {
			return err
		}
		log, closeLog := newLogger(cmd.OutOrStdout(), Cfg.GetString("LogFile"), req.Verbose)
		defer closeLog()
		req.Log = log
		return Project(t, req, dirs, outputFile)
	},
	DisableAutoGenTag: true,
}

// profileCmd is a command that calculates a radial profile.
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Calculate a radial profile.",
	Long: `profile reads the cell table in CellTable, bins the cells by their
distance from Center, and saves the reduced Variables in each bin in
NetCDF format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := ProfileConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		t, err := loadCellTable(Cfg)
		if err != nil {
			return err
		}
		log, closeLog := newLogger(cmd.OutOrStdout(), Cfg.GetString("LogFile"), req.Verbose)
		defer closeLog()
		req.Log = log
		return Profile(t, req, outputFile)
	},
	DisableAutoGenTag: true,
}

// statsCmd is a command that summarizes the variables of a cell table.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize cell table variables.",
	Long: `stats reads the cell table in CellTable and prints the sum of each of
the extensive Variables and weighted statistics of all of the Variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadCellTable(Cfg)
		if err != nil {
			return err
		}
		log, closeLog := newLogger(cmd.OutOrStdout(), Cfg.GetString("LogFile"), Cfg.GetBool("Verbose"))
		defer closeLog()
		_, err = Stats(t, expandStringSlice(Cfg.GetStringSlice("Variables")),
			expandStringSlice(Cfg.GetStringSlice("Units")),
			Cfg.GetString("Weight"), Cfg.GetString("WeightUnit"), log)
		return err
	},
	DisableAutoGenTag: true,
}
